package subscription

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vinciere/coming-soon/internal/models"
	"github.com/vinciere/coming-soon/pkg/logger"
)

const (
	defaultTimeout = 30 * time.Second

	MsgInvalidEmail = "Invalid email address"
	MsgSendFailed   = "Failed to send email"
)

type notifier interface {
	NotifySubscription(ctx context.Context, subscriber string) error
}

type recorder interface {
	RecordSubscription(result string)
}

type Handler struct {
	Service notifier
	timeout time.Duration
	log     zerolog.Logger
	m       recorder
}

func NewHandler(svc notifier, timeout time.Duration, l zerolog.Logger, m recorder) *Handler {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Handler{
		Service: svc,
		timeout: timeout,
		log:     l.With().Str("component", "SubscriptionHandler").Logger(),
		m:       m,
	}
}

// Subscribe
// @Summary Request a launch notification
// @Description Forwards the submitted email address to the operator mailbox.
// @Tags subscription
// @Accept json
// @Produce json
// @Param request body models.SubscriptionRequest true "Subscriber email"
// @Success 200 {object} models.SubscriptionResponse
// @Failure 400 {object} models.SubscriptionResponse
// @Failure 500 {object} models.SubscriptionResponse
// @Router /subscribe [post]
func (h *Handler) Subscribe(c *gin.Context) {
	var req models.SubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn().
			Err(err).
			Str("request_id", c.GetString(RequestIDKey)).
			Msg("rejected subscription request")
		h.m.RecordSubscription("invalid")
		c.JSON(http.StatusBadRequest, models.SubscriptionResponse{Success: false, Error: MsgInvalidEmail})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	if err := h.Service.NotifySubscription(ctx, req.Email); err != nil {
		h.log.Error().
			Err(err).
			Str("request_id", c.GetString(RequestIDKey)).
			Str("email", logger.RedactEmail(req.Email)).
			Msg("failed to send subscription email")
		h.m.RecordSubscription("failed")
		c.JSON(http.StatusInternalServerError, models.SubscriptionResponse{Success: false, Error: MsgSendFailed})
		return
	}

	h.log.Info().
		Str("request_id", c.GetString(RequestIDKey)).
		Str("email", logger.RedactEmail(req.Email)).
		Msg("subscription forwarded")
	h.m.RecordSubscription("sent")
	c.JSON(http.StatusOK, models.SubscriptionResponse{Success: true})
}

// Recovery turns a panic anywhere in the chain into the generic failure body.
func (h *Handler) Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		h.log.Error().
			Interface("panic", recovered).
			Str("request_id", c.GetString(RequestIDKey)).
			Str("path", c.Request.URL.Path).
			Msg("recovered from panic")
		c.AbortWithStatusJSON(http.StatusInternalServerError,
			models.SubscriptionResponse{Success: false, Error: MsgSendFailed})
	})
}
