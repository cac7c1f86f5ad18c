package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	swaggerfiles "github.com/swaggo/files"
	swagger "github.com/swaggo/gin-swagger"

	_ "github.com/vinciere/coming-soon/docs"
	"github.com/vinciere/coming-soon/internal/config"
	"github.com/vinciere/coming-soon/internal/emailer"
	"github.com/vinciere/coming-soon/internal/handlers/subscription"
	"github.com/vinciere/coming-soon/internal/metrics"
	"github.com/vinciere/coming-soon/internal/services/email"
)

const corsMaxAge = 300

type App struct {
	cfg config.Config
	l   zerolog.Logger
	m   *metrics.Metrics
}

type ServiceContainer struct {
	Sender       emailer.Sender
	EmailService *email.Service

	Router *gin.Engine
	Srv    *http.Server
}

func New(cfg config.Config, logger zerolog.Logger, m *metrics.Metrics) *App {
	logger = logger.With().Str("service", "subscription-relay").Logger()
	return &App{cfg: cfg, l: logger, m: m}
}

func (a *App) Init(ctx context.Context) (ServiceContainer, error) {
	a.l.Info().
		Str("driver", a.cfg.Email.Driver).
		Str("addr", a.cfg.ServerAddress()).
		Bool("breaker", a.cfg.Breaker.Enabled).
		Msg("Initializing application")

	sender, err := emailer.New(ctx, &a.cfg, a.l, a.m)
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("init mail channel: %w", err)
	}

	emailService, err := email.NewService(sender, a.cfg.Email.Recipient)
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("init email service: %w", err)
	}

	router := NewRouter(emailService, a.cfg, a.l, a.m)

	srv := &http.Server{
		Addr:              a.cfg.ServerAddress(),
		Handler:           WithCORS(router, a.cfg.CORS),
		ReadTimeout:       a.cfg.Server.ReadTimeout,
		ReadHeaderTimeout: a.cfg.Server.ReadTimeout,
		WriteTimeout:      a.cfg.Server.WriteTimeout,
	}

	return ServiceContainer{
		Sender:       sender,
		EmailService: emailService,
		Router:       router,
		Srv:          srv,
	}, nil
}

// Start serves until ctx is canceled, then shuts the server down gracefully.
func (a *App) Start(ctx context.Context) error {
	srvContainer, err := a.Init(ctx)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		a.l.Info().Str("http_addr", srvContainer.Srv.Addr).Msg("HTTP server listening")
		if err := srvContainer.Srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			a.l.Error().Err(err).Msg("HTTP server error")
			return err
		}
	case <-ctx.Done():
		a.l.Info().Msg("Shutdown signal received")
	}

	return a.Stop(srvContainer)
}

func (a *App) Stop(srvContainer ServiceContainer) error {
	a.l.Info().Msg("Stopping application")

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srvContainer.Srv.Shutdown(ctx); err != nil {
		a.l.Error().Err(err).Msg("HTTP shutdown error")
		return err
	}

	a.l.Info().Msg("Application shutdown complete")
	return nil
}

// NewRouter wires the relay routes. It is shared by Start and the
// integration tests.
func NewRouter(svc *email.Service, cfg config.Config, l zerolog.Logger, m *metrics.Metrics) *gin.Engine {
	router := gin.New()

	subHandler := subscription.NewHandler(svc, cfg.Email.SendTimeout, l, m)

	router.Use(
		subscription.RequestID(),
		subscription.AccessLog(l),
		m.HTTPMiddleware(),
		subHandler.Recovery(),
	)

	api := router.Group("/api")
	{
		api.POST("/subscribe", subHandler.Subscribe)
	}
	router.POST("/subscribe", subHandler.Subscribe)

	router.GET("/health", subscription.Health)
	router.GET("/metrics", gin.WrapH(m.Handler()))
	router.GET("/swagger/*any", swagger.WrapHandler(swaggerfiles.Handler))

	return router
}

func WithCORS(h http.Handler, cfg config.CORS) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", subscription.RequestIDHeader},
		ExposedHeaders: []string{subscription.RequestIDHeader},
		MaxAge:         corsMaxAge,
	})(h)
}
