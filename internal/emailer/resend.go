package emailer

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"

	"github.com/vinciere/coming-soon/internal/models"
	"github.com/vinciere/coming-soon/pkg/logger"
)

// ResendSender sends emails using the Resend API.
type ResendSender struct {
	client *resend.Client
	from   string
	logger zerolog.Logger
}

func NewResendSender(apiKey, from string, l zerolog.Logger) *ResendSender {
	return &ResendSender{
		client: resend.NewClient(apiKey),
		from:   from,
		logger: l.With().Str("component", "ResendSender").Logger(),
	}
}

func (s *ResendSender) Send(ctx context.Context, msg models.Message) error {
	from := msg.From
	if from == "" {
		from = s.from
	}

	params := &resend.SendEmailRequest{
		From:    from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
	}
	if msg.ReplyTo != "" {
		params.ReplyTo = msg.ReplyTo
	}
	if msg.ID != "" {
		params.Headers = map[string]string{"X-Entity-Ref-ID": msg.ID}
	}

	sent, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("message_id", msg.ID).
			Str("to", logger.RedactEmail(msg.To)).
			Msg("resend send failed")
		return fmt.Errorf("resend: failed to send email: %w", err)
	}

	s.logger.Info().
		Str("message_id", msg.ID).
		Str("resend_id", sent.Id).
		Str("to", logger.RedactEmail(msg.To)).
		Msg("email sent successfully")
	return nil
}
