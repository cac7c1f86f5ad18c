package emailer

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/vinciere/coming-soon/internal/models"
	"github.com/vinciere/coming-soon/pkg/logger"
)

// LogSender logs messages instead of delivering them. Useful for development.
type LogSender struct {
	from   string
	logger zerolog.Logger
}

func NewLogSender(from string, l zerolog.Logger) *LogSender {
	return &LogSender{
		from:   from,
		logger: l.With().Str("component", "LogSender").Logger(),
	}
}

func (s *LogSender) Send(_ context.Context, msg models.Message) error {
	from := msg.From
	if from == "" {
		from = s.from
	}

	s.logger.Info().
		Str("message_id", msg.ID).
		Str("from", from).
		Str("to", logger.RedactEmail(msg.To)).
		Str("reply_to", logger.RedactEmail(msg.ReplyTo)).
		Str("subject", msg.Subject).
		Int("text_bytes", len(msg.Text)).
		Int("html_bytes", len(msg.HTML)).
		Msg("email (dev mode - not actually sent)")
	return nil
}
