package emailer

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/vinciere/coming-soon/internal/config"
	"github.com/vinciere/coming-soon/internal/metrics"
	"github.com/vinciere/coming-soon/internal/models"
)

var (
	ErrUnknownDriver      = errors.New("unknown email driver")
	ErrChannelUnavailable = errors.New("mail channel unavailable")
)

// Sender hands one message to a mail channel. Implementations are safe for
// concurrent use.
type Sender interface {
	Send(ctx context.Context, msg models.Message) error
}

// New builds the sender selected by EMAIL_DRIVER, wrapped with the circuit
// breaker (when enabled) and metrics.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger, m *metrics.Metrics) (Sender, error) {
	var (
		sender Sender
		err    error
	)

	switch cfg.Email.Driver {
	case config.DriverSMTP:
		sender = NewSMTPService(cfg, logger)
	case config.DriverResend:
		sender = NewResendSender(cfg.Resend.APIKey, cfg.Sender(), logger)
	case config.DriverSES:
		sender, err = NewSESSender(ctx, cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("init ses sender: %w", err)
		}
	case config.DriverLog:
		sender = NewLogSender(cfg.Sender(), logger)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Email.Driver)
	}

	if cfg.Breaker.Enabled {
		sender = NewBreakerSender(cfg.Email.Driver, sender, cfg.Breaker)
	}

	return NewMetricsSender(cfg.Email.Driver, sender, m), nil
}
