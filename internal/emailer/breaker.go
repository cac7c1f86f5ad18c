package emailer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/vinciere/coming-soon/internal/config"
	"github.com/vinciere/coming-soon/internal/models"
)

const breakerInterval = 60 * time.Second

// BreakerSender fails fast while the wrapped channel keeps failing. It never
// retries: a rejected call is reported as ErrChannelUnavailable.
type BreakerSender struct {
	name    string
	cb      *gobreaker.CircuitBreaker
	wrapped Sender
}

func NewBreakerSender(name string, wrapped Sender, cfg config.Breaker) *BreakerSender {
	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = 1
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    breakerInterval,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
	}

	return &BreakerSender{
		name:    name,
		cb:      gobreaker.NewCircuitBreaker(settings),
		wrapped: wrapped,
	}
}

func (b *BreakerSender) Send(ctx context.Context, msg models.Message) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.wrapped.Send(ctx, msg)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%s %w: %w", b.name, ErrChannelUnavailable, err)
	}
	return err
}

func (b *BreakerSender) State() gobreaker.State {
	return b.cb.State()
}
