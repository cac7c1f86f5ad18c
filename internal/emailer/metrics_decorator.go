package emailer

import (
	"context"
	"time"

	"github.com/vinciere/coming-soon/internal/metrics"
	"github.com/vinciere/coming-soon/internal/models"
)

type MetricsSender struct {
	channel string
	wrapped Sender
	m       *metrics.Metrics
}

func NewMetricsSender(channel string, wrapped Sender, m *metrics.Metrics) *MetricsSender {
	return &MetricsSender{
		channel: channel,
		wrapped: wrapped,
		m:       m,
	}
}

func (s *MetricsSender) Send(ctx context.Context, msg models.Message) error {
	start := time.Now()
	err := s.wrapped.Send(ctx, msg)
	s.m.RecordEmail(s.channel, time.Since(start), err)
	return err
}
