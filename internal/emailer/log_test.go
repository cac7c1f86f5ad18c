package emailer_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vinciere/coming-soon/internal/emailer"
	"github.com/vinciere/coming-soon/internal/models"
)

func TestLogSender_RedactsAddresses(t *testing.T) {
	var buf bytes.Buffer
	s := emailer.NewLogSender("relay@vinciere.lk", zerolog.New(&buf))

	err := s.Send(context.Background(), models.Message{
		ID:      "msg-1",
		To:      "owner@vinciere.lk",
		ReplyTo: "subscriber@example.com",
		Subject: "New Newsletter Subscription",
		Text:    "New subscription request from: subscriber@example.com",
		HTML:    "<p>New subscription request from: <strong>subscriber@example.com</strong></p>",
	})
	require.NoError(t, err)

	out := buf.String()
	assert.NotContains(t, out, "subscriber@example.com")
	assert.NotContains(t, out, "owner@vinciere.lk")
	assert.Contains(t, out, `"reply_to":"su***@example.com"`)
	assert.Contains(t, out, `"message_id":"msg-1"`)
}
