// Package logger provides an http.RoundTripper that logs outbound relay
// calls with zap.
package logger

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const snipLimit = 512

type RoundTripper struct {
	Logger *zap.Logger
	Proxy  http.RoundTripper
}

func NewRoundTripper(logger *zap.Logger, proxy http.RoundTripper) *RoundTripper {
	if proxy == nil {
		proxy = http.DefaultTransport
	}
	return &RoundTripper{
		Logger: logger,
		Proxy:  proxy,
	}
}

func (l *RoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := l.Proxy.RoundTrip(req)
	duration := time.Since(start)

	if err != nil {
		l.Logger.Error("relay request failed",
			zap.String("method", req.Method),
			zap.String("url", req.URL.String()),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return nil, err
	}

	snipped, err := io.ReadAll(io.LimitReader(resp.Body, snipLimit))
	if err != nil {
		_ = resp.Body.Close()
		l.Logger.Error("failed to read relay response body",
			zap.String("method", req.Method),
			zap.String("url", req.URL.String()),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return nil, err
	}
	// Only the snipped prefix is buffered; the rest streams to the caller.
	resp.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(snipped), resp.Body), resp.Body}

	l.Logger.Info("relay request completed",
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()),
		zap.String("request_id", resp.Header.Get("X-Request-ID")),
		zap.Int("status_code", resp.StatusCode),
		zap.ByteString("body_snipped", snipped),
		zap.Duration("duration", duration),
	)

	return resp, nil
}
