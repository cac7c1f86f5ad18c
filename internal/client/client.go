// Package client models the subscription form: it validates the address,
// submits it to the relay and drives the button status.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/vinciere/coming-soon/internal/models"
)

const (
	DefaultResetDelay = 3 * time.Second
	DefaultRelayURL   = "http://localhost:3000/api/subscribe"

	drainLimit = 4 << 10
)

var (
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrSubmissionInFlight = errors.New("submission already in flight")
	ErrRelayRejected      = errors.New("relay rejected subscription")
)

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithResetDelay(d time.Duration) Option {
	return func(c *Client) { c.resetDelay = d }
}

// WithOnChange registers fn to observe every status transition in order.
// fn runs with no lock held and may call any method on the Client.
func WithOnChange(fn func(Status)) Option {
	return func(c *Client) { c.onChange = fn }
}

type Client struct {
	relayURL   string
	http       *http.Client
	resetDelay time.Duration
	onChange   func(Status)
	validate   *validator.Validate

	mu         sync.Mutex
	status     Status
	email      string
	submission uuid.UUID
	reset      *time.Timer
	closed     bool
	pending    []Status
	draining   bool
}

func New(relayURL string, opts ...Option) *Client {
	if relayURL == "" {
		relayURL = DefaultRelayURL
	}
	c := &Client{
		relayURL:   relayURL,
		http:       http.DefaultClient,
		resetDelay: DefaultResetDelay,
		validate:   validator.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) SetEmail(email string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.email = email
}

func (c *Client) Email() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.email
}

func (c *Client) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Submit posts the current field value to the relay and returns the terminal
// status. Invalid input and a submission already in flight are rejected
// without touching the status or the network.
func (c *Client) Submit(ctx context.Context) (Status, error) {
	c.mu.Lock()
	if c.status == StatusLoading {
		c.mu.Unlock()
		return StatusLoading, ErrSubmissionInFlight
	}
	email := c.email
	if err := c.validate.Var(email, "required,email"); err != nil {
		current := c.status
		c.mu.Unlock()
		return current, fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	}

	c.stopResetLocked()
	id := uuid.New()
	c.submission = id
	c.status = StatusLoading
	c.emitLocked(StatusLoading)

	err := c.post(ctx, email)

	c.mu.Lock()
	final := StatusSuccess
	if err != nil {
		final = StatusError
	} else {
		c.email = ""
	}
	c.status = final
	if !c.closed {
		c.reset = time.AfterFunc(c.resetDelay, func() { c.resetIdle(id) })
	}
	c.emitLocked(final)

	return final, err
}

// Close stops a pending reset. The client keeps its last status.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.stopResetLocked()
}

func (c *Client) resetIdle(id uuid.UUID) {
	c.mu.Lock()
	if c.closed || c.submission != id || (c.status != StatusSuccess && c.status != StatusError) {
		c.mu.Unlock()
		return
	}
	c.status = StatusIdle
	c.reset = nil
	c.emitLocked(StatusIdle)
}

func (c *Client) stopResetLocked() {
	if c.reset != nil {
		c.reset.Stop()
		c.reset = nil
	}
}

// emitLocked queues s for the listener and releases c.mu. Whichever
// goroutine finds the queue idle delivers every queued transition in order;
// c.mu is never held while the listener runs.
func (c *Client) emitLocked(s Status) {
	if c.onChange == nil {
		c.mu.Unlock()
		return
	}
	c.pending = append(c.pending, s)
	if c.draining {
		c.mu.Unlock()
		return
	}
	c.draining = true
	for len(c.pending) > 0 {
		next := c.pending[0]
		c.pending = c.pending[1:]
		c.mu.Unlock()
		c.onChange(next)
		c.mu.Lock()
	}
	c.draining = false
	c.mu.Unlock()
}

func (c *Client) post(ctx context.Context, email string) error {
	payload, err := json.Marshal(models.SubscriptionRequest{Email: email})
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.relayURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("relay request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, drainLimit))

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("%w: status %d", ErrRelayRejected, resp.StatusCode)
	}
	return nil
}
