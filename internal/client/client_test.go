package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vinciere/coming-soon/internal/client"
)

type recorder struct {
	mu     sync.Mutex
	events []client.Status
}

func (r *recorder) observe(s client.Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, s)
}

func (r *recorder) snapshot() []client.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]client.Status(nil), r.events...)
}

func relay(t *testing.T, status int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestPresentation(t *testing.T) {
	tests := []struct {
		status   client.Status
		label    string
		style    string
		disabled bool
	}{
		{client.StatusIdle, "Notify Me", "bg-white text-black hover:bg-opacity-90", false},
		{client.StatusLoading, "Sending...", "bg-gray-400 cursor-not-allowed", true},
		{client.StatusSuccess, "Subscribed!", "bg-green-500 text-white", false},
		{client.StatusError, "Failed!", "bg-red-500 text-white", false},
		{client.Status(42), "Notify Me", "bg-white text-black hover:bg-opacity-90", false},
	}

	for _, tt := range tests {
		t.Run(tt.status.String(), func(t *testing.T) {
			p := tt.status.Presentation()
			assert.Equal(t, tt.label, p.Label)
			assert.Equal(t, tt.style, p.Style)
			assert.Equal(t, tt.disabled, p.Disabled)
		})
	}
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "idle", client.StatusIdle.String())
	assert.Equal(t, "loading", client.StatusLoading.String())
	assert.Equal(t, "success", client.StatusSuccess.String())
	assert.Equal(t, "error", client.StatusError.String())
}

func TestSubmit_Success(t *testing.T) {
	type captured struct {
		contentType string
		body        map[string]string
	}
	requests := make(chan captured, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := captured{contentType: r.Header.Get("Content-Type")}
		_ = json.NewDecoder(r.Body).Decode(&req.body)
		requests <- req
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	rec := &recorder{}
	c := client.New(srv.URL, client.WithResetDelay(50*time.Millisecond), client.WithOnChange(rec.observe))
	defer c.Close()
	c.SetEmail("alice@example.com")

	status, err := c.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, client.StatusSuccess, status)
	req := <-requests
	assert.Equal(t, "application/json", req.contentType)
	assert.Equal(t, map[string]string{"email": "alice@example.com"}, req.body)
	assert.Empty(t, c.Email())

	require.Eventually(t, func() bool { return c.Status() == client.StatusIdle }, time.Second, 5*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, []client.Status{client.StatusLoading, client.StatusSuccess, client.StatusIdle}, rec.snapshot())
}

func TestSubmit_RelayFailure(t *testing.T) {
	srv, hits := relay(t, http.StatusInternalServerError)

	c := client.New(srv.URL, client.WithResetDelay(time.Hour))
	defer c.Close()
	c.SetEmail("bob@example.com")

	status, err := c.Submit(context.Background())
	require.ErrorIs(t, err, client.ErrRelayRejected)
	assert.Equal(t, client.StatusError, status)
	assert.Equal(t, client.StatusError, c.Status())
	assert.Equal(t, "bob@example.com", c.Email())
	assert.EqualValues(t, 1, hits.Load())
}

func TestSubmit_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := client.New(url, client.WithResetDelay(time.Hour))
	defer c.Close()
	c.SetEmail("bob@example.com")

	status, err := c.Submit(context.Background())
	require.Error(t, err)
	assert.Equal(t, client.StatusError, status)
}

func TestSubmit_InvalidEmail(t *testing.T) {
	srv, hits := relay(t, http.StatusOK)
	rec := &recorder{}

	c := client.New(srv.URL, client.WithOnChange(rec.observe))
	defer c.Close()

	for _, email := range []string{"", "not-an-email", "a@"} {
		c.SetEmail(email)
		status, err := c.Submit(context.Background())
		require.ErrorIs(t, err, client.ErrInvalidEmail)
		assert.Equal(t, client.StatusIdle, status)
	}

	assert.Zero(t, hits.Load())
	assert.Empty(t, rec.snapshot())
	assert.Equal(t, client.StatusIdle, c.Status())
}

func TestSubmit_InFlight(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-release
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := client.New(srv.URL, client.WithResetDelay(time.Hour))
	defer c.Close()
	c.SetEmail("carol@example.com")

	done := make(chan error, 1)
	go func() {
		_, err := c.Submit(context.Background())
		done <- err
	}()

	<-entered
	assert.Equal(t, client.StatusLoading, c.Status())
	assert.True(t, c.Status().Presentation().Disabled)

	status, err := c.Submit(context.Background())
	require.ErrorIs(t, err, client.ErrSubmissionInFlight)
	assert.Equal(t, client.StatusLoading, status)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, client.StatusSuccess, c.Status())
}

func TestSubmit_LaterSubmissionSupersedesReset(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 2 {
			time.Sleep(150 * time.Millisecond)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	rec := &recorder{}
	c := client.New(srv.URL, client.WithResetDelay(100*time.Millisecond), client.WithOnChange(rec.observe))
	defer c.Close()

	c.SetEmail("dave@example.com")
	_, err := c.Submit(context.Background())
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)
	c.SetEmail("erin@example.com")
	status, err := c.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, client.StatusSuccess, status)

	require.Eventually(t, func() bool { return len(rec.snapshot()) == 5 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, client.StatusIdle, c.Status())
	assert.Equal(t, []client.Status{
		client.StatusLoading, client.StatusSuccess,
		client.StatusLoading, client.StatusSuccess,
		client.StatusIdle,
	}, rec.snapshot())
}

func TestClose_CancelsReset(t *testing.T) {
	srv, _ := relay(t, http.StatusOK)

	c := client.New(srv.URL, client.WithResetDelay(30*time.Millisecond))
	c.SetEmail("frank@example.com")

	_, err := c.Submit(context.Background())
	require.NoError(t, err)
	c.Close()

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, client.StatusSuccess, c.Status())
}

func TestSubmit_ContextCanceled(t *testing.T) {
	srv, hits := relay(t, http.StatusOK)

	c := client.New(srv.URL, client.WithResetDelay(time.Hour))
	defer c.Close()
	c.SetEmail("gina@example.com")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	status, err := c.Submit(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, client.StatusError, status)
	assert.Zero(t, hits.Load())
}

func TestOnChange_ReadsClientDuringSlowCallback(t *testing.T) {
	srv, _ := relay(t, http.StatusOK)

	rec := &recorder{}
	var c *client.Client
	var seenInside []client.Status
	c = client.New(srv.URL,
		client.WithResetDelay(time.Millisecond),
		client.WithOnChange(func(s client.Status) {
			if s == client.StatusSuccess {
				time.Sleep(50 * time.Millisecond)
			}
			seenInside = append(seenInside, c.Status())
			_ = c.Email()
			rec.observe(s)
		}),
	)
	defer c.Close()
	c.SetEmail("hana@example.com")

	done := make(chan client.Status, 1)
	go func() {
		status, _ := c.Submit(context.Background())
		done <- status
	}()

	select {
	case status := <-done:
		assert.Equal(t, client.StatusSuccess, status)
	case <-time.After(2 * time.Second):
		t.Fatal("Submit did not return while the listener read the client")
	}

	require.Eventually(t, func() bool { return len(rec.snapshot()) == 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []client.Status{client.StatusLoading, client.StatusSuccess, client.StatusIdle}, rec.snapshot())
	assert.Len(t, seenInside, 3)
	assert.Equal(t, client.StatusIdle, c.Status())
}

func TestOnChange_SubmitFromListener(t *testing.T) {
	srv, hits := relay(t, http.StatusOK)

	rec := &recorder{}
	var c *client.Client
	resubmitted := false
	c = client.New(srv.URL,
		client.WithResetDelay(time.Hour),
		client.WithOnChange(func(s client.Status) {
			rec.observe(s)
			if s == client.StatusSuccess && !resubmitted {
				resubmitted = true
				c.SetEmail("again@example.com")
				_, _ = c.Submit(context.Background())
			}
		}),
	)
	defer c.Close()
	c.SetEmail("ivan@example.com")

	_, err := c.Submit(context.Background())
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(rec.snapshot()) == 4 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []client.Status{
		client.StatusLoading, client.StatusSuccess,
		client.StatusLoading, client.StatusSuccess,
	}, rec.snapshot())
	assert.EqualValues(t, 2, hits.Load())
}

func TestDefaultResetDelay(t *testing.T) {
	assert.Equal(t, 3*time.Second, client.DefaultResetDelay)
}
