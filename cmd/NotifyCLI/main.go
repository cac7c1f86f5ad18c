package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/vinciere/coming-soon/internal/client"
	rtlogger "github.com/vinciere/coming-soon/internal/services/logger"
)

const (
	fileMode      = 0o644
	clientTimeout = 30 * time.Second
)

func main() {
	relayURL := flag.String("relay", client.DefaultRelayURL, "relay subscribe endpoint")
	email := flag.String("email", "", "address to subscribe")
	reset := flag.Duration("reset", client.DefaultResetDelay, "delay before the button returns to idle; 0 exits immediately")
	logPath := flag.String("log", "", "file for HTTP logs (stderr when empty)")
	flag.Parse()

	zl, err := newZapLogger(*logPath)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = run(ctx, zl, *relayURL, *email, *reset)
	stop()
	_ = zl.Sync()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, zl *zap.Logger, relayURL, email string, reset time.Duration) error {
	idle := make(chan struct{}, 1)

	c := client.New(relayURL,
		client.WithHTTPClient(&http.Client{
			Transport: rtlogger.NewRoundTripper(zl, nil),
			Timeout:   clientTimeout,
		}),
		client.WithResetDelay(reset),
		client.WithOnChange(func(s client.Status) {
			fmt.Println(s.Presentation().Label)
			if s == client.StatusIdle {
				select {
				case idle <- struct{}{}:
				default:
				}
			}
		}),
	)
	defer c.Close()

	fmt.Println(c.Status().Presentation().Label)
	c.SetEmail(email)

	status, err := c.Submit(ctx)
	if errors.Is(err, client.ErrInvalidEmail) {
		return err
	}

	if reset > 0 {
		select {
		case <-idle:
		case <-ctx.Done():
		}
	}

	if status != client.StatusSuccess {
		return fmt.Errorf("subscription failed: %w", err)
	}
	return nil
}

func newZapLogger(path string) (*zap.Logger, error) {
	writer := zapcore.Lock(os.Stderr)
	if path != "" {
		file, err := os.OpenFile(filepath.Clean(path), os.O_APPEND|os.O_CREATE|os.O_WRONLY, fileMode)
		if err != nil {
			return nil, err
		}
		writer = zapcore.AddSync(file)
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), writer, zap.InfoLevel)
	return zap.New(core), nil
}
