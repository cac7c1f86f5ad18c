package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/vinciere/coming-soon/internal/app"
	"github.com/vinciere/coming-soon/internal/config"
	"github.com/vinciere/coming-soon/internal/metrics"
	"github.com/vinciere/coming-soon/pkg/logger"
)

// @title Coming Soon Subscription Relay
// @version 1.0
// @description Relays launch-notification sign-ups to the operator mailbox
// @host localhost:3000
// @BasePath /api/
func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("No .env file found: %v", err)
	}

	cfg, err := config.NewConfig()
	if err != nil {
		log.Panicf("failed to load configuration: %v", err)
	}

	gin.SetMode(cfg.GinMode)

	l, err := logger.NewLogger(cfg.LogsPath, "subscription_relay", cfg.LogLevel)
	if err != nil {
		log.Panicf("failed to initialize logger: %v", err)
	}

	m := metrics.NewMetrics("subscription_relay")

	application := app.New(*cfg, l, m)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := application.Start(ctx); err != nil {
		log.Panic(err)
	}
}
