package main

import (
	"context"

	"go.uber.org/zap"

	"booking-service/internal/calendar"
	"booking-service/internal/config"
	"booking-service/internal/logging"
	"booking-service/internal/seed"
)

func main() {
	ctx := context.Background()

	cfg := config.Load()
	logger := logging.New(cfg.IsProduction())
	defer logger.Sync()

	if cfg.DatabaseURL == "" {
		logger.Fatal("DATABASE_URL required")
	}
	pool, err := calendar.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to connect to db", zap.Error(err))
	}
	defer pool.Close()

	if err := seed.Run(ctx, pool, cfg.HorizonDays, cfg.OpenHour, cfg.CloseHour, logger); err != nil {
		logger.Fatal("seed failed", zap.Error(err))
	}
}
