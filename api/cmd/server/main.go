package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"mcq-exam/api/internal/app"
	"mcq-exam/api/internal/config"
	"mcq-exam/api/internal/handle"
	"mcq-exam/api/internal/httpserver"
	"mcq-exam/api/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("app init", zap.Error(err))
	}
	defer func() { _ = a.Close() }()

	h := handle.New(a.Pipeline, a.Exams, cfg.MaxUploadBytes(), logger.Named("http"))
	// uploads may wait for enrichment
	timeout := cfg.EnrichTimeout + 30*time.Second
	if err := httpserver.Run(ctx, "0.0.0.0:"+cfg.Port, h.Routes(cfg.CORSOrigins, timeout), logger); err != nil {
		logger.Fatal("server", zap.Error(err))
	}
}
