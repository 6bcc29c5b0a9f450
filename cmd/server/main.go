package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/victoralfred/retail_analytics/internal/app"
	"github.com/victoralfred/retail_analytics/internal/config"
	"github.com/victoralfred/retail_analytics/internal/handlers"
	"github.com/victoralfred/retail_analytics/internal/logging"
	"github.com/victoralfred/retail_analytics/internal/metrics"
	"github.com/victoralfred/retail_analytics/internal/server"
)

func main() {
	configPath := flag.String("config", os.Getenv("ANALYTICS_CONFIG"), "path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	logger.Info("Starting Retail Analytics Server...",
		zap.String("transport", cfg.Engine.Transport),
		zap.Duration("request_timeout", cfg.Engine.RequestTimeout),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	engine, err := app.NewEngine(ctx, cfg, logger, m)
	if err != nil {
		logger.Fatal("Failed to initialize analytics engine", zap.Error(err))
	}
	defer func() {
		if err := engine.Close(); err != nil {
			logger.Error("Failed to close analytics engine", zap.Error(err))
		}
	}()

	// Eager start surfaces a broken worker context at boot
	if err := engine.Correlator.Start(ctx); err != nil {
		logger.Fatal("Failed to start analytics worker context", zap.Error(err))
	}

	var fallback handlers.LocalComputer
	if cfg.Engine.SyncFallback {
		fallback = engine.Dispatcher
	}

	httpServer := server.New(cfg, &server.Services{
		AnalyticsHandler: handlers.NewAnalyticsHandler(engine.Client, fallback, logger, m),
		DocsHandler:      handlers.NewDocsHandler(cfg.Version),
		Metrics:          m,
		Pending:          engine.Correlator.Pending,
	}, logger)
	httpServer.Setup()

	fmt.Printf("Retail Analytics API listening on http://localhost:%d (docs at /v1/docs)\n", cfg.Port)

	if err := httpServer.Start(ctx); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
	}
}
