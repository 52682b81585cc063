package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"marketintel/internal/config"
	"marketintel/internal/stubapi"
	"marketintel/internal/util"
)

func main() {
	// Load config.
	cfgPath := "config/marketintel.yaml"
	if p := os.Getenv("MARKETINTEL_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.LoadOrDefault(cfgPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level, os.Stderr)
	util.SetDefault(logger)

	// Fixtures: a configured file, else the embedded demo set.
	var fx *stubapi.Fixtures
	if cfg.Stub.Fixtures != "" {
		fx, err = stubapi.LoadFixtures(cfg.Stub.Fixtures)
	} else {
		fx, err = stubapi.DemoFixtures()
	}
	if err != nil {
		log.Fatalf("loading fixtures: %v", err)
	}
	logger.Info("fixtures loaded", "tickers", len(fx.Tickers), "assets", len(fx.Assets), "analyses", len(fx.Analyses))

	srv := stubapi.NewServer(fx, cfg.Stub.Latency, logger)
	httpServer := &http.Server{
		Addr:    cfg.Stub.Addr,
		Handler: srv.Handler(),
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		logger.Info("stub service listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down stub service")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
