package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"

	"texttransform/app/config"
	"texttransform/app/usecase"
	"texttransform/internal/infrastructure/llm"
	"texttransform/internal/infrastructure/metrics"
	"texttransform/internal/infrastructure/transport"
)

func main() {
	configFile := pflag.String("config", "", "Path to a YAML config file")
	pflag.Parse()

	// .env is optional
	_ = godotenv.Load()

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("load config failed", "err", err)
		os.Exit(1)
	}

	// logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(cfg.Log.Level),
	}))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Gemini client, created once and shared by all requests
	capability, err := llm.NewGeminiCapability(ctx, llm.GeminiConfig{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Timeout: cfg.LLM.Timeout,
	})
	if err != nil {
		logger.Error("gemini client init failed", "err", err)
		os.Exit(1)
	}
	logger.Info("gemini client initialized", "model", cfg.LLM.Model)

	transformSvc := usecase.NewTextTransformService(capability, cfg.LLM.Model, logger)

	// Transport (HTTP handlers)
	handler := transport.NewTextTransformHandler(transformSvc, logger, prometheus.DefaultRegisterer)

	addr := cfg.Server.Addr()
	srv := &http.Server{
		Addr:         addr,
		Handler:      transport.NewRouter(handler, logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("starting metrics server", "addr", cfg.Metrics.Addr)
		if err := metrics.StartMetricsServer(cfg.Metrics.Addr); err != nil {
			logger.Error("metrics server failed", "err", err)
		}
	}()

	// Start HTTP server
	go func() {
		logger.Info("starting HTTP server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "err", err)
			cancel()
		}
	}()

	// OS signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutdown signal received")
	case <-ctx.Done():
		logger.Info("context cancelled")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	logger.Info("shutting down http server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}

	logger.Info("service stopped")
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
