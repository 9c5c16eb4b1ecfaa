package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rebuildja/lead-intake/internal/api/router"
	appconfig "github.com/rebuildja/lead-intake/internal/config"
	"github.com/rebuildja/lead-intake/internal/leads"
	"github.com/rebuildja/lead-intake/internal/notify"
	"github.com/rebuildja/lead-intake/internal/observability/metrics"
	"github.com/rebuildja/lead-intake/internal/sink"
	"github.com/rebuildja/lead-intake/pkg/logging"
)

func main() {
	// Local dev convenience; no .env in production.
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting rebuild lead intake API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"sink", cfg.Sink,
	)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	leadSink, err := sink.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build sink", "error", err)
		os.Exit(1)
	}

	emailSender := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger)
	var notifier leads.Notifier
	if svc := notify.NewService(emailSender, cfg.NotifyEmail, logger); svc != nil {
		notifier = svc
	}

	intakeMetrics := metrics.NewIntakeMetrics(nil)
	intakeHandler := leads.NewHandler(cfg, leadSink, notifier, intakeMetrics, logger)

	r := router.New(&router.Config{
		Logger:             logger,
		IntakeHandler:      intakeHandler,
		MetricsHandler:     promhttp.Handler(),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
