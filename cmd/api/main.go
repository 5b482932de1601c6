package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/coastal-threat-bridge/internal/alerting"
	"github.com/couchcryptid/coastal-threat-bridge/internal/config"
	"github.com/couchcryptid/coastal-threat-bridge/internal/gateway"
	"github.com/couchcryptid/coastal-threat-bridge/internal/ingest"
	"github.com/couchcryptid/coastal-threat-bridge/internal/notify"
	"github.com/couchcryptid/coastal-threat-bridge/internal/observability"
	"github.com/couchcryptid/coastal-threat-bridge/internal/scoring"
	"github.com/couchcryptid/coastal-threat-bridge/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(cfg.DatabaseURL, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Ping(ctx); err != nil {
		logger.Error("database unreachable", "error", err)
		os.Exit(1)
	}
	if err := db.Migrate(ctx); err != nil {
		logger.Error("migration failed", "error", err)
		os.Exit(1)
	}

	publisher := gateway.NewClient(cfg.BroadcastURL, cfg.BroadcastTimeout, logger)

	// SMS is feature-flagged via the TWILIO_* variables.
	var notifier ingest.Notifier
	if cfg.SMSEnabled {
		notifier = notify.NewTwilioNotifier(cfg.TwilioSID, cfg.TwilioToken, cfg.TwilioFrom, logger)
		logger.Info("sms notifications enabled", "recipients", len(cfg.SMSRecipients))
	} else {
		logger.Info("sms notifications disabled")
	}

	orchestrator := ingest.NewOrchestrator(
		scoring.NewEngine(nil, logger),
		alerting.NewPolicy(),
		db,
		publisher,
		notifier,
		cfg.SMSRecipients,
		logger,
		metrics,
	)

	srv := ingest.NewServer(cfg.HTTPAddr, orchestrator, db, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
