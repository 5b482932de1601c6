package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/coastal-threat-bridge/internal/archive"
	"github.com/couchcryptid/coastal-threat-bridge/internal/bridge"
	"github.com/couchcryptid/coastal-threat-bridge/internal/config"
	"github.com/couchcryptid/coastal-threat-bridge/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	// Archiving is feature-flagged via KAFKA_ARCHIVE_ENABLED / KAFKA_BROKERS.
	var archiver bridge.Archiver
	var kafkaArchiver *archive.KafkaArchiver
	if cfg.KafkaArchiveEnabled {
		kafkaArchiver = archive.NewKafkaArchiver(cfg.KafkaBrokers, cfg.KafkaArchiveTopic, logger)
		archiver = kafkaArchiver
		logger.Info("kafka archiving enabled", "topic", cfg.KafkaArchiveTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("kafka archiving disabled")
	}

	hub := bridge.NewHub(archiver, logger, metrics)

	subscriberSrv := bridge.NewSubscriberServer(cfg, hub, logger)
	publishSrv := bridge.NewPublishServer(cfg.BridgeHTTPAddr, hub, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start the fan-out loop.
	go hub.Run(ctx)

	// Start the websocket subscriber server.
	go func() {
		if err := subscriberSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("subscriber server error", "error", err)
		}
	}()

	// Start the broadcast HTTP server.
	go func() {
		if err := publishSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("publish server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := publishSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("publish server shutdown error", "error", err)
	}
	if err := subscriberSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("subscriber server shutdown error", "error", err)
	}
	if kafkaArchiver != nil {
		if err := kafkaArchiver.Close(); err != nil {
			logger.Error("kafka archiver close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
