package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
// Both the ingestion API and the broadcast bridge load the same Config and
// use the fields relevant to them.
type Config struct {
	// Ingestion API service.
	HTTPAddr     string
	DatabaseURL  string
	BroadcastURL string

	// Broadcast bridge service.
	BridgeWSAddr     string
	BridgeHTTPAddr   string
	SendBufferSize   int
	WriteTimeout     time.Duration
	BroadcastTimeout time.Duration

	// SMS notification side-channel (disabled unless fully configured).
	TwilioSID     string
	TwilioToken   string
	TwilioFrom    string
	SMSRecipients []string
	SMSEnabled    bool

	// Kafka archive sink for broadcast frames (feature-flagged).
	KafkaBrokers        []string
	KafkaArchiveTopic   string
	KafkaArchiveEnabled bool

	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDurationEnv("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	broadcastTimeout, err := parseDurationEnv("BROADCAST_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	writeTimeout, err := parseDurationEnv("WRITE_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	sendBuffer, err := parseIntEnv("SEND_BUFFER_SIZE", 32, 1, 4096)
	if err != nil {
		return nil, err
	}

	twilioSID := os.Getenv("TWILIO_SID")
	twilioToken := os.Getenv("TWILIO_TOKEN")
	twilioFrom := os.Getenv("TWILIO_FROM")

	cfg := &Config{
		HTTPAddr:     envOrDefault("HTTP_ADDR", ":8000"),
		DatabaseURL:  envOrDefault("DATABASE_URL", "postgres://localhost:5432/coastal?sslmode=disable"),
		BroadcastURL: envOrDefault("BROADCAST_URL", "http://localhost:8002/broadcast"),

		BridgeWSAddr:     envOrDefault("BRIDGE_WS_ADDR", ":8001"),
		BridgeHTTPAddr:   envOrDefault("BRIDGE_HTTP_ADDR", ":8002"),
		SendBufferSize:   sendBuffer,
		WriteTimeout:     writeTimeout,
		BroadcastTimeout: broadcastTimeout,

		TwilioSID:     twilioSID,
		TwilioToken:   twilioToken,
		TwilioFrom:    twilioFrom,
		SMSRecipients: splitAndTrim(os.Getenv("SMS_RECIPIENTS")),
		SMSEnabled:    twilioSID != "" && twilioToken != "" && twilioFrom != "",

		KafkaBrokers:        splitAndTrim(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaArchiveTopic:   envOrDefault("KAFKA_ARCHIVE_TOPIC", "broadcast-archive"),
		KafkaArchiveEnabled: os.Getenv("KAFKA_ARCHIVE_ENABLED") == "true",

		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}

	anyTwilio := twilioSID != "" || twilioToken != "" || twilioFrom != ""
	if anyTwilio && !cfg.SMSEnabled {
		return nil, errors.New("TWILIO_SID, TWILIO_TOKEN and TWILIO_FROM must all be set to enable SMS")
	}
	if cfg.KafkaArchiveEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ARCHIVE_ENABLED is true but KAFKA_BROKERS is empty")
	}
	if cfg.BroadcastURL == "" {
		return nil, errors.New("BROADCAST_URL is required")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDurationEnv(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseIntEnv(key string, fallback, minVal, maxVal int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < minVal || n > maxVal {
		return 0, fmt.Errorf("invalid %s: must be an integer in [%d,%d]", key, minVal, maxVal)
	}
	return n, nil
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
