package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate checks the loaded config for required fields and safe values.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	if strings.TrimSpace(cfg.Server.Addr) == "" {
		return errors.New("server.addr must be set")
	}
	for _, origin := range cfg.Server.AllowedOrigins {
		if strings.TrimSpace(origin) == "" {
			return errors.New("server.allowed_origins must not contain empty entries")
		}
	}

	if err := validateURLField("enrichment.base_url", cfg.Enrichment.BaseURL); err != nil {
		return err
	}
	if cfg.Enrichment.CallTimeoutSeconds > 60 {
		return fmt.Errorf("enrichment.call_timeout_seconds %d exceeds the 60s ceiling", cfg.Enrichment.CallTimeoutSeconds)
	}

	if cfg.Events.WebhookURL != "" {
		if err := validateURLField("events.webhook_url", cfg.Events.WebhookURL); err != nil {
			return err
		}
	}

	switch strings.ToLower(cfg.Telemetry.Protocol) {
	case "", "grpc", "http":
	default:
		return fmt.Errorf("telemetry.protocol %q must be grpc or http", cfg.Telemetry.Protocol)
	}

	switch strings.ToLower(cfg.Logging.Format) {
	case "", "json", "text":
	default:
		return fmt.Errorf("logging.format %q must be json or text", cfg.Logging.Format)
	}
	switch strings.ToLower(cfg.Logging.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q must be debug, info, warn or error", cfg.Logging.Level)
	}

	return nil
}

func validateURLField(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s %q is not a valid URL", field, raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s %q must use http or https", field, raw)
	}
	return nil
}
