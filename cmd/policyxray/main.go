package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/policyxray/policyxray/internal/analyzer"
	"github.com/policyxray/policyxray/internal/cache"
	"github.com/policyxray/policyxray/internal/config"
	"github.com/policyxray/policyxray/internal/enrich"
	"github.com/policyxray/policyxray/internal/events"
	"github.com/policyxray/policyxray/internal/logging"
	"github.com/policyxray/policyxray/internal/rules"
	"github.com/policyxray/policyxray/internal/server"
	"github.com/policyxray/policyxray/internal/telemetry"
)

var version = "0.1.0"

func main() {
	addrFlag := flag.String("addr", "", "HTTP listen address (overrides config)")
	configPath := flag.String("config", "policyxray.yaml", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := config.Validate(cfg); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	logger := logging.Init(cfg.Logging.Format, cfg.Logging.Level)

	addr := cfg.Server.Addr
	if *addrFlag != "" {
		addr = *addrFlag
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ruleSet, err := rules.Load(cfg.Rules.File)
	if err != nil {
		logger.Error("failed to load rules", "error", err)
		os.Exit(1)
	}
	logger.Info("rule set loaded", "categories", len(ruleSet.IDs()))

	az := analyzer.New(ruleSet, analyzer.Options{
		DedupePerSegment: !cfg.Rules.CountPerOccurrence,
	})

	enricher := buildEnricher(cfg, logger)

	var resultCache cache.Cache
	if !cfg.Cache.Disabled {
		password := ""
		if cfg.Cache.RedisPasswordEnv != "" {
			password = os.Getenv(cfg.Cache.RedisPasswordEnv)
		}
		resultCache = cache.New(ctx, cfg.Cache.RedisAddr, password, cfg.Cache.RedisDB)
	}

	emitter := buildEmitter(cfg, logger)
	defer emitter.Close(context.Background())

	tel, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:  cfg.Telemetry.Enabled,
		Endpoint: cfg.Telemetry.Endpoint,
		Protocol: cfg.Telemetry.Protocol,
		Service:  "policyxray",
		Version:  version,
	})
	if err != nil {
		logger.Error("failed to init telemetry", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		tel.Shutdown(shutdownCtx)
	}()

	srv := server.New(cfg, az, enricher, resultCache, emitter, tel, logger)
	if err := srv.Start(ctx, addr); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// buildEnricher wires the Backboard client when an API key is actually
// configured; enrichment requests downgrade to rule-only output otherwise.
func buildEnricher(cfg *config.Config, logger *slog.Logger) enrich.Enricher {
	apiKey := os.Getenv(cfg.Enrichment.APIKeyEnv)
	if enrich.IsPlaceholderKey(apiKey) {
		logger.Warn("enrichment API key not configured; AI enrichment disabled",
			"env", cfg.Enrichment.APIKeyEnv)
		return nil
	}
	logger.Info("enrichment configured", "base_url", cfg.Enrichment.BaseURL)
	return enrich.NewBackboard(
		cfg.Enrichment.BaseURL,
		apiKey,
		time.Duration(cfg.Enrichment.CallTimeoutSeconds)*time.Second,
		0,
	)
}

func buildEmitter(cfg *config.Config, logger *slog.Logger) *events.Emitter {
	var sinks []events.Sink
	if cfg.Events.Stdout {
		sinks = append(sinks, events.NewStdoutSink())
	}
	if cfg.Events.File != "" {
		sink, err := events.NewFileSink(cfg.Events.File)
		if err != nil {
			logger.Warn("events file sink unavailable", "path", cfg.Events.File, "error", err)
		} else {
			sinks = append(sinks, sink)
		}
	}
	if cfg.Events.WebhookURL != "" {
		headers := map[string]string{}
		if cfg.Events.WebhookAuthHeader != "" {
			headers["Authorization"] = cfg.Events.WebhookAuthHeader
		}
		sink, err := events.NewWebhookSink(cfg.Events.WebhookURL, headers, 0)
		if err != nil {
			logger.Warn("events webhook sink unavailable", "url", cfg.Events.WebhookURL, "error", err)
		} else {
			sinks = append(sinks, sink)
		}
	}
	return events.NewEmitter(events.EmitterConfig{QueueSize: cfg.Events.QueueSize}, sinks)
}
