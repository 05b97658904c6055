package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Addr != ":5000" {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}
	if cfg.Server.MaxRequestBodyBytes != 1<<20 {
		t.Errorf("max body = %d", cfg.Server.MaxRequestBodyBytes)
	}
	if cfg.Enrichment.APIKeyEnv != "BACKBOARD_API_KEY" {
		t.Errorf("api key env = %q", cfg.Enrichment.APIKeyEnv)
	}
	if cfg.Cache.TTLSeconds != 900 {
		t.Errorf("cache ttl = %d", cfg.Cache.TTLSeconds)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "info" {
		t.Errorf("logging defaults = %q/%q", cfg.Logging.Format, cfg.Logging.Level)
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("default config must validate: %v", err)
	}
}

func TestLoadAppliesDefaultsToPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policyxray.yaml")
	content := `
server:
  addr: ":8080"
rules:
  count_per_occurrence: true
enrichment:
  call_timeout_seconds: 15
cache:
  redis_addr: "localhost:6379"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}
	if !cfg.Rules.CountPerOccurrence {
		t.Error("count_per_occurrence not parsed")
	}
	if cfg.Enrichment.CallTimeoutSeconds != 15 {
		t.Errorf("call timeout = %d", cfg.Enrichment.CallTimeoutSeconds)
	}
	if cfg.Cache.RedisAddr != "localhost:6379" {
		t.Errorf("redis addr = %q", cfg.Cache.RedisAddr)
	}
	// Untouched sections still get defaults.
	if cfg.Events.QueueSize != 1000 {
		t.Errorf("queue size = %d", cfg.Events.QueueSize)
	}
	if cfg.Enrichment.PerCategory != 2 {
		t.Errorf("per category = %d", cfg.Enrichment.PerCategory)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("server: [not: a map"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected a parse error")
	}
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantSub string
	}{
		{"empty addr", func(c *Config) { c.Server.Addr = "  " }, "server.addr"},
		{"blank origin", func(c *Config) { c.Server.AllowedOrigins = []string{"*", " "} }, "allowed_origins"},
		{"bad enrichment url", func(c *Config) { c.Enrichment.BaseURL = "not-a-url" }, "enrichment.base_url"},
		{"ftp enrichment url", func(c *Config) { c.Enrichment.BaseURL = "ftp://example.com" }, "http or https"},
		{"timeout ceiling", func(c *Config) { c.Enrichment.CallTimeoutSeconds = 120 }, "ceiling"},
		{"bad webhook url", func(c *Config) { c.Events.WebhookURL = "://nope" }, "events.webhook_url"},
		{"bad telemetry protocol", func(c *Config) { c.Telemetry.Protocol = "udp" }, "telemetry.protocol"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaultConfig()
			tc.mutate(cfg)
			err := Validate(cfg)
			if err == nil {
				t.Fatal("expected a validation error")
			}
			if !strings.Contains(err.Error(), tc.wantSub) {
				t.Errorf("error %q does not mention %q", err, tc.wantSub)
			}
		})
	}
}

func TestValidateNilConfig(t *testing.T) {
	if err := Validate(nil); err == nil {
		t.Fatal("nil config must not validate")
	}
}
