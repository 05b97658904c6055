package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds PolicyX-Ray configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Rules      RulesConfig      `yaml:"rules"`
	Enrichment EnrichmentConfig `yaml:"enrichment"`
	Cache      CacheConfig      `yaml:"cache"`
	Events     EventsConfig     `yaml:"events"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type ServerConfig struct {
	Addr                     string   `yaml:"addr"` // HTTP listen address, e.g. ":5000"
	MaxRequestBodyBytes      int64    `yaml:"max_request_body_bytes"`
	MaxInFlightRequests      int      `yaml:"max_in_flight_requests"`
	ReadHeaderTimeoutSeconds int      `yaml:"read_header_timeout_seconds"`
	ReadTimeoutSeconds       int      `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds      int      `yaml:"write_timeout_seconds"`
	IdleTimeoutSeconds       int      `yaml:"idle_timeout_seconds"`
	AllowedOrigins           []string `yaml:"allowed_origins"`
}

type RulesConfig struct {
	// File optionally replaces the built-in rule set with a yaml file.
	File string `yaml:"file"`
	// CountPerOccurrence counts repeated identical keywords inside one
	// clause per occurrence instead of once.
	CountPerOccurrence bool `yaml:"count_per_occurrence"`
}

type EnrichmentConfig struct {
	BaseURL            string `yaml:"base_url"`     // e.g. "https://app.backboard.io/api"
	APIKeyEnv          string `yaml:"api_key_env"`  // e.g. "BACKBOARD_API_KEY"
	CallTimeoutSeconds int    `yaml:"call_timeout_seconds"`
	PerCategory        int    `yaml:"per_category"` // matches annotated per category
}

type CacheConfig struct {
	RedisAddr        string `yaml:"redis_addr"` // empty = in-memory cache
	RedisPasswordEnv string `yaml:"redis_password_env"`
	RedisDB          int    `yaml:"redis_db"`
	TTLSeconds       int    `yaml:"ttl_seconds"`
	Disabled         bool   `yaml:"disabled"`
}

type EventsConfig struct {
	Stdout            bool   `yaml:"stdout"`
	File              string `yaml:"file"`
	WebhookURL        string `yaml:"webhook_url"`
	WebhookAuthHeader string `yaml:"webhook_auth_header"` // value for Authorization
	QueueSize         int    `yaml:"queue_size"`
}

type TelemetryConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
	Protocol string `yaml:"protocol"` // grpc | http
}

type LoggingConfig struct {
	Format string `yaml:"format"` // json | text
	Level  string `yaml:"level"`  // debug | info | warn | error
}

// Load reads configuration from a YAML file.
// If the file doesn't exist, it returns a default config and no error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaultConfig(), nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func defaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":5000"
	}
	if cfg.Server.MaxRequestBodyBytes <= 0 {
		// Page-extracted text tops out around 50k characters; leave
		// generous headroom for JSON framing.
		cfg.Server.MaxRequestBodyBytes = 1 << 20
	}
	if cfg.Server.MaxInFlightRequests <= 0 {
		cfg.Server.MaxInFlightRequests = 64
	}
	if cfg.Server.ReadHeaderTimeoutSeconds <= 0 {
		cfg.Server.ReadHeaderTimeoutSeconds = 5
	}
	if cfg.Server.ReadTimeoutSeconds <= 0 {
		cfg.Server.ReadTimeoutSeconds = 30
	}
	if cfg.Server.WriteTimeoutSeconds <= 0 {
		cfg.Server.WriteTimeoutSeconds = 60
	}
	if cfg.Server.IdleTimeoutSeconds <= 0 {
		cfg.Server.IdleTimeoutSeconds = 120
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"*"}
	}

	if cfg.Enrichment.BaseURL == "" {
		cfg.Enrichment.BaseURL = "https://app.backboard.io/api"
	}
	if cfg.Enrichment.APIKeyEnv == "" {
		cfg.Enrichment.APIKeyEnv = "BACKBOARD_API_KEY"
	}
	if cfg.Enrichment.CallTimeoutSeconds <= 0 {
		cfg.Enrichment.CallTimeoutSeconds = 10
	}
	if cfg.Enrichment.PerCategory <= 0 {
		cfg.Enrichment.PerCategory = 2
	}

	if cfg.Cache.TTLSeconds <= 0 {
		cfg.Cache.TTLSeconds = 900
	}

	if cfg.Events.QueueSize <= 0 {
		cfg.Events.QueueSize = 1000
	}

	if cfg.Telemetry.Protocol == "" {
		cfg.Telemetry.Protocol = "grpc"
	}

	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}
