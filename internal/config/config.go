// Package config loads the typed configuration for the notification
// gateway: load defaults, overlay secrets from the environment via
// godotenv, and resolve a nested YAML document instead of a flat env-var
// map, since the provider fallback lists cannot be expressed as flat keys.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ProviderConfig is one entry in an ordered channel provider list.
type ProviderConfig struct {
	Name               string            `yaml:"name" validate:"required"`
	Enabled            bool              `yaml:"enabled"`
	RateLimitPerSecond float64           `yaml:"rateLimitPerSecond"`
	TimeoutMs          int               `yaml:"timeoutMs"`
	Credentials        map[string]string `yaml:"credentials"`
}

// Cred returns a credential value, falling back to an environment variable
// named envKey when the YAML document leaves it blank — this is how
// secrets stay out of the checked-in config file.
func (p ProviderConfig) Cred(key, envKey string) string {
	if v, ok := p.Credentials[key]; ok && v != "" {
		return v
	}
	return os.Getenv(envKey)
}

// BusConfig configures the Kafka consumer side of the dispatch engine.
type BusConfig struct {
	Bootstrap           string   `yaml:"bootstrap" validate:"required"`
	GroupID             string   `yaml:"groupId" validate:"required"`
	AutoOffsetReset     string   `yaml:"autoOffsetReset"`
	MaxPollRecords      int      `yaml:"maxPollRecords"`
	SessionTimeoutMs    int      `yaml:"sessionTimeoutMs"`
	HeartbeatIntervalMs int      `yaml:"heartbeatIntervalMs"`
	Topics              []string `yaml:"topics" validate:"required,min=1"`
}

// ChannelsConfig holds the ordered provider lists per channel.
type ChannelsConfig struct {
	Email struct {
		Providers []ProviderConfig `yaml:"providers"`
	} `yaml:"email"`
	SMS struct {
		Providers []ProviderConfig `yaml:"providers"`
	} `yaml:"sms"`
}

// RoutingConfig configures the force-both rule.
type RoutingConfig struct {
	ForceBothOnSeverity []string `yaml:"forceBothOnSeverity"`
}

// ResolverConfig configures the customer resolver implementation.
type ResolverConfig struct {
	Type string `yaml:"type" validate:"required,oneof=mock http db"`
	HTTP struct {
		BaseURL   string `yaml:"baseUrl"`
		TimeoutMs int    `yaml:"timeoutMs"`
	} `yaml:"http"`
	DB struct {
		DSN string `yaml:"dsn"`
	} `yaml:"db"`
}

// RetryConfig configures the retry executor and the exhausted-delivery
// policy.
type RetryConfig struct {
	MaxAttempts    int     `yaml:"maxAttempts" validate:"min=1"`
	InitialDelayMs int64   `yaml:"initialDelayMs" validate:"min=0"`
	BackoffFactor  float64 `yaml:"backoffFactor" validate:"min=1"`
	MaxDelayMs     int64   `yaml:"maxDelayMs"`
	OnExhausted    string  `yaml:"onExhausted" validate:"oneof=log kafka"`
	DLQTopic       string  `yaml:"dlqTopic"`
}

// AuditConfig configures the optional Postgres delivery-attempt log.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled"`
	DSN     string `yaml:"dsn"`
}

// HealthConfig configures the liveness/readiness HTTP server.
type HealthConfig struct {
	Port int `yaml:"port" validate:"min=1"`
}

// Config is the fully resolved configuration for cmd/notification-gateway.
type Config struct {
	Bus      BusConfig      `yaml:"bus"`
	Channels ChannelsConfig `yaml:"channels"`
	Routing  RoutingConfig  `yaml:"routing"`
	Resolver ResolverConfig `yaml:"resolver"`
	Retry    RetryConfig    `yaml:"retry"`
	Audit    AuditConfig    `yaml:"audit"`
	Health   HealthConfig   `yaml:"health"`
}

func defaults() Config {
	cfg := Config{}
	cfg.Bus.AutoOffsetReset = "earliest"
	cfg.Bus.MaxPollRecords = 500
	cfg.Bus.SessionTimeoutMs = 10_000
	cfg.Bus.HeartbeatIntervalMs = 3_000
	cfg.Bus.Topics = []string{
		"notifications.fraud-alert",
		"notifications.high-value-alert",
		"notifications.balance-update",
		"notifications.dormancy-alert",
		"notifications.daily-spend-summary",
	}
	cfg.Routing.ForceBothOnSeverity = []string{"HIGH", "CRITICAL"}
	cfg.Resolver.Type = "mock"
	cfg.Resolver.HTTP.TimeoutMs = 3_000
	cfg.Retry.MaxAttempts = 3
	cfg.Retry.InitialDelayMs = 500
	cfg.Retry.BackoffFactor = 2.0
	cfg.Retry.MaxDelayMs = 10_000
	cfg.Retry.OnExhausted = "log"
	cfg.Health.Port = 8081
	return cfg
}

// MustLoad loads configuration from the file named by $CONFIG_FILE (or
// "config.yaml" when unset), overlays an optional .env, and exits the
// process on any fatal error.
func MustLoad() Config {
	cfg, err := Load(resolvePath())
	if err != nil {
		fmt.Fprintln(os.Stderr, "config: "+err.Error())
		os.Exit(1)
	}
	return cfg
}

func resolvePath() string {
	if p := os.Getenv("CONFIG_FILE"); p != "" {
		return p
	}
	return "config.yaml"
}

// Load reads and validates the configuration file at path.
func Load(path string) (Config, error) {
	_ = godotenv.Load(".env")

	cfg := defaults()

	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := validate(cfg); err != nil {
		return Config{}, err
	}

	if cfg.Retry.OnExhausted == "kafka" && strings.TrimSpace(cfg.Retry.DLQTopic) == "" {
		return Config{}, fmt.Errorf("retry.onExhausted=kafka requires retry.dlqTopic")
	}

	return cfg, nil
}

func validate(cfg Config) error {
	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	for _, p := range cfg.Channels.Email.Providers {
		if err := v.Struct(p); err != nil {
			return fmt.Errorf("invalid email provider %q: %w", p.Name, err)
		}
	}
	for _, p := range cfg.Channels.SMS.Providers {
		if err := v.Struct(p); err != nil {
			return fmt.Errorf("invalid sms provider %q: %w", p.Name, err)
		}
	}
	return nil
}

// ActiveEmailProviders returns the enabled email providers in configured
// priority order.
func (c Config) ActiveEmailProviders() []ProviderConfig {
	return activeOf(c.Channels.Email.Providers)
}

// ActiveSMSProviders returns the enabled SMS providers in configured
// priority order.
func (c Config) ActiveSMSProviders() []ProviderConfig {
	return activeOf(c.Channels.SMS.Providers)
}

func activeOf(providers []ProviderConfig) []ProviderConfig {
	out := make([]ProviderConfig, 0, len(providers))
	for _, p := range providers {
		if p.Enabled {
			out = append(out, p)
		}
	}
	return out
}
