package config

import (
	"time"
)

// Config represents the complete application configuration
// following the Fulmen Forge Workhorse Standard three-layer pattern:
// Layer 1: Crucible defaults (config/mailcred/v0/mailcred-defaults.yaml)
// Layer 2: User overrides (~/.config/mailcred/mailcred/config.yaml)
// Layer 3: Environment variables and runtime overrides
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Store    StoreConfig    `mapstructure:"store"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Resolver ResolverConfig `mapstructure:"resolver"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Health   HealthConfig   `mapstructure:"health"`
	Debug    DebugConfig    `mapstructure:"debug"`
	Workers  int            `mapstructure:"workers"`

	RateLimits      map[string]int `mapstructure:"rate_limits"`
	RateLimitMargin float64        `mapstructure:"rate_limit_margin"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// StoreConfig contains database configuration for libsql/Turso
type StoreConfig struct {
	Driver    string `mapstructure:"driver"`
	Path      string `mapstructure:"path"`
	URL       string `mapstructure:"url"`
	AuthToken string `mapstructure:"auth_token"`
}

// CacheConfig contains registrant cache TTL configuration.
type CacheConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	OwnerTTL time.Duration `mapstructure:"owner_ttl"`
}

// AnalysisConfig contains the recognition and comparison thresholds.
type AnalysisConfig struct {
	// BrandThreshold is the minimum n-gram overlap for fuzzy brand matches.
	BrandThreshold float64 `mapstructure:"brand_threshold"`
	// ShortThreshold applies to queries at or below ShortLength characters.
	ShortThreshold float64 `mapstructure:"short_threshold"`
	ShortLength    int     `mapstructure:"short_length"`
	// OwnerThreshold is the minimum owner-terms overlap for a registrant match.
	OwnerThreshold float64 `mapstructure:"owner_threshold"`
	// OwnerSimilarity is the minimum Levenshtein similarity for a registrant match.
	OwnerSimilarity float64 `mapstructure:"owner_similarity"`
	PrivacyPenalty  float64 `mapstructure:"privacy_penalty"`
	BrandWeight     float64 `mapstructure:"brand_weight"`
	OwnerWeight     float64 `mapstructure:"owner_weight"`
}

// ResolverConfig contains registrant resolution configuration.
type ResolverConfig struct {
	// AttemptTimeout bounds each chain entry lookup.
	AttemptTimeout time.Duration `mapstructure:"attempt_timeout"`
	// MaxAttempts bounds the fallback chain walk.
	MaxAttempts int `mapstructure:"max_attempts"`
	// Servers overrides the WHOIS server per TLD.
	Servers map[string]string `mapstructure:"servers"`
	// WebEndpoint is the lookup page pattern for the web scrape adapter.
	WebEndpoint string `mapstructure:"web_endpoint"`
}

// LoggingConfig contains logging configuration
// Supports progressive logging profiles per Fulmen Forge Workhorse Standard:
// - SIMPLE: Console output only, minimal configuration (CLI tools)
// - STRUCTURED: Structured sinks, correlation IDs (API services)
// - ENTERPRISE: Multiple sinks, middleware, throttling, policy enforcement (production)
type LoggingConfig struct {
	// Level controls the minimum log level
	// Valid values: trace, debug, info, warn, error
	Level string `mapstructure:"level"`

	// Profile selects the logging complexity level
	// Valid values: SIMPLE, STRUCTURED, ENTERPRISE
	Profile string `mapstructure:"profile"`
}

// MetricsConfig contains Prometheus metrics configuration
type MetricsConfig struct {
	// Enabled controls whether metrics are exposed
	Enabled bool `mapstructure:"enabled"`

	// Port is the dedicated metrics endpoint port (Prometheus format)
	// Metrics are also available at the main HTTP port in JSON format
	Port int `mapstructure:"port"`
}

// HealthConfig contains health check configuration
type HealthConfig struct {
	// Enabled controls whether health endpoints are exposed
	Enabled bool `mapstructure:"enabled"`
}

// DebugConfig contains debug and profiling configuration
type DebugConfig struct {
	// Enabled controls whether debug mode is active
	Enabled bool `mapstructure:"enabled"`

	// PprofEnabled controls whether pprof endpoints are exposed
	// WARNING: Only enable in development/staging environments
	PprofEnabled bool `mapstructure:"pprof_enabled"`
}
