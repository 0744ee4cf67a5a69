// Package config loads and validates the CodeGate server configuration with Viper.
//
// Configuration is layered: built-in defaults < YAML config file < environment
// variables. Environment variables use the CG_ prefix (CG_DATABASE_HOST
// overrides database.host in the YAML), so the same binary runs with a
// config.yaml in local development and with pure environment variables in
// containers.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Security  SecurityConfig  `mapstructure:"security"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Jobs      JobsConfig      `mapstructure:"jobs"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	BaseURL      string        `mapstructure:"base_url"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// GetAddress returns the listen address in host:port form.
func (s *ServerConfig) GetAddress() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host               string `mapstructure:"host"`
	Port               int    `mapstructure:"port"`
	Name               string `mapstructure:"name"`
	User               string `mapstructure:"user"`
	Password           string `mapstructure:"password"`
	SSLMode            string `mapstructure:"ssl_mode"`
	MaxConnections     int    `mapstructure:"max_connections"`
	MinIdleConnections int    `mapstructure:"min_idle_connections"`
}

// GetDSN returns the lib/pq connection string.
func (d *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// AuthConfig holds admin-session and SDK-credential configuration.
type AuthConfig struct {
	JWT       JWTConfig       `mapstructure:"jwt"`
	APIKeys   APIKeysConfig   `mapstructure:"api_keys"`
	Bootstrap BootstrapConfig `mapstructure:"bootstrap"`
}

// BootstrapConfig holds the initial admin account created on first start.
// The account is flagged is_initial_password until the password is rotated
// through the console.
type BootstrapConfig struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// JWTConfig configures admin bearer tokens.
type JWTConfig struct {
	// Secret signs admin session tokens. Required outside dev mode; see
	// auth.ValidateJWTSecret.
	Secret    string        `mapstructure:"secret"`
	ExpiresIn time.Duration `mapstructure:"expires_in"`
}

// APIKeysConfig configures the SDK credential scheme.
type APIKeysConfig struct {
	// Prefix is prepended to generated public key identifiers (e.g. "cg_").
	Prefix string `mapstructure:"prefix"`
	// TimestampWindow bounds the |now - X-Timestamp| skew accepted by the
	// HMAC signature check.
	TimestampWindow time.Duration `mapstructure:"timestamp_window"`
}

// SecurityConfig holds CORS and rate limiting configuration.
type SecurityConfig struct {
	CORS         CORSConfig         `mapstructure:"cors"`
	RateLimiting RateLimitingConfig `mapstructure:"rate_limiting"`
}

// CORSConfig holds CORS allowlists for the admin frontend.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
}

// RateLimitingConfig guards the verification endpoints.
type RateLimitingConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Backend selects "memory" (per-process sliding window) or "redis"
	// (redis_rate, for multi-replica deployments).
	Backend     string        `mapstructure:"backend"`
	MaxAttempts int           `mapstructure:"max_attempts"`
	Window      time.Duration `mapstructure:"window"`
	RedisAddr   string        `mapstructure:"redis_addr"`
	RedisDB     int           `mapstructure:"redis_db"`
}

// LoggingConfig holds slog configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TelemetryConfig holds metrics configuration.
type TelemetryConfig struct {
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// MetricsConfig configures the Prometheus side-channel listener.
type MetricsConfig struct {
	Enabled        bool `mapstructure:"enabled"`
	PrometheusPort int  `mapstructure:"prometheus_port"`
}

// JobsConfig holds background job configuration.
type JobsConfig struct {
	// ExpirySweepInterval is how often the is_expired sweep runs.
	ExpirySweepInterval time.Duration `mapstructure:"expiry_sweep_interval"`
	// RetentionDays keeps expired projects (and their codes and logs) for
	// this many days after project expiry before the cleanup job deletes them.
	// Zero disables cleanup entirely.
	RetentionDays int `mapstructure:"retention_days"`
	// CleanupInterval is how often the retention cleanup runs.
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/codegate")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No config file; defaults and environment variables apply.
	}

	v.SetEnvPrefix("CG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv() does not cooperate with Unmarshal() for nested keys, so
	// every key is bound explicitly.
	if err := bindEnvVars(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	cfg.Database.Password = expandEnv(cfg.Database.Password)
	cfg.Auth.JWT.Secret = expandEnv(cfg.Auth.JWT.Secret)
	cfg.Auth.Bootstrap.Password = expandEnv(cfg.Auth.Bootstrap.Password)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks the configuration for inconsistent or out-of-range values.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Database.MaxConnections < 1 {
		return fmt.Errorf("database.max_connections must be at least 1")
	}
	if c.Security.RateLimiting.Enabled {
		switch c.Security.RateLimiting.Backend {
		case "memory", "redis":
		default:
			return fmt.Errorf("security.rate_limiting.backend must be \"memory\" or \"redis\", got %q",
				c.Security.RateLimiting.Backend)
		}
		if c.Security.RateLimiting.Backend == "redis" && c.Security.RateLimiting.RedisAddr == "" {
			return fmt.Errorf("security.rate_limiting.redis_addr is required for the redis backend")
		}
		if c.Security.RateLimiting.MaxAttempts < 1 {
			return fmt.Errorf("security.rate_limiting.max_attempts must be at least 1")
		}
		if c.Security.RateLimiting.Window <= 0 {
			return fmt.Errorf("security.rate_limiting.window must be positive")
		}
	}
	if c.Jobs.RetentionDays < 0 {
		return fmt.Errorf("jobs.retention_days must not be negative")
	}
	return nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "codegate")
	v.SetDefault("database.user", "codegate")
	v.SetDefault("database.ssl_mode", "require")
	v.SetDefault("database.max_connections", 25)
	v.SetDefault("database.min_idle_connections", 5)

	v.SetDefault("auth.jwt.expires_in", "24h")
	v.SetDefault("auth.api_keys.prefix", "cg_")
	v.SetDefault("auth.api_keys.timestamp_window", "300s")
	v.SetDefault("auth.bootstrap.username", "admin")
	v.SetDefault("auth.bootstrap.password", "123456")

	v.SetDefault("security.cors.allowed_origins", []string{"*"})
	v.SetDefault("security.cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("security.rate_limiting.enabled", true)
	v.SetDefault("security.rate_limiting.backend", "memory")
	v.SetDefault("security.rate_limiting.max_attempts", 5)
	v.SetDefault("security.rate_limiting.window", "60s")
	v.SetDefault("security.rate_limiting.redis_db", 0)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("telemetry.metrics.enabled", true)
	v.SetDefault("telemetry.metrics.prometheus_port", 9090)

	v.SetDefault("jobs.expiry_sweep_interval", "1h")
	v.SetDefault("jobs.retention_days", 90)
	v.SetDefault("jobs.cleanup_interval", "24h")
}

// bindEnvVars explicitly binds every configuration key to its CG_-prefixed
// environment variable.
func bindEnvVars(v *viper.Viper) error {
	keys := []string{
		"server.host",
		"server.port",
		"server.base_url",
		"server.read_timeout",
		"server.write_timeout",

		"database.host",
		"database.port",
		"database.name",
		"database.user",
		"database.password",
		"database.ssl_mode",
		"database.max_connections",
		"database.min_idle_connections",

		"auth.jwt.secret",
		"auth.jwt.expires_in",
		"auth.api_keys.prefix",
		"auth.api_keys.timestamp_window",
		"auth.bootstrap.username",
		"auth.bootstrap.password",

		"security.cors.allowed_origins",
		"security.cors.allowed_methods",
		"security.rate_limiting.enabled",
		"security.rate_limiting.backend",
		"security.rate_limiting.max_attempts",
		"security.rate_limiting.window",
		"security.rate_limiting.redis_addr",
		"security.rate_limiting.redis_db",

		"logging.level",
		"logging.format",

		"telemetry.metrics.enabled",
		"telemetry.metrics.prometheus_port",

		"jobs.expiry_sweep_interval",
		"jobs.retention_days",
		"jobs.cleanup_interval",
	}
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return fmt.Errorf("failed to bind env var %q: %w", key, err)
		}
	}
	return nil
}

// expandEnv resolves ${VAR} references in sensitive fields so secrets can be
// injected indirectly (e.g. password: ${DB_PASSWORD}).
func expandEnv(value string) string {
	if strings.HasPrefix(value, "${") && strings.HasSuffix(value, "}") {
		return os.Getenv(strings.TrimSuffix(strings.TrimPrefix(value, "${"), "}"))
	}
	return value
}
