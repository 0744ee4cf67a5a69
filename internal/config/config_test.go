package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load with defaults failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("default server.port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Name != "codegate" {
		t.Errorf("default database.name = %q, want codegate", cfg.Database.Name)
	}
	if cfg.Auth.APIKeys.TimestampWindow != 300*time.Second {
		t.Errorf("default timestamp window = %v, want 300s", cfg.Auth.APIKeys.TimestampWindow)
	}
	if !cfg.Security.RateLimiting.Enabled || cfg.Security.RateLimiting.Backend != "memory" {
		t.Errorf("unexpected rate limiting defaults: %+v", cfg.Security.RateLimiting)
	}
	if cfg.Security.RateLimiting.MaxAttempts != 5 || cfg.Security.RateLimiting.Window != time.Minute {
		t.Errorf("unexpected rate limiting defaults: %+v", cfg.Security.RateLimiting)
	}
	if cfg.Jobs.RetentionDays != 90 {
		t.Errorf("default jobs.retention_days = %d, want 90", cfg.Jobs.RetentionDays)
	}
	if cfg.Auth.Bootstrap.Username != "admin" {
		t.Errorf("default auth.bootstrap.username = %q, want admin", cfg.Auth.Bootstrap.Username)
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  port: 9001
database:
  host: db.internal
  name: codegate_test
security:
  rate_limiting:
    backend: redis
    redis_addr: localhost:6379
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load(%s) failed: %v", path, err)
	}
	if cfg.Server.Port != 9001 {
		t.Errorf("server.port = %d, want 9001", cfg.Server.Port)
	}
	if cfg.Database.Host != "db.internal" {
		t.Errorf("database.host = %q, want db.internal", cfg.Database.Host)
	}
	if cfg.Security.RateLimiting.Backend != "redis" {
		t.Errorf("rate_limiting.backend = %q, want redis", cfg.Security.RateLimiting.Backend)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("CG_DATABASE_HOST", "env-db")
	t.Setenv("CG_SERVER_PORT", "7070")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Database.Host != "env-db" {
		t.Errorf("database.host = %q, want env-db", cfg.Database.Host)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("server.port = %d, want 7070", cfg.Server.Port)
	}
}

func TestLoad_ExpandsSecretReferences(t *testing.T) {
	t.Setenv("SUPER_SECRET_DB_PASSWORD", "hunter2")
	t.Setenv("CG_DATABASE_PASSWORD", "${SUPER_SECRET_DB_PASSWORD}")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Database.Password != "hunter2" {
		t.Errorf("database.password = %q, want expanded secret", cfg.Database.Password)
	}
}

func TestValidate_RejectsBadValues(t *testing.T) {
	base := func() *Config {
		cfg, err := Load("")
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		return cfg
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"missing db host", func(c *Config) { c.Database.Host = "" }},
		{"bad limiter backend", func(c *Config) { c.Security.RateLimiting.Backend = "memcached" }},
		{"redis backend without addr", func(c *Config) {
			c.Security.RateLimiting.Backend = "redis"
			c.Security.RateLimiting.RedisAddr = ""
		}},
		{"zero attempts", func(c *Config) { c.Security.RateLimiting.MaxAttempts = 0 }},
		{"negative retention", func(c *Config) { c.Jobs.RetentionDays = -1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestDatabaseConfig_GetDSN(t *testing.T) {
	d := DatabaseConfig{
		Host: "localhost", Port: 5432, Name: "codegate",
		User: "cg", Password: "pw", SSLMode: "disable",
	}
	want := "host=localhost port=5432 user=cg password=pw dbname=codegate sslmode=disable"
	if got := d.GetDSN(); got != want {
		t.Errorf("GetDSN() = %q, want %q", got, want)
	}
}
