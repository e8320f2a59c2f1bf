package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

var allKeys = []string{
	"APP_ENV", "PORT", "DATABASE_URL", "DB_AUTO_MIGRATE", "LOG_LEVEL", "LOG_FORMAT",
	"SHUTDOWN_DEADLINE", "REQUEST_BODY_LIMIT", "TRUST_REQUEST_ID_HEADER",
	"RATE_ENABLED", "RATE_RPS", "RATE_BURST", "RATE_KEY_HEADER", "TRUST_XFF", "RETRY_AFTER", "ADD_RATELIMIT_HEADERS",
	"CONCURRENCY_MAX", "CONCURRENCY_TIMEOUT",
	"STATS_REDIS_ADDR", "STATS_REDIS_PASSWORD", "STATS_REDIS_DB", "STATS_PREFIX", "STATS_TTL",
}

// cleanEnv zera as chaves conhecidas; t.Setenv restaura no fim do teste.
func cleanEnv(t *testing.T) {
	t.Helper()
	for _, k := range allKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func noEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoad_Defaults(t *testing.T) {
	cleanEnv(t)

	cfg, err := Load(noEnvFile(t))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if cfg.AppEnv != "dev" || cfg.Port != 3000 || cfg.ListenAddr() != ":3000" {
		t.Fatalf("unexpected base config: %+v", cfg)
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "plain" {
		t.Fatalf("unexpected log config: %q %q", cfg.LogLevel, cfg.LogFormat)
	}
	if cfg.ShutdownDeadline != 20*time.Second {
		t.Fatalf("expected 20s deadline, got %s", cfg.ShutdownDeadline)
	}
	if cfg.RequestBodyLimit != 1<<20 {
		t.Fatalf("expected 1MiB body limit, got %d", cfg.RequestBodyLimit)
	}
	if cfg.Rate.Enabled || cfg.Rate.RPS != 10 || cfg.Rate.Burst != 20 || cfg.Rate.RetryAfter != time.Second {
		t.Fatalf("unexpected rate config: %+v", cfg.Rate)
	}
	if cfg.Concurrency.Max != 100 || cfg.Concurrency.Timeout != 0 {
		t.Fatalf("unexpected concurrency config: %+v", cfg.Concurrency)
	}
	if cfg.Stats.Enabled() || cfg.Stats.Prefix != "requests:stats" || cfg.Stats.TTL != 24*time.Hour {
		t.Fatalf("unexpected stats config: %+v", cfg.Stats)
	}
	if !cfg.IsDev() || !cfg.ShouldMigrate() {
		t.Fatalf("dev should migrate")
	}
}

func TestLoad_Overrides(t *testing.T) {
	cleanEnv(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("PORT", "8080")
	t.Setenv("SHUTDOWN_DEADLINE", "5s")
	t.Setenv("RATE_ENABLED", "true")
	t.Setenv("RATE_RPS", "0.5")
	t.Setenv("RATE_BURST", "2")
	t.Setenv("CONCURRENCY_TIMEOUT", "250ms")
	t.Setenv("STATS_REDIS_ADDR", "localhost:6379")

	cfg, err := Load(noEnvFile(t))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if cfg.IsDev() || cfg.ShouldMigrate() {
		t.Fatalf("production should not migrate by default")
	}
	if cfg.ListenAddr() != ":8080" || cfg.ShutdownDeadline != 5*time.Second {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if !cfg.Rate.Enabled || cfg.Rate.RPS != 0.5 || cfg.Rate.Burst != 2 {
		t.Fatalf("unexpected rate config: %+v", cfg.Rate)
	}
	if cfg.Concurrency.Timeout != 250*time.Millisecond {
		t.Fatalf("unexpected timeout: %s", cfg.Concurrency.Timeout)
	}
	if !cfg.Stats.Enabled() {
		t.Fatalf("stats should be enabled")
	}
}

func TestLoad_AutoMigrateOutsideDev(t *testing.T) {
	cleanEnv(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("DB_AUTO_MIGRATE", "true")

	cfg, err := Load(noEnvFile(t))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !cfg.ShouldMigrate() {
		t.Fatalf("DB_AUTO_MIGRATE=true should migrate")
	}
}

func TestLoad_EnvFile(t *testing.T) {
	cleanEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("PORT=4000\nLOG_FORMAT=json\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	// processo vence o arquivo
	t.Setenv("LOG_FORMAT", "console")
	// godotenv só define chaves ausentes; registra PORT para limpeza
	t.Setenv("PORT", "")
	os.Unsetenv("PORT")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if cfg.Port != 4000 {
		t.Fatalf("expected PORT from file, got %d", cfg.Port)
	}
	if cfg.LogFormat != "console" {
		t.Fatalf("expected process env to win, got %q", cfg.LogFormat)
	}
}

func TestLoad_Invalid(t *testing.T) {
	cases := []struct {
		key, value string
	}{
		{"RATE_RPS", "0"},
		{"RATE_BURST", "-1"},
		{"CONCURRENCY_MAX", "-1"},
		{"SHUTDOWN_DEADLINE", "0s"},
		{"PORT", "70000"},
		{"REQUEST_BODY_LIMIT", "0"},
		{"PORT", "abc"},
	}
	for _, tc := range cases {
		t.Run(tc.key+"="+tc.value, func(t *testing.T) {
			cleanEnv(t)
			t.Setenv(tc.key, tc.value)
			if _, err := Load(noEnvFile(t)); err == nil {
				t.Fatalf("expected error for %s=%s", tc.key, tc.value)
			}
		})
	}
}
