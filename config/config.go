// Package config lê a configuração do processo a partir do ambiente, com um
// .env opcional carregado antes.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

const EnvDev = "dev"

type Config struct {
	AppEnv      string `env:"APP_ENV,default=dev"`
	Port        int    `env:"PORT,default=3000"`
	DatabaseURL string `env:"DATABASE_URL"`
	// AutoMigrate força as migrações fora de dev.
	AutoMigrate bool `env:"DB_AUTO_MIGRATE,default=false"`

	LogLevel  string `env:"LOG_LEVEL,default=info"`
	LogFormat string `env:"LOG_FORMAT,default=plain"`

	ShutdownDeadline     time.Duration `env:"SHUTDOWN_DEADLINE,default=20s"`
	RequestBodyLimit     int64         `env:"REQUEST_BODY_LIMIT,default=1048576"`
	TrustRequestIDHeader bool          `env:"TRUST_REQUEST_ID_HEADER,default=false"`

	Rate        Rate
	Concurrency Concurrency
	Stats       Stats
}

type Rate struct {
	Enabled    bool          `env:"RATE_ENABLED,default=false"`
	RPS        float64       `env:"RATE_RPS,default=10"`
	Burst      int           `env:"RATE_BURST,default=20"`
	KeyHeader  string        `env:"RATE_KEY_HEADER"`
	TrustXFF   bool          `env:"TRUST_XFF,default=false"`
	RetryAfter time.Duration `env:"RETRY_AFTER,default=1s"`
	Headers    bool          `env:"ADD_RATELIMIT_HEADERS,default=false"`
}

type Concurrency struct {
	Max     int           `env:"CONCURRENCY_MAX,default=100"`
	Timeout time.Duration `env:"CONCURRENCY_TIMEOUT,default=0s"`
}

// Stats configura o sink Redis de conclusões. Addr vazio desliga.
type Stats struct {
	RedisAddr     string        `env:"STATS_REDIS_ADDR"`
	RedisPassword string        `env:"STATS_REDIS_PASSWORD"`
	RedisDB       int           `env:"STATS_REDIS_DB,default=0"`
	Prefix        string        `env:"STATS_PREFIX,default=requests:stats"`
	TTL           time.Duration `env:"STATS_TTL,default=24h"`
}

func (s Stats) Enabled() bool { return strings.TrimSpace(s.RedisAddr) != "" }

func (c Config) IsDev() bool { return strings.EqualFold(c.AppEnv, EnvDev) }

// ShouldMigrate diz se as migrações rodam no boot.
func (c Config) ShouldMigrate() bool { return c.IsDev() || c.AutoMigrate }

func (c Config) ListenAddr() string { return fmt.Sprintf(":%d", c.Port) }

// Load carrega envFiles (ausentes são ignorados) e decodifica o ambiente.
// Variáveis já definidas no processo vencem o .env.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Config{}, fmt.Errorf("decode env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return errors.New("PORT must be between 1 and 65535")
	}
	if c.ShutdownDeadline <= 0 {
		return errors.New("SHUTDOWN_DEADLINE must be > 0")
	}
	if c.RequestBodyLimit <= 0 {
		return errors.New("REQUEST_BODY_LIMIT must be > 0")
	}
	if c.Rate.RPS <= 0 {
		return errors.New("RATE_RPS must be > 0")
	}
	if c.Rate.Burst <= 0 {
		return errors.New("RATE_BURST must be > 0")
	}
	if c.Rate.RetryAfter < 0 {
		return errors.New("RETRY_AFTER must be >= 0")
	}
	if c.Concurrency.Max < 0 {
		return errors.New("CONCURRENCY_MAX must be >= 0")
	}
	if c.Concurrency.Timeout < 0 {
		return errors.New("CONCURRENCY_TIMEOUT must be >= 0")
	}
	if c.Stats.Enabled() && c.Stats.TTL <= 0 {
		return errors.New("STATS_TTL must be > 0 when STATS_REDIS_ADDR is set")
	}
	return nil
}
