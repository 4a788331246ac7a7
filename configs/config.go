package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type R2 struct {
	AccountID  string        `env:"ACCOUNT_ID"`
	AccessKey  string        `env:"ACCESS_KEY"`
	SecretKey  string        `env:"SECRET_KEY"`
	BucketName string        `env:"BUCKET_NAME"`
	URLTTL     time.Duration `env:"URL_TTL, default=1h"`
}

// Enabled reports whether media refs should be resolved through R2.
func (r R2) Enabled() bool {
	return r.AccountID != "" && r.BucketName != ""
}

type Posting struct {
	MaxAttempts    int           `env:"MAX_ATTEMPTS, default=2"`
	RetryBackoff   time.Duration `env:"RETRY_BACKOFF, default=2s"`
	AdapterTimeout time.Duration `env:"ADAPTER_TIMEOUT, default=30s"`
	PollSpec       string        `env:"POLL_SPEC, default=@every 1m"`
	// FailureRate makes the dry run publisher fail that share of posts.
	FailureRate float64 `env:"SIMULATED_FAILURE_RATE, default=0"`
}

type Mentions struct {
	// Backend is "memory" or "redis".
	Backend    string `env:"BACKEND, default=memory"`
	MaxEntries int    `env:"MAX_ENTRIES, default=10000"`
	KeyPrefix  string `env:"KEY_PREFIX, default=autoposter:mention:"`
}

type Logging struct {
	Level  string `env:"LEVEL, default=info"`
	Format string `env:"FORMAT, default=console"`
	Output string `env:"OUTPUT, default=stdout"`
}

type Config struct {
	Port        string `env:"PORT, default=3000"`
	PostgresURI string `env:"POSTGRES_URI"`
	RedisURI    string `env:"REDIS_URI, default=localhost:6379"`
	FrontendURL string `env:"FRONTEND_URL, default=http://localhost:5173"`
	SecretKey   string `env:"SECRET_KEY"`
	CookieName  string `env:"COOKIE_NAME, default=autoposter_session"`

	R2       R2       `env:", prefix=R2_"`
	Posting  Posting  `env:", prefix=POSTING_"`
	Mentions Mentions `env:", prefix=MENTIONS_"`
	Logging  Logging  `env:", prefix=LOG_"`
}

func LoadConfig(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}
	return &cfg, nil
}

// LoadConfigFrom is LoadConfig with an explicit lookuper, used by tests.
func LoadConfigFrom(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}
	return &cfg, nil
}
