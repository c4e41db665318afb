package config

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/terraconstructs/rolegate/cmd/rolectl/internal/client"
)

type contextKey string

const configKey contextKey = "rolectl-config"

// EnvPrefix is prepended to every environment variable read by LoadEnv.
const EnvPrefix = "ROLEGATE"

// Session backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
)

// Env holds the defaults read from ROLEGATE_* environment variables. Flags set on the
// command line take precedence.
type Env struct {
	Server         string        `envconfig:"SERVER" default:"http://localhost:8000"`
	NonInteractive bool          `envconfig:"NON_INTERACTIVE" default:"false"`
	SessionBackend string        `envconfig:"SESSION_BACKEND" default:"file"`
	RedisAddr      string        `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	LogFormat      string        `envconfig:"LOG_FORMAT" default:"text"`
	LogLevel       string        `envconfig:"LOG_LEVEL" default:"warn"`
	Timeout        time.Duration `envconfig:"TIMEOUT" default:"30s"`
}

// LoadEnv reads configuration from environment variables. The session backend is
// validated by the caller once flags have been applied.
func LoadEnv() (*Env, error) {
	var env Env
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

// ValidateBackend rejects unknown session backends.
func ValidateBackend(backend string) error {
	switch backend {
	case BackendFile, BackendRedis:
		return nil
	default:
		return fmt.Errorf("unknown session backend %q (expected %s or %s)", backend, BackendFile, BackendRedis)
	}
}

// GlobalConfig holds shared configuration for all rolectl commands.
// This is injected into the cobra command context by the root command's
// PersistentPreRunE hook and consumed by all subcommands.
type GlobalConfig struct {
	ServerURL      string
	NonInteractive bool
	Timeout        time.Duration
	Logger         *slog.Logger
	ClientProvider *client.Provider
}

// InjectConfig adds config to the cobra command context.
func InjectConfig(ctx context.Context, cfg *GlobalConfig) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from the cobra command context.
// Returns (nil, false) if config is not present.
func FromContext(ctx context.Context) (*GlobalConfig, bool) {
	cfg, ok := ctx.Value(configKey).(*GlobalConfig)
	return cfg, ok
}

// MustFromContext retrieves config from context or panics.
// Only command RunE functions may use it; the root command always injects the config first.
func MustFromContext(ctx context.Context) *GlobalConfig {
	cfg, ok := FromContext(ctx)
	if !ok {
		panic("rolectl: config not found in context - this is a bug in rolectl")
	}
	return cfg
}

// WithTimeout bounds ctx by the configured timeout, when one is set.
func (c *GlobalConfig) WithTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.Timeout)
}
