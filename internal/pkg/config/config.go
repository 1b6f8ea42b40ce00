// Package config loads process configuration from the environment. A .env
// file in the working directory, when present, is read first; variables
// already set in the environment win.
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"

	"github.com/parkspace/parking-client/internal/core/domain"
)

// Session store backends.
const (
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

type Config struct {
	Env       string `env:"ENV,        default=development"`
	LogLevel  string `env:"LOG_LEVEL,  default=info"`
	LogPretty bool   `env:"LOG_PRETTY, default=false"`

	Client ClientConfig
	Server ServerConfig
	Redis  RedisConfig
	Mongo  MongoConfig
}

// ClientConfig configures parkctl.
type ClientConfig struct {
	APIURL         string        `env:"PARKING_API_URL,         default=http://localhost:5000/api"`
	APITimeout     time.Duration `env:"PARKING_API_TIMEOUT,     default=10s"`
	RefreshTimeout time.Duration `env:"PARKING_REFRESH_TIMEOUT, default=15s"`
	SessionStore   string        `env:"SESSION_STORE,           default=file"`
	// SessionFile empty selects <user config dir>/parkctl/session.json.
	SessionFile string `env:"SESSION_FILE"`
	RoleSource  string `env:"ROLE_SOURCE, default=claim"`
	// MetricsAddr empty disables the metrics listener.
	MetricsAddr string `env:"METRICS_ADDR"`
}

// ServerConfig configures parking-devserver.
type ServerConfig struct {
	Port      string        `env:"PORT,       default=5000"`
	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"TOKEN_TTL,  default=24h"`
}

type RedisConfig struct {
	Addr      string `env:"REDIS_ADDR,       default=localhost:6379"`
	Password  string `env:"REDIS_PASSWORD"`
	DB        int    `env:"REDIS_DB,         default=0"`
	KeyPrefix string `env:"REDIS_KEY_PREFIX, default=parkctl:session:"`
}

// MongoConfig with an empty URI selects the in-memory repositories.
type MongoConfig struct {
	URI      string `env:"MONGO_URI"`
	Database string `env:"MONGO_DB, default=parking"`
}

// IsDevelopment reports whether ENV names a development environment.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development" || c.Env == "dev" || c.Env == "local"
}

// RoleSource returns the validated role source.
func (c *Config) RoleSource() domain.RoleSource {
	src, _ := domain.ParseRoleSource(c.Client.RoleSource)
	return src
}

// Load reads .env (if any) and the environment.
func Load(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: read .env: %w", err)
	}
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom reads configuration through l and validates it.
func LoadFrom(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var errs []error

	switch strings.ToLower(c.Client.SessionStore) {
	case StoreFile, StoreRedis, StoreMemory:
		c.Client.SessionStore = strings.ToLower(c.Client.SessionStore)
	default:
		errs = append(errs, fmt.Errorf("SESSION_STORE %q: want file, redis or memory", c.Client.SessionStore))
	}
	if _, err := domain.ParseRoleSource(c.Client.RoleSource); err != nil {
		errs = append(errs, fmt.Errorf("ROLE_SOURCE: %w", err))
	}
	if !strings.HasPrefix(c.Client.APIURL, "http://") && !strings.HasPrefix(c.Client.APIURL, "https://") {
		errs = append(errs, fmt.Errorf("PARKING_API_URL %q: want an http or https url", c.Client.APIURL))
	}
	if c.Client.APITimeout <= 0 {
		errs = append(errs, errors.New("PARKING_API_TIMEOUT must be positive"))
	}
	if c.Client.RefreshTimeout <= 0 {
		errs = append(errs, errors.New("PARKING_REFRESH_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

// RequireJWTSecret fails outside development when no signing secret is set.
// In development a fixed secret is substituted.
func (c *Config) RequireJWTSecret() (string, error) {
	if c.Server.JWTSecret != "" {
		return c.Server.JWTSecret, nil
	}
	if c.IsDevelopment() {
		return "dev-secret", nil
	}
	return "", errors.New("config: JWT_SECRET is required outside development")
}
