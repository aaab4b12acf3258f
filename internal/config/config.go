package config

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	EnvDev   = "dev"
	EnvProd  = "prod"
	EnvLocal = "local"
)

type Config struct {
	Env       string `env:"TRACKER_ENV" env-default:"local"`
	StaticDir string `env:"TRACKER_STATIC_DIR" env-default:"web/dist"`
	HTTP      HTTPConfig
	DB        DBConfig
	JWT       JWTConfig
}

type HTTPConfig struct {
	Host            string        `env:"TRACKER_HTTP_HOST" env-default:""`
	Port            int           `env:"TRACKER_HTTP_PORT" env-default:"8080"`
	ShutdownTimeout time.Duration `env:"TRACKER_HTTP_SHUTDOWN_TIMEOUT" env-default:"5s"`
}

// Addr is the listen address built from Host and Port.
func (c HTTPConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

type DBConfig struct {
	Driver string `env:"TRACKER_DB_DRIVER" env-default:"sqlite"`
	DSN    string `env:"TRACKER_DB_DSN" env-default:"data/tracker.db"`
}

type JWTConfig struct {
	Issuer     string        `env:"TRACKER_JWT_ISSUER" env-default:"tracker"`
	SigningKey string        `env:"TRACKER_JWT_SIGNING_KEY" env-required:"true"`
	AccessTTL  time.Duration `env:"TRACKER_JWT_ACCESS_TTL" env-default:"24h"`
}

// Read loads the configuration from the environment.
func Read() (*Config, error) {
	cfg := new(Config)
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values cleanenv cannot check by itself.
func (c *Config) Validate() error {
	switch c.Env {
	case EnvLocal, EnvDev, EnvProd:
	default:
		return fmt.Errorf("unknown env: %s", c.Env)
	}
	switch c.DB.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unknown database driver: %s", c.DB.Driver)
	}
	if c.HTTP.Port < 1 || c.HTTP.Port > 65535 {
		return fmt.Errorf("invalid http port: %d", c.HTTP.Port)
	}
	if c.JWT.SigningKey == "" {
		return fmt.Errorf("empty jwt signing key")
	}
	if c.JWT.AccessTTL <= 0 {
		return fmt.Errorf("invalid jwt access ttl: %s", c.JWT.AccessTTL)
	}
	return nil
}
