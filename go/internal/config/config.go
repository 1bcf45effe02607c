// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/mcdev12/powermatch/go/internal/dbconfig"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// Config is everything the server reads from the environment
type Config struct {
	HTTPAddr           string        `env:"HTTP_ADDR" envDefault:":8000"`
	LogLevel           string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat          string        `env:"LOG_FORMAT" envDefault:"console"`
	NATSURL            string        `env:"NATS_URL" envDefault:"nats://localhost:4222"`
	NATSSubject        string        `env:"NATS_SUBJECT" envDefault:"Strommessung_PowerMatch.events.rpc"`
	StoreDriver        string        `env:"STORE_DRIVER" envDefault:"sqlite"`
	SQLitePath         string        `env:"SQLITE_PATH" envDefault:"data/powermatch.db"`
	CurvesPath         string        `env:"CURVES_PATH"` // empty uses the built-in curves
	TickInterval       time.Duration `env:"TICK_INTERVAL" envDefault:"1s"`
	SampleTimeout      time.Duration `env:"SAMPLE_TIMEOUT" envDefault:"1s"`
	PersistTimeout     time.Duration `env:"PERSIST_TIMEOUT" envDefault:"5s"`
	WSWriteTimeout     time.Duration `env:"WS_WRITE_TIMEOUT" envDefault:"10s"`
	WSPingInterval     time.Duration `env:"WS_PING_INTERVAL" envDefault:"30s"`
	CORSAllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	Database dbconfig.Config
}

// LoadDotEnv loads variables from the given files, or .env when none are
// given. A missing file is not an error.
func LoadDotEnv(files ...string) error {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// Load parses and validates the configuration from the environment
func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values the tag parser cannot
func (c *Config) Validate() error {
	c.StoreDriver = strings.ToLower(strings.TrimSpace(c.StoreDriver))
	switch c.StoreDriver {
	case StoreSQLite, StorePostgres:
	default:
		return fmt.Errorf("invalid STORE_DRIVER %q: must be %s or %s", c.StoreDriver, StoreSQLite, StorePostgres)
	}

	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("invalid LOG_FORMAT %q: must be console or json", c.LogFormat)
	}

	if _, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel)); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL %q: %w", c.LogLevel, err)
	}

	for name, d := range map[string]time.Duration{
		"TICK_INTERVAL":    c.TickInterval,
		"SAMPLE_TIMEOUT":   c.SampleTimeout,
		"PERSIST_TIMEOUT":  c.PersistTimeout,
		"WS_WRITE_TIMEOUT": c.WSWriteTimeout,
		"WS_PING_INTERVAL": c.WSPingInterval,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, d)
		}
	}
	return nil
}

// SetupLogging points the global zerolog logger at w using the configured
// level and format
func SetupLogging(c *Config, w io.Writer) error {
	level, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil {
		return fmt.Errorf("invalid LOG_LEVEL %q: %w", c.LogLevel, err)
	}
	zerolog.SetGlobalLevel(level)

	if c.LogFormat == "json" {
		log.Logger = zerolog.New(w).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: w})
	}
	return nil
}
