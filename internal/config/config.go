package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

type Config struct {
	LogLevel  string    `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTP      HTTP      `yaml:"http"`
	Game      Game      `yaml:"game"`
	Scores    Scores    `yaml:"scores"`
	Telemetry Telemetry `yaml:"telemetry"`
}

type HTTP struct {
	Addr            string        `yaml:"addr" env:"HTTP_ADDR" env-default:":8080"`
	ShutdownTimeout time.Duration `yaml:"shutdown-timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"5s"`
	PingInterval    time.Duration `yaml:"ping-interval" env:"WS_PING_INTERVAL" env-default:"10s"`
	PongWait        time.Duration `yaml:"pong-wait" env:"WS_PONG_WAIT" env-default:"30s"`
	MaxMessageBytes int64         `yaml:"max-message-bytes" env:"WS_MAX_MESSAGE_BYTES" env-default:"4096"`
}

type Game struct {
	Rows          int `yaml:"rows" env:"GAME_ROWS" env-default:"6"`
	Cols          int `yaml:"cols" env:"GAME_COLS" env-default:"7"`
	ConnectLength int `yaml:"connect-length" env:"GAME_CONNECT_LENGTH" env-default:"4"`
	MaxRows       int `yaml:"max-rows" env:"GAME_MAX_ROWS" env-default:"32"`
	MaxCols       int `yaml:"max-cols" env:"GAME_MAX_COLS" env-default:"32"`
}

type Scores struct {
	Backend    string `yaml:"backend" env:"SCORE_BACKEND" env-default:"redis"`
	RedisAddr  string `yaml:"redis-addr" env:"REDIS_CONNSTRING" env-default:"localhost:6379"`
	SQLitePath string `yaml:"sqlite-path" env:"SQLITE_PATH" env-default:"./scores.db"`
}

type Telemetry struct {
	Enabled     bool   `yaml:"enabled" env:"OTEL_ENABLED" env-default:"false"`
	Endpoint    string `yaml:"endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT" env-default:"otel-collector:4317"`
	ServiceName string `yaml:"service-name" env:"OTEL_SERVICE_NAME" env-default:"connect-four"`
}

// Load reads the YAML file at path, or only the environment when path is empty.
// Environment variables override file values.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	var err error
	if path != "" {
		err = cleanenv.ReadConfig(path, cfg)
	} else {
		err = cleanenv.ReadEnv(cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoad is Load that panics on error.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

// Validate checks values that tags cannot express.
func (c *Config) Validate() error {
	var errs []error
	if c.Game.Rows <= 0 || c.Game.Cols <= 0 || c.Game.ConnectLength <= 0 {
		errs = append(errs, errors.New("game rows, cols and connect length must be positive"))
	}
	if c.Game.Rows > c.Game.MaxRows || c.Game.Cols > c.Game.MaxCols {
		errs = append(errs, errors.New("default board exceeds the maximum board size"))
	}
	switch c.Scores.Backend {
	case BackendRedis, BackendSQLite, BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown score backend %q", c.Scores.Backend))
	}
	return errors.Join(errs...)
}
