package config

import (
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Log tailing
	ServerLogPath  string        `env:"MC_LOG_PATH" envDefault:"/srv/minecraft/logs/latest.log"`
	PropertiesPath string        `env:"MC_PROPERTIES_PATH" envDefault:"/srv/minecraft/server.properties"`
	TailInterval   time.Duration `env:"TAIL_POLL_INTERVAL" envDefault:"1s"`

	// RCON gateway
	RCONAddr     string        `env:"RCON_ADDR" envDefault:"127.0.0.1:25575"`
	RCONPassword string        `env:"RCON_PASSWORD,required"`
	RCONTimeout  time.Duration `env:"RCON_TIMEOUT" envDefault:"5s"`
	CommandRate  float64       `env:"COMMAND_RATE" envDefault:"5"` // commands per second

	// Status polling
	PollInterval time.Duration `env:"POLL_INTERVAL" envDefault:"10s"`

	// Storage
	PostgresURL  string `env:"POSTGRES_URL,required"`
	RedisAddr    string `env:"REDIS_ADDR"` // empty disables the live cache
	SpoolDir     string `env:"SPOOL_DIR" envDefault:"./data"`
	SpoolMaxSize int64  `env:"SPOOL_MAX_SIZE_BYTES" envDefault:"104857600"` // 100MB

	// Retention
	MetricsRetention time.Duration `env:"METRICS_RETENTION" envDefault:"168h"` // 7 days
	EventsRetention  time.Duration `env:"EVENTS_RETENTION" envDefault:"720h"`  // 30 days

	// HTTP
	APIServerAddr   string `env:"API_SERVER_ADDR" envDefault:":8080"`
	AdminServerAddr string `env:"ADMIN_SERVER_ADDR" envDefault:":9091"`
	APIToken        string `env:"API_TOKEN"` // empty disables auth on mutating endpoints
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Attempt to load .env file for local development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
