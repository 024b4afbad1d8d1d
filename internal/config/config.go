package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds every knob the binaries read, parsed from the environment.
// Load a .env file first with godotenv if you want file-based config.
type Config struct {
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogJSON  bool   `env:"LOG_JSON" envDefault:"false"`

	DBUser     string `env:"DB_USER" envDefault:"postgres"`
	DBPassword string `env:"DB_PASSWORD" envDefault:"postgres"`
	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBPort     string `env:"DB_PORT" envDefault:"5432"`
	DBName     string `env:"DB_NAME" envDefault:"dripcampaign"`

	AMQPURL   string `env:"AMQP_URL"`
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`

	GatewayURL        string        `env:"GATEWAY_URL"`
	GatewayAPIKey     string        `env:"GATEWAY_API_KEY"`
	GatewayTimeout    time.Duration `env:"GATEWAY_TIMEOUT" envDefault:"10s"`
	GatewayRatePerSec int           `env:"GATEWAY_RATE_PER_SEC" envDefault:"10"`

	SweepSchedule string        `env:"SWEEP_SCHEDULE" envDefault:"@every 1m"`
	SweepLockTTL  time.Duration `env:"SWEEP_LOCK_TTL" envDefault:"5m"`

	EnrollBatchSize  int           `env:"ENROLL_BATCH_SIZE" envDefault:"10"`
	EnrollBatchDelay time.Duration `env:"ENROLL_BATCH_DELAY" envDefault:"2s"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DSN builds the postgres connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}
