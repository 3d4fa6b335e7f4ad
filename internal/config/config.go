// Package config loads typed configuration from the environment.
package config

import (
	"context"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      int    `env:"PORT,default=8000"`
	SecretKey string `env:"SECRET_KEY,required"`
	LogLevel  string `env:"LOG_LEVEL,default=info"`

	DBHost     string `env:"DB_HOST,required"`
	DBPort     string `env:"DB_PORT,default=5432"`
	DBName     string `env:"DB_NAME,required"`
	DBUsername string `env:"DB_USERNAME,required"`
	DBPassword string `env:"DB_PASSWORD,required"`

	QuoteDBHost     string `env:"QUOTE_DB_HOST,required"`
	QuoteDBPort     string `env:"QUOTE_DB_PORT,default=9000"`
	QuoteDBName     string `env:"QUOTE_DB_NAME,required"`
	QuoteDBUsername string `env:"QUOTE_DB_USERNAME,required"`
	QuoteDBPassword string `env:"QUOTE_DB_PASSWORD,default="`

	QuoteFeedURL     string        `env:"QUOTE_FEED_URL,default=https://api.binance.com/api/v3/ticker/price"`
	QuoteFeedTimeout time.Duration `env:"QUOTE_FEED_TIMEOUT,default=30s"`
}

func Load(ctx context.Context) (Config, error) {
	var cfg Config

	if err := envconfig.Process(ctx, &cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
