package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Port           int      `env:"PORT" envDefault:"5480"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`
	DiceSeed       uint64   `env:"DICE_SEED" envDefault:"0"`
}

// Load reads a local .env if present, then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
