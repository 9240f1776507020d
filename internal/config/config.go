// Package config loads server settings from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v7"
	"github.com/joho/godotenv"
)

type Config struct {
	Addr       string `env:"KIZUNAVI_ADDR" envDefault:":8080"`
	SQLitePath string `env:"KIZUNAVI_SQLITE_PATH"`
	JWTSecret  string `env:"KIZUNAVI_JWT_SECRET"`
	LogLevel   string `env:"KIZUNAVI_LOG_LEVEL" envDefault:"info"`
	LogPretty  bool   `env:"KIZUNAVI_LOG_PRETTY" envDefault:"false"`
	SeedDemo   bool   `env:"KIZUNAVI_SEED_DEMO" envDefault:"false"`
}

// Load reads .env if present, then the process environment. A missing .env
// is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// InMemory reports whether the server should run without a database.
func (c *Config) InMemory() bool { return c.SQLitePath == "" }
