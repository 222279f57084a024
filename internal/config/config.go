// Package config содержит логику чтения конфигурации сервиса заказа напитков.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	defaultRunAddress = "localhost:8080"
	defaultTokenTTL   = 24 * time.Hour
)

// Config содержит параметры конфигурации сервиса.
type Config struct {
	RunAddress         string        `env:"RUN_ADDRESS"`
	DatabaseURI        string        `env:"DATABASE_URI"`
	JWTSecret          string        `env:"JWT_SECRET"`
	TokenTTL           time.Duration `env:"TOKEN_TTL"`
	RabbitMQURL        string        `env:"RABBITMQ_URL"`
	PushGatewayAddress string        `env:"PUSH_GATEWAY_ADDRESS"`
	SeedData           bool          `env:"SEED_DATA"`
}

// Parse считывает конфигурацию из файла .env, флагов командной строки и переменных окружения.
// Значения из окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envRunAddress := cfg.RunAddress
	envDatabaseURI := cfg.DatabaseURI
	envJWTSecret := cfg.JWTSecret
	envTokenTTL := cfg.TokenTTL
	envRabbitMQURL := cfg.RabbitMQURL
	envPushGateway := cfg.PushGatewayAddress
	envSeedData := cfg.SeedData

	flag.StringVar(&cfg.RunAddress, "a", defaultRunAddress, "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI (postgres:// or mongodb://)")
	flag.StringVar(&cfg.JWTSecret, "s", "", "token signing secret")
	flag.DurationVar(&cfg.TokenTTL, "t", defaultTokenTTL, "token lifetime")
	flag.StringVar(&cfg.RabbitMQURL, "q", "", "RabbitMQ URL for cross-instance order broadcast")
	flag.StringVar(&cfg.PushGatewayAddress, "p", "", "push gateway address")
	flag.BoolVar(&cfg.SeedData, "seed", false, "seed demo users and beverages into an empty store")

	flag.Parse()

	if envRunAddress != "" {
		cfg.RunAddress = envRunAddress
	}
	if envDatabaseURI != "" {
		cfg.DatabaseURI = envDatabaseURI
	}
	if envJWTSecret != "" {
		cfg.JWTSecret = envJWTSecret
	}
	if envTokenTTL != 0 {
		cfg.TokenTTL = envTokenTTL
	}
	if envRabbitMQURL != "" {
		cfg.RabbitMQURL = envRabbitMQURL
	}
	if envPushGateway != "" {
		cfg.PushGatewayAddress = envPushGateway
	}
	if envSeedData {
		cfg.SeedData = true
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = defaultRunAddress
	}
	if cfg.TokenTTL <= 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %s", cfg.TokenTTL)
	}

	return cfg, nil
}
