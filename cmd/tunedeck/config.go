package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config contains application-wide settings sourced from the environment.
type Config struct {
	DatabaseURL   string
	Addr          string
	AllowedOrigin string
	JWTSecret     string
	LogLevel      string
	LogFormat     string
}

func loadConfig() (Config, error) {
	_ = godotenv.Load("config/local.env")

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return Config{}, errors.New("DATABASE_URL env var is required")
	}

	secret := os.Getenv("JWT_SECRET")
	if len(secret) < 16 {
		return Config{}, errors.New("JWT_SECRET env var of at least 16 characters is required")
	}

	return Config{
		DatabaseURL:   dsn,
		Addr:          fmt.Sprintf(":%s", envOrDefault("PORT", "8080")),
		AllowedOrigin: envOrDefault("CORS_ALLOWED_ORIGIN", "http://localhost:5173"),
		JWTSecret:     secret,
		LogLevel:      envOrDefault("LOG_LEVEL", "info"),
		LogFormat:     envOrDefault("LOG_FORMAT", "json"),
	}, nil
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
