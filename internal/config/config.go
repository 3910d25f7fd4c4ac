package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Provider exposes configuration values to the rest of the application.
// Handlers and modules depend on this interface so tests can supply their own values.
type Provider interface {
	GetAppAddr() string
	GetBackendURL() string
	GetSessionSecret() string
	GetRequestTimeout() time.Duration
	GetTokenBackend() string
	GetRedisAddr() string
	GetLoginPath() string
	GetListingPath() string
	GetHomePath() string
	GetGuardInFlight() bool
}

// Config holds all configuration for the application.
type Config struct {
	AppAddr        string        `validate:"required"`
	BackendURL     string        `validate:"required,url"`
	SessionSecret  string        `validate:"required,min=16"`
	RequestTimeout time.Duration `validate:"gte=0"`
	TokenBackend   string        `validate:"oneof=cookie redis"`
	RedisAddr      string        `validate:"required_if=TokenBackend redis"`
	LoginPath      string        `validate:"required"`
	ListingPath    string        `validate:"required"`
	HomePath       string        `validate:"required"`
	GuardInFlight  bool
}

// Navigation targets used when no override is configured.
const (
	DefaultLoginPath   = "/html/login.html"
	DefaultListingPath = "../html/boardList.html"
	DefaultHomePath    = "/index.html"
)

// New loads configuration from the .env file (if any) and the environment,
// and validates it.
func New() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment without touching .env.
func FromEnv() (*Config, error) {
	cfg := &Config{
		AppAddr:       getEnv("APP_ADDR", ":8080"),
		BackendURL:    os.Getenv("BACKEND_URL"),
		SessionSecret: os.Getenv("SESSION_SECRET"),
		TokenBackend:  getEnv("TOKEN_BACKEND", "cookie"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		LoginPath:     getEnv("LOGIN_PATH", DefaultLoginPath),
		ListingPath:   getEnv("LISTING_PATH", DefaultListingPath),
		HomePath:      getEnv("HOME_PATH", DefaultHomePath),
		GuardInFlight: getEnv("GUARD_IN_FLIGHT", "true") == "true",
	}

	if raw := os.Getenv("REQUEST_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid REQUEST_TIMEOUT %q: %w", raw, err)
		}
		cfg.RequestTimeout = d
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the struct tags of the configuration.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func (c *Config) GetAppAddr() string               { return c.AppAddr }
func (c *Config) GetBackendURL() string            { return c.BackendURL }
func (c *Config) GetSessionSecret() string         { return c.SessionSecret }
func (c *Config) GetRequestTimeout() time.Duration { return c.RequestTimeout }
func (c *Config) GetTokenBackend() string          { return c.TokenBackend }
func (c *Config) GetRedisAddr() string             { return c.RedisAddr }
func (c *Config) GetLoginPath() string             { return c.LoginPath }
func (c *Config) GetListingPath() string           { return c.ListingPath }
func (c *Config) GetHomePath() string              { return c.HomePath }
func (c *Config) GetGuardInFlight() bool           { return c.GuardInFlight }
