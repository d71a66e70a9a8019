// Package config loads the whole application configuration in one place.
// Values come from environment variables; a .env file in the working
// directory is loaded first when present.
//
// Every other package receives a typed Config value instead of calling
// os.Getenv on its own.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config carries every configuration value, one sub-struct per concern.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Templates TemplatesConfig
	Generator GeneratorConfig
	Deploy    DeployConfig
	Email     EmailConfig
	Log       LogConfig
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Host string
	Port int
	// CORSOrigins is a comma-separated allow list; "*" allows all.
	CORSOrigins string
}

// DatabaseConfig holds the SQLite settings.
type DatabaseConfig struct {
	Path string // e.g. ./data/scaffoldr.db
}

// JWTConfig holds token settings.
type JWTConfig struct {
	Secret             string // signing key, keep it secret
	AccessTokenExpiry  int    // minutes (default 15)
	RefreshTokenExpiry int    // days (default 7)
}

// TemplatesConfig selects the template store.
type TemplatesConfig struct {
	// Dir is an on-disk template directory. Empty means the templates
	// embedded in the binary.
	Dir string
	// Watch reloads the catalog when Dir changes.
	Watch bool
}

// GeneratorConfig controls the instantiation pipeline.
type GeneratorConfig struct {
	OutputDir      string // generated projects: <OutputDir>/<userID>/<slug>
	MaxConcurrency int    // generations running at once
	GitInit        bool
	GitAuthorName  string
	GitAuthorEmail string
}

// DeployConfig controls the deployment simulation.
type DeployConfig struct {
	SimulatedDelay time.Duration // total duration of a simulated deployment
}

// EmailConfig configures Resend for generation result mails. An empty
// APIKey disables email.
type EmailConfig struct {
	ResendAPIKey string
	From         string
	AppURL       string // used for links in mails
}

// LogConfig configures zap.
type LogConfig struct {
	Level  string // debug | info | warn | error
	Format string // json | console
}

// Load builds a Config from the environment. requireSecret is false for
// commands that never issue tokens (templates, render).
func Load(requireSecret bool) (*Config, error) {
	// A missing .env is fine: production sets real environment variables.
	_ = godotenv.Load()

	port, err := strconv.Atoi(getEnv("SERVER_PORT", "9090"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	accessExpiry, err := strconv.Atoi(getEnv("JWT_ACCESS_EXPIRY_MINUTES", "15"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_ACCESS_EXPIRY_MINUTES: %w", err)
	}

	refreshExpiry, err := strconv.Atoi(getEnv("JWT_REFRESH_EXPIRY_DAYS", "7"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_REFRESH_EXPIRY_DAYS: %w", err)
	}

	maxConcurrency, err := strconv.Atoi(getEnv("GENERATOR_MAX_CONCURRENCY", "4"))
	if err != nil {
		return nil, fmt.Errorf("invalid GENERATOR_MAX_CONCURRENCY: %w", err)
	}
	if maxConcurrency < 1 {
		return nil, fmt.Errorf("GENERATOR_MAX_CONCURRENCY must be at least 1")
	}

	gitInit, err := strconv.ParseBool(getEnv("GENERATOR_GIT_INIT", "true"))
	if err != nil {
		return nil, fmt.Errorf("invalid GENERATOR_GIT_INIT: %w", err)
	}

	watch, err := strconv.ParseBool(getEnv("TEMPLATES_WATCH", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid TEMPLATES_WATCH: %w", err)
	}

	deployDelay, err := time.ParseDuration(getEnv("DEPLOY_SIMULATED_DELAY", "6s"))
	if err != nil {
		return nil, fmt.Errorf("invalid DEPLOY_SIMULATED_DELAY: %w", err)
	}

	jwtSecret := getEnv("JWT_SECRET", "")
	if requireSecret && jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:        getEnv("SERVER_HOST", "0.0.0.0"),
			Port:        port,
			CORSOrigins: getEnv("CORS_ORIGINS", "*"),
		},
		Database: DatabaseConfig{
			Path: getEnv("DATABASE_PATH", "./data/scaffoldr.db"),
		},
		JWT: JWTConfig{
			Secret:             jwtSecret,
			AccessTokenExpiry:  accessExpiry,
			RefreshTokenExpiry: refreshExpiry,
		},
		Templates: TemplatesConfig{
			Dir:   getEnv("TEMPLATES_DIR", ""),
			Watch: watch,
		},
		Generator: GeneratorConfig{
			OutputDir:      getEnv("GENERATOR_OUTPUT_DIR", "./data/generated"),
			MaxConcurrency: maxConcurrency,
			GitInit:        gitInit,
			GitAuthorName:  getEnv("GENERATOR_GIT_AUTHOR_NAME", "scaffoldr"),
			GitAuthorEmail: getEnv("GENERATOR_GIT_AUTHOR_EMAIL", "noreply@scaffoldr.dev"),
		},
		Deploy: DeployConfig{
			SimulatedDelay: deployDelay,
		},
		Email: EmailConfig{
			ResendAPIKey: getEnv("RESEND_API_KEY", ""),
			From:         getEnv("RESEND_FROM", "scaffoldr <noreply@scaffoldr.dev>"),
			AppURL:       getEnv("APP_URL", "http://localhost:5173"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	return cfg, nil
}

// Addr returns the listen address, e.g. "0.0.0.0:9090".
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// EmailEnabled reports whether generation result mails are sent.
func (c *EmailConfig) EmailEnabled() bool {
	return c.ResendAPIKey != ""
}

// getEnv reads an environment variable, falling back when it is unset.
func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}
