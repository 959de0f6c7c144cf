// Package config loads the callback service settings from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config contains runtime configuration values.
type Config struct {
	ClientID     string `env:"DISCORD_CLIENT_ID"`
	ClientSecret string `env:"DISCORD_CLIENT_SECRET"`
	RedirectURI  string `env:"DISCORD_REDIRECT_URI"`
	APIBaseURL   string `env:"DISCORD_API_BASE_URL"  envDefault:"https://discord.com/api"`
	AuthorizeURL string `env:"DISCORD_AUTHORIZE_URL" envDefault:"https://discord.com/oauth2/authorize"`

	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"          envDefault:"5s"`
	CallbackPath   string        `env:"CALLBACK_PATH"            envDefault:"/callback"`
	ResponseFormat string        `env:"CALLBACK_RESPONSE_FORMAT" envDefault:"html"`
	LogLevel       string        `env:"LOG_LEVEL"`
	Port           string        `env:"PORT"`

	Store StoreConfig
}

// StoreConfig selects and configures the document store backend.
type StoreConfig struct {
	Type       string `env:"STORE_TYPE"       envDefault:"firestore"`
	Collection string `env:"OAUTH_COLLECTION" envDefault:"oauth_users"`

	CredentialsJSON string `env:"FIREBASE_SERVICE_ACCOUNT"`
	ProjectID       string `env:"FIREBASE_PROJECT_ID"`

	RedisAddr     string `env:"REDIS_ADDR"     envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB"       envDefault:"0"`
}

// Load reads a .env file when present and parses the environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return Parse()
}

// Parse parses the process environment without touching .env files.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Missing returns the names of required variables that are unset or blank.
// Store variables are only required by the backend that uses them.
func (c Config) Missing() []string {
	var missing []string
	check := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	check("DISCORD_CLIENT_ID", c.ClientID)
	check("DISCORD_CLIENT_SECRET", c.ClientSecret)
	check("DISCORD_REDIRECT_URI", c.RedirectURI)
	missing = append(missing, c.Store.Missing()...)
	return missing
}

// Missing returns the names of unset variables required by the selected backend.
func (s StoreConfig) Missing() []string {
	var missing []string
	switch strings.ToLower(s.Type) {
	case "redis":
		if strings.TrimSpace(s.RedisAddr) == "" {
			missing = append(missing, "REDIS_ADDR")
		}
	case "memory":
	default:
		if strings.TrimSpace(s.CredentialsJSON) == "" {
			missing = append(missing, "FIREBASE_SERVICE_ACCOUNT")
		}
		if strings.TrimSpace(s.ProjectID) == "" {
			missing = append(missing, "FIREBASE_PROJECT_ID")
		}
	}
	return missing
}
