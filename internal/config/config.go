package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/oauth2"
	"gopkg.in/yaml.v3"
)

const (
	defaultAPIURL   = "https://api.start.gg/gql/alpha"
	defaultTokenURL = "https://api.start.gg/oauth/refresh"
)

type Config struct {
	// Server
	Port        string   `yaml:"port"`
	Environment string   `yaml:"environment"`
	CORSOrigins []string `yaml:"cors_origins"`

	// Database, optional. Empty disables the persistent lookup cache.
	DatabaseURL string `yaml:"database_url"`

	// start.gg
	StartGG StartGGConfig `yaml:"startgg"`

	// Lookup cache
	LookupConcurrency int `yaml:"lookup_concurrency"`
}

type StartGGConfig struct {
	APIURL string `yaml:"api_url"`

	// Either a personal token, or an OAuth client with a refresh token.
	Token        string `yaml:"token"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RefreshToken string `yaml:"refresh_token"`
	TokenURL     string `yaml:"token_url"`

	RateLimitPerMinute int           `yaml:"rate_limit_per_minute"`
	Timeout            time.Duration `yaml:"timeout"`
}

// Load reads .env (if present), then the YAML file named by CONFIG_FILE (if
// set), then environment variables, each layer overriding the previous one.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}
	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Port:        "8080",
		Environment: "development",
		CORSOrigins: []string{"http://localhost:5173", "http://localhost:3000"},
		StartGG: StartGGConfig{
			APIURL:             defaultAPIURL,
			TokenURL:           defaultTokenURL,
			RateLimitPerMinute: 80,
			Timeout:            30 * time.Second,
		},
		LookupConcurrency: 8,
	}
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.Environment = getEnv("ENVIRONMENT", cfg.Environment)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.CORSOrigins = getEnvList("CORS_ORIGINS", cfg.CORSOrigins)

	cfg.StartGG.APIURL = getEnv("STARTGG_API_URL", cfg.StartGG.APIURL)
	cfg.StartGG.Token = getEnv("STARTGG_TOKEN", cfg.StartGG.Token)
	cfg.StartGG.ClientID = getEnv("STARTGG_CLIENT_ID", cfg.StartGG.ClientID)
	cfg.StartGG.ClientSecret = getEnv("STARTGG_CLIENT_SECRET", cfg.StartGG.ClientSecret)
	cfg.StartGG.RefreshToken = getEnv("STARTGG_REFRESH_TOKEN", cfg.StartGG.RefreshToken)
	cfg.StartGG.TokenURL = getEnv("STARTGG_TOKEN_URL", cfg.StartGG.TokenURL)
	cfg.StartGG.RateLimitPerMinute = getEnvInt("STARTGG_RATE_LIMIT", cfg.StartGG.RateLimitPerMinute)
	if secs := getEnvInt("STARTGG_TIMEOUT_SECONDS", 0); secs > 0 {
		cfg.StartGG.Timeout = time.Duration(secs) * time.Second
	}

	cfg.LookupConcurrency = getEnvInt("LOOKUP_CONCURRENCY", cfg.LookupConcurrency)
}

func (c *Config) Validate() error {
	sg := c.StartGG
	hasRefresh := sg.ClientID != "" && sg.ClientSecret != "" && sg.RefreshToken != ""
	if sg.Token == "" && !hasRefresh {
		return fmt.Errorf("STARTGG_TOKEN or STARTGG_CLIENT_ID, STARTGG_CLIENT_SECRET and STARTGG_REFRESH_TOKEN are required")
	}
	if c.LookupConcurrency < 1 {
		return fmt.Errorf("LOOKUP_CONCURRENCY must be positive, got %d", c.LookupConcurrency)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// TokenSource returns the credential provider for the start.gg client. A
// static token wins over the refresh flow.
func (c *Config) TokenSource(ctx context.Context) oauth2.TokenSource {
	sg := c.StartGG
	if sg.Token != "" {
		return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: sg.Token, TokenType: "Bearer"})
	}
	oc := &oauth2.Config{
		ClientID:     sg.ClientID,
		ClientSecret: sg.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  sg.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	return oc.TokenSource(ctx, &oauth2.Token{RefreshToken: sg.RefreshToken})
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
