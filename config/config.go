package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

type Config struct {
	Port string

	Provider        string
	AnthropicAPIKey string
	AnthropicURL    string
	AnthropicModel  string
	OpenAIBaseURL   string
	OpenAIAPIKey    string
	OpenAIModel     string
	MaxTokens       int
	RequestTimeout  time.Duration

	FetchURLContent bool

	RedisUrl   string
	SessionTTL time.Duration
	DbUrl      string

	AdminToken    string
	TelegramToken string
}

func Load() (*Config, error) {
	godotenv.Load()

	maxTokens, err := strconv.Atoi(getEnvOrDefault("MAX_TOKENS", "1000"))
	if err != nil {
		return nil, fmt.Errorf("MAX_TOKENS: %w", err)
	}
	timeout, err := time.ParseDuration(getEnvOrDefault("REQUEST_TIMEOUT", "60s"))
	if err != nil {
		return nil, fmt.Errorf("REQUEST_TIMEOUT: %w", err)
	}
	ttl, err := time.ParseDuration(getEnvOrDefault("SESSION_TTL", "30m"))
	if err != nil {
		return nil, fmt.Errorf("SESSION_TTL: %w", err)
	}

	cfg := &Config{
		Port:            getEnvOrDefault("PORT", "8080"),
		Provider:        strings.ToLower(getEnvOrDefault("PROVIDER", ProviderAnthropic)),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicURL:    getEnvOrDefault("ANTHROPIC_URL", "https://api.anthropic.com/v1/messages"),
		AnthropicModel:  getEnvOrDefault("ANTHROPIC_MODEL", "claude-sonnet-4-20250514"),
		OpenAIBaseURL:   getEnvOrDefault("OPENAI_BASE_URL", "https://openrouter.ai/api/v1"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:     getEnvOrDefault("OPENAI_MODEL", "meta-llama/llama-3.3-70b-instruct"),
		MaxTokens:       maxTokens,
		RequestTimeout:  timeout,
		FetchURLContent: os.Getenv("FETCH_URL_CONTENT") == "true",
		RedisUrl:        os.Getenv("REDIS_URL"),
		SessionTTL:      ttl,
		DbUrl:           os.Getenv("DB_URL"),
		AdminToken:      os.Getenv("ADMIN_TOKEN"),
		TelegramToken:   os.Getenv("TELEGRAM_TOKEN"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderAnthropic, ProviderOpenAI:
	default:
		return fmt.Errorf("unknown PROVIDER %q", c.Provider)
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("MAX_TOKENS must be positive, got %d", c.MaxTokens)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.SessionTTL)
	}
	return nil
}

// Model returns the model id of the selected provider.
func (c *Config) Model() string {
	if c.Provider == ProviderOpenAI {
		return c.OpenAIModel
	}
	return c.AnthropicModel
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
