package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"GoChat/pkg/chat"
	"GoChat/pkg/client"
)

// APIKeyEnv names the variable holding the bearer token
const APIKeyEnv = "OPENAI_API_KEY"

// ErrMissingAPIKey is returned by Load when no API key is configured
var ErrMissingAPIKey = errors.New("the environment variable " + APIKeyEnv + " does not exist")

// Config holds the credential, endpoint and retry settings for a session
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Retries    int
	RetryDelay time.Duration
	Timeout    time.Duration
	Debug      bool
}

// Load reads the configuration from the environment after merging in a
// .env file from the working directory, if one exists. Variables already
// set in the environment win over the file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		APIKey:     os.Getenv(APIKeyEnv),
		BaseURL:    getEnv("OPENAI_BASE_URL", client.DefaultBaseURL),
		Model:      getEnv("OPENAI_MODEL", client.DefaultModel),
		Retries:    getEnvAsInt("GOCHAT_RETRIES", chat.DefaultRetries),
		RetryDelay: getEnvAsDuration("GOCHAT_RETRY_DELAY", chat.DefaultRetryDelay),
		Timeout:    getEnvAsDuration("GOCHAT_TIMEOUT", 60*time.Second),
		Debug:      getEnvAsBool("GOCHAT_DEBUG", false),
	}

	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil && intValue >= 0 {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d >= 0 {
			return d
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
