package infra

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents application configuration loaded from environment
// variables. Provider credentials are read once here and handed to
// constructors explicitly; nothing else reads the environment.
type Config struct {
	AppEnv string
	Port   string

	// DatabaseURL is optional: without it the credit ledger is disabled and
	// generations are not metered.
	DatabaseURL string

	// AssetDir is optional: when set, every generated asset is archived there.
	AssetDir string

	FluxAPIKey  string
	FluxBaseURL string

	TurboAPIKey  string
	TurboBaseURL string

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	ModelRunnerAPIKey  string
	ModelRunnerBaseURL string

	PollInitialDelay time.Duration
	PollInterval     time.Duration
	MaxPolls         int

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
	AllowedOrigins   []string
}

// LoadConfig loads configuration from environment variables and applies
// defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:             getEnv("APP_ENV", "development"),
		Port:               getEnv("PORT", "8080"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		AssetDir:           os.Getenv("ASSET_DIR"),
		FluxAPIKey:         os.Getenv("FLUX_API_KEY"),
		FluxBaseURL:        getEnv("FLUX_BASE_URL", "https://api.bfl.ai/v1"),
		TurboAPIKey:        os.Getenv("TURBO_API_KEY"),
		TurboBaseURL:       getEnv("TURBO_BASE_URL", "https://api.turbogen.dev/v1"),
		OpenAIAPIKey:       os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:      os.Getenv("OPENAI_BASE_URL"),
		OpenAIModel:        getEnv("OPENAI_IMAGE_MODEL", "dall-e-3"),
		ModelRunnerAPIKey:  os.Getenv("MODELRUNNER_API_KEY"),
		ModelRunnerBaseURL: getEnv("MODELRUNNER_BASE_URL", "https://api.modelrunner.dev/v1"),
		PollInitialDelay:   time.Second * time.Duration(getEnvInt("POLL_INITIAL_DELAY_SECONDS", 3)),
		PollInterval:       time.Second * time.Duration(getEnvInt("POLL_INTERVAL_SECONDS", 2)),
		MaxPolls:           getEnvInt("POLL_MAX_ATTEMPTS", 150),
		HTTPReadTimeout:    time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:   time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 300)),
		HTTPIdleTimeout:    time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:    getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		AllowedOrigins:     []string{getEnv("WEB_ORIGIN", "http://localhost:3000")},
	}

	if cfg.FluxAPIKey == "" {
		return nil, fmt.Errorf("FLUX_API_KEY is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
