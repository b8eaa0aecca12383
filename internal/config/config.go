package config

import (
	"time"

	"coachteam/pkg/config"
)

// Config stores environment configuration for the coachteam service.
type Config struct {
	Port               string
	DatabaseURL        string
	LLMProvider        string
	LLMModel           string
	LLMAPIKey          string
	LLMAPIURL          string
	LLMMaxTokens       int
	CompletionTimeout  time.Duration
	MaxHistoryMessages int
	LexiconsPath       string
}

// LoadConfig loads the service configuration from environment variables.
func LoadConfig() Config {
	return Config{
		Port:               config.GetEnv("PORT", "18040"),
		DatabaseURL:        config.RequireEnv("DATABASE_URL"),
		LLMProvider:        config.GetEnv("LLM_PROVIDER", ""),
		LLMModel:           config.GetEnv("LLM_MODEL", ""),
		LLMAPIKey:          config.GetEnv("LLM_API_KEY", ""),
		LLMAPIURL:          config.GetEnv("LLM_API_URL", ""),
		LLMMaxTokens:       config.GetEnvInt("LLM_MAX_TOKENS", 2048),
		CompletionTimeout:  config.GetEnvDuration("COMPLETION_TIMEOUT", 45*time.Second),
		MaxHistoryMessages: config.GetEnvInt("MAX_HISTORY_MESSAGES", 20),
		LexiconsPath:       config.GetEnv("LEXICONS_PATH", ""),
	}
}
