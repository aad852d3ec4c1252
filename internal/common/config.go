package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	LLM      LLMConfig
	Langfuse LangfuseConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr        string
	MaxUploadMB int
}

// DatabaseConfig holds the run-history store configuration.
type DatabaseConfig struct {
	Path string
}

// LLMConfig holds Gemini client configuration.
type LLMConfig struct {
	APIKey        string
	BaseURL       string
	Model         string
	Timeout       time.Duration
	RepairPayload bool
}

// LangfuseConfig holds the prompt-hosting collaborator configuration.
// All-empty means the built-in extraction prompt is used.
type LangfuseConfig struct {
	Host          string
	PublicKey     string
	SecretKey     string
	PromptName    string
	PromptVersion int
}

// Enabled reports whether prompt hosting is configured.
func (l LangfuseConfig) Enabled() bool {
	return l.PublicKey != "" && l.SecretKey != "" && l.PromptName != ""
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:        getEnv("ADDR", ":8080"),
			MaxUploadMB: getEnvAsInt("MAX_UPLOAD_MB", 32),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/echeancier.db"),
		},
		LLM: LLMConfig{
			APIKey:        getEnv("GEMINI_API_KEY", ""),
			BaseURL:       getEnv("GEMINI_API_BASE_URL", ""),
			Model:         getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
			Timeout:       getEnvAsDuration("GEMINI_TIMEOUT", 90*time.Second),
			RepairPayload: getEnvAsBool("LLM_REPAIR_JSON", false),
		},
		Langfuse: LangfuseConfig{
			Host:          getEnv("LANGFUSE_HOST", "https://cloud.langfuse.com"),
			PublicKey:     getEnv("LANGFUSE_PUBLIC_KEY", ""),
			SecretKey:     getEnv("LANGFUSE_SECRET_KEY", ""),
			PromptName:    getEnv("LANGFUSE_PROMPT_NAME", ""),
			PromptVersion: getEnvAsInt("LANGFUSE_PROMPT_VERSION", 0),
		},
	}
}

// Validate validates the loaded configuration.
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "GEMINI_API_KEY is required", ErrInvalidInput)
	}
	if c.Server.Addr == "" {
		return NewAppError("CONFIG_ERROR", "ADDR is required", ErrInvalidInput)
	}
	if c.Server.MaxUploadMB <= 0 {
		return NewAppError("CONFIG_ERROR", "MAX_UPLOAD_MB must be positive", ErrInvalidInput)
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
