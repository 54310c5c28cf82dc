package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all runtime configuration. Values come from the
// environment, optionally seeded from a .env file.
type AppConfig struct {
	LogLevel string

	// Gemini API settings for the AI-assisted paths.
	GeminiAPIKey   string
	GeminiModel    string
	AITimeout      time.Duration
	MaxPromptChars int

	// DefaultCurrency tags parsed amounts; no conversion is performed.
	DefaultCurrency string
}

// Load reads configuration from the environment. A missing .env file is not
// an error; OS environment variables and defaults apply either way.
func Load() *AppConfig {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: no .env file loaded, relying on OS environment variables and defaults")
	}

	return &AppConfig{
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		GeminiModel:     getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		AITimeout:       getDurationEnv("AI_TIMEOUT_SECONDS", 120*time.Second),
		MaxPromptChars:  getIntEnv("AI_MAX_PROMPT_CHARS", 15000),
		DefaultCurrency: getEnv("DEFAULT_CURRENCY", "USD"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Warning: invalid value %q for %s, using default %d", v, key, fallback)
		return fallback
	}
	return n
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		log.Printf("Warning: invalid value %q for %s, using default %s", v, key, fallback)
		return fallback
	}
	return time.Duration(secs) * time.Second
}
