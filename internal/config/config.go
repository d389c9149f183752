package config

import (
	"os"
	"strconv"
	"time"

	"github.com/vbonduro/wingman/internal/domain"
)

type Config struct {
	ListenAddr     string
	ModelBackend   string
	GeminiAPIKey   string
	GeminiModel    string
	ClaudeAPIKey   string
	ClaudeModel    string
	OllamaHost     string
	OllamaModel    string
	LogLevel       string
	LogFile        string
	SessionTTL     time.Duration
	MaxUploadBytes int64
	ModelTimeout   time.Duration
	TelegramToken  string
}

func Load() *Config {
	return &Config{
		ListenAddr:     getEnv("LISTEN_ADDR", ":8080"),
		ModelBackend:   getEnv("MODEL_BACKEND", "gemini"),
		GeminiAPIKey:   getEnv("GEMINI_API_KEY", os.Getenv("API_KEY")),
		GeminiModel:    getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		ClaudeAPIKey:   getEnv("CLAUDE_API_KEY", ""),
		ClaudeModel:    getEnv("CLAUDE_MODEL", "claude-sonnet-4-5"),
		OllamaHost:     getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OllamaModel:    getEnv("OLLAMA_MODEL", "llava"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFile:        getEnv("LOG_FILE", ""),
		SessionTTL:     getDuration("SESSION_TTL", 30*time.Minute),
		MaxUploadBytes: getInt64("MAX_UPLOAD_BYTES", 20<<20),
		ModelTimeout:   getDuration("MODEL_TIMEOUT", 60*time.Second),
		TelegramToken:  getEnv("TELEGRAM_BOT_TOKEN", ""),
	}
}

// Validate reports the first credential the selected backend needs but
// does not have.
func (c *Config) Validate() error {
	switch c.ModelBackend {
	case "gemini":
		if c.GeminiAPIKey == "" {
			return domain.NewConfigurationMissing("GEMINI_API_KEY")
		}
	case "claude":
		if c.ClaudeAPIKey == "" {
			return domain.NewConfigurationMissing("CLAUDE_API_KEY")
		}
	case "ollama":
		if c.OllamaHost == "" {
			return domain.NewConfigurationMissing("OLLAMA_HOST")
		}
	default:
		return domain.NewInvalidInput("unknown MODEL_BACKEND " + strconv.Quote(c.ModelBackend))
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || d < 0 {
		return defaultVal
	}
	return d
}

func getInt64(key string, defaultVal int64) int64 {
	n, err := strconv.ParseInt(getEnv(key, ""), 10, 64)
	if err != nil || n <= 0 {
		return defaultVal
	}
	return n
}
