package config

import (
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddr      string
	DBPath          string
	SecretsPath     string
	LLMBackend      string
	MoonshotBaseURL string
	OCRModel        string
	ChatModel       string
	AnthropicModel  string
	LogLevel        string
	LogFile         string
}

// Load reads configuration from the environment. A .env file in the working
// directory is merged in first when present; real environment variables win.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ListenAddr:      getEnv("LISTEN_ADDR", ":8080"),
		DBPath:          getEnv("DB_PATH", "/data/fangji.db"),
		SecretsPath:     getEnv("SECRETS_PATH", "/data/secrets"),
		LLMBackend:      getEnv("LLM_BACKEND", "moonshot"),
		MoonshotBaseURL: getEnv("MOONSHOT_BASE_URL", "https://api.moonshot.cn/v1"),
		OCRModel:        getEnv("OCR_MODEL", "kimi-latest"),
		ChatModel:       getEnv("CHAT_MODEL", "kimi-latest"),
		AnthropicModel:  getEnv("ANTHROPIC_MODEL", "claude-sonnet-4-20250514"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFile:         getEnv("LOG_FILE", ""),
	}
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}
