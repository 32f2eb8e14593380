package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "moonshot", cfg.LLMBackend)
	assert.Equal(t, "https://api.moonshot.cn/v1", cfg.MoonshotBaseURL)
	assert.Equal(t, "kimi-latest", cfg.OCRModel)
	assert.Equal(t, "kimi-latest", cfg.ChatModel)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("LISTEN_ADDR", ":9090")
	t.Setenv("DB_PATH", "/tmp/test.db")
	t.Setenv("LLM_BACKEND", "anthropic")
	t.Setenv("OCR_MODEL", "moonshot-v1-128k")

	cfg := Load()

	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, "/tmp/test.db", cfg.DBPath)
	assert.Equal(t, "anthropic", cfg.LLMBackend)
	assert.Equal(t, "moonshot-v1-128k", cfg.OCRModel)
}
