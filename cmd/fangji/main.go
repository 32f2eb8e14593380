package main

import (
	"context"
	"log"
	"log/slog"

	"github.com/fangji-app/fangji/internal/assistant"
	"github.com/fangji-app/fangji/internal/config"
	"github.com/fangji-app/fangji/internal/db"
	"github.com/fangji-app/fangji/internal/draft"
	"github.com/fangji-app/fangji/internal/llm"
	anthropicllm "github.com/fangji-app/fangji/internal/llm/anthropic"
	moonshotllm "github.com/fangji-app/fangji/internal/llm/moonshot"
	"github.com/fangji-app/fangji/internal/logging"
	"github.com/fangji-app/fangji/internal/secrets"
	"github.com/fangji-app/fangji/internal/service"
	"github.com/fangji-app/fangji/internal/store"
	"github.com/fangji-app/fangji/internal/web"
)

// chatRetentionDays bounds how long conversation history is kept.
const chatRetentionDays = 90

func main() {
	cfg := config.Load()

	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer cleanup()

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	secretStore, err := secrets.Open(cfg.SecretsPath)
	if err != nil {
		logger.Error("failed to open secrets store", "error", err)
		return
	}

	prescStore := store.NewPrescriptionStore(database)
	chatStore := store.NewChatStore(database)
	if err := chatStore.PurgeOlderThan(context.Background(), chatRetentionDays); err != nil {
		logger.Error("failed to purge old chat history", "error", err)
	}

	client := newLLMClient(cfg, secretStore, logger)
	prescService := service.NewPrescriptionService(prescStore, logger)

	models := assistant.Config{OCRModel: cfg.OCRModel, ChatModel: cfg.ChatModel}
	if cfg.LLMBackend == "anthropic" {
		models = assistant.Config{OCRModel: cfg.AnthropicModel, ChatModel: cfg.AnthropicModel}
	}
	asst := assistant.NewService(client, prescStore, chatStore, models, logger)

	server := web.NewServer(prescService, asst, draft.NewManager(), secretStore, cfg.LLMBackend, logger)
	if err := server.ListenAndServe(cfg.ListenAddr); err != nil {
		logger.Error("server error", "error", err)
	}
}

// newLLMClient selects the model backend. Credentials come from the secrets
// store so a key saved through the settings endpoint takes effect without a
// restart.
func newLLMClient(cfg *config.Config, secretStore *secrets.Store, logger *slog.Logger) llm.Client {
	keys := secrets.Key{Store: secretStore, Name: cfg.LLMBackend}
	switch cfg.LLMBackend {
	case "anthropic":
		logger.Info("using Anthropic backend", "model", cfg.AnthropicModel)
		return anthropicllm.NewClient(keys)
	default:
		logger.Info("using Moonshot backend", "base_url", cfg.MoonshotBaseURL, "model", cfg.ChatModel)
		return moonshotllm.NewClient(keys, cfg.MoonshotBaseURL)
	}
}
