package assistant

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/fangji-app/fangji/internal/domain"
	"github.com/fangji-app/fangji/internal/draft"
	"github.com/fangji-app/fangji/internal/llm"
	"github.com/fangji-app/fangji/internal/ocr"
)

// historyWindow is how many recent conversation turns accompany a chat
// request.
const historyWindow = 10

const (
	ocrTemperature  = 0.1
	chatTemperature = 0.7
	maxTokens       = 2000
)

// libraryReader is the subset of store.PrescriptionStore the assistant needs.
type libraryReader interface {
	ListDetails(ctx context.Context, limit int) ([]*domain.PrescriptionDetails, error)
}

// chatRepository is the subset of store.ChatStore the assistant needs.
type chatRepository interface {
	Insert(ctx context.Context, role, content string, prescriptionID *int64) (*domain.ChatMessage, error)
	List(ctx context.Context) ([]*domain.ChatMessage, error)
	Recent(ctx context.Context, n int) ([]*domain.ChatMessage, error)
	Clear(ctx context.Context) error
}

type Config struct {
	OCRModel  string
	ChatModel string
}

type Service struct {
	llm     llm.Client
	library libraryReader
	chats   chatRepository
	cfg     Config
	logger  *slog.Logger
}

func NewService(client llm.Client, library libraryReader, chats chatRepository, cfg Config, logger *slog.Logger) *Service {
	return &Service{
		llm:     client,
		library: library,
		chats:   chats,
		cfg:     cfg,
		logger:  logger,
	}
}

// Recognize runs the OCR pipeline on a captured prescription image: bound the
// resolution, send it with the recognition prompt, strip any code fence from
// the reply, and decode into a draft ready for user edits. Any failure is
// terminal for this attempt; no partial draft is produced.
func (s *Service) Recognize(ctx context.Context, image []byte) (draft.Draft, error) {
	s.logger.Info("recognition started", "bytes", len(image))

	dataURL, err := ocr.Prepare(bytes.NewReader(image), ocr.DefaultMaxDimension, ocr.DefaultJPEGQuality)
	if err != nil {
		return draft.Draft{}, fmt.Errorf("failed to prepare image: %w", err)
	}

	reply, err := s.llm.Complete(ctx, []llm.Message{
		{Role: domain.RoleUser, Text: ocr.Prompt, ImageURL: dataURL},
	}, llm.Options{
		Model:       s.cfg.OCRModel,
		Temperature: ocrTemperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return draft.Draft{}, fmt.Errorf("recognition request failed: %w", err)
	}

	result, err := ocr.Decode(ocr.ExtractJSON(reply))
	if err != nil {
		return draft.Draft{}, err
	}

	s.logger.Info("recognition complete",
		"prescription", result.PrescriptionName,
		"herbs", len(result.Herbs),
		"confidence", result.Confidence,
	)
	return draft.FromResult(result), nil
}

// Chat sends a user message to the assistant with recent history and the
// prescription library as grounding, persisting both sides of the exchange.
func (s *Service) Chat(ctx context.Context, userMessage string) (string, error) {
	if _, err := s.chats.Insert(ctx, domain.RoleUser, userMessage, nil); err != nil {
		return "", fmt.Errorf("failed to save user message: %w", err)
	}

	history, err := s.chats.Recent(ctx, historyWindow)
	if err != nil {
		return "", fmt.Errorf("failed to load chat history: %w", err)
	}

	msgs := []llm.Message{{Role: domain.RoleSystem, Text: s.groundedSystemPrompt(ctx, ChatCap)}}
	for _, m := range history {
		msgs = append(msgs, llm.Message{Role: m.Role, Text: m.Content})
	}

	reply, err := s.llm.Complete(ctx, msgs, llm.Options{
		Model:       s.cfg.ChatModel,
		Temperature: chatTemperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", err
	}

	if _, err := s.chats.Insert(ctx, domain.RoleAssistant, reply, nil); err != nil {
		return "", fmt.Errorf("failed to save assistant message: %w", err)
	}
	return reply, nil
}

// Recommend asks for a prescription recommendation from patient info,
// grounded on the library. The exchange is not added to chat history.
func (s *Service) Recommend(ctx context.Context, symptoms, constitution, ageGender string) (string, error) {
	libraryContext := s.libraryContext(ctx, RecommendCap)
	prompt := recommendPrompt(symptoms, constitution, ageGender, libraryContext)

	return s.llm.Complete(ctx, []llm.Message{
		{Role: domain.RoleSystem, Text: SystemPrompt},
		{Role: domain.RoleUser, Text: prompt},
	}, llm.Options{
		Model:       s.cfg.ChatModel,
		Temperature: chatTemperature,
		MaxTokens:   maxTokens,
	})
}

func (s *Service) History(ctx context.Context) ([]*domain.ChatMessage, error) {
	return s.chats.List(ctx)
}

func (s *Service) ClearHistory(ctx context.Context) error {
	return s.chats.Clear(ctx)
}

// groundedSystemPrompt appends the library context block to the fixed system
// instruction. An empty library contributes nothing.
func (s *Service) groundedSystemPrompt(ctx context.Context, limit int) string {
	libraryContext := s.libraryContext(ctx, limit)
	if libraryContext == "" {
		return SystemPrompt
	}
	return SystemPrompt + "\n\n" + libraryContext + "\n请基于以上信息回答。"
}

// libraryContext samples the library (at most LibraryCap entries) and
// renders the grounding block. Load failures degrade to no grounding rather
// than failing the chat.
func (s *Service) libraryContext(ctx context.Context, limit int) string {
	entries, err := s.library.ListDetails(ctx, LibraryCap)
	if err != nil {
		s.logger.Error("failed to load prescription library for grounding", "error", err)
		return ""
	}
	return LibraryContext(entries, limit)
}
