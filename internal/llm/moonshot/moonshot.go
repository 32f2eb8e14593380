// Package moonshot implements the completion client against an
// OpenAI-compatible chat-completions endpoint (Kimi / Moonshot by default).
package moonshot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fangji-app/fangji/internal/llm"
)

// request types mirror the chat-completions wire format. Message content is
// either a plain string or a list of typed parts when an image is attached.
type request struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type response struct {
	ID      string `json:"id"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

type Client struct {
	keys    llm.KeySource
	client  *http.Client
	baseURL string
}

func NewClient(keys llm.KeySource, baseURL string) *Client {
	return &Client{
		keys:    keys,
		client:  &http.Client{Timeout: 120 * time.Second},
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

func (c *Client) Complete(ctx context.Context, msgs []llm.Message, opts llm.Options) (string, error) {
	apiKey, err := c.keys.APIKey()
	if err != nil {
		return "", fmt.Errorf("failed to load api key: %w", err)
	}
	if strings.TrimSpace(apiKey) == "" {
		return "", errors.New("api key is not configured")
	}

	body := request{
		Model:       opts.Model,
		Messages:    buildMessages(msgs),
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(apiKey))

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call completion endpoint: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("completion endpoint returned status %d: %s", resp.StatusCode, errBody)
	}

	var respBody response
	if err := json.NewDecoder(resp.Body).Decode(&respBody); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(respBody.Choices) == 0 {
		return "", llm.ErrEmptyResponse
	}
	return respBody.Choices[0].Message.Content, nil
}

// buildMessages converts transport-neutral messages to the wire shape.
// Text-only messages keep string content; messages carrying an image become
// a text part plus an image_url part.
func buildMessages(msgs []llm.Message) []message {
	out := make([]message, 0, len(msgs))
	for _, m := range msgs {
		if m.ImageURL == "" {
			out = append(out, message{Role: m.Role, Content: m.Text})
			continue
		}
		out = append(out, message{
			Role: m.Role,
			Content: []contentPart{
				{Type: "text", Text: m.Text},
				{Type: "image_url", ImageURL: &imageURL{URL: m.ImageURL}},
			},
		})
	}
	return out
}
