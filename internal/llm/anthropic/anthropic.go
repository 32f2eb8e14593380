// Package anthropic adapts the Anthropic Messages API to the completion
// client interface, as an alternative to the default OpenAI-compatible
// backend.
package anthropic

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	anthropicsdk "github.com/liushuangls/go-anthropic/v2"

	"github.com/fangji-app/fangji/internal/llm"
)

type Client struct {
	keys llm.KeySource
}

func NewClient(keys llm.KeySource) *Client {
	return &Client{keys: keys}
}

func (c *Client) Complete(ctx context.Context, msgs []llm.Message, opts llm.Options) (string, error) {
	apiKey, err := c.keys.APIKey()
	if err != nil {
		return "", fmt.Errorf("failed to load api key: %w", err)
	}

	system, messages, err := buildMessages(msgs)
	if err != nil {
		return "", err
	}

	temp := float32(opts.Temperature)
	req := anthropicsdk.MessagesRequest{
		Model:       anthropicsdk.Model(opts.Model),
		System:      system,
		Messages:    messages,
		MaxTokens:   opts.MaxTokens,
		Temperature: &temp,
	}

	client := anthropicsdk.NewClient(apiKey)
	resp, err := client.CreateMessages(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to call anthropic: %w", err)
	}

	text := resp.GetFirstContentText()
	if text == "" {
		return "", llm.ErrEmptyResponse
	}
	return text, nil
}

// buildMessages splits out system turns (the Messages API carries them as a
// top-level field) and converts the rest, decoding image data URLs back into
// base64 source blocks.
func buildMessages(msgs []llm.Message) (string, []anthropicsdk.Message, error) {
	var system []string
	out := make([]anthropicsdk.Message, 0, len(msgs))

	for _, m := range msgs {
		if m.Role == "system" {
			system = append(system, m.Text)
			continue
		}

		role := anthropicsdk.RoleUser
		if m.Role == "assistant" {
			role = anthropicsdk.RoleAssistant
		}

		if m.ImageURL == "" {
			out = append(out, anthropicsdk.Message{
				Role:    role,
				Content: []anthropicsdk.MessageContent{anthropicsdk.NewTextMessageContent(m.Text)},
			})
			continue
		}

		mediaType, data, err := decodeDataURL(m.ImageURL)
		if err != nil {
			return "", nil, err
		}
		out = append(out, anthropicsdk.Message{
			Role: role,
			Content: []anthropicsdk.MessageContent{
				anthropicsdk.NewImageMessageContent(
					anthropicsdk.NewMessageContentSource(anthropicsdk.MessagesContentSourceTypeBase64, mediaType, data)),
				anthropicsdk.NewTextMessageContent(m.Text),
			},
		})
	}

	return strings.Join(system, "\n\n"), out, nil
}

func decodeDataURL(url string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(url, "data:")
	if !ok {
		return "", nil, fmt.Errorf("not a data url")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("malformed data url")
	}
	mediaType := strings.TrimSuffix(meta, ";base64")

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("failed to decode image payload: %w", err)
	}
	return mediaType, data, nil
}
