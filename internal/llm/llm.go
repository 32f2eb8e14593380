// Package llm defines the completion client used for both prescription
// recognition and assistant chat, with pluggable remote backends.
package llm

import (
	"context"
	"errors"
)

// ErrEmptyResponse is returned when the endpoint succeeded but produced no
// usable choice.
var ErrEmptyResponse = errors.New("model returned an empty response")

// Message is one role-tagged turn. ImageURL, when set, is a base64 data URL
// attached alongside the text as a typed content part.
type Message struct {
	Role     string
	Text     string
	ImageURL string
}

type Options struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// Client performs a single completion round trip and returns the first
// choice's message content. Transport and remote failures surface as errors;
// there is no retry at this layer.
type Client interface {
	Complete(ctx context.Context, msgs []Message, opts Options) (string, error)
}

// KeySource supplies the bearer credential for outbound requests. Implemented
// by the secrets store so a key saved at runtime takes effect immediately.
type KeySource interface {
	APIKey() (string, error)
}

// StaticKey is a KeySource for a fixed credential. For tests and fixed
// deployments.
type StaticKey string

func (k StaticKey) APIKey() (string, error) { return string(k), nil }
