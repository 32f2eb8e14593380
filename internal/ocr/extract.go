package ocr

import (
	"regexp"
	"strings"
)

// fencePattern matches the first triple-backtick code block, optionally
// tagged "json". Non-greedy so later fences in the same response are ignored.
var fencePattern = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// ExtractJSON strips a surrounding markdown code fence from a model response.
// Responses without a fence are returned trimmed and otherwise untouched, so
// the function is idempotent on bare JSON.
func ExtractJSON(raw string) string {
	if m := fencePattern.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(raw)
}
