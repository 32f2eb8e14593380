package assistant

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/jpeg"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fangji-app/fangji/internal/domain"
	"github.com/fangji-app/fangji/internal/llm"
	"github.com/fangji-app/fangji/internal/logging"
	"github.com/fangji-app/fangji/internal/ocr"
)

// scriptedLLM returns canned replies and records every request it sees.
type scriptedLLM struct {
	mu      sync.Mutex
	reply   string
	err     error
	gotMsgs [][]llm.Message
	gotOpts []llm.Options
}

func (s *scriptedLLM) Complete(_ context.Context, msgs []llm.Message, opts llm.Options) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gotMsgs = append(s.gotMsgs, msgs)
	s.gotOpts = append(s.gotOpts, opts)
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

type memoryLibrary struct {
	entries []*domain.PrescriptionDetails
}

func (m *memoryLibrary) ListDetails(context.Context, int) ([]*domain.PrescriptionDetails, error) {
	return m.entries, nil
}

type memoryChat struct {
	msgs []*domain.ChatMessage
}

func (m *memoryChat) Insert(_ context.Context, role, content string, pid *int64) (*domain.ChatMessage, error) {
	msg := &domain.ChatMessage{ID: int64(len(m.msgs) + 1), Role: role, Content: content, PrescriptionID: pid}
	m.msgs = append(m.msgs, msg)
	return msg, nil
}

func (m *memoryChat) List(context.Context) ([]*domain.ChatMessage, error) { return m.msgs, nil }

func (m *memoryChat) Recent(_ context.Context, n int) ([]*domain.ChatMessage, error) {
	if len(m.msgs) <= n {
		return m.msgs, nil
	}
	return m.msgs[len(m.msgs)-n:], nil
}

func (m *memoryChat) Clear(context.Context) error {
	m.msgs = nil
	return nil
}

func newTestService(client llm.Client, lib *memoryLibrary, chat *memoryChat) *Service {
	return NewService(client, lib, chat, Config{OCRModel: "kimi-latest", ChatModel: "kimi-latest"}, logging.Discard())
}

func jpegBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4)), nil))
	return buf.Bytes()
}

func TestRecognizeSeedsDraft(t *testing.T) {
	client := &scriptedLLM{reply: "```json\n{\"prescription_name\":\"四君子汤\",\"herbs\":[{\"name\":\"人参\",\"dosage\":\"10g\"}],\"confidence\":0.9}\n```"}
	svc := newTestService(client, &memoryLibrary{}, &memoryChat{})

	d, err := svc.Recognize(context.Background(), jpegBytes(t))
	require.NoError(t, err)
	assert.Equal(t, "四君子汤", d.Name)
	require.Len(t, d.Herbs, 1)
	assert.Equal(t, 0, d.Herbs[0].Sequence)
	assert.InDelta(t, 0.9, d.Confidence, 1e-9)

	require.Len(t, client.gotMsgs, 1)
	req := client.gotMsgs[0]
	require.Len(t, req, 1)
	assert.Equal(t, domain.RoleUser, req[0].Role)
	assert.True(t, strings.HasPrefix(req[0].ImageURL, "data:image/jpeg;base64,"))
	assert.InDelta(t, ocrTemperature, client.gotOpts[0].Temperature, 1e-9)
}

func TestRecognizeMalformedReply(t *testing.T) {
	client := &scriptedLLM{reply: "抱歉，我无法识别这张图片。"}
	svc := newTestService(client, &memoryLibrary{}, &memoryChat{})

	_, err := svc.Recognize(context.Background(), jpegBytes(t))
	assert.ErrorIs(t, err, ocr.ErrParse)
}

func TestRecognizeBadImage(t *testing.T) {
	client := &scriptedLLM{reply: "{}"}
	svc := newTestService(client, &memoryLibrary{}, &memoryChat{})

	_, err := svc.Recognize(context.Background(), []byte("not an image"))
	require.Error(t, err)
	assert.Empty(t, client.gotMsgs, "no request should be sent when the image fails to decode")
}

func TestChatPersistsBothSides(t *testing.T) {
	client := &scriptedLLM{reply: "四君子汤益气健脾。"}
	chat := &memoryChat{}
	svc := newTestService(client, &memoryLibrary{}, chat)

	reply, err := svc.Chat(context.Background(), "四君子汤的功效？")
	require.NoError(t, err)
	assert.Equal(t, "四君子汤益气健脾。", reply)

	require.Len(t, chat.msgs, 2)
	assert.Equal(t, domain.RoleUser, chat.msgs[0].Role)
	assert.Equal(t, domain.RoleAssistant, chat.msgs[1].Role)
}

func TestChatIncludesSystemAndHistory(t *testing.T) {
	client := &scriptedLLM{reply: "好的。"}
	chat := &memoryChat{}
	lib := &memoryLibrary{entries: []*domain.PrescriptionDetails{
		{Prescription: domain.Prescription{Name: "四君子汤"}},
	}}
	svc := newTestService(client, lib, chat)

	_, err := svc.Chat(context.Background(), "你好")
	require.NoError(t, err)

	req := client.gotMsgs[0]
	require.NotEmpty(t, req)
	assert.Equal(t, domain.RoleSystem, req[0].Role)
	assert.Contains(t, req[0].Text, "中医医师")
	assert.Contains(t, req[0].Text, "四君子汤", "library grounding appended to system prompt")
	assert.Equal(t, "你好", req[len(req)-1].Text)
}

func TestChatEmptyLibraryOmitsGrounding(t *testing.T) {
	client := &scriptedLLM{reply: "好的。"}
	svc := newTestService(client, &memoryLibrary{}, &memoryChat{})

	_, err := svc.Chat(context.Background(), "你好")
	require.NoError(t, err)

	system := client.gotMsgs[0][0].Text
	assert.Equal(t, SystemPrompt, system, "no grounding block for an empty library")
}

func TestChatRemoteFailureKeepsUserMessage(t *testing.T) {
	client := &scriptedLLM{err: errors.New("boom")}
	chat := &memoryChat{}
	svc := newTestService(client, &memoryLibrary{}, chat)

	_, err := svc.Chat(context.Background(), "你好")
	require.Error(t, err)
	require.Len(t, chat.msgs, 1, "user message persisted, no assistant reply")
	assert.Equal(t, domain.RoleUser, chat.msgs[0].Role)
}

func TestRecommendBuildsPrompt(t *testing.T) {
	client := &scriptedLLM{reply: "推荐四君子汤。"}
	lib := &memoryLibrary{entries: []*domain.PrescriptionDetails{
		{Prescription: domain.Prescription{Name: "四君子汤"}},
	}}
	svc := newTestService(client, lib, &memoryChat{})

	out, err := svc.Recommend(context.Background(), "乏力", "气虚", "男 35岁")
	require.NoError(t, err)
	assert.Equal(t, "推荐四君子汤。", out)

	req := client.gotMsgs[0]
	require.Len(t, req, 2)
	prompt := req[1].Text
	assert.Contains(t, prompt, "症状：乏力")
	assert.Contains(t, prompt, "体质：气虚")
	assert.Contains(t, prompt, "性别年龄：男 35岁")
	assert.Contains(t, prompt, "四君子汤")
}

func TestRecommendNotAddedToHistory(t *testing.T) {
	client := &scriptedLLM{reply: "推荐。"}
	chat := &memoryChat{}
	svc := newTestService(client, &memoryLibrary{}, chat)

	_, err := svc.Recommend(context.Background(), "乏力", "气虚", "男 35岁")
	require.NoError(t, err)
	assert.Empty(t, chat.msgs)
}
