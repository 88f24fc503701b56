package gemini

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/genai"
)

type fakeChatCreator struct {
	mu    sync.Mutex
	calls []chatCallRecord
	queue map[string][]fakeChatResponse
}

type chatCallRecord struct {
	model  string
	config *genai.GenerateContentConfig
	chat   *fakeChat
}

type fakeChatResponse struct {
	resp *genai.GenerateContentResponse
	err  error
}

type fakeChat struct {
	mu       sync.Mutex
	response fakeChatResponse
	messages []string
}

func (f *fakeChat) SendMessage(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, part := range parts {
		f.messages = append(f.messages, part.Text)
	}
	return f.response.resp, f.response.err
}

func newFakeChatCreator() *fakeChatCreator {
	return &fakeChatCreator{queue: make(map[string][]fakeChatResponse)}
}

func (f *fakeChatCreator) enqueue(model string, resp *genai.GenerateContentResponse, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue[model] = append(f.queue[model], fakeChatResponse{resp: resp, err: err})
}

func (f *fakeChatCreator) Create(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content) (chatSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	responses := f.queue[model]
	if len(responses) == 0 {
		return nil, errors.New("unexpected call")
	}
	res := responses[0]
	f.queue[model] = responses[1:]
	chat := &fakeChat{response: res}
	f.calls = append(f.calls, chatCallRecord{model: model, config: config, chat: chat})
	return chat, nil
}

func TestGeneratorRetriesOnTemporaryError(t *testing.T) {
	stubTimer(t, nil)

	chats := newFakeChatCreator()
	tempErr := genai.APIError{Code: http.StatusInternalServerError, Status: "INTERNAL"}
	chats.enqueue("gemini-pro", nil, tempErr)
	chats.enqueue("gemini-pro", &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: "retry ok"}}},
		}},
	}, nil)

	g := &Generator{
		chats:           chats,
		model:           "gemini-pro",
		maxRetries:      2,
		logger:          zap.NewNop(),
		temperature:     genai.Ptr[float32](0),
		maxOutputTokens: 1000,
	}

	output, err := g.GenerateContent(context.Background(), "system", "message")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if output != "retry ok" {
		t.Fatalf("unexpected output: %q", output)
	}

	if len(chats.calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(chats.calls))
	}

	for _, call := range chats.calls {
		if call.config == nil || call.config.SystemInstruction == nil {
			t.Fatalf("expected system instruction to be set")
		}
		if got := call.config.SystemInstruction.Parts[0].Text; got != "system" {
			t.Fatalf("unexpected system instruction: %q", got)
		}
		if call.config.Temperature == nil || *call.config.Temperature != 0 {
			t.Fatalf("expected zero temperature, got %v", call.config.Temperature)
		}
		if call.config.MaxOutputTokens != 1000 {
			t.Fatalf("unexpected max output tokens: %d", call.config.MaxOutputTokens)
		}
		if len(call.chat.messages) != 1 || call.chat.messages[0] != "message" {
			t.Fatalf("unexpected chat message: %+v", call.chat.messages)
		}
	}
}

func TestGeneratorStopsAfterRetriesExhausted(t *testing.T) {
	stubTimer(t, nil)

	chats := newFakeChatCreator()
	tempErr := genai.APIError{Code: http.StatusInternalServerError, Status: "INTERNAL"}
	chats.enqueue("gemini-pro", nil, tempErr)
	chats.enqueue("gemini-pro", nil, tempErr)

	g := &Generator{
		chats:      chats,
		model:      "gemini-pro",
		maxRetries: 2,
		logger:     zap.NewNop(),
	}

	_, err := g.GenerateContent(context.Background(), "sys", "msg")
	if err == nil {
		t.Fatal("expected error after retries exhausted")
	}

	if len(chats.calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(chats.calls))
	}
}

func TestGeneratorDoesNotRetryOnLongQuotaDelay(t *testing.T) {
	chats := newFakeChatCreator()
	quotaErr := genai.APIError{
		Code:    http.StatusTooManyRequests,
		Status:  "RESOURCE_EXHAUSTED",
		Message: "quota exhausted, retry after 60 seconds",
	}
	chats.enqueue("gemini-pro", nil, quotaErr)

	g := &Generator{
		chats:      chats,
		model:      "gemini-pro",
		maxRetries: 3,
		logger:     zap.NewNop(),
	}

	_, err := g.GenerateContent(context.Background(), "sys", "msg")
	if err == nil {
		t.Fatal("expected error when quota delay too long")
	}

	if len(chats.calls) != 1 {
		t.Fatalf("expected single call, got %d", len(chats.calls))
	}
}

func TestGeneratorRetriesOnShortQuotaDelay(t *testing.T) {
	var slept []time.Duration
	stubTimer(t, &slept)

	chats := newFakeChatCreator()
	quotaErr := genai.APIError{
		Code:    http.StatusTooManyRequests,
		Status:  "RESOURCE_EXHAUSTED",
		Details: []map[string]any{{"@type": "type.googleapis.com/google.rpc.RetryInfo", "retryDelay": "5s"}},
	}
	chats.enqueue("gemini-pro", nil, quotaErr)
	chats.enqueue("gemini-pro", &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: "ok"}}},
		}},
	}, nil)

	core, logs := observer.New(zapcore.WarnLevel)
	g := &Generator{
		chats:      chats,
		model:      "gemini-pro",
		maxRetries: 3,
		logger:     zap.New(core),
	}

	output, err := g.GenerateContent(context.Background(), "", "msg")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if output != "ok" {
		t.Fatalf("unexpected output: %q", output)
	}

	if len(slept) != 1 || slept[0] != 5*time.Second {
		t.Fatalf("expected a single 5s wait, got %v", slept)
	}
	if logs.FilterMessage("gemini request failed, retrying").Len() != 1 {
		t.Fatalf("expected retry to be logged")
	}
	if chats.calls[0].config.SystemInstruction != nil {
		t.Fatalf("expected no system instruction for empty system prompt")
	}
}

func TestGeneratorDoesNotRetryClientErrors(t *testing.T) {
	chats := newFakeChatCreator()
	chats.enqueue("gemini-pro", nil, genai.APIError{Code: http.StatusBadRequest, Status: "INVALID_ARGUMENT"})

	g := &Generator{chats: chats, model: "gemini-pro", maxRetries: 3, logger: zap.NewNop()}

	_, err := g.GenerateContent(context.Background(), "sys", "msg")
	if err == nil {
		t.Fatal("expected error")
	}

	var apiErr genai.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != http.StatusBadRequest {
		t.Fatalf("expected api error to be preserved, got %v", err)
	}

	if len(chats.calls) != 1 {
		t.Fatalf("expected single call, got %d", len(chats.calls))
	}
}

func TestGeneratorRejectsEmptyResponse(t *testing.T) {
	chats := newFakeChatCreator()
	chats.enqueue("gemini-pro", &genai.GenerateContentResponse{}, nil)

	g := &Generator{chats: chats, model: "gemini-pro", maxRetries: 1, logger: zap.NewNop()}

	if _, err := g.GenerateContent(context.Background(), "sys", "msg"); err == nil {
		t.Fatal("expected error for empty response")
	}
}

func TestGeneratorRequiresMessage(t *testing.T) {
	g := &Generator{chats: newFakeChatCreator(), model: "gemini-pro"}

	if _, err := g.GenerateContent(context.Background(), "sys", "  "); err == nil {
		t.Fatal("expected error for empty message")
	}

	var nilGenerator *Generator
	if _, err := nilGenerator.GenerateContent(context.Background(), "sys", "msg"); err == nil {
		t.Fatal("expected error for nil generator")
	}
}

func TestNewGeneratorRequiresAPIKey(t *testing.T) {
	if _, err := NewGenerator(context.Background(), Config{APIKey: " "}, zap.NewNop()); err == nil {
		t.Fatal("expected error without api key")
	}
}

func TestQuotaDelay(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		err    genai.APIError
		expect time.Duration
		ok     bool
	}{
		{
			name:   "retry info detail",
			err:    genai.APIError{Details: []map[string]any{{"retryDelay": "12s"}}},
			expect: 12 * time.Second,
			ok:     true,
		},
		{
			name:   "message seconds",
			err:    genai.APIError{Message: "Please retry in 7.5s."},
			expect: 7500 * time.Millisecond,
			ok:     true,
		},
		{
			name:   "message milliseconds",
			err:    genai.APIError{Message: "retry after 300 ms"},
			expect: 300 * time.Millisecond,
			ok:     true,
		},
		{
			name: "no hint",
			err:  genai.APIError{Message: "quota exhausted"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := quotaDelay(tt.err)
			if ok != tt.ok || got != tt.expect {
				t.Fatalf("expected (%v, %v), got (%v, %v)", tt.expect, tt.ok, got, ok)
			}
		})
	}
}

func TestBackoff(t *testing.T) {
	t.Parallel()

	if got := backoff(1); got != baseRetryDelay {
		t.Fatalf("unexpected first delay: %v", got)
	}
	if got := backoff(2); got != 2*baseRetryDelay {
		t.Fatalf("unexpected second delay: %v", got)
	}
	if got := backoff(10); got != maxRetryDelay {
		t.Fatalf("expected capped delay, got %v", got)
	}
}

func TestWaitForHonoursContext(t *testing.T) {
	originalTimer := newTimer
	stopped := false
	newTimer = func(time.Duration) (<-chan time.Time, func() bool) {
		return make(chan time.Time), func() bool {
			stopped = true
			return true
		}
	}
	t.Cleanup(func() { newTimer = originalTimer })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := waitFor(ctx, time.Hour)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
	if !stopped {
		t.Fatal("expected timer to be stopped")
	}
}

func TestWaitForReturnsWhenTimerFires(t *testing.T) {
	var waited []time.Duration
	stubTimer(t, &waited)

	if err := waitFor(context.Background(), 3*time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(waited) != 1 || waited[0] != 3*time.Second {
		t.Fatalf("unexpected waits: %v", waited)
	}
	if err := waitFor(context.Background(), 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(waited) != 1 {
		t.Fatalf("expected no wait for zero delay, got %v", waited)
	}
}

// stubTimer makes every wait fire immediately, recording the requested delays.
func stubTimer(t *testing.T, record *[]time.Duration) {
	t.Helper()

	originalTimer := newTimer
	newTimer = func(d time.Duration) (<-chan time.Time, func() bool) {
		if record != nil {
			*record = append(*record, d)
		}
		fired := make(chan time.Time, 1)
		fired <- time.Time{}
		return fired, func() bool { return false }
	}
	t.Cleanup(func() { newTimer = originalTimer })
}
