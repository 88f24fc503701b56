package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/hh-scorer/internal/logger"
)

const (
	Provider = "gemini"

	defaultModel           = "gemini-2.5-flash"
	defaultMaxRetries      = 3
	defaultMaxOutputTokens = 1000

	baseRetryDelay = 2 * time.Second
	maxRetryDelay  = 30 * time.Second
	// Quota errors asking to wait longer than this are returned as is.
	maxQuotaDelay = 20 * time.Second
)

var (
	// newTimer returns a channel firing after d and a func stopping the timer.
	newTimer = func(d time.Duration) (<-chan time.Time, func() bool) {
		t := time.NewTimer(d)
		return t.C, t.Stop
	}

	retryAfterRe = regexp.MustCompile(`(?i)retry (?:after|in) (\d+(?:\.\d+)?)\s*(ms|s|sec|secs|seconds?)\b`)
)

type chatSession interface {
	SendMessage(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

type chatCreator interface {
	Create(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content) (chatSession, error)
}

type genaiChats struct {
	chats *genai.Chats
}

func (c genaiChats) Create(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content) (chatSession, error) {
	chat, err := c.chats.Create(ctx, model, config, history)
	if err != nil {
		return nil, err
	}
	return chat, nil
}

// Config holds the Gemini connection settings.
type Config struct {
	APIKey          string
	Model           string
	MaxRetries      int
	Temperature     float32
	MaxOutputTokens int32
}

// Generator sends single-turn chat requests to Gemini with a system instruction.
type Generator struct {
	chats      chatCreator
	model      string
	maxRetries int
	logger     *zap.Logger

	temperature     *float32
	maxOutputTokens int32
}

// NewGenerator creates a Generator configured for the Gemini API backend.
func NewGenerator(ctx context.Context, cfg Config, log *zap.Logger) (*Generator, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}

	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	maxOutputTokens := cfg.MaxOutputTokens
	if maxOutputTokens <= 0 {
		maxOutputTokens = defaultMaxOutputTokens
	}

	return &Generator{
		chats:           genaiChats{chats: client.Chats},
		model:           model,
		maxRetries:      maxRetries,
		logger:          logger.WithCommonFields(log, Provider, model),
		temperature:     genai.Ptr(cfg.Temperature),
		maxOutputTokens: maxOutputTokens,
	}, nil
}

// GenerateContent sends message under the given system instruction and returns
// the textual answer. Temporary API failures are retried.
func (g *Generator) GenerateContent(ctx context.Context, system, message string) (string, error) {
	if g == nil || g.chats == nil {
		return "", errors.New("gemini generator is not initialized")
	}

	message = strings.TrimSpace(message)
	if message == "" {
		return "", errors.New("message must not be empty")
	}

	log := g.logger
	if log == nil {
		log = zap.NewNop()
	}

	attempts := g.maxRetries
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; ; attempt++ {
		output, err := g.send(ctx, system, message)
		if err == nil {
			return output, nil
		}

		delay, retry := retryDelay(err, attempt)
		if !retry || attempt >= attempts {
			return "", err
		}

		log.Warn("gemini request failed, retrying",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", attempts),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		if err := waitFor(ctx, delay); err != nil {
			return "", err
		}
	}
}

func (g *Generator) send(ctx context.Context, system, message string) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature:     g.temperature,
		MaxOutputTokens: g.maxOutputTokens,
	}
	if system = strings.TrimSpace(system); system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	chat, err := g.chats.Create(ctx, g.model, config, nil)
	if err != nil {
		return "", fmt.Errorf("create chat: %w", err)
	}

	resp, err := chat.SendMessage(ctx, genai.Part{Text: message})
	if err != nil {
		return "", fmt.Errorf("send message: %w", err)
	}

	return responseText(resp)
}

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", errors.New("gemini api returned no response")
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", errors.New("gemini api returned empty response")
	}

	return output, nil
}

// retryDelay decides whether err is temporary and how long to wait before the next attempt.
func retryDelay(err error, attempt int) (time.Duration, bool) {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		var apiErrPtr *genai.APIError
		if !errors.As(err, &apiErrPtr) || apiErrPtr == nil {
			return 0, false
		}
		apiErr = *apiErrPtr
	}

	switch {
	case apiErr.Code == http.StatusTooManyRequests:
		delay, ok := quotaDelay(apiErr)
		if !ok {
			return backoff(attempt), true
		}
		if delay > maxQuotaDelay {
			return 0, false
		}
		return delay, true
	case apiErr.Code >= http.StatusInternalServerError:
		return backoff(attempt), true
	default:
		return 0, false
	}
}

func backoff(attempt int) time.Duration {
	delay := baseRetryDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= maxRetryDelay {
			return maxRetryDelay
		}
	}
	return delay
}

// quotaDelay extracts the server-requested wait from RetryInfo details or the message text.
func quotaDelay(apiErr genai.APIError) (time.Duration, bool) {
	for _, detail := range apiErr.Details {
		raw, ok := detail["retryDelay"].(string)
		if !ok {
			continue
		}
		if d, err := time.ParseDuration(strings.TrimSpace(raw)); err == nil {
			return d, true
		}
	}

	m := retryAfterRe.FindStringSubmatch(apiErr.Message)
	if m == nil {
		return 0, false
	}

	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}

	unit := time.Second
	if strings.EqualFold(m[2], "ms") {
		unit = time.Millisecond
	}

	return time.Duration(value * float64(unit)), true
}

func waitFor(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	fired, stop := newTimer(d)
	defer stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-fired:
		return nil
	}
}
