package cmd

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/hh-scorer/internal/ai"
	"github.com/spigell/hh-scorer/internal/ai/gemini"
	"github.com/spigell/hh-scorer/internal/headhunter"
	"github.com/spigell/hh-scorer/internal/scoring"
	"github.com/spigell/hh-scorer/internal/secrets"
)

const (
	formatText     = "text"
	formatMarkdown = "markdown"

	providerGemini = gemini.Provider
	providerNone   = "none"
)

func newFetcher(cfg *FetchConfig, logger *zap.Logger) *headhunter.Client {
	if cfg == nil {
		cfg = &FetchConfig{}
	}

	return headhunter.New(logger,
		headhunter.WithTimeout(cfg.Timeout),
		headhunter.WithUserAgent(cfg.UserAgent),
		headhunter.WithAllowErrorStatus(cfg.AllowErrorStatus),
	)
}

func newParser(config *Config) (*headhunter.Parser, error) {
	selectors, err := headhunter.DecodeSelectors(config.Selectors)
	if err != nil {
		return nil, err
	}

	parser := &headhunter.Parser{Selectors: selectors}

	switch format := strings.ToLower(strings.TrimSpace(config.Render.DescriptionFormat)); format {
	case "", formatText:
	case formatMarkdown:
		parser.MarkdownDescriptions = true
	default:
		return nil, fmt.Errorf("unsupported render.description-format: %s", format)
	}

	return parser, nil
}

// newScorer returns a nil scorer when scoring is disabled with provider "none".
func newScorer(ctx context.Context, cfg *AIConfig, logger *zap.Logger) (ai.Scorer, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	switch provider {
	case providerNone:
		return nil, nil
	case "", providerGemini:
	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	gc := cfg.Gemini
	if gc == nil {
		gc = &GeminiConfig{}
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		File:  gc.APIKeyFile,
		Value: gc.APIKey,
		Env:   "GOOGLE_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set GEMINI_API_KEY, GEMINI_API_KEY_FILE or ai.gemini.api-key-file)", err)
	}

	generator, err := gemini.NewGenerator(ctx, gemini.Config{
		APIKey:          apiKey,
		Model:           gc.Model,
		MaxRetries:      gc.MaxRetries,
		Temperature:     gc.Temperature,
		MaxOutputTokens: gc.MaxOutputTokens,
	}, logger.With(zap.Int("ai_retry_attempts", gc.MaxRetries)))
	if err != nil {
		return nil, err
	}

	minScore := cfg.MinimumFitScore
	if minScore < 0 {
		minScore = 0
	}

	scorerLogger := logger.With(
		zap.String("ai_provider", gemini.Provider),
		zap.String("ai_model", generator.Model()),
		zap.Float64("minimum_fit_score", minScore),
	)

	return gemini.NewScorer(generator, scorerLogger, minScore, gc.MaxLogLength), nil
}

func newPipeline(ctx context.Context, config *Config, logger *zap.Logger) (*scoring.Pipeline, error) {
	parser, err := newParser(config)
	if err != nil {
		return nil, fmt.Errorf("building parser: %w", err)
	}

	scorer, err := newScorer(ctx, config.AI, logger)
	if err != nil {
		logger.Warn("scoring is disabled", zap.Error(err))
		scorer = nil
	}

	return scoring.New(scoring.Deps{
		Fetcher: newFetcher(config.Fetch, logger),
		Parser:  parser,
		Scorer:  scorer,
		Logger:  logger,
	}, scoring.WithParallelFetch(config.Fetch.Parallel)), nil
}
