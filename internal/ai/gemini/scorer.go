package gemini

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/hh-scorer/internal/ai"
	"github.com/spigell/hh-scorer/internal/logger"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, system, message string) (string, error)
}

// Scorer asks Gemini to rate a candidate against a job.
type Scorer struct {
	generator contentGenerator
	minScore  float64
	logger    *zap.Logger
	maxLogLen int
}

//go:embed prompt.md
var systemPrompt string

const defaultMaxLogLength = 200

var percentRe = regexp.MustCompile(`(\d{1,3}(?:[.,]\d+)?)\s*%`)

func NewScorer(generator contentGenerator, log *zap.Logger, minScore float64, maxLogLength int) *Scorer {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Scorer{
		generator: generator,
		minScore:  minScore,
		logger:    log,
		maxLogLen: maxLogLength,
	}
}

func (s *Scorer) Score(ctx context.Context, job, candidate string) (*ai.Assessment, error) {
	if s.generator == nil {
		return nil, fmt.Errorf("gemini generator is required")
	}

	message := buildMessage(job, candidate)

	s.logger.Debug("gemini score request",
		zap.Int("prompt_length", utf8.RuneCountInString(message)),
		zap.String("prompt_preview", logger.TruncateForLog(message, s.maxLogLen)),
	)

	raw, err := s.generator.GenerateContent(ctx, strings.TrimSpace(systemPrompt), message)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("gemini score response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", logger.TruncateForLog(raw, s.maxLogLen)),
	)

	assessment := &ai.Assessment{Text: raw, Fit: true}
	assessment.Score, assessment.HasScore = parseScore(raw)

	if s.minScore > 0 && assessment.HasScore && assessment.Score < s.minScore {
		s.logger.Debug("set fit to false by score threshold",
			zap.Float64("score", assessment.Score),
			zap.Float64("threshold", s.minScore),
		)
		assessment.Fit = false
	}

	return assessment, nil
}

func buildMessage(job, candidate string) string {
	return fmt.Sprintf("# ВАКАНСИЯ\n%s\n\n# РЕЗЮМЕ\n%s", job, candidate)
}

// parseScore returns the last percentage in the range 0..100 found in raw.
func parseScore(raw string) (float64, bool) {
	matches := percentRe.FindAllStringSubmatch(raw, -1)
	for i := len(matches) - 1; i >= 0; i-- {
		value, err := strconv.ParseFloat(strings.Replace(matches[i][1], ",", ".", 1), 64)
		if err != nil || value > 100 {
			continue
		}
		return value, true
	}
	return 0, false
}
