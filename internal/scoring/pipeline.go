// Package scoring wires page fetching, record extraction and the AI scorer
// into a single run over a vacancy and a resume.
package scoring

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/hh-scorer/internal/ai"
	"github.com/spigell/hh-scorer/internal/headhunter"
	"github.com/spigell/hh-scorer/internal/logger"
)

const (
	KindVacancy = "vacancy"
	KindResume  = "resume"
)

// Fetcher downloads a page by URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*headhunter.Page, error)
}

// Deps aggregates the collaborators of a pipeline.
type Deps struct {
	Fetcher Fetcher
	Parser  *headhunter.Parser
	// Scorer is optional; runs without it record ErrScorerNotConfigured.
	Scorer ai.Scorer
	Logger *zap.Logger
}

// Pipeline holds no per-run state and is safe for concurrent use.
type Pipeline struct {
	fetcher  Fetcher
	parser   *headhunter.Parser
	scorer   ai.Scorer
	logger   *zap.Logger
	parallel bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithParallelFetch fetches the vacancy and the resume concurrently.
func WithParallelFetch(parallel bool) Option {
	return func(p *Pipeline) {
		p.parallel = parallel
	}
}

func New(deps Deps, opts ...Option) *Pipeline {
	p := &Pipeline{
		fetcher: deps.Fetcher,
		parser:  deps.Parser,
		scorer:  deps.Scorer,
		logger:  deps.Logger,
	}

	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	if p.fetcher == nil {
		p.fetcher = headhunter.New(p.logger)
	}
	if p.parser == nil {
		p.parser = headhunter.NewParser()
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// GetJobDescription fetches a vacancy page and renders it as Markdown.
func (p *Pipeline) GetJobDescription(ctx context.Context, url string) (string, error) {
	body, err := p.fetch(ctx, KindVacancy, url)
	if err != nil {
		return "", err
	}

	vacancy, err := p.parser.ParseVacancy(strings.NewReader(body))
	if err != nil {
		return "", &FetchError{Kind: KindVacancy, URL: url, Err: err}
	}

	return vacancy.Markdown(), nil
}

// GetCandidateInfo fetches a resume page and renders it as Markdown.
func (p *Pipeline) GetCandidateInfo(ctx context.Context, url string) (string, error) {
	body, err := p.fetch(ctx, KindResume, url)
	if err != nil {
		return "", err
	}

	resume, err := p.parser.ParseResume(strings.NewReader(body))
	if err != nil {
		return "", &FetchError{Kind: KindResume, URL: url, Err: err}
	}

	return resume.Markdown(), nil
}

func (p *Pipeline) fetch(ctx context.Context, kind, url string) (string, error) {
	page, err := p.fetcher.Fetch(ctx, url)
	if err != nil {
		return "", &FetchError{Kind: kind, URL: url, Err: err}
	}

	p.logger.Debug("page fetched",
		append(logger.PageFields(kind, url),
			zap.Int("status", page.StatusCode),
			zap.Int("body_length", len(page.Body)),
		)...,
	)

	return page.Body, nil
}

// Run renders both pages and scores the pair. The returned result is never nil:
// on a fetch failure it carries whatever was rendered and the error is returned.
// Scoring failures do not fail the run; they are recorded on the result.
func (p *Pipeline) Run(ctx context.Context, jobURL, cvURL string) (*Result, error) {
	res := &Result{
		ID:     uuid.New(),
		JobURL: strings.TrimSpace(jobURL),
		CVURL:  strings.TrimSpace(cvURL),
	}

	log := logger.WithRunID(p.logger, res.ID.String())
	log.Info("starting scoring run",
		zap.String("job_url", res.JobURL),
		zap.String("cv_url", res.CVURL),
		zap.Bool("parallel", p.parallel),
	)

	if err := p.render(ctx, res); err != nil {
		log.Error("rendering pages failed", zap.Error(err))
		return res, err
	}

	log.Info("pipeline step", zap.String("name", "render"),
		zap.Int("job_length", len(res.Job)),
		zap.Int("candidate_length", len(res.Candidate)),
	)

	if p.scorer == nil {
		log.Warn("skipping scoring", zap.Error(ErrScorerNotConfigured))
		res.setScoreErr(ErrScorerNotConfigured)
		return res, nil
	}

	assessment, err := p.scorer.Score(ctx, res.Job, res.Candidate)
	if err != nil {
		log.Warn("scoring failed", zap.Error(err))
		res.setScoreErr(fmt.Errorf("score: %w", err))
		return res, nil
	}

	res.Assessment = assessment

	fields := []zap.Field{zap.String("name", "score"), zap.Bool("fit", assessment.Fit)}
	if assessment.HasScore {
		fields = append(fields, zap.Float64("score", assessment.Score))
	}
	log.Info("pipeline step", fields...)

	return res, nil
}

func (p *Pipeline) render(ctx context.Context, res *Result) error {
	var jobErr, cvErr error

	if !p.parallel {
		res.Job, jobErr = p.GetJobDescription(ctx, res.JobURL)
		res.Candidate, cvErr = p.GetCandidateInfo(ctx, res.CVURL)
		return errors.Join(jobErr, cvErr)
	}

	var g errgroup.Group
	g.Go(func() error {
		res.Job, jobErr = p.GetJobDescription(ctx, res.JobURL)
		return jobErr
	})
	g.Go(func() error {
		res.Candidate, cvErr = p.GetCandidateInfo(ctx, res.CVURL)
		return cvErr
	})

	if err := g.Wait(); err != nil {
		return errors.Join(jobErr, cvErr)
	}

	return nil
}
