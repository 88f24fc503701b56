package ai

import "context"

// Assessment is a scoring model's verdict on a candidate for a job.
type Assessment struct {
	// Text is the model answer as returned.
	Text string `json:"text"`
	// Score is the last percentage found in Text, valid only when HasScore is set.
	Score    float64 `json:"score"`
	HasScore bool    `json:"has_score"`
	// Fit is false only when a minimum score is configured and Score is below it.
	Fit bool `json:"fit"`
}

// Scorer evaluates a rendered candidate profile against a rendered job description.
type Scorer interface {
	Score(ctx context.Context, job, candidate string) (*Assessment, error)
}
