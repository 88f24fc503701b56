package scoring

import (
	"encoding/json"
	"os"

	"github.com/google/uuid"

	"github.com/spigell/hh-scorer/internal/ai"
)

// Result is the outcome of a single scoring run.
type Result struct {
	ID         uuid.UUID      `json:"id"`
	JobURL     string         `json:"job_url"`
	CVURL      string         `json:"cv_url"`
	Job        string         `json:"job"`
	Candidate  string         `json:"candidate"`
	Assessment *ai.Assessment `json:"assessment,omitempty"`
	ScoreError string         `json:"score_error,omitempty"`

	scoreErr error
}

// ScoreErr returns the scoring failure, if any.
func (r *Result) ScoreErr() error {
	return r.scoreErr
}

func (r *Result) setScoreErr(err error) {
	r.scoreErr = err
	r.ScoreError = err.Error()
}

func (r *Result) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "hh-scorer_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return "", err
	}
	return file.Name(), nil
}
