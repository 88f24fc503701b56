package scoring

import (
	"errors"
	"fmt"
)

// ErrScorerNotConfigured is recorded on results produced without a scorer.
var ErrScorerNotConfigured = errors.New("scorer is not configured")

// FetchError reports a page that could not be fetched or parsed.
type FetchError struct {
	Kind string
	URL  string
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("get %s %q: %v", e.Kind, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
