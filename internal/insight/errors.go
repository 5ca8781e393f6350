package insight

import "errors"

var (
	// ErrNoInsights means every generation attempt failed. The analysis
	// pipeline treats this as a degradation, not a job failure.
	ErrNoInsights = errors.New("insight generation failed after all retries")

	// ErrInvalidResponse means the provider replied but the reply could not
	// be parsed into the structured insight schema.
	ErrInvalidResponse = errors.New("provider returned unparseable response")

	// ErrEmptyResponse means the provider replied with no text at all.
	ErrEmptyResponse = errors.New("provider returned empty response")
)
