package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrCancelled means a cooperative cancellation was honored mid-run.
	ErrCancelled = errors.New("job cancelled")

	// ErrQueueFull is returned by Submit when the job queue is at capacity.
	ErrQueueFull = errors.New("job queue is full")
)

// Stage names used in error attribution and logs.
const (
	StageValidation    = "validation"
	StageStatistics    = "statistics"
	StageVisualization = "visualization"
	StageInsights      = "insights"
	StagePersistence   = "persistence"
)

// StageError attributes a pipeline failure to the stage that raised it. The
// stage name ends up in the job's error_message so callers can tell a bad
// upload from an engine bug.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

func stageErr(stage string, err error) error {
	return &StageError{Stage: stage, Err: err}
}
