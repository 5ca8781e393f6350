// Package store provides the TTL key-value job store abstraction. Job
// metadata and the (larger) result blob live under distinct keys so status
// polling never pays the cost of transferring a result.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/tablescope/tablescope/pkg/models"
)

var (
	// ErrNotFound is returned when a job or result does not exist.
	ErrNotFound = errors.New("resource not found")
	// ErrResultExpired is returned when a result existed but its TTL lapsed.
	// Distinct from ErrNotFound so callers can tell "gone" from "never was".
	ErrResultExpired = errors.New("result expired")
	// ErrIllegalTransition is returned when a status update would violate
	// the job lifecycle state machine.
	ErrIllegalTransition = errors.New("illegal status transition")
)

// Store is the job persistence interface. All job mutations are atomic at
// the store level; implementations must be safe for concurrent use.
type Store interface {
	Ping(ctx context.Context) error

	CreateJob(ctx context.Context, job *models.Job) error
	GetJob(ctx context.Context, id uuid.UUID) (*models.Job, error)

	// Claim atomically moves a pending job to processing and stamps
	// started_at. Exactly one concurrent caller wins; the rest (and calls
	// on absent or non-pending jobs) get false.
	Claim(ctx context.Context, id uuid.UUID) (bool, error)

	// UpdateStatus applies a legal lifecycle transition, stamping
	// completed_at on terminal states. Returns ErrIllegalTransition when
	// the current status does not permit the move.
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.JobStatus, opts ...StatusOption) error

	// SetProgress raises the job's progress. Values at or below the current
	// progress are ignored so observed progress never decreases.
	SetProgress(ctx context.Context, id uuid.UUID, progress int) error

	// PutResult stores the immutable result blob with the given TTL. It does
	// not touch job status; the caller flips to completed afterwards so a
	// crash in between leaves the job retryable rather than falsely done.
	PutResult(ctx context.Context, id uuid.UUID, result *models.AnalysisResult, ttl time.Duration) error

	// GetResult returns the stored result, ErrResultExpired if the blob's
	// TTL lapsed after a completed job recorded it, or ErrNotFound.
	GetResult(ctx context.Context, id uuid.UUID) (*models.AnalysisResult, error)

	// Cancel requests cancellation: a pending job moves straight to
	// cancelled, a processing job gets its cooperative cancel flag set.
	// Returns false when the job is absent or already terminal.
	Cancel(ctx context.Context, id uuid.UUID) (bool, error)

	// CancelRequested reports whether a cooperative cancel is pending.
	CancelRequested(ctx context.Context, id uuid.UUID) (bool, error)

	Delete(ctx context.Context, id uuid.UUID) error
}

type statusParams struct {
	ErrorMessage *string
	ResultRef    *string
}

// StatusOption attaches optional fields to a status update.
type StatusOption func(*statusParams)

// WithErrorMessage records the human-readable failure reason.
func WithErrorMessage(msg string) StatusOption {
	return func(p *statusParams) {
		p.ErrorMessage = &msg
	}
}

// WithResultRef records the result key alongside the completed transition,
// preserving the "result_ref set iff completed" invariant.
func WithResultRef(ref string) StatusOption {
	return func(p *statusParams) {
		p.ResultRef = &ref
	}
}
