// Package models contains shared data models used across the Tablescope codebase.
package models

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus is the closed set of lifecycle states for an analysis job.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusCancelled  JobStatus = "cancelled"
)

// jobTransitions is the single source of truth for legal status transitions.
// pending is initial; completed, failed and cancelled are terminal.
var jobTransitions = map[JobStatus][]JobStatus{
	JobStatusPending:    {JobStatusProcessing, JobStatusCancelled},
	JobStatusProcessing: {JobStatusCompleted, JobStatusFailed, JobStatusCancelled},
	JobStatusCompleted:  {},
	JobStatusFailed:     {},
	JobStatusCancelled:  {},
}

// CanTransition reports whether moving from one status to another is legal.
func (s JobStatus) CanTransition(to JobStatus) bool {
	for _, next := range jobTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether the status is a terminal state.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}

// Valid reports whether s is a known job status.
func (s JobStatus) Valid() bool {
	_, ok := jobTransitions[s]
	return ok
}

// Job tracks one unit of asynchronous analysis work. The API returns a job id
// on POST /api/v1/analyze; the client polls GET /api/v1/analyze/{job_id} until
// the status is terminal. While processing, the job is owned exclusively by
// the worker that claimed it; everyone else reads.
type Job struct {
	ID           uuid.UUID       `json:"id"`
	FileRef      string          `json:"file_ref"`
	Status       JobStatus       `json:"status"`
	Progress     int             `json:"progress"`
	Options      AnalysisOptions `json:"options"`
	ErrorMessage *string         `json:"error_message,omitempty"`
	ResultRef    *string         `json:"result_ref,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	StartedAt    *time.Time      `json:"started_at,omitempty"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
}
