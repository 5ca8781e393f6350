package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tablescope/tablescope/pkg/models"
)

// MemoryStore implements Store with a mutex-guarded map. It mirrors the
// Redis semantics, including the expired-vs-missing result distinction, and
// backs unit tests and the storeless development mode.
type MemoryStore struct {
	mu      sync.Mutex
	jobs    map[uuid.UUID]*memoryJob
	results map[uuid.UUID]*memoryResult
}

type memoryJob struct {
	job             models.Job
	cancelRequested bool
}

type memoryResult struct {
	result    models.AnalysisResult
	expiresAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs:    make(map[uuid.UUID]*memoryJob),
		results: make(map[uuid.UUID]*memoryResult),
	}
}

func (s *MemoryStore) Ping(_ context.Context) error { return nil }

func (s *MemoryStore) CreateJob(_ context.Context, job *models.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = &memoryJob{job: *job}
	return nil
}

func (s *MemoryStore) GetJob(_ context.Context, id uuid.UUID) (*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	job := entry.job
	return &job, nil
}

func (s *MemoryStore) Claim(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.jobs[id]
	if !ok || entry.job.Status != models.JobStatusPending {
		return false, nil
	}
	now := time.Now().UTC()
	entry.job.Status = models.JobStatusProcessing
	entry.job.StartedAt = &now
	return true, nil
}

func (s *MemoryStore) UpdateStatus(_ context.Context, id uuid.UUID, status models.JobStatus, opts ...StatusOption) error {
	var params statusParams
	for _, opt := range opts {
		opt(&params)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.jobs[id]
	if !ok {
		return ErrNotFound
	}
	if !entry.job.Status.CanTransition(status) {
		return fmt.Errorf("%w: %s to %s", ErrIllegalTransition, entry.job.Status, status)
	}
	entry.job.Status = status
	if status.Terminal() {
		now := time.Now().UTC()
		entry.job.CompletedAt = &now
	}
	if params.ErrorMessage != nil {
		entry.job.ErrorMessage = params.ErrorMessage
	}
	if params.ResultRef != nil {
		entry.job.ResultRef = params.ResultRef
	}
	return nil
}

func (s *MemoryStore) SetProgress(_ context.Context, id uuid.UUID, progress int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.jobs[id]
	if !ok {
		return ErrNotFound
	}
	if progress > entry.job.Progress {
		entry.job.Progress = progress
	}
	return nil
}

func (s *MemoryStore) PutResult(_ context.Context, id uuid.UUID, result *models.AnalysisResult, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[id] = &memoryResult{
		result:    *result,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

func (s *MemoryStore) GetResult(_ context.Context, id uuid.UUID) (*models.AnalysisResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.results[id]
	if ok && time.Now().Before(entry.expiresAt) {
		result := entry.result
		return &result, nil
	}
	if ok {
		delete(s.results, id)
	}
	if job, exists := s.jobs[id]; exists && job.job.ResultRef != nil {
		return nil, ErrResultExpired
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) Cancel(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.jobs[id]
	if !ok {
		return false, nil
	}
	switch entry.job.Status {
	case models.JobStatusPending:
		now := time.Now().UTC()
		entry.job.Status = models.JobStatusCancelled
		entry.job.CompletedAt = &now
		return true, nil
	case models.JobStatusProcessing:
		entry.cancelRequested = true
		return true, nil
	}
	return false, nil
}

func (s *MemoryStore) CancelRequested(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.jobs[id]
	if !ok {
		return false, nil
	}
	return entry.cancelRequested, nil
}

func (s *MemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, id)
	delete(s.results, id)
	return nil
}

var _ Store = (*MemoryStore)(nil)
var _ Store = (*RedisStore)(nil)
