package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablescope/tablescope/pkg/models"
)

func newTestJob() *models.Job {
	return &models.Job{
		ID:        uuid.New(),
		FileRef:   "data/uploads/test.csv",
		Status:    models.JobStatusPending,
		CreatedAt: time.Now().UTC(),
	}
}

func TestMemoryStoreJobRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	job := newTestJob()
	require.NoError(t, s.CreateJob(ctx, job))

	got, err := s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, got.ID)
	assert.Equal(t, models.JobStatusPending, got.Status)
	assert.Equal(t, 0, got.Progress)

	_, err = s.GetJob(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreClaim(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	job := newTestJob()
	require.NoError(t, s.CreateJob(ctx, job))

	claimed, err := s.Claim(ctx, job.ID)
	require.NoError(t, err)
	assert.True(t, claimed)

	got, err := s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusProcessing, got.Status)
	assert.NotNil(t, got.StartedAt)

	// A second claim must lose.
	claimed, err = s.Claim(ctx, job.ID)
	require.NoError(t, err)
	assert.False(t, claimed)

	// Claiming an absent job is a miss, not an error.
	claimed, err = s.Claim(ctx, uuid.New())
	require.NoError(t, err)
	assert.False(t, claimed)
}

func TestMemoryStoreClaimExactlyOneWinner(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	job := newTestJob()
	require.NoError(t, s.CreateJob(ctx, job))

	const claimers = 32
	var wg sync.WaitGroup
	wins := make(chan bool, claimers)
	for i := 0; i < claimers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := s.Claim(ctx, job.ID)
			assert.NoError(t, err)
			wins <- ok
		}()
	}
	wg.Wait()
	close(wins)

	winners := 0
	for ok := range wins {
		if ok {
			winners++
		}
	}
	assert.Equal(t, 1, winners)
}

func TestMemoryStoreUpdateStatusTransitions(t *testing.T) {
	tests := []struct {
		name    string
		drive   []models.JobStatus
		to      models.JobStatus
		wantErr bool
	}{
		{"pending to processing", nil, models.JobStatusProcessing, false},
		{"pending to cancelled", nil, models.JobStatusCancelled, false},
		{"pending to completed", nil, models.JobStatusCompleted, true},
		{"processing to completed", []models.JobStatus{models.JobStatusProcessing}, models.JobStatusCompleted, false},
		{"processing to failed", []models.JobStatus{models.JobStatusProcessing}, models.JobStatusFailed, false},
		{"completed is terminal", []models.JobStatus{models.JobStatusProcessing, models.JobStatusCompleted}, models.JobStatusFailed, true},
		{"failed is terminal", []models.JobStatus{models.JobStatusProcessing, models.JobStatusFailed}, models.JobStatusProcessing, true},
		{"cancelled is terminal", []models.JobStatus{models.JobStatusCancelled}, models.JobStatusProcessing, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewMemoryStore()
			ctx := context.Background()
			job := newTestJob()
			require.NoError(t, s.CreateJob(ctx, job))
			for _, st := range tt.drive {
				require.NoError(t, s.UpdateStatus(ctx, job.ID, st))
			}

			err := s.UpdateStatus(ctx, job.ID, tt.to)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrIllegalTransition)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMemoryStoreUpdateStatusOptions(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	job := newTestJob()
	require.NoError(t, s.CreateJob(ctx, job))
	require.NoError(t, s.UpdateStatus(ctx, job.ID, models.JobStatusProcessing))
	require.NoError(t, s.UpdateStatus(ctx, job.ID, models.JobStatusCompleted,
		WithResultRef(ResultKey(job.ID))))

	got, err := s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, got.Status)
	require.NotNil(t, got.ResultRef)
	assert.Equal(t, ResultKey(job.ID), *got.ResultRef)
	assert.NotNil(t, got.CompletedAt)
	assert.Nil(t, got.ErrorMessage)
}

func TestMemoryStoreUpdateStatusErrorMessage(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	job := newTestJob()
	require.NoError(t, s.CreateJob(ctx, job))
	require.NoError(t, s.UpdateStatus(ctx, job.ID, models.JobStatusProcessing))
	require.NoError(t, s.UpdateStatus(ctx, job.ID, models.JobStatusFailed,
		WithErrorMessage("validation: empty file")))

	got, err := s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ErrorMessage)
	assert.Equal(t, "validation: empty file", *got.ErrorMessage)
	assert.Nil(t, got.ResultRef, "a failed job never carries a result ref")
}

func TestMemoryStoreProgressIsMonotonic(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	job := newTestJob()
	require.NoError(t, s.CreateJob(ctx, job))

	require.NoError(t, s.SetProgress(ctx, job.ID, 50))
	require.NoError(t, s.SetProgress(ctx, job.ID, 10)) // stale update, ignored
	require.NoError(t, s.SetProgress(ctx, job.ID, 70))

	got, err := s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, 70, got.Progress)
}

func TestMemoryStoreResultRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	job := newTestJob()
	require.NoError(t, s.CreateJob(ctx, job))

	result := &models.AnalysisResult{
		JobID:   job.ID,
		FileRef: job.FileRef,
		Schema:  models.DatasetSchema{RowCount: 4, ColumnCount: 2},
	}
	require.NoError(t, s.PutResult(ctx, job.ID, result, time.Hour))

	got, err := s.GetResult(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, got.JobID)
	assert.Equal(t, 4, got.Schema.RowCount)
}

func TestMemoryStoreResultExpiredVsNotFound(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	// Unknown job: not found.
	_, err := s.GetResult(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	// Completed job whose blob expired: expired, because the job metadata
	// still records the result ref.
	job := newTestJob()
	require.NoError(t, s.CreateJob(ctx, job))
	require.NoError(t, s.UpdateStatus(ctx, job.ID, models.JobStatusProcessing))
	require.NoError(t, s.PutResult(ctx, job.ID, &models.AnalysisResult{JobID: job.ID}, -time.Second))
	require.NoError(t, s.UpdateStatus(ctx, job.ID, models.JobStatusCompleted,
		WithResultRef(ResultKey(job.ID))))

	_, err = s.GetResult(ctx, job.ID)
	assert.ErrorIs(t, err, ErrResultExpired)

	// Live job without a result yet: not found.
	pending := newTestJob()
	require.NoError(t, s.CreateJob(ctx, pending))
	_, err = s.GetResult(ctx, pending.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreCancelPendingJob(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	job := newTestJob()
	require.NoError(t, s.CreateJob(ctx, job))

	ok, err := s.Cancel(ctx, job.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCancelled, got.Status)
	assert.NotNil(t, got.CompletedAt)

	// The cancelled job can no longer be claimed.
	claimed, err := s.Claim(ctx, job.ID)
	require.NoError(t, err)
	assert.False(t, claimed)
}

func TestMemoryStoreCancelProcessingJobIsCooperative(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	job := newTestJob()
	require.NoError(t, s.CreateJob(ctx, job))
	_, err := s.Claim(ctx, job.ID)
	require.NoError(t, err)

	ok, err := s.Cancel(ctx, job.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	// Status stays processing until the worker honours the flag.
	got, err := s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusProcessing, got.Status)

	requested, err := s.CancelRequested(ctx, job.ID)
	require.NoError(t, err)
	assert.True(t, requested)
}

func TestMemoryStoreCancelTerminalJob(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	job := newTestJob()
	require.NoError(t, s.CreateJob(ctx, job))
	require.NoError(t, s.UpdateStatus(ctx, job.ID, models.JobStatusProcessing))
	require.NoError(t, s.UpdateStatus(ctx, job.ID, models.JobStatusCompleted))

	ok, err := s.Cancel(ctx, job.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStoreDelete(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	job := newTestJob()
	require.NoError(t, s.CreateJob(ctx, job))
	require.NoError(t, s.PutResult(ctx, job.ID, &models.AnalysisResult{JobID: job.ID}, time.Hour))

	require.NoError(t, s.Delete(ctx, job.ID))

	_, err := s.GetJob(ctx, job.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetResult(ctx, job.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
