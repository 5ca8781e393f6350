package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablescope/tablescope/internal/store"
	"github.com/tablescope/tablescope/pkg/models"
)

// createPendingJob inserts a job without claiming it; the worker claims.
func createPendingJob(t *testing.T, st store.Store, fileRef string, opts models.AnalysisOptions) uuid.UUID {
	t.Helper()
	job := &models.Job{
		ID:        uuid.New(),
		FileRef:   fileRef,
		Status:    models.JobStatusPending,
		Options:   opts,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, st.CreateJob(context.Background(), job))
	return job.ID
}

func TestWorkerPoolRunsSubmittedJob(t *testing.T) {
	cfg := testConfig(t)
	orch, st := newOrchestrator(t, cfg, nil)
	pool := NewWorkerPool(orch, st, 2, 8)
	pool.Start(context.Background())
	defer pool.Shutdown()

	fileRef := writeTestCSV(t)
	opts := models.AnalysisOptions{}
	jobID := createPendingJob(t, st, fileRef, opts)

	require.NoError(t, pool.Submit(Submission{JobID: jobID, Reference: fileRef, Options: opts}))

	require.Eventually(t, func() bool {
		job := mustGetJob(t, st, jobID)
		return job.Status == models.JobStatusCompleted
	}, 5*time.Second, 10*time.Millisecond)

	job := mustGetJob(t, st, jobID)
	assert.Equal(t, 100, job.Progress)
	assert.NotNil(t, job.ResultRef)
}

func TestWorkerPoolSkipsCancelledJob(t *testing.T) {
	cfg := testConfig(t)
	orch, st := newOrchestrator(t, cfg, nil)
	ctx := context.Background()

	fileRef := writeTestCSV(t)
	jobID := createPendingJob(t, st, fileRef, models.AnalysisOptions{})

	// Cancel while still queued: the claim fails and the worker drops it.
	ok, err := st.Cancel(ctx, jobID)
	require.NoError(t, err)
	require.True(t, ok)

	pool := NewWorkerPool(orch, st, 1, 4)
	pool.Start(ctx)
	require.NoError(t, pool.Submit(Submission{JobID: jobID, Reference: fileRef}))
	pool.Shutdown()

	job := mustGetJob(t, st, jobID)
	assert.Equal(t, models.JobStatusCancelled, job.Status)
	_, err = st.GetResult(ctx, jobID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestWorkerPoolSubmitBackpressure(t *testing.T) {
	cfg := testConfig(t)
	orch, st := newOrchestrator(t, cfg, nil)

	// No Start: nothing drains, so the queue fills.
	pool := NewWorkerPool(orch, st, 1, 1)

	require.NoError(t, pool.Submit(Submission{JobID: uuid.New()}))
	err := pool.Submit(Submission{JobID: uuid.New()})
	assert.ErrorIs(t, err, ErrQueueFull)
}

func TestWorkerPoolShutdownDrainsQueue(t *testing.T) {
	cfg := testConfig(t)
	orch, st := newOrchestrator(t, cfg, nil)
	ctx := context.Background()

	fileRef := writeTestCSV(t)
	var ids []uuid.UUID
	for i := 0; i < 5; i++ {
		ids = append(ids, createPendingJob(t, st, fileRef, models.AnalysisOptions{}))
	}

	pool := NewWorkerPool(orch, st, 2, 8)
	pool.Start(ctx)
	for _, id := range ids {
		require.NoError(t, pool.Submit(Submission{JobID: id, Reference: fileRef}))
	}
	pool.Shutdown()

	for _, id := range ids {
		assert.Equal(t, models.JobStatusCompleted, mustGetJob(t, st, id).Status)
	}
}

func TestWorkerPoolSubmitAfterShutdown(t *testing.T) {
	cfg := testConfig(t)
	orch, st := newOrchestrator(t, cfg, nil)

	pool := NewWorkerPool(orch, st, 1, 4)
	pool.Start(context.Background())
	pool.Shutdown()

	err := pool.Submit(Submission{JobID: uuid.New()})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrQueueFull)
}
