package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tablescope/tablescope/internal/api/response"
	"github.com/tablescope/tablescope/internal/store"
)

// NewJobStatusHandler returns the handler for GET /api/v1/analyze/{jobID}.
func NewJobStatusHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID, ok := parseJobID(w, r)
		if !ok {
			return
		}

		job, err := st.GetJob(r.Context(), jobID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "JOB_NOT_FOUND", "Job not found", nil)
				return
			}
			slog.Error("fetching job failed", "job_id", jobID, "error", err)
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch job", nil)
			return
		}

		response.JSON(w, job)
	}
}

// NewJobResultHandler returns the handler for
// GET /api/v1/analyze/{jobID}/result. A completed job whose result blob has
// expired answers 410, which is distinct from 404 for an unknown job.
func NewJobResultHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID, ok := parseJobID(w, r)
		if !ok {
			return
		}

		result, err := st.GetResult(r.Context(), jobID)
		if err == nil {
			response.JSON(w, result)
			return
		}

		switch {
		case errors.Is(err, store.ErrResultExpired):
			response.Error(w, http.StatusGone, "RESULT_EXPIRED",
				"The result has expired and is no longer available", nil)
		case errors.Is(err, store.ErrNotFound):
			job, jerr := st.GetJob(r.Context(), jobID)
			if jerr != nil {
				response.Error(w, http.StatusNotFound, "JOB_NOT_FOUND", "Job not found", nil)
				return
			}
			response.Error(w, http.StatusConflict, "JOB_NOT_COMPLETED",
				"Job has not produced a result", map[string]any{
					"status":   job.Status,
					"progress": job.Progress,
				})
		default:
			slog.Error("fetching result failed", "job_id", jobID, "error", err)
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch result", nil)
		}
	}
}

// NewJobDeleteHandler returns the handler for DELETE /api/v1/analyze/{jobID}.
// A live job is cancelled; a terminal job is deleted along with its result.
func NewJobDeleteHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID, ok := parseJobID(w, r)
		if !ok {
			return
		}

		job, err := st.GetJob(r.Context(), jobID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "JOB_NOT_FOUND", "Job not found", nil)
				return
			}
			slog.Error("fetching job failed", "job_id", jobID, "error", err)
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch job", nil)
			return
		}

		if job.Status.Terminal() {
			if err := st.Delete(r.Context(), jobID); err != nil {
				slog.Error("deleting job failed", "job_id", jobID, "error", err)
				response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete job", nil)
				return
			}
			response.JSON(w, map[string]any{"job_id": jobID, "deleted": true})
			return
		}

		cancelled, err := st.Cancel(r.Context(), jobID)
		if err != nil {
			slog.Error("cancelling job failed", "job_id", jobID, "error", err)
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to cancel job", nil)
			return
		}
		if !cancelled {
			// Raced into a terminal state between the read and the cancel.
			response.Error(w, http.StatusConflict, "JOB_ALREADY_TERMINAL",
				"Job already reached a terminal state", nil)
			return
		}

		response.JSON(w, map[string]any{"job_id": jobID, "cancellation_requested": true})
	}
}

func parseJobID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "jobID")
	jobID, err := uuid.Parse(raw)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_JOB_ID", "jobID must be a valid UUID", nil)
		return uuid.Nil, false
	}
	return jobID, true
}
