package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/tablescope/tablescope/internal/api/response"
	"github.com/tablescope/tablescope/internal/pipeline"
	"github.com/tablescope/tablescope/internal/store"
	"github.com/tablescope/tablescope/pkg/models"
)

// JobSubmitter is the slice of the worker pool the analyze handler needs.
type JobSubmitter interface {
	Submit(sub pipeline.Submission) error
}

type analyzeRequest struct {
	FileRef                string               `json:"file_ref"`
	AnalysisTypes          []models.AnalysisType `json:"analysis_types"`
	GenerateInsights       *bool                `json:"generate_insights"`
	GenerateVisualizations *bool                `json:"generate_visualizations"`
	CustomConfig           *models.CustomConfig `json:"custom_config"`
}

var validAnalysisTypes = map[models.AnalysisType]bool{
	models.AnalysisDescriptive:  true,
	models.AnalysisCorrelation:  true,
	models.AnalysisOutlier:      true,
	models.AnalysisDistribution: true,
	models.AnalysisAll:          true,
}

// NewAnalyzeHandler returns the handler for POST /api/v1/analyze. It creates
// a pending job, enqueues it, and answers 202 with the job for polling.
func NewAnalyzeHandler(st store.Store, pool JobSubmitter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req analyzeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		if req.FileRef == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "file_ref is required", nil)
			return
		}
		for _, t := range req.AnalysisTypes {
			if !validAnalysisTypes[t] {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
					"analysis_types must be among descriptive, correlation, outlier, distribution, all", nil)
				return
			}
		}
		if cc := req.CustomConfig; cc != nil {
			if err := validateCustomConfig(cc); err != nil {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
				return
			}
		}

		// Insights and visualizations default to on, matching the common case.
		opts := models.AnalysisOptions{
			AnalysisTypes:          req.AnalysisTypes,
			GenerateInsights:       req.GenerateInsights == nil || *req.GenerateInsights,
			GenerateVisualizations: req.GenerateVisualizations == nil || *req.GenerateVisualizations,
			CustomConfig:           req.CustomConfig,
		}

		job := &models.Job{
			ID:        uuid.New(),
			FileRef:   req.FileRef,
			Status:    models.JobStatusPending,
			Options:   opts,
			CreatedAt: time.Now().UTC(),
		}

		if err := st.CreateJob(r.Context(), job); err != nil {
			slog.Error("creating job failed", "error", err)
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create job", nil)
			return
		}

		if err := pool.Submit(pipeline.Submission{
			JobID:     job.ID,
			Reference: job.FileRef,
			Options:   opts,
		}); err != nil {
			// The job record must not outlive a rejected submission.
			_ = st.Delete(context.Background(), job.ID)
			if errors.Is(err, pipeline.ErrQueueFull) {
				response.Error(w, http.StatusServiceUnavailable, "QUEUE_FULL",
					"Too many queued jobs, retry later", nil)
				return
			}
			slog.Error("submitting job failed", "job_id", job.ID, "error", err)
			response.Error(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE",
				"Job intake is unavailable", nil)
			return
		}

		response.Accepted(w, job)
	}
}

func validateCustomConfig(cc *models.CustomConfig) error {
	switch cc.CorrelationMethod {
	case "", models.CorrelationPearson, models.CorrelationSpearman, models.CorrelationKendall:
	default:
		return errors.New("custom_config.correlation_method must be pearson, spearman or kendall")
	}
	switch cc.OutlierMethod {
	case "", models.OutlierIQR, models.OutlierZScore:
	default:
		return errors.New("custom_config.outlier_method must be iqr or zscore")
	}
	if cc.ZScoreThreshold < 0 {
		return errors.New("custom_config.zscore_threshold must be positive")
	}
	if cc.Precision < 0 || cc.Precision > 10 {
		return errors.New("custom_config.precision must be between 0 and 10")
	}
	return nil
}
