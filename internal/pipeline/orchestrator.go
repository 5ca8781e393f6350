// Package pipeline drives an analysis job from claim to terminal state:
// load, statistics, optional visualizations and insights, persistence. The
// orchestrator owns all status transitions after the claim.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tablescope/tablescope/internal/analysis"
	"github.com/tablescope/tablescope/internal/config"
	"github.com/tablescope/tablescope/internal/dataset"
	"github.com/tablescope/tablescope/internal/insight"
	"github.com/tablescope/tablescope/internal/store"
	"github.com/tablescope/tablescope/internal/viz"
	"github.com/tablescope/tablescope/pkg/models"
)

// Progress checkpoints reported after each stage.
const (
	progressLoaded     = 10
	progressStatistics = 50
	progressVisuals    = 70
	progressInsights   = 90
	progressDone       = 100
)

// Orchestrator runs the analysis stages for one claimed job.
type Orchestrator struct {
	store     store.Store
	loader    dataset.Loader
	vizEngine viz.Engine
	generator *insight.Generator
	analysis  config.AnalysisConfig
	resultTTL time.Duration
}

// NewOrchestrator wires the pipeline collaborators. generator may be nil
// (provider "none"); the insight stage is then skipped.
func NewOrchestrator(st store.Store, loader dataset.Loader, vizEngine viz.Engine, generator *insight.Generator, cfg *config.Config) *Orchestrator {
	return &Orchestrator{
		store:     st,
		loader:    loader,
		vizEngine: vizEngine,
		generator: generator,
		analysis:  cfg.Analysis,
		resultTTL: cfg.Retention.ResultTTL,
	}
}

// Run executes the pipeline for a job that has already been claimed. It
// always leaves the job in a terminal state: completed on success, failed
// on a required-stage error or panic, cancelled when a cooperative cancel
// is observed between stages. The returned error reflects why the job did
// not complete; callers use it only for logging.
func (o *Orchestrator) Run(ctx context.Context, jobID uuid.UUID, reference string, opts models.AnalysisOptions) (result *models.AnalysisResult, err error) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic in pipeline run", "job_id", jobID, "panic", r)
			o.markFailed(jobID, fmt.Sprintf("panic: %v", r))
			result, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()

	// Stage 1: load and validate.
	ds, schema, err := o.loader.Load(ctx, reference)
	if err != nil {
		serr := stageErr(StageValidation, err)
		o.markFailed(jobID, serr.Error())
		return nil, serr
	}
	o.setProgress(ctx, jobID, progressLoaded)
	if err := o.checkCancel(ctx, jobID); err != nil {
		return nil, err
	}

	// Stage 2: statistics.
	result = &models.AnalysisResult{
		JobID:   jobID,
		FileRef: reference,
		Schema:  *schema,
	}
	if err := o.runStatistics(ds, opts, result); err != nil {
		serr := stageErr(StageStatistics, err)
		o.markFailed(jobID, serr.Error())
		return nil, serr
	}
	o.setProgress(ctx, jobID, progressStatistics)
	if err := o.checkCancel(ctx, jobID); err != nil {
		return nil, err
	}

	// Stage 3: visualizations. Optional: a failure degrades, never fails.
	if opts.GenerateVisualizations && o.vizEngine != nil {
		visuals, verr := o.vizEngine.Render(ctx, viz.Request{
			JobID:       jobID,
			Dataset:     ds,
			Schema:      schema,
			Correlation: result.CorrelationAnalysis,
		})
		if verr != nil {
			slog.Warn("visualization stage degraded", "job_id", jobID, "error", verr)
		} else {
			result.Visualizations = visuals
		}
	}
	o.setProgress(ctx, jobID, progressVisuals)
	if err := o.checkCancel(ctx, jobID); err != nil {
		return nil, err
	}

	// Stage 4: insights. Optional like visualizations.
	if opts.GenerateInsights && o.generator != nil {
		insights, ierr := o.generator.Generate(ctx, &insight.Summary{
			Schema:        schema,
			ColumnStats:   result.ColumnStatistics,
			Correlation:   result.CorrelationAnalysis,
			Outliers:      result.OutlierAnalysis,
			Distributions: result.DistributionAnalysis,
			Quality:       result.DataQuality,
		})
		switch {
		case ierr == nil:
			result.AIInsights = insights
		case errors.Is(ierr, context.Canceled):
			// The worker context died (shutdown), not a job-level cancel.
			// The job must still reach a terminal state.
			o.markFailed(jobID, StageInsights+": interrupted by shutdown")
			return nil, ierr
		default:
			slog.Warn("insight stage degraded", "job_id", jobID, "error", ierr)
		}
	}
	o.setProgress(ctx, jobID, progressInsights)
	if err := o.checkCancel(ctx, jobID); err != nil {
		return nil, err
	}

	// Stage 5: persist, then flip to completed. Order matters: a crash
	// between the two leaves the job processing, not falsely completed.
	result.DurationSeconds = time.Since(start).Seconds()
	result.CompletedAt = time.Now().UTC()

	if err := o.store.PutResult(ctx, jobID, result, o.resultTTL); err != nil {
		serr := stageErr(StagePersistence, err)
		o.markFailed(jobID, serr.Error())
		return nil, serr
	}
	if err := o.store.UpdateStatus(ctx, jobID, models.JobStatusCompleted,
		store.WithResultRef(store.ResultKey(jobID))); err != nil {
		serr := stageErr(StagePersistence, err)
		o.markFailed(jobID, serr.Error())
		return nil, serr
	}
	o.setProgress(ctx, jobID, progressDone)

	slog.Info("analysis job completed",
		"job_id", jobID,
		"rows", schema.RowCount,
		"columns", schema.ColumnCount,
		"duration_seconds", result.DurationSeconds)
	return result, nil
}

// runStatistics fills the statistical sections of the result, honoring the
// requested analysis types and per-job overrides.
func (o *Orchestrator) runStatistics(ds *dataset.Dataset, opts models.AnalysisOptions, result *models.AnalysisResult) error {
	cfg, corrMethod, outMethod := o.effectiveConfig(opts.CustomConfig)
	analyzer := analysis.New(cfg)

	if opts.Wants(models.AnalysisDescriptive) {
		for i := range ds.Columns {
			stats, err := analyzer.AnalyzeColumn(&ds.Columns[i])
			if err != nil {
				return fmt.Errorf("column %q: %w", ds.Columns[i].Name, err)
			}
			result.ColumnStatistics = append(result.ColumnStatistics, stats)
		}
	}

	if opts.Wants(models.AnalysisCorrelation) {
		result.CorrelationAnalysis = analyzer.Correlations(ds, corrMethod)
	}

	if opts.Wants(models.AnalysisOutlier) {
		for _, col := range ds.NumericColumns() {
			result.OutlierAnalysis = append(result.OutlierAnalysis,
				analyzer.DetectOutliers(col, outMethod, cfg.ZScoreThreshold))
		}
	}

	if opts.Wants(models.AnalysisDistribution) {
		for _, col := range ds.NumericColumns() {
			result.DistributionAnalysis = append(result.DistributionAnalysis,
				analyzer.AnalyzeDistribution(col))
		}
	}

	quality := analyzer.DataQuality(ds)
	result.DataQuality = &quality
	return nil
}

// effectiveConfig applies per-job custom_config overrides on top of the
// server defaults.
func (o *Orchestrator) effectiveConfig(cc *models.CustomConfig) (config.AnalysisConfig, models.CorrelationMethod, models.OutlierMethod) {
	cfg := o.analysis
	corrMethod := models.CorrelationPearson
	outMethod := models.OutlierIQR
	if cc == nil {
		return cfg, corrMethod, outMethod
	}
	if cc.CorrelationMethod != "" {
		corrMethod = cc.CorrelationMethod
	}
	if cc.OutlierMethod != "" {
		outMethod = cc.OutlierMethod
	}
	if cc.ZScoreThreshold > 0 {
		cfg.ZScoreThreshold = cc.ZScoreThreshold
	}
	if cc.Precision > 0 {
		cfg.Precision = cc.Precision
	}
	return cfg, corrMethod, outMethod
}

// checkCancel honors a cooperative cancellation between stages. The store
// transition to cancelled happens here; callers just propagate ErrCancelled.
func (o *Orchestrator) checkCancel(ctx context.Context, jobID uuid.UUID) error {
	requested, err := o.store.CancelRequested(ctx, jobID)
	if err != nil {
		slog.Warn("cancel check failed", "job_id", jobID, "error", err)
		return nil
	}
	if !requested {
		return nil
	}
	if err := o.store.UpdateStatus(ctx, jobID, models.JobStatusCancelled); err != nil {
		slog.Warn("marking job cancelled failed", "job_id", jobID, "error", err)
	}
	slog.Info("analysis job cancelled", "job_id", jobID)
	return ErrCancelled
}

func (o *Orchestrator) setProgress(ctx context.Context, jobID uuid.UUID, progress int) {
	if err := o.store.SetProgress(ctx, jobID, progress); err != nil {
		slog.Warn("progress update failed", "job_id", jobID, "progress", progress, "error", err)
	}
}

// markFailed records a terminal failure. Uses a background context so a
// cancelled request context cannot block the bookkeeping.
func (o *Orchestrator) markFailed(jobID uuid.UUID, msg string) {
	ctx := context.Background()
	if err := o.store.UpdateStatus(ctx, jobID, models.JobStatusFailed, store.WithErrorMessage(msg)); err != nil {
		slog.Error("marking job failed failed", "job_id", jobID, "error", err)
	}
}
