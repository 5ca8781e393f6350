package models

import (
	"time"

	"github.com/google/uuid"
)

// AnalysisType names one kind of analysis a job may run.
type AnalysisType string

const (
	AnalysisDescriptive  AnalysisType = "descriptive"
	AnalysisCorrelation  AnalysisType = "correlation"
	AnalysisOutlier      AnalysisType = "outlier"
	AnalysisDistribution AnalysisType = "distribution"
	AnalysisAll          AnalysisType = "all"
)

// CustomConfig carries per-request overrides for analysis tunables.
type CustomConfig struct {
	CorrelationMethod CorrelationMethod `json:"correlation_method,omitempty"`
	OutlierMethod     OutlierMethod     `json:"outlier_method,omitempty"`
	ZScoreThreshold   float64           `json:"zscore_threshold,omitempty"`
	Precision         int               `json:"precision,omitempty"`
}

// AnalysisOptions is the recognized options set for one analysis job.
type AnalysisOptions struct {
	AnalysisTypes          []AnalysisType `json:"analysis_types"`
	GenerateInsights       bool           `json:"generate_insights"`
	GenerateVisualizations bool           `json:"generate_visualizations"`
	CustomConfig           *CustomConfig  `json:"custom_config,omitempty"`
}

// Wants reports whether the options request the given analysis type,
// either explicitly or through "all". Empty analysis_types means all.
func (o AnalysisOptions) Wants(t AnalysisType) bool {
	if len(o.AnalysisTypes) == 0 {
		return true
	}
	for _, at := range o.AnalysisTypes {
		if at == AnalysisAll || at == t {
			return true
		}
	}
	return false
}

// Visualization is an opaque chart artifact produced by the viz engine.
type Visualization struct {
	ID          uuid.UUID `json:"id"`
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Path        string    `json:"path"`
	ColumnsUsed []string  `json:"columns_used"`
	Description string    `json:"description,omitempty"`
}

// AnalysisResult is the single immutable artifact produced per completed job.
// Visualizations and AIInsights are optional: their absence means the
// corresponding stage was skipped or degraded, never that the job failed.
type AnalysisResult struct {
	JobID                uuid.UUID              `json:"job_id"`
	FileRef              string                 `json:"file_ref"`
	Schema               DatasetSchema          `json:"dataset_schema"`
	ColumnStatistics     []ColumnStatistics     `json:"column_statistics"`
	CorrelationAnalysis  *CorrelationAnalysis   `json:"correlation_analysis,omitempty"`
	OutlierAnalysis      []OutlierAnalysis      `json:"outlier_analysis,omitempty"`
	DistributionAnalysis []DistributionAnalysis `json:"distribution_analysis,omitempty"`
	DataQuality          *DataQuality           `json:"data_quality,omitempty"`
	Visualizations       []Visualization        `json:"visualizations,omitempty"`
	AIInsights           *AIInsights            `json:"ai_insights,omitempty"`
	DurationSeconds      float64                `json:"analysis_duration_seconds"`
	CompletedAt          time.Time              `json:"completed_at"`
}
