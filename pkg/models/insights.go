package models

import "time"

// InsightSeverity grades how urgent an insight is.
type InsightSeverity string

const (
	SeverityInfo     InsightSeverity = "info"
	SeverityWarning  InsightSeverity = "warning"
	SeverityCritical InsightSeverity = "critical"
)

// InsightItem is a single categorized finding about the dataset.
type InsightItem struct {
	Category        string          `json:"category"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	Severity        InsightSeverity `json:"severity"`
	AffectedColumns []string        `json:"affected_columns"`
}

// AIInsights is the structured natural-language report generated from the
// aggregate statistics. It never contains raw row data.
type AIInsights struct {
	ExecutiveSummary      string        `json:"executive_summary"`
	KeyFindings           []string      `json:"key_findings"`
	DataQualityAssessment string        `json:"data_quality_assessment"`
	Insights              []InsightItem `json:"insights"`
	Recommendations       []string      `json:"recommendations"`
	Provider              string        `json:"provider,omitempty"`
	GeneratedAt           time.Time     `json:"generated_at"`
}
