package insight

import (
	"encoding/json"
	"strings"

	"github.com/tablescope/tablescope/pkg/models"
)

// Summary is the aggregate input to insight generation. It carries only
// computed statistics, never raw rows, so nothing sensitive reaches the
// provider and the prompt stays bounded regardless of dataset size.
type Summary struct {
	Schema        *models.DatasetSchema
	ColumnStats   []models.ColumnStatistics
	Correlation   *models.CorrelationAnalysis
	Outliers      []models.OutlierAnalysis
	Distributions []models.DistributionAnalysis
	Quality       *models.DataQuality
}

const (
	maxPromptColumns      = 10
	maxPromptCorrelations = 10
	maxPromptOutliers     = 10
	minPromptColumns      = 2
)

// promptContext is the condensed JSON block embedded in the prompt.
type promptContext struct {
	Dataset       datasetContext        `json:"dataset"`
	Columns       []columnContext       `json:"columns"`
	Correlations  []correlationPair     `json:"strong_correlations,omitempty"`
	Outliers      []outlierContext      `json:"outliers,omitempty"`
	Distributions []distributionContext `json:"distributions,omitempty"`
	Quality       *qualityContext       `json:"data_quality,omitempty"`
}

type datasetContext struct {
	Rows         int     `json:"rows"`
	Columns      int     `json:"columns"`
	TotalMissing int     `json:"total_missing"`
	MemoryMB     float64 `json:"memory_mb"`
}

type columnContext struct {
	Name         string   `json:"name"`
	Type         string   `json:"type"`
	Mean         *float64 `json:"mean,omitempty"`
	Median       *float64 `json:"median,omitempty"`
	StdDev       *float64 `json:"std_dev,omitempty"`
	Min          *float64 `json:"min,omitempty"`
	Max          *float64 `json:"max,omitempty"`
	Skewness     *float64 `json:"skewness,omitempty"`
	OutlierCount *int     `json:"outlier_count,omitempty"`
	UniqueCount  *int     `json:"unique_count,omitempty"`
	MostFrequent *string  `json:"most_frequent,omitempty"`
}

type correlationPair struct {
	Column1     string  `json:"column1"`
	Column2     string  `json:"column2"`
	Coefficient float64 `json:"coefficient"`
	Direction   string  `json:"direction"`
}

type outlierContext struct {
	Column     string  `json:"column"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

type distributionContext struct {
	Column   string `json:"column"`
	Type     string `json:"type"`
	IsNormal bool   `json:"is_normal"`
}

type qualityContext struct {
	Score         float64 `json:"overall_score"`
	MissingPct    float64 `json:"missing_percentage"`
	DuplicateRows int     `json:"duplicate_rows"`
	Assessment    string  `json:"assessment"`
}

// BuildPrompt renders the analysis summary into the instruction prompt,
// shrinking the per-column detail until the estimate fits tokenBudget.
func BuildPrompt(sum *Summary, tokenBudget int) string {
	maxCols := maxPromptColumns
	prompt := renderPrompt(sum, maxCols)
	for tokenBudget > 0 && EstimateTokens(prompt) > tokenBudget && maxCols > minPromptColumns {
		maxCols /= 2
		prompt = renderPrompt(sum, maxCols)
	}
	return prompt
}

// EstimateTokens approximates the token count of a string. Roughly four
// characters per token holds for English prose and JSON alike.
func EstimateTokens(s string) int {
	return len(s) / 4
}

func renderPrompt(sum *Summary, maxCols int) string {
	pc := condense(sum, maxCols)
	contextJSON, err := json.MarshalIndent(pc, "", "  ")
	if err != nil {
		contextJSON = []byte("{}")
	}

	var b strings.Builder
	b.WriteString("You are a senior data analyst. Below is a statistical summary of a tabular dataset.\n")
	b.WriteString("Analyze it and respond with insights.\n\n")
	b.WriteString("Statistical summary:\n")
	b.Write(contextJSON)
	b.WriteString("\n\nRespond with ONLY a JSON object, no surrounding text, in exactly this shape:\n")
	b.WriteString(`{
  "executive_summary": "2-3 sentence overview of the dataset",
  "key_findings": ["finding 1", "finding 2"],
  "data_quality_assessment": "assessment of completeness and reliability",
  "insights": [
    {
      "category": "distribution|correlation|quality|outlier|general",
      "title": "short title",
      "description": "what was found and why it matters",
      "severity": "info|warning|critical",
      "affected_columns": ["column_name"]
    }
  ],
  "recommendations": ["actionable recommendation 1"]
}`)
	b.WriteString("\n")
	return b.String()
}

func condense(sum *Summary, maxCols int) promptContext {
	var pc promptContext

	if sum.Schema != nil {
		pc.Dataset = datasetContext{
			Rows:         sum.Schema.RowCount,
			Columns:      sum.Schema.ColumnCount,
			TotalMissing: sum.Schema.TotalMissing,
			MemoryMB:     sum.Schema.MemoryUsageMB,
		}
	}

	for _, cs := range sum.ColumnStats {
		if len(pc.Columns) >= maxCols {
			break
		}
		cc := columnContext{Name: cs.ColumnName, Type: string(cs.DataType)}
		if ns := cs.NumericStats; ns != nil {
			cc.Mean = ptr(ns.Mean)
			cc.Median = ptr(ns.Median)
			cc.StdDev = ptr(ns.StdDev)
			cc.Min = ptr(ns.Min)
			cc.Max = ptr(ns.Max)
			cc.Skewness = ptr(ns.Skewness)
			cc.OutlierCount = ptr(ns.OutlierCount)
		}
		if cat := cs.CategoricalStats; cat != nil {
			cc.UniqueCount = ptr(cat.UniqueCount)
			cc.MostFrequent = cat.MostFrequent
		}
		pc.Columns = append(pc.Columns, cc)
	}

	if sum.Correlation != nil {
		for i, sc := range sum.Correlation.StrongCorrelations {
			if i >= maxPromptCorrelations {
				break
			}
			pc.Correlations = append(pc.Correlations, correlationPair{
				Column1:     sc.Column1,
				Column2:     sc.Column2,
				Coefficient: sc.Coefficient,
				Direction:   sc.Direction,
			})
		}
	}

	for _, oa := range sum.Outliers {
		if len(pc.Outliers) >= maxPromptOutliers {
			break
		}
		if oa.OutlierCount == 0 {
			continue
		}
		pc.Outliers = append(pc.Outliers, outlierContext{
			Column:     oa.ColumnName,
			Count:      oa.OutlierCount,
			Percentage: oa.OutlierPercentage,
		})
	}

	for _, da := range sum.Distributions {
		if len(pc.Distributions) >= maxCols {
			break
		}
		pc.Distributions = append(pc.Distributions, distributionContext{
			Column:   da.ColumnName,
			Type:     da.DistributionType,
			IsNormal: da.IsNormal,
		})
	}

	if sum.Quality != nil {
		pc.Quality = &qualityContext{
			Score:         sum.Quality.OverallScore,
			MissingPct:    sum.Quality.MissingPercentage,
			DuplicateRows: sum.Quality.DuplicateRows,
			Assessment:    sum.Quality.Assessment,
		}
	}

	return pc
}

func ptr[T any](v T) *T { return &v }

