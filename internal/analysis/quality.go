package analysis

import (
	"strings"

	"github.com/tablescope/tablescope/internal/dataset"
	"github.com/tablescope/tablescope/pkg/models"
)

// DataQuality scores the dataset 0-100: missing cells cost up to 30 points,
// duplicate rows up to 20, constant numeric columns 5 each up to 20.
func (a *Analyzer) DataQuality(ds *dataset.Dataset) models.DataQuality {
	totalCells := ds.RowCount * len(ds.Columns)
	missing := 0
	for i := range ds.Columns {
		for _, m := range ds.Columns[i].Missing {
			if m {
				missing++
			}
		}
	}
	missingPct := 0.0
	if totalCells > 0 {
		missingPct = float64(missing) / float64(totalCells) * 100
	}

	duplicates := duplicateRows(ds)
	duplicatePct := 0.0
	if ds.RowCount > 0 {
		duplicatePct = float64(duplicates) / float64(ds.RowCount) * 100
	}

	constant := 0
	for _, col := range ds.NumericColumns() {
		values, _ := col.Floats()
		if len(values) > 0 {
			m := mean(values)
			if populationVariance(values, m) == 0 {
				constant++
			}
		}
	}

	score := 100.0
	score -= min(missingPct, 30)
	score -= min(duplicatePct, 20)
	score -= min(float64(constant)*5, 20)
	if score < 0 {
		score = 0
	}

	return models.DataQuality{
		OverallScore:        roundTo(score, 2),
		MissingPercentage:   roundTo(missingPct, 2),
		DuplicateRows:       duplicates,
		DuplicatePercentage: roundTo(duplicatePct, 2),
		ConstantColumns:     constant,
		Assessment:          qualityAssessment(score),
	}
}

func duplicateRows(ds *dataset.Dataset) int {
	seen := make(map[string]struct{}, ds.RowCount)
	duplicates := 0
	var sb strings.Builder
	for row := 0; row < ds.RowCount; row++ {
		sb.Reset()
		for i := range ds.Columns {
			sb.WriteString(ds.Columns[i].Raw[row])
			sb.WriteByte('\x1f')
		}
		key := sb.String()
		if _, ok := seen[key]; ok {
			duplicates++
		} else {
			seen[key] = struct{}{}
		}
	}
	return duplicates
}

func qualityAssessment(score float64) string {
	switch {
	case score >= 90:
		return "excellent"
	case score >= 75:
		return "good"
	case score >= 60:
		return "fair"
	case score >= 40:
		return "poor"
	default:
		return "very_poor"
	}
}
