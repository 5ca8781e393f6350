package analysis

import (
	"math"

	"github.com/tablescope/tablescope/internal/dataset"
	"github.com/tablescope/tablescope/pkg/models"
)

// DetectOutliers flags outlying values in a numeric column. Indices are
// original row positions, ascending and distinct, capped at the configured
// limit. zThreshold of 0 selects the configured default for the zscore
// method.
func (a *Analyzer) DetectOutliers(col *dataset.Column, method models.OutlierMethod, zThreshold float64) models.OutlierAnalysis {
	result := models.OutlierAnalysis{
		ColumnName:     col.Name,
		Method:         method,
		OutlierIndices: []int{},
	}

	values, rows := col.Floats()
	if len(values) == 0 {
		return result
	}

	var flagged []int
	switch method {
	case models.OutlierZScore:
		if zThreshold <= 0 {
			zThreshold = a.cfg.ZScoreThreshold
		}
		flagged = zscoreOutliers(values, rows, zThreshold)
	default:
		flagged = a.iqrOutliers(values, rows)
	}

	result.OutlierCount = len(flagged)
	result.OutlierPercentage = roundTo(float64(len(flagged))/float64(len(values))*100, 2)
	if len(flagged) > a.cfg.MaxOutlierIndices {
		flagged = flagged[:a.cfg.MaxOutlierIndices]
	}
	result.OutlierIndices = flagged
	return result
}

// IQRBounds returns the outlier fences for a set of values.
func (a *Analyzer) IQRBounds(values []float64) (lower, upper float64) {
	q1 := percentile(values, 0.25)
	q3 := percentile(values, 0.75)
	iqr := q3 - q1
	return q1 - a.cfg.IQRMultiplier*iqr, q3 + a.cfg.IQRMultiplier*iqr
}

func (a *Analyzer) iqrOutliers(values []float64, rows []int) []int {
	lower, upper := a.IQRBounds(values)
	var flagged []int
	for i, v := range values {
		if v < lower || v > upper {
			flagged = append(flagged, rows[i])
		}
	}
	return flagged
}

func zscoreOutliers(values []float64, rows []int, threshold float64) []int {
	m := mean(values)
	sd := math.Sqrt(populationVariance(values, m))
	if sd == 0 {
		return nil
	}
	var flagged []int
	for i, v := range values {
		if math.Abs((v-m)/sd) > threshold {
			flagged = append(flagged, rows[i])
		}
	}
	return flagged
}
