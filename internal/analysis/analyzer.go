// Package analysis implements the statistical computation engine:
// descriptive statistics, correlation matrices, outlier detection and
// distribution analysis over the loaded dataset.
package analysis

import (
	"errors"
	"fmt"
	"math"

	"github.com/tablescope/tablescope/internal/config"
	"github.com/tablescope/tablescope/internal/dataset"
	"github.com/tablescope/tablescope/pkg/models"
)

// ErrComputation marks a numeric failure in a required statistic.
var ErrComputation = errors.New("statistical computation failed")

// Analyzer computes statistics under a fixed set of tunables. Construction
// is cheap; build one per job so request overrides stay scoped to it.
type Analyzer struct {
	cfg config.AnalysisConfig
}

func New(cfg config.AnalysisConfig) *Analyzer {
	return &Analyzer{cfg: cfg}
}

// AnalyzeColumn computes the statistics matching the column's inferred type.
// Numeric columns get NumericStats, everything else CategoricalStats.
func (a *Analyzer) AnalyzeColumn(col *dataset.Column) (models.ColumnStatistics, error) {
	stats := models.ColumnStatistics{
		ColumnName: col.Name,
		DataType:   col.Type,
	}

	if col.Type == models.DataTypeNumeric {
		numeric, err := a.numericStats(col)
		if err != nil {
			return stats, fmt.Errorf("column %s: %w", col.Name, err)
		}
		stats.NumericStats = numeric
		return stats, nil
	}

	stats.CategoricalStats = a.categoricalStats(col)
	return stats, nil
}

func (a *Analyzer) numericStats(col *dataset.Column) (*models.NumericStatistics, error) {
	values, _ := col.Floats()
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: no numeric values", ErrComputation)
	}

	mean := mean(values)
	variance := populationVariance(values, mean)
	q1 := percentile(values, 0.25)
	median := percentile(values, 0.5)
	q3 := percentile(values, 0.75)
	iqr := q3 - q1
	minV, maxV := minMax(values)
	skew := skewness(values, mean, variance)
	kurt := kurtosis(values, mean, variance)

	lower := q1 - a.cfg.IQRMultiplier*iqr
	upper := q3 + a.cfg.IQRMultiplier*iqr
	outliers := 0
	for _, v := range values {
		if v < lower || v > upper {
			outliers++
		}
	}

	stats := &models.NumericStatistics{
		Mean:         a.round(mean),
		Median:       a.round(median),
		StdDev:       a.round(math.Sqrt(variance)),
		Variance:     a.round(variance),
		Min:          a.round(minV),
		Max:          a.round(maxV),
		Q1:           a.round(q1),
		Q3:           a.round(q3),
		IQR:          a.round(iqr),
		Skewness:     a.round(skew),
		Kurtosis:     a.round(kurt),
		OutlierCount: outliers,
	}
	if m, ok := mode(values); ok {
		rounded := a.round(m)
		stats.Mode = &rounded
	}

	for _, v := range []float64{stats.Mean, stats.StdDev, stats.Variance} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: non-finite result", ErrComputation)
		}
	}
	return stats, nil
}

func (a *Analyzer) categoricalStats(col *dataset.Column) *models.CategoricalStatistics {
	values := col.Strings()

	counts := make(map[string]int)
	order := make([]string, 0)
	for _, v := range values {
		if counts[v] == 0 {
			order = append(order, v)
		}
		counts[v]++
	}

	stats := &models.CategoricalStatistics{
		UniqueCount:           len(counts),
		FrequencyDistribution: map[string]int{},
	}
	if len(counts) == 0 {
		return stats
	}

	// Most frequent value, ties broken by first occurrence in row order.
	best := order[0]
	for _, v := range order[1:] {
		if counts[v] > counts[best] {
			best = v
		}
	}
	freq := counts[best]
	stats.MostFrequent = &best
	stats.Frequency = &freq

	// Cap the distribution at the most frequent entries so wide columns do
	// not blow up the result blob.
	top := topByCount(order, counts, a.cfg.MaxFrequencyEntries)
	for _, v := range top {
		stats.FrequencyDistribution[v] = counts[v]
	}
	return stats
}

func (a *Analyzer) round(v float64) float64 {
	return roundTo(v, a.cfg.Precision)
}

func roundTo(v float64, precision int) float64 {
	scale := math.Pow(10, float64(precision))
	return math.Round(v*scale) / scale
}
