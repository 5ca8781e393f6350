package analysis

import (
	"math"
	"sort"

	"github.com/tablescope/tablescope/internal/dataset"
	"github.com/tablescope/tablescope/pkg/models"
)

// Correlations computes the pairwise correlation matrix over the numeric
// columns. Only rows where both columns have values enter each pair. Returns
// nil with fewer than two numeric columns.
func (a *Analyzer) Correlations(ds *dataset.Dataset, method models.CorrelationMethod) *models.CorrelationAnalysis {
	numeric := ds.NumericColumns()
	if len(numeric) > a.cfg.MaxAnalyzedColumns {
		numeric = numeric[:a.cfg.MaxAnalyzedColumns]
	}
	if len(numeric) < 2 {
		return nil
	}

	matrix := make(map[string]map[string]float64, len(numeric))
	for _, col := range numeric {
		matrix[col.Name] = make(map[string]float64, len(numeric))
		matrix[col.Name][col.Name] = 1.0
	}

	var strong []models.StrongCorrelation
	for i := 0; i < len(numeric); i++ {
		for j := i + 1; j < len(numeric); j++ {
			x, y := pairedValues(numeric[i], numeric[j])
			r := correlate(x, y, method)
			rounded := a.round(r)
			matrix[numeric[i].Name][numeric[j].Name] = rounded
			matrix[numeric[j].Name][numeric[i].Name] = rounded

			if abs := math.Abs(r); abs >= a.cfg.ModerateThreshold {
				strength := "moderate"
				if abs >= a.cfg.StrongThreshold {
					strength = "strong"
				}
				direction := "positive"
				if r < 0 {
					direction = "negative"
				}
				strong = append(strong, models.StrongCorrelation{
					Column1:     numeric[i].Name,
					Column2:     numeric[j].Name,
					Coefficient: rounded,
					Strength:    strength,
					Direction:   direction,
				})
			}
		}
	}

	sort.SliceStable(strong, func(i, j int) bool {
		return math.Abs(strong[i].Coefficient) > math.Abs(strong[j].Coefficient)
	})

	return &models.CorrelationAnalysis{
		Method:             method,
		CorrelationMatrix:  matrix,
		StrongCorrelations: strong,
	}
}

// pairedValues aligns two columns on the rows where both are present.
func pairedValues(a, b *dataset.Column) ([]float64, []float64) {
	av, arows := a.Floats()
	bv, brows := b.Floats()

	bByRow := make(map[int]float64, len(bv))
	for i, row := range brows {
		bByRow[row] = bv[i]
	}

	var x, y []float64
	for i, row := range arows {
		if v, ok := bByRow[row]; ok {
			x = append(x, av[i])
			y = append(y, v)
		}
	}
	return x, y
}

func correlate(x, y []float64, method models.CorrelationMethod) float64 {
	if len(x) < 2 {
		return 0
	}
	switch method {
	case models.CorrelationSpearman:
		return pearson(ranks(x), ranks(y))
	case models.CorrelationKendall:
		return kendallTauB(x, y)
	default:
		return pearson(x, y)
	}
}

func pearson(x, y []float64) float64 {
	mx, my := mean(x), mean(y)
	var sxy, sxx, syy float64
	for i := range x {
		dx := x[i] - mx
		dy := y[i] - my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return 0
	}
	return sxy / math.Sqrt(sxx*syy)
}

// ranks assigns average ranks (1-based), with ties sharing their mean rank.
func ranks(values []float64) []float64 {
	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return values[idx[a]] < values[idx[b]]
	})

	out := make([]float64, len(values))
	for i := 0; i < len(idx); {
		j := i
		for j+1 < len(idx) && values[idx[j+1]] == values[idx[i]] {
			j++
		}
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			out[idx[k]] = avg
		}
		i = j + 1
	}
	return out
}

// kendallTauB computes Kendall's tau with the tie correction (tau-b).
func kendallTauB(x, y []float64) float64 {
	n := len(x)
	var concordant, discordant float64
	tiesX := make(map[float64]float64)
	tiesY := make(map[float64]float64)

	for i := 0; i < n; i++ {
		tiesX[x[i]]++
		tiesY[y[i]]++
		for j := i + 1; j < n; j++ {
			dx := x[i] - x[j]
			dy := y[i] - y[j]
			prod := dx * dy
			if prod > 0 {
				concordant++
			} else if prod < 0 {
				discordant++
			}
		}
	}

	n0 := float64(n*(n-1)) / 2
	var n1, n2 float64
	for _, t := range tiesX {
		n1 += t * (t - 1) / 2
	}
	for _, t := range tiesY {
		n2 += t * (t - 1) / 2
	}

	denom := math.Sqrt((n0 - n1) * (n0 - n2))
	if denom == 0 {
		return 0
	}
	return (concordant - discordant) / denom
}
