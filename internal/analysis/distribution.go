package analysis

import (
	"math"

	"github.com/tablescope/tablescope/internal/dataset"
	"github.com/tablescope/tablescope/pkg/models"
)

// minDistributionSamples is the smallest sample the omnibus normality test
// accepts; below it the kurtosis term is unstable.
const minDistributionSamples = 20

// AnalyzeDistribution runs D'Agostino's K-squared omnibus normality test on
// a numeric column and classifies the distribution shape from its skewness.
// The statistic and p-value are always reported so callers can apply their
// own significance level.
func (a *Analyzer) AnalyzeDistribution(col *dataset.Column) models.DistributionAnalysis {
	result := models.DistributionAnalysis{
		ColumnName:       col.Name,
		DistributionType: "unknown",
	}

	values, _ := col.Floats()
	if len(values) < minDistributionSamples {
		return result
	}

	m := mean(values)
	variance := populationVariance(values, m)
	if variance == 0 {
		result.DistributionType = "constant"
		return result
	}

	skew := skewness(values, m, variance)
	switch {
	case math.Abs(skew) < 0.5:
		result.DistributionType = "symmetric"
	case skew > 0:
		result.DistributionType = "right_skewed"
	default:
		result.DistributionType = "left_skewed"
	}

	stat, p := dagostinoK2(values, m, variance)
	stat = a.round(stat)
	p = a.round(p)
	result.TestStatistic = &stat
	result.PValue = &p
	result.IsNormal = p > a.cfg.SignificanceLevel
	return result
}

// dagostinoK2 combines the skewness and kurtosis z-scores into the K-squared
// omnibus statistic, chi-squared with two degrees of freedom under the null.
func dagostinoK2(values []float64, mean, variance float64) (stat, p float64) {
	z1 := skewnessZ(values, mean, variance)
	z2 := kurtosisZ(values, mean, variance)
	k2 := z1*z1 + z2*z2
	// Chi-squared survival function with 2 dof.
	return k2, math.Exp(-k2 / 2)
}

// skewnessZ is D'Agostino's transformed skewness statistic, approximately
// standard normal under normality.
func skewnessZ(values []float64, mean, variance float64) float64 {
	n := float64(len(values))
	g1 := skewness(values, mean, variance)

	y := g1 * math.Sqrt((n+1)*(n+3)/(6*(n-2)))
	beta2 := 3 * (n*n + 27*n - 70) * (n + 1) * (n + 3) /
		((n - 2) * (n + 5) * (n + 7) * (n + 9))
	w2 := -1 + math.Sqrt(2*(beta2-1))
	delta := 1 / math.Sqrt(0.5*math.Log(w2))
	alpha := math.Sqrt(2 / (w2 - 1))
	if alpha == 0 {
		return 0
	}
	ya := y / alpha
	return delta * math.Log(ya+math.Sqrt(ya*ya+1))
}

// kurtosisZ is the Anscombe-Glynn transformed kurtosis statistic.
func kurtosisZ(values []float64, mean, variance float64) float64 {
	n := float64(len(values))
	b2 := kurtosis(values, mean, variance) + 3 // non-excess

	e := 3 * (n - 1) / (n + 1)
	varB2 := 24 * n * (n - 2) * (n - 3) / ((n + 1) * (n + 1) * (n + 3) * (n + 5))
	x := (b2 - e) / math.Sqrt(varB2)

	sqrtBeta1 := 6 * (n*n - 5*n + 2) / ((n + 7) * (n + 9)) *
		math.Sqrt(6*(n+3)*(n+5)/(n*(n-2)*(n-3)))
	a := 6 + 8/sqrtBeta1*(2/sqrtBeta1+math.Sqrt(1+4/(sqrtBeta1*sqrtBeta1)))

	term := (1 - 2/a) / (1 + x*math.Sqrt(2/(a-4)))
	return (1 - 2/(9*a) - math.Cbrt(term)) / math.Sqrt(2/(9*a))
}
