package analysis

import (
	"math"
	"sort"
)

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// populationVariance divides by n, not n-1.
func populationVariance(values []float64, mean float64) float64 {
	sum := 0.0
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return sum / float64(len(values))
}

func minMax(values []float64) (float64, float64) {
	minV, maxV := values[0], values[0]
	for _, v := range values[1:] {
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}
	return minV, maxV
}

// percentile computes the p-th quantile (p in [0,1]) by linear interpolation
// between order statistics at rank p*(n-1), the numpy/pandas default.
func percentile(values []float64, p float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := p * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// mode returns the most frequent value, ties broken by first occurrence in
// row order. ok is false only for empty input.
func mode(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	counts := make(map[float64]int, len(values))
	first := make(map[float64]int, len(values))
	for i, v := range values {
		if counts[v] == 0 {
			first[v] = i
		}
		counts[v]++
	}
	best := values[0]
	for v, c := range counts {
		if c > counts[best] || (c == counts[best] && first[v] < first[best]) {
			best = v
		}
	}
	return best, true
}

// skewness is the Fisher-Pearson standardized third moment, m3 / m2^1.5.
func skewness(values []float64, mean, variance float64) float64 {
	if variance == 0 {
		return 0
	}
	n := float64(len(values))
	m3 := 0.0
	for _, v := range values {
		d := v - mean
		m3 += d * d * d
	}
	m3 /= n
	return m3 / math.Pow(variance, 1.5)
}

// kurtosis is the standardized fourth moment under the excess convention:
// a normal distribution scores 0.
func kurtosis(values []float64, mean, variance float64) float64 {
	if variance == 0 {
		return 0
	}
	n := float64(len(values))
	m4 := 0.0
	for _, v := range values {
		d := v - mean
		m4 += d * d * d * d
	}
	m4 /= n
	return m4/(variance*variance) - 3
}

// topByCount returns up to limit values ordered by count descending, ties by
// first occurrence.
func topByCount(order []string, counts map[string]int, limit int) []string {
	sorted := make([]string, len(order))
	copy(sorted, order)
	firstSeen := make(map[string]int, len(order))
	for i, v := range order {
		firstSeen[v] = i
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if counts[sorted[i]] != counts[sorted[j]] {
			return counts[sorted[i]] > counts[sorted[j]]
		}
		return firstSeen[sorted[i]] < firstSeen[sorted[j]]
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}
