package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeDistributionSmallSample(t *testing.T) {
	a := New(testCfg())

	result := a.AnalyzeDistribution(numericColumn("tiny", []float64{1, 2, 3}))
	assert.Equal(t, "unknown", result.DistributionType)
	assert.False(t, result.IsNormal)
	assert.Nil(t, result.TestStatistic)
	assert.Nil(t, result.PValue)
}

func TestAnalyzeDistributionConstant(t *testing.T) {
	a := New(testCfg())

	values := make([]float64, 25)
	for i := range values {
		values[i] = 7
	}
	result := a.AnalyzeDistribution(numericColumn("flat", values))
	assert.Equal(t, "constant", result.DistributionType)
	assert.False(t, result.IsNormal)
}

func TestAnalyzeDistributionSymmetric(t *testing.T) {
	a := New(testCfg())

	// A symmetric bell-ish sample: mirrored values around 10.
	values := []float64{
		10, 9, 11, 8, 12, 9.5, 10.5, 9, 11, 10,
		7, 13, 8.5, 11.5, 9.8, 10.2, 9.2, 10.8, 8.8, 11.2,
		10, 9.4, 10.6, 9.6, 10.4,
	}
	result := a.AnalyzeDistribution(numericColumn("bell", values))

	assert.Equal(t, "symmetric", result.DistributionType)
	require.NotNil(t, result.TestStatistic)
	require.NotNil(t, result.PValue)
	assert.GreaterOrEqual(t, *result.PValue, 0.0)
	assert.LessOrEqual(t, *result.PValue, 1.0)
	assert.True(t, result.IsNormal, "a symmetric light-tailed sample should pass the omnibus test")
}

func TestAnalyzeDistributionRightSkewed(t *testing.T) {
	a := New(testCfg())

	values := []float64{
		1, 1, 1, 2, 2, 2, 2, 3, 3, 3,
		3, 4, 4, 5, 5, 6, 8, 12, 20, 45,
		70, 110, 160, 240, 400,
	}
	result := a.AnalyzeDistribution(numericColumn("income", values))

	assert.Equal(t, "right_skewed", result.DistributionType)
	require.NotNil(t, result.PValue)
	assert.False(t, result.IsNormal, "a heavily skewed sample should fail the omnibus test")
}

func TestAnalyzeDistributionLeftSkewed(t *testing.T) {
	a := New(testCfg())

	values := []float64{
		-400, -240, -160, -110, -70, -45, -20, -12, -8, -6,
		-5, -5, -4, -4, -3, -3, -3, -3, -2, -2,
		-2, -2, -1, -1, -1,
	}
	result := a.AnalyzeDistribution(numericColumn("loss", values))
	assert.Equal(t, "left_skewed", result.DistributionType)
}
