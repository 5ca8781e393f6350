package insight

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablescope/tablescope/internal/config"
	"github.com/tablescope/tablescope/internal/insight/mock"
	"github.com/tablescope/tablescope/pkg/models"
)

func testLLMCfg() config.LLMConfig {
	return config.LLMConfig{
		Provider:    "none",
		Temperature: 0.3,
		MaxTokens:   2000,
		Timeout:     time.Second,
		MaxRetries:  3,
		RetryDelay:  2 * time.Second,
		TokenBudget: 6000,
	}
}

// newTestGenerator swaps the backoff sleep for a recording stub so tests
// never wait.
func newTestGenerator(provider models.TextGenerator, cfg config.LLMConfig) (*Generator, *[]time.Duration) {
	g := NewGenerator(provider, cfg)
	var slept []time.Duration
	g.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return g, &slept
}

func testSummary() *Summary {
	return &Summary{
		Schema: &models.DatasetSchema{RowCount: 100, ColumnCount: 3},
		ColumnStats: []models.ColumnStatistics{
			{ColumnName: "age", DataType: models.DataTypeNumeric,
				NumericStats: &models.NumericStatistics{Mean: 34.2, Median: 33}},
		},
		Quality: &models.DataQuality{OverallScore: 92, Assessment: "excellent"},
	}
}

func TestGenerateSuccess(t *testing.T) {
	provider := mock.NewMockGenerator()
	g, slept := newTestGenerator(provider, testLLMCfg())

	insights, err := g.Generate(context.Background(), testSummary())
	require.NoError(t, err)
	require.NotNil(t, insights)

	assert.NotEmpty(t, insights.ExecutiveSummary)
	assert.Equal(t, "mock", insights.Provider)
	assert.False(t, insights.GeneratedAt.IsZero())
	assert.Equal(t, 1, provider.Calls)
	assert.Empty(t, *slept, "no backoff on first-attempt success")
}

func TestGenerateRetriesTransientFailure(t *testing.T) {
	provider := mock.NewFlakyGenerator(2, errors.New("connection refused"))
	g, slept := newTestGenerator(provider, testLLMCfg())

	insights, err := g.Generate(context.Background(), testSummary())
	require.NoError(t, err)
	require.NotNil(t, insights)
	assert.Equal(t, 3, provider.Calls)

	require.Len(t, *slept, 2)
	// Exponential base delays with jitter: [2s, 2s*1.1) then [4s, 4s*1.1).
	assert.GreaterOrEqual(t, (*slept)[0], 2*time.Second)
	assert.GreaterOrEqual(t, (*slept)[1], 4*time.Second)
	assert.Less(t, (*slept)[1], 5*time.Second)
}

func TestGenerateExhaustsRetries(t *testing.T) {
	provider := mock.NewFailingGenerator(errors.New("boom"))
	g, _ := newTestGenerator(provider, testLLMCfg())

	insights, err := g.Generate(context.Background(), testSummary())
	assert.Nil(t, insights)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoInsights)
	assert.Equal(t, 3, provider.Calls)
}

func TestGenerateMalformedReplyIsRetried(t *testing.T) {
	provider := mock.NewMalformedGenerator()
	g, _ := newTestGenerator(provider, testLLMCfg())

	insights, err := g.Generate(context.Background(), testSummary())
	assert.Nil(t, insights)
	assert.ErrorIs(t, err, ErrNoInsights)
	assert.Equal(t, 3, provider.Calls, "unparseable replies consume attempts like failures")
}

func TestGenerateEmptyReplyIsRetried(t *testing.T) {
	provider := &mock.MockGenerator{Name_: "mock-empty"}
	g, _ := newTestGenerator(provider, testLLMCfg())

	_, err := g.Generate(context.Background(), testSummary())
	assert.ErrorIs(t, err, ErrNoInsights)
	assert.Equal(t, 3, provider.Calls)
}

func TestGenerateHonoursCallTimeout(t *testing.T) {
	cfg := testLLMCfg()
	cfg.Timeout = 20 * time.Millisecond
	cfg.MaxRetries = 1

	provider := mock.NewTimeoutGenerator()
	g, _ := newTestGenerator(provider, cfg)

	start := time.Now()
	_, err := g.Generate(context.Background(), testSummary())
	assert.ErrorIs(t, err, ErrNoInsights)
	assert.Less(t, time.Since(start), time.Second, "the per-call timeout must bound a hung provider")
}

func TestGenerateStopsOnCancelledContext(t *testing.T) {
	provider := mock.NewFailingGenerator(errors.New("boom"))
	g := NewGenerator(provider, testLLMCfg())
	g.sleep = sleepCtx // real sleep, interrupted by cancel

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Generate(ctx, testSummary())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, provider.Calls)
}

func TestGenerateZeroRetriesStillAttemptsOnce(t *testing.T) {
	cfg := testLLMCfg()
	cfg.MaxRetries = 0

	provider := mock.NewMockGenerator()
	g, _ := newTestGenerator(provider, cfg)

	insights, err := g.Generate(context.Background(), testSummary())
	require.NoError(t, err)
	assert.NotNil(t, insights)
	assert.Equal(t, 1, provider.Calls)
}
