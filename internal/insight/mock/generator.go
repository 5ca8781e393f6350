package mock

import (
	"context"

	"github.com/tablescope/tablescope/pkg/models"
)

// MockGenerator satisfies models.TextGenerator for testing.
type MockGenerator struct {
	Name_        string
	GenerateFunc func(ctx context.Context, prompt string, cfg models.GenerationConfig) (string, error)

	// Calls counts Generate invocations, useful for retry assertions.
	Calls int
}

func (m *MockGenerator) Name() string { return m.Name_ }

func (m *MockGenerator) Generate(ctx context.Context, prompt string, cfg models.GenerationConfig) (string, error) {
	m.Calls++
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt, cfg)
	}
	return "", nil
}

// validInsightsJSON is a minimal reply matching the insight schema.
const validInsightsJSON = `{
  "executive_summary": "The dataset is small but well formed with no major quality issues.",
  "key_findings": ["Numeric columns show low variance", "No significant missing data"],
  "data_quality_assessment": "Data quality is good overall.",
  "insights": [
    {
      "category": "quality",
      "title": "Complete dataset",
      "description": "All columns are fully populated.",
      "severity": "info",
      "affected_columns": []
    }
  ],
  "recommendations": ["Collect more rows before modeling"]
}`

// NewMockGenerator returns a generator that replies with valid insight JSON.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{
		Name_: "mock",
		GenerateFunc: func(_ context.Context, _ string, _ models.GenerationConfig) (string, error) {
			return validInsightsJSON, nil
		},
	}
}

// NewFailingGenerator returns a generator that always fails with err.
func NewFailingGenerator(err error) *MockGenerator {
	return &MockGenerator{
		Name_: "mock-failing",
		GenerateFunc: func(_ context.Context, _ string, _ models.GenerationConfig) (string, error) {
			return "", err
		},
	}
}

// NewFlakyGenerator fails the first n calls with err, then succeeds.
func NewFlakyGenerator(n int, err error) *MockGenerator {
	m := &MockGenerator{Name_: "mock-flaky"}
	m.GenerateFunc = func(_ context.Context, _ string, _ models.GenerationConfig) (string, error) {
		if m.Calls <= n {
			return "", err
		}
		return validInsightsJSON, nil
	}
	return m
}

// NewMalformedGenerator returns a generator whose replies never parse.
func NewMalformedGenerator() *MockGenerator {
	return &MockGenerator{
		Name_: "mock-malformed",
		GenerateFunc: func(_ context.Context, _ string, _ models.GenerationConfig) (string, error) {
			return "Sure! Here are some thoughts about your data, in plain prose.", nil
		},
	}
}

// NewTimeoutGenerator returns a generator that blocks until the context is
// cancelled.
func NewTimeoutGenerator() *MockGenerator {
	return &MockGenerator{
		Name_: "mock-timeout",
		GenerateFunc: func(ctx context.Context, _ string, _ models.GenerationConfig) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		},
	}
}

// Compile-time check that MockGenerator implements TextGenerator.
var _ models.TextGenerator = (*MockGenerator)(nil)
