package insight

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/tablescope/tablescope/internal/config"
	"github.com/tablescope/tablescope/pkg/models"
)

// Generator produces structured AI insights from aggregate dataset
// statistics. It retries transient provider failures with exponential
// backoff and gives up with ErrNoInsights once the retry budget is spent.
type Generator struct {
	provider models.TextGenerator
	cfg      config.LLMConfig

	// sleep is swapped out in tests to avoid real backoff delays.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewGenerator creates a Generator backed by the given provider.
func NewGenerator(provider models.TextGenerator, cfg config.LLMConfig) *Generator {
	return &Generator{
		provider: provider,
		cfg:      cfg,
		sleep:    sleepCtx,
	}
}

// Generate builds a bounded prompt from the summary, calls the provider,
// and parses the reply into models.AIInsights. A malformed reply counts as
// a failed attempt and is retried like any provider error.
func (g *Generator) Generate(ctx context.Context, sum *Summary) (*models.AIInsights, error) {
	prompt := BuildPrompt(sum, g.cfg.TokenBudget)

	attempts := g.cfg.MaxRetries
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		raw, err := g.callProvider(ctx, prompt)
		if err == nil {
			insights, perr := parseInsights(raw)
			if perr == nil {
				insights.Provider = g.provider.Name()
				insights.GeneratedAt = time.Now().UTC()
				return insights, nil
			}
			err = perr
		}

		lastErr = err
		slog.Warn("insight generation attempt failed",
			"provider", g.provider.Name(),
			"attempt", attempt,
			"max_attempts", attempts,
			"error", err)

		if attempt < attempts {
			if serr := g.sleep(ctx, g.backoff(attempt)); serr != nil {
				return nil, serr
			}
		}
	}

	return nil, fmt.Errorf("%w: %v", ErrNoInsights, lastErr)
}

func (g *Generator) callProvider(ctx context.Context, prompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	raw, err := g.provider.Generate(callCtx, prompt, models.GenerationConfig{
		Temperature: g.cfg.Temperature,
		MaxTokens:   g.cfg.MaxTokens,
		Timeout:     g.cfg.Timeout,
	})
	if err != nil {
		return "", err
	}
	if raw == "" {
		return "", ErrEmptyResponse
	}
	return raw, nil
}

// backoff doubles the base delay per attempt and adds up to 10% jitter so
// concurrent workers don't hammer the provider in lockstep.
func (g *Generator) backoff(attempt int) time.Duration {
	delay := g.cfg.RetryDelay << (attempt - 1)
	jitter := time.Duration(rand.Int63n(int64(delay)/10 + 1))
	return delay + jitter
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
