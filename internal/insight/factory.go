package insight

import (
	"fmt"

	"github.com/tablescope/tablescope/internal/config"
	"github.com/tablescope/tablescope/internal/insight/anthropic"
	"github.com/tablescope/tablescope/internal/insight/ollama"
	"github.com/tablescope/tablescope/internal/insight/openai"
	"github.com/tablescope/tablescope/pkg/models"
)

// NewProvider constructs the text generation provider named in config.
// Called once at server startup. Provider "none" yields a nil generator;
// the pipeline then skips the insight stage entirely.
func NewProvider(cfg config.LLMConfig) (models.TextGenerator, error) {
	switch cfg.Provider {
	case "ollama":
		return ollama.NewProvider(cfg.Ollama), nil
	case "openai":
		return openai.NewProvider(cfg.OpenAI), nil
	case "anthropic":
		return anthropic.NewProvider(cfg.Anthropic), nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q: must be one of ollama, openai, anthropic, none", cfg.Provider)
	}
}
