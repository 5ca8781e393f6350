package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/tablescope/tablescope/internal/config"
	"github.com/tablescope/tablescope/pkg/models"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Provider implements models.TextGenerator using the OpenAI chat API.
type Provider struct {
	cfg        config.OpenAIConfig
	baseURL    string
	httpClient *http.Client
}

func NewProvider(cfg config.OpenAIConfig) *Provider {
	return &Provider{
		cfg:        cfg,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{},
	}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
}

func (p *Provider) Name() string { return "openai" }

func (p *Provider) Generate(ctx context.Context, prompt string, gen models.GenerationConfig) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model:       p.cfg.Model,
		Messages:    []message{{Role: "user", Content: prompt}},
		MaxTokens:   gen.MaxTokens,
		Temperature: gen.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return "", fmt.Errorf("openai returned status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}
	return out.Choices[0].Message.Content, nil
}

var _ models.TextGenerator = (*Provider)(nil)
