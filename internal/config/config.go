package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the Tablescope server.
type Config struct {
	Server    ServerConfig
	Redis     RedisConfig
	LLM       LLMConfig
	Analysis  AnalysisConfig
	Retention RetentionConfig
	Pipeline  PipelineConfig
	Storage   StorageConfig
}

type ServerConfig struct {
	Port int
	Env  string
}

// RedisConfig points at the job store backend. An empty URL selects the
// in-memory store, which is only suitable for development and tests.
type RedisConfig struct {
	URL string
}

type LLMConfig struct {
	Provider    string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	MaxRetries  int
	RetryDelay  time.Duration
	TokenBudget int
	Ollama      OllamaConfig
	OpenAI      OpenAIConfig
	Anthropic   AnthropicConfig
}

type OllamaConfig struct {
	BaseURL string
	Model   string
}

type OpenAIConfig struct {
	APIKey string
	Model  string
}

type AnthropicConfig struct {
	APIKey string
	Model  string
}

// AnalysisConfig carries the statistical engine tunables.
type AnalysisConfig struct {
	Precision            int
	IQRMultiplier        float64
	ZScoreThreshold      float64
	StrongThreshold      float64
	ModerateThreshold    float64
	SignificanceLevel    float64
	MaxAnalyzedColumns   int
	MaxOutlierIndices    int
	MaxFrequencyEntries  int
	SampleValuesPerCol   int
	MaxRows              int
	MaxColumns           int
	MinRows              int
}

type RetentionConfig struct {
	JobTTL    time.Duration
	ResultTTL time.Duration
}

type PipelineConfig struct {
	Workers   int
	QueueSize int
}

type StorageConfig struct {
	UploadDir  string
	ResultsDir string
}

var validProviders = map[string]bool{
	"ollama":    true,
	"openai":    true,
	"anthropic": true,
	"none":      true,
}

// Load reads configuration from environment variables and returns a validated
// Config. Returns an error with a descriptive message if any value is invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("TABLESCOPE_PORT", 8080),
			Env:  envString("TABLESCOPE_ENV", "development"),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		LLM: LLMConfig{
			Provider:    envString("LLM_PROVIDER", "none"),
			Temperature: envFloat("LLM_TEMPERATURE", 0.3),
			MaxTokens:   envInt("LLM_MAX_TOKENS", 2000),
			Timeout:     envDurationSecs("LLM_TIMEOUT_SECS", 60*time.Second),
			MaxRetries:  envInt("LLM_MAX_RETRIES", 3),
			RetryDelay:  envDurationSecs("LLM_RETRY_DELAY_SECS", 2*time.Second),
			TokenBudget: envInt("LLM_TOKEN_BUDGET", 6000),
			Ollama: OllamaConfig{
				BaseURL: envString("OLLAMA_BASE_URL", "http://localhost:11434"),
				Model:   envString("OLLAMA_MODEL", "llama3"),
			},
			OpenAI: OpenAIConfig{
				APIKey: os.Getenv("OPENAI_API_KEY"),
				Model:  envString("OPENAI_MODEL", "gpt-4"),
			},
			Anthropic: AnthropicConfig{
				APIKey: os.Getenv("ANTHROPIC_API_KEY"),
				Model:  envString("ANTHROPIC_MODEL", "claude-sonnet-4-5-20250929"),
			},
		},
		Analysis: AnalysisConfig{
			Precision:           envInt("ANALYSIS_PRECISION", 4),
			IQRMultiplier:       envFloat("ANALYSIS_IQR_MULTIPLIER", 1.5),
			ZScoreThreshold:     envFloat("ANALYSIS_ZSCORE_THRESHOLD", 3.0),
			StrongThreshold:     envFloat("ANALYSIS_STRONG_CORRELATION", 0.7),
			ModerateThreshold:   envFloat("ANALYSIS_MODERATE_CORRELATION", 0.4),
			SignificanceLevel:   envFloat("ANALYSIS_SIGNIFICANCE_LEVEL", 0.05),
			MaxAnalyzedColumns:  envInt("ANALYSIS_MAX_COLUMNS_ANALYZED", 20),
			MaxOutlierIndices:   envInt("ANALYSIS_MAX_OUTLIER_INDICES", 100),
			MaxFrequencyEntries: envInt("ANALYSIS_MAX_FREQUENCY_ENTRIES", 20),
			SampleValuesPerCol:  envInt("ANALYSIS_SAMPLE_VALUES", 5),
			MaxRows:             envInt("DATASET_MAX_ROWS", 1_000_000),
			MaxColumns:          envInt("DATASET_MAX_COLUMNS", 500),
			MinRows:             envInt("DATASET_MIN_ROWS", 10),
		},
		Retention: RetentionConfig{
			JobTTL:    envDuration("JOB_TTL", 7*24*time.Hour),
			ResultTTL: envDuration("RESULT_TTL", 24*time.Hour),
		},
		Pipeline: PipelineConfig{
			Workers:   envInt("PIPELINE_WORKERS", 4),
			QueueSize: envInt("PIPELINE_QUEUE_SIZE", 100),
		},
		Storage: StorageConfig{
			UploadDir:  envString("UPLOAD_DIR", "data/uploads"),
			ResultsDir: envString("RESULTS_DIR", "data/results"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if !validProviders[c.LLM.Provider] {
		return fmt.Errorf("LLM_PROVIDER must be one of ollama, openai, anthropic, none; got %q", c.LLM.Provider)
	}
	if c.LLM.Provider == "openai" && c.LLM.OpenAI.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required when LLM_PROVIDER is openai")
	}
	if c.LLM.Provider == "anthropic" && c.LLM.Anthropic.APIKey == "" {
		return fmt.Errorf("ANTHROPIC_API_KEY is required when LLM_PROVIDER is anthropic")
	}
	if c.Redis.URL != "" && !strings.HasPrefix(c.Redis.URL, "redis://") && !strings.HasPrefix(c.Redis.URL, "rediss://") {
		return fmt.Errorf("REDIS_URL must start with redis:// or rediss://, got %q", c.Redis.URL)
	}
	if c.Analysis.Precision < 0 || c.Analysis.Precision > 10 {
		return fmt.Errorf("ANALYSIS_PRECISION must be between 0 and 10, got %d", c.Analysis.Precision)
	}
	if c.Analysis.IQRMultiplier <= 0 {
		return fmt.Errorf("ANALYSIS_IQR_MULTIPLIER must be positive, got %v", c.Analysis.IQRMultiplier)
	}
	if c.Analysis.ModerateThreshold >= c.Analysis.StrongThreshold {
		return fmt.Errorf("ANALYSIS_MODERATE_CORRELATION (%v) must be below ANALYSIS_STRONG_CORRELATION (%v)",
			c.Analysis.ModerateThreshold, c.Analysis.StrongThreshold)
	}
	if c.Retention.ResultTTL <= 0 || c.Retention.JobTTL <= 0 {
		return fmt.Errorf("RESULT_TTL and JOB_TTL must be positive")
	}
	if c.Retention.ResultTTL > c.Retention.JobTTL {
		return fmt.Errorf("RESULT_TTL (%v) must not exceed JOB_TTL (%v): an expired result needs live job metadata to be distinguishable from a missing one",
			c.Retention.ResultTTL, c.Retention.JobTTL)
	}
	if c.Pipeline.Workers < 1 {
		return fmt.Errorf("PIPELINE_WORKERS must be at least 1, got %d", c.Pipeline.Workers)
	}
	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envFloat(key string, defaultVal float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func envDurationSecs(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return time.Duration(secs) * time.Second
}
