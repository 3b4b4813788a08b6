package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration. It is loaded once at
// startup (defaults -> config files -> env -> CLI flags) and passed into
// each component at construction; no component reads process-wide state.
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Server      ServerConfig    `toml:"server"`
	Fetcher     FetcherConfig   `toml:"fetcher"`
	Chunking    ChunkingConfig  `toml:"chunking"`
	Embedding   EmbeddingConfig `toml:"embedding"`
	Index       IndexConfig     `toml:"index"`
	Synthesis   SynthesisConfig `toml:"synthesis"`
	Pipeline    PipelineConfig  `toml:"pipeline"`
	Retry       RetryConfig     `toml:"retry"`
	Gemini      GeminiConfig    `toml:"gemini"`
	Claude      ClaudeConfig    `toml:"claude"`
	LLM         LLMConfig       `toml:"llm"`
	Storage     StorageConfig   `toml:"storage"`
	Logging     LoggingConfig   `toml:"logging"`
}

type ServerConfig struct {
	Port     int    `toml:"port"`
	Host     string `toml:"host"`
	APIToken string `toml:"api_token"` // Bearer token required on /api routes when set
}

// FetcherConfig controls document download behavior.
type FetcherConfig struct {
	ScratchDir string `toml:"scratch_dir"` // Root for per-run scratch directories
	Timeout    string `toml:"timeout"`     // HTTP timeout as duration string (default: "60s")
	MaxBytes   int64  `toml:"max_bytes"`   // Payload cap in bytes (default: 50 MB)
}

// ChunkingConfig controls how extracted text is split for embedding.
type ChunkingConfig struct {
	Size              int `toml:"size" validate:"gt=0"`               // Target chunk size in characters
	Overlap           int `toml:"overlap" validate:"gte=0"`           // Overlap between consecutive chunks
	BoundaryTolerance int `toml:"boundary_tolerance" validate:"gte=0"` // Window to search for a natural cut
}

// EmbeddingConfig controls the embedding client.
type EmbeddingConfig struct {
	Model     string `toml:"model"`                        // Embedding model name (default: "gemini-embedding-001")
	Dimension int    `toml:"dimension" validate:"gt=0"`    // Fixed vector dimension (default: 768)
	BatchSize int    `toml:"batch_size" validate:"gt=0"`   // Max texts per external call
}

// IndexConfig controls vector index backend selection and retrieval depth.
type IndexConfig struct {
	TopK     int            `toml:"top_k" validate:"gt=0"` // Chunks retrieved per question
	Postgres PostgresConfig `toml:"postgres"`
}

// PostgresConfig holds managed backend (pgvector) settings. An empty DSN
// disables the managed backend and the local backend is used directly.
type PostgresConfig struct {
	DSN   string `toml:"dsn"`
	Table string `toml:"table"` // Table name (default: "chunk_embeddings")
}

// SynthesisConfig controls prompt construction and model parameters.
type SynthesisConfig struct {
	ContextBudget int     `toml:"context_budget" validate:"gt=0"` // Prompt character budget for chunk context
	Temperature   float32 `toml:"temperature"`
	MaxTokens     int     `toml:"max_tokens"`
}

// PipelineConfig controls the per-request orchestrator.
type PipelineConfig struct {
	Concurrency     int    `toml:"concurrency" validate:"gt=0"` // Max questions answered concurrently
	QuestionTimeout string `toml:"question_timeout"`            // Per-question timeout as duration string
}

// RetryConfig defines the shared retry policy applied at the embedding,
// managed-index and model boundaries.
type RetryConfig struct {
	MaxAttempts int     `toml:"max_attempts" validate:"gt=0"`
	BaseDelay   string  `toml:"base_delay"` // Duration string (default: "1s")
	MaxDelay    string  `toml:"max_delay"`  // Duration string (default: "30s")
	Multiplier  float64 `toml:"multiplier"`
}

// GeminiConfig contains Google Gemini API configuration.
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`      // Chat model (default: "gemini-2.0-flash")
	RateLimit   string  `toml:"rate_limit"` // Min interval between calls (default: "4s")
	Timeout     string  `toml:"timeout"`    // Operation timeout (default: "2m")
	Temperature float32 `toml:"temperature"`
}

// ClaudeConfig contains Anthropic Claude API configuration.
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"` // Chat model (default: "claude-3-5-haiku-latest")
	MaxTokens   int     `toml:"max_tokens"`
	RateLimit   string  `toml:"rate_limit"`
	Timeout     string  `toml:"timeout"`
	Temperature float32 `toml:"temperature"`
}

// LLMConfig selects the default chat provider.
type LLMConfig struct {
	DefaultProvider string `toml:"default_provider" validate:"oneof=gemini claude"`
}

// StorageConfig controls the optional Badger-backed query log sink.
type StorageConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05.000")
}

// NewDefaultConfig returns configuration defaults. File, env and flag values
// layer on top.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Fetcher: FetcherConfig{
			ScratchDir: os.TempDir(),
			Timeout:    "60s",
			MaxBytes:   50 * 1024 * 1024,
		},
		Chunking: ChunkingConfig{
			Size:              1000,
			Overlap:           200,
			BoundaryTolerance: 120,
		},
		Embedding: EmbeddingConfig{
			Model:     "gemini-embedding-001",
			Dimension: 768,
			BatchSize: 32,
		},
		Index: IndexConfig{
			TopK: 5,
			Postgres: PostgresConfig{
				Table: "chunk_embeddings",
			},
		},
		Synthesis: SynthesisConfig{
			ContextBudget: 12000,
			Temperature:   0.3,
			MaxTokens:     1024,
		},
		Pipeline: PipelineConfig{
			Concurrency:     4,
			QuestionTimeout: "2m",
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   "1s",
			MaxDelay:    "30s",
			Multiplier:  2.0,
		},
		Gemini: GeminiConfig{
			Model:       "gemini-2.0-flash",
			RateLimit:   "4s",
			Timeout:     "2m",
			Temperature: 0.3,
		},
		Claude: ClaudeConfig{
			Model:       "claude-3-5-haiku-latest",
			MaxTokens:   1024,
			RateLimit:   "1s",
			Timeout:     "2m",
			Temperature: 0.3,
		},
		LLM: LLMConfig{
			DefaultProvider: "gemini",
		},
		Storage: StorageConfig{
			Enabled: false,
			Path:    "./data/respondeo",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout"},
			TimeFormat: "15:04:05.000",
		},
	}
}

// LoadFromFiles loads configuration from defaults, then each config file in
// order (later files override earlier ones), then environment variables.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks structural constraints plus the cross-field invariants the
// validator tags cannot express.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.Chunking.Overlap >= c.Chunking.Size {
		return fmt.Errorf("invalid configuration: chunking overlap (%d) must be less than chunk size (%d)",
			c.Chunking.Overlap, c.Chunking.Size)
	}

	for name, d := range map[string]string{
		"fetcher.timeout":           c.Fetcher.Timeout,
		"pipeline.question_timeout": c.Pipeline.QuestionTimeout,
		"retry.base_delay":          c.Retry.BaseDelay,
		"retry.max_delay":           c.Retry.MaxDelay,
		"gemini.rate_limit":         c.Gemini.RateLimit,
		"gemini.timeout":            c.Gemini.Timeout,
		"claude.rate_limit":         c.Claude.RateLimit,
		"claude.timeout":            c.Claude.Timeout,
	} {
		if d == "" {
			continue
		}
		if _, err := time.ParseDuration(d); err != nil {
			return fmt.Errorf("invalid configuration: %s: %w", name, err)
		}
	}

	return nil
}

// Duration parses a duration config value, returning fallback for empty or
// unparseable strings. Validate has already rejected malformed values from
// config files; the fallback covers programmatic construction in tests.
func Duration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

// applyEnvOverrides applies RESPONDEO_* environment variables on top of file
// configuration. Only operational knobs are exposed; tuning parameters stay
// in the config file.
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("RESPONDEO_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	if port := os.Getenv("RESPONDEO_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("RESPONDEO_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if token := os.Getenv("RESPONDEO_API_TOKEN"); token != "" {
		config.Server.APIToken = token
	}

	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		config.Gemini.APIKey = key
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		config.Claude.APIKey = key
	}
	if provider := os.Getenv("RESPONDEO_LLM_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = provider
	}

	if dsn := os.Getenv("RESPONDEO_POSTGRES_DSN"); dsn != "" {
		config.Index.Postgres.DSN = dsn
	}

	if dir := os.Getenv("RESPONDEO_SCRATCH_DIR"); dir != "" {
		config.Fetcher.ScratchDir = dir
	}

	if level := os.Getenv("RESPONDEO_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("RESPONDEO_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}
}

// ApplyFlagOverrides applies command-line flag values (highest priority).
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// IsProduction returns true when running in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}
