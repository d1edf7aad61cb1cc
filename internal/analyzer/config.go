package analyzer

import "time"

// Analyzer defaults.
const (
	DefaultModel           = "claude-3-5-haiku-latest"
	DefaultMaxContextChars = 4000
	DefaultMaxAttempts     = 3
	DefaultMaxTokens       = 1024
	DefaultBackoffInitial  = 2 * time.Second
	DefaultBackoffMax      = 20 * time.Second
)

// Config holds AI analyzer settings.
type Config struct {
	Enabled         bool          `env:"ANALYZER_ENABLED"           yaml:"enabled"`
	APIKey          string        `env:"ANTHROPIC_API_KEY"          yaml:"api_key"`
	BaseURL         string        `env:"ANTHROPIC_BASE_URL"         yaml:"base_url"`
	Model           string        `env:"ANALYZER_MODEL"             yaml:"model"`
	MaxTokens       int64         `env:"ANALYZER_MAX_TOKENS"        yaml:"max_tokens"`
	MaxContextChars int           `env:"ANALYZER_MAX_CONTEXT_CHARS" yaml:"max_context_chars"`
	MaxAttempts     int           `env:"ANALYZER_MAX_ATTEMPTS"      yaml:"max_attempts"`
	BackoffInitial  time.Duration `env:"ANALYZER_BACKOFF_INITIAL"   yaml:"backoff_initial"`
	BackoffMax      time.Duration `env:"ANALYZER_BACKOFF_MAX"       yaml:"backoff_max"`
}

// WithDefaults returns a copy of c with zero values replaced by defaults.
func (c Config) WithDefaults() Config {
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.MaxContextChars <= 0 {
		c.MaxContextChars = DefaultMaxContextChars
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.BackoffInitial <= 0 {
		c.BackoffInitial = DefaultBackoffInitial
	}
	if c.BackoffMax <= 0 {
		c.BackoffMax = DefaultBackoffMax
	}
	return c
}
