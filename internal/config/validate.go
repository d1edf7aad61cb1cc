package config

import (
	"fmt"
	"net/url"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	checks := []func() error{
		c.validateLogging,
		c.validateFetcher,
		c.validateAnalyzer,
		c.validateOutput,
		c.validateElasticsearch,
	}
	for _, check := range checks {
		if err := check(); err != nil {
			return err
		}
	}
	if c.Orchestrator.Concurrency < 1 {
		return &ValidationError{Field: "orchestrator.concurrency", Message: "must be at least 1"}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return &ValidationError{Field: "logging.level", Message: "must be one of: debug, info, warn, error"}
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return &ValidationError{Field: "logging.format", Message: "must be one of: json, console"}
	}
	return nil
}

func (c *Config) validateFetcher() error {
	if c.Fetcher.DelayMin < 0 {
		return &ValidationError{Field: "fetcher.delay_min", Message: "must not be negative"}
	}
	if c.Fetcher.RequestTimeout > c.Fetcher.TotalTimeout {
		return &ValidationError{Field: "fetcher.request_timeout", Message: "must not exceed fetcher.total_timeout"}
	}
	for _, sub := range c.Fetcher.Subpages {
		if _, err := url.Parse(sub); err != nil {
			return &ValidationError{Field: "fetcher.subpages", Message: fmt.Sprintf("invalid path %q", sub)}
		}
	}
	if c.Pacing.FetchInterval < 0 || c.Pacing.AIInterval < 0 {
		return &ValidationError{Field: "pacing", Message: "intervals must not be negative"}
	}
	return nil
}

func (c *Config) validateAnalyzer() error {
	if !c.Analyzer.Enabled {
		return nil
	}
	if c.Analyzer.APIKey == "" {
		return &ValidationError{Field: "analyzer.api_key", Message: "is required when analyzer.enabled is true (set ANTHROPIC_API_KEY)"}
	}
	if c.Analyzer.BaseURL != "" {
		if _, err := url.ParseRequestURI(c.Analyzer.BaseURL); err != nil {
			return &ValidationError{Field: "analyzer.base_url", Message: "must be an absolute URL"}
		}
	}
	return nil
}

func (c *Config) validateOutput() error {
	switch c.Output.Format {
	case FormatJSONL, FormatCSV:
		return nil
	default:
		return &ValidationError{Field: "output.format", Message: "must be one of: jsonl, csv"}
	}
}

func (c *Config) validateElasticsearch() error {
	if !c.Elasticsearch.Enabled {
		return nil
	}
	if c.Elasticsearch.Index == "" {
		return &ValidationError{Field: "elasticsearch.index", Message: "is required when elasticsearch.enabled is true"}
	}
	for _, addr := range c.Elasticsearch.Addresses {
		u, err := url.ParseRequestURI(addr)
		if err != nil || u.Host == "" {
			return &ValidationError{Field: "elasticsearch.addresses", Message: fmt.Sprintf("invalid URL %q", addr)}
		}
	}
	return nil
}
