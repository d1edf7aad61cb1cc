package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/enrichment/internal/config"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yml"))
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Fetcher.MaxRetries)
	assert.Equal(t, 3*time.Second, cfg.Fetcher.DelayMin)
	assert.Equal(t, 7*time.Second, cfg.Fetcher.DelayMax)
	assert.True(t, cfg.Fetcher.RespectRobots)
	assert.Equal(t, 15*time.Second, cfg.Fetcher.RequestTimeout)
	assert.Equal(t, 60*time.Second, cfg.Fetcher.TotalTimeout)
	assert.Equal(t, time.Second, cfg.Pacing.FetchInterval)
	assert.Equal(t, 500*time.Millisecond, cfg.Pacing.AIInterval)
	assert.Equal(t, 4, cfg.Orchestrator.Concurrency)
	assert.Equal(t, 3*time.Minute, cfg.Orchestrator.PipelineTimeout)
	assert.True(t, cfg.Analyzer.Enabled)
	assert.Equal(t, "claude-3-5-haiku-latest", cfg.Analyzer.Model)
	assert.Equal(t, 4000, cfg.Analyzer.MaxContextChars)
	assert.Equal(t, 5, cfg.Offering.MaxFeatured)
	assert.Equal(t, config.FormatJSONL, cfg.Output.Format)
	assert.False(t, cfg.Elasticsearch.Enabled)
	assert.Equal(t, []string{"http://localhost:9200"}, cfg.Elasticsearch.Addresses)
	assert.Equal(t, "business_profiles", cfg.Elasticsearch.Index)
	assert.Equal(t, ":8060", cfg.Server.Address)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	path := writeFile(t, "config.yml", `
fetcher:
  max_retries: 0
  respect_robots: false
  subpages: ["/contact", "/about"]
orchestrator:
  concurrency: 8
analyzer:
  enabled: false
output:
  format: csv
`)
	t.Setenv("ORCHESTRATOR_PIPELINE_TIMEOUT", "45s")
	t.Setenv("OUTPUT_FORMAT", "jsonl")
	t.Setenv("ELASTICSEARCH_ADDRESSES", "http://es1:9200, http://es2:9200")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Zero(t, cfg.Fetcher.MaxRetries)
	assert.False(t, cfg.Fetcher.RespectRobots)
	assert.Equal(t, []string{"/contact", "/about"}, cfg.Fetcher.Subpages)
	assert.Equal(t, 8, cfg.Orchestrator.Concurrency)
	assert.Equal(t, 45*time.Second, cfg.Orchestrator.PipelineTimeout)
	assert.False(t, cfg.Analyzer.Enabled)
	assert.Equal(t, config.FormatJSONL, cfg.Output.Format)
	assert.Equal(t, []string{"http://es1:9200", "http://es2:9200"}, cfg.Elasticsearch.Addresses)
	// Untouched sections keep their defaults.
	assert.Equal(t, 3*time.Second, cfg.Fetcher.DelayMin)
}

func TestLoad_EnvFile(t *testing.T) {
	path := writeFile(t, "test.env", "ANTHROPIC_API_KEY=sk-from-env-file\n")
	t.Setenv("ENV_FILE", path)
	t.Cleanup(func() { _ = os.Unsetenv("ANTHROPIC_API_KEY") })

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "sk-from-env-file", cfg.Analyzer.APIKey)
	require.NoError(t, cfg.Validate())
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeFile(t, "config.yml", "orchestrator: [not, a, map")

	_, err := config.Load(path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestGetConfigPath(t *testing.T) {
	assert.Equal(t, "fallback.yml", config.GetConfigPath("fallback.yml"))

	t.Setenv("CONFIG_PATH", "/etc/enrichment.yml")
	assert.Equal(t, "/etc/enrichment.yml", config.GetConfigPath("fallback.yml"))
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		mutate    func(c *config.Config)
		wantField string
	}{
		{
			name:   "valid with key",
			mutate: func(c *config.Config) { c.Analyzer.APIKey = "sk-test" },
		},
		{
			name:   "analyzer disabled needs no key",
			mutate: func(c *config.Config) { c.Analyzer.Enabled = false },
		},
		{
			name:      "analyzer enabled without key",
			mutate:    func(*config.Config) {},
			wantField: "analyzer.api_key",
		},
		{
			name: "bad output format",
			mutate: func(c *config.Config) {
				c.Analyzer.Enabled = false
				c.Output.Format = "xml"
			},
			wantField: "output.format",
		},
		{
			name: "bad log level",
			mutate: func(c *config.Config) {
				c.Analyzer.Enabled = false
				c.Logging.Level = "loud"
			},
			wantField: "logging.level",
		},
		{
			name: "request timeout above total",
			mutate: func(c *config.Config) {
				c.Analyzer.Enabled = false
				c.Fetcher.RequestTimeout = 2 * time.Minute
			},
			wantField: "fetcher.request_timeout",
		},
		{
			name: "elasticsearch bad address",
			mutate: func(c *config.Config) {
				c.Analyzer.Enabled = false
				c.Elasticsearch.Enabled = true
				c.Elasticsearch.Addresses = []string{"localhost"}
			},
			wantField: "elasticsearch.addresses",
		},
		{
			name: "zero concurrency",
			mutate: func(c *config.Config) {
				c.Analyzer.Enabled = false
				c.Orchestrator.Concurrency = 0
			},
			wantField: "orchestrator.concurrency",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := config.Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantField == "" {
				require.NoError(t, err)
				return
			}
			var verr *config.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantField, verr.Field)
		})
	}
}
