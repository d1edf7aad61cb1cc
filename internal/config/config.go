package config

import (
	"time"

	"github.com/jonesrussell/north-cloud/enrichment/internal/analyzer"
	"github.com/jonesrussell/north-cloud/enrichment/internal/fetcher"
	"github.com/jonesrussell/north-cloud/enrichment/internal/logger"
	"github.com/jonesrussell/north-cloud/enrichment/internal/offering"
	"github.com/jonesrussell/north-cloud/enrichment/internal/orchestrator"
)

// Default values that differ from the zero value of their field.
const (
	DefaultFetchMaxRetries  = 3
	DefaultFetchDelayMin    = 3 * time.Second
	DefaultFetchDelayMax    = 7 * time.Second
	DefaultFetchInterval    = time.Second
	DefaultAIInterval       = 500 * time.Millisecond
	DefaultOutputFormat     = FormatJSONL
	DefaultESAddress        = "http://localhost:9200"
	DefaultESIndex          = "business_profiles"
	DefaultServerAddress    = ":8060"
	DefaultReadTimeout      = 10 * time.Second
	DefaultWriteTimeout     = 10 * time.Minute
	DefaultShutdownTimeout  = 30 * time.Second
	DefaultMaxBatchRequests = 50
)

// Output formats.
const (
	FormatJSONL = "jsonl"
	FormatCSV   = "csv"
)

// Config is the complete enrichment configuration.
type Config struct {
	Logging       logger.Config       `yaml:"logging"`
	Fetcher       fetcher.Config      `yaml:"fetcher"`
	Pacing        PacingConfig        `yaml:"pacing"`
	Analyzer      analyzer.Config     `yaml:"analyzer"`
	Orchestrator  orchestrator.Config `yaml:"orchestrator"`
	Offering      offering.Config     `yaml:"offering"`
	Output        OutputConfig        `yaml:"output"`
	Elasticsearch ElasticsearchConfig `yaml:"elasticsearch"`
	Server        ServerConfig        `yaml:"server"`
}

// PacingConfig sets the minimum spacing of outbound requests across a batch.
type PacingConfig struct {
	FetchInterval time.Duration `env:"PACING_FETCH_INTERVAL" yaml:"fetch_interval"`
	AIInterval    time.Duration `env:"PACING_AI_INTERVAL"    yaml:"ai_interval"`
}

// OutputConfig controls where records are written. An empty Path means stdout.
type OutputConfig struct {
	Format string `env:"OUTPUT_FORMAT" yaml:"format"`
	Path   string `env:"OUTPUT_PATH"   yaml:"path"`
}

// ElasticsearchConfig configures the optional Elasticsearch sink.
type ElasticsearchConfig struct {
	Enabled   bool     `env:"ELASTICSEARCH_ENABLED"   yaml:"enabled"`
	Addresses []string `env:"ELASTICSEARCH_ADDRESSES" yaml:"addresses"`
	Username  string   `env:"ELASTICSEARCH_USERNAME"  yaml:"username"`
	Password  string   `env:"ELASTICSEARCH_PASSWORD"  yaml:"password"`
	Index     string   `env:"ELASTICSEARCH_INDEX"     yaml:"index"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Address         string        `env:"SERVER_ADDRESS"          yaml:"address"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT"     yaml:"read_timeout"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT"    yaml:"write_timeout"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" yaml:"shutdown_timeout"`
	MaxBatch        int           `env:"SERVER_MAX_BATCH"        yaml:"max_batch"`
}

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() *Config {
	cfg := &Config{
		Fetcher: fetcher.Config{
			MaxRetries:    DefaultFetchMaxRetries,
			DelayMin:      DefaultFetchDelayMin,
			DelayMax:      DefaultFetchDelayMax,
			RespectRobots: true,
			Subpages:      []string{},
		},
		Pacing: PacingConfig{
			FetchInterval: DefaultFetchInterval,
			AIInterval:    DefaultAIInterval,
		},
		Analyzer: analyzer.Config{Enabled: true},
		Elasticsearch: ElasticsearchConfig{
			Addresses: []string{DefaultESAddress},
			Index:     DefaultESIndex,
		},
	}
	cfg.setDefaults()
	return cfg
}

// setDefaults fills zero values that have no meaning of their own.
func (c *Config) setDefaults() {
	c.Logging.SetDefaults()
	c.Fetcher = c.Fetcher.WithDefaults()
	c.Analyzer = c.Analyzer.WithDefaults()
	c.Orchestrator = c.Orchestrator.WithDefaults()
	c.Offering = c.Offering.WithDefaults()

	if c.Output.Format == "" {
		c.Output.Format = DefaultOutputFormat
	}
	if len(c.Elasticsearch.Addresses) == 0 {
		c.Elasticsearch.Addresses = []string{DefaultESAddress}
	}
	if c.Elasticsearch.Index == "" {
		c.Elasticsearch.Index = DefaultESIndex
	}
	if c.Server.Address == "" {
		c.Server.Address = DefaultServerAddress
	}
	if c.Server.ReadTimeout <= 0 {
		c.Server.ReadTimeout = DefaultReadTimeout
	}
	if c.Server.WriteTimeout <= 0 {
		c.Server.WriteTimeout = DefaultWriteTimeout
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if c.Server.MaxBatch <= 0 {
		c.Server.MaxBatch = DefaultMaxBatchRequests
	}
}
