// Package common provides the configuration and dependency wiring shared by
// the enrichment commands.
package common

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/viper"

	"github.com/jonesrussell/north-cloud/enrichment/internal/analyzer"
	"github.com/jonesrussell/north-cloud/enrichment/internal/config"
	"github.com/jonesrussell/north-cloud/enrichment/internal/fetcher"
	"github.com/jonesrussell/north-cloud/enrichment/internal/logger"
	"github.com/jonesrussell/north-cloud/enrichment/internal/metrics"
	"github.com/jonesrussell/north-cloud/enrichment/internal/offering"
	"github.com/jonesrussell/north-cloud/enrichment/internal/orchestrator"
	"github.com/jonesrussell/north-cloud/enrichment/internal/pacing"
	"github.com/jonesrussell/north-cloud/enrichment/internal/pipeline"
)

// Version is set at build time with -ldflags "-X .../cmd/common.Version=...".
var Version = "dev"

// Viper keys bound to command-line flags.
const (
	KeyConfig      = "config"
	KeyDebug       = "debug"
	KeyConcurrency = "orchestrator.concurrency"
	KeyNoAI        = "analyzer.disabled"
	KeyOutput      = "output.path"
	KeyFormat      = "output.format"
	KeyIndex       = "elasticsearch.enabled"
	KeyAddress     = "server.address"
)

// LoadConfig loads the configuration file named by --config (or
// CONFIG_PATH) and applies the flags that were set explicitly.
func LoadConfig() (*config.Config, error) {
	path := viper.GetString(KeyConfig)
	if path == "" {
		path = config.GetConfigPath(config.DefaultPath)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if viper.GetBool(KeyDebug) {
		cfg.Logging.Level = "debug"
	}
	if viper.IsSet(KeyConcurrency) && viper.GetInt(KeyConcurrency) > 0 {
		cfg.Orchestrator.Concurrency = viper.GetInt(KeyConcurrency)
	}
	if viper.GetBool(KeyNoAI) {
		cfg.Analyzer.Enabled = false
	}
	if viper.IsSet(KeyOutput) {
		cfg.Output.Path = viper.GetString(KeyOutput)
	}
	if viper.IsSet(KeyFormat) {
		cfg.Output.Format = viper.GetString(KeyFormat)
	}
	if viper.GetBool(KeyIndex) {
		cfg.Elasticsearch.Enabled = true
	}
	if viper.IsSet(KeyAddress) {
		cfg.Server.Address = viper.GetString(KeyAddress)
	}
	return cfg, nil
}

// Deps holds the components built from one configuration.
type Deps struct {
	Config   *config.Config
	Logger   logger.Logger
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics
	// Usage is nil when the analyzer is disabled.
	Usage    *analyzer.UsageTracker
	Pipeline *pipeline.Pipeline
}

// NewDeps builds the logger, metrics, pacing clocks and pipeline for cfg.
func NewDeps(cfg *config.Config) (*Deps, error) {
	log, err := logger.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewMetrics(registry)

	fetchClock := pacing.NewClock("fetch", cfg.Pacing.FetchInterval, log)
	f := fetcher.New(cfg.Fetcher, fetchClock, log)
	detector := offering.NewDetector(cfg.Offering, nil)

	d := &Deps{
		Config:   cfg,
		Logger:   log,
		Registry: registry,
		Metrics:  m,
	}

	var opts []pipeline.Option
	if cfg.Analyzer.Enabled {
		d.Usage = analyzer.NewUsageTracker(nil, func(u analyzer.Usage) {
			m.ObserveTokens(u.InputTokens, u.OutputTokens)
		})
		aiClock := pacing.NewClock("ai", cfg.Pacing.AIInterval, log)
		a := analyzer.New(cfg.Analyzer, analyzer.NewAnthropicCompleter(cfg.Analyzer), aiClock, d.Usage, log)
		opts = append(opts, pipeline.WithAnalyzer(a))
	}
	d.Pipeline = pipeline.New(f, detector, log, opts...)

	log.Debug("Dependencies ready",
		logger.Bool("analyzer", cfg.Analyzer.Enabled),
		logger.Bool("respect_robots", cfg.Fetcher.RespectRobots),
		logger.Duration("fetch_interval", fetchClock.Interval()),
		logger.Duration("ai_interval", cfg.Pacing.AIInterval),
		logger.Int("concurrency", cfg.Orchestrator.Concurrency),
	)
	return d, nil
}

// Orchestrator returns a batch orchestrator over the pipeline.
func (d *Deps) Orchestrator(opts ...orchestrator.Option) *orchestrator.Orchestrator {
	opts = append([]orchestrator.Option{orchestrator.WithMetrics(d.Metrics)}, opts...)
	return orchestrator.New(d.Config.Orchestrator, d.Pipeline, d.Logger, opts...)
}
