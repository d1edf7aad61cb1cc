// Package enrich implements the batch enrichment command.
package enrich

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jonesrussell/north-cloud/enrichment/cmd/common"
	"github.com/jonesrussell/north-cloud/enrichment/internal/config"
	"github.com/jonesrussell/north-cloud/enrichment/internal/domain"
	"github.com/jonesrussell/north-cloud/enrichment/internal/logger"
	"github.com/jonesrussell/north-cloud/enrichment/internal/orchestrator"
	"github.com/jonesrussell/north-cloud/enrichment/internal/sink"
	"github.com/jonesrussell/north-cloud/enrichment/internal/source"
)

// Command returns the enrich command.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enrich <input.csv|input.json>",
		Short: "Enrich a batch of businesses read from a CSV or JSON file",
		Args:  cobra.ExactArgs(1),
		RunE:  run,
	}

	cmd.Flags().StringP("output", "o", "", "output file (default stdout)")
	cmd.Flags().String("format", "", "output format: jsonl or csv")
	cmd.Flags().Bool("index", false, "also index records into Elasticsearch")

	for key, flag := range map[string]string{
		common.KeyOutput: "output",
		common.KeyFormat: "format",
		common.KeyIndex:  "index",
	} {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			panic(fmt.Sprintf("bind %s flag: %v", flag, err))
		}
	}
	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := common.LoadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	deps, err := common.NewDeps(cfg)
	if err != nil {
		return err
	}
	log := deps.Logger
	defer func() { _ = log.Sync() }()

	inputs, err := source.Load(args[0])
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out, closeOut, err := openOutput(cfg.Output.Path, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer closeOut()

	sinks, err := buildSinks(ctx, cfg, out, log)
	if err != nil {
		return err
	}

	log.Info("Starting enrichment batch",
		logger.String("input", args[0]),
		logger.Int("businesses", len(inputs)),
		logger.String("format", cfg.Output.Format),
		logger.Bool("analyzer", cfg.Analyzer.Enabled),
		logger.Bool("elasticsearch", cfg.Elasticsearch.Enabled),
	)

	var done atomic.Int64
	orch := deps.Orchestrator(orchestrator.WithOnRecord(func(i int, rec domain.BusinessRecord) {
		log.Info("Business processed",
			logger.Int("index", i),
			logger.String("name", rec.Name),
			logger.String("status", string(rec.Status)),
			logger.Int64("done", done.Add(1)),
			logger.Int("total", len(inputs)),
		)
	}))

	start := time.Now()
	records := orch.ProcessMany(ctx, inputs)
	elapsed := time.Since(start)

	// Records are written in input order, even when the batch was interrupted.
	writeCtx := context.WithoutCancel(ctx)
	failed := 0
	for _, rec := range records {
		if err := sinks.Write(writeCtx, rec); err != nil {
			failed++
			log.Error("Failed to write record", logger.String("id", rec.ID), logger.Error(err))
		}
	}
	if err := sinks.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}

	summary := common.Summarize(records, deps.Usage, elapsed)
	common.RenderSummary(cmd.ErrOrStderr(), summary)
	if summary.Usage != nil {
		log.Info("AI usage",
			logger.Int("calls", summary.Usage.Calls),
			logger.Int64("total_tokens", summary.Usage.TotalTokens),
			logger.Float64("estimated_cost", summary.Usage.EstimatedCost),
		)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d record(s) could not be written", failed, len(records))
	}
	return ctx.Err()
}

func openOutput(path string, stdout io.Writer) (io.Writer, func(), error) {
	if path == "" || path == "-" {
		return stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output %s: %w", path, err)
	}
	return f, func() { _ = f.Close() }, nil
}

func buildSinks(ctx context.Context, cfg *config.Config, out io.Writer, log logger.Logger) (sink.Multi, error) {
	fileSink, err := sink.New(cfg.Output.Format, out)
	if err != nil {
		return nil, err
	}
	sinks := sink.Multi{fileSink}

	if cfg.Elasticsearch.Enabled {
		es, err := sink.NewElasticsearch(sink.ElasticsearchConfig{
			Addresses: cfg.Elasticsearch.Addresses,
			Username:  cfg.Elasticsearch.Username,
			Password:  cfg.Elasticsearch.Password,
			Index:     cfg.Elasticsearch.Index,
		}, log)
		if err != nil {
			return nil, err
		}
		if err := es.EnsureIndex(ctx); err != nil {
			return nil, err
		}
		sinks = append(sinks, es)
	}
	return sinks, nil
}
