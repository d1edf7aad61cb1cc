// Package validate implements the setup validation command.
package validate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	es "github.com/elastic/go-elasticsearch/v8"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/enrichment/cmd/common"
	"github.com/jonesrussell/north-cloud/enrichment/internal/config"
)

// minAPIKeyLength is shorter than any issued Anthropic key.
const minAPIKeyLength = 40

const pingTimeout = 5 * time.Second

// API key format errors.
var (
	ErrAPIKeyMissing = errors.New("ANTHROPIC_API_KEY is not set")
	ErrAPIKeyPrefix  = errors.New("API key should start with \"sk-\"")
	ErrAPIKeyShort   = errors.New("API key seems too short")
)

// Check is one validation result.
type Check struct {
	Name   string
	OK     bool
	Detail string
}

// Command returns the validate command.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check configuration and credentials without enriching anything",
		Args:  cobra.NoArgs,
		RunE:  run,
	}
	cmd.Flags().Bool("ping", false, "also contact Elasticsearch when it is enabled")
	return cmd
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := common.LoadConfig()
	if err != nil {
		return err
	}
	ping, _ := cmd.Flags().GetBool("ping")

	checks := Run(cmd.Context(), cfg, ping)
	Render(cmd.OutOrStdout(), checks)

	for _, c := range checks {
		if !c.OK {
			return errors.New("setup validation failed")
		}
	}
	return nil
}

// Run performs every check against cfg.
func Run(ctx context.Context, cfg *config.Config, ping bool) []Check {
	checks := []Check{configCheck(cfg)}

	if cfg.Analyzer.Enabled {
		c := Check{Name: "AI API key", OK: true}
		if err := CheckAPIKey(cfg.Analyzer.APIKey); err != nil {
			c.OK, c.Detail = false, err.Error()
		} else {
			c.Detail = "found " + MaskKey(cfg.Analyzer.APIKey) + ", model " + cfg.Analyzer.Model
		}
		checks = append(checks, c)
	} else {
		checks = append(checks, Check{Name: "AI API key", OK: true, Detail: "analyzer disabled"})
	}

	if cfg.Elasticsearch.Enabled && ping {
		checks = append(checks, pingElasticsearch(ctx, cfg.Elasticsearch))
	}
	return checks
}

func configCheck(cfg *config.Config) Check {
	if err := cfg.Validate(); err != nil {
		return Check{Name: "Configuration", OK: false, Detail: err.Error()}
	}
	return Check{
		Name: "Configuration",
		OK:   true,
		Detail: fmt.Sprintf("concurrency %d, timeout %s, output %s",
			cfg.Orchestrator.Concurrency, cfg.Orchestrator.PipelineTimeout, cfg.Output.Format),
	}
}

// CheckAPIKey verifies the key's format without calling the API.
func CheckAPIKey(key string) error {
	key = strings.TrimSpace(key)
	switch {
	case key == "":
		return ErrAPIKeyMissing
	case !strings.HasPrefix(key, "sk-"):
		return ErrAPIKeyPrefix
	case len(key) < minAPIKeyLength:
		return ErrAPIKeyShort
	default:
		return nil
	}
}

// MaskKey shows only the last four characters of key.
func MaskKey(key string) string {
	const visible = 4
	if len(key) <= visible {
		return strings.Repeat("*", len(key))
	}
	return "sk-..." + key[len(key)-visible:]
}

func pingElasticsearch(ctx context.Context, cfg config.ElasticsearchConfig) Check {
	c := Check{Name: "Elasticsearch"}
	client, err := es.NewClient(es.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		c.Detail = err.Error()
		return c
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	res, err := client.Ping(client.Ping.WithContext(ctx))
	if err != nil {
		c.Detail = fmt.Sprintf("ping failed: %v", err)
		return c
	}
	defer res.Body.Close()
	if res.IsError() || res.StatusCode != http.StatusOK {
		c.Detail = "ping returned " + res.Status()
		return c
	}
	c.OK = true
	c.Detail = strings.Join(cfg.Addresses, ", ")
	return c
}

// Render prints checks as a table.
func Render(w io.Writer, checks []Check) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Check", "Result", "Detail"})
	for _, c := range checks {
		result := "ok"
		if !c.OK {
			result = "FAILED"
		}
		t.AppendRow(table.Row{c.Name, result, c.Detail})
	}
	t.Render()
}
