package common

import (
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/jonesrussell/north-cloud/enrichment/internal/analyzer"
	"github.com/jonesrussell/north-cloud/enrichment/internal/domain"
)

// Summary aggregates the outcome of a batch.
type Summary struct {
	Total    int
	Statuses map[domain.RecordStatus]int
	Kinds    map[domain.ErrorKind]int
	Usage    *analyzer.UsageSummary
	Duration time.Duration
}

// Summarize counts statuses and error kinds. usage may be nil.
func Summarize(records []domain.BusinessRecord, usage *analyzer.UsageTracker, elapsed time.Duration) Summary {
	s := Summary{
		Total:    len(records),
		Statuses: map[domain.RecordStatus]int{},
		Kinds:    map[domain.ErrorKind]int{},
		Duration: elapsed,
	}
	for _, rec := range records {
		s.Statuses[rec.Status]++
		for _, e := range rec.Errors {
			s.Kinds[e.Kind]++
		}
	}
	if usage != nil {
		u := usage.Summary()
		s.Usage = &u
	}
	return s
}

// RenderSummary prints the batch summary tables to w.
func RenderSummary(w io.Writer, s Summary) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle("Enrichment summary")
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})

	t.AppendRow(table.Row{"Businesses", s.Total})
	for _, status := range []domain.RecordStatus{
		domain.StatusOK, domain.StatusPartial, domain.StatusFailed, domain.StatusSkipped,
	} {
		t.AppendRow(table.Row{"Status " + string(status), s.Statuses[status]})
	}
	t.AppendRow(table.Row{"Duration", s.Duration.Truncate(time.Millisecond).String()})

	kinds := make([]string, 0, len(s.Kinds))
	for k := range s.Kinds {
		kinds = append(kinds, string(k))
	}
	slices.Sort(kinds)
	if len(kinds) > 0 {
		t.AppendSeparator()
		for _, k := range kinds {
			t.AppendRow(table.Row{"Errors " + k, s.Kinds[domain.ErrorKind(k)]})
		}
	}

	if s.Usage != nil {
		t.AppendSeparator()
		t.AppendRow(table.Row{"AI calls", s.Usage.Calls})
		t.AppendRow(table.Row{"AI input tokens", s.Usage.InputTokens})
		t.AppendRow(table.Row{"AI output tokens", s.Usage.OutputTokens})
		t.AppendRow(table.Row{"AI total tokens", s.Usage.TotalTokens})
		t.AppendRow(table.Row{"AI estimated cost", fmt.Sprintf("$%.4f", s.Usage.EstimatedCost)})
		t.AppendRow(table.Row{"AI avg cost per call", fmt.Sprintf("$%.4f", s.Usage.AverageCostPerCall)})
		t.AppendRow(table.Row{"AI avg tokens per call", fmt.Sprintf("%.1f", s.Usage.AverageTokensPerCall)})
	}

	t.Render()
}
