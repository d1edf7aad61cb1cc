// Package sink writes finished business records to their destinations.
package sink

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jonesrussell/north-cloud/enrichment/internal/domain"
)

// Sink receives records as they complete. Write may be called from several
// goroutines.
type Sink interface {
	Write(ctx context.Context, rec domain.BusinessRecord) error
	Close() error
}

// ErrUnknownFormat is returned by New for an unsupported output format.
var ErrUnknownFormat = errors.New("unknown output format")

// New returns the file sink for format writing to w.
func New(format string, w io.Writer) (Sink, error) {
	switch format {
	case "jsonl", "":
		return NewJSONL(w), nil
	case "csv":
		return NewCSV(w), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Multi fans every record out to all sinks. Write reports the joined errors
// of the sinks that failed; the others still receive the record.
type Multi []Sink

// Write implements Sink.
func (m Multi) Write(ctx context.Context, rec domain.BusinessRecord) error {
	var errs []error
	for _, s := range m {
		if err := s.Write(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close implements Sink.
func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
