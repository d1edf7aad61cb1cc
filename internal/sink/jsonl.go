package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/jonesrussell/north-cloud/enrichment/internal/domain"
)

// JSONL writes one JSON object per line.
type JSONL struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewJSONL creates a JSONL sink over w.
func NewJSONL(w io.Writer) *JSONL {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &JSONL{enc: enc}
}

// Write implements Sink.
func (j *JSONL) Write(_ context.Context, rec domain.BusinessRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.enc.Encode(rec); err != nil {
		return fmt.Errorf("encode record %s: %w", rec.ID, err)
	}
	return nil
}

// Close implements Sink. The underlying writer is owned by the caller.
func (j *JSONL) Close() error { return nil }
