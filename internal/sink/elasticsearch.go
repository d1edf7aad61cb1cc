package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	es "github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/jonesrussell/north-cloud/enrichment/internal/domain"
	"github.com/jonesrussell/north-cloud/enrichment/internal/logger"
)

// DefaultIndexTimeout bounds a single index request.
const DefaultIndexTimeout = 10 * time.Second

// ElasticsearchConfig holds what the indexer needs from configuration.
type ElasticsearchConfig struct {
	Addresses []string
	Username  string
	Password  string
	Index     string
	Transport http.RoundTripper
}

// Elasticsearch indexes records by ID, so re-running a batch overwrites
// earlier documents for the same record.
type Elasticsearch struct {
	client *es.Client
	index  string
	logger logger.Logger
}

// businessMapping keeps identifiers and enumerations as keywords.
var businessMapping = map[string]any{
	"mappings": map[string]any{
		"properties": map[string]any{
			"id":              map[string]any{"type": "keyword"},
			"name":            map[string]any{"type": "text"},
			"website_url":     map[string]any{"type": "keyword"},
			"final_url":       map[string]any{"type": "keyword"},
			"status":          map[string]any{"type": "keyword"},
			"status_code":     map[string]any{"type": "integer"},
			"business_type":   map[string]any{"type": "keyword"},
			"crawl_timestamp": map[string]any{"type": "date"},
			"contact": map[string]any{
				"properties": map[string]any{
					"emails":         map[string]any{"type": "keyword"},
					"phones":         map[string]any{"type": "keyword"},
					"social_links":   map[string]any{"type": "object", "enabled": false},
					"business_hours": map[string]any{"type": "text"},
				},
			},
			"offerings": map[string]any{
				"properties": map[string]any{
					"categories": map[string]any{"type": "keyword"},
				},
			},
			"errors": map[string]any{
				"properties": map[string]any{
					"stage": map[string]any{"type": "keyword"},
					"kind":  map[string]any{"type": "keyword"},
				},
			},
			"extra": map[string]any{"type": "object", "enabled": false},
		},
	},
}

// NewElasticsearch creates the indexer. It does not contact the cluster.
func NewElasticsearch(cfg ElasticsearchConfig, log logger.Logger) (*Elasticsearch, error) {
	if cfg.Index == "" {
		return nil, errors.New("elasticsearch index is required")
	}
	if log == nil {
		log = logger.NewNop()
	}

	client, err := es.NewClient(es.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: cfg.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	return &Elasticsearch{client: client, index: cfg.Index, logger: log}, nil
}

// EnsureIndex creates the index with the business mapping if it is missing.
func (e *Elasticsearch) EnsureIndex(ctx context.Context) error {
	res, err := e.client.Indices.Exists(
		[]string{e.index},
		e.client.Indices.Exists.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("check index %s: %w", e.index, err)
	}
	e.closeResponse(res)
	if res.StatusCode == http.StatusOK {
		return nil
	}

	body, err := json.Marshal(businessMapping)
	if err != nil {
		return fmt.Errorf("encode mapping: %w", err)
	}
	res, err = e.client.Indices.Create(
		e.index,
		e.client.Indices.Create.WithContext(ctx),
		e.client.Indices.Create.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return fmt.Errorf("create index %s: %w", e.index, err)
	}
	defer e.closeResponse(res)

	if res.IsError() {
		return fmt.Errorf("create index %s: %s", e.index, res.String())
	}
	e.logger.Info("Created index", logger.String("index", e.index))
	return nil
}

// Write implements Sink.
func (e *Elasticsearch) Write(ctx context.Context, rec domain.BusinessRecord) error {
	ctx, cancel := context.WithTimeout(ctx, DefaultIndexTimeout)
	defer cancel()

	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record for indexing: %w", err)
	}

	res, err := e.client.Index(
		e.index,
		bytes.NewReader(body),
		e.client.Index.WithContext(ctx),
		e.client.Index.WithDocumentID(rec.ID),
	)
	if err != nil {
		return fmt.Errorf("failed to index record %s: %w", rec.ID, err)
	}
	defer e.closeResponse(res)

	if res.IsError() {
		e.logger.Error("Elasticsearch returned error response",
			logger.String("error", res.String()),
			logger.String("index", e.index),
			logger.String("docID", rec.ID),
		)
		return fmt.Errorf("elasticsearch error: %s", res.String())
	}

	e.logger.Debug("Record indexed",
		logger.String("index", e.index),
		logger.String("docID", rec.ID),
		logger.String("status", string(rec.Status)),
	)
	return nil
}

// Close implements Sink.
func (e *Elasticsearch) Close() error { return nil }

func (e *Elasticsearch) closeResponse(res *esapi.Response) {
	if res == nil || res.Body == nil {
		return
	}
	if err := res.Body.Close(); err != nil {
		e.logger.Debug("Failed to close response body", logger.Error(err))
	}
}
