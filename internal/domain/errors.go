package domain

import "fmt"

// Stage names the pipeline stage an ErrorEntry came from.
type Stage string

// Pipeline stages.
const (
	StageInput     Stage = "input"
	StageFetch     Stage = "fetch"
	StageParse     Stage = "parse"
	StageExtract   Stage = "extract"
	StageOfferings Stage = "offerings"
	StageAnalyze   Stage = "analyze"
	StagePipeline  Stage = "pipeline"
)

// ErrorKind classifies a degraded or failed stage.
type ErrorKind string

// Error taxonomy.
const (
	KindNoWebsite        ErrorKind = "no_website"
	KindFetchNetwork     ErrorKind = "fetch_network"
	KindFetchHTTP        ErrorKind = "fetch_http"
	KindFetchTimeout     ErrorKind = "fetch_timeout"
	KindFetchDisallowed  ErrorKind = "fetch_disallowed"
	KindParseDegraded    ErrorKind = "parse_degraded"
	KindExtractorWarning ErrorKind = "extractor_warning"
	KindAISchemaMismatch ErrorKind = "ai_schema_mismatch"
	KindAIUnavailable    ErrorKind = "ai_unavailable"
	KindPipelineFatal    ErrorKind = "pipeline_fatal"
)

// IsFetchFailure reports whether k is one of the fetch_* kinds.
func (k ErrorKind) IsFetchFailure() bool {
	switch k {
	case KindFetchNetwork, KindFetchHTTP, KindFetchTimeout, KindFetchDisallowed:
		return true
	default:
		return false
	}
}

// ErrorEntry is one diagnostic attached to a record.
type ErrorEntry struct {
	Stage   Stage     `json:"stage"`
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// NewError builds an ErrorEntry with a formatted message.
func NewError(stage Stage, kind ErrorKind, format string, args ...any) ErrorEntry {
	return ErrorEntry{Stage: stage, Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// ErrorReport is the ordered list of diagnostics for one business.
type ErrorReport []ErrorEntry

// Has reports whether the report contains an entry of kind k.
func (r ErrorReport) Has(k ErrorKind) bool {
	for _, e := range r {
		if e.Kind == k {
			return true
		}
	}
	return false
}

// HasFetchFailure reports whether any fetch_* entry is present.
func (r ErrorReport) HasFetchFailure() bool {
	for _, e := range r {
		if e.Kind.IsFetchFailure() {
			return true
		}
	}
	return false
}
