package analyzer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

//go:generate mockgen -destination=../../testutils/mocks/analyzer/completer.go -package=analyzer github.com/jonesrussell/north-cloud/enrichment/internal/analyzer Completer

// Completer sends one prompt to a text-generation service.
type Completer interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}

// Request is a single completion request.
type Request struct {
	Model     string
	System    string
	Prompt    string
	MaxTokens int64
}

// Response is the generated text plus token accounting.
type Response struct {
	Text         string
	Model        string
	InputTokens  int64
	OutputTokens int64
}

// StatusError is a completion failure carrying the service's HTTP status.
type StatusError struct {
	StatusCode int
	Err        error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("completion status %d: %v", e.StatusCode, e.Err)
}

func (e *StatusError) Unwrap() error { return e.Err }

// statusOverloaded is the non-standard status the Anthropic API uses when overloaded.
const statusOverloaded = 529

// IsTransient reports whether err is worth retrying: rate limiting,
// overload, server errors and timeouts.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusTooManyRequests,
			statusErr.StatusCode == http.StatusRequestTimeout,
			statusErr.StatusCode == statusOverloaded,
			statusErr.StatusCode >= http.StatusInternalServerError:
			return true
		default:
			return false
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
