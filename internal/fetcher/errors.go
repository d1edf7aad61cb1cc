package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jonesrussell/north-cloud/enrichment/internal/domain"
)

// statusError is returned by an attempt that received a non-2xx response.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("http status %d", e.code)
}

// classify maps an attempt error onto the fetch_* error kinds.
func classify(err error) domain.ErrorKind {
	var se *statusError
	if errors.As(err, &se) {
		return domain.KindFetchHTTP
	}
	if isTimeout(err) {
		return domain.KindFetchTimeout
	}
	return domain.KindFetchNetwork
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded")
}
