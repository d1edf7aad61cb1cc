package fetcher_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/enrichment/internal/fetcher"
)

// countingPacer counts Wait calls without blocking.
type countingPacer struct {
	waits atomic.Int32
}

func (p *countingPacer) Wait(ctx context.Context) error {
	p.waits.Add(1)
	return ctx.Err()
}

const testCacheTTL = time.Hour

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func newTestChecker() *fetcher.RobotsChecker {
	return fetcher.NewRobotsChecker(&http.Client{Timeout: time.Second}, "NorthCloud-Enrichment/1.0", testCacheTTL, nil)
}

func TestRobotsChecker_IsAllowed(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("User-agent: *\nDisallow: /private/\nCrawl-delay: 2\n\nUser-agent: NorthCloud-Enrichment\nDisallow: /no-enrich\n"))
	}))
	defer server.Close()

	checker := newTestChecker()
	tests := []struct {
		path string
		want bool
	}{
		{path: "/", want: true},
		{path: "/public/page", want: true},
		{path: "/no-enrich/page", want: false},
	}
	for _, tt := range tests {
		allowed, err := checker.IsAllowed(context.Background(), server.URL+tt.path)
		require.NoError(t, err)
		assert.Equal(t, tt.want, allowed, tt.path)
	}
}

func TestRobotsChecker_MissingFileAllowsAll(t *testing.T) {
	t.Parallel()

	for _, status := range []int{http.StatusNotFound, http.StatusInternalServerError} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(status)
		}))

		allowed, err := newTestChecker().IsAllowed(context.Background(), server.URL+"/anything")
		server.Close()

		require.NoError(t, err)
		assert.True(t, allowed, "status %d", status)
	}
}

func TestRobotsChecker_CachesPerHost(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("User-agent: *\nCrawl-delay: 3\nAllow: /\n"))
	}))
	defer server.Close()

	checker := newTestChecker()
	for range 3 {
		_, err := checker.IsAllowed(context.Background(), server.URL+"/page")
		require.NoError(t, err)
	}

	assert.Equal(t, int32(1), hits.Load())
	assert.Equal(t, 3*time.Second, checker.CrawlDelay(mustParse(t, server.URL).Host))
}

func TestRobotsChecker_InvalidURL(t *testing.T) {
	t.Parallel()

	_, err := newTestChecker().IsAllowed(context.Background(), "/relative/only")
	require.Error(t, err)
}

func TestRobotsChecker_DownloadWaitsOnPacer(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("User-agent: *\nAllow: /\n"))
	}))
	defer server.Close()

	pacer := &countingPacer{}
	checker := fetcher.NewRobotsChecker(&http.Client{Timeout: time.Second}, "NorthCloud-Enrichment/1.0", testCacheTTL, pacer)
	for range 3 {
		_, err := checker.IsAllowed(context.Background(), server.URL+"/page")
		require.NoError(t, err)
	}

	assert.Equal(t, int32(1), pacer.waits.Load(), "only the download is paced")
}
