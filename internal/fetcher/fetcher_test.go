package fetcher_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/enrichment/internal/domain"
	"github.com/jonesrussell/north-cloud/enrichment/internal/fetcher"
	"github.com/jonesrussell/north-cloud/enrichment/internal/logger"
	"github.com/jonesrussell/north-cloud/enrichment/internal/pacing"
)

const testPage = `<html><head><title>Acme</title></head><body>Hello</body></html>`

// testConfig returns a config with no pauses and tiny backoff so retries finish quickly.
func testConfig() fetcher.Config {
	return fetcher.Config{
		RequestTimeout: 2 * time.Second,
		TotalTimeout:   10 * time.Second,
		MaxRetries:     2,
		BackoffInitial: time.Millisecond,
		BackoffMax:     5 * time.Millisecond,
	}
}

func newTestFetcher(cfg fetcher.Config) *fetcher.Fetcher {
	return fetcher.New(cfg, pacing.Unpaced{}, logger.NewNop())
}

func TestFetch_Success(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var gotUA, gotReferer, gotAccept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		gotUA = r.Header.Get("User-Agent")
		gotReferer = r.Header.Get("Referer")
		gotAccept = r.Header.Get("Accept")
		mu.Unlock()
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Last-Modified", "Wed, 21 Oct 2015 07:28:00 GMT")
		_, _ = w.Write([]byte(testPage))
	}))
	defer server.Close()

	session := newTestFetcher(testConfig()).NewSession()
	result := session.Fetch(context.Background(), server.URL+"/")

	require.Nil(t, result.Error)
	assert.True(t, result.OK())
	assert.Equal(t, http.StatusOK, result.StatusCode)
	assert.Equal(t, testPage, result.RawHTML)
	assert.Equal(t, "Wed, 21 Oct 2015 07:28:00 GMT", result.LastModified)
	assert.Equal(t, 1, result.Attempts)

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, fetcher.BrowserUserAgents(), gotUA)
	assert.Contains(t, fetcher.SearchReferers(), gotReferer)
	assert.NotEmpty(t, gotAccept)

	pages := session.Pages()
	require.Len(t, pages, 1)
	assert.Equal(t, http.StatusOK, pages[0].StatusCode)
}

func TestFetch_RetriesThenSucceeds(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(testPage))
	}))
	defer server.Close()

	result := newTestFetcher(testConfig()).NewSession().Fetch(context.Background(), server.URL)

	require.Nil(t, result.Error)
	assert.Equal(t, 3, result.Attempts)
	assert.Equal(t, testPage, result.RawHTML)
}

func TestFetch_HTTPErrorAfterRetries(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer server.Close()

	cfg := testConfig()
	result := newTestFetcher(cfg).NewSession().Fetch(context.Background(), server.URL)

	require.NotNil(t, result.Error)
	assert.Equal(t, domain.KindFetchHTTP, result.Error.Kind)
	assert.Equal(t, domain.StageFetch, result.Error.Stage)
	assert.Empty(t, result.RawHTML)
	assert.Equal(t, http.StatusInternalServerError, result.StatusCode)
	assert.Equal(t, cfg.MaxRetries+1, result.Attempts)
	assert.Equal(t, int32(cfg.MaxRetries+1), calls.Load())
}

func TestFetch_NetworkError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	target := server.URL
	server.Close()

	cfg := testConfig()
	cfg.MaxRetries = 1
	result := newTestFetcher(cfg).NewSession().Fetch(context.Background(), target)

	require.NotNil(t, result.Error)
	assert.Equal(t, domain.KindFetchNetwork, result.Error.Kind)
	assert.Empty(t, result.RawHTML)
	assert.Equal(t, 2, result.Attempts)
}

func TestFetch_Timeout(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.MaxRetries = 0
	cfg.RequestTimeout = 50 * time.Millisecond
	result := newTestFetcher(cfg).NewSession().Fetch(context.Background(), server.URL)

	require.NotNil(t, result.Error)
	assert.Equal(t, domain.KindFetchTimeout, result.Error.Kind)
	assert.Empty(t, result.RawHTML)
}

func TestFetch_RobotsDisallowedMakesNoPageRequest(t *testing.T) {
	t.Parallel()

	var pageHits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			_, _ = w.Write([]byte("User-agent: *\nDisallow: /private/\n"))
			return
		}
		pageHits.Add(1)
		_, _ = w.Write([]byte(testPage))
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.RespectRobots = true
	f := newTestFetcher(cfg)

	blocked := f.NewSession().Fetch(context.Background(), server.URL+"/private/page")
	require.NotNil(t, blocked.Error)
	assert.Equal(t, domain.KindFetchDisallowed, blocked.Error.Kind)
	assert.Zero(t, blocked.Attempts)
	assert.Zero(t, pageHits.Load())

	allowed := f.NewSession().Fetch(context.Background(), server.URL+"/public")
	require.Nil(t, allowed.Error)
	assert.Equal(t, int32(1), pageHits.Load())
}

func TestSession_CookiesStayWithinSession(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var seen []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		if c, err := r.Cookie("sid"); err == nil {
			seen = append(seen, c.Value)
		} else {
			seen = append(seen, "")
		}
		mu.Unlock()
		http.SetCookie(w, &http.Cookie{Name: "sid", Value: "abc", Path: "/"})
		_, _ = w.Write([]byte(testPage))
	}))
	defer server.Close()

	f := newTestFetcher(testConfig())
	first := f.NewSession()
	first.Fetch(context.Background(), server.URL+"/")
	first.Fetch(context.Background(), server.URL+"/contact")

	f.NewSession().Fetch(context.Background(), server.URL+"/")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"", "abc", ""}, seen)
}

func TestSession_FetchSubpages(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		_, _ = w.Write([]byte(testPage))
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.Subpages = []string{"/contact", "about", "https://elsewhere.example/contact"}
	session := newTestFetcher(cfg).NewSession()

	base := mustParse(t, server.URL+"/")
	results := session.FetchSubpages(context.Background(), base)

	require.Len(t, results, 2)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"/contact", "/about"}, paths)
}

func TestFetch_BodyCapped(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("a", 4096)))
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.MaxBodyBytes = 1024
	result := newTestFetcher(cfg).NewSession().Fetch(context.Background(), server.URL)

	require.Nil(t, result.Error)
	assert.Len(t, result.RawHTML, 1024)
}

func TestFetch_WaitsOnPacer(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(testPage))
	}))
	defer server.Close()

	const interval = 30 * time.Millisecond
	f := fetcher.New(testConfig(), pacing.NewClock("fetch", interval, nil), logger.NewNop())

	start := time.Now()
	for range 3 {
		require.Nil(t, f.NewSession().Fetch(context.Background(), server.URL).Error)
	}
	assert.GreaterOrEqual(t, time.Since(start), 2*interval)
}

func TestFetch_RobotsAndPagesShareThePacer(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			_, _ = w.Write([]byte("User-agent: *\nAllow: /\n"))
			return
		}
		_, _ = w.Write([]byte(testPage))
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.RespectRobots = true
	pacer := &countingPacer{}
	f := fetcher.New(cfg, pacer, logger.NewNop())

	session := f.NewSession()
	require.Nil(t, session.Fetch(context.Background(), server.URL+"/").Error)
	require.Nil(t, session.Fetch(context.Background(), server.URL+"/about").Error)

	assert.Equal(t, int32(3), pacer.waits.Load(), "one robots.txt download and two pages")
}

func TestFetch_HonorsCrawlDelay(t *testing.T) {
	t.Parallel()

	var (
		mu    sync.Mutex
		pages []time.Time
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			_, _ = w.Write([]byte("User-agent: *\nCrawl-delay: 1\nAllow: /\n"))
			return
		}
		mu.Lock()
		pages = append(pages, time.Now())
		mu.Unlock()
		_, _ = w.Write([]byte(testPage))
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.RespectRobots = true
	f := newTestFetcher(cfg)

	start := time.Now()
	result := f.NewSession().Fetch(context.Background(), server.URL+"/")
	require.Nil(t, result.Error)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, pages, 1)
	assert.GreaterOrEqual(t, pages[0].Sub(start), time.Second)
}

type denyAll struct{}

func (denyAll) IsAllowed(context.Context, string) (bool, error) { return false, nil }

func TestFetch_CustomRobotsAllower(t *testing.T) {
	t.Parallel()

	f := fetcher.New(testConfig(), nil, nil, fetcher.WithRobotsAllower(denyAll{}))
	result := f.NewSession().Fetch(context.Background(), "https://acme.example/")

	require.NotNil(t, result.Error)
	assert.Equal(t, domain.KindFetchDisallowed, result.Error.Kind)
}
