package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"

	"github.com/jonesrussell/north-cloud/enrichment/internal/pacing"
)

// maxRobotsBodyBytes limits the size of robots.txt responses we will read.
const maxRobotsBodyBytes = 512 * 1024

// RobotsAllower decides whether a URL may be fetched.
type RobotsAllower interface {
	IsAllowed(ctx context.Context, rawURL string) (bool, error)
}

// CrawlDelayer reports the Crawl-delay a host declared for the agent.
type CrawlDelayer interface {
	CrawlDelay(host string) time.Duration
}

// RobotsChecker fetches robots.txt once per host and answers path queries
// for a single agent identification string.
type RobotsChecker struct {
	httpClient *http.Client
	agent      string
	ttl        time.Duration
	pacer      pacing.Pacer

	mu    sync.Mutex
	hosts map[string]*robotsEntry
}

type robotsEntry struct {
	group     *robotstxt.Group // nil means allow everything
	fetchedAt time.Time
}

// NewRobotsChecker creates a RobotsChecker for agent. Every robots.txt
// download waits on pacer first; nil means unpaced.
func NewRobotsChecker(httpClient *http.Client, agent string, ttl time.Duration, pacer pacing.Pacer) *RobotsChecker {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if pacer == nil {
		pacer = pacing.Unpaced{}
	}
	if ttl <= 0 {
		ttl = defaultRobotsCacheTTL
	}
	return &RobotsChecker{
		httpClient: httpClient,
		agent:      agent,
		ttl:        ttl,
		pacer:      pacer,
		hosts:      make(map[string]*robotsEntry),
	}
}

// IsAllowed reports whether rawURL's path is permitted for the checker's agent.
// A missing, unreachable or unparsable robots.txt allows everything.
func (r *RobotsChecker) IsAllowed(ctx context.Context, rawURL string) (bool, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false, fmt.Errorf("robots: parse url: %w", err)
	}
	if u.Host == "" {
		return false, fmt.Errorf("robots: empty host in url %q", rawURL)
	}

	entry := r.entryFor(ctx, u)
	if entry.group == nil {
		return true, nil
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return entry.group.Test(path), nil
}

// CrawlDelay returns the Crawl-delay declared for the agent on host, if cached.
func (r *RobotsChecker) CrawlDelay(host string) time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.hosts[strings.ToLower(host)]
	if !ok || entry.group == nil {
		return 0
	}
	return entry.group.CrawlDelay
}

func (r *RobotsChecker) entryFor(ctx context.Context, u *url.URL) *robotsEntry {
	host := strings.ToLower(u.Host)

	r.mu.Lock()
	entry, ok := r.hosts[host]
	r.mu.Unlock()
	if ok && time.Since(entry.fetchedAt) < r.ttl {
		return entry
	}

	// A cancelled wait allows the page and leaves the host uncached; the
	// page request fails on the same context.
	if err := r.pacer.Wait(ctx); err != nil {
		return &robotsEntry{}
	}

	scheme := u.Scheme
	if scheme == "" {
		scheme = "https"
	}
	entry = &robotsEntry{fetchedAt: time.Now()}
	if data := r.download(ctx, scheme+"://"+u.Host+"/robots.txt"); data != nil {
		entry.group = data.FindGroup(r.agent)
	}

	r.mu.Lock()
	r.hosts[host] = entry
	r.mu.Unlock()
	return entry
}

// download returns parsed rules, or nil when the file should be treated as allow-all.
func (r *RobotsChecker) download(ctx context.Context, robotsURL string) *robotstxt.RobotsData {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, http.NoBody)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", r.agent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRobotsBodyBytes))
	if err != nil {
		return nil
	}
	data, err := robotstxt.FromBytes(body)
	if err != nil {
		return nil
	}
	return data
}
