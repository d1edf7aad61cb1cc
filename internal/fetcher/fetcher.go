// Package fetcher retrieves business web pages the way a browser would:
// rotating identification headers, randomized referrers and pauses, robots.txt
// compliance, bounded retries, and one cookie session per business.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gocolly/colly/v2"

	"github.com/jonesrussell/north-cloud/enrichment/internal/domain"
	"github.com/jonesrussell/north-cloud/enrichment/internal/logger"
	"github.com/jonesrussell/north-cloud/enrichment/internal/pacing"
)

const backoffRandomization = 0.5

var errDisallowed = errors.New("disallowed by robots.txt")

// Fetcher creates per-business sessions sharing configuration, robots cache and pacing.
type Fetcher struct {
	cfg    Config
	robots RobotsAllower
	pacer  pacing.Pacer
	logger logger.Logger
}

// Option customizes a Fetcher.
type Option func(*Fetcher)

// WithRobotsAllower replaces the default robots.txt checker.
func WithRobotsAllower(r RobotsAllower) Option {
	return func(f *Fetcher) { f.robots = r }
}

// New creates a Fetcher. Every outbound page request waits on pacer first.
func New(cfg Config, pacer pacing.Pacer, log logger.Logger, opts ...Option) *Fetcher {
	cfg = cfg.WithDefaults()
	if pacer == nil {
		pacer = pacing.Unpaced{}
	}
	if log == nil {
		log = logger.NewNop()
	}

	f := &Fetcher{cfg: cfg, pacer: pacer, logger: log}
	if cfg.RespectRobots {
		f.robots = NewRobotsChecker(
			&http.Client{Timeout: cfg.RequestTimeout},
			cfg.RobotsUserAgent,
			cfg.RobotsCacheTTL,
			pacer,
		)
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Config returns the effective configuration.
func (f *Fetcher) Config() Config {
	return f.cfg
}

// Session is the fetch context for a single business. Cookies set by the
// site persist across the session's requests and are never shared with
// another session.
type Session struct {
	f   *Fetcher
	jar http.CookieJar

	mu    sync.Mutex
	pages []domain.PageCheck
}

// NewSession starts a cookie session for one business.
func (f *Fetcher) NewSession() *Session {
	jar, _ := cookiejar.New(nil)
	return &Session{f: f, jar: jar}
}

// Pages returns every page request made in this session.
func (s *Session) Pages() []domain.PageCheck {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.PageCheck(nil), s.pages...)
}

func (s *Session) recordPage(p domain.PageCheck) {
	s.mu.Lock()
	s.pages = append(s.pages, p)
	s.mu.Unlock()
}

// page is the successful outcome of one attempt.
type page struct {
	finalURL     string
	status       int
	body         string
	contentType  string
	lastModified string
}

// Fetch retrieves rawURL with retries. It never returns an error: failures are
// reported through FetchResult.Error and leave RawHTML empty.
func (s *Session) Fetch(ctx context.Context, rawURL string) domain.FetchResult {
	start := time.Now()
	result := domain.FetchResult{RequestedURL: rawURL, FinalURL: rawURL}

	ctx, cancel := context.WithTimeout(ctx, s.f.cfg.TotalTimeout)
	defer cancel()

	log := s.f.logger.With(logger.String("url", rawURL))

	if err := s.checkRobots(ctx, rawURL); err != nil {
		entry := domain.NewError(domain.StageFetch, domain.KindFetchDisallowed, "%s: %v", rawURL, err)
		result.Error = &entry
		result.Duration = time.Since(start)
		s.recordPage(domain.PageCheck{URL: rawURL, Error: err.Error()})
		log.Info("Skipping disallowed page")
		return result
	}

	var got page
	var lastStatus int
	operation := func() error {
		result.Attempts++
		p, err := s.attempt(ctx, rawURL)
		lastStatus = p.status
		s.recordAttempt(rawURL, p, err)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		got = p
		return nil
	}
	notify := func(err error, wait time.Duration) {
		log.Debug("Fetch attempt failed, retrying",
			logger.Int("attempt", result.Attempts),
			logger.Duration("backoff", wait),
			logger.Error(err),
		)
	}

	err := backoff.RetryNotify(operation, s.f.retryPolicy(ctx), notify)
	result.Duration = time.Since(start)
	result.StatusCode = lastStatus

	if err != nil {
		kind := classify(err)
		if ctx.Err() != nil && kind == domain.KindFetchNetwork {
			kind = domain.KindFetchTimeout
		}
		entry := domain.NewError(domain.StageFetch, kind,
			"%s failed after %d attempt(s): %v", rawURL, result.Attempts, err)
		result.Error = &entry
		log.Warn("Fetch failed",
			logger.String("kind", string(kind)),
			logger.Int("attempts", result.Attempts),
			logger.Error(err),
		)
		return result
	}

	result.FinalURL = got.finalURL
	result.StatusCode = got.status
	result.RawHTML = got.body
	result.ContentType = got.contentType
	result.LastModified = got.lastModified

	if len(got.body) >= s.f.cfg.MaxBodyBytes {
		log.Warn("Response body truncated", logger.Int("max_body_bytes", s.f.cfg.MaxBodyBytes))
	}
	log.Debug("Fetched page",
		logger.Int("status", got.status),
		logger.Int("attempts", result.Attempts),
		logger.Duration("duration", result.Duration),
	)
	return result
}

// FetchSubpages fetches the configured fixed subpages of base within the session.
// Subpages on other hosts are ignored.
func (s *Session) FetchSubpages(ctx context.Context, base *url.URL) []domain.FetchResult {
	results := make([]domain.FetchResult, 0, len(s.f.cfg.Subpages))
	for _, sub := range s.f.cfg.Subpages {
		ref, err := url.Parse(sub)
		if err != nil {
			continue
		}
		target := base.ResolveReference(ref)
		if target.Host != base.Host {
			continue
		}
		results = append(results, s.Fetch(ctx, target.String()))
	}
	return results
}

func (s *Session) recordAttempt(rawURL string, p page, err error) {
	check := domain.PageCheck{URL: rawURL, StatusCode: p.status}
	if p.finalURL != "" {
		check.URL = p.finalURL
	}
	if err != nil {
		check.Error = err.Error()
	}
	s.recordPage(check)
}

func (s *Session) checkRobots(ctx context.Context, rawURL string) error {
	if s.f.robots == nil {
		return nil
	}
	allowed, err := s.f.robots.IsAllowed(ctx, rawURL)
	if err != nil {
		// Unparsable URLs surface again, with a better message, on the page request.
		return nil //nolint:nilerr // robots lookups never block a fetch on their own
	}
	if !allowed {
		return errDisallowed
	}
	return nil
}

// crawlDelay is the Crawl-delay rawURL's host declared, when the robots
// checker knows it.
func (s *Session) crawlDelay(rawURL string) time.Duration {
	delayer, ok := s.f.robots.(CrawlDelayer)
	if !ok {
		return 0
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return 0
	}
	return delayer.CrawlDelay(u.Host)
}

// attempt performs a single paced request through a fresh collector bound to
// the session's cookie jar. The pause before it is at least the host's
// Crawl-delay.
func (s *Session) attempt(ctx context.Context, rawURL string) (page, error) {
	delay := randomDelay(s.f.cfg.DelayMin, s.f.cfg.DelayMax)
	if crawl := s.crawlDelay(rawURL); crawl > delay {
		delay = crawl
	}
	if err := sleepCtx(ctx, delay); err != nil {
		return page{}, err
	}
	if err := s.f.pacer.Wait(ctx); err != nil {
		return page{}, err
	}

	attemptCtx, cancel := context.WithTimeout(ctx, s.f.cfg.RequestTimeout)
	defer cancel()

	c := s.newCollector(attemptCtx)

	var p page
	c.OnResponse(func(r *colly.Response) {
		p = page{
			finalURL:     r.Request.URL.String(),
			status:       r.StatusCode,
			body:         string(r.Body),
			contentType:  r.Headers.Get("Content-Type"),
			lastModified: r.Headers.Get("Last-Modified"),
		}
	})

	if err := c.Visit(rawURL); err != nil {
		return p, fmt.Errorf("visit %s: %w", rawURL, err)
	}
	if p.status < http.StatusOK || p.status >= http.StatusMultipleChoices {
		failed := p
		failed.body = ""
		return failed, &statusError{code: p.status}
	}
	return p, nil
}

func (s *Session) newCollector(ctx context.Context) *colly.Collector {
	c := colly.NewCollector(
		colly.StdlibContext(ctx),
		colly.ParseHTTPErrorResponse(),
		colly.IgnoreRobotsTxt(),
		colly.AllowURLRevisit(),
		colly.MaxBodySize(s.f.cfg.MaxBodyBytes),
		colly.DetectCharset(),
	)
	c.SetRequestTimeout(s.f.cfg.RequestTimeout)
	c.SetCookieJar(s.jar)
	c.OnRequest(func(r *colly.Request) {
		applyIdentity(r.Headers)
	})
	return c
}

func (f *Fetcher) retryPolicy(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = f.cfg.BackoffInitial
	b.MaxInterval = f.cfg.BackoffMax
	b.RandomizationFactor = backoffRandomization
	b.MaxElapsedTime = 0
	b.Reset()

	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(f.cfg.MaxRetries)), ctx)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
