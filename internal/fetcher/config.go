package fetcher

import "time"

// Default configuration values.
const (
	defaultRequestTimeout  = 15 * time.Second
	defaultTotalTimeout    = 60 * time.Second
	defaultBackoffInitial  = time.Second
	defaultBackoffMax      = 10 * time.Second
	defaultMaxBodyBytes    = 5 * 1024 * 1024
	defaultRobotsUserAgent = "NorthCloud-Enrichment/1.0"
	defaultRobotsCacheTTL  = 24 * time.Hour
)

// Config holds fetcher configuration.
//
// DelayMin and DelayMax bound the random pause before every attempt; leaving
// both zero disables the pause. MaxRetries counts retries after the first attempt.
type Config struct {
	RequestTimeout  time.Duration `env:"FETCHER_REQUEST_TIMEOUT"   yaml:"request_timeout"`
	TotalTimeout    time.Duration `env:"FETCHER_TOTAL_TIMEOUT"     yaml:"total_timeout"`
	MaxRetries      int           `env:"FETCHER_MAX_RETRIES"       yaml:"max_retries"`
	BackoffInitial  time.Duration `env:"FETCHER_BACKOFF_INITIAL"   yaml:"backoff_initial"`
	BackoffMax      time.Duration `env:"FETCHER_BACKOFF_MAX"       yaml:"backoff_max"`
	DelayMin        time.Duration `env:"FETCHER_DELAY_MIN"         yaml:"delay_min"`
	DelayMax        time.Duration `env:"FETCHER_DELAY_MAX"         yaml:"delay_max"`
	RespectRobots   bool          `env:"FETCHER_RESPECT_ROBOTS"    yaml:"respect_robots"`
	RobotsUserAgent string        `env:"FETCHER_ROBOTS_USER_AGENT" yaml:"robots_user_agent"`
	RobotsCacheTTL  time.Duration `env:"FETCHER_ROBOTS_CACHE_TTL"  yaml:"robots_cache_ttl"`
	MaxBodyBytes    int           `env:"FETCHER_MAX_BODY_BYTES"    yaml:"max_body_bytes"`
	Subpages        []string      `env:"FETCHER_SUBPAGES"          yaml:"subpages"`
}

// WithDefaults returns a copy of the config with default values applied for zero-value fields.
func (c Config) WithDefaults() Config {
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = defaultRequestTimeout
	}
	if c.TotalTimeout <= 0 {
		c.TotalTimeout = defaultTotalTimeout
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.BackoffInitial <= 0 {
		c.BackoffInitial = defaultBackoffInitial
	}
	if c.BackoffMax < c.BackoffInitial {
		c.BackoffMax = max(defaultBackoffMax, c.BackoffInitial)
	}
	if c.DelayMax < c.DelayMin {
		c.DelayMax = c.DelayMin
	}
	if c.RobotsUserAgent == "" {
		c.RobotsUserAgent = defaultRobotsUserAgent
	}
	if c.RobotsCacheTTL <= 0 {
		c.RobotsCacheTTL = defaultRobotsCacheTTL
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = defaultMaxBodyBytes
	}
	return c
}
