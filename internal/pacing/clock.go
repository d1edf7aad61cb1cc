// Package pacing provides the shared clock that enforces a minimum interval
// between outbound requests across a whole batch.
package pacing

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/jonesrussell/north-cloud/enrichment/internal/logger"
)

// Pacer blocks until the next outbound request may be issued.
type Pacer interface {
	Wait(ctx context.Context) error
}

// Clock is a token bucket with burst 1, so consecutive Wait calls return at
// least Interval apart no matter how many goroutines share it.
type Clock struct {
	name     string
	interval time.Duration
	limiter  *rate.Limiter
	logger   logger.Logger
}

// NewClock creates a pacing clock. A non-positive interval disables pacing.
func NewClock(name string, interval time.Duration, log logger.Logger) *Clock {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	if log == nil {
		log = logger.NewNop()
	}

	return &Clock{
		name:     name,
		interval: interval,
		limiter:  rate.NewLimiter(limit, 1),
		logger:   log,
	}
}

// Wait blocks until the clock grants the next slot or ctx is done.
func (c *Clock) Wait(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		c.logger.Debug("Pacing wait aborted",
			logger.String("clock", c.name),
			logger.Error(err),
		)
		return fmt.Errorf("pacing %s: %w", c.name, err)
	}
	return nil
}

// Interval returns the configured minimum spacing.
func (c *Clock) Interval() time.Duration {
	return c.interval
}

// Name returns the clock's name.
func (c *Clock) Name() string {
	return c.name
}

// Unpaced never blocks.
type Unpaced struct{}

// Wait returns immediately unless ctx is already done.
func (Unpaced) Wait(ctx context.Context) error {
	return ctx.Err()
}
