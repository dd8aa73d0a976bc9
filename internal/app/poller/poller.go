// Package poller drives periodic schedule queries on the listener side.
package poller

import (
	"context"
	"sync/atomic"
	"time"

	zlog "github.com/rs/zerolog/log"
)

// DefaultInterval is the polling period.
const DefaultInterval = 5 * time.Second

// Target is polled on every tick.
type Target interface {
	Poll(ctx context.Context) error
}

// Poller calls Target.Poll once immediately and then every interval. A
// failed poll is logged and retried on the next tick; it never stops the
// loop.
type Poller struct {
	target   Target
	interval time.Duration

	successes atomic.Int64
	failures  atomic.Int64
}

// New creates a poller. A non-positive interval falls back to
// DefaultInterval.
func New(target Target, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{target: target, interval: interval}
}

// Run polls until ctx is done.
func (p *Poller) Run(ctx context.Context) {
	zlog.Debug().Msgf("poller: started: interval=%v", p.interval)
	defer zlog.Debug().Msg("poller: stopped")

	p.pollOnce(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.pollOnce(ctx)
		}
	}
}

func (p *Poller) pollOnce(ctx context.Context) {
	if err := p.target.Poll(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		n := p.failures.Add(1)
		zlog.Warn().Err(err).Msgf("poller: poll failed: consecutive=%d", n)
		return
	}
	if n := p.failures.Swap(0); n > 0 {
		zlog.Info().Msgf("poller: recovered after %d failures", n)
	}
	p.successes.Add(1)
}

// Successes returns the number of successful polls.
func (p *Poller) Successes() int64 {
	return p.successes.Load()
}

// ConsecutiveFailures returns the number of failures since the last success.
func (p *Poller) ConsecutiveFailures() int64 {
	return p.failures.Load()
}
