// Package ratelimit spaces out requests to the air quality API.
package ratelimit

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"
)

// Pacer lets one request through per interval.
type Pacer struct {
	limiter *rate.Limiter
	waits   prometheus.Observer
}

// NewPacer allows one request every interval. A zero interval disables
// pacing. When waits is not nil every Wait reports its delay in seconds.
func NewPacer(interval time.Duration, waits prometheus.Observer) *Pacer {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Pacer{limiter: rate.NewLimiter(limit, 1), waits: waits}
}

// Wait blocks until the next request may go out or ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	start := time.Now()
	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}
	if p.waits != nil {
		p.waits.Observe(time.Since(start).Seconds())
	}
	return nil
}
