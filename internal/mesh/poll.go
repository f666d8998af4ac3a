package mesh

import (
	"context"
	"time"
)

// Convergence constants. The radio pushes state asynchronously; operations
// that need a particular datum sample the cache rather than blocking on a
// reply that may never come.
const (
	// pollInterval is how often convergence waits sample the cache.
	pollInterval = 250 * time.Millisecond

	// freshWindow is the age under which a cached value short-circuits a
	// network request.
	freshWindow = 30 * time.Second

	// configReadDelay is the fixed request-to-read delay for config
	// values. Config responses carry no usable correlation, so the cache
	// is simply given time to absorb the reply.
	configReadDelay = 500 * time.Millisecond
)

// waitForState samples the cache every pollInterval until check accepts a
// snapshot or the context expires. Returns false on expiry.
func (c *Client) waitForState(ctx context.Context, check func(*DeviceState) bool) bool {
	if check(c.state.snapshot()) {
		return true
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
			if check(c.state.snapshot()) {
				return true
			}
		}
	}
}

// sleepCtx waits for d unless the context expires first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
