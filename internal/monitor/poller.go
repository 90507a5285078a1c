package monitor

import (
	"context"
	"time"
)

// Poller requests a scan at a fixed interval. It is the source used when
// no copy log is configured.
type Poller struct {
	interval time.Duration
	queue    *Queue
}

// NewPoller creates a Poller.
func NewPoller(interval time.Duration, queue *Queue) *Poller {
	return &Poller{interval: interval, queue: queue}
}

// Run polls until ctx is done.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			p.queue.Request()
		}
	}
}
