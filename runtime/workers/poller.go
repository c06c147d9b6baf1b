package workers

import (
	"context"
	"estate-desk/contract"
	"time"
)

var _ contract.Worker = (*Poller)(nil)

// Poller calls Tick on every interval and whenever Trigger fires.
// Ticks never overlap, a trigger received during a tick runs right after it.
type Poller struct {
	Interval time.Duration
	Trigger  <-chan struct{}
	Tick     func(ctx context.Context)
}

func NewPoller(interval time.Duration, trigger <-chan struct{}, tick func(ctx context.Context)) *Poller {
	return &Poller{Interval: interval, Trigger: trigger, Tick: tick}
}

func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		case <-p.Trigger:
		}
		if ctx.Err() != nil {
			return nil
		}
		p.Tick(ctx)
	}
}
