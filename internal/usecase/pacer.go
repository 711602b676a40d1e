package usecase

import (
	"context"
	"sync"
	"time"
)

// pacer is a minimum-interval gate shared by every worker of one batch.
// Only the timing decision is serialized; calls themselves run unlocked.
type pacer struct {
	interval time.Duration
	now      func() time.Time
	sleep    func(context.Context, time.Duration) error

	mu   sync.Mutex
	next time.Time
}

func newPacer(interval time.Duration, now func() time.Time, sleep func(context.Context, time.Duration) error) *pacer {
	return &pacer{interval: interval, now: now, sleep: sleep}
}

// Wait blocks until a call may start and reserves that slot.
func (p *pacer) Wait(ctx context.Context) error {
	if p.interval <= 0 {
		return ctx.Err()
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		p.mu.Lock()
		now := p.now()
		remaining := p.next.Sub(now)
		if remaining <= 0 {
			p.next = now.Add(p.interval)
			p.mu.Unlock()
			return nil
		}
		p.mu.Unlock()

		if err := p.sleep(ctx, remaining); err != nil {
			return err
		}
	}
}

// Done records a call completion; the next start is pushed to at least completion+interval.
func (p *pacer) Done() {
	if p.interval <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if earliest := p.now().Add(p.interval); earliest.After(p.next) {
		p.next = earliest
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
