package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestIntervalSchedulerRunsImmediatelyAndRepeats(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("UTC+3", 3*3600)
	sched := NewIntervalScheduler(10*time.Millisecond, loc)

	var runs atomic.Int32
	var zoneOK atomic.Bool
	zoneOK.Store(true)
	err := sched.Start(context.Background(), func(trigger time.Time) {
		if trigger.Location() != loc {
			zoneOK.Store(false)
		}
		runs.Add(1)
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for runs.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if err := sched.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if runs.Load() < 3 {
		t.Fatalf("expected at least 3 runs, got %d", runs.Load())
	}
	if !zoneOK.Load() {
		t.Fatalf("trigger times must use the configured location")
	}

	after := runs.Load()
	time.Sleep(30 * time.Millisecond)
	if runs.Load() != after {
		t.Fatalf("job ran after Stop")
	}
}

func TestIntervalSchedulerStopWaitsForJob(t *testing.T) {
	t.Parallel()

	sched := NewIntervalScheduler(time.Hour, nil)
	started := make(chan struct{})
	release := make(chan struct{})
	var finished atomic.Bool

	_ = sched.Start(context.Background(), func(time.Time) {
		close(started)
		<-release
		finished.Store(true)
	})
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := sched.Stop(ctx); err == nil {
		t.Fatalf("stop should time out while the job is running")
	}

	close(release)
	if err := sched.Stop(context.Background()); err != nil {
		t.Fatalf("second stop: %v", err)
	}
	if !finished.Load() {
		t.Fatalf("stop returned before the job finished")
	}
}
