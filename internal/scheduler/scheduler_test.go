package scheduler

import (
	"context"
	"math/rand/v2"
	"sync/atomic"
	"testing"
	"time"
)

func TestJitterScheduleBounds(t *testing.T) {
	s := JitterSchedule{Min: 45 * time.Minute, Max: 120 * time.Minute, Rnd: rand.New(rand.NewPCG(1, 1))}
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 1000; i++ {
		d := s.Next(base).Sub(base)
		if d < 45*time.Minute || d >= 120*time.Minute {
			t.Fatalf("interval %s out of [45m, 120m)", d)
		}
	}
}

func TestSchedulerRunsJobUntilStopped(t *testing.T) {
	s := New(time.UTC, JitterSchedule{Min: 10 * time.Millisecond, Max: 20 * time.Millisecond})
	var runs atomic.Int32
	done := make(chan struct{}, 1)
	s.SetJob("test job", func(ctx context.Context) error {
		if runs.Add(1) == 1 {
			done <- struct{}{}
		}
		return nil
	})
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if !s.IsRunning() {
		t.Fatalf("scheduler should report running")
	}
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatalf("job never ran")
	}
	s.Stop()
	after := runs.Load()
	time.Sleep(100 * time.Millisecond)
	if runs.Load() != after {
		t.Fatalf("job kept running after Stop")
	}
}

func TestSchedulerWithoutJobIsNoop(t *testing.T) {
	s := New(time.UTC, JitterSchedule{Min: time.Hour, Max: 2 * time.Hour})
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if s.IsRunning() {
		t.Fatalf("scheduler without job must not have entries")
	}
	s.Stop()
}
