package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"companion-bot/internal/delay"
)

// JitterSchedule fires at a uniformly random interval in [Min, Max) after
// the previous run.
type JitterSchedule struct {
	Min time.Duration
	Max time.Duration
	Rnd delay.Source
}

func (s JitterSchedule) Next(t time.Time) time.Time {
	rnd := s.Rnd
	if rnd == nil {
		rnd = delay.DefaultSource
	}
	if s.Max <= s.Min {
		return t.Add(s.Min)
	}
	d := delay.Uniform(rnd, float64(s.Min), float64(s.Max))
	return t.Add(time.Duration(d))
}

// Scheduler runs one background job on a cron schedule.
type Scheduler struct {
	cron     *cron.Cron
	ctx      context.Context
	cancel   context.CancelFunc
	name     string
	schedule cron.Schedule
	jobFunc  func(ctx context.Context) error
}

func New(loc *time.Location, schedule cron.Schedule) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	logger := cron.PrintfLogger(log.Default())

	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		ctx:      ctx,
		cancel:   cancel,
		schedule: schedule,
	}
}

// SetJob sets the function executed on every tick.
func (s *Scheduler) SetJob(name string, f func(ctx context.Context) error) {
	s.name = name
	s.jobFunc = f
}

func (s *Scheduler) Start() error {
	if s.jobFunc == nil {
		log.Println("⚠️ Job function not set, scheduler will not run")
		return nil
	}

	s.cron.Schedule(s.schedule, cron.FuncJob(func() {
		if err := s.jobFunc(s.ctx); err != nil {
			log.Printf("❌ %s failed: %v", s.name, err)
		}
	}))

	s.cron.Start()
	if entries := s.cron.Entries(); len(entries) > 0 {
		log.Printf("📅 Scheduler started - next %s at %s", s.name, entries[0].Next.Format(time.RFC3339))
	} else {
		log.Printf("📅 Scheduler started - %s", s.name)
	}
	return nil
}

// Stop cancels the running job and waits for it to return.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
	log.Println("📅 Scheduler stopped")
}

func (s *Scheduler) IsRunning() bool {
	return s.cron != nil && len(s.cron.Entries()) > 0
}
