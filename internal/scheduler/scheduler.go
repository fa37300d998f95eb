package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/labstack/gommon/log"
)

// Job is one run of a scheduled task.
type Job func(ctx context.Context) error

// Every runs job once immediately and then on every tick of interval until ctx ends or the
// returned stop func is called. stop waits for a running job to return.
func Every(ctx context.Context, name string, interval time.Duration, job Job) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		run(ctx, name, job)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				run(ctx, name, job)
			case <-ctx.Done():
				return
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

func run(ctx context.Context, name string, job Job) {
	if ctx.Err() != nil {
		return
	}
	if err := job(ctx); err != nil {
		log.Warnf("scheduler %s: %v", name, err)
	}
}

// Scheduler owns a set of interval jobs and stops them together.
type Scheduler struct {
	ctx context.Context

	mu    sync.Mutex
	stops []func()
}

func New(ctx context.Context) *Scheduler {
	return &Scheduler{ctx: ctx}
}

// Every registers a job. A non-positive interval disables it.
func (s *Scheduler) Every(name string, interval time.Duration, job Job) {
	if interval <= 0 {
		log.Infof("scheduler %s: disabled", name)
		return
	}
	stop := Every(s.ctx, name, interval, job)

	s.mu.Lock()
	s.stops = append(s.stops, stop)
	s.mu.Unlock()
	log.Infof("scheduler %s: every %s", name, interval)
}

// Stop stops every job and waits for them to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	stops := s.stops
	s.stops = nil
	s.mu.Unlock()

	for _, stop := range stops {
		stop()
	}
}
