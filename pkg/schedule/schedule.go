// Package schedule runs named background jobs at fixed intervals inside the
// API server process.
//
//	s := schedule.New()
//	s.Add(schedule.Job{Name: "orders:status-gauge", Every: time.Minute, Run: refresh})
//	go s.Start(ctx)
package schedule

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/eadens/cakeworld/pkg/logger"
	"github.com/eadens/cakeworld/pkg/metrics"
)

// Job is one recurring task. A run that is still going when the next one is
// due is skipped unless Overlap is set.
type Job struct {
	Name    string
	Every   time.Duration
	Run     func(ctx context.Context) error
	Overlap bool
}

type slot struct {
	job     Job
	lastRun time.Time
	running int
}

type Scheduler struct {
	mu    sync.Mutex
	slots []*slot
	wg    sync.WaitGroup
}

func New() *Scheduler { return &Scheduler{} }

// Add registers j. It panics on an empty name, a non-positive interval or a
// nil Run.
func (s *Scheduler) Add(j Job) {
	if j.Name == "" || j.Every <= 0 || j.Run == nil {
		panic(fmt.Sprintf("schedule: invalid job %q", j.Name))
	}
	s.mu.Lock()
	s.slots = append(s.slots, &slot{job: j})
	s.mu.Unlock()
}

// Jobs lists the registered jobs in registration order.
func (s *Scheduler) Jobs() []Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Job, len(s.slots))
	for i, sl := range s.slots {
		out[i] = sl.job
	}
	return out
}

// Start ticks once a second until ctx is done, then waits for running jobs
// to return.
func (s *Scheduler) Start(ctx context.Context) {
	logger.Info("schedule: started", "jobs", len(s.Jobs()))
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	s.Tick(ctx, time.Now())
	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			logger.Info("schedule: stopped")
			return
		case now := <-ticker.C:
			s.Tick(ctx, now)
		}
	}
}

// Tick launches every job due at now. A job is due on its first tick and
// then once Every has passed since its last launch.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sl := range s.slots {
		if !sl.lastRun.IsZero() && now.Sub(sl.lastRun) < sl.job.Every {
			continue
		}
		if sl.running > 0 && !sl.job.Overlap {
			logger.Warn("schedule: previous run still going, skipping", "job", sl.job.Name)
			continue
		}
		sl.lastRun = now
		sl.running++
		s.wg.Add(1)
		go s.run(ctx, sl)
	}
}

// Wait blocks until every launched run has returned.
func (s *Scheduler) Wait() { s.wg.Wait() }

func (s *Scheduler) run(ctx context.Context, sl *slot) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("schedule: job panicked", "job", sl.job.Name, "panic", r)
			metrics.JobRuns.WithLabelValues(sl.job.Name, "panic").Inc()
		}
		s.mu.Lock()
		sl.running--
		s.mu.Unlock()
		s.wg.Done()
	}()

	if err := sl.job.Run(ctx); err != nil {
		logger.Warn("schedule: job failed", "job", sl.job.Name, "error", err, "duration", time.Since(start))
		metrics.JobRuns.WithLabelValues(sl.job.Name, "error").Inc()
		return
	}
	metrics.JobRuns.WithLabelValues(sl.job.Name, "ok").Inc()
	logger.Debug("schedule: job done", "job", sl.job.Name, "duration", time.Since(start))
}
