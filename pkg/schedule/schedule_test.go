package schedule_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/eadens/cakeworld/pkg/schedule"
)

func TestTickRunsDueJobsOncePerInterval(t *testing.T) {
	s := schedule.New()
	var runs atomic.Int32
	s.Add(schedule.Job{Name: "gauge", Every: time.Minute, Run: func(context.Context) error {
		runs.Add(1)
		return nil
	}})

	now := time.Now()
	ctx := context.Background()
	s.Tick(ctx, now)
	s.Wait()
	assert.Equal(t, int32(1), runs.Load())

	s.Tick(ctx, now.Add(30*time.Second))
	s.Wait()
	assert.Equal(t, int32(1), runs.Load())

	s.Tick(ctx, now.Add(61*time.Second))
	s.Wait()
	assert.Equal(t, int32(2), runs.Load())
}

func TestOverlappingRunSkipped(t *testing.T) {
	s := schedule.New()
	release := make(chan struct{})
	var runs atomic.Int32
	s.Add(schedule.Job{Name: "slow", Every: time.Second, Run: func(context.Context) error {
		runs.Add(1)
		<-release
		return nil
	}})

	now := time.Now()
	s.Tick(context.Background(), now)
	s.Tick(context.Background(), now.Add(2*time.Second))
	close(release)
	s.Wait()
	assert.Equal(t, int32(1), runs.Load())
}

func TestFailingAndPanickingJobsDoNotStopOthers(t *testing.T) {
	s := schedule.New()
	var ok atomic.Bool
	s.Add(schedule.Job{Name: "fails", Every: time.Minute, Run: func(context.Context) error { return errors.New("db down") }})
	s.Add(schedule.Job{Name: "panics", Every: time.Minute, Run: func(context.Context) error { panic("boom") }})
	s.Add(schedule.Job{Name: "fine", Every: time.Minute, Run: func(context.Context) error {
		ok.Store(true)
		return nil
	}})

	s.Tick(context.Background(), time.Now())
	s.Wait()
	assert.True(t, ok.Load())
}

func TestStartStopsWithContext(t *testing.T) {
	s := schedule.New()
	var runs atomic.Int32
	s.Add(schedule.Job{Name: "gauge", Every: time.Hour, Run: func(context.Context) error {
		runs.Add(1)
		return nil
	}})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()
	assert.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestJobsListsRegistrations(t *testing.T) {
	s := schedule.New()
	s.Add(schedule.Job{Name: "a", Every: time.Minute, Run: func(context.Context) error { return nil }})
	s.Add(schedule.Job{Name: "b", Every: 5 * time.Minute, Run: func(context.Context) error { return nil }})

	jobs := s.Jobs()
	assert.Equal(t, "a", jobs[0].Name)
	assert.Equal(t, 5*time.Minute, jobs[1].Every)
	assert.Panics(t, func() { s.Add(schedule.Job{Name: "bad"}) })
}
