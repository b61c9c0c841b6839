package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"tradedesk/internal/logger"
)

func init() {
	logger.Init("test")
}

func TestAddJob_InvalidSchedule(t *testing.T) {
	s := New()
	err := s.AddJob("not a schedule", JobFunc{JobName: "bad", Fn: func(context.Context) error { return nil }})
	if err == nil {
		t.Fatal("expected error for invalid schedule")
	}
}

func TestAddJob_AcceptsSecondsAndDescriptors(t *testing.T) {
	s := New()
	noop := JobFunc{JobName: "noop", Fn: func(context.Context) error { return nil }}
	for _, spec := range []string{"@every 15s", "0 30 16 * * MON-FRI", "30 16 * * MON-FRI", "@hourly"} {
		if err := s.AddJob(spec, noop); err != nil {
			t.Errorf("schedule %q rejected: %v", spec, err)
		}
	}
}

func TestScheduler_RunsJobs(t *testing.T) {
	s := New()
	var runs atomic.Int32
	done := make(chan struct{}, 1)

	err := s.AddJob("@every 1s", JobFunc{JobName: "count", Fn: func(context.Context) error {
		if runs.Add(1) == 1 {
			done <- struct{}{}
		}
		return errors.New("failures are logged, not fatal")
	}})
	if err != nil {
		t.Fatal(err)
	}

	s.Start()
	defer s.Stop()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("job did not run")
	}
}

func TestStop_CancelsRunningJob(t *testing.T) {
	s := New()
	started := make(chan struct{}, 1)
	stopped := make(chan error, 1)

	err := s.AddJob("@every 1s", JobFunc{JobName: "block", Fn: func(ctx context.Context) error {
		select {
		case started <- struct{}{}:
		default:
		}
		<-ctx.Done()
		stopped <- ctx.Err()
		return ctx.Err()
	}})
	if err != nil {
		t.Fatal(err)
	}

	s.Start()
	select {
	case <-started:
	case <-time.After(3 * time.Second):
		t.Fatal("job did not start")
	}
	s.Stop()

	select {
	case err := <-stopped:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	default:
		t.Error("Stop returned before the job finished")
	}
}

func TestRunNow(t *testing.T) {
	s := New()
	want := errors.New("boom")
	got := s.RunNow(JobFunc{JobName: "now", Fn: func(context.Context) error { return want }})
	if !errors.Is(got, want) {
		t.Errorf("expected job error, got %v", got)
	}
}
