package worker

import (
	"errors"
	"strings"
	"sync/atomic"
	"testing"
)

func TestRunAllRunsEveryJob(t *testing.T) {
	var count int64
	jobs := make([]Job, 20)
	for i := range jobs {
		jobs[i] = func() error {
			atomic.AddInt64(&count, 1)
			return nil
		}
	}

	stats, err := RunAll(4, jobs)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if count != 20 {
		t.Errorf("Expected 20 jobs run, got %d", count)
	}
	if stats.Submitted != 20 || stats.Completed != 20 || stats.Failed != 0 {
		t.Errorf("Unexpected stats %+v", stats)
	}
}

func TestRunAllJoinsErrors(t *testing.T) {
	errA := errors.New("drop A failed")
	errB := errors.New("drop B failed")
	jobs := []Job{
		func() error { return errA },
		func() error { return nil },
		func() error { return errB },
	}

	stats, err := RunAll(2, jobs)
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Fatalf("Expected both errors joined, got %v", err)
	}
	if stats.Failed != 2 {
		t.Errorf("Expected 2 failures, got %d", stats.Failed)
	}
}

func TestRunAllRecoversPanics(t *testing.T) {
	jobs := []Job{func() error { panic("boom") }}

	stats, err := RunAll(0, jobs)
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("Expected panic converted to error, got %v", err)
	}
	if stats.Completed != 1 || stats.Failed != 1 {
		t.Errorf("Unexpected stats %+v", stats)
	}
}

func TestRunAllEmpty(t *testing.T) {
	stats, err := RunAll(4, nil)
	if err != nil || stats.Submitted != 0 {
		t.Errorf("Expected no-op, got %+v %v", stats, err)
	}
}
