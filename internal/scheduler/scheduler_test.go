package scheduler

import (
	"errors"
	"testing"
)

func TestAddJobValidatesInput(t *testing.T) {
	s, err := New()
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	defer s.Stop()

	if _, err := s.AddJob("", "* * * * *", func() {}); !errors.Is(err, ErrEmptyJobName) {
		t.Errorf("expected ErrEmptyJobName, got %v", err)
	}
	if _, err := s.AddJob("sweep", "  ", func() {}); !errors.Is(err, ErrEmptyCronExpr) {
		t.Errorf("expected ErrEmptyCronExpr, got %v", err)
	}
	if _, err := s.AddJob("sweep", "not a cron", func() {}); err == nil {
		t.Error("expected invalid cron expression to fail")
	}
}

func TestAddJobAndStop(t *testing.T) {
	s, err := New()
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}

	job, err := s.AddJob("toast-sweep", "* * * * *", func() {})
	if err != nil {
		t.Fatalf("add job: %v", err)
	}
	if job.Name() != "toast-sweep" {
		t.Errorf("unexpected job name: %q", job.Name())
	}

	s.Start()
	if err := s.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	// Stop is idempotent.
	if err := s.Stop(); err != nil {
		t.Fatalf("second stop: %v", err)
	}
}
