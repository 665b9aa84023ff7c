package cron

import (
	"fmt"
	"testing"
)

func TestRunNowRecordsState(t *testing.T) {
	s := NewService()
	ran := false
	s.Register("flush", "0 0 3 * * *", func() error {
		ran = true
		return nil
	})

	s.RunNow("flush")

	if !ran {
		t.Fatal("handler did not run")
	}
	jobs := s.ListJobs()
	if len(jobs) != 1 {
		t.Fatalf("jobs = %d, want 1", len(jobs))
	}
	if jobs[0].State.LastStatus != "ok" {
		t.Errorf("last status = %q, want ok", jobs[0].State.LastStatus)
	}
	if jobs[0].State.LastRunAtMs == 0 {
		t.Error("last run timestamp not recorded")
	}
}

func TestRunNowRecordsError(t *testing.T) {
	s := NewService()
	s.Register("rollup", "0 30 3 * * *", func() error {
		return fmt.Errorf("store unavailable")
	})

	s.RunNow("rollup")

	jobs := s.ListJobs()
	if jobs[0].State.LastStatus != "error" {
		t.Errorf("last status = %q, want error", jobs[0].State.LastStatus)
	}
	if jobs[0].State.LastError == "" {
		t.Error("last error not recorded")
	}
}

func TestStartRejectsBadExpression(t *testing.T) {
	s := NewService()
	s.Register("bad", "not-a-cron-expr", func() error { return nil })

	if err := s.Start(); err == nil {
		t.Error("expected error for invalid cron expression")
	}
	s.Stop()
}

func TestStopWithoutStart(t *testing.T) {
	s := NewService()
	s.Stop() // must not panic
}
