// Package cron schedules the gateway's maintenance jobs: the nightly session
// memory flush and the daily cost rollup.
package cron

import (
	"fmt"
	"log"
	"sync"
	"time"

	rcron "github.com/robfig/cron/v3"
)

// JobState records the last execution outcome for the status command.
type JobState struct {
	LastRunAtMs int64  `json:"lastRunAtMs"`
	LastStatus  string `json:"lastStatus,omitempty"` // ok | error
	LastError   string `json:"lastError,omitempty"`
}

// Job is one registered maintenance task.
type Job struct {
	Name  string   `json:"name"`
	Expr  string   `json:"expr"` // six-field cron expression, seconds first
	State JobState `json:"state"`
}

type Service struct {
	mu       sync.Mutex
	jobs     []Job
	handlers map[string]func() error
	cron     *rcron.Cron
	started  bool
}

func NewService() *Service {
	return &Service{handlers: make(map[string]func() error)}
}

// Register adds a named job. Must be called before Start.
func (s *Service) Register(name, expr string, fn func() error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, Job{Name: name, Expr: expr})
	s.handlers[name] = fn
}

func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}

	s.cron = rcron.New(rcron.WithSeconds())
	for i := range s.jobs {
		name := s.jobs[i].Name
		if _, err := s.cron.AddFunc(s.jobs[i].Expr, func() {
			s.executeJob(name)
		}); err != nil {
			return fmt.Errorf("register job %s (%s): %w", name, s.jobs[i].Expr, err)
		}
	}

	s.cron.Start()
	s.started = true
	log.Printf("[cron] started with %d jobs", len(s.jobs))
	return nil
}

func (s *Service) executeJob(name string) {
	s.mu.Lock()
	fn := s.handlers[name]
	s.mu.Unlock()
	if fn == nil {
		return
	}

	log.Printf("[cron] executing job %s", name)
	err := fn()

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.jobs {
		if s.jobs[i].Name != name {
			continue
		}
		s.jobs[i].State.LastRunAtMs = time.Now().UnixMilli()
		if err != nil {
			s.jobs[i].State.LastStatus = "error"
			s.jobs[i].State.LastError = err.Error()
			log.Printf("[cron] job %s error: %v", name, err)
		} else {
			s.jobs[i].State.LastStatus = "ok"
			s.jobs[i].State.LastError = ""
		}
		break
	}
}

// RunNow triggers a job outside its schedule.
func (s *Service) RunNow(name string) {
	s.executeJob(name)
}

func (s *Service) ListJobs() []Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]Job, len(s.jobs))
	copy(result, s.jobs)
	return result
}

func (s *Service) Stop() {
	s.mu.Lock()
	cron := s.cron
	s.cron = nil
	s.started = false
	s.mu.Unlock()

	if cron != nil {
		stopCtx := cron.Stop()
		select {
		case <-stopCtx.Done():
		case <-time.After(5 * time.Second):
			log.Printf("[cron] stop timeout waiting for running jobs")
		}
	}
	log.Printf("[cron] stopped")
}
