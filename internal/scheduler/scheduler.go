package scheduler

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Job is one unit of periodic work.
type Job func(ctx context.Context) error

// Status is a snapshot of the scheduler.
type Status struct {
	Running   bool          `json:"running"`
	Interval  time.Duration `json:"interval"`
	LastRun   *time.Time    `json:"lastRun,omitempty"`
	Runs      int           `json:"runs"`
	LastError string        `json:"lastError,omitempty"`
}

// Scheduler runs a job on a fixed interval until stopped.
type Scheduler struct {
	interval time.Duration
	job      Job

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
	lastRun time.Time
	runs    int
	lastErr error
}

// New creates a stopped scheduler.
func New(interval time.Duration, job Job) *Scheduler {
	return &Scheduler{interval: interval, job: job}
}

// Start launches the loop; it returns false if already running. The first run
// happens after one interval.
func (s *Scheduler) Start(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return false
	}

	ctx, cancel := context.WithCancel(ctx)
	s.running = true
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.loop(ctx, s.done)

	log.WithField("interval", s.interval).Info("Scheduler started")
	return true
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.RunOnce(ctx); err != nil {
				log.WithError(err).Error("Scheduled job failed")
			}
		}
	}
}

// Stop cancels the loop and waits for an in-flight run to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	cancel()
	<-done
	log.Info("Scheduler stopped")
}

// RunOnce runs the job immediately and records the outcome.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	err := s.job(ctx)

	s.mu.Lock()
	s.lastRun = time.Now()
	s.runs++
	s.lastErr = err
	s.mu.Unlock()
	return err
}

// Status returns the current state.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{Running: s.running, Interval: s.interval, Runs: s.runs}
	if !s.lastRun.IsZero() {
		last := s.lastRun
		st.LastRun = &last
	}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	return st
}
