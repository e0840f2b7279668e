package daemon

import (
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// TaskFunc represents a runnable task.
type TaskFunc func() error

// Scheduler runs a task on a cron schedule. The daemon uses it to re-read
// the device calibration registers; the sampling loop itself stays on its
// plain interval timer.
type Scheduler struct {
	task   TaskFunc
	parser cron.Parser

	mu       sync.Mutex
	schedule cron.Schedule
	nextRun  time.Time

	recalcCh chan struct{}
	stopCh   chan struct{}
	started  bool
}

func NewScheduler(task TaskFunc) *Scheduler {
	if task == nil {
		panic("task function cannot be nil")
	}

	return &Scheduler{
		task:     task,
		parser:   cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		recalcCh: make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
	}
}

// Schedule sets the cron spec. An empty spec clears the schedule.
func (s *Scheduler) Schedule(spec string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if spec == "" {
		s.schedule = nil
		s.nextRun = time.Time{}
		s.notifyRecalc()
		return nil
	}

	schedule, err := s.parser.Parse(spec)
	if err != nil {
		return err
	}

	s.schedule = schedule
	s.nextRun = schedule.Next(time.Now())
	s.notifyRecalc()
	return nil
}

// NextRun returns the next scheduled run, or the zero time when unscheduled.
func (s *Scheduler) NextRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextRun
}

func (s *Scheduler) notifyRecalc() {
	select {
	case s.recalcCh <- struct{}{}:
	default:
	}
}

// Start launches the scheduler goroutine. Safe to call with no schedule set;
// the goroutine just waits for one.
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()

	go s.run()
}

// Stop terminates the scheduler goroutine. It does not interrupt a task that
// is already running.
func (s *Scheduler) Stop() {
	close(s.stopCh)
}

func (s *Scheduler) run() {
	// A long idle timer that gets reset whenever the schedule changes.
	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		s.mu.Lock()
		next := s.nextRun
		s.mu.Unlock()

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		if next.IsZero() {
			timer.Reset(time.Hour)
		} else {
			timer.Reset(time.Until(next))
		}

		select {
		case <-s.stopCh:
			return
		case <-s.recalcCh:
			continue
		case <-timer.C:
			if next.IsZero() {
				continue
			}
		}

		logrus.Debug("scheduler firing")
		if err := s.task(); err != nil {
			logrus.Errorf("scheduled task failed: %v", err)
		}

		s.mu.Lock()
		if s.schedule != nil {
			s.nextRun = s.schedule.Next(time.Now())
		}
		s.mu.Unlock()
	}
}
