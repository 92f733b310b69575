package dashboard

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog/log"
)

// MinRefreshInterval is the shortest allowed auto-refresh period.
const MinRefreshInterval = time.Minute

// Scheduler periodically refreshes a Controller's current selection.
type Scheduler struct {
	scheduler *gocron.Scheduler
	ctrl      *Controller
	interval  time.Duration
}

// NewScheduler creates a Scheduler; the interval is clamped to MinRefreshInterval.
func NewScheduler(ctrl *Controller, interval time.Duration) *Scheduler {
	if interval < MinRefreshInterval {
		interval = MinRefreshInterval
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		ctrl:      ctrl,
		interval:  interval,
	}
}

// Interval returns the effective refresh period.
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// Start schedules refreshes. The first one fires after one interval.
func (s *Scheduler) Start() error {
	_, err := s.scheduler.Every(s.interval).WaitForSchedule().Do(s.tick)
	if err != nil {
		return fmt.Errorf("schedule refresh: %w", err)
	}
	s.scheduler.StartAsync()
	log.Info().Str("component", "scheduler").Dur("interval", s.interval).Msg("auto refresh started")
	return nil
}

func (s *Scheduler) tick() {
	if gen, ok := s.ctrl.Refresh(); ok {
		log.Debug().Str("component", "scheduler").Uint64("generation", gen).Msg("refreshing selection")
	}
}

// Stop cancels future refreshes.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}
