package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/logger"
)

// Schedule binds a job to a fixed interval.
type Schedule struct {
	Job       Job
	Interval  time.Duration
	RunAtBoot bool
}

// Scheduler runs each schedule on its own ticker until the context ends.
// A run never overlaps with the next tick of the same job.
type Scheduler struct {
	schedules []Schedule
	wg        sync.WaitGroup
}

func NewScheduler(schedules ...Schedule) *Scheduler {
	return &Scheduler{schedules: schedules}
}

// Start launches one goroutine per schedule and returns immediately.
func (s *Scheduler) Start(ctx context.Context) {
	for _, sc := range s.schedules {
		if sc.Interval <= 0 {
			continue
		}
		s.wg.Add(1)
		go s.loop(ctx, sc)
	}
}

// Wait blocks until every loop has exited.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, sc Schedule) {
	defer s.wg.Done()
	log := logger.Component("scheduler").With().Str("job", sc.Job.Name()).Logger()
	log.Info().Dur("interval", sc.Interval).Msg("scheduled")

	ticker := time.NewTicker(sc.Interval)
	defer ticker.Stop()

	if sc.RunAtBoot {
		_ = Execute(ctx, sc.Job)
	}

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("stopped")
			return
		case <-ticker.C:
			_ = Execute(ctx, sc.Job)
		}
	}
}
