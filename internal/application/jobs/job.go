package jobs

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/logger"
	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/metrics"
	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/telemetry"
)

// Job is an idempotent unit of background work. Jobs know nothing about
// how they are triggered: the in-process Scheduler and the one-shot CLI
// both call Run.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

type Registry struct {
	jobs map[string]Job
}

func NewRegistry(jobs ...Job) *Registry {
	r := &Registry{jobs: make(map[string]Job, len(jobs))}
	for _, j := range jobs {
		r.jobs[j.Name()] = j
	}
	return r
}

func (r *Registry) Get(name string) (Job, error) {
	j, ok := r.jobs[name]
	if !ok {
		return nil, fmt.Errorf("unknown job %q (available: %v)", name, r.Names())
	}
	return j, nil
}

// Names returns the registered job names, sorted.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.jobs))
	for name := range r.jobs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Execute runs j once, recording duration and outcome. Failures are logged
// and reported to Sentry before being returned.
func Execute(ctx context.Context, j Job) error {
	log := logger.Component("jobs").With().Str("job", j.Name()).Logger()
	start := time.Now()
	log.Info().Msg("job started")

	err := j.Run(ctx)
	d := time.Since(start)
	if err != nil {
		metrics.RecordJob(j.Name(), "error", d)
		log.Error().Err(err).Dur("duration", d).Msg("job failed")
		telemetry.CaptureError(ctx, err, map[string]string{"job": j.Name()})
		return err
	}
	metrics.RecordJob(j.Name(), "ok", d)
	log.Info().Dur("duration", d).Msg("job finished")
	return nil
}
