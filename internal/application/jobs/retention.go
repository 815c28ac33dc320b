package jobs

import (
	"context"
	"fmt"

	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/logger"
)

const NameRetention = "retention"

// Retention deletes interactions and exposures older than the retention window.
type Retention struct {
	interactions Purger
	exposures    Purger
	clock        Clock
	days         int
}

func NewRetention(interactions, exposures Purger, clock Clock, days int) *Retention {
	if days <= 0 {
		days = 180
	}
	return &Retention{interactions: interactions, exposures: exposures, clock: clock, days: days}
}

func (j *Retention) Name() string { return NameRetention }

func (j *Retention) Run(ctx context.Context) error {
	cutoff := j.clock.Now().UTC().AddDate(0, 0, -j.days)

	interactions, err := j.interactions.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("purge interactions: %w", err)
	}
	exposures, err := j.exposures.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("purge exposures: %w", err)
	}

	log := logger.Component("jobs")
	log.Info().
		Time("cutoff", cutoff).
		Int64("interactions", interactions).
		Int64("exposures", exposures).
		Msg("retention purge complete")
	return nil
}
