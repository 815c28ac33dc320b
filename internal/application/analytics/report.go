package analytics

import (
	"context"
	"fmt"
	"time"
)

type DailyReport struct {
	Date               string           `json:"date"`
	TotalInteractions  int64            `json:"total_interactions"`
	InteractionsByType map[string]int64 `json:"interactions_by_type"`
	Metrics
	ByStrategy  map[string]Metrics `json:"by_strategy"`
	GeneratedAt time.Time          `json:"generated_at"`
}

// DailyReport aggregates the UTC calendar day containing day.
func (s *Service) DailyReport(ctx context.Context, day time.Time) (*DailyReport, error) {
	day = day.UTC()
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)

	exposures, err := s.exposures.ListBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("list exposures: %w", err)
	}
	byType, err := s.interactions.CountByType(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("count interactions: %w", err)
	}

	perf := summarize(exposures)
	out := &DailyReport{
		Date:               from.Format(time.DateOnly),
		InteractionsByType: make(map[string]int64, len(byType)),
		Metrics:            perf.Metrics,
		ByStrategy:         perf.ByStrategy,
		GeneratedAt:        s.clock.Now().UTC(),
	}
	for t, n := range byType {
		out.InteractionsByType[string(t)] = n
		out.TotalInteractions += n
	}
	return out, nil
}

// Yesterday is the report day the scheduled job covers.
func (s *Service) Yesterday() time.Time {
	return s.clock.Now().UTC().AddDate(0, 0, -1)
}
