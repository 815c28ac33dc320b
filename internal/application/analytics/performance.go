package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/domain"
)

const topRecommendations = 10

// Metrics is the effectiveness summary of a set of exposures.
// CTR is clicks over recommended items actually shown.
type Metrics struct {
	Shown          int64   `json:"shown"`
	Impressions    int64   `json:"impressions"`
	Clicks         int64   `json:"clicks"`
	Conversions    int64   `json:"conversions"`
	CTR            float64 `json:"ctr"`
	ConversionRate float64 `json:"conversion_rate"`
}

func (m *Metrics) add(e domain.Exposure) {
	m.Shown++
	m.Impressions += int64(len(e.RecommendedIDs))
	m.Clicks += int64(len(e.ClickedIDs))
	if e.Converted {
		m.Conversions++
	}
}

func (m *Metrics) finish() {
	m.CTR = ratio(m.Clicks, m.Impressions)
	m.ConversionRate = ratio(m.Conversions, m.Shown)
}

type DayMetrics struct {
	Day string `json:"day"`
	Metrics
}

type TopRecommendation struct {
	ExposureID  uuid.UUID       `json:"exposure_id"`
	Strategy    domain.Strategy `json:"strategy"`
	PageType    domain.PageType `json:"page_type"`
	Recommended int             `json:"recommended"`
	Clicks      int             `json:"clicks"`
	Converted   bool            `json:"converted"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Performance carries the window totals at the top level next to the
// per-strategy and per-day breakdowns.
type Performance struct {
	Days int `json:"days"`
	Metrics
	ByStrategy         map[string]Metrics  `json:"by_strategy"`
	ByDay              []DayMetrics        `json:"by_day"`
	TopRecommendations []TopRecommendation `json:"top_recommendations"`
}

// Performance reports shown, click and conversion figures over the last days.
func (s *Service) Performance(ctx context.Context, days int) (*Performance, error) {
	days, since, err := s.window(days)
	if err != nil {
		return nil, err
	}
	exposures, err := s.exposures.ListBetween(ctx, since, s.clock.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("list exposures: %w", err)
	}

	out := summarize(exposures)
	out.Days = days
	out.TopRecommendations = topClicked(exposures)
	return out, nil
}

func summarize(exposures []domain.Exposure) *Performance {
	out := &Performance{
		ByStrategy: make(map[string]Metrics, len(domain.Strategies())),
		ByDay:      []DayMetrics{},
	}
	for _, st := range domain.Strategies() {
		out.ByStrategy[string(st)] = Metrics{}
	}

	days := map[string]*DayMetrics{}
	for _, e := range exposures {
		out.Metrics.add(e)

		m := out.ByStrategy[string(e.Strategy)]
		m.add(e)
		out.ByStrategy[string(e.Strategy)] = m

		key := e.CreatedAt.UTC().Format(time.DateOnly)
		d, ok := days[key]
		if !ok {
			d = &DayMetrics{Day: key}
			days[key] = d
		}
		d.add(e)
	}

	out.Metrics.finish()
	for k, m := range out.ByStrategy {
		m.finish()
		out.ByStrategy[k] = m
	}
	for _, d := range days {
		d.finish()
		out.ByDay = append(out.ByDay, *d)
	}
	sort.Slice(out.ByDay, func(i, j int) bool { return out.ByDay[i].Day < out.ByDay[j].Day })
	return out
}

func topClicked(exposures []domain.Exposure) []TopRecommendation {
	clicked := make([]domain.Exposure, 0, len(exposures))
	for _, e := range exposures {
		if len(e.ClickedIDs) > 0 {
			clicked = append(clicked, e)
		}
	}
	sort.SliceStable(clicked, func(i, j int) bool {
		return len(clicked[i].ClickedIDs) > len(clicked[j].ClickedIDs)
	})
	if len(clicked) > topRecommendations {
		clicked = clicked[:topRecommendations]
	}

	out := make([]TopRecommendation, 0, len(clicked))
	for _, e := range clicked {
		out = append(out, TopRecommendation{
			ExposureID:  e.ID,
			Strategy:    e.Strategy,
			PageType:    e.PageType,
			Recommended: len(e.RecommendedIDs),
			Clicks:      len(e.ClickedIDs),
			Converted:   e.Converted,
			CreatedAt:   e.CreatedAt,
		})
	}
	return out
}
