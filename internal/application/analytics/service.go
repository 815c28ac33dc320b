package analytics

import (
	"fmt"
	"time"

	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/domain"
)

const (
	defaultDays = 30
	maxDays     = 365
)

// Service answers admin analytics queries over the interaction and
// exposure logs.
type Service struct {
	interactions InteractionReader
	exposures    ExposureReader
	products     ProductLookup
	clock        Clock
}

func New(interactions InteractionReader, exposures ExposureReader, products ProductLookup, clock Clock) *Service {
	return &Service{
		interactions: interactions,
		exposures:    exposures,
		products:     products,
		clock:        clock,
	}
}

// window validates days and returns the start of the lookback window.
func (s *Service) window(days int) (int, time.Time, error) {
	if days == 0 {
		days = defaultDays
	}
	if days < 1 || days > maxDays {
		return 0, time.Time{}, domain.ErrValidationMeta("invalid days", map[string]string{
			"days": fmt.Sprintf("must be between 1 and %d", maxDays),
		})
	}
	return days, s.clock.Now().UTC().AddDate(0, 0, -days), nil
}

func ratio(num, den int64) float64 {
	if den <= 0 {
		return 0
	}
	return float64(num) / float64(den)
}

func percent(num, den int64) float64 {
	return ratio(num, den) * 100
}
