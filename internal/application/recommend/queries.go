package recommend

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/domain"
)

// RecommendationQuery is the input of GetRecommendations.
type RecommendationQuery struct {
	Strategy  string
	ProductID int64
	Limit     int
	Exclude   []int64
	PageType  string
}

type TrendingQuery struct {
	Limit      int
	Days       int
	CategoryID *int64
}

type PersonalizedQuery struct {
	Limit    int
	Exclude  []int64
	PageType string
}

// Result is a served recommendation list.
type Result struct {
	Strategy        domain.Strategy
	ProductIDs      []int64
	SourceProductID *int64
	ExposureID      *uuid.UUID
}

const (
	defaultLimit         = 10
	maxRecommendLimit    = 50
	maxSimilarLimit      = 20
	defaultTogetherLimit = 5
	maxTogetherLimit     = 10
	maxRecentLimit       = 20
	maxTrendingDays      = 90
)

// normalizeRange applies def when v is zero and enforces [1, upper].
func normalizeRange(field string, v, def, upper int) (int, error) {
	if v == 0 {
		return def, nil
	}
	if v < 1 || v > upper {
		return 0, domain.ErrValidationMeta("invalid "+field, map[string]string{
			field: fmt.Sprintf("must be between 1 and %d", upper),
		})
	}
	return v, nil
}

func requireProduct(id int64) error {
	if id <= 0 {
		return domain.ErrValidationMeta("invalid product_id", map[string]string{
			"product_id": "must be a positive integer",
		})
	}
	return nil
}
