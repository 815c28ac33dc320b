package recommend

import (
	"context"
	"fmt"
	"time"

	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/domain"
)

// Trending ranks active products by weighted interactions over a recent window.
type Trending struct {
	log     InteractionLog
	catalog Catalog
	clock   Clock
}

func NewTrending(log InteractionLog, catalog Catalog, clock Clock) *Trending {
	return &Trending{log: log, catalog: catalog, clock: clock}
}

func (t *Trending) Name() string { return NameTrending }

func (t *Trending) Recommend(ctx context.Context, req Request) ([]int64, error) {
	days := req.Days
	if days <= 0 {
		days = defaultTrendingDays
	}
	since := t.clock.Now().UTC().Add(-time.Duration(days) * 24 * time.Hour)

	signals, err := t.log.SignalsSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("trending signals: %w", err)
	}
	ranked := Score(signals).Ranked()
	if len(ranked) == 0 {
		return nil, nil
	}

	active, err := t.catalog.ListActiveProducts(ctx, domain.ProductFilter{
		IDs:        ranked,
		CategoryID: req.CategoryID,
	})
	if err != nil {
		return nil, fmt.Errorf("trending catalog filter: %w", err)
	}
	keep := make(map[int64]struct{}, len(active))
	for _, p := range active {
		keep[p.ID] = struct{}{}
	}
	skip := idSet(req.Exclude)

	// score order wins over catalog order
	out := make([]int64, 0, min(len(ranked), max(req.Limit, 0)))
	for _, id := range ranked {
		if req.Limit > 0 && len(out) == req.Limit {
			break
		}
		if _, ok := keep[id]; !ok {
			continue
		}
		if _, ok := skip[id]; ok {
			continue
		}
		out = append(out, id)
	}
	return out, nil
}
