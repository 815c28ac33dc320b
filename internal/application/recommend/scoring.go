package recommend

import (
	"sort"

	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/domain"
)

// ScoreBoard is an insertion-ordered product -> score map.
// Ranked output breaks score ties by first insertion.
type ScoreBoard struct {
	order  []int64
	scores map[int64]float64
}

func NewScoreBoard() *ScoreBoard {
	return &ScoreBoard{scores: make(map[int64]float64)}
}

// Add increases productID's score by w, registering it on first sight.
func (b *ScoreBoard) Add(productID int64, w float64) {
	if _, ok := b.scores[productID]; !ok {
		b.order = append(b.order, productID)
	}
	b.scores[productID] += w
}

func (b *ScoreBoard) Score(productID int64) float64 { return b.scores[productID] }

func (b *ScoreBoard) Len() int { return len(b.order) }

// Keys returns product ids in first-insertion order.
func (b *ScoreBoard) Keys() []int64 {
	out := make([]int64, len(b.order))
	copy(out, b.order)
	return out
}

// Ranked returns product ids by descending score.
func (b *ScoreBoard) Ranked() []int64 {
	out := b.Keys()
	sort.SliceStable(out, func(i, j int) bool {
		return b.scores[out[i]] > b.scores[out[j]]
	})
	return out
}

// Score aggregates weighted interaction signals. Callers restrict the window.
func Score(signals []domain.Signal) *ScoreBoard {
	b := NewScoreBoard()
	for _, s := range signals {
		b.Add(s.ProductID, domain.Weight(s.Type))
	}
	return b
}

// CountOccurrences scores each id by how often it appears.
func CountOccurrences(ids []int64) *ScoreBoard {
	b := NewScoreBoard()
	for _, id := range ids {
		b.Add(id, 1)
	}
	return b
}

func topN(ids []int64, n int) []int64 {
	if n >= 0 && len(ids) > n {
		return ids[:n]
	}
	return ids
}

func idSet(ids []int64) map[int64]struct{} {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
