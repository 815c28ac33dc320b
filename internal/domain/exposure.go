package domain

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

type Strategy string

const (
	StrategyCollaborative Strategy = "collaborative"
	StrategyContentBased  Strategy = "content_based"
	StrategyTrending      Strategy = "trending"
	StrategyPersonalized  Strategy = "personalized"
)

// Strategies lists the strategies an exposure can be attributed to.
func Strategies() []Strategy {
	return []Strategy{StrategyCollaborative, StrategyContentBased, StrategyTrending, StrategyPersonalized}
}

func ParseStrategy(s string) (Strategy, error) {
	if s == "" {
		return StrategyPersonalized, nil
	}
	st := Strategy(s)
	if !slices.Contains(Strategies(), st) {
		return "", ErrValidationMeta("invalid strategy", map[string]string{
			"strategy": "must be one of: collaborative, content_based, trending, personalized",
		})
	}
	return st, nil
}

type PageType string

const (
	PageHomepage PageType = "homepage"
	PageProduct  PageType = "product"
	PageCart     PageType = "cart"
	PageCheckout PageType = "checkout"
)

func ParsePageType(s string) (PageType, error) {
	switch PageType(s) {
	case "":
		return PageHomepage, nil
	case PageHomepage, PageProduct, PageCart, PageCheckout:
		return PageType(s), nil
	default:
		return "", ErrValidationMeta("invalid page type", map[string]string{
			"page_type": "must be one of: homepage, product, cart, checkout",
		})
	}
}

// Exposure records one list of recommendations shown to a viewer.
// ClickedIDs is always a subset of RecommendedIDs.
type Exposure struct {
	ID              uuid.UUID
	CustomerID      *int64
	SessionID       string
	Strategy        Strategy
	RecommendedIDs  []int64
	SourceProductID *int64
	PageType        PageType
	ClickedIDs      []int64
	Converted       bool
	CreatedAt       time.Time
}

func (e *Exposure) Recommends(productID int64) bool {
	return slices.Contains(e.RecommendedIDs, productID)
}

// Click records productID as clicked. It reports false when the product was
// never recommended; repeated clicks are stored once.
func (e *Exposure) Click(productID int64) bool {
	if !e.Recommends(productID) {
		return false
	}
	if !slices.Contains(e.ClickedIDs, productID) {
		e.ClickedIDs = append(e.ClickedIDs, productID)
	}
	return true
}
