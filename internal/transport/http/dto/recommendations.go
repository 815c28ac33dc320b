package dto

import (
	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/application/recommend"
)

// TrackInteractionRequest is the tracking beacon body.
type TrackInteractionRequest struct {
	ProductID       int64  `json:"product_id" validate:"required,gt=0"`
	InteractionType string `json:"interaction_type" validate:"required"`
	Source          string `json:"source" validate:"max=50"`
	SearchQuery     string `json:"search_query" validate:"max=500"`
	ReferrerURL     string `json:"referrer_url"`
	DurationSeconds *int   `json:"duration_seconds" validate:"omitempty,min=0"`
	Position        *int   `json:"position" validate:"omitempty,min=0"`
}

func (r TrackInteractionRequest) Command() recommend.TrackCommand {
	return recommend.TrackCommand{
		ProductID:       r.ProductID,
		Type:            r.InteractionType,
		Source:          r.Source,
		SearchQuery:     r.SearchQuery,
		ReferrerURL:     r.ReferrerURL,
		DurationSeconds: r.DurationSeconds,
		Position:        r.Position,
	}
}

type TrackInteractionResponse struct {
	InteractionID string `json:"interaction_id"`
}

type RecommendationRequest struct {
	Strategy   string  `json:"strategy" validate:"omitempty,oneof=collaborative content_based trending personalized"`
	ProductID  int64   `json:"product_id" validate:"omitempty,gt=0"`
	Limit      int     `json:"limit" validate:"omitempty,min=1,max=50"`
	ExcludeIDs []int64 `json:"exclude_ids" validate:"max=200"`
	PageType   string  `json:"page_type" validate:"omitempty,oneof=homepage product cart checkout"`
}

func (r RecommendationRequest) Query() recommend.RecommendationQuery {
	return recommend.RecommendationQuery{
		Strategy:  r.Strategy,
		ProductID: r.ProductID,
		Limit:     r.Limit,
		Exclude:   r.ExcludeIDs,
		PageType:  r.PageType,
	}
}

type PersonalizedRequest struct {
	Limit      int     `json:"limit" validate:"omitempty,min=1,max=50"`
	ExcludeIDs []int64 `json:"exclude_ids" validate:"max=200"`
	PageType   string  `json:"page_type" validate:"omitempty,oneof=homepage product cart checkout"`
}

type RecentlyViewedRequest struct {
	Limit      int     `json:"limit" validate:"omitempty,min=1,max=20"`
	ExcludeIDs []int64 `json:"exclude_ids" validate:"max=200"`
}

type RecommendationResponse struct {
	Strategy        string  `json:"strategy"`
	ProductIDs      []int64 `json:"product_ids"`
	SourceProductID *int64  `json:"source_product_id,omitempty"`
	ExposureID      *string `json:"exposure_id,omitempty"`
}

func FromResult(r *recommend.Result) RecommendationResponse {
	out := RecommendationResponse{
		Strategy:        string(r.Strategy),
		ProductIDs:      r.ProductIDs,
		SourceProductID: r.SourceProductID,
	}
	if out.ProductIDs == nil {
		out.ProductIDs = []int64{}
	}
	if r.ExposureID != nil {
		id := r.ExposureID.String()
		out.ExposureID = &id
	}
	return out
}

type ProductListResponse struct {
	ProductIDs []int64 `json:"product_ids"`
}

func ProductList(ids []int64) ProductListResponse {
	if ids == nil {
		ids = []int64{}
	}
	return ProductListResponse{ProductIDs: ids}
}

type RecordClickRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
}
