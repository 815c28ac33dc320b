package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/application/recommend"
	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/transport/http/dto"
	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/transport/http/middleware"
	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/transport/http/response"
	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/transport/http/validate"
)

// Recommender is the slice of recommend.Service the HTTP layer uses.
type Recommender interface {
	TrackInteraction(ctx context.Context, v recommend.Viewer, cmd recommend.TrackCommand) (uuid.UUID, error)
	GetRecommendations(ctx context.Context, v recommend.Viewer, q recommend.RecommendationQuery) (*recommend.Result, error)
	GetSimilarProducts(ctx context.Context, v recommend.Viewer, productID int64, limit int) (*recommend.Result, error)
	GetTrending(ctx context.Context, v recommend.Viewer, q recommend.TrendingQuery) (*recommend.Result, error)
	GetPersonalized(ctx context.Context, v recommend.Viewer, q recommend.PersonalizedQuery) (*recommend.Result, error)
	GetFrequentlyBoughtTogether(ctx context.Context, productID int64, limit int) ([]int64, error)
	GetRecentlyViewed(ctx context.Context, v recommend.Viewer, limit int, exclude []int64) ([]int64, error)
	RecordClick(ctx context.Context, exposureID uuid.UUID, productID int64) error
	RecordConversion(ctx context.Context, exposureID uuid.UUID) error
}

type RecommendationsHandler struct {
	svc Recommender
}

func NewRecommendationsHandler(svc Recommender) *RecommendationsHandler {
	return &RecommendationsHandler{svc: svc}
}

// TrackInteraction accepts the beacon and persists it asynchronously.
func (h *RecommendationsHandler) TrackInteraction(w http.ResponseWriter, r *http.Request) {
	var req dto.TrackInteractionRequest
	if err := validate.DecodeLenient(r, &req); err != nil {
		response.Err(w, r, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		response.Err(w, r, err)
		return
	}

	id, err := h.svc.TrackInteraction(r.Context(), middleware.Viewer(r), req.Command())
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusAccepted, dto.TrackInteractionResponse{InteractionID: id.String()})
}

func (h *RecommendationsHandler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	var req dto.RecommendationRequest
	if err := validate.DecodeJSON(r, &req); err != nil {
		response.Err(w, r, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		response.Err(w, r, err)
		return
	}

	res, err := h.svc.GetRecommendations(r.Context(), middleware.Viewer(r), req.Query())
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, dto.FromResult(res))
}

func (h *RecommendationsHandler) GetSimilar(w http.ResponseWriter, r *http.Request) {
	productID, err := validate.PathInt64(r, "product_id")
	if err != nil {
		response.Err(w, r, err)
		return
	}
	limit, err := validate.QueryInt(r, "limit")
	if err != nil {
		response.Err(w, r, err)
		return
	}

	res, err := h.svc.GetSimilarProducts(r.Context(), middleware.Viewer(r), productID, limit)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, dto.FromResult(res))
}

func (h *RecommendationsHandler) GetTrending(w http.ResponseWriter, r *http.Request) {
	var (
		q   recommend.TrendingQuery
		err error
	)
	if q.Limit, err = validate.QueryInt(r, "limit"); err != nil {
		response.Err(w, r, err)
		return
	}
	if q.Days, err = validate.QueryInt(r, "days"); err != nil {
		response.Err(w, r, err)
		return
	}
	if q.CategoryID, err = validate.QueryInt64Ptr(r, "category_id"); err != nil {
		response.Err(w, r, err)
		return
	}

	res, err := h.svc.GetTrending(r.Context(), middleware.Viewer(r), q)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, dto.FromResult(res))
}

func (h *RecommendationsHandler) GetPersonalized(w http.ResponseWriter, r *http.Request) {
	var req dto.PersonalizedRequest
	if err := validate.DecodeJSON(r, &req); err != nil {
		response.Err(w, r, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		response.Err(w, r, err)
		return
	}

	res, err := h.svc.GetPersonalized(r.Context(), middleware.Viewer(r), recommend.PersonalizedQuery{
		Limit:    req.Limit,
		Exclude:  req.ExcludeIDs,
		PageType: req.PageType,
	})
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, dto.FromResult(res))
}

func (h *RecommendationsHandler) GetFrequentlyBoughtTogether(w http.ResponseWriter, r *http.Request) {
	productID, err := validate.PathInt64(r, "product_id")
	if err != nil {
		response.Err(w, r, err)
		return
	}
	limit, err := validate.QueryInt(r, "limit")
	if err != nil {
		response.Err(w, r, err)
		return
	}

	ids, err := h.svc.GetFrequentlyBoughtTogether(r.Context(), productID, limit)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, dto.ProductList(ids))
}

func (h *RecommendationsHandler) GetRecentlyViewed(w http.ResponseWriter, r *http.Request) {
	var req dto.RecentlyViewedRequest
	if err := validate.DecodeJSON(r, &req); err != nil {
		response.Err(w, r, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		response.Err(w, r, err)
		return
	}

	ids, err := h.svc.GetRecentlyViewed(r.Context(), middleware.Viewer(r), req.Limit, req.ExcludeIDs)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, dto.ProductList(ids))
}

func (h *RecommendationsHandler) RecordClick(w http.ResponseWriter, r *http.Request) {
	exposureID, err := validate.PathUUID(r, "exposure_id")
	if err != nil {
		response.Err(w, r, err)
		return
	}
	var req dto.RecordClickRequest
	if err := validate.DecodeJSON(r, &req); err != nil {
		response.Err(w, r, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		response.Err(w, r, err)
		return
	}

	if err := h.svc.RecordClick(r.Context(), exposureID, req.ProductID); err != nil {
		response.Err(w, r, err)
		return
	}
	response.NoContent(w)
}

func (h *RecommendationsHandler) RecordConversion(w http.ResponseWriter, r *http.Request) {
	exposureID, err := validate.PathUUID(r, "exposure_id")
	if err != nil {
		response.Err(w, r, err)
		return
	}
	if err := h.svc.RecordConversion(r.Context(), exposureID); err != nil {
		response.Err(w, r, err)
		return
	}
	response.NoContent(w)
}
