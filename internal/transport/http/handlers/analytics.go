package handlers

import (
	"context"
	"net/http"

	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/application/analytics"
	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/transport/http/response"
	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/transport/http/validate"
)

type Analyzer interface {
	CustomerBehavior(ctx context.Context, customerID int64, days int) (*analytics.CustomerBehavior, error)
	ProductPopularity(ctx context.Context, days int) ([]analytics.ProductPopularity, error)
	Performance(ctx context.Context, days int) (*analytics.Performance, error)
}

// AnalyticsHandler serves admin-only reporting endpoints.
type AnalyticsHandler struct {
	svc Analyzer
}

func NewAnalyticsHandler(svc Analyzer) *AnalyticsHandler {
	return &AnalyticsHandler{svc: svc}
}

func (h *AnalyticsHandler) CustomerBehavior(w http.ResponseWriter, r *http.Request) {
	customerID, err := validate.PathInt64(r, "customer_id")
	if err != nil {
		response.Err(w, r, err)
		return
	}
	days, err := validate.QueryInt(r, "days")
	if err != nil {
		response.Err(w, r, err)
		return
	}

	out, err := h.svc.CustomerBehavior(r.Context(), customerID, days)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, out)
}

func (h *AnalyticsHandler) ProductPopularity(w http.ResponseWriter, r *http.Request) {
	days, err := validate.QueryInt(r, "days")
	if err != nil {
		response.Err(w, r, err)
		return
	}

	out, err := h.svc.ProductPopularity(r.Context(), days)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	if out == nil {
		out = []analytics.ProductPopularity{}
	}
	response.Data(w, http.StatusOK, out)
}

func (h *AnalyticsHandler) Performance(w http.ResponseWriter, r *http.Request) {
	days, err := validate.QueryInt(r, "days")
	if err != nil {
		response.Err(w, r, err)
		return
	}

	out, err := h.svc.Performance(r.Context(), days)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, out)
}
