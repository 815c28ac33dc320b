package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/application/analytics"
	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/application/recommend"
	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/transport/http/middleware"
)

type fakeRecommender struct {
	viewer   recommend.Viewer
	track    recommend.TrackCommand
	recoQ    recommend.RecommendationQuery
	trendQ   recommend.TrendingQuery
	persQ    recommend.PersonalizedQuery
	product  int64
	limit    int
	exclude  []int64
	exposure uuid.UUID
	clicked  int64

	result *recommend.Result
	ids    []int64
	err    error
}

func (f *fakeRecommender) TrackInteraction(_ context.Context, v recommend.Viewer, cmd recommend.TrackCommand) (uuid.UUID, error) {
	f.viewer, f.track = v, cmd
	return uuid.MustParse("11111111-1111-1111-1111-111111111111"), f.err
}

func (f *fakeRecommender) GetRecommendations(_ context.Context, v recommend.Viewer, q recommend.RecommendationQuery) (*recommend.Result, error) {
	f.viewer, f.recoQ = v, q
	return f.result, f.err
}

func (f *fakeRecommender) GetSimilarProducts(_ context.Context, v recommend.Viewer, productID int64, limit int) (*recommend.Result, error) {
	f.viewer, f.product, f.limit = v, productID, limit
	return f.result, f.err
}

func (f *fakeRecommender) GetTrending(_ context.Context, v recommend.Viewer, q recommend.TrendingQuery) (*recommend.Result, error) {
	f.viewer, f.trendQ = v, q
	return f.result, f.err
}

func (f *fakeRecommender) GetPersonalized(_ context.Context, v recommend.Viewer, q recommend.PersonalizedQuery) (*recommend.Result, error) {
	f.viewer, f.persQ = v, q
	return f.result, f.err
}

func (f *fakeRecommender) GetFrequentlyBoughtTogether(_ context.Context, productID int64, limit int) ([]int64, error) {
	f.product, f.limit = productID, limit
	return f.ids, f.err
}

func (f *fakeRecommender) GetRecentlyViewed(_ context.Context, v recommend.Viewer, limit int, exclude []int64) ([]int64, error) {
	f.viewer, f.limit, f.exclude = v, limit, exclude
	return f.ids, f.err
}

func (f *fakeRecommender) RecordClick(_ context.Context, id uuid.UUID, productID int64) error {
	f.exposure, f.clicked = id, productID
	return f.err
}

func (f *fakeRecommender) RecordConversion(_ context.Context, id uuid.UUID) error {
	f.exposure = id
	return f.err
}

func routes(rec Recommender) http.Handler {
	h := NewRecommendationsHandler(rec)
	r := chi.NewRouter()
	r.Use(middleware.NewSessions("s", time.Hour, false).Handler)
	r.Post("/track", h.TrackInteraction)
	r.Post("/recommendations", h.GetRecommendations)
	r.Get("/products/{product_id}/similar", h.GetSimilar)
	r.Get("/products/{product_id}/bought-together", h.GetFrequentlyBoughtTogether)
	r.Get("/trending", h.GetTrending)
	r.Post("/personalized", h.GetPersonalized)
	r.Post("/recently-viewed", h.GetRecentlyViewed)
	r.Post("/exposures/{exposure_id}/clicks", h.RecordClick)
	r.Post("/exposures/{exposure_id}/conversion", h.RecordConversion)
	return r
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeData(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var env struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	return env.Data
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body.Error.Code
}

func TestTrackInteraction(t *testing.T) {
	t.Run("accepted", func(t *testing.T) {
		f := &fakeRecommender{}
		rr := do(t, routes(f), http.MethodPost, "/track",
			`{"product_id":7,"interaction_type":"view","duration_seconds":12,"client_hint":"ignored"}`)

		require.Equal(t, http.StatusAccepted, rr.Code)
		assert.Equal(t, "11111111-1111-1111-1111-111111111111", decodeData(t, rr)["interaction_id"])
		assert.Equal(t, int64(7), f.track.ProductID)
		assert.Equal(t, "view", f.track.Type)
		require.NotNil(t, f.track.DurationSeconds)
		assert.Equal(t, 12, *f.track.DurationSeconds)
		assert.NotEmpty(t, f.viewer.SessionID)
	})

	t.Run("missing_product", func(t *testing.T) {
		rr := do(t, routes(&fakeRecommender{}), http.MethodPost, "/track", `{"interaction_type":"view"}`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "validation_error", errorCode(t, rr))
	})

	t.Run("service_rejects_type", func(t *testing.T) {
		f := &fakeRecommender{err: domain.ErrValidation("unknown interaction type")}
		rr := do(t, routes(f), http.MethodPost, "/track", `{"product_id":7,"interaction_type":"stare"}`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestGetRecommendations(t *testing.T) {
	expID := uuid.MustParse("22222222-2222-2222-2222-222222222222")
	src := int64(5)

	t.Run("ok", func(t *testing.T) {
		f := &fakeRecommender{result: &recommend.Result{
			Strategy:        domain.StrategyContentBased,
			ProductIDs:      []int64{8, 9},
			SourceProductID: &src,
			ExposureID:      &expID,
		}}
		rr := do(t, routes(f), http.MethodPost, "/recommendations",
			`{"strategy":"content_based","product_id":5,"limit":2,"exclude_ids":[3],"page_type":"product"}`)

		require.Equal(t, http.StatusOK, rr.Code)
		data := decodeData(t, rr)
		assert.Equal(t, "content_based", data["strategy"])
		assert.Equal(t, []any{float64(8), float64(9)}, data["product_ids"])
		assert.Equal(t, float64(5), data["source_product_id"])
		assert.Equal(t, expID.String(), data["exposure_id"])

		assert.Equal(t, recommend.RecommendationQuery{
			Strategy:  "content_based",
			ProductID: 5,
			Limit:     2,
			Exclude:   []int64{3},
			PageType:  "product",
		}, f.recoQ)
	})

	t.Run("empty_result_is_array", func(t *testing.T) {
		f := &fakeRecommender{result: &recommend.Result{Strategy: domain.StrategyTrending}}
		rr := do(t, routes(f), http.MethodPost, "/recommendations", `{}`)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, []any{}, decodeData(t, rr)["product_ids"])
	})

	tests := []struct {
		name string
		body string
	}{
		{"unknown_strategy", `{"strategy":"bandit"}`},
		{"limit_too_large", `{"limit":51}`},
		{"unknown_field", `{"foo":1}`},
		{"empty_body", ``},
		{"bad_page_type", `{"page_type":"blog"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, routes(&fakeRecommender{}), http.MethodPost, "/recommendations", tt.body)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, "validation_error", errorCode(t, rr))
		})
	}

	t.Run("upstream_unavailable", func(t *testing.T) {
		f := &fakeRecommender{err: domain.ErrUpstream("catalog unavailable", errors.New("open"))}
		rr := do(t, routes(f), http.MethodPost, "/recommendations", `{}`)
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	})
}

func TestGetSimilar(t *testing.T) {
	f := &fakeRecommender{result: &recommend.Result{Strategy: domain.StrategyContentBased, ProductIDs: []int64{2}}}
	rr := do(t, routes(f), http.MethodGet, "/products/4/similar?limit=3", "")

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, int64(4), f.product)
	assert.Equal(t, 3, f.limit)

	rr = do(t, routes(f), http.MethodGet, "/products/abc/similar", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	f.err = domain.ErrNotFound("product not found")
	rr = do(t, routes(f), http.MethodGet, "/products/4/similar", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestGetTrending(t *testing.T) {
	f := &fakeRecommender{result: &recommend.Result{Strategy: domain.StrategyTrending, ProductIDs: []int64{1}}}
	rr := do(t, routes(f), http.MethodGet, "/trending?limit=5&days=30&category_id=9", "")

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 5, f.trendQ.Limit)
	assert.Equal(t, 30, f.trendQ.Days)
	require.NotNil(t, f.trendQ.CategoryID)
	assert.Equal(t, int64(9), *f.trendQ.CategoryID)

	rr = do(t, routes(f), http.MethodGet, "/trending", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Nil(t, f.trendQ.CategoryID)

	rr = do(t, routes(f), http.MethodGet, "/trending?days=week", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGetPersonalized(t *testing.T) {
	f := &fakeRecommender{result: &recommend.Result{Strategy: domain.StrategyPersonalized, ProductIDs: []int64{3}}}
	rr := do(t, routes(f), http.MethodPost, "/personalized", `{"limit":4,"exclude_ids":[1],"page_type":"homepage"}`)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, recommend.PersonalizedQuery{Limit: 4, Exclude: []int64{1}, PageType: "homepage"}, f.persQ)

	f.err = domain.ErrUnauthorized("login required")
	rr = do(t, routes(f), http.MethodPost, "/personalized", `{}`)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestGetFrequentlyBoughtTogether(t *testing.T) {
	f := &fakeRecommender{}
	rr := do(t, routes(f), http.MethodGet, "/products/10/bought-together?limit=4", "")

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []any{}, decodeData(t, rr)["product_ids"])
	assert.Equal(t, int64(10), f.product)
	assert.Equal(t, 4, f.limit)
}

func TestGetRecentlyViewed(t *testing.T) {
	f := &fakeRecommender{ids: []int64{5, 4}}
	rr := do(t, routes(f), http.MethodPost, "/recently-viewed", `{"limit":2,"exclude_ids":[6]}`)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []any{float64(5), float64(4)}, decodeData(t, rr)["product_ids"])
	assert.Equal(t, 2, f.limit)
	assert.Equal(t, []int64{6}, f.exclude)

	rr = do(t, routes(f), http.MethodPost, "/recently-viewed", `{"limit":21}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestExposureFeedback(t *testing.T) {
	id := "33333333-3333-3333-3333-333333333333"

	t.Run("click", func(t *testing.T) {
		f := &fakeRecommender{}
		rr := do(t, routes(f), http.MethodPost, "/exposures/"+id+"/clicks", `{"product_id":12}`)
		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.Equal(t, id, f.exposure.String())
		assert.Equal(t, int64(12), f.clicked)
	})

	t.Run("click_bad_id", func(t *testing.T) {
		rr := do(t, routes(&fakeRecommender{}), http.MethodPost, "/exposures/nope/clicks", `{"product_id":12}`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("click_unknown_exposure", func(t *testing.T) {
		f := &fakeRecommender{err: domain.ErrNotFound("exposure not found")}
		rr := do(t, routes(f), http.MethodPost, "/exposures/"+id+"/clicks", `{"product_id":12}`)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("conversion", func(t *testing.T) {
		f := &fakeRecommender{}
		rr := do(t, routes(f), http.MethodPost, "/exposures/"+id+"/conversion", "")
		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.Equal(t, id, f.exposure.String())
	})
}

type fakeAnalyzer struct {
	customer int64
	days     int
	err      error
}

func (f *fakeAnalyzer) CustomerBehavior(_ context.Context, customerID int64, days int) (*analytics.CustomerBehavior, error) {
	f.customer, f.days = customerID, days
	if f.err != nil {
		return nil, f.err
	}
	return &analytics.CustomerBehavior{CustomerID: customerID, Days: days}, nil
}

func (f *fakeAnalyzer) ProductPopularity(_ context.Context, days int) ([]analytics.ProductPopularity, error) {
	f.days = days
	return nil, f.err
}

func (f *fakeAnalyzer) Performance(_ context.Context, days int) (*analytics.Performance, error) {
	f.days = days
	if f.err != nil {
		return nil, f.err
	}
	return &analytics.Performance{Days: days}, nil
}

func TestAnalyticsHandler(t *testing.T) {
	f := &fakeAnalyzer{}
	h := NewAnalyticsHandler(f)
	r := chi.NewRouter()
	r.Get("/customers/{customer_id}/behavior", h.CustomerBehavior)
	r.Get("/popularity", h.ProductPopularity)
	r.Get("/performance", h.Performance)

	rr := do(t, r, http.MethodGet, "/customers/8/behavior?days=14", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, int64(8), f.customer)
	assert.Equal(t, 14, f.days)

	rr = do(t, r, http.MethodGet, "/popularity", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"data":[]}`, rr.Body.String())

	rr = do(t, r, http.MethodGet, "/performance?days=7", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 7, f.days)

	f.err = domain.ErrValidation("days must be between 1 and 365")
	rr = do(t, r, http.MethodGet, "/performance?days=999", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHealthz(t *testing.T) {
	up := PingFunc(func(context.Context) error { return nil })
	down := PingFunc(func(context.Context) error { return errors.New("refused") })

	rr := do(t, http.HandlerFunc(NewHealthHandler(map[string]Pinger{"postgres": up, "redis": up}).Healthz), http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"data":{"status":"ok","checks":{"postgres":"ok","redis":"ok"}}}`, rr.Body.String())

	rr = do(t, http.HandlerFunc(NewHealthHandler(map[string]Pinger{"postgres": up, "redis": down}).Healthz), http.MethodGet, "/", "")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.JSONEq(t, `{"data":{"status":"degraded","checks":{"postgres":"ok","redis":"down"}}}`, rr.Body.String())
}
