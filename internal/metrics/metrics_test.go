package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordCache(t *testing.T) {
	before := testutil.ToFloat64(cacheEvents.WithLabelValues("trending", "hit"))
	RecordCache("trending", "hit")
	assert.Equal(t, before+1, testutil.ToFloat64(cacheEvents.WithLabelValues("trending", "hit")))
}

func TestSetBreakerOpen(t *testing.T) {
	SetBreakerOpen("catalog", true)
	assert.Equal(t, 1.0, testutil.ToFloat64(breakerState.WithLabelValues("catalog")))
	SetBreakerOpen("catalog", false)
	assert.Equal(t, 0.0, testutil.ToFloat64(breakerState.WithLabelValues("catalog")))
}

func TestRecorders_DoNotPanic(t *testing.T) {
	RecordServed("personalized")
	ObserveStrategy("collaborative", 12*time.Millisecond)
	RecordStrategyFailure("content_based", "timeout")
	RecordTracking("written")
	RecordProductView()
	RecordExposure("click")
	RecordJob("trending-prewarm", "ok", time.Second)
	RecordMessage("order.delivered", "ack")
}

func TestHandler(t *testing.T) {
	RecordServed("trending")

	rr := httptest.NewRecorder()
	Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "reco_recommendations_served_total")
}
