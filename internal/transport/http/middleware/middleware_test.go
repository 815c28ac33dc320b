package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appCtx "github.com/baechuer/real-time-ressys/services/recommendation-service/internal/pkg/context"
)

const secret = "test-secret"

func token(t *testing.T, uid, role, issuer string, key string, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: uid,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	s, err := tok.SignedString([]byte(key))
	require.NoError(t, err)
	return s
}

func captureViewer(got *struct {
	customer int64
	role     string
	called   bool
}) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.customer = CustomerID(r.Context())
		got.role = Role(r.Context())
		got.called = true
	})
}

func TestAuth(t *testing.T) {
	a := NewAuth(secret, "auth-service")
	future := time.Now().Add(time.Hour)

	tests := []struct {
		name       string
		header     string
		optional   bool
		wantStatus int
		wantID     int64
	}{
		{"valid_token", "Bearer " + token(t, "42", "user", "auth-service", secret, future), false, http.StatusOK, 42},
		{"missing_token_required", "", false, http.StatusUnauthorized, 0},
		{"missing_token_optional", "", true, http.StatusOK, 0},
		{"bad_token_optional", "Bearer nope", true, http.StatusUnauthorized, 0},
		{"wrong_key", "Bearer " + token(t, "42", "", "auth-service", "other", future), false, http.StatusUnauthorized, 0},
		{"wrong_issuer", "Bearer " + token(t, "42", "", "someone", secret, future), false, http.StatusUnauthorized, 0},
		{"expired", "Bearer " + token(t, "42", "", "auth-service", secret, time.Now().Add(-time.Hour)), false, http.StatusUnauthorized, 0},
		{"non_numeric_uid", "Bearer " + token(t, "u_1", "", "auth-service", secret, future), false, http.StatusUnauthorized, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got struct {
				customer int64
				role     string
				called   bool
			}
			h := a.Require(captureViewer(&got))
			if tt.optional {
				h = a.Optional(captureViewer(&got))
			}

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, tt.wantID, got.customer)
			assert.Equal(t, tt.wantStatus == http.StatusOK, got.called)
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	a := NewAuth(secret, "")
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	h := a.Require(RequireAdmin(ok))

	for role, want := range map[string]int{"admin": http.StatusOK, "user": http.StatusForbidden} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token(t, "1", role, "", secret, time.Now().Add(time.Hour)))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.Equal(t, want, rr.Code, role)
	}
}

func TestSessions(t *testing.T) {
	s := NewSessions("session-secret", time.Hour, true)
	var seen string
	h := s.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = SessionID(r.Context())
	}))

	t.Run("issues_cookie", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

		cookies := rr.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, SessionCookie, cookies[0].Name)
		assert.True(t, cookies[0].HttpOnly)
		assert.True(t, cookies[0].Secure)
		assert.NotEmpty(t, seen)
	})

	t.Run("reuses_signed_cookie", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		issued := rr.Result().Cookies()[0]
		first := seen

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(issued)
		rr = httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		assert.Equal(t, first, seen)
		assert.Empty(t, rr.Result().Cookies())
	})

	t.Run("rejects_tampered_cookie", func(t *testing.T) {
		forged := "550e8400-e29b-41d4-a716-446655440000.bogus"
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: forged})
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		assert.NotEqual(t, "550e8400-e29b-41d4-a716-446655440000", seen)
		assert.Len(t, rr.Result().Cookies(), 1)
	})
}

func TestViewer(t *testing.T) {
	a := NewAuth(secret, "")
	s := NewSessions("session-secret", time.Hour, false)

	var got struct {
		customer int64
		session  string
	}
	h := s.Handler(a.Optional(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v := Viewer(r)
		got.customer, got.session = v.CustomerID, v.SessionID
	})))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, "9", "", "", secret, time.Now().Add(time.Hour)))
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, int64(9), got.customer)
	assert.NotEmpty(t, got.session)
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = appCtx.RequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderXRequestID, "abc")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, "abc", seen)
	assert.Equal(t, "abc", rr.Header().Get(HeaderXRequestID))

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, rr.Header().Get(HeaderXRequestID))
}
