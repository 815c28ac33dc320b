package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/logger"
	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/transport/http/response"
)

type ctxKey string

const (
	ctxCustomerID ctxKey = "customer_id"
	ctxRole       ctxKey = "role"

	RoleAdmin = "admin"
)

type Claims struct {
	UserID string `json:"uid"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type AuthMiddleware struct {
	secret []byte
	issuer string
}

func NewAuth(secret, issuer string) *AuthMiddleware {
	return &AuthMiddleware{secret: []byte(secret), issuer: issuer}
}

// Optional attaches the customer when a valid bearer token is present.
// A missing token is anonymous; a bad one is rejected.
func (a *AuthMiddleware) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			next.ServeHTTP(w, r)
			return
		}
		ctx, err := a.authenticate(r)
		if err != nil {
			unauthorized(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *AuthMiddleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, err := a.authenticate(r)
		if err != nil {
			unauthorized(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin must run after Require.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if Role(r.Context()) != RoleAdmin {
			response.Err(w, r, domain.ErrForbidden("admin role required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func unauthorized(w http.ResponseWriter, r *http.Request, err error) {
	logger.Ctx(r.Context()).Debug().Err(err).Msg("auth rejected")
	response.Err(w, r, &domain.AppError{
		Code:    domain.CodeUnauthorized,
		Message: "unauthorized",
		Meta:    map[string]string{"reason": err.Error()},
	})
}

func (a *AuthMiddleware) authenticate(r *http.Request) (context.Context, error) {
	customerID, role, err := a.parse(r)
	if err != nil {
		return nil, err
	}
	ctx := context.WithValue(r.Context(), ctxCustomerID, customerID)
	return context.WithValue(ctx, ctxRole, role), nil
}

func (a *AuthMiddleware) parse(r *http.Request) (int64, string, error) {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if !strings.HasPrefix(h, "Bearer ") {
		return 0, "", errors.New("missing bearer token")
	}
	raw := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))

	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	}, jwt.WithLeeway(30*time.Second))
	if err != nil {
		return 0, "", err
	}
	if !tok.Valid {
		return 0, "", errors.New("invalid token")
	}
	if a.issuer != "" && claims.Issuer != a.issuer {
		return 0, "", errors.New("invalid issuer")
	}

	id, err := strconv.ParseInt(strings.TrimSpace(claims.UserID), 10, 64)
	if err != nil || id <= 0 {
		return 0, "", errors.New("uid is not a customer id")
	}
	role := strings.TrimSpace(claims.Role)
	if role == "" {
		role = "user"
	}
	return id, role, nil
}

// CustomerID returns the authenticated customer, or 0 for anonymous requests.
func CustomerID(ctx context.Context) int64 {
	if v, ok := ctx.Value(ctxCustomerID).(int64); ok {
		return v
	}
	return 0
}

func Role(ctx context.Context) string {
	if v, ok := ctx.Value(ctxRole).(string); ok {
		return v
	}
	return ""
}
