package middleware

import (
	"net/http"

	"github.com/getsentry/sentry-go"

	appCtx "github.com/baechuer/real-time-ressys/services/recommendation-service/internal/pkg/context"
)

// Sentry puts a per-request hub on the context and reports panics before
// handing them on to chi's Recoverer. Without an initialized client the hub
// drops everything.
func Sentry(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub := sentry.GetHubFromContext(r.Context())
		if hub == nil {
			hub = sentry.CurrentHub().Clone()
		}
		hub.Scope().SetRequest(r)
		if id := appCtx.RequestID(r.Context()); id != "" {
			hub.Scope().SetTag("request_id", id)
		}
		ctx := sentry.SetHubOnContext(r.Context(), hub)

		defer func() {
			if err := recover(); err != nil {
				if err != http.ErrAbortHandler {
					hub.RecoverWithContext(ctx, err)
				}
				panic(err)
			}
		}()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
