package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"gitlab.com/yelinaung/expense-api/internal/identity"
	"gitlab.com/yelinaung/expense-api/internal/logger"
)

type ownerKey struct{}

// ownerFrom returns the owner id stored by requireOwner.
func ownerFrom(ctx context.Context) string {
	owner, _ := ctx.Value(ownerKey{}).(string)
	return owner
}

// requireOwner rejects requests the resolver cannot attribute to an owner.
func requireOwner(resolver identity.Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			owner, err := resolver.Resolve(r)
			if err != nil {
				writeError(w, r, err)
				return
			}
			noteOwner(r.Context(), owner)
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ownerKey{}, owner)))
		})
	}
}

// accessLog writes one event per request once the response is done.
func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		// The owner is only known once requireOwner has run further down.
		var owner string
		r = r.WithContext(context.WithValue(r.Context(), accessKey{}, &owner))

		defer func() {
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			event := logger.Log.Info()
			if status >= http.StatusInternalServerError {
				event = logger.Log.Error()
			}
			event.
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("owner", logger.HashOwnerID(owner)).
				Msg("Request completed")
		}()

		next.ServeHTTP(ww, r)
	})
}

type accessKey struct{}

// noteOwner lets the access log record the hashed owner.
func noteOwner(ctx context.Context, owner string) {
	if slot, ok := ctx.Value(accessKey{}).(*string); ok {
		*slot = owner
	}
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}
