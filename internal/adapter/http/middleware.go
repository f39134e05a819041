package http

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/couchcryptid/disaster-response-service/internal/observability"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// HeaderUser identifies the caller. It is a trust-the-client stand-in, not
// authentication.
const HeaderUser = "x-user"

const (
	RoleAdmin       = "admin"
	RoleContributor = "contributor"
)

// User is the caller identity attached to the request context.
type User struct {
	ID   string
	Role string
}

type userKey struct{}

// UserFrom returns the identity set by the x-user middleware.
func UserFrom(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(userKey{}).(User)
	return u, ok
}

func requireUser(admins []string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(HeaderUser)
			if id == "" {
				logger.WarnContext(r.Context(), "request without user header",
					"request_id", middleware.GetReqID(r.Context()),
					"path", r.URL.Path,
				)
				writeJSON(w, http.StatusUnauthorized, errorBody{Error: "Missing user"})
				return
			}
			role := RoleContributor
			if slices.Contains(admins, id) {
				role = RoleAdmin
			}
			ctx := context.WithValue(r.Context(), userKey{}, User{ID: id, Role: role})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			logger.InfoContext(r.Context(), "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
				"user", r.Header.Get(HeaderUser),
			)
		})
	}
}

func instrument(metrics *observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			metrics.HTTPRequests.WithLabelValues(route, r.Method, strconv.Itoa(ww.Status())).Inc()
			metrics.HTTPDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		})
	}
}
