package httpapi

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/farmkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/farmkeeper/internal/server/models"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type ctxKey string

const userKey ctxKey = "user"

// Authenticator resolves the caller of a request from its bearer token.
type Authenticator interface {
	GetUserFromToken(r *http.Request) (*models.User, bool)
}

// AccessChecker answers farm membership questions.
type AccessChecker interface {
	HasFarmAccess(ctx context.Context, userID, farmID string) bool
	GetUserFarmRole(ctx context.Context, userID, farmID string) (models.Role, bool)
}

// UserFromContext returns the user RequireAuth attached to ctx.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(userKey).(*models.User)
	return u, ok && u != nil
}

// RequireAuth rejects requests without a valid bearer token with 401 and
// stores the resolved user in the request context otherwise.
func RequireAuth(authn Authenticator, m *metrics.Metrics) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := authn.GetUserFromToken(r)
			if !ok {
				m.AuthFailed(metrics.TransportHTTP)
				writeUnauthorized(w)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, user)))
		})
	}
}

// RequireFarmAccess must run after RequireAuth. It checks that the caller is
// a member of the farm named by the {farmID} route variable.
func RequireFarmAccess(ac AccessChecker, m *metrics.Metrics) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				writeUnauthorized(w)
				return
			}

			farmID, ok := farmIDFromRequest(r)
			if !ok {
				writeError(w, http.StatusBadRequest, "invalid farm id")
				return
			}

			if !ac.HasFarmAccess(r.Context(), user.ID, farmID) {
				m.AccessDenied(metrics.TransportHTTP)
				writeForbidden(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func farmIDFromRequest(r *http.Request) (string, bool) {
	id, err := uuid.Parse(mux.Vars(r)["farmID"])
	if err != nil {
		return "", false
	}
	return id.String(), true
}

// instrument records request latency under the matched route template, so
// farm ids do not explode label cardinality.
func instrument(m *metrics.Metrics) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := "unknown"
			if cur := mux.CurrentRoute(r); cur != nil {
				if tmpl, err := cur.GetPathTemplate(); err == nil {
					route = tmpl
				}
			}
			m.InstrumentRoute(route, next).ServeHTTP(w, r)
		})
	}
}
