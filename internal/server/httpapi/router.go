package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter wires every endpoint. Everything under /api except signup and
// login requires a bearer token; farm-scoped routes also require membership.
func NewRouter(h *Handler, authn Authenticator) *mux.Router {
	authed := RequireAuth(authn, h.metrics)
	member := RequireFarmAccess(h.access, h.metrics)

	r := mux.NewRouter()
	r.Use(instrument(h.metrics))

	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	r.Handle("/metrics", h.metrics.Handler()).Methods(http.MethodGet)

	r.HandleFunc("/api/auth/signup", h.Signup).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/login", h.Login).Methods(http.MethodPost)
	r.Handle("/api/auth/me", authed(http.HandlerFunc(h.Me))).Methods(http.MethodGet)
	r.Handle("/api/farms", authed(http.HandlerFunc(h.CreateFarm))).Methods(http.MethodPost)

	r.Handle("/api/farms/{farmID}/members", authed(member(http.HandlerFunc(h.GrantMember)))).Methods(http.MethodPost)
	r.Handle("/api/farms/{farmID}/role", authed(member(http.HandlerFunc(h.Role)))).Methods(http.MethodGet)

	return r
}
