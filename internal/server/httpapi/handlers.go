package httpapi

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/farmkeeper/internal/logging"
	"github.com/dmitrijs2005/farmkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/farmkeeper/internal/server/models"
	"github.com/dmitrijs2005/farmkeeper/internal/server/services"
	"github.com/google/uuid"
)

type UserService interface {
	Signup(ctx context.Context, email, name, password string) (*services.Session, error)
	Login(ctx context.Context, email, password string) (*services.Session, error)
}

type FarmService interface {
	CreateFarm(ctx context.Context, ownerID, name string) (*models.Farm, error)
	Grant(ctx context.Context, actorID, farmID, userID string, role models.Role) error
}

// Handler holds the endpoints. Routes are wired in NewRouter.
type Handler struct {
	users   UserService
	farms   FarmService
	access  AccessChecker
	metrics *metrics.Metrics
	logger  logging.Logger
}

// NewHandler builds the endpoints. m may be nil.
func NewHandler(us UserService, fs FarmService, ac AccessChecker, m *metrics.Metrics, l logging.Logger) *Handler {
	return &Handler{users: us, farms: fs, access: ac, metrics: m, logger: l.With("module", "http")}
}

type signupRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type createFarmRequest struct {
	Name string `json:"name"`
}

type grantRequest struct {
	UserID string      `json:"userId"`
	Role   models.Role `json:"role,omitempty"`
}

type roleResponse struct {
	FarmID string      `json:"farmId"`
	UserID string      `json:"userId"`
	Role   models.Role `json:"role"`
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !h.decode(w, r, &req) {
		return
	}

	sess, err := h.users.Signup(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{Token: sess.Token, User: sess.User})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decode(w, r, &req) {
		return
	}

	sess, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Token: sess.Token, User: sess.User})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) CreateFarm(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}

	var req createFarmRequest
	if !h.decode(w, r, &req) {
		return
	}

	farm, err := h.farms.CreateFarm(r.Context(), user.ID, req.Name)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, farm)
}

// GrantMember adds or re-roles a member. Membership of the caller is already
// checked by RequireFarmAccess; FarmService enforces the role rules.
func (h *Handler) GrantMember(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	farmID, _ := farmIDFromRequest(r)

	var req grantRequest
	if !h.decode(w, r, &req) {
		return
	}
	target, err := uuid.Parse(req.UserID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	if err := h.farms.Grant(r.Context(), user.ID, farmID, target.String(), req.Role); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Role(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	farmID, _ := farmIDFromRequest(r)

	role, ok := h.access.GetUserFarmRole(r.Context(), user.ID, farmID)
	if !ok {
		writeForbidden(w)
		return
	}
	writeJSON(w, http.StatusOK, roleResponse{FarmID: farmID, UserID: user.ID, Role: role})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := decodeJSON(w, r, v); err != nil {
		h.logger.Debug(r.Context(), "bad request body", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
