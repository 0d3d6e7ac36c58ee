package users

import (
	"net/http"
	"strconv"

	"github.com/fpokrzywa/weaver-live/backend/modules/platform/api"
	"github.com/fpokrzywa/weaver-live/backend/modules/platform/logger"
	"github.com/fpokrzywa/weaver-live/cli/modules/core/accounts"
	"github.com/fpokrzywa/weaver-live/cli/modules/platform/auth"
	"github.com/fpokrzywa/weaver-live/cli/modules/platform/eventbus"
)

// Handler serves sign-in and the user and role administration endpoints
type Handler struct {
	accounts *accounts.Service
	auth     *auth.Authenticator
	bus      *eventbus.Bus
}

// RegisterRoutes registers the account endpoints on r
func RegisterRoutes(r *api.Router, svc *accounts.Service, authn *auth.Authenticator, bus *eventbus.Bus) *Handler {
	h := &Handler{accounts: svc, auth: authn, bus: bus}

	r.Handle("POST /api/auth/login", api.Public, "Sign in and receive a bearer token", h.Login)
	r.Handle("GET /api/auth/me", api.Authenticated, "Identity of the bearer token", h.Me)

	r.Handle("GET /api/users", api.AdminOnly, "List users (?search=, ?role_id=)", h.ListUsers)
	r.Handle("POST /api/users", api.AdminOnly, "Create a user", h.CreateUser)
	r.Handle("GET /api/users/{id}", api.AdminOnly, "Get a user", h.GetUser)
	r.Handle("PUT /api/users/{id}", api.AdminOnly, "Update a user", h.UpdateUser)
	r.Handle("DELETE /api/users/{id}", api.AdminOnly, "Delete a user", h.DeleteUser)

	r.Handle("GET /api/roles", api.AdminOnly, "List roles", h.ListRoles)
	r.Handle("POST /api/roles", api.AdminOnly, "Create a role", h.CreateRole)
	r.Handle("GET /api/roles/{id}", api.AdminOnly, "Get a role", h.GetRole)
	r.Handle("PUT /api/roles/{id}", api.AdminOnly, "Update a role", h.UpdateRole)
	r.Handle("DELETE /api/roles/{id}", api.AdminOnly, "Delete a role", h.DeleteRole)
	r.Handle("GET /api/permissions", api.AdminOnly, "List the permissions a role may carry", h.ListPermissions)

	return h
}

// ============================================
// Auth
// ============================================

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login checks credentials and returns the user with a token
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.SendErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		logger.Warn("Login failed for %s: %v", req.Email, err)
		api.SendError(w, err, "session")
		return
	}

	logger.Info("User %s signed in", session.User.Email)
	api.SendData(w, session)
}

// Me returns the caller's identity
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := api.RequireIdentity(w, r)
	if !ok {
		return
	}
	api.SendData(w, identity)
}

// ============================================
// Users
// ============================================

// ListUsers returns users, optionally filtered
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	filter := accounts.UserFilter{Query: r.URL.Query().Get("search")}
	if v := r.URL.Query().Get("role_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			api.SendErrorMessage(w, http.StatusBadRequest, "invalid role_id")
			return
		}
		filter.RoleID = id
	}

	users, err := h.accounts.ListUsers(r.Context(), filter)
	if err != nil {
		api.SendError(w, err, "users")
		return
	}
	if users == nil {
		users = []accounts.User{}
	}
	api.SendData(w, users)
}

// GetUser returns one user
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := api.PathID(w, r)
	if !ok {
		return
	}
	user, err := h.accounts.GetUser(r.Context(), id)
	if err != nil {
		api.SendError(w, err, "user")
		return
	}
	api.SendData(w, user)
}

// CreateUser creates a user and answers 201
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var in accounts.NewUser
	if err := api.DecodeJSON(r, &in); err != nil {
		api.SendErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.accounts.CreateUser(r.Context(), in)
	if err != nil {
		api.SendError(w, err, "user")
		return
	}

	logger.Info("User %s created by %s", user.Email, caller(r))
	h.changed()
	api.SendJSON(w, http.StatusCreated, user)
}

// UpdateUser applies a partial update
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := api.PathID(w, r)
	if !ok {
		return
	}
	var in accounts.UserUpdate
	if err := api.DecodeJSON(r, &in); err != nil {
		api.SendErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if in.IsActive != nil && !*in.IsActive && isSelf(r, id) {
		api.SendErrorMessage(w, http.StatusBadRequest, "cannot deactivate your own account")
		return
	}

	user, err := h.accounts.UpdateUser(r.Context(), id, in)
	if err != nil {
		api.SendError(w, err, "user")
		return
	}

	h.changed()
	api.SendData(w, user)
}

// DeleteUser removes a user
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := api.PathID(w, r)
	if !ok {
		return
	}
	if isSelf(r, id) {
		api.SendErrorMessage(w, http.StatusBadRequest, "cannot delete your own account")
		return
	}

	if err := h.accounts.DeleteUser(r.Context(), id); err != nil {
		api.SendError(w, err, "user")
		return
	}

	logger.Info("User %d deleted by %s", id, caller(r))
	h.changed()
	api.SendMessage(w, "User deleted successfully")
}

// ============================================
// Roles
// ============================================

// ListRoles returns every role
func (h *Handler) ListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.accounts.ListRoles(r.Context())
	if err != nil {
		api.SendError(w, err, "roles")
		return
	}
	if roles == nil {
		roles = []accounts.Role{}
	}
	api.SendData(w, roles)
}

// GetRole returns one role
func (h *Handler) GetRole(w http.ResponseWriter, r *http.Request) {
	id, ok := api.PathID(w, r)
	if !ok {
		return
	}
	role, err := h.accounts.GetRole(r.Context(), id)
	if err != nil {
		api.SendError(w, err, "role")
		return
	}
	api.SendData(w, role)
}

// CreateRole creates a role and answers 201
func (h *Handler) CreateRole(w http.ResponseWriter, r *http.Request) {
	var in accounts.NewRole
	if err := api.DecodeJSON(r, &in); err != nil {
		api.SendErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	role, err := h.accounts.CreateRole(r.Context(), in)
	if err != nil {
		api.SendError(w, err, "role")
		return
	}

	logger.Info("Role %s created by %s", role.Name, caller(r))
	h.changed()
	api.SendJSON(w, http.StatusCreated, role)
}

// UpdateRole applies a partial update
func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	id, ok := api.PathID(w, r)
	if !ok {
		return
	}
	var in accounts.RoleUpdate
	if err := api.DecodeJSON(r, &in); err != nil {
		api.SendErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	role, err := h.accounts.UpdateRole(r.Context(), id, in)
	if err != nil {
		api.SendError(w, err, "role")
		return
	}

	h.changed()
	api.SendData(w, role)
}

// DeleteRole removes a role no user is assigned to
func (h *Handler) DeleteRole(w http.ResponseWriter, r *http.Request) {
	id, ok := api.PathID(w, r)
	if !ok {
		return
	}

	if err := h.accounts.DeleteRole(r.Context(), id); err != nil {
		api.SendError(w, err, "role")
		return
	}

	logger.Info("Role %d deleted by %s", id, caller(r))
	h.changed()
	api.SendMessage(w, "Role deleted successfully")
}

// ListPermissions returns the known permission names
func (h *Handler) ListPermissions(w http.ResponseWriter, r *http.Request) {
	api.SendData(w, accounts.AvailablePermissions())
}

// changed tells bus listeners that the account store moved
func (h *Handler) changed() {
	if h.bus != nil {
		h.bus.Publish(eventbus.NewEvent(eventbus.EventAccountsUpdated).WithSource("api"))
	}
}

func caller(r *http.Request) string {
	if identity, ok := auth.FromContext(r.Context()); ok {
		return identity.Email
	}
	return "unknown"
}

func isSelf(r *http.Request, id int64) bool {
	identity, ok := auth.FromContext(r.Context())
	return ok && identity.UserID == id
}
