package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mabello/bodega/internal/model"
	"github.com/mabello/bodega/internal/store"
)

// UsersHandler handles user administration endpoints.
type UsersHandler struct {
	DB *sql.DB
}

type createUserRequest struct {
	Username string   `json:"username"`
	Password string   `json:"password"`
	Roles    []string `json:"roles"`
}

type setRolesRequest struct {
	Roles []string `json:"roles"`
}

type resetPasswordRequest struct {
	NewPassword string `json:"new_password"`
}

type userResponse struct {
	ID       int64     `json:"id"`
	Username string    `json:"username"`
	Roles    []string  `json:"roles"`
	Disabled bool      `json:"disabled"`
	Created  time.Time `json:"created_at"`
}

func toUserResponse(u *model.User) userResponse {
	roles := u.Roles
	if roles == nil {
		roles = []string{}
	}
	return userResponse{
		ID:       u.ID,
		Username: u.Username,
		Roles:    roles,
		Disabled: u.Disabled,
		Created:  u.CreatedAt,
	}
}

// loadTarget resolves the {id} path value to an active user, or writes an
// error response and returns nil.
func (h *UsersHandler) loadTarget(w http.ResponseWriter, r *http.Request) *model.User {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid user id")
		return nil
	}

	target, err := store.GetUser(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return nil
	}
	if target == nil || target.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "user not found")
		return nil
	}
	return target
}

// guardTarget rejects mutations aimed at the built-in maintenance
// account. Only that account may modify itself.
func guardTarget(w http.ResponseWriter, r *http.Request, target *model.User) bool {
	if target.IsSuper() && !Identity(r.Context()).IsSuper() {
		jsonError(w, http.StatusForbidden, "this account cannot be managed")
		return false
	}
	return true
}

// List handles GET /api/users.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := store.ListUsers(r.Context(), h.DB)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list users")
		return
	}

	responses := make([]userResponse, 0, len(users))
	for i := range users {
		responses = append(responses, toUserResponse(&users[i]))
	}
	jsonResponse(w, http.StatusOK, responses)
}

// Get handles GET /api/users/{id}.
func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	target := h.loadTarget(w, r)
	if target == nil {
		return
	}
	jsonResponse(w, http.StatusOK, toUserResponse(target))
}

// Create handles POST /api/users.
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Username == model.SuperUsername {
		jsonError(w, http.StatusBadRequest, "username is reserved")
		return
	}
	if err := model.ValidatePassword(req.Password); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	if containsRole(req.Roles, model.RoleDeveloper) {
		jsonError(w, http.StatusBadRequest, "the developer role cannot be granted")
		return
	}

	existing, err := store.GetUserByUsername(r.Context(), h.DB, req.Username)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if existing != nil && existing.DeletedAt == nil {
		jsonError(w, http.StatusConflict, "username already taken")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	user, err := store.CreateUser(r.Context(), h.DB, req.Username, string(hash), req.Roles)
	if err != nil {
		storeError(w, err)
		return
	}

	slog.Info("user created", "admin", Identity(r.Context()).Username,
		"user", user.Username, "roles", user.Roles)
	jsonResponse(w, http.StatusCreated, toUserResponse(user))
}

// SetRoles handles PUT /api/users/{id}/roles.
func (h *UsersHandler) SetRoles(w http.ResponseWriter, r *http.Request) {
	target := h.loadTarget(w, r)
	if target == nil || !guardTarget(w, r, target) {
		return
	}

	var req setRolesRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if containsRole(req.Roles, model.RoleDeveloper) && !target.IsSuper() {
		jsonError(w, http.StatusBadRequest, "the developer role cannot be granted")
		return
	}

	if err := store.SetUserRoles(r.Context(), h.DB, target.ID, req.Roles); err != nil {
		storeError(w, err)
		return
	}

	updated, err := store.GetUser(r.Context(), h.DB, target.ID)
	if err != nil || updated == nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	slog.Info("user roles changed", "admin", Identity(r.Context()).Username,
		"user", updated.Username, "roles", updated.Roles)
	jsonResponse(w, http.StatusOK, toUserResponse(updated))
}

// ResetPassword handles PUT /api/users/{id}/password.
func (h *UsersHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	target := h.loadTarget(w, r)
	if target == nil || !guardTarget(w, r, target) {
		return
	}

	var req resetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := model.ValidatePassword(req.NewPassword); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}
	if err := store.UpdateUserPassword(r.Context(), h.DB, target.ID, string(hash)); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to update password")
		return
	}

	slog.Info("user password reset", "admin", Identity(r.Context()).Username, "user", target.Username)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "password updated"})
}

// SetDisabled handles PUT /api/users/{id}/disabled.
func (h *UsersHandler) SetDisabled(w http.ResponseWriter, r *http.Request) {
	target := h.loadTarget(w, r)
	if target == nil || !guardTarget(w, r, target) {
		return
	}

	var req struct {
		Disabled bool `json:"disabled"`
	}
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if target.ID == Identity(r.Context()).ID && req.Disabled {
		jsonError(w, http.StatusBadRequest, "cannot disable your own account")
		return
	}

	if err := store.SetUserDisabled(r.Context(), h.DB, target.ID, req.Disabled); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to update user")
		return
	}

	slog.Info("user disabled flag changed", "admin", Identity(r.Context()).Username,
		"user", target.Username, "disabled", req.Disabled)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "user updated"})
}

// Delete handles DELETE /api/users/{id}.
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	target := h.loadTarget(w, r)
	if target == nil || !guardTarget(w, r, target) {
		return
	}
	if target.IsSuper() {
		jsonError(w, http.StatusForbidden, "this account cannot be deleted")
		return
	}
	if target.ID == Identity(r.Context()).ID {
		jsonError(w, http.StatusBadRequest, "cannot delete your own account")
		return
	}

	if err := store.DeleteUser(r.Context(), h.DB, target.ID); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to delete user")
		return
	}

	slog.Info("user deleted", "admin", Identity(r.Context()).Username, "user", target.Username)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "user deleted"})
}

func containsRole(roles []string, role string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
