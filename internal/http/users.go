package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"brightsteps/portal/internal/crypto"
	"brightsteps/portal/internal/model"
	"brightsteps/portal/internal/role"
)

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	limit := queryLimit(r, 100)

	var users []model.User
	var err error
	if raw := r.URL.Query().Get("role"); raw != "" {
		filter := role.Normalize(raw)
		if !role.Known(filter) {
			writeError(w, http.StatusBadRequest, "invalid_role")
			return
		}
		users, err = s.store.ListUsersByRole(r.Context(), string(filter), limit)
	} else {
		users, err = s.store.ListUsers(r.Context(), limit)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	summaries := make([]userSummary, 0, len(users))
	for _, user := range users {
		summaries = append(summaries, mapUserSummary(user))
	}
	writeJSON(w, http.StatusOK, summaries)
}

type createUserRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Role      string `json:"role" validate:"required"`
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}

	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "missing_fields")
		return
	}

	newRole := role.Normalize(req.Role)
	if !role.Known(newRole) {
		writeError(w, http.StatusBadRequest, "invalid_role")
		return
	}
	if !role.CanEditUser(claims.PortalRole(), newRole) {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "password_hash_failed")
		return
	}

	now := time.Now().UTC()
	user := model.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         string(newRole),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateUser(r.Context(), user); err != nil {
		writeError(w, http.StatusBadRequest, "user_create_failed")
		return
	}

	writeJSON(w, http.StatusCreated, mapUserSummary(user))
}

type updateUserRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

func (s *Server) handleUpdateUserRole(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}
	userID := chi.URLParam(r, "userID")

	var req updateUserRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	newRole := role.Normalize(req.Role)
	if !role.Known(newRole) {
		writeError(w, http.StatusBadRequest, "invalid_role")
		return
	}

	target, err := s.store.GetUserByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "user_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	// The caller must be allowed to edit both the current and the new role.
	editor := claims.PortalRole()
	if !role.CanEditUser(editor, role.Normalize(target.Role)) || !role.CanEditUser(editor, newRole) {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	if err := s.store.UpdateUserRole(r.Context(), userID, string(newRole)); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	target.Role = string(newRole)
	writeJSON(w, http.StatusOK, mapUserSummary(target))
}

type setUserDisabledRequest struct {
	Disabled bool `json:"disabled"`
}

func (s *Server) handleSetUserDisabled(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}
	userID := chi.URLParam(r, "userID")
	if userID == claims.UserID {
		writeError(w, http.StatusBadRequest, "cannot_disable_self")
		return
	}

	var req setUserDisabledRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	target, err := s.store.GetUserByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "user_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if !role.CanEditUser(claims.PortalRole(), role.Normalize(target.Role)) {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	if err := s.store.SetUserDisabled(r.Context(), userID, req.Disabled); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if req.Disabled {
		_ = s.store.RevokeRefreshSessionsByUser(r.Context(), userID, time.Now().UTC())
	}

	target.Disabled = req.Disabled
	writeJSON(w, http.StatusOK, mapUserSummary(target))
}
