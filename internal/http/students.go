package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"brightsteps/portal/internal/model"
	"brightsteps/portal/internal/role"
	"brightsteps/portal/internal/scope"
)

type studentResponse struct {
	ID          string `json:"id"`
	FullName    string `json:"fullName"`
	DateOfBirth string `json:"dateOfBirth"`
	Gender      string `json:"gender"`
	ParentUID   string `json:"parentId"`
	CreatedAt   int64  `json:"createdAt"`
}

func mapStudentResponse(st model.Student) studentResponse {
	return studentResponse{
		ID:          st.ID,
		FullName:    st.FullName,
		DateOfBirth: st.DateOfBirth,
		Gender:      st.Gender,
		ParentUID:   st.ParentUID,
		CreatedAt:   st.CreatedAt.Unix(),
	}
}

func (s *Server) handleListStudents(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	spec, err := s.buildScope(r, claims, scope.Students)
	if errors.Is(err, errEmptyScope) {
		writeJSON(w, http.StatusOK, []studentResponse{})
		return
	}
	if err != nil {
		writeScopeError(w, err)
		return
	}

	students, err := s.store.ListStudents(r.Context(), spec, queryLimit(r, 200))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	resp := make([]studentResponse, 0, len(students))
	for _, st := range students {
		resp = append(resp, mapStudentResponse(st))
	}
	writeJSON(w, http.StatusOK, resp)
}

type createStudentRequest struct {
	FullName    string `json:"fullName" validate:"required"`
	DateOfBirth string `json:"dateOfBirth" validate:"required,datetime=2006-01-02"`
	Gender      string `json:"gender" validate:"required,oneof=male female"`
	ParentUID   string `json:"parentId" validate:"required"`
}

func (s *Server) handleCreateStudent(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())

	var req createStudentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	req.FullName = strings.TrimSpace(req.FullName)
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "missing_fields")
		return
	}

	if !s.isParent(r, req.ParentUID) {
		writeError(w, http.StatusBadRequest, "invalid_parent")
		return
	}

	// Same child registered twice under one parent is almost always a typo.
	count, err := s.store.CountStudentsByParentAndName(r.Context(), req.ParentUID, req.FullName)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if count > 0 {
		writeError(w, http.StatusConflict, "duplicate_student")
		return
	}

	now := time.Now().UTC()
	st := model.Student{
		ID:          uuid.NewString(),
		FullName:    req.FullName,
		DateOfBirth: req.DateOfBirth,
		Gender:      req.Gender,
		ParentUID:   req.ParentUID,
		CreatedBy:   claims.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateStudent(r.Context(), st); err != nil {
		writeError(w, http.StatusBadRequest, "student_create_failed")
		return
	}

	writeJSON(w, http.StatusCreated, mapStudentResponse(st))
}

func (s *Server) handleGetStudent(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "studentID")

	st, err := s.store.GetStudent(r.Context(), studentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "student_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, mapStudentResponse(st))
}

type patchStudentRequest struct {
	FullName    *string `json:"fullName,omitempty"`
	DateOfBirth *string `json:"dateOfBirth,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Gender      *string `json:"gender,omitempty" validate:"omitempty,oneof=male female"`
	ParentUID   *string `json:"parentId,omitempty"`
}

func (s *Server) handlePatchStudent(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "studentID")

	var req patchStudentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_fields")
		return
	}

	st, err := s.store.GetStudent(r.Context(), studentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "student_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	if req.FullName != nil && strings.TrimSpace(*req.FullName) != "" {
		st.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.DateOfBirth != nil {
		st.DateOfBirth = *req.DateOfBirth
	}
	if req.Gender != nil {
		st.Gender = *req.Gender
	}
	if req.ParentUID != nil && *req.ParentUID != "" {
		if !s.isParent(r, *req.ParentUID) {
			writeError(w, http.StatusBadRequest, "invalid_parent")
			return
		}
		st.ParentUID = *req.ParentUID
	}

	if err := s.store.UpdateStudent(r.Context(), st); err != nil {
		writeError(w, http.StatusBadRequest, "update_failed")
		return
	}
	writeJSON(w, http.StatusOK, mapStudentResponse(st))
}

func (s *Server) isParent(r *http.Request, userID string) bool {
	user, err := s.store.GetUserByID(r.Context(), userID)
	if err != nil {
		return false
	}
	return role.Normalize(user.Role) == role.Parent
}

func (s *Server) handleDeleteStudent(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "studentID")

	if _, err := s.store.GetStudent(r.Context(), studentID); err != nil {
		writeError(w, http.StatusNotFound, "student_not_found")
		return
	}
	if err := s.store.SoftDeleteStudent(r.Context(), studentID); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
