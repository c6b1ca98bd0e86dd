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

type classResponse struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	AcademicYear string  `json:"academicYear"`
	TeacherUID   *string `json:"teacherId,omitempty"`
}

func mapClassResponse(c model.Class) classResponse {
	return classResponse{
		ID:           c.ID,
		Name:         c.Name,
		AcademicYear: c.AcademicYear,
		TeacherUID:   c.TeacherUID,
	}
}

func (s *Server) handleListClasses(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	spec, err := s.buildScope(r, claims, scope.Classes)
	if errors.Is(err, errEmptyScope) {
		writeJSON(w, http.StatusOK, []classResponse{})
		return
	}
	if err != nil {
		writeScopeError(w, err)
		return
	}

	classes, err := s.store.ListClasses(r.Context(), spec, queryLimit(r, 200))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	resp := make([]classResponse, 0, len(classes))
	for _, c := range classes {
		resp = append(resp, mapClassResponse(c))
	}
	writeJSON(w, http.StatusOK, resp)
}

type createClassRequest struct {
	Name         string `json:"name" validate:"required"`
	AcademicYear string `json:"academicYear" validate:"required"`
	TeacherUID   string `json:"teacherId"`
}

func (s *Server) handleCreateClass(w http.ResponseWriter, r *http.Request) {
	var req createClassRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "missing_fields")
		return
	}
	if !s.yearInWindow(req.AcademicYear) {
		writeError(w, http.StatusBadRequest, "year_out_of_window")
		return
	}

	now := time.Now().UTC()
	c := model.Class{
		ID:           uuid.NewString(),
		Name:         req.Name,
		AcademicYear: req.AcademicYear,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if req.TeacherUID != "" {
		if !s.isTeacher(r, req.TeacherUID) {
			writeError(w, http.StatusBadRequest, "invalid_teacher")
			return
		}
		c.TeacherUID = &req.TeacherUID
	}

	if err := s.store.CreateClass(r.Context(), c); err != nil {
		writeError(w, http.StatusConflict, "class_create_failed")
		return
	}
	writeJSON(w, http.StatusCreated, mapClassResponse(c))
}

func (s *Server) handleGetClass(w http.ResponseWriter, r *http.Request) {
	classID := chi.URLParam(r, "classID")

	c, err := s.store.GetClass(r.Context(), classID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "class_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, mapClassResponse(c))
}

type patchClassRequest struct {
	Name string `json:"name" validate:"required"`
}

func (s *Server) handlePatchClass(w http.ResponseWriter, r *http.Request) {
	classID := chi.URLParam(r, "classID")

	var req patchClassRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "missing_fields")
		return
	}

	c, err := s.store.GetClass(r.Context(), classID)
	if err != nil {
		writeError(w, http.StatusNotFound, "class_not_found")
		return
	}
	c.Name = req.Name

	if err := s.store.UpdateClass(r.Context(), c); err != nil {
		writeError(w, http.StatusConflict, "update_failed")
		return
	}
	writeJSON(w, http.StatusOK, mapClassResponse(c))
}

func (s *Server) handleDeleteClass(w http.ResponseWriter, r *http.Request) {
	classID := chi.URLParam(r, "classID")

	if _, err := s.store.GetClass(r.Context(), classID); err != nil {
		writeError(w, http.StatusNotFound, "class_not_found")
		return
	}
	if err := s.store.SoftDeleteClass(r.Context(), classID); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type assignTeacherRequest struct {
	TeacherUID string `json:"teacherId" validate:"required"`
}

func (s *Server) handleAssignTeacher(w http.ResponseWriter, r *http.Request) {
	classID := chi.URLParam(r, "classID")

	var req assignTeacherRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "missing_teacher_id")
		return
	}
	if !s.isTeacher(r, req.TeacherUID) {
		writeError(w, http.StatusBadRequest, "invalid_teacher")
		return
	}

	c, err := s.store.GetClass(r.Context(), classID)
	if err != nil {
		writeError(w, http.StatusNotFound, "class_not_found")
		return
	}
	if err := s.store.AssignTeacher(r.Context(), classID, req.TeacherUID); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	c.TeacherUID = &req.TeacherUID
	writeJSON(w, http.StatusOK, mapClassResponse(c))
}

func (s *Server) isTeacher(r *http.Request, userID string) bool {
	user, err := s.store.GetUserByID(r.Context(), userID)
	if err != nil {
		return false
	}
	return role.Normalize(user.Role) == role.Teacher
}

func (s *Server) yearInWindow(year string) bool {
	for _, candidate := range s.years.Window() {
		if string(candidate) == year {
			return true
		}
	}
	return false
}
