package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"brightsteps/portal/internal/model"
	"brightsteps/portal/internal/scope"
)

type enrollmentResponse struct {
	ID           string `json:"id"`
	AcademicYear string `json:"academicYear"`
	StudentID    string `json:"studentId"`
	ClassID      string `json:"classId"`
	ParentUID    string `json:"parentId"`
	Status       string `json:"status"`
}

func mapEnrollmentResponse(e model.Enrollment) enrollmentResponse {
	return enrollmentResponse{
		ID:           e.ID,
		AcademicYear: e.AcademicYear,
		StudentID:    e.StudentID,
		ClassID:      e.ClassID,
		ParentUID:    e.ParentUID,
		Status:       e.Status,
	}
}

func (s *Server) handleListEnrollments(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	spec, err := s.buildScope(r, claims, scope.Enrollments)
	if errors.Is(err, errEmptyScope) {
		writeJSON(w, http.StatusOK, []enrollmentResponse{})
		return
	}
	if err != nil {
		writeScopeError(w, err)
		return
	}

	enrollments, err := s.store.ListEnrollments(r.Context(), spec, queryLimit(r, 200))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	resp := make([]enrollmentResponse, 0, len(enrollments))
	for _, e := range enrollments {
		resp = append(resp, mapEnrollmentResponse(e))
	}
	writeJSON(w, http.StatusOK, resp)
}

type createEnrollmentRequest struct {
	AcademicYear string `json:"academicYear" validate:"required"`
	StudentID    string `json:"studentId" validate:"required"`
	ClassID      string `json:"classId" validate:"required"`
}

func (s *Server) handleCreateEnrollment(w http.ResponseWriter, r *http.Request) {
	var req createEnrollmentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "missing_fields")
		return
	}
	if !s.yearInWindow(req.AcademicYear) {
		writeError(w, http.StatusBadRequest, "year_out_of_window")
		return
	}

	student, err := s.store.GetStudent(r.Context(), req.StudentID)
	if err != nil {
		writeError(w, http.StatusNotFound, "student_not_found")
		return
	}
	class, err := s.store.GetClass(r.Context(), req.ClassID)
	if err != nil {
		writeError(w, http.StatusNotFound, "class_not_found")
		return
	}
	if class.AcademicYear != req.AcademicYear {
		writeError(w, http.StatusBadRequest, "class_year_mismatch")
		return
	}

	now := time.Now().UTC()
	e := model.Enrollment{
		ID:           req.AcademicYear + "_" + req.StudentID,
		AcademicYear: req.AcademicYear,
		StudentID:    req.StudentID,
		ClassID:      req.ClassID,
		ParentUID:    student.ParentUID,
		Status:       model.EnrollmentStatusEnrolled,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateEnrollment(r.Context(), e); err != nil {
		writeError(w, http.StatusConflict, "already_enrolled")
		return
	}
	writeJSON(w, http.StatusCreated, mapEnrollmentResponse(e))
}

func (s *Server) handleGetEnrollment(w http.ResponseWriter, r *http.Request) {
	enrollmentID := chi.URLParam(r, "enrollmentID")

	e, err := s.store.GetEnrollment(r.Context(), enrollmentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "enrollment_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, mapEnrollmentResponse(e))
}

type updateEnrollmentStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=enrolled withdrawn"`
}

func (s *Server) handleUpdateEnrollmentStatus(w http.ResponseWriter, r *http.Request) {
	enrollmentID := chi.URLParam(r, "enrollmentID")

	var req updateEnrollmentStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_status")
		return
	}

	e, err := s.store.GetEnrollment(r.Context(), enrollmentID)
	if err != nil {
		writeError(w, http.StatusNotFound, "enrollment_not_found")
		return
	}
	if err := s.store.UpdateEnrollmentStatus(r.Context(), enrollmentID, req.Status); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	e.Status = req.Status
	writeJSON(w, http.StatusOK, mapEnrollmentResponse(e))
}

func (s *Server) handleDeleteEnrollment(w http.ResponseWriter, r *http.Request) {
	enrollmentID := chi.URLParam(r, "enrollmentID")

	if _, err := s.store.GetEnrollment(r.Context(), enrollmentID); err != nil {
		writeError(w, http.StatusNotFound, "enrollment_not_found")
		return
	}
	if err := s.store.SoftDeleteEnrollment(r.Context(), enrollmentID); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
