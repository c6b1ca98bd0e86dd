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
	"brightsteps/portal/internal/scope"
)

type homeworkResponse struct {
	ID           string `json:"id"`
	AcademicYear string `json:"academicYear"`
	ClassID      string `json:"classId"`
	TeacherUID   string `json:"teacherId"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	DueDate      string `json:"dueDate"`
}

func mapHomeworkResponse(h model.Homework) homeworkResponse {
	return homeworkResponse{
		ID:           h.ID,
		AcademicYear: h.AcademicYear,
		ClassID:      h.ClassID,
		TeacherUID:   h.TeacherUID,
		Title:        h.Title,
		Description:  h.Description,
		DueDate:      h.DueDate,
	}
}

func (s *Server) handleListHomework(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	spec, err := s.buildScope(r, claims, scope.Homework)
	if errors.Is(err, errEmptyScope) {
		writeJSON(w, http.StatusOK, []homeworkResponse{})
		return
	}
	if err != nil {
		writeScopeError(w, err)
		return
	}

	assignments, err := s.store.ListHomework(r.Context(), spec, queryLimit(r, 200))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	resp := make([]homeworkResponse, 0, len(assignments))
	for _, h := range assignments {
		resp = append(resp, mapHomeworkResponse(h))
	}
	writeJSON(w, http.StatusOK, resp)
}

type createHomeworkRequest struct {
	ClassID     string `json:"classId" validate:"required"`
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	DueDate     string `json:"dueDate" validate:"required,datetime=2006-01-02"`
}

func (s *Server) handleCreateHomework(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())

	var req createHomeworkRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "missing_fields")
		return
	}

	year := s.years.Selected(r.Context(), claims.UserID)
	assigned, err := s.store.IsTeacherAssigned(r.Context(), claims.UserID, req.ClassID, string(year))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if !assigned {
		writeError(w, http.StatusForbidden, "not_class_teacher")
		return
	}

	now := time.Now().UTC()
	h := model.Homework{
		ID:           uuid.NewString(),
		AcademicYear: string(year),
		ClassID:      req.ClassID,
		TeacherUID:   claims.UserID,
		Title:        req.Title,
		Description:  req.Description,
		DueDate:      req.DueDate,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateHomework(r.Context(), h); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusCreated, mapHomeworkResponse(h))
}

func (s *Server) handleGetHomework(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	homeworkID := chi.URLParam(r, "homeworkID")

	h, err := s.store.GetHomework(r.Context(), homeworkID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "homework_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if h.TeacherUID != claims.UserID {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}
	writeJSON(w, http.StatusOK, mapHomeworkResponse(h))
}

type patchHomeworkRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	DueDate     *string `json:"dueDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

func (s *Server) handlePatchHomework(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	homeworkID := chi.URLParam(r, "homeworkID")

	var req patchHomeworkRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_fields")
		return
	}

	h, err := s.store.GetHomework(r.Context(), homeworkID)
	if err != nil {
		writeError(w, http.StatusNotFound, "homework_not_found")
		return
	}
	if h.TeacherUID != claims.UserID {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	if req.Title != nil && strings.TrimSpace(*req.Title) != "" {
		h.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		h.Description = *req.Description
	}
	if req.DueDate != nil {
		h.DueDate = *req.DueDate
	}

	if err := s.store.UpdateHomework(r.Context(), h); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, mapHomeworkResponse(h))
}

func (s *Server) handleDeleteHomework(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	homeworkID := chi.URLParam(r, "homeworkID")

	h, err := s.store.GetHomework(r.Context(), homeworkID)
	if err != nil {
		writeError(w, http.StatusNotFound, "homework_not_found")
		return
	}
	if h.TeacherUID != claims.UserID {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	if err := s.store.SoftDeleteHomework(r.Context(), homeworkID); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type submissionResponse struct {
	ID          string `json:"id"`
	HomeworkID  string `json:"homeworkId"`
	StudentID   string `json:"studentId"`
	Text        string `json:"text"`
	Status      string `json:"status"`
	SubmittedAt int64  `json:"submittedAt"`
	ReviewedAt  *int64 `json:"reviewedAt,omitempty"`
}

func mapSubmissionResponse(sub model.HomeworkSubmission) submissionResponse {
	resp := submissionResponse{
		ID:          sub.ID,
		HomeworkID:  sub.HomeworkID,
		StudentID:   sub.StudentID,
		Text:        sub.Text,
		Status:      sub.Status,
		SubmittedAt: sub.SubmittedAt.Unix(),
	}
	if sub.ReviewedAt != nil {
		reviewed := sub.ReviewedAt.Unix()
		resp.ReviewedAt = &reviewed
	}
	return resp
}

func (s *Server) handleListSubmissions(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	spec, err := s.buildScope(r, claims, scope.Submissions)
	if errors.Is(err, errEmptyScope) {
		writeJSON(w, http.StatusOK, []submissionResponse{})
		return
	}
	if err != nil {
		writeScopeError(w, err)
		return
	}

	subs, err := s.store.ListSubmissions(r.Context(), spec, queryLimit(r, 200))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	resp := make([]submissionResponse, 0, len(subs))
	for _, sub := range subs {
		resp = append(resp, mapSubmissionResponse(sub))
	}
	writeJSON(w, http.StatusOK, resp)
}

type submitHomeworkRequest struct {
	StudentID string `json:"studentId" validate:"required"`
	Text      string `json:"text" validate:"required"`
}

// handleSubmitHomework lets a parent hand in work for one of their children.
// Resubmitting replaces the text and resets the review state.
func (s *Server) handleSubmitHomework(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	homeworkID := chi.URLParam(r, "homeworkID")

	var req submitHomeworkRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "missing_fields")
		return
	}

	h, err := s.store.GetHomework(r.Context(), homeworkID)
	if err != nil {
		writeError(w, http.StatusNotFound, "homework_not_found")
		return
	}

	enrollment, err := s.store.GetEnrollment(r.Context(), h.AcademicYear+"_"+req.StudentID)
	if err != nil {
		writeError(w, http.StatusForbidden, "not_enrolled")
		return
	}
	if enrollment.ParentUID != claims.UserID || enrollment.ClassID != h.ClassID ||
		enrollment.Status != model.EnrollmentStatusEnrolled {
		writeError(w, http.StatusForbidden, "not_enrolled")
		return
	}

	sub := model.HomeworkSubmission{
		ID:           uuid.NewString(),
		HomeworkID:   homeworkID,
		AcademicYear: h.AcademicYear,
		ClassID:      h.ClassID,
		StudentID:    req.StudentID,
		ParentUID:    claims.UserID,
		TeacherUID:   h.TeacherUID,
		Text:         req.Text,
		Status:       model.SubmissionStatusSubmitted,
		SubmittedAt:  time.Now().UTC(),
	}
	if err := s.store.UpsertSubmission(r.Context(), sub); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusCreated, mapSubmissionResponse(sub))
}

func (s *Server) handleReviewSubmission(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	submissionID := chi.URLParam(r, "submissionID")

	sub, err := s.store.GetSubmission(r.Context(), submissionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "submission_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if sub.TeacherUID != claims.UserID {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	if err := s.store.MarkSubmissionReviewed(r.Context(), submissionID); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": model.SubmissionStatusReviewed})
}
