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

type announcementResponse struct {
	ID           string  `json:"id"`
	AcademicYear string  `json:"academicYear"`
	ClassID      *string `json:"classId,omitempty"`
	AuthorID     string  `json:"authorId"`
	Title        string  `json:"title"`
	Content      string  `json:"content"`
	CreatedAt    int64   `json:"createdAt"`
}

func mapAnnouncementResponse(a model.Announcement) announcementResponse {
	return announcementResponse{
		ID:           a.ID,
		AcademicYear: a.AcademicYear,
		ClassID:      a.ClassID,
		AuthorID:     a.TeacherUID,
		Title:        a.Title,
		Content:      a.Content,
		CreatedAt:    a.CreatedAt.Unix(),
	}
}

func (s *Server) handleListAnnouncements(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	year := s.years.Selected(r.Context(), claims.UserID)

	spec, err := s.buildScope(r, claims, scope.Announcements)
	if errors.Is(err, errEmptyScope) {
		// No owned classes: only the school-wide feed for the year shows.
		spec = scope.Spec{Kind: scope.Announcements}
	} else if err != nil {
		writeScopeError(w, err)
		return
	}

	announcements, err := s.store.ListAnnouncements(r.Context(), spec, string(year), queryLimit(r, 100))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	resp := make([]announcementResponse, 0, len(announcements))
	for _, a := range announcements {
		resp = append(resp, mapAnnouncementResponse(a))
	}
	writeJSON(w, http.StatusOK, resp)
}

type createAnnouncementRequest struct {
	ClassID string `json:"classId"`
	Title   string `json:"title" validate:"required"`
	Content string `json:"content" validate:"required"`
}

func (s *Server) handleCreateAnnouncement(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())

	var req createAnnouncementRequest
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
	callerRole := claims.PortalRole()

	var classID *string
	switch callerRole {
	case role.Teacher:
		// Teachers only post to their own class.
		if req.ClassID == "" {
			writeError(w, http.StatusBadRequest, "missing_class_id")
			return
		}
		assigned, err := s.store.IsTeacherAssigned(r.Context(), claims.UserID, req.ClassID, string(year))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "server_error")
			return
		}
		if !assigned {
			writeError(w, http.StatusForbidden, "not_class_teacher")
			return
		}
		classID = &req.ClassID
	case role.Admin, role.Superadmin, role.ContentManager:
		if req.ClassID != "" {
			classID = &req.ClassID
		}
	default:
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	now := time.Now().UTC()
	a := model.Announcement{
		ID:           uuid.NewString(),
		AcademicYear: string(year),
		ClassID:      classID,
		TeacherUID:   claims.UserID,
		Title:        req.Title,
		Content:      req.Content,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateAnnouncement(r.Context(), a); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusCreated, mapAnnouncementResponse(a))
}

type patchAnnouncementRequest struct {
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
}

func (s *Server) handlePatchAnnouncement(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	announcementID := chi.URLParam(r, "announcementID")

	var req patchAnnouncementRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	a, err := s.store.GetAnnouncement(r.Context(), announcementID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "announcement_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if !s.canEditAnnouncement(claims.PortalRole(), claims.UserID, a) {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	if req.Title != nil && strings.TrimSpace(*req.Title) != "" {
		a.Title = strings.TrimSpace(*req.Title)
	}
	if req.Content != nil {
		a.Content = *req.Content
	}

	if err := s.store.UpdateAnnouncement(r.Context(), a); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, mapAnnouncementResponse(a))
}

func (s *Server) handleDeleteAnnouncement(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	announcementID := chi.URLParam(r, "announcementID")

	a, err := s.store.GetAnnouncement(r.Context(), announcementID)
	if err != nil {
		writeError(w, http.StatusNotFound, "announcement_not_found")
		return
	}
	if !s.canEditAnnouncement(claims.PortalRole(), claims.UserID, a) {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	if err := s.store.SoftDeleteAnnouncement(r.Context(), announcementID); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) canEditAnnouncement(callerRole role.Role, callerID string, a model.Announcement) bool {
	switch callerRole {
	case role.Admin, role.Superadmin, role.ContentManager:
		return true
	case role.Teacher:
		return a.TeacherUID == callerID
	}
	return false
}
