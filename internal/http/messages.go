package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"brightsteps/portal/internal/auth"
	"brightsteps/portal/internal/model"
	"brightsteps/portal/internal/role"
	"brightsteps/portal/internal/scope"
)

type threadResponse struct {
	ID            string  `json:"id"`
	AcademicYear  string  `json:"academicYear"`
	ClassID       string  `json:"classId"`
	TeacherID     string  `json:"teacherId"`
	ParentID      string  `json:"parentId"`
	StudentID     string  `json:"studentId"`
	LastMessage   *string `json:"lastMessage,omitempty"`
	LastSenderID  *string `json:"lastSenderId,omitempty"`
	UnreadTeacher int     `json:"unreadTeacher"`
	UnreadParent  int     `json:"unreadParent"`
	UpdatedAt     int64   `json:"updatedAt"`
}

func mapThreadResponse(t model.Thread) threadResponse {
	return threadResponse{
		ID:            t.ID,
		AcademicYear:  t.AcademicYear,
		ClassID:       t.ClassID,
		TeacherID:     t.TeacherID,
		ParentID:      t.ParentID,
		StudentID:     t.StudentID,
		LastMessage:   t.LastMessage,
		LastSenderID:  t.LastSenderID,
		UnreadTeacher: t.UnreadTeacher,
		UnreadParent:  t.UnreadParent,
		UpdatedAt:     t.UpdatedAt.Unix(),
	}
}

func (s *Server) handleListThreads(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	spec, err := s.buildScope(r, claims, scope.Threads)
	if errors.Is(err, errEmptyScope) {
		writeJSON(w, http.StatusOK, []threadResponse{})
		return
	}
	if err != nil {
		writeScopeError(w, err)
		return
	}

	threads, err := s.store.ListThreads(r.Context(), spec, queryLimit(r, 100))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	resp := make([]threadResponse, 0, len(threads))
	for _, t := range threads {
		resp = append(resp, mapThreadResponse(t))
	}
	writeJSON(w, http.StatusOK, resp)
}

type createThreadRequest struct {
	EnrollmentID string `json:"enrollmentId" validate:"required"`
}

// handleCreateThread opens (or returns) the parent's conversation with the
// class teacher about one enrolled child.
func (s *Server) handleCreateThread(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())

	var req createThreadRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "missing_enrollment_id")
		return
	}

	enrollment, err := s.store.GetEnrollment(r.Context(), req.EnrollmentID)
	if err != nil {
		writeError(w, http.StatusNotFound, "enrollment_not_found")
		return
	}
	if enrollment.ParentUID != claims.UserID || enrollment.Status != model.EnrollmentStatusEnrolled {
		writeError(w, http.StatusForbidden, "not_enrolled")
		return
	}

	class, err := s.store.GetClass(r.Context(), enrollment.ClassID)
	if err != nil {
		writeError(w, http.StatusNotFound, "class_not_found")
		return
	}
	if class.TeacherUID == nil {
		writeError(w, http.StatusConflict, "class_has_no_teacher")
		return
	}

	now := time.Now().UTC()
	thread, err := s.store.GetOrCreateThread(r.Context(), model.Thread{
		ID:           *class.TeacherUID + "_" + enrollment.ID,
		AcademicYear: enrollment.AcademicYear,
		ClassID:      enrollment.ClassID,
		TeacherID:    *class.TeacherUID,
		ParentID:     claims.UserID,
		StudentID:    enrollment.StudentID,
		EnrollmentID: enrollment.ID,
		Status:       "active",
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusCreated, mapThreadResponse(thread))
}

// loadThread fetches the thread and refuses callers who are not a
// participant. Admins read threads but never post to them.
func (s *Server) loadThread(w http.ResponseWriter, r *http.Request, claims *auth.Claims) (model.Thread, bool) {
	threadID := chi.URLParam(r, "threadID")

	thread, err := s.store.GetThread(r.Context(), threadID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "thread_not_found")
			return model.Thread{}, false
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return model.Thread{}, false
	}

	switch claims.PortalRole() {
	case role.Admin, role.Superadmin:
		return thread, true
	case role.Teacher:
		if thread.TeacherID == claims.UserID {
			return thread, true
		}
	case role.Parent:
		if thread.ParentID == claims.UserID {
			return thread, true
		}
	}
	writeError(w, http.StatusForbidden, "forbidden")
	return model.Thread{}, false
}

func (s *Server) handleGetThread(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	thread, ok := s.loadThread(w, r, claims)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, mapThreadResponse(thread))
}

type messageResponse struct {
	ID        string  `json:"id"`
	ThreadID  string  `json:"threadId"`
	SenderID  string  `json:"senderId"`
	Title     *string `json:"title,omitempty"`
	Text      string  `json:"text"`
	CreatedAt int64   `json:"createdAt"`
}

func mapMessageResponse(m model.Message) messageResponse {
	return messageResponse{
		ID:        m.ID,
		ThreadID:  m.ThreadID,
		SenderID:  m.SenderID,
		Title:     m.Title,
		Text:      m.Text,
		CreatedAt: m.CreatedAt.Unix(),
	}
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	thread, ok := s.loadThread(w, r, claims)
	if !ok {
		return
	}

	messages, err := s.store.ListMessages(r.Context(), thread.ID, queryLimit(r, 200))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	resp := make([]messageResponse, 0, len(messages))
	for _, m := range messages {
		resp = append(resp, mapMessageResponse(m))
	}
	writeJSON(w, http.StatusOK, resp)
}

type postMessageRequest struct {
	Title *string `json:"title,omitempty"`
	Text  string  `json:"text" validate:"required"`
}

func (s *Server) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	thread, ok := s.loadThread(w, r, claims)
	if !ok {
		return
	}

	// Participants only past this point.
	senderIsTeacher := thread.TeacherID == claims.UserID
	if !senderIsTeacher && thread.ParentID != claims.UserID {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	var req postMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "missing_text")
		return
	}

	msg := model.Message{
		ID:        uuid.NewString(),
		ThreadID:  thread.ID,
		SenderID:  claims.UserID,
		Title:     req.Title,
		Text:      req.Text,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateMessage(r.Context(), msg, !senderIsTeacher); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusCreated, mapMessageResponse(msg))
}

func (s *Server) handleMarkThreadRead(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	thread, ok := s.loadThread(w, r, claims)
	if !ok {
		return
	}

	readerIsTeacher := thread.TeacherID == claims.UserID
	if !readerIsTeacher && thread.ParentID != claims.UserID {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	if err := s.store.MarkThreadRead(r.Context(), thread.ID, readerIsTeacher); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
