package http

import (
	"errors"
	"net/http"
	"time"

	"brightsteps/portal/internal/model"
	"brightsteps/portal/internal/scope"
)

var attendanceStatuses = map[string]bool{
	"present": true,
	"absent":  true,
	"late":    true,
	"excused": true,
}

type attendanceDayResponse struct {
	ID           string                   `json:"id"`
	AcademicYear string                   `json:"academicYear"`
	ClassID      string                   `json:"classId"`
	Date         string                   `json:"date"`
	TeacherUID   string                   `json:"teacherId"`
	Records      []model.AttendanceRecord `json:"records"`
}

func mapAttendanceDayResponse(day model.AttendanceDay) attendanceDayResponse {
	records := day.Records
	if records == nil {
		records = []model.AttendanceRecord{}
	}
	return attendanceDayResponse{
		ID:           day.ID,
		AcademicYear: day.AcademicYear,
		ClassID:      day.ClassID,
		Date:         day.Date,
		TeacherUID:   day.TeacherUID,
		Records:      records,
	}
}

func (s *Server) handleListAttendance(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	spec, err := s.buildScope(r, claims, scope.Attendance)
	if errors.Is(err, errEmptyScope) {
		writeJSON(w, http.StatusOK, []attendanceDayResponse{})
		return
	}
	if err != nil {
		writeScopeError(w, err)
		return
	}

	days, err := s.store.ListAttendanceDays(r.Context(), spec, queryLimit(r, 100))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	resp := make([]attendanceDayResponse, 0, len(days))
	for _, day := range days {
		resp = append(resp, mapAttendanceDayResponse(day))
	}
	writeJSON(w, http.StatusOK, resp)
}

type putAttendanceRequest struct {
	ClassID string                   `json:"classId" validate:"required"`
	Date    string                   `json:"date" validate:"required,datetime=2006-01-02"`
	Records []model.AttendanceRecord `json:"records" validate:"required,min=1"`
}

// handlePutAttendance saves the whole register for one class day. Registers
// cannot be taken for future days or backfilled more than a year out.
func (s *Server) handlePutAttendance(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())

	var req putAttendanceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "missing_fields")
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date")
		return
	}
	now := time.Now().UTC()
	if date.After(now) {
		writeError(w, http.StatusBadRequest, "date_in_future")
		return
	}
	if date.Before(now.AddDate(-1, 0, 0)) {
		writeError(w, http.StatusBadRequest, "date_too_old")
		return
	}

	for _, record := range req.Records {
		if record.StudentID == "" || !attendanceStatuses[record.Status] {
			writeError(w, http.StatusBadRequest, "invalid_record")
			return
		}
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

	day := model.AttendanceDay{
		ID:           string(year) + "_" + req.ClassID + "_" + req.Date,
		AcademicYear: string(year),
		ClassID:      req.ClassID,
		Date:         req.Date,
		TeacherUID:   claims.UserID,
		Records:      req.Records,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.UpsertAttendanceDay(r.Context(), day); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, mapAttendanceDayResponse(day))
}
