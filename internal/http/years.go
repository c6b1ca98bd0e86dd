package http

import (
	"errors"
	"net/http"

	"brightsteps/portal/internal/academicyear"
	"brightsteps/portal/internal/yearctx"
)

type academicYearsResponse struct {
	Current  academicyear.Year   `json:"current"`
	Selected academicyear.Year   `json:"selected"`
	Window   []academicyear.Year `json:"window"`
}

func (s *Server) handleListAcademicYears(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}
	writeJSON(w, http.StatusOK, academicYearsResponse{
		Current:  s.years.Current(),
		Selected: s.years.Selected(r.Context(), claims.UserID),
		Window:   s.years.Window(),
	})
}

func (s *Server) handleGetSelectedYear(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]academicyear.Year{
		"selected": s.years.Selected(r.Context(), claims.UserID),
	})
}

type selectYearRequest struct {
	Year string `json:"year" validate:"required"`
}

func (s *Server) handlePutSelectedYear(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}

	var req selectYearRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "missing_year")
		return
	}

	if err := s.years.Select(r.Context(), claims.UserID, academicyear.Year(req.Year)); err != nil {
		if errors.Is(err, yearctx.ErrYearOutOfWindow) {
			writeError(w, http.StatusBadRequest, "year_out_of_window")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	yearSelections.Inc()
	writeJSON(w, http.StatusOK, map[string]string{"selected": req.Year})
}

func (s *Server) handleResetSelectedYear(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}

	if err := s.years.Reset(r.Context(), claims.UserID); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]academicyear.Year{
		"selected": s.years.Current(),
	})
}
