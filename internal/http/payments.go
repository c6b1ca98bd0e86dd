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

type paymentResponse struct {
	ID           string                `json:"id"`
	AcademicYear string                `json:"academicYear"`
	StudentID    string                `json:"studentId"`
	ParentUID    string                `json:"parentId"`
	TotalFees    float64               `json:"totalFees"`
	PaidAmount   float64               `json:"paidAmount"`
	Outstanding  float64               `json:"outstanding"`
	Records      []model.PaymentRecord `json:"records"`
}

func mapPaymentResponse(p model.Payment) paymentResponse {
	records := p.Records
	if records == nil {
		records = []model.PaymentRecord{}
	}
	return paymentResponse{
		ID:           p.ID,
		AcademicYear: p.AcademicYear,
		StudentID:    p.StudentID,
		ParentUID:    p.ParentUID,
		TotalFees:    p.TotalFees,
		PaidAmount:   p.PaidAmount,
		Outstanding:  p.TotalFees - p.PaidAmount,
		Records:      records,
	}
}

func (s *Server) handleListPayments(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	spec, err := s.buildScope(r, claims, scope.Payments)
	if errors.Is(err, errEmptyScope) {
		writeJSON(w, http.StatusOK, []paymentResponse{})
		return
	}
	if err != nil {
		writeScopeError(w, err)
		return
	}

	payments, err := s.store.ListPayments(r.Context(), spec, queryLimit(r, 200))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	resp := make([]paymentResponse, 0, len(payments))
	for _, p := range payments {
		resp = append(resp, mapPaymentResponse(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

type upsertPaymentRequest struct {
	AcademicYear string  `json:"academicYear" validate:"required"`
	StudentID    string  `json:"studentId" validate:"required"`
	TotalFees    float64 `json:"totalFees" validate:"gte=0"`
}

// handleUpsertPayment sets the fee sheet for (year, student); repeated calls
// adjust the total without touching the recorded payments.
func (s *Server) handleUpsertPayment(w http.ResponseWriter, r *http.Request) {
	var req upsertPaymentRequest
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

	paymentID := req.AcademicYear + "_" + req.StudentID
	now := time.Now().UTC()

	p, err := s.store.GetPayment(r.Context(), paymentID)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusInternalServerError, "server_error")
			return
		}
		p = model.Payment{
			ID:           paymentID,
			AcademicYear: req.AcademicYear,
			StudentID:    req.StudentID,
			ParentUID:    student.ParentUID,
			CreatedAt:    now,
		}
	}
	p.TotalFees = req.TotalFees
	p.UpdatedAt = now

	if err := s.store.UpsertPayment(r.Context(), p); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, mapPaymentResponse(p))
}

func (s *Server) handleGetPayment(w http.ResponseWriter, r *http.Request) {
	paymentID := chi.URLParam(r, "paymentID")

	p, err := s.store.GetPayment(r.Context(), paymentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "payment_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, mapPaymentResponse(p))
}

type addPaymentRecordRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
	Method string  `json:"method" validate:"required,oneof=cash card transfer"`
	Date   string  `json:"date" validate:"required,datetime=2006-01-02"`
	Note   string  `json:"note"`
}

func (s *Server) handleAddPaymentRecord(w http.ResponseWriter, r *http.Request) {
	paymentID := chi.URLParam(r, "paymentID")

	var req addPaymentRecordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_fields")
		return
	}

	p, err := s.store.GetPayment(r.Context(), paymentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "payment_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	p.Records = append(p.Records, model.PaymentRecord{
		Amount: req.Amount,
		Method: req.Method,
		Date:   req.Date,
		Note:   req.Note,
	})
	p.PaidAmount += req.Amount
	p.UpdatedAt = time.Now().UTC()

	if err := s.store.UpsertPayment(r.Context(), p); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, mapPaymentResponse(p))
}
