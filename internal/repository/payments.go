package repository

import (
	"context"
	"encoding/json"

	"brightsteps/portal/internal/model"
	"brightsteps/portal/internal/scope"
)

const paymentColumns = `id, academic_year, student_id, parent_uid, total_fees, paid_amount, records, created_at, updated_at`

func scanPayment(row rowScanner) (model.Payment, error) {
	var p model.Payment
	var records []byte
	err := row.Scan(
		&p.ID,
		&p.AcademicYear,
		&p.StudentID,
		&p.ParentUID,
		&p.TotalFees,
		&p.PaidAmount,
		&records,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return p, err
	}
	if len(records) > 0 {
		if err := json.Unmarshal(records, &p.Records); err != nil {
			return p, err
		}
	}
	return p, nil
}

func (s *Store) UpsertPayment(ctx context.Context, p model.Payment) error {
	records, err := json.Marshal(p.Records)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO payments (id, academic_year, student_id, parent_uid, total_fees, paid_amount, records, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE
		SET total_fees = EXCLUDED.total_fees,
		    paid_amount = EXCLUDED.paid_amount,
		    records = EXCLUDED.records,
		    updated_at = EXCLUDED.updated_at
	`, p.ID, p.AcademicYear, p.StudentID, p.ParentUID, p.TotalFees, p.PaidAmount, records, p.CreatedAt, p.UpdatedAt)
	return err
}

func (s *Store) GetPayment(ctx context.Context, paymentID string) (model.Payment, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE id = $1
	`, paymentID)
	return scanPayment(row)
}

func (s *Store) ListPayments(ctx context.Context, spec scope.Spec, limit int32) ([]model.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE TRUE`
	where, args := spec.SQL(0)
	if where != "" {
		query += " AND " + where
	}
	query += ` ORDER BY updated_at DESC LIMIT ` + placeholder(len(args)+1)
	args = append(args, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}
