package repository

import (
	"context"

	"brightsteps/portal/internal/model"
	"brightsteps/portal/internal/scope"
)

const enrollmentColumns = `id, academic_year, student_id, class_id, parent_uid, status, deleted, created_at, updated_at`

func scanEnrollment(row rowScanner) (model.Enrollment, error) {
	var e model.Enrollment
	err := row.Scan(
		&e.ID,
		&e.AcademicYear,
		&e.StudentID,
		&e.ClassID,
		&e.ParentUID,
		&e.Status,
		&e.Deleted,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	return e, err
}

func (s *Store) CreateEnrollment(ctx context.Context, e model.Enrollment) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO enrollments (id, academic_year, student_id, class_id, parent_uid, status, deleted, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, e.ID, e.AcademicYear, e.StudentID, e.ClassID, e.ParentUID, e.Status, e.Deleted, e.CreatedAt, e.UpdatedAt)
	return err
}

func (s *Store) GetEnrollment(ctx context.Context, enrollmentID string) (model.Enrollment, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+enrollmentColumns+`
		FROM enrollments
		WHERE id = $1 AND NOT deleted
	`, enrollmentID)
	return scanEnrollment(row)
}

func (s *Store) ListEnrollments(ctx context.Context, spec scope.Spec, limit int32) ([]model.Enrollment, error) {
	query := `
		SELECT ` + enrollmentColumns + `
		FROM enrollments
		WHERE NOT deleted`
	where, args := spec.SQL(0)
	if where != "" {
		query += " AND " + where
	}
	query += ` ORDER BY created_at DESC LIMIT ` + placeholder(len(args)+1)
	args = append(args, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var enrollments []model.Enrollment
	for rows.Next() {
		e, err := scanEnrollment(rows)
		if err != nil {
			return nil, err
		}
		enrollments = append(enrollments, e)
	}
	return enrollments, rows.Err()
}

func (s *Store) UpdateEnrollmentStatus(ctx context.Context, enrollmentID, status string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE enrollments SET status = $1, updated_at = now() WHERE id = $2 AND NOT deleted
	`, status, enrollmentID)
	return err
}

func (s *Store) SoftDeleteEnrollment(ctx context.Context, enrollmentID string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE enrollments SET deleted = TRUE, updated_at = now() WHERE id = $1
	`, enrollmentID)
	return err
}
