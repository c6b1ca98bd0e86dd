package repository

import (
	"context"

	"brightsteps/portal/internal/model"
	"brightsteps/portal/internal/scope"
)

const homeworkColumns = `id, academic_year, class_id, teacher_uid, title, description, due_date::text, deleted, created_at, updated_at`

func scanHomework(row rowScanner) (model.Homework, error) {
	var h model.Homework
	err := row.Scan(
		&h.ID,
		&h.AcademicYear,
		&h.ClassID,
		&h.TeacherUID,
		&h.Title,
		&h.Description,
		&h.DueDate,
		&h.Deleted,
		&h.CreatedAt,
		&h.UpdatedAt,
	)
	return h, err
}

func (s *Store) CreateHomework(ctx context.Context, h model.Homework) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO homework (id, academic_year, class_id, teacher_uid, title, description, due_date, deleted, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, h.ID, h.AcademicYear, h.ClassID, h.TeacherUID, h.Title, h.Description, h.DueDate, h.Deleted, h.CreatedAt, h.UpdatedAt)
	return err
}

func (s *Store) GetHomework(ctx context.Context, homeworkID string) (model.Homework, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+homeworkColumns+`
		FROM homework
		WHERE id = $1 AND NOT deleted
	`, homeworkID)
	return scanHomework(row)
}

func (s *Store) ListHomework(ctx context.Context, spec scope.Spec, limit int32) ([]model.Homework, error) {
	query := `
		SELECT ` + homeworkColumns + `
		FROM homework
		WHERE NOT deleted`
	where, args := spec.SQL(0)
	if where != "" {
		query += " AND " + where
	}
	query += ` ORDER BY due_date DESC LIMIT ` + placeholder(len(args)+1)
	args = append(args, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assignments []model.Homework
	for rows.Next() {
		h, err := scanHomework(rows)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, h)
	}
	return assignments, rows.Err()
}

func (s *Store) UpdateHomework(ctx context.Context, h model.Homework) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE homework
		SET title = $1, description = $2, due_date = $3, updated_at = now()
		WHERE id = $4 AND NOT deleted
	`, h.Title, h.Description, h.DueDate, h.ID)
	return err
}

func (s *Store) SoftDeleteHomework(ctx context.Context, homeworkID string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE homework SET deleted = TRUE, updated_at = now() WHERE id = $1
	`, homeworkID)
	return err
}

const submissionColumns = `id, homework_id, academic_year, class_id, student_id, parent_uid, teacher_uid, text, status, submitted_at, reviewed_at`

func scanSubmission(row rowScanner) (model.HomeworkSubmission, error) {
	var sub model.HomeworkSubmission
	err := row.Scan(
		&sub.ID,
		&sub.HomeworkID,
		&sub.AcademicYear,
		&sub.ClassID,
		&sub.StudentID,
		&sub.ParentUID,
		&sub.TeacherUID,
		&sub.Text,
		&sub.Status,
		&sub.SubmittedAt,
		&sub.ReviewedAt,
	)
	return sub, err
}

func (s *Store) UpsertSubmission(ctx context.Context, sub model.HomeworkSubmission) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO homework_submissions (id, homework_id, academic_year, class_id, student_id, parent_uid, teacher_uid, text, status, submitted_at, reviewed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (homework_id, student_id) DO UPDATE
		SET text = EXCLUDED.text,
		    status = EXCLUDED.status,
		    submitted_at = EXCLUDED.submitted_at,
		    reviewed_at = EXCLUDED.reviewed_at
	`, sub.ID, sub.HomeworkID, sub.AcademicYear, sub.ClassID, sub.StudentID, sub.ParentUID, sub.TeacherUID, sub.Text, sub.Status, sub.SubmittedAt, sub.ReviewedAt)
	return err
}

func (s *Store) GetSubmission(ctx context.Context, submissionID string) (model.HomeworkSubmission, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+submissionColumns+`
		FROM homework_submissions
		WHERE id = $1
	`, submissionID)
	return scanSubmission(row)
}

func (s *Store) ListSubmissions(ctx context.Context, spec scope.Spec, limit int32) ([]model.HomeworkSubmission, error) {
	query := `
		SELECT ` + submissionColumns + `
		FROM homework_submissions
		WHERE TRUE`
	where, args := spec.SQL(0)
	if where != "" {
		query += " AND " + where
	}
	query += ` ORDER BY submitted_at DESC LIMIT ` + placeholder(len(args)+1)
	args = append(args, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []model.HomeworkSubmission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func (s *Store) MarkSubmissionReviewed(ctx context.Context, submissionID string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE homework_submissions
		SET status = 'reviewed', reviewed_at = now()
		WHERE id = $1
	`, submissionID)
	return err
}
