package repository

import (
	"context"

	"brightsteps/portal/internal/model"
	"brightsteps/portal/internal/scope"
)

const studentColumns = `id, full_name, date_of_birth::text, gender, parent_uid, deleted, created_by, created_at, updated_at`

func scanStudent(row rowScanner) (model.Student, error) {
	var st model.Student
	err := row.Scan(
		&st.ID,
		&st.FullName,
		&st.DateOfBirth,
		&st.Gender,
		&st.ParentUID,
		&st.Deleted,
		&st.CreatedBy,
		&st.CreatedAt,
		&st.UpdatedAt,
	)
	return st, err
}

func (s *Store) CreateStudent(ctx context.Context, st model.Student) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO students (id, full_name, date_of_birth, gender, parent_uid, deleted, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, st.ID, st.FullName, st.DateOfBirth, st.Gender, st.ParentUID, st.Deleted, st.CreatedBy, st.CreatedAt, st.UpdatedAt)
	return err
}

func (s *Store) GetStudent(ctx context.Context, studentID string) (model.Student, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+studentColumns+`
		FROM students
		WHERE id = $1 AND NOT deleted
	`, studentID)
	return scanStudent(row)
}

func (s *Store) ListStudents(ctx context.Context, spec scope.Spec, limit int32) ([]model.Student, error) {
	query := `
		SELECT ` + studentColumns + `
		FROM students
		WHERE NOT deleted`
	where, args := spec.SQL(0)
	if where != "" {
		query += " AND " + where
	}
	query += ` ORDER BY full_name LIMIT ` + placeholder(len(args)+1)
	args = append(args, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var students []model.Student
	for rows.Next() {
		st, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, st)
	}
	return students, rows.Err()
}

// CountStudentsByParentAndName backs the duplicate-name-per-parent check.
func (s *Store) CountStudentsByParentAndName(ctx context.Context, parentUID, fullName string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM students
		WHERE parent_uid = $1 AND full_name = $2 AND NOT deleted
	`, parentUID, fullName).Scan(&count)
	return count, err
}

func (s *Store) UpdateStudent(ctx context.Context, st model.Student) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE students
		SET full_name = $1, date_of_birth = $2, gender = $3, parent_uid = $4, updated_at = now()
		WHERE id = $5 AND NOT deleted
	`, st.FullName, st.DateOfBirth, st.Gender, st.ParentUID, st.ID)
	return err
}

func (s *Store) SoftDeleteStudent(ctx context.Context, studentID string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE students SET deleted = TRUE, updated_at = now() WHERE id = $1
	`, studentID)
	return err
}
