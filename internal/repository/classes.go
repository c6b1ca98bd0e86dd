package repository

import (
	"context"

	"brightsteps/portal/internal/model"
	"brightsteps/portal/internal/scope"
)

const classColumns = `id, name, academic_year, teacher_uid, deleted, created_at, updated_at`

func scanClass(row rowScanner) (model.Class, error) {
	var c model.Class
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.AcademicYear,
		&c.TeacherUID,
		&c.Deleted,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	return c, err
}

func (s *Store) CreateClass(ctx context.Context, c model.Class) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO classes (id, name, academic_year, teacher_uid, deleted, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, c.ID, c.Name, c.AcademicYear, c.TeacherUID, c.Deleted, c.CreatedAt, c.UpdatedAt)
	return err
}

func (s *Store) GetClass(ctx context.Context, classID string) (model.Class, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+classColumns+`
		FROM classes
		WHERE id = $1 AND NOT deleted
	`, classID)
	return scanClass(row)
}

func (s *Store) ListClasses(ctx context.Context, spec scope.Spec, limit int32) ([]model.Class, error) {
	query := `
		SELECT ` + classColumns + `
		FROM classes
		WHERE NOT deleted`
	where, args := spec.SQL(0)
	if where != "" {
		query += " AND " + where
	}
	query += ` ORDER BY name LIMIT ` + placeholder(len(args)+1)
	args = append(args, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var classes []model.Class
	for rows.Next() {
		c, err := scanClass(rows)
		if err != nil {
			return nil, err
		}
		classes = append(classes, c)
	}
	return classes, rows.Err()
}

// AssignTeacher binds a teacher to a class; one teacher per class per year.
func (s *Store) AssignTeacher(ctx context.Context, classID, teacherUID string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE classes SET teacher_uid = $1, updated_at = now() WHERE id = $2 AND NOT deleted
	`, teacherUID, classID)
	return err
}

// IsTeacherAssigned reports whether the teacher owns the class for the year.
func (s *Store) IsTeacherAssigned(ctx context.Context, teacherUID, classID, academicYear string) (bool, error) {
	var assigned bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM classes
			WHERE id = $1 AND teacher_uid = $2 AND academic_year = $3 AND NOT deleted
		)
	`, classID, teacherUID, academicYear).Scan(&assigned)
	return assigned, err
}

// TeacherClassIDs lists the classes assigned to a teacher for the year.
func (s *Store) TeacherClassIDs(ctx context.Context, teacherUID, academicYear string) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id FROM classes
		WHERE teacher_uid = $1 AND academic_year = $2 AND NOT deleted
	`, teacherUID, academicYear)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ParentClassIDs lists the classes the parent's children are enrolled in for
// the year. Used for transitive scoping of homework, attendance and
// announcements.
func (s *Store) ParentClassIDs(ctx context.Context, parentUID, academicYear string) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT class_id FROM enrollments
		WHERE parent_uid = $1 AND academic_year = $2 AND status = 'enrolled' AND NOT deleted
	`, parentUID, academicYear)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) UpdateClass(ctx context.Context, c model.Class) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE classes SET name = $1, updated_at = now() WHERE id = $2 AND NOT deleted
	`, c.Name, c.ID)
	return err
}

func (s *Store) SoftDeleteClass(ctx context.Context, classID string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE classes SET deleted = TRUE, updated_at = now() WHERE id = $1
	`, classID)
	return err
}
