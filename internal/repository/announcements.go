package repository

import (
	"context"

	"brightsteps/portal/internal/model"
	"brightsteps/portal/internal/scope"
)

const announcementColumns = `id, academic_year, class_id, teacher_uid, title, content, deleted, created_at, updated_at`

func scanAnnouncement(row rowScanner) (model.Announcement, error) {
	var a model.Announcement
	err := row.Scan(
		&a.ID,
		&a.AcademicYear,
		&a.ClassID,
		&a.TeacherUID,
		&a.Title,
		&a.Content,
		&a.Deleted,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	return a, err
}

func (s *Store) CreateAnnouncement(ctx context.Context, a model.Announcement) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO announcements (id, academic_year, class_id, teacher_uid, title, content, deleted, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, a.ID, a.AcademicYear, a.ClassID, a.TeacherUID, a.Title, a.Content, a.Deleted, a.CreatedAt, a.UpdatedAt)
	return err
}

func (s *Store) GetAnnouncement(ctx context.Context, announcementID string) (model.Announcement, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+announcementColumns+`
		FROM announcements
		WHERE id = $1 AND NOT deleted
	`, announcementID)
	return scanAnnouncement(row)
}

// announcementsListSQL renders the list query. Class-targeted rows must match
// the scope conditions; school-wide rows (class_id IS NULL) are always pinned
// to the selected year. An empty scope means the caller owns no classes, so
// only school-wide rows qualify. The query never runs without the year.
func announcementsListSQL(spec scope.Spec, academicYear string, limit int32) (string, []interface{}) {
	query := `
		SELECT ` + announcementColumns + `
		FROM announcements
		WHERE NOT deleted`
	where, args := spec.SQL(0)
	schoolWide := "(class_id IS NULL AND academic_year = " + placeholder(len(args)+1) + ")"
	if where != "" {
		query += " AND (" + where + " OR " + schoolWide + ")"
	} else {
		query += " AND " + schoolWide
	}
	args = append(args, academicYear)
	query += ` ORDER BY created_at DESC LIMIT ` + placeholder(len(args)+1)
	args = append(args, limit)
	return query, args
}

// ListAnnouncements returns class-targeted rows matching the scope plus
// school-wide rows (class_id IS NULL) for the same year.
func (s *Store) ListAnnouncements(ctx context.Context, spec scope.Spec, academicYear string, limit int32) ([]model.Announcement, error) {
	query, args := announcementsListSQL(spec, academicYear, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var announcements []model.Announcement
	for rows.Next() {
		a, err := scanAnnouncement(rows)
		if err != nil {
			return nil, err
		}
		announcements = append(announcements, a)
	}
	return announcements, rows.Err()
}

func (s *Store) UpdateAnnouncement(ctx context.Context, a model.Announcement) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE announcements
		SET title = $1, content = $2, updated_at = now()
		WHERE id = $3 AND NOT deleted
	`, a.Title, a.Content, a.ID)
	return err
}

func (s *Store) SoftDeleteAnnouncement(ctx context.Context, announcementID string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE announcements SET deleted = TRUE, updated_at = now() WHERE id = $1
	`, announcementID)
	return err
}
