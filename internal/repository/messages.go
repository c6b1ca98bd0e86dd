package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"brightsteps/portal/internal/model"
	"brightsteps/portal/internal/scope"
)

const threadColumns = `id, academic_year, class_id, teacher_id, parent_id, student_id, enrollment_id,
	last_message, last_sender_id, unread_teacher, unread_parent, status, created_at, updated_at`

func scanThread(row rowScanner) (model.Thread, error) {
	var t model.Thread
	err := row.Scan(
		&t.ID,
		&t.AcademicYear,
		&t.ClassID,
		&t.TeacherID,
		&t.ParentID,
		&t.StudentID,
		&t.EnrollmentID,
		&t.LastMessage,
		&t.LastSenderID,
		&t.UnreadTeacher,
		&t.UnreadParent,
		&t.Status,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	return t, err
}

// GetOrCreateThread returns the thread keyed "<teacherID>_<enrollmentID>",
// inserting it when no conversation exists yet.
func (s *Store) GetOrCreateThread(ctx context.Context, t model.Thread) (model.Thread, error) {
	existing, err := s.GetThread(ctx, t.ID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return model.Thread{}, err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO threads (id, academic_year, class_id, teacher_id, parent_id, student_id, enrollment_id,
			last_message, last_sender_id, unread_teacher, unread_parent, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO NOTHING
	`, t.ID, t.AcademicYear, t.ClassID, t.TeacherID, t.ParentID, t.StudentID, t.EnrollmentID,
		t.LastMessage, t.LastSenderID, t.UnreadTeacher, t.UnreadParent, t.Status, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return model.Thread{}, err
	}
	return s.GetThread(ctx, t.ID)
}

func (s *Store) GetThread(ctx context.Context, threadID string) (model.Thread, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+threadColumns+`
		FROM threads
		WHERE id = $1
	`, threadID)
	return scanThread(row)
}

func (s *Store) ListThreads(ctx context.Context, spec scope.Spec, limit int32) ([]model.Thread, error) {
	query := `
		SELECT ` + threadColumns + `
		FROM threads
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

	var threads []model.Thread
	for rows.Next() {
		t, err := scanThread(rows)
		if err != nil {
			return nil, err
		}
		threads = append(threads, t)
	}
	return threads, rows.Err()
}

// CreateMessage appends a message and bumps the recipient's unread counter
// in the same transaction, so the thread preview never drifts from the
// message log.
func (s *Store) CreateMessage(ctx context.Context, msg model.Message, recipientIsTeacher bool) error {
	return s.WithTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO messages (id, thread_id, sender_id, title, text, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, msg.ID, msg.ThreadID, msg.SenderID, msg.Title, msg.Text, msg.CreatedAt)
		if err != nil {
			return err
		}

		unreadColumn := "unread_parent"
		if recipientIsTeacher {
			unreadColumn = "unread_teacher"
		}
		tag, err := tx.Exec(ctx, `
			UPDATE threads
			SET last_message = $1,
			    last_sender_id = $2,
			    `+unreadColumn+` = `+unreadColumn+` + 1,
			    updated_at = $3
			WHERE id = $4
		`, msg.Text, msg.SenderID, msg.CreatedAt, msg.ThreadID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		return nil
	})
}

func (s *Store) ListMessages(ctx context.Context, threadID string, limit int32) ([]model.Message, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, thread_id, sender_id, title, text, created_at
		FROM messages
		WHERE thread_id = $1
		ORDER BY created_at
		LIMIT $2
	`, threadID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []model.Message
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(&m.ID, &m.ThreadID, &m.SenderID, &m.Title, &m.Text, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// MarkThreadRead zeroes the caller's side of the unread counter.
func (s *Store) MarkThreadRead(ctx context.Context, threadID string, readerIsTeacher bool) error {
	unreadColumn := "unread_parent"
	if readerIsTeacher {
		unreadColumn = "unread_teacher"
	}
	_, err := s.pool.Exec(ctx, `
		UPDATE threads SET `+unreadColumn+` = 0, updated_at = now() WHERE id = $1
	`, threadID)
	return err
}
