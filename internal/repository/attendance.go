package repository

import (
	"context"
	"encoding/json"

	"brightsteps/portal/internal/model"
	"brightsteps/portal/internal/scope"
)

const attendanceColumns = `id, academic_year, class_id, date::text, teacher_uid, records, created_at, updated_at`

func scanAttendanceDay(row rowScanner) (model.AttendanceDay, error) {
	var day model.AttendanceDay
	var records []byte
	err := row.Scan(
		&day.ID,
		&day.AcademicYear,
		&day.ClassID,
		&day.Date,
		&day.TeacherUID,
		&records,
		&day.CreatedAt,
		&day.UpdatedAt,
	)
	if err != nil {
		return day, err
	}
	if len(records) > 0 {
		if err := json.Unmarshal(records, &day.Records); err != nil {
			return day, err
		}
	}
	return day, nil
}

// UpsertAttendanceDay writes the whole register for (year, class, date);
// saving again replaces the day's records.
func (s *Store) UpsertAttendanceDay(ctx context.Context, day model.AttendanceDay) error {
	records, err := json.Marshal(day.Records)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO attendance_days (id, academic_year, class_id, date, teacher_uid, records, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (academic_year, class_id, date) DO UPDATE
		SET teacher_uid = EXCLUDED.teacher_uid,
		    records = EXCLUDED.records,
		    updated_at = EXCLUDED.updated_at
	`, day.ID, day.AcademicYear, day.ClassID, day.Date, day.TeacherUID, records, day.CreatedAt, day.UpdatedAt)
	return err
}

func (s *Store) GetAttendanceDay(ctx context.Context, academicYear, classID, date string) (model.AttendanceDay, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+attendanceColumns+`
		FROM attendance_days
		WHERE academic_year = $1 AND class_id = $2 AND date = $3
	`, academicYear, classID, date)
	return scanAttendanceDay(row)
}

func (s *Store) ListAttendanceDays(ctx context.Context, spec scope.Spec, limit int32) ([]model.AttendanceDay, error) {
	query := `
		SELECT ` + attendanceColumns + `
		FROM attendance_days
		WHERE TRUE`
	where, args := spec.SQL(0)
	if where != "" {
		query += " AND " + where
	}
	query += ` ORDER BY date DESC LIMIT ` + placeholder(len(args)+1)
	args = append(args, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var days []model.AttendanceDay
	for rows.Next() {
		day, err := scanAttendanceDay(rows)
		if err != nil {
			return nil, err
		}
		days = append(days, day)
	}
	return days, rows.Err()
}
