package sqlstore

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/louisbranch/lms/internal/services/lms/model"
	"github.com/louisbranch/lms/internal/services/lms/storage"
)

type attendanceRow struct {
	bun.BaseModel `bun:"table:attendance,alias:att"`

	ID          int64  `bun:"id,pk,autoincrement"`
	StudentID   int64  `bun:"student_id"`
	LessonID    int64  `bun:"lesson_id"`
	CreatedAt   int64  `bun:"created_at"`
	StudentName string `bun:"student_name,scanonly"`
	CourseID    int64  `bun:"course_id,scanonly"`
	CourseTitle string `bun:"course_title,scanonly"`
}

func (r attendanceRow) toModel() model.Attendance {
	return model.Attendance{
		ID:          r.ID,
		StudentID:   r.StudentID,
		StudentName: r.StudentName,
		LessonID:    r.LessonID,
		CourseID:    r.CourseID,
		CourseTitle: r.CourseTitle,
		CreatedAt:   fromMillis(r.CreatedAt),
	}
}

func (s *Store) selectAttendance(rows any) *bun.SelectQuery {
	return s.db.NewSelect().Model(rows).
		ColumnExpr("att.*").
		ColumnExpr("u.name AS student_name").
		ColumnExpr("l.course_id AS course_id").
		ColumnExpr("c.title AS course_title").
		Join("JOIN users AS u ON u.id = att.student_id").
		Join("JOIN lessons AS l ON l.id = att.lesson_id").
		Join("JOIN courses AS c ON c.id = l.course_id")
}

// CreateAttendance records a student's attendance at a lesson. Recording it
// twice returns storage.ErrDuplicate.
func (s *Store) CreateAttendance(ctx context.Context, attendance *model.Attendance) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	row := attendanceRow{
		StudentID: attendance.StudentID,
		LessonID:  attendance.LessonID,
		CreatedAt: toMillis(attendance.CreatedAt),
	}
	if _, err := s.db.NewInsert().Model(&row).
		Column("student_id", "lesson_id", "created_at").
		Returning("id").Exec(ctx); err != nil {
		return mapError(err)
	}
	attendance.ID = row.ID
	return nil
}

// GetAttendance loads an attendance record by id.
func (s *Store) GetAttendance(ctx context.Context, id int64) (model.Attendance, error) {
	if err := s.ready(ctx); err != nil {
		return model.Attendance{}, err
	}
	var row attendanceRow
	if err := s.selectAttendance(&row).Where("att.id = ?", id).Limit(1).Scan(ctx); err != nil {
		return model.Attendance{}, mapError(err)
	}
	return row.toModel(), nil
}

// ListAttendance returns attendance records matching the filter.
func (s *Store) ListAttendance(ctx context.Context, filter storage.AttendanceFilter) ([]model.Attendance, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	var rows []attendanceRow
	query := s.selectAttendance(&rows)
	if filter.StudentID > 0 {
		query = query.Where("att.student_id = ?", filter.StudentID)
	}
	if filter.CourseID > 0 {
		query = query.Where("l.course_id = ?", filter.CourseID)
	}
	if filter.InstructorID > 0 {
		query = query.Where("c.instructor_id = ?", filter.InstructorID)
	}
	if err := query.Order("att.id ASC").Scan(ctx); err != nil {
		return nil, mapError(err)
	}
	records := make([]model.Attendance, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.toModel())
	}
	return records, nil
}

// DeleteAttendance removes an attendance record.
func (s *Store) DeleteAttendance(ctx context.Context, id int64) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	return requireAffected(s.db.NewDelete().Model((*attendanceRow)(nil)).Where("id = ?", id).Exec(ctx))
}
