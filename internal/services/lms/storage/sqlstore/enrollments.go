package sqlstore

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/louisbranch/lms/internal/services/lms/model"
)

type enrollmentRow struct {
	bun.BaseModel `bun:"table:enrollments,alias:e"`

	ID          int64  `bun:"id,pk,autoincrement"`
	StudentID   int64  `bun:"student_id"`
	CourseID    int64  `bun:"course_id"`
	Confirmed   bool   `bun:"confirmed"`
	Completed   bool   `bun:"completed"`
	CreatedAt   int64  `bun:"created_at"`
	UpdatedAt   int64  `bun:"updated_at"`
	StudentName string `bun:"student_name,scanonly"`
	CourseTitle string `bun:"course_title,scanonly"`
}

func enrollmentToRow(enrollment model.Enrollment) enrollmentRow {
	return enrollmentRow{
		ID:        enrollment.ID,
		StudentID: enrollment.StudentID,
		CourseID:  enrollment.CourseID,
		Confirmed: enrollment.Confirmed,
		Completed: enrollment.Completed,
		CreatedAt: toMillis(enrollment.CreatedAt),
		UpdatedAt: toMillis(enrollment.UpdatedAt),
	}
}

func (r enrollmentRow) toModel() model.Enrollment {
	return model.Enrollment{
		ID:          r.ID,
		StudentID:   r.StudentID,
		StudentName: r.StudentName,
		CourseID:    r.CourseID,
		CourseTitle: r.CourseTitle,
		Confirmed:   r.Confirmed,
		Completed:   r.Completed,
		CreatedAt:   fromMillis(r.CreatedAt),
		UpdatedAt:   fromMillis(r.UpdatedAt),
	}
}

func (s *Store) selectEnrollments(rows any) *bun.SelectQuery {
	return s.db.NewSelect().Model(rows).
		ColumnExpr("e.*").
		ColumnExpr("u.name AS student_name").
		ColumnExpr("c.title AS course_title").
		Join("JOIN users AS u ON u.id = e.student_id").
		Join("JOIN courses AS c ON c.id = e.course_id")
}

func (s *Store) listEnrollments(ctx context.Context, where func(*bun.SelectQuery) *bun.SelectQuery) ([]model.Enrollment, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	var rows []enrollmentRow
	if err := where(s.selectEnrollments(&rows)).Order("e.id ASC").Scan(ctx); err != nil {
		return nil, mapError(err)
	}
	enrollments := make([]model.Enrollment, 0, len(rows))
	for _, row := range rows {
		enrollments = append(enrollments, row.toModel())
	}
	return enrollments, nil
}

// CreateEnrollment inserts an enrollment. A second enrollment of the same
// student in the same course returns storage.ErrDuplicate.
func (s *Store) CreateEnrollment(ctx context.Context, enrollment *model.Enrollment) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	row := enrollmentToRow(*enrollment)
	if _, err := s.db.NewInsert().Model(&row).
		Column("student_id", "course_id", "confirmed", "completed", "created_at", "updated_at").
		Returning("id").Exec(ctx); err != nil {
		return mapError(err)
	}
	enrollment.ID = row.ID
	return nil
}

// GetEnrollment loads an enrollment by id.
func (s *Store) GetEnrollment(ctx context.Context, id int64) (model.Enrollment, error) {
	if err := s.ready(ctx); err != nil {
		return model.Enrollment{}, err
	}
	var row enrollmentRow
	if err := s.selectEnrollments(&row).Where("e.id = ?", id).Limit(1).Scan(ctx); err != nil {
		return model.Enrollment{}, mapError(err)
	}
	return row.toModel(), nil
}

// GetEnrollmentByStudentCourse loads the enrollment of a student in a course.
func (s *Store) GetEnrollmentByStudentCourse(ctx context.Context, studentID, courseID int64) (model.Enrollment, error) {
	if err := s.ready(ctx); err != nil {
		return model.Enrollment{}, err
	}
	var row enrollmentRow
	if err := s.selectEnrollments(&row).
		Where("e.student_id = ?", studentID).
		Where("e.course_id = ?", courseID).
		Limit(1).Scan(ctx); err != nil {
		return model.Enrollment{}, mapError(err)
	}
	return row.toModel(), nil
}

// ListEnrollments returns every enrollment.
func (s *Store) ListEnrollments(ctx context.Context) ([]model.Enrollment, error) {
	return s.listEnrollments(ctx, func(q *bun.SelectQuery) *bun.SelectQuery { return q })
}

// ListEnrollmentsByStudent returns a student's enrollments.
func (s *Store) ListEnrollmentsByStudent(ctx context.Context, studentID int64) ([]model.Enrollment, error) {
	return s.listEnrollments(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("e.student_id = ?", studentID)
	})
}

// ListEnrollmentsByCourse returns a course's enrollments.
func (s *Store) ListEnrollmentsByCourse(ctx context.Context, courseID int64) ([]model.Enrollment, error) {
	return s.listEnrollments(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("e.course_id = ?", courseID)
	})
}

// UpdateEnrollment rewrites the enrollment flags.
func (s *Store) UpdateEnrollment(ctx context.Context, enrollment model.Enrollment) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	row := enrollmentToRow(enrollment)
	_, err := s.db.NewUpdate().Model(&row).
		Column("course_id", "confirmed", "completed", "updated_at").
		WherePK().Exec(ctx)
	return mapError(err)
}

// DeleteEnrollment removes an enrollment.
func (s *Store) DeleteEnrollment(ctx context.Context, id int64) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	return requireAffected(s.db.NewDelete().Model((*enrollmentRow)(nil)).Where("id = ?", id).Exec(ctx))
}

// IsEnrolled reports whether the student has any enrollment in the course.
func (s *Store) IsEnrolled(ctx context.Context, studentID, courseID int64) (bool, error) {
	if err := s.ready(ctx); err != nil {
		return false, err
	}
	exists, err := s.db.NewSelect().Model((*enrollmentRow)(nil)).
		Where("e.student_id = ?", studentID).
		Where("e.course_id = ?", courseID).
		Exists(ctx)
	if err != nil {
		return false, mapError(err)
	}
	return exists, nil
}
