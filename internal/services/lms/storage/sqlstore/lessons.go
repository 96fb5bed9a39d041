package sqlstore

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/louisbranch/lms/internal/services/lms/model"
)

type lessonRow struct {
	bun.BaseModel `bun:"table:lessons,alias:l"`

	ID          int64  `bun:"id,pk,autoincrement"`
	CourseID    int64  `bun:"course_id"`
	Title       string `bun:"title"`
	OTP         string `bun:"otp"`
	CreatedAt   int64  `bun:"created_at"`
	UpdatedAt   int64  `bun:"updated_at"`
	CourseTitle string `bun:"course_title,scanonly"`
}

func lessonToRow(lesson model.Lesson) lessonRow {
	return lessonRow{
		ID:        lesson.ID,
		CourseID:  lesson.CourseID,
		Title:     lesson.Title,
		OTP:       lesson.OTP,
		CreatedAt: toMillis(lesson.CreatedAt),
		UpdatedAt: toMillis(lesson.UpdatedAt),
	}
}

func (r lessonRow) toModel() model.Lesson {
	return model.Lesson{
		ID:          r.ID,
		CourseID:    r.CourseID,
		CourseTitle: r.CourseTitle,
		Title:       r.Title,
		OTP:         r.OTP,
		CreatedAt:   fromMillis(r.CreatedAt),
		UpdatedAt:   fromMillis(r.UpdatedAt),
	}
}

func (s *Store) selectLessons(rows any) *bun.SelectQuery {
	return s.db.NewSelect().Model(rows).
		ColumnExpr("l.*").
		ColumnExpr("c.title AS course_title").
		Join("JOIN courses AS c ON c.id = l.course_id")
}

// CreateLesson inserts a lesson and assigns its id.
func (s *Store) CreateLesson(ctx context.Context, lesson *model.Lesson) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	row := lessonToRow(*lesson)
	if _, err := s.db.NewInsert().Model(&row).
		Column("course_id", "title", "otp", "created_at", "updated_at").
		Returning("id").Exec(ctx); err != nil {
		return mapError(err)
	}
	lesson.ID = row.ID
	return nil
}

// GetLesson loads a lesson with its course title.
func (s *Store) GetLesson(ctx context.Context, id int64) (model.Lesson, error) {
	if err := s.ready(ctx); err != nil {
		return model.Lesson{}, err
	}
	var row lessonRow
	if err := s.selectLessons(&row).Where("l.id = ?", id).Limit(1).Scan(ctx); err != nil {
		return model.Lesson{}, mapError(err)
	}
	return row.toModel(), nil
}

// ListLessonsByCourse returns a course's lessons ordered by id.
func (s *Store) ListLessonsByCourse(ctx context.Context, courseID int64) ([]model.Lesson, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	var rows []lessonRow
	if err := s.selectLessons(&rows).Where("l.course_id = ?", courseID).Order("l.id ASC").Scan(ctx); err != nil {
		return nil, mapError(err)
	}
	lessons := make([]model.Lesson, 0, len(rows))
	for _, row := range rows {
		lessons = append(lessons, row.toModel())
	}
	return lessons, nil
}

// CountLessonsByCourse returns how many lessons a course has.
func (s *Store) CountLessonsByCourse(ctx context.Context, courseID int64) (int, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	count, err := s.db.NewSelect().Model((*lessonRow)(nil)).Where("l.course_id = ?", courseID).Count(ctx)
	if err != nil {
		return 0, mapError(err)
	}
	return count, nil
}

// UpdateLesson rewrites a lesson's mutable fields.
func (s *Store) UpdateLesson(ctx context.Context, lesson model.Lesson) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	row := lessonToRow(lesson)
	_, err := s.db.NewUpdate().Model(&row).
		Column("course_id", "title", "otp", "updated_at").
		WherePK().Exec(ctx)
	return mapError(err)
}

// DeleteLesson removes a lesson and its attendance.
func (s *Store) DeleteLesson(ctx context.Context, id int64) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	return requireAffected(s.db.NewDelete().Model((*lessonRow)(nil)).Where("id = ?", id).Exec(ctx))
}
