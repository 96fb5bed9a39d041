package sqlstore

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"github.com/louisbranch/lms/internal/services/lms/model"
)

type courseRow struct {
	bun.BaseModel `bun:"table:courses,alias:c"`

	ID             int64  `bun:"id,pk,autoincrement"`
	InstructorID   int64  `bun:"instructor_id"`
	Title          string `bun:"title"`
	Duration       string `bun:"duration"`
	Description    string `bun:"description"`
	CreatedAt      int64  `bun:"created_at"`
	UpdatedAt      int64  `bun:"updated_at"`
	InstructorName string `bun:"instructor_name,scanonly"`
}

type courseMaterialRow struct {
	bun.BaseModel `bun:"table:course_materials,alias:cm"`

	ID        int64  `bun:"id,pk,autoincrement"`
	CourseID  int64  `bun:"course_id"`
	FileName  string `bun:"file_name"`
	CreatedAt int64  `bun:"created_at"`
}

func courseToRow(course model.Course) courseRow {
	return courseRow{
		ID:           course.ID,
		InstructorID: course.InstructorID,
		Title:        course.Title,
		Duration:     course.Duration,
		Description:  course.Description,
		CreatedAt:    toMillis(course.CreatedAt),
		UpdatedAt:    toMillis(course.UpdatedAt),
	}
}

func (r courseRow) toModel() model.Course {
	return model.Course{
		ID:             r.ID,
		InstructorID:   r.InstructorID,
		InstructorName: r.InstructorName,
		Title:          r.Title,
		Duration:       r.Duration,
		Description:    r.Description,
		CreatedAt:      fromMillis(r.CreatedAt),
		UpdatedAt:      fromMillis(r.UpdatedAt),
	}
}

func (s *Store) selectCourses(rows any) *bun.SelectQuery {
	return s.db.NewSelect().Model(rows).
		ColumnExpr("c.*").
		ColumnExpr("u.name AS instructor_name").
		Join("JOIN users AS u ON u.id = c.instructor_id")
}

// CreateCourse inserts a course and assigns its id.
func (s *Store) CreateCourse(ctx context.Context, course *model.Course) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	row := courseToRow(*course)
	if _, err := s.db.NewInsert().Model(&row).
		Column("instructor_id", "title", "duration", "description", "created_at", "updated_at").
		Returning("id").Exec(ctx); err != nil {
		return mapError(err)
	}
	course.ID = row.ID
	return nil
}

// GetCourse loads a course with its instructor name and materials.
func (s *Store) GetCourse(ctx context.Context, id int64) (model.Course, error) {
	if err := s.ready(ctx); err != nil {
		return model.Course{}, err
	}
	var row courseRow
	if err := s.selectCourses(&row).Where("c.id = ?", id).Limit(1).Scan(ctx); err != nil {
		return model.Course{}, mapError(err)
	}
	courses := []model.Course{row.toModel()}
	if err := s.loadMaterials(ctx, courses); err != nil {
		return model.Course{}, err
	}
	return courses[0], nil
}

// ListCourses returns every course ordered by id.
func (s *Store) ListCourses(ctx context.Context) ([]model.Course, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	var rows []courseRow
	if err := s.selectCourses(&rows).Order("c.id ASC").Scan(ctx); err != nil {
		return nil, mapError(err)
	}
	courses := make([]model.Course, 0, len(rows))
	for _, row := range rows {
		courses = append(courses, row.toModel())
	}
	if err := s.loadMaterials(ctx, courses); err != nil {
		return nil, err
	}
	return courses, nil
}

// UpdateCourse rewrites a course's mutable fields.
func (s *Store) UpdateCourse(ctx context.Context, course model.Course) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	row := courseToRow(course)
	_, err := s.db.NewUpdate().Model(&row).
		Column("instructor_id", "title", "duration", "description", "updated_at").
		WherePK().Exec(ctx)
	return mapError(err)
}

// DeleteCourse removes a course and its dependent rows.
func (s *Store) DeleteCourse(ctx context.Context, id int64) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	return requireAffected(s.db.NewDelete().Model((*courseRow)(nil)).Where("id = ?", id).Exec(ctx))
}

// AddCourseMaterials records stored material file names for a course.
func (s *Store) AddCourseMaterials(ctx context.Context, courseID int64, fileNames []string, at time.Time) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if len(fileNames) == 0 {
		return nil
	}
	rows := make([]courseMaterialRow, 0, len(fileNames))
	for _, name := range fileNames {
		rows = append(rows, courseMaterialRow{CourseID: courseID, FileName: name, CreatedAt: toMillis(at)})
	}
	_, err := s.db.NewInsert().Model(&rows).Column("course_id", "file_name", "created_at").Exec(ctx)
	return mapError(err)
}

func (s *Store) loadMaterials(ctx context.Context, courses []model.Course) error {
	if len(courses) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(courses))
	index := make(map[int64]int, len(courses))
	for i, course := range courses {
		ids = append(ids, course.ID)
		index[course.ID] = i
	}
	var rows []courseMaterialRow
	if err := s.db.NewSelect().Model(&rows).
		Where("cm.course_id IN (?)", bun.In(ids)).
		Order("cm.id ASC").Scan(ctx); err != nil {
		return mapError(err)
	}
	for _, row := range rows {
		i := index[row.CourseID]
		courses[i].Materials = append(courses[i].Materials, row.FileName)
	}
	return nil
}
