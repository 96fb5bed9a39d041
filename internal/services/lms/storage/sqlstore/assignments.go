package sqlstore

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/louisbranch/lms/internal/services/lms/model"
)

type assignmentRow struct {
	bun.BaseModel `bun:"table:assignments,alias:asg"`

	ID           int64  `bun:"id,pk,autoincrement"`
	CourseID     int64  `bun:"course_id"`
	Instructions string `bun:"instructions"`
	MaxGrade     int    `bun:"max_grade"`
	CreatedAt    int64  `bun:"created_at"`
	UpdatedAt    int64  `bun:"updated_at"`
}

func assignmentToRow(assignment model.Assignment) assignmentRow {
	return assignmentRow{
		ID:           assignment.ID,
		CourseID:     assignment.CourseID,
		Instructions: assignment.Instructions,
		MaxGrade:     assignment.MaxGrade,
		CreatedAt:    toMillis(assignment.CreatedAt),
		UpdatedAt:    toMillis(assignment.UpdatedAt),
	}
}

func (r assignmentRow) toModel() model.Assignment {
	return model.Assignment{
		ID:           r.ID,
		CourseID:     r.CourseID,
		Instructions: r.Instructions,
		MaxGrade:     r.MaxGrade,
		CreatedAt:    fromMillis(r.CreatedAt),
		UpdatedAt:    fromMillis(r.UpdatedAt),
	}
}

// CreateAssignment inserts an assignment and assigns its id.
func (s *Store) CreateAssignment(ctx context.Context, assignment *model.Assignment) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	row := assignmentToRow(*assignment)
	if _, err := s.db.NewInsert().Model(&row).
		Column("course_id", "instructions", "max_grade", "created_at", "updated_at").
		Returning("id").Exec(ctx); err != nil {
		return mapError(err)
	}
	assignment.ID = row.ID
	return nil
}

// GetAssignment loads an assignment by id.
func (s *Store) GetAssignment(ctx context.Context, id int64) (model.Assignment, error) {
	if err := s.ready(ctx); err != nil {
		return model.Assignment{}, err
	}
	var row assignmentRow
	if err := s.db.NewSelect().Model(&row).Where("asg.id = ?", id).Limit(1).Scan(ctx); err != nil {
		return model.Assignment{}, mapError(err)
	}
	return row.toModel(), nil
}

// ListAssignmentsByCourse returns a course's assignments ordered by id.
func (s *Store) ListAssignmentsByCourse(ctx context.Context, courseID int64) ([]model.Assignment, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	var rows []assignmentRow
	if err := s.db.NewSelect().Model(&rows).Where("asg.course_id = ?", courseID).Order("asg.id ASC").Scan(ctx); err != nil {
		return nil, mapError(err)
	}
	assignments := make([]model.Assignment, 0, len(rows))
	for _, row := range rows {
		assignments = append(assignments, row.toModel())
	}
	return assignments, nil
}

// UpdateAssignment rewrites an assignment's mutable fields.
func (s *Store) UpdateAssignment(ctx context.Context, assignment model.Assignment) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	row := assignmentToRow(assignment)
	_, err := s.db.NewUpdate().Model(&row).
		Column("instructions", "max_grade", "updated_at").
		WherePK().Exec(ctx)
	return mapError(err)
}

// DeleteAssignment removes an assignment and its submissions.
func (s *Store) DeleteAssignment(ctx context.Context, id int64) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	return requireAffected(s.db.NewDelete().Model((*assignmentRow)(nil)).Where("id = ?", id).Exec(ctx))
}
