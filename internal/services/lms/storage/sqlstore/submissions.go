package sqlstore

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"github.com/louisbranch/lms/internal/services/lms/model"
	"github.com/louisbranch/lms/internal/services/lms/storage"
)

type submissionRow struct {
	bun.BaseModel `bun:"table:submissions,alias:s"`

	ID           int64  `bun:"id,pk,autoincrement"`
	AssignmentID int64  `bun:"assignment_id"`
	CourseID     int64  `bun:"course_id"`
	StudentID    int64  `bun:"student_id"`
	Grade        int64  `bun:"grade"`
	Graded       bool   `bun:"graded"`
	Feedback     string `bun:"feedback"`
	CreatedAt    int64  `bun:"created_at"`
	UpdatedAt    int64  `bun:"updated_at"`
	StudentName  string `bun:"student_name,scanonly"`
	MaxGrade     int    `bun:"max_grade,scanonly"`
}

type submissionFileRow struct {
	bun.BaseModel `bun:"table:submission_files,alias:sf"`

	ID           int64  `bun:"id,pk,autoincrement"`
	SubmissionID int64  `bun:"submission_id"`
	FileName     string `bun:"file_name"`
	CreatedAt    int64  `bun:"created_at"`
}

func submissionToRow(submission model.Submission) submissionRow {
	return submissionRow{
		ID:           submission.ID,
		AssignmentID: submission.AssignmentID,
		CourseID:     submission.CourseID,
		StudentID:    submission.StudentID,
		Grade:        submission.Grade,
		Graded:       submission.Graded,
		Feedback:     submission.Feedback,
		CreatedAt:    toMillis(submission.CreatedAt),
		UpdatedAt:    toMillis(submission.UpdatedAt),
	}
}

func (r submissionRow) toModel() model.Submission {
	return model.Submission{
		ID:           r.ID,
		AssignmentID: r.AssignmentID,
		CourseID:     r.CourseID,
		StudentID:    r.StudentID,
		StudentName:  r.StudentName,
		MaxGrade:     r.MaxGrade,
		Grade:        r.Grade,
		Graded:       r.Graded,
		Feedback:     r.Feedback,
		CreatedAt:    fromMillis(r.CreatedAt),
		UpdatedAt:    fromMillis(r.UpdatedAt),
	}
}

func (s *Store) selectSubmissions(rows any) *bun.SelectQuery {
	return s.db.NewSelect().Model(rows).
		ColumnExpr("s.*").
		ColumnExpr("u.name AS student_name").
		ColumnExpr("asg.max_grade AS max_grade").
		Join("JOIN users AS u ON u.id = s.student_id").
		Join("JOIN assignments AS asg ON asg.id = s.assignment_id")
}

// CreateSubmission inserts a submission and its file names in one
// transaction. A second submission by the same student for the same
// assignment returns storage.ErrDuplicate.
func (s *Store) CreateSubmission(ctx context.Context, submission *model.Submission) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		row := submissionToRow(*submission)
		if _, err := tx.NewInsert().Model(&row).
			Column("assignment_id", "course_id", "student_id", "grade", "graded", "feedback", "created_at", "updated_at").
			Returning("id").Exec(ctx); err != nil {
			return mapError(err)
		}
		if err := insertSubmissionFiles(ctx, tx, row.ID, submission.Files, submission.CreatedAt); err != nil {
			return err
		}
		submission.ID = row.ID
		return nil
	})
}

// AddSubmissionFiles appends stored file names to a submission.
func (s *Store) AddSubmissionFiles(ctx context.Context, submissionID int64, fileNames []string, at time.Time) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	return insertSubmissionFiles(ctx, s.db, submissionID, fileNames, at)
}

func insertSubmissionFiles(ctx context.Context, db bun.IDB, submissionID int64, fileNames []string, at time.Time) error {
	if len(fileNames) == 0 {
		return nil
	}
	rows := make([]submissionFileRow, 0, len(fileNames))
	for _, name := range fileNames {
		rows = append(rows, submissionFileRow{SubmissionID: submissionID, FileName: name, CreatedAt: toMillis(at)})
	}
	_, err := db.NewInsert().Model(&rows).Column("submission_id", "file_name", "created_at").Exec(ctx)
	return mapError(err)
}

// GetSubmission loads a submission with its files and assignment max grade.
func (s *Store) GetSubmission(ctx context.Context, id int64) (model.Submission, error) {
	if err := s.ready(ctx); err != nil {
		return model.Submission{}, err
	}
	var row submissionRow
	if err := s.selectSubmissions(&row).Where("s.id = ?", id).Limit(1).Scan(ctx); err != nil {
		return model.Submission{}, mapError(err)
	}
	submissions := []model.Submission{row.toModel()}
	if err := s.loadSubmissionFiles(ctx, submissions); err != nil {
		return model.Submission{}, err
	}
	return submissions[0], nil
}

// ListSubmissions returns submissions matching the filter ordered by id.
func (s *Store) ListSubmissions(ctx context.Context, filter storage.SubmissionFilter) ([]model.Submission, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	var rows []submissionRow
	query := s.selectSubmissions(&rows)
	if filter.CourseID > 0 {
		query = query.Where("s.course_id = ?", filter.CourseID)
	}
	if filter.StudentID > 0 {
		query = query.Where("s.student_id = ?", filter.StudentID)
	}
	if filter.AssignmentID > 0 {
		query = query.Where("s.assignment_id = ?", filter.AssignmentID)
	}
	if err := query.Order("s.id ASC").Scan(ctx); err != nil {
		return nil, mapError(err)
	}
	submissions := make([]model.Submission, 0, len(rows))
	for _, row := range rows {
		submissions = append(submissions, row.toModel())
	}
	if err := s.loadSubmissionFiles(ctx, submissions); err != nil {
		return nil, err
	}
	return submissions, nil
}

// UpdateSubmission rewrites the grading fields.
func (s *Store) UpdateSubmission(ctx context.Context, submission model.Submission) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	row := submissionToRow(submission)
	_, err := s.db.NewUpdate().Model(&row).
		Column("grade", "graded", "feedback", "updated_at").
		WherePK().Exec(ctx)
	return mapError(err)
}

// DeleteSubmission removes a submission and its file records.
func (s *Store) DeleteSubmission(ctx context.Context, id int64) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	return requireAffected(s.db.NewDelete().Model((*submissionRow)(nil)).Where("id = ?", id).Exec(ctx))
}

func (s *Store) loadSubmissionFiles(ctx context.Context, submissions []model.Submission) error {
	if len(submissions) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(submissions))
	index := make(map[int64]int, len(submissions))
	for i, submission := range submissions {
		ids = append(ids, submission.ID)
		index[submission.ID] = i
	}
	var rows []submissionFileRow
	if err := s.db.NewSelect().Model(&rows).
		Where("sf.submission_id IN (?)", bun.In(ids)).
		Order("sf.id ASC").Scan(ctx); err != nil {
		return mapError(err)
	}
	for _, row := range rows {
		i := index[row.SubmissionID]
		submissions[i].Files = append(submissions[i].Files, row.FileName)
	}
	return nil
}
