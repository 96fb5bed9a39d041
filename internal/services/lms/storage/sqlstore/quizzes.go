package sqlstore

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/louisbranch/lms/internal/services/lms/model"
)

type quizRow struct {
	bun.BaseModel `bun:"table:quizzes,alias:z"`

	ID        int64 `bun:"id,pk,autoincrement"`
	CourseID  int64 `bun:"course_id"`
	CreatedAt int64 `bun:"created_at"`
}

type quizQuestionRow struct {
	bun.BaseModel `bun:"table:quiz_questions,alias:zq"`

	QuizID     int64 `bun:"quiz_id,pk"`
	QuestionID int64 `bun:"question_id,pk"`
	Position   int   `bun:"position"`
}

// quizQuestionJoin is a question row tagged with the quiz it belongs to.
type quizQuestionJoin struct {
	questionRow `bun:",extend"`

	QuizID   int64 `bun:"quiz_id,scanonly"`
	Position int   `bun:"position,scanonly"`
}

type quizAttemptRow struct {
	bun.BaseModel `bun:"table:quiz_attempts,alias:a"`

	ID          int64   `bun:"id,pk,autoincrement"`
	QuizID      int64   `bun:"quiz_id"`
	StudentID   int64   `bun:"student_id"`
	Grade       float64 `bun:"grade"`
	MaxGrade    int     `bun:"max_grade"`
	SubmittedAt int64   `bun:"submitted_at"`
	CourseID    int64   `bun:"course_id,scanonly"`
}

func (r quizAttemptRow) toModel() model.QuizAttempt {
	return model.QuizAttempt{
		ID:          r.ID,
		QuizID:      r.QuizID,
		CourseID:    r.CourseID,
		StudentID:   r.StudentID,
		Grade:       r.Grade,
		MaxGrade:    r.MaxGrade,
		SubmittedAt: fromMillis(r.SubmittedAt),
	}
}

// CreateQuiz inserts a quiz and its ordered question links in one
// transaction.
func (s *Store) CreateQuiz(ctx context.Context, quiz *model.Quiz) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		row := quizRow{CourseID: quiz.CourseID, CreatedAt: toMillis(quiz.CreatedAt)}
		if _, err := tx.NewInsert().Model(&row).
			Column("course_id", "created_at").
			Returning("id").Exec(ctx); err != nil {
			return mapError(err)
		}
		if len(quiz.Questions) > 0 {
			links := make([]quizQuestionRow, 0, len(quiz.Questions))
			for i, question := range quiz.Questions {
				links = append(links, quizQuestionRow{QuizID: row.ID, QuestionID: question.ID, Position: i})
			}
			if _, err := tx.NewInsert().Model(&links).Exec(ctx); err != nil {
				return mapError(err)
			}
		}
		quiz.ID = row.ID
		return nil
	})
}

// GetQuiz loads a quiz with its questions in generation order.
func (s *Store) GetQuiz(ctx context.Context, id int64) (model.Quiz, error) {
	if err := s.ready(ctx); err != nil {
		return model.Quiz{}, err
	}
	var row quizRow
	if err := s.db.NewSelect().Model(&row).Where("z.id = ?", id).Limit(1).Scan(ctx); err != nil {
		return model.Quiz{}, mapError(err)
	}
	quizzes := []model.Quiz{{ID: row.ID, CourseID: row.CourseID, CreatedAt: fromMillis(row.CreatedAt)}}
	if err := s.loadQuizQuestions(ctx, quizzes); err != nil {
		return model.Quiz{}, err
	}
	return quizzes[0], nil
}

// ListQuizzesByCourse returns a course's quizzes ordered by id.
func (s *Store) ListQuizzesByCourse(ctx context.Context, courseID int64) ([]model.Quiz, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	var rows []quizRow
	if err := s.db.NewSelect().Model(&rows).Where("z.course_id = ?", courseID).Order("z.id ASC").Scan(ctx); err != nil {
		return nil, mapError(err)
	}
	quizzes := make([]model.Quiz, 0, len(rows))
	for _, row := range rows {
		quizzes = append(quizzes, model.Quiz{ID: row.ID, CourseID: row.CourseID, CreatedAt: fromMillis(row.CreatedAt)})
	}
	if err := s.loadQuizQuestions(ctx, quizzes); err != nil {
		return nil, err
	}
	return quizzes, nil
}

func (s *Store) loadQuizQuestions(ctx context.Context, quizzes []model.Quiz) error {
	if len(quizzes) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(quizzes))
	index := make(map[int64]int, len(quizzes))
	for i, quiz := range quizzes {
		ids = append(ids, quiz.ID)
		index[quiz.ID] = i
	}
	var rows []quizQuestionJoin
	if err := s.selectQuestions(&rows).
		ColumnExpr("zq.quiz_id AS quiz_id").
		ColumnExpr("zq.position AS position").
		Join("JOIN quiz_questions AS zq ON zq.question_id = q.id").
		Where("zq.quiz_id IN (?)", bun.In(ids)).
		Order("zq.quiz_id ASC", "zq.position ASC").
		Scan(ctx); err != nil {
		return mapError(err)
	}
	for _, row := range rows {
		i := index[row.QuizID]
		quizzes[i].Questions = append(quizzes[i].Questions, row.questionRow.toModel())
	}
	return nil
}

// CreateQuizAttempt records a graded attempt. A second attempt by the same
// student returns storage.ErrDuplicate.
func (s *Store) CreateQuizAttempt(ctx context.Context, attempt *model.QuizAttempt) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	row := quizAttemptRow{
		QuizID:      attempt.QuizID,
		StudentID:   attempt.StudentID,
		Grade:       attempt.Grade,
		MaxGrade:    attempt.MaxGrade,
		SubmittedAt: toMillis(attempt.SubmittedAt),
	}
	if _, err := s.db.NewInsert().Model(&row).
		Column("quiz_id", "student_id", "grade", "max_grade", "submitted_at").
		Returning("id").Exec(ctx); err != nil {
		return mapError(err)
	}
	attempt.ID = row.ID
	return nil
}

func (s *Store) listQuizAttempts(ctx context.Context, where func(*bun.SelectQuery) *bun.SelectQuery) ([]model.QuizAttempt, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	var rows []quizAttemptRow
	query := s.db.NewSelect().Model(&rows).
		ColumnExpr("a.*").
		ColumnExpr("z.course_id AS course_id").
		Join("JOIN quizzes AS z ON z.id = a.quiz_id")
	if err := where(query).Order("a.id ASC").Scan(ctx); err != nil {
		return nil, mapError(err)
	}
	attempts := make([]model.QuizAttempt, 0, len(rows))
	for _, row := range rows {
		attempts = append(attempts, row.toModel())
	}
	return attempts, nil
}

// ListQuizAttemptsByQuiz returns every attempt at a quiz.
func (s *Store) ListQuizAttemptsByQuiz(ctx context.Context, quizID int64) ([]model.QuizAttempt, error) {
	return s.listQuizAttempts(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("a.quiz_id = ?", quizID)
	})
}

// ListQuizAttemptsByStudent returns a student's attempts, optionally
// narrowed to one course when courseID is positive.
func (s *Store) ListQuizAttemptsByStudent(ctx context.Context, studentID, courseID int64) ([]model.QuizAttempt, error) {
	return s.listQuizAttempts(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		q = q.Where("a.student_id = ?", studentID)
		if courseID > 0 {
			q = q.Where("z.course_id = ?", courseID)
		}
		return q
	})
}

// ListQuizAttemptsByCourse returns every attempt at the course's quizzes.
func (s *Store) ListQuizAttemptsByCourse(ctx context.Context, courseID int64) ([]model.QuizAttempt, error) {
	return s.listQuizAttempts(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("z.course_id = ?", courseID)
	})
}
