package sqlstore

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/louisbranch/lms/internal/services/lms/model"
)

type questionRow struct {
	bun.BaseModel `bun:"table:questions,alias:q"`

	ID          int64  `bun:"id,pk,autoincrement"`
	CourseID    int64  `bun:"course_id"`
	Content     string `bun:"content"`
	Answer      string `bun:"answer"`
	Type        string `bun:"type"`
	CreatedAt   int64  `bun:"created_at"`
	CourseTitle string `bun:"course_title,scanonly"`
}

func (r questionRow) toModel() model.Question {
	return model.Question{
		ID:          r.ID,
		CourseID:    r.CourseID,
		CourseTitle: r.CourseTitle,
		Content:     r.Content,
		Answer:      r.Answer,
		Type:        model.QuestionType(r.Type),
		CreatedAt:   fromMillis(r.CreatedAt),
	}
}

func (s *Store) selectQuestions(rows any) *bun.SelectQuery {
	return s.db.NewSelect().Model(rows).
		ColumnExpr("q.*").
		ColumnExpr("c.title AS course_title").
		Join("JOIN courses AS c ON c.id = q.course_id")
}

// CreateQuestion inserts a bank question and assigns its id.
func (s *Store) CreateQuestion(ctx context.Context, question *model.Question) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	row := questionRow{
		CourseID:  question.CourseID,
		Content:   question.Content,
		Answer:    question.Answer,
		Type:      string(question.Type),
		CreatedAt: toMillis(question.CreatedAt),
	}
	if _, err := s.db.NewInsert().Model(&row).
		Column("course_id", "content", "answer", "type", "created_at").
		Returning("id").Exec(ctx); err != nil {
		return mapError(err)
	}
	question.ID = row.ID
	return nil
}

// GetQuestion loads a question by id.
func (s *Store) GetQuestion(ctx context.Context, id int64) (model.Question, error) {
	if err := s.ready(ctx); err != nil {
		return model.Question{}, err
	}
	var row questionRow
	if err := s.selectQuestions(&row).Where("q.id = ?", id).Limit(1).Scan(ctx); err != nil {
		return model.Question{}, mapError(err)
	}
	return row.toModel(), nil
}

// ListQuestionsByCourse returns the course bank, optionally narrowed to one
// question type. An empty type matches all.
func (s *Store) ListQuestionsByCourse(ctx context.Context, courseID int64, questionType model.QuestionType) ([]model.Question, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	var rows []questionRow
	query := s.selectQuestions(&rows).Where("q.course_id = ?", courseID)
	if questionType != "" {
		query = query.Where("q.type = ?", string(questionType))
	}
	if err := query.Order("q.id ASC").Scan(ctx); err != nil {
		return nil, mapError(err)
	}
	questions := make([]model.Question, 0, len(rows))
	for _, row := range rows {
		questions = append(questions, row.toModel())
	}
	return questions, nil
}

// DeleteQuestion removes a question; quizzes drop it through the cascade.
func (s *Store) DeleteQuestion(ctx context.Context, id int64) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	return requireAffected(s.db.NewDelete().Model((*questionRow)(nil)).Where("id = ?", id).Exec(ctx))
}
