// Package question manages the per-course question bank quizzes draw from.
package question

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/louisbranch/lms/internal/platform/errors"
	"github.com/louisbranch/lms/internal/platform/logging"
	"github.com/louisbranch/lms/internal/services/lms/access"
	"github.com/louisbranch/lms/internal/services/lms/model"
	"github.com/louisbranch/lms/internal/services/lms/notification"
	"github.com/louisbranch/lms/internal/services/lms/storage"
)

var (
	// ErrQuestionNotFound indicates the question does not exist.
	ErrQuestionNotFound = apperrors.New(apperrors.CodeNotFound, "question not found")
	// ErrCourseNotFound indicates the referenced course does not exist.
	ErrCourseNotFound = apperrors.New(apperrors.CodeNotFound, "course not found")
	// ErrContentRequired indicates a missing question body.
	ErrContentRequired = apperrors.New(apperrors.CodeInvalidArgument, "content is required")
	// ErrAnswerRequired indicates a missing expected answer.
	ErrAnswerRequired = apperrors.New(apperrors.CodeInvalidArgument, "answer is required")
	// ErrInvalidType indicates an unknown question type.
	ErrInvalidType = apperrors.New(apperrors.CodeInvalidArgument, "type must be one of MCQ, TRUE_FALSE or SHORT_ANSWER")
	// ErrStoreNotConfigured indicates the service is missing persistence wiring.
	ErrStoreNotConfigured = errors.New("question store is not configured")
)

// Store is the persistence boundary for the question bank.
type Store interface {
	GetCourse(ctx context.Context, id int64) (model.Course, error)
	CreateQuestion(ctx context.Context, question *model.Question) error
	GetQuestion(ctx context.Context, id int64) (model.Question, error)
	ListQuestionsByCourse(ctx context.Context, courseID int64, questionType model.QuestionType) ([]model.Question, error)
	DeleteQuestion(ctx context.Context, id int64) error
}

// CreateInput describes a new bank question.
type CreateInput struct {
	CourseID int64
	Content  string
	Answer   string
	Type     string
}

// Service implements question bank use-cases. Every operation requires a
// course manager.
type Service struct {
	store    Store
	clock    func() time.Time
	notifier notification.Notifier
	logger   *zap.Logger
}

// NewService constructs the question service.
func NewService(store Store, clock func() time.Time, notifier notification.Notifier, logger *zap.Logger) *Service {
	if clock == nil {
		clock = time.Now
	}
	return &Service{store: store, clock: clock, notifier: notifier, logger: logging.OrNop(logger)}
}

// Create adds a question to a course bank.
func (s *Service) Create(ctx context.Context, actor access.Actor, input CreateInput) (model.Question, error) {
	if s == nil || s.store == nil {
		return model.Question{}, ErrStoreNotConfigured
	}
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return model.Question{}, ErrContentRequired
	}
	answer := strings.TrimSpace(input.Answer)
	if answer == "" {
		return model.Question{}, ErrAnswerRequired
	}
	questionType, ok := model.ParseQuestionType(input.Type)
	if !ok {
		return model.Question{}, ErrInvalidType
	}
	course, err := s.managedCourse(ctx, actor, input.CourseID)
	if err != nil {
		return model.Question{}, err
	}
	question := model.Question{
		CourseID:    course.ID,
		CourseTitle: course.Title,
		Content:     content,
		Answer:      answer,
		Type:        questionType,
		CreatedAt:   s.clock().UTC(),
	}
	if err := s.store.CreateQuestion(ctx, &question); err != nil {
		return model.Question{}, fmt.Errorf("create question: %w", err)
	}
	notification.Dispatch(ctx, s.logger, s.notifier, notification.KeyQuestionCreated,
		map[string]any{"Course": course.Title}, course.InstructorID)
	return question, nil
}

// Get returns a question.
func (s *Service) Get(ctx context.Context, actor access.Actor, id int64) (model.Question, error) {
	question, err := s.load(ctx, id)
	if err != nil {
		return model.Question{}, err
	}
	if _, err := s.managedCourse(ctx, actor, question.CourseID); err != nil {
		return model.Question{}, err
	}
	return question, nil
}

// ListByCourse returns a course bank, optionally narrowed to one type.
func (s *Service) ListByCourse(ctx context.Context, actor access.Actor, courseID int64, questionType string) ([]model.Question, error) {
	if s == nil || s.store == nil {
		return nil, ErrStoreNotConfigured
	}
	var filter model.QuestionType
	if strings.TrimSpace(questionType) != "" {
		parsed, ok := model.ParseQuestionType(questionType)
		if !ok {
			return nil, ErrInvalidType
		}
		filter = parsed
	}
	course, err := s.managedCourse(ctx, actor, courseID)
	if err != nil {
		return nil, err
	}
	return s.store.ListQuestionsByCourse(ctx, course.ID, filter)
}

// Delete removes a question from the bank and from every quiz using it.
func (s *Service) Delete(ctx context.Context, actor access.Actor, id int64) error {
	question, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.managedCourse(ctx, actor, question.CourseID); err != nil {
		return err
	}
	if err := s.store.DeleteQuestion(ctx, question.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrQuestionNotFound
		}
		return err
	}
	return nil
}

func (s *Service) load(ctx context.Context, id int64) (model.Question, error) {
	if s == nil || s.store == nil {
		return model.Question{}, ErrStoreNotConfigured
	}
	question, err := s.store.GetQuestion(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return model.Question{}, ErrQuestionNotFound
		}
		return model.Question{}, err
	}
	return question, nil
}

func (s *Service) managedCourse(ctx context.Context, actor access.Actor, id int64) (model.Course, error) {
	course, err := s.store.GetCourse(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return model.Course{}, ErrCourseNotFound
		}
		return model.Course{}, err
	}
	if err := access.RequireCourseManager(actor, course); err != nil {
		return model.Course{}, err
	}
	return course, nil
}
