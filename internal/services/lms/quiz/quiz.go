// Package quiz generates quizzes from a course question bank and grades
// student attempts.
package quiz

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/louisbranch/lms/internal/platform/errors"
	"github.com/louisbranch/lms/internal/platform/logging"
	"github.com/louisbranch/lms/internal/services/lms/access"
	"github.com/louisbranch/lms/internal/services/lms/model"
	"github.com/louisbranch/lms/internal/services/lms/storage"
)

var (
	// ErrQuizNotFound indicates the quiz does not exist.
	ErrQuizNotFound = apperrors.New(apperrors.CodeNotFound, "quiz not found")
	// ErrCourseNotFound indicates the referenced course does not exist.
	ErrCourseNotFound = apperrors.New(apperrors.CodeNotFound, "course not found")
	// ErrQuestionNotInQuiz indicates an answer for a question outside the quiz.
	ErrQuestionNotInQuiz = apperrors.New(apperrors.CodeNotFound, "question is not part of this quiz")
	// ErrCountRequired indicates a non-positive question count.
	ErrCountRequired = apperrors.New(apperrors.CodeInvalidArgument, "numberOfQuestions must be positive")
	// ErrNotEnoughQuestions indicates a bank smaller than the requested count.
	ErrNotEnoughQuestions = apperrors.New(apperrors.CodeNotEnoughQuestions, "not enough questions in the course bank")
	// ErrAlreadySubmitted indicates a second attempt.
	ErrAlreadySubmitted = apperrors.New(apperrors.CodeAlreadySubmitted, "quiz already submitted")
	// ErrNotEnrolled indicates a student outside the course.
	ErrNotEnrolled = apperrors.New(apperrors.CodeNotEnrolled, "student is not enrolled in this course")
	// ErrStoreNotConfigured indicates the service is missing persistence wiring.
	ErrStoreNotConfigured = errors.New("quiz store is not configured")
)

// Store is the persistence boundary for quizzes and attempts.
type Store interface {
	GetCourse(ctx context.Context, id int64) (model.Course, error)
	IsEnrolled(ctx context.Context, studentID, courseID int64) (bool, error)
	ListQuestionsByCourse(ctx context.Context, courseID int64, questionType model.QuestionType) ([]model.Question, error)
	CreateQuiz(ctx context.Context, quiz *model.Quiz) error
	GetQuiz(ctx context.Context, id int64) (model.Quiz, error)
	ListQuizzesByCourse(ctx context.Context, courseID int64) ([]model.Quiz, error)
	CreateQuizAttempt(ctx context.Context, attempt *model.QuizAttempt) error
	ListQuizAttemptsByQuiz(ctx context.Context, quizID int64) ([]model.QuizAttempt, error)
	ListQuizAttemptsByStudent(ctx context.Context, studentID, courseID int64) ([]model.QuizAttempt, error)
}

// Answer is one submitted answer.
type Answer struct {
	QuestionID int64
	Answer     string
}

// Options tunes the quiz service.
type Options struct {
	// Perm returns a random permutation of [0, n). Defaults to rand.Perm.
	Perm   func(n int) []int
	Logger *zap.Logger
}

// Service implements quiz use-cases.
type Service struct {
	store  Store
	clock  func() time.Time
	perm   func(n int) []int
	logger *zap.Logger
}

// NewService constructs the quiz service.
func NewService(store Store, clock func() time.Time, opts Options) *Service {
	if clock == nil {
		clock = time.Now
	}
	perm := opts.Perm
	if perm == nil {
		perm = rand.Perm
	}
	return &Service{store: store, clock: clock, perm: perm, logger: logging.OrNop(opts.Logger)}
}

// Generate creates a quiz of count distinct questions drawn uniformly at
// random from the course bank.
func (s *Service) Generate(ctx context.Context, actor access.Actor, courseID int64, count int) (model.Quiz, error) {
	if s == nil || s.store == nil {
		return model.Quiz{}, ErrStoreNotConfigured
	}
	if count <= 0 {
		return model.Quiz{}, ErrCountRequired
	}
	course, err := s.course(ctx, courseID)
	if err != nil {
		return model.Quiz{}, err
	}
	if err := access.RequireCourseManager(actor, course); err != nil {
		return model.Quiz{}, err
	}
	bank, err := s.store.ListQuestionsByCourse(ctx, course.ID, "")
	if err != nil {
		return model.Quiz{}, err
	}
	if len(bank) < count {
		return model.Quiz{}, apperrors.WithMetadata(apperrors.CodeNotEnoughQuestions,
			fmt.Sprintf("course bank has %d questions, %d requested", len(bank), count),
			map[string]string{"Available": fmt.Sprint(len(bank))})
	}
	order := s.perm(len(bank))
	questions := make([]model.Question, 0, count)
	for _, i := range order[:count] {
		questions = append(questions, bank[i])
	}
	quiz := model.Quiz{CourseID: course.ID, Questions: questions, CreatedAt: s.clock().UTC()}
	if err := s.store.CreateQuiz(ctx, &quiz); err != nil {
		return model.Quiz{}, fmt.Errorf("create quiz: %w", err)
	}
	s.logger.Debug("quiz generated", zap.Int64("quiz_id", quiz.ID), zap.Int64("course_id", course.ID), zap.Int("questions", count))
	return quiz, nil
}

// Get returns a quiz to its course manager or an enrolled student. Answers
// are cleared for students.
func (s *Service) Get(ctx context.Context, actor access.Actor, id int64) (model.Quiz, error) {
	quiz, course, err := s.load(ctx, id)
	if err != nil {
		return model.Quiz{}, err
	}
	if actor.CanManageCourse(course) {
		return quiz, nil
	}
	if !actor.IsStudent() {
		return model.Quiz{}, access.RequireCourseManager(actor, course)
	}
	if err := s.requireEnrolled(ctx, actor.UserID, course.ID); err != nil {
		return model.Quiz{}, err
	}
	return withoutAnswers(quiz), nil
}

// ListByCourse returns a course's quizzes without answers unless the actor
// manages the course.
func (s *Service) ListByCourse(ctx context.Context, actor access.Actor, courseID int64) ([]model.Quiz, error) {
	if s == nil || s.store == nil {
		return nil, ErrStoreNotConfigured
	}
	course, err := s.course(ctx, courseID)
	if err != nil {
		return nil, err
	}
	quizzes, err := s.store.ListQuizzesByCourse(ctx, course.ID)
	if err != nil {
		return nil, err
	}
	if !actor.CanManageCourse(course) {
		for i := range quizzes {
			quizzes[i] = withoutAnswers(quizzes[i])
		}
	}
	return quizzes, nil
}

// Submit grades the acting student's single attempt at a quiz. Each question
// counts once; answers match when equal ignoring case and surrounding space.
func (s *Service) Submit(ctx context.Context, actor access.Actor, quizID int64, answers []Answer) (model.QuizAttempt, error) {
	if err := access.RequireStudent(actor); err != nil {
		return model.QuizAttempt{}, err
	}
	quiz, course, err := s.load(ctx, quizID)
	if err != nil {
		return model.QuizAttempt{}, err
	}
	if err := s.requireEnrolled(ctx, actor.UserID, course.ID); err != nil {
		return model.QuizAttempt{}, err
	}
	expected := make(map[int64]string, len(quiz.Questions))
	for _, question := range quiz.Questions {
		expected[question.ID] = question.Answer
	}
	graded := make(map[int64]bool, len(answers))
	correct := 0
	for _, answer := range answers {
		want, ok := expected[answer.QuestionID]
		if !ok {
			return model.QuizAttempt{}, apperrors.WithMetadata(apperrors.CodeNotFound,
				ErrQuestionNotInQuiz.Message,
				map[string]string{"QuestionID": fmt.Sprint(answer.QuestionID)})
		}
		if graded[answer.QuestionID] {
			continue
		}
		graded[answer.QuestionID] = true
		if strings.EqualFold(strings.TrimSpace(answer.Answer), strings.TrimSpace(want)) {
			correct++
		}
	}
	attempt := model.QuizAttempt{
		QuizID:      quiz.ID,
		CourseID:    course.ID,
		StudentID:   actor.UserID,
		Grade:       float64(correct),
		MaxGrade:    len(quiz.Questions),
		SubmittedAt: s.clock().UTC(),
	}
	if err := s.store.CreateQuizAttempt(ctx, &attempt); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return model.QuizAttempt{}, ErrAlreadySubmitted
		}
		return model.QuizAttempt{}, fmt.Errorf("record quiz attempt: %w", err)
	}
	return attempt, nil
}

// Grades returns every attempt at a quiz to its course manager.
func (s *Service) Grades(ctx context.Context, actor access.Actor, quizID int64) ([]model.QuizAttempt, error) {
	quiz, course, err := s.load(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if err := access.RequireCourseManager(actor, course); err != nil {
		return nil, err
	}
	return s.store.ListQuizAttemptsByQuiz(ctx, quiz.ID)
}

// StudentGrades returns a student's attempts. Students see their own, admins
// see all, and instructors see attempts in the courses they teach.
func (s *Service) StudentGrades(ctx context.Context, actor access.Actor, studentID int64) ([]model.QuizAttempt, error) {
	if s == nil || s.store == nil {
		return nil, ErrStoreNotConfigured
	}
	if !actor.IsSelf(studentID) && !actor.IsAdmin() && !actor.IsInstructor() {
		return nil, access.RequireSelfOrAdmin(actor, studentID)
	}
	attempts, err := s.store.ListQuizAttemptsByStudent(ctx, studentID, 0)
	if err != nil {
		return nil, err
	}
	if actor.IsSelf(studentID) || actor.IsAdmin() {
		return attempts, nil
	}
	managed := make(map[int64]bool)
	visible := make([]model.QuizAttempt, 0, len(attempts))
	for _, attempt := range attempts {
		allowed, seen := managed[attempt.CourseID]
		if !seen {
			course, err := s.store.GetCourse(ctx, attempt.CourseID)
			if err != nil {
				return nil, err
			}
			allowed = actor.CanManageCourse(course)
			managed[attempt.CourseID] = allowed
		}
		if allowed {
			visible = append(visible, attempt)
		}
	}
	return visible, nil
}

func (s *Service) load(ctx context.Context, id int64) (model.Quiz, model.Course, error) {
	if s == nil || s.store == nil {
		return model.Quiz{}, model.Course{}, ErrStoreNotConfigured
	}
	quiz, err := s.store.GetQuiz(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return model.Quiz{}, model.Course{}, ErrQuizNotFound
		}
		return model.Quiz{}, model.Course{}, err
	}
	course, err := s.course(ctx, quiz.CourseID)
	if err != nil {
		return model.Quiz{}, model.Course{}, err
	}
	return quiz, course, nil
}

func (s *Service) course(ctx context.Context, id int64) (model.Course, error) {
	course, err := s.store.GetCourse(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return model.Course{}, ErrCourseNotFound
		}
		return model.Course{}, err
	}
	return course, nil
}

func (s *Service) requireEnrolled(ctx context.Context, studentID, courseID int64) error {
	enrolled, err := s.store.IsEnrolled(ctx, studentID, courseID)
	if err != nil {
		return err
	}
	if !enrolled {
		return ErrNotEnrolled
	}
	return nil
}

func withoutAnswers(quiz model.Quiz) model.Quiz {
	questions := make([]model.Question, len(quiz.Questions))
	for i, question := range quiz.Questions {
		question.Answer = ""
		questions[i] = question
	}
	quiz.Questions = questions
	return quiz
}
