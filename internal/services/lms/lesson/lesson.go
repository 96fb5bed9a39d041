// Package lesson manages course lessons and the one-time passwords students
// use to record attendance.
package lesson

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
	// ErrLessonNotFound indicates the lesson does not exist.
	ErrLessonNotFound = apperrors.New(apperrors.CodeNotFound, "lesson not found")
	// ErrCourseNotFound indicates the referenced course does not exist.
	ErrCourseNotFound = apperrors.New(apperrors.CodeNotFound, "course not found")
	// ErrOTPRequired indicates a missing one-time password.
	ErrOTPRequired = apperrors.New(apperrors.CodeInvalidArgument, "otp is required")
	// ErrStoreNotConfigured indicates the service is missing persistence wiring.
	ErrStoreNotConfigured = errors.New("lesson store is not configured")
)

// Store is the persistence boundary for lessons.
type Store interface {
	GetCourse(ctx context.Context, id int64) (model.Course, error)
	CreateLesson(ctx context.Context, lesson *model.Lesson) error
	GetLesson(ctx context.Context, id int64) (model.Lesson, error)
	ListLessonsByCourse(ctx context.Context, courseID int64) ([]model.Lesson, error)
	UpdateLesson(ctx context.Context, lesson model.Lesson) error
	DeleteLesson(ctx context.Context, id int64) error
}

// CreateInput describes a new lesson.
type CreateInput struct {
	CourseID int64
	Title    string
	OTP      string
}

// UpdateInput changes the set fields of a lesson.
type UpdateInput struct {
	CourseID *int64
	Title    *string
	OTP      *string
}

// Service implements lesson use-cases.
type Service struct {
	store    Store
	clock    func() time.Time
	notifier notification.Notifier
	logger   *zap.Logger
}

// NewService constructs the lesson service.
func NewService(store Store, clock func() time.Time, notifier notification.Notifier, logger *zap.Logger) *Service {
	if clock == nil {
		clock = time.Now
	}
	return &Service{store: store, clock: clock, notifier: notifier, logger: logging.OrNop(logger)}
}

// Create adds a lesson to a course the actor manages.
func (s *Service) Create(ctx context.Context, actor access.Actor, input CreateInput) (model.Lesson, error) {
	if s == nil || s.store == nil {
		return model.Lesson{}, ErrStoreNotConfigured
	}
	otp := strings.TrimSpace(input.OTP)
	if otp == "" {
		return model.Lesson{}, ErrOTPRequired
	}
	course, err := s.managedCourse(ctx, actor, input.CourseID)
	if err != nil {
		return model.Lesson{}, err
	}
	now := s.clock().UTC()
	lesson := model.Lesson{
		CourseID:    course.ID,
		CourseTitle: course.Title,
		Title:       strings.TrimSpace(input.Title),
		OTP:         otp,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateLesson(ctx, &lesson); err != nil {
		return model.Lesson{}, fmt.Errorf("create lesson: %w", err)
	}
	s.notify(ctx, notification.KeyLessonCreated, lesson, course)
	return lesson, nil
}

// Get returns a lesson. The OTP is cleared unless the actor manages the course.
func (s *Service) Get(ctx context.Context, actor access.Actor, id int64) (model.Lesson, error) {
	lesson, course, err := s.load(ctx, id)
	if err != nil {
		return model.Lesson{}, err
	}
	return redact(actor, course, lesson), nil
}

// ListByCourse returns a course's lessons. OTPs are cleared unless the actor
// manages the course.
func (s *Service) ListByCourse(ctx context.Context, actor access.Actor, courseID int64) ([]model.Lesson, error) {
	if s == nil || s.store == nil {
		return nil, ErrStoreNotConfigured
	}
	course, err := s.course(ctx, courseID)
	if err != nil {
		return nil, err
	}
	lessons, err := s.store.ListLessonsByCourse(ctx, course.ID)
	if err != nil {
		return nil, err
	}
	for i := range lessons {
		lessons[i] = redact(actor, course, lessons[i])
	}
	return lessons, nil
}

// Update applies the set fields of input. Moving a lesson requires managing
// both courses.
func (s *Service) Update(ctx context.Context, actor access.Actor, id int64, input UpdateInput) (model.Lesson, error) {
	lesson, course, err := s.load(ctx, id)
	if err != nil {
		return model.Lesson{}, err
	}
	if err := access.RequireCourseManager(actor, course); err != nil {
		return model.Lesson{}, err
	}
	if input.CourseID != nil && *input.CourseID != course.ID {
		target, err := s.managedCourse(ctx, actor, *input.CourseID)
		if err != nil {
			return model.Lesson{}, err
		}
		course = target
		lesson.CourseID = target.ID
		lesson.CourseTitle = target.Title
	}
	if input.Title != nil {
		lesson.Title = strings.TrimSpace(*input.Title)
	}
	if input.OTP != nil {
		otp := strings.TrimSpace(*input.OTP)
		if otp == "" {
			return model.Lesson{}, ErrOTPRequired
		}
		lesson.OTP = otp
	}
	lesson.UpdatedAt = s.clock().UTC()
	if err := s.store.UpdateLesson(ctx, lesson); err != nil {
		return model.Lesson{}, fmt.Errorf("update lesson: %w", err)
	}
	s.notify(ctx, notification.KeyLessonUpdated, lesson, course)
	return lesson, nil
}

// Delete removes a lesson and its attendance.
func (s *Service) Delete(ctx context.Context, actor access.Actor, id int64) error {
	lesson, course, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := access.RequireCourseManager(actor, course); err != nil {
		return err
	}
	if err := s.store.DeleteLesson(ctx, lesson.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrLessonNotFound
		}
		return err
	}
	s.notify(ctx, notification.KeyLessonDeleted, lesson, course)
	return nil
}

func (s *Service) notify(ctx context.Context, key string, lesson model.Lesson, course model.Course) {
	notification.Dispatch(ctx, s.logger, s.notifier, key,
		map[string]any{"Lesson": lessonLabel(lesson), "Course": course.Title}, course.InstructorID)
}

func (s *Service) load(ctx context.Context, id int64) (model.Lesson, model.Course, error) {
	if s == nil || s.store == nil {
		return model.Lesson{}, model.Course{}, ErrStoreNotConfigured
	}
	lesson, err := s.store.GetLesson(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return model.Lesson{}, model.Course{}, ErrLessonNotFound
		}
		return model.Lesson{}, model.Course{}, err
	}
	course, err := s.course(ctx, lesson.CourseID)
	if err != nil {
		return model.Lesson{}, model.Course{}, err
	}
	return lesson, course, nil
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

func (s *Service) managedCourse(ctx context.Context, actor access.Actor, id int64) (model.Course, error) {
	course, err := s.course(ctx, id)
	if err != nil {
		return model.Course{}, err
	}
	if err := access.RequireCourseManager(actor, course); err != nil {
		return model.Course{}, err
	}
	return course, nil
}

func redact(actor access.Actor, course model.Course, lesson model.Lesson) model.Lesson {
	if !actor.CanManageCourse(course) {
		lesson.OTP = ""
	}
	return lesson
}

func lessonLabel(lesson model.Lesson) string {
	if lesson.Title != "" {
		return lesson.Title
	}
	return fmt.Sprintf("#%d", lesson.ID)
}
