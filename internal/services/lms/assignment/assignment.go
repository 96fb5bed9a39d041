// Package assignment manages graded course work.
package assignment

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
	// ErrAssignmentNotFound indicates the assignment does not exist.
	ErrAssignmentNotFound = apperrors.New(apperrors.CodeNotFound, "assignment not found")
	// ErrCourseNotFound indicates the referenced course does not exist.
	ErrCourseNotFound = apperrors.New(apperrors.CodeNotFound, "course not found")
	// ErrInstructionsRequired indicates missing instructions.
	ErrInstructionsRequired = apperrors.New(apperrors.CodeInvalidArgument, "instructions are required")
	// ErrMaxGradeInvalid indicates a non-positive max grade.
	ErrMaxGradeInvalid = apperrors.New(apperrors.CodeInvalidArgument, "maxGrade must be positive")
	// ErrStoreNotConfigured indicates the service is missing persistence wiring.
	ErrStoreNotConfigured = errors.New("assignment store is not configured")
)

// Store is the persistence boundary for assignments.
type Store interface {
	GetCourse(ctx context.Context, id int64) (model.Course, error)
	ListEnrollmentsByCourse(ctx context.Context, courseID int64) ([]model.Enrollment, error)
	CreateAssignment(ctx context.Context, assignment *model.Assignment) error
	GetAssignment(ctx context.Context, id int64) (model.Assignment, error)
	ListAssignmentsByCourse(ctx context.Context, courseID int64) ([]model.Assignment, error)
	UpdateAssignment(ctx context.Context, assignment model.Assignment) error
	DeleteAssignment(ctx context.Context, id int64) error
}

// CreateInput describes a new assignment.
type CreateInput struct {
	CourseID     int64
	Instructions string
	MaxGrade     int
}

// UpdateInput changes the set fields of an assignment.
type UpdateInput struct {
	Instructions *string
	MaxGrade     *int
}

// Service implements assignment use-cases.
type Service struct {
	store    Store
	clock    func() time.Time
	notifier notification.Notifier
	logger   *zap.Logger
}

// NewService constructs the assignment service.
func NewService(store Store, clock func() time.Time, notifier notification.Notifier, logger *zap.Logger) *Service {
	if clock == nil {
		clock = time.Now
	}
	return &Service{store: store, clock: clock, notifier: notifier, logger: logging.OrNop(logger)}
}

// Create adds an assignment to a course the actor manages and tells the
// course about it.
func (s *Service) Create(ctx context.Context, actor access.Actor, input CreateInput) (model.Assignment, error) {
	if s == nil || s.store == nil {
		return model.Assignment{}, ErrStoreNotConfigured
	}
	instructions := strings.TrimSpace(input.Instructions)
	if instructions == "" {
		return model.Assignment{}, ErrInstructionsRequired
	}
	if input.MaxGrade <= 0 {
		return model.Assignment{}, ErrMaxGradeInvalid
	}
	course, err := s.course(ctx, input.CourseID)
	if err != nil {
		return model.Assignment{}, err
	}
	if err := access.RequireCourseManager(actor, course); err != nil {
		return model.Assignment{}, err
	}
	now := s.clock().UTC()
	assignment := model.Assignment{
		CourseID:     course.ID,
		Instructions: instructions,
		MaxGrade:     input.MaxGrade,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateAssignment(ctx, &assignment); err != nil {
		return model.Assignment{}, fmt.Errorf("create assignment: %w", err)
	}
	s.notifyCourse(ctx, notification.KeyAssignmentCreated, course)
	return assignment, nil
}

// Get returns an assignment.
func (s *Service) Get(ctx context.Context, id int64) (model.Assignment, error) {
	assignment, _, err := s.load(ctx, id)
	return assignment, err
}

// ListByCourse returns a course's assignments.
func (s *Service) ListByCourse(ctx context.Context, courseID int64) ([]model.Assignment, error) {
	if s == nil || s.store == nil {
		return nil, ErrStoreNotConfigured
	}
	course, err := s.course(ctx, courseID)
	if err != nil {
		return nil, err
	}
	return s.store.ListAssignmentsByCourse(ctx, course.ID)
}

// Update applies the set fields of input.
func (s *Service) Update(ctx context.Context, actor access.Actor, id int64, input UpdateInput) (model.Assignment, error) {
	assignment, course, err := s.load(ctx, id)
	if err != nil {
		return model.Assignment{}, err
	}
	if err := access.RequireCourseManager(actor, course); err != nil {
		return model.Assignment{}, err
	}
	if input.Instructions != nil {
		instructions := strings.TrimSpace(*input.Instructions)
		if instructions == "" {
			return model.Assignment{}, ErrInstructionsRequired
		}
		assignment.Instructions = instructions
	}
	if input.MaxGrade != nil {
		if *input.MaxGrade <= 0 {
			return model.Assignment{}, ErrMaxGradeInvalid
		}
		assignment.MaxGrade = *input.MaxGrade
	}
	assignment.UpdatedAt = s.clock().UTC()
	if err := s.store.UpdateAssignment(ctx, assignment); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return model.Assignment{}, ErrAssignmentNotFound
		}
		return model.Assignment{}, fmt.Errorf("update assignment: %w", err)
	}
	s.notifyCourse(ctx, notification.KeyAssignmentUpdated, course)
	return assignment, nil
}

// Delete removes an assignment and its submissions.
func (s *Service) Delete(ctx context.Context, actor access.Actor, id int64) error {
	assignment, course, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := access.RequireCourseManager(actor, course); err != nil {
		return err
	}
	if err := s.store.DeleteAssignment(ctx, assignment.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrAssignmentNotFound
		}
		return err
	}
	notification.Dispatch(ctx, s.logger, s.notifier, notification.KeyAssignmentDeleted,
		map[string]any{"Course": course.Title}, course.InstructorID)
	return nil
}

// notifyCourse tells the instructor and every enrolled student. A failed
// roster lookup still notifies the instructor.
func (s *Service) notifyCourse(ctx context.Context, key string, course model.Course) {
	recipients := []int64{course.InstructorID}
	enrollments, err := s.store.ListEnrollmentsByCourse(ctx, course.ID)
	if err != nil {
		s.logger.Warn("list course roster", zap.Int64("course_id", course.ID), zap.Error(err))
	}
	for _, enrollment := range enrollments {
		recipients = append(recipients, enrollment.StudentID)
	}
	notification.Dispatch(ctx, s.logger, s.notifier, key, map[string]any{"Course": course.Title}, recipients...)
}

func (s *Service) load(ctx context.Context, id int64) (model.Assignment, model.Course, error) {
	if s == nil || s.store == nil {
		return model.Assignment{}, model.Course{}, ErrStoreNotConfigured
	}
	assignment, err := s.store.GetAssignment(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return model.Assignment{}, model.Course{}, ErrAssignmentNotFound
		}
		return model.Assignment{}, model.Course{}, err
	}
	course, err := s.course(ctx, assignment.CourseID)
	if err != nil {
		return model.Assignment{}, model.Course{}, err
	}
	return assignment, course, nil
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
