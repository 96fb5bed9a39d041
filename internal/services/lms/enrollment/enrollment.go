// Package enrollment links students to courses.
package enrollment

import (
	"context"
	"errors"
	"fmt"
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
	// ErrEnrollmentNotFound indicates the enrollment does not exist.
	ErrEnrollmentNotFound = apperrors.New(apperrors.CodeNotFound, "enrollment not found")
	// ErrCourseNotFound indicates the referenced course does not exist.
	ErrCourseNotFound = apperrors.New(apperrors.CodeNotFound, "course not found")
	// ErrAlreadyEnrolled indicates the student is already in the course.
	ErrAlreadyEnrolled = apperrors.New(apperrors.CodeAlreadyEnrolled, "student is already enrolled in this course")
	// ErrAdminRequired indicates an administrator-only listing.
	ErrAdminRequired = apperrors.New(apperrors.CodePermissionDenied, "only administrators can list all enrollments")
	// ErrStoreNotConfigured indicates the service is missing persistence wiring.
	ErrStoreNotConfigured = errors.New("enrollment store is not configured")
)

// Store is the persistence boundary for enrollments.
type Store interface {
	GetCourse(ctx context.Context, id int64) (model.Course, error)
	CreateEnrollment(ctx context.Context, enrollment *model.Enrollment) error
	GetEnrollment(ctx context.Context, id int64) (model.Enrollment, error)
	GetEnrollmentByStudentCourse(ctx context.Context, studentID, courseID int64) (model.Enrollment, error)
	ListEnrollments(ctx context.Context) ([]model.Enrollment, error)
	ListEnrollmentsByStudent(ctx context.Context, studentID int64) ([]model.Enrollment, error)
	ListEnrollmentsByCourse(ctx context.Context, courseID int64) ([]model.Enrollment, error)
	UpdateEnrollment(ctx context.Context, enrollment model.Enrollment) error
	DeleteEnrollment(ctx context.Context, id int64) error
}

// Service implements enrollment use-cases.
type Service struct {
	store    Store
	clock    func() time.Time
	notifier notification.Notifier
	logger   *zap.Logger
}

// NewService constructs the enrollment service.
func NewService(store Store, clock func() time.Time, notifier notification.Notifier, logger *zap.Logger) *Service {
	if clock == nil {
		clock = time.Now
	}
	return &Service{store: store, clock: clock, notifier: notifier, logger: logging.OrNop(logger)}
}

// Enroll adds the acting student to a course.
func (s *Service) Enroll(ctx context.Context, actor access.Actor, courseID int64) (model.Enrollment, error) {
	if s == nil || s.store == nil {
		return model.Enrollment{}, ErrStoreNotConfigured
	}
	if err := access.RequireStudent(actor); err != nil {
		return model.Enrollment{}, err
	}
	course, err := s.course(ctx, courseID)
	if err != nil {
		return model.Enrollment{}, err
	}
	now := s.clock().UTC()
	enrollment := model.Enrollment{
		StudentID: actor.UserID,
		CourseID:  course.ID,
		Confirmed: true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateEnrollment(ctx, &enrollment); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return model.Enrollment{}, ErrAlreadyEnrolled
		}
		return model.Enrollment{}, fmt.Errorf("create enrollment: %w", err)
	}
	created, err := s.store.GetEnrollment(ctx, enrollment.ID)
	if err != nil {
		return model.Enrollment{}, err
	}
	data := map[string]any{"Course": course.Title, "Student": created.StudentName}
	notification.Dispatch(ctx, s.logger, s.notifier, notification.KeyEnrollmentStudent, data, created.StudentID)
	notification.Dispatch(ctx, s.logger, s.notifier, notification.KeyEnrollmentInstructor, data, course.InstructorID)
	return created, nil
}

// List returns every enrollment.
func (s *Service) List(ctx context.Context, actor access.Actor) ([]model.Enrollment, error) {
	if s == nil || s.store == nil {
		return nil, ErrStoreNotConfigured
	}
	if !actor.IsAdmin() {
		return nil, ErrAdminRequired
	}
	return s.store.ListEnrollments(ctx)
}

// Get returns an enrollment visible to its student, the course manager or
// an admin.
func (s *Service) Get(ctx context.Context, actor access.Actor, id int64) (model.Enrollment, error) {
	enrollment, course, err := s.load(ctx, id)
	if err != nil {
		return model.Enrollment{}, err
	}
	if !actor.IsSelf(enrollment.StudentID) {
		if err := access.RequireCourseManager(actor, course); err != nil {
			return model.Enrollment{}, err
		}
	}
	return enrollment, nil
}

// GetByStudentAndCourse returns a student's enrollment in a course.
func (s *Service) GetByStudentAndCourse(ctx context.Context, actor access.Actor, studentID, courseID int64) (model.Enrollment, error) {
	if s == nil || s.store == nil {
		return model.Enrollment{}, ErrStoreNotConfigured
	}
	course, err := s.course(ctx, courseID)
	if err != nil {
		return model.Enrollment{}, err
	}
	if !actor.IsSelf(studentID) {
		if err := access.RequireCourseManager(actor, course); err != nil {
			return model.Enrollment{}, err
		}
	}
	enrollment, err := s.store.GetEnrollmentByStudentCourse(ctx, studentID, courseID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return model.Enrollment{}, ErrEnrollmentNotFound
		}
		return model.Enrollment{}, err
	}
	return enrollment, nil
}

// ListByStudent returns a student's enrollments.
func (s *Service) ListByStudent(ctx context.Context, actor access.Actor, studentID int64) ([]model.Enrollment, error) {
	if s == nil || s.store == nil {
		return nil, ErrStoreNotConfigured
	}
	if err := access.RequireSelfOrAdmin(actor, studentID); err != nil {
		return nil, err
	}
	return s.store.ListEnrollmentsByStudent(ctx, studentID)
}

// ListByCourse returns a course's enrollments.
func (s *Service) ListByCourse(ctx context.Context, actor access.Actor, courseID int64) ([]model.Enrollment, error) {
	if s == nil || s.store == nil {
		return nil, ErrStoreNotConfigured
	}
	course, err := s.course(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if err := access.RequireCourseManager(actor, course); err != nil {
		return nil, err
	}
	return s.store.ListEnrollmentsByCourse(ctx, course.ID)
}

// SetCompleted marks an enrollment completed or not.
func (s *Service) SetCompleted(ctx context.Context, actor access.Actor, id int64, completed bool) (model.Enrollment, error) {
	enrollment, course, err := s.load(ctx, id)
	if err != nil {
		return model.Enrollment{}, err
	}
	if err := access.RequireCourseManager(actor, course); err != nil {
		return model.Enrollment{}, err
	}
	enrollment.Completed = completed
	enrollment.UpdatedAt = s.clock().UTC()
	if err := s.store.UpdateEnrollment(ctx, enrollment); err != nil {
		return model.Enrollment{}, fmt.Errorf("update enrollment: %w", err)
	}
	return enrollment, nil
}

// Delete removes an enrollment. The student or the course manager may do
// so; both are notified.
func (s *Service) Delete(ctx context.Context, actor access.Actor, id int64) error {
	enrollment, course, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !actor.IsSelf(enrollment.StudentID) {
		if err := access.RequireCourseManager(actor, course); err != nil {
			return err
		}
	}
	if err := s.store.DeleteEnrollment(ctx, enrollment.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrEnrollmentNotFound
		}
		return err
	}
	data := map[string]any{"Course": course.Title, "Student": enrollment.StudentName}
	notification.Dispatch(ctx, s.logger, s.notifier, notification.KeyUnenrollmentStudent, data, enrollment.StudentID)
	notification.Dispatch(ctx, s.logger, s.notifier, notification.KeyUnenrollmentInstructor, data, course.InstructorID)
	return nil
}

func (s *Service) load(ctx context.Context, id int64) (model.Enrollment, model.Course, error) {
	if s == nil || s.store == nil {
		return model.Enrollment{}, model.Course{}, ErrStoreNotConfigured
	}
	enrollment, err := s.store.GetEnrollment(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return model.Enrollment{}, model.Course{}, ErrEnrollmentNotFound
		}
		return model.Enrollment{}, model.Course{}, err
	}
	course, err := s.course(ctx, enrollment.CourseID)
	if err != nil {
		return model.Enrollment{}, model.Course{}, err
	}
	return enrollment, course, nil
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
