// Package attendance records lesson attendance confirmed by the lesson's
// one-time password.
package attendance

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
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
	// ErrLessonNotFound indicates the lesson does not exist.
	ErrLessonNotFound = apperrors.New(apperrors.CodeNotFound, "lesson not found")
	// ErrNotEnrolled indicates a student outside the lesson's course.
	ErrNotEnrolled = apperrors.New(apperrors.CodeNotEnrolled, "student is not enrolled in this course")
	// ErrInvalidOTP indicates a wrong lesson password.
	ErrInvalidOTP = apperrors.New(apperrors.CodeInvalidOTP, "invalid otp")
	// ErrAlreadyRecorded indicates attendance was already taken.
	ErrAlreadyRecorded = apperrors.New(apperrors.CodeAttendanceRecorded, "attendance already recorded for this lesson")
	// ErrStoreNotConfigured indicates the service is missing persistence wiring.
	ErrStoreNotConfigured = errors.New("attendance store is not configured")
)

// Store is the persistence boundary for attendance.
type Store interface {
	GetLesson(ctx context.Context, id int64) (model.Lesson, error)
	IsEnrolled(ctx context.Context, studentID, courseID int64) (bool, error)
	CreateAttendance(ctx context.Context, attendance *model.Attendance) error
	GetAttendance(ctx context.Context, id int64) (model.Attendance, error)
	ListAttendance(ctx context.Context, filter storage.AttendanceFilter) ([]model.Attendance, error)
}

// Service implements attendance use-cases.
type Service struct {
	store  Store
	clock  func() time.Time
	logger *zap.Logger
}

// NewService constructs the attendance service.
func NewService(store Store, clock func() time.Time, logger *zap.Logger) *Service {
	if clock == nil {
		clock = time.Now
	}
	return &Service{store: store, clock: clock, logger: logging.OrNop(logger)}
}

// Record marks the acting student present at a lesson.
func (s *Service) Record(ctx context.Context, actor access.Actor, lessonID int64, otp string) (model.Attendance, error) {
	if s == nil || s.store == nil {
		return model.Attendance{}, ErrStoreNotConfigured
	}
	if err := access.RequireStudent(actor); err != nil {
		return model.Attendance{}, err
	}
	lesson, err := s.store.GetLesson(ctx, lessonID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return model.Attendance{}, ErrLessonNotFound
		}
		return model.Attendance{}, err
	}
	enrolled, err := s.store.IsEnrolled(ctx, actor.UserID, lesson.CourseID)
	if err != nil {
		return model.Attendance{}, err
	}
	if !enrolled {
		return model.Attendance{}, ErrNotEnrolled
	}
	if subtle.ConstantTimeCompare([]byte(strings.TrimSpace(otp)), []byte(lesson.OTP)) != 1 {
		s.logger.Info("attendance otp rejected", zap.Int64("lesson_id", lesson.ID), zap.Int64("student_id", actor.UserID))
		return model.Attendance{}, ErrInvalidOTP
	}
	record := model.Attendance{
		StudentID: actor.UserID,
		LessonID:  lesson.ID,
		CreatedAt: s.clock().UTC(),
	}
	if err := s.store.CreateAttendance(ctx, &record); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return model.Attendance{}, ErrAlreadyRecorded
		}
		return model.Attendance{}, fmt.Errorf("record attendance: %w", err)
	}
	return s.store.GetAttendance(ctx, record.ID)
}

// ListByStudent returns a student's attendance. Instructors only see their
// own courses.
func (s *Service) ListByStudent(ctx context.Context, actor access.Actor, studentID int64) ([]model.Attendance, error) {
	return s.list(ctx, actor, storage.AttendanceFilter{StudentID: studentID})
}

// ListByStudentInCourse narrows ListByStudent to one course.
func (s *Service) ListByStudentInCourse(ctx context.Context, actor access.Actor, studentID, courseID int64) ([]model.Attendance, error) {
	return s.list(ctx, actor, storage.AttendanceFilter{StudentID: studentID, CourseID: courseID})
}

func (s *Service) list(ctx context.Context, actor access.Actor, filter storage.AttendanceFilter) ([]model.Attendance, error) {
	if s == nil || s.store == nil {
		return nil, ErrStoreNotConfigured
	}
	switch {
	case actor.IsSelf(filter.StudentID), actor.IsAdmin():
	case actor.IsInstructor():
		filter.InstructorID = actor.UserID
	default:
		return nil, access.RequireSelfOrAdmin(actor, filter.StudentID)
	}
	return s.store.ListAttendance(ctx, filter)
}
