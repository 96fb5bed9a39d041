// Package submission records student answers to assignments and their
// grading.
package submission

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/louisbranch/lms/internal/platform/archive"
	apperrors "github.com/louisbranch/lms/internal/platform/errors"
	"github.com/louisbranch/lms/internal/platform/filestore"
	"github.com/louisbranch/lms/internal/platform/logging"
	"github.com/louisbranch/lms/internal/services/lms/access"
	"github.com/louisbranch/lms/internal/services/lms/model"
	"github.com/louisbranch/lms/internal/services/lms/notification"
	"github.com/louisbranch/lms/internal/services/lms/storage"
)

// FilesCategory is the upload directory for submission files.
const FilesCategory = "students-assignments"

// DefaultMaxFileBytes caps one uploaded file.
const DefaultMaxFileBytes = 10 << 20

var (
	// ErrSubmissionNotFound indicates the submission does not exist.
	ErrSubmissionNotFound = apperrors.New(apperrors.CodeNotFound, "submission not found")
	// ErrAssignmentNotFound indicates the assignment does not exist.
	ErrAssignmentNotFound = apperrors.New(apperrors.CodeNotFound, "assignment not found")
	// ErrCourseNotFound indicates the referenced course does not exist.
	ErrCourseNotFound = apperrors.New(apperrors.CodeNotFound, "course not found")
	// ErrCourseMismatch indicates the assignment belongs to another course.
	ErrCourseMismatch = apperrors.New(apperrors.CodeInvalidArgument, "assignment does not belong to this course")
	// ErrNotEnrolled indicates a student outside the course.
	ErrNotEnrolled = apperrors.New(apperrors.CodeNotEnrolled, "student is not enrolled in this course")
	// ErrAlreadySubmitted indicates a second submission for one assignment.
	ErrAlreadySubmitted = apperrors.New(apperrors.CodeAlreadyExists, "assignment already submitted")
	// ErrGradeOutOfRange indicates a grade outside [0, maxGrade].
	ErrGradeOutOfRange = apperrors.New(apperrors.CodeInvalidArgument, "grade must be between 0 and the assignment max grade")
	// ErrNotOwner indicates a student acting on another student's submission.
	ErrNotOwner = apperrors.New(apperrors.CodePermissionDenied, "only the submitting student can change this submission")
	// ErrAdminRequired indicates an administrator-only operation.
	ErrAdminRequired = apperrors.New(apperrors.CodePermissionDenied, "only administrators can delete submissions")
	// ErrNoFiles indicates an upload without files.
	ErrNoFiles = apperrors.New(apperrors.CodeInvalidArgument, "at least one file is required")
	// ErrStoreNotConfigured indicates the service is missing persistence wiring.
	ErrStoreNotConfigured = errors.New("submission store is not configured")
)

// Store is the persistence boundary for submissions.
type Store interface {
	GetCourse(ctx context.Context, id int64) (model.Course, error)
	GetAssignment(ctx context.Context, id int64) (model.Assignment, error)
	IsEnrolled(ctx context.Context, studentID, courseID int64) (bool, error)
	CreateSubmission(ctx context.Context, submission *model.Submission) error
	AddSubmissionFiles(ctx context.Context, submissionID int64, fileNames []string, at time.Time) error
	GetSubmission(ctx context.Context, id int64) (model.Submission, error)
	ListSubmissions(ctx context.Context, filter storage.SubmissionFilter) ([]model.Submission, error)
	UpdateSubmission(ctx context.Context, submission model.Submission) error
	DeleteSubmission(ctx context.Context, id int64) error
}

// Files stores uploaded submission bytes.
type Files interface {
	Save(category, name string, r io.Reader, limit int64) (string, error)
	Open(category, name string) (io.ReadCloser, error)
	Remove(category, name string) error
}

// Options tunes the submission service.
type Options struct {
	MaxFileBytes int64
	Notifier     notification.Notifier
	Logger       *zap.Logger
}

// Service implements submission use-cases.
type Service struct {
	store        Store
	files        Files
	clock        func() time.Time
	maxFileBytes int64
	notifier     notification.Notifier
	logger       *zap.Logger
}

// NewService constructs the submission service.
func NewService(store Store, files Files, clock func() time.Time, opts Options) *Service {
	if clock == nil {
		clock = time.Now
	}
	maxFileBytes := opts.MaxFileBytes
	if maxFileBytes <= 0 {
		maxFileBytes = DefaultMaxFileBytes
	}
	return &Service{
		store:        store,
		files:        files,
		clock:        clock,
		maxFileBytes: maxFileBytes,
		notifier:     opts.Notifier,
		logger:       logging.OrNop(opts.Logger),
	}
}

// Create opens the acting student's submission for an assignment.
func (s *Service) Create(ctx context.Context, actor access.Actor, assignmentID, courseID int64) (model.Submission, error) {
	if s == nil || s.store == nil {
		return model.Submission{}, ErrStoreNotConfigured
	}
	if err := access.RequireStudent(actor); err != nil {
		return model.Submission{}, err
	}
	assignment, err := s.store.GetAssignment(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return model.Submission{}, ErrAssignmentNotFound
		}
		return model.Submission{}, err
	}
	if assignment.CourseID != courseID {
		return model.Submission{}, ErrCourseMismatch
	}
	enrolled, err := s.store.IsEnrolled(ctx, actor.UserID, courseID)
	if err != nil {
		return model.Submission{}, err
	}
	if !enrolled {
		return model.Submission{}, ErrNotEnrolled
	}
	now := s.clock().UTC()
	submission := model.Submission{
		AssignmentID: assignment.ID,
		CourseID:     assignment.CourseID,
		StudentID:    actor.UserID,
		MaxGrade:     assignment.MaxGrade,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateSubmission(ctx, &submission); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return model.Submission{}, ErrAlreadySubmitted
		}
		return model.Submission{}, fmt.Errorf("create submission: %w", err)
	}
	return s.store.GetSubmission(ctx, submission.ID)
}

// AttachFiles stores uploads on the acting student's submission.
func (s *Service) AttachFiles(ctx context.Context, actor access.Actor, id int64, uploads []filestore.Upload) (model.Submission, error) {
	if err := access.RequireStudent(actor); err != nil {
		return model.Submission{}, err
	}
	submission, err := s.load(ctx, id)
	if err != nil {
		return model.Submission{}, err
	}
	if !actor.IsSelf(submission.StudentID) {
		return model.Submission{}, ErrNotOwner
	}
	if len(uploads) == 0 {
		return model.Submission{}, ErrNoFiles
	}
	if s.files == nil {
		return model.Submission{}, errors.New("submission file store is not configured")
	}
	course, err := s.course(ctx, submission.CourseID)
	if err != nil {
		return model.Submission{}, err
	}
	prefix := fmt.Sprintf("%d_%s_", submission.StudentID, filestore.Dashed(course.Title))
	stored := make([]string, 0, len(uploads))
	for _, upload := range uploads {
		base := filestore.SanitizeName(upload.Name)
		if base == "" {
			s.cleanup(stored)
			return model.Submission{}, filestore.ErrInvalidName
		}
		name, err := s.files.Save(FilesCategory, prefix+base, upload.Body, s.maxFileBytes)
		if err != nil {
			s.cleanup(stored)
			return model.Submission{}, err
		}
		stored = append(stored, name)
	}
	if err := s.store.AddSubmissionFiles(ctx, submission.ID, stored, s.clock().UTC()); err != nil {
		s.cleanup(stored)
		return model.Submission{}, fmt.Errorf("record submission files: %w", err)
	}
	return s.store.GetSubmission(ctx, submission.ID)
}

// Files returns archive entries for a submission's files. The owner and the
// course manager may download them.
func (s *Service) Files(ctx context.Context, actor access.Actor, id int64) (model.Submission, []archive.Entry, error) {
	submission, err := s.Get(ctx, actor, id)
	if err != nil {
		return model.Submission{}, nil, err
	}
	if s.files == nil {
		return model.Submission{}, nil, errors.New("submission file store is not configured")
	}
	entries := make([]archive.Entry, 0, len(submission.Files))
	for _, name := range submission.Files {
		entries = append(entries, archive.Entry{Name: name, Open: func() (io.ReadCloser, error) {
			return s.files.Open(FilesCategory, name)
		}})
	}
	return submission, entries, nil
}

// ArchiveName is the download name of a submission's files.
func ArchiveName(id int64) string {
	return fmt.Sprintf("submission_%d_files.zip", id)
}

// Get returns a submission to its owner or the course manager.
func (s *Service) Get(ctx context.Context, actor access.Actor, id int64) (model.Submission, error) {
	submission, err := s.load(ctx, id)
	if err != nil {
		return model.Submission{}, err
	}
	if actor.IsSelf(submission.StudentID) {
		return submission, nil
	}
	if _, err := s.managedCourse(ctx, actor, submission.CourseID); err != nil {
		return model.Submission{}, err
	}
	return submission, nil
}

// ListByCourse returns every submission in a course the actor manages.
func (s *Service) ListByCourse(ctx context.Context, actor access.Actor, courseID int64) ([]model.Submission, error) {
	if s == nil || s.store == nil {
		return nil, ErrStoreNotConfigured
	}
	course, err := s.managedCourse(ctx, actor, courseID)
	if err != nil {
		return nil, err
	}
	return s.store.ListSubmissions(ctx, storage.SubmissionFilter{CourseID: course.ID})
}

// ListByStudentInCourse returns the acting student's submissions in a course.
func (s *Service) ListByStudentInCourse(ctx context.Context, actor access.Actor, courseID int64) ([]model.Submission, error) {
	if s == nil || s.store == nil {
		return nil, ErrStoreNotConfigured
	}
	if err := access.RequireStudent(actor); err != nil {
		return nil, err
	}
	course, err := s.course(ctx, courseID)
	if err != nil {
		return nil, err
	}
	return s.store.ListSubmissions(ctx, storage.SubmissionFilter{CourseID: course.ID, StudentID: actor.UserID})
}

// ListByStudent returns a student's submissions to themself or an admin.
func (s *Service) ListByStudent(ctx context.Context, actor access.Actor, studentID int64) ([]model.Submission, error) {
	if s == nil || s.store == nil {
		return nil, ErrStoreNotConfigured
	}
	if err := access.RequireSelfOrAdmin(actor, studentID); err != nil {
		return nil, err
	}
	return s.store.ListSubmissions(ctx, storage.SubmissionFilter{StudentID: studentID})
}

// Grade scores a submission and tells the student.
func (s *Service) Grade(ctx context.Context, actor access.Actor, id int64, grade int64, feedback string) (model.Submission, error) {
	submission, err := s.load(ctx, id)
	if err != nil {
		return model.Submission{}, err
	}
	course, err := s.managedCourse(ctx, actor, submission.CourseID)
	if err != nil {
		return model.Submission{}, err
	}
	if grade < 0 || grade > int64(submission.MaxGrade) {
		return model.Submission{}, apperrors.WithMetadata(apperrors.CodeInvalidArgument,
			ErrGradeOutOfRange.Message,
			map[string]string{"MaxGrade": fmt.Sprint(submission.MaxGrade)})
	}
	submission.Grade = grade
	submission.Graded = true
	submission.Feedback = strings.TrimSpace(feedback)
	submission.UpdatedAt = s.clock().UTC()
	if err := s.store.UpdateSubmission(ctx, submission); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return model.Submission{}, ErrSubmissionNotFound
		}
		return model.Submission{}, fmt.Errorf("grade submission: %w", err)
	}
	notification.Dispatch(ctx, s.logger, s.notifier, notification.KeySubmissionGraded, map[string]any{
		"Course":   course.Title,
		"Grade":    submission.Grade,
		"MaxGrade": submission.MaxGrade,
	}, submission.StudentID)
	return submission, nil
}

// Delete removes a submission and its stored files. Admin only.
func (s *Service) Delete(ctx context.Context, actor access.Actor, id int64) error {
	if !actor.IsAdmin() {
		return ErrAdminRequired
	}
	submission, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteSubmission(ctx, submission.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrSubmissionNotFound
		}
		return err
	}
	if s.files != nil {
		s.cleanup(submission.Files)
	}
	return nil
}

func (s *Service) cleanup(names []string) {
	for _, name := range names {
		if err := s.files.Remove(FilesCategory, name); err != nil {
			s.logger.Warn("remove submission file", zap.String("file", name), zap.Error(err))
		}
	}
}

func (s *Service) load(ctx context.Context, id int64) (model.Submission, error) {
	if s == nil || s.store == nil {
		return model.Submission{}, ErrStoreNotConfigured
	}
	submission, err := s.store.GetSubmission(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return model.Submission{}, ErrSubmissionNotFound
		}
		return model.Submission{}, err
	}
	return submission, nil
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
