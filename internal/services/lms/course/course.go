// Package course manages courses and their downloadable materials.
package course

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
	"github.com/louisbranch/lms/internal/services/lms/submission"
)

// MaterialsCategory is the upload directory for course materials.
const MaterialsCategory = "courses-materials"

// DefaultMaxFileBytes caps one uploaded material.
const DefaultMaxFileBytes = 10 << 20

var (
	// ErrCourseNotFound indicates the course does not exist.
	ErrCourseNotFound = apperrors.New(apperrors.CodeNotFound, "course not found")
	// ErrTitleRequired indicates a missing course title.
	ErrTitleRequired = apperrors.New(apperrors.CodeInvalidArgument, "title is required")
	// ErrInstructorRequired indicates an admin create without an instructor.
	ErrInstructorRequired = apperrors.New(apperrors.CodeInvalidArgument, "instructorId must name an instructor")
	// ErrCreateNotAllowed indicates a role that cannot create courses.
	ErrCreateNotAllowed = apperrors.New(apperrors.CodeRoleNotAllowed, "only instructors can create courses")
	// ErrNoFiles indicates an upload without files.
	ErrNoFiles = apperrors.New(apperrors.CodeInvalidArgument, "at least one file is required")
	// ErrNotEnrolled indicates a student outside the course.
	ErrNotEnrolled = apperrors.New(apperrors.CodeNotEnrolled, "student is not enrolled in this course")
	// ErrStoreNotConfigured indicates the service is missing persistence wiring.
	ErrStoreNotConfigured = errors.New("course store is not configured")
)

// Store is the persistence boundary for courses.
type Store interface {
	GetUser(ctx context.Context, id int64) (model.User, error)
	CreateCourse(ctx context.Context, course *model.Course) error
	GetCourse(ctx context.Context, id int64) (model.Course, error)
	ListCourses(ctx context.Context) ([]model.Course, error)
	UpdateCourse(ctx context.Context, course model.Course) error
	DeleteCourse(ctx context.Context, id int64) error
	AddCourseMaterials(ctx context.Context, courseID int64, fileNames []string, at time.Time) error
	ListSubmissions(ctx context.Context, filter storage.SubmissionFilter) ([]model.Submission, error)
	IsEnrolled(ctx context.Context, studentID, courseID int64) (bool, error)
}

// Files stores uploaded material bytes.
type Files interface {
	Save(category, name string, r io.Reader, limit int64) (string, error)
	Open(category, name string) (io.ReadCloser, error)
	Remove(category, name string) error
}

// CreateInput describes a new course.
type CreateInput struct {
	Title        string
	Duration     string
	Description  string
	InstructorID int64
}

// UpdateInput changes the set fields of a course.
type UpdateInput struct {
	Title       *string
	Duration    *string
	Description *string
}

// Options tunes the course service.
type Options struct {
	MaxFileBytes int64
	Notifier     notification.Notifier
	Logger       *zap.Logger
}

// Service implements course use-cases.
type Service struct {
	store        Store
	files        Files
	clock        func() time.Time
	maxFileBytes int64
	notifier     notification.Notifier
	logger       *zap.Logger
}

// NewService constructs the course service.
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

// Create adds a course. Instructors create their own courses; admins name
// the instructor.
func (s *Service) Create(ctx context.Context, actor access.Actor, input CreateInput) (model.Course, error) {
	if s == nil || s.store == nil {
		return model.Course{}, ErrStoreNotConfigured
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return model.Course{}, ErrTitleRequired
	}
	var instructorID int64
	switch {
	case actor.IsInstructor():
		instructorID = actor.UserID
	case actor.IsAdmin():
		if input.InstructorID <= 0 {
			return model.Course{}, ErrInstructorRequired
		}
		instructor, err := s.store.GetUser(ctx, input.InstructorID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return model.Course{}, ErrInstructorRequired
			}
			return model.Course{}, err
		}
		if instructor.Role != model.RoleInstructor {
			return model.Course{}, ErrInstructorRequired
		}
		instructorID = instructor.ID
	default:
		return model.Course{}, ErrCreateNotAllowed
	}
	now := s.clock().UTC()
	course := model.Course{
		InstructorID: instructorID,
		Title:        title,
		Duration:     strings.TrimSpace(input.Duration),
		Description:  strings.TrimSpace(input.Description),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateCourse(ctx, &course); err != nil {
		return model.Course{}, fmt.Errorf("create course: %w", err)
	}
	return s.store.GetCourse(ctx, course.ID)
}

// Get returns a course.
func (s *Service) Get(ctx context.Context, id int64) (model.Course, error) {
	if s == nil || s.store == nil {
		return model.Course{}, ErrStoreNotConfigured
	}
	course, err := s.store.GetCourse(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return model.Course{}, ErrCourseNotFound
		}
		return model.Course{}, err
	}
	return course, nil
}

// List returns every course.
func (s *Service) List(ctx context.Context) ([]model.Course, error) {
	if s == nil || s.store == nil {
		return nil, ErrStoreNotConfigured
	}
	return s.store.ListCourses(ctx)
}

// Manageable loads a course the actor manages.
func (s *Service) Manageable(ctx context.Context, actor access.Actor, id int64) (model.Course, error) {
	course, err := s.Get(ctx, id)
	if err != nil {
		return model.Course{}, err
	}
	if err := access.RequireCourseManager(actor, course); err != nil {
		return model.Course{}, err
	}
	return course, nil
}

// Update applies the set fields of input. A title change notifies the
// instructor.
func (s *Service) Update(ctx context.Context, actor access.Actor, id int64, input UpdateInput) (model.Course, error) {
	course, err := s.Manageable(ctx, actor, id)
	if err != nil {
		return model.Course{}, err
	}
	titleChanged := false
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return model.Course{}, ErrTitleRequired
		}
		titleChanged = title != course.Title
		course.Title = title
	}
	if input.Duration != nil {
		course.Duration = strings.TrimSpace(*input.Duration)
	}
	if input.Description != nil {
		course.Description = strings.TrimSpace(*input.Description)
	}
	course.UpdatedAt = s.clock().UTC()
	if err := s.store.UpdateCourse(ctx, course); err != nil {
		return model.Course{}, fmt.Errorf("update course: %w", err)
	}
	if titleChanged {
		notification.Dispatch(ctx, s.logger, s.notifier, notification.KeyCourseUpdated,
			map[string]any{"Title": course.Title}, course.InstructorID)
	}
	return course, nil
}

// Delete removes a course, its dependent rows and its material files.
func (s *Service) Delete(ctx context.Context, actor access.Actor, id int64) error {
	course, err := s.Manageable(ctx, actor, id)
	if err != nil {
		return err
	}
	// Submission rows cascade with the course, so collect their files first.
	submissions, err := s.store.ListSubmissions(ctx, storage.SubmissionFilter{CourseID: course.ID})
	if err != nil {
		return err
	}
	if err := s.store.DeleteCourse(ctx, course.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrCourseNotFound
		}
		return err
	}
	if s.files == nil {
		return nil
	}
	s.removeFiles(course.ID, MaterialsCategory, course.Materials)
	for _, sub := range submissions {
		s.removeFiles(course.ID, submission.FilesCategory, sub.Files)
	}
	return nil
}

func (s *Service) removeFiles(courseID int64, category string, names []string) {
	for _, name := range names {
		if err := s.files.Remove(category, name); err != nil {
			s.logger.Warn("remove course file", zap.Int64("course_id", courseID), zap.String("category", category), zap.String("file", name), zap.Error(err))
		}
	}
}

// AddMaterials stores uploads as course materials named
// {courseId}_{title-dashed}_{basename}.
func (s *Service) AddMaterials(ctx context.Context, actor access.Actor, id int64, uploads []filestore.Upload) (model.Course, error) {
	course, err := s.Manageable(ctx, actor, id)
	if err != nil {
		return model.Course{}, err
	}
	if len(uploads) == 0 {
		return model.Course{}, ErrNoFiles
	}
	if s.files == nil {
		return model.Course{}, errors.New("course file store is not configured")
	}
	prefix := fmt.Sprintf("%d_%s_", course.ID, filestore.Dashed(course.Title))
	stored := make([]string, 0, len(uploads))
	for _, upload := range uploads {
		base := filestore.SanitizeName(upload.Name)
		if base == "" {
			s.cleanup(stored)
			return model.Course{}, filestore.ErrInvalidName
		}
		name, err := s.files.Save(MaterialsCategory, prefix+base, upload.Body, s.maxFileBytes)
		if err != nil {
			s.cleanup(stored)
			return model.Course{}, err
		}
		stored = append(stored, name)
	}
	if err := s.store.AddCourseMaterials(ctx, course.ID, stored, s.clock().UTC()); err != nil {
		s.cleanup(stored)
		return model.Course{}, fmt.Errorf("record course materials: %w", err)
	}
	return s.store.GetCourse(ctx, course.ID)
}

func (s *Service) cleanup(names []string) {
	for _, name := range names {
		if err := s.files.Remove(MaterialsCategory, name); err != nil {
			s.logger.Warn("remove partial upload", zap.String("file", name), zap.Error(err))
		}
	}
}

// Materials returns archive entries for the course materials. Course
// managers and enrolled students may download them.
func (s *Service) Materials(ctx context.Context, actor access.Actor, id int64) (model.Course, []archive.Entry, error) {
	course, err := s.Get(ctx, id)
	if err != nil {
		return model.Course{}, nil, err
	}
	if !actor.CanManageCourse(course) {
		if !actor.IsStudent() {
			return model.Course{}, nil, access.RequireCourseManager(actor, course)
		}
		enrolled, err := s.store.IsEnrolled(ctx, actor.UserID, course.ID)
		if err != nil {
			return model.Course{}, nil, err
		}
		if !enrolled {
			return model.Course{}, nil, ErrNotEnrolled
		}
	}
	entries := make([]archive.Entry, 0, len(course.Materials))
	for _, name := range course.Materials {
		entries = append(entries, archive.Entry{Name: name, Open: func() (io.ReadCloser, error) {
			return s.files.Open(MaterialsCategory, name)
		}})
	}
	return course, entries, nil
}
