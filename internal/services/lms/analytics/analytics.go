// Package analytics summarizes student performance in a course and renders
// it as charts and reports.
package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/louisbranch/lms/internal/platform/archive"
	apperrors "github.com/louisbranch/lms/internal/platform/errors"
	"github.com/louisbranch/lms/internal/platform/logging"
	"github.com/louisbranch/lms/internal/services/lms/access"
	"github.com/louisbranch/lms/internal/services/lms/analytics/charts"
	"github.com/louisbranch/lms/internal/services/lms/analytics/report"
	"github.com/louisbranch/lms/internal/services/lms/model"
	"github.com/louisbranch/lms/internal/services/lms/storage"
)

// Download names.
const (
	ChartsArchiveName = "charts_archive.zip"
	WorkbookName      = "performance_report.xlsx"
	PDFName           = "performance_report.pdf"
)

var (
	// ErrCourseNotFound indicates the course does not exist.
	ErrCourseNotFound = apperrors.New(apperrors.CodeNotFound, "course not found")
	// ErrStoreNotConfigured indicates the service is missing persistence wiring.
	ErrStoreNotConfigured = errors.New("analytics store is not configured")
)

// Store is the read boundary analytics needs.
type Store interface {
	GetCourse(ctx context.Context, id int64) (model.Course, error)
	ListEnrollmentsByCourse(ctx context.Context, courseID int64) ([]model.Enrollment, error)
	ListQuizzesByCourse(ctx context.Context, courseID int64) ([]model.Quiz, error)
	ListQuizAttemptsByCourse(ctx context.Context, courseID int64) ([]model.QuizAttempt, error)
	ListAssignmentsByCourse(ctx context.Context, courseID int64) ([]model.Assignment, error)
	ListSubmissions(ctx context.Context, filter storage.SubmissionFilter) ([]model.Submission, error)
	ListLessonsByCourse(ctx context.Context, courseID int64) ([]model.Lesson, error)
	ListAttendance(ctx context.Context, filter storage.AttendanceFilter) ([]model.Attendance, error)
}

// StudentPerformance summarizes one enrolled student. Averages are
// percentages.
type StudentPerformance struct {
	StudentID            int64
	StudentName          string
	QuizAverage          float64
	AssignmentAverage    float64
	AttendancePercentage float64
	CourseCompleted      bool
}

// Service implements analytics use-cases.
type Service struct {
	store  Store
	clock  func() time.Time
	logger *zap.Logger
}

// NewService constructs the analytics service.
func NewService(store Store, clock func() time.Time, logger *zap.Logger) *Service {
	if clock == nil {
		clock = time.Now
	}
	return &Service{store: store, clock: clock, logger: logging.OrNop(logger)}
}

// snapshot is every course record a report reads, loaded once.
type snapshot struct {
	course      model.Course
	enrollments []model.Enrollment
	quizzes     []model.Quiz
	attempts    map[int64]map[int64]model.QuizAttempt
	assignments []model.Assignment
	submissions map[int64]map[int64]model.Submission
	lessons     []model.Lesson
	attended    map[int64]map[int64]bool
}

// Performance returns one row per enrolled student, in enrollment order.
func (s *Service) Performance(ctx context.Context, actor access.Actor, courseID int64) ([]StudentPerformance, error) {
	snap, err := s.load(ctx, actor, courseID)
	if err != nil {
		return nil, err
	}
	return snap.performance(), nil
}

// Charts returns the PNG bar charts for a course. A course without students
// yields no entries.
func (s *Service) Charts(ctx context.Context, actor access.Actor, courseID int64) ([]archive.Entry, error) {
	rows, err := s.Performance(ctx, actor, courseID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []archive.Entry{}, nil
	}
	labels := make([]string, len(rows))
	quiz := make([]float64, len(rows))
	work := make([]float64, len(rows))
	attendance := make([]float64, len(rows))
	completion := make([]float64, len(rows))
	for i, row := range rows {
		labels[i] = row.StudentName
		quiz[i] = row.QuizAverage
		work[i] = row.AssignmentAverage
		attendance[i] = row.AttendancePercentage
		if row.CourseCompleted {
			completion[i] = 1
		}
	}
	specs := []struct {
		name string
		bar  charts.Bar
	}{
		{"quiz_averages.png", charts.Bar{Title: "Quiz Averages (%)", YLabel: "Average Percentage", Labels: labels, Values: quiz}},
		{"assignment_averages.png", charts.Bar{Title: "Assignment Averages (%)", YLabel: "Average Percentage", Labels: labels, Values: work}},
		{"attendance_percentages.png", charts.Bar{Title: "Attendance Percentages (%)", YLabel: "Attendance Percentage", Labels: labels, Values: attendance}},
		{"course_completion.png", charts.Bar{Title: "Course Completion Status", YLabel: "Completion Status", Max: 1, Labels: labels, Values: completion}},
	}
	entries := make([]archive.Entry, 0, len(specs))
	for _, spec := range specs {
		data, err := charts.Render(spec.bar)
		if err != nil {
			return nil, err
		}
		entries = append(entries, archive.FromBytes(spec.name, data))
	}
	s.logger.Debug("charts rendered", zap.Int64("course_id", courseID), zap.Int("students", len(rows)))
	return entries, nil
}

// Workbook renders the course spreadsheet.
func (s *Service) Workbook(ctx context.Context, actor access.Actor, courseID int64) ([]byte, error) {
	snap, err := s.load(ctx, actor, courseID)
	if err != nil {
		return nil, err
	}
	return report.Workbook(snap.reportData(s.clock().UTC()))
}

// PDF renders the course performance table.
func (s *Service) PDF(ctx context.Context, actor access.Actor, courseID int64) ([]byte, error) {
	snap, err := s.load(ctx, actor, courseID)
	if err != nil {
		return nil, err
	}
	return report.PDF(snap.reportData(s.clock().UTC()))
}

func (s *Service) load(ctx context.Context, actor access.Actor, courseID int64) (*snapshot, error) {
	if s == nil || s.store == nil {
		return nil, ErrStoreNotConfigured
	}
	course, err := s.store.GetCourse(ctx, courseID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	if err := access.RequireCourseManager(actor, course); err != nil {
		return nil, err
	}
	snap := &snapshot{
		course:      course,
		attempts:    make(map[int64]map[int64]model.QuizAttempt),
		submissions: make(map[int64]map[int64]model.Submission),
		attended:    make(map[int64]map[int64]bool),
	}
	if snap.enrollments, err = s.store.ListEnrollmentsByCourse(ctx, course.ID); err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	if snap.quizzes, err = s.store.ListQuizzesByCourse(ctx, course.ID); err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	if snap.assignments, err = s.store.ListAssignmentsByCourse(ctx, course.ID); err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	if snap.lessons, err = s.store.ListLessonsByCourse(ctx, course.ID); err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	attempts, err := s.store.ListQuizAttemptsByCourse(ctx, course.ID)
	if err != nil {
		return nil, fmt.Errorf("list quiz attempts: %w", err)
	}
	for _, attempt := range attempts {
		if snap.attempts[attempt.StudentID] == nil {
			snap.attempts[attempt.StudentID] = make(map[int64]model.QuizAttempt)
		}
		snap.attempts[attempt.StudentID][attempt.QuizID] = attempt
	}
	submissions, err := s.store.ListSubmissions(ctx, storage.SubmissionFilter{CourseID: course.ID})
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	for _, submission := range submissions {
		if snap.submissions[submission.StudentID] == nil {
			snap.submissions[submission.StudentID] = make(map[int64]model.Submission)
		}
		snap.submissions[submission.StudentID][submission.AssignmentID] = submission
	}
	records, err := s.store.ListAttendance(ctx, storage.AttendanceFilter{CourseID: course.ID})
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	for _, record := range records {
		if snap.attended[record.StudentID] == nil {
			snap.attended[record.StudentID] = make(map[int64]bool)
		}
		snap.attended[record.StudentID][record.LessonID] = true
	}
	return snap, nil
}

func (s *snapshot) performance() []StudentPerformance {
	rows := make([]StudentPerformance, 0, len(s.enrollments))
	for _, enrollment := range s.enrollments {
		rows = append(rows, StudentPerformance{
			StudentID:            enrollment.StudentID,
			StudentName:          enrollment.StudentName,
			QuizAverage:          s.quizAverage(enrollment.StudentID),
			AssignmentAverage:    s.assignmentAverage(enrollment.StudentID),
			AttendancePercentage: s.attendancePercentage(enrollment.StudentID),
			CourseCompleted:      enrollment.Completed,
		})
	}
	return rows
}

func (s *snapshot) quizAverage(studentID int64) float64 {
	if len(s.quizzes) == 0 {
		return 0
	}
	total := 0.0
	for _, quiz := range s.quizzes {
		attempt, ok := s.attempts[studentID][quiz.ID]
		if !ok || len(quiz.Questions) == 0 {
			continue
		}
		total += percent(attempt.Grade, float64(attempt.MaxGrade))
	}
	return total / float64(len(s.quizzes))
}

func (s *snapshot) assignmentAverage(studentID int64) float64 {
	if len(s.assignments) == 0 {
		return 0
	}
	total := 0.0
	for _, assignment := range s.assignments {
		submission, ok := s.submissions[studentID][assignment.ID]
		if !ok || !submission.Graded {
			continue
		}
		total += percent(float64(submission.Grade), float64(assignment.MaxGrade))
	}
	return total / float64(len(s.assignments))
}

func (s *snapshot) attendancePercentage(studentID int64) float64 {
	if len(s.lessons) == 0 {
		return 0
	}
	attended := 0
	for _, lesson := range s.lessons {
		if s.attended[studentID][lesson.ID] {
			attended++
		}
	}
	return percent(float64(attended), float64(len(s.lessons)))
}

func (s *snapshot) reportData(now time.Time) report.Data {
	data := report.Data{CourseID: s.course.ID, CourseTitle: s.course.Title, GeneratedAt: now}
	for _, enrollment := range s.enrollments {
		student, name := enrollment.StudentID, enrollment.StudentName
		for _, quiz := range s.quizzes {
			// Attempts keep the max grade they were scored against.
			attempt, ok := s.attempts[student][quiz.ID]
			maxGrade := attempt.MaxGrade
			if !ok {
				maxGrade = len(quiz.Questions)
			}
			data.Quizzes = append(data.Quizzes, report.QuizRow{
				StudentID: student, StudentName: name, QuizID: quiz.ID,
				Grade: attempt.Grade, MaxGrade: maxGrade,
			})
		}
		for _, assignment := range s.assignments {
			submission := s.submissions[student][assignment.ID]
			data.Assignments = append(data.Assignments, report.AssignmentRow{
				StudentID: student, StudentName: name, AssignmentID: assignment.ID,
				Grade: submission.Grade, MaxGrade: assignment.MaxGrade,
			})
		}
		for _, lesson := range s.lessons {
			data.Attendance = append(data.Attendance, report.AttendanceRow{
				StudentID: student, StudentName: name, LessonID: lesson.ID,
				Present: s.attended[student][lesson.ID],
			})
		}
	}
	for _, row := range s.performance() {
		data.Performance = append(data.Performance, report.PerformanceRow(row))
	}
	return data
}

func percent(value, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return value / total * 100
}
