package analytics_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/louisbranch/lms/internal/platform/archive"
	apperrors "github.com/louisbranch/lms/internal/platform/errors"
	"github.com/louisbranch/lms/internal/platform/logging"
	"github.com/louisbranch/lms/internal/services/lms/access"
	"github.com/louisbranch/lms/internal/services/lms/analytics"
	"github.com/louisbranch/lms/internal/services/lms/analytics/report"
	"github.com/louisbranch/lms/internal/services/lms/lmstest"
	"github.com/louisbranch/lms/internal/services/lms/model"
	"github.com/louisbranch/lms/internal/services/lms/storage/sqlstore"
)

type fixture struct {
	svc       *analytics.Service
	store     *sqlstore.Store
	course    model.Course
	owner     access.Actor
	ana       model.User
	bruno     model.User
	questions []model.Question
	lessons   []model.Lesson
}

// newFixture builds a course with two students, two quizzes, two
// assignments and two lessons. Ana takes part in everything; Bruno only
// attends one lesson.
func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	store := lmstest.OpenStore(t)
	instructor := lmstest.CreateUser(t, store, "i@example.com", model.RoleInstructor)
	ana := lmstest.CreateUser(t, store, "ana@example.com", model.RoleStudent)
	bruno := lmstest.CreateUser(t, store, "bruno@example.com", model.RoleStudent)
	course := lmstest.CreateCourse(t, store, instructor.ID, "Statistics")
	anaEnrollment := lmstest.Enroll(t, store, ana.ID, course.ID)
	lmstest.Enroll(t, store, bruno.ID, course.ID)
	anaEnrollment.Completed = true
	require.NoError(t, store.UpdateEnrollment(ctx, anaEnrollment))

	questions := make([]model.Question, 4)
	for i := range questions {
		questions[i] = model.Question{CourseID: course.ID, Content: "q", Answer: "a", Type: model.QuestionMCQ, CreatedAt: lmstest.Now}
		require.NoError(t, store.CreateQuestion(ctx, &questions[i]))
	}
	first := model.Quiz{CourseID: course.ID, Questions: questions[:2], CreatedAt: lmstest.Now}
	require.NoError(t, store.CreateQuiz(ctx, &first))
	second := model.Quiz{CourseID: course.ID, Questions: questions[2:], CreatedAt: lmstest.Now}
	require.NoError(t, store.CreateQuiz(ctx, &second))
	require.NoError(t, store.CreateQuizAttempt(ctx, &model.QuizAttempt{QuizID: first.ID, StudentID: ana.ID, Grade: 1, MaxGrade: 2, SubmittedAt: lmstest.Now}))
	require.NoError(t, store.CreateQuizAttempt(ctx, &model.QuizAttempt{QuizID: second.ID, StudentID: ana.ID, Grade: 2, MaxGrade: 2, SubmittedAt: lmstest.Now}))

	graded := model.Assignment{CourseID: course.ID, Instructions: "graded", MaxGrade: 50, CreatedAt: lmstest.Now, UpdatedAt: lmstest.Now}
	require.NoError(t, store.CreateAssignment(ctx, &graded))
	pending := model.Assignment{CourseID: course.ID, Instructions: "pending", MaxGrade: 10, CreatedAt: lmstest.Now, UpdatedAt: lmstest.Now}
	require.NoError(t, store.CreateAssignment(ctx, &pending))
	scored := model.Submission{AssignmentID: graded.ID, CourseID: course.ID, StudentID: ana.ID, CreatedAt: lmstest.Now, UpdatedAt: lmstest.Now}
	require.NoError(t, store.CreateSubmission(ctx, &scored))
	scored.Grade, scored.Graded = 40, true
	require.NoError(t, store.UpdateSubmission(ctx, scored))
	ungraded := model.Submission{AssignmentID: pending.ID, CourseID: course.ID, StudentID: ana.ID, CreatedAt: lmstest.Now, UpdatedAt: lmstest.Now}
	require.NoError(t, store.CreateSubmission(ctx, &ungraded))

	lessons := make([]model.Lesson, 2)
	for i := range lessons {
		lessons[i] = model.Lesson{CourseID: course.ID, Title: "l", OTP: "1", CreatedAt: lmstest.Now, UpdatedAt: lmstest.Now}
		require.NoError(t, store.CreateLesson(ctx, &lessons[i]))
	}
	require.NoError(t, store.CreateAttendance(ctx, &model.Attendance{StudentID: ana.ID, LessonID: lessons[0].ID, CreatedAt: lmstest.Now}))
	require.NoError(t, store.CreateAttendance(ctx, &model.Attendance{StudentID: ana.ID, LessonID: lessons[1].ID, CreatedAt: lmstest.Now}))
	require.NoError(t, store.CreateAttendance(ctx, &model.Attendance{StudentID: bruno.ID, LessonID: lessons[1].ID, CreatedAt: lmstest.Now}))

	return fixture{
		svc:       analytics.NewService(store, lmstest.Clock(), logging.Test(t)),
		store:     store,
		course:    course,
		owner:     lmstest.Actor(instructor),
		ana:       ana,
		bruno:     bruno,
		questions: questions,
		lessons:   lessons,
	}
}

func TestPerformance(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)

	rows, err := f.svc.Performance(ctx, f.owner, f.course.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	ana := rows[0]
	assert.Equal(t, f.ana.ID, ana.StudentID)
	assert.InDelta(t, 75.0, ana.QuizAverage, 0.001)
	assert.InDelta(t, 40.0, ana.AssignmentAverage, 0.001)
	assert.InDelta(t, 100.0, ana.AttendancePercentage, 0.001)
	assert.True(t, ana.CourseCompleted)

	bruno := rows[1]
	assert.Zero(t, bruno.QuizAverage)
	assert.Zero(t, bruno.AssignmentAverage)
	assert.InDelta(t, 50.0, bruno.AttendancePercentage, 0.001)
	assert.False(t, bruno.CourseCompleted)

	stranger := lmstest.CreateUser(t, f.store, "x@example.com", model.RoleInstructor)
	_, err = f.svc.Performance(ctx, lmstest.Actor(stranger), f.course.ID)
	require.True(t, apperrors.HasCode(err, apperrors.CodePermissionDenied))
	_, err = f.svc.Performance(ctx, f.owner, 999)
	require.ErrorIs(t, err, analytics.ErrCourseNotFound)
}

func TestPerformanceUsesAttemptMaxGrade(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.store.DeleteQuestion(ctx, f.questions[2].ID))

	rows, err := f.svc.Performance(ctx, f.owner, f.course.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.InDelta(t, 75.0, rows[0].QuizAverage, 0.001, "2/2 on the second quiz stays 100%")

	data, err := f.svc.Workbook(ctx, f.owner, f.course.ID)
	require.NoError(t, err)
	book, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { _ = book.Close() })
	quizzes, err := book.GetRows(report.SheetQuizzes)
	require.NoError(t, err)
	require.Len(t, quizzes, 1+2*2)
	assert.Equal(t, []string{"2", "2"}, quizzes[2][3:5], "grade and max grade of the attempt")
	assert.Equal(t, "1", quizzes[4][4], "without an attempt the current question count is shown")
}

func TestPerformanceEmptyCourse(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := lmstest.OpenStore(t)
	instructor := lmstest.CreateUser(t, store, "i@example.com", model.RoleInstructor)
	student := lmstest.CreateUser(t, store, "s@example.com", model.RoleStudent)
	course := lmstest.CreateCourse(t, store, instructor.ID, "Empty")
	svc := analytics.NewService(store, lmstest.Clock(), logging.Test(t))

	entries, err := svc.Charts(ctx, lmstest.Actor(instructor), course.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)

	lmstest.Enroll(t, store, student.ID, course.ID)
	rows, err := svc.Performance(ctx, lmstest.Actor(instructor), course.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Zero(t, rows[0].QuizAverage)
	assert.Zero(t, rows[0].AssignmentAverage)
	assert.Zero(t, rows[0].AttendancePercentage)
}

func TestCharts(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)

	entries, err := f.svc.Charts(ctx, f.owner, f.course.ID)
	require.NoError(t, err)
	data, err := archive.Bytes(entries)
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	var names []string
	for _, file := range zr.File {
		names = append(names, file.Name)
	}
	assert.Equal(t, []string{"quiz_averages.png", "assignment_averages.png", "attendance_percentages.png", "course_completion.png"}, names)
}

func TestWorkbook(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)

	data, err := f.svc.Workbook(ctx, f.owner, f.course.ID)
	require.NoError(t, err)
	book, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { _ = book.Close() })

	quizzes, err := book.GetRows(report.SheetQuizzes)
	require.NoError(t, err)
	assert.Len(t, quizzes, 1+2*2)
	assignments, err := book.GetRows(report.SheetAssignments)
	require.NoError(t, err)
	assert.Len(t, assignments, 1+2*2)
	attendance, err := book.GetRows(report.SheetAttendance)
	require.NoError(t, err)
	require.Len(t, attendance, 1+2*2)
	assert.Equal(t, "Absent", attendance[3][3], "bruno skipped the first lesson")

	pdf, err := f.svc.PDF(ctx, f.owner, f.course.ID)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")))
}
