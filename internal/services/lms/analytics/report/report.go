// Package report builds downloadable course performance reports.
package report

import "time"

// Sheet names of the performance workbook.
const (
	SheetQuizzes     = "Quizzes"
	SheetAssignments = "Assignments"
	SheetAttendance  = "Attendance"
)

// QuizRow is one student's result for one quiz.
type QuizRow struct {
	StudentID   int64
	StudentName string
	QuizID      int64
	Grade       float64
	MaxGrade    int
}

// AssignmentRow is one student's grade for one assignment.
type AssignmentRow struct {
	StudentID    int64
	StudentName  string
	AssignmentID int64
	Grade        int64
	MaxGrade     int
}

// AttendanceRow is one student's presence at one lesson.
type AttendanceRow struct {
	StudentID   int64
	StudentName string
	LessonID    int64
	Present     bool
}

// PerformanceRow summarizes one student in a course.
type PerformanceRow struct {
	StudentID            int64
	StudentName          string
	QuizAverage          float64
	AssignmentAverage    float64
	AttendancePercentage float64
	CourseCompleted      bool
}

// Data is everything a course report renders.
type Data struct {
	CourseID    int64
	CourseTitle string
	GeneratedAt time.Time
	Quizzes     []QuizRow
	Assignments []AssignmentRow
	Attendance  []AttendanceRow
	Performance []PerformanceRow
}

func status(present bool) string {
	if present {
		return "Present"
	}
	return "Absent"
}
