// Package model defines the LMS entities shared by storage, domain services
// and the HTTP API.
package model

import (
	"strings"
	"time"
)

// Role is the coarse permission level of a user.
type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleInstructor Role = "INSTRUCTOR"
	RoleStudent    Role = "STUDENT"
)

// ParseRole normalizes a role name. It reports false for unknown roles.
func ParseRole(value string) (Role, bool) {
	switch Role(strings.ToUpper(strings.TrimSpace(value))) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleInstructor:
		return RoleInstructor, true
	case RoleStudent:
		return RoleStudent, true
	default:
		return "", false
	}
}

// QuestionType is the answer format of a bank question.
type QuestionType string

const (
	QuestionMCQ         QuestionType = "MCQ"
	QuestionTrueFalse   QuestionType = "TRUE_FALSE"
	QuestionShortAnswer QuestionType = "SHORT_ANSWER"
)

// ParseQuestionType normalizes a question type name.
func ParseQuestionType(value string) (QuestionType, bool) {
	switch QuestionType(strings.ToUpper(strings.TrimSpace(value))) {
	case QuestionMCQ:
		return QuestionMCQ, true
	case QuestionTrueFalse:
		return QuestionTrueFalse, true
	case QuestionShortAnswer:
		return QuestionShortAnswer, true
	default:
		return "", false
	}
}

// User is an account of any role.
type User struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	Role         Role
	Locale       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Course is taught by one instructor and owns lessons, questions, quizzes and
// assignments.
type Course struct {
	ID             int64
	InstructorID   int64
	InstructorName string
	Title          string
	Duration       string
	Description    string
	Materials      []string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Lesson is one class session; students prove attendance with its OTP.
type Lesson struct {
	ID          int64
	CourseID    int64
	CourseTitle string
	Title       string
	OTP         string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Enrollment links a student to a course.
type Enrollment struct {
	ID          int64
	StudentID   int64
	StudentName string
	CourseID    int64
	CourseTitle string
	Confirmed   bool
	Completed   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Question is one entry of a course question bank.
type Question struct {
	ID          int64
	CourseID    int64
	CourseTitle string
	Content     string
	Answer      string
	Type        QuestionType
	CreatedAt   time.Time
}

// Quiz is an ordered selection of questions from a course bank.
type Quiz struct {
	ID        int64
	CourseID  int64
	Questions []Question
	CreatedAt time.Time
}

// QuizAttempt is a student's graded quiz submission.
type QuizAttempt struct {
	ID          int64
	QuizID      int64
	CourseID    int64
	StudentID   int64
	Grade       float64
	MaxGrade    int
	SubmittedAt time.Time
}

// Assignment is graded course work.
type Assignment struct {
	ID           int64
	CourseID     int64
	Instructions string
	MaxGrade     int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Submission is a student's answer to an assignment.
type Submission struct {
	ID           int64
	AssignmentID int64
	CourseID     int64
	StudentID    int64
	StudentName  string
	MaxGrade     int
	Files        []string
	Grade        int64
	Graded       bool
	Feedback     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Score returns the grade as a percentage of the assignment's max grade.
func (s Submission) Score() float64 {
	if s.MaxGrade <= 0 {
		return 0
	}
	return float64(s.Grade) / float64(s.MaxGrade) * 100
}

// Attendance records that a student attended a lesson.
type Attendance struct {
	ID          int64
	StudentID   int64
	StudentName string
	LessonID    int64
	CourseID    int64
	CourseTitle string
	CreatedAt   time.Time
}

// Notification is one in-app message for a user.
type Notification struct {
	ID        int64
	UserID    int64
	Message   string
	Read      bool
	CreatedAt time.Time
	ReadAt    *time.Time
}

// DeliveryStatus tracks one outbound email.
type DeliveryStatus string

const (
	DeliveryPending   DeliveryStatus = "pending"
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliveryFailed    DeliveryStatus = "failed"
)

// Delivery is an email outbox row attached to a notification.
type Delivery struct {
	ID             int64
	NotificationID int64
	Recipient      string
	Subject        string
	Body           string
	Status         DeliveryStatus
	Attempts       int
	NextAttemptAt  time.Time
	LastError      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeliveredAt    *time.Time
	LeaseUntil     *time.Time
	LeasedBy       string
}
