// Package storage defines the persistence contract shared by LMS stores.
package storage

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate indicates a write violated a uniqueness constraint.
	ErrDuplicate = errors.New("duplicate record")
)

// SubmissionFilter narrows submission listings. Zero fields match everything.
type SubmissionFilter struct {
	CourseID     int64
	StudentID    int64
	AssignmentID int64
}

// AttendanceFilter narrows attendance listings. Zero fields match everything.
type AttendanceFilter struct {
	StudentID    int64
	CourseID     int64
	InstructorID int64
}

// NotificationFilter narrows a user's inbox. A nil Read matches both states.
type NotificationFilter struct {
	UserID int64
	Read   *bool
}
