// Package access holds the ownership rules shared by LMS domain services.
package access

import (
	apperrors "github.com/louisbranch/lms/internal/platform/errors"
	"github.com/louisbranch/lms/internal/services/lms/model"
)

// Actor is the authenticated user performing an operation.
type Actor struct {
	UserID int64
	Role   model.Role
}

// IsAdmin reports whether the actor is an administrator.
func (a Actor) IsAdmin() bool { return a.Role == model.RoleAdmin }

// IsStudent reports whether the actor is a student.
func (a Actor) IsStudent() bool { return a.Role == model.RoleStudent }

// IsInstructor reports whether the actor is an instructor.
func (a Actor) IsInstructor() bool { return a.Role == model.RoleInstructor }

// IsSelf reports whether the actor is userID.
func (a Actor) IsSelf(userID int64) bool { return a.UserID > 0 && a.UserID == userID }

// CanManageCourse reports whether the actor is the course instructor or an admin.
func (a Actor) CanManageCourse(course model.Course) bool {
	return a.IsAdmin() || (a.IsInstructor() && a.UserID == course.InstructorID)
}

// RequireCourseManager fails unless the actor can manage course.
func RequireCourseManager(actor Actor, course model.Course) error {
	if actor.CanManageCourse(course) {
		return nil
	}
	return apperrors.New(apperrors.CodePermissionDenied, "only the course instructor can perform this action")
}

// RequireStudent fails unless the actor is a student.
func RequireStudent(actor Actor) error {
	if actor.IsStudent() {
		return nil
	}
	return apperrors.New(apperrors.CodeRoleNotAllowed, "only students can perform this action")
}

// RequireSelfOrAdmin fails unless the actor is userID or an admin.
func RequireSelfOrAdmin(actor Actor, userID int64) error {
	if actor.IsAdmin() || actor.IsSelf(userID) {
		return nil
	}
	return apperrors.New(apperrors.CodePermissionDenied, "access denied")
}
