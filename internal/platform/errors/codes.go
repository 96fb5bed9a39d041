// Package errors provides coded domain errors shared by LMS services.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Request errors
	CodeInvalidArgument    Code = "INVALID_ARGUMENT"
	CodeFailedPrecondition Code = "FAILED_PRECONDITION"
	CodePayloadTooLarge    Code = "PAYLOAD_TOO_LARGE"

	// Access errors
	CodeUnauthenticated    Code = "UNAUTHENTICATED"
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	CodePermissionDenied   Code = "PERMISSION_DENIED"
	CodeRoleNotAllowed     Code = "ROLE_NOT_ALLOWED"

	// Storage errors
	CodeNotFound      Code = "NOT_FOUND"
	CodeAlreadyExists Code = "ALREADY_EXISTS"

	// User errors
	CodeEmailInUse Code = "EMAIL_IN_USE"

	// Enrollment errors
	CodeAlreadyEnrolled Code = "ALREADY_ENROLLED"
	CodeNotEnrolled     Code = "NOT_ENROLLED"

	// Quiz errors
	CodeNotEnoughQuestions Code = "NOT_ENOUGH_QUESTIONS"
	CodeAlreadySubmitted   Code = "ALREADY_SUBMITTED"

	// Attendance errors
	CodeInvalidOTP         Code = "INVALID_OTP"
	CodeAttendanceRecorded Code = "ATTENDANCE_RECORDED"
)

// HTTPStatus maps domain codes to HTTP status codes.
func (c Code) HTTPStatus() int {
	switch c {
	// BadRequest - validation failures, bad input, disallowed state
	case CodeInvalidArgument,
		CodeFailedPrecondition,
		CodeRoleNotAllowed,
		CodeNotEnoughQuestions,
		CodeInvalidOTP:
		return http.StatusBadRequest

	// Unauthorized - missing or bad credentials
	case CodeUnauthenticated,
		CodeInvalidCredentials:
		return http.StatusUnauthorized

	// Forbidden - caller lacks access
	case CodePermissionDenied,
		CodeNotEnrolled:
		return http.StatusForbidden

	// NotFound - resource doesn't exist
	case CodeNotFound:
		return http.StatusNotFound

	// Conflict - unique resource constraint
	case CodeAlreadyExists,
		CodeEmailInUse,
		CodeAlreadyEnrolled,
		CodeAlreadySubmitted,
		CodeAttendanceRecorded:
		return http.StatusConflict

	case CodePayloadTooLarge:
		return http.StatusRequestEntityTooLarge

	default:
		return http.StatusInternalServerError
	}
}
