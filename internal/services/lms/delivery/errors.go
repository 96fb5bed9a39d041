package delivery

import (
	"errors"

	"github.com/louisbranch/lms/internal/platform/mail"
)

// permanentError is a send failure that no retry can fix, such as a
// recipient address the mailer rejects. The outbox row goes straight to
// FAILED.
type permanentError struct {
	cause error
}

func (e permanentError) Error() string { return "permanent: " + e.cause.Error() }

func (e permanentError) Unwrap() error { return e.cause }

// Permanent marks err as non-retryable. Nil stays nil.
func Permanent(err error) error {
	if err == nil || IsPermanent(err) {
		return err
	}
	return permanentError{cause: err}
}

// IsPermanent reports whether err, or anything it wraps, was marked
// non-retryable.
func IsPermanent(err error) bool {
	var target permanentError
	return errors.As(err, &target)
}

// classify marks sender errors that describe the message itself as permanent.
// Everything else is treated as a transient transport failure.
func classify(err error) error {
	if errors.Is(err, mail.ErrInvalidMessage) {
		return Permanent(err)
	}
	return err
}
