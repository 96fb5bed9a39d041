// Package app wires the LMS stores, domain services and transports into
// runnable API and worker processes.
package app

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/louisbranch/lms/internal/platform/filestore"
	"github.com/louisbranch/lms/internal/platform/logging"
	httpapi "github.com/louisbranch/lms/internal/services/lms/api/http"
	"github.com/louisbranch/lms/internal/services/lms/account"
	"github.com/louisbranch/lms/internal/services/lms/analytics"
	"github.com/louisbranch/lms/internal/services/lms/assignment"
	"github.com/louisbranch/lms/internal/services/lms/attendance"
	"github.com/louisbranch/lms/internal/services/lms/authn"
	"github.com/louisbranch/lms/internal/services/lms/course"
	"github.com/louisbranch/lms/internal/services/lms/enrollment"
	"github.com/louisbranch/lms/internal/services/lms/lesson"
	"github.com/louisbranch/lms/internal/services/lms/notification"
	"github.com/louisbranch/lms/internal/services/lms/question"
	"github.com/louisbranch/lms/internal/services/lms/quiz"
	"github.com/louisbranch/lms/internal/services/lms/storage/sqlstore"
	"github.com/louisbranch/lms/internal/services/lms/submission"
)

// ServiceConfig tunes the domain services built by NewServices.
type ServiceConfig struct {
	Auth authn.Config
	// EmailOutbox queues an email delivery with every notification.
	EmailOutbox  bool
	MaxFileBytes int64
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
	Clock      func() time.Time
	Logger     *zap.Logger
}

// NewServices builds every domain service over one store and file store.
func NewServices(store *sqlstore.Store, files *filestore.Store, cfg ServiceConfig) (httpapi.Services, error) {
	if store == nil {
		return httpapi.Services{}, errors.New("store is required")
	}
	if files == nil {
		return httpapi.Services{}, errors.New("file store is required")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := logging.OrNop(cfg.Logger)

	tokens, err := authn.NewIssuer(cfg.Auth, clock)
	if err != nil {
		return httpapi.Services{}, fmt.Errorf("configure tokens: %w", err)
	}
	renderer, err := notification.NewRenderer()
	if err != nil {
		return httpapi.Services{}, fmt.Errorf("load messages: %w", err)
	}
	notifications := notification.NewService(store, renderer, clock, notification.Options{
		Email:  cfg.EmailOutbox,
		Logger: logger.Named("notification"),
	})

	return httpapi.Services{
		Tokens: tokens,
		Accounts: account.NewService(store, clock, account.Options{
			BcryptCost: cfg.BcryptCost,
			Notifier:   notifications,
			Logger:     logger.Named("account"),
		}),
		Courses: course.NewService(store, files, clock, course.Options{
			MaxFileBytes: cfg.MaxFileBytes,
			Notifier:     notifications,
			Logger:       logger.Named("course"),
		}),
		Lessons:     lesson.NewService(store, clock, notifications, logger.Named("lesson")),
		Enrollments: enrollment.NewService(store, clock, notifications, logger.Named("enrollment")),
		Questions:   question.NewService(store, clock, notifications, logger.Named("question")),
		Quizzes:     quiz.NewService(store, clock, quiz.Options{Logger: logger.Named("quiz")}),
		Assignments: assignment.NewService(store, clock, notifications, logger.Named("assignment")),
		Submissions: submission.NewService(store, files, clock, submission.Options{
			MaxFileBytes: cfg.MaxFileBytes,
			Notifier:     notifications,
			Logger:       logger.Named("submission"),
		}),
		Attendance:    attendance.NewService(store, clock, logger.Named("attendance")),
		Notifications: notifications,
		Analytics:     analytics.NewService(store, clock, logger.Named("analytics")),
	}, nil
}
