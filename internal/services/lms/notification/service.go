// Package notification stores localized in-app notifications and queues
// their email copies for the delivery worker.
package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/louisbranch/lms/internal/platform/errors"
	"github.com/louisbranch/lms/internal/platform/logging"
	"github.com/louisbranch/lms/internal/services/lms/access"
	"github.com/louisbranch/lms/internal/services/lms/model"
	"github.com/louisbranch/lms/internal/services/lms/storage"
)

var (
	// ErrNotFound indicates the notification does not exist for the caller.
	ErrNotFound = apperrors.New(apperrors.CodeNotFound, "notification not found")
	// ErrInvalidFlag indicates an unknown inbox filter.
	ErrInvalidFlag = apperrors.New(apperrors.CodeInvalidArgument, "flag must be one of all, read or unread")
	// ErrStoreNotConfigured indicates the service is missing persistence wiring.
	ErrStoreNotConfigured = errors.New("notification store is not configured")
)

// Flag filters an inbox listing.
type Flag string

const (
	FlagAll    Flag = "all"
	FlagRead   Flag = "read"
	FlagUnread Flag = "unread"
)

// ParseFlag normalizes an inbox filter name.
func ParseFlag(value string) (Flag, error) {
	switch Flag(strings.ToLower(strings.TrimSpace(value))) {
	case FlagAll:
		return FlagAll, nil
	case FlagRead:
		return FlagRead, nil
	case FlagUnread:
		return FlagUnread, nil
	default:
		return "", ErrInvalidFlag
	}
}

// Notifier sends one notification to a user.
type Notifier interface {
	Notify(ctx context.Context, userID int64, key string, data map[string]any) error
}

// Dispatch notifies every recipient and logs failures. Notifications never
// fail the operation that triggered them.
func Dispatch(ctx context.Context, logger *zap.Logger, notifier Notifier, key string, data map[string]any, userIDs ...int64) {
	if notifier == nil {
		return
	}
	seen := make(map[int64]bool, len(userIDs))
	for _, userID := range userIDs {
		if userID <= 0 || seen[userID] {
			continue
		}
		seen[userID] = true
		if err := notifier.Notify(ctx, userID, key, data); err != nil {
			logging.OrNop(logger).Warn("notify user",
				zap.Int64("user_id", userID),
				zap.String("key", key),
				zap.Error(err))
		}
	}
}

// Store is the persistence boundary for notifications.
type Store interface {
	GetUser(ctx context.Context, id int64) (model.User, error)
	CreateNotification(ctx context.Context, notification *model.Notification, delivery *model.Delivery) error
	GetNotification(ctx context.Context, id int64) (model.Notification, error)
	ListNotifications(ctx context.Context, filter storage.NotificationFilter) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, id int64, at time.Time) error
}

// Options tunes the notification service.
type Options struct {
	// Email queues an outbox delivery next to every in-app notification.
	Email  bool
	Logger *zap.Logger
}

// Service renders, stores and lists notifications.
type Service struct {
	store    Store
	renderer *Renderer
	clock    func() time.Time
	email    bool
	logger   *zap.Logger
}

// NewService constructs the notification service.
func NewService(store Store, renderer *Renderer, clock func() time.Time, opts Options) *Service {
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		store:    store,
		renderer: renderer,
		clock:    clock,
		email:    opts.Email,
		logger:   logging.OrNop(opts.Logger),
	}
}

// Notify renders key in the recipient's locale and stores the result.
func (s *Service) Notify(ctx context.Context, userID int64, key string, data map[string]any) error {
	if s == nil || s.store == nil {
		return ErrStoreNotConfigured
	}
	if s.renderer == nil {
		return fmt.Errorf("notification renderer is not configured")
	}
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("load recipient %d: %w", userID, err)
	}
	rendered, err := s.renderer.Render(user.Locale, key, data)
	if err != nil {
		return err
	}
	now := s.clock().UTC()
	notification := model.Notification{
		UserID:    user.ID,
		Message:   rendered.Message,
		CreatedAt: now,
	}
	var delivery *model.Delivery
	if s.email && user.Email != "" {
		delivery = &model.Delivery{
			Recipient:     user.Email,
			Subject:       rendered.Subject,
			Body:          rendered.Message,
			Status:        model.DeliveryPending,
			NextAttemptAt: now,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
	}
	if err := s.store.CreateNotification(ctx, &notification, delivery); err != nil {
		return fmt.Errorf("store notification: %w", err)
	}
	s.logger.Debug("notification stored",
		zap.Int64("notification_id", notification.ID),
		zap.Int64("user_id", user.ID),
		zap.String("key", key),
		zap.Bool("email", delivery != nil))
	return nil
}

// List returns the actor's notifications newest first.
func (s *Service) List(ctx context.Context, actor access.Actor, flag Flag) ([]model.Notification, error) {
	if s == nil || s.store == nil {
		return nil, ErrStoreNotConfigured
	}
	filter := storage.NotificationFilter{UserID: actor.UserID}
	switch flag {
	case FlagAll, "":
	case FlagRead:
		read := true
		filter.Read = &read
	case FlagUnread:
		unread := false
		filter.Read = &unread
	default:
		return nil, ErrInvalidFlag
	}
	return s.store.ListNotifications(ctx, filter)
}

// Read marks one of the actor's notifications as read and returns it.
func (s *Service) Read(ctx context.Context, actor access.Actor, id int64) (model.Notification, error) {
	if s == nil || s.store == nil {
		return model.Notification{}, ErrStoreNotConfigured
	}
	notification, err := s.store.GetNotification(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return model.Notification{}, ErrNotFound
		}
		return model.Notification{}, err
	}
	if notification.UserID != actor.UserID {
		return model.Notification{}, ErrNotFound
	}
	if err := s.store.MarkNotificationRead(ctx, id, s.clock().UTC()); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return model.Notification{}, ErrNotFound
		}
		return model.Notification{}, err
	}
	return s.store.GetNotification(ctx, id)
}
