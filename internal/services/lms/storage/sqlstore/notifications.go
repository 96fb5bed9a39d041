package sqlstore

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"github.com/louisbranch/lms/internal/services/lms/model"
	"github.com/louisbranch/lms/internal/services/lms/storage"
)

type notificationRow struct {
	bun.BaseModel `bun:"table:notifications,alias:n"`

	ID        int64  `bun:"id,pk,autoincrement"`
	UserID    int64  `bun:"user_id"`
	Message   string `bun:"message"`
	IsRead    bool   `bun:"is_read"`
	CreatedAt int64  `bun:"created_at"`
	ReadAt    *int64 `bun:"read_at"`
}

func (r notificationRow) toModel() model.Notification {
	return model.Notification{
		ID:        r.ID,
		UserID:    r.UserID,
		Message:   r.Message,
		Read:      r.IsRead,
		CreatedAt: fromMillis(r.CreatedAt),
		ReadAt:    fromNullMillis(r.ReadAt),
	}
}

type deliveryRow struct {
	bun.BaseModel `bun:"table:notification_deliveries,alias:d"`

	ID             int64  `bun:"id,pk,autoincrement"`
	NotificationID int64  `bun:"notification_id"`
	Recipient      string `bun:"recipient"`
	Subject        string `bun:"subject"`
	Body           string `bun:"body"`
	Status         string `bun:"status"`
	Attempts       int    `bun:"attempts"`
	NextAttemptAt  int64  `bun:"next_attempt_at"`
	LastError      string `bun:"last_error"`
	CreatedAt      int64  `bun:"created_at"`
	UpdatedAt      int64  `bun:"updated_at"`
	DeliveredAt    *int64 `bun:"delivered_at"`
	LeaseUntil     *int64 `bun:"lease_until"`
	LeasedBy       string `bun:"leased_by"`
}

func (r deliveryRow) toModel() model.Delivery {
	return model.Delivery{
		ID:             r.ID,
		NotificationID: r.NotificationID,
		Recipient:      r.Recipient,
		Subject:        r.Subject,
		Body:           r.Body,
		Status:         model.DeliveryStatus(r.Status),
		Attempts:       r.Attempts,
		NextAttemptAt:  fromMillis(r.NextAttemptAt),
		LastError:      r.LastError,
		CreatedAt:      fromMillis(r.CreatedAt),
		UpdatedAt:      fromMillis(r.UpdatedAt),
		DeliveredAt:    fromNullMillis(r.DeliveredAt),
		LeaseUntil:     fromNullMillis(r.LeaseUntil),
		LeasedBy:       r.LeasedBy,
	}
}

// CreateNotification inserts an in-app notification and, when delivery is
// set, its pending email in the same transaction.
func (s *Store) CreateNotification(ctx context.Context, notification *model.Notification, delivery *model.Delivery) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		row := notificationRow{
			UserID:    notification.UserID,
			Message:   notification.Message,
			IsRead:    notification.Read,
			CreatedAt: toMillis(notification.CreatedAt),
			ReadAt:    toNullMillis(notification.ReadAt),
		}
		if _, err := tx.NewInsert().Model(&row).
			Column("user_id", "message", "is_read", "created_at", "read_at").
			Returning("id").Exec(ctx); err != nil {
			return mapError(err)
		}
		notification.ID = row.ID
		if delivery == nil {
			return nil
		}
		status := delivery.Status
		if status == "" {
			status = model.DeliveryPending
		}
		drow := deliveryRow{
			NotificationID: row.ID,
			Recipient:      delivery.Recipient,
			Subject:        delivery.Subject,
			Body:           delivery.Body,
			Status:         string(status),
			Attempts:       delivery.Attempts,
			NextAttemptAt:  toMillis(delivery.NextAttemptAt),
			LastError:      delivery.LastError,
			CreatedAt:      toMillis(delivery.CreatedAt),
			UpdatedAt:      toMillis(delivery.UpdatedAt),
		}
		if _, err := tx.NewInsert().Model(&drow).
			Column("notification_id", "recipient", "subject", "body", "status", "attempts",
				"next_attempt_at", "last_error", "created_at", "updated_at").
			Returning("id").Exec(ctx); err != nil {
			return mapError(err)
		}
		delivery.ID = drow.ID
		delivery.NotificationID = row.ID
		delivery.Status = status
		return nil
	})
}

// GetNotification loads a notification by id.
func (s *Store) GetNotification(ctx context.Context, id int64) (model.Notification, error) {
	if err := s.ready(ctx); err != nil {
		return model.Notification{}, err
	}
	var row notificationRow
	if err := s.db.NewSelect().Model(&row).Where("n.id = ?", id).Limit(1).Scan(ctx); err != nil {
		return model.Notification{}, mapError(err)
	}
	return row.toModel(), nil
}

// ListNotifications returns a user's notifications newest first.
func (s *Store) ListNotifications(ctx context.Context, filter storage.NotificationFilter) ([]model.Notification, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	var rows []notificationRow
	query := s.db.NewSelect().Model(&rows).Where("n.user_id = ?", filter.UserID)
	if filter.Read != nil {
		query = query.Where("n.is_read = ?", *filter.Read)
	}
	if err := query.Order("n.created_at DESC", "n.id DESC").Scan(ctx); err != nil {
		return nil, mapError(err)
	}
	notifications := make([]model.Notification, 0, len(rows))
	for _, row := range rows {
		notifications = append(notifications, row.toModel())
	}
	return notifications, nil
}

// MarkNotificationRead flags a notification as read. Marking an already
// read notification keeps its first read time.
func (s *Store) MarkNotificationRead(ctx context.Context, id int64, at time.Time) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	res, err := s.db.NewUpdate().Model((*notificationRow)(nil)).
		Set("is_read = ?", true).
		Set("read_at = ?", toMillis(at)).
		Where("id = ?", id).
		Where("is_read = ?", false).
		Exec(ctx)
	if err != nil {
		return mapError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}
	exists, err := s.db.NewSelect().Model((*notificationRow)(nil)).Where("n.id = ?", id).Exists(ctx)
	if err != nil {
		return mapError(err)
	}
	if !exists {
		return storage.ErrNotFound
	}
	return nil
}

// ListDueDeliveries returns pending deliveries whose next attempt is due and
// that no worker holds a live lease on, oldest first.
func (s *Store) ListDueDeliveries(ctx context.Context, now time.Time, limit int) ([]model.Delivery, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	var rows []deliveryRow
	if err := s.db.NewSelect().Model(&rows).
		Where("d.status = ?", string(model.DeliveryPending)).
		Where("d.next_attempt_at <= ?", toMillis(now)).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("d.lease_until IS NULL").WhereOr("d.lease_until < ?", toMillis(now))
		}).
		Order("d.next_attempt_at ASC", "d.id ASC").
		Limit(limit).
		Scan(ctx); err != nil {
		return nil, mapError(err)
	}
	deliveries := make([]model.Delivery, 0, len(rows))
	for _, row := range rows {
		deliveries = append(deliveries, row.toModel())
	}
	return deliveries, nil
}

// ClaimDelivery leases a pending delivery to owner until until. It reports
// false when the row is no longer pending or another owner holds a live
// lease, in which case the caller must not send it.
func (s *Store) ClaimDelivery(ctx context.Context, id int64, owner string, now, until time.Time) (bool, error) {
	if err := s.ready(ctx); err != nil {
		return false, err
	}
	res, err := s.db.NewUpdate().Model((*deliveryRow)(nil)).
		Set("lease_until = ?", toMillis(until)).
		Set("leased_by = ?", owner).
		Where("id = ?", id).
		Where("status = ?", string(model.DeliveryPending)).
		WhereGroup(" AND ", func(q *bun.UpdateQuery) *bun.UpdateQuery {
			return q.Where("lease_until IS NULL").WhereOr("lease_until < ?", toMillis(now))
		}).
		Exec(ctx)
	if err != nil {
		return false, mapError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// GetDelivery loads a delivery by id.
func (s *Store) GetDelivery(ctx context.Context, id int64) (model.Delivery, error) {
	if err := s.ready(ctx); err != nil {
		return model.Delivery{}, err
	}
	var row deliveryRow
	if err := s.db.NewSelect().Model(&row).Where("d.id = ?", id).Limit(1).Scan(ctx); err != nil {
		return model.Delivery{}, mapError(err)
	}
	return row.toModel(), nil
}

// MarkDeliveryDelivered records a successful send.
func (s *Store) MarkDeliveryDelivered(ctx context.Context, id int64, attempts int, at time.Time) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	_, err := s.db.NewUpdate().Model((*deliveryRow)(nil)).
		Set("status = ?", string(model.DeliveryDelivered)).
		Set("attempts = ?", attempts).
		Set("last_error = ?", "").
		Set("delivered_at = ?", toMillis(at)).
		Set("updated_at = ?", toMillis(at)).
		Set("lease_until = NULL").
		Set("leased_by = ?", "").
		Where("id = ?", id).
		Exec(ctx)
	return mapError(err)
}

// MarkDeliveryRetry records a failed send and schedules the next attempt.
func (s *Store) MarkDeliveryRetry(ctx context.Context, id int64, attempts int, next time.Time, lastErr string, at time.Time) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	_, err := s.db.NewUpdate().Model((*deliveryRow)(nil)).
		Set("attempts = ?", attempts).
		Set("next_attempt_at = ?", toMillis(next)).
		Set("last_error = ?", lastErr).
		Set("updated_at = ?", toMillis(at)).
		Set("lease_until = NULL").
		Set("leased_by = ?", "").
		Where("id = ?", id).
		Exec(ctx)
	return mapError(err)
}

// MarkDeliveryFailed gives up on a delivery.
func (s *Store) MarkDeliveryFailed(ctx context.Context, id int64, attempts int, lastErr string, at time.Time) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	_, err := s.db.NewUpdate().Model((*deliveryRow)(nil)).
		Set("status = ?", string(model.DeliveryFailed)).
		Set("attempts = ?", attempts).
		Set("last_error = ?", lastErr).
		Set("updated_at = ?", toMillis(at)).
		Set("lease_until = NULL").
		Set("leased_by = ?", "").
		Where("id = ?", id).
		Exec(ctx)
	return mapError(err)
}
