// Package delivery drains the email outbox written alongside in-app
// notifications.
package delivery

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"go.uber.org/zap"

	"github.com/louisbranch/lms/internal/platform/id"
	"github.com/louisbranch/lms/internal/platform/logging"
	"github.com/louisbranch/lms/internal/platform/mail"
	"github.com/louisbranch/lms/internal/services/lms/model"
)

// Worker loop defaults balance delivery latency against database churn.
const (
	defaultPollInterval  = 5 * time.Second
	defaultBatchSize     = 50
	defaultMaxAttempts   = 8
	defaultRetryBackoff  = 30 * time.Second
	defaultRetryMaxDelay = 30 * time.Minute
	defaultSendAttempts  = 3
	defaultSendDelay     = 500 * time.Millisecond
	defaultLeaseTTL      = 2 * time.Minute
)

// Config controls the outbox loop. Zero fields take defaults.
type Config struct {
	PollInterval  time.Duration `env:"LMS_WORKER_POLL_INTERVAL" envDefault:"5s"`
	BatchSize     int           `env:"LMS_WORKER_BATCH_SIZE" envDefault:"50"`
	MaxAttempts   int           `env:"LMS_WORKER_MAX_ATTEMPTS" envDefault:"8"`
	RetryBackoff  time.Duration `env:"LMS_WORKER_RETRY_BACKOFF" envDefault:"30s"`
	RetryMaxDelay time.Duration `env:"LMS_WORKER_RETRY_MAX_DELAY" envDefault:"30m"`
	SendAttempts  int           `env:"LMS_WORKER_SEND_ATTEMPTS" envDefault:"3"`
	SendDelay     time.Duration `env:"LMS_WORKER_SEND_DELAY" envDefault:"500ms"`
	// LeaseTTL is how long a claimed delivery stays hidden from other
	// workers. It must outlast one send including its in-call retries.
	LeaseTTL time.Duration `env:"LMS_WORKER_LEASE_TTL" envDefault:"2m"`
	// WorkerID names the lease owner. Empty generates a random one.
	WorkerID string `env:"LMS_WORKER_ID"`
}

func (c Config) normalized() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = defaultPollInterval
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaultBatchSize
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = defaultMaxAttempts
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = defaultRetryBackoff
	}
	if c.RetryMaxDelay <= 0 {
		c.RetryMaxDelay = defaultRetryMaxDelay
	}
	if c.RetryMaxDelay < c.RetryBackoff {
		c.RetryMaxDelay = c.RetryBackoff
	}
	if c.SendAttempts <= 0 {
		c.SendAttempts = defaultSendAttempts
	}
	if c.SendDelay <= 0 {
		c.SendDelay = defaultSendDelay
	}
	if c.LeaseTTL <= 0 {
		c.LeaseTTL = defaultLeaseTTL
	}
	if strings.TrimSpace(c.WorkerID) == "" {
		c.WorkerID = newWorkerID()
	}
	return c
}

// Store is the outbox persistence boundary.
type Store interface {
	ListDueDeliveries(ctx context.Context, now time.Time, limit int) ([]model.Delivery, error)
	ClaimDelivery(ctx context.Context, id int64, owner string, now, until time.Time) (bool, error)
	MarkDeliveryDelivered(ctx context.Context, id int64, attempts int, at time.Time) error
	MarkDeliveryRetry(ctx context.Context, id int64, attempts int, next time.Time, lastErr string, at time.Time) error
	MarkDeliveryFailed(ctx context.Context, id int64, attempts int, lastErr string, at time.Time) error
}

// Worker sends due deliveries and reschedules failures.
type Worker struct {
	store  Store
	sender mail.Sender
	clock  func() time.Time
	cfg    Config
	logger *zap.Logger
}

// New constructs a worker.
func New(store Store, sender mail.Sender, clock func() time.Time, cfg Config, logger *zap.Logger) *Worker {
	if clock == nil {
		clock = time.Now
	}
	return &Worker{
		store:  store,
		sender: sender,
		clock:  clock,
		cfg:    cfg.normalized(),
		logger: logging.OrNop(logger).Named("delivery"),
	}
}

// Run processes batches every poll interval until ctx is done.
func (w *Worker) Run(ctx context.Context) error {
	if w == nil || w.store == nil || w.sender == nil {
		return fmt.Errorf("delivery worker is not configured")
	}
	w.logger.Info("delivery worker started", zap.Duration("poll_interval", w.cfg.PollInterval))
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()
	for {
		if _, err := w.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			w.logger.Error("process deliveries", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			w.logger.Info("delivery worker stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// RunOnce processes one batch of due deliveries and returns how many this
// worker claimed and handled.
func (w *Worker) RunOnce(ctx context.Context) (int, error) {
	if w == nil || w.store == nil || w.sender == nil {
		return 0, fmt.Errorf("delivery worker is not configured")
	}
	due, err := w.store.ListDueDeliveries(ctx, w.clock().UTC(), w.cfg.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("list due deliveries: %w", err)
	}
	processed := 0
	for _, delivery := range due {
		if err := ctx.Err(); err != nil {
			return processed, err
		}
		claimed, err := w.process(ctx, delivery)
		if err != nil {
			return processed, err
		}
		if claimed {
			processed++
		}
	}
	return processed, nil
}

func (w *Worker) process(ctx context.Context, delivery model.Delivery) (bool, error) {
	now := w.clock().UTC()
	claimed, err := w.store.ClaimDelivery(ctx, delivery.ID, w.cfg.WorkerID, now, now.Add(w.cfg.LeaseTTL))
	if err != nil {
		return false, fmt.Errorf("claim delivery %d: %w", delivery.ID, err)
	}
	if !claimed {
		w.logger.Debug("delivery claimed elsewhere", zap.Int64("delivery_id", delivery.ID))
		return false, nil
	}
	return true, w.deliver(ctx, delivery)
}

func (w *Worker) deliver(ctx context.Context, delivery model.Delivery) error {
	attempts := delivery.Attempts + 1
	sendErr := w.send(ctx, delivery)
	now := w.clock().UTC()
	if sendErr == nil {
		w.logger.Debug("delivery sent", zap.Int64("delivery_id", delivery.ID), zap.Int("attempts", attempts))
		return w.store.MarkDeliveryDelivered(ctx, delivery.ID, attempts, now)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	fields := []zap.Field{
		zap.Int64("delivery_id", delivery.ID),
		zap.Int("attempts", attempts),
		zap.Error(sendErr),
	}
	if IsPermanent(sendErr) || attempts >= w.cfg.MaxAttempts {
		w.logger.Warn("delivery failed", fields...)
		return w.store.MarkDeliveryFailed(ctx, delivery.ID, attempts, sendErr.Error(), now)
	}
	next := now.Add(Backoff(attempts, w.cfg.RetryBackoff, w.cfg.RetryMaxDelay))
	w.logger.Info("delivery rescheduled", append(fields, zap.Time("next_attempt_at", next))...)
	return w.store.MarkDeliveryRetry(ctx, delivery.ID, attempts, next, sendErr.Error(), now)
}

func (w *Worker) send(ctx context.Context, delivery model.Delivery) error {
	msg := mail.Message{To: delivery.Recipient, Subject: delivery.Subject, Body: delivery.Body}
	return retry.Do(func() error {
		return classify(w.sender.Send(ctx, msg))
	},
		retry.Context(ctx),
		retry.Attempts(uint(w.cfg.SendAttempts)),
		retry.Delay(w.cfg.SendDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool { return !IsPermanent(err) }),
	)
}

func newWorkerID() string {
	value, err := id.NewID()
	if err != nil {
		return fmt.Sprintf("pid-%d", os.Getpid())
	}
	return value
}

// Backoff returns base doubled for each attempt after the first, capped at
// ceiling.
func Backoff(attempt int, base, ceiling time.Duration) time.Duration {
	if attempt <= 0 {
		attempt = 1
	}
	delay := base
	for i := 1; i < attempt; i++ {
		if delay >= ceiling/2 {
			return ceiling
		}
		delay *= 2
	}
	if delay > ceiling {
		return ceiling
	}
	return delay
}
