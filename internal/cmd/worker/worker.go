// Package worker parses worker command flags and launches the email delivery
// worker runtime.
package worker

import (
	"context"
	"flag"
	"fmt"
	"time"

	entrypoint "github.com/louisbranch/lms/internal/platform/cmd"
	"github.com/louisbranch/lms/internal/platform/logging"
	"github.com/louisbranch/lms/internal/platform/mail"
	"github.com/louisbranch/lms/internal/platform/storage/sqldb"
	"github.com/louisbranch/lms/internal/services/lms/app"
	"github.com/louisbranch/lms/internal/services/lms/delivery"
)

// Config holds worker command configuration.
type Config struct {
	HealthPort int `env:"LMS_WORKER_HEALTH_PORT" envDefault:"8082"`

	DB      sqldb.Config
	Logging logging.Config
	Mail    mail.Config `envPrefix:"LMS_MAIL_"`
	Worker  delivery.Config
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.HealthPort, "port", cfg.HealthPort, "The worker health gRPC server port")
	fs.StringVar(&cfg.DB.Driver, "db-driver", cfg.DB.Driver, "Database driver: sqlite, mysql or postgres")
	fs.StringVar(&cfg.DB.DSN, "db-dsn", cfg.DB.DSN, "Database DSN or sqlite path")
	fs.DurationVar(&cfg.Worker.PollInterval, "poll-interval", cfg.Worker.PollInterval, "Email outbox poll interval")
	fs.IntVar(&cfg.Worker.BatchSize, "batch-size", cfg.Worker.BatchSize, "Deliveries claimed per poll")
	fs.IntVar(&cfg.Worker.MaxAttempts, "max-attempts", cfg.Worker.MaxAttempts, "Maximum delivery attempts before giving up")
	fs.DurationVar(&cfg.Worker.RetryBackoff, "retry-backoff", cfg.Worker.RetryBackoff, "Base retry backoff delay")
	fs.DurationVar(&cfg.Worker.RetryMaxDelay, "retry-max-delay", cfg.Worker.RetryMaxDelay, "Maximum retry delay")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the worker runtime.
func Run(ctx context.Context, cfg Config) error {
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	options := entrypoint.RunOptions{Logger: logger}
	return entrypoint.RunWithTelemetryAndOptions(ctx, entrypoint.ServiceWorker, options, func(ctx context.Context) error {
		return app.RunWorker(ctx, app.WorkerConfig{
			HealthAddr: fmt.Sprintf(":%d", cfg.HealthPort),
			DB:         cfg.DB,
			Mail:       cfg.Mail,
			Worker:     cfg.Worker,
			Clock:      time.Now,
			Logger:     logger,
		})
	})
}
