// Package lms parses API command configuration and launches the LMS runtime.
package lms

import (
	"context"
	"flag"
	"fmt"

	entrypoint "github.com/louisbranch/lms/internal/platform/cmd"
	"github.com/louisbranch/lms/internal/platform/logging"
	"github.com/louisbranch/lms/internal/platform/mail"
	"github.com/louisbranch/lms/internal/platform/storage/sqldb"
	"github.com/louisbranch/lms/internal/services/lms/app"
	"github.com/louisbranch/lms/internal/services/lms/authn"
	"github.com/louisbranch/lms/internal/services/lms/delivery"
)

// Config holds API command configuration.
type Config struct {
	HTTPAddr      string `env:"LMS_HTTP_ADDR" envDefault:":8080"`
	HealthPort    int    `env:"LMS_HEALTH_PORT" envDefault:"8081"`
	UploadDir     string `env:"LMS_UPLOAD_DIR" envDefault:"data/uploads"`
	MaxFileBytes  int64  `env:"LMS_MAX_FILE_BYTES" envDefault:"10485760"`
	AdminEmail    string `env:"LMS_ADMIN_EMAIL"`
	AdminName     string `env:"LMS_ADMIN_NAME" envDefault:"Administrator"`
	AdminPassword string `env:"LMS_ADMIN_PASSWORD"`
	RunWorker     bool   `env:"LMS_RUN_WORKER" envDefault:"true"`
	EmailOutbox   bool   `env:"LMS_MAIL_ENABLED" envDefault:"true"`
	SecureCookie  bool   `env:"LMS_SECURE_COOKIE"`

	DB      sqldb.Config
	Auth    authn.Config
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
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "The HTTP API listen address")
	fs.IntVar(&cfg.HealthPort, "health-port", cfg.HealthPort, "The gRPC health server port")
	fs.StringVar(&cfg.DB.Driver, "db-driver", cfg.DB.Driver, "Database driver: sqlite, mysql or postgres")
	fs.StringVar(&cfg.DB.DSN, "db-dsn", cfg.DB.DSN, "Database DSN or sqlite path")
	fs.StringVar(&cfg.UploadDir, "upload-dir", cfg.UploadDir, "Directory for uploaded files")
	fs.StringVar(&cfg.Logging.Level, "log-level", cfg.Logging.Level, "Log level")
	fs.BoolVar(&cfg.RunWorker, "run-worker", cfg.RunWorker, "Run the email delivery worker in-process")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the API runtime.
func Run(ctx context.Context, cfg Config) error {
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	options := entrypoint.RunOptions{Logger: logger}
	return entrypoint.RunWithTelemetryAndOptions(ctx, entrypoint.ServiceLMS, options, func(ctx context.Context) error {
		return app.Run(ctx, app.RuntimeConfig{
			HTTPAddr:   cfg.HTTPAddr,
			HealthAddr: fmt.Sprintf(":%d", cfg.HealthPort),
			DB:         cfg.DB,
			UploadDir:  cfg.UploadDir,
			Auth:       cfg.Auth,
			Admin: app.AdminConfig{
				Email:    cfg.AdminEmail,
				Name:     cfg.AdminName,
				Password: cfg.AdminPassword,
			},
			RunWorker:    cfg.RunWorker,
			EmailOutbox:  cfg.EmailOutbox,
			Mail:         cfg.Mail,
			Worker:       cfg.Worker,
			SecureCookie: cfg.SecureCookie,
			MaxFileBytes: cfg.MaxFileBytes,
			Logger:       logger,
		})
	})
}
