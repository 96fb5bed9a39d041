// Package lmsctl implements the LMS operator CLI: schema migrations, account
// creation, YAML seeding and health probes.
package lmsctl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	entrypoint "github.com/louisbranch/lms/internal/platform/cmd"
	"github.com/louisbranch/lms/internal/platform/logging"
	"github.com/louisbranch/lms/internal/platform/storage/sqldb"
	"github.com/louisbranch/lms/internal/services/lms/access"
	"github.com/louisbranch/lms/internal/services/lms/model"
	"github.com/louisbranch/lms/internal/services/lms/storage/sqlstore"
)

// Config holds CLI configuration loaded from the environment.
type Config struct {
	BcryptCost int `env:"LMS_BCRYPT_COST"`

	DB      sqldb.Config
	Logging logging.Config
}

// Deps are runtime collaborators that do not come from the environment.
type Deps struct {
	// Clock defaults to time.Now.
	Clock  func() time.Time
	Logger *zap.Logger
}

// state is shared by every subcommand.
type state struct {
	cfg    Config
	clock  func() time.Time
	logger *zap.Logger
}

// operator is the actor CLI commands act as.
var operator = access.Actor{Role: model.RoleAdmin}

// NewCommand builds the root command. Database flags are persistent so every
// subcommand can target another database.
func NewCommand(cfg Config, deps Deps) *cobra.Command {
	rt := &state{cfg: cfg, clock: deps.Clock, logger: logging.OrNop(deps.Logger)}
	if rt.clock == nil {
		rt.clock = time.Now
	}

	cmd := &cobra.Command{
		Use:           "lmsctl",
		Short:         "LMS operator commands",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&rt.cfg.DB.Driver, "db-driver", cfg.DB.Driver, "database driver: sqlite, mysql or postgres")
	cmd.PersistentFlags().StringVar(&rt.cfg.DB.DSN, "db-dsn", cfg.DB.DSN, "database DSN or sqlite path")

	cmd.AddCommand(newMigrateCmd(rt))
	cmd.AddCommand(newUserCmd(rt))
	cmd.AddCommand(newSeedCmd(rt))
	cmd.AddCommand(newHealthCmd())
	return cmd
}

// Execute parses the environment and runs the CLI with args.
func Execute(ctx context.Context, args []string) error {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return err
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	options := entrypoint.RunOptions{Logger: logger}
	return entrypoint.RunWithTelemetryAndOptions(ctx, entrypoint.ServiceCtl, options, func(ctx context.Context) error {
		cmd := NewCommand(cfg, Deps{Logger: logger})
		cmd.SetArgs(args)
		return cmd.ExecuteContext(ctx)
	})
}

// openStore opens and migrates the configured database for one command.
func (rt *state) openStore(ctx context.Context) (*sqlstore.Store, func(), error) {
	store, err := sqlstore.Open(ctx, rt.cfg.DB)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	closeFn := func() {
		if err := store.Close(); err != nil {
			rt.logger.Warn("close store", zap.Error(err))
		}
	}
	return store, closeFn, nil
}

func requireFlag(name, value string) error {
	if value == "" {
		return errors.New("--" + name + " is required")
	}
	return nil
}
