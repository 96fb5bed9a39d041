package lmsctl

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/louisbranch/lms/internal/platform/storage/sqldb"
	"github.com/louisbranch/lms/internal/services/lms/storage/sqlstore"
)

func newMigrateCmd(rt *state) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			db, err := sqldb.Open(ctx, rt.cfg.DB)
			if err != nil {
				return err
			}
			defer func() {
				if err := db.Close(); err != nil {
					rt.logger.Warn("close database", zap.Error(err))
				}
			}()
			if err := sqlstore.New(db).Migrate(ctx); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrations applied (%s)\n", sqldb.DialectName(db))
			return nil
		},
	}
}
