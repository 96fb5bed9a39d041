package lmsctl

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	platformgrpc "github.com/louisbranch/lms/internal/platform/grpc"
)

func newHealthCmd() *cobra.Command {
	var (
		addr    string
		service string
		timeout time.Duration
		verbose bool
	)
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Wait until a process reports SERVING on its gRPC health port",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conn, err := platformgrpc.DialHealth(addr)
			if err != nil {
				return err
			}
			defer conn.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			var logf func(string, ...any)
			if verbose {
				logf = func(format string, args ...any) {
					fmt.Fprintf(cmd.ErrOrStderr(), format+"\n", args...)
				}
			}
			if err := platformgrpc.WaitForHealth(ctx, conn, service, logf); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is serving\n", addr)
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "localhost:8081", "health server address")
	cmd.Flags().StringVar(&service, "service", "", "health component, e.g. lms.api or lms.worker")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "how long to wait")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log each probe")
	return cmd
}
