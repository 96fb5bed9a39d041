package lmsctl

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/louisbranch/lms/internal/services/lms/account"
)

func newUserCmd(rt *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}
	cmd.AddCommand(newUserCreateCmd(rt))
	return cmd
}

func newUserCreateCmd(rt *state) *cobra.Command {
	var input account.CreateInput
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an account with any role",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for name, value := range map[string]string{"email": input.Email, "password": input.Password} {
				if err := requireFlag(name, value); err != nil {
					return err
				}
			}
			store, closeStore, err := rt.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			accounts := account.NewService(store, rt.clock, account.Options{
				BcryptCost: rt.cfg.BcryptCost,
				Logger:     rt.logger.Named("account"),
			})
			user, err := accounts.Create(cmd.Context(), operator, input)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s %s (id %d)\n", user.Role, user.Email, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&input.Email, "email", "", "account email")
	cmd.Flags().StringVar(&input.Name, "name", "", "display name")
	cmd.Flags().StringVar(&input.Password, "password", "", "initial password")
	cmd.Flags().StringVar(&input.Role, "role", "student", "role: admin, instructor or student")
	cmd.Flags().StringVar(&input.Locale, "locale", "", "preferred locale")
	return cmd
}
