package cmd

import (
	"fmt"
	"os"

	"conference-webapp/catalog"
	"conference-webapp/config"
	"conference-webapp/database"

	"github.com/spf13/cobra"
)

func newAddUserCommand() *cobra.Command {
	var email, nickname, password string
	cmd := &cobra.Command{
		Use:   "adduser <login>",
		Short: "Create a login account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFrom(cmd)
			if err != nil {
				return err
			}
			if cfg.Store.Driver == config.DriverMemory {
				return fmt.Errorf("adduser needs a persistent store; use seed_users with the memory driver")
			}
			logger := config.NewLogger(cfg.Log, os.Stderr)
			store, err := database.Open(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer store.Close(cmd.Context())

			hash, err := catalog.HashPassword(password)
			if err != nil {
				return err
			}
			user, err := catalog.NewUsers(store, logger).Create(cmd.Context(), args[0], hash, email, nickname)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s)\n", user.Login, user.UserID)
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&nickname, "nickname", "", "display nickname")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newHashPasswordCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print the bcrypt hash for seed_users",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := catalog.HashPassword(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}
