// Package cmd provides the conference service command line.
package cmd

import (
	"context"
	"fmt"
	"os"

	"conference-webapp/config"

	"github.com/spf13/cobra"
)

var cfgFile string

type configKey struct{}

func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "conference-webapp",
		Short: "Conference organization service",
		Long: `conference-webapp serves the conference API: conferences, sessions,
seat registration, wishlists and announcements.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "hash-password" {
				return nil
			}
			cfg, err := config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(cmd.Context(), configKey{}, cfg))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml)")
	rootCmd.PersistentFlags().String("addr", "", "HTTP listen address")
	rootCmd.PersistentFlags().String("store", "", "store driver (mongo|memory)")
	rootCmd.PersistentFlags().String("mongo-uri", "", "MongoDB connection string")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug|info|warn|error)")

	_ = rootCmd.RegisterFlagCompletionFunc("store", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{config.DriverMongo, config.DriverMemory}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newAddUserCommand())
	rootCmd.AddCommand(newHashPasswordCommand())

	return rootCmd
}

func configFrom(cmd *cobra.Command) (config.Config, error) {
	cfg, ok := cmd.Context().Value(configKey{}).(config.Config)
	if !ok {
		return config.Config{}, fmt.Errorf("configuration not loaded")
	}
	return cfg, nil
}

func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
