package main

import (
	"github.com/spf13/cobra"

	"github.com/mathieu-neron/pumpwatch/internal/config"
)

func newRootCommand() *cobra.Command {
	var cfg *config.Config

	rootCmd := &cobra.Command{
		Use:           "streamctl",
		Short:         "Query currently-live streams from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load()
			if err != nil {
				return err
			}
			cfg = loaded
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.AddCommand(newListCommand(func() *config.Config { return cfg }))
	return rootCmd
}
