package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"lmbridge/internal/daemonrun"
)

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	var logLevel string
	var development bool

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run the lmbridge daemon in the foreground",
		Long: "Run the lmbridge daemon in the foreground.\n\n" +
			"The daemon takes the state lock, reconciles provider definitions on startup,\n" +
			"and serves the host API until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return daemonrun.Run(cmd.Context(), cfg, daemonrun.Options{
				LogLevel:      logLevel,
				Development:   development,
				PluginVersion: version,
			})
		},
	}

	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override logging.level for this run")
	cmd.Flags().BoolVar(&development, "development", false, "Include caller information in every log line")
	return cmd
}
