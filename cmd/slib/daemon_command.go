package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"slib/internal/daemonrun"
	"slib/internal/logging"
)

func newDaemonRunCommand(ctx *commandContext) *cobra.Command {
	var scan bool
	var foreground bool
	var logLevel string
	cmd := &cobra.Command{
		Use:          "daemon",
		Short:        "Run the slib daemon (internal)",
		Hidden:       true,
		Annotations:  map[string]string{"skipConfigLoad": "true"},
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !logging.ValidLevel(logLevel) {
				return fmt.Errorf("--log-level: unsupported value %q", logLevel)
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return daemonrun.Run(cmd.Context(), cfg, daemonrun.Options{
				LogLevel:    logLevel,
				Foreground:  foreground,
				ScanOnStart: scan,
			})
		},
	}
	cmd.Flags().BoolVar(&scan, "scan", false, "Rescan the music directory after start")
	cmd.Flags().BoolVar(&foreground, "foreground", false, "Mirror log output to stderr")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override logging.level")
	return cmd
}
