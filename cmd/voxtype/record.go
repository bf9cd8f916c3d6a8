package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/peteonrails/voxtype/internal/app"
	"github.com/peteonrails/voxtype/internal/config"
)

// newRecordCmd builds `voxtype record start|stop|toggle|cancel`, the
// external control surface: each invocation appends one command line to
// the running daemon's control file rather than talking to it directly.
func newRecordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "record <start|stop|toggle|cancel>",
		Short:     "Send a recording control command to the running daemon",
		Args:      cobra.ExactValidArgs(1),
		ValidArgs: []string{"start", "stop", "toggle", "cancel"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := app.GetControlPath(config.GetRuntimeDir())
			f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
			if err != nil {
				return fmt.Errorf("open control file %s: %w", path, err)
			}
			defer f.Close()

			if _, err := fmt.Fprintln(f, args[0]); err != nil {
				return fmt.Errorf("write control command: %w", err)
			}
			return nil
		},
	}
	return cmd
}
