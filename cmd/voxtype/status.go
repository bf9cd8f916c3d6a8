package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/peteonrails/voxtype/internal/config"
	"github.com/peteonrails/voxtype/internal/state"
	"github.com/peteonrails/voxtype/internal/terminal"
)

// newStatusCmd reads the state file the daemon maintains (its absence means
// the daemon isn't running) and optionally follows it, redrawing in place.
func newStatusCmd() *cobra.Command {
	var follow bool
	var pollInterval time.Duration

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the daemon's current state (idle/recording/transcribing/stopped)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			path := config.ResolveStateFilePath(cfg.StateFile)
			if path == "" {
				fmt.Println("state file disabled (state_file = disabled)")
				return nil
			}

			if !follow {
				word, err := state.Read(path)
				if err != nil {
					return fmt.Errorf("read state file: %w", err)
				}
				fmt.Println(word)
				return nil
			}

			ctrl := terminal.NewControl()
			ctrl.HideCursor()
			defer ctrl.ShowCursor()

			first := true
			last := ""
			for {
				word, err := state.Read(path)
				if err != nil {
					return fmt.Errorf("read state file: %w", err)
				}
				var since time.Time
				if info, err := os.Stat(path); err == nil {
					since = info.ModTime()
				}
				// Redraw every tick while recording so the elapsed-time
				// suffix ticks up; otherwise only on a state change.
				if word != last || first || word == "recording" {
					ctrl.UpdateInPlace([]string{terminal.StatusLine(word, since)}, first)
					first = false
					last = word
				}
				time.Sleep(pollInterval)
			}
		},
	}

	cmd.Flags().BoolVar(&follow, "follow", false, "keep polling and redraw on change")
	cmd.Flags().DurationVar(&pollInterval, "interval", 200*time.Millisecond, "poll interval for --follow")
	return cmd
}
