// Command voxtype is a push-to-talk voice dictation daemon: hold a hotkey,
// speak, release, and the transcribed text is typed or pasted into whatever
// window has focus. Subcommands: daemon (default), transcribe, setup,
// config, status, stats, record.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/peteonrails/voxtype/internal/config"
)

var (
	flagConfigPath string
	flagVerbose    int
	flagQuiet      bool
	flagClipboard  bool
	flagPaste      bool
	flagModel      string
	flagHotkey     string
	flagToggle     bool
)

func main() {
	root := &cobra.Command{
		Use:   "voxtype",
		Short: "Push-to-talk voice dictation daemon",
		RunE:  runDaemon,
	}

	root.PersistentFlags().StringVar(&flagConfigPath, "config", "", "path to config.toml (default: $XDG_CONFIG_HOME/voxtype/config.toml)")
	root.PersistentFlags().CountVarP(&flagVerbose, "verbose", "v", "increase log verbosity (-v, -vv)")
	root.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress non-error output")
	root.PersistentFlags().BoolVar(&flagClipboard, "clipboard", false, "override output.mode to clipboard")
	root.PersistentFlags().BoolVar(&flagPaste, "paste", false, "override output.mode to paste")
	root.PersistentFlags().StringVar(&flagModel, "model", "", "override whisper.model")
	root.PersistentFlags().StringVar(&flagHotkey, "hotkey", "", "override hotkey.key")
	root.PersistentFlags().BoolVar(&flagToggle, "toggle", false, "override hotkey.mode to toggle")

	root.AddCommand(
		newDaemonCmd(),
		newTranscribeCmd(),
		newSetupCmd(),
		newConfigCmd(),
		newStatusCmd(),
		newStatsCmd(),
		newRecordCmd(),
		newTranscribeWorkerCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCodeFor(err))
	}
}

// loadConfig applies the global flag overrides on top of config.Load. The
// override precedence is flags beat file beat defaults.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(flagConfigPath)
	if err != nil {
		return cfg, err
	}
	if flagClipboard {
		cfg.Output.Mode = "clipboard"
	}
	if flagPaste {
		cfg.Output.Mode = "paste"
	}
	if flagModel != "" {
		cfg.Whisper.Model = flagModel
	}
	if flagHotkey != "" {
		cfg.Hotkey.Key = flagHotkey
	}
	if flagToggle {
		cfg.Hotkey.Mode = config.Toggle
	}
	return cfg, nil
}
