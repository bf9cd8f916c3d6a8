package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/peteonrails/voxtype/internal/audio"
	"github.com/peteonrails/voxtype/internal/config"
	"github.com/peteonrails/voxtype/internal/output"
)

// newSetupCmd checks the host for voxtype's runtime dependencies: an input
// device, at least one working output method, and the configured model file.
// It never installs anything; it reports what's missing so the user can fix
// it before the daemon refuses to start.
func newSetupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Check that voxtype's runtime dependencies are satisfied",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			ctx := context.Background()
			ok := true

			if err := audio.Initialize(); err != nil {
				fmt.Printf("[FAIL] audio subsystem: %v\n", err)
				ok = false
			} else {
				defer audio.Terminate()
				if _, err := audio.ResolveDevice(cfg.Audio.Device); err != nil {
					fmt.Printf("[FAIL] input device %q: %v\n", cfg.Audio.Device, err)
					ok = false
				} else {
					fmt.Printf("[OK]   input device %q resolves\n", cfg.Audio.Device)
				}
			}

			chain := output.Chain(cfg.Output)
			anyOutput := false
			for _, m := range chain {
				if m.Available(ctx) {
					fmt.Printf("[OK]   output method %q available\n", m.Name())
					anyOutput = true
				} else {
					fmt.Printf("[--]   output method %q not available\n", m.Name())
				}
			}
			if !anyOutput {
				fmt.Println("[FAIL] no output method in the configured chain is available")
				ok = false
			}

			modelPath, err := config.ModelPath(cfg.Whisper.Engine, cfg.Whisper.Model)
			if err != nil {
				fmt.Printf("[FAIL] resolve model path: %v\n", err)
				ok = false
			} else if _, err := os.Stat(modelPath); err != nil {
				fmt.Printf("[FAIL] model %q not found at %s\n", cfg.Whisper.Model, modelPath)
				ok = false
			} else {
				fmt.Printf("[OK]   model %q found at %s\n", cfg.Whisper.Model, modelPath)
			}

			if !ok {
				return fmt.Errorf("setup check failed; see above")
			}
			fmt.Println("all checks passed")
			return nil
		},
	}
}
