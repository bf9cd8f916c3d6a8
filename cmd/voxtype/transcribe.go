package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/peteonrails/voxtype/internal/audio"
	"github.com/peteonrails/voxtype/internal/text"
	"github.com/peteonrails/voxtype/internal/transcribe"
)

func newTranscribeCmd() *cobra.Command {
	var skipPostProcess bool

	cmd := &cobra.Command{
		Use:   "transcribe <file.wav>",
		Short: "Transcribe a single WAV file and print the result to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			samples, err := audio.LoadWAV(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}

			executable, err := os.Executable()
			if err != nil {
				return fmt.Errorf("resolve own executable path: %w", err)
			}

			transcriber, err := transcribe.NewFromConfig(cfg.Whisper, executable)
			if err != nil {
				return err
			}

			result, err := transcriber.Transcribe(samples)
			if err != nil {
				return err
			}

			if !skipPostProcess {
				proc := text.New(cfg.Text, cfg.Output.PostProcess)
				result = proc.Process(result)
			}

			fmt.Println(result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipPostProcess, "raw", false, "skip text post-processing (spoken punctuation, replacements, pipe)")
	return cmd
}
