package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/peteonrails/voxtype/internal/transcribe"
)

// newTranscribeWorkerCmd builds the hidden worker entrypoint that
// SubprocessTranscriber re-execs voxtype as: load one model in this
// process, signal readiness, consume exactly one audio frame from stdin,
// reply with one JSON line on stdout, then exit.
func newTranscribeWorkerCmd() *cobra.Command {
	var engine, model string

	cmd := &cobra.Command{
		Use:    "transcribe-worker",
		Short:  "Internal: isolated single-inference worker process",
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranscribeWorker(engine, model)
		},
	}

	cmd.Flags().StringVar(&engine, "engine", "whisper", "inference engine")
	cmd.Flags().StringVar(&model, "model", "", "model name")
	_ = cmd.MarkFlagRequired("model")
	return cmd
}

func runTranscribeWorker(engine, model string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.Whisper.Engine = engine
	cfg.Whisper.Model = model

	transcriber, err := transcribe.LoadEngine(cfg.Whisper, model)
	if err != nil {
		return writeWorkerFailure(err)
	}

	if _, err := fmt.Fprintln(os.Stdout, transcribe.ReadySignal); err != nil {
		return err
	}

	samples, err := transcribe.ReadAudioFrame(os.Stdin)
	if err != nil {
		return writeWorkerFailure(err)
	}

	text, err := transcriber.Transcribe(samples)
	if err != nil {
		return writeWorkerFailure(err)
	}

	return transcribe.WriteResponse(os.Stdout, transcribe.OKResponse(text))
}

// writeWorkerFailure reports an error over the wire protocol so the parent's
// ReadResponse gets a parseable line, and also returns it, so the process
// still exits nonzero through main's exit-code mapping.
func writeWorkerFailure(cause error) error {
	if err := transcribe.WriteResponse(os.Stdout, transcribe.ErrResponse(cause.Error())); err != nil {
		return err
	}
	return cause
}
