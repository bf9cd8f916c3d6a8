package transcribe

import (
	"fmt"

	"github.com/peteonrails/voxtype/internal/config"
	"github.com/peteonrails/voxtype/internal/voxerr"
)

// NewManager builds a ModelManager wired to the in-process backend named by
// cfg.Engine, letting ModelManager handle the mode dispatch
// (local/cli/remote/gpu_isolation) and LRU caching on top.
// executable is voxtype's own binary path, needed for gpu_isolation's
// transcribe-worker respawning.
func NewManager(cfg config.WhisperConfig, executable string) *ModelManager {
	return NewModelManager(cfg, executable, func(model string) (Transcriber, error) {
		return loadEngine(cfg, model)
	})
}

// LoadEngine constructs the in-process transcriber for one model under
// cfg.Engine, bypassing cfg.Mode/cfg.GPUIsolation entirely. Exported for the
// transcribe-worker subcommand, which IS the isolated process gpu_isolation
// spawns and so must always load the engine in-process regardless of cfg.
func LoadEngine(cfg config.WhisperConfig, model string) (Transcriber, error) {
	return loadEngine(cfg, model)
}

// loadEngine constructs the in-process transcriber for one model under
// cfg.Engine. ModelManager reaches it only for local, non-GPU-isolated
// models (it handles cli/remote/gpu_isolation itself); LoadEngine and
// NewFromConfig also call it.
func loadEngine(cfg config.WhisperConfig, model string) (Transcriber, error) {
	modelPath, err := config.ModelPath(cfg.Engine, model)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve model path: %v", voxerr.ErrModelNotFound, err)
	}

	switch cfg.Engine {
	case "", "whisper":
		return NewWhisperTranscriber(cfg, modelPath)
	case "sensevoice", "paraformer", "dolphin", "omnilingual":
		return NewCTCTranscriber(cfg.Engine, cfg, modelPath)
	case "moonshine":
		return NewMoonshineTranscriber(cfg, modelPath)
	case "fireredasr":
		return NewFireRedASRTranscriber(cfg, modelPath)
	case "parakeet", "nemotron", "tdt":
		return NewParakeetTranscriber(cfg, modelPath)
	default:
		return nil, fmt.Errorf("%w: unknown engine %q", voxerr.ErrConfig, cfg.Engine)
	}
}

// NewFromConfig is a convenience entrypoint for single-shot callers (e.g.
// `voxtype transcribe <file>`) that don't need the model manager's caching,
// eviction, or isolation machinery: it resolves cfg.Mode directly to one
// backend for cfg.Model.
func NewFromConfig(cfg config.WhisperConfig, executable string) (Transcriber, error) {
	switch cfg.Mode {
	case config.ModeRemote:
		return NewRemoteTranscriber(cfg), nil
	case config.ModeCli:
		modelPath, err := config.ModelPath(cfg.Engine, cfg.Model)
		if err != nil {
			return nil, fmt.Errorf("%w: resolve cli model path: %v", voxerr.ErrModelNotFound, err)
		}
		return NewCLITranscriber(cfg, modelPath), nil
	default:
		if cfg.GPUIsolation {
			return NewSubprocessTranscriber(executable, cfg.Engine, cfg.Model), nil
		}
		return loadEngine(cfg, cfg.Model)
	}
}
