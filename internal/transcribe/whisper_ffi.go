package transcribe

import (
	"fmt"
	"sync"

	whisper "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"github.com/peteonrails/voxtype/internal/config"
	"github.com/peteonrails/voxtype/internal/state"
	"github.com/peteonrails/voxtype/internal/voxerr"
)

// WhisperTranscriber runs whisper.cpp in-process via its Go bindings (spec
// §4.4's default "local" mode for the "whisper" engine), grounded on the
// model-caching/mutex-guarded-context shape the pack's cgo whisper engines
// all converge on: a model handle is expensive to load and not safe for
// concurrent inference, so every call to Transcribe serializes on mu.
type WhisperTranscriber struct {
	noopPreparer

	mu       sync.Mutex
	model    whisper.Model
	language string
	translate bool
	threads  int
}

// NewWhisperTranscriber loads modelPath into memory. Heavy: callers route it
// through ModelManager's cache rather than constructing it per request.
func NewWhisperTranscriber(cfg config.WhisperConfig, modelPath string) (*WhisperTranscriber, error) {
	model, err := whisper.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("%w: load whisper model %s: %v", voxerr.ErrModelNotFound, modelPath, err)
	}
	return &WhisperTranscriber{
		model:     model,
		language:  cfg.PrimaryLanguage(),
		translate: cfg.Translate,
		threads:   cfg.Threads,
	}, nil
}

// Transcribe runs one inference pass over samples, which must already be
// 16kHz mono float32.
func (t *WhisperTranscriber) Transcribe(samples state.AudioBuffer) (string, error) {
	if len(samples) == 0 {
		return "", fmt.Errorf("%w: empty audio buffer", voxerr.ErrEmptyRecording)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	ctx, err := t.model.NewContext()
	if err != nil {
		return "", fmt.Errorf("%w: create whisper context: %v", voxerr.ErrInferenceFailed, err)
	}

	if t.language != "" && t.language != "auto" {
		if err := ctx.SetLanguage(t.language); err != nil {
			return "", fmt.Errorf("%w: set language %s: %v", voxerr.ErrInferenceFailed, t.language, err)
		}
	} else {
		_ = ctx.SetLanguage("auto")
	}
	ctx.SetTranslate(t.translate)
	if t.threads > 0 {
		ctx.SetThreads(uint(t.threads))
	}

	if err := ctx.Process([]float32(samples), nil, nil, nil); err != nil {
		return "", fmt.Errorf("%w: %v", voxerr.ErrInferenceFailed, err)
	}

	var text string
	for {
		segment, err := ctx.NextSegment()
		if err != nil {
			break
		}
		if text != "" {
			text += " "
		}
		text += segment.Text
	}

	return trimResult(text), nil
}

// Close releases the underlying model. ModelManager's eviction removes the
// cache entry without calling Close.
func (t *WhisperTranscriber) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.model.Close()
}
