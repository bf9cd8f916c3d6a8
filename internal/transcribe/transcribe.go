// Package transcribe implements the transcription engine layer: a uniform
// Transcriber interface, several backends (in-process Whisper FFI, external
// Whisper CLI, remote OpenAI-compatible HTTP, several ONNX-based engines,
// and a GPU-isolating subprocess wrapper), and the model manager that
// multiplexes between them by name.
package transcribe

import (
	"strings"

	"github.com/peteonrails/voxtype/internal/state"
)

// Transcriber turns 16kHz mono float samples into text. Prepare is an
// optional hook invoked when recording starts, letting subprocess-isolated
// or slow-to-load engines begin warming up concurrently with the user
// speaking.
type Transcriber interface {
	Transcribe(samples state.AudioBuffer) (string, error)
	Prepare()
}

// noopPreparer gives backends that have nothing to warm up a free Prepare.
type noopPreparer struct{}

func (noopPreparer) Prepare() {}

// trimResult normalizes every backend's output the same way: UTF-8 text,
// trimmed of leading/trailing whitespace.
func trimResult(text string) string {
	return strings.TrimSpace(text)
}
