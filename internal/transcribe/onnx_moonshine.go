package transcribe

import (
	"fmt"
	"path/filepath"
	"strings"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/peteonrails/voxtype/internal/config"
	"github.com/peteonrails/voxtype/internal/state"
	"github.com/peteonrails/voxtype/internal/voxerr"
)

// moonshineMaxTokens bounds the autoregressive decode loop so a model that
// never emits EOS can't hang a transcription request.
const moonshineMaxTokens = 256

// moonshineEOSToken is Moonshine's end-of-sequence token id.
const moonshineEOSToken = 2

// MoonshineTranscriber runs Moonshine: a two-part encoder/decoder graph
// where the decoder runs autoregressively,
// feeding each predicted token back in until it emits end-of-sequence or
// moonshineMaxTokens is reached.
type MoonshineTranscriber struct {
	noopPreparer

	encoder *onnxSession
	decoder *onnxSession
	vocab   []string
}

// NewMoonshineTranscriber loads encoder.onnx and decoder.onnx from the
// directory containing modelPath, plus a sibling tokens.txt vocabulary.
func NewMoonshineTranscriber(cfg config.WhisperConfig, modelPath string) (*MoonshineTranscriber, error) {
	if err := ensureONNXRuntime(""); err != nil {
		return nil, fmt.Errorf("%w: %v", voxerr.ErrInferenceFailed, err)
	}

	dir := filepath.Dir(modelPath)
	encoder, err := newONNXSession(filepath.Join(dir, "encoder.onnx"), []string{"features"}, []string{"encoder_states"})
	if err != nil {
		return nil, err
	}
	decoder, err := newONNXSession(filepath.Join(dir, "decoder.onnx"), []string{"encoder_states", "tokens"}, []string{"logits"})
	if err != nil {
		return nil, err
	}

	vocab, err := loadVocab(filepath.Join(dir, "tokens.txt"))
	if err != nil {
		return nil, fmt.Errorf("%w: load vocabulary for moonshine: %v", voxerr.ErrModelNotFound, err)
	}

	return &MoonshineTranscriber{encoder: encoder, decoder: decoder, vocab: vocab}, nil
}

func (m *MoonshineTranscriber) Transcribe(samples state.AudioBuffer) (string, error) {
	if len(samples) == 0 {
		return "", fmt.Errorf("%w: empty audio buffer", voxerr.ErrEmptyRecording)
	}

	features := logMelFeatures([]float32(samples), 16000)
	if len(features) == 0 {
		return "", fmt.Errorf("%w: recording too short to extract features", voxerr.ErrEmptyRecording)
	}
	numFrames, numMel := len(features), len(features[0])

	encIn, err := ort.NewTensor(ort.NewShape(1, int64(numFrames), int64(numMel)), flattenFeatures(features))
	if err != nil {
		return "", fmt.Errorf("%w: build encoder input: %v", voxerr.ErrInferenceFailed, err)
	}
	defer encIn.Destroy()

	const hiddenSize = 288
	encOut, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(numFrames), hiddenSize))
	if err != nil {
		return "", fmt.Errorf("%w: build encoder output: %v", voxerr.ErrInferenceFailed, err)
	}
	defer encOut.Destroy()

	if err := m.encoder.run([]ort.Value{encIn}, []ort.Value{encOut}); err != nil {
		return "", err
	}

	tokens := []int64{1} // start-of-sequence
	var sb strings.Builder

	for step := 0; step < moonshineMaxTokens; step++ {
		tokIn, err := ort.NewTensor(ort.NewShape(1, int64(len(tokens))), append([]int64(nil), tokens...))
		if err != nil {
			return "", fmt.Errorf("%w: build decoder tokens: %v", voxerr.ErrInferenceFailed, err)
		}

		logitsOut, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(len(m.vocab))))
		if err != nil {
			tokIn.Destroy()
			return "", fmt.Errorf("%w: build decoder output: %v", voxerr.ErrInferenceFailed, err)
		}

		runErr := m.decoder.run([]ort.Value{encOut, tokIn}, []ort.Value{logitsOut})
		tokIn.Destroy()
		if runErr != nil {
			logitsOut.Destroy()
			return "", runErr
		}

		logits := logitsOut.GetData()
		logitsOut.Destroy()

		next := argmax(logits)
		if next == moonshineEOSToken {
			break
		}
		if next < len(m.vocab) {
			sb.WriteString(m.vocab[next])
		}
		tokens = append(tokens, int64(next))
	}

	return trimResult(sb.String()), nil
}

func argmax(values []float32) int {
	best, bestScore := 0, values[0]
	for i := 1; i < len(values); i++ {
		if values[i] > bestScore {
			best, bestScore = i, values[i]
		}
	}
	return best
}
