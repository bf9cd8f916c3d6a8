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

const (
	parakeetMaxSymbolsPerFrame = 10
	parakeetBlankToken         = 0
)

// ParakeetTranscriber runs the RNN-Transducer family (Parakeet, Nemotron,
// TDT): a joint network combines encoder output at each time frame with the
// prediction network's running state,
// emitting either a blank (advance to the next frame) or a token (emit it
// and re-run the joint network on the same frame, up to
// parakeetMaxSymbolsPerFrame times to bound pathological loops).
type ParakeetTranscriber struct {
	noopPreparer

	encoder *onnxSession
	joint   *onnxSession
	vocab   []string
}

func NewParakeetTranscriber(cfg config.WhisperConfig, modelPath string) (*ParakeetTranscriber, error) {
	if err := ensureONNXRuntime(""); err != nil {
		return nil, fmt.Errorf("%w: %v", voxerr.ErrInferenceFailed, err)
	}

	dir := filepath.Dir(modelPath)
	encoder, err := newONNXSession(filepath.Join(dir, "encoder.onnx"), []string{"features"}, []string{"encoder_states"})
	if err != nil {
		return nil, err
	}
	joint, err := newONNXSession(filepath.Join(dir, "joint.onnx"), []string{"encoder_frame", "prev_token"}, []string{"logits"})
	if err != nil {
		return nil, err
	}
	vocab, err := loadVocab(filepath.Join(dir, "tokens.txt"))
	if err != nil {
		return nil, fmt.Errorf("%w: load vocabulary for parakeet: %v", voxerr.ErrModelNotFound, err)
	}

	return &ParakeetTranscriber{encoder: encoder, joint: joint, vocab: vocab}, nil
}

func (p *ParakeetTranscriber) Transcribe(samples state.AudioBuffer) (string, error) {
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

	const hiddenSize = 512
	encOut, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(numFrames), hiddenSize))
	if err != nil {
		return "", fmt.Errorf("%w: build encoder output: %v", voxerr.ErrInferenceFailed, err)
	}
	defer encOut.Destroy()

	if err := p.encoder.run([]ort.Value{encIn}, []ort.Value{encOut}); err != nil {
		return "", err
	}

	encData := encOut.GetData()
	prevToken := int64(parakeetBlankToken)
	var sb strings.Builder

	for t := 0; t < numFrames; t++ {
		frame := encData[t*hiddenSize : (t+1)*hiddenSize]

		for symbolsThisFrame := 0; symbolsThisFrame < parakeetMaxSymbolsPerFrame; symbolsThisFrame++ {
			frameIn, err := ort.NewTensor(ort.NewShape(1, int64(hiddenSize)), append([]float32(nil), frame...))
			if err != nil {
				return "", fmt.Errorf("%w: build joint frame input: %v", voxerr.ErrInferenceFailed, err)
			}
			tokenIn, err := ort.NewTensor(ort.NewShape(1), []int64{prevToken})
			if err != nil {
				frameIn.Destroy()
				return "", fmt.Errorf("%w: build joint token input: %v", voxerr.ErrInferenceFailed, err)
			}
			logitsOut, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(len(p.vocab))))
			if err != nil {
				frameIn.Destroy()
				tokenIn.Destroy()
				return "", fmt.Errorf("%w: build joint output: %v", voxerr.ErrInferenceFailed, err)
			}

			runErr := p.joint.run([]ort.Value{frameIn, tokenIn}, []ort.Value{logitsOut})
			frameIn.Destroy()
			tokenIn.Destroy()
			if runErr != nil {
				logitsOut.Destroy()
				return "", runErr
			}

			logits := logitsOut.GetData()
			logitsOut.Destroy()
			next := argmax(logits)

			if next == parakeetBlankToken {
				break
			}
			if next < len(p.vocab) {
				sb.WriteString(p.vocab[next])
			}
			prevToken = int64(next)
		}
	}

	return trimResult(sb.String()), nil
}
