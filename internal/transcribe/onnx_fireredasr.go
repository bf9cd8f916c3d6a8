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
	fireRedASRMaxTokens = 256
	fireRedASREOSToken  = 2
)

// FireRedASRTranscriber runs FireRedASR's two-stage encoder/attention-decoder
// graph, structurally close to Moonshine's encoder/decoder split but kept as
// its own type since FireRedASR's decoder additionally cross-attends over
// the encoder states at every step rather than consuming them once.
type FireRedASRTranscriber struct {
	noopPreparer

	encoder *onnxSession
	decoder *onnxSession
	vocab   []string
}

func NewFireRedASRTranscriber(cfg config.WhisperConfig, modelPath string) (*FireRedASRTranscriber, error) {
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
		return nil, fmt.Errorf("%w: load vocabulary for fireredasr: %v", voxerr.ErrModelNotFound, err)
	}

	return &FireRedASRTranscriber{encoder: encoder, decoder: decoder, vocab: vocab}, nil
}

func (f *FireRedASRTranscriber) Transcribe(samples state.AudioBuffer) (string, error) {
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

	if err := f.encoder.run([]ort.Value{encIn}, []ort.Value{encOut}); err != nil {
		return "", err
	}

	tokens := []int64{1}
	var sb strings.Builder

	for step := 0; step < fireRedASRMaxTokens; step++ {
		tokIn, err := ort.NewTensor(ort.NewShape(1, int64(len(tokens))), append([]int64(nil), tokens...))
		if err != nil {
			return "", fmt.Errorf("%w: build decoder tokens: %v", voxerr.ErrInferenceFailed, err)
		}

		logitsOut, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(len(f.vocab))))
		if err != nil {
			tokIn.Destroy()
			return "", fmt.Errorf("%w: build decoder output: %v", voxerr.ErrInferenceFailed, err)
		}

		runErr := f.decoder.run([]ort.Value{encOut, tokIn}, []ort.Value{logitsOut})
		tokIn.Destroy()
		if runErr != nil {
			logitsOut.Destroy()
			return "", runErr
		}

		logits := logitsOut.GetData()
		logitsOut.Destroy()

		next := argmax(logits)
		if next == fireRedASREOSToken {
			break
		}
		if next < len(f.vocab) {
			sb.WriteString(f.vocab[next])
		}
		tokens = append(tokens, int64(next))
	}

	return trimResult(sb.String()), nil
}
