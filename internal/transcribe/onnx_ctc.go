package transcribe

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/peteonrails/voxtype/internal/config"
	"github.com/peteonrails/voxtype/internal/state"
	"github.com/peteonrails/voxtype/internal/voxerr"
)

// ctcBlankToken is the conventional CTC blank index reserved at vocabulary
// position 0 across every engine this decoder serves.
const ctcBlankToken = 0

// CTCTranscriber runs the shared greedy CTC decode path used by SenseVoice,
// Paraformer, Dolphin, and Omnilingual: a single forward pass produces a
// [time, vocab] logits tensor, and decoding
// is just argmax-per-frame with repeat/blank collapsing. Only the model
// path and vocabulary differ between those four engines, so one type serves
// all of them, selected by engine name at construction.
type CTCTranscriber struct {
	noopPreparer

	engine string
	sess   *onnxSession
	vocab  []string
}

// NewCTCTranscriber loads modelPath (an .onnx graph with input "features"
// and output "logits") plus its sibling tokens.txt vocabulary file.
func NewCTCTranscriber(engine string, cfg config.WhisperConfig, modelPath string) (*CTCTranscriber, error) {
	if err := ensureONNXRuntime(""); err != nil {
		return nil, fmt.Errorf("%w: %v", voxerr.ErrInferenceFailed, err)
	}

	sess, err := newONNXSession(modelPath, []string{"features"}, []string{"logits"})
	if err != nil {
		return nil, err
	}

	vocab, err := loadVocab(filepath.Join(filepath.Dir(modelPath), "tokens.txt"))
	if err != nil {
		return nil, fmt.Errorf("%w: load vocabulary for %s: %v", voxerr.ErrModelNotFound, engine, err)
	}

	return &CTCTranscriber{engine: engine, sess: sess, vocab: vocab}, nil
}

func loadVocab(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var vocab []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		vocab = append(vocab, fields[0])
	}
	return vocab, scanner.Err()
}

// Transcribe computes log-mel features, runs the CTC graph, and greedily
// decodes the resulting logits into text.
func (c *CTCTranscriber) Transcribe(samples state.AudioBuffer) (string, error) {
	if len(samples) == 0 {
		return "", fmt.Errorf("%w: empty audio buffer", voxerr.ErrEmptyRecording)
	}

	features := logMelFeatures([]float32(samples), 16000)
	if len(features) == 0 {
		return "", fmt.Errorf("%w: recording too short to extract features", voxerr.ErrEmptyRecording)
	}
	numFrames := len(features)
	numMel := len(features[0])

	inputTensor, err := ort.NewTensor(ort.NewShape(1, int64(numFrames), int64(numMel)), flattenFeatures(features))
	if err != nil {
		return "", fmt.Errorf("%w: build input tensor: %v", voxerr.ErrInferenceFailed, err)
	}
	defer inputTensor.Destroy()

	// Output time dimension for a CTC encoder is typically a subsampled
	// version of the input; a conservative equal-length allocation is
	// resized by onnxruntime_go to whatever the graph actually produces.
	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(numFrames), int64(len(c.vocab))))
	if err != nil {
		return "", fmt.Errorf("%w: build output tensor: %v", voxerr.ErrInferenceFailed, err)
	}
	defer outputTensor.Destroy()

	if err := c.sess.run([]ort.Value{inputTensor}, []ort.Value{outputTensor}); err != nil {
		return "", err
	}

	return trimResult(c.greedyDecode(outputTensor.GetData(), numFrames, len(c.vocab))), nil
}

// greedyDecode collapses repeated tokens and drops blanks, the standard CTC
// decode rule, shared verbatim across all four engines this type serves.
func (c *CTCTranscriber) greedyDecode(logits []float32, numFrames, vocabSize int) string {
	var sb strings.Builder
	prev := -1
	for t := 0; t < numFrames; t++ {
		frame := logits[t*vocabSize : (t+1)*vocabSize]
		best := 0
		bestScore := frame[0]
		for v := 1; v < vocabSize; v++ {
			if frame[v] > bestScore {
				best, bestScore = v, frame[v]
			}
		}
		if best != ctcBlankToken && best != prev {
			if best < len(c.vocab) {
				sb.WriteString(c.vocab[best])
			}
		}
		prev = best
	}
	return sb.String()
}
