package transcribe

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
)

// ReadySignal is the line a worker process writes to stdout once its model
// has finished loading.
const ReadySignal = "READY"

// MaxWorkerSamples caps the sample count a worker will accept from its
// parent, guarding against a corrupt or hostile length prefix.
const MaxWorkerSamples = 16000 * 60 * 10 // 10 minutes at 16kHz

// WorkerResponse is the single JSON line a worker writes after transcribing
// (or failing to).
type WorkerResponse struct {
	OK    bool    `json:"ok"`
	Text  *string `json:"text,omitempty"`
	Error *string `json:"error,omitempty"`
}

// WriteAudioFrame writes the wire-format audio payload a worker expects:
// a little-endian u32 sample count followed by that many little-endian
// f32 samples.
func WriteAudioFrame(w io.Writer, samples []float32) error {
	var countBuf [4]byte
	binary.LittleEndian.PutUint32(countBuf[:], uint32(len(samples)))
	if _, err := w.Write(countBuf[:]); err != nil {
		return fmt.Errorf("write sample count: %w", err)
	}

	buf := make([]byte, len(samples)*4)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(s))
	}
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("write samples: %w", err)
	}
	return nil
}

// ReadAudioFrame reads the wire-format payload WriteAudioFrame produces,
// rejecting a sample count above MaxWorkerSamples.
func ReadAudioFrame(r io.Reader) ([]float32, error) {
	var countBuf [4]byte
	if _, err := io.ReadFull(r, countBuf[:]); err != nil {
		return nil, fmt.Errorf("read sample count: %w", err)
	}
	count := binary.LittleEndian.Uint32(countBuf[:])
	if count > MaxWorkerSamples {
		return nil, fmt.Errorf("sample count %d exceeds maximum %d", count, MaxWorkerSamples)
	}

	buf := make([]byte, int(count)*4)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("read samples: %w", err)
	}

	samples := make([]float32, count)
	for i := range samples {
		samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return samples, nil
}

// WriteResponse writes resp as a single JSON line, flushing immediately.
func WriteResponse(w io.Writer, resp WorkerResponse) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("marshal worker response: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// ReadResponse reads a single JSON response line from r.
func ReadResponse(r *bufio.Reader) (WorkerResponse, error) {
	line, err := r.ReadString('\n')
	if err != nil && line == "" {
		return WorkerResponse{}, fmt.Errorf("read worker response: %w", err)
	}
	var resp WorkerResponse
	if err := json.Unmarshal([]byte(line), &resp); err != nil {
		return WorkerResponse{}, fmt.Errorf("parse worker response %q: %w", line, err)
	}
	return resp, nil
}

// OKResponse and ErrResponse build WorkerResponse values, matching the
// worker entrypoint's two possible outcomes.
func OKResponse(text string) WorkerResponse {
	return WorkerResponse{OK: true, Text: &text}
}

func ErrResponse(msg string) WorkerResponse {
	return WorkerResponse{OK: false, Error: &msg}
}
