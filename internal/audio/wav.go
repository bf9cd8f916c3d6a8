package audio

import (
	"fmt"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// writeTempWAV encodes samples as a 16-bit mono WAV file, used both for the
// speedup round-trip and for the remote transcription backend's multipart
// upload.
func writeTempWAV(samples []float32, sampleRate int) (string, error) {
	f, err := os.CreateTemp("", "voxtype-*.wav")
	if err != nil {
		return "", err
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	buf := floatsToIntBuffer(samples, sampleRate)
	if err := enc.Write(buf); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("wav encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("wav close: %w", err)
	}
	return f.Name(), nil
}

func floatsToIntBuffer(samples []float32, sampleRate int) *audio.IntBuffer {
	ints := make([]int, len(samples))
	for i, s := range samples {
		v := int(math.Round(float64(s) * 32767))
		if v > 32767 {
			v = 32767
		}
		if v < -32768 {
			v = -32768
		}
		ints[i] = v
	}
	return &audio.IntBuffer{
		Format: &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:   ints,
		SourceBitDepth: 16,
	}
}

// LoadWAV decodes a 16-bit mono WAV file back to normalized float32 samples,
// for callers outside this package (`voxtype transcribe <file>`).
func LoadWAV(path string) ([]float32, error) {
	return readWAV(path)
}

// readWAV decodes a 16-bit mono WAV file back to normalized float32 samples.
func readWAV(path string) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("wav decode: %w", err)
	}

	out := make([]float32, len(buf.Data))
	for i, v := range buf.Data {
		out[i] = float32(v) / 32768.0
	}
	return out, nil
}

// EncodeWAV writes samples to a temporary WAV file and returns its path, for
// the remote backend's multipart body and the whisper-cli backend; the
// caller removes the file.
func EncodeWAV(samples []float32, sampleRate int) (string, error) {
	return writeTempWAV(samples, sampleRate)
}
