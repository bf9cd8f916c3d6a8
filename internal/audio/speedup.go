package audio

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/exec"
	"time"
)

// windowSecs is the batch size speedup packs audio into.
const windowSecs = 29.0

// maxSpeedupFactor is the ceiling above which speedup is skipped rather than
// risking intelligibility.
const maxSpeedupFactor = 2.0

// SpeedupFactor computes the pre-transcription speedup factor for a buffer
// of the given duration: the minimum number of ceil(duration/58) windows of
// 29s each that fits the audio at <=2x, and the
// resulting per-window factor duration/(windows*29). ok is false when
// speedup should be skipped (duration <= 29s, or the computed factor is
// <=1.0 or >2.0).
func SpeedupFactor(duration time.Duration) (factor float64, ok bool) {
	secs := duration.Seconds()
	if secs <= windowSecs {
		return 1.0, false
	}

	windows := math.Ceil(secs / (2 * windowSecs))
	if windows < 1 {
		windows = 1
	}
	factor = secs / (windows * windowSecs)

	if factor <= 1.0 || factor > maxSpeedupFactor {
		return factor, false
	}
	return factor, true
}

// ApplySpeedup runs an external pitch-preserving time-scaling process (sox's
// `tempo` effect) over a temporary WAV encoding of samples and decodes the
// result back to float32 samples. On any failure it returns the original
// samples unchanged; speedup is a latency optimization, never load-bearing.
func ApplySpeedup(samples []float32, sampleRate int, factor float64) []float32 {
	inPath, err := writeTempWAV(samples, sampleRate)
	if err != nil {
		return samples
	}
	defer os.Remove(inPath)

	outPath := inPath + ".sped.wav"
	defer os.Remove(outPath)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sox", inPath, outPath, "tempo", fmt.Sprintf("%.3f", factor))
	if err := cmd.Run(); err != nil {
		return samples
	}

	sped, err := readWAV(outPath)
	if err != nil {
		return samples
	}
	return sped
}
