// Package eager implements chunked transcription during an in-progress
// recording: fixed-size overlapping windows are sliced out of the
// accumulating audio buffer and transcribed as soon as each becomes
// available, so a slow machine doesn't pay the whole recording's
// transcription latency after the hotkey is released.
package eager

import (
	"sort"
	"strings"

	"github.com/peteonrails/voxtype/internal/config"
	"github.com/peteonrails/voxtype/internal/state"
)

// sampleRate is fixed because every transcription backend in this daemon
// operates on 16kHz mono audio.
const sampleRate = 16000

// Config holds the chunk-window parameters for eager transcription.
type Config struct {
	ChunkSecs   float64
	OverlapSecs float64
}

// FromWhisperConfig builds a Config from the configured chunk/overlap
// durations.
func FromWhisperConfig(w config.WhisperConfig) Config {
	return Config{ChunkSecs: w.EagerChunkSecs, OverlapSecs: w.EagerOverlapSecs}
}

// ChunkSamples returns the chunk length in samples.
func (c Config) ChunkSamples() int {
	return int(c.ChunkSecs * float64(sampleRate))
}

// OverlapSamples returns the overlap length in samples.
func (c Config) OverlapSamples() int {
	return int(c.OverlapSecs * float64(sampleRate))
}

// StrideSamples returns the distance between consecutive chunk start
// offsets (chunk length minus overlap), floored at zero.
func (c Config) StrideSamples() int {
	stride := c.ChunkSamples() - c.OverlapSamples()
	if stride < 0 {
		return 0
	}
	return stride
}

// ExtractChunk returns chunkIndex's slice of accumulated, or false if there
// isn't yet enough audio for that chunk.
func ExtractChunk(accumulated state.AudioBuffer, chunkIndex int, cfg Config) (state.AudioBuffer, bool) {
	chunkSize := cfg.ChunkSamples()
	stride := cfg.StrideSamples()

	start := chunkIndex * stride
	end := start + chunkSize
	if end > len(accumulated) {
		return nil, false
	}

	out := make(state.AudioBuffer, chunkSize)
	copy(out, accumulated[start:end])
	return out, true
}

// CountCompleteChunks returns how many chunks can currently be extracted
// from accumulatedLen samples of audio.
func CountCompleteChunks(accumulatedLen int, cfg Config) int {
	stride := cfg.StrideSamples()
	chunkSize := cfg.ChunkSamples()

	if accumulatedLen < chunkSize {
		return 0
	}
	availableAfterFirst := accumulatedLen - chunkSize
	if stride == 0 {
		return 1
	}
	return 1 + availableAfterFirst/stride
}

// CombineChunkResults sorts results by chunk index and joins their text,
// deduplicating the overlap at each chunk boundary.
func CombineChunkResults(results []state.ChunkResult) string {
	if len(results) == 0 {
		return ""
	}

	sorted := make([]state.ChunkResult, len(results))
	copy(sorted, results)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ChunkIndex < sorted[j].ChunkIndex })

	if len(sorted) == 1 {
		return sorted[0].Text
	}

	combined := sorted[0].Text
	for _, result := range sorted[1:] {
		newText := deduplicateBoundary(combined, result.Text)
		if newText == "" {
			continue
		}
		if combined != "" && !strings.HasSuffix(combined, " ") && !strings.HasPrefix(newText, " ") {
			combined += " "
		}
		combined += newText
	}

	return strings.TrimSpace(combined)
}

// deduplicateBoundary finds the longest suffix of previous that case-
// insensitively matches a prefix of newText (word-wise) and strips it from
// newText, so the word repeated across the overlap region isn't doubled.
func deduplicateBoundary(previous, newText string) string {
	prevWords := strings.Fields(previous)
	newWords := strings.Fields(newText)

	if len(prevWords) == 0 || len(newWords) == 0 {
		return newText
	}

	maxOverlap := len(prevWords)
	if len(newWords) < maxOverlap {
		maxOverlap = len(newWords)
	}

	bestOverlap := 0
	for overlapLen := 1; overlapLen <= maxOverlap; overlapLen++ {
		prevSuffix := prevWords[len(prevWords)-overlapLen:]
		newPrefix := newWords[:overlapLen]
		if wordsEqualFold(prevSuffix, newPrefix) {
			bestOverlap = overlapLen
		}
	}

	if bestOverlap == 0 {
		return newText
	}
	return strings.Join(newWords[bestOverlap:], " ")
}

func wordsEqualFold(a, b []string) bool {
	for i := range a {
		if !strings.EqualFold(a[i], b[i]) {
			return false
		}
	}
	return true
}
