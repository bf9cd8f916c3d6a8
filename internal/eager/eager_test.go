package eager

import (
	"testing"

	"github.com/peteonrails/voxtype/internal/state"
)

func testConfig() Config {
	return Config{ChunkSecs: 5.0, OverlapSecs: 0.5}
}

func TestChunkSamples(t *testing.T) {
	c := testConfig()
	if got := c.ChunkSamples(); got != 80000 {
		t.Errorf("ChunkSamples() = %d, want 80000", got)
	}
	if got := c.OverlapSamples(); got != 8000 {
		t.Errorf("OverlapSamples() = %d, want 8000", got)
	}
	if got := c.StrideSamples(); got != 72000 {
		t.Errorf("StrideSamples() = %d, want 72000", got)
	}
}

func TestCountCompleteChunksEmpty(t *testing.T) {
	if got := CountCompleteChunks(0, testConfig()); got != 0 {
		t.Errorf("got %d, want 0", got)
	}
}

func TestCountCompleteChunksLessThanOne(t *testing.T) {
	if got := CountCompleteChunks(40000, testConfig()); got != 0 {
		t.Errorf("got %d, want 0", got)
	}
}

func TestCountCompleteChunksOne(t *testing.T) {
	if got := CountCompleteChunks(80000, testConfig()); got != 1 {
		t.Errorf("got %d, want 1", got)
	}
}

func TestCountCompleteChunksMultiple(t *testing.T) {
	if got := CountCompleteChunks(152000, testConfig()); got != 2 {
		t.Errorf("got %d, want 2", got)
	}
	if got := CountCompleteChunks(224000, testConfig()); got != 3 {
		t.Errorf("got %d, want 3", got)
	}
}

func TestExtractChunkInsufficientData(t *testing.T) {
	audio := make(state.AudioBuffer, 40000)
	if _, ok := ExtractChunk(audio, 0, testConfig()); ok {
		t.Error("expected ExtractChunk to report insufficient data")
	}
}

func TestExtractChunkFirst(t *testing.T) {
	audio := make(state.AudioBuffer, 100000)
	for i := range audio {
		audio[i] = float32(i)
	}
	chunk, ok := ExtractChunk(audio, 0, testConfig())
	if !ok {
		t.Fatal("expected chunk 0 to be available")
	}
	if len(chunk) != 80000 {
		t.Errorf("len(chunk) = %d, want 80000", len(chunk))
	}
	if chunk[0] != 0.0 {
		t.Errorf("chunk[0] = %v, want 0", chunk[0])
	}
}

func TestExtractChunkSecond(t *testing.T) {
	audio := make(state.AudioBuffer, 200000)
	for i := range audio {
		audio[i] = float32(i)
	}
	chunk, ok := ExtractChunk(audio, 1, testConfig())
	if !ok {
		t.Fatal("expected chunk 1 to be available")
	}
	if len(chunk) != 80000 {
		t.Errorf("len(chunk) = %d, want 80000", len(chunk))
	}
	if chunk[0] != 72000.0 {
		t.Errorf("chunk[0] = %v, want 72000", chunk[0])
	}
}

func TestDeduplicateBoundaryNoOverlap(t *testing.T) {
	if got := deduplicateBoundary("hello world", "foo bar"); got != "foo bar" {
		t.Errorf("got %q", got)
	}
}

func TestDeduplicateBoundarySingleWordOverlap(t *testing.T) {
	if got := deduplicateBoundary("hello world", "world foo bar"); got != "foo bar" {
		t.Errorf("got %q", got)
	}
}

func TestDeduplicateBoundaryMultiWordOverlap(t *testing.T) {
	if got := deduplicateBoundary("hello world foo", "world foo bar baz"); got != "bar baz" {
		t.Errorf("got %q", got)
	}
}

func TestDeduplicateBoundaryCaseInsensitive(t *testing.T) {
	if got := deduplicateBoundary("Hello World", "world foo"); got != "foo" {
		t.Errorf("got %q", got)
	}
}

func TestDeduplicateBoundaryEmptyPrevious(t *testing.T) {
	if got := deduplicateBoundary("", "hello world"); got != "hello world" {
		t.Errorf("got %q", got)
	}
}

func TestDeduplicateBoundaryEmptyNew(t *testing.T) {
	if got := deduplicateBoundary("hello world", ""); got != "" {
		t.Errorf("got %q", got)
	}
}

func TestCombineChunkResultsEmpty(t *testing.T) {
	if got := CombineChunkResults(nil); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}

func TestCombineChunkResultsSingle(t *testing.T) {
	results := []state.ChunkResult{{ChunkIndex: 0, Text: "hello world"}}
	if got := CombineChunkResults(results); got != "hello world" {
		t.Errorf("got %q", got)
	}
}

func TestCombineChunkResultsMultipleNoOverlap(t *testing.T) {
	results := []state.ChunkResult{
		{ChunkIndex: 0, Text: "hello world"},
		{ChunkIndex: 1, Text: "foo bar"},
	}
	want := "hello world foo bar"
	if got := CombineChunkResults(results); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCombineChunkResultsWithOverlap(t *testing.T) {
	results := []state.ChunkResult{
		{ChunkIndex: 0, Text: "hello world foo"},
		{ChunkIndex: 1, Text: "foo bar baz"},
	}
	want := "hello world foo bar baz"
	if got := CombineChunkResults(results); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCombineChunkResultsOutOfOrder(t *testing.T) {
	results := []state.ChunkResult{
		{ChunkIndex: 1, Text: "bar baz"},
		{ChunkIndex: 0, Text: "hello world bar"},
	}
	want := "hello world bar baz"
	if got := CombineChunkResults(results); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCombineChunkResultsThreeChunks(t *testing.T) {
	results := []state.ChunkResult{
		{ChunkIndex: 0, Text: "one two three"},
		{ChunkIndex: 1, Text: "three four five"},
		{ChunkIndex: 2, Text: "five six seven"},
	}
	want := "one two three four five six seven"
	if got := CombineChunkResults(results); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
