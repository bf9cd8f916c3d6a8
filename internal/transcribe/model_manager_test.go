package transcribe

import (
	"fmt"
	"sync"
	"testing"

	"github.com/peteonrails/voxtype/internal/config"
	"github.com/peteonrails/voxtype/internal/state"
)

// fakeTranscriber returns its model name as the transcript; fakeLoader counts
// how many times one was constructed so tests can assert on cache hits vs.
// fresh loads without touching real model files.
type fakeTranscriber struct {
	name string
}

func (f *fakeTranscriber) Transcribe(samples state.AudioBuffer) (string, error) {
	return f.name, nil
}

func (f *fakeTranscriber) Prepare() {}

func fakeLoader(loadCount *int32, mu *sync.Mutex) loadFunc {
	return func(model string) (Transcriber, error) {
		mu.Lock()
		*loadCount++
		mu.Unlock()
		return &fakeTranscriber{name: model}, nil
	}
}

func TestModelManagerCachesLoadedModel(t *testing.T) {
	var loadCount int32
	var mu sync.Mutex
	cfg := config.WhisperConfig{Model: "base.en", MaxLoadedModels: 2}
	mgr := NewModelManager(cfg, "/bin/voxtype", fakeLoader(&loadCount, &mu))

	t1, err := mgr.GetTranscriber("")
	if err != nil {
		t.Fatalf("GetTranscriber: %v", err)
	}
	t2, err := mgr.GetTranscriber("")
	if err != nil {
		t.Fatalf("GetTranscriber: %v", err)
	}
	if t1 != t2 {
		t.Error("expected the same cached transcriber instance on repeated calls")
	}
	if loadCount != 1 {
		t.Errorf("loadCount = %d, want 1", loadCount)
	}
}

func TestModelManagerEvictsLRUNonPrimary(t *testing.T) {
	var loadCount int32
	var mu sync.Mutex
	cfg := config.WhisperConfig{
		Model:           "base.en",
		SecondaryModel:  "small.en",
		AvailableModels: []string{"tiny.en"},
		MaxLoadedModels: 2,
	}
	mgr := NewModelManager(cfg, "/bin/voxtype", fakeLoader(&loadCount, &mu))

	if _, err := mgr.GetTranscriber("base.en"); err != nil {
		t.Fatalf("load primary: %v", err)
	}
	if _, err := mgr.GetTranscriber("small.en"); err != nil {
		t.Fatalf("load secondary: %v", err)
	}
	// Cache is now full (2/2). Loading a third non-primary model should
	// evict the LRU non-primary entry (small.en), never the primary.
	if _, err := mgr.GetTranscriber("tiny.en"); err != nil {
		t.Fatalf("load tiny: %v", err)
	}

	loadedNames := mgr.LoadedModelNames()
	names := map[string]bool{}
	for _, n := range loadedNames {
		names[n] = true
	}
	if !names["base.en"] {
		t.Error("primary model base.en was evicted, it never should be")
	}
	if names["small.en"] {
		t.Error("expected small.en to have been evicted as LRU")
	}
	if !names["tiny.en"] {
		t.Error("expected tiny.en to be loaded")
	}
}

func TestModelManagerFallsBackToPrimaryForUnknownModel(t *testing.T) {
	var loadCount int32
	var mu sync.Mutex
	cfg := config.WhisperConfig{Model: "base.en", MaxLoadedModels: 2}
	mgr := NewModelManager(cfg, "/bin/voxtype", fakeLoader(&loadCount, &mu))

	tr, err := mgr.GetTranscriber("not-a-real-model")
	if err != nil {
		t.Fatalf("GetTranscriber: %v", err)
	}
	got, _ := tr.Transcribe(nil)
	if got != "base.en" {
		t.Errorf("fell back to %q, want primary \"base.en\"", got)
	}
}

func TestModelManagerIsModelAvailable(t *testing.T) {
	cfg := config.WhisperConfig{
		Model:           "base.en",
		SecondaryModel:  "small.en",
		AvailableModels: []string{"tiny.en"},
	}
	mgr := NewModelManager(cfg, "/bin/voxtype", func(model string) (Transcriber, error) {
		return nil, fmt.Errorf("should not be called")
	})

	for _, name := range []string{"base.en", "small.en", "tiny.en"} {
		if !mgr.IsModelAvailable(name) {
			t.Errorf("expected %q to be available", name)
		}
	}
	if mgr.IsModelAvailable("nonexistent") {
		t.Error("expected nonexistent model to be unavailable")
	}
}

func TestModelManagerUsesSubprocessForGPUIsolation(t *testing.T) {
	cfg := config.WhisperConfig{Model: "base.en", GPUIsolation: true}
	mgr := NewModelManager(cfg, "/bin/voxtype", func(model string) (Transcriber, error) {
		return nil, fmt.Errorf("in-process loader should not be used under gpu_isolation")
	})

	tr, err := mgr.GetTranscriber("")
	if err != nil {
		t.Fatalf("GetTranscriber: %v", err)
	}
	if _, ok := tr.(*SubprocessTranscriber); !ok {
		t.Errorf("got %T, want *SubprocessTranscriber", tr)
	}
}

func TestModelManagerUsesRemoteForRemoteMode(t *testing.T) {
	cfg := config.WhisperConfig{Model: "whisper-1", Mode: config.ModeRemote, RemoteEndpoint: "http://localhost:9000"}
	mgr := NewModelManager(cfg, "/bin/voxtype", func(model string) (Transcriber, error) {
		return nil, fmt.Errorf("in-process loader should not be used in remote mode")
	})

	tr, err := mgr.GetTranscriber("")
	if err != nil {
		t.Fatalf("GetTranscriber: %v", err)
	}
	if _, ok := tr.(*RemoteTranscriber); !ok {
		t.Errorf("got %T, want *RemoteTranscriber", tr)
	}
}
