package transcribe

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/peteonrails/voxtype/internal/config"
	"github.com/peteonrails/voxtype/internal/voxerr"
)

// loadFunc constructs an in-process Transcriber for one model. ModelManager
// calls it on a cache miss (two concurrent misses for the same name may both
// call it, and the later result is discarded); subprocess/remote/cli
// backends never go through loadFunc since those modes are never cached.
type loadFunc func(model string) (Transcriber, error)

// loadedModel pairs a live in-process transcriber with its last-use time, for
// evict_lru/evict_idle_models bookkeeping.
type loadedModel struct {
	transcriber Transcriber
	lastUsed    time.Time
}

// ModelManager multiplexes between transcription backends by model name. It
// keeps an LRU cache of in-process models (local, non-isolated mode only)
// bounded by max_loaded_models, evicting the least-recently-used
// *non-primary* model first, and separately reaps models idle past
// cold_model_timeout_secs. Remote, CLI, and GPU-isolated-subprocess
// transcribers are never cached: each carries its own process or connection
// lifecycle.
type ModelManager struct {
	cfg        config.WhisperConfig
	load       loadFunc
	primary    string
	executable string

	mu     sync.Mutex
	loaded map[string]*loadedModel

	subprocessMu sync.Mutex
	subprocesses map[string]*SubprocessTranscriber
}

// NewModelManager builds a manager for cfg. executable is voxtype's own
// binary path, used to spawn transcribe-worker children in gpu_isolation
// mode. load constructs the in-process backend for cfg.Engine (whisper FFI,
// ONNX CTC/autoregressive/transducer family, ...).
func NewModelManager(cfg config.WhisperConfig, executable string, load loadFunc) *ModelManager {
	return &ModelManager{
		cfg:          cfg,
		load:         load,
		primary:      cfg.Model,
		executable:   executable,
		loaded:       make(map[string]*loadedModel),
		subprocesses: make(map[string]*SubprocessTranscriber),
	}
}

// IsModelAvailable reports whether name is one of the configured models:
// primary, secondary, or an explicitly enumerated model.
func (m *ModelManager) IsModelAvailable(name string) bool {
	return m.cfg.AvailableModels()[name]
}

// resolveModel validates name against the available set, falling back to the
// primary model (with a warning) if it isn't one of them, rather than
// failing the whole request over a stale model_modifier target.
func (m *ModelManager) resolveModel(name string) string {
	if name == "" {
		return m.primary
	}
	if m.IsModelAvailable(name) {
		return name
	}
	log.Printf("[TRANSCRIBE] model %q is not in the available set, falling back to primary %q", name, m.primary)
	return m.primary
}

// GetTranscriber returns the Transcriber to use for model (empty string
// means the primary model), dispatching by backend mode.
func (m *ModelManager) GetTranscriber(model string) (Transcriber, error) {
	name := m.resolveModel(model)

	switch {
	case m.cfg.Mode == config.ModeRemote:
		return m.remoteTranscriber()
	case m.cfg.Mode == config.ModeCli:
		return m.cliTranscriber(name)
	case m.cfg.GPUIsolation:
		return m.subprocessTranscriber(name), nil
	default:
		return m.cachedTranscriber(name)
	}
}

func (m *ModelManager) remoteTranscriber() (Transcriber, error) {
	return NewRemoteTranscriber(m.cfg), nil
}

func (m *ModelManager) cliTranscriber(model string) (Transcriber, error) {
	path, err := config.ModelPath(m.cfg.Engine, model)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve cli model path: %v", voxerr.ErrModelNotFound, err)
	}
	return NewCLITranscriber(m.cfg, path), nil
}

// subprocessTranscriber returns (creating if needed) the long-lived
// SubprocessTranscriber for model. Unlike cachedTranscriber's in-process
// models, a SubprocessTranscriber object itself is cheap to keep around
// indefinitely: it's the worker process underneath it that is single-use and
// respawned per request.
func (m *ModelManager) subprocessTranscriber(model string) Transcriber {
	m.subprocessMu.Lock()
	defer m.subprocessMu.Unlock()
	if t, ok := m.subprocesses[model]; ok {
		return t
	}
	t := NewSubprocessTranscriber(m.executable, m.cfg.Engine, model)
	m.subprocesses[model] = t
	return t
}

// cachedTranscriber returns the in-process transcriber for model, loading it
// on demand and evicting per max_loaded_models if the cache is full.
func (m *ModelManager) cachedTranscriber(model string) (Transcriber, error) {
	m.mu.Lock()
	if entry, ok := m.loaded[model]; ok {
		entry.lastUsed = time.Now()
		m.mu.Unlock()
		return entry.transcriber, nil
	}
	m.mu.Unlock()

	t, err := m.load(model)
	if err != nil {
		return nil, fmt.Errorf("%w: load model %q: %v", voxerr.ErrModelNotFound, model, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if entry, ok := m.loaded[model]; ok {
		// Lost the race to a concurrent load; keep the one already installed.
		entry.lastUsed = time.Now()
		return entry.transcriber, nil
	}

	if m.cfg.MaxLoadedModels > 0 && len(m.loaded) >= m.cfg.MaxLoadedModels {
		m.evictLRULocked()
	}
	m.loaded[model] = &loadedModel{transcriber: t, lastUsed: time.Now()}
	return t, nil
}

// evictLRULocked drops the least-recently-used non-primary cached model.
// Callers hold m.mu. If every loaded model is the primary (shouldn't happen
// since it's only ever loaded once), nothing is evicted.
func (m *ModelManager) evictLRULocked() {
	var oldestName string
	var oldestTime time.Time
	found := false

	for name, entry := range m.loaded {
		if name == m.primary {
			continue
		}
		if !found || entry.lastUsed.Before(oldestTime) {
			oldestName, oldestTime, found = name, entry.lastUsed, true
		}
	}

	if found {
		log.Printf("[TRANSCRIBE] evicting idle model %q (max_loaded_models=%d reached)", oldestName, m.cfg.MaxLoadedModels)
		delete(m.loaded, oldestName)
	}
}

// EvictIdleModels drops any non-primary cached model that has sat unused
// longer than cold_model_timeout_secs. Intended to be called periodically by
// the daemon's housekeeping tick.
func (m *ModelManager) EvictIdleModels() {
	if m.cfg.ColdModelTimeoutSecs <= 0 {
		return
	}
	cutoff := time.Now().Add(-time.Duration(m.cfg.ColdModelTimeoutSecs) * time.Second)

	m.mu.Lock()
	defer m.mu.Unlock()
	for name, entry := range m.loaded {
		if name == m.primary {
			continue
		}
		if entry.lastUsed.Before(cutoff) {
			log.Printf("[TRANSCRIBE] evicting cold model %q (idle past cold_model_timeout_secs=%d)", name, m.cfg.ColdModelTimeoutSecs)
			delete(m.loaded, name)
		}
	}
}

// LoadedModelNames reports which models currently hold a loaded in-process
// transcriber, for `voxtype status`.
func (m *ModelManager) LoadedModelNames() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.loaded))
	for name := range m.loaded {
		names = append(names, name)
	}
	return names
}

// preparedKeyPrefix marks a model-manager cache entry as belonging to an
// eagerly-prepared request rather than a fully resolved one, bridging
// PrepareModel's warm-up into the GetPreparedTranscriber call that
// follows once the user actually finishes speaking.
const preparedKeyPrefix = "_prepared_"

// PrepareModel warms up model ahead of transcription and returns once the
// load or worker spawn has finished: for cached local backends
// this preloads it into the LRU cache; for GPU-isolated/subprocess mode it
// spawns and primes a worker. It does nothing useful for remote/cli modes,
// which have no warm-up step.
func (m *ModelManager) PrepareModel(model string) {
	name := m.resolveModel(model)

	if m.cfg.Mode == config.ModeRemote || m.cfg.Mode == config.ModeCli {
		return
	}

	if m.cfg.GPUIsolation {
		key := preparedKeyPrefix + name
		m.subprocessMu.Lock()
		t, ok := m.subprocesses[key]
		if !ok {
			t = NewSubprocessTranscriber(m.executable, m.cfg.Engine, name)
			m.subprocesses[key] = t
		}
		m.subprocessMu.Unlock()
		t.Prepare()
		return
	}

	if _, err := m.cachedTranscriber(name); err != nil {
		log.Printf("[TRANSCRIBE] prepare model %q failed: %v", name, err)
	}
}

// GetPreparedTranscriber returns the transcriber PrepareModel warmed up for
// model, falling back to a normal (possibly blocking) GetTranscriber if
// nothing was prepared.
func (m *ModelManager) GetPreparedTranscriber(model string) (Transcriber, error) {
	name := m.resolveModel(model)

	if m.cfg.GPUIsolation {
		m.subprocessMu.Lock()
		t, ok := m.subprocesses[preparedKeyPrefix+name]
		if ok {
			delete(m.subprocesses, preparedKeyPrefix+name)
		}
		m.subprocessMu.Unlock()
		if ok {
			return t, nil
		}
	}

	return m.GetTranscriber(name)
}
