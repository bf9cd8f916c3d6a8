package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/peteonrails/voxtype/internal/config"
	"github.com/peteonrails/voxtype/internal/eager"
	"github.com/peteonrails/voxtype/internal/hotkey"
	"github.com/peteonrails/voxtype/internal/output"
	"github.com/peteonrails/voxtype/internal/state"
	"github.com/peteonrails/voxtype/internal/text"
	"github.com/peteonrails/voxtype/internal/transcribe"
)

// fakeCapture stands in for audio.Capture: Start/Stop just flip a flag,
// feed() simulates captured samples arriving without touching PortAudio.
type fakeCapture struct {
	mu          sync.Mutex
	accumulated state.AudioBuffer
	recording   bool
	chunks      chan state.AudioBuffer
}

func newFakeCapture(time.Duration) Capturer {
	return &fakeCapture{chunks: make(chan state.AudioBuffer, 64)}
}

func (c *fakeCapture) Start(device string, streamChunks bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recording = true
	c.accumulated = nil
	return nil
}

func (c *fakeCapture) Stop() (state.AudioBuffer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recording = false
	return append(state.AudioBuffer(nil), c.accumulated...), nil
}

func (c *fakeCapture) Accumulated() state.AudioBuffer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append(state.AudioBuffer(nil), c.accumulated...)
}

func (c *fakeCapture) Chunks() <-chan state.AudioBuffer { return c.chunks }

func (c *fakeCapture) IsRecording() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recording
}

// feed appends n samples and notifies the daemon's eager-progress check.
func (c *fakeCapture) feed(n int) {
	c.mu.Lock()
	c.accumulated = append(c.accumulated, make(state.AudioBuffer, n)...)
	c.mu.Unlock()
	select {
	case c.chunks <- nil:
	default:
	}
}

// fakeEngine is a transcribe.Transcriber returning canned results, one per
// call when texts is non-empty, else always result/err.
type fakeEngine struct {
	mu     sync.Mutex
	texts  []string
	next   int
	result string
	err    error
	delay  time.Duration
}

func (e *fakeEngine) Transcribe(samples state.AudioBuffer) (string, error) {
	if e.delay > 0 {
		time.Sleep(e.delay)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.texts) > 0 {
		if e.next >= len(e.texts) {
			return "", nil
		}
		text := e.texts[e.next]
		e.next++
		return text, e.err
	}
	return e.result, e.err
}

func (e *fakeEngine) Prepare() {}

type fakeManager struct{ engine *fakeEngine }

func (m *fakeManager) GetTranscriber(model string) (transcribe.Transcriber, error) {
	return m.engine, nil
}
func (m *fakeManager) GetPreparedTranscriber(model string) (transcribe.Transcriber, error) {
	return m.engine, nil
}
func (m *fakeManager) PrepareModel(model string) {}
func (m *fakeManager) EvictIdleModels()          {}

// captureOutput is an output.Method that records every delivered string.
type captureOutput struct {
	mu  sync.Mutex
	got []string
}

func (c *captureOutput) Name() string                          { return "capture" }
func (c *captureOutput) Available(ctx context.Context) bool     { return true }
func (c *captureOutput) Output(ctx context.Context, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.got = append(c.got, text)
	return nil
}

func (c *captureOutput) snapshot() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.got...)
}

// newScenarioDaemon builds a Daemon with every external dependency faked,
// bypassing New() (which would open real hotkey input devices).
func newScenarioDaemon(cfg config.Config, engine *fakeEngine, out *captureOutput) (*Daemon, chan state.HotkeyEvent) {
	events := make(chan state.HotkeyEvent, 32)
	d := &Daemon{
		cfg:          cfg,
		manager:      &fakeManager{engine: engine},
		textProc:     text.New(cfg.Text, cfg.Output.PostProcess),
		outChain:     []output.Method{out},
		eagerCfg:     eager.FromWhisperConfig(cfg.Whisper),
		newCapture:   newFakeCapture,
		hkEvents:     events,
		stateFile:    state.NewFileWriter(""),
		current:      state.NewIdle(),
		chunkResults: make(chan chunkOutcome, 64),
		shutdown:     make(chan struct{}),
	}
	return d, events
}

func waitUntil(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	if !cond() {
		t.Fatal("condition not met before timeout")
	}
}

func baseConfig() config.Config {
	cfg := config.Default()
	cfg.Audio.Feedback.Enabled = false
	cfg.Audio.MaxDurationSecs = 60
	cfg.Whisper.EagerChunking = false
	return cfg
}

// Scenario 1: happy-path push-to-talk.
func TestScenarioHappyPathPushToTalk(t *testing.T) {
	cfg := baseConfig()
	engine := &fakeEngine{result: "hello world"}
	out := &captureOutput{}
	d, events := newScenarioDaemon(cfg, engine, out)

	go d.loop()
	defer d.Stop()

	events <- state.HotkeyEvent{Kind: state.Pressed}
	waitUntil(t, time.Second, func() bool { return d.capture != nil && d.capture.IsRecording() })
	d.capture.(*fakeCapture).feed(16000) // 1.0s @ 16kHz, well past minRecordingDuration
	events <- state.HotkeyEvent{Kind: state.Released}

	waitUntil(t, time.Second, func() bool { return len(out.snapshot()) == 1 })
	got := out.snapshot()
	if got[0] != "hello world" {
		t.Errorf("delivered text = %q, want %q", got[0], "hello world")
	}
	waitUntil(t, time.Second, func() bool { return d.current.IsIdle() })
}

// Scenario 2: recording too short is discarded without transcribing.
func TestScenarioRecordingTooShort(t *testing.T) {
	cfg := baseConfig()
	engine := &fakeEngine{result: "should not appear"}
	out := &captureOutput{}
	d, events := newScenarioDaemon(cfg, engine, out)

	go d.loop()
	defer d.Stop()

	events <- state.HotkeyEvent{Kind: state.Pressed}
	waitUntil(t, time.Second, func() bool { return d.capture != nil && d.capture.IsRecording() })
	events <- state.HotkeyEvent{Kind: state.Released}

	waitUntil(t, time.Second, func() bool { return d.current.IsIdle() })
	time.Sleep(50 * time.Millisecond)
	if len(out.snapshot()) != 0 {
		t.Errorf("expected no output for a too-short recording, got %v", out.snapshot())
	}
}

// Scenario 3: exceeding max_duration_secs forces a clean finalize.
func TestScenarioTimeout(t *testing.T) {
	cfg := baseConfig()
	cfg.Audio.MaxDurationSecs = 0.5
	engine := &fakeEngine{result: "timed out session"}
	out := &captureOutput{}
	d, events := newScenarioDaemon(cfg, engine, out)

	go d.loop()
	defer d.Stop()

	events <- state.HotkeyEvent{Kind: state.Pressed}
	waitUntil(t, time.Second, func() bool { return d.capture != nil && d.capture.IsRecording() })
	d.capture.(*fakeCapture).feed(16000) // 1.0s @ 16kHz, well past minRecordingDuration
	waitUntil(t, 2*time.Second, func() bool { return len(out.snapshot()) == 1 })
	if got := out.snapshot()[0]; got != "timed out session" {
		t.Errorf("delivered text = %q", got)
	}
}

// Scenario 4: Cancel during recording returns to Idle without ever
// transcribing or delivering output.
func TestScenarioCancelDuringRecording(t *testing.T) {
	cfg := baseConfig()
	engine := &fakeEngine{result: "should not appear"}
	out := &captureOutput{}
	d, events := newScenarioDaemon(cfg, engine, out)

	go d.loop()
	defer d.Stop()

	events <- state.HotkeyEvent{Kind: state.Pressed}
	waitUntil(t, time.Second, func() bool { return d.capture != nil && d.capture.IsRecording() })
	time.Sleep(minRecordingDuration + 50*time.Millisecond)
	events <- state.HotkeyEvent{Kind: state.Cancel}

	waitUntil(t, time.Second, func() bool { return d.current.IsIdle() })
	time.Sleep(100 * time.Millisecond)
	if len(out.snapshot()) != 0 {
		t.Errorf("expected no output after cancel, got %v", out.snapshot())
	}
}

// Scenario 5: eager chunking dispatches per-chunk transcriptions during
// recording and combines them with boundary dedup on Released.
func TestScenarioEagerChunkDedup(t *testing.T) {
	cfg := baseConfig()
	cfg.Whisper.EagerChunking = true
	cfg.Whisper.EagerChunkSecs = 1.0
	cfg.Whisper.EagerOverlapSecs = 0
	engine := &fakeEngine{texts: []string{"hello world", "world foo bar"}}
	out := &captureOutput{}
	d, events := newScenarioDaemon(cfg, engine, out)

	go d.loop()
	defer d.Stop()

	events <- state.HotkeyEvent{Kind: state.Pressed}
	waitUntil(t, time.Second, func() bool { return d.capture != nil && d.capture.IsRecording() })

	fc := d.capture.(*fakeCapture)
	fc.feed(16000) // one full chunk (1.0s @ 16kHz, no overlap)
	waitUntil(t, time.Second, func() bool { return d.current.ChunksSent >= 1 })
	fc.feed(16000) // second full chunk
	waitUntil(t, time.Second, func() bool { return d.current.ChunksSent >= 2 })

	time.Sleep(minRecordingDuration + 50*time.Millisecond)
	events <- state.HotkeyEvent{Kind: state.Released}

	waitUntil(t, time.Second, func() bool { return len(out.snapshot()) == 1 })
	want := "hello world foo bar" // "world" deduplicated at the boundary
	if got := out.snapshot()[0]; got != want {
		t.Errorf("delivered text = %q, want %q", got, want)
	}
}

// Scenario 6: a failing output post-process command falls back to the
// unmodified transcript rather than losing or corrupting it.
func TestScenarioPostProcessFallback(t *testing.T) {
	cfg := baseConfig()
	cfg.Output.PostProcess.Command = "exit 1"
	cfg.Output.PostProcess.TimeoutMs = 1000
	engine := &fakeEngine{result: "raw transcript"}
	out := &captureOutput{}
	d, events := newScenarioDaemon(cfg, engine, out)

	go d.loop()
	defer d.Stop()

	events <- state.HotkeyEvent{Kind: state.Pressed}
	waitUntil(t, time.Second, func() bool { return d.capture != nil && d.capture.IsRecording() })
	d.capture.(*fakeCapture).feed(16000) // 1.0s @ 16kHz, well past minRecordingDuration
	events <- state.HotkeyEvent{Kind: state.Released}

	waitUntil(t, time.Second, func() bool { return len(out.snapshot()) == 1 })
	if got := out.snapshot()[0]; got != "raw transcript" {
		t.Errorf("delivered text = %q, want unmodified %q", got, "raw transcript")
	}
}

// With hotkey.enabled = false, an empty key must still be accepted: hotkey
// parsing is skipped entirely and recording is left to external control.
func TestNewWithHotkeyDisabledAcceptsEmptyKey(t *testing.T) {
	cfg := config.Default()
	cfg.Hotkey.Enabled = false
	cfg.Hotkey.Key = ""

	d, err := New(cfg, &fakeManager{engine: &fakeEngine{}}, newFakeCapture)
	if err != nil {
		t.Fatalf("New() with hotkey disabled and empty key = %v, want nil error", err)
	}
	if _, ok := d.listener.(hotkey.NoopListener); !ok {
		t.Errorf("listener = %T, want hotkey.NoopListener", d.listener)
	}
}

// With hotkey.enabled = true (the default) an empty key must still fail
// fast, same as before this gate was added.
func TestNewWithHotkeyEnabledRejectsEmptyKey(t *testing.T) {
	cfg := config.Default()
	cfg.Hotkey.Key = ""

	if _, err := New(cfg, &fakeManager{engine: &fakeEngine{}}, newFakeCapture); err == nil {
		t.Error("New() with hotkey enabled and empty key = nil error, want an error")
	}
}
