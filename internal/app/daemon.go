// Package app wires the daemon's pieces together and runs the single
// cooperative event loop that drives the state machine: hotkey and
// external-control events, periodic timeout checks, and background
// transcription-task results all funnel through one select loop, so state
// transitions never race each other, across the full Idle/Recording/
// EagerRecording/Transcribing/Outputting machine.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/peteonrails/voxtype/internal/audio"
	"github.com/peteonrails/voxtype/internal/config"
	"github.com/peteonrails/voxtype/internal/eager"
	"github.com/peteonrails/voxtype/internal/hotkey"
	"github.com/peteonrails/voxtype/internal/metrics"
	"github.com/peteonrails/voxtype/internal/notify"
	"github.com/peteonrails/voxtype/internal/output"
	"github.com/peteonrails/voxtype/internal/state"
	"github.com/peteonrails/voxtype/internal/text"
	"github.com/peteonrails/voxtype/internal/transcribe"
	"github.com/peteonrails/voxtype/internal/voxerr"
)

// minRecordingDuration is the recording-too-short guard: recordings shorter
// than this are discarded without ever reaching a transcriber.
const minRecordingDuration = 300 * time.Millisecond

// timeoutTickInterval is the ~10Hz periodic check that forces a
// Released-equivalent transition once max_duration_secs is exceeded.
const timeoutTickInterval = 100 * time.Millisecond

// evictTickInterval is how often the daemon checks for non-primary models
// that have sat idle past whisper.cold_model_timeout_secs.
const evictTickInterval = 10 * time.Second

// outputTimeout bounds how long the output chain may take before the
// daemon gives up and returns to Idle anyway.
const outputTimeout = 5 * time.Second

// chunkOutcome is produced by both the eager per-chunk transcription
// goroutines and the single-shot non-eager transcription goroutine. A
// non-eager session always produces exactly one chunkOutcome at index 0;
// eager.CombineChunkResults collapses to that single result's text when
// there is only one (see internal/eager), so the finalize path is shared.
type chunkOutcome struct {
	generation uint64
	index      int
	text       string
	err        error
}

// Transcriber is the subset of transcribe.ModelManager the daemon needs,
// narrowed so fakes can stand in for scenario tests.
type Transcriber interface {
	GetTranscriber(model string) (transcribe.Transcriber, error)
	GetPreparedTranscriber(model string) (transcribe.Transcriber, error)
	PrepareModel(model string)
	EvictIdleModels()
}

// Capturer is the subset of audio.Capture the daemon drives, narrowed for
// fakes in scenario tests.
type Capturer interface {
	Start(deviceName string, streamChunks bool) error
	Stop() (state.AudioBuffer, error)
	Accumulated() state.AudioBuffer
	Chunks() <-chan state.AudioBuffer
	IsRecording() bool
}

// CaptureFactory builds a fresh Capturer for one recording session.
type CaptureFactory func(maxDuration time.Duration) Capturer

// Daemon owns the whole of the daemon's in-process state and runs the
// single-threaded orchestrator loop that drives the recording state machine.
type Daemon struct {
	cfg      config.Config
	manager  Transcriber
	textProc *text.Processor
	outChain []output.Method
	eagerCfg eager.Config
	notifier *notify.Notifier

	newCapture CaptureFactory
	capture    Capturer

	listener   hotkey.Listener
	hkEvents   <-chan state.HotkeyEvent
	controlLn  *ControlListener
	stateFile  *state.FileWriter
	metricsMgr *metrics.MetricsManager

	current    state.State
	generation uint64
	finalizing bool

	chunkResults chan chunkOutcome
	shutdown     chan struct{}
	wg           sync.WaitGroup

	lockPath string
	lockFile *os.File
}

// New builds a Daemon from the loaded configuration. When hotkey.enabled is
// set it builds the platform hotkey listener, which on Linux opens the
// keyboard input devices; it starts no listener, capture or lock. Call Run
// to start the daemon.
func New(cfg config.Config, manager Transcriber, newCapture CaptureFactory) (*Daemon, error) {
	var listener hotkey.Listener
	if cfg.Hotkey.Enabled {
		hkSpec, err := hotkey.NewSpec(cfg.Hotkey, cfg.Whisper.SecondaryModel)
		if err != nil {
			return nil, fmt.Errorf("daemon: %w", err)
		}
		listener, err = hotkey.New(hkSpec)
		if err != nil {
			return nil, fmt.Errorf("daemon: hotkey listener: %w", err)
		}
	} else {
		log.Printf("[APP] hotkey disabled, recording driven only by external control")
		listener = hotkey.NoopListener{}
	}

	d := &Daemon{
		cfg:          cfg,
		manager:      manager,
		textProc:     text.New(cfg.Text, cfg.Output.PostProcess),
		outChain:     output.Chain(cfg.Output),
		eagerCfg:     eager.FromWhisperConfig(cfg.Whisper),
		notifier:     notify.New(cfg.Output.Notification),
		newCapture:   newCapture,
		listener:     listener,
		stateFile:    state.NewFileWriter(config.ResolveStateFilePath(cfg.StateFile)),
		current:      state.NewIdle(),
		chunkResults: make(chan chunkOutcome, 64),
		shutdown:     make(chan struct{}),
		lockPath:     config.GetLockPath(),
	}
	return d, nil
}

// SetMetricsManager wires an optional session-metrics recorder (ambient,
// not part of the transcription path itself); a nil manager disables it.
func (d *Daemon) SetMetricsManager(mgr *metrics.MetricsManager) { d.metricsMgr = mgr }

// acquireLock enforces the single-instance rule via an advisory PID-lock
// file: a stale lock (process no longer alive) is reclaimed.
func (d *Daemon) acquireLock() error {
	if data, err := os.ReadFile(d.lockPath); err == nil {
		if pid, convErr := strconv.Atoi(string(data)); convErr == nil && processAlive(pid) {
			return fmt.Errorf("%w (pid %d)", voxerr.ErrSingleInstance, pid)
		}
	}
	if err := os.MkdirAll(config.GetRuntimeDir(), 0o755); err != nil {
		return fmt.Errorf("daemon: create runtime dir: %w", err)
	}
	f, err := os.OpenFile(d.lockPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("daemon: open lock file: %w", err)
	}
	if _, err := fmt.Fprintf(f, "%d", os.Getpid()); err != nil {
		f.Close()
		return fmt.Errorf("daemon: write lock file: %w", err)
	}
	d.lockFile = f
	return nil
}

func (d *Daemon) releaseLock() {
	if d.lockFile != nil {
		d.lockFile.Close()
	}
	os.Remove(d.lockPath)
}

// processAlive reports whether pid refers to a live process, via the
// signal-0 probe (os.FindProcess always succeeds on Unix; Signal(0) is
// what actually checks).
func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}

// Run acquires the single-instance lock, starts the hotkey and external
// control listeners, and blocks running the event loop until Stop is
// called or a listener dies.
func (d *Daemon) Run() error {
	if err := d.acquireLock(); err != nil {
		return err
	}
	defer d.releaseLock()

	events, err := d.listener.Start()
	if err != nil {
		return fmt.Errorf("daemon: start hotkey listener: %w", err)
	}
	d.hkEvents = events
	defer d.listener.Stop()

	controlLn, err := NewControlListener(GetControlPath(config.GetRuntimeDir()))
	if err != nil {
		log.Printf("[APP] external control disabled: %v", err)
	} else {
		d.controlLn = controlLn
		defer controlLn.Stop()
	}

	if err := d.stateFile.Write(state.WordIdle); err != nil {
		log.Printf("[APP] state file write failed: %v", err)
	}
	defer d.stateFile.Remove()
	defer d.notifier.Close()

	d.loop()
	return nil
}

// Stop requests a clean shutdown; Run returns once the event loop observes it.
func (d *Daemon) Stop() {
	close(d.shutdown)
}

func (d *Daemon) loop() {
	ticker := time.NewTicker(timeoutTickInterval)
	defer ticker.Stop()
	evictTicker := time.NewTicker(evictTickInterval)
	defer evictTicker.Stop()

	for {
		var controlEvents <-chan state.HotkeyEvent
		if d.controlLn != nil {
			controlEvents = d.controlLn.Events()
		}
		var chunks <-chan state.AudioBuffer
		if d.capture != nil {
			chunks = d.capture.Chunks()
		}

		select {
		case ev, ok := <-d.hkEvents:
			if !ok {
				return
			}
			d.handleEvent(ev)
		case ev, ok := <-controlEvents:
			if !ok {
				d.controlLn = nil
				continue
			}
			d.handleEvent(ev)
		case <-chunks:
			d.checkEagerProgress()
		case out := <-d.chunkResults:
			d.handleChunkResult(out)
		case <-ticker.C:
			d.checkTimeout()
		case <-evictTicker.C:
			d.manager.EvictIdleModels()
		case <-d.shutdown:
			d.shutdownNow()
			return
		}
	}
}

func (d *Daemon) shutdownNow() {
	if d.capture != nil && d.capture.IsRecording() {
		if _, err := d.capture.Stop(); err != nil {
			log.Printf("[APP] capture stop on shutdown: %v", err)
		}
	}
	d.wg.Wait()
}

// handleEvent dispatches a Pressed/Released/Cancel event according to the
// configured activation mode.
func (d *Daemon) handleEvent(ev state.HotkeyEvent) {
	switch ev.Kind {
	case state.Cancel:
		d.handleCancel()
	case state.Pressed:
		d.handlePressed(ev.ModelOverride)
	case state.Released:
		d.handleReleased()
	}
}

func (d *Daemon) handlePressed(modelOverride string) {
	switch {
	case d.current.IsIdle():
		d.startRecording(modelOverride)
	case d.current.IsRecording() && d.cfg.Hotkey.Mode == config.Toggle:
		d.beginFinalize()
	default:
		// Toggle-mode-and-already-recording is handled above; push-to-talk
		// key repeat, or a press while busy transcribing/outputting, is
		// ignored: only one session is ever in flight at a time.
	}
}

func (d *Daemon) handleReleased() {
	if d.cfg.Hotkey.Mode == config.Toggle {
		return // Released is meaningless in toggle mode
	}
	if !d.current.IsRecording() {
		return
	}
	d.beginFinalize()
}

// handleCancel resets to Idle from any state. In-flight transcription
// tasks are not aborted, but their eventual results are
// stamped with the generation they were dispatched under and discarded by
// handleChunkResult once the generation has moved on.
func (d *Daemon) handleCancel() {
	if d.current.IsIdle() {
		return
	}
	if d.capture != nil && d.capture.IsRecording() {
		if _, err := d.capture.Stop(); err != nil {
			log.Printf("[APP] capture stop on cancel: %v", err)
		}
	}
	d.toIdle()
}

func (d *Daemon) toIdle() {
	d.current = state.NewIdle()
	d.finalizing = false
	d.capture = nil
	if err := d.stateFile.Write(state.WordIdle); err != nil {
		log.Printf("[APP] state file write failed: %v", err)
	}
}

func (d *Daemon) startRecording(modelOverride string) {
	d.generation++
	eagerEnabled := d.cfg.Whisper.EagerChunking

	kind := state.Recording
	if eagerEnabled {
		kind = state.EagerRecording
	}
	d.current = state.State{Kind: kind, StartedAt: time.Now(), ModelOverride: modelOverride}

	maxDuration := time.Duration(d.cfg.Audio.MaxDurationSecs * float64(time.Second))
	d.capture = d.newCapture(maxDuration)
	if err := d.capture.Start(d.cfg.Audio.Device, eagerEnabled); err != nil {
		log.Printf("[APP] recording failed to start: %v", err)
		d.toIdle()
		return
	}

	if d.cfg.Audio.Feedback.Enabled {
		audio.PlayFeedback(audio.FeedbackStart)
	}
	d.notifier.OnStart()
	if err := d.stateFile.Write(state.WordRecording); err != nil {
		log.Printf("[APP] state file write failed: %v", err)
	}

	d.manager.PrepareModel(d.resolveModel(modelOverride))
}

func (d *Daemon) resolveModel(override string) string {
	if override != "" {
		return override
	}
	return d.cfg.Whisper.Model
}

// checkEagerProgress extracts and dispatches every newly-complete chunk
// since the last check: whenever the complete-chunk count grows by one, it
// extracts and spawns a background transcription task for that chunk.
func (d *Daemon) checkEagerProgress() {
	if d.current.Kind != state.EagerRecording || d.capture == nil {
		return
	}
	accumulated := d.capture.Accumulated()
	d.current.Accumulated = accumulated

	want := eager.CountCompleteChunks(len(accumulated), d.eagerCfg)
	for d.current.ChunksSent < want {
		idx := d.current.ChunksSent
		chunk, ok := eager.ExtractChunk(accumulated, idx, d.eagerCfg)
		if !ok {
			break
		}
		d.dispatchChunk(idx, chunk)
		d.current.ChunksSent++
	}
}

func (d *Daemon) dispatchChunk(index int, chunk state.AudioBuffer) {
	gen := d.generation
	model := d.resolveModel(d.current.ModelOverride)
	d.current.TasksInFlight++
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		text, err := d.transcribeBuffer(model, chunk)
		d.chunkResults <- chunkOutcome{generation: gen, index: index, text: text, err: err}
	}()
}

func (d *Daemon) transcribeBuffer(model string, buf state.AudioBuffer) (string, error) {
	transcriber, err := d.manager.GetTranscriber(model)
	if err != nil {
		return "", err
	}
	return transcriber.Transcribe(buf)
}

// beginFinalize stops capture and either discards a too-short or failed
// recording, or dispatches the captured audio for transcription.
func (d *Daemon) beginFinalize() {
	buf, err := d.capture.Stop()

	if d.cfg.Audio.Feedback.Enabled {
		audio.PlayFeedback(audio.FeedbackStop)
	}
	d.notifier.OnStop()

	if err != nil && !errors.Is(err, voxerr.ErrEmptyRecording) {
		log.Printf("[APP] capture stop failed: %v", err)
		d.toIdle()
		return
	}

	// Duration is computed from the samples actually captured, not
	// wall-clock time since the hotkey press: device startup latency or
	// dropped frames can leave the buffer shorter than elapsed time would
	// suggest.
	duration := time.Duration(len(buf)) * time.Second / audio.SampleRate
	if duration < minRecordingDuration {
		log.Printf("[APP] recording too short (%v < %v), discarding", duration, minRecordingDuration)
		d.toIdle()
		return
	}

	wasEager := d.current.Kind == state.EagerRecording
	d.current.Kind = state.Transcribing
	d.current.Audio = buf
	if err := d.stateFile.Write(state.WordTranscribing); err != nil {
		log.Printf("[APP] state file write failed: %v", err)
	}
	d.finalizing = true

	if wasEager {
		d.dispatchTail(buf)
		d.maybeFinishFinalize()
		return
	}

	model := d.resolveModel(d.current.ModelOverride)
	gen := d.generation
	d.current.TasksInFlight++
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		transcriber, err := d.manager.GetPreparedTranscriber(model)
		var text string
		if err == nil {
			text, err = transcriber.Transcribe(buf)
		}
		d.chunkResults <- chunkOutcome{generation: gen, index: 0, text: text, err: err}
	}()
}

// dispatchTail transcribes whatever's left past the last sent chunk, as one
// final chunk. The tail is dispatched right away, alongside any chunk tasks
// still in flight; it does not wait for them. maybeFinishFinalize combines
// the results once every task, the tail included, has reported back.
func (d *Daemon) dispatchTail(full state.AudioBuffer) {
	stride := d.eagerCfg.StrideSamples()
	start := d.current.ChunksSent * stride
	if start > len(full) {
		start = len(full)
	}
	tail := append(state.AudioBuffer(nil), full[start:]...)
	if len(tail) == 0 {
		return
	}
	d.dispatchChunk(d.current.ChunksSent, tail)
	d.current.ChunksSent++
}

func (d *Daemon) handleChunkResult(out chunkOutcome) {
	if out.generation != d.generation {
		return // stale: a Cancel or new recording has since started
	}
	d.current.TasksInFlight--
	if out.err != nil {
		log.Printf("[APP] chunk %d transcription failed: %v", out.index, out.err)
	} else if out.text != "" {
		d.current.ChunkResults = append(d.current.ChunkResults, state.ChunkResult{ChunkIndex: out.index, Text: out.text})
	}
	if d.finalizing {
		d.maybeFinishFinalize()
	}
}

func (d *Daemon) maybeFinishFinalize() {
	if d.current.TasksInFlight > 0 {
		return
	}
	d.finalizing = false
	combined := eager.CombineChunkResults(d.current.ChunkResults)
	d.deliver(combined)
}

// deliver runs the text processor and output chain, then returns to Idle
// regardless of outcome: output failures log, they don't keep the daemon
// stuck outside Idle.
func (d *Daemon) deliver(raw string) {
	d.current.Kind = state.Outputting
	recordingDuration := time.Since(d.current.StartedAt)
	processed := d.textProc.Process(raw)
	d.current.Text = processed

	if processed != "" {
		ctx, cancel := context.WithTimeout(context.Background(), outputTimeout)
		err := output.Deliver(ctx, d.outChain, processed)
		cancel()
		if err != nil {
			log.Printf("[APP] output failed: %v", err)
		} else {
			d.notifier.OnTranscribed(processed)
		}
		if err == nil && d.metricsMgr != nil {
			model := d.current.ModelOverride
			if model == "" {
				model = d.cfg.Whisper.Model
			}
			if _, err := d.metricsMgr.RecordSession(processed, recordingDuration, model); err != nil {
				log.Printf("[APP] metrics recording failed: %v", err)
			}
		}
	}

	d.toIdle()
}

// checkTimeout forces a Released-equivalent transition once
// max_duration_secs is exceeded.
func (d *Daemon) checkTimeout() {
	if !d.current.IsRecording() {
		return
	}
	if d.cfg.Audio.MaxDurationSecs <= 0 {
		return
	}
	dur, ok := d.current.RecordingDuration()
	if !ok {
		return
	}
	max := time.Duration(d.cfg.Audio.MaxDurationSecs * float64(time.Second))
	if dur > max {
		log.Printf("[APP] recording exceeded max_duration_secs (%v), finalizing", max)
		d.beginFinalize()
	}
}
