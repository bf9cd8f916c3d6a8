// Package audio captures microphone input into the mono, 16kHz float32
// buffer every transcription backend expects, via PortAudio: device
// resolution, a bounded streaming channel for eager chunking, and a
// mutex-guarded accumulator that is the single source of truth for "how
// much audio has been recorded so far." Silence detection is left to the
// daemon/VAD layer, not capture.
package audio

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"

	"github.com/peteonrails/voxtype/internal/state"
	"github.com/peteonrails/voxtype/internal/voxerr"
)

const (
	// SampleRate is the rate every transcription backend expects.
	SampleRate = 16000
	// Frames is the PortAudio callback buffer size.
	Frames = 1024
	// ChunkChanCapacity bounds the streaming channel eager mode reads from:
	// capacity 64, drop-new-chunk rather than block capture.
	ChunkChanCapacity = 64
)

// Initialize must be called once at process startup before any Capture is
// used.
func Initialize() error { return portaudio.Initialize() }

// Terminate releases PortAudio's global state at shutdown.
func Terminate() { portaudio.Terminate() }

// Capture owns one recording session: it reads from the resolved device,
// appends every frame to an accumulator under mu, and optionally streams
// each frame on Chunks() for eager transcription.
type Capture struct {
	mu          sync.Mutex
	accumulated state.AudioBuffer
	recording   bool

	stream   *portaudio.Stream
	stopChan chan struct{}
	wg       sync.WaitGroup

	chunks chan state.AudioBuffer

	maxDuration time.Duration
	timeoutOnce sync.Once
	timedOut    chan struct{}
}

// NewCapture builds an idle Capture. Start begins a session.
func NewCapture(maxDuration time.Duration) *Capture {
	return &Capture{
		maxDuration: maxDuration,
		timedOut:    make(chan struct{}),
	}
}

// ResolveDevice finds a PortAudio input device by name: "default" (or
// empty) picks the host default; otherwise an exact case-insensitive match
// is tried first, then a substring match, matching the ordering other
// dictation daemons in the pack use for device selection.
func ResolveDevice(name string) (*portaudio.DeviceInfo, error) {
	if name == "" || strings.EqualFold(name, "default") {
		return portaudio.DefaultInputDevice()
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("%w: enumerate devices: %v", voxerr.ErrDeviceNotFound, err)
	}

	for _, d := range devices {
		if d.MaxInputChannels > 0 && strings.EqualFold(d.Name, name) {
			return d, nil
		}
	}
	for _, d := range devices {
		if d.MaxInputChannels > 0 && strings.Contains(strings.ToLower(d.Name), strings.ToLower(name)) {
			return d, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", voxerr.ErrDeviceNotFound, name)
}

// Start opens the stream and begins accumulating audio. Chunks, if
// streamChunks is true, delivers each captured frame on the returned
// channel for eager transcription; callers that don't need streaming can
// pass false and just read Accumulated()/Stop() at the end.
func (c *Capture) Start(deviceName string, streamChunks bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.recording {
		return nil
	}

	device, err := ResolveDevice(deviceName)
	if err != nil {
		return err
	}

	c.accumulated = nil
	c.stopChan = make(chan struct{})
	c.timedOut = make(chan struct{})
	c.timeoutOnce = sync.Once{}
	if streamChunks {
		c.chunks = make(chan state.AudioBuffer, ChunkChanCapacity)
	} else {
		c.chunks = nil
	}

	in := make([]int32, Frames)
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: 1,
			Latency:  device.DefaultLowInputLatency,
		},
		SampleRate:      SampleRate,
		FramesPerBuffer: len(in),
	}

	c.stream, err = portaudio.OpenStream(params, in)
	if err != nil {
		return fmt.Errorf("%w: open stream: %v", voxerr.ErrDeviceNotFound, err)
	}
	if err := c.stream.Start(); err != nil {
		c.stream.Close()
		c.stream = nil
		return fmt.Errorf("%w: start stream: %v", voxerr.ErrDeviceNotFound, err)
	}

	c.recording = true
	c.wg.Add(1)
	go c.readLoop(in)

	if c.maxDuration > 0 {
		c.wg.Add(1)
		go c.watchMaxDuration()
	}

	return nil
}

func (c *Capture) readLoop(in []int32) {
	defer c.wg.Done()
	for {
		select {
		case <-c.stopChan:
			return
		default:
		}

		c.mu.Lock()
		stream := c.stream
		c.mu.Unlock()
		if stream == nil {
			return
		}

		if err := stream.Read(); err != nil {
			select {
			case <-c.stopChan:
			default:
				log.Printf("[AUDIO] stream read error: %v", err)
			}
			return
		}

		floats := Int32ToFloat32(in)

		c.mu.Lock()
		c.accumulated = append(c.accumulated, floats...)
		c.mu.Unlock()

		if c.chunks != nil {
			chunkCopy := make(state.AudioBuffer, len(floats))
			copy(chunkCopy, floats)
			select {
			case c.chunks <- chunkCopy:
			default:
				log.Print("[AUDIO] chunk channel full, dropping frame (accumulator unaffected)")
			}
		}
	}
}

func (c *Capture) watchMaxDuration() {
	defer c.wg.Done()
	timer := time.NewTimer(c.maxDuration)
	defer timer.Stop()
	select {
	case <-c.stopChan:
	case <-timer.C:
		c.timeoutOnce.Do(func() { close(c.timedOut) })
	}
}

// TimedOut is closed if the recording hit max_duration_secs before Stop was
// called.
func (c *Capture) TimedOut() <-chan struct{} { return c.timedOut }

// Chunks streams each captured frame for eager transcription. Returns nil
// if Start was called with streamChunks=false.
func (c *Capture) Chunks() <-chan state.AudioBuffer { return c.chunks }

// Accumulated returns a copy of everything captured so far without stopping
// the session (used by the eager chunker to extract windows mid-recording).
func (c *Capture) Accumulated() state.AudioBuffer {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(state.AudioBuffer, len(c.accumulated))
	copy(out, c.accumulated)
	return out
}

// stopTeardownBound is how long Stop waits for the capture goroutines to
// exit cleanly before giving up and reporting voxerr.ErrTimeout.
const stopTeardownBound = 2 * time.Second

// Stop ends the session and returns everything captured. It waits for the
// read and watch-max-duration goroutines to exit, bounded by
// stopTeardownBound; exceeding that bound returns voxerr.ErrTimeout (the
// stream is left as-is for the caller to decide how to recover). A clean
// teardown that produced zero samples returns voxerr.ErrEmptyRecording
// alongside the (empty) buffer.
func (c *Capture) Stop() (state.AudioBuffer, error) {
	c.mu.Lock()
	if !c.recording {
		c.mu.Unlock()
		return nil, nil
	}
	c.recording = false
	close(c.stopChan)
	c.mu.Unlock()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(stopTeardownBound):
		return nil, fmt.Errorf("%w: capture teardown exceeded %s", voxerr.ErrTimeout, stopTeardownBound)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stream != nil {
		c.stream.Stop()
		c.stream.Close()
		c.stream = nil
	}
	if c.chunks != nil {
		close(c.chunks)
	}

	out := make(state.AudioBuffer, len(c.accumulated))
	copy(out, c.accumulated)
	if len(out) == 0 {
		return out, voxerr.ErrEmptyRecording
	}
	return out, nil
}

// IsRecording reports whether a session is in progress.
func (c *Capture) IsRecording() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recording
}
