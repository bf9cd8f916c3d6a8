package audio

import (
	"errors"
	"testing"
	"time"

	"github.com/peteonrails/voxtype/internal/state"
	"github.com/peteonrails/voxtype/internal/voxerr"
)

func TestStopWhenNotRecordingIsNoop(t *testing.T) {
	c := NewCapture(0)
	buf, err := c.Stop()
	if buf != nil || err != nil {
		t.Errorf("Stop() on an idle capture = (%v, %v), want (nil, nil)", buf, err)
	}
}

// startFakeSession puts a Capture into the same internal state Start would,
// without opening a real PortAudio stream, so Stop's teardown/error paths
// can be exercised directly.
func startFakeSession(c *Capture) {
	c.recording = true
	c.stopChan = make(chan struct{})
}

func TestStopWithNoSamplesReturnsEmptyRecording(t *testing.T) {
	c := NewCapture(0)
	startFakeSession(c)

	buf, err := c.Stop()
	if !errors.Is(err, voxerr.ErrEmptyRecording) {
		t.Errorf("err = %v, want ErrEmptyRecording", err)
	}
	if len(buf) != 0 {
		t.Errorf("buf = %v, want empty", buf)
	}
}

func TestStopWithSamplesReturnsBuffer(t *testing.T) {
	c := NewCapture(0)
	startFakeSession(c)
	c.accumulated = state.AudioBuffer{0.1, 0.2, 0.3}

	buf, err := c.Stop()
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if len(buf) != 3 {
		t.Errorf("len(buf) = %d, want 3", len(buf))
	}
}

func TestStopTimesOutIfTeardownHangs(t *testing.T) {
	c := NewCapture(0)
	startFakeSession(c)
	c.accumulated = state.AudioBuffer{0.1}
	c.wg.Add(1) // never Done: simulates a readLoop goroutine stuck past the bound

	start := time.Now()
	buf, err := c.Stop()
	elapsed := time.Since(start)

	if !errors.Is(err, voxerr.ErrTimeout) {
		t.Errorf("err = %v, want ErrTimeout", err)
	}
	if buf != nil {
		t.Errorf("buf = %v, want nil on timeout", buf)
	}
	if elapsed < stopTeardownBound {
		t.Errorf("Stop returned after %v, want at least %v", elapsed, stopTeardownBound)
	}
	c.wg.Done() // let the leaked goroutine's counter settle for future GC of this test
}
