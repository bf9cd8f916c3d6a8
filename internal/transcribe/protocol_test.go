package transcribe

import (
	"bufio"
	"bytes"
	"testing"
)

func TestAudioFrameRoundTrip(t *testing.T) {
	samples := []float32{0, 0.5, -0.5, 1, -1, 0.25}

	var buf bytes.Buffer
	if err := WriteAudioFrame(&buf, samples); err != nil {
		t.Fatalf("WriteAudioFrame: %v", err)
	}

	got, err := ReadAudioFrame(&buf)
	if err != nil {
		t.Fatalf("ReadAudioFrame: %v", err)
	}
	if len(got) != len(samples) {
		t.Fatalf("got %d samples, want %d", len(got), len(samples))
	}
	for i := range samples {
		if got[i] != samples[i] {
			t.Errorf("sample %d = %v, want %v", i, got[i], samples[i])
		}
	}
}

func TestAudioFrameEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteAudioFrame(&buf, nil); err != nil {
		t.Fatalf("WriteAudioFrame: %v", err)
	}
	got, err := ReadAudioFrame(&buf)
	if err != nil {
		t.Fatalf("ReadAudioFrame: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d samples, want 0", len(got))
	}
}

func TestAudioFrameRejectsOversizedCount(t *testing.T) {
	var buf bytes.Buffer
	// Write a sample count well above MaxWorkerSamples with no payload.
	countBuf := []byte{0xff, 0xff, 0xff, 0x7f}
	buf.Write(countBuf)

	if _, err := ReadAudioFrame(&buf); err == nil {
		t.Error("expected error for oversized sample count")
	}
}

func TestResponseRoundTripOK(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteResponse(&buf, OKResponse("hello world")); err != nil {
		t.Fatalf("WriteResponse: %v", err)
	}

	resp, err := ReadResponse(bufio.NewReader(&buf))
	if err != nil {
		t.Fatalf("ReadResponse: %v", err)
	}
	if !resp.OK {
		t.Error("expected OK response")
	}
	if resp.Text == nil || *resp.Text != "hello world" {
		t.Errorf("text = %v, want \"hello world\"", resp.Text)
	}
}

func TestResponseRoundTripError(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteResponse(&buf, ErrResponse("model load failed")); err != nil {
		t.Fatalf("WriteResponse: %v", err)
	}

	resp, err := ReadResponse(bufio.NewReader(&buf))
	if err != nil {
		t.Fatalf("ReadResponse: %v", err)
	}
	if resp.OK {
		t.Error("expected non-OK response")
	}
	if resp.Error == nil || *resp.Error != "model load failed" {
		t.Errorf("error = %v, want \"model load failed\"", resp.Error)
	}
}
