package audio

import "testing"

func TestResampleSameRateIsNoop(t *testing.T) {
	in := []float32{1, 2, 3}
	out := Resample(in, 16000, 16000)
	if len(out) != 3 || out[0] != 1 || out[2] != 3 {
		t.Errorf("expected passthrough, got %v", out)
	}
}

func TestResampleDownsamplesLength(t *testing.T) {
	in := make([]float32, 48000)
	for i := range in {
		in[i] = 1.0
	}
	out := Resample(in, 48000, 16000)
	// allow rounding slop
	if out == nil || len(out) < 15900 || len(out) > 16100 {
		t.Errorf("len(out) = %d, want ~16000", len(out))
	}
	for _, v := range out {
		if v != 1.0 {
			t.Errorf("constant input should resample to a constant, got %v", v)
			break
		}
	}
}

func TestDownmixToMonoAverages(t *testing.T) {
	stereo := []float32{1.0, 3.0, 0.0, 2.0}
	mono := DownmixToMono(stereo, 2)
	want := []float32{2.0, 1.0}
	if len(mono) != len(want) {
		t.Fatalf("len(mono) = %d, want %d", len(mono), len(want))
	}
	for i := range want {
		if mono[i] != want[i] {
			t.Errorf("mono[%d] = %v, want %v", i, mono[i], want[i])
		}
	}
}

func TestDownmixToMonoPassthroughSingleChannel(t *testing.T) {
	in := []float32{1, 2, 3}
	out := DownmixToMono(in, 1)
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("mono passthrough mismatch at %d", i)
		}
	}
}

func TestInt32ToFloat32Range(t *testing.T) {
	samples := []int32{0, 1 << 30, -(1 << 30)}
	out := Int32ToFloat32(samples)
	for _, v := range out {
		if v < -1.5 || v > 1.5 {
			t.Errorf("converted sample out of expected range: %v", v)
		}
	}
	if out[0] != 0 {
		t.Errorf("zero sample should convert to 0, got %v", out[0])
	}
}
