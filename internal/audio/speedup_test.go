package audio

import (
	"testing"
	"time"
)

func TestSpeedupFactorSkippedUnderThreshold(t *testing.T) {
	_, ok := SpeedupFactor(20 * time.Second)
	if ok {
		t.Error("expected speedup to be skipped for durations <= 29s")
	}
	_, ok = SpeedupFactor(29 * time.Second)
	if ok {
		t.Error("expected speedup to be skipped at exactly 29s")
	}
}

func TestSpeedupFactorJustOverThreshold(t *testing.T) {
	// 30s: ceil(30/58) = 1 window, factor = 30/29 ~= 1.034
	factor, ok := SpeedupFactor(30 * time.Second)
	if !ok {
		t.Fatal("expected speedup to apply for 30s")
	}
	if factor < 1.0 || factor > 1.1 {
		t.Errorf("factor = %v, want ~1.034", factor)
	}
}

func TestSpeedupFactorLongRecording(t *testing.T) {
	// 120s: ceil(120/58) = 3 windows, factor = 120/(3*29) = 1.379...
	factor, ok := SpeedupFactor(120 * time.Second)
	if !ok {
		t.Fatal("expected speedup to apply for 120s")
	}
	want := 120.0 / (3 * 29.0)
	if diff := factor - want; diff > 0.01 || diff < -0.01 {
		t.Errorf("factor = %v, want %v", factor, want)
	}
}

func TestSpeedupFactorNeverExceedsMax(t *testing.T) {
	for secs := 30; secs < 6000; secs += 7 {
		factor, ok := SpeedupFactor(time.Duration(secs) * time.Second)
		if ok && factor > maxSpeedupFactor {
			t.Errorf("duration %ds produced factor %v > max %v", secs, factor, maxSpeedupFactor)
		}
	}
}
