package main

import (
	"time"

	"github.com/peteonrails/voxtype/internal/app"
	"github.com/peteonrails/voxtype/internal/audio"
)

// newRealCaptureFactory adapts audio.NewCapture to app.CaptureFactory.
func newRealCaptureFactory() app.CaptureFactory {
	return func(maxDuration time.Duration) app.Capturer {
		return audio.NewCapture(maxDuration)
	}
}
