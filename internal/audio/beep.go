package audio

import (
	"log"

	"github.com/gen2brain/beeep"
)

// Feedback kinds: the recording-start/stop moments an optional feedback
// sound can play for.
const (
	FeedbackStart = "start"
	FeedbackStop  = "stop"
)

// PlayFeedback plays a short tone for kind. beeep picks the right backend
// per platform (its own fallback chain); a failure here is never fatal to
// the recording session, just logged.
func PlayFeedback(kind string) {
	switch kind {
	case FeedbackStart:
		if err := beeep.Beep(beeep.DefaultFreq, beeep.DefaultDuration/2); err != nil {
			log.Printf("[AUDIO] feedback beep failed: %v", err)
		}
	case FeedbackStop:
		if err := beeep.Beep(beeep.DefaultFreq*2, beeep.DefaultDuration/3); err != nil {
			log.Printf("[AUDIO] feedback beep failed: %v", err)
		}
	}
}
