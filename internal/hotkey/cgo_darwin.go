//go:build darwin

package hotkey

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework CoreGraphics -framework ApplicationServices

#include <CoreGraphics/CoreGraphics.h>
#include <ApplicationServices/ApplicationServices.h>

static int vx_key_state(CGKeyCode code) {
    return CGEventSourceKeyState(kCGEventSourceStateHIDSystemState, code) ? 1 : 0;
}

static CGEventFlags vx_flags_state() {
    return CGEventSourceFlagsState(kCGEventSourceStateHIDSystemState);
}

static int vx_accessibility_trusted() {
    return AXIsProcessTrusted() ? 1 : 0;
}
*/
import "C"

import (
	"log"
	"time"

	"github.com/peteonrails/voxtype/internal/state"
	"github.com/peteonrails/voxtype/internal/voxerr"
)

// pollInterval is the modifier-state poll cadence. CGEventTap would avoid
// polling entirely, but requires an event-loop-owning run loop this daemon
// doesn't otherwise need, so polling wins for a configured arbitrary key.
const pollInterval = 15 * time.Millisecond

// macKeyCodes maps the subset of our canonical key names that have stable
// macOS virtual keycodes (Carbon's HIToolbox/Events.h numbering).
var macKeyCodes = map[string]C.CGKeyCode{
	"F13": 105, "F14": 107, "F15": 113, "F16": 106, "F17": 64,
	"F18": 79, "F19": 80, "F20": 90,
	"F1": 122, "F2": 120, "F3": 99, "F4": 118, "F5": 96, "F6": 97,
	"F7": 98, "F8": 100, "F9": 101, "F10": 109, "F11": 103, "F12": 111,
	"SPACE": 49, "ENTER": 36, "ESC": 53, "TAB": 48,
	"A": 0, "S": 1, "D": 2, "F": 3, "H": 4, "G": 5, "Z": 6, "X": 7,
	"C": 8, "V": 9, "B": 11, "Q": 12, "W": 13, "E": 14, "R": 15,
	"Y": 16, "T": 17, "1": 18, "2": 19, "3": 20, "4": 21, "6": 22,
	"5": 23, "9": 25, "7": 26, "8": 28, "0": 29, "O": 31, "U": 32,
	"I": 34, "P": 35, "L": 37, "J": 38, "K": 40, "N": 45, "M": 46,
}

var macModifierFlags = map[string]C.CGEventFlags{
	"LEFTSHIFT": C.kCGEventFlagMaskShift, "RIGHTSHIFT": C.kCGEventFlagMaskShift,
	"LEFTCTRL": C.kCGEventFlagMaskControl, "RIGHTCTRL": C.kCGEventFlagMaskControl,
	"LEFTALT": C.kCGEventFlagMaskAlternate, "RIGHTALT": C.kCGEventFlagMaskAlternate,
	"LEFTMETA": C.kCGEventFlagMaskCommand, "RIGHTMETA": C.kCGEventFlagMaskCommand,
}

// DarwinListener polls CoreGraphics' HID event source for the configured
// key and modifiers described by an arbitrary Spec.
type DarwinListener struct {
	spec     Spec
	keyCode  C.CGKeyCode
	modFlags []C.CGEventFlags

	stopCh chan struct{}
	out    chan state.HotkeyEvent
}

// New builds the macOS Listener for spec.
func New(spec Spec) (Listener, error) {
	return NewDarwinListener(spec)
}

// NewDarwinListener builds a listener for spec, failing if the configured
// key has no known macOS virtual keycode, or if the process lacks the
// Accessibility permission CGEventSourceKeyState requires.
func NewDarwinListener(spec Spec) (*DarwinListener, error) {
	name := KeyName(spec.Key)
	code, ok := macKeyCodes[name]
	if !ok {
		return nil, voxerr.ErrUnknownKey
	}
	if C.vx_accessibility_trusted() == 0 {
		return nil, voxerr.WithRemediation(voxerr.ErrDeviceAccess,
			"grant Accessibility permission to voxtype in System Settings > Privacy & Security > Accessibility, then restart")
	}

	mods := make([]C.CGEventFlags, 0, len(spec.Modifiers))
	for _, m := range spec.Modifiers {
		if flag, ok := macModifierFlags[KeyName(m)]; ok {
			mods = append(mods, flag)
		}
	}

	return &DarwinListener{spec: spec, keyCode: code, modFlags: mods}, nil
}

func (l *DarwinListener) Start() (<-chan state.HotkeyEvent, error) {
	l.stopCh = make(chan struct{})
	l.out = make(chan state.HotkeyEvent, eventChanCapacity)
	go l.poll()
	return l.out, nil
}

func (l *DarwinListener) poll() {
	wasPressed := false
	for {
		select {
		case <-l.stopCh:
			close(l.out)
			return
		default:
		}

		pressed := C.vx_key_state(l.keyCode) == 1 && l.modifiersSatisfied()

		if pressed && !wasPressed {
			wasPressed = true
			select {
			case l.out <- state.HotkeyEvent{Kind: state.Pressed}:
			default:
				log.Print("[HOTKEY] event channel full, dropping Pressed")
			}
		} else if !pressed && wasPressed {
			wasPressed = false
			select {
			case l.out <- state.HotkeyEvent{Kind: state.Released}:
			default:
				log.Print("[HOTKEY] event channel full, dropping Released")
			}
		}

		time.Sleep(pollInterval)
	}
}

func (l *DarwinListener) modifiersSatisfied() bool {
	if len(l.modFlags) == 0 {
		return true
	}
	flags := C.vx_flags_state()
	for _, want := range l.modFlags {
		if flags&want == 0 {
			return false
		}
	}
	return true
}

func (l *DarwinListener) Stop() {
	select {
	case <-l.stopCh:
	default:
		close(l.stopCh)
	}
}
