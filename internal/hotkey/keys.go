package hotkey

import (
	"fmt"
	"strings"

	"github.com/peteonrails/voxtype/internal/voxerr"
)

// KeyCode is a Linux evdev key code (linux/input-event-codes.h numbering),
// used as the canonical key identifier across platforms; the darwin backend
// maps a subset of these onto macOS virtual keycodes.
type KeyCode uint16

// keyTable covers the keys a hotkey/cancel_key/model_modifier configuration
// realistically names: letters, digits, function keys, the lock keys, and
// the modifier keys.
var keyTable = map[string]KeyCode{
	"ESC": 1,
	"1": 2, "2": 3, "3": 4, "4": 5, "5": 6, "6": 7, "7": 8, "8": 9, "9": 10, "0": 11,
	"MINUS": 12, "EQUAL": 13, "BACKSPACE": 14, "TAB": 15,
	"Q": 16, "W": 17, "E": 18, "R": 19, "T": 20, "Y": 21, "U": 22, "I": 23, "O": 24, "P": 25,
	"LEFTBRACE": 26, "RIGHTBRACE": 27, "ENTER": 28, "LEFTCTRL": 29,
	"A": 30, "S": 31, "D": 32, "F": 33, "G": 34, "H": 35, "J": 36, "K": 37, "L": 38,
	"SEMICOLON": 39, "APOSTROPHE": 40, "GRAVE": 41,
	"LEFTSHIFT": 42, "BACKSLASH": 43,
	"Z": 44, "X": 45, "C": 46, "V": 47, "B": 48, "N": 49, "M": 50,
	"COMMA": 51, "DOT": 52, "SLASH": 53, "RIGHTSHIFT": 54,
	"KPASTERISK": 55, "LEFTALT": 56, "SPACE": 57, "CAPSLOCK": 58,
	"F1": 59, "F2": 60, "F3": 61, "F4": 62, "F5": 63, "F6": 64,
	"F7": 65, "F8": 66, "F9": 67, "F10": 68,
	"NUMLOCK": 69, "SCROLLLOCK": 70,
	"F11": 87, "F12": 88,
	"KPENTER": 96, "RIGHTCTRL": 97, "KPSLASH": 98, "RIGHTALT": 100,
	"HOME": 102, "UP": 103, "PAGEUP": 104, "LEFT": 105, "RIGHT": 106,
	"END": 107, "DOWN": 108, "PAGEDOWN": 109, "INSERT": 110, "DELETE": 111,
	"LEFTMETA": 125, "RIGHTMETA": 126, "COMPOSE": 127,
	"F13": 183, "F14": 184, "F15": 185, "F16": 186, "F17": 187,
	"F18": 188, "F19": 189, "F20": 190, "F21": 191, "F22": 192,
	"F23": 193, "F24": 194,
}

var nameTable = func() map[KeyCode]string {
	m := make(map[KeyCode]string, len(keyTable))
	for name, code := range keyTable {
		m[code] = name
	}
	return m
}()

// modifierNames is the canonical modifier set IsModifierKey checks against.
// internal/output's "clear modifiers before typing" routine uses
// ModifierKeyNames instead, which lists these eight plus CAPSLOCK.
var modifierNames = map[string]bool{
	"LEFTSHIFT": true, "RIGHTSHIFT": true,
	"LEFTCTRL": true, "RIGHTCTRL": true,
	"LEFTALT": true, "RIGHTALT": true,
	"LEFTMETA": true, "RIGHTMETA": true,
}

// ModifierKeyNames returns the key names cleared before simulated typing:
// shift/ctrl/alt/meta plus capslock, best-effort.
func ModifierKeyNames() []string {
	return []string{
		"LEFTSHIFT", "RIGHTSHIFT", "LEFTCTRL", "RIGHTCTRL",
		"LEFTALT", "RIGHTALT", "LEFTMETA", "RIGHTMETA", "CAPSLOCK",
	}
}

// ParseKeyName normalizes a config key name (case/space/hyphen insensitive,
// optional "KEY_" prefix) to a KeyCode.
func ParseKeyName(name string) (KeyCode, error) {
	normalized := strings.TrimPrefix(strings.ToUpper(name), "KEY_")
	normalized = strings.NewReplacer("-", "", " ", "", "_", "").Replace(normalized)
	code, ok := keyTable[normalized]
	if !ok {
		return 0, fmt.Errorf("%w: %q", voxerr.ErrUnknownKey, name)
	}
	return code, nil
}

// KeyName returns the canonical name for a code, or "" if unknown.
func KeyName(code KeyCode) string {
	return nameTable[code]
}

// IsModifierKey reports whether name is one of the tracked modifier keys.
func IsModifierKey(name string) bool {
	return modifierNames[strings.ToUpper(name)]
}
