package hotkey

import (
	"errors"
	"testing"

	"github.com/peteonrails/voxtype/internal/voxerr"
)

func TestParseKeyNameNormalizes(t *testing.T) {
	cases := []struct {
		in   string
		want KeyCode
	}{
		{"SCROLLLOCK", 70},
		{"scrolllock", 70},
		{"KEY_SCROLLLOCK", 70},
		{"F13", 183},
		{"left-ctrl", 29},
		{"left ctrl", 29},
		{"a", 30},
	}
	for _, c := range cases {
		got, err := ParseKeyName(c.in)
		if err != nil {
			t.Errorf("ParseKeyName(%q): %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("ParseKeyName(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestParseKeyNameUnknown(t *testing.T) {
	_, err := ParseKeyName("NOT_A_REAL_KEY")
	if !errors.Is(err, voxerr.ErrUnknownKey) {
		t.Errorf("expected ErrUnknownKey, got %v", err)
	}
}

func TestKeyNameRoundTrip(t *testing.T) {
	code, err := ParseKeyName("SPACE")
	if err != nil {
		t.Fatalf("ParseKeyName: %v", err)
	}
	if KeyName(code) != "SPACE" {
		t.Errorf("KeyName(%d) = %q, want SPACE", code, KeyName(code))
	}
}

func TestIsModifierKey(t *testing.T) {
	for _, name := range []string{"LEFTSHIFT", "rightctrl", "LeftAlt", "RIGHTMETA"} {
		if !IsModifierKey(name) {
			t.Errorf("IsModifierKey(%q) = false, want true", name)
		}
	}
	for _, name := range []string{"A", "SPACE", "F13"} {
		if IsModifierKey(name) {
			t.Errorf("IsModifierKey(%q) = true, want false", name)
		}
	}
}

func TestModifierKeyNamesIncludesCapsLock(t *testing.T) {
	names := ModifierKeyNames()
	found := false
	for _, n := range names {
		if n == "CAPSLOCK" {
			found = true
		}
	}
	if !found {
		t.Error("expected CAPSLOCK in ModifierKeyNames()")
	}
	if len(names) != 9 {
		t.Errorf("expected 9 modifier names (8 real modifiers + capslock), got %d", len(names))
	}
}
