package output

import (
	"fmt"
	"strings"

	"github.com/peteonrails/voxtype/internal/hotkey"
)

// keystroke is a parsed paste-keystroke string like "ctrl+v" or
// "ctrl+shift+v": the last '+'-separated token is the key, everything
// before it is a modifier, pressed in order and released in reverse order.
type keystroke struct {
	modifiers []string
	key       string
}

// parseKeystroke parses s, lowercasing every token.
func parseKeystroke(s string) (keystroke, error) {
	parts := strings.Split(s, "+")
	for i := range parts {
		parts[i] = strings.ToLower(strings.TrimSpace(parts[i]))
	}
	for _, p := range parts {
		if p == "" {
			return keystroke{}, fmt.Errorf("invalid keystroke %q: empty token", s)
		}
	}

	if len(parts) == 1 {
		return keystroke{key: parts[0]}, nil
	}
	return keystroke{modifiers: parts[:len(parts)-1], key: parts[len(parts)-1]}, nil
}

// wtypeArgs converts the keystroke to wtype's -M/-k/-m argument sequence:
// press every modifier, tap the key, release modifiers in reverse order.
func (k keystroke) wtypeArgs() []string {
	args := make([]string, 0, len(k.modifiers)*2*2+2)
	for _, mod := range k.modifiers {
		args = append(args, "-M", mod)
	}
	args = append(args, "-k", k.key)
	for i := len(k.modifiers) - 1; i >= 0; i-- {
		args = append(args, "-m", k.modifiers[i])
	}
	return args
}

// ydotoolArgs converts the keystroke to ydotool's "key" subcommand format:
// evdev code ":1" for press, ":0" for release, modifiers pressed first and
// released last (in reverse order), matching wtypeArgs's press/release
// ordering.
func (k keystroke) ydotoolArgs() ([]string, error) {
	modCodes := make([]hotkey.KeyCode, 0, len(k.modifiers))
	for _, mod := range k.modifiers {
		code, err := hotkey.ParseKeyName(modifierAlias(mod))
		if err != nil {
			return nil, fmt.Errorf("unknown modifier %q: %w", mod, err)
		}
		modCodes = append(modCodes, code)
	}
	keyCode, err := hotkey.ParseKeyName(k.key)
	if err != nil {
		return nil, fmt.Errorf("unknown key %q: %w", k.key, err)
	}

	args := make([]string, 0, len(modCodes)*2+2)
	for _, code := range modCodes {
		args = append(args, fmt.Sprintf("%d:1", code))
	}
	args = append(args, fmt.Sprintf("%d:1", keyCode), fmt.Sprintf("%d:0", keyCode))
	for i := len(modCodes) - 1; i >= 0; i-- {
		args = append(args, fmt.Sprintf("%d:0", modCodes[i]))
	}
	return args, nil
}

// modifierAlias maps the short modifier names users write in paste_keystroke
// ("ctrl", "shift", "alt", "super") to the left-side key name hotkey.keyTable
// knows, since evdev has no bare "ctrl" key, only LEFTCTRL/RIGHTCTRL.
func modifierAlias(name string) string {
	switch name {
	case "ctrl", "control":
		return "LEFTCTRL"
	case "shift":
		return "LEFTSHIFT"
	case "alt":
		return "LEFTALT"
	case "super", "meta", "win":
		return "LEFTMETA"
	default:
		return name
	}
}
