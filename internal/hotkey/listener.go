// Package hotkey listens for the configured push-to-talk key at the kernel
// level (Linux evdev) or via the platform modifier-state API (macOS), built
// around an arbitrary configured key/modifier/cancel-key/model-modifier
// combination rather than any one fixed chord.
package hotkey

import (
	"fmt"

	"github.com/peteonrails/voxtype/internal/config"
	"github.com/peteonrails/voxtype/internal/state"
)

// Listener produces state.HotkeyEvent values for the configured hotkey.
// The evdev and darwin implementations buffer Start's channel at capacity 32
// and close it when Stop is called; NoopListener's channel is unbuffered and
// never closed.
type Listener interface {
	Start() (<-chan state.HotkeyEvent, error)
	Stop()
}

// Spec is the parsed, platform-independent hotkey configuration a Listener
// is built from.
type Spec struct {
	Key           KeyCode
	Modifiers     []KeyCode
	CancelKey     KeyCode
	HasCancelKey  bool
	ModelModifier KeyCode
	HasModelMod   bool
	SecondaryModel string
}

// NewSpec parses a config.HotkeyConfig into a Spec, failing fast on unknown
// key names: startup fails loudly on config errors.
func NewSpec(cfg config.HotkeyConfig, secondaryModel string) (Spec, error) {
	key, err := ParseKeyName(cfg.Key)
	if err != nil {
		return Spec{}, fmt.Errorf("hotkey.key: %w", err)
	}

	mods := make([]KeyCode, 0, len(cfg.Modifiers))
	for _, m := range cfg.Modifiers {
		code, err := ParseKeyName(m)
		if err != nil {
			return Spec{}, fmt.Errorf("hotkey.modifiers: %w", err)
		}
		mods = append(mods, code)
	}

	spec := Spec{Key: key, Modifiers: mods, SecondaryModel: secondaryModel}

	if cfg.CancelKey != "" {
		code, err := ParseKeyName(cfg.CancelKey)
		if err != nil {
			return Spec{}, fmt.Errorf("hotkey.cancel_key: %w", err)
		}
		spec.CancelKey = code
		spec.HasCancelKey = true
	}

	if cfg.ModelModifier != "" {
		code, err := ParseKeyName(cfg.ModelModifier)
		if err != nil {
			return Spec{}, fmt.Errorf("hotkey.model_modifier: %w", err)
		}
		spec.ModelModifier = code
		spec.HasModelMod = true
	}

	return spec, nil
}

// eventChanCapacity bounds the hotkey-event channel.
const eventChanCapacity = 32

// NoopListener is the Listener used when hotkey.enabled is false: it opens
// no device and never produces an event, so recording is driven entirely by
// the external control surface (`voxtype record start|stop|toggle|cancel`).
type NoopListener struct{}

// Start returns a channel that is never written to and never closed (Stop is
// a no-op); the daemon's event loop simply never receives from it.
func (NoopListener) Start() (<-chan state.HotkeyEvent, error) {
	return make(chan state.HotkeyEvent), nil
}

func (NoopListener) Stop() {}
