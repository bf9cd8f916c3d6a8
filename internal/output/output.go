// Package output implements the text injection layer: a small OutputMethod
// interface, three concrete methods (native Wayland typing via wtype,
// uinput-based typing via ydotool, and clipboard copy with or without an
// auto-paste keystroke), and a fallback chain that tries each configured
// method in order until one succeeds.
package output

import (
	"context"
	"fmt"
	"log"

	"github.com/peteonrails/voxtype/internal/config"
	"github.com/peteonrails/voxtype/internal/voxerr"
)

// Method is one way of delivering transcribed text to the focused window.
type Method interface {
	// Output delivers text. ctx bounds how long the underlying subprocess
	// is allowed to run.
	Output(ctx context.Context, text string) error
	// Available reports whether this method's dependencies (binary on PATH,
	// required daemon, display session type) are currently satisfied.
	Available(ctx context.Context) bool
	// Name identifies the method for logging.
	Name() string
}

// Chain builds the fallback chain named by cfg.Mode: "type" tries wtype
// then ydotool then (if enabled) clipboard; "clipboard" is clipboard-only;
// "paste" is clipboard+keystroke-only, with no fallback.
func Chain(cfg config.OutputConfig) []Method {
	switch cfg.Mode {
	case "clipboard":
		return []Method{NewClipboard()}
	case "paste":
		return []Method{NewPaste(cfg.PasteKeystroke, cfg.TypeDelayMs)}
	default: // "type"
		chain := []Method{
			NewWtype(),
			NewYdotool(cfg.TypeDelayMs),
		}
		if cfg.FallbackToClipboard {
			chain = append(chain, NewClipboard())
		}
		return chain
	}
}

// Deliver tries each method in chain in order, returning the first success.
// A method that reports itself unavailable is skipped without being tried.
func Deliver(ctx context.Context, chain []Method, text string) error {
	for _, m := range chain {
		if !m.Available(ctx) {
			log.Printf("[OUTPUT] %s not available, trying next", m.Name())
			continue
		}
		if err := m.Output(ctx, text); err != nil {
			log.Printf("[OUTPUT] %s failed: %v, trying next", m.Name(), err)
			continue
		}
		return nil
	}
	return fmt.Errorf("%w: tried %d method(s)", voxerr.ErrAllMethodsFailed, len(chain))
}
