package output

import (
	"context"
	"fmt"
	"log"
	"os/exec"
	"time"

	"github.com/atotto/clipboard"
)

// clipboardSettleDelay is the pause between setting the clipboard and
// simulating the paste keystroke, giving the compositor/X server time to
// observe the new clipboard contents.
const clipboardSettleDelay = 200 * time.Millisecond

// Paste copies text to the clipboard, then simulates the configured paste
// keystroke (default ctrl+v) via wtype or ydotool, sidestepping the
// non-US-keyboard-layout problems direct character typing runs into.
type Paste struct {
	keystroke keystroke
	delayMs   int
}

// NewPaste builds a Paste method for paste_keystroke, falling back to
// ctrl+v on a parse failure (logged rather than fatal).
func NewPaste(pasteKeystroke string, delayMs int) *Paste {
	if pasteKeystroke == "" {
		pasteKeystroke = "ctrl+v"
	}
	ks, err := parseKeystroke(pasteKeystroke)
	if err != nil {
		log.Printf("[OUTPUT] invalid paste_keystroke %q: %v, using ctrl+v", pasteKeystroke, err)
		ks, _ = parseKeystroke("ctrl+v")
	}
	return &Paste{keystroke: ks, delayMs: delayMs}
}

func (p *Paste) Name() string { return "paste (clipboard + keystroke)" }

// Available requires a keystroke-simulation backend (wtype or ydotool); it
// does not check for a clipboard utility, whose absence surfaces as an
// Output error from the clipboard write.
func (p *Paste) Available(ctx context.Context) bool {
	return wtypeAvailable() || ydotoolAvailable(ctx)
}

func wtypeAvailable() bool {
	if _, err := exec.LookPath("wtype"); err != nil {
		return false
	}
	return true
}

func ydotoolAvailable(ctx context.Context) bool {
	if _, err := exec.LookPath("ydotool"); err != nil {
		return false
	}
	return exec.CommandContext(ctx, "ydotool", "type", "").Run() == nil
}

func (p *Paste) Output(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}

	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("copy to clipboard: %w", err)
	}

	select {
	case <-time.After(clipboardSettleDelay):
	case <-ctx.Done():
		return ctx.Err()
	}

	return p.simulateKeystroke(ctx)
}

// simulateKeystroke tries wtype first (no daemon needed), falling back to
// ydotool.
func (p *Paste) simulateKeystroke(ctx context.Context) error {
	if wtypeAvailable() {
		cmd := exec.CommandContext(ctx, "wtype", p.keystroke.wtypeArgs()...)
		if out, err := cmd.CombinedOutput(); err == nil {
			return nil
		} else {
			log.Printf("[OUTPUT] wtype paste keystroke failed: %v: %s, trying ydotool", err, string(out))
		}
	}

	if ydotoolAvailable(ctx) {
		args, err := p.keystroke.ydotoolArgs()
		if err != nil {
			return fmt.Errorf("convert keystroke for ydotool: %w", err)
		}
		y := NewYdotool(p.delayMs)
		if err := y.sendKeys(ctx, args); err != nil {
			return fmt.Errorf("ydotool paste keystroke failed: %w", err)
		}
		return nil
	}

	return fmt.Errorf("neither wtype nor ydotool available for paste keystroke")
}
