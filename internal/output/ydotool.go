package output

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"

	"github.com/peteonrails/voxtype/internal/hotkey"
)

// Ydotool types text via the ydotool uinput daemon, the fallback "type"
// method: works under X11, Wayland, and bare TTY sessions, but needs
// ydotoold running to own the uinput device.
type Ydotool struct {
	delayMs int
}

func NewYdotool(delayMs int) *Ydotool { return &Ydotool{delayMs: delayMs} }

func (y *Ydotool) Name() string { return "ydotool" }

// Available checks the binary is on PATH and that a no-op "type" call
// against the daemon succeeds, as a cheap "is ydotoold up" probe.
func (y *Ydotool) Available(ctx context.Context) bool {
	if _, err := exec.LookPath("ydotool"); err != nil {
		return false
	}
	cmd := exec.CommandContext(ctx, "ydotool", "type", "")
	return cmd.Run() == nil
}

func (y *Ydotool) Output(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}
	y.clearModifiers(ctx)

	args := []string{"type"}
	if y.delayMs > 0 {
		args = append(args, "-d", strconv.Itoa(y.delayMs))
	}
	args = append(args, text)

	cmd := exec.CommandContext(ctx, "ydotool", args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ydotool type failed: %w: %s", err, string(out))
	}
	return nil
}

// clearModifiers releases every tracked modifier key on the virtual uinput
// device before typing starts, so a stuck modifier held from the hotkey
// press (or from anything else) doesn't corrupt the typed text. Best-effort:
// ydotoold may already see these keys as up, so a failure here is ignored
// and typing goes ahead.
func (y *Ydotool) clearModifiers(ctx context.Context) {
	args := make([]string, 0, len(hotkey.ModifierKeyNames()))
	for _, name := range hotkey.ModifierKeyNames() {
		code, err := hotkey.ParseKeyName(name)
		if err != nil {
			continue
		}
		args = append(args, fmt.Sprintf("%d:0", code))
	}
	_ = y.sendKeys(ctx, args)
}

// sendKeys runs "ydotool key <args...>", shared by Ydotool's clearModifiers
// and Paste's keystroke-simulation path.
func (y *Ydotool) sendKeys(ctx context.Context, args []string) error {
	cmdArgs := append([]string{"key"}, args...)
	cmd := exec.CommandContext(ctx, "ydotool", cmdArgs...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ydotool key failed: %w: %s", err, string(out))
	}
	return nil
}
