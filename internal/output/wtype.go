package output

import (
	"context"
	"fmt"
	"os"
	"os/exec"
)

// Wtype types text by invoking wtype, the Wayland-native virtual-keyboard
// tool and the primary "type" method: best Unicode/CJK support and no
// background daemon required, at the cost of only working under Wayland.
type Wtype struct{}

func NewWtype() *Wtype { return &Wtype{} }

func (w *Wtype) Name() string { return "wtype" }

// Available requires both the binary on PATH and a live Wayland session.
func (w *Wtype) Available(ctx context.Context) bool {
	if _, err := exec.LookPath("wtype"); err != nil {
		return false
	}
	return os.Getenv("WAYLAND_DISPLAY") != ""
}

func (w *Wtype) Output(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}
	cmd := exec.CommandContext(ctx, "wtype", text)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("wtype failed: %w: %s", err, string(out))
	}
	return nil
}
