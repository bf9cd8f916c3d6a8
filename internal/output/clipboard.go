package output

import (
	"context"

	"github.com/atotto/clipboard"
)

// Clipboard copies text to the system clipboard without attempting to
// paste it: the "clipboard" mode, and the last-resort entry in the default
// "type" chain.
type Clipboard struct{}

func NewClipboard() *Clipboard { return &Clipboard{} }

func (c *Clipboard) Name() string { return "clipboard" }

// Available is always true: clipboard.WriteAll surfaces its own failure
// (no clipboard utility installed) through Output instead.
func (c *Clipboard) Available(ctx context.Context) bool { return true }

func (c *Clipboard) Output(ctx context.Context, text string) error {
	return clipboard.WriteAll(text)
}
