package output

import (
	"context"
	"errors"
	"testing"

	"github.com/peteonrails/voxtype/internal/config"
)

func TestChainModeClipboard(t *testing.T) {
	chain := Chain(config.OutputConfig{Mode: "clipboard"})
	if len(chain) != 1 {
		t.Fatalf("got %d methods, want 1", len(chain))
	}
	if chain[0].Name() != "clipboard" {
		t.Errorf("method = %q, want clipboard", chain[0].Name())
	}
}

func TestChainModePaste(t *testing.T) {
	chain := Chain(config.OutputConfig{Mode: "paste", PasteKeystroke: "ctrl+v"})
	if len(chain) != 1 {
		t.Fatalf("got %d methods, want 1", len(chain))
	}
}

func TestChainModeTypeWithFallback(t *testing.T) {
	chain := Chain(config.OutputConfig{Mode: "type", FallbackToClipboard: true})
	if len(chain) != 3 {
		t.Fatalf("got %d methods, want 3 (wtype, ydotool, clipboard)", len(chain))
	}
	if chain[2].Name() != "clipboard" {
		t.Errorf("last method = %q, want clipboard", chain[2].Name())
	}
}

func TestChainModeTypeWithoutFallback(t *testing.T) {
	chain := Chain(config.OutputConfig{Mode: "type", FallbackToClipboard: false})
	if len(chain) != 2 {
		t.Fatalf("got %d methods, want 2 (wtype, ydotool)", len(chain))
	}
}

// fakeMethod lets Deliver's fallback logic be tested without touching real
// subprocesses.
type fakeMethod struct {
	name      string
	available bool
	err       error
	called    *bool
}

func (f *fakeMethod) Name() string { return f.name }
func (f *fakeMethod) Available(ctx context.Context) bool { return f.available }
func (f *fakeMethod) Output(ctx context.Context, text string) error {
	if f.called != nil {
		*f.called = true
	}
	return f.err
}

func TestDeliverSkipsUnavailableMethods(t *testing.T) {
	called := false
	chain := []Method{
		&fakeMethod{name: "unavailable", available: false},
		&fakeMethod{name: "available", available: true, called: &called},
	}
	if err := Deliver(context.Background(), chain, "hello"); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if !called {
		t.Error("expected the available method to have been invoked")
	}
}

func TestDeliverFallsBackOnFailure(t *testing.T) {
	calledSecond := false
	chain := []Method{
		&fakeMethod{name: "first", available: true, err: errors.New("boom")},
		&fakeMethod{name: "second", available: true, called: &calledSecond},
	}
	if err := Deliver(context.Background(), chain, "hello"); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if !calledSecond {
		t.Error("expected fallback to the second method")
	}
}

func TestDeliverReturnsErrorWhenAllFail(t *testing.T) {
	chain := []Method{
		&fakeMethod{name: "first", available: true, err: errors.New("boom")},
		&fakeMethod{name: "second", available: false},
	}
	if err := Deliver(context.Background(), chain, "hello"); err == nil {
		t.Error("expected error when every method fails or is unavailable")
	}
}
