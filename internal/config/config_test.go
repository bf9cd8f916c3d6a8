package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultValues(t *testing.T) {
	cfg := Default()
	if cfg.Hotkey.Key != "SCROLLLOCK" {
		t.Errorf("default hotkey = %q, want SCROLLLOCK", cfg.Hotkey.Key)
	}
	if cfg.Audio.SampleRate != 16000 {
		t.Errorf("default sample rate = %d, want 16000", cfg.Audio.SampleRate)
	}
	if cfg.Output.Mode != "type" {
		t.Errorf("default output mode = %q, want type", cfg.Output.Mode)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(filepath.Join(dir, "nonexistent.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Hotkey.Key != "SCROLLLOCK" {
		t.Errorf("expected default config, got hotkey=%q", cfg.Hotkey.Key)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	contents := `
state_file = "disabled"

[hotkey]
key = "F13"
mode = "toggle"

[audio]
device = "USB Mic"
sample_rate = 16000
max_duration_secs = 30

[whisper]
engine = "whisper"
mode = "local"
model = "small.en"
language = ["en"]

[output]
mode = "clipboard"
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Hotkey.Key != "F13" {
		t.Errorf("hotkey.key = %q, want F13", cfg.Hotkey.Key)
	}
	if cfg.Hotkey.Mode != Toggle {
		t.Errorf("hotkey.mode = %q, want toggle", cfg.Hotkey.Mode)
	}
	if cfg.Output.Mode != "clipboard" {
		t.Errorf("output.mode = %q, want clipboard", cfg.Output.Mode)
	}
	if cfg.StateFile != "disabled" {
		t.Errorf("state_file = %q, want disabled", cfg.StateFile)
	}
}

func TestEnvOverridesTakePriority(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(`[hotkey]
key = "F13"
`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("VOXTYPE_HOTKEY", "SCROLLLOCK")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Hotkey.Key != "SCROLLLOCK" {
		t.Errorf("env override not applied: hotkey.key = %q", cfg.Hotkey.Key)
	}
}

func TestResolveStateFilePath(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")
	if got := ResolveStateFilePath("disabled"); got != "" {
		t.Errorf("disabled should resolve to empty path, got %q", got)
	}
	if got := ResolveStateFilePath("auto"); got != "/run/user/1000/voxtype/state" {
		t.Errorf("auto resolved to %q", got)
	}
	if got := ResolveStateFilePath("/custom/path"); got != "/custom/path" {
		t.Errorf("explicit path should pass through, got %q", got)
	}
}

func TestAvailableModels(t *testing.T) {
	w := WhisperConfig{
		Model:           "base.en",
		SecondaryModel:  "tiny.en",
		AvailableModels: []string{"small.en"},
	}
	set := w.AvailableModels()
	for _, want := range []string{"base.en", "tiny.en", "small.en"} {
		if !set[want] {
			t.Errorf("expected %q in available model set", want)
		}
	}
	if set["large"] {
		t.Errorf("unexpected model in available set")
	}
}

func TestParseTypingSpeedBounds(t *testing.T) {
	cases := []struct {
		in      string
		wantErr bool
	}{
		{"60", false},
		{"10", false},
		{"200", false},
		{"9", true},
		{"201", true},
		{"abc", true},
	}
	for _, c := range cases {
		_, err := ParseTypingSpeed(c.in)
		if (err != nil) != c.wantErr {
			t.Errorf("ParseTypingSpeed(%q): err=%v, wantErr=%v", c.in, err, c.wantErr)
		}
	}
}

func TestPrimaryLanguage(t *testing.T) {
	if got := (WhisperConfig{}).PrimaryLanguage(); got != "auto" {
		t.Errorf("empty language list: got %q, want auto", got)
	}
	if got := (WhisperConfig{Language: []string{"es", "en"}}).PrimaryLanguage(); got != "es" {
		t.Errorf("got %q, want es", got)
	}
}
