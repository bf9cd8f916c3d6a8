// Package config loads voxtype's TOML configuration file and resolves its
// runtime/data/config directory layout, with an env-var override ahead of
// each platform default.
package config

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	configDirName  = "voxtype"
	configFileName = "config.toml"
)

// ActivationMode is the hotkey activation mode.
type ActivationMode string

const (
	PushToTalk ActivationMode = "push_to_talk"
	Toggle     ActivationMode = "toggle"
)

type HotkeyConfig struct {
	Key           string         `toml:"key"`
	Modifiers     []string       `toml:"modifiers"`
	CancelKey     string         `toml:"cancel_key"`
	ModelModifier string         `toml:"model_modifier"`
	Mode          ActivationMode `toml:"mode"`
	// Enabled gates whether the daemon opens a hotkey listener at all. When
	// false, Key may be empty; recording is driven entirely by the external
	// control surface (`voxtype record start|stop|toggle|cancel`).
	Enabled bool `toml:"enabled"`
}

type FeedbackConfig struct {
	Enabled bool    `toml:"enabled"`
	Theme   string  `toml:"theme"`
	Volume  float64 `toml:"volume"`
}

type AudioConfig struct {
	Device          string         `toml:"device"`
	SampleRate      int            `toml:"sample_rate"`
	MaxDurationSecs float64        `toml:"max_duration_secs"`
	Feedback        FeedbackConfig `toml:"feedback"`
	Speedup         bool           `toml:"speedup"`
}

// WhisperMode selects the local/cli/remote backend family.
type WhisperMode string

const (
	ModeLocal  WhisperMode = "local"
	ModeCli    WhisperMode = "cli"
	ModeRemote WhisperMode = "remote"
)

type WhisperConfig struct {
	Engine               string      `toml:"engine"` // "whisper", "moonshine", "sensevoice", "paraformer", "dolphin", "omnilingual", "fireredasr", "parakeet"
	Mode                 WhisperMode `toml:"mode"`
	Model                string      `toml:"model"`
	Language             []string    `toml:"language"`
	Translate            bool        `toml:"translate"`
	Threads              int         `toml:"threads"`
	GPUIsolation         bool        `toml:"gpu_isolation"`
	OnDemandLoading      bool        `toml:"on_demand_loading"`
	MaxLoadedModels      int         `toml:"max_loaded_models"`
	ColdModelTimeoutSecs int         `toml:"cold_model_timeout_secs"`
	SecondaryModel       string      `toml:"secondary_model"`
	AvailableModels      []string    `toml:"available_models"`
	RemoteEndpoint       string      `toml:"remote_endpoint"`
	EagerChunking        bool        `toml:"eager_chunking"`
	EagerChunkSecs       float64     `toml:"eager_chunk_secs"`
	EagerOverlapSecs     float64     `toml:"eager_overlap_secs"`
}

// PrimaryLanguage collapses a language array to its primary entry for the
// wire: exactly one language field. Empty/["auto"] means no language field
// should be sent.
func (w WhisperConfig) PrimaryLanguage() string {
	if len(w.Language) == 0 {
		return "auto"
	}
	return w.Language[0]
}

type PostProcessConfig struct {
	Command   string `toml:"command"`
	TimeoutMs int    `toml:"timeout_ms"`
}

type NotificationConfig struct {
	Enabled       bool `toml:"enabled"`
	OnStart       bool `toml:"on_start"`
	OnStop        bool `toml:"on_stop"`
	OnTranscribed bool `toml:"on_transcribed"`
}

type OutputConfig struct {
	Mode                string             `toml:"mode"` // "type", "clipboard", "paste"
	FallbackToClipboard bool               `toml:"fallback_to_clipboard"`
	TypeDelayMs         int                `toml:"type_delay_ms"`
	PasteKeystroke      string             `toml:"paste_keystroke"`
	PostProcess         PostProcessConfig  `toml:"post_process"`
	Notification        NotificationConfig `toml:"notification"`
}

type TextConfig struct {
	SpokenPunctuation bool              `toml:"spoken_punctuation"`
	Replacements      map[string]string `toml:"replacements"`
}

type StatusConfig struct {
	IconTheme string            `toml:"icon_theme"`
	Icons     map[string]string `toml:"icons"`
}

// Config is voxtype's root configuration, loaded from config.toml.
type Config struct {
	StateFile string        `toml:"state_file"` // "auto", "disabled", or explicit path
	Hotkey    HotkeyConfig  `toml:"hotkey"`
	Audio     AudioConfig   `toml:"audio"`
	Whisper   WhisperConfig `toml:"whisper"`
	Output    OutputConfig  `toml:"output"`
	Text      TextConfig    `toml:"text"`
	Status    StatusConfig  `toml:"status"`
}

// Default returns the built-in defaults, applied before the config file is
// read.
func Default() Config {
	return Config{
		StateFile: "auto",
		Hotkey: HotkeyConfig{
			Key:     "SCROLLLOCK",
			Mode:    PushToTalk,
			Enabled: true,
		},
		Audio: AudioConfig{
			Device:          "default",
			SampleRate:      16000,
			MaxDurationSecs: 60,
			Feedback:        FeedbackConfig{Enabled: true, Theme: "default", Volume: 0.7},
		},
		Whisper: WhisperConfig{
			Engine:               "whisper",
			Mode:                 ModeLocal,
			Model:                "base.en",
			Language:             []string{"en"},
			MaxLoadedModels:      2,
			ColdModelTimeoutSecs: 300,
			EagerChunkSecs:       5.0,
			EagerOverlapSecs:     0.5,
		},
		Output: OutputConfig{
			Mode:                "type",
			FallbackToClipboard: true,
			PasteKeystroke:      "ctrl+v",
			PostProcess:         PostProcessConfig{TimeoutMs: 30000},
			Notification:        NotificationConfig{Enabled: true},
		},
		Status: StatusConfig{IconTheme: "default"},
	}
}

func getConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, configDirName), nil
	}
	usr, err := user.Current()
	if err != nil {
		return "", err
	}
	return filepath.Join(usr.HomeDir, ".config", configDirName), nil
}

// GetConfigPath returns the full path to config.toml.
func GetConfigPath() (string, error) {
	dir, err := getConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// GetDataDir returns voxtype's data directory (<data_dir>); models live in
// its models/ subdirectory (see ModelPath).
func GetDataDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, configDirName), nil
	}
	usr, err := user.Current()
	if err != nil {
		return "", err
	}
	return filepath.Join(usr.HomeDir, ".local", "share", configDirName), nil
}

// GetMetricsDir returns the directory session metrics are stored under
// (<data_dir>/metrics/).
func GetMetricsDir() (string, error) {
	dataDir, err := GetDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, "metrics"), nil
}

// GetRuntimeDir resolves $XDG_RUNTIME_DIR, falling back to /tmp.
func GetRuntimeDir() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "voxtype")
	}
	return filepath.Join("/tmp", "voxtype")
}

// ResolveStateFilePath turns the "auto"/"disabled"/path tri-state into an
// actual path, or "" for disabled.
func ResolveStateFilePath(stateFile string) string {
	switch stateFile {
	case "", "auto":
		return filepath.Join(GetRuntimeDir(), "state")
	case "disabled":
		return ""
	default:
		return stateFile
	}
}

// GetLockPath returns the PID-lock path used for single-instance enforcement.
func GetLockPath() string {
	return filepath.Join(GetRuntimeDir(), "voxtype.lock")
}

// Load reads config.toml (if present) over the defaults, then applies
// VOXTYPE_* environment variable overrides. A missing config file is not
// an error: defaults apply.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		var err error
		path, err = GetConfigPath()
		if err != nil {
			return cfg, fmt.Errorf("config: resolve path: %w", err)
		}
	}

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return cfg, fmt.Errorf("config: stat %s: %w", path, err)
	}

	applyEnvOverrides(&cfg)
	return cfg, nil
}

// applyEnvOverrides layers VOXTYPE_HOTKEY, VOXTYPE_MODEL, VOXTYPE_OUTPUT_MODE
// on top of the file-loaded config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("VOXTYPE_HOTKEY"); v != "" {
		cfg.Hotkey.Key = v
	}
	if v := os.Getenv("VOXTYPE_MODEL"); v != "" {
		cfg.Whisper.Model = v
	}
	if v := os.Getenv("VOXTYPE_OUTPUT_MODE"); v != "" {
		cfg.Output.Mode = v
	}
}

// RemoteAPIKey resolves the bearer token for the remote backend: environment
// variable first, then a .env file, with no interactive-prompt fallback
// since the remote backend is optional, not load-bearing for daemon startup.
func RemoteAPIKey() string {
	if key := os.Getenv("VOXTYPE_WHISPER_API_KEY"); key != "" {
		return key
	}
	if err := godotenv.Load(); err == nil {
		if key := os.Getenv("VOXTYPE_WHISPER_API_KEY"); key != "" {
			return key
		}
	}
	return ""
}

// ModelPath resolves a short model name to a path under the data directory.
func ModelPath(engine, model string) (string, error) {
	if filepath.IsAbs(model) {
		return model, nil
	}
	dataDir, err := GetDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, "models", engine, model), nil
}

// AvailableModels returns the allowed model set: primary, secondary (if set),
// and any explicitly enumerated models.
func (w WhisperConfig) AvailableModels() map[string]bool {
	set := map[string]bool{w.Model: true}
	if w.SecondaryModel != "" {
		set[w.SecondaryModel] = true
	}
	for _, m := range w.AvailableModels {
		set[m] = true
	}
	return set
}

// ParseTypingSpeed validates a user-supplied WPM value against the
// supported 10-200 WPM range.
func ParseTypingSpeed(s string) (int, error) {
	speed, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid typing speed %q: must be a number", s)
	}
	if speed < 10 || speed > 200 {
		return 0, fmt.Errorf("typing speed must be between 10 and 200 WPM (got %d)", speed)
	}
	return speed, nil
}

// String renders the effective configuration as TOML, for `voxtype config`.
func (c Config) String() string {
	var sb strings.Builder
	enc := toml.NewEncoder(&sb)
	_ = enc.Encode(c)
	return sb.String()
}
