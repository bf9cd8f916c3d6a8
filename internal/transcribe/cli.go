package transcribe

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/peteonrails/voxtype/internal/audio"
	"github.com/peteonrails/voxtype/internal/config"
	"github.com/peteonrails/voxtype/internal/state"
	"github.com/peteonrails/voxtype/internal/voxerr"
)

// CLITranscriber shells out to the whisper.cpp whisper-cli binary, a
// fallback for platforms where the in-process FFI bindings don't build:
// writes a temp WAV, invokes with --output-json and --output-file, joins the JSON
// segments back into one string.
type CLITranscriber struct {
	noopPreparer

	cliPath  string
	modelPath string
	language string
	translate bool
	threads  int
}

// NewCLITranscriber builds a transcriber for modelPath (already resolved via
// config.ModelPath or an absolute override).
func NewCLITranscriber(cfg config.WhisperConfig, modelPath string) *CLITranscriber {
	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
		if threads > 4 {
			threads = 4
		}
	}
	return &CLITranscriber{
		cliPath:   resolveCLIPath(""),
		modelPath: modelPath,
		language:  cfg.PrimaryLanguage(),
		translate: cfg.Translate,
		threads:   threads,
	}
}

// resolveCLIPath finds the whisper-cli binary: an explicit configuredPath
// wins, otherwise PATH and a handful of common install locations.
func resolveCLIPath(configuredPath string) string {
	if configuredPath != "" {
		return configuredPath
	}
	if p, err := exec.LookPath("whisper-cli"); err == nil {
		return p
	}
	if p, err := exec.LookPath("whisper"); err == nil {
		return p
	}
	candidates := []string{
		"./whisper-cli",
		"./build/bin/whisper-cli",
		"/usr/local/bin/whisper-cli",
		"/usr/bin/whisper-cli",
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".local/bin/whisper-cli"))
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return "whisper-cli"
}

type whisperCLIOutput struct {
	Transcription []struct {
		Text string `json:"text"`
	} `json:"transcription"`
}

// Transcribe writes samples to a temp WAV file, runs whisper-cli against it,
// and joins the resulting segments.
func (c *CLITranscriber) Transcribe(samples state.AudioBuffer) (string, error) {
	if len(samples) == 0 {
		return "", fmt.Errorf("%w: empty audio buffer", voxerr.ErrEmptyRecording)
	}
	if _, err := os.Stat(c.cliPath); err != nil {
		return "", fmt.Errorf("%w: whisper-cli not found at %s (install from ggerganov/whisper.cpp and put whisper-cli on PATH)", voxerr.ErrInferenceFailed, c.cliPath)
	}

	wavPath, err := audio.EncodeWAV(samples, audio.SampleRate)
	if err != nil {
		return "", fmt.Errorf("%w: encode wav: %v", voxerr.ErrInferenceFailed, err)
	}
	defer os.Remove(wavPath)

	outFile, err := os.CreateTemp("", "voxtype_out_*")
	if err != nil {
		return "", fmt.Errorf("%w: create output temp file: %v", voxerr.ErrInferenceFailed, err)
	}
	outBase := outFile.Name()
	outFile.Close()
	os.Remove(outBase)
	jsonPath := outBase + ".json"
	defer os.Remove(jsonPath)

	args := []string{
		"--model", c.modelPath,
		"--file", wavPath,
		"--output-json",
		"--output-file", outBase,
		"--threads", strconv.Itoa(c.threads),
		"--no-prints",
	}
	if c.language != "" && c.language != "auto" {
		args = append(args, "--language", c.language)
	}
	if c.translate {
		args = append(args, "--translate")
	}

	cmd := exec.Command(c.cliPath, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("%w: whisper-cli failed: %v: %s", voxerr.ErrInferenceFailed, err, string(output))
	}

	jsonContent, err := os.ReadFile(jsonPath)
	if err != nil {
		return "", fmt.Errorf("%w: read whisper-cli output: %v", voxerr.ErrInferenceFailed, err)
	}

	var parsed whisperCLIOutput
	if err := json.Unmarshal(jsonContent, &parsed); err != nil {
		return "", fmt.Errorf("%w: parse whisper-cli output: %v", voxerr.ErrInferenceFailed, err)
	}

	segments := make([]string, 0, len(parsed.Transcription))
	for _, seg := range parsed.Transcription {
		segments = append(segments, strings.TrimSpace(seg.Text))
	}
	return trimResult(strings.Join(segments, " ")), nil
}
