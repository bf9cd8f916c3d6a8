package transcribe

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/peteonrails/voxtype/internal/audio"
	"github.com/peteonrails/voxtype/internal/config"
	"github.com/peteonrails/voxtype/internal/state"
	"github.com/peteonrails/voxtype/internal/voxerr"
)

// defaultRemoteTimeout is the remote request timeout; no config key
// overrides it.
const defaultRemoteTimeout = 30 * time.Second

// RemoteTranscriber sends audio to an OpenAI-compatible whisper server,
// letting transcription run on a GPU box while the daemon itself stays
// light: multipart fields are file/model/language/response_format=json,
// with a transcriptions-vs-translations path selection and bearer auth.
type RemoteTranscriber struct {
	endpoint  string
	model     string
	language  string
	translate bool
	apiKey    string
	timeout   time.Duration
	client    *http.Client

	health *ConnectionHealth
}

// Prepare opportunistically probes the remote endpoint's reachability when
// ConnectionHealth says the connection has degraded, so a dead server is
// caught before the recording even finishes instead of at upload time.
func (r *RemoteTranscriber) Prepare() {
	r.maybeProbe()
}

// NewRemoteTranscriber builds a transcriber from cfg. A missing
// remote_endpoint is not validated here or at daemon startup; Transcribe
// returns voxerr.ErrConfig if it's empty when called.
func NewRemoteTranscriber(cfg config.WhisperConfig) *RemoteTranscriber {
	timeout := defaultRemoteTimeout
	model := cfg.Model
	if model == "" {
		model = "whisper-1"
	}

	lang := cfg.PrimaryLanguage()
	if lang == "auto" {
		lang = ""
	}

	return &RemoteTranscriber{
		endpoint:  strings.TrimRight(cfg.RemoteEndpoint, "/"),
		model:     model,
		language:  lang,
		translate: cfg.Translate,
		apiKey:    config.RemoteAPIKey(),
		timeout:   timeout,
		client:    &http.Client{Timeout: timeout},
		health:    NewConnectionHealth(),
	}
}

func (r *RemoteTranscriber) buildMultipartBody(wavData []byte) (string, io.Reader, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", "audio.wav")
	if err != nil {
		return "", nil, err
	}
	if _, err := part.Write(wavData); err != nil {
		return "", nil, err
	}

	if err := w.WriteField("model", r.model); err != nil {
		return "", nil, err
	}
	if r.language != "" {
		if err := w.WriteField("language", r.language); err != nil {
			return "", nil, err
		}
	}
	if err := w.WriteField("response_format", "json"); err != nil {
		return "", nil, err
	}

	if err := w.Close(); err != nil {
		return "", nil, err
	}
	return w.FormDataContentType(), &buf, nil
}

// Transcribe uploads samples and returns the server's "text" field.
func (r *RemoteTranscriber) Transcribe(samples state.AudioBuffer) (string, error) {
	if len(samples) == 0 {
		return "", fmt.Errorf("%w: empty audio buffer", voxerr.ErrEmptyRecording)
	}
	if r.endpoint == "" {
		return "", fmt.Errorf("%w: remote_endpoint is required when whisper.mode = \"remote\"", voxerr.ErrConfig)
	}

	wavPath, err := audio.EncodeWAV(samples, audio.SampleRate)
	if err != nil {
		return "", fmt.Errorf("%w: encode wav: %v", voxerr.ErrInferenceFailed, err)
	}
	defer os.Remove(wavPath)
	wavData, err := os.ReadFile(wavPath)
	if err != nil {
		return "", fmt.Errorf("%w: read encoded wav: %v", voxerr.ErrInferenceFailed, err)
	}

	contentType, body, err := r.buildMultipartBody(wavData)
	if err != nil {
		return "", fmt.Errorf("%w: build request body: %v", voxerr.ErrInferenceFailed, err)
	}

	path := "/v1/audio/transcriptions"
	if r.translate {
		path = "/v1/audio/translations"
	}

	req, err := http.NewRequest(http.MethodPost, r.endpoint+path, body)
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", voxerr.ErrNetworkError, err)
	}
	req.Header.Set("Content-Type", contentType)
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		r.health.ReportFailure()
		return "", fmt.Errorf("%w: request failed: %v", voxerr.ErrNetworkError, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		r.health.ReportFailure()
		return "", fmt.Errorf("%w: read response: %v", voxerr.ErrNetworkError, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		r.health.ReportFailure()
		return "", fmt.Errorf("%w: server returned %d: %s", voxerr.ErrRemoteError, resp.StatusCode, string(respBody))
	}

	var parsed struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		r.health.ReportFailure()
		return "", fmt.Errorf("%w: parse response: %v", voxerr.ErrRemoteError, err)
	}
	if parsed.Text == "" {
		r.health.ReportFailure()
		return "", fmt.Errorf("%w: response missing 'text' field: %s", voxerr.ErrRemoteError, string(respBody))
	}

	r.health.ReportSuccess()
	return trimResult(parsed.Text), nil
}
