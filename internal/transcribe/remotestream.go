package transcribe

import (
	"fmt"
	"log"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ConnectionHealth tracks a remote backend's reachability with a 0-100
// score that improves on success and degrades on failure, detached from any
// one persistent session so RemoteTranscriber can reuse it across
// independent one-shot HTTP calls instead of a long-lived socket.
type ConnectionHealth struct {
	mu              sync.Mutex
	score           int
	lastGoodAt      time.Time
	consecutiveFail int
}

func NewConnectionHealth() *ConnectionHealth {
	return &ConnectionHealth{score: 100}
}

func (h *ConnectionHealth) ReportSuccess() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.consecutiveFail = 0
	h.lastGoodAt = time.Now()
	h.score += 10
	if h.score > 100 {
		h.score = 100
	}
}

func (h *ConnectionHealth) ReportFailure() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.consecutiveFail++
	h.score -= 15
	if h.score < 0 {
		h.score = 0
	}
}

// NeedsProbe reports whether degradation warrants a connectivity check
// before spending the next request on a server that's likely unreachable.
func (h *ConnectionHealth) NeedsProbe() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.score < 20 || h.consecutiveFail >= 3 {
		return true
	}
	return !h.lastGoodAt.IsZero() && time.Since(h.lastGoodAt) > 10*time.Minute && h.score < 60
}

// ProbeWebSocket opens and immediately closes a WebSocket connection to
// endpoint's streaming sibling path. This is reserved for a future
// streaming remote mode (spec's "remote" mode today is one-shot multipart,
// the hot path stays in remote.go); here it only answers "is the server up"
// cheaply, without spending a multipart upload to find out.
func ProbeWebSocket(endpoint string) error {
	wsURL := strings.Replace(endpoint, "http", "ws", 1)
	u, err := url.Parse(wsURL)
	if err != nil {
		return fmt.Errorf("parse remote endpoint: %w", err)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/v1/audio/stream"

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("probe remote endpoint: %w", err)
	}
	return conn.Close()
}

// maybeProbe runs ProbeWebSocket in the background when health says it's
// warranted, logging the outcome rather than blocking the caller on it.
func (r *RemoteTranscriber) maybeProbe() {
	if !r.health.NeedsProbe() {
		return
	}
	go func() {
		if err := ProbeWebSocket(r.endpoint); err != nil {
			log.Printf("[TRANSCRIBE] remote connectivity probe failed: %v", err)
		} else {
			log.Printf("[TRANSCRIBE] remote connectivity probe succeeded")
		}
	}()
}
