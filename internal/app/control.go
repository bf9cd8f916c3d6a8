package app

import (
	"bufio"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/peteonrails/voxtype/internal/state"
)

// ControlListener watches the external control file for commands appended
// by `voxtype record start|stop|toggle|cancel` and translates them into the
// same state.HotkeyEvent vocabulary the hotkey listener
// produces, so the orchestrator's event loop interprets both uniformly: a
// "start"/"toggle" command means exactly what a toggle keypress means, and
// "cancel" is the same Cancel the cancel_key produces.
type ControlListener struct {
	path    string
	watcher *fsnotify.Watcher
	events  chan state.HotkeyEvent
	done    chan struct{}
}

// NewControlListener creates (if absent) and watches path for appended
// command lines.
func NewControlListener(path string) (*ControlListener, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}
	f.Close()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return nil, err
	}

	c := &ControlListener{
		path:    path,
		watcher: watcher,
		events:  make(chan state.HotkeyEvent, 32),
		done:    make(chan struct{}),
	}
	go c.run()
	return c, nil
}

// Events returns the translated command stream.
func (c *ControlListener) Events() <-chan state.HotkeyEvent { return c.events }

func (c *ControlListener) run() {
	defer close(c.events)
	for {
		select {
		case ev, ok := <-c.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			c.drain()
		case err, ok := <-c.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("[APP] control file watch error: %v", err)
		case <-c.done:
			return
		}
	}
}

// drain reads and then truncates the control file, emitting one event per
// non-empty line.
func (c *ControlListener) drain() {
	data, err := os.ReadFile(c.path)
	if err != nil || len(data) == 0 {
		return
	}
	if err := os.WriteFile(c.path, nil, 0o600); err != nil {
		log.Printf("[APP] failed to truncate control file: %v", err)
	}

	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	for scanner.Scan() {
		cmd := strings.TrimSpace(scanner.Text())
		if cmd == "" {
			continue
		}
		ev, ok := commandToEvent(cmd)
		if !ok {
			log.Printf("[APP] unknown control command %q", cmd)
			continue
		}
		select {
		case c.events <- ev:
		default:
			log.Print("[APP] control event channel full, dropping command")
		}
	}
}

func commandToEvent(cmd string) (state.HotkeyEvent, bool) {
	switch cmd {
	case "start", "toggle":
		return state.HotkeyEvent{Kind: state.Pressed}, true
	case "stop":
		return state.HotkeyEvent{Kind: state.Released}, true
	case "cancel":
		return state.HotkeyEvent{Kind: state.Cancel}, true
	default:
		return state.HotkeyEvent{}, false
	}
}

// Stop tears down the watcher. The events channel closes once run() returns.
func (c *ControlListener) Stop() {
	close(c.done)
	c.watcher.Close()
}

// GetControlPath returns the path external `voxtype record` invocations
// append commands to.
func GetControlPath(runtimeDir string) string {
	return filepath.Join(runtimeDir, "control")
}
