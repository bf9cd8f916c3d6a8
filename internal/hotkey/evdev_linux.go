//go:build linux

package hotkey

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	evdev "github.com/holoplot/go-evdev"

	"github.com/peteonrails/voxtype/internal/state"
	"github.com/peteonrails/voxtype/internal/voxerr"
)

// revalidateInterval is the periodic device-liveness sweep cadence.
const revalidateInterval = 30 * time.Second

// hotplugSettleDelay gives USB enumeration time to finish before re-scanning
// /dev/input after an inotify CREATE/DELETE.
const hotplugSettleDelay = 150 * time.Millisecond

// commonKeyboardCodes are checked for presence to tell a keyboard apart from
// a mouse or other input device: a spread of letter keys (Q, A, Z) plus
// SPACE and ENTER.
var commonKeyboardCodes = map[uint16]bool{16: true, 30: true, 44: true, 57: true, 28: true}

// EvdevListener implements Listener using /dev/input/event* devices, with
// fsnotify-driven hotplug detection and periodic revalidation.
type EvdevListener struct {
	spec Spec

	mu      sync.Mutex
	devices map[string]*evdev.InputDevice
	watcher *fsnotify.Watcher

	stopCh   chan struct{}
	stopOnce sync.Once
	stopping int32
	wg       sync.WaitGroup

	out chan state.HotkeyEvent

	activeModifiers   map[KeyCode]bool
	modelModifierHeld bool
	isPressed         bool
	stateMu           sync.Mutex
}

// New builds the Linux evdev Listener for spec.
func New(spec Spec) (Listener, error) {
	return NewEvdevListener(spec)
}

// NewEvdevListener builds a listener for spec. It verifies /dev/input is
// readable and that at least one keyboard is present before returning.
func NewEvdevListener(spec Spec) (*EvdevListener, error) {
	l := &EvdevListener{
		spec:            spec,
		devices:         make(map[string]*evdev.InputDevice),
		activeModifiers: make(map[KeyCode]bool),
	}
	if err := l.enumerateDevices(); err != nil {
		return nil, err
	}
	if len(l.devices) == 0 {
		return nil, voxerr.ErrNoKeyboard
	}
	return l, nil
}

func (l *EvdevListener) enumerateDevices() error {
	paths, err := filepath.Glob("/dev/input/event*")
	if err != nil {
		return fmt.Errorf("%w: %v", voxerr.ErrDeviceAccess, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for _, path := range paths {
		if _, already := l.devices[path]; already {
			continue
		}
		dev, err := evdev.Open(path)
		if err != nil {
			continue // permission denied or gone mid-glob; not fatal
		}
		if !isKeyboardDevice(dev) {
			dev.Close()
			continue
		}
		l.devices[path] = dev
	}
	return nil
}

func isKeyboardDevice(dev *evdev.InputDevice) bool {
	hasKeyType := false
	for _, t := range dev.CapableTypes() {
		if t == evdev.EV_KEY {
			hasKeyType = true
			break
		}
	}
	if !hasKeyType {
		return false
	}
	for _, code := range dev.CapableEvents(evdev.EV_KEY) {
		if commonKeyboardCodes[uint16(code)] {
			return true
		}
	}
	return false
}

// Start begins listening. It spawns one goroutine per device plus a
// coordinator goroutine that watches /dev/input for hotplug events and
// revalidates devices every 30s.
func (l *EvdevListener) Start() (<-chan state.HotkeyEvent, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: inotify: %v", voxerr.ErrDeviceAccess, err)
	}
	if err := watcher.Add("/dev/input"); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("%w: watch /dev/input: %v", voxerr.ErrDeviceAccess, err)
	}

	l.watcher = watcher
	l.stopCh = make(chan struct{})
	l.out = make(chan state.HotkeyEvent, eventChanCapacity)
	atomic.StoreInt32(&l.stopping, 0)

	l.mu.Lock()
	paths := make([]string, 0, len(l.devices))
	for p := range l.devices {
		paths = append(paths, p)
	}
	l.mu.Unlock()

	for _, p := range paths {
		l.wg.Add(1)
		go l.listenDevice(p)
	}

	l.wg.Add(1)
	go l.watchHotplug()

	return l.out, nil
}

func (l *EvdevListener) listenDevice(path string) {
	defer l.wg.Done()
	for {
		l.mu.Lock()
		dev, ok := l.devices[path]
		l.mu.Unlock()
		if !ok {
			return
		}

		event, err := dev.ReadOne()
		if err != nil {
			if atomic.LoadInt32(&l.stopping) == 1 {
				return
			}
			l.mu.Lock()
			delete(l.devices, path)
			l.mu.Unlock()
			return
		}
		if event.Type != evdev.EV_KEY {
			continue
		}
		l.handleKeyEvent(KeyCode(event.Code), int(event.Value))
	}
}

func (l *EvdevListener) handleKeyEvent(code KeyCode, value int) {
	l.stateMu.Lock()
	defer l.stateMu.Unlock()

	for _, mod := range l.spec.Modifiers {
		if mod == code {
			l.activeModifiers[code] = value == 1
		}
	}
	if l.spec.HasModelMod && l.spec.ModelModifier == code {
		l.modelModifierHeld = value == 1
	}

	if l.spec.HasCancelKey && l.spec.CancelKey == code && value == 1 {
		l.send(state.HotkeyEvent{Kind: state.Cancel})
		return
	}

	if code != l.spec.Key {
		return
	}
	for _, mod := range l.spec.Modifiers {
		if !l.activeModifiers[mod] {
			return
		}
	}

	switch value {
	case 1:
		if l.isPressed {
			return // repeat
		}
		l.isPressed = true
		override := ""
		if l.modelModifierHeld {
			override = l.spec.SecondaryModel
		}
		l.send(state.HotkeyEvent{Kind: state.Pressed, ModelOverride: override})
	case 0:
		if !l.isPressed {
			return
		}
		l.isPressed = false
		l.send(state.HotkeyEvent{Kind: state.Released})
	}
}

// send drops the event rather than blocking the device-read goroutine if
// the orchestrator's event channel is saturated. Hotkey events are never
// dropped under normal load, but Start is buffered at 32 as a hard cap.
func (l *EvdevListener) send(ev state.HotkeyEvent) {
	select {
	case l.out <- ev:
	default:
		log.Printf("[HOTKEY] event channel full, dropping %s", ev)
	}
}

func (l *EvdevListener) watchHotplug() {
	defer l.wg.Done()
	ticker := time.NewTicker(revalidateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopCh:
			return
		case ev, ok := <-l.watcher.Events:
			if !ok {
				return
			}
			if !strings.HasPrefix(filepath.Base(ev.Name), "event") {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Remove) == 0 {
				continue
			}
			l.resetEdgeState()
			if ev.Op&fsnotify.Remove != 0 {
				l.mu.Lock()
				delete(l.devices, ev.Name)
				l.mu.Unlock()
			}
			l.mu.Lock()
			known := make(map[string]bool, len(l.devices))
			for p := range l.devices {
				known[p] = true
			}
			l.mu.Unlock()
			time.Sleep(hotplugSettleDelay)
			if err := l.enumerateDevices(); err != nil {
				log.Printf("[HOTKEY] re-enumeration failed: %v", err)
				continue
			}
			l.spawnNewDeviceListeners(known)
		case <-ticker.C:
			if l.revalidateDevices() {
				l.resetEdgeState()
			}
		case _, ok := <-l.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

// spawnNewDeviceListeners starts a listener goroutine for any device that
// enumerateDevices picked up but doesn't have one running yet. known is the
// device set taken before re-enumeration: those paths already have a
// listener, so any path present now and not in known must be new.
func (l *EvdevListener) spawnNewDeviceListeners(known map[string]bool) {
	l.mu.Lock()
	paths := make([]string, 0, len(l.devices))
	for p := range l.devices {
		if !known[p] {
			paths = append(paths, p)
		}
	}
	l.mu.Unlock()

	for _, p := range paths {
		l.wg.Add(1)
		go l.listenDevice(p)
	}
}

// revalidateDevices drops every device whose handle fails a liveness probe:
// fetching the device name, which fails once the backing device is gone.
func (l *EvdevListener) revalidateDevices() (removed bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for path, dev := range l.devices {
		if _, err := dev.Name(); err != nil {
			delete(l.devices, path)
			removed = true
		}
	}
	return removed
}

func (l *EvdevListener) resetEdgeState() {
	l.stateMu.Lock()
	defer l.stateMu.Unlock()
	l.activeModifiers = make(map[KeyCode]bool)
	l.modelModifierHeld = false
	l.isPressed = false
}

// Stop closes every device handle (unblocking any pending ReadOne), tears
// down the inotify watch, and waits up to 500ms for device goroutines to
// exit before giving up.
func (l *EvdevListener) Stop() {
	l.stopOnce.Do(func() {
		atomic.StoreInt32(&l.stopping, 1)
		close(l.stopCh)

		l.mu.Lock()
		for _, dev := range l.devices {
			dev.Close()
		}
		l.mu.Unlock()

		if l.watcher != nil {
			l.watcher.Close()
		}

		done := make(chan struct{})
		go func() {
			l.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(500 * time.Millisecond):
			log.Print("[HOTKEY] stop timed out waiting for device goroutines")
		}
		close(l.out)
	})
}
