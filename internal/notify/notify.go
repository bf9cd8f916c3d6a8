// Package notify sends the optional desktop notifications the
// output.notification config keys name (on recording start/stop/
// transcribed), preferring a direct org.freedesktop.Notifications D-Bus
// call and falling back to the cross-platform beeep notifier when no
// session bus is reachable (headless, non-Linux, or the bus call itself
// fails).
package notify

import (
	"log"

	"github.com/gen2brain/beeep"
	"github.com/godbus/dbus/v5"

	"github.com/peteonrails/voxtype/internal/config"
)

const (
	notifyInterface = "org.freedesktop.Notifications"
	notifyPath      = "/org/freedesktop/Notifications"
	notifyMethod    = notifyInterface + ".Notify"
	expireTimeoutMs = 3000
)

// Notifier fires the on_start/on_stop/on_transcribed hooks. A nil *dbus.Conn
// (no session bus) falls straight through to beeep on every call; with
// notifications disabled the hooks send nothing.
type Notifier struct {
	cfg  config.NotificationConfig
	conn *dbus.Conn
}

// New connects to the session bus if notifications are enabled at all;
// a failed connection is not fatal, it just means every send() falls back
// to beeep.
func New(cfg config.NotificationConfig) *Notifier {
	n := &Notifier{cfg: cfg}
	if !cfg.Enabled {
		return n
	}
	conn, err := dbus.SessionBus()
	if err != nil {
		log.Printf("[NOTIFY] no session bus, falling back to beeep: %v", err)
		return n
	}
	n.conn = conn
	return n
}

// OnStart, OnStop, OnTranscribed, and Close all tolerate a nil Notifier (a
// Daemon built without one, as the scenario tests do) so callers never need
// a separate nil check before every hook.

func (n *Notifier) OnStart() {
	if n != nil && n.cfg.Enabled && n.cfg.OnStart {
		n.send("voxtype", "listening")
	}
}

func (n *Notifier) OnStop() {
	if n != nil && n.cfg.Enabled && n.cfg.OnStop {
		n.send("voxtype", "transcribing")
	}
}

func (n *Notifier) OnTranscribed(text string) {
	if n != nil && n.cfg.Enabled && n.cfg.OnTranscribed {
		n.send("voxtype", text)
	}
}

func (n *Notifier) send(title, body string) {
	if n.conn != nil {
		obj := n.conn.Object(notifyInterface, dbus.ObjectPath(notifyPath))
		call := obj.Call(notifyMethod, 0, "voxtype", uint32(0), "", title, body,
			[]string{}, map[string]dbus.Variant{}, int32(expireTimeoutMs))
		if call.Err == nil {
			return
		}
		log.Printf("[NOTIFY] dbus notify failed, falling back to beeep: %v", call.Err)
	}
	if err := beeep.Notify(title, body, ""); err != nil {
		log.Printf("[NOTIFY] beeep notify failed: %v", err)
	}
}

// Close releases the session bus connection, if one was opened.
func (n *Notifier) Close() {
	if n != nil && n.conn != nil {
		n.conn.Close()
	}
}
