package notify

import (
	"testing"

	"github.com/peteonrails/voxtype/internal/config"
)

func TestNilNotifierIsNoop(t *testing.T) {
	var n *Notifier
	n.OnStart()
	n.OnStop()
	n.OnTranscribed("hello")
	n.Close()
}

func TestDisabledNotifierHasNoConn(t *testing.T) {
	n := New(config.NotificationConfig{Enabled: false})
	if n.conn != nil {
		t.Error("disabled config should never dial the session bus")
	}
	n.OnStart()
	n.OnStop()
	n.OnTranscribed("hello")
}

func TestEnabledNotifierWithoutHookDoesNothing(t *testing.T) {
	n := &Notifier{cfg: config.NotificationConfig{Enabled: true, OnStart: false}}
	n.OnStart()
}

func TestCloseWithoutConnIsSafe(t *testing.T) {
	n := &Notifier{cfg: config.NotificationConfig{Enabled: true}}
	n.Close()
}
