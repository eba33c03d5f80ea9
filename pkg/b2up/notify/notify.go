// Package notify sends desktop notifications on backup completion.
package notify

import (
	"github.com/gen2brain/beeep"

	"github.com/jamesainslie/b2up/pkg/b2up/logging"
)

// Notifier fires desktop notifications when enabled. Notification
// errors never affect the run outcome.
type Notifier struct {
	Enabled bool
	Log     *logging.Logger
}

// Send shows a notification with the given title and body. Disabled
// notifiers and delivery errors are silent apart from a debug line.
func (n *Notifier) Send(title, body string) {
	if n == nil || !n.Enabled {
		return
	}

	if err := beeep.Notify(title, body, ""); err != nil {
		n.Log.Debug("notification failed", "error", err)
	}
}
