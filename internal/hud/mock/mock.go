// Package mock provides a recording test double for hud.Notifier.
package mock

import (
	"sync"

	"github.com/MrWong99/voxnav/internal/hud"
)

// Notifier records every status update for assertion in tests.
type Notifier struct {
	mu       sync.Mutex
	statuses []hud.Status
}

// Notify records the status.
func (n *Notifier) Notify(status hud.Status) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.statuses = append(n.statuses, status)
}

// Statuses returns a copy of the recorded statuses in order.
func (n *Notifier) Statuses() []hud.Status {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]hud.Status, len(n.statuses))
	copy(out, n.statuses)
	return out
}

// Last returns the most recent status, or the zero Status when none were
// recorded.
func (n *Notifier) Last() hud.Status {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.statuses) == 0 {
		return hud.Status{}
	}
	return n.statuses[len(n.statuses)-1]
}

// Texts returns the recorded status texts in order.
func (n *Notifier) Texts() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.statuses))
	for i, s := range n.statuses {
		out[i] = s.Text
	}
	return out
}

// Ensure Notifier implements hud.Notifier at compile time.
var _ hud.Notifier = (*Notifier)(nil)
