// Package hud defines the user-visible status channel of the voice session.
//
// The core only emits (icon, text, class) tuples; rendering them — as an
// in-page overlay, a desktop notification, whatever — is an external
// collaborator's concern behind the Notifier interface. LogNotifier is the
// built-in fallback that writes statuses to the structured log.
package hud

import "log/slog"

// Class is the visual category of a status message.
type Class string

const (
	ClassListening Class = "listening"
	ClassSuccess   Class = "success"
	ClassError     Class = "error"
)

// IsValid reports whether c is a recognised status class.
func (c Class) IsValid() bool {
	switch c {
	case ClassListening, ClassSuccess, ClassError:
		return true
	}
	return false
}

// Position anchors the HUD in one of the four viewport corners.
type Position string

const (
	PositionTopLeft     Position = "top-left"
	PositionTopRight    Position = "top-right"
	PositionBottomLeft  Position = "bottom-left"
	PositionBottomRight Position = "bottom-right"
)

// IsValid reports whether p is a recognised HUD position.
func (p Position) IsValid() bool {
	switch p {
	case PositionTopLeft, PositionTopRight, PositionBottomLeft, PositionBottomRight:
		return true
	}
	return false
}

// Status is one user-visible status update.
type Status struct {
	// Icon is a short pictogram, e.g. "🎤", "✓", "✗".
	Icon string

	// Text is the human-readable message.
	Text string

	// Class selects the visual treatment.
	Class Class
}

// Notifier receives status updates for rendering.
//
// Implementations must be safe for concurrent use and must not block: a slow
// renderer may drop updates but must never stall the session loop.
type Notifier interface {
	Notify(status Status)
}

// LogNotifier renders statuses into the structured log. Errors log at Warn,
// everything else at Info.
type LogNotifier struct{}

// Notify logs the status.
func (LogNotifier) Notify(status Status) {
	if status.Class == ClassError {
		slog.Warn("status", "icon", status.Icon, "text", status.Text)
		return
	}
	slog.Info("status", "icon", status.Icon, "text", status.Text, "class", status.Class)
}

// Ensure LogNotifier implements Notifier at compile time.
var _ Notifier = LogNotifier{}
