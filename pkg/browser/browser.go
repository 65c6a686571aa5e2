// Package browser defines the capability interfaces through which the
// command core touches a rendered web page.
//
// The core never talks to a rendering tree API directly. A Surface reports
// interactive element candidates and performs in-page effects (click, focus,
// scroll, navigation, text editing); Tabs covers tab lifecycle operations
// that live outside a single page; Overlay renders the numbered link badges.
// The chrome subpackage implements all three against the Chrome DevTools
// Protocol, and the mock subpackage provides recording test doubles.
//
// Implementations must be safe for concurrent use.
package browser

import (
	"context"
	"errors"
)

// ErrNoFocusedInput is returned by editing operations when no editable
// element currently has focus.
var ErrNoFocusedInput = errors.New("browser: no editable element is focused")

// ErrElementGone is returned by element operations whose handle no longer
// resolves to a live element (the page changed since the last scan).
var ErrElementGone = errors.New("browser: element no longer present")

// Candidate is a raw interactive element reported by a Surface scan.
// Only visibly rendered, enabled elements are reported; naming-attribute
// priority and normalization are the registry's concern, so all naming
// sources are carried verbatim.
type Candidate struct {
	// Handle is an opaque reference to the underlying element. It stays
	// valid until the next scan; the Surface owns its meaning.
	Handle string

	// LabelledBy is the resolved text of the aria-labelledby referent(s),
	// empty when the attribute is absent or dangling.
	LabelledBy string

	// Label is the aria-label attribute value.
	Label string

	// Placeholder is the placeholder or aria-placeholder attribute value.
	Placeholder string

	// Title is the title attribute value.
	Title string

	// Text is the element's inner text, value, or text content.
	Text string

	// IsLink reports whether the element is a hyperlink (used for the
	// numbered link overlay).
	IsLink bool
}

// Surface is the capability interface over a single rendered page.
type Surface interface {
	// QueryInteractiveElements performs a synchronous full-page scan and
	// returns the visible interactive elements in document order.
	QueryInteractiveElements(ctx context.Context) ([]Candidate, error)

	// Mutations returns a channel that receives a notification whenever the
	// page's structure or watched attributes (label, role, class, style)
	// change. Notifications may be coalesced; the channel is never closed
	// while the Surface is live.
	Mutations() <-chan struct{}

	// Click dispatches a click on the element identified by handle.
	Click(ctx context.Context, handle string) error

	// Focus moves keyboard focus to the element identified by handle.
	Focus(ctx context.Context, handle string) error

	// ScrollBy scrolls the page vertically by the given pixel amount
	// (negative scrolls up).
	ScrollBy(ctx context.Context, pixels int) error

	// ScrollToTop jumps to the top edge of the page.
	ScrollToTop(ctx context.Context) error

	// ScrollToBottom jumps to the bottom edge of the page.
	ScrollToBottom(ctx context.Context) error

	// Navigate loads the given absolute URL in the current tab.
	Navigate(ctx context.Context, url string) error

	// Back navigates one step back in session history.
	Back(ctx context.Context) error

	// Forward navigates one step forward in session history.
	Forward(ctx context.Context) error

	// Reload reloads the current page.
	Reload(ctx context.Context) error

	// AppendToFocused appends text to the focused editable element's
	// content. Returns ErrNoFocusedInput when nothing editable is focused.
	AppendToFocused(ctx context.Context, text string) error

	// ClearFocused empties the focused editable element's content.
	// Returns ErrNoFocusedInput when nothing editable is focused.
	ClearFocused(ctx context.Context) error

	// PressEnter dispatches a synthetic Enter key press to the focused
	// element.
	PressEnter(ctx context.Context) error
}

// Tabs is the tab-management collaborator. All operations are fire-and-forget
// from the core's perspective; returned errors are advisory.
type Tabs interface {
	// NewTab opens a fresh empty tab and makes it current.
	NewTab(ctx context.Context) error

	// CloseTab closes the current tab.
	CloseTab(ctx context.Context) error

	// NextTab activates the tab after the current one, wrapping around.
	NextTab(ctx context.Context) error

	// PreviousTab activates the tab before the current one, wrapping around.
	PreviousTab(ctx context.Context) error

	// OpenSite opens the given absolute URL in a new tab.
	OpenSite(ctx context.Context, url string) error
}

// Badge is a single numbered link marker to render.
type Badge struct {
	// Number is the 1-based badge index the user speaks to click the link.
	Number int

	// Handle identifies the link element the badge is attached to.
	Handle string
}

// Overlay renders and clears the numbered link badges on the page.
type Overlay interface {
	// ShowBadges renders the given badges next to their elements, replacing
	// any badges currently shown.
	ShowBadges(ctx context.Context, badges []Badge) error

	// ClearBadges removes all rendered badges. Clearing when none are shown
	// is a no-op.
	ClearBadges(ctx context.Context) error
}
