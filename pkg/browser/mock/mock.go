// Package mock provides recording test doubles for the browser package
// interfaces. Surface returns a configurable candidate set and records every
// in-page effect; Tabs and Overlay record their calls for assertion.
package mock

import (
	"context"
	"strconv"
	"sync"

	"github.com/MrWong99/voxnav/pkg/browser"
)

// Call records a single Surface, Tabs, or Overlay invocation.
type Call struct {
	// Op is the operation name, e.g. "click", "navigate", "newTab".
	Op string

	// Arg carries the operation argument: an element handle, a URL, appended
	// text, or a scroll amount rendered meaningless for ops without one.
	Arg string
}

// Surface is a mock implementation of browser.Surface.
type Surface struct {
	mu sync.Mutex

	// Candidates is returned by QueryInteractiveElements. Tests mutate it
	// between scans to simulate page changes.
	Candidates []browser.Candidate

	// QueryErr, if non-nil, is returned by QueryInteractiveElements.
	QueryErr error

	// FocusedEditable simulates whether an editable element has focus.
	// When false, AppendToFocused and ClearFocused return ErrNoFocusedInput.
	FocusedEditable bool

	// FocusedContent accumulates text appended via AppendToFocused.
	FocusedContent string

	// Calls records every effect operation in invocation order.
	Calls []Call

	// Queries counts QueryInteractiveElements invocations.
	Queries int

	mutations chan struct{}
}

// NewSurface returns a Surface with a buffered mutation channel.
func NewSurface(candidates ...browser.Candidate) *Surface {
	return &Surface{
		Candidates: candidates,
		mutations:  make(chan struct{}, 8),
	}
}

// NotifyMutation simulates a page mutation notification.
func (s *Surface) NotifyMutation() {
	select {
	case s.mutations <- struct{}{}:
	default:
	}
}

// SetCandidates replaces the candidate set returned by subsequent scans.
func (s *Surface) SetCandidates(candidates []browser.Candidate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Candidates = candidates
}

// QueryInteractiveElements returns the configured candidate set.
func (s *Surface) QueryInteractiveElements(ctx context.Context) ([]browser.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Queries++
	if s.QueryErr != nil {
		return nil, s.QueryErr
	}
	out := make([]browser.Candidate, len(s.Candidates))
	copy(out, s.Candidates)
	return out, nil
}

// Mutations returns the mutation notification channel.
func (s *Surface) Mutations() <-chan struct{} { return s.mutations }

func (s *Surface) record(op, arg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls = append(s.Calls, Call{Op: op, Arg: arg})
}

// Click records the call.
func (s *Surface) Click(ctx context.Context, handle string) error {
	s.record("click", handle)
	return nil
}

// Focus records the call.
func (s *Surface) Focus(ctx context.Context, handle string) error {
	s.record("focus", handle)
	return nil
}

// ScrollBy records the call with the pixel amount as its argument.
func (s *Surface) ScrollBy(ctx context.Context, pixels int) error {
	s.record("scrollBy", strconv.Itoa(pixels))
	return nil
}

// ScrollToTop records the call.
func (s *Surface) ScrollToTop(ctx context.Context) error {
	s.record("scrollTop", "")
	return nil
}

// ScrollToBottom records the call.
func (s *Surface) ScrollToBottom(ctx context.Context) error {
	s.record("scrollBottom", "")
	return nil
}

// Navigate records the call with the URL as its argument.
func (s *Surface) Navigate(ctx context.Context, url string) error {
	s.record("navigate", url)
	return nil
}

// Back records the call.
func (s *Surface) Back(ctx context.Context) error {
	s.record("back", "")
	return nil
}

// Forward records the call.
func (s *Surface) Forward(ctx context.Context) error {
	s.record("forward", "")
	return nil
}

// Reload records the call.
func (s *Surface) Reload(ctx context.Context) error {
	s.record("reload", "")
	return nil
}

// AppendToFocused appends to FocusedContent when FocusedEditable is set.
func (s *Surface) AppendToFocused(ctx context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.FocusedEditable {
		return browser.ErrNoFocusedInput
	}
	s.FocusedContent += text
	s.Calls = append(s.Calls, Call{Op: "append", Arg: text})
	return nil
}

// ClearFocused empties FocusedContent when FocusedEditable is set.
func (s *Surface) ClearFocused(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.FocusedEditable {
		return browser.ErrNoFocusedInput
	}
	s.FocusedContent = ""
	s.Calls = append(s.Calls, Call{Op: "clear", Arg: ""})
	return nil
}

// PressEnter records the call.
func (s *Surface) PressEnter(ctx context.Context) error {
	s.record("enter", "")
	return nil
}

// Focused returns the current content of the simulated focused input.
func (s *Surface) Focused() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.FocusedContent
}

// QueryCount returns the number of scans performed so far.
func (s *Surface) QueryCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Queries
}

// CallOps returns the recorded operation names in order.
func (s *Surface) CallOps() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ops := make([]string, len(s.Calls))
	for i, c := range s.Calls {
		ops[i] = c.Op
	}
	return ops
}

// Ensure Surface implements browser.Surface at compile time.
var _ browser.Surface = (*Surface)(nil)

// Tabs is a recording mock implementation of browser.Tabs.
type Tabs struct {
	mu sync.Mutex

	// Err, if non-nil, is returned by every operation.
	Err error

	// Calls records every tab operation in invocation order.
	Calls []Call
}

func (t *Tabs) record(op, arg string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Calls = append(t.Calls, Call{Op: op, Arg: arg})
	return t.Err
}

// NewTab records the call.
func (t *Tabs) NewTab(ctx context.Context) error { return t.record("newTab", "") }

// CloseTab records the call.
func (t *Tabs) CloseTab(ctx context.Context) error { return t.record("closeTab", "") }

// NextTab records the call.
func (t *Tabs) NextTab(ctx context.Context) error { return t.record("nextTab", "") }

// PreviousTab records the call.
func (t *Tabs) PreviousTab(ctx context.Context) error { return t.record("previousTab", "") }

// OpenSite records the call with the URL as its argument.
func (t *Tabs) OpenSite(ctx context.Context, url string) error { return t.record("openSite", url) }

// Ensure Tabs implements browser.Tabs at compile time.
var _ browser.Tabs = (*Tabs)(nil)

// Overlay is a recording mock implementation of browser.Overlay.
type Overlay struct {
	mu sync.Mutex

	// Shown holds the badges from the most recent ShowBadges call; nil after
	// ClearBadges.
	Shown []browser.Badge

	// ShowCalls and ClearCalls count the respective invocations.
	ShowCalls  int
	ClearCalls int
}

// ShowBadges stores the badge set.
func (o *Overlay) ShowBadges(ctx context.Context, badges []browser.Badge) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Shown = make([]browser.Badge, len(badges))
	copy(o.Shown, badges)
	o.ShowCalls++
	return nil
}

// ClearBadges drops the stored badge set.
func (o *Overlay) ClearBadges(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Shown = nil
	o.ClearCalls++
	return nil
}

// Current returns the currently shown badges.
func (o *Overlay) Current() []browser.Badge {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]browser.Badge, len(o.Shown))
	copy(out, o.Shown)
	return out
}

// Ensure Overlay implements browser.Overlay at compile time.
var _ browser.Overlay = (*Overlay)(nil)
