// Package action executes matched voice commands against the browser.
//
// The executor is the only component with side effects: it scrolls, clicks,
// navigates, types, and delegates tab lifecycle operations to the external
// tab collaborator. Every action reports a user-visible outcome through the
// HUD notifier and, when a synthesizer is configured, a spoken announcement.
// Navigations and reloads are deliberately delayed after the feedback is
// shown so the acknowledgement can be perceived before the page goes away.
package action

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/MrWong99/voxnav/internal/command"
	"github.com/MrWong99/voxnav/internal/hud"
	"github.com/MrWong99/voxnav/internal/observe"
	"github.com/MrWong99/voxnav/internal/page"
	"github.com/MrWong99/voxnav/pkg/browser"
	"github.com/MrWong99/voxnav/pkg/speech"
)

// DefaultNavDelay is how long navigation-type effects wait after feedback is
// shown before the page actually changes.
const DefaultNavDelay = 800 * time.Millisecond

// ErrTargetNotFound is returned when a spoken element name resolves to
// nothing on the current page.
var ErrTargetNotFound = errors.New("action: target element not found")

// ErrNotRecognized is returned when a numeric click refers to a badge set
// that is not currently shown, or a required parameter is missing.
var ErrNotRecognized = errors.New("action: command not recognized")

// Option is a functional option for configuring an Executor.
type Option func(*Executor)

// WithNavDelay sets the delay between feedback and navigation-type effects.
// Zero executes them inline, which tests rely on. Default: 800ms.
func WithNavDelay(d time.Duration) Option {
	return func(e *Executor) {
		e.navDelay = d
	}
}

// WithSynthesizer enables spoken announcements of action outcomes.
func WithSynthesizer(s speech.Synthesizer) Option {
	return func(e *Executor) {
		e.synth = s
	}
}

// WithMetrics records action latency and outcome metrics.
func WithMetrics(m *observe.Metrics) Option {
	return func(e *Executor) {
		e.metrics = m
	}
}

// WithBadgeTTL sets the link-badge auto-expiry. Default: 10s.
func WithBadgeTTL(ttl time.Duration) Option {
	return func(e *Executor) {
		e.badgeTTL = ttl
	}
}

// Executor dispatches matched actions. All methods are safe for concurrent
// use, though in practice a single session goroutine drives them.
type Executor struct {
	surface  browser.Surface
	tabs     browser.Tabs
	registry *page.Registry
	badges   *BadgeList
	notifier hud.Notifier
	synth    speech.Synthesizer
	metrics  *observe.Metrics
	navDelay time.Duration
	badgeTTL time.Duration

	mu           sync.Mutex
	scrollAmount int
}

// New returns an Executor over the given capabilities. scrollAmount is the
// pixel distance of one scroll step and may be updated live via
// SetScrollAmount.
func New(surface browser.Surface, tabs browser.Tabs, overlay browser.Overlay, registry *page.Registry, notifier hud.Notifier, scrollAmount int, opts ...Option) *Executor {
	e := &Executor{
		surface:      surface,
		tabs:         tabs,
		registry:     registry,
		notifier:     notifier,
		navDelay:     DefaultNavDelay,
		scrollAmount: scrollAmount,
	}
	for _, o := range opts {
		o(e)
	}
	e.badges = NewBadgeList(overlay, e.badgeTTL)
	return e
}

// SetScrollAmount updates the scroll step. Called on config hot-reload.
func (e *Executor) SetScrollAmount(pixels int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if pixels > 0 {
		e.scrollAmount = pixels
	}
}

// Badges exposes the link-badge list, mainly for tests and the session's
// numeric-click precedence checks.
func (e *Executor) Badges() *BadgeList { return e.badges }

// Execute performs the matched action. The outcome is always reported to the
// user through the HUD (and spoken when a synthesizer is configured); the
// returned error carries the same information for the caller's log. Mode
// switches (startTyping, stopTyping, stopListening) are the session's
// responsibility and are rejected here.
func (e *Executor) Execute(ctx context.Context, act command.Action, param string) error {
	start := time.Now()
	err := e.dispatch(ctx, act, param)
	if e.metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		e.metrics.ActionDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(
			attribute.String("action", string(act)),
			attribute.String("status", status),
		))
	}
	return err
}

func (e *Executor) dispatch(ctx context.Context, act command.Action, param string) error {
	switch act {
	case command.ActionOpenSite:
		url := NormalizeURL(param)
		if url == "" {
			return e.fail("no site name heard", ErrNotRecognized)
		}
		e.success("→", "going to "+url)
		return e.deferred(ctx, "navigate", func(ctx context.Context) error {
			return e.surface.Navigate(ctx, url)
		})

	case command.ActionOpenTab:
		url := NormalizeURL(param)
		if url == "" {
			return e.fail("no site name heard", ErrNotRecognized)
		}
		if err := e.tabs.OpenSite(ctx, url); err != nil {
			return e.fail("could not open "+url, err)
		}
		e.success("+", "opened "+url+" in a new tab")
		return nil

	case command.ActionScrollDown:
		e.success("↓", "scrolling down")
		return e.surface.ScrollBy(ctx, e.scrollStep())

	case command.ActionScrollUp:
		e.success("↑", "scrolling up")
		return e.surface.ScrollBy(ctx, -e.scrollStep())

	case command.ActionScrollTop:
		e.success("⤒", "top of page")
		return e.surface.ScrollToTop(ctx)

	case command.ActionScrollBottom:
		e.success("⤓", "bottom of page")
		return e.surface.ScrollToBottom(ctx)

	case command.ActionBack:
		e.success("←", "going back")
		return e.deferred(ctx, "back", e.surface.Back)

	case command.ActionForward:
		e.success("→", "going forward")
		return e.deferred(ctx, "forward", e.surface.Forward)

	case command.ActionReload:
		e.success("⟳", "reloading")
		return e.deferred(ctx, "reload", e.surface.Reload)

	case command.ActionNewTab:
		e.success("+", "new tab")
		return e.tabs.NewTab(ctx)

	case command.ActionCloseTab:
		e.success("×", "closing tab")
		return e.tabs.CloseTab(ctx)

	case command.ActionNextTab:
		e.success("⇥", "next tab")
		return e.tabs.NextTab(ctx)

	case command.ActionPreviousTab:
		e.success("⇤", "previous tab")
		return e.tabs.PreviousTab(ctx)

	case command.ActionShowLinks:
		links := e.registry.Links()
		if len(links) == 0 {
			return e.fail("no links on this page", ErrTargetNotFound)
		}
		n, err := e.badges.Show(ctx, links)
		if err != nil {
			return e.fail("could not show link numbers", err)
		}
		e.success("⓿", fmt.Sprintf("showing %d links — say \"click\" and a number", n))
		return nil

	case command.ActionHideLinks:
		if err := e.badges.Clear(ctx); err != nil {
			return e.fail("could not hide link numbers", err)
		}
		e.success("✓", "link numbers hidden")
		return nil

	case command.ActionClick:
		return e.clickOrFocus(ctx, param, "click", e.surface.Click)

	case command.ActionFocus:
		return e.clickOrFocus(ctx, param, "focus", e.surface.Focus)

	case command.ActionType:
		if param == "" {
			return e.fail("nothing to type", ErrNotRecognized)
		}
		if err := e.surface.AppendToFocused(ctx, param); err != nil {
			if errors.Is(err, browser.ErrNoFocusedInput) {
				return e.fail("no input field focused", err)
			}
			return e.fail("typing failed", err)
		}
		e.success("⌨", "typed: "+param)
		return nil

	case command.ActionClearText:
		if err := e.surface.ClearFocused(ctx); err != nil {
			if errors.Is(err, browser.ErrNoFocusedInput) {
				return e.fail("no input field focused", err)
			}
			return e.fail("clearing failed", err)
		}
		e.success("✓", "cleared")
		return nil

	case command.ActionPressEnter:
		if err := e.surface.PressEnter(ctx); err != nil {
			return e.fail("enter failed", err)
		}
		e.success("⏎", "enter")
		return nil

	default:
		return fmt.Errorf("action: %q is not executable here", act)
	}
}

// Dictate appends one dictated utterance to the focused input, followed by a
// space so consecutive utterances stay separated. Unlike Execute it does not
// announce the text back; hearing every sentence echoed defeats dictation.
func (e *Executor) Dictate(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}
	if err := e.surface.AppendToFocused(ctx, text+" "); err != nil {
		if errors.Is(err, browser.ErrNoFocusedInput) {
			e.notifier.Notify(hud.Status{Icon: "✗", Text: "no input field focused", Class: hud.ClassError})
			return fmt.Errorf("no input field focused: %w", err)
		}
		return fmt.Errorf("action: dictation append: %w", err)
	}
	return nil
}

// clickOrFocus resolves the spoken target — numeric badge references take
// priority over fuzzy name lookup — and applies op to it.
func (e *Executor) clickOrFocus(ctx context.Context, param, verb string, op func(context.Context, string) error) error {
	if param == "" {
		return e.fail("no target heard", ErrNotRecognized)
	}

	// A spoken small integer refers to the numbered badges when they are
	// shown; without an active badge set it is not a valid command.
	if n, err := strconv.Atoi(spokenNumber(param)); err == nil {
		if !e.badges.Active() {
			return e.fail("no link numbers shown — say \"show links\" first", ErrNotRecognized)
		}
		entry, ok := e.badges.Get(n)
		if !ok {
			return e.fail(fmt.Sprintf("no link number %d", n), ErrTargetNotFound)
		}
		if err := op(ctx, entry.Handle); err != nil {
			return e.fail(verb+" failed", err)
		}
		e.success("✓", fmt.Sprintf("%s link %d", verb, n))
		return nil
	}

	entry, ok := e.registry.Lookup(param)
	if !ok {
		return e.fail(fmt.Sprintf("could not find %q", param), ErrTargetNotFound)
	}
	if err := op(ctx, entry.Handle); err != nil {
		if errors.Is(err, browser.ErrElementGone) {
			return e.fail(fmt.Sprintf("%q disappeared from the page", param), err)
		}
		return e.fail(verb+" failed", err)
	}
	e.success("✓", verb+" "+entry.Name)
	return nil
}

// spokenNumber maps the number words recognizers commonly substitute for
// small integers back to digits; everything else passes through unchanged.
func spokenNumber(s string) string {
	switch s {
	case "one":
		return "1"
	case "two", "to", "too":
		return "2"
	case "three":
		return "3"
	case "four", "for":
		return "4"
	case "five":
		return "5"
	case "six":
		return "6"
	case "seven":
		return "7"
	case "eight":
		return "8"
	case "nine":
		return "9"
	case "ten":
		return "10"
	}
	return s
}

// deferred runs fn after the navigation delay so the user perceives the
// feedback before the page changes. With a zero delay fn runs inline and its
// error is returned; otherwise fn runs on a timer and failures are logged.
func (e *Executor) deferred(ctx context.Context, name string, fn func(context.Context) error) error {
	if e.navDelay <= 0 {
		return fn(ctx)
	}
	time.AfterFunc(e.navDelay, func() {
		if err := fn(context.Background()); err != nil {
			slog.Warn("action: deferred effect failed", "effect", name, "error", err)
		}
	})
	return nil
}

// scrollStep returns the current scroll amount.
func (e *Executor) scrollStep() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scrollAmount
}

// success reports a successful outcome on the HUD and announces it.
func (e *Executor) success(icon, text string) {
	e.notifier.Notify(hud.Status{Icon: icon, Text: text, Class: hud.ClassSuccess})
	e.announce(text)
}

// fail reports a failed outcome on the HUD and returns err wrapped with the
// user-facing message.
func (e *Executor) fail(text string, err error) error {
	e.notifier.Notify(hud.Status{Icon: "✗", Text: text, Class: hud.ClassError})
	e.announce(text)
	return fmt.Errorf("%s: %w", text, err)
}

// announce speaks text without blocking the session loop.
func (e *Executor) announce(text string) {
	if e.synth == nil {
		return
	}
	go func() {
		if err := e.synth.Speak(context.Background(), text); err != nil {
			slog.Debug("action: announcement failed", "error", err)
		}
	}()
}
