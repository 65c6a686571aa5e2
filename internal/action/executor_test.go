package action

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/MrWong99/voxnav/internal/command"
	"github.com/MrWong99/voxnav/internal/hud"
	hudmock "github.com/MrWong99/voxnav/internal/hud/mock"
	"github.com/MrWong99/voxnav/internal/page"
	"github.com/MrWong99/voxnav/pkg/browser"
	"github.com/MrWong99/voxnav/pkg/browser/mock"
)

type fixture struct {
	surface  *mock.Surface
	tabs     *mock.Tabs
	overlay  *mock.Overlay
	registry *page.Registry
	notifier *hudmock.Notifier
	exec     *Executor
}

func newFixture(t *testing.T, candidates ...browser.Candidate) *fixture {
	t.Helper()
	f := &fixture{
		surface:  mock.NewSurface(candidates...),
		tabs:     &mock.Tabs{},
		overlay:  &mock.Overlay{},
		notifier: &hudmock.Notifier{},
	}
	f.registry = page.New(f.surface)
	if err := f.registry.Rebuild(context.Background()); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	f.exec = New(f.surface, f.tabs, f.overlay, f.registry, f.notifier, 400, WithNavDelay(0))
	return f
}

func TestExecuteScrolling(t *testing.T) {
	t.Parallel()

	tests := []struct {
		action  command.Action
		wantOp  string
		wantArg string
	}{
		{command.ActionScrollDown, "scrollBy", "400"},
		{command.ActionScrollUp, "scrollBy", "-400"},
		{command.ActionScrollTop, "scrollTop", ""},
		{command.ActionScrollBottom, "scrollBottom", ""},
	}
	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			t.Parallel()
			f := newFixture(t)
			if err := f.exec.Execute(context.Background(), tt.action, ""); err != nil {
				t.Fatalf("Execute(%s) error = %v", tt.action, err)
			}
			if len(f.surface.Calls) != 1 {
				t.Fatalf("got %d surface calls, want 1", len(f.surface.Calls))
			}
			call := f.surface.Calls[0]
			if call.Op != tt.wantOp || call.Arg != tt.wantArg {
				t.Errorf("call = %+v, want op %q arg %q", call, tt.wantOp, tt.wantArg)
			}
			if f.notifier.Last().Class != hud.ClassSuccess {
				t.Errorf("status class = %q, want success", f.notifier.Last().Class)
			}
		})
	}
}

func TestExecuteSetScrollAmount(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.exec.SetScrollAmount(150)

	if err := f.exec.Execute(context.Background(), command.ActionScrollDown, ""); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got := f.surface.Calls[0].Arg; got != "150" {
		t.Errorf("scroll amount = %s, want 150", got)
	}
}

func TestExecuteOpenSite(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	if err := f.exec.Execute(context.Background(), command.ActionOpenSite, "netflix"); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(f.surface.Calls) != 1 {
		t.Fatalf("got %d surface calls, want 1", len(f.surface.Calls))
	}
	if got := f.surface.Calls[0]; got.Op != "navigate" || got.Arg != "https://netflix.com" {
		t.Errorf("call = %+v, want navigate https://netflix.com", got)
	}
}

func TestExecuteOpenSiteKeepsExplicitDomain(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	if err := f.exec.Execute(context.Background(), command.ActionOpenSite, "example.org"); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got := f.surface.Calls[0].Arg; got != "https://example.org" {
		t.Errorf("navigated to %s, want https://example.org", got)
	}
}

func TestExecuteOpenTab(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	if err := f.exec.Execute(context.Background(), command.ActionOpenTab, "netflix"); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(f.tabs.Calls) != 1 {
		t.Fatalf("got %d tab calls, want 1", len(f.tabs.Calls))
	}
	if got := f.tabs.Calls[0]; got.Op != "openSite" || got.Arg != "https://netflix.com" {
		t.Errorf("call = %+v, want openSite https://netflix.com", got)
	}
	if len(f.surface.Calls) != 0 {
		t.Error("open-in-new-tab touched the current page")
	}
}

func TestExecuteOpenSiteWithoutParam(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	err := f.exec.Execute(context.Background(), command.ActionOpenSite, "")
	if !errors.Is(err, ErrNotRecognized) {
		t.Fatalf("Execute() error = %v, want ErrNotRecognized", err)
	}
	if len(f.surface.Calls) != 0 {
		t.Error("navigation happened without a site name")
	}
	if f.notifier.Last().Class != hud.ClassError {
		t.Errorf("status class = %q, want error", f.notifier.Last().Class)
	}
}

func TestExecuteNavDelayDefersEffect(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.exec.navDelay = 20 * time.Millisecond

	if err := f.exec.Execute(context.Background(), command.ActionReload, ""); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(f.surface.CallOps()) != 0 {
		t.Fatal("reload ran before the delay elapsed")
	}

	deadline := time.Now().Add(2 * time.Second)
	for len(f.surface.CallOps()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("deferred reload never ran")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if ops := f.surface.CallOps(); ops[0] != "reload" {
		t.Errorf("deferred op = %s, want reload", ops[0])
	}
}

func TestExecuteHistoryAndTabs(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	for _, act := range []command.Action{command.ActionBack, command.ActionForward, command.ActionReload} {
		if err := f.exec.Execute(ctx, act, ""); err != nil {
			t.Fatalf("Execute(%s) error = %v", act, err)
		}
	}
	if ops := f.surface.CallOps(); !slices.Equal(ops, []string{"back", "forward", "reload"}) {
		t.Errorf("surface ops = %v", ops)
	}

	for _, act := range []command.Action{command.ActionNewTab, command.ActionNextTab, command.ActionPreviousTab, command.ActionCloseTab} {
		if err := f.exec.Execute(ctx, act, ""); err != nil {
			t.Fatalf("Execute(%s) error = %v", act, err)
		}
	}
	want := []string{"newTab", "nextTab", "previousTab", "closeTab"}
	if len(f.tabs.Calls) != len(want) {
		t.Fatalf("got %d tab calls, want %d", len(f.tabs.Calls), len(want))
	}
	for i, call := range f.tabs.Calls {
		if call.Op != want[i] {
			t.Errorf("tab call %d = %s, want %s", i, call.Op, want[i])
		}
	}
}

func TestExecuteClickByName(t *testing.T) {
	t.Parallel()
	f := newFixture(t,
		browser.Candidate{Handle: "vx-1", Label: "Search", IsLink: false},
		browser.Candidate{Handle: "vx-2", Text: "Sign In", IsLink: true},
	)

	if err := f.exec.Execute(context.Background(), command.ActionClick, "sign in"); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got := f.surface.Calls[0]; got.Op != "click" || got.Arg != "vx-2" {
		t.Errorf("call = %+v, want click vx-2", got)
	}
}

func TestExecuteClickUnknownTarget(t *testing.T) {
	t.Parallel()
	f := newFixture(t, browser.Candidate{Handle: "vx-1", Text: "Sign In", IsLink: true})

	err := f.exec.Execute(context.Background(), command.ActionClick, "checkout")
	if !errors.Is(err, ErrTargetNotFound) {
		t.Fatalf("Execute() error = %v, want ErrTargetNotFound", err)
	}
	if len(f.surface.Calls) != 0 {
		t.Error("click happened for an unknown target")
	}
}

func TestExecuteFocusByName(t *testing.T) {
	t.Parallel()
	f := newFixture(t, browser.Candidate{Handle: "vx-7", Placeholder: "Email address"})

	if err := f.exec.Execute(context.Background(), command.ActionFocus, "email address"); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got := f.surface.Calls[0]; got.Op != "focus" || got.Arg != "vx-7" {
		t.Errorf("call = %+v, want focus vx-7", got)
	}
}

func TestExecuteShowLinksAndNumericClick(t *testing.T) {
	t.Parallel()
	f := newFixture(t,
		browser.Candidate{Handle: "vx-1", Text: "Home", IsLink: true},
		browser.Candidate{Handle: "vx-2", Text: "Products", IsLink: true},
		browser.Candidate{Handle: "vx-3", Label: "Search", IsLink: false},
		browser.Candidate{Handle: "vx-4", Text: "Contact", IsLink: true},
	)
	ctx := context.Background()

	if err := f.exec.Execute(ctx, command.ActionShowLinks, ""); err != nil {
		t.Fatalf("Execute(showLinks) error = %v", err)
	}
	shown := f.overlay.Current()
	if len(shown) != 3 {
		t.Fatalf("got %d badges, want 3 (links only)", len(shown))
	}

	if err := f.exec.Execute(ctx, command.ActionClick, "2"); err != nil {
		t.Fatalf("Execute(click 2) error = %v", err)
	}
	if got := f.surface.Calls[0]; got.Op != "click" || got.Arg != "vx-2" {
		t.Errorf("call = %+v, want click vx-2", got)
	}

	// Spoken number words resolve the same way.
	if err := f.exec.Execute(ctx, command.ActionClick, "three"); err != nil {
		t.Fatalf("Execute(click three) error = %v", err)
	}
	if got := f.surface.Calls[1]; got.Arg != "vx-4" {
		t.Errorf("badge 3 clicked %s, want vx-4", got.Arg)
	}
}

func TestExecuteNumericClickWithoutBadges(t *testing.T) {
	t.Parallel()
	f := newFixture(t, browser.Candidate{Handle: "vx-1", Text: "Home", IsLink: true})

	err := f.exec.Execute(context.Background(), command.ActionClick, "3")
	if !errors.Is(err, ErrNotRecognized) {
		t.Fatalf("Execute() error = %v, want ErrNotRecognized", err)
	}
	if len(f.surface.Calls) != 0 {
		t.Error("numeric click without badges reached the page")
	}
}

func TestExecuteNumericClickFailsAfterHideLinks(t *testing.T) {
	t.Parallel()
	f := newFixture(t,
		browser.Candidate{Handle: "vx-1", Text: "Home", IsLink: true},
		browser.Candidate{Handle: "vx-2", Text: "Contact", IsLink: true},
	)
	ctx := context.Background()

	if err := f.exec.Execute(ctx, command.ActionShowLinks, ""); err != nil {
		t.Fatalf("Execute(showLinks) error = %v", err)
	}
	if err := f.exec.Execute(ctx, command.ActionHideLinks, ""); err != nil {
		t.Fatalf("Execute(hideLinks) error = %v", err)
	}
	if err := f.exec.Execute(ctx, command.ActionClick, "1"); !errors.Is(err, ErrNotRecognized) {
		t.Fatalf("Execute(click 1) error = %v, want ErrNotRecognized", err)
	}
}

func TestExecuteShowLinksWithoutLinks(t *testing.T) {
	t.Parallel()
	f := newFixture(t, browser.Candidate{Handle: "vx-1", Label: "Search", IsLink: false})

	err := f.exec.Execute(context.Background(), command.ActionShowLinks, "")
	if !errors.Is(err, ErrTargetNotFound) {
		t.Fatalf("Execute() error = %v, want ErrTargetNotFound", err)
	}
	if f.overlay.ShowCalls != 0 {
		t.Error("badges shown on a page without links")
	}
}

func TestExecuteTyping(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.surface.FocusedEditable = true
	ctx := context.Background()

	if err := f.exec.Execute(ctx, command.ActionType, "hello world"); err != nil {
		t.Fatalf("Execute(type) error = %v", err)
	}
	if f.surface.FocusedContent != "hello world" {
		t.Errorf("focused content = %q", f.surface.FocusedContent)
	}

	if err := f.exec.Execute(ctx, command.ActionClearText, ""); err != nil {
		t.Fatalf("Execute(clearText) error = %v", err)
	}
	if f.surface.FocusedContent != "" {
		t.Errorf("focused content = %q after clear", f.surface.FocusedContent)
	}

	if err := f.exec.Execute(ctx, command.ActionPressEnter, ""); err != nil {
		t.Fatalf("Execute(pressEnter) error = %v", err)
	}
	if ops := f.surface.CallOps(); ops[len(ops)-1] != "enter" {
		t.Errorf("last op = %s, want enter", ops[len(ops)-1])
	}
}

func TestExecuteTypingWithoutFocusedInput(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	err := f.exec.Execute(context.Background(), command.ActionType, "hello")
	if !errors.Is(err, browser.ErrNoFocusedInput) {
		t.Fatalf("Execute(type) error = %v, want ErrNoFocusedInput", err)
	}
	if err := f.exec.Execute(context.Background(), command.ActionClearText, ""); !errors.Is(err, browser.ErrNoFocusedInput) {
		t.Fatalf("Execute(clearText) error = %v, want ErrNoFocusedInput", err)
	}
	if f.notifier.Last().Class != hud.ClassError {
		t.Errorf("status class = %q, want error", f.notifier.Last().Class)
	}
}

func TestExecuteRejectsModeActions(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	for _, act := range []command.Action{command.ActionStartTyping, command.ActionStopTyping, command.ActionStopListening} {
		if err := f.exec.Execute(context.Background(), act, ""); err == nil {
			t.Errorf("Execute(%s) succeeded, want error", act)
		}
	}
}
