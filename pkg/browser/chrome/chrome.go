// Package chrome implements the browser capability interfaces against a
// running Chrome/Chromium instance over the DevTools Protocol (chromedp).
//
// A Chrome value attaches to an existing browser via its DevTools WebSocket
// URL (start the browser with --remote-debugging-port) and drives the
// currently active tab. Element handles are data attributes stamped onto the
// page during a scan; they stay resolvable until the next scan rewrites them.
//
// Page mutation notifications are produced by a MutationObserver installed on
// every document, which calls back into Go through a DevTools binding.
package chrome

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"

	"github.com/MrWong99/voxnav/pkg/browser"
)

// mutationBinding is the name of the DevTools binding the injected
// MutationObserver calls on page changes.
const mutationBinding = "voxnavMutated"

// observerScript installs a MutationObserver covering subtree structure plus
// the attributes the element registry cares about.
const observerScript = `
(() => {
	if (window.__voxnavObserver) return;
	const notify = () => { if (window.` + mutationBinding + `) window.` + mutationBinding + `(""); };
	const obs = new MutationObserver(notify);
	const start = () => obs.observe(document.documentElement, {
		childList: true,
		subtree: true,
		attributes: true,
		attributeFilter: ["aria-label", "aria-labelledby", "role", "class", "style"],
	});
	if (document.documentElement) start(); else window.addEventListener("DOMContentLoaded", start);
	window.__voxnavObserver = obs;
})();`

// scanScript stamps a handle attribute on every visible interactive element
// and returns the naming attributes the registry derives names from.
const scanScript = `
(() => {
	const sel = 'a, button, input, select, textarea, [role], [aria-label], [aria-labelledby], [placeholder], [onclick]';
	const out = [];
	let n = 0;
	for (const el of document.querySelectorAll(sel)) {
		const rect = el.getBoundingClientRect();
		if (rect.width === 0 || rect.height === 0) continue;
		if (el.disabled) continue;
		const style = window.getComputedStyle(el);
		if (style.display === 'none' || style.visibility === 'hidden') continue;
		const handle = 'vx-' + (++n);
		el.setAttribute('data-voxnav', handle);
		let labelledBy = '';
		const ref = el.getAttribute('aria-labelledby');
		if (ref) {
			labelledBy = ref.split(/\s+/)
				.map(id => { const t = document.getElementById(id); return t ? t.textContent : ''; })
				.join(' ');
		}
		out.push({
			handle: handle,
			labelledBy: labelledBy,
			label: el.getAttribute('aria-label') || '',
			placeholder: el.getAttribute('placeholder') || el.getAttribute('aria-placeholder') || '',
			title: el.getAttribute('title') || '',
			text: el.innerText || el.value || el.textContent || '',
			isLink: el.tagName === 'A' && !!el.getAttribute('href'),
		});
	}
	return out;
})()`

// candidateRecord mirrors browser.Candidate with the JSON keys produced by
// scanScript.
type candidateRecord struct {
	Handle      string `json:"handle"`
	LabelledBy  string `json:"labelledBy"`
	Label       string `json:"label"`
	Placeholder string `json:"placeholder"`
	Title       string `json:"title"`
	Text        string `json:"text"`
	IsLink      bool   `json:"isLink"`
}

// tab tracks one attached page target.
type tab struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// Chrome drives a Chrome instance over the DevTools Protocol. It implements
// browser.Surface, browser.Tabs, and browser.Overlay.
//
// All methods are safe for concurrent use; operations on the page are
// serialized per tab by chromedp itself.
type Chrome struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc

	mu      sync.Mutex
	tabs    []*tab
	current int

	mutations chan struct{}
}

// Connect attaches to a browser exposing the DevTools protocol at devtoolsURL
/// (e.g. "ws://127.0.0.1:9222"). The first existing tab becomes the current
// one; if the browser has none, a blank tab is opened.
func Connect(ctx context.Context, devtoolsURL string) (*Chrome, error) {
	allocCtx, allocCancel := chromedp.NewRemoteAllocator(ctx, devtoolsURL)

	c := &Chrome{
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		mutations:   make(chan struct{}, 8),
	}

	t, err := c.attachTab()
	if err != nil {
		allocCancel()
		return nil, fmt.Errorf("chrome: connect %q: %w", devtoolsURL, err)
	}
	c.tabs = append(c.tabs, t)
	return c, nil
}

// attachTab creates a chromedp context for a fresh tab, installs the mutation
// observer, and wires its binding events into the shared mutation channel.
func (c *Chrome) attachTab() (*tab, error) {
	tabCtx, cancel := chromedp.NewContext(c.allocCtx)

	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		if bc, ok := ev.(*runtime.EventBindingCalled); ok && bc.Name == mutationBinding {
			select {
			case c.mutations <- struct{}{}:
			default:
			}
		}
	})

	err := chromedp.Run(tabCtx,
		runtime.AddBinding(mutationBinding),
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(observerScript).Do(ctx)
			return err
		}),
		chromedp.Evaluate(observerScript, nil),
	)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("install mutation observer: %w", err)
	}
	return &tab{ctx: tabCtx, cancel: cancel}, nil
}

// currentTab returns the active tab's chromedp context.
func (c *Chrome) currentTab() context.Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tabs[c.current].ctx
}

// Close detaches from the browser and releases all tab contexts. The browser
// process itself keeps running.
func (c *Chrome) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range c.tabs {
		t.cancel()
	}
	c.tabs = nil
	c.allocCancel()
	return nil
}

// ---- browser.Surface ----

// QueryInteractiveElements scans the current page for visible interactive
// elements in document order.
func (c *Chrome) QueryInteractiveElements(ctx context.Context) ([]browser.Candidate, error) {
	var records []candidateRecord
	if err := c.run(ctx, chromedp.Evaluate(scanScript, &records)); err != nil {
		return nil, fmt.Errorf("chrome: scan page: %w", err)
	}
	out := make([]browser.Candidate, len(records))
	for i, r := range records {
		out[i] = browser.Candidate{
			Handle:      r.Handle,
			LabelledBy:  r.LabelledBy,
			Label:       r.Label,
			Placeholder: r.Placeholder,
			Title:       r.Title,
			Text:        r.Text,
			IsLink:      r.IsLink,
		}
	}
	return out, nil
}

// Mutations returns the coalesced page-mutation notification channel.
func (c *Chrome) Mutations() <-chan struct{} { return c.mutations }

// elementExpr evaluates a JS expression against the element with the given
// handle, returning false when the handle no longer resolves.
func (c *Chrome) elementExpr(ctx context.Context, handle, effect string) error {
	expr := fmt.Sprintf(`(() => {
		const el = document.querySelector('[data-voxnav=%q]');
		if (!el) return false;
		%s;
		return true;
	})()`, handle, effect)

	var found bool
	if err := c.run(ctx, chromedp.Evaluate(expr, &found)); err != nil {
		return fmt.Errorf("chrome: element %s: %w", handle, err)
	}
	if !found {
		return browser.ErrElementGone
	}
	return nil
}

// Click dispatches a click on the element identified by handle.
func (c *Chrome) Click(ctx context.Context, handle string) error {
	return c.elementExpr(ctx, handle, "el.click()")
}

// Focus moves keyboard focus to the element identified by handle.
func (c *Chrome) Focus(ctx context.Context, handle string) error {
	return c.elementExpr(ctx, handle, "el.focus()")
}

// ScrollBy scrolls the page vertically by the given pixel amount.
func (c *Chrome) ScrollBy(ctx context.Context, pixels int) error {
	return c.run(ctx, chromedp.Evaluate(fmt.Sprintf("window.scrollBy(0, %d)", pixels), nil))
}

// ScrollToTop jumps to the top of the page.
func (c *Chrome) ScrollToTop(ctx context.Context) error {
	return c.run(ctx, chromedp.Evaluate("window.scrollTo(0, 0)", nil))
}

// ScrollToBottom jumps to the bottom of the page.
func (c *Chrome) ScrollToBottom(ctx context.Context) error {
	return c.run(ctx, chromedp.Evaluate("window.scrollTo(0, document.body.scrollHeight)", nil))
}

// Navigate loads url in the current tab.
func (c *Chrome) Navigate(ctx context.Context, url string) error {
	return c.run(ctx, chromedp.Navigate(url))
}

// Back navigates one step back in session history.
func (c *Chrome) Back(ctx context.Context) error {
	return c.run(ctx, chromedp.NavigateBack())
}

// Forward navigates one step forward in session history.
func (c *Chrome) Forward(ctx context.Context) error {
	return c.run(ctx, chromedp.NavigateForward())
}

// Reload reloads the current page.
func (c *Chrome) Reload(ctx context.Context) error {
	return c.run(ctx, chromedp.Reload())
}

// focusedExpr runs a JS effect against the focused editable element,
// reporting ErrNoFocusedInput when nothing editable has focus.
func (c *Chrome) focusedExpr(ctx context.Context, effect string) error {
	expr := fmt.Sprintf(`(() => {
		const el = document.activeElement;
		if (!el) return false;
		const editable = el.isContentEditable ||
			el.tagName === 'TEXTAREA' ||
			(el.tagName === 'INPUT' && !el.readOnly);
		if (!editable) return false;
		%s;
		return true;
	})()`, effect)

	var found bool
	if err := c.run(ctx, chromedp.Evaluate(expr, &found)); err != nil {
		return fmt.Errorf("chrome: focused element: %w", err)
	}
	if !found {
		return browser.ErrNoFocusedInput
	}
	return nil
}

// AppendToFocused appends text to the focused editable element.
func (c *Chrome) AppendToFocused(ctx context.Context, text string) error {
	effect := fmt.Sprintf(
		`if (el.isContentEditable) { el.textContent += %[1]q; } else { el.value += %[1]q; }
		el.dispatchEvent(new Event('input', {bubbles: true}))`, text)
	return c.focusedExpr(ctx, effect)
}

// ClearFocused empties the focused editable element.
func (c *Chrome) ClearFocused(ctx context.Context) error {
	effect := `if (el.isContentEditable) { el.textContent = ''; } else { el.value = ''; }
		el.dispatchEvent(new Event('input', {bubbles: true}))`
	return c.focusedExpr(ctx, effect)
}

// PressEnter dispatches a synthetic Enter key press to the focused element.
func (c *Chrome) PressEnter(ctx context.Context) error {
	return c.run(ctx, chromedp.KeyEvent(kb.Enter))
}

// ---- browser.Tabs ----

// NewTab opens a blank tab and makes it current.
func (c *Chrome) NewTab(ctx context.Context) error {
	t, err := c.attachTab()
	if err != nil {
		return fmt.Errorf("chrome: new tab: %w", err)
	}
	if err := chromedp.Run(t.ctx, chromedp.Navigate("about:blank")); err != nil {
		t.cancel()
		return fmt.Errorf("chrome: new tab: %w", err)
	}

	c.mu.Lock()
	c.tabs = append(c.tabs, t)
	c.current = len(c.tabs) - 1
	c.mu.Unlock()
	return nil
}

// CloseTab closes the current tab. The last remaining tab cannot be closed.
func (c *Chrome) CloseTab(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.tabs) <= 1 {
		return fmt.Errorf("chrome: refusing to close the last tab")
	}
	t := c.tabs[c.current]
	c.tabs = append(c.tabs[:c.current], c.tabs[c.current+1:]...)
	if c.current >= len(c.tabs) {
		c.current = len(c.tabs) - 1
	}
	t.cancel()
	return c.activateLocked()
}

// NextTab activates the tab after the current one, wrapping around.
func (c *Chrome) NextTab(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = (c.current + 1) % len(c.tabs)
	return c.activateLocked()
}

// PreviousTab activates the tab before the current one, wrapping around.
func (c *Chrome) PreviousTab(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = (c.current - 1 + len(c.tabs)) % len(c.tabs)
	return c.activateLocked()
}

// OpenSite opens url in a new tab.
func (c *Chrome) OpenSite(ctx context.Context, url string) error {
	t, err := c.attachTab()
	if err != nil {
		return fmt.Errorf("chrome: open site: %w", err)
	}
	if err := chromedp.Run(t.ctx, chromedp.Navigate(url)); err != nil {
		t.cancel()
		return fmt.Errorf("chrome: open site %q: %w", url, err)
	}

	c.mu.Lock()
	c.tabs = append(c.tabs, t)
	c.current = len(c.tabs) - 1
	c.mu.Unlock()
	return nil
}

// activateLocked brings the current tab to the foreground. Callers must hold mu.
func (c *Chrome) activateLocked() error {
	t := c.tabs[c.current]
	return chromedp.Run(t.ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		tgt := chromedp.FromContext(ctx).Target
		if tgt == nil {
			return nil
		}
		return target.ActivateTarget(tgt.TargetID).Do(ctx)
	}))
}

// ---- browser.Overlay ----

// ShowBadges renders numbered badge markers next to their link elements.
func (c *Chrome) ShowBadges(ctx context.Context, badges []browser.Badge) error {
	var sb strings.Builder
	sb.WriteString(`(() => {
		let box = document.getElementById('voxnav-badges');
		if (box) box.remove();
		box = document.createElement('div');
		box.id = 'voxnav-badges';
		document.body.appendChild(box);
		const mark = (num, handle) => {
			const el = document.querySelector('[data-voxnav="' + handle + '"]');
			if (!el) return;
			const r = el.getBoundingClientRect();
			const b = document.createElement('span');
			b.textContent = num;
			b.style.cssText = 'position:fixed;z-index:2147483647;background:#ff6600;color:#fff;' +
				'font:bold 12px sans-serif;padding:1px 5px;border-radius:3px;' +
				'left:' + r.left + 'px;top:' + Math.max(0, r.top - 10) + 'px';
			box.appendChild(b);
		};
`)
	for _, b := range badges {
		fmt.Fprintf(&sb, "\t\tmark(%d, %q);\n", b.Number, b.Handle)
	}
	sb.WriteString("\t})()")

	if err := c.run(ctx, chromedp.Evaluate(sb.String(), nil)); err != nil {
		return fmt.Errorf("chrome: show badges: %w", err)
	}
	return nil
}

// ClearBadges removes all rendered badge markers.
func (c *Chrome) ClearBadges(ctx context.Context) error {
	const expr = `(() => { const box = document.getElementById('voxnav-badges'); if (box) box.remove(); })()`
	if err := c.run(ctx, chromedp.Evaluate(expr, nil)); err != nil {
		return fmt.Errorf("chrome: clear badges: %w", err)
	}
	return nil
}

// run executes actions against the current tab, honouring the caller's
// context. Cancelling ctx cancels the in-flight chromedp call instead of
// abandoning it; only the derived context is cancelled, so the tab itself
// stays open.
func (c *Chrome) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(c.currentTab())
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

// Ensure Chrome implements all three capability interfaces at compile time.
var (
	_ browser.Surface = (*Chrome)(nil)
	_ browser.Tabs    = (*Chrome)(nil)
	_ browser.Overlay = (*Chrome)(nil)
)
