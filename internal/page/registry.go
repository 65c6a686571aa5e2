// Package page maintains a live index of named interactive elements on the
// current page.
//
// The registry owns no rendering-tree state of its own: it scans through the
// browser.Surface capability interface and keeps only (name, handle) pairs.
// Every rebuild wholesale-replaces the entry set, so handles from removed
// elements can never be served stale. Rebuilds are triggered by the Surface's
// mutation notifications, coalesced by a quiet-period debounce so that burst
// mutations (page hydration, animations) cost a single scan.
package page

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/MrWong99/voxnav/internal/observe"
	"github.com/MrWong99/voxnav/pkg/browser"
)

// DefaultDebounce is the quiet period after the last mutation notification
// before the registry rebuilds.
const DefaultDebounce = 250 * time.Millisecond

// Entry is one named interactive element. The handle is non-owning: the page
// controls the element's lifetime, and the entry is invalidated wholesale on
// the next rebuild.
type Entry struct {
	// Name is the normalized lowercase accessible name. Never empty;
	// candidates without a derivable name are excluded at rebuild.
	Name string

	// Handle is the Surface's opaque reference to the element.
	Handle string

	// IsLink marks hyperlink entries for the numbered link overlay.
	IsLink bool
}

// Option is a functional option for configuring a Registry.
type Option func(*Registry)

// WithDebounce sets the mutation quiet period. Default: 250ms.
func WithDebounce(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.debounce = d
		}
	}
}

// WithMetrics records rebuild latency and entry counts.
func WithMetrics(m *observe.Metrics) Option {
	return func(r *Registry) {
		r.metrics = m
	}
}

// Registry indexes the current page's interactive elements by accessible
// name. All methods are safe for concurrent use.
type Registry struct {
	surface  browser.Surface
	debounce time.Duration
	metrics  *observe.Metrics

	mu      sync.RWMutex
	entries []Entry
}

// New returns a Registry over surface. Call Rebuild for the initial scan and
// Watch to keep the index current.
func New(surface browser.Surface, opts ...Option) *Registry {
	r := &Registry{
		surface:  surface,
		debounce: DefaultDebounce,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Rebuild synchronously rescans the page and replaces the entry set.
// Candidates whose derived name normalizes to empty are dropped; the rest
// keep document order.
func (r *Registry) Rebuild(ctx context.Context) error {
	start := time.Now()
	candidates, err := r.surface.QueryInteractiveElements(ctx)
	if err != nil {
		return fmt.Errorf("page: rebuild: %w", err)
	}

	entries := make([]Entry, 0, len(candidates))
	for _, c := range candidates {
		name := DeriveName(c)
		if name == "" {
			continue
		}
		entries = append(entries, Entry{Name: name, Handle: c.Handle, IsLink: c.IsLink})
	}

	r.mu.Lock()
	r.entries = entries
	r.mu.Unlock()

	if r.metrics != nil {
		r.metrics.RegistryRebuildDuration.Record(ctx, time.Since(start).Seconds())
		r.metrics.RegistryEntries.Record(ctx, int64(len(entries)))
	}
	return nil
}

// Lookup resolves a spoken target name to an element. It tries exact name
// equality first, then bidirectional substring containment (entry name
// contains the target or vice versa), returning the first match in document
// order. target is normalized the same way entry names are.
func (r *Registry) Lookup(target string) (Entry, bool) {
	target = normalizeName(target)
	if target == "" {
		return Entry{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.entries {
		if e.Name == target {
			return e, true
		}
	}
	for _, e := range r.entries {
		if strings.Contains(e.Name, target) || strings.Contains(target, e.Name) {
			return e, true
		}
	}
	return Entry{}, false
}

// Entries returns a copy of the current entry set in document order.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Links returns the current hyperlink entries in document order.
func (r *Registry) Links() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Entry
	for _, e := range r.entries {
		if e.IsLink {
			out = append(out, e)
		}
	}
	return out
}

// Watch consumes the Surface's mutation notifications until ctx is done,
// rebuilding once per burst after the quiet period elapses. Multiple
// notifications inside the window collapse into a single rebuild.
//
// Watch blocks; run it in its own goroutine.
func (r *Registry) Watch(ctx context.Context) {
	var (
		timer   *time.Timer
		pending <-chan time.Time
	)

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case <-r.surface.Mutations():
			if timer == nil {
				timer = time.NewTimer(r.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(r.debounce)
			}
			pending = timer.C
		case <-pending:
			pending = nil
			if err := r.Rebuild(ctx); err != nil {
				slog.Warn("page: debounced rebuild failed", "error", err)
			}
		}
	}
}

// DeriveName derives the accessible name of a candidate using the priority
// order aria-labelledby referent text, aria-label, placeholder, title, then
// inner text/value. The result is normalized: newlines collapsed to spaces,
// trimmed, lowercased. Returns "" when no source yields a name.
func DeriveName(c browser.Candidate) string {
	for _, source := range []string{c.LabelledBy, c.Label, c.Placeholder, c.Title, c.Text} {
		if name := normalizeName(source); name != "" {
			return name
		}
	}
	return ""
}

// normalizeName collapses all whitespace runs (including newlines) to single
// spaces, trims, and lowercases.
func normalizeName(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
