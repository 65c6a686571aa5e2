package action

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/MrWong99/voxnav/internal/page"
	"github.com/MrWong99/voxnav/pkg/browser"
)

// DefaultBadgeTTL is how long a shown badge set stays valid before it is
// cleared automatically.
const DefaultBadgeTTL = 10 * time.Second

// BadgeList is the ephemeral binding between spoken numbers and page links
// created by "show links". A set stays referenceable until it is cleared
// explicitly, replaced by a new set, or its TTL elapses.
//
// All methods are safe for concurrent use.
type BadgeList struct {
	overlay browser.Overlay
	ttl     time.Duration

	mu      sync.Mutex
	entries []page.Entry
	timer   *time.Timer
	gen     int
}

// NewBadgeList returns an empty BadgeList rendering through overlay.
func NewBadgeList(overlay browser.Overlay, ttl time.Duration) *BadgeList {
	if ttl <= 0 {
		ttl = DefaultBadgeTTL
	}
	return &BadgeList{overlay: overlay, ttl: ttl}
}

// Show renders numbered badges (1-based) for the given links, replacing any
// previous set, and arms the expiry timer. Returns the number of badges shown.
func (b *BadgeList) Show(ctx context.Context, links []page.Entry) (int, error) {
	badges := make([]browser.Badge, len(links))
	for i, l := range links {
		badges[i] = browser.Badge{Number: i + 1, Handle: l.Handle}
	}
	if err := b.overlay.ShowBadges(ctx, badges); err != nil {
		return 0, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = links
	b.gen++
	gen := b.gen
	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(b.ttl, func() { b.expire(gen) })
	return len(links), nil
}

// Get resolves a spoken badge number to its link. Numbers are 1-based.
func (b *BadgeList) Get(number int) (page.Entry, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if number < 1 || number > len(b.entries) {
		return page.Entry{}, false
	}
	return b.entries[number-1], true
}

// Active reports whether a badge set is currently referenceable.
func (b *BadgeList) Active() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries) > 0
}

// Clear removes the badges from the page and drops the bindings. Clearing an
// empty list is a no-op.
func (b *BadgeList) Clear(ctx context.Context) error {
	b.mu.Lock()
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.entries = nil
	b.gen++
	b.mu.Unlock()

	return b.overlay.ClearBadges(ctx)
}

// expire clears the badge set from the TTL timer, unless a newer set has
// replaced the one the timer was armed for.
func (b *BadgeList) expire(gen int) {
	b.mu.Lock()
	if b.gen != gen {
		b.mu.Unlock()
		return
	}
	b.entries = nil
	b.timer = nil
	b.mu.Unlock()

	if err := b.overlay.ClearBadges(context.Background()); err != nil {
		slog.Warn("action: clearing expired link badges failed", "error", err)
	}
}
