// Package broadcast owns the transition pulse: the short-lived set of layer
// keys whose visibility just changed. Consumers render it as a highlight and
// the pulse clears itself after the configured expiry.
package broadcast

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/storm-navigator/internal/domain"
	"github.com/couchcryptid/storm-navigator/internal/observability"
)

// DefaultExpiry is how long a pulse stays active after broadcast.
const DefaultExpiry = 2000 * time.Millisecond

// Listener receives each broadcast pulse. Listeners run on the triggering
// goroutine and must not block.
type Listener func(domain.TransitionDiff)

// Broadcaster publishes transition diffs with last-write-wins expiry. Each
// pulse carries a token; the expiry timer only clears the pulse it was armed
// for, so a rapid re-trigger is never wiped by a stale timer.
type Broadcaster struct {
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics
	expiry  time.Duration

	mu        sync.Mutex
	current   *domain.TransitionDiff
	token     uint64
	listeners []Listener
}

// New creates a Broadcaster. A non-positive expiry falls back to DefaultExpiry.
func New(clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics, expiry time.Duration) *Broadcaster {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	return &Broadcaster{
		clock:   clock,
		logger:  logger,
		metrics: metrics,
		expiry:  expiry,
	}
}

// Subscribe registers a listener for future pulses.
func (b *Broadcaster) Subscribe(fn Listener) {
	b.mu.Lock()
	b.listeners = append(b.listeners, fn)
	b.mu.Unlock()
}

// Trigger publishes a pulse for the changed keys. An empty change set is a
// no-op: nothing flipped, nothing to highlight.
func (b *Broadcaster) Trigger(changedKeys []string, kind domain.DiffKind) {
	if len(changedKeys) == 0 {
		return
	}

	diff := domain.TransitionDiff{
		ChangedKeys: changedKeys,
		Kind:        kind,
		ExpiresAt:   b.clock.Now().Add(b.expiry),
	}

	b.mu.Lock()
	b.token++
	token := b.token
	b.current = &diff
	listeners := make([]Listener, len(b.listeners))
	copy(listeners, b.listeners)
	b.mu.Unlock()

	b.metrics.TransitionPulses.WithLabelValues(string(kind)).Inc()
	b.logger.Debug("transition pulse", "kind", kind, "changed", len(changedKeys))

	b.clock.AfterFunc(b.expiry, func() {
		b.mu.Lock()
		if b.token == token {
			b.current = nil
		}
		b.mu.Unlock()
	})

	for _, fn := range listeners {
		fn(diff)
	}
}

// Active returns the live pulse, if any.
func (b *Broadcaster) Active() (domain.TransitionDiff, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current == nil || !b.clock.Now().Before(b.current.ExpiresAt) {
		return domain.TransitionDiff{}, false
	}
	return *b.current, true
}
