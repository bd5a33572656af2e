package broadcast

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/storm-navigator/internal/domain"
	"github.com/couchcryptid/storm-navigator/internal/observability"
)

func newTestBroadcaster(clock clockwork.Clock) *Broadcaster {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(clock, logger, observability.NewMetricsForTesting(), DefaultExpiry)
}

func TestBroadcasterTrigger(t *testing.T) {
	clock := clockwork.NewFakeClock()
	b := newTestBroadcaster(clock)

	_, ok := b.Active()
	assert.False(t, ok, "no pulse before any trigger")

	b.Trigger([]string{"floodZones", "roads"}, domain.DiffSceneSync)

	diff, ok := b.Active()
	require.True(t, ok)
	assert.Equal(t, []string{"floodZones", "roads"}, diff.ChangedKeys)
	assert.Equal(t, domain.DiffSceneSync, diff.Kind)
	assert.Equal(t, clock.Now().Add(DefaultExpiry), diff.ExpiresAt)
}

func TestBroadcasterExpiry(t *testing.T) {
	clock := clockwork.NewFakeClock()
	b := newTestBroadcaster(clock)

	b.Trigger([]string{"roads"}, domain.DiffManual)

	clock.Advance(DefaultExpiry - time.Millisecond)
	_, ok := b.Active()
	assert.True(t, ok, "still active just before expiry")

	clock.Advance(time.Millisecond)
	_, ok = b.Active()
	assert.False(t, ok, "cleared at expiry")
}

func TestBroadcasterRapidRetrigger(t *testing.T) {
	clock := clockwork.NewFakeClock()
	b := newTestBroadcaster(clock)

	b.Trigger([]string{"roads"}, domain.DiffSceneSync)
	clock.Advance(1 * time.Second)
	b.Trigger([]string{"buildings"}, domain.DiffSceneSync)

	// The first pulse's timer fires now, but it must not clear the second.
	clock.Advance(1 * time.Second)
	diff, ok := b.Active()
	require.True(t, ok, "stale timer must not wipe the newer pulse")
	assert.Equal(t, []string{"buildings"}, diff.ChangedKeys)

	clock.Advance(1 * time.Second)
	_, ok = b.Active()
	assert.False(t, ok, "second pulse expires on its own schedule")
}

func TestBroadcasterEmptyChangeSet(t *testing.T) {
	clock := clockwork.NewFakeClock()
	b := newTestBroadcaster(clock)

	var calls int
	b.Subscribe(func(domain.TransitionDiff) { calls++ })

	b.Trigger(nil, domain.DiffSceneSync)
	b.Trigger([]string{}, domain.DiffManual)

	_, ok := b.Active()
	assert.False(t, ok)
	assert.Zero(t, calls)
}

func TestBroadcasterListeners(t *testing.T) {
	clock := clockwork.NewFakeClock()
	b := newTestBroadcaster(clock)

	var got []domain.TransitionDiff
	b.Subscribe(func(d domain.TransitionDiff) { got = append(got, d) })
	b.Subscribe(func(d domain.TransitionDiff) { got = append(got, d) })

	b.Trigger([]string{"parks"}, domain.DiffManual)

	require.Len(t, got, 2, "every listener sees the pulse")
	assert.Equal(t, domain.DiffManual, got[0].Kind)
	assert.Equal(t, []string{"parks"}, got[1].ChangedKeys)
}

func TestBroadcasterCustomExpiry(t *testing.T) {
	clock := clockwork.NewFakeClock()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	b := New(clock, logger, observability.NewMetricsForTesting(), 500*time.Millisecond)

	b.Trigger([]string{"roads"}, domain.DiffSceneSync)
	clock.Advance(600 * time.Millisecond)
	_, ok := b.Active()
	assert.False(t, ok)
}
