package mapbox

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/storm-navigator/internal/domain"
)

type countingGeocoder struct {
	calls  int
	result domain.GeocodingResult
	err    error
}

func (m *countingGeocoder) ReverseGeocode(_ context.Context, _, _ float64) (domain.GeocodingResult, error) {
	m.calls++
	return m.result, m.err
}

func TestCachedGeocoder_CacheHit(t *testing.T) {
	inner := &countingGeocoder{
		result: domain.GeocodingResult{PlaceName: "Cape Coral", FormattedAddress: "Cape Coral, FL"},
	}
	cached := NewCachedGeocoder(inner, 10, testMetrics())

	r1, err := cached.ReverseGeocode(context.Background(), 26.5667, -81.9568)
	require.NoError(t, err)
	assert.Equal(t, "Cape Coral", r1.PlaceName)

	r2, err := cached.ReverseGeocode(context.Background(), 26.5667, -81.9568)
	require.NoError(t, err)
	assert.Equal(t, "Cape Coral", r2.PlaceName)

	assert.Equal(t, 1, inner.calls, "second lookup served from cache")
}

func TestCachedGeocoder_NearbyCoordinatesShareEntry(t *testing.T) {
	inner := &countingGeocoder{result: domain.GeocodingResult{PlaceName: "Cape Coral"}}
	cached := NewCachedGeocoder(inner, 10, testMetrics())

	// Differences below the rounding precision map to the same key.
	_, err := cached.ReverseGeocode(context.Background(), 26.56671, -81.95682)
	require.NoError(t, err)
	_, err = cached.ReverseGeocode(context.Background(), 26.56672, -81.95683)
	require.NoError(t, err)

	assert.Equal(t, 1, inner.calls)
}

func TestCachedGeocoder_EmptyResultNotCached(t *testing.T) {
	inner := &countingGeocoder{}
	cached := NewCachedGeocoder(inner, 10, testMetrics())

	_, err := cached.ReverseGeocode(context.Background(), 0, 0)
	require.NoError(t, err)
	_, err = cached.ReverseGeocode(context.Background(), 0, 0)
	require.NoError(t, err)

	assert.Equal(t, 2, inner.calls, "empty responses retried")
}

func TestCachedGeocoder_ErrorNotCached(t *testing.T) {
	inner := &countingGeocoder{err: errors.New("api down")}
	cached := NewCachedGeocoder(inner, 10, testMetrics())

	_, err := cached.ReverseGeocode(context.Background(), 26.5, -81.9)
	require.Error(t, err)

	inner.err = nil
	inner.result = domain.GeocodingResult{PlaceName: "Cape Coral"}
	r, err := cached.ReverseGeocode(context.Background(), 26.5, -81.9)
	require.NoError(t, err)
	assert.Equal(t, "Cape Coral", r.PlaceName)
	assert.Equal(t, 2, inner.calls)
}

func TestCachedGeocoder_BoundedSize(t *testing.T) {
	inner := &countingGeocoder{result: domain.GeocodingResult{PlaceName: "Somewhere"}}
	cached := NewCachedGeocoder(inner, 3, testMetrics())

	for i := 0; i < 10; i++ {
		_, err := cached.ReverseGeocode(context.Background(), 26.0+float64(i), -81.0)
		require.NoError(t, err, fmt.Sprintf("lookup %d", i))
	}

	assert.LessOrEqual(t, len(cached.entries), 3)
}
