package mapbox

import (
	"context"
	"fmt"
	"sync"

	"github.com/couchcryptid/storm-navigator/internal/domain"
	"github.com/couchcryptid/storm-navigator/internal/observability"
)

// CachedGeocoder wraps a Geocoder with a bounded in-memory cache keyed by
// rounded coordinates. Scene captures cluster around the same handful of map
// views, so even a small cache absorbs nearly all repeat lookups. When the
// cache fills it is dropped wholesale; with capture-rate traffic that happens
// rarely enough that eviction bookkeeping isn't worth carrying.
type CachedGeocoder struct {
	inner      domain.Geocoder
	metrics    *observability.Metrics
	maxEntries int

	mu      sync.Mutex
	entries map[string]domain.GeocodingResult
}

// NewCachedGeocoder creates a cache decorator around a geocoder.
func NewCachedGeocoder(inner domain.Geocoder, maxEntries int, metrics *observability.Metrics) *CachedGeocoder {
	return &CachedGeocoder{
		inner:      inner,
		metrics:    metrics,
		maxEntries: maxEntries,
		entries:    make(map[string]domain.GeocodingResult),
	}
}

// ReverseGeocode returns the cached result for the coordinates if present,
// otherwise asks the inner geocoder.
func (c *CachedGeocoder) ReverseGeocode(ctx context.Context, lat, lng float64) (domain.GeocodingResult, error) {
	key := fmt.Sprintf("%.4f,%.4f", lat, lng)

	c.mu.Lock()
	result, ok := c.entries[key]
	c.mu.Unlock()
	if ok {
		c.metrics.GeocodeCache.WithLabelValues("hit").Inc()
		return result, nil
	}
	c.metrics.GeocodeCache.WithLabelValues("miss").Inc()

	result, err := c.inner.ReverseGeocode(ctx, lat, lng)
	if err != nil {
		return result, err
	}

	// Only cache non-empty results so transient "not found" responses can
	// be retried.
	if result.PlaceName != "" {
		c.mu.Lock()
		if len(c.entries) >= c.maxEntries {
			c.entries = make(map[string]domain.GeocodingResult)
		}
		c.entries[key] = result
		c.mu.Unlock()
	}
	return result, nil
}
