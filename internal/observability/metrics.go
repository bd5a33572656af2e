package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// navigator service.
type Metrics struct {
	ScenesPlayed     *prometheus.CounterVec // labels: tier={simple,moderate,complex,expert}
	PlaybackActive   prometheus.Gauge
	PlaybackDuration prometheus.Histogram
	CardReveals      prometheus.Counter

	// Repository metrics.
	SceneWrites prometheus.Counter
	StoreErrors prometheus.Counter

	// Broadcast metrics.
	TransitionPulses *prometheus.CounterVec // labels: kind={scene-sync,manual}

	// Bridge metrics.
	ConnectedClients prometheus.Gauge

	// Event publishing metrics.
	EventsPublished prometheus.Counter
	PublishErrors   prometheus.Counter

	// Geocoding metrics.
	GeocodeRequests *prometheus.CounterVec // labels: outcome={success,error,empty}
	GeocodeCache    *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeDuration prometheus.Histogram
	GeocodeEnabled  prometheus.Gauge
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		ScenesPlayed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storm_navigator",
			Name:      "scenes_played_total",
			Help:      "Scene playback starts by narration tier.",
		}, []string{"tier"}),
		PlaybackActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "storm_navigator",
			Name:      "playback_active",
			Help:      "1 while a scene transition is running, 0 otherwise.",
		}),
		PlaybackDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "storm_navigator",
			Name:      "playback_duration_seconds",
			Help:      "Wall-clock duration of scene playbacks from start to complete.",
			Buckets:   []float64{0.5, 1, 2, 4, 6, 8, 10, 15},
		}),
		CardReveals: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storm_navigator",
			Name:      "card_reveals_total",
			Help:      "Annotation card batches shown during playback.",
		}),
		SceneWrites: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storm_navigator",
			Name:      "scene_writes_total",
			Help:      "Scene list persistence attempts.",
		}),
		StoreErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storm_navigator",
			Name:      "store_errors_total",
			Help:      "Failed scene store reads and writes.",
		}),
		TransitionPulses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storm_navigator",
			Name:      "transition_pulses_total",
			Help:      "Transition diff broadcasts by kind.",
		}, []string{"kind"}),
		ConnectedClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "storm_navigator",
			Name:      "connected_clients",
			Help:      "Currently connected map surface clients.",
		}),
		EventsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storm_navigator",
			Name:      "events_published_total",
			Help:      "Playback events written to the event sink.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storm_navigator",
			Name:      "publish_errors_total",
			Help:      "Playback event publish failures.",
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storm_navigator",
			Name:      "geocode_requests_total",
			Help:      "Reverse geocoding API requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storm_navigator",
			Name:      "geocode_cache_total",
			Help:      "Reverse geocoding cache lookups by result.",
		}, []string{"result"}),
		GeocodeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "storm_navigator",
			Name:      "geocode_api_duration_seconds",
			Help:      "Mapbox API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		GeocodeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "storm_navigator",
			Name:      "geocode_enabled",
			Help:      "1 when geocoding enrichment is enabled, 0 otherwise.",
		}),
	}

	prometheus.MustRegister(
		m.ScenesPlayed,
		m.PlaybackActive,
		m.PlaybackDuration,
		m.CardReveals,
		m.SceneWrites,
		m.StoreErrors,
		m.TransitionPulses,
		m.ConnectedClients,
		m.EventsPublished,
		m.PublishErrors,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeDuration,
		m.GeocodeEnabled,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		ScenesPlayed:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "storm_navigator", Name: "scenes_played_total"}, []string{"tier"}),
		PlaybackActive:   prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "storm_navigator", Name: "playback_active"}),
		PlaybackDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "storm_navigator", Name: "playback_duration_seconds"}),
		CardReveals:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "storm_navigator", Name: "card_reveals_total"}),
		SceneWrites:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "storm_navigator", Name: "scene_writes_total"}),
		StoreErrors:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "storm_navigator", Name: "store_errors_total"}),
		TransitionPulses: prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "storm_navigator", Name: "transition_pulses_total"}, []string{"kind"}),
		ConnectedClients: prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "storm_navigator", Name: "connected_clients"}),
		EventsPublished:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: "storm_navigator", Name: "events_published_total"}),
		PublishErrors:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "storm_navigator", Name: "publish_errors_total"}),
		GeocodeRequests:  prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "storm_navigator", Name: "geocode_requests_total"}, []string{"outcome"}),
		GeocodeCache:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "storm_navigator", Name: "geocode_cache_total"}, []string{"result"}),
		GeocodeDuration:  prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "storm_navigator", Name: "geocode_api_duration_seconds"}),
		GeocodeEnabled:   prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "storm_navigator", Name: "geocode_enabled"}),
	}
}
