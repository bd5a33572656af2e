package domain

import (
	"context"
	"errors"
	"time"
)

// Expected-condition sentinels. These never cross the HTTP boundary as
// failures; the playback engine converts them into user-visible status text.
var (
	ErrControllerNotReady = errors.New("map controller not ready")
	ErrSceneNotFound      = errors.New("scene not found")
)

// MapController is the external collaborator that owns the rendered map. The
// production implementation forwards commands to connected browser clients;
// tests substitute an in-memory recorder. Apply calls are synchronous and
// idempotent; AnimateCamera is fire-and-forget with a declared duration.
type MapController interface {
	// Ready reports whether at least one map surface can receive commands.
	Ready() bool

	// Camera returns the last known camera pose.
	Camera() (Camera, error)

	// AnimateCamera eases the map to the target pose over the duration.
	AnimateCamera(camera Camera, duration time.Duration) error

	// ApplyLayerVisibility flips layer visibility flags immediately.
	ApplyLayerVisibility(visibility map[string]bool) error

	// ApplyParksState toggles the parks filter patch on or off.
	ApplyParksState(enabled bool) error
}

// CardPresenter shows and clears annotation cards on the map surface.
// Separate from MapController because card overlays are drawn by the
// presentation layer, not the base map.
type CardPresenter interface {
	ShowCards(cards []AnnotationCard) error
	ClearCards() error
}

// PlaybackEvent records one scene playback for downstream consumers.
type PlaybackEvent struct {
	SceneID       string        `json:"scene_id"`
	SceneName     string        `json:"scene_name"`
	Tier          Tier          `json:"tier"`
	ChangedLayers []string      `json:"changed_layers,omitempty"`
	StartedAt     time.Time     `json:"started_at"`
	Duration      time.Duration `json:"duration"`
}

// EventPublisher emits playback events to an external sink. Publishing is
// best-effort: the engine logs failures and carries on.
type EventPublisher interface {
	PublishPlayback(ctx context.Context, event PlaybackEvent) error
}

// GeocodingResult contains location data returned by a geocoding provider.
type GeocodingResult struct {
	PlaceName        string
	FormattedAddress string
	Confidence       float64 // 0.0-1.0 provider confidence score
}

// Geocoder enriches captured scenes with a human-readable place name.
type Geocoder interface {
	// ReverseGeocode converts coordinates to place details.
	ReverseGeocode(ctx context.Context, lat, lng float64) (GeocodingResult, error)
}
