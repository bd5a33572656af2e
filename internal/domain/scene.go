package domain

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// LayerNames is the closed set of overlay keys a scene may toggle. Unknown
// keys in persisted data are tolerated but ignored by the playback engine;
// missing keys are treated as hidden.
var LayerNames = []string{
	"floodZones",
	"coastalFloodZones",
	"coastalExtensionFloodZones",
	"floodMax",
	"usace",
	"zipCodeBoundaries",
	"hurricaneMilton",
	"buildings",
	"roads",
	"paths",
	"redfinProperties",
	"commercialPois",
	"socialPois",
	"environmentalPois",
	"blockGroupBoundaries",
	"blocks",
	"parks",
}

// ParksKey is the synthetic visibility key under which the separately-tracked
// parks state participates in transition diffs. Parks toggling goes through
// style-level filter patching rather than a plain source/layer pair, so it
// lives outside LayerVisibility but diffs and animates like any other flag.
const ParksKey = "parks"

// LngLat is a WGS-84 coordinate pair in mapbox field order.
type LngLat struct {
	Lng float64 `json:"lng" yaml:"lng"`
	Lat float64 `json:"lat" yaml:"lat"`
}

// Camera describes the virtual viewpoint of the map.
type Camera struct {
	Center  LngLat  `json:"center"`
	Zoom    float64 `json:"zoom"`
	Pitch   float64 `json:"pitch"`
	Bearing float64 `json:"bearing"`
}

// Scene is a named, timestamped snapshot of camera pose plus layer visibility.
// Scenes are owned by the repository; the playback engine operates on a clone
// taken at play time so concurrent edits never alter an in-flight animation.
type Scene struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Timestamp       time.Time       `json:"timestamp"`
	Camera          Camera          `json:"camera"`
	LayerVisibility map[string]bool `json:"layerVisibility"`
	ParksEnabled    bool            `json:"parksEnabled"`

	// PlaceName is optional reverse-geocoding enrichment for the camera
	// center, e.g. "Cape Coral". Empty when geocoding is disabled.
	PlaceName string `json:"placeName,omitempty"`
}

// Validation errors for persisted scene records.
var (
	ErrMissingID        = errors.New("scene id is empty")
	ErrMissingName      = errors.New("scene name is empty")
	ErrMissingTimestamp = errors.New("scene timestamp is zero")
)

// Validate reports whether the scene satisfies the persisted-record contract.
// Pitch is deliberately not range-checked: the [0,60] pitch window is a UI
// convention, not a data invariant.
func (s *Scene) Validate() error {
	if s.ID == "" {
		return ErrMissingID
	}
	if s.Name == "" {
		return ErrMissingName
	}
	if s.Timestamp.IsZero() {
		return ErrMissingTimestamp
	}
	if err := s.Camera.validate(); err != nil {
		return fmt.Errorf("scene %s: %w", s.ID, err)
	}
	return nil
}

func (c Camera) validate() error {
	for name, v := range map[string]float64{
		"lng": c.Center.Lng, "lat": c.Center.Lat,
		"zoom": c.Zoom, "pitch": c.Pitch, "bearing": c.Bearing,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("camera %s is not finite", name)
		}
	}
	if c.Center.Lng < -180 || c.Center.Lng > 180 {
		return fmt.Errorf("camera lng %.4f out of range", c.Center.Lng)
	}
	if c.Center.Lat < -90 || c.Center.Lat > 90 {
		return fmt.Errorf("camera lat %.4f out of range", c.Center.Lat)
	}
	if c.Zoom < 0 {
		return fmt.Errorf("camera zoom %.4f is negative", c.Zoom)
	}
	if c.Bearing <= -360 || c.Bearing >= 360 {
		return fmt.Errorf("camera bearing %.4f out of range", c.Bearing)
	}
	return nil
}

// Clone returns a deep copy safe to hold across mutations of the original.
func (s Scene) Clone() Scene {
	out := s
	out.LayerVisibility = make(map[string]bool, len(s.LayerVisibility))
	for k, v := range s.LayerVisibility {
		out.LayerVisibility[k] = v
	}
	return out
}

// ActiveLayerCount counts the visible flags in LayerVisibility.
func (s Scene) ActiveLayerCount() int {
	n := 0
	for _, on := range s.LayerVisibility {
		if on {
			n++
		}
	}
	return n
}

// CombinedVisibility merges LayerVisibility with the synthetic parks key.
// This is the shape transition diffs operate on.
func (s Scene) CombinedVisibility() map[string]bool {
	out := make(map[string]bool, len(s.LayerVisibility)+1)
	for k, v := range s.LayerVisibility {
		out[k] = v
	}
	out[ParksKey] = s.ParksEnabled
	return out
}
