package scene

import (
	"time"

	"github.com/couchcryptid/storm-navigator/internal/domain"
)

// visibility builds a full-width visibility map with the named layers on and
// every other known layer off. Defaults always carry the complete key set so
// diffs against them behave the same as diffs against captured scenes.
func visibility(on ...string) map[string]bool {
	vis := make(map[string]bool, len(domain.LayerNames))
	for _, name := range domain.LayerNames {
		vis[name] = false
	}
	for _, name := range on {
		vis[name] = true
	}
	return vis
}

// DefaultScenes returns the factory tour of Cape Coral used when the store is
// empty. Returned scenes are fresh copies; callers may mutate them.
func DefaultScenes() []domain.Scene {
	return []domain.Scene{
		{
			ID:        "1752889907158",
			Name:      "Scene 1",
			Timestamp: time.Date(2025, 7, 19, 2, 19, 2, 186e6, time.UTC),
			Camera: domain.Camera{
				Center:  domain.LngLat{Lng: -81.95682833196808, Lat: 26.56669858505245},
				Zoom:    11.524905657584014,
				Pitch:   0,
				Bearing: 0,
			},
			LayerVisibility: visibility("blocks"),
			ParksEnabled:    false,
		},
		{
			ID:        "1752890011711",
			Name:      "Scene 2",
			Timestamp: time.Date(2025, 7, 19, 2, 24, 35, 683e6, time.UTC),
			Camera: domain.Camera{
				Center:  domain.LngLat{Lng: -81.94324363035832, Lat: 26.555254094403452},
				Zoom:    13.528855165913832,
				Pitch:   21.277772323849426,
				Bearing: -26.754556165056783,
			},
			LayerVisibility: visibility(
				"floodZones", "zipCodeBoundaries", "hurricaneMilton",
				"roads", "commercialPois", "socialPois", "blocks", "parks",
			),
			ParksEnabled: true,
		},
		{
			ID:        "1752890044121",
			Name:      "Scene 3",
			Timestamp: time.Date(2025, 7, 19, 1, 54, 49, 578e6, time.UTC),
			Camera: domain.Camera{
				Center:  domain.LngLat{Lng: -81.9976940256121, Lat: 26.553875382327405},
				Zoom:    10.508734837651597,
				Pitch:   25.897638972203104,
				Bearing: 29.724910428357816,
			},
			LayerVisibility: visibility(
				"floodZones", "coastalFloodZones", "zipCodeBoundaries", "hurricaneMilton",
				"roads", "paths", "commercialPois", "socialPois", "blockGroupBoundaries", "blocks",
			),
			ParksEnabled: false,
		},
		{
			ID:        "1752890582825",
			Name:      "Scene 4",
			Timestamp: time.Date(2025, 7, 19, 2, 26, 57, 307e6, time.UTC),
			Camera: domain.Camera{
				Center:  domain.LngLat{Lng: -82.11932784076174, Lat: 26.676171360812873},
				Zoom:    12.223839569450135,
				Pitch:   46.74128647540479,
				Bearing: 135.2319278204609,
			},
			LayerVisibility: visibility(
				"floodZones", "coastalFloodZones", "zipCodeBoundaries", "hurricaneMilton",
				"roads", "paths", "commercialPois", "socialPois", "environmentalPois",
				"blockGroupBoundaries", "blocks", "parks",
			),
			ParksEnabled: true,
		},
		{
			ID:        "1752891127158",
			Name:      "Scene 5",
			Timestamp: time.Date(2025, 7, 19, 2, 22, 4, 208e6, time.UTC),
			Camera: domain.Camera{
				Center:  domain.LngLat{Lng: -81.80894922385728, Lat: 26.666340929259476},
				Zoom:    9.869574451201823,
				Pitch:   48.41281825443745,
				Bearing: -168.17309802979378,
			},
			LayerVisibility: visibility(
				"coastalFloodZones", "usace", "zipCodeBoundaries", "roads",
				"redfinProperties", "commercialPois", "socialPois", "blocks",
			),
			ParksEnabled: false,
		},
	}
}
