// Package domain models the Storm Navigator scene system: named snapshots of
// camera pose and overlay visibility over the Cape Coral flood-risk map,
// together with the pure logic that drives their playback.
//
// # Scenes
//
// A scene captures four camera fields (center, zoom, pitch, bearing) and a
// closed set of boolean overlay flags (see [LayerNames]). The parks overlay is
// tracked separately from the visibility map because it is implemented through
// style-level filter patching rather than a plain source/layer pair, but it
// behaves like one more flag for diffing: [Scene.CombinedVisibility] folds it
// in under the synthetic [ParksKey].
//
// # Persisted layout
//
// Scenes persist as a JSON array under a versioned storage key. Version bumps
// are breaking: an older key is abandoned, never migrated. Example record:
//
//	{
//	  "id": "1752889907158",
//	  "name": "Scene 1",
//	  "timestamp": "2025-07-19T02:19:02.186Z",
//	  "camera": {"center": {"lng": -81.9568, "lat": 26.5667},
//	             "zoom": 11.52, "pitch": 0, "bearing": 0},
//	  "layerVisibility": {"floodZones": false, "blocks": true, ...},
//	  "parksEnabled": false
//	}
//
// Scene ids are millisecond clock ticks rendered as decimal strings.
// Uniqueness within one repository is the only hard requirement; the
// repository retries on collision.
//
// # Narration tiers
//
// Playback narrates itself through a tiered step catalog. Tier selection is a
// pure function of three derived values: active layer count, presence of a
// complex layer (buildings, hurricaneMilton, floodZones), and a tilted or
// rotated camera:
//
//	count >= 8 AND complex AND camera change  → expert   (8 steps)
//	count >= 5 AND complex                    → complex  (7 steps)
//	count >= 3 OR  camera change              → moderate (6 steps)
//	otherwise                                 → simple   (4 steps)
//
// Step weights are nominal; [ScheduleSteps] rescales them so every tier's
// narration spans the playback duration exactly, with step 0 at offset zero.
//
// # Render capacity
//
// [EstimateCapacity] scores the render load of a visibility configuration as
// a capped linear function of per-layer feature counts. It is a heuristic for
// the capacity meter in the legend, not a performance model. Thresholds:
// warning above 70, critical above 90 on a 0-100 scale.
package domain
