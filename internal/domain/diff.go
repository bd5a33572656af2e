package domain

import (
	"sort"
	"time"
)

// DiffKind distinguishes a scene-playback diff from a manual layer toggle.
type DiffKind string

const (
	DiffSceneSync DiffKind = "scene-sync"
	DiffManual    DiffKind = "manual"
)

// TransitionDiff is the ephemeral set of visibility keys that changed between
// the previously-active and newly-active configuration. It is derived state,
// never persisted, and self-expires shortly after being broadcast.
type TransitionDiff struct {
	ChangedKeys []string  `json:"changedKeys"`
	Kind        DiffKind  `json:"kind"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// DiffVisibility returns the sorted keys whose boolean value differs between
// the two mappings. A key missing from one side is treated as false, so
// DiffVisibility(x, x) is always empty.
func DiffVisibility(old, updated map[string]bool) []string {
	changed := make([]string, 0, len(updated))
	seen := make(map[string]bool, len(old)+len(updated))
	for k, v := range updated {
		seen[k] = true
		if old[k] != v {
			changed = append(changed, k)
		}
	}
	for k, v := range old {
		if !seen[k] && v {
			changed = append(changed, k)
		}
	}
	sort.Strings(changed)
	return changed
}
