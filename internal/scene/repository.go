// Package scene owns the captured scene list: load, capture, rename, reorder
// of nothing fancier than a small in-memory slice persisted as raw JSON
// records. The store is advisory; a broken store degrades the repository to
// in-memory operation rather than failing requests.
package scene

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/storm-navigator/internal/domain"
	"github.com/couchcryptid/storm-navigator/internal/observability"
)

// StorageKey is the versioned key under which the scene list persists.
// Bumping the version abandons older data, it is never migrated.
const StorageKey = "storm_navigator_scenes_v3"

// ErrNoScenes signals an empty scene list where an operation needs at least one.
var ErrNoScenes = errors.New("no scenes captured")

// Store persists the scene list as an ordered set of raw JSON records. Load
// returns nil with no error when nothing has been saved under StorageKey yet.
type Store interface {
	Load(ctx context.Context) ([][]byte, error)
	Save(ctx context.Context, records [][]byte) error
}

// geocodeTimeout bounds the best-effort place name lookup during capture.
const geocodeTimeout = 3 * time.Second

// Repository is the in-memory scene list backed by a Store. All methods are
// safe for concurrent use. Mutations persist the full list synchronously but
// treat store failures as log-only: the caller's view stays consistent even
// when persistence is down.
type Repository struct {
	store    Store
	geocoder domain.Geocoder // nil when geocoding is disabled
	clock    clockwork.Clock
	logger   *slog.Logger
	metrics  *observability.Metrics

	mu     sync.RWMutex
	scenes []domain.Scene
	loaded bool
}

// NewRepository creates a Repository. Call Load before serving requests.
func NewRepository(store Store, geocoder domain.Geocoder, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Repository {
	return &Repository{
		store:    store,
		geocoder: geocoder,
		clock:    clock,
		logger:   logger,
		metrics:  metrics,
	}
}

// Load hydrates the repository from the store. An empty store yields the
// default scene set. Malformed records are dropped individually; a failed
// store read logs and falls back to defaults so the service still comes up.
func (r *Repository) Load(ctx context.Context) error {
	records, err := r.store.Load(ctx)
	if err != nil {
		r.metrics.StoreErrors.Inc()
		r.logger.Error("scene store read failed, using defaults", "key", StorageKey, "error", err)
		records = nil
	}

	var scenes []domain.Scene
	if len(records) == 0 {
		scenes = DefaultScenes()
		r.logger.Info("scene store empty, seeded defaults", "key", StorageKey, "count", len(scenes))
	} else {
		scenes = make([]domain.Scene, 0, len(records))
		for i, rec := range records {
			var s domain.Scene
			if err := json.Unmarshal(rec, &s); err != nil {
				r.logger.Warn("dropping malformed scene record", "index", i, "error", err)
				continue
			}
			if err := s.Validate(); err != nil {
				r.logger.Warn("dropping invalid scene record", "index", i, "error", err)
				continue
			}
			scenes = append(scenes, s)
		}
		r.logger.Info("scenes loaded", "key", StorageKey, "count", len(scenes), "dropped", len(records)-len(scenes))
	}

	r.mu.Lock()
	r.scenes = scenes
	r.loaded = true
	r.mu.Unlock()
	return nil
}

// CheckReadiness returns nil once the initial load has completed.
func (r *Repository) CheckReadiness(_ context.Context) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.loaded {
		return errors.New("scene repository has not loaded yet")
	}
	return nil
}

// List returns the scenes in capture order. Entries are clones.
func (r *Repository) List() []domain.Scene {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Scene, len(r.scenes))
	for i, s := range r.scenes {
		out[i] = s.Clone()
	}
	return out
}

// Get returns the scene with the given id.
func (r *Repository) Get(id string) (domain.Scene, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.scenes {
		if s.ID == id {
			return s.Clone(), nil
		}
	}
	return domain.Scene{}, domain.ErrSceneNotFound
}

// Last returns the most recently captured scene.
func (r *Repository) Last() (domain.Scene, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.scenes) == 0 {
		return domain.Scene{}, ErrNoScenes
	}
	return r.scenes[len(r.scenes)-1].Clone(), nil
}

// Capture appends a new scene snapshot of the given camera pose and layer
// state. The id is the capture instant in unix milliseconds; on collision the
// tick is bumped until free. Place name enrichment is best-effort.
func (r *Repository) Capture(ctx context.Context, camera domain.Camera, layerVisibility map[string]bool, parksEnabled bool) (domain.Scene, error) {
	now := r.clock.Now()

	s := domain.Scene{
		Timestamp:       now,
		Camera:          camera,
		ParksEnabled:    parksEnabled,
		LayerVisibility: make(map[string]bool, len(layerVisibility)),
	}
	for k, v := range layerVisibility {
		s.LayerVisibility[k] = v
	}
	s.PlaceName = r.lookupPlaceName(ctx, camera.Center)

	r.mu.Lock()
	defer r.mu.Unlock()

	tick := now.UnixMilli()
	for r.hasIDLocked(strconv.FormatInt(tick, 10)) {
		tick++
	}
	s.ID = strconv.FormatInt(tick, 10)
	s.Name = fmt.Sprintf("Scene %d", len(r.scenes)+1)

	if err := s.Validate(); err != nil {
		return domain.Scene{}, fmt.Errorf("capture scene: %w", err)
	}

	r.scenes = append(r.scenes, s)
	r.persistLocked(ctx)
	r.logger.Info("scene captured", "scene_id", s.ID, "name", s.Name, "place", s.PlaceName)
	return s.Clone(), nil
}

// Rename sets a scene's display name. A blank name is a no-op returning the
// scene unchanged, so accidental empty submissions never clobber a name.
func (r *Repository) Rename(ctx context.Context, id, name string) (domain.Scene, error) {
	trimmed := strings.TrimSpace(name)

	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexLocked(id)
	if i < 0 {
		return domain.Scene{}, domain.ErrSceneNotFound
	}
	if trimmed == "" {
		return r.scenes[i].Clone(), nil
	}

	r.scenes[i].Name = trimmed
	r.persistLocked(ctx)
	r.logger.Info("scene renamed", "scene_id", id, "name", trimmed)
	return r.scenes[i].Clone(), nil
}

// UpdateView overwrites a scene's camera pose and layer state in place,
// refreshing its timestamp. Name and id are untouched.
func (r *Repository) UpdateView(ctx context.Context, id string, camera domain.Camera, layerVisibility map[string]bool, parksEnabled bool) (domain.Scene, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexLocked(id)
	if i < 0 {
		return domain.Scene{}, domain.ErrSceneNotFound
	}

	updated := r.scenes[i]
	updated.Camera = camera
	updated.ParksEnabled = parksEnabled
	updated.Timestamp = r.clock.Now()
	updated.LayerVisibility = make(map[string]bool, len(layerVisibility))
	for k, v := range layerVisibility {
		updated.LayerVisibility[k] = v
	}
	if err := updated.Validate(); err != nil {
		return domain.Scene{}, fmt.Errorf("update scene %s: %w", id, err)
	}

	r.scenes[i] = updated
	r.persistLocked(ctx)
	r.logger.Info("scene view updated", "scene_id", id)
	return updated.Clone(), nil
}

// Remove deletes a scene by id. Removing an id that is already gone succeeds,
// deletion is idempotent.
func (r *Repository) Remove(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexLocked(id)
	if i < 0 {
		return nil
	}

	r.scenes = append(r.scenes[:i], r.scenes[i+1:]...)
	r.persistLocked(ctx)
	r.logger.Info("scene deleted", "scene_id", id)
	return nil
}

func (r *Repository) indexLocked(id string) int {
	for i, s := range r.scenes {
		if s.ID == id {
			return i
		}
	}
	return -1
}

func (r *Repository) hasIDLocked(id string) bool {
	return r.indexLocked(id) >= 0
}

// persistLocked writes the full scene list through the store. Failures are
// logged and counted but never surfaced; the in-memory list is authoritative
// for the rest of the process lifetime.
func (r *Repository) persistLocked(ctx context.Context) {
	records := make([][]byte, len(r.scenes))
	for i, s := range r.scenes {
		data, err := json.Marshal(s)
		if err != nil {
			r.logger.Error("scene marshal failed", "scene_id", s.ID, "error", err)
			return
		}
		records[i] = data
	}

	r.metrics.SceneWrites.Inc()
	if err := r.store.Save(ctx, records); err != nil {
		r.metrics.StoreErrors.Inc()
		r.logger.Error("scene store write failed, continuing in memory", "key", StorageKey, "error", err)
	}
}

func (r *Repository) lookupPlaceName(ctx context.Context, center domain.LngLat) string {
	if r.geocoder == nil {
		return ""
	}
	gctx, cancel := context.WithTimeout(ctx, geocodeTimeout)
	defer cancel()

	result, err := r.geocoder.ReverseGeocode(gctx, center.Lat, center.Lng)
	if err != nil {
		r.logger.Warn("reverse geocode failed", "error", err)
		return ""
	}
	return result.PlaceName
}
