// Package playback drives scene transitions: the IDLE → ARMED → RUNNING →
// COMPLETE run of a single scene, its tiered narration steps, and the timed
// card reveal. The engine is also the facade the transport layer talks to for
// scene mutations, so every user-visible status string is produced in one
// place.
package playback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/storm-navigator/internal/broadcast"
	"github.com/couchcryptid/storm-navigator/internal/cards"
	"github.com/couchcryptid/storm-navigator/internal/domain"
	"github.com/couchcryptid/storm-navigator/internal/observability"
	"github.com/couchcryptid/storm-navigator/internal/scene"
)

// Playback timing defaults. Config may override both.
const (
	DefaultTotalDuration   = 4000 * time.Millisecond
	DefaultCardRevealDelay = 2000 * time.Millisecond
)

// State is the engine's lifecycle position.
type State string

const (
	StateIdle     State = "idle"
	StateArmed    State = "armed"
	StateRunning  State = "running"
	StateComplete State = "complete"
)

// User-visible status strings. These are presentation, not errors: guard
// failures set one of these and return a sentinel the transport maps to a
// response code.
const (
	StatusMapUnavailable = "Map not available"
	StatusSceneNotFound  = "Scene not found"
	StatusSceneDeleted   = "Scene deleted"
	StatusInitializing   = "Initializing navigation..."
	StatusComplete       = "Analysis Complete"
	StatusNoScenes       = "No scenes to play"
	StatusSceneUpdated   = "Scene updated with current view and layers"
)

// publishTimeout bounds the best-effort playback event publish.
const publishTimeout = 5 * time.Second

// Snapshot is the engine state as reported to clients.
type Snapshot struct {
	State         State                 `json:"state"`
	Status        string                `json:"status"`
	ActiveSceneID string                `json:"activeSceneId,omitempty"`
	Tier          domain.Tier           `json:"tier,omitempty"`
	Steps         []domain.ProgressStep `json:"steps"`
}

// Engine orchestrates scene playback. One playback runs at a time; a new Play
// cancels every pending timer of the prior run before arming, so steps from
// two runs never interleave.
type Engine struct {
	repo        *scene.Repository
	registry    *cards.Registry
	broadcaster *broadcast.Broadcaster
	controller  domain.MapController
	presenter   domain.CardPresenter
	publisher   domain.EventPublisher // nil when event publishing is disabled
	clock       clockwork.Clock
	logger      *slog.Logger
	metrics     *observability.Metrics

	totalDuration   time.Duration
	cardRevealDelay time.Duration

	mu             sync.Mutex
	state          State
	status         string
	activeSceneID  string
	tier           domain.Tier
	steps          []domain.ProgressStep
	activeCards    []domain.AnnotationCard
	prevVisibility map[string]bool
	timers         []clockwork.Timer
	generation     uint64
	startedAt      time.Time
}

// New creates an Engine. Non-positive durations fall back to the defaults.
func New(
	repo *scene.Repository,
	registry *cards.Registry,
	broadcaster *broadcast.Broadcaster,
	controller domain.MapController,
	presenter domain.CardPresenter,
	publisher domain.EventPublisher,
	clock clockwork.Clock,
	logger *slog.Logger,
	metrics *observability.Metrics,
	totalDuration, cardRevealDelay time.Duration,
) *Engine {
	if totalDuration <= 0 {
		totalDuration = DefaultTotalDuration
	}
	if cardRevealDelay <= 0 || cardRevealDelay > totalDuration {
		cardRevealDelay = DefaultCardRevealDelay
	}
	return &Engine{
		repo:            repo,
		registry:        registry,
		broadcaster:     broadcaster,
		controller:      controller,
		presenter:       presenter,
		publisher:       publisher,
		clock:           clock,
		logger:          logger,
		metrics:         metrics,
		totalDuration:   totalDuration,
		cardRevealDelay: cardRevealDelay,
		state:           StateIdle,
	}
}

// Play runs the scene with the given id. Guard failures set the status text
// and return a sentinel; an in-flight playback is silently cancelled first.
func (e *Engine) Play(ctx context.Context, sceneID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.controller.Ready() {
		e.status = StatusMapUnavailable
		return domain.ErrControllerNotReady
	}

	s, err := e.repo.Get(sceneID)
	if err != nil {
		e.status = StatusSceneNotFound
		return err
	}

	e.cancelRunLocked()
	e.runLocked(ctx, s)
	return nil
}

// PlayLast runs the most recently captured scene.
func (e *Engine) PlayLast(ctx context.Context) error {
	last, err := e.repo.Last()
	if errors.Is(err, scene.ErrNoScenes) {
		e.mu.Lock()
		e.status = StatusNoScenes
		e.mu.Unlock()
		return err
	}
	if err != nil {
		return err
	}
	return e.Play(ctx, last.ID)
}

// NavigateToScene follows a card's forward link. A missing target logs a
// warning and no-ops with the status untouched, so a stale link in the card
// config never derails an in-flight tour.
func (e *Engine) NavigateToScene(ctx context.Context, sceneID string) error {
	if _, err := e.repo.Get(sceneID); err != nil {
		e.logger.Warn("navigation target missing, ignoring", "scene_id", sceneID)
		return nil
	}
	return e.Play(ctx, sceneID)
}

// runLocked arms and starts a playback. Caller holds e.mu.
func (e *Engine) runLocked(ctx context.Context, s domain.Scene) {
	e.generation++
	gen := e.generation

	e.state = StateArmed
	e.tier = domain.SelectTier(s)
	e.activeSceneID = s.ID
	e.startedAt = e.clock.Now()

	scheduled := domain.ScheduleSteps(e.tier, e.totalDuration)

	// RUNNING entry. Side-effects are synchronous and ordered: stale cards
	// and steps go first, then the transition pulse, then the controller.
	e.state = StateRunning
	e.status = StatusInitializing
	e.steps = []domain.ProgressStep{scheduled[0].Step}
	e.activeCards = nil
	if err := e.presenter.ClearCards(); err != nil {
		e.logger.Warn("card clear failed", "error", err)
	}

	newVisibility := s.CombinedVisibility()
	changed := domain.DiffVisibility(e.prevVisibility, newVisibility)
	e.prevVisibility = newVisibility
	e.broadcaster.Trigger(changed, domain.DiffSceneSync)

	if err := e.controller.ApplyLayerVisibility(s.LayerVisibility); err != nil {
		e.logger.Warn("layer visibility apply failed", "scene_id", s.ID, "error", err)
	}
	if err := e.controller.ApplyParksState(s.ParksEnabled); err != nil {
		e.logger.Warn("parks state apply failed", "scene_id", s.ID, "error", err)
	}
	if err := e.controller.AnimateCamera(s.Camera, e.totalDuration); err != nil {
		e.logger.Warn("camera animation failed", "scene_id", s.ID, "error", err)
	}

	e.metrics.ScenesPlayed.WithLabelValues(string(e.tier)).Inc()
	e.metrics.PlaybackActive.Set(1)
	e.logger.Info("playback started",
		"scene_id", s.ID, "name", s.Name, "tier", e.tier, "changed_layers", len(changed))

	for _, step := range scheduled[1:] {
		step := step
		e.timers = append(e.timers, e.clock.AfterFunc(step.Offset, func() {
			e.revealStep(gen, step.Step)
		}))
	}

	sceneCards := e.registry.CardsForScene(s.ID)
	if len(sceneCards) > 0 {
		e.timers = append(e.timers, e.clock.AfterFunc(e.cardRevealDelay, func() {
			e.revealCards(gen, sceneCards)
		}))
	}

	e.timers = append(e.timers, e.clock.AfterFunc(e.totalDuration, func() {
		e.complete(gen)
	}))

	e.publishPlayback(ctx, s, changed)
}

// cancelRunLocked invalidates the current generation and stops its pending
// timers. Callbacks that already fired on the clock goroutine re-check the
// generation and discard themselves.
func (e *Engine) cancelRunLocked() {
	e.generation++
	for _, t := range e.timers {
		t.Stop()
	}
	e.timers = nil
	if e.state == StateRunning {
		e.metrics.PlaybackActive.Set(0)
	}
}

func (e *Engine) revealStep(gen uint64, step domain.ProgressStep) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.generation {
		return
	}
	e.steps = append(e.steps, step)
	e.status = step.Label
}

func (e *Engine) revealCards(gen uint64, sceneCards []domain.AnnotationCard) {
	e.mu.Lock()
	if gen != e.generation {
		e.mu.Unlock()
		return
	}
	e.activeCards = sceneCards
	e.mu.Unlock()

	if err := e.presenter.ShowCards(sceneCards); err != nil {
		e.logger.Warn("card reveal failed", "error", err)
		return
	}
	e.metrics.CardReveals.Inc()
}

func (e *Engine) complete(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.generation {
		return
	}

	e.state = StateComplete
	e.status = StatusComplete
	e.steps = nil
	e.timers = nil
	e.metrics.PlaybackActive.Set(0)
	e.metrics.PlaybackDuration.Observe(e.clock.Now().Sub(e.startedAt).Seconds())
	e.logger.Info("playback complete", "scene_id", e.activeSceneID)
}

func (e *Engine) publishPlayback(ctx context.Context, s domain.Scene, changed []string) {
	if e.publisher == nil {
		return
	}
	event := domain.PlaybackEvent{
		SceneID:       s.ID,
		SceneName:     s.Name,
		Tier:          e.tier,
		ChangedLayers: changed,
		StartedAt:     e.startedAt,
		Duration:      e.totalDuration,
	}
	go func() {
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
		defer cancel()
		if err := e.publisher.PublishPlayback(pctx, event); err != nil {
			e.metrics.PublishErrors.Inc()
			e.logger.Warn("playback event publish failed", "scene_id", event.SceneID, "error", err)
			return
		}
		e.metrics.EventsPublished.Inc()
	}()
}

// Capture snapshots the controller's current camera with the given layer
// state into a new scene.
func (e *Engine) Capture(ctx context.Context, layerVisibility map[string]bool, parksEnabled bool) (domain.Scene, error) {
	camera, err := e.cameraFromController()
	if err != nil {
		return domain.Scene{}, err
	}

	s, err := e.repo.Capture(ctx, camera, layerVisibility, parksEnabled)
	if err != nil {
		return domain.Scene{}, err
	}

	e.mu.Lock()
	e.status = fmt.Sprintf("Scene saved at %s", e.clock.Now().Format("3:04:05 PM"))
	e.mu.Unlock()
	return s, nil
}

// Rename changes a scene's display name.
func (e *Engine) Rename(ctx context.Context, sceneID, name string) (domain.Scene, error) {
	s, err := e.repo.Rename(ctx, sceneID, name)
	if errors.Is(err, domain.ErrSceneNotFound) {
		e.setStatus(StatusSceneNotFound)
	}
	return s, err
}

// UpdateView re-captures a scene in place from the controller's current
// camera and the given layer state.
func (e *Engine) UpdateView(ctx context.Context, sceneID string, layerVisibility map[string]bool, parksEnabled bool) (domain.Scene, error) {
	camera, err := e.cameraFromController()
	if err != nil {
		return domain.Scene{}, err
	}

	s, err := e.repo.UpdateView(ctx, sceneID, camera, layerVisibility, parksEnabled)
	if err != nil {
		if errors.Is(err, domain.ErrSceneNotFound) {
			e.setStatus(StatusSceneNotFound)
		}
		return domain.Scene{}, err
	}
	e.setStatus(StatusSceneUpdated)
	return s, nil
}

// Remove deletes a scene. Removing the active scene also drops its cards.
func (e *Engine) Remove(ctx context.Context, sceneID string) error {
	if err := e.repo.Remove(ctx, sceneID); err != nil {
		return err
	}

	e.mu.Lock()
	e.status = StatusSceneDeleted
	if e.activeSceneID == sceneID && len(e.activeCards) > 0 {
		e.activeCards = nil
		if err := e.presenter.ClearCards(); err != nil {
			e.logger.Warn("card clear failed", "error", err)
		}
	}
	e.mu.Unlock()
	return nil
}

// Scenes lists the captured scenes in display order.
func (e *Engine) Scenes() []domain.Scene {
	return e.repo.List()
}

// CardsForScene returns the card configuration for a scene.
func (e *Engine) CardsForScene(sceneID string) []domain.AnnotationCard {
	return e.registry.CardsForScene(sceneID)
}

// ActiveCards returns the cards currently revealed on the map.
func (e *Engine) ActiveCards() []domain.AnnotationCard {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]domain.AnnotationCard, len(e.activeCards))
	copy(out, e.activeCards)
	return out
}

// Snapshot reports the engine state for clients.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	steps := make([]domain.ProgressStep, len(e.steps))
	copy(steps, e.steps)
	return Snapshot{
		State:         e.state,
		Status:        e.status,
		ActiveSceneID: e.activeSceneID,
		Tier:          e.tier,
		Steps:         steps,
	}
}

func (e *Engine) cameraFromController() (domain.Camera, error) {
	if !e.controller.Ready() {
		e.setStatus(StatusMapUnavailable)
		return domain.Camera{}, domain.ErrControllerNotReady
	}
	camera, err := e.controller.Camera()
	if err != nil {
		e.setStatus(StatusMapUnavailable)
		return domain.Camera{}, fmt.Errorf("read camera: %w", err)
	}
	return camera, nil
}

func (e *Engine) setStatus(s string) {
	e.mu.Lock()
	e.status = s
	e.mu.Unlock()
}
