// Package cards serves the annotation card configuration: scene-keyed popup
// cards loaded from YAML at startup. The embedded default set covers the
// factory tour; deployments point CARDS_FILE at their own config to override
// it without a rebuild.
package cards

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/storm-navigator/internal/domain"
)

//go:embed cards.yaml
var defaultConfig []byte

// Card lookup and mutation errors.
var (
	ErrCardNotFound  = errors.New("card not found")
	ErrDuplicateCard = errors.New("card id already exists for scene")
	ErrMissingCardID = errors.New("card id is empty")
)

// Registry holds the card configuration. Reads vastly outnumber writes; the
// write path exists for runtime position tuning and ad-hoc card additions.
type Registry struct {
	mu      sync.RWMutex
	byScene map[string][]domain.AnnotationCard
}

// NewRegistry builds a registry from the embedded default configuration.
func NewRegistry() (*Registry, error) {
	return newFromYAML(defaultConfig)
}

// NewRegistryFromFile builds a registry from a YAML file on disk.
func NewRegistryFromFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cards file: %w", err)
	}
	r, err := newFromYAML(data)
	if err != nil {
		return nil, fmt.Errorf("parse cards file %s: %w", path, err)
	}
	return r, nil
}

func newFromYAML(data []byte) (*Registry, error) {
	var byScene map[string][]domain.AnnotationCard
	if err := yaml.Unmarshal(data, &byScene); err != nil {
		return nil, fmt.Errorf("unmarshal card config: %w", err)
	}

	for sceneID, list := range byScene {
		seen := make(map[string]bool, len(list))
		for _, c := range list {
			if c.ID == "" {
				return nil, fmt.Errorf("scene %s: %w", sceneID, ErrMissingCardID)
			}
			if seen[c.ID] {
				return nil, fmt.Errorf("scene %s card %s: %w", sceneID, c.ID, ErrDuplicateCard)
			}
			seen[c.ID] = true
		}
	}

	if byScene == nil {
		byScene = map[string][]domain.AnnotationCard{}
	}
	return &Registry{byScene: byScene}, nil
}

// CardsForScene returns the cards attached to a scene ordered by priority,
// then id for a stable tiebreak. Unknown scenes yield an empty slice.
func (r *Registry) CardsForScene(sceneID string) []domain.AnnotationCard {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := r.byScene[sceneID]
	out := make([]domain.AnnotationCard, len(list))
	copy(out, list)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Style.Priority != out[j].Style.Priority {
			return out[i].Style.Priority < out[j].Style.Priority
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// SceneIDs returns the sorted ids of every scene that carries cards.
func (r *Registry) SceneIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.byScene))
	for id := range r.byScene {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// SceneCount reports how many scenes carry at least one card.
func (r *Registry) SceneCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byScene)
}

// AddCard attaches a card to a scene.
func (r *Registry) AddCard(sceneID string, card domain.AnnotationCard) error {
	if card.ID == "" {
		return ErrMissingCardID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.byScene[sceneID] {
		if c.ID == card.ID {
			return fmt.Errorf("scene %s card %s: %w", sceneID, card.ID, ErrDuplicateCard)
		}
	}
	r.byScene[sceneID] = append(r.byScene[sceneID], card)
	return nil
}

// UpdateCardPosition moves a card to a new coordinate.
func (r *Registry) UpdateCardPosition(sceneID, cardID string, pos domain.LngLat) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	list := r.byScene[sceneID]
	for i := range list {
		if list[i].ID == cardID {
			list[i].Position = pos
			return nil
		}
	}
	return fmt.Errorf("scene %s card %s: %w", sceneID, cardID, ErrCardNotFound)
}
