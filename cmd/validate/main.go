// Command validate performs integrity checks on a scene store and a card
// configuration: every persisted record must parse and validate, ids must be
// unique, layer keys must be known, and every card's forward link must point
// at a scene that exists. Run it against a store before shipping it to a
// deployment.
//
// Usage:
//
//	go run ./cmd/validate -backend file -path data/scenes.json
//	go run ./cmd/validate -backend sqlite -path data/scenes.db -cards cards.yaml
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/couchcryptid/storm-navigator/internal/adapter/localstore"
	"github.com/couchcryptid/storm-navigator/internal/adapter/sqlitestore"
	"github.com/couchcryptid/storm-navigator/internal/cards"
	"github.com/couchcryptid/storm-navigator/internal/domain"
	"github.com/couchcryptid/storm-navigator/internal/scene"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	backend := flag.String("backend", "file", "store backend: file or sqlite")
	path := flag.String("path", "data/scenes.json", "store path")
	cardsFile := flag.String("cards", "", "card config YAML; empty uses the embedded defaults")
	flag.Parse()

	if code := run(*backend, *path, *cardsFile); code != 0 {
		os.Exit(code)
	}
}

func run(backend, path, cardsFile string) int {
	fmt.Println("=== Scene Store Validation ===")
	fmt.Println()

	scenes, loadErrs := loadScenes(backend, path)
	if scenes == nil {
		return 1
	}

	registry, err := loadRegistry(cardsFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load card config: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateRecords(scenes, loadErrs),
		validateLayerKeys(scenes),
		validateCardLinks(scenes, registry),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d scenes, %d scenes with cards\n", len(scenes), registry.SceneCount())

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// loadScenes reads every record from the store, keeping per-record parse
// errors for phase 1 rather than dropping them the way the server does.
func loadScenes(backend, path string) ([]domain.Scene, []string) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	ctx := context.Background()

	var store scene.Store
	switch backend {
	case "file":
		store = localstore.NewStore(path, scene.StorageKey, logger)
	case "sqlite":
		sqlStore, err := sqlitestore.NewStore(path, scene.StorageKey)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: open sqlite store: %v\n", err)
			return nil, nil
		}
		defer sqlStore.Close()
		store = sqlStore
	default:
		fmt.Fprintf(os.Stderr, "FATAL: unknown backend %q\n", backend)
		return nil, nil
	}

	records, err := store.Load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read store: %v\n", err)
		return nil, nil
	}

	scenes := make([]domain.Scene, 0, len(records))
	var parseErrs []string
	for i, rec := range records {
		var s domain.Scene
		if err := json.Unmarshal(rec, &s); err != nil {
			parseErrs = append(parseErrs, fmt.Sprintf("record %d: unmarshal: %v", i, err))
			continue
		}
		scenes = append(scenes, s)
	}
	return scenes, parseErrs
}

func loadRegistry(cardsFile string) (*cards.Registry, error) {
	if cardsFile != "" {
		return cards.NewRegistryFromFile(cardsFile)
	}
	return cards.NewRegistry()
}

// ── Phase 1: Record Integrity ──
// Every record parses, validates, and carries a unique id.

func validateRecords(scenes []domain.Scene, parseErrs []string) *phase {
	p := &phase{name: "Phase 1: Record Integrity"}
	p.errors = append(p.errors, parseErrs...)

	seen := map[string]bool{}
	for i := range scenes {
		s := &scenes[i]
		if err := s.Validate(); err != nil {
			p.errorf("record %d: %v", i, err)
		}
		if s.ID != "" && seen[s.ID] {
			p.errorf("record %d: duplicate scene id %s", i, s.ID)
		}
		seen[s.ID] = true
	}
	return p
}

// ── Phase 2: Layer Keys ──
// Visibility maps only reference known overlay keys. Unknown keys are ignored
// at runtime, but in a store they almost always mean a typo.

func validateLayerKeys(scenes []domain.Scene) *phase {
	p := &phase{name: "Phase 2: Layer Keys"}

	known := make(map[string]bool, len(domain.LayerNames))
	for _, name := range domain.LayerNames {
		known[name] = true
	}

	for i := range scenes {
		for key := range scenes[i].LayerVisibility {
			if !known[key] {
				p.errorf("scene %s: unknown layer key %q", scenes[i].ID, key)
			}
		}
	}
	return p
}

// ── Phase 3: Card Links ──
// Cards attach to scenes that exist and forward links resolve. A broken
// forward link is a silent no-op at runtime, so it only surfaces here.

func validateCardLinks(scenes []domain.Scene, registry *cards.Registry) *phase {
	p := &phase{name: "Phase 3: Card Links"}

	sceneIDs := make(map[string]bool, len(scenes))
	for i := range scenes {
		sceneIDs[scenes[i].ID] = true
	}

	for _, id := range registry.SceneIDs() {
		if !sceneIDs[id] {
			p.errorf("cards configured for scene %s, which is not in the store", id)
		}
		for _, card := range registry.CardsForScene(id) {
			if card.NextSceneID != "" && !sceneIDs[card.NextSceneID] {
				p.errorf("scene %s card %s: forward link to missing scene %s", id, card.ID, card.NextSceneID)
			}
			if card.Position.Lng < -180 || card.Position.Lng > 180 ||
				card.Position.Lat < -90 || card.Position.Lat > 90 {
				p.errorf("scene %s card %s: position out of range (%g, %g)", id, card.ID, card.Position.Lng, card.Position.Lat)
			}
		}
	}
	return p
}
