// Command seedscenes writes the built-in Cape Coral scene set into a scene
// store so a fresh deployment starts with a working tour. The server seeds
// itself on first boot anyway; this exists for pre-provisioning volumes and
// for resetting a store during development.
//
// Usage:
//
//	go run ./cmd/seedscenes -backend file -path data/scenes.json
//	go run ./cmd/seedscenes -backend sqlite -path data/scenes.db -force
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/couchcryptid/storm-navigator/internal/adapter/localstore"
	"github.com/couchcryptid/storm-navigator/internal/adapter/sqlitestore"
	"github.com/couchcryptid/storm-navigator/internal/scene"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	backend := flag.String("backend", "file", "store backend: file or sqlite")
	path := flag.String("path", "data/scenes.json", "store path")
	force := flag.Bool("force", false, "overwrite a non-empty store")
	flag.Parse()

	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	var store scene.Store
	switch *backend {
	case "file":
		store = localstore.NewStore(*path, scene.StorageKey, logger)
	case "sqlite":
		sqlStore, err := sqlitestore.NewStore(*path, scene.StorageKey)
		if err != nil {
			return fmt.Errorf("open sqlite store: %w", err)
		}
		defer sqlStore.Close()
		store = sqlStore
	default:
		return fmt.Errorf("unknown backend %q (want file or sqlite)", *backend)
	}

	existing, err := store.Load(ctx)
	if err != nil {
		return fmt.Errorf("read store: %w", err)
	}
	if len(existing) > 0 && !*force {
		return fmt.Errorf("store at %s already holds %d scenes; pass -force to overwrite", *path, len(existing))
	}

	defaults := scene.DefaultScenes()
	records := make([][]byte, 0, len(defaults))
	for _, s := range defaults {
		data, err := json.Marshal(s)
		if err != nil {
			return fmt.Errorf("marshal scene %s: %w", s.ID, err)
		}
		records = append(records, data)
	}

	if err := store.Save(ctx, records); err != nil {
		return fmt.Errorf("write store: %w", err)
	}

	log.Printf("seeded %d scenes into %s store at %s", len(records), *backend, *path)
	return nil
}
