package localstore

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "storm_navigator_scenes_v3"

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "scenes.json")
	return NewStore(path, testKey, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestStoreLoad_MissingFile(t *testing.T) {
	s := newTestStore(t)
	records, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, records)
}

func TestStoreSaveLoad(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	in := [][]byte{[]byte(`{"id":"1"}`), []byte(`{"id":"2"}`)}
	require.NoError(t, s.Save(ctx, in))

	out, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.JSONEq(t, `{"id":"1"}`, string(out[0]))
	assert.JSONEq(t, `{"id":"2"}`, string(out[1]))
}

func TestStoreSave_PreservesOtherKeys(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, os.MkdirAll(filepath.Dir(s.path), 0o755))
	seed := []byte(`{"other_feature_v1": [{"keep": true}]}`)
	require.NoError(t, os.WriteFile(s.path, seed, 0o644))

	require.NoError(t, s.Save(ctx, [][]byte{[]byte(`{"id":"1"}`)}))

	data, err := os.ReadFile(s.path)
	require.NoError(t, err)
	var contents map[string][]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &contents))
	assert.Contains(t, contents, "other_feature_v1")
	assert.Contains(t, contents, testKey)
}

func TestStoreSave_CorruptFileRewritten(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, os.MkdirAll(filepath.Dir(s.path), 0o755))
	require.NoError(t, os.WriteFile(s.path, []byte("{not json"), 0o644))

	require.NoError(t, s.Save(ctx, [][]byte{[]byte(`{"id":"1"}`)}))

	out, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, out, 1)
}

func TestStoreSave_EmptyList(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Save(ctx, [][]byte{[]byte(`{"id":"1"}`)}))
	require.NoError(t, s.Save(ctx, nil))

	out, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestStoreSave_NoTempFileLeftBehind(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.Save(ctx, [][]byte{[]byte(`{"id":"1"}`)}))

	_, err := os.Stat(s.path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}
