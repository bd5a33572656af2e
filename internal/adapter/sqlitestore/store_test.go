package sqlitestore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "storm_navigator_scenes_v3"

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "scenes.db"), testKey)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreLoad_Empty(t *testing.T) {
	s := newTestStore(t)
	records, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, records)
}

func TestStoreSaveLoad_PreservesOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	in := [][]byte{[]byte(`{"id":"c"}`), []byte(`{"id":"a"}`), []byte(`{"id":"b"}`)}
	require.NoError(t, s.Save(ctx, in))

	out, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, out, 3)
	for i := range in {
		assert.Equal(t, string(in[i]), string(out[i]))
	}
}

func TestStoreSave_ReplacesPrevious(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Save(ctx, [][]byte{[]byte(`{"id":"1"}`), []byte(`{"id":"2"}`)}))
	require.NoError(t, s.Save(ctx, [][]byte{[]byte(`{"id":"3"}`)}))

	out, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, `{"id":"3"}`, string(out[0]))
}

func TestStoreSave_EmptyClears(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Save(ctx, [][]byte{[]byte(`{"id":"1"}`)}))
	require.NoError(t, s.Save(ctx, nil))

	out, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestStore_IsolatedByKey(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "scenes.db")

	a, err := NewStore(path, "key_a")
	require.NoError(t, err)
	defer a.Close()

	require.NoError(t, a.Save(ctx, [][]byte{[]byte(`{"id":"1"}`)}))

	b, err := NewStore(path, "key_b")
	require.NoError(t, err)
	defer b.Close()

	out, err := b.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestStore_ReopenPersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "scenes.db")

	s1, err := NewStore(path, testKey)
	require.NoError(t, err)
	require.NoError(t, s1.Save(ctx, [][]byte{[]byte(`{"id":"1"}`)}))
	require.NoError(t, s1.Close())

	s2, err := NewStore(path, testKey)
	require.NoError(t, err)
	defer s2.Close()

	out, err := s2.Load(ctx)
	require.NoError(t, err)
	require.Len(t, out, 1)
}
