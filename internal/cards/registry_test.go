package cards

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/storm-navigator/internal/domain"
)

func TestNewRegistry_EmbeddedDefaults(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	assert.Equal(t, 5, r.SceneCount())

	t.Run("single-card scene", func(t *testing.T) {
		list := r.CardsForScene("1752889907158")
		require.Len(t, list, 1)
		card := list[0]
		assert.Equal(t, "card_overview_summary", card.ID)
		assert.Equal(t, "Cape Coral: AI Analysis Target", card.Title)
		assert.Equal(t, "1752890011711", card.NextSceneID)
		assert.Equal(t, "overview_report", card.Content.Type)
		assert.InDelta(t, 26.560, card.Position.Lat, 0.0001)
		assert.InDelta(t, -81.987, card.Position.Lng, 0.0001)
		assert.Equal(t, "dark", card.Style.Theme)
		assert.Equal(t, "30 zip codes mapped", card.Content.Data["analysisScope"])
	})

	t.Run("multi-card scene sorted by priority", func(t *testing.T) {
		list := r.CardsForScene("1752890044121")
		require.Len(t, list, 2)
		assert.Equal(t, "card_hurricane_impact", list[0].ID, "priority 1 first")
		assert.Equal(t, "card_flood_zone", list[1].ID)
	})

	t.Run("final scene links back to the first", func(t *testing.T) {
		for _, card := range r.CardsForScene("1752891127158") {
			assert.Equal(t, "1752889907158", card.NextSceneID)
		}
	})

	t.Run("unknown scene yields empty slice", func(t *testing.T) {
		assert.Empty(t, r.CardsForScene("nope"))
	})
}

func TestNewRegistryFromFile(t *testing.T) {
	t.Run("valid file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cards.yaml")
		data := []byte(`"123":
  - id: my_card
    position: { lat: 26.5, lng: -82.0 }
    title: Custom
    content:
      type: note
      description: hi
    style: { theme: light, size: small, priority: 1 }
`)
		require.NoError(t, os.WriteFile(path, data, 0o644))

		r, err := NewRegistryFromFile(path)
		require.NoError(t, err)
		list := r.CardsForScene("123")
		require.Len(t, list, 1)
		assert.Equal(t, "Custom", list[0].Title)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := NewRegistryFromFile("/nonexistent/cards.yaml")
		require.Error(t, err)
	})

	t.Run("duplicate card ids rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cards.yaml")
		data := []byte(`"123":
  - id: dup
    title: A
  - id: dup
    title: B
`)
		require.NoError(t, os.WriteFile(path, data, 0o644))
		_, err := NewRegistryFromFile(path)
		assert.ErrorIs(t, err, ErrDuplicateCard)
	})
}

func TestRegistryAddCard(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	card := domain.AnnotationCard{
		ID:       "card_extra",
		Title:    "Extra",
		Position: domain.LngLat{Lng: -82.0, Lat: 26.5},
		Style:    domain.CardStyle{Priority: 3},
	}
	require.NoError(t, r.AddCard("1752889907158", card))
	assert.Len(t, r.CardsForScene("1752889907158"), 2)

	t.Run("duplicate rejected", func(t *testing.T) {
		assert.ErrorIs(t, r.AddCard("1752889907158", card), ErrDuplicateCard)
	})

	t.Run("empty id rejected", func(t *testing.T) {
		assert.ErrorIs(t, r.AddCard("1752889907158", domain.AnnotationCard{}), ErrMissingCardID)
	})

	t.Run("new scene key created on demand", func(t *testing.T) {
		require.NoError(t, r.AddCard("999", card))
		assert.Len(t, r.CardsForScene("999"), 1)
	})
}

func TestRegistryUpdateCardPosition(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	pos := domain.LngLat{Lng: -82.05, Lat: 26.55}
	require.NoError(t, r.UpdateCardPosition("1752889907158", "card_overview_summary", pos))

	list := r.CardsForScene("1752889907158")
	require.Len(t, list, 1)
	assert.Equal(t, pos, list[0].Position)

	err = r.UpdateCardPosition("1752889907158", "nope", pos)
	assert.ErrorIs(t, err, ErrCardNotFound)
}
