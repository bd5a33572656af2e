package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sceneWithLayers(active int, names ...string) Scene {
	vis := make(map[string]bool)
	for i := 0; i < active && i < len(LayerNames); i++ {
		vis[LayerNames[i]] = true
	}
	for _, n := range names {
		vis[n] = true
	}
	return Scene{LayerVisibility: vis}
}

func TestSelectTier(t *testing.T) {
	t.Run("flat camera, few layers", func(t *testing.T) {
		s := Scene{LayerVisibility: map[string]bool{"roads": true, "paths": true}}
		assert.Equal(t, TierSimple, SelectTier(s))
	})

	t.Run("three layers alone reaches moderate", func(t *testing.T) {
		s := Scene{LayerVisibility: map[string]bool{"roads": true, "paths": true, "blocks": true}}
		assert.Equal(t, TierModerate, SelectTier(s))
	})

	t.Run("camera change alone reaches moderate", func(t *testing.T) {
		s := Scene{Camera: Camera{Bearing: 15}}
		assert.Equal(t, TierModerate, SelectTier(s))

		s = Scene{Camera: Camera{Pitch: 30}}
		assert.Equal(t, TierModerate, SelectTier(s))
	})

	t.Run("five layers need a complex one for complex tier", func(t *testing.T) {
		plain := Scene{LayerVisibility: map[string]bool{
			"roads": true, "paths": true, "blocks": true, "usace": true, "socialPois": true,
		}}
		assert.Equal(t, TierModerate, SelectTier(plain))

		withFlood := plain.Clone()
		withFlood.LayerVisibility["floodZones"] = true
		assert.Equal(t, TierComplex, SelectTier(withFlood))
	})

	t.Run("expert needs count, complexity and camera change together", func(t *testing.T) {
		s := sceneWithLayers(8, "buildings")
		s.Camera = Camera{Pitch: 45, Bearing: 10}
		assert.Equal(t, TierExpert, SelectTier(s))

		// Same layers with a flat camera fall back to complex.
		s.Camera = Camera{}
		assert.Equal(t, TierComplex, SelectTier(s))
	})

	t.Run("negative bearing counts as camera change", func(t *testing.T) {
		s := sceneWithLayers(9, "hurricaneMilton")
		s.Camera = Camera{Bearing: -90}
		assert.Equal(t, TierExpert, SelectTier(s))
	})
}

func TestStepSequence(t *testing.T) {
	lengths := map[Tier]int{
		TierSimple:   4,
		TierModerate: 6,
		TierComplex:  7,
		TierExpert:   8,
	}
	for tier, want := range lengths {
		assert.Len(t, StepSequence(tier), want, "tier %s", tier)
	}

	t.Run("unknown tier falls back to simple", func(t *testing.T) {
		assert.Equal(t, StepSequence(TierSimple), StepSequence(Tier("bogus")))
	})

	t.Run("returns a copy", func(t *testing.T) {
		seq := StepSequence(TierSimple)
		seq[0].Label = "mutated"
		assert.Equal(t, "Init analyzer", StepSequence(TierSimple)[0].Label)
	})
}

func TestScheduleSteps(t *testing.T) {
	total := 4 * time.Second

	for _, tier := range []Tier{TierSimple, TierModerate, TierComplex, TierExpert} {
		t.Run(string(tier), func(t *testing.T) {
			sched := ScheduleSteps(tier, total)
			seq := StepSequence(tier)
			require.Len(t, sched, len(seq))

			assert.Equal(t, time.Duration(0), sched[0].Offset, "first step fires immediately")
			for i := 1; i < len(sched); i++ {
				assert.Greater(t, sched[i].Offset, sched[i-1].Offset)
				assert.Less(t, sched[i].Offset, total)
			}

			// The final step's own weight lands the sequence end on total.
			sum := 0.0
			for _, s := range seq {
				sum += s.Weight
			}
			lastSpan := time.Duration(seq[len(seq)-1].Weight * float64(total) / sum)
			end := sched[len(sched)-1].Offset + lastSpan
			assert.InDelta(t, float64(total), float64(end), float64(time.Millisecond))
		})
	}

	t.Run("simple tier offsets", func(t *testing.T) {
		sched := ScheduleSteps(TierSimple, total)
		// Weights 0.8/0.6/1.2/1.4 over 4s give a 1ms-per-0.001 scale.
		assert.Equal(t, time.Duration(0), sched[0].Offset)
		assert.Equal(t, 800*time.Millisecond, sched[1].Offset)
		assert.Equal(t, 1400*time.Millisecond, sched[2].Offset)
		assert.Equal(t, 2600*time.Millisecond, sched[3].Offset)
	})
}
