package domain

import "time"

// Tier grades how elaborate the playback narration is for a scene. Richer
// scenes narrate in more, unevenly spaced beats; every tier finishes at
// exactly the playback's total duration.
type Tier string

const (
	TierSimple   Tier = "simple"
	TierModerate Tier = "moderate"
	TierComplex  Tier = "complex"
	TierExpert   Tier = "expert"
)

// ProgressStep is one beat of the narration as shown to the user.
type ProgressStep struct {
	Label     string `json:"label"`
	Icon      string `json:"icon"`
	Animation string `json:"animation"`
}

// StepSpec extends ProgressStep with its nominal weight. Weights are relative:
// they are rescaled so the full sequence spans the configured total duration.
type StepSpec struct {
	ProgressStep
	Weight float64
}

// ScheduledStep pairs a step with its offset from playback start.
type ScheduledStep struct {
	Step   ProgressStep
	Offset time.Duration
}

// stepCatalog is the single source of step sequences. Labels, icons,
// animation styles and weights are fixed per tier; nothing here is computed
// per call site.
var stepCatalog = map[Tier][]StepSpec{
	TierSimple: {
		{ProgressStep{"Init analyzer", "○", "spin"}, 0.8},
		{ProgressStep{"Process params", "↻", "pulse"}, 0.6},
		{ProgressStep{"Update layers", "⦿", "bounce"}, 1.2},
		{ProgressStep{"Execute transition", "✦", "glow"}, 1.4},
	},
	TierModerate: {
		{ProgressStep{"Scan config", "◎", "zoom"}, 0.7},
		{ProgressStep{"Validate data", "◆", "pulse"}, 0.9},
		{ProgressStep{"Optimize pipeline", "⚙", "spin"}, 1.1},
		{ProgressStep{"Sync visibility", "▣", "bounce"}, 0.5},
		{ProgressStep{"Compute path", "⊕", "rotate"}, 1.3},
		{ProgressStep{"Launch transition", "▲", "thrust"}, 0.5},
	},
	TierComplex: {
		{ProgressStep{"Activate AI", "◉", "blink"}, 0.6},
		{ProgressStep{"Deep scan matrix", "◈", "zoom"}, 1.4},
		{ProgressStep{"Process flood data", "≋", "wave"}, 1.6},
		{ProgressStep{"Calibrate 3D geo", "◢", "spin"}, 1.2},
		{ProgressStep{"Optimize shaders", "▦", "pulse"}, 0.8},
		{ProgressStep{"Calc trajectory", "◯", "orbit"}, 0.9},
		{ProgressStep{"Execute precision", "◎", "target"}, 0.5},
	},
	TierExpert: {
		{ProgressStep{"Init quantum nav", "◊", "mystical"}, 0.8},
		{ProgressStep{"Analyze geo matrix", "⬢", "calculate"}, 1.7},
		{ProgressStep{"Process hurricane", "◐", "spiral"}, 1.9},
		{ProgressStep{"Rebuild meshes", "▦", "build"}, 1.5},
		{ProgressStep{"Sync temporal", "◷", "tick"}, 0.7},
		{ProgressStep{"Optimize clusters", "⬚", "process"}, 1.1},
		{ProgressStep{"Calibrate optics", "◉", "focus"}, 0.6},
		{ProgressStep{"Launch hypersonic", "▲", "blast"}, 0.3},
	},
}

// complexLayers mark a scene as visually heavy regardless of total count.
var complexLayers = []string{"buildings", "hurricaneMilton", "floodZones"}

// SelectTier picks the narration tier for a scene. It is a pure function of
// the active layer count, the presence of complex layers, and whether the
// camera pose is tilted or rotated.
func SelectTier(s Scene) Tier {
	active := s.ActiveLayerCount()
	complex := false
	for _, name := range complexLayers {
		if s.LayerVisibility[name] {
			complex = true
			break
		}
	}
	cameraChange := s.Camera.Pitch > 0 || s.Camera.Bearing != 0

	switch {
	case active >= 8 && complex && cameraChange:
		return TierExpert
	case active >= 5 && complex:
		return TierComplex
	case active >= 3 || cameraChange:
		return TierModerate
	default:
		return TierSimple
	}
}

// StepSequence returns a copy of the catalog sequence for a tier.
func StepSequence(t Tier) []StepSpec {
	seq, ok := stepCatalog[t]
	if !ok {
		seq = stepCatalog[TierSimple]
	}
	out := make([]StepSpec, len(seq))
	copy(out, seq)
	return out
}

// ScheduleSteps distributes a tier's steps across the total duration. Step 0
// is always at offset zero; step i appears at the cumulative weight of the
// steps before it, scaled so the final step's own weight lands the sequence
// end exactly on total.
func ScheduleSteps(t Tier, total time.Duration) []ScheduledStep {
	seq := StepSequence(t)
	sum := 0.0
	for _, s := range seq {
		sum += s.Weight
	}
	scale := float64(total) / sum

	out := make([]ScheduledStep, len(seq))
	cumulative := 0.0
	for i, s := range seq {
		out[i] = ScheduledStep{
			Step:   s.ProgressStep,
			Offset: time.Duration(cumulative * scale),
		}
		cumulative += s.Weight
	}
	return out
}
