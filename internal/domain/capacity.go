package domain

import "math"

// Render capacity thresholds on the 0-100 load scale.
const (
	CapacityMax      = 100.0
	CapacityWarning  = 70.0
	CapacityCritical = 90.0
)

// layerLoad holds the per-feature cost and the per-layer cap for the render
// capacity estimate. Costs are heuristic, tuned against observed frame times
// for the Cape Coral datasets, not a real performance model.
type layerLoad struct {
	perFeature float64
	max        float64
}

var layerLoadTable = map[string]layerLoad{
	"floodZones":                 {0.1, 15},
	"coastalFloodZones":          {0.08, 12},
	"coastalExtensionFloodZones": {0.08, 12},
	"floodMax":                   {0.08, 12},
	"usace":                      {0.05, 10},
	"zipCodeBoundaries":          {0.03, 8},
	"hurricaneMilton":            {0.01, 15},
	"buildings":                  {0.02, 20}, // per-feature cost varies with zoom, see buildingsPerFeature
	"roads":                      {0.05, 15},
	"paths":                      {0.03, 10},
	"redfinProperties":           {0.01, 8},
	"commercialPois":             {0.01, 8},
	"socialPois":                 {0.01, 8},
	"environmentalPois":          {0.01, 8},
	"blockGroupBoundaries":       {0.02, 8},
}

// buildingsPerFeature scales the buildings cost down at low zoom, where the
// renderer draws them as lightweight footprints.
func buildingsPerFeature(zoom float64) float64 {
	switch {
	case zoom < 10:
		return 0.001
	case zoom < 12:
		return 0.003
	case zoom < 14:
		return 0.005
	case zoom < 16:
		return 0.01
	default:
		return 0.02
	}
}

// CapacityReport summarizes the estimated render load for a visibility
// configuration.
type CapacityReport struct {
	CurrentLoad int                `json:"currentLoad"`
	MaxCapacity int                `json:"maxCapacity"`
	Warning     bool               `json:"isWarning"`
	Critical    bool               `json:"isCritical"`
	PerLayer    map[string]float64 `json:"layerComplexity"`
}

// EstimateCapacity scores the render load of the visible layers given their
// feature counts and the current zoom level. Layers without a feature count
// contribute nothing. The total is capped at CapacityMax.
func EstimateCapacity(visibility map[string]bool, featureCounts map[string]int, zoom float64) CapacityReport {
	total := 0.0
	perLayer := make(map[string]float64)

	for name, cost := range layerLoadTable {
		if !visibility[name] {
			continue
		}
		count, ok := featureCounts[name]
		if !ok || count <= 0 {
			continue
		}
		perFeature := cost.perFeature
		if name == "buildings" {
			perFeature = buildingsPerFeature(zoom)
		}
		load := math.Min(float64(count)*perFeature, cost.max)
		perLayer[name] = load
		total += load
	}

	total = math.Min(total, CapacityMax)
	return CapacityReport{
		CurrentLoad: int(math.Round(total)),
		MaxCapacity: int(CapacityMax),
		Warning:     total > CapacityWarning,
		Critical:    total > CapacityCritical,
		PerLayer:    perLayer,
	}
}
