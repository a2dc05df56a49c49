package state

import "math"

// Random placement keeps new flowers away from the garden edge.
const (
	PlacementMin  = 10
	PlacementSpan = 80
)

// Intn is the subset of math/rand/v2 used for placement.
type Intn interface {
	IntN(n int) int
}

// RandomPosition picks integer coordinates in [PlacementMin, PlacementMin+PlacementSpan).
func RandomPosition(r Intn) Position {
	return Position{
		X: float64(PlacementMin + r.IntN(PlacementSpan)),
		Y: float64(PlacementMin + r.IntN(PlacementSpan)),
	}
}

// PositionFromPoint converts a click inside a width x height display area into
// a garden position. Points outside the area are clamped to its edge.
func PositionFromPoint(px, py, width, height float64) Position {
	if width <= 0 || height <= 0 {
		return Position{}
	}
	return Position{
		X: clampPercent(px / width * 100),
		Y: clampPercent(py / height * 100),
	}
}

func clampPercent(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(100, v))
}
