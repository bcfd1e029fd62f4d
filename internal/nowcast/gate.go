package nowcast

import (
	"fmt"
	"math"

	"github.com/stormdrift/nowcast/internal/grid"
)

// DefaultGateThreshold is the domain-masked mean rain rate (mm/h) a
// single frame must exceed to activate a forecast run. Note this is a
// spatial mean over the sensing footprint, not a fraction-of-area
// metric.
const DefaultGateThreshold = 1.0 / 20

// ShouldForecast decides whether the recent history justifies running
// the forecast engine: true when any frame's masked mean rain rate
// exceeds the threshold. One sufficiently rainy frame is enough, however
// dry the rest of the sequence is. No side effects; safe to call
// repeatedly.
func ShouldForecast(frames grid.RateSequence, mask grid.Mask, threshold float64) bool {
	for _, f := range frames {
		if MaskedMean(f.Grid, mask) > threshold {
			return true
		}
	}
	return false
}

// MaskedMean is the spatial mean over cells inside the sensing
// footprint. Outside cells are excluded from the mean, not treated as
// NaN contributions. A mask with zero inside cells yields 0. The grid
// and mask must have the same dimensions; a mismatch panics.
func MaskedMean(g grid.Grid, mask grid.Mask) float64 {
	if len(g.Data) != len(mask.Data) {
		panic(fmt.Sprintf("nowcast: grid %dx%d and mask %dx%d differ", g.H, g.W, mask.H, mask.W))
	}
	var sum float64
	var n int
	for i, w := range mask.Data {
		if math.IsNaN(w) {
			continue
		}
		sum += g.Data[i] * w
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
