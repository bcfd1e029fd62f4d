package nowcast

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/stormdrift/nowcast/internal/grid"
)

// Summarize reduces an ensemble over the member axis into the ensemble
// mean and a symmetric envelope. The spread is the mean absolute
// deviation from the mean. Lower is clamped at zero; upper is unclamped.
//
// This is the single statistics implementation; both the activation path
// and the output path call it.
func Summarize(ens grid.RateEnsemble) grid.Summary {
	n := ens.FieldLen()
	sum := grid.Summary{
		Leadtimes: ens.Leadtimes,
		H:         ens.H,
		W:         ens.W,
		Mean:      make([]float64, n),
		Lower:     make([]float64, n),
		Upper:     make([]float64, n),
	}
	if ens.Members == 0 || n == 0 {
		return sum
	}

	for m := 0; m < ens.Members; m++ {
		floats.Add(sum.Mean, ens.Member(m))
	}
	floats.Scale(1/float64(ens.Members), sum.Mean)

	spread := make([]float64, n)
	for m := 0; m < ens.Members; m++ {
		member := ens.Member(m)
		for i := range spread {
			spread[i] += math.Abs(member[i] - sum.Mean[i])
		}
	}
	floats.Scale(1/float64(ens.Members), spread)

	floats.SubTo(sum.Lower, sum.Mean, spread)
	floats.AddTo(sum.Upper, sum.Mean, spread)
	for i, v := range sum.Lower {
		if v < 0 {
			sum.Lower[i] = 0
		}
	}
	return sum
}
