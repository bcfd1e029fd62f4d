package nowcast

import (
	"fmt"

	"github.com/stormdrift/nowcast/internal/grid"
)

// PointTrace extracts, per ensemble member, the leadtime series at one
// pixel. With neighborhood 0 the trace is the pixel itself; with
// neighborhood n > 0 each value is the mean over the (2n+1)² box
// centered on the pixel, clipped at the grid edges. The result is
// indexed [member][leadtime].
func PointTrace(ens grid.RateEnsemble, row, col, neighborhood int) ([][]float64, error) {
	if row < 0 || row >= ens.H || col < 0 || col >= ens.W {
		return nil, fmt.Errorf("point (%d,%d) outside %dx%d grid", row, col, ens.H, ens.W)
	}
	if neighborhood < 0 {
		return nil, fmt.Errorf("negative neighborhood %d", neighborhood)
	}

	out := make([][]float64, ens.Members)
	for m := range out {
		trace := make([]float64, ens.Leadtimes)
		for t := range trace {
			trace[t] = boxMean(ens, m, t, row, col, neighborhood)
		}
		out[m] = trace
	}
	return out, nil
}

func boxMean(ens grid.RateEnsemble, m, t, row, col, n int) float64 {
	i0, i1 := max(row-n, 0), min(row+n, ens.H-1)
	j0, j1 := max(col-n, 0), min(col+n, ens.W-1)
	var sum float64
	for i := i0; i <= i1; i++ {
		for j := j0; j <= j1; j++ {
			sum += ens.At(m, t, i, j)
		}
	}
	return sum / float64((i1-i0+1)*(j1-j0+1))
}
