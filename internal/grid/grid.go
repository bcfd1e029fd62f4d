package grid

import "fmt"

// SequenceLength is the number of history frames the pipeline consumes.
// Input files may hold more; only the most recent SequenceLength frames
// are used.
const SequenceLength = 5

// Grid is a dense H×W field of float64 values stored row-major.
type Grid struct {
	H, W int
	Data []float64
}

// New allocates a zeroed H×W grid.
func New(h, w int) Grid {
	return Grid{H: h, W: w, Data: make([]float64, h*w)}
}

// FromData wraps an existing row-major slice as a grid. The slice is not
// copied; the caller gives up ownership.
func FromData(h, w int, data []float64) (Grid, error) {
	if len(data) != h*w {
		return Grid{}, fmt.Errorf("grid data length %d does not match %dx%d", len(data), h, w)
	}
	return Grid{H: h, W: w, Data: data}, nil
}

// At returns the value at row i, column j.
func (g Grid) At(i, j int) float64 {
	return g.Data[i*g.W+j]
}

// Set assigns the value at row i, column j.
func (g Grid) Set(i, j int, v float64) {
	g.Data[i*g.W+j] = v
}

// Clone returns a deep copy of the grid.
func (g Grid) Clone() Grid {
	out := Grid{H: g.H, W: g.W, Data: make([]float64, len(g.Data))}
	copy(out.Data, g.Data)
	return out
}

// Frames carry the same physical field in exactly one unit at a time.
// Making each unit a distinct type turns a cross-unit mix-up (say, feeding
// rain rate where the engine expects dBR) into a compile error instead of a
// silent numerical one.

// CountFrame holds raw sensor counts as delivered by the radar.
type CountFrame struct{ Grid }

// RateFrame holds rain rate in mm/h.
type RateFrame struct{ Grid }

// LogFrame holds log-rain (dBR), the engine's working unit.
type LogFrame struct{ Grid }

// Mask marks the radar's circular sensing footprint: 1.0 inside the
// sensing radius, NaN outside. Built once per size and never mutated.
type Mask struct{ Grid }

// CountSequence is an ordered run of count frames, oldest first.
type CountSequence []CountFrame

// RateSequence is an ordered run of rain-rate frames, oldest first.
type RateSequence []RateFrame

// LogSequence is an ordered run of dBR frames, oldest first.
type LogSequence []LogFrame
