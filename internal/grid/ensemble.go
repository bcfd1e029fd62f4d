package grid

import "fmt"

// Ensemble is a (members, leadtimes, H, W) tensor stored as one flat
// row-major slice, member-major so each member's full forecast is
// contiguous.
type Ensemble struct {
	Members   int
	Leadtimes int
	H, W      int
	Data      []float64
}

// NewEnsemble allocates a zeroed ensemble tensor.
func NewEnsemble(members, leadtimes, h, w int) Ensemble {
	return Ensemble{
		Members:   members,
		Leadtimes: leadtimes,
		H:         h,
		W:         w,
		Data:      make([]float64, members*leadtimes*h*w),
	}
}

// EnsembleFromData wraps an existing flat slice as an ensemble tensor.
// The slice is not copied; the caller gives up ownership.
func EnsembleFromData(members, leadtimes, h, w int, data []float64) (Ensemble, error) {
	if len(data) != members*leadtimes*h*w {
		return Ensemble{}, fmt.Errorf("ensemble data length %d does not match %dx%dx%dx%d",
			len(data), members, leadtimes, h, w)
	}
	return Ensemble{Members: members, Leadtimes: leadtimes, H: h, W: w, Data: data}, nil
}

// FieldLen is the number of values in one member's forecast
// (leadtimes · H · W).
func (e Ensemble) FieldLen() int {
	return e.Leadtimes * e.H * e.W
}

// Member returns member m's forecast as a slice view into the tensor.
// The view aliases the underlying data and must not be retained past the
// ensemble's lifetime.
func (e Ensemble) Member(m int) []float64 {
	n := e.FieldLen()
	return e.Data[m*n : (m+1)*n]
}

// Index maps (member, leadtime, row, column) to the flat offset.
func (e Ensemble) Index(m, t, i, j int) int {
	return ((m*e.Leadtimes+t)*e.H+i)*e.W + j
}

// At returns the value at (member, leadtime, row, column).
func (e Ensemble) At(m, t, i, j int) float64 {
	return e.Data[e.Index(m, t, i, j)]
}

// LogEnsemble is an ensemble forecast in dBR, as produced by the engine.
type LogEnsemble struct{ Ensemble }

// RateEnsemble is an ensemble forecast back-transformed to mm/h.
type RateEnsemble struct{ Ensemble }

// Summary reduces an ensemble over the member axis: the ensemble mean and
// a symmetric envelope around it. Each slice is (leadtimes, H, W) flat
// row-major. Lower is clamped at zero; rain rate cannot be negative.
type Summary struct {
	Leadtimes int
	H, W      int
	Mean      []float64
	Lower     []float64
	Upper     []float64
}
