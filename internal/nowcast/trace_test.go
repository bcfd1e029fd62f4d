package nowcast_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stormdrift/nowcast/internal/grid"
	"github.com/stormdrift/nowcast/internal/nowcast"
)

func TestPointTrace_SinglePixel(t *testing.T) {
	ens := grid.NewEnsemble(2, 3, 4, 4)
	for m := 0; m < 2; m++ {
		for lt := 0; lt < 3; lt++ {
			ens.Data[ens.Index(m, lt, 1, 2)] = float64(10*m + lt)
		}
	}

	traces, err := nowcast.PointTrace(grid.RateEnsemble{Ensemble: ens}, 1, 2, 0)
	require.NoError(t, err)
	require.Len(t, traces, 2)
	assert.Equal(t, []float64{0, 1, 2}, traces[0])
	assert.Equal(t, []float64{10, 11, 12}, traces[1])
}

func TestPointTrace_NeighborhoodAverages(t *testing.T) {
	ens := grid.NewEnsemble(1, 1, 3, 3)
	for i := range ens.Data {
		ens.Data[i] = float64(i) // field is 0..8 row-major
	}

	traces, err := nowcast.PointTrace(grid.RateEnsemble{Ensemble: ens}, 1, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 4.0, traces[0][0]) // mean of 0..8
}

func TestPointTrace_NeighborhoodClippedAtCorner(t *testing.T) {
	ens := grid.NewEnsemble(1, 1, 3, 3)
	for i := range ens.Data {
		ens.Data[i] = float64(i)
	}

	traces, err := nowcast.PointTrace(grid.RateEnsemble{Ensemble: ens}, 0, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, 2.0, traces[0][0]) // mean of {0, 1, 3, 4}
}

func TestPointTrace_OutOfRange(t *testing.T) {
	ens := grid.RateEnsemble{Ensemble: grid.NewEnsemble(1, 1, 3, 3)}
	_, err := nowcast.PointTrace(ens, 3, 0, 0)
	assert.Error(t, err)
	_, err = nowcast.PointTrace(ens, 0, 0, -1)
	assert.Error(t, err)
}
