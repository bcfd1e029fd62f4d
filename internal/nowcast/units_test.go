package nowcast_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stormdrift/nowcast/internal/grid"
	"github.com/stormdrift/nowcast/internal/nowcast"
)

func uniformGrid(size int, v float64) grid.Grid {
	g := grid.New(size, size)
	for i := range g.Data {
		g.Data[i] = v
	}
	return g
}

func TestCountsToHourlyRate_Calibration(t *testing.T) {
	// At counts = 25.5·2.86 the power-law exponent is zero, so the
	// hourly rate collapses to 60·a = (1/3)^(1/1.5).
	c := grid.CountFrame{Grid: uniformGrid(4, 25.5*2.86)}
	r := nowcast.CountsToHourlyRate(c)
	for _, v := range r.Data {
		assert.InDelta(t, 0.480749856, v, 1e-6)
	}
}

func TestCountsToHourlyRate_ZeroCountsAreNearlyDry(t *testing.T) {
	c := grid.CountFrame{Grid: uniformGrid(4, 0)}
	r := nowcast.CountsToHourlyRate(c)
	for _, v := range r.Data {
		assert.Greater(t, v, 0.0)
		assert.Less(t, v, nowcast.DefaultGateThreshold)
	}
}

func TestCountsToHourlyRate_Monotonic(t *testing.T) {
	low := nowcast.CountsToHourlyRate(grid.CountFrame{Grid: uniformGrid(2, 50)})
	high := nowcast.CountsToHourlyRate(grid.CountFrame{Grid: uniformGrid(2, 51)})
	assert.Greater(t, high.Data[0], low.Data[0])
}

func TestRateLogRoundTrip_AboveThreshold(t *testing.T) {
	rates := []float64{0.1, 0.5, 1, 5, 25, 120}
	g := grid.New(1, len(rates))
	copy(g.Data, rates)

	back := nowcast.LogToRate(nowcast.RateToLog(grid.RateFrame{Grid: g}))
	for i, want := range rates {
		assert.InDelta(t, want, back.Data[i], 1e-6, "rate %g", want)
	}
}

func TestRateLogRoundTrip_BelowThresholdIsLossy(t *testing.T) {
	rates := []float64{0, 0.01, 0.05, 0.0999}
	g := grid.New(1, len(rates))
	copy(g.Data, rates)

	dbr := nowcast.RateToLog(grid.RateFrame{Grid: g})
	for i := range rates {
		assert.Equal(t, nowcast.LogFloor, dbr.Data[i])
	}

	back := nowcast.LogToRate(dbr)
	for i := range rates {
		assert.Zero(t, back.Data[i], "sub-threshold rate %g must round-trip to exactly 0", rates[i])
	}
}

func TestLogEnsembleToRate_MatchesFrameTransform(t *testing.T) {
	ens := grid.NewEnsemble(2, 3, 2, 2)
	for i := range ens.Data {
		ens.Data[i] = float64(i) - 16 // spans below and above the floor
	}

	rates := nowcast.LogEnsembleToRate(grid.LogEnsemble{Ensemble: ens})
	require.Len(t, rates.Data, len(ens.Data))

	frame := grid.New(1, len(ens.Data))
	copy(frame.Data, ens.Data)
	want := nowcast.LogToRate(grid.LogFrame{Grid: frame})
	for i := range want.Data {
		assert.Equal(t, want.Data[i], rates.Data[i])
	}
}
