package nowcast_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stormdrift/nowcast/internal/grid"
	"github.com/stormdrift/nowcast/internal/nowcast"
)

func rateSequence(size int, frameMeans ...float64) grid.RateSequence {
	seq := make(grid.RateSequence, len(frameMeans))
	for i, v := range frameMeans {
		seq[i] = grid.RateFrame{Grid: uniformGrid(size, v)}
	}
	return seq
}

func TestShouldForecast_AllZeroStaysClosed(t *testing.T) {
	mask := nowcast.BuildMask(16)
	seq := rateSequence(16, 0, 0, 0, 0, 0)
	assert.False(t, nowcast.ShouldForecast(seq, mask, nowcast.DefaultGateThreshold))
}

func TestShouldForecast_SingleWetFrameOpens(t *testing.T) {
	// OR over time: one rainy frame among four dry ones is enough.
	mask := nowcast.BuildMask(16)
	seq := rateSequence(16, 0, 0, 1.0, 0, 0)
	assert.True(t, nowcast.ShouldForecast(seq, mask, nowcast.DefaultGateThreshold))
}

func TestShouldForecast_Monotonic(t *testing.T) {
	mask := nowcast.BuildMask(16)
	open := rateSequence(16, 0, 0, 0.06, 0, 0)
	assert.True(t, nowcast.ShouldForecast(open, mask, nowcast.DefaultGateThreshold))

	// Raising any frame cannot close an open gate.
	wetter := rateSequence(16, 0.2, 0.1, 0.06, 0, 0)
	assert.True(t, nowcast.ShouldForecast(wetter, mask, nowcast.DefaultGateThreshold))
}

func TestShouldForecast_EmptySequenceClosed(t *testing.T) {
	mask := nowcast.BuildMask(16)
	assert.False(t, nowcast.ShouldForecast(nil, mask, nowcast.DefaultGateThreshold))
}

func TestMaskedMean_ExcludesOutsideCells(t *testing.T) {
	// Outside cells carry huge values; a correct masked mean never
	// sees them.
	mask := nowcast.BuildMask(16)
	g := uniformGrid(16, 0.2)
	for i, w := range mask.Data {
		if math.IsNaN(w) {
			g.Data[i] = 1e12
		}
	}
	assert.InDelta(t, 0.2, nowcast.MaskedMean(g, mask), 1e-12)
}

func TestMaskedMean_DimensionMismatchPanics(t *testing.T) {
	mask := nowcast.BuildMask(16)
	g := uniformGrid(8, 0.2)
	assert.Panics(t, func() { nowcast.MaskedMean(g, mask) })
}

func TestMaskedMean_AllOutsideIsZero(t *testing.T) {
	all := grid.New(4, 4)
	for i := range all.Data {
		all.Data[i] = math.NaN()
	}
	g := uniformGrid(4, 3.5)
	assert.Zero(t, nowcast.MaskedMean(g, grid.Mask{Grid: all}))
}
