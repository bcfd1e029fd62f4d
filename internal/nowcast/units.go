package nowcast

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/stormdrift/nowcast/internal/grid"
)

const (
	// Z-R relation Z = zrMultiplier * R^zrExponent.
	zrMultiplier = 200.0
	zrExponent   = 1.6

	// RateThreshold is the smallest rain rate (mm/h) representable in
	// dBR; anything below it is clamped to LogFloor.
	RateThreshold = 0.1

	// LogFloor is the dBR value standing in for "no rain".
	LogFloor = -15.0

	// Count calibration constants for the originating sensor.
	countScale  = 25.5
	countOffset = 2.86
)

// CountsToRate converts raw sensor counts to rain rate in mm/min.
func CountsToRate(c grid.CountFrame) grid.RateFrame {
	b := 1.0 / 1.5
	a := math.Pow(1.0/3.0, b) / 60.0
	out := grid.New(c.H, c.W)
	for i, v := range c.Data {
		out.Data[i] = a * math.Pow(10, b*(v/countScale-countOffset))
	}
	return grid.RateFrame{Grid: out}
}

// CountsToHourlyRate converts raw sensor counts to rain rate in mm/h.
func CountsToHourlyRate(c grid.CountFrame) grid.RateFrame {
	r := CountsToRate(c)
	floats.Scale(60, r.Data)
	return r
}

// RateToLog converts rain rate (mm/h) to dBR. Rates below RateThreshold
// are forced to LogFloor rather than running into log(0).
func RateToLog(r grid.RateFrame) grid.LogFrame {
	out := grid.New(r.H, r.W)
	for i, v := range r.Data {
		if v < RateThreshold {
			out.Data[i] = LogFloor
			continue
		}
		out.Data[i] = 10 * math.Log10(zrMultiplier*math.Pow(v, zrExponent))
	}
	return grid.LogFrame{Grid: out}
}

// LogToRate converts dBR back to rain rate (mm/h). Values at or below
// LogFloor map to exactly 0, so a sub-threshold rate that was clamped on
// the way in comes back as dry, not as its original value.
func LogToRate(l grid.LogFrame) grid.RateFrame {
	out := grid.New(l.H, l.W)
	for i, v := range l.Data {
		out.Data[i] = logToRateValue(v)
	}
	return grid.RateFrame{Grid: out}
}

// LogEnsembleToRate back-transforms a whole ensemble forecast from dBR
// to mm/h.
func LogEnsembleToRate(e grid.LogEnsemble) grid.RateEnsemble {
	out := grid.NewEnsemble(e.Members, e.Leadtimes, e.H, e.W)
	for i, v := range e.Data {
		out.Data[i] = logToRateValue(v)
	}
	return grid.RateEnsemble{Ensemble: out}
}

func logToRateValue(dbr float64) float64 {
	if dbr <= LogFloor {
		return 0
	}
	return math.Pow(math.Pow(10, dbr/10)/zrMultiplier, 1/zrExponent)
}
