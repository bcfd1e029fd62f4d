// Package engine defines the contract with the external stochastic
// ensemble nowcast engine and an adapter that runs it as a subprocess.
//
// The engine itself (optical-flow motion estimation plus cascade
// ensemble extrapolation) is a mature external numerical method and is
// not reimplemented here. The pipeline hands it a log-rain history and
// gets back a (members, leadtimes, H, W) ensemble in dBR.
package engine

import (
	"context"

	"github.com/stormdrift/nowcast/internal/grid"
)

// Fixed numerical configuration of the cascade nowcast. These are part
// of the engine contract, not tunables; Seed in particular makes a
// given input deterministic across runs.
const (
	CascadeLevels    = 6
	RainThresholdDBR = -15.0
	KmPerPixel       = 1.0
	TimestepMinutes  = 1.0
	Seed             = 24
)

// Params is the per-run engine configuration supplied by the caller.
type Params struct {
	// Leadtimes is the number of future timesteps to forecast.
	Leadtimes int
	// Members is the ensemble size.
	Members int
	// Workers is passed through to the engine's internal pool; the
	// engine chooses its own scheduling model.
	Workers int
}

// Engine produces an ensemble forecast from a log-rain history. The
// call is blocking and synchronous with no partial results; failures
// propagate unchanged and are never retried at this layer. Motion
// estimation happens inside the single Forecast invocation.
type Engine interface {
	Forecast(ctx context.Context, seq grid.LogSequence, p Params) (grid.LogEnsemble, error)
}
