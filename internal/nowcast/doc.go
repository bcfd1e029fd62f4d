// Package nowcast holds the numerical core of the rainfall nowcast
// pipeline: unit transforms, the circular domain mask, the activation
// gate, and the ensemble statistics reduction.
//
// # Units
//
// The same physical field moves through three units:
//
//	counts  raw sensor output, dimensionless
//	mm/h    rain rate; the count calibration is per-minute, so the
//	        hourly transform folds in a ×60 scale
//	dBR     log-rain, 10·log10(200·R^1.6); the engine's working unit
//
// The count→rate calibration
//
//	R = a · 10^(b·(c/25.5 − 2.86)),  b = 1/1.5,  a = (1/3)^b / 60
//
// is a fixed power law for the originating sensor. The 25.5 and 2.86
// offsets and the Z-R relation Z = 200·R^1.6 are physical parameters,
// not tunables.
//
// The dBR transform clamps: rain rates below 0.1 mm/h are forced to the
// −15 dBR floor, and inverting a value at or below the floor yields
// exactly 0 mm/h. The round trip is lossy below 0.1 mm/h; the engine
// cannot distinguish drizzle from dry air anyway.
//
// # Domain mask
//
// The radar senses a circular footprint inscribed in its square grid.
// Cells outside the circle carry NaN in the mask and are excluded from
// every spatial statistic. [BuildMask] is deterministic per size;
// [CachedMask] memoizes it for the process lifetime.
//
// # Activation gate
//
// Running the cascade engine is expensive, so the pipeline first checks
// whether the recent history shows enough rain to bother. The gate opens
// when any single frame's domain-masked mean rain rate exceeds
// [DefaultGateThreshold]. The check is an OR over time, so one wet frame
// among five dry ones is enough.
package nowcast
