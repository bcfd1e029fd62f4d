package config

import (
	"fmt"
	"log/slog"

	"github.com/shirou/gopsutil/v4/cpu"
)

// CoreCounter probes the host for its logical core count. Injected so
// the pipeline never queries the host environment ad hoc and tests can
// simulate probe failure.
type CoreCounter func() (int, error)

// DetectCores counts logical cores via gopsutil.
func DetectCores() (int, error) {
	n, err := cpu.Counts(true)
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, fmt.Errorf("host reported %d cores", n)
	}
	return n, nil
}

// ResolveCores turns the requested core count into an effective one:
// an explicit request wins, otherwise the counter is consulted once.
// A failed probe downgrades to a warning and 1 core.
func ResolveCores(requested int, count CoreCounter, logger *slog.Logger) int {
	if requested > 0 {
		return requested
	}
	n, err := count()
	if err != nil {
		logger.Warn("could not detect core count, assuming 1", "error", err)
		return 1
	}
	return n
}
