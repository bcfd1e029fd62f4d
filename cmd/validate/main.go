// Command validate checks a forecast artifact pair for internal
// consistency: the primary ensemble file and its -spread sidecar. It
// verifies array shapes, the envelope ordering (lower ≤ mean ≤ upper),
// non-negative rain rates, and that the sidecar statistics actually
// match the ensemble.
//
// Usage:
//
//	go run ./cmd/validate -forecast out/forecast.npy
package main

import (
	"archive/zip"
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/stormdrift/nowcast/internal/adapter/npyfile"
	"github.com/stormdrift/nowcast/internal/grid"
	"github.com/stormdrift/nowcast/internal/nowcast"
)

const tolerance = 1e-9

// phase tracks pass/fail for one validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	forecast := flag.String("forecast", "", "path to the primary ensemble .npy file")
	flag.Parse()
	if *forecast == "" {
		flag.Usage()
		os.Exit(2)
	}

	phases, err := validate(*forecast)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	failed := false
	for _, p := range phases {
		status := "ok"
		if !p.passed() {
			status = "FAIL"
			failed = true
		}
		fmt.Printf("%-24s %s\n", p.name, status)
		for _, e := range p.errors {
			fmt.Printf("    %s\n", e)
		}
	}
	if failed {
		os.Exit(1)
	}
}

func validate(forecastPath string) ([]*phase, error) {
	shape, data, err := npyfile.ReadArray(forecastPath)
	if err != nil {
		return nil, fmt.Errorf("read ensemble: %w", err)
	}

	shapes := &phase{name: "shapes"}
	if len(shape) != 4 {
		shapes.errorf("ensemble has %d axes, want 4 (members, leadtimes, H, W)", len(shape))
		return []*phase{shapes}, nil
	}
	ens, err := grid.EnsembleFromData(shape[0], shape[1], shape[2], shape[3], data)
	if err != nil {
		return nil, err
	}
	if ens.H != ens.W {
		shapes.errorf("grid %dx%d is not square", ens.H, ens.W)
	}

	mean, lower, upper, err := readSidecar(npyfile.SidecarPath(forecastPath), ens)
	if err != nil {
		return nil, err
	}

	nonneg := &phase{name: "non-negative rates"}
	for i, v := range ens.Data {
		if v < 0 {
			nonneg.errorf("ensemble value %g < 0 at flat index %d", v, i)
			break
		}
	}
	for i, v := range lower {
		if v < 0 {
			nonneg.errorf("lower envelope %g < 0 at flat index %d", v, i)
			break
		}
	}

	envelope := &phase{name: "envelope ordering"}
	for i := range mean {
		if lower[i] > mean[i]+tolerance || mean[i] > upper[i]+tolerance {
			envelope.errorf("lower %g ≤ mean %g ≤ upper %g violated at flat index %d",
				lower[i], mean[i], upper[i], i)
			break
		}
	}

	consistency := &phase{name: "sidecar consistency"}
	want := nowcast.Summarize(grid.RateEnsemble{Ensemble: ens})
	for i := range mean {
		if math.Abs(mean[i]-want.Mean[i]) > 1e-6 {
			consistency.errorf("sidecar mean diverges from ensemble mean at flat index %d: %g vs %g",
				i, mean[i], want.Mean[i])
			break
		}
	}

	return []*phase{shapes, nonneg, envelope, consistency}, nil
}

// readSidecar pulls the three summary arrays out of the zip sidecar and
// checks their shapes against the ensemble.
func readSidecar(path string, ens grid.Ensemble) (mean, lower, upper []float64, err error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open sidecar: %w", err)
	}
	defer zr.Close()

	arrays := map[string][]float64{}
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, nil, nil, err
		}
		shape, data, err := npyfile.ReadArrayFrom(rc)
		rc.Close()
		if err != nil {
			return nil, nil, nil, fmt.Errorf("sidecar member %s: %w", f.Name, err)
		}
		if len(shape) != 3 || shape[0] != ens.Leadtimes || shape[1] != ens.H || shape[2] != ens.W {
			return nil, nil, nil, fmt.Errorf("sidecar member %s: shape %v, want (%d, %d, %d)",
				f.Name, shape, ens.Leadtimes, ens.H, ens.W)
		}
		arrays[f.Name] = data
	}
	for _, name := range []string{"mean.npy", "lower.npy", "upper.npy"} {
		if arrays[name] == nil {
			return nil, nil, nil, fmt.Errorf("sidecar missing member %s", name)
		}
	}
	return arrays["mean.npy"], arrays["lower.npy"], arrays["upper.npy"], nil
}
