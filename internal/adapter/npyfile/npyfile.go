// Package npyfile reads and writes the pipeline's array artifacts as
// NumPy containers: a single .npy for the input count stack and the
// output ensemble, and a zip-of-npy sidecar for the summary arrays.
package npyfile

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/kshedden/gonpy"

	"github.com/stormdrift/nowcast/internal/grid"
)

// Store loads the input frame stack and writes the forecast artifacts.
// It implements pipeline.FrameSource and pipeline.ForecastSink.
type Store struct {
	inputPath  string
	outputPath string
	logger     *slog.Logger
}

// NewStore creates a Store for one input/output path pair.
func NewStore(inputPath, outputPath string, logger *slog.Logger) *Store {
	return &Store{inputPath: inputPath, outputPath: outputPath, logger: logger}
}

// Load reads the input .npy stack of raw counts, shape (nt, H, W) with
// nt ≥ 5, and returns the most recent SequenceLength frames oldest
// first. The grid must be square; the domain mask is circular.
func (s *Store) Load(_ context.Context) (grid.CountSequence, error) {
	shape, data, err := ReadArray(s.inputPath)
	if err != nil {
		return nil, fmt.Errorf("read input stack %s: %w", s.inputPath, err)
	}
	if len(shape) != 3 {
		return nil, fmt.Errorf("input stack %s: want 3 axes (nt, H, W), got shape %v", s.inputPath, shape)
	}
	nt, h, w := shape[0], shape[1], shape[2]
	if nt < grid.SequenceLength {
		return nil, fmt.Errorf("input stack %s: %d frames, need at least %d", s.inputPath, nt, grid.SequenceLength)
	}
	if h != w {
		return nil, fmt.Errorf("input stack %s: grid %dx%d is not square", s.inputPath, h, w)
	}

	frameLen := h * w
	seq := make(grid.CountSequence, grid.SequenceLength)
	for k := 0; k < grid.SequenceLength; k++ {
		t := nt - grid.SequenceLength + k
		g, err := grid.FromData(h, w, data[t*frameLen:(t+1)*frameLen])
		if err != nil {
			return nil, err
		}
		// Clone detaches the frame from the whole-file backing slice.
		seq[k] = grid.CountFrame{Grid: g.Clone()}
	}
	s.logger.Debug("input stack loaded",
		"path", s.inputPath, "frames_available", nt, "frames_used", grid.SequenceLength, "size", h)
	return seq, nil
}

// Write stores the full rain-rate ensemble at the output path and the
// summary arrays in a -spread sidecar next to it.
func (s *Store) Write(_ context.Context, ens grid.RateEnsemble, sum grid.Summary) error {
	if err := WriteArray(s.outputPath, []int{ens.Members, ens.Leadtimes, ens.H, ens.W}, ens.Data); err != nil {
		return fmt.Errorf("write ensemble %s: %w", s.outputPath, err)
	}
	sidecar := SidecarPath(s.outputPath)
	if err := writeSidecar(sidecar, sum); err != nil {
		return fmt.Errorf("write sidecar %s: %w", sidecar, err)
	}
	s.logger.Info("forecast artifacts written",
		"ensemble", s.outputPath, "sidecar", sidecar,
		"members", ens.Members, "leadtimes", ens.Leadtimes, "size", ens.H)
	return nil
}

// SidecarPath derives the summary artifact path by inserting -spread
// before the primary path's extension.
func SidecarPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "-spread" + ext
}

// writeSidecar packs mean, lower, and upper, in that order, into a
// zip-of-npy container (the .npz layout).
func writeSidecar(path string, sum grid.Summary) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	zw := zip.NewWriter(f)
	shape := []int{sum.Leadtimes, sum.H, sum.W}
	members := []struct {
		name string
		data []float64
	}{
		{"mean.npy", sum.Mean},
		{"lower.npy", sum.Lower},
		{"upper.npy", sum.Upper},
	}
	for _, m := range members {
		w, err := zw.Create(m.name)
		if err != nil {
			f.Close()
			return err
		}
		if err := writeNpy(nopCloser{w}, shape, m.data); err != nil {
			f.Close()
			return fmt.Errorf("sidecar member %s: %w", m.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadArray reads a .npy file into a flat float64 slice plus its shape.
// float32 payloads are widened; Fortran-ordered files are rejected.
func ReadArray(path string) ([]int, []float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	shape, data, err := ReadArrayFrom(f)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return shape, data, nil
}

// ReadArrayFrom decodes one .npy stream, widening float32 payloads.
func ReadArrayFrom(r io.Reader) ([]int, []float64, error) {
	nr, err := gonpy.NewReader(r)
	if err != nil {
		return nil, nil, err
	}
	if nr.ColumnMajor {
		return nil, nil, fmt.Errorf("column-major (Fortran) layout not supported")
	}
	switch nr.Dtype {
	case "f8":
		data, err := nr.GetFloat64()
		if err != nil {
			return nil, nil, err
		}
		return nr.Shape, data, nil
	case "f4":
		raw, err := nr.GetFloat32()
		if err != nil {
			return nil, nil, err
		}
		data := make([]float64, len(raw))
		for i, v := range raw {
			data[i] = float64(v)
		}
		return nr.Shape, data, nil
	default:
		return nil, nil, fmt.Errorf("unsupported dtype %q, want f4 or f8", nr.Dtype)
	}
}

// WriteArray writes a flat float64 slice as a .npy file with the given
// shape.
func WriteArray(path string, shape []int, data []float64) error {
	n := 1
	for _, d := range shape {
		n *= d
	}
	if n != len(data) {
		return fmt.Errorf("shape %v does not match data length %d", shape, len(data))
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := writeNpy(nopCloser{f}, shape, data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeNpy(w io.WriteCloser, shape []int, data []float64) error {
	wtr, err := gonpy.NewWriter(w)
	if err != nil {
		return err
	}
	wtr.Shape = append([]int(nil), shape...)
	return wtr.WriteFloat64(data)
}

// nopCloser adapts a zip entry writer, which must not be closed by the
// npy encoder, to the io.WriteCloser the encoder wants.
type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
