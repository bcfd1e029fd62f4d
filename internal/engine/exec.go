package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/stormdrift/nowcast/internal/adapter/npyfile"
	"github.com/stormdrift/nowcast/internal/grid"
)

// DefaultBinary is the engine executable looked up on PATH when no
// explicit path is configured.
const DefaultBinary = "steps-engine"

// job is the description handed to the engine executable. Arrays are
// exchanged as .npy files in a scratch directory; everything else rides
// in this JSON document.
type job struct {
	InputPath  string `json:"input_path"`
	OutputPath string `json:"output_path"`

	Members   int `json:"n_ens_members"`
	Leadtimes int `json:"n_leadtimes"`
	Workers   int `json:"num_workers"`

	CascadeLevels        int     `json:"n_cascade_levels"`
	RainThreshold        float64 `json:"rain_threshold"`
	KmPerPixel           float64 `json:"km_per_pixel"`
	TimestepMinutes      float64 `json:"timestep_minutes"`
	Decomposition        string  `json:"decomposition"`
	BandpassFilter       string  `json:"bandpass_filter"`
	NoiseMethod          string  `json:"noise_method"`
	VelocityPerturbation bool    `json:"velocity_perturbation"`
	MaskMethod           string  `json:"mask_method"`
	Seed                 int64   `json:"seed"`
}

// ExecEngine runs the external nowcast engine as a subprocess,
// implementing Engine. One invocation covers motion estimation and the
// ensemble nowcast.
type ExecEngine struct {
	path   string
	logger *slog.Logger
}

// NewExecEngine creates an adapter for the engine executable at path.
// An empty path falls back to DefaultBinary.
func NewExecEngine(path string, logger *slog.Logger) *ExecEngine {
	if path == "" {
		path = DefaultBinary
	}
	return &ExecEngine{path: path, logger: logger}
}

// Forecast writes the history and job description to a scratch
// directory, runs the engine, and reads the ensemble back.
func (e *ExecEngine) Forecast(ctx context.Context, seq grid.LogSequence, p Params) (grid.LogEnsemble, error) {
	var zero grid.LogEnsemble
	if len(seq) == 0 {
		return zero, fmt.Errorf("empty frame sequence")
	}
	if p.Members <= 0 || p.Leadtimes <= 0 || p.Workers <= 0 {
		return zero, fmt.Errorf("invalid engine params %+v", p)
	}

	dir, err := os.MkdirTemp("", "nowcast-engine-")
	if err != nil {
		return zero, fmt.Errorf("create scratch dir: %w", err)
	}
	defer os.RemoveAll(dir)

	h, w := seq[0].H, seq[0].W
	stack := make([]float64, 0, len(seq)*h*w)
	for _, f := range seq {
		stack = append(stack, f.Data...)
	}
	j := job{
		InputPath:            filepath.Join(dir, "history.npy"),
		OutputPath:           filepath.Join(dir, "ensemble.npy"),
		Members:              p.Members,
		Leadtimes:            p.Leadtimes,
		Workers:              p.Workers,
		CascadeLevels:        CascadeLevels,
		RainThreshold:        RainThresholdDBR,
		KmPerPixel:           KmPerPixel,
		TimestepMinutes:      TimestepMinutes,
		Decomposition:        "fft",
		BandpassFilter:       "gaussian",
		NoiseMethod:          "nonparametric",
		VelocityPerturbation: true,
		MaskMethod:           "incremental",
		Seed:                 Seed,
	}
	if err := npyfile.WriteArray(j.InputPath, []int{len(seq), h, w}, stack); err != nil {
		return zero, fmt.Errorf("stage history: %w", err)
	}
	jobPath := filepath.Join(dir, "job.json")
	doc, err := json.Marshal(j)
	if err != nil {
		return zero, fmt.Errorf("encode job: %w", err)
	}
	if err := os.WriteFile(jobPath, doc, 0o644); err != nil {
		return zero, fmt.Errorf("stage job: %w", err)
	}

	cmd := exec.CommandContext(ctx, e.path, "--job", jobPath)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	e.logger.Debug("invoking engine", "path", e.path, "members", p.Members, "leadtimes", p.Leadtimes, "workers", p.Workers)
	if err := cmd.Run(); err != nil {
		if msg := bytes.TrimSpace(stderr.Bytes()); len(msg) > 0 {
			return zero, fmt.Errorf("engine: %w: %s", err, msg)
		}
		return zero, fmt.Errorf("engine: %w", err)
	}
	if s := stderr.String(); s != "" {
		e.logger.Debug("engine stderr", "output", s)
	}

	shape, data, err := npyfile.ReadArray(j.OutputPath)
	if err != nil {
		return zero, fmt.Errorf("read engine output: %w", err)
	}
	if len(shape) != 4 {
		return zero, fmt.Errorf("engine output: want 4 axes, got shape %v", shape)
	}
	if shape[0] != p.Members || shape[1] != p.Leadtimes || shape[2] != h || shape[3] != w {
		return zero, fmt.Errorf("engine output shape %v does not match requested (%d, %d, %d, %d)",
			shape, p.Members, p.Leadtimes, h, w)
	}
	ens, err := grid.EnsembleFromData(p.Members, p.Leadtimes, h, w, data)
	if err != nil {
		return zero, err
	}
	return grid.LogEnsemble{Ensemble: ens}, nil
}
