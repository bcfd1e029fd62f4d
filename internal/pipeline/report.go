package pipeline

import "time"

// Report describes one completed run. It is returned to the entrypoint
// for logging and, when a notifier is configured, published for
// alerting consumers.
type Report struct {
	RunID    string `json:"run_id"`
	GateOpen bool   `json:"gate_open"`

	Frames    int `json:"frames"`
	Size      int `json:"size"` // grid edge length; the grid is square
	Members   int `json:"members,omitempty"`
	Leadtimes int `json:"leadtimes,omitempty"`

	EngineSeconds float64   `json:"engine_seconds,omitempty"`
	TotalSeconds  float64   `json:"total_seconds"`
	CompletedAt   time.Time `json:"completed_at"`
}

// Outcome is the run's terminal state as a metric/log label.
func (r Report) Outcome() string {
	if r.GateOpen {
		return "forecast"
	}
	return "gate_closed"
}
