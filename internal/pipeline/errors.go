package pipeline

import "errors"

// Sentinel errors classifying failures by stage. Run wraps every
// collaborator failure with exactly one of ErrInput, ErrEngine, or
// ErrOutput; the entrypoint wraps startup failures with
// ErrConfiguration. The failing stage can then be reported without
// inspecting messages. There is no retry anywhere in the pipeline; all
// of these are fatal.
//
// A closed activation gate is not an error; it is a normal, successful
// terminal state with no output.
var (
	ErrConfiguration = errors.New("configuration error")
	ErrInput         = errors.New("input error")
	ErrEngine        = errors.New("engine error")
	ErrOutput        = errors.New("output error")
)
