package remd

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure modes a caller is expected to branch on.
// All wrapped errors produced by this package match these via errors.Is.
var (
	// ErrInsufficientCandidates is returned by AtomSwapProposer when the
	// eligibility group yields fewer than two swappable sites.
	ErrInsufficientCandidates = errors.New("fewer than two eligible swap sites")

	// ErrDegenerateExchange is returned when an exchange acceptance test
	// is asked to compare two replicas at the same temperature. The
	// exchange formula divides by (T1 - T2), so this must fail instead
	// of producing NaN or Inf.
	ErrDegenerateExchange = errors.New("equal temperatures in exchange test")

	// ErrEngineFailure is returned when the external MD engine fails a
	// step or reports a non-finite potential energy.
	ErrEngineFailure = errors.New("engine step failed")

	// ErrTerminated is returned when a scheduler is stepped after it has
	// reached its configured total step count.
	ErrTerminated = errors.New("scheduler already terminated")
)

// ConfigurationError reports an invalid setup value. It is raised before
// any simulation step runs.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s: %s", e.Field, e.Reason)
}

// EngineError wraps a per-replica engine failure so callers can tell
// which replica's segment was aborted. Matches ErrEngineFailure.
type EngineError struct {
	Rank  int
	Cause error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("replica %d: %v: %v", e.Rank, ErrEngineFailure, e.Cause)
}

func (e *EngineError) Unwrap() error { return e.Cause }

func (e *EngineError) Is(target error) bool { return target == ErrEngineFailure }
