// Package remd provides the acceptance-decision core for replica-exchange
// molecular dynamics with Monte-Carlo atom swaps.
//
// # Reading Guide
//
// Start with these three files to understand the simulation kernel:
//   - metropolis.go: acceptance probabilities for swap and exchange moves
//   - proposer.go: eligibility groups and swap candidate selection
//   - scheduler.go: the replica loop, exchange barriers, and state machine
//
// # Architecture
//
// The remd package owns the decision logic and replica bookkeeping;
// collaborators live in sub-packages:
//   - remd/trace/: acceptance log records and summaries
//   - remd/xyz/: structure file reading and writing
//   - remd/traj/: compressed per-replica trajectory output
//   - remd/store/: SQLite persistence of acceptance decisions
//   - remd/viz/: live frame broadcasting over websockets
//
// The MD integrator is external by design. Engine is the seam: anything
// that can advance a Configuration at a temperature and report its
// potential energy can drive the scheduler. SurrogateEngine is the
// built-in deterministic stand-in used for tests and dry runs.
//
// All randomness is injected through PartitionedRNG so that a run is
// bit-for-bit reproducible from its seed.
package remd
