package remd

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/remd-sim/remd-sim/remd/trace"
)

// SchedulerState is the scheduler's position in its lifecycle.
type SchedulerState string

const (
	// StateRunning: replicas are advancing between exchange points.
	StateRunning SchedulerState = "running"
	// StateExchangeDue: the step count hit an exchange boundary and
	// replica pairs are being selected.
	StateExchangeDue SchedulerState = "exchange_due"
	// StateExchanging: pairwise exchange tests are being applied.
	StateExchanging SchedulerState = "exchanging"
	// StateTerminated: the configured total step count was reached.
	// No further transitions are accepted.
	StateTerminated SchedulerState = "terminated"
)

// SchedulerConfig groups the run-control parameters.
type SchedulerConfig struct {
	TotalSteps       int64 // total MD steps per replica (must be > 0)
	ExchangeInterval int64 // steps between exchange attempts (must be > 0)
	SwapsPerSegment  int   // atom-swap attempts per replica per segment (0 disables swaps)
}

// Validate checks the run-control parameters.
func (c SchedulerConfig) Validate() error {
	if c.TotalSteps <= 0 {
		return &ConfigurationError{Field: "total_steps", Reason: "must be > 0"}
	}
	if c.ExchangeInterval <= 0 {
		return &ConfigurationError{Field: "exchange_interval", Reason: "must be > 0"}
	}
	if c.SwapsPerSegment < 0 {
		return &ConfigurationError{Field: "swaps_per_segment", Reason: "must be >= 0"}
	}
	return nil
}

// ReplicaExchangeScheduler drives N replicas through alternating MD
// segments, Monte-Carlo swap attempts, and adjacent-pair exchange
// attempts. Replicas advance in parallel (one goroutine each) between
// exchange points; exchange points are barriers, and the replica table
// is only mutated between barriers from the scheduler goroutine.
type ReplicaExchangeScheduler struct {
	config    SchedulerConfig
	replicas  []*Replica
	engines   []Engine
	proposer  *AtomSwapProposer
	evaluator AcceptanceEvaluator
	rng       *PartitionedRNG
	trace     *trace.RunTrace
	metrics   *Metrics
	sinks     []FrameSink

	state  SchedulerState
	step   int64
	round  int
	hasRun bool
}

// NewReplicaExchangeScheduler wires replicas to their engines and
// validates everything that can fail fast: run-control parameters, the
// eligibility group (via the proposer), and, when swaps are enabled,
// that the initial composition can produce a candidate pair at all.
//
// engines must hold one Engine per replica; each engine is driven only
// by its replica's worker goroutine.
func NewReplicaExchangeScheduler(config SchedulerConfig, replicas []*Replica, engines []Engine,
	proposer *AtomSwapProposer, rng *PartitionedRNG, sinks ...FrameSink) (*ReplicaExchangeScheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if len(replicas) < 2 {
		return nil, &ConfigurationError{Field: "replicas", Reason: "need at least two replicas"}
	}
	if len(engines) != len(replicas) {
		return nil, &ConfigurationError{
			Field:  "engines",
			Reason: fmt.Sprintf("%d engines for %d replicas", len(engines), len(replicas)),
		}
	}
	temps := make([]float64, len(replicas))
	for i, r := range replicas {
		temps[i] = r.Temperature
	}
	if err := ValidateLadder(temps); err != nil {
		return nil, err
	}
	if config.SwapsPerSegment > 0 {
		if proposer == nil {
			return nil, &ConfigurationError{Field: "eligibility", Reason: "swaps enabled but no proposer configured"}
		}
		// Element-restricted groups with too few matching atoms can
		// never propose; report that before any step runs.
		for _, r := range replicas {
			if sites := proposer.EligibleSites(r.Config); len(sites) < 2 {
				return nil, fmt.Errorf("replica %d: eligibility %q matched %d site(s): %w",
					r.Rank, proposer.Group().Kind, len(sites), ErrInsufficientCandidates)
			}
		}
	}
	return &ReplicaExchangeScheduler{
		config:   config,
		replicas: replicas,
		engines:  engines,
		proposer: proposer,
		rng:      rng,
		trace:    trace.NewRunTrace(),
		metrics:  NewMetrics(len(replicas)),
		sinks:    sinks,
		state:    StateRunning,
	}, nil
}

// State returns the scheduler's current lifecycle state.
func (s *ReplicaExchangeScheduler) State() SchedulerState { return s.state }

// Step returns the number of MD steps completed per replica.
func (s *ReplicaExchangeScheduler) Step() int64 { return s.step }

// Replicas returns the replica table. Callers must not mutate it while
// Run is in progress.
func (s *ReplicaExchangeScheduler) Replicas() []*Replica { return s.replicas }

// Trace returns the acceptance log collected so far.
func (s *ReplicaExchangeScheduler) Trace() *trace.RunTrace { return s.trace }

// Metrics returns the aggregate acceptance counters.
func (s *ReplicaExchangeScheduler) Metrics() *Metrics { return s.metrics }

// Run executes the full simulation: evaluates initial energies, then
// alternates MD segments, swap attempts, and exchange attempts until
// TotalSteps is reached. Panics if called more than once. A cancelled
// context stops the run cleanly at the next barrier boundary.
func (s *ReplicaExchangeScheduler) Run(ctx context.Context) error {
	if s.hasRun {
		panic("ReplicaExchangeScheduler.Run() called more than once")
	}
	s.hasRun = true
	if s.state == StateTerminated {
		return ErrTerminated
	}

	if err := s.evaluateInitialEnergies(ctx); err != nil {
		return err
	}
	s.emitFrames()

	for s.step < s.config.TotalSteps {
		segment := s.config.ExchangeInterval
		if remaining := s.config.TotalSteps - s.step; remaining < segment {
			segment = remaining
		}
		if err := s.advanceAll(ctx, segment); err != nil {
			s.state = StateTerminated
			return err
		}
		s.step += segment

		if s.config.SwapsPerSegment > 0 {
			if err := s.attemptSwaps(ctx); err != nil {
				s.state = StateTerminated
				return err
			}
		}

		if s.step%s.config.ExchangeInterval == 0 && s.step < s.config.TotalSteps {
			s.state = StateExchangeDue
			if err := s.attemptExchanges(); err != nil {
				s.state = StateTerminated
				return err
			}
			s.state = StateRunning
		}

		s.emitFrames()

		if err := ctx.Err(); err != nil {
			// Barrier boundary: every replica has completed the segment,
			// so stopping here leaves a consistent state.
			s.state = StateTerminated
			return err
		}
	}

	s.state = StateTerminated
	logrus.Infof("run terminated at step %d after %d exchange rounds", s.step, s.round)
	return nil
}

// evaluateInitialEnergies prices each replica's starting configuration
// with a zero-step engine call.
func (s *ReplicaExchangeScheduler) evaluateInitialEnergies(ctx context.Context) error {
	for i, r := range s.replicas {
		_, energy, err := s.engines[i].Advance(ctx, r.Config, r.Temperature, 0)
		if err != nil {
			return &EngineError{Rank: r.Rank, Cause: err}
		}
		if math.IsNaN(energy) || math.IsInf(energy, 0) {
			return &EngineError{Rank: r.Rank, Cause: fmt.Errorf("non-finite initial energy %v", energy)}
		}
		r.Energy = energy
	}
	return nil
}

type advanceResult struct {
	cfg    *Configuration
	energy float64
	err    error
}

// advanceAll runs one MD segment on every replica in parallel and waits
// at the barrier. Replicas whose engine fails report an EngineError;
// the others still complete their segment and keep their results.
func (s *ReplicaExchangeScheduler) advanceAll(ctx context.Context, steps int64) error {
	results := make([]advanceResult, len(s.replicas))
	var wg sync.WaitGroup
	for i, r := range s.replicas {
		wg.Add(1)
		go func(i int, r *Replica) {
			defer wg.Done()
			cfg, energy, err := s.engines[i].Advance(ctx, r.Config, r.Temperature, steps)
			if err == nil && (math.IsNaN(energy) || math.IsInf(energy, 0)) {
				err = fmt.Errorf("non-finite potential energy %v", energy)
			}
			results[i] = advanceResult{cfg: cfg, energy: energy, err: err}
		}(i, r)
	}
	wg.Wait()

	var errs []error
	for i, res := range results {
		if res.err != nil {
			errs = append(errs, &EngineError{Rank: s.replicas[i].Rank, Cause: res.err})
			continue
		}
		s.replicas[i].Config = res.cfg
		s.replicas[i].Energy = res.energy
	}
	return errors.Join(errs...)
}

// attemptSwaps runs the configured number of Monte-Carlo atom-swap
// attempts on every replica. Accepted swaps mutate the replica's
// configuration; rejected ones leave it unchanged.
func (s *ReplicaExchangeScheduler) attemptSwaps(ctx context.Context) error {
	rng := s.rng.ForSubsystem(SubsystemSwap)
	for i, r := range s.replicas {
		for n := 0; n < s.config.SwapsPerSegment; n++ {
			pair, err := s.proposer.Propose(r.Config, rng)
			if err != nil {
				return fmt.Errorf("replica %d swap proposal: %w", r.Rank, err)
			}
			trial := r.Config.Clone()
			if err := trial.SwapSpecies(pair.I, pair.J); err != nil {
				return err
			}
			_, trialEnergy, err := s.engines[i].Advance(ctx, trial, r.Temperature, 0)
			if err != nil {
				return &EngineError{Rank: r.Rank, Cause: err}
			}
			deltaE := trialEnergy - r.Energy
			prob := SwapProbability(deltaE, Beta(r.Temperature))
			u := rng.Float64()
			accepted := s.evaluator.DecideSwap(deltaE, Beta(r.Temperature), u)

			s.trace.RecordSwap(trace.SwapRecord{
				Step:        s.step,
				Rank:        r.Rank,
				SiteI:       pair.I,
				SiteJ:       pair.J,
				SpeciesI:    r.Config.Species[pair.I],
				SpeciesJ:    r.Config.Species[pair.J],
				DeltaEnergy: deltaE,
				Probability: prob,
				Uniform:     u,
				Accepted:    accepted,
			})
			s.metrics.CountSwap(r.Rank, accepted)

			if accepted {
				r.Config = trial
				r.Energy = trialEnergy
				logrus.Debugf("replica %d: swap (%d, %d) accepted, dE=%.4f", r.Rank, pair.I, pair.J, deltaE)
			}
		}
	}
	return nil
}

// attemptExchanges applies the exchange test to adjacent-rank pairs.
// Successive rounds alternate between even-started and odd-started
// pairings so every adjacent pair is attempted every two rounds.
// Accepted exchanges move configurations (and energies) between the
// replicas; temperatures stay attached to their rank.
func (s *ReplicaExchangeScheduler) attemptExchanges() error {
	s.state = StateExchanging
	rng := s.rng.ForSubsystem(SubsystemExchange)
	start := s.round % 2
	for low := start; low+1 < len(s.replicas); low += 2 {
		a, b := s.replicas[low], s.replicas[low+1]
		deltaE := a.Energy - b.Energy
		prob, err := ExchangeProbability(deltaE, a.Temperature, b.Temperature)
		if err != nil {
			return fmt.Errorf("ranks (%d, %d): %w", a.Rank, b.Rank, err)
		}
		u := rng.Float64()
		accepted, err := s.evaluator.DecideExchange(deltaE, a.Temperature, b.Temperature, u)
		if err != nil {
			return fmt.Errorf("ranks (%d, %d): %w", a.Rank, b.Rank, err)
		}

		s.trace.RecordExchange(trace.ExchangeRecord{
			Step:        s.step,
			Round:       s.round,
			LowRank:     a.Rank,
			HighRank:    b.Rank,
			DeltaEnergy: deltaE,
			Probability: prob,
			Uniform:     u,
			Accepted:    accepted,
		})
		s.metrics.CountExchange(a.Rank, accepted)

		if accepted {
			a.Config, b.Config = b.Config, a.Config
			a.Energy, b.Energy = b.Energy, a.Energy
			logrus.Debugf("exchange (%d, %d) accepted at step %d, dE=%.4f", a.Rank, b.Rank, s.step, deltaE)
		}
	}
	s.round++
	return nil
}

// emitFrames pushes every replica's current state to the sinks.
// Sink errors are logged, not fatal: output is a side effect and must
// not abort the run.
func (s *ReplicaExchangeScheduler) emitFrames() {
	for _, r := range s.replicas {
		frame := snapshotFrame(s.step, r)
		for _, sink := range s.sinks {
			if err := sink.WriteFrame(frame); err != nil {
				logrus.Warnf("frame sink: %v", err)
			}
		}
	}
}
