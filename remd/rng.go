package remd

import (
	"fmt"
	"hash/fnv"
	"math/rand"
)

// === SimulationKey ===

// SimulationKey uniquely identifies a reproducible simulation run.
// Two runs with the same SimulationKey and identical configuration
// MUST produce bit-for-bit identical acceptance decisions.
type SimulationKey int64

// NewSimulationKey creates a SimulationKey from a seed value.
func NewSimulationKey(seed int64) SimulationKey {
	return SimulationKey(seed)
}

// === Subsystem Constants ===

const (
	// SubsystemSwap is the RNG subsystem for atom-swap proposals and
	// their Metropolis draws.
	SubsystemSwap = "swap"

	// SubsystemExchange is the RNG subsystem for replica-exchange
	// Metropolis draws.
	SubsystemExchange = "exchange"
)

// SubsystemReplica returns the subsystem name for the replica at the
// given temperature rank. Each replica's engine dynamics draws from its
// own stream so that replicas can advance in parallel without sharing
// RNG state.
func SubsystemReplica(rank int) string {
	return fmt.Sprintf("replica_%d", rank)
}

// === PartitionedRNG ===

// PartitionedRNG provides deterministic, isolated RNG instances per
// subsystem. Derived seed: masterSeed XOR fnv1a64(subsystemName).
//
// Thread-safety: ForSubsystem is NOT safe for concurrent use; call it
// from a single goroutine during setup and hand each returned *rand.Rand
// to exactly one worker.
type PartitionedRNG struct {
	key        SimulationKey
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a SimulationKey.
func NewPartitionedRNG(key SimulationKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:        key,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns a deterministically-seeded RNG for the named
// subsystem. The same subsystem name always returns the same *rand.Rand
// instance (cached). Never returns nil.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}
	rng := rand.New(rand.NewSource(int64(p.key) ^ fnv1a64(name)))
	p.subsystems[name] = rng
	return rng
}

// Key returns the SimulationKey used to create this PartitionedRNG.
func (p *PartitionedRNG) Key() SimulationKey {
	return p.key
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
