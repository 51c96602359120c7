package remd

import (
	"context"
	"fmt"
	"math"
	"math/rand"
)

// Engine is the seam to the external MD integrator. Advance runs the
// dynamics of cfg at the given temperature for the given number of
// steps and returns the new configuration and its potential energy.
//
// steps == 0 is a pure energy evaluation: the returned configuration is
// equivalent to the input. The scheduler relies on this to price swap
// trials.
//
// Implementations must be deterministic given their seed, must not
// mutate cfg, and must return a finite energy or an error. One Engine
// instance serves exactly one replica; instances are never shared
// across goroutines.
type Engine interface {
	Advance(ctx context.Context, cfg *Configuration, temperature float64, steps int64) (*Configuration, float64, error)
}

// NewEngineFunc builds the Engine for one replica given its rank and its
// private random source. Commands override this to plug in a real MD
// driver; the default builds a SurrogateEngine.
var NewEngineFunc = func(rank int, rng *rand.Rand) Engine {
	return NewSurrogateEngine(rng)
}

// SurrogateEngine is a deterministic stand-in for a real MD engine. It
// jitters positions with temperature-scaled Gaussian displacements and
// scores configurations with a species-dependent Lennard-Jones
// potential. Not physical, but cheap, seed-reproducible, and sensitive
// to species arrangement, which is all the acceptance machinery needs.
type SurrogateEngine struct {
	rng *rand.Rand

	// WellDepth maps a species label to its interaction strength in eV.
	// Unlisted species use DefaultWellDepth. Pair strengths mix
	// geometrically.
	WellDepth        map[string]float64
	DefaultWellDepth float64

	// EquilibriumDistance is the pair-potential minimum in Angstrom.
	EquilibriumDistance float64

	// JitterAmplitude scales the per-step displacement at 1000 K.
	JitterAmplitude float64
}

// NewSurrogateEngine returns a SurrogateEngine with neutral defaults.
func NewSurrogateEngine(rng *rand.Rand) *SurrogateEngine {
	return &SurrogateEngine{
		rng:                 rng,
		WellDepth:           map[string]float64{},
		DefaultWellDepth:    0.2,
		EquilibriumDistance: 2.5,
		JitterAmplitude:     0.02,
	}
}

// Advance implements Engine.
func (e *SurrogateEngine) Advance(ctx context.Context, cfg *Configuration, temperature float64, steps int64) (*Configuration, float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	if steps < 0 {
		return nil, 0, fmt.Errorf("negative step count %d", steps)
	}
	next := cfg.Clone()
	sigma := e.JitterAmplitude * math.Sqrt(temperature/1000.0)
	for s := int64(0); s < steps; s++ {
		for i := range next.Positions {
			for d := 0; d < 3; d++ {
				next.Positions[i][d] += e.rng.NormFloat64() * sigma
			}
		}
	}
	energy := e.PotentialEnergy(next)
	if math.IsNaN(energy) || math.IsInf(energy, 0) {
		return nil, 0, fmt.Errorf("non-finite potential energy %v", energy)
	}
	return next, energy, nil
}

// PotentialEnergy sums the truncated pairwise Lennard-Jones terms.
func (e *SurrogateEngine) PotentialEnergy(cfg *Configuration) float64 {
	cutoff := 3.0 * e.EquilibriumDistance
	var total float64
	for i := 0; i < cfg.Len(); i++ {
		for j := i + 1; j < cfg.Len(); j++ {
			r := cfg.Distance(i, j)
			if r > cutoff {
				continue
			}
			eps := math.Sqrt(e.wellDepth(cfg.Species[i]) * e.wellDepth(cfg.Species[j]))
			q := e.EquilibriumDistance / r
			q6 := q * q * q * q * q * q
			total += eps * (q6*q6 - 2*q6)
		}
	}
	return total
}

func (e *SurrogateEngine) wellDepth(species string) float64 {
	if d, ok := e.WellDepth[species]; ok {
		return d
	}
	return e.DefaultWellDepth
}
