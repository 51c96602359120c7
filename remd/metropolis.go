package remd

import (
	"fmt"
	"math"
)

// BoltzmannEV is the Boltzmann constant in eV/K (LAMMPS "metal" units).
// Temperatures throughout this package are in Kelvin and energies in eV;
// callers using another unit system can compute beta themselves and use
// the Decide* forms that take beta directly.
const BoltzmannEV = 8.617333262e-5

// Beta returns 1/(kB*T) for a temperature in Kelvin.
func Beta(temperature float64) float64 {
	return 1.0 / (BoltzmannEV * temperature)
}

// AcceptanceEvaluator makes Metropolis accept/reject decisions for atom
// swaps and replica exchanges. It is stateless and safe for concurrent
// use given an independent uniform source per caller.
type AcceptanceEvaluator struct{}

// SwapProbability returns the Metropolis acceptance probability
// min(1, exp(-deltaEnergy*beta)) for an atom-swap move.
func SwapProbability(deltaEnergy, beta float64) float64 {
	if deltaEnergy <= 0 {
		return 1.0
	}
	return math.Min(1.0, math.Exp(-deltaEnergy*beta))
}

// ExchangeProbability returns the acceptance probability
// min(1, exp(-deltaEnergy/(kB*(t1-t2)))) for exchanging configurations
// between replicas at temperatures t1 and t2. Equal temperatures make
// the formula divide by zero and return ErrDegenerateExchange.
func ExchangeProbability(deltaEnergy, t1, t2 float64) (float64, error) {
	if t1 == t2 {
		return 0, fmt.Errorf("T1=%g, T2=%g: %w", t1, t2, ErrDegenerateExchange)
	}
	arg := -deltaEnergy / (BoltzmannEV * (t1 - t2))
	if arg >= 0 {
		return 1.0, nil
	}
	return math.Exp(arg), nil
}

// DecideSwap applies the Metropolis criterion to an atom-swap move.
// uniform must be drawn from [0, 1) by an injected source.
// deltaEnergy <= 0 always accepts.
func (AcceptanceEvaluator) DecideSwap(deltaEnergy, beta, uniform float64) bool {
	return uniform < SwapProbability(deltaEnergy, beta)
}

// DecideExchange applies the temperature-aware Metropolis criterion to a
// replica exchange. deltaEnergy is the energy difference associated with
// swapping the two replicas' configurations.
func (AcceptanceEvaluator) DecideExchange(deltaEnergy, t1, t2, uniform float64) (bool, error) {
	p, err := ExchangeProbability(deltaEnergy, t1, t2)
	if err != nil {
		return false, err
	}
	return uniform < p, nil
}
