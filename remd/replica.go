package remd

// Replica is one independent simulated copy of the system, held at a
// fixed target temperature between exchange attempts. Rank indexes the
// temperature ladder; temperatures stay bound to their rank for the
// whole run while configurations (and their energies) move between
// replicas on accepted exchanges.
type Replica struct {
	Rank        int
	Temperature float64
	Config      *Configuration
	Energy      float64
}

// NewReplicas binds a temperature ladder to per-rank copies of the
// initial configurations. Either pass one configuration per temperature,
// or a single configuration to be cloned across all ranks.
func NewReplicas(temperatures []float64, initial []*Configuration) ([]*Replica, error) {
	if err := ValidateLadder(temperatures); err != nil {
		return nil, err
	}
	switch len(initial) {
	case len(temperatures):
	case 1:
		first := initial[0]
		initial = make([]*Configuration, len(temperatures))
		for i := range initial {
			initial[i] = first.Clone()
		}
	default:
		return nil, &ConfigurationError{
			Field:  "structure",
			Reason: "need one initial configuration per replica, or exactly one to clone",
		}
	}
	replicas := make([]*Replica, len(temperatures))
	for i, t := range temperatures {
		replicas[i] = &Replica{Rank: i, Temperature: t, Config: initial[i]}
	}
	return replicas, nil
}

// ValidateLadder checks that the temperature ladder is strictly
// increasing and positive. Duplicates would make every adjacent exchange
// degenerate, so they are rejected at setup time.
func ValidateLadder(temperatures []float64) error {
	if len(temperatures) < 2 {
		return &ConfigurationError{Field: "temperatures", Reason: "ladder needs at least two temperatures"}
	}
	for i, t := range temperatures {
		if t <= 0 {
			return &ConfigurationError{Field: "temperatures", Reason: "temperatures must be > 0"}
		}
		if i > 0 && t <= temperatures[i-1] {
			return &ConfigurationError{Field: "temperatures", Reason: "ladder must be strictly increasing"}
		}
	}
	return nil
}
