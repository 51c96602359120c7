package remd

// EligibilityConfig is the serialized form of an EligibilityGroup.
type EligibilityConfig struct {
	Kind     string   `yaml:"kind" json:"kind"`
	Cutoff   float64  `yaml:"cutoff" json:"cutoff,omitempty"`
	Elements []string `yaml:"elements" json:"elements,omitempty"`
}

// Group converts the serialized form to a validated EligibilityGroup.
func (c EligibilityConfig) Group() (EligibilityGroup, error) {
	g := EligibilityGroup{Kind: GroupKind(c.Kind), Cutoff: c.Cutoff, Elements: c.Elements}
	if err := g.Validate(); err != nil {
		return EligibilityGroup{}, err
	}
	return g, nil
}

// RunConfig is the full description of one run, loadable from a YAML
// file (see LoadRunConfig) or assembled from CLI flags.
type RunConfig struct {
	Seed             int64             `yaml:"seed" json:"seed"`
	TotalSteps       int64             `yaml:"total_steps" json:"total_steps"`
	ExchangeInterval int64             `yaml:"exchange_interval" json:"exchange_interval"`
	SwapsPerSegment  int               `yaml:"swaps_per_segment" json:"swaps_per_segment"`
	Temperatures     []float64         `yaml:"temperatures" json:"temperatures"`
	Eligibility      EligibilityConfig `yaml:"eligibility" json:"eligibility"`

	Structure     string `yaml:"structure" json:"structure,omitempty"`           // XYZ input path
	TrajectoryDir string `yaml:"trajectory_dir" json:"trajectory_dir,omitempty"` // JSONL+zstd output dir ("" disables)
	StorePath     string `yaml:"store_path" json:"store_path,omitempty"`         // SQLite acceptance log ("" disables)
	ListenAddr    string `yaml:"listen_addr" json:"listen_addr,omitempty"`       // websocket viewer address ("" disables)
}

// SchedulerConfig extracts the run-control parameters.
func (c RunConfig) SchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		TotalSteps:       c.TotalSteps,
		ExchangeInterval: c.ExchangeInterval,
		SwapsPerSegment:  c.SwapsPerSegment,
	}
}

// Validate checks everything that can fail before the first step:
// run-control parameters, the temperature ladder, and the eligibility
// group when swaps are enabled.
func (c RunConfig) Validate() error {
	if err := c.SchedulerConfig().Validate(); err != nil {
		return err
	}
	if err := ValidateLadder(c.Temperatures); err != nil {
		return err
	}
	if c.SwapsPerSegment > 0 {
		if _, err := c.Eligibility.Group(); err != nil {
			return err
		}
	}
	return nil
}
