package remd

import (
	"fmt"
	"math/rand"
)

// GroupKind selects the eligibility policy for swap proposals.
type GroupKind string

const (
	// GroupAnyPair allows any two sites to swap.
	GroupAnyPair GroupKind = "any-pair"
	// GroupCutoffRadius allows swaps only between sites within a cutoff
	// distance of each other.
	GroupCutoffRadius GroupKind = "cutoff-radius"
	// GroupElementSet allows swaps only between sites whose species
	// belong to a configured element set.
	GroupElementSet GroupKind = "element-set"
)

// ValidGroupKinds is the set of recognized eligibility policies.
// Shared by Validate() and the CLI flag parser to avoid duplication.
var ValidGroupKinds = map[GroupKind]bool{
	GroupAnyPair:      true,
	GroupCutoffRadius: true,
	GroupElementSet:   true,
}

// EligibilityGroup is the policy for selecting which sites participate
// in swaps. Configured once at setup, read-only during a run.
type EligibilityGroup struct {
	Kind GroupKind

	// Cutoff is the maximum pair distance, required for GroupCutoffRadius.
	Cutoff float64

	// Elements is the allowed species set, required for GroupElementSet.
	Elements []string
}

// Validate checks that the group carries the inputs its kind requires.
func (g EligibilityGroup) Validate() error {
	if !ValidGroupKinds[g.Kind] {
		return &ConfigurationError{Field: "eligibility.kind", Reason: fmt.Sprintf("unknown kind %q", g.Kind)}
	}
	if g.Kind == GroupCutoffRadius && g.Cutoff <= 0 {
		return &ConfigurationError{Field: "eligibility.cutoff", Reason: "cutoff radius must be > 0"}
	}
	if g.Kind == GroupElementSet && len(g.Elements) == 0 {
		return &ConfigurationError{Field: "eligibility.elements", Reason: "element set must not be empty"}
	}
	return nil
}

// allows reports whether the site's species passes the element filter.
func (g EligibilityGroup) allows(species string) bool {
	if g.Kind != GroupElementSet {
		return true
	}
	for _, e := range g.Elements {
		if e == species {
			return true
		}
	}
	return false
}

// SwapCandidatePair is a proposed pair of sites to swap. Ephemeral:
// created per proposal, discarded after the acceptance test.
type SwapCandidatePair struct {
	I, J int
}

// AtomSwapProposer selects candidate swap pairs from an eligibility
// group. It never mutates the configuration it inspects.
type AtomSwapProposer struct {
	group EligibilityGroup
}

// NewAtomSwapProposer validates the group and returns a proposer.
func NewAtomSwapProposer(group EligibilityGroup) (*AtomSwapProposer, error) {
	if err := group.Validate(); err != nil {
		return nil, err
	}
	return &AtomSwapProposer{group: group}, nil
}

// Group returns the configured eligibility group.
func (p *AtomSwapProposer) Group() EligibilityGroup {
	return p.group
}

// EligibleSites returns the indices of sites passing the element filter.
// For the cutoff policy every site is individually eligible; the pair
// constraint is applied in Propose.
func (p *AtomSwapProposer) EligibleSites(cfg *Configuration) []int {
	sites := make([]int, 0, cfg.Len())
	for i, s := range cfg.Species {
		if p.group.allows(s) {
			sites = append(sites, i)
		}
	}
	return sites
}

// Propose selects a candidate pair of distinct sites satisfying the
// eligibility policy, drawing from the supplied random source.
//
// A pair of sites holding the same species is an identity move, so when
// the eligible pool spans more than one species the second site is drawn
// only from sites whose species differs from the first. Returns
// ErrInsufficientCandidates when no valid pair exists.
func (p *AtomSwapProposer) Propose(cfg *Configuration, rng *rand.Rand) (SwapCandidatePair, error) {
	sites := p.EligibleSites(cfg)
	if len(sites) < 2 {
		return SwapCandidatePair{}, fmt.Errorf("eligibility %q matched %d site(s): %w",
			p.group.Kind, len(sites), ErrInsufficientCandidates)
	}

	if p.group.Kind == GroupCutoffRadius {
		return p.proposeWithinCutoff(cfg, sites, rng)
	}

	// Draw the first site uniformly, then the partner uniformly from the
	// sites it can meaningfully swap with.
	first := sites[rng.Intn(len(sites))]
	partners := make([]int, 0, len(sites)-1)
	mixed := false
	for _, j := range sites {
		if j == first {
			continue
		}
		if cfg.Species[j] != cfg.Species[first] {
			mixed = true
		}
		partners = append(partners, j)
	}
	if mixed {
		distinct := partners[:0]
		for _, j := range partners {
			if cfg.Species[j] != cfg.Species[first] {
				distinct = append(distinct, j)
			}
		}
		partners = distinct
	}
	return SwapCandidatePair{I: first, J: partners[rng.Intn(len(partners))]}, nil
}

// proposeWithinCutoff enumerates eligible pairs within the cutoff radius
// and samples one uniformly, preferring pairs of differing species.
func (p *AtomSwapProposer) proposeWithinCutoff(cfg *Configuration, sites []int, rng *rand.Rand) (SwapCandidatePair, error) {
	var all, mixed []SwapCandidatePair
	for a := 0; a < len(sites); a++ {
		for b := a + 1; b < len(sites); b++ {
			i, j := sites[a], sites[b]
			if cfg.Distance(i, j) > p.group.Cutoff {
				continue
			}
			pair := SwapCandidatePair{I: i, J: j}
			all = append(all, pair)
			if cfg.Species[i] != cfg.Species[j] {
				mixed = append(mixed, pair)
			}
		}
	}
	if len(all) == 0 {
		return SwapCandidatePair{}, fmt.Errorf("no site pair within cutoff %g: %w",
			p.group.Cutoff, ErrInsufficientCandidates)
	}
	if len(mixed) > 0 {
		return mixed[rng.Intn(len(mixed))], nil
	}
	return all[rng.Intn(len(all))], nil
}
