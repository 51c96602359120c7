package remd

import (
	"fmt"
	"math"
)

// Configuration holds the full atomic state of one replica: species
// labels and Cartesian positions, plus an optional orthorhombic periodic
// cell. A zero-valued Cell means non-periodic.
//
// Swap moves exchange species labels between two sites and therefore
// conserve the total per-species composition.
type Configuration struct {
	Species   []string
	Positions [][3]float64
	Cell      [3]float64
}

// NewConfiguration builds a Configuration after checking that species
// and positions agree in length.
func NewConfiguration(species []string, positions [][3]float64, cell [3]float64) (*Configuration, error) {
	if len(species) != len(positions) {
		return nil, &ConfigurationError{
			Field:  "structure",
			Reason: fmt.Sprintf("%d species labels for %d positions", len(species), len(positions)),
		}
	}
	return &Configuration{Species: species, Positions: positions, Cell: cell}, nil
}

// Len returns the number of atoms.
func (c *Configuration) Len() int {
	return len(c.Species)
}

// Periodic reports whether the configuration carries a periodic cell.
func (c *Configuration) Periodic() bool {
	return c.Cell[0] > 0 && c.Cell[1] > 0 && c.Cell[2] > 0
}

// Composition returns the count of atoms per species label.
func (c *Configuration) Composition() map[string]int {
	counts := make(map[string]int, 8)
	for _, s := range c.Species {
		counts[s]++
	}
	return counts
}

// SwapSpecies exchanges the species labels at sites i and j. Positions
// are untouched, so composition is conserved. This is the explicit
// mutation step applied only after a proposal has been accepted.
func (c *Configuration) SwapSpecies(i, j int) error {
	n := c.Len()
	if i < 0 || i >= n || j < 0 || j >= n {
		return fmt.Errorf("swap sites (%d, %d) out of range [0, %d)", i, j, n)
	}
	c.Species[i], c.Species[j] = c.Species[j], c.Species[i]
	return nil
}

// Clone returns a deep copy.
func (c *Configuration) Clone() *Configuration {
	species := make([]string, len(c.Species))
	copy(species, c.Species)
	positions := make([][3]float64, len(c.Positions))
	copy(positions, c.Positions)
	return &Configuration{Species: species, Positions: positions, Cell: c.Cell}
}

// Distance returns the distance between sites i and j, applying the
// minimum-image convention when the configuration is periodic.
func (c *Configuration) Distance(i, j int) float64 {
	var sum float64
	for d := 0; d < 3; d++ {
		delta := c.Positions[i][d] - c.Positions[j][d]
		if c.Periodic() {
			delta -= c.Cell[d] * math.Round(delta/c.Cell[d])
		}
		sum += delta * delta
	}
	return math.Sqrt(sum)
}
