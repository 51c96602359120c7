package remd

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *Configuration {
	t.Helper()
	cfg, err := NewConfiguration(
		[]string{"Cu", "Ni", "Cu", "Fe"},
		[][3]float64{{0, 0, 0}, {2.5, 0, 0}, {0, 2.5, 0}, {2.5, 2.5, 0}},
		[3]float64{},
	)
	require.NoError(t, err)
	return cfg
}

func TestNewConfiguration_LengthMismatch(t *testing.T) {
	_, err := NewConfiguration([]string{"Cu"}, [][3]float64{{0, 0, 0}, {1, 1, 1}}, [3]float64{})
	var cfgErr *ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestConfiguration_Composition(t *testing.T) {
	cfg := testConfig(t)
	assert.Equal(t, map[string]int{"Cu": 2, "Ni": 1, "Fe": 1}, cfg.Composition())
}

func TestConfiguration_SwapSpeciesConservesComposition(t *testing.T) {
	cfg := testConfig(t)
	before := cfg.Composition()

	require.NoError(t, cfg.SwapSpecies(0, 1))
	assert.Equal(t, "Ni", cfg.Species[0])
	assert.Equal(t, "Cu", cfg.Species[1])
	assert.Equal(t, before, cfg.Composition())

	// Many arbitrary swaps still conserve composition.
	for _, pair := range [][2]int{{0, 3}, {1, 2}, {2, 3}, {0, 1}, {1, 3}} {
		require.NoError(t, cfg.SwapSpecies(pair[0], pair[1]))
		assert.Equal(t, before, cfg.Composition())
	}
}

func TestConfiguration_SwapSpeciesOutOfRange(t *testing.T) {
	cfg := testConfig(t)
	assert.Error(t, cfg.SwapSpecies(-1, 0))
	assert.Error(t, cfg.SwapSpecies(0, 4))
}

func TestConfiguration_CloneIsDeep(t *testing.T) {
	cfg := testConfig(t)
	clone := cfg.Clone()

	require.NoError(t, clone.SwapSpecies(0, 1))
	clone.Positions[0][0] = 99

	assert.Equal(t, "Cu", cfg.Species[0], "clone mutation leaked into original species")
	assert.Equal(t, 0.0, cfg.Positions[0][0], "clone mutation leaked into original positions")
}

func TestConfiguration_DistanceMinimumImage(t *testing.T) {
	cfg, err := NewConfiguration(
		[]string{"Cu", "Ni"},
		[][3]float64{{0.5, 0, 0}, {9.5, 0, 0}},
		[3]float64{10, 10, 10},
	)
	require.NoError(t, err)

	// Across the periodic boundary the images are 1.0 apart, not 9.0.
	assert.InDelta(t, 1.0, cfg.Distance(0, 1), 1e-12)
}

func TestConfiguration_DistanceNonPeriodic(t *testing.T) {
	cfg := testConfig(t)
	assert.InDelta(t, 2.5, cfg.Distance(0, 1), 1e-12)
	assert.InDelta(t, 2.5*math.Sqrt2, cfg.Distance(0, 3), 1e-12)
}
