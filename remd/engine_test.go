package remd

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSurrogateEngine_DeterministicGivenSeed(t *testing.T) {
	cfg := testConfig(t)
	e1 := NewSurrogateEngine(rand.New(rand.NewSource(9)))
	e2 := NewSurrogateEngine(rand.New(rand.NewSource(9)))

	c1, en1, err := e1.Advance(context.Background(), cfg, 500, 25)
	require.NoError(t, err)
	c2, en2, err := e2.Advance(context.Background(), cfg, 500, 25)
	require.NoError(t, err)

	assert.Equal(t, en1, en2)
	assert.Equal(t, c1.Positions, c2.Positions)
}

func TestSurrogateEngine_ZeroStepsIsPureEvaluation(t *testing.T) {
	cfg := testConfig(t)
	e := NewSurrogateEngine(rand.New(rand.NewSource(10)))

	next, energy, err := e.Advance(context.Background(), cfg, 300, 0)
	require.NoError(t, err)
	assert.Equal(t, cfg.Positions, next.Positions, "zero steps must not move atoms")
	assert.Equal(t, e.PotentialEnergy(cfg), energy)
}

func TestSurrogateEngine_DoesNotMutateInput(t *testing.T) {
	cfg := testConfig(t)
	posBefore := append([][3]float64(nil), cfg.Positions...)
	e := NewSurrogateEngine(rand.New(rand.NewSource(11)))

	_, _, err := e.Advance(context.Background(), cfg, 800, 10)
	require.NoError(t, err)
	assert.Equal(t, posBefore, cfg.Positions)
}

func TestSurrogateEngine_OverlappingAtomsFail(t *testing.T) {
	// Two atoms at the same position blow the pair potential up to +Inf,
	// which must surface as an error, never a silent non-finite energy.
	cfg, err := NewConfiguration(
		[]string{"Cu", "Ni"},
		[][3]float64{{1, 1, 1}, {1, 1, 1}},
		[3]float64{},
	)
	require.NoError(t, err)

	e := NewSurrogateEngine(rand.New(rand.NewSource(12)))
	_, _, err = e.Advance(context.Background(), cfg, 300, 0)
	assert.Error(t, err)
}

func TestSurrogateEngine_SpeciesArrangementMatters(t *testing.T) {
	// Swapping species between sites with different well depths must
	// change the energy; the acceptance machinery relies on that.
	cfg, err := NewConfiguration(
		[]string{"Cu", "Ni", "Cu"},
		[][3]float64{{0, 0, 0}, {2.5, 0, 0}, {10, 0, 0}},
		[3]float64{},
	)
	require.NoError(t, err)

	e := NewSurrogateEngine(rand.New(rand.NewSource(13)))
	e.WellDepth = map[string]float64{"Cu": 0.4, "Ni": 0.05}

	before := e.PotentialEnergy(cfg)
	swapped := cfg.Clone()
	require.NoError(t, swapped.SwapSpecies(1, 2))
	after := e.PotentialEnergy(swapped)

	assert.NotEqual(t, before, after)
}

func TestSurrogateEngine_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := NewSurrogateEngine(rand.New(rand.NewSource(14)))
	_, _, err := e.Advance(ctx, testConfig(t), 300, 5)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewEngineFunc_DefaultIsSurrogate(t *testing.T) {
	e := NewEngineFunc(0, rand.New(rand.NewSource(15)))
	_, ok := e.(*SurrogateEngine)
	assert.True(t, ok, "default engine factory should build a SurrogateEngine")
}
