package remd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateLadder(t *testing.T) {
	tests := []struct {
		name    string
		temps   []float64
		wantErr bool
	}{
		{"increasing", []float64{300, 400, 500}, false},
		{"two rungs", []float64{300, 301}, false},
		{"single rung", []float64{300}, true},
		{"empty", nil, true},
		{"duplicate", []float64{300, 400, 400, 500}, true},
		{"decreasing", []float64{500, 400}, true},
		{"zero temperature", []float64{0, 300}, true},
		{"negative temperature", []float64{-100, 300}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLadder(tt.temps)
			if tt.wantErr {
				var cfgErr *ConfigurationError
				assert.ErrorAs(t, err, &cfgErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewReplicas_CloneSingleInitial(t *testing.T) {
	cfg := testConfig(t)
	replicas, err := NewReplicas([]float64{300, 400, 500}, []*Configuration{cfg})
	require.NoError(t, err)
	require.Len(t, replicas, 3)

	for i, r := range replicas {
		assert.Equal(t, i, r.Rank)
		assert.Equal(t, cfg.Composition(), r.Config.Composition())
	}

	// Clones must be independent.
	require.NoError(t, replicas[0].Config.SwapSpecies(0, 1))
	assert.NotEqual(t, replicas[0].Config.Species, replicas[1].Config.Species)
}

func TestNewReplicas_OnePerTemperature(t *testing.T) {
	a, b := testConfig(t), testConfig(t)
	replicas, err := NewReplicas([]float64{300, 400}, []*Configuration{a, b})
	require.NoError(t, err)
	assert.Same(t, a, replicas[0].Config)
	assert.Same(t, b, replicas[1].Config)
}

func TestNewReplicas_CountMismatch(t *testing.T) {
	a, b := testConfig(t), testConfig(t)
	_, err := NewReplicas([]float64{300, 400, 500}, []*Configuration{a, b})
	var cfgErr *ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestNewReplicas_DegenerateLadder(t *testing.T) {
	_, err := NewReplicas([]float64{400, 400}, []*Configuration{testConfig(t)})
	var cfgErr *ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}
