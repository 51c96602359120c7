package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["run"], "run subcommand not registered")
	assert.True(t, names["summarize"], "summarize subcommand not registered")
}

func TestBuildRunConfig_FromFlags(t *testing.T) {
	configPath = ""
	seed = 7
	totalSteps = 500
	exchangeInterval = 50
	swapsPerSegment = 2
	temperatures = []float64{300, 400}
	eligibilityKind = "element-set"
	elements = []string{"Cu", "Ni"}
	structurePath = "slab.xyz"

	cfg := buildRunConfig()
	assert.Equal(t, int64(7), cfg.Seed)
	assert.Equal(t, int64(500), cfg.TotalSteps)
	assert.Equal(t, []float64{300, 400}, cfg.Temperatures)
	assert.Equal(t, "element-set", cfg.Eligibility.Kind)
	assert.Equal(t, []string{"Cu", "Ni"}, cfg.Eligibility.Elements)
	assert.NoError(t, cfg.Validate())
}

func TestBuildRunConfig_FileWithFlagOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
seed: 1
total_steps: 1000
exchange_interval: 100
temperatures: [300, 450, 600]
`), 0o644))

	configPath = path
	totalSteps = 250
	require.NoError(t, runCmd.Flags().Set("steps", "250"))
	defer func() {
		configPath = ""
		runCmd.Flags().Lookup("steps").Changed = false
	}()

	cfg := buildRunConfig()
	assert.Equal(t, int64(1), cfg.Seed, "file value should survive when flag untouched")
	assert.Equal(t, int64(250), cfg.TotalSteps, "explicit flag should override file value")
	assert.Equal(t, []float64{300, 450, 600}, cfg.Temperatures)
}
