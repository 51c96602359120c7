package xyz

import (
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remd-sim/remd-sim/remd"
)

const sampleFrame = `4
IrFeCoNiCu slab
Ir 0.0 0.0 0.0
Fe 2.5 0.0 0.0
Co 0.0 2.5 0.0
Cu 2.5 2.5 0.0
`

func TestReadAll_SingleFrame(t *testing.T) {
	frames, err := ReadAll(strings.NewReader(sampleFrame))
	require.NoError(t, err)
	require.Len(t, frames, 1)

	cfg := frames[0]
	assert.Equal(t, 4, cfg.Len())
	assert.Equal(t, []string{"Ir", "Fe", "Co", "Cu"}, cfg.Species)
	assert.Equal(t, [3]float64{2.5, 2.5, 0}, cfg.Positions[3])
	assert.False(t, cfg.Periodic())
}

func TestReadAll_MultiFrame(t *testing.T) {
	frames, err := ReadAll(strings.NewReader(sampleFrame + sampleFrame))
	require.NoError(t, err)
	assert.Len(t, frames, 2)
}

func TestReadAll_Lattice(t *testing.T) {
	data := strings.Replace(sampleFrame, "IrFeCoNiCu slab", `Lattice="10 10 12.5" step=0`, 1)
	frames, err := ReadAll(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, frames, 1)
	assert.True(t, frames[0].Periodic())
	assert.Equal(t, [3]float64{10, 10, 12.5}, frames[0].Cell)
}

func TestReadAll_Malformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"bad count", "four\ncomment\n"},
		{"zero count", "0\ncomment\n"},
		{"truncated", "3\ncomment\nIr 0 0 0\n"},
		{"missing coordinate", "1\ncomment\nIr 0 0\n"},
		{"bad coordinate", "1\ncomment\nIr 0 0 z\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadAll(strings.NewReader(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestWrite_RoundTrip(t *testing.T) {
	cfg, err := remd.NewConfiguration(
		[]string{"Cu", "Ni"},
		[][3]float64{{0.5, 1.25, -3}, {2.5, 0, 0}},
		[3]float64{10, 10, 10},
	)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, cfg, "step=42"))

	frames, err := ReadAll(&buf)
	require.NoError(t, err)
	require.Len(t, frames, 1)
	assert.Equal(t, cfg.Species, frames[0].Species)
	assert.Equal(t, cfg.Positions, frames[0].Positions)
	assert.Equal(t, cfg.Cell, frames[0].Cell)
}

func TestRead_Gzip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "slab.xyz.gz")

	f, err := os.Create(path)
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	_, err = gz.Write([]byte(sampleFrame))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	frames, err := Read(path)
	require.NoError(t, err)
	require.Len(t, frames, 1)
	assert.Equal(t, 4, frames[0].Len())
}

func TestReadOne(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "slab.xyz")
	require.NoError(t, os.WriteFile(path, []byte(sampleFrame+sampleFrame), 0o644))

	cfg, err := ReadOne(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Len())
}

func TestReadOne_Empty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.xyz")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	_, err := ReadOne(path)
	assert.Error(t, err)
}
