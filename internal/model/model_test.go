package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoLayerModel(t *testing.T) *ElasticModel {
	t.Helper()
	m, err := New([]Layer{
		{Depth: 0, VP: 5800, VS: 3200, Rho: 2600, Alpha: 1},
		{Depth: 17000, VP: 6500, VS: 3650, Rho: 2870,
			EtaKelvin: 5e17, EtaMaxwell: 1e19, Alpha: 1},
	})
	require.NoError(t, err)
	return m
}

func TestLayerModuli(t *testing.T) {
	l := Layer{VP: 5800, VS: 3200, Rho: 2600}

	assert.InDelta(t, 2600*3200*3200, l.Mu(), 1e-3)
	assert.InDelta(t, 2600*5800*5800-2*2600*3200*3200, l.Lambda(), 1e-3)
}

func TestNew_Invalid(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)

	_, err = New([]Layer{
		{Depth: 1000, VP: 5800, VS: 3200, Rho: 2600},
		{Depth: 0, VP: 5800, VS: 3200, Rho: 2600},
	})
	require.Error(t, err, "decreasing depth must be rejected")

	_, err = New([]Layer{{Depth: 0, VP: 0, VS: 0, Rho: 2600}})
	require.Error(t, err)
}

func TestNew_RepeatedDepthAllowed(t *testing.T) {
	// Discontinuities are expressed as two rows at the same depth.
	_, err := New([]Layer{
		{Depth: 0, VP: 5800, VS: 3200, Rho: 2600},
		{Depth: 17000, VP: 5800, VS: 3200, Rho: 2600},
		{Depth: 17000, VP: 6500, VS: 3650, Rho: 2870},
	})
	require.NoError(t, err)
}

func TestAt(t *testing.T) {
	m := twoLayerModel(t)

	assert.Equal(t, 5800.0, m.At(0).VP)
	assert.Equal(t, 5800.0, m.At(10000).VP)
	assert.Equal(t, 6500.0, m.At(17000).VP)
	assert.Equal(t, 6500.0, m.At(50000).VP)
	assert.Equal(t, 5800.0, m.At(-5).VP, "queries above the stack use the first row")
}

func TestModuliTable(t *testing.T) {
	m := twoLayerModel(t)

	table := m.ModuliTable([]float64{0, 10000, 20000})
	require.Len(t, table, 3)
	assert.Equal(t, m.At(0).Mu(), table[0].Mu)
	assert.Equal(t, m.At(10000).Lambda(), table[1].Lambda)
	assert.Equal(t, m.At(20000).Mu(), table[2].Mu)
	assert.NotEqual(t, table[0].Mu, table[2].Mu)
}

func TestLoadSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "earthmodel.txt")
	want := Default()

	require.NoError(t, Save(path, want))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want.Layers(), got.Layers())
}

func TestLoad_ElasticShortForm(t *testing.T) {
	path := filepath.Join(t.TempDir(), "earthmodel.txt")
	content := "# comment line\n" +
		"0 5800 3200 2600\n" +
		"\n" +
		"17000 6500 3650 2870\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	m, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 2, m.NLayers())
	// Elastic short form defaults to infinite viscosities, alpha 1.
	l := m.Layers()[1]
	assert.Equal(t, 0.0, l.EtaKelvin)
	assert.Equal(t, 0.0, l.EtaMaxwell)
	assert.Equal(t, 1.0, l.Alpha)
}

func TestLoad_BadColumnCount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "earthmodel.txt")
	require.NoError(t, os.WriteFile(path, []byte("0 5800 3200\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}
