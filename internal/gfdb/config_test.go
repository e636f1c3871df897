package gfdb

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *Config {
	return &Config{
		ID:          "crust_visco",
		Variant:     "2008a",
		NComponents: 6,
		Grid:        testGrid(),
		ModelFile:   "earthmodel.txt",
		TMinDays:    0,
		TMaxDays:    365,
		PsGrn: PsGrnSettings{
			SamplingInterval: 1.0,
			Accuracy:         0.025,
			Continental:      true,
		},
		PsCmp: PsCmpSettings{FaultSizeFactor: 1.0},
	}
}

func TestConfigRoundTrip(t *testing.T) {
	dir := t.TempDir()
	want := testConfig()

	require.NoError(t, WriteConfig(dir, want))

	got, err := ReadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestConfigValidate(t *testing.T) {
	c := testConfig()
	require.NoError(t, c.Validate())

	c = testConfig()
	c.ID = ""
	require.Error(t, c.Validate())

	c = testConfig()
	c.TMaxDays = -1
	require.Error(t, c.Validate())

	c = testConfig()
	c.Grid.DistanceDelta = 0
	require.Error(t, c.Validate())
}

func TestReadConfig_Missing(t *testing.T) {
	_, err := ReadConfig(t.TempDir())
	require.Error(t, err)
}

func TestGFDir(t *testing.T) {
	assert.Equal(t,
		filepath.Join("store", GFDirName),
		GFDir("store"))
}
