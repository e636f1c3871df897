package builder

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seismech/gfbuild/internal/gfdb"
	"github.com/seismech/gfbuild/internal/model"
	"github.com/seismech/gfbuild/internal/solver"
	"github.com/seismech/gfbuild/internal/source"
	"github.com/seismech/gfbuild/internal/store"
)

// Stand-in solver scripts. The response stub only consumes its input;
// the convolution stub refuses to run unless the Green's function
// directory quoted in its input resolves from its working directory, then
// reads the observation point count from the second non-comment line and
// writes each referenced snapshot file with one fixed row per observation
// point, so every displacement channel yields a recognizable constant
// (un=1, ue=2, ud=3).
const psgrnStub = `#!/bin/sh
cat >/dev/null
echo "psgrn finished"
`

const pscmpStub = `#!/bin/sh
cat >/dev/null
gfdir=$(awk -F"'" '/function database/ {getline; print $2; exit}' input)
if [ ! -d "$gfdir" ]; then
  echo "error: cannot open green function directory $gfdir"
  exit 1
fi
nrec=$(awk '!/^#/{n++; if (n == 2) {print $1; exit}}' input)
for f in $(grep -o "snapshot_[0-9]*\.txt" input | sort -u); do
  {
    echo "lat lon un ue ud snn see sdd sne snd sed tn te rot gd gr"
    i=0
    while [ "$i" -lt "$nrec" ]; do
      echo "0.0 0.0 1.0 2.0 3.0 0 0 0 0 0 0 0 0 0 0 0"
      i=$((i + 1))
    done
  } > "$f"
done
`

func installStubSolvers(t *testing.T) {
	t.Helper()
	bin := t.TempDir()
	for name, body := range map[string]string{
		"fomosto_psgrn2008a": psgrnStub,
		"fomosto_pscmp2008a": pscmpStub,
	} {
		err := os.WriteFile(filepath.Join(bin, name), []byte(body), 0o755)
		require.NoError(t, err)
	}
	t.Setenv("PATH", bin+string(os.PathListSeparator)+os.Getenv("PATH"))
}

// initTestStore initializes a store with a deliberately small grid: one
// source depth, 11 distances, one snapshot day.
func initTestStore(t *testing.T) string {
	t.Helper()
	storeDir := filepath.Join(t.TempDir(), "teststore")
	require.NoError(t, InitStore(storeDir, "", false))

	cfg, err := gfdb.ReadConfig(storeDir)
	require.NoError(t, err)
	cfg.Grid = gfdb.Grid{
		ReceiverDepth:    0,
		SourceDepthMin:   1000,
		SourceDepthMax:   1000,
		SourceDepthDelta: 500,
		DistanceMin:      0,
		DistanceMax:      10000,
		DistanceDelta:    1000,
		SampleRate:       1.0 / day,
	}
	cfg.TMaxDays = 1
	require.NoError(t, gfdb.WriteConfig(storeDir, cfg))
	return storeDir
}

func buildStore(t *testing.T, storeDir string, opts Options) *Builder {
	t.Helper()
	b, err := New(storeDir)
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })
	opts.Scratch = t.TempDir()
	require.NoError(t, b.Run(context.Background(), opts))
	return b
}

func TestBuild_FullRun(t *testing.T) {
	installStubSolvers(t)
	storeDir := initTestStore(t)

	b := buildStore(t, storeDir, Options{})
	assert.Equal(t, StateDone, b.State())

	ctx := context.Background()
	st := b.Store()

	// 11 distances x 1 depth x 6 components.
	n, err := st.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 66, n)

	// Every grid node carries all six components.
	cfg, err := gfdb.ReadConfig(storeDir)
	require.NoError(t, err)
	for _, dist := range cfg.Grid.Distances() {
		for igf := 0; igf < 6; igf++ {
			_, ok, err := st.Get(ctx, store.Key{
				ReceiverDepth: 0, SourceDepth: 1000, Distance: dist, Component: igf,
			})
			require.NoError(t, err)
			assert.True(t, ok, "missing distance %v component %d", dist, igf)
		}
	}

	// Spot-check the stored sample values against the stub constants.
	lay := model.Default().At(1000)
	_, sf := source.IsoScaling(lay.Mu(), lay.Lambda())
	ai := 1.0 / (1000.0 * 1000.0) // 1/mtsize^2 with fault size factor 1

	tr, ok, err := st.Get(ctx, store.Key{SourceDepth: 1000, Distance: 3000, Component: 0})
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, tr.Data, 2, "zero sample plus one snapshot")
	assert.Equal(t, 0.0, tr.Data[0])
	assert.InEpsilon(t, ai*sf*1.0, tr.Data[1], 1e-6,
		"isotropic component scaled by the explosion factor")
	assert.Equal(t, 86400.0, tr.DeltaT)

	mui := 1.0 / lay.Mu()
	tr, ok, err = st.Get(ctx, store.Key{SourceDepth: 1000, Distance: 3000, Component: 3})
	require.NoError(t, err)
	require.True(t, ok)
	assert.InEpsilon(t, ai*mui*2.0, tr.Data[1], 1e-6,
		"deviatoric component scaled by 1/mu, fed from the ue channel")

	// Both blocks marked done.
	done, err := st.BlockDone(ctx, gfdb.StepResponse, 0)
	require.NoError(t, err)
	assert.True(t, done)
	done, err = st.BlockDone(ctx, gfdb.StepConvolution, 0)
	require.NoError(t, err)
	assert.True(t, done)

	// The response solver ran inside the store's exchange directory.
	_, err = os.Stat(filepath.Join(gfdb.GFDir(storeDir), solver.InputFileName))
	assert.NoError(t, err)
}

func TestBuild_ResumeMatchesFreshBuild(t *testing.T) {
	installStubSolvers(t)
	ctx := context.Background()

	// Reference: one uninterrupted build.
	refDir := initTestStore(t)
	ref := buildStore(t, refDir, Options{BlockSize: 4})

	// Resumed: block 0 of 3 first, then --continue for the rest.
	resDir := initTestStore(t)
	block0 := 0
	buildStore(t, resDir, Options{BlockSize: 4, Block: &block0})
	res := buildStore(t, resDir, Options{BlockSize: 4, Continue: true})

	refKeys, err := ref.Store().Keys(ctx)
	require.NoError(t, err)
	resKeys, err := res.Store().Keys(ctx)
	require.NoError(t, err)
	require.Equal(t, refKeys, resKeys)
	assert.Len(t, refKeys, 66)

	for _, key := range refKeys {
		want, ok, err := ref.Store().Get(ctx, key)
		require.NoError(t, err)
		require.True(t, ok)
		got, ok, err := res.Store().Get(ctx, key)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, want, got, "key %+v", key)
	}
}

func TestBuild_RelativeStoreDir(t *testing.T) {
	installStubSolvers(t)
	storeDir := initTestStore(t)

	// Build through a relative path; the convolution solver runs in a
	// scratch directory elsewhere and must still resolve the embedded
	// exchange directory.
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(filepath.Dir(storeDir)))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	b := buildStore(t, filepath.Base(storeDir), Options{})
	assert.Equal(t, StateDone, b.State())

	n, err := b.Store().Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 66, n)
}

func TestBuild_RefusesSilentResume(t *testing.T) {
	installStubSolvers(t)
	storeDir := initTestStore(t)
	buildStore(t, storeDir, Options{})

	b, err := New(storeDir)
	require.NoError(t, err)
	defer b.Close()

	err = b.Run(context.Background(), Options{Scratch: t.TempDir()})
	require.ErrorContains(t, err, "previous build progress")
}

func TestBuild_ForceRestarts(t *testing.T) {
	installStubSolvers(t)
	storeDir := initTestStore(t)
	buildStore(t, storeDir, Options{})

	b := buildStore(t, storeDir, Options{Force: true})
	n, err := b.Store().Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 66, n, "re-inserts are idempotent")
}

func TestBuild_ContinueSkipsCompletedBuild(t *testing.T) {
	installStubSolvers(t)
	storeDir := initTestStore(t)
	buildStore(t, storeDir, Options{})

	// A second continued run has nothing to do and must not fail on the
	// already-present response solver input.
	b := buildStore(t, storeDir, Options{Continue: true})
	assert.Equal(t, StateDone, b.State())
}

func TestBuild_Workers(t *testing.T) {
	installStubSolvers(t)
	storeDir := initTestStore(t)

	b := buildStore(t, storeDir, Options{BlockSize: 2, NWorkers: 4})
	n, err := b.Store().Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 66, n)
}

func TestBuild_SingleStep(t *testing.T) {
	installStubSolvers(t)
	storeDir := initTestStore(t)
	ctx := context.Background()

	step0 := gfdb.StepResponse
	b := buildStore(t, storeDir, Options{Step: &step0})

	n, err := b.Store().Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "step 0 writes no traces")

	done, err := b.Store().BlockDone(ctx, gfdb.StepResponse, 0)
	require.NoError(t, err)
	assert.True(t, done)

	step1 := gfdb.StepConvolution
	b2 := buildStore(t, storeDir, Options{Step: &step1, Continue: true})
	n, err = b2.Store().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 66, n)
}

func TestBuild_MissingBackend(t *testing.T) {
	// An empty PATH: the solver programs cannot be resolved.
	storeDir := initTestStore(t)
	t.Setenv("PATH", t.TempDir())

	b, err := New(storeDir)
	require.NoError(t, err)
	defer b.Close()

	err = b.Run(context.Background(), Options{Scratch: t.TempDir()})
	require.Error(t, err)

	var cfgErr *solver.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, StateAborted, b.State())
}

func TestBuild_InvalidBlock(t *testing.T) {
	installStubSolvers(t)
	storeDir := initTestStore(t)

	b, err := New(storeDir)
	require.NoError(t, err)
	defer b.Close()

	step1 := gfdb.StepConvolution
	bogus := 99
	err = b.Run(context.Background(), Options{
		Step: &step1, Block: &bogus, BlockSize: 4, Scratch: t.TempDir(),
	})
	require.Error(t, err)
}

func TestInitStore(t *testing.T) {
	storeDir := filepath.Join(t.TempDir(), "fresh")
	require.NoError(t, InitStore(storeDir, "", false))

	for _, name := range []string{
		gfdb.ConfigFileName, defaultModelFile, store.IndexFileName,
	} {
		_, err := os.Stat(filepath.Join(storeDir, name))
		assert.NoError(t, err, name)
	}
	info, err := os.Stat(gfdb.GFDir(storeDir))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	cfg, err := gfdb.ReadConfig(storeDir)
	require.NoError(t, err)
	assert.Equal(t, "fresh", cfg.ID)
	assert.Equal(t, "2008a", cfg.Variant)
	assert.Equal(t, 6, cfg.NComponents)
	assert.NoError(t, cfg.Validate())

	require.ErrorContains(t, InitStore(storeDir, "", false), "already exists")
	require.NoError(t, InitStore(storeDir, "", true))

	require.ErrorContains(t, InitStore(filepath.Join(t.TempDir(), "x"), "1999z", false),
		"unsupported solver variant")
}

func TestNew_Errors(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "nonexistent"))
	require.Error(t, err)
}
