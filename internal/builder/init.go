package builder

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/seismech/gfbuild/internal/gfdb"
	"github.com/seismech/gfbuild/internal/model"
	"github.com/seismech/gfbuild/internal/solver"
	"github.com/seismech/gfbuild/internal/store"
)

const defaultModelFile = "earthmodel.txt"

// DefaultConfig returns the configuration a fresh store is initialized
// with: a shallow crustal source grid sampled daily over one year of
// postseismic relaxation.
func DefaultConfig(storeID, variant string) *gfdb.Config {
	return &gfdb.Config{
		ID:          storeID,
		Variant:     variant,
		NComponents: len(gfMapping),
		Grid: gfdb.Grid{
			ReceiverDepth:    0,
			SourceDepthMin:   0,
			SourceDepthMax:   15000,
			SourceDepthDelta: 500,
			DistanceMin:      0,
			DistanceMax:      50000,
			DistanceDelta:    1000,
			SampleRate:       1.0 / day,
		},
		ModelFile: defaultModelFile,
		TMinDays:  0,
		TMaxDays:  365,
		PsGrn: gfdb.PsGrnSettings{
			SamplingInterval: 1.0,
			Accuracy:         0.025,
			Continental:      true,
		},
		PsCmp: gfdb.PsCmpSettings{
			FaultSizeFactor: 1.0,
		},
	}
}

// InitStore creates a new store directory: configuration, a default
// layered model and an empty index. force overwrites an existing store.
func InitStore(storeDir, variant string, force bool) error {
	if variant == "" {
		variant = solver.Variants[0]
	}
	if err := solver.CheckVariant(variant); err != nil {
		return err
	}

	cfgPath := filepath.Join(storeDir, gfdb.ConfigFileName)
	if _, err := os.Stat(cfgPath); err == nil && !force {
		return fmt.Errorf("store already exists: %s", storeDir)
	}

	if err := os.MkdirAll(gfdb.GFDir(storeDir), 0o755); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}

	cfg := DefaultConfig(filepath.Base(storeDir), variant)
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := gfdb.WriteConfig(storeDir, cfg); err != nil {
		return err
	}
	if err := model.Save(filepath.Join(storeDir, cfg.ModelFile), model.Default()); err != nil {
		return err
	}

	st, err := store.Create(storeDir, force)
	if err != nil {
		return err
	}
	return st.Close()
}
