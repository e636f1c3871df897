package gfdb

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is the store configuration file inside a store directory.
const ConfigFileName = "config.yaml"

// GFDirName is the directory inside a store where the response solver
// deposits its Green's function files and from which the convolution solver
// reads them. The two solvers communicate exclusively through this
// directory; none of the data in it flows through our own types.
const GFDirName = "psgrn_functions"

// PsGrnSettings are the tunables of the step-0 response solver.
type PsGrnSettings struct {
	// SamplingInterval controls distance sampling: 1.0 is equidistant,
	// larger values thin the sampling with distance.
	SamplingInterval float64 `yaml:"sampling_interval"`

	// Accuracy is the relative accuracy of the wavenumber integration,
	// typically 0.1 - 0.01.
	Accuracy float64 `yaml:"accuracy_wavenumber_integration"`

	// ObservationDepth is the uniform depth of the observation points [m].
	ObservationDepth float64 `yaml:"observation_depth"`

	// Continental selects the continental (true) or oceanic (false)
	// source regime switch.
	Continental bool `yaml:"continental"`

	// Gravity enables the influence of gravity on the deformation field.
	Gravity bool `yaml:"gravity"`

	// DepthSpacing and DistanceSpacing override the grid spacing of the
	// precomputed response [m]. Zero means: use the store grid spacing.
	DepthSpacing    float64 `yaml:"gf_depth_spacing,omitempty"`
	DistanceSpacing float64 `yaml:"gf_distance_spacing,omitempty"`
}

// PsCmpSettings are the tunables of the step-1 convolution solver.
type PsCmpSettings struct {
	// FaultSizeFactor scales the edge length of the elementary rectangular
	// sources relative to the horizontal grid spacing.
	FaultSizeFactor float64 `yaml:"rectangular_fault_size_factor"`
}

// Config is the persistent configuration of a store, written once by init
// and treated as immutable afterwards.
type Config struct {
	ID          string `yaml:"id"`
	Variant     string `yaml:"variant"`
	NComponents int    `yaml:"ncomponents"`

	Grid Grid `yaml:"grid"`

	// ModelFile is the layered-model file, relative to the store directory.
	ModelFile string `yaml:"model_file"`

	// Time window of the stored responses [days after origin].
	TMinDays float64 `yaml:"tmin_days"`
	TMaxDays float64 `yaml:"tmax_days"`

	PsGrn PsGrnSettings `yaml:"psgrn"`
	PsCmp PsCmpSettings `yaml:"pscmp"`
}

// Validate checks the configuration including the embedded grid.
func (c *Config) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("config: empty store id")
	}
	if c.NComponents <= 0 {
		return fmt.Errorf("config: ncomponents must be > 0, got %d", c.NComponents)
	}
	if c.ModelFile == "" {
		return fmt.Errorf("config: no model file")
	}
	if c.TMaxDays < c.TMinDays {
		return fmt.Errorf("config: tmax_days %g < tmin_days %g", c.TMaxDays, c.TMinDays)
	}
	if err := c.Grid.Validate(); err != nil {
		return err
	}
	return nil
}

// WriteConfig writes the configuration into the store directory.
func WriteConfig(storeDir string, c *Config) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(filepath.Join(storeDir, ConfigFileName), data, 0o644)
}

// ReadConfig loads and validates the configuration of a store directory.
func ReadConfig(storeDir string) (*Config, error) {
	data, err := os.ReadFile(filepath.Join(storeDir, ConfigFileName))
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// GFDir returns the solver-to-solver exchange directory of a store,
// relative to wherever storeDir points. The convolution solver reads this
// path from a scratch directory elsewhere on the filesystem, so builds
// must resolve storeDir to an absolute path first.
func GFDir(storeDir string) string {
	return filepath.Join(storeDir, GFDirName)
}
