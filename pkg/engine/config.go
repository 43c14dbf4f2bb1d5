package engine

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/spatx/nhood/pkg/core"
)

// Config is the file-backed form of Options, for callers that drive the
// engine from a YAML file instead of code.
type Config struct {
	// Topology Settings
	Topology string  `yaml:"topology"` // "knn", "radius" or "delaunay"
	K        int     `yaml:"k"`        // knn only
	Radius   float64 `yaml:"radius"`   // radius only

	// Permutation Settings
	Trials      int    `yaml:"trials"`
	Seed        *int64 `yaml:"seed"`    // omit for nondeterministic runs
	Workers     int    `yaml:"workers"` // 0 = available parallelism
	KeepSamples bool   `yaml:"keep_samples"`
}

// DefaultConfig mirrors DefaultOptions.
func DefaultConfig() Config {
	return Config{
		Topology: "knn",
		K:        6,
		Trials:   1000,
	}
}

// LoadConfig reads the YAML configuration file using strict parsing.
// An empty path returns the defaults unchanged.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig() // Start with defaults

	if path == "" {
		return cfg, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)

	if err := decoder.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("YAML syntax error in config: %w", err)
	}

	return cfg, nil
}

// Options translates the file form into runtime Options. Unknown topology
// names are rejected here so file errors surface before any computation.
func (c Config) Options() (Options, error) {
	opts := Options{
		Trials:      c.Trials,
		Seed:        c.Seed,
		Workers:     c.Workers,
		KeepSamples: c.KeepSamples,
	}
	switch c.Topology {
	case "knn":
		opts.Topology = core.KNN(c.K)
	case "radius":
		opts.Topology = core.Radius(c.Radius)
	case "delaunay":
		opts.Topology = core.Delaunay()
	default:
		return Options{}, fmt.Errorf("unknown topology %q (want knn, radius or delaunay)", c.Topology)
	}
	return opts, nil
}
