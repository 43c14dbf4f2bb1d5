package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spatx/nhood/pkg/core"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nhood.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Topology != "knn" || cfg.K != 6 || cfg.Trials != 1000 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Seed != nil {
		t.Fatal("default must be nondeterministic (nil seed)")
	}
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
topology: radius
radius: 30.5
trials: 250
seed: 42
workers: 4
keep_samples: true
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Topology != "radius" || cfg.Radius != 30.5 || cfg.Trials != 250 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.Seed == nil || *cfg.Seed != 42 {
		t.Fatalf("seed not loaded: %+v", cfg.Seed)
	}
	if !cfg.KeepSamples {
		t.Fatal("keep_samples not loaded")
	}

	opts, err := cfg.Options()
	if err != nil {
		t.Fatal(err)
	}
	if opts.Topology.Kind != core.TopologyRadius || opts.Topology.R != 30.5 {
		t.Fatalf("unexpected topology: %+v", opts.Topology)
	}
}

func TestLoadConfigRejectsUnknownFields(t *testing.T) {
	path := writeConfig(t, "topology: knn\nbogus_field: 1\n")
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("strict decoding must reject unknown fields")
	}
}

func TestConfigOptionsRejectsUnknownTopology(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Topology = "voronoi"
	if _, err := cfg.Options(); err == nil {
		t.Fatal("unknown topology name must fail")
	}
}
