package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Render is the YAML-backed render configuration consumed by the CLI
type Render struct {
	WidthPx         int     `yaml:"width"`
	HeightPx        int     `yaml:"height"`
	SamplesPerPixel int     `yaml:"spp"`
	NumWorkers      int     `yaml:"workers"`
	Estimator       string  `yaml:"estimator"` // bvpt, bneept, bvptdl
	Scheduler       string  `yaml:"scheduler"` // spiral-grid, tile, dammertz
	TileSize        int     `yaml:"tile-size"`
	Filter          string  `yaml:"filter"` // box, gaussian, blackman-harris
	Seed            int64   `yaml:"seed"`
	MaxBounces      int     `yaml:"max-bounces"`
	RRMinBounces    int     `yaml:"rr-min-bounces"`
	Scene           string  `yaml:"scene"`
	Output          string  `yaml:"output"`
	Precision       float64 `yaml:"precision"`
}

// Default returns the configuration used when no file is given
func Default() Render {
	return Render{
		WidthPx:         640,
		HeightPx:        480,
		SamplesPerPixel: 64,
		Estimator:       "bneept",
		Scheduler:       "spiral-grid",
		TileSize:        32,
		Filter:          "gaussian",
		Seed:            42,
		MaxBounces:      16,
		RRMinBounces:    3,
		Scene:           "cornell",
		Output:          "render.png",
		Precision:       1.0,
	}
}

// Load reads a YAML render configuration, with defaults filled for absent
// fields
func Load(path string) (Render, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "config read %q", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "config parse %q", path)
	}
	return cfg, nil
}
