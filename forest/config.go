package forest

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds forest parameters.
type Config struct {
	TreeCount      int     `yaml:"tree_count"`      // trees in the ensemble, default 100
	SampleSize     int     `yaml:"sample_size"`     // rows per tree, clamped to the dataset size at train time, default 256
	FeatureCount   int     `yaml:"feature_count"`   // dimensionality of rows and query points
	Workers        int     `yaml:"workers"`         // training goroutines, clamped to TreeCount, default 4
	Contamination  float64 `yaml:"contamination"`   // expected outlier ratio; carried with the model, not used in scoring
	Seed           int64   `yaml:"seed"`            // fixes every random draw, default 42
	LeafCorrection bool    `yaml:"leaf_correction"` // add c(size) for leaves holding more than one row
	MaxTreeNodes   int     `yaml:"max_tree_nodes"`  // per-tree node budget, 0 means unlimited
	ScoreWorkers   int     `yaml:"score_workers"`   // when >0, ScoreBatch runs on a resident worker pool
}

// DefaultConfig returns the default configuration. FeatureCount must still be set.
func DefaultConfig() *Config {
	return &Config{
		TreeCount:  100,
		SampleSize: 256,
		Workers:    4,
		Seed:       42,
	}
}

// OrDefault returns DefaultConfig if c is nil, otherwise c.
func (c *Config) OrDefault() *Config {
	if c == nil {
		return DefaultConfig()
	}
	return c
}

// Validate reports ErrInvalidConfig for non-positive counts or an out of range contamination.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: nil config", ErrInvalidConfig)
	}
	switch {
	case c.TreeCount <= 0:
		return fmt.Errorf("%w: tree_count must be positive, got %d", ErrInvalidConfig, c.TreeCount)
	case c.SampleSize <= 0:
		return fmt.Errorf("%w: sample_size must be positive, got %d", ErrInvalidConfig, c.SampleSize)
	case c.FeatureCount <= 0:
		return fmt.Errorf("%w: feature_count must be positive, got %d", ErrInvalidConfig, c.FeatureCount)
	case c.Workers <= 0:
		return fmt.Errorf("%w: workers must be positive, got %d", ErrInvalidConfig, c.Workers)
	case c.Contamination < 0 || c.Contamination > 0.5:
		return fmt.Errorf("%w: contamination must be in [0, 0.5], got %g", ErrInvalidConfig, c.Contamination)
	case c.MaxTreeNodes < 0:
		return fmt.Errorf("%w: max_tree_nodes must not be negative, got %d", ErrInvalidConfig, c.MaxTreeNodes)
	case c.ScoreWorkers < 0:
		return fmt.Errorf("%w: score_workers must not be negative, got %d", ErrInvalidConfig, c.ScoreWorkers)
	}
	return nil
}

// LoadConfig reads a YAML config file. Keys missing from the file keep their DefaultConfig values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
	}
	return cfg, nil
}
