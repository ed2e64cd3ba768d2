package forest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config { return testConfig(2) }
	require.NoError(t, valid().Validate())

	for name, mutate := range map[string]func(*Config){
		"zero trees":          func(c *Config) { c.TreeCount = 0 },
		"negative sample":     func(c *Config) { c.SampleSize = -1 },
		"zero features":       func(c *Config) { c.FeatureCount = 0 },
		"zero workers":        func(c *Config) { c.Workers = 0 },
		"contamination > 0.5": func(c *Config) { c.Contamination = 0.6 },
		"negative budget":     func(c *Config) { c.MaxTreeNodes = -1 },
		"negative scorers":    func(c *Config) { c.ScoreWorkers = -2 },
	} {
		c := valid()
		mutate(c)
		assert.ErrorIs(t, c.Validate(), ErrInvalidConfig, name)
		_, err := New(c)
		assert.ErrorIs(t, err, ErrInvalidConfig, name)
	}
	var nilCfg *Config
	assert.ErrorIs(t, nilCfg.Validate(), ErrInvalidConfig)
}

func TestConfig_DefaultNeedsFeatures(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Equal(t, DefaultConfig(), (*Config)(nil).OrDefault())
}

func TestNew_CopiesConfig(t *testing.T) {
	cfg := testConfig(2)
	f := newTestForest(t, cfg)
	cfg.TreeCount = 1
	assert.Equal(t, 20, f.Config().TreeCount)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forest.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tree_count: 50\nsample_size: 32\nfeature_count: 2\nseed: 7\nleaf_correction: true\n"), 0644))
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.TreeCount)
	assert.Equal(t, 32, cfg.SampleSize)
	assert.Equal(t, 2, cfg.FeatureCount)
	assert.Equal(t, int64(7), cfg.Seed)
	assert.True(t, cfg.LeafCorrection)
	assert.Equal(t, 4, cfg.Workers, "missing keys keep defaults")
	require.NoError(t, cfg.Validate())

	require.NoError(t, os.WriteFile(path, []byte("tree_count: [oops"), 0644))
	_, err = LoadConfig(path)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "uninitialized", StateUninitialized.String())
	assert.Equal(t, "trained", StateTrained.String())
	assert.Equal(t, "destroyed", StateDestroyed.String())
	assert.Equal(t, "State(9)", State(9).String())
}
