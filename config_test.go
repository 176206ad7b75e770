package spacetree

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

const octreeConfig = `
algorithm: octree
origin: [1, 2, 3]
dimensions: [8, 8, 8]
depth: 2
log_level: debug
`

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte(octreeConfig))
	require.NoError(t, err)

	require.Equal(t, "octree", cfg.Algorithm)
	require.Equal(t, []float64{1, 2, 3}, cfg.Origin)
	require.Equal(t, []float64{8, 8, 8}, cfg.Dimensions)
	require.Equal(t, 2, cfg.Depth)
	require.Equal(t, log.DebugLevel, cfg.Level())
}

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := ParseConfig([]byte("{}"))
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), cfg)
	require.Equal(t, log.InfoLevel, cfg.Level())
}

func TestParseConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown algorithm", "algorithm: kdtree"},
		{"short origin", "origin: [1, 2]"},
		{"long dimensions", "dimensions: [1, 2, 3, 4]"},
		{"negative depth", "depth: -1"},
		{"negative dimensions", "dimensions: [1, -2, 3]"},
		{"depth on bvh", "algorithm: hlbvh\ndepth: 2"},
		{"bad log level", "log_level: loud"},
		{"unknown field", "colour: red"},
		{"not yaml", "algorithm: [octree"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.yaml))
			require.Error(t, err)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tree.yaml")
	require.NoError(t, os.WriteFile(path, []byte(octreeConfig), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, 2, cfg.Depth)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestNewFromConfig(t *testing.T) {
	t.Run("octree", func(t *testing.T) {
		cfg, err := ParseConfig([]byte(octreeConfig))
		require.NoError(t, err)

		tree, err := NewFromConfig(cfg)
		require.NoError(t, err)
		require.Equal(t, Octree, tree.Algorithm())
		require.Equal(t, 73, tree.NumNodes())
		require.Equal(t, mgl64.Vec3{1, 2, 3}, tree.Origin())
		requireVecNear(t, mgl64.Vec3{-3, -2, -1}, tree.Bounds().Min)
	})

	t.Run("bvh", func(t *testing.T) {
		cfg, err := ParseConfig([]byte("algorithm: bvh"))
		require.NoError(t, err)

		tree, err := NewFromConfig(cfg)
		require.NoError(t, err)
		require.Equal(t, HLBVH, tree.Algorithm())
		require.Equal(t, 2, tree.Branching())
		require.Equal(t, 1, tree.NumNodes())
	})

	t.Run("lazy octree", func(t *testing.T) {
		tree, err := NewFromConfig(DefaultConfig())
		require.NoError(t, err)
		require.Equal(t, 1, tree.NumNodes())
		require.True(t, tree.Space().Box.IsDegenerate())
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := NewFromConfig(Config{Algorithm: "nope"})
		require.Error(t, err)
	})
}
