package spacetree

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

// Config describes a tree in YAML:
//
//	algorithm: octree
//	origin: [0, 0, 0]
//	dimensions: [64, 64, 64]
//	depth: 3
//	log_level: debug
type Config struct {
	Algorithm  string    `yaml:"algorithm"`
	Origin     []float64 `yaml:"origin"`
	Dimensions []float64 `yaml:"dimensions"`
	Depth      int       `yaml:"depth"`
	LogLevel   string    `yaml:"log_level"`
}

func DefaultConfig() Config {
	return Config{
		Algorithm: Octree.String(),
		LogLevel:  log.InfoLevel.String(),
	}
}

// ParseConfig reads YAML on top of DefaultConfig.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing tree config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading tree config: %w", err)
	}
	return ParseConfig(data)
}

func (c Config) Validate() error {
	algo, err := ParseAlgorithm(c.Algorithm)
	if err != nil {
		return err
	}
	if _, err := toVec3("origin", c.Origin); err != nil {
		return err
	}
	if _, err := toVec3("dimensions", c.Dimensions); err != nil {
		return err
	}
	if c.Depth < 0 {
		return fmt.Errorf("depth must not be negative, got %d", c.Depth)
	}
	for _, d := range c.Dimensions {
		if d < 0 {
			return fmt.Errorf("dimensions must not be negative, got %v", c.Dimensions)
		}
	}
	if algo == HLBVH && c.Depth != 0 {
		return errors.New("depth only applies to octrees")
	}
	if c.LogLevel != "" {
		if _, err := log.ParseLevel(c.LogLevel); err != nil {
			return err
		}
	}
	return nil
}

// Level returns the configured log level, info when unset.
func (c Config) Level() log.Level {
	lvl, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// NewFromConfig builds the tree described by cfg. An octree with non zero
// dimensions is subdivided right away.
func NewFromConfig(cfg Config, opts ...Option) (*Tree, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	algo, _ := ParseAlgorithm(cfg.Algorithm)

	origin, _ := toVec3("origin", cfg.Origin)
	dims, _ := toVec3("dimensions", cfg.Dimensions)

	t := New(algo.Branching(), algo, origin, opts...)
	if algo == Octree && dims != (mgl64.Vec3{}) {
		if err := t.Subdivide(dims, cfg.Depth); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// toVec3 accepts an empty list as the zero vector.
func toVec3(name string, v []float64) (mgl64.Vec3, error) {
	switch len(v) {
	case 0:
		return mgl64.Vec3{}, nil
	case 3:
		return mgl64.Vec3{v[0], v[1], v[2]}, nil
	default:
		return mgl64.Vec3{}, fmt.Errorf("%s needs 3 components, got %d", name, len(v))
	}
}
