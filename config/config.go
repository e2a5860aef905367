// Package config provides configuration loading and access for the viewer.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/galaxy/galaxy"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all viewer configuration.
type Config struct {
	Screen     ScreenConfig            `yaml:"screen"`
	Camera     CameraConfig            `yaml:"camera"`
	Generation GenerationConfig        `yaml:"generation"`
	Animation  AnimationConfig         `yaml:"animation"`
	Telemetry  TelemetryConfig         `yaml:"telemetry"`
	Presets    map[string]GalaxyConfig `yaml:"presets"`
	Galaxies   []GalaxyConfig          `yaml:"galaxies"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	TargetFPS  int    `yaml:"target_fps"`
	Background string `yaml:"background"`
}

// CameraConfig holds the orbit camera setup.
type CameraConfig struct {
	Position      [3]float64 `yaml:"position,flow"`
	Target        [3]float64 `yaml:"target,flow"`
	FOV           float64    `yaml:"fov"` // vertical, degrees
	Near          float64    `yaml:"near"`
	Far           float64    `yaml:"far"`
	Damping       float64    `yaml:"damping"`
	RotateSpeed   float64    `yaml:"rotate_speed"`
	ZoomSpeed     float64    `yaml:"zoom_speed"`
	MinDistance   float64    `yaml:"min_distance"`
	MaxDistance   float64    `yaml:"max_distance"`
	IntroEndX     float64    `yaml:"intro_end_x"`
	IntroDuration float64    `yaml:"intro_duration"`
	FogNear       float64    `yaml:"fog_near"`
	FogFar        float64    `yaml:"fog_far"` // 0 disables fog
}

// GenerationConfig controls the generator and the regeneration worker.
type GenerationConfig struct {
	Seed         int64 `yaml:"seed"` // 0 = time-based
	MaxParticles int   `yaml:"max_particles"`
	SettleMS     int   `yaml:"settle_ms"`
}

// AnimationConfig holds the per-frame transform animation settings.
type AnimationConfig struct {
	SpinSpeed      float64    `yaml:"spin_speed"`
	ScrollStep     float64    `yaml:"scroll_step"`
	ScrollLag      float64    `yaml:"scroll_lag"`
	ScrollRotation [3]float64 `yaml:"scroll_rotation,flow"`
	ScrollPosition [3]float64 `yaml:"scroll_position,flow"`
}

// TelemetryConfig holds telemetry settings.
type TelemetryConfig struct {
	StatsSample   int  `yaml:"stats_sample"`
	DumpParticles bool `yaml:"dump_particles"`
}

// GalaxyConfig describes one galaxy. A galaxy entry may name a preset; its
// own keys then override the preset's.
type GalaxyConfig struct {
	Name            string     `yaml:"name,omitempty" json:"name,omitempty"`
	Preset          string     `yaml:"preset,omitempty" json:"preset,omitempty"`
	ParticleCount   int        `yaml:"particle_count" json:"particle_count"`
	ParticleSize    float64    `yaml:"particle_size" json:"particle_size"`
	Radius          float64    `yaml:"radius" json:"radius"`
	InnerRadius     float64    `yaml:"inner_radius" json:"inner_radius"`
	Branches        int        `yaml:"branches" json:"branches"`
	Spin            float64    `yaml:"spin" json:"spin"`
	Randomness      float64    `yaml:"randomness" json:"randomness"`
	RandomnessPower float64    `yaml:"randomness_power" json:"randomness_power"`
	InsideColor     string     `yaml:"inside_color" json:"inside_color"`
	OutsideColor    string     `yaml:"outside_color" json:"outside_color"`
	Offset          [3]float64 `yaml:"offset,flow" json:"offset"`

	node *yaml.Node
}

// UnmarshalYAML decodes the entry and keeps its node so preset overrides
// can be applied once every preset is known.
func (g *GalaxyConfig) UnmarshalYAML(value *yaml.Node) error {
	type plain GalaxyConfig
	if err := value.Decode((*plain)(g)); err != nil {
		return err
	}
	g.node = value
	return nil
}

// Params converts the entry to generator parameters.
func (g GalaxyConfig) Params() (galaxy.Parameters, error) {
	inside, err := galaxy.ParseColor(g.InsideColor)
	if err != nil {
		return galaxy.Parameters{}, fmt.Errorf("galaxy %s inside_color: %w", g.Name, err)
	}
	outside, err := galaxy.ParseColor(g.OutsideColor)
	if err != nil {
		return galaxy.Parameters{}, fmt.Errorf("galaxy %s outside_color: %w", g.Name, err)
	}
	return galaxy.Parameters{
		ParticleCount:   g.ParticleCount,
		ParticleSize:    float32(g.ParticleSize),
		Radius:          g.Radius,
		InnerRadius:     g.InnerRadius,
		Branches:        g.Branches,
		Spin:            g.Spin,
		Randomness:      g.Randomness,
		RandomnessPower: g.RandomnessPower,
		InsideColor:     inside,
		OutsideColor:    outside,
		Offset:          Vec3(g.Offset),
	}, nil
}

// FromParams builds a config entry from parameters, for writing edited
// values back out.
func FromParams(name string, p galaxy.Parameters) GalaxyConfig {
	return GalaxyConfig{
		Name:            name,
		ParticleCount:   p.ParticleCount,
		ParticleSize:    float64(p.ParticleSize),
		Radius:          p.Radius,
		InnerRadius:     p.InnerRadius,
		Branches:        p.Branches,
		Spin:            p.Spin,
		Randomness:      p.Randomness,
		RandomnessPower: p.RandomnessPower,
		InsideColor:     p.InsideColor.Hex(),
		OutsideColor:    p.OutsideColor.Hex(),
		Offset:          [3]float64{float64(p.Offset[0]), float64(p.Offset[1]), float64(p.Offset[2])},
	}
}

// DerivedConfig holds values computed from the loaded config.
type DerivedConfig struct {
	Settle     time.Duration
	Background galaxy.Color
	Params     []galaxy.Parameters // resolved, index-aligned with Galaxies
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	if path == "" {
		return Parse(nil)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse merges data over the embedded defaults. A galaxies list in data
// replaces the default list; presets are merged by name.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if len(data) > 0 {
		// Unmarshal into same struct - only overwrites fields present in data
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.computeDerived(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// computeDerived resolves presets, validates every galaxy and fills Derived.
func (c *Config) computeDerived() error {
	c.Derived.Settle = time.Duration(c.Generation.SettleMS) * time.Millisecond

	bg, err := galaxy.ParseColor(c.Screen.Background)
	if err != nil {
		return fmt.Errorf("screen background: %w", err)
	}
	c.Derived.Background = bg

	if len(c.Galaxies) == 0 {
		return fmt.Errorf("config defines no galaxies")
	}

	seen := make(map[string]bool, len(c.Galaxies))
	c.Derived.Params = make([]galaxy.Parameters, len(c.Galaxies))
	for i := range c.Galaxies {
		g, err := c.resolve(c.Galaxies[i])
		if err != nil {
			return err
		}
		if g.Name == "" {
			g.Name = fmt.Sprintf("galaxy%d", i)
		}
		if seen[g.Name] {
			return fmt.Errorf("duplicate galaxy name %q", g.Name)
		}
		seen[g.Name] = true

		p, err := g.Params()
		if err != nil {
			return err
		}
		if err := p.Validate(); err != nil {
			return fmt.Errorf("galaxy %s: %w", g.Name, err)
		}
		c.Galaxies[i] = g
		c.Derived.Params[i] = p
	}
	return nil
}

// resolve applies a galaxy's own keys over its preset. Entries that did not
// come from YAML (snapshots, FromParams) are taken as already resolved.
func (c *Config) resolve(g GalaxyConfig) (GalaxyConfig, error) {
	if g.Preset == "" || g.node == nil {
		g.node = nil
		return g, nil
	}
	base, ok := c.Presets[g.Preset]
	if !ok {
		return g, fmt.Errorf("galaxy %s: unknown preset %q", g.Name, g.Preset)
	}
	base.Name = g.Name
	base.Preset = g.Preset
	if err := g.node.Decode(&base); err != nil {
		return g, fmt.Errorf("galaxy %s: %w", g.Name, err)
	}
	base.node = nil
	return base, nil
}

// SetGalaxies replaces the galaxy list and re-resolves it. On error the
// config is left unchanged.
func (c *Config) SetGalaxies(gs []GalaxyConfig) error {
	next := *c
	next.Galaxies = append([]GalaxyConfig(nil), gs...)
	if err := next.computeDerived(); err != nil {
		return err
	}
	*c = next
	return nil
}

// Galaxy returns the resolved entry and parameters for name.
func (c *Config) Galaxy(name string) (GalaxyConfig, galaxy.Parameters, bool) {
	for i, g := range c.Galaxies {
		if g.Name == name {
			return g, c.Derived.Params[i], true
		}
	}
	return GalaxyConfig{}, galaxy.Parameters{}, false
}

// Vec3 converts a config triple.
func Vec3(v [3]float64) mgl32.Vec3 {
	return mgl32.Vec3{float32(v[0]), float32(v[1]), float32(v[2])}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
