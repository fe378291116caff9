package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/dimersim/internal/physics"
)

// Reference values of the bead-spring experiment, in um, s and kg.
const (
	DefaultD1    = 0.4
	DefaultD2    = 5 * DefaultD1
	DefaultKB    = 1.38e-11
	DefaultGamma = 1e-8
	DefaultL12   = 2.0
	DefaultDt    = 1e-4
	DefaultN     = 100001
	DefaultSeed  = 0
)

type Config struct {
	Integrator string          `yaml:"integrator"`
	Seed       int64           `yaml:"seed"`
	Output     string          `yaml:"output"`
	Particles  ParticlesConfig `yaml:"particles"`
	Springs    SpringsConfig   `yaml:"springs"`
	Medium     MediumConfig    `yaml:"medium"`
	Time       TimeConfig      `yaml:"time"`
}

type ParticlesConfig struct {
	D1  float64 `yaml:"d1"`
	D2  float64 `yaml:"d2"`
	X10 float64 `yaml:"x10"`
	X20 float64 `yaml:"x20"`
}

type SpringsConfig struct {
	K1  float64 `yaml:"k1"`
	K2  float64 `yaml:"k2"`
	K12 float64 `yaml:"k12"`
	L12 float64 `yaml:"l12"`
}

type MediumConfig struct {
	KB    float64 `yaml:"kb"`
	Gamma float64 `yaml:"gamma"`
}

type TimeConfig struct {
	Dt    float64 `yaml:"dt"`
	Steps int     `yaml:"n"`
}

func DefaultConfig() *Config {
	return &Config{
		Integrator: "exact",
		Seed:       DefaultSeed,
		Output:     "trajectory.dat",
		Particles: ParticlesConfig{
			D1:  DefaultD1,
			D2:  DefaultD2,
			X10: -DefaultL12 / 2,
			X20: DefaultL12 / 2,
		},
		Springs: SpringsConfig{
			L12: DefaultL12,
		},
		Medium: MediumConfig{
			KB:    DefaultKB,
			Gamma: DefaultGamma,
		},
		Time: TimeConfig{
			Dt:    DefaultDt,
			Steps: DefaultN,
		},
	}
}

func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := LoadOnto(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOnto reads path over cfg. Keys missing from the file keep their
// current values, so a file can refine a preset.
func LoadOnto(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Params maps the configuration onto the physical parameter record.
func (c *Config) Params() physics.Params {
	return physics.Params{
		D1:    c.Particles.D1,
		D2:    c.Particles.D2,
		K1:    c.Springs.K1,
		K2:    c.Springs.K2,
		K12:   c.Springs.K12,
		KB:    c.Medium.KB,
		Gamma: c.Medium.Gamma,
		L12:   c.Springs.L12,
		X10:   c.Particles.X10,
		X20:   c.Particles.X20,
		Dt:    c.Time.Dt,
		N:     c.Time.Steps,
	}
}

// Validate checks the physical parameters before any computation starts.
func (c *Config) Validate() error {
	return c.Params().Validate()
}

// ParamNames lists the physical parameters addressable by name, using the
// same names as physics.Params validation errors.
var ParamNames = []string{"D1", "D2", "k1", "k2", "k12", "L12", "gamma", "kB", "x10", "x20", "dt", "N"}

func (c *Config) field(name string) (*float64, error) {
	switch name {
	case "D1":
		return &c.Particles.D1, nil
	case "D2":
		return &c.Particles.D2, nil
	case "x10":
		return &c.Particles.X10, nil
	case "x20":
		return &c.Particles.X20, nil
	case "k1":
		return &c.Springs.K1, nil
	case "k2":
		return &c.Springs.K2, nil
	case "k12":
		return &c.Springs.K12, nil
	case "L12":
		return &c.Springs.L12, nil
	case "gamma":
		return &c.Medium.Gamma, nil
	case "kB":
		return &c.Medium.KB, nil
	case "dt":
		return &c.Time.Dt, nil
	}
	return nil, fmt.Errorf("unknown parameter: %s", name)
}

// Param returns the named parameter. N is reported as a float.
func (c *Config) Param(name string) (float64, error) {
	if name == "N" {
		return float64(c.Time.Steps), nil
	}
	f, err := c.field(name)
	if err != nil {
		return 0, err
	}
	return *f, nil
}

// SetParam sets the named parameter. N must be a whole number.
func (c *Config) SetParam(name string, v float64) error {
	if name == "N" {
		if v != math.Trunc(v) {
			return fmt.Errorf("N must be an integer, got %g", v)
		}
		c.Time.Steps = int(v)
		return nil
	}
	f, err := c.field(name)
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// Clone returns an independent copy.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}
