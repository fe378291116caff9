package config

import "sort"

// Presets are named variations of DefaultConfig.
var Presets = map[string]func(*Config){
	// the shipped experiment: free diffusion, no springs
	"reference": func(c *Config) {},
	"coupled": func(c *Config) {
		c.Springs.K12 = 2e-3 / 1e3
		c.Time.Steps = 20001
	},
	"tethered": func(c *Config) {
		c.Springs.K1 = 1e-6 / 1e3
		c.Springs.K2 = 1e-6 / 1e3
		c.Time.Steps = 20001
	},
	"stiff": func(c *Config) {
		c.Springs.K1 = 1e-6 / 1e3
		c.Springs.K2 = 1e-6 / 1e3
		c.Springs.K12 = 3e-3 / 1e3
		c.Medium.Gamma = 4e-8
		c.Time.Steps = 20001
	},
}

// GetPreset returns a fresh configuration for the named preset, or nil.
func GetPreset(name string) *Config {
	apply, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	apply(cfg)
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
