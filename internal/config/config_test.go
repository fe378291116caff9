package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/dimersim/internal/dynamo"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	p := cfg.Params()
	if p.D2 != 2.0 {
		t.Errorf("expected D2 = 5*D1 = 2.0, got %v", p.D2)
	}
	if p.X10 != -1 || p.X20 != 1 {
		t.Errorf("expected x0 = (-1, 1), got (%v, %v)", p.X10, p.X20)
	}
	if p.K1 != 0 || p.K2 != 0 || p.K12 != 0 {
		t.Error("reference configuration has no springs")
	}
	if p.N != 100001 {
		t.Errorf("expected N = 100001, got %d", p.N)
	}
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	data := []byte(`
seed: 7
springs:
  k12: 0.5
time:
  dt: 0.001
  n: 11
`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Seed != 7 || cfg.Springs.K12 != 0.5 || cfg.Time.Dt != 0.001 || cfg.Time.Steps != 11 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.Particles.D1 != DefaultD1 || cfg.Medium.Gamma != DefaultGamma {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	cfg := GetPreset("stiff")

	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if *loaded != *cfg {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", loaded, cfg)
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	_ = os.WriteFile(path, []byte("time: [1, 2"), 0644)
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestValidate_Invalid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Medium.Gamma = 0
	if err := cfg.Validate(); !errors.Is(err, dynamo.ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter, got %v", err)
	}

	cfg = DefaultConfig()
	cfg.Time.Steps = 1
	if err := cfg.Validate(); !errors.Is(err, dynamo.ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter for N=1, got %v", err)
	}
}

func TestPresets(t *testing.T) {
	for _, name := range ListPresets() {
		cfg := GetPreset(name)
		if cfg == nil {
			t.Fatalf("preset %s missing", name)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("preset %s invalid: %v", name, err)
		}
	}

	if GetPreset("coupled").Springs.K12 == 0 {
		t.Error("coupled preset should enable the coupling spring")
	}
	if GetPreset("nonexistent") != nil {
		t.Error("expected nil for nonexistent preset")
	}

	// presets must not share state
	a := GetPreset("reference")
	a.Seed = 99
	if GetPreset("reference").Seed == 99 {
		t.Error("GetPreset returned shared configuration")
	}
}

func TestLoadOnto_RefinesPreset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "refine.yaml")
	if err := os.WriteFile(path, []byte("seed: 3\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := GetPreset("coupled")
	if err := LoadOnto(path, cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Seed != 3 {
		t.Errorf("seed not applied: %d", cfg.Seed)
	}
	if cfg.Springs.K12 != GetPreset("coupled").Springs.K12 {
		t.Errorf("preset coupling lost: %g", cfg.Springs.K12)
	}
}

func TestParamAccess(t *testing.T) {
	cfg := DefaultConfig()
	for _, name := range ParamNames {
		v, err := cfg.Param(name)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if err := cfg.SetParam(name, v+1); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		got, _ := cfg.Param(name)
		if got != v+1 {
			t.Errorf("%s: got %g, want %g", name, got, v+1)
		}
	}

	if err := cfg.SetParam("mass", 1); err == nil {
		t.Error("expected error for unknown parameter")
	}
	if err := cfg.SetParam("N", 10.5); err == nil {
		t.Error("expected error for fractional N")
	}

	clone := cfg.Clone()
	clone.Springs.K12 = 42
	if cfg.Springs.K12 == 42 {
		t.Error("clone shares state with original")
	}
}
