package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/san-kum/dynlab/internal/integrators"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if cfg.Analysis.Integrator != DefaultIntegrator {
		t.Errorf("expected integrator %s, got %s", DefaultIntegrator, cfg.Analysis.Integrator)
	}
	if cfg.Analysis.Dt <= 0 {
		t.Error("dt should be positive")
	}
	if cfg.Server.Port != 5000 {
		t.Errorf("expected port 5000, got %d", cfg.Server.Port)
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", DefaultFileName)

	cfg := DefaultConfig()
	cfg.Analysis.Integrator = "rk4"
	cfg.Plot.Theme = "paper"
	cfg.Server.ReadTimeout = 3 * time.Second
	cfg.Seed = 42

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Analysis.Integrator != "rk4" {
		t.Errorf("expected rk4, got %s", loaded.Analysis.Integrator)
	}
	if loaded.Plot.Theme != "paper" {
		t.Errorf("expected paper theme, got %s", loaded.Plot.Theme)
	}
	if loaded.Server.ReadTimeout != 3*time.Second {
		t.Errorf("expected 3s read timeout, got %v", loaded.Server.ReadTimeout)
	}
	if loaded.Seed != 42 {
		t.Errorf("expected seed 42, got %d", loaded.Seed)
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	if err := os.WriteFile(path, []byte("plot:\n  theme: ocean\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Plot.Theme != "ocean" {
		t.Errorf("expected ocean, got %s", cfg.Plot.Theme)
	}
	if cfg.Analysis.NumPoints != DefaultNumPoints {
		t.Errorf("expected default num_points, got %d", cfg.Analysis.NumPoints)
	}
}

func TestLoadOrDefault_Missing(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("missing file should yield defaults: %v", err)
	}
	if cfg.Analysis.Integrator != DefaultIntegrator {
		t.Errorf("expected default integrator, got %s", cfg.Analysis.Integrator)
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"integrator", func(c *Config) { c.Analysis.Integrator = "leapfrog" }, "leapfrog"},
		{"theme", func(c *Config) { c.Plot.Theme = "neon" }, "neon"},
		{"log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"dt", func(c *Config) { c.Analysis.Dt = 0 }, "analysis.dt"},
		{"span", func(c *Config) { c.Analysis.TSpan = [2]float64{5, 5} }, "t_span"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should mention %q", err, tt.want)
			}
		})
	}
}

func TestLoad_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	if err := os.WriteFile(path, []byte("analysis:\n  integrator: leapfrog\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected an unknown integrator to be rejected")
	}
}

func TestStepper(t *testing.T) {
	a := DefaultConfig().Analysis
	integ, err := a.Stepper()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := integ.(*integrators.RK45); !ok {
		t.Errorf("expected *RK45, got %T", integ)
	}

	ic := a.Integration()
	if ic.Dt != a.Dt || ic.AbsTolerance != a.AbsTol || ic.DivergenceBound != a.DivergenceBound {
		t.Errorf("integration config does not carry analysis settings: %+v", ic)
	}
}

func TestNewLogger(t *testing.T) {
	for _, format := range []string{"text", "json", "logfmt"} {
		l := LogConfig{Level: "debug", Format: format}
		if _, err := l.NewLogger(os.Stderr); err != nil {
			t.Errorf("%s: %v", format, err)
		}
	}
	if _, err := (LogConfig{Level: "loud"}).NewLogger(os.Stderr); err == nil {
		t.Error("expected unknown level to fail")
	}
}

func TestGetPreset(t *testing.T) {
	p := GetPreset(FamilyLinear, "stable_spiral")
	if p == nil {
		t.Fatal("expected preset, got nil")
	}
	if p.Matrix == nil || p.Matrix[0][0] != -0.5 {
		t.Errorf("unexpected matrix %v", p.Matrix)
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if GetPreset(FamilyLinear, "nonexistent") != nil {
		t.Error("expected nil for nonexistent preset")
	}
	if GetPreset("nonexistent", "stable_spiral") != nil {
		t.Error("expected nil for nonexistent family")
	}
}

func TestListPresets(t *testing.T) {
	for _, family := range Families() {
		names := ListPresets(family)
		if len(names) == 0 {
			t.Errorf("expected presets for %s", family)
		}
		for i := 1; i < len(names); i++ {
			if names[i-1] > names[i] {
				t.Errorf("%s presets not sorted: %v", family, names)
			}
		}
	}

	if ListPresets("nonexistent") != nil {
		t.Error("expected nil for nonexistent family")
	}
}

func TestPresetPayload(t *testing.T) {
	tests := []struct {
		family string
		name   string
		keys   []string
	}{
		{FamilyLinear, "saddle", []string{"matrix", "initial_point"}},
		{FamilyNonlinear, "van_der_pol", []string{"dx_dt", "dy_dt", "initial_point"}},
		{FamilyMap, "logistic_chaos", []string{"map_type", "parameters", "x0"}},
		{FamilyFlow, "lorenz", []string{"system_type", "initial_conditions"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := GetPreset(tt.family, tt.name).Payload()
			for _, k := range tt.keys {
				if _, ok := payload[k]; !ok {
					t.Errorf("payload missing %q: %v", k, payload)
				}
			}
			if _, err := json.Marshal(payload); err != nil {
				t.Errorf("payload does not encode: %v", err)
			}
		})
	}
}
