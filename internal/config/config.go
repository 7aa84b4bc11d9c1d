package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/dynlab/internal/api"
	"github.com/san-kum/dynlab/internal/dynamo"
	"github.com/san-kum/dynlab/internal/integrators"
	"github.com/san-kum/dynlab/internal/render"
)

const (
	DefaultIntegrator = "rk45"
	DefaultDt         = 0.01
	DefaultNumPoints  = 500
	DefaultMapSteps   = 100
	DefaultTheme      = "cyberpunk"
	DefaultDataDir    = "runs"
	DefaultFileName   = "dynlab.yaml"
)

type Config struct {
	Analysis AnalysisConfig   `yaml:"analysis"`
	Server   api.ServerConfig `yaml:"server"`
	Plot     PlotConfig       `yaml:"plot"`
	Storage  StorageConfig    `yaml:"storage"`
	Log      LogConfig        `yaml:"log"`
	Shell    ShellConfig      `yaml:"shell"`
	Seed     int64            `yaml:"seed"`
}

type AnalysisConfig struct {
	Integrator      string     `yaml:"integrator"`
	RelTol          float64    `yaml:"rtol"`
	AbsTol          float64    `yaml:"atol"`
	DivergenceBound float64    `yaml:"divergence_bound"`
	Dt              float64    `yaml:"dt"`
	TSpan           [2]float64 `yaml:"t_span"`
	NumPoints       int        `yaml:"num_points"`
	MapSteps        int        `yaml:"map_steps"`
}

type PlotConfig struct {
	Theme     string `yaml:"theme"`
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
	SVGWidth  int    `yaml:"svg_width"`
	SVGHeight int    `yaml:"svg_height"`
}

type StorageConfig struct {
	Dir string `yaml:"dir"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type ShellConfig struct {
	HistoryFile string `yaml:"history_file"`
	Prompt      string `yaml:"prompt"`
}

func DefaultConfig() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			Integrator:      DefaultIntegrator,
			RelTol:          1e-8,
			AbsTol:          1e-10,
			DivergenceBound: 1e6,
			Dt:              DefaultDt,
			TSpan:           [2]float64{0, 50},
			NumPoints:       DefaultNumPoints,
			MapSteps:        DefaultMapSteps,
		},
		Server: api.DefaultServerConfig(),
		Plot: PlotConfig{
			Theme:     DefaultTheme,
			Width:     60,
			Height:    20,
			SVGWidth:  640,
			SVGHeight: 480,
		},
		Storage: StorageConfig{Dir: DefaultDataDir},
		Log:     LogConfig{Level: "info", Format: "text"},
		Shell:   ShellConfig{HistoryFile: filepath.Join(os.TempDir(), "dynlab_history"), Prompt: "dynlab> "},
	}
}

// Load overlays the file at path on DefaultConfig and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields the defaults.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	return cfg, err
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

func (c *Config) Validate() error {
	var errs []error
	if _, err := integrators.New(c.Analysis.Integrator); err != nil {
		errs = append(errs, err)
	}
	if !(c.Analysis.Dt > 0) {
		errs = append(errs, fmt.Errorf("analysis.dt must be positive, got %g", c.Analysis.Dt))
	}
	if !(c.Analysis.RelTol > 0) || !(c.Analysis.AbsTol > 0) {
		errs = append(errs, errors.New("analysis tolerances must be positive"))
	}
	if c.Analysis.TSpan[1] <= c.Analysis.TSpan[0] {
		errs = append(errs, fmt.Errorf("analysis.t_span %v is empty", c.Analysis.TSpan))
	}
	if _, err := render.ThemeByName(c.Plot.Theme); err != nil {
		errs = append(errs, err)
	}
	if c.Plot.Width <= 0 || c.Plot.Height <= 0 {
		errs = append(errs, fmt.Errorf("plot size %dx%d is invalid", c.Plot.Width, c.Plot.Height))
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch c.Log.Format {
	case "text", "json", "logfmt":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not one of text, json, logfmt", c.Log.Format))
	}
	return errors.Join(errs...)
}

// Integration returns the stepper settings for dynamo.Integrate.
func (a AnalysisConfig) Integration() dynamo.Config {
	cfg := dynamo.DefaultConfig()
	cfg.Dt = a.Dt
	cfg.Tolerance = a.RelTol
	cfg.AbsTolerance = a.AbsTol
	cfg.DivergenceBound = a.DivergenceBound
	return cfg
}

// Stepper builds the configured integrator, applying the absolute tolerance
// to adaptive ones.
func (a AnalysisConfig) Stepper() (dynamo.Integrator, error) {
	integ, err := integrators.New(a.Integrator)
	if err != nil {
		return nil, err
	}
	if rk, ok := integ.(*integrators.RK45); ok {
		return rk.WithAbsTolerance(a.AbsTol), nil
	}
	return integ, nil
}

// Style builds the render style, optionally overriding the theme.
func (p PlotConfig) Style(theme string) (render.Style, error) {
	if theme == "" {
		theme = p.Theme
	}
	th, err := render.ThemeByName(theme)
	if err != nil {
		return render.Style{}, err
	}
	return render.NewStyle(th, p.Width, p.Height, p.SVGWidth, p.SVGHeight), nil
}

// NewLogger builds a logger writing to w at the configured level and format.
func (l LogConfig) NewLogger(w io.Writer) (*log.Logger, error) {
	level, err := log.ParseLevel(l.Level)
	if err != nil {
		return nil, err
	}
	opts := log.Options{Level: level, ReportTimestamp: true}
	switch l.Format {
	case "json":
		opts.Formatter = log.JSONFormatter
	case "logfmt":
		opts.Formatter = log.LogfmtFormatter
	default:
		opts.Formatter = log.TextFormatter
	}
	return log.NewWithOptions(w, opts), nil
}
