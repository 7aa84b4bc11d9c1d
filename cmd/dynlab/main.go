package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/san-kum/dynlab/internal/api"
	"github.com/san-kum/dynlab/internal/config"
	"github.com/san-kum/dynlab/internal/dynamo"
	"github.com/san-kum/dynlab/internal/metrics"
	"github.com/san-kum/dynlab/internal/render"
	"github.com/san-kum/dynlab/internal/storage"
)

var (
	configFile string
	dataDir    string
	logLevel   string
	themeName  string
	jsonOut    bool
)

// app is what every command needs, built once from config and global flags.
type app struct {
	cfg    *config.Config
	logger *log.Logger
	style  render.Style
	svc    *api.Service
	store  *storage.Store
}

var cur *app

func main() {
	rootCmd := &cobra.Command{
		Use:           "dynlab",
		Short:         "dynamical systems analysis lab",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			cur = a
			return nil
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", config.DefaultFileName, "config file path (yaml)")
	pf.StringVar(&dataDir, "data", "", "run storage directory (overrides config)")
	pf.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&themeName, "theme", "", fmt.Sprintf("color theme (%s)", strings.Join(render.ThemeNames(), ", ")))
	pf.BoolVar(&jsonOut, "json", false, "print results as JSON")

	rootCmd.AddCommand(
		linearCmd(), fieldCmd(), trajectoryCmd(), nonlinearCmd(),
		mapCmd(), iterateCmd(), bifurcationCmd(), cobwebCmd(), returnMapCmd(),
		attractorCmd(), liveCmd(), monteCarloCmd(),
		replCmd(), serveCmd(), batchCmd(), callCmd(),
		runsCmd(), presetsCmd(), configCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		printError(err)
		os.Exit(1)
	}
}

func newApp(cmd *cobra.Command) (*app, error) {
	var (
		cfg *config.Config
		err error
	)
	if cmd.Flags().Changed("config") {
		cfg, err = config.Load(configFile)
	} else {
		cfg, err = config.LoadOrDefault(configFile)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if dataDir != "" {
		cfg.Storage.Dir = dataDir
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if themeName != "" {
		cfg.Plot.Theme = themeName
	}
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		cfg.Plot.Width = min(cfg.Plot.Width, max(w-6, 20))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := cfg.Log.NewLogger(os.Stderr)
	if err != nil {
		return nil, err
	}
	style, err := cfg.Plot.Style("")
	if err != nil {
		return nil, err
	}

	var opts []api.ServiceOption
	if cfg.Seed != 0 {
		opts = append(opts, api.WithSeed(cfg.Seed))
	}
	return &app{
		cfg:    cfg,
		logger: logger,
		style:  style,
		svc:    api.NewService(style, opts...),
		store:  storage.New(cfg.Storage.Dir),
	}, nil
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// emit prints v as normalized JSON under --json and otherwise calls text.
func emit(v any, text func()) error {
	if !jsonOut {
		text()
		return nil
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(api.Normalize(v))
}

// saveRun stores a trajectory with the default metrics and reports the id.
func saveRun(op, system string, params map[string]float64, tr *dynamo.Trajectory, result any) error {
	if err := cur.store.Init(); err != nil {
		return err
	}
	meta := storage.RunMetadata{
		Op:         op,
		System:     system,
		Seed:       cur.cfg.Seed,
		Integrator: cur.cfg.Analysis.Integrator,
		Parameters: params,
		Metrics:    metrics.Evaluate(tr, metrics.Default(cur.cfg.Analysis.DivergenceBound)...),
	}
	if tr != nil && tr.Len() > 1 {
		meta.Dt = tr.Times[1] - tr.Times[0]
		meta.TSpan = []float64{tr.Times[0], tr.Times[tr.Len()-1]}
	}
	var res any
	if result != nil {
		res = api.Normalize(result)
	}
	id, err := cur.store.Save(storage.Run{Meta: meta, Trajectory: tr, Result: res})
	if err != nil {
		return err
	}
	cur.logger.Info("saved run", "id", id, "dir", cur.store.Dir())
	if !jsonOut {
		fmt.Printf("run id: %s\n", id)
	}
	return nil
}

func printError(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	var de *dynamo.Error
	if errors.As(err, &de) {
		for _, s := range de.Suggestions {
			fmt.Fprintf(os.Stderr, "  hint: %s\n", s)
		}
	}
}

// parseVector reads "1,2" or "1 2" into floats.
func parseVector(s string) ([]float64, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", f)
		}
		out[i] = v
	}
	return out, nil
}

func parseRange(s string) ([2]float64, error) {
	v, err := parseVector(s)
	if err != nil {
		return [2]float64{}, err
	}
	if len(v) != 2 || v[1] <= v[0] {
		return [2]float64{}, fmt.Errorf("range %q must be lo,hi with lo < hi", s)
	}
	return [2]float64{v[0], v[1]}, nil
}

// parseParams reads repeated name=value flags.
func parseParams(items []string) (map[string]float64, error) {
	out := make(map[string]float64, len(items))
	for _, item := range items {
		k, v, ok := strings.Cut(item, "=")
		if !ok {
			return nil, fmt.Errorf("parameter %q must be name=value", item)
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %q is not a number", k, v)
		}
		out[strings.TrimSpace(k)] = f
	}
	return out, nil
}

// mergeParams lays overrides on top of base without mutating either.
func mergeParams(base, overrides map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(base)+len(overrides))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}

func preset(family, name string) (*config.Preset, error) {
	p := config.GetPreset(family, name)
	if p == nil {
		return nil, fmt.Errorf("unknown %s preset %q (available: %s)", family, name, strings.Join(config.ListPresets(family), ", "))
	}
	return p, nil
}
