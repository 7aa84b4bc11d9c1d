package automation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/dynlab/internal/api"
	"github.com/san-kum/dynlab/internal/chaos"
	"github.com/san-kum/dynlab/internal/config"
	"github.com/san-kum/dynlab/internal/dynamo"
	"github.com/san-kum/dynlab/internal/metrics"
	"github.com/san-kum/dynlab/internal/storage"
)

// Scenario is a scripted sequence of operations.
type Scenario struct {
	Name            string `yaml:"name"`
	Description     string `yaml:"description"`
	ContinueOnError bool   `yaml:"continue_on_error"`
	Steps           []Step `yaml:"steps"`
}

// Step calls one operation. Preset, written family/name, seeds the payload;
// explicit payload keys win. Sweep repeats the call over a parameter range.
type Step struct {
	Op      string         `yaml:"op"`
	Preset  string         `yaml:"preset"`
	Payload map[string]any `yaml:"payload"`
	Sweep   *Sweep         `yaml:"sweep"`
	SaveAs  string         `yaml:"save_as"`
}

// Sweep varies parameters.<Param> linearly from Min to Max.
type Sweep struct {
	Param string  `yaml:"param"`
	Min   float64 `yaml:"min"`
	Max   float64 `yaml:"max"`
	Steps int     `yaml:"steps"`
}

func (s Sweep) values() []float64 {
	if s.Steps <= 1 {
		return []float64{s.Min}
	}
	return dynamo.Linspace(s.Min, s.Max, s.Steps)
}

// StepResult is the outcome of one call. Sweeps yield one result per value.
type StepResult struct {
	Step     int          `json:"step"`
	Op       string       `json:"op"`
	Param    *float64     `json:"param,omitempty"`
	Response api.Response `json:"response"`
	RunID    string       `json:"run_id,omitempty"`
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScenario(data)
}

func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if err := scenario.Validate(); err != nil {
		return nil, err
	}
	return &scenario, nil
}

// Validate checks operation names and presets before anything runs.
func (sc *Scenario) Validate() error {
	if len(sc.Steps) == 0 {
		return errors.New("scenario has no steps")
	}
	var errs []error
	for i, step := range sc.Steps {
		if _, ok := api.Resolve(step.Op); !ok {
			errs = append(errs, fmt.Errorf("step %d: unknown operation %q", i+1, step.Op))
		}
		if step.Preset != "" {
			if _, err := lookupPreset(step.Preset); err != nil {
				errs = append(errs, fmt.Errorf("step %d: %w", i+1, err))
			}
		}
		if step.Sweep != nil && step.Sweep.Param == "" {
			errs = append(errs, fmt.Errorf("step %d: sweep needs a param", i+1))
		}
		if step.Sweep != nil {
			if err := dynamo.CheckSamples("sweep.steps", float64(step.Sweep.Steps)); err != nil {
				errs = append(errs, fmt.Errorf("step %d: %w", i+1, err))
			}
		}
	}
	return errors.Join(errs...)
}

func lookupPreset(ref string) (*config.Preset, error) {
	family, name, ok := strings.Cut(ref, "/")
	if !ok {
		return nil, fmt.Errorf("preset %q is not family/name", ref)
	}
	p := config.GetPreset(family, name)
	if p == nil {
		return nil, fmt.Errorf("unknown preset %q", ref)
	}
	return p, nil
}

// Runner executes scenarios against a Service. Store is optional; without
// it save_as is ignored.
type Runner struct {
	svc    *api.Service
	store  *storage.Store
	logger *log.Logger
	bound  float64
}

func NewRunner(svc *api.Service, store *storage.Store, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{svc: svc, store: store, logger: logger.WithPrefix("batch"), bound: 1e6}
}

// Run executes every step in order. A failed step stops the run unless the
// scenario continues on error; results gathered so far are returned either way.
func (r *Runner) Run(ctx context.Context, sc *Scenario) ([]StepResult, error) {
	results := make([]StepResult, 0, len(sc.Steps))

	for i, step := range sc.Steps {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		r.logger.Info("running step", "step", fmt.Sprintf("%d/%d", i+1, len(sc.Steps)), "op", step.Op)

		payload, err := step.payload()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		var stepResults []StepResult
		if step.Sweep == nil {
			stepResults = []StepResult{r.call(ctx, i+1, step, payload, nil)}
		} else {
			stepResults = r.sweep(ctx, i+1, step, payload)
		}

		for k := range stepResults {
			res := &stepResults[k]
			if res.Response.Success && step.SaveAs != "" && r.store != nil {
				id, err := r.save(sc, step, res)
				if err != nil {
					return append(results, stepResults...), fmt.Errorf("step %d save: %w", i+1, err)
				}
				res.RunID = id
			}
		}
		results = append(results, stepResults...)

		for _, res := range stepResults {
			if !res.Response.Success && !sc.ContinueOnError {
				return results, fmt.Errorf("step %d %s: %s", i+1, step.Op, res.Response.Error.Message)
			}
		}
	}
	return results, nil
}

func (step Step) payload() (map[string]any, error) {
	out := map[string]any{}
	if step.Preset != "" {
		p, err := lookupPreset(step.Preset)
		if err != nil {
			return nil, err
		}
		for k, v := range p.Payload() {
			out[k] = v
		}
	}
	for k, v := range step.Payload {
		out[k] = v
	}
	return out, nil
}

func (r *Runner) call(ctx context.Context, idx int, step Step, payload map[string]any, param *float64) StepResult {
	res := StepResult{Step: idx, Op: step.Op, Param: param}
	raw, err := json.Marshal(payload)
	if err != nil {
		res.Response = api.Failure(&api.APIError{Code: string(dynamo.KindInvalidInput), Message: err.Error()})
		return res
	}
	res.Response = r.svc.Call(ctx, step.Op, raw)
	if !res.Response.Success {
		r.logger.Warn("step failed", "step", idx, "op", step.Op, "code", res.Response.Error.Code, "err", res.Response.Error.Message)
	}
	return res
}

func (r *Runner) sweep(ctx context.Context, idx int, step Step, payload map[string]any) []StepResult {
	values := step.Sweep.values()
	out := make([]StepResult, 0, len(values))
	for k, v := range values {
		params := map[string]any{}
		if existing, ok := payload["parameters"].(map[string]any); ok {
			for name, val := range existing {
				params[name] = val
			}
		} else if existing, ok := payload["parameters"].(map[string]float64); ok {
			for name, val := range existing {
				params[name] = val
			}
		}
		params[step.Sweep.Param] = v

		swept := make(map[string]any, len(payload)+1)
		for key, val := range payload {
			swept[key] = val
		}
		swept["parameters"] = params

		value := v
		out = append(out, r.call(ctx, idx, step, swept, &value))
		r.logger.Debug("sweep", "step", idx, step.Sweep.Param, v, "progress", fmt.Sprintf("%d/%d", k+1, len(values)))
	}
	return out
}

func (r *Runner) save(sc *Scenario, step Step, res *StepResult) (string, error) {
	name, _ := api.Resolve(step.Op)
	meta := storage.RunMetadata{Op: name, System: step.SaveAs, Note: sc.Name}
	if res.Param != nil && step.Sweep != nil {
		meta.Parameters = map[string]float64{step.Sweep.Param: *res.Param}
	}
	tr := TrajectoryFrom(res.Response.Data)
	if tr != nil {
		meta.Metrics = metrics.Evaluate(tr, metrics.Default(r.bound)...)
	}
	return r.store.Save(storage.Run{Meta: meta, Trajectory: tr, Result: res.Response.Data})
}

// TrajectoryFrom recovers a time series from a normalized response that
// carries a {time, x, y[, z]} trajectory object. It returns nil otherwise.
func TrajectoryFrom(data any) *dynamo.Trajectory {
	m, ok := data.(map[string]any)
	if !ok {
		return nil
	}
	obj, ok := m["trajectory"].(map[string]any)
	if !ok {
		return nil
	}
	times := floatsOf(obj["time"])
	if len(times) == 0 {
		return nil
	}
	var cols [][]float64
	for _, key := range []string{"x", "y", "z"} {
		col := floatsOf(obj[key])
		if col == nil {
			break
		}
		if len(col) != len(times) {
			return nil
		}
		cols = append(cols, col)
	}
	if len(cols) == 0 {
		return nil
	}

	tr := &dynamo.Trajectory{Times: times, States: make([]dynamo.State, len(times))}
	for i := range times {
		x := make(dynamo.State, len(cols))
		for d, col := range cols {
			x[d] = col[i]
		}
		tr.States[i] = x
	}
	if truncated, ok := obj["truncated"].(bool); ok {
		tr.Truncated = truncated
	}
	return tr
}

func floatsOf(v any) []float64 {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]float64, len(items))
	for i, item := range items {
		f, ok := item.(float64)
		if !ok {
			return nil
		}
		out[i] = f
	}
	return out
}

// MonteCarloConfig perturbs the initial condition of a flow uniformly within
// ±Perturbation per component.
type MonteCarloConfig struct {
	Flow         chaos.Spec
	BaseState    []float64
	Perturbation float64
	NumTrials    int
	Span         [2]float64
	Dt           float64
	Bound        float64
	Seed         int64
}

type MonteCarloResult struct {
	TrialID    int          `json:"trial"`
	InitState  dynamo.State `json:"initial_state"`
	FinalState dynamo.State `json:"final_state"`
	Stable     bool         `json:"stable"`
	MaxNorm    float64      `json:"max_norm"`
}

// RunMonteCarlo integrates NumTrials perturbed copies of the base state
// concurrently. Perturbations are drawn up front from the seed, so results
// do not depend on scheduling. A trial is stable when it was not truncated
// and never left Bound.
func RunMonteCarlo(ctx context.Context, cfg MonteCarloConfig, logger *log.Logger) ([]MonteCarloResult, error) {
	if logger == nil {
		logger = log.Default()
	}
	if cfg.NumTrials < 1 {
		return nil, dynamo.NewError(dynamo.KindInvalidInput, "num_trials must be positive, got %d", cfg.NumTrials)
	}
	if err := dynamo.CheckSamples("num_trials", float64(cfg.NumTrials)); err != nil {
		return nil, err
	}
	flow, err := cfg.Flow.Build()
	if err != nil {
		return nil, err
	}
	base := dynamo.State(cfg.BaseState)
	if len(base) == 0 {
		base = flow.DefaultState()
	}
	if cfg.Bound <= 0 {
		cfg.Bound = 1e6
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	inits := make([]dynamo.State, cfg.NumTrials)
	for trial := range inits {
		inits[trial] = make(dynamo.State, len(base))
		for i, v := range base {
			inits[trial][i] = v + (rng.Float64()-0.5)*2*cfg.Perturbation
		}
	}

	results := make([]MonteCarloResult, cfg.NumTrials)
	errs := make([]error, cfg.NumTrials)
	var done atomic.Int64

	var wg sync.WaitGroup
	for trial := 0; trial < cfg.NumTrials; trial++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				errs[idx] = err
				return
			}
			results[idx], errs[idx] = monteCarloTrial(cfg, idx, inits[idx], seed+int64(idx))
			if n := done.Add(1); n%10 == 0 {
				logger.Info("monte carlo", "done", n, "of", cfg.NumTrials)
			}
		}(trial)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

// monteCarloTrial uses its own flow and analyzer; both cache state.
func monteCarloTrial(cfg MonteCarloConfig, idx int, initState dynamo.State, seed int64) (MonteCarloResult, error) {
	flow, err := cfg.Flow.Build()
	if err != nil {
		return MonteCarloResult{}, err
	}
	analyzer := chaos.NewAnalyzer(flow, chaos.WithSeed(seed))
	tr, err := analyzer.IntegrateTrajectory(initState, cfg.Span, cfg.Dt)
	if err != nil {
		return MonteCarloResult{}, fmt.Errorf("trial %d: %w", idx, err)
	}
	got := metrics.Evaluate(tr, metrics.NewMaxNorm(), metrics.NewBounded(cfg.Bound))
	return MonteCarloResult{
		TrialID:    idx,
		InitState:  initState,
		FinalState: tr.Last(),
		Stable:     !tr.Truncated && tr.Err == "" && got["bounded_fraction"] == 1,
		MaxNorm:    got["max_norm"],
	}, nil
}

func MonteCarloStats(results []MonteCarloResult) (stableCount int, unstableCount int) {
	for _, r := range results {
		if r.Stable {
			stableCount++
		} else {
			unstableCount++
		}
	}
	return
}
