package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/dynlab/internal/analysis"
	"github.com/san-kum/dynlab/internal/automation"
	"github.com/san-kum/dynlab/internal/chaos"
	"github.com/san-kum/dynlab/internal/config"
	"github.com/san-kum/dynlab/internal/dynamo"
	"github.com/san-kum/dynlab/internal/tui"
)

var (
	flowParams   []string
	flowPreset   string
	flowX0       string
	flowDt       float64
	flowSpan     string
	section      string
	dimension    bool
	spectrum     bool
	fps          int
	trials       int
	perturbation float64
)

func addFlowFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&flowParams, "param", "p", nil, "flow parameter name=value (repeatable)")
	cmd.Flags().StringVar(&flowPreset, "preset", "", fmt.Sprintf("flow preset (%s)", strings.Join(config.ListPresets(config.FamilyFlow), ", ")))
	cmd.Flags().StringVar(&flowX0, "x0", "", "initial state x,y,z (default: the flow's)")
	cmd.Flags().StringVar(&flowSpan, "span", "0,50", "time span t0,t1")
	cmd.Flags().Float64Var(&flowDt, "dt", 0, "sample interval (default from config)")
}

func flowArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 1 {
		return fmt.Errorf("expected at most one flow, got %d", len(args))
	}
	if len(args) == 0 && flowPreset == "" && cmd.Name() != "live" {
		return fmt.Errorf("give a flow (%s) or --preset", strings.Join(chaos.FlowNames(), ", "))
	}
	return nil
}

// flowRun is a resolved flow invocation.
type flowRun struct {
	spec chaos.Spec
	flow chaos.Flow
	x0   dynamo.State
	span [2]float64
	dt   float64
}

func resolveFlow(args []string) (*flowRun, error) {
	var (
		spec    chaos.Spec
		initial dynamo.State
	)
	if flowPreset != "" {
		p, err := preset(config.FamilyFlow, flowPreset)
		if err != nil {
			return nil, err
		}
		spec = chaos.Spec{Kind: p.Flow.Kind, Params: mergeParams(p.Flow.Params, nil)}
		initial = dynamo.State(p.Initial).Clone()
	}
	if len(args) == 1 {
		kind, err := chaos.ParseFlowKind(args[0])
		if err != nil {
			return nil, err
		}
		if flowPreset != "" && kind != spec.Kind {
			return nil, fmt.Errorf("preset %s is a %s flow, not %s", flowPreset, spec.Kind, kind)
		}
		spec.Kind = kind
	}
	overrides, err := parseParams(flowParams)
	if err != nil {
		return nil, err
	}
	spec.Params = mergeParams(spec.Params, overrides)

	flow, err := spec.Build()
	if err != nil {
		return nil, err
	}
	if flowX0 != "" {
		if initial, err = parseVector(flowX0); err != nil {
			return nil, err
		}
	}
	if len(initial) == 0 {
		initial = flow.DefaultState()
	}

	span, err := parseRange(flowSpan)
	if err != nil {
		return nil, err
	}
	dt := cur.cfg.Analysis.Dt
	if flowDt > 0 {
		dt = flowDt
	}
	return &flowRun{spec: spec, flow: flow, x0: initial, span: span, dt: dt}, nil
}

func (r *flowRun) analyzer() *chaos.Analyzer {
	return chaos.NewAnalyzer(r.flow, chaos.WithSeed(cur.cfg.Seed), chaos.WithConfig(cur.cfg.Analysis.Integration()))
}

func attractorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "attractor [flow]",
		Short: "integrate a chaotic flow and estimate its Lyapunov spectrum",
		Args:  flowArgs,
		RunE:  runAttractor,
	}
	addFlowFlags(cmd)
	cmd.Flags().StringVar(&section, "section", "", "Poincaré section plane and value, e.g. z=27")
	cmd.Flags().BoolVar(&dimension, "dimension", false, "estimate box-counting and correlation dimension")
	cmd.Flags().BoolVar(&spectrum, "spectrum", false, "plot the power spectrum of x(t)")
	cmd.Flags().BoolVar(&saveResult, "save", false, "store the run")
	return cmd
}

func runAttractor(cmd *cobra.Command, args []string) error {
	run, err := resolveFlow(args)
	if err != nil {
		return err
	}
	an := run.analyzer()

	tr, err := an.IntegrateTrajectory(run.x0, run.span, run.dt)
	if err != nil {
		return err
	}
	exps, err := an.LyapunovExponents(run.x0, run.span, run.dt)
	if err != nil {
		return err
	}

	result := map[string]any{
		"system_type":        run.spec.Kind,
		"parameters":         run.flow.GetParams(),
		"initial_conditions": run.x0,
		"lyapunov_exponents": exps,
		"is_chaotic":         exps.Lambda1 > 0,
		"truncated":          tr.Truncated,
	}

	var (
		plane    analysis.Plane
		planeVal float64
		crossing []analysis.Point2
	)
	if section != "" {
		name, val, ok := strings.Cut(section, "=")
		if !ok {
			return fmt.Errorf("section %q must be plane=value", section)
		}
		if plane, err = analysis.ParsePlane(name); err != nil {
			return err
		}
		v, err := parseVector(val)
		if err != nil || len(v) != 1 {
			return fmt.Errorf("section value %q is not a number", val)
		}
		planeVal = v[0]
		crossing = an.PoincareSection(plane, planeVal)
		result["poincare_section"] = crossing
	}
	var dims chaos.Dimensions
	if dimension {
		dims = an.FractalDimension("box_counting")
		result["fractal_dimension"] = dims
	}
	var spec analysis.Spectrum
	if spectrum {
		if spec, err = an.PowerSpectrum(0); err != nil {
			return err
		}
		result["power_spectrum"] = map[string]any{"spectrum": spec, "dominant_frequency": spec.Dominant()}
	}

	if err := emit(result, func() {
		st := cur.style
		fmt.Println(st.Attractor(fmt.Sprintf("%s  %s", run.spec.Kind, paramString(run.flow.GetParams())), tr))
		behaviour := st.Value.Render("regular")
		if exps.Lambda1 > 0 {
			behaviour = st.Warn.Render("chaotic")
		}
		pairs := [][2]string{
			{"λ1", fmt.Sprintf("%.4f", exps.Lambda1)},
			{"λ2", fmt.Sprintf("%.4f", exps.Lambda2)},
			{"λ3", fmt.Sprintf("%.4f", exps.Lambda3)},
			{"Σλ", fmt.Sprintf("%.4f", exps.Sum)},
			{"behaviour", behaviour},
		}
		if dimension {
			pairs = append(pairs, [2]string{"box dim", fmt.Sprintf("%.3f", dims.Box)}, [2]string{"corr dim", fmt.Sprintf("%.3f", dims.Correlation)})
		}
		fmt.Println(st.KV(pairs...))
		if tr.Truncated {
			fmt.Println(st.Warn.Render("trajectory diverged and was truncated"))
		}
		if section != "" {
			fmt.Println(st.Scatter(fmt.Sprintf("Poincaré section %s=%g, %d crossings", plane, planeVal, len(crossing)), crossing))
		}
		if spectrum && len(spec.Power) > 1 {
			fmt.Println(asciigraph.Plot(spec.Power[1:],
				asciigraph.Height(10),
				asciigraph.Width(st.Width),
				asciigraph.Caption(fmt.Sprintf("power spectrum of x(t), dominant f = %.4f", spec.Dominant())),
			))
		}
	}); err != nil {
		return err
	}

	if saveResult {
		return saveRun("simulate_chaotic_system", run.spec.Kind.String(), run.flow.GetParams(), tr, result)
	}
	return nil
}

func liveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "live [flow]",
		Short: "interactive rotating view of an attractor",
		Long:  "Opens the full-screen viewer. Without a flow a menu is shown. When stdout is not a terminal the attractor is drawn frame by frame instead.",
		Args:  flowArgs,
		RunE:  runLive,
	}
	addFlowFlags(cmd)
	cmd.Flags().IntVar(&fps, "fps", 30, "frame rate for non-interactive playback")
	return cmd
}

func runLive(cmd *cobra.Command, args []string) error {
	span, err := parseRange(flowSpan)
	if err != nil {
		return err
	}
	dt := cur.cfg.Analysis.Dt
	if flowDt > 0 {
		dt = flowDt
	}

	opts := tui.Options{Style: cur.style, Seed: cur.cfg.Seed, Span: span, Dt: dt}
	var run *flowRun
	if len(args) == 1 || flowPreset != "" {
		if run, err = resolveFlow(args); err != nil {
			return err
		}
		opts.Flow = &run.spec
	}

	if isTerminal() {
		return tui.Run(opts)
	}
	if run == nil {
		return fmt.Errorf("stdout is not a terminal; name a flow to play it back")
	}
	tr, err := run.analyzer().IntegrateTrajectory(run.x0, run.span, run.dt)
	if err != nil {
		return err
	}
	lr := tui.NewLiveRenderer(os.Stdout, cur.style, run.spec.Kind.String(), fps)
	lr.Play(tr, 60)
	return nil
}

func monteCarloCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "montecarlo [flow]",
		Short: "integrate perturbed initial conditions and count bounded trials",
		Args:  flowArgs,
		RunE:  runMonteCarlo,
	}
	addFlowFlags(cmd)
	cmd.Flags().IntVar(&trials, "trials", 50, "number of trials")
	cmd.Flags().Float64Var(&perturbation, "perturbation", 0.1, "uniform perturbation per component")
	return cmd
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	run, err := resolveFlow(args)
	if err != nil {
		return err
	}
	if trials < 1 {
		return dynamo.NewError(dynamo.KindInvalidInput, "trials must be at least 1")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results, err := automation.RunMonteCarlo(ctx, automation.MonteCarloConfig{
		Flow:         run.spec,
		BaseState:    run.x0,
		Perturbation: perturbation,
		NumTrials:    trials,
		Span:         run.span,
		Dt:           run.dt,
		Bound:        cur.cfg.Analysis.DivergenceBound,
		Seed:         cur.cfg.Seed,
	}, cur.logger)
	if err != nil {
		return err
	}
	stable, unstable := automation.MonteCarloStats(results)

	norms := make([]float64, len(results))
	for i, r := range results {
		norms[i] = r.MaxNorm
	}
	return emit(map[string]any{"trials": results, "stable": stable, "unstable": unstable}, func() {
		st := cur.style
		fmt.Println(st.Header(fmt.Sprintf("%s  %d trials  ±%g", run.spec.Kind, len(results), perturbation)))
		fmt.Println(st.KV(
			[2]string{"stable", fmt.Sprint(stable)},
			[2]string{"unstable", fmt.Sprint(unstable)},
			[2]string{"stable %", fmt.Sprintf("%.1f", 100*float64(stable)/float64(len(results)))},
			[2]string{"max norm", st.Sparkline(norms, min(len(norms), st.Width-16))},
		))
	})
}
