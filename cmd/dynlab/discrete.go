package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/dynlab/internal/analysis"
	"github.com/san-kum/dynlab/internal/config"
	"github.com/san-kum/dynlab/internal/discrete"
	"github.com/san-kum/dynlab/internal/dynamo"
)

var (
	mapParams   []string
	mapPreset   string
	mapX0       string
	iterSteps   int
	cobwebSteps int
	returnSteps int
	sweepParam  string
	sweepRange  string
	sweepSteps  int
	transient   int
	keepPoints  int
	returnDelay int
)

func addMapFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&mapParams, "param", "p", nil, "map parameter name=value (repeatable)")
	cmd.Flags().StringVar(&mapPreset, "preset", "", fmt.Sprintf("map preset (%s)", strings.Join(config.ListPresets(config.FamilyMap), ", ")))
	cmd.Flags().StringVar(&mapX0, "x0", "", "initial state (default: preset's, else the map's start)")
}

func mapArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 1 {
		return fmt.Errorf("expected at most one map kind, got %d", len(args))
	}
	if len(args) == 0 && mapPreset == "" {
		return fmt.Errorf("give a map kind (%s) or --preset", strings.Join(discrete.KindNames(), ", "))
	}
	return nil
}

// resolveMap builds the map from a preset and/or a kind argument; --param
// values override preset parameters. It returns the initial state to use.
func resolveMap(args []string) (*discrete.Map, dynamo.State, error) {
	var (
		spec    discrete.Spec
		initial dynamo.State
	)
	if mapPreset != "" {
		p, err := preset(config.FamilyMap, mapPreset)
		if err != nil {
			return nil, nil, err
		}
		spec = discrete.Spec{Kind: p.Map.Kind, Params: p.Map.Params.Clone()}
		initial = dynamo.State(p.Initial).Clone()
	}
	if len(args) == 1 {
		kind, err := discrete.ParseKind(args[0])
		if err != nil {
			return nil, nil, err
		}
		if mapPreset != "" && kind != spec.Kind {
			return nil, nil, fmt.Errorf("preset %s is a %s map, not %s", mapPreset, spec.Kind, kind)
		}
		spec.Kind = kind
	}
	overrides, err := parseParams(mapParams)
	if err != nil {
		return nil, nil, err
	}
	spec.Params = mergeParams(spec.Params, overrides)

	m, err := spec.Build()
	if err != nil {
		return nil, nil, err
	}
	if mapX0 != "" {
		v, err := parseVector(mapX0)
		if err != nil {
			return nil, nil, err
		}
		initial = v
	}
	if len(initial) == 0 {
		initial = discrete.LyapunovStart(m.Dimension())
	}
	if len(initial) != m.Dimension() {
		return nil, nil, dynamo.NewError(dynamo.KindInvalidInput, "%s map needs a %d-dimensional initial state, got %d", m, m.Dimension(), len(initial))
	}
	return m, initial, nil
}

func paramString(p map[string]float64) string {
	names := make([]string, 0, len(p))
	for k := range p {
		names = append(names, k)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, k := range names {
		parts[i] = fmt.Sprintf("%s=%g", k, p[k])
	}
	return strings.Join(parts, " ")
}

func stateString(x dynamo.State) string {
	parts := make([]string, len(x))
	for i, v := range x {
		parts[i] = fmt.Sprintf("%.6f", v)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func mapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "map [kind]",
		Short: "fixed points, stability, periodic orbits and Lyapunov exponent of a map",
		Args:  mapArgs,
		RunE:  runMap,
	}
	addMapFlags(cmd)
	return cmd
}

func runMap(cmd *cobra.Command, args []string) error {
	m, _, err := resolveMap(args)
	if err != nil {
		return err
	}
	report := m.Analyze()

	return emit(report, func() {
		st := cur.style
		fmt.Println(st.Header(fmt.Sprintf("%s map  %s", report.Kind, paramString(report.Params))))

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "FIXED POINT\tMULTIPLIER\tSTABILITY")
		for _, s := range report.Stability {
			mult := "-"
			switch {
			case s.Multiplier != nil:
				mult = fmt.Sprintf("%.4f", *s.Multiplier)
			case s.MaxEigenvalue != nil:
				mult = fmt.Sprintf("|λ|max %.4f", *s.MaxEigenvalue)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", stateString(s.FixedPoint), mult, s.Verdict)
		}
		w.Flush()
		if len(report.Stability) == 0 {
			fmt.Println(st.Muted.Render("no fixed points in the search range"))
		}

		periods := make([]int, 0, len(report.PeriodicOrbits))
		for p := range report.PeriodicOrbits {
			periods = append(periods, p)
		}
		sort.Ints(periods)
		for _, p := range periods {
			for _, orbit := range report.PeriodicOrbits[p] {
				vals := make([]string, len(orbit))
				for i, v := range orbit {
					vals[i] = fmt.Sprintf("%.4f", v)
				}
				fmt.Printf("period %d: %s\n", p, strings.Join(vals, " → "))
			}
		}

		if l := report.Lyapunov; l != nil {
			verdict := st.Value.Render("regular")
			if l.Chaotic {
				verdict = st.Warn.Render("chaotic")
			}
			fmt.Println()
			fmt.Println(st.KV(
				[2]string{"lyapunov", fmt.Sprintf("%.5f", l.Exponent)},
				[2]string{"behaviour", verdict},
				[2]string{"info", l.Info},
			))
		}
	})
}

func iterateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "iterate [kind]",
		Short: "iterate a map and plot the orbit",
		Args:  mapArgs,
		RunE:  runIterate,
	}
	addMapFlags(cmd)
	cmd.Flags().IntVarP(&iterSteps, "steps", "n", 0, "number of iterations (default from config)")
	cmd.Flags().BoolVar(&saveResult, "save", false, "store the orbit as a run")
	return cmd
}

func runIterate(cmd *cobra.Command, args []string) error {
	m, x0, err := resolveMap(args)
	if err != nil {
		return err
	}
	n := cur.cfg.Analysis.MapSteps
	if iterSteps > 0 {
		n = iterSteps
	}

	states := m.Iterate(x0, n)
	if states == nil {
		return dynamo.NewError(dynamo.KindInvalidInput, "cannot iterate %d steps from %s", n, stateString(x0)).
			WithContext("n_steps", n)
	}
	tr := &dynamo.Trajectory{States: states, Times: dynamo.Arange(0, float64(len(states)), 1)}
	result := map[string]any{"map_type": m.Kind(), "parameters": m.Params(), "orbit": states}

	if err := emit(result, func() {
		st := cur.style
		fmt.Println(st.Header(fmt.Sprintf("%s map  %s  x0=%s", m, paramString(m.Params()), stateString(x0))))
		if m.Dimension() == 1 {
			fmt.Println(asciigraph.Plot(tr.Component(0),
				asciigraph.Height(12),
				asciigraph.Width(st.Width),
				asciigraph.Caption(fmt.Sprintf("x_n, %d iterations", len(states)-1)),
			))
		} else {
			fmt.Println(st.Scatter("orbit", analysis.Project(tr, 0, 1)))
		}
		if len(states) > 0 && !states[len(states)-1].IsValid() {
			fmt.Println(st.Warn.Render("orbit diverged"))
		}
	}); err != nil {
		return err
	}
	if saveResult {
		return saveRun("iterate_map", m.String(), m.Params(), tr, nil)
	}
	return nil
}

func bifurcationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bifurcation [kind]",
		Short: "sweep a map parameter and plot the attractor against it",
		Args:  mapArgs,
		RunE:  runBifurcation,
	}
	addMapFlags(cmd)
	cmd.Flags().StringVar(&sweepParam, "sweep", "r", "parameter to sweep")
	cmd.Flags().StringVar(&sweepRange, "range", "2.5,4", "sweep range lo,hi")
	cmd.Flags().IntVar(&sweepSteps, "steps", 300, "number of parameter values")
	cmd.Flags().IntVar(&transient, "transient", 500, "iterations discarded per value")
	cmd.Flags().IntVar(&keepPoints, "points", 100, "iterations kept per value")
	cmd.Flags().BoolVar(&saveResult, "save", false, "store the diagram as a run")
	return cmd
}

func runBifurcation(cmd *cobra.Command, args []string) error {
	m, x0, err := resolveMap(args)
	if err != nil {
		return err
	}
	rng, err := parseRange(sweepRange)
	if err != nil {
		return err
	}
	cur.logger.Debug("bifurcation", "map", m, "param", sweepParam, "range", rng, "steps", sweepSteps)

	points, err := m.Bifurcation(sweepParam, rng, sweepSteps, x0, transient, keepPoints)
	if err != nil {
		return err
	}

	params := make([]float64, len(points))
	values := make([][]float64, len(points))
	failed := 0
	for i, p := range points {
		params[i], values[i] = p.Param, p.Values
		if p.Err != "" {
			failed++
		}
	}
	result := map[string]any{"map_type": m.Kind(), "parameter": sweepParam, "bifurcation_data": points}

	if err := emit(result, func() {
		title := fmt.Sprintf("%s map, %s ∈ [%g, %g]", m, sweepParam, rng[0], rng[1])
		fmt.Println(cur.style.Bifurcation(title, params, values))
		if failed > 0 {
			fmt.Println(cur.style.Warn.Render(fmt.Sprintf("%d of %d parameter values diverged", failed, len(points))))
		}
	}); err != nil {
		return err
	}
	if saveResult {
		return saveRun("bifurcation_diagram", m.String(), map[string]float64{sweepParam + "_min": rng[0], sweepParam + "_max": rng[1]}, nil, result)
	}
	return nil
}

func cobwebCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cobweb [kind]",
		Short: "cobweb diagram of a one-dimensional map",
		Args:  mapArgs,
		RunE:  runCobweb,
	}
	addMapFlags(cmd)
	cmd.Flags().IntVarP(&cobwebSteps, "steps", "n", 50, "number of iterations")
	return cmd
}

func runCobweb(cmd *cobra.Command, args []string) error {
	m, x0, err := resolveMap(args)
	if err != nil {
		return err
	}
	cw, err := m.Cobweb(x0[0], cobwebSteps)
	if err != nil {
		return err
	}
	lo, hi := 0.0, 1.0
	for _, v := range cw.X {
		lo, hi = min(lo, v), max(hi, v)
	}
	curve, err := m.MapCurve(lo, hi, 200)
	if err != nil {
		return err
	}

	return emit(map[string]any{"cobweb": cw, "curve": curve}, func() {
		title := fmt.Sprintf("%s map  %s  x0=%g", m, paramString(m.Params()), cw.X0)
		fmt.Println(cur.style.Cobweb(title, curve.X, curve.Y, cw.X, cw.Y))
	})
}

func returnMapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "returnmap [kind]",
		Short: "plot x(n+delay) against x(n)",
		Args:  mapArgs,
		RunE:  runReturnMap,
	}
	addMapFlags(cmd)
	cmd.Flags().IntVarP(&returnSteps, "steps", "n", 1000, "number of iterations")
	cmd.Flags().IntVar(&returnDelay, "delay", 1, "delay between coordinates")
	return cmd
}

func runReturnMap(cmd *cobra.Command, args []string) error {
	m, x0, err := resolveMap(args)
	if err != nil {
		return err
	}
	if returnDelay < 1 {
		return dynamo.NewError(dynamo.KindInvalidInput, "delay must be at least 1")
	}
	rm := m.ReturnMap(x0, returnSteps, returnDelay)
	if rm == nil {
		return dynamo.NewError(dynamo.KindInvalidInput, "not enough iterations for delay %d", returnDelay)
	}
	pts := make([]analysis.Point2, len(rm.XN))
	for i := range rm.XN {
		pts[i] = analysis.Point2{X: rm.XN[i], Y: rm.XNPlusDelay[i]}
	}

	return emit(rm, func() {
		title := fmt.Sprintf("%s return map, delay %d, %d points", m, rm.Delay, rm.TotalPoints)
		fmt.Println(cur.style.Scatter(title, pts))
	})
}
