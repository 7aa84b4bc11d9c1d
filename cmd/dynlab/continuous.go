package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/dynlab/internal/analysis"
	"github.com/san-kum/dynlab/internal/config"
	"github.com/san-kum/dynlab/internal/dynamo"
	"github.com/san-kum/dynlab/internal/linear"
	"github.com/san-kum/dynlab/internal/nonlinear"
	"github.com/san-kum/dynlab/internal/render"
)

var (
	dxdtExpr    string
	dydtExpr    string
	presetName  string
	showDerive  bool
	svgPath     string
	viewRange   string
	gridSize    int
	initialText string
	spanText    string
	numPoints   int
	saveResult  bool
)

// planar is a two-dimensional continuous system from either family.
type planar interface {
	name() string
	field(xr, yr [2]float64, n int) dynamo.VectorField
	integrate(x0, span [2]float64, n int) (*dynamo.Trajectory, error)
	equilibria() []analysis.Point2
}

type linearSystem struct{ *linear.Analyzer }

func (linearSystem) name() string { return "linear" }

func (l linearSystem) field(xr, yr [2]float64, n int) dynamo.VectorField {
	return l.SampleVectorField(xr, yr, n)
}

func (l linearSystem) integrate(x0, span [2]float64, n int) (*dynamo.Trajectory, error) {
	return l.Integrate(x0, span, n)
}

func (linearSystem) equilibria() []analysis.Point2 { return []analysis.Point2{{X: 0, Y: 0}} }

type nonlinearSystem struct{ *nonlinear.Analyzer }

func (nonlinearSystem) name() string { return "nonlinear" }

func (n nonlinearSystem) field(xr, yr [2]float64, size int) dynamo.VectorField {
	return n.EvaluateGrid(xr, yr, size)
}

func (n nonlinearSystem) integrate(x0, span [2]float64, size int) (*dynamo.Trajectory, error) {
	return n.Integrate(x0, span, size), nil
}

func (n nonlinearSystem) equilibria() []analysis.Point2 {
	var out []analysis.Point2
	for _, eq := range n.Equilibria() {
		out = append(out, analysis.Point2{X: eq.X, Y: eq.Y})
	}
	return out
}

func addPlanarFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&dxdtExpr, "dx", "", "dx/dt expression in x and y")
	cmd.Flags().StringVar(&dydtExpr, "dy", "", "dy/dt expression in x and y")
	cmd.Flags().StringVar(&presetName, "preset", "", "linear or nonlinear preset name")
}

// resolvePlanar picks the system from four matrix entries, --dx/--dy, or a
// preset, in that order. It also returns the preset's initial point, if any.
func resolvePlanar(args []string) (planar, []float64, error) {
	switch {
	case len(args) == 4:
		m, err := matrixFromArgs(args)
		if err != nil {
			return nil, nil, err
		}
		return linearSystem{linear.New(m)}, nil, nil
	case dxdtExpr != "" || dydtExpr != "":
		an, err := nonlinear.New(dxdtExpr, dydtExpr)
		if err != nil {
			return nil, nil, err
		}
		return nonlinearSystem{an}, nil, nil
	case presetName != "":
		if p := config.GetPreset(config.FamilyLinear, presetName); p != nil {
			return linearSystem{linear.New(linear.Matrix2x2(*p.Matrix))}, p.Initial, nil
		}
		p, err := preset(config.FamilyNonlinear, presetName)
		if err != nil {
			return nil, nil, err
		}
		an, err := nonlinear.New(p.DxDt, p.DyDt)
		if err != nil {
			return nil, nil, err
		}
		return nonlinearSystem{an}, p.Initial, nil
	}
	return nil, nil, fmt.Errorf("give four matrix entries, --dx and --dy, or --preset")
}

func matrixArgs(cmd *cobra.Command, args []string) error {
	if len(args) != 0 && len(args) != 4 {
		return fmt.Errorf("need 4 matrix entries, got %d", len(args))
	}
	return nil
}

func matrixFromArgs(args []string) (linear.Matrix2x2, error) {
	v, err := parseVector(strings.Join(args, " "))
	if err != nil {
		return linear.Matrix2x2{}, err
	}
	if len(v) != 4 {
		return linear.Matrix2x2{}, fmt.Errorf("need 4 matrix entries, got %d", len(v))
	}
	return linear.Matrix2x2{{v[0], v[1]}, {v[2], v[3]}}, nil
}

func writeSVG(svg string) error {
	if svgPath == "" {
		return nil
	}
	if err := os.WriteFile(svgPath, []byte(svg), 0644); err != nil {
		return err
	}
	cur.logger.Info("wrote svg", "path", svgPath)
	return nil
}

func linearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "linear [a b c d]",
		Short: "classify the linear system dx/dt = A x",
		Args:  matrixArgs,
		RunE:  runLinear,
	}
	cmd.Flags().StringVar(&presetName, "preset", "", fmt.Sprintf("linear preset (%s)", strings.Join(config.ListPresets(config.FamilyLinear), ", ")))
	cmd.Flags().BoolVar(&showDerive, "derivation", false, "show the worked derivation")
	cmd.Flags().StringVar(&svgPath, "svg", "", "write the phase portrait as SVG")
	return cmd
}

func runLinear(cmd *cobra.Command, args []string) error {
	var m linear.Matrix2x2
	switch {
	case len(args) == 4:
		var err error
		if m, err = matrixFromArgs(args); err != nil {
			return err
		}
	case presetName != "":
		p, err := preset(config.FamilyLinear, presetName)
		if err != nil {
			return err
		}
		m = linear.Matrix2x2(*p.Matrix)
	default:
		return fmt.Errorf("give four matrix entries or --preset")
	}

	an := linear.New(m)
	c := an.Classify()
	eig := an.Eigen()
	d := an.Derivation()
	vf := an.SampleVectorField([2]float64{-3.5, 3.5}, [2]float64{-3.5, 3.5}, 20)
	if err := writeSVG(cur.style.FieldSVG(vf, []analysis.Point2{{X: 0, Y: 0}})); err != nil {
		return err
	}

	result := map[string]any{
		"matrix":         m,
		"eigenvalues":    eig.Values,
		"eigenvectors":   eig.Vectors,
		"classification": c,
		"derivation":     d,
	}
	return emit(result, func() {
		st := cur.style
		fmt.Println(st.Header(fmt.Sprintf("A = [[%g, %g], [%g, %g]]", m[0][0], m[0][1], m[1][0], m[1][1])))
		f := eig.Formatted()
		fmt.Println(st.KV(
			[2]string{"class", c.Class.String()},
			[2]string{"trace", fmt.Sprintf("%.4f", c.Trace)},
			[2]string{"determinant", fmt.Sprintf("%.4f", c.Determinant)},
			[2]string{"discriminant", fmt.Sprintf("%.4f", c.Discriminant)},
			[2]string{"λ1", f[0]},
			[2]string{"λ2", f[1]},
		))
		for _, r := range c.Reasoning {
			fmt.Println("  " + r)
		}
		if showDerive {
			printDerivation(st, d)
		}
		fmt.Println(st.Quiver(d.PhasePortrait.Description, an.SampleVectorField([2]float64{-3.5, 3.5}, [2]float64{-3.5, 3.5}, 15), []analysis.Point2{{X: 0, Y: 0}}))
	})
}

func printDerivation(st render.Style, d linear.Derivation) {
	block := func(title string, lines []string) {
		fmt.Println()
		fmt.Println(st.Title.Render(title))
		for _, l := range lines {
			fmt.Println("  " + l)
		}
	}
	block("characteristic polynomial", d.CharacteristicPolynomial.Steps)
	block("eigenvalues", d.EigenvalueCalculation.Steps)
	block("stability", d.StabilityAnalysis.Conditions)
	block("phase portrait", append([]string{d.PhasePortrait.Description}, d.PhasePortrait.Properties...))
	fmt.Println()
}

func fieldCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "field [a b c d]",
		Short: "draw the vector field of a planar system",
		Args:  matrixArgs,
		RunE:  runField,
	}
	addPlanarFlags(cmd)
	cmd.Flags().StringVar(&viewRange, "range", "-5,5", "x and y range lo,hi")
	cmd.Flags().IntVar(&gridSize, "grid", 20, "samples per axis")
	cmd.Flags().StringVar(&svgPath, "svg", "", "write the field as SVG")
	return cmd
}

func runField(cmd *cobra.Command, args []string) error {
	sys, _, err := resolvePlanar(args)
	if err != nil {
		return err
	}
	rng, err := parseRange(viewRange)
	if err != nil {
		return err
	}
	if gridSize < 2 {
		return fmt.Errorf("grid must be at least 2")
	}
	vf := sys.field(rng, rng, gridSize)
	markers := sys.equilibria()
	if err := writeSVG(cur.style.FieldSVG(vf, markers)); err != nil {
		return err
	}
	return emit(map[string]any{"field": vf, "equilibria": markers}, func() {
		fmt.Println(cur.style.Quiver(sys.name()+" vector field", vf, markers))
	})
}

func trajectoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trajectory [a b c d]",
		Short: "integrate a planar system from an initial point",
		Args:  matrixArgs,
		RunE:  runTrajectory,
	}
	addPlanarFlags(cmd)
	cmd.Flags().StringVar(&initialText, "x0", "", "initial point x,y (default: preset's, else 1,1)")
	cmd.Flags().StringVar(&spanText, "span", "", "time span t0,t1 (default from config)")
	cmd.Flags().IntVar(&numPoints, "points", 0, "number of samples (default from config)")
	cmd.Flags().StringVar(&svgPath, "svg", "", "write field and trajectory as SVG")
	cmd.Flags().BoolVar(&saveResult, "save", false, "store the run")
	return cmd
}

func runTrajectory(cmd *cobra.Command, args []string) error {
	sys, initial, err := resolvePlanar(args)
	if err != nil {
		return err
	}

	x0 := [2]float64{1, 1}
	if len(initial) == 2 {
		x0 = [2]float64{initial[0], initial[1]}
	}
	if cmd.Flags().Changed("x0") {
		v, err := parseVector(initialText)
		if err != nil {
			return err
		}
		if len(v) != 2 {
			return dynamo.NewError(dynamo.KindInvalidInput, "initial point needs 2 coordinates, got %d", len(v))
		}
		x0 = [2]float64{v[0], v[1]}
	}

	span := cur.cfg.Analysis.TSpan
	if spanText != "" {
		if span, err = parseRange(spanText); err != nil {
			return err
		}
	}
	n := cur.cfg.Analysis.NumPoints
	if numPoints > 0 {
		n = numPoints
	}

	tr, err := sys.integrate(x0, span, n)
	if tr == nil {
		tr = dynamo.Single(dynamo.State{x0[0], x0[1]}, err)
	} else if err != nil {
		tr.Err = err.Error()
	}

	path := analysis.Project(tr, 0, 1)
	if svgPath != "" {
		lo, hi := boundsOf(path)
		vf := sys.field(lo, hi, 20)
		if err := writeSVG(cur.style.FieldSVG(vf, sys.equilibria(), path)); err != nil {
			return err
		}
	}

	result := map[string]any{
		"time":          tr.Times,
		"x":             tr.Component(0),
		"y":             tr.Component(1),
		"initial_point": x0,
		"truncated":     tr.Truncated,
		"error":         tr.Err,
	}
	if err := emit(result, func() {
		fmt.Println(asciigraph.PlotMany([][]float64{tr.Component(0), tr.Component(1)},
			asciigraph.Height(12),
			asciigraph.Width(cur.style.Width),
			asciigraph.SeriesColors(asciigraph.Cyan, asciigraph.Magenta),
			asciigraph.Caption("x(t) cyan, y(t) magenta"),
		))
		fmt.Println(cur.style.Lines("phase plane", path))
		if tr.Truncated {
			fmt.Println(cur.style.Warn.Render("trajectory diverged and was truncated"))
		}
		if tr.Err != "" {
			fmt.Println(cur.style.Warn.Render(tr.Err))
		}
	}); err != nil {
		return err
	}

	if saveResult {
		return saveRun("compute_trajectory", sys.name(), nil, tr, nil)
	}
	return nil
}

// boundsOf returns a square view around pts with a margin.
func boundsOf(pts []analysis.Point2) ([2]float64, [2]float64) {
	v := render.Fit(pts)
	return [2]float64{v.MinX - 0.5, v.MaxX + 0.5}, [2]float64{v.MinY - 0.5, v.MaxY + 0.5}
}

func nonlinearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nonlinear",
		Short: "find and classify equilibria of dx/dt = f(x,y), dy/dt = g(x,y)",
		Args:  cobra.NoArgs,
		RunE:  runNonlinear,
	}
	addPlanarFlags(cmd)
	cmd.Flags().StringVar(&viewRange, "range", "-5,5", "x and y range lo,hi for the portrait")
	cmd.Flags().StringVar(&svgPath, "svg", "", "write the phase portrait as SVG")
	return cmd
}

func runNonlinear(cmd *cobra.Command, args []string) error {
	sys, _, err := resolvePlanar(nil)
	if err != nil {
		return err
	}
	nl, ok := sys.(nonlinearSystem)
	if !ok {
		return fmt.Errorf("%q is a linear preset; use the linear command", presetName)
	}
	rng, err := parseRange(viewRange)
	if err != nil {
		return err
	}

	report := nl.Analyze()
	vf := nl.EvaluateGrid(rng, rng, 20)
	if err := writeSVG(cur.style.FieldSVG(vf, nl.equilibria())); err != nil {
		return err
	}

	return emit(report, func() {
		st := cur.style
		fmt.Println(st.Header("dx/dt = " + report.DxDt + ",  dy/dt = " + report.DyDt))
		j := report.Jacobian
		fmt.Println(st.KV(
			[2]string{"∂f/∂x", j[0][0]}, [2]string{"∂f/∂y", j[0][1]},
			[2]string{"∂g/∂x", j[1][0]}, [2]string{"∂g/∂y", j[1][1]},
		))
		fmt.Println()
		if len(report.Equilibria) == 0 {
			fmt.Println(st.Muted.Render("no equilibria found"))
		}
		for _, eq := range report.Equilibria {
			eigs := make([]string, len(eq.Eigenvalues))
			for i, v := range eq.Eigenvalues {
				eigs[i] = fmt.Sprintf("%.3f%+.3fi", v.Real, v.Imag)
			}
			fmt.Printf("  (%8.4f, %8.4f)  %-14s λ = %s  [%s]\n", eq.X, eq.Y, eq.Class, strings.Join(eigs, ", "), eq.Source)
		}
		fmt.Println(st.Quiver("phase portrait", nl.EvaluateGrid(rng, rng, 15), nl.equilibria()))
	})
}
