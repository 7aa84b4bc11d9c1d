package shell

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/san-kum/dynlab/internal/analysis"
	"github.com/san-kum/dynlab/internal/chaos"
	"github.com/san-kum/dynlab/internal/config"
	"github.com/san-kum/dynlab/internal/discrete"
	"github.com/san-kum/dynlab/internal/dynamo"
	"github.com/san-kum/dynlab/internal/linear"
	"github.com/san-kum/dynlab/internal/nonlinear"
	"github.com/san-kum/dynlab/internal/render"
)

var errQuit = errors.New("quit")

// Session interprets shell lines and writes results to out. It holds the
// equations entered so far; everything else is recomputed per command.
type Session struct {
	out   io.Writer
	style render.Style
	seed  int64

	dxdt string
	dydt string
}

func NewSession(out io.Writer, style render.Style, seed int64) *Session {
	return &Session{out: out, style: style, seed: seed}
}

// Equations returns the current dx/dt and dy/dt text.
func (s *Session) Equations() (string, string) { return s.dxdt, s.dydt }

// Exec runs one line. It returns errQuit for :quit; any other error is a
// user mistake to print and carry on from.
func (s *Session) Exec(line string) error {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}
	if strings.HasPrefix(line, ":") {
		return s.command(strings.Fields(line))
	}
	return s.equation(line)
}

func (s *Session) command(parts []string) error {
	args := parts[1:]
	switch parts[0] {
	case ":quit", ":exit", ":q":
		return errQuit
	case ":help", ":h":
		s.printHelp()
	case ":matrix":
		return s.matrix(args)
	case ":map":
		return s.discreteMap(args)
	case ":flow":
		return s.flow(args)
	case ":analyze":
		return s.analyzeNonlinear()
	case ":clear":
		s.dxdt, s.dydt = "", ""
		fmt.Fprintln(s.out, "equations cleared")
	case ":show":
		fmt.Fprintln(s.out, s.style.KV([2]string{"dx/dt", orDash(s.dxdt)}, [2]string{"dy/dt", orDash(s.dydt)}))
	case ":presets":
		s.printPresets(args)
	case ":preset":
		return s.loadPreset(args)
	default:
		return fmt.Errorf("unknown command %s (try :help)", parts[0])
	}
	return nil
}

// equation accepts "dx/dt = ...", "dy/dt = ...", or the short forms
// "x' = ..." and "y' = ...". Once both are set the system is analysed.
func (s *Session) equation(line string) error {
	lhs, rhs, ok := strings.Cut(line, "=")
	if !ok {
		return fmt.Errorf("expected dx/dt = <expr> or dy/dt = <expr>, got %q", line)
	}
	rhs = strings.TrimSpace(rhs)
	if rhs == "" {
		return errors.New("empty right-hand side")
	}
	switch strings.ReplaceAll(strings.TrimSpace(lhs), " ", "") {
	case "dx/dt", "dx", "x'":
		s.dxdt = rhs
	case "dy/dt", "dy", "y'":
		s.dydt = rhs
	default:
		return fmt.Errorf("unknown left-hand side %q", strings.TrimSpace(lhs))
	}
	if s.dxdt == "" || s.dydt == "" {
		return nil
	}
	return s.analyzeNonlinear()
}

func (s *Session) analyzeNonlinear() error {
	if s.dxdt == "" || s.dydt == "" {
		return errors.New("enter both dx/dt and dy/dt first")
	}
	an, err := nonlinear.New(s.dxdt, s.dydt)
	if err != nil {
		return err
	}
	report := an.Analyze()

	fmt.Fprintln(s.out, s.style.Header("nonlinear system"))
	fmt.Fprintln(s.out, s.style.KV(
		[2]string{"dx/dt", report.DxDt},
		[2]string{"dy/dt", report.DyDt},
		[2]string{"J", fmt.Sprintf("[[%s, %s], [%s, %s]]", report.Jacobian[0][0], report.Jacobian[0][1], report.Jacobian[1][0], report.Jacobian[1][1])},
	))
	if len(report.Equilibria) == 0 {
		fmt.Fprintln(s.out, "no equilibria found")
	}
	markers := make([]analysis.Point2, 0, len(report.Equilibria))
	for _, eq := range report.Equilibria {
		fmt.Fprintf(s.out, "  (%.4f, %.4f)  %-14s %s\n", eq.X, eq.Y, eq.Class, eq.Source)
		markers = append(markers, analysis.Point2{X: eq.X, Y: eq.Y})
	}

	vf := an.EvaluateGrid([2]float64{-5, 5}, [2]float64{-5, 5}, 15)
	fmt.Fprintln(s.out, s.style.Quiver("phase portrait", vf, markers))
	return nil
}

func (s *Session) matrix(args []string) error {
	vals, err := floats(args)
	if err != nil || len(vals) != 4 {
		return errors.New("usage: :matrix a b c d")
	}
	an := linear.New(linear.Matrix2x2{{vals[0], vals[1]}, {vals[2], vals[3]}})
	c := an.Classify()
	eig := an.Eigen().Formatted()

	fmt.Fprintln(s.out, s.style.Header("linear system"))
	fmt.Fprintln(s.out, s.style.KV(
		[2]string{"class", c.Class.String()},
		[2]string{"trace", fmt.Sprintf("%.4f", c.Trace)},
		[2]string{"det", fmt.Sprintf("%.4f", c.Determinant)},
		[2]string{"λ1", eig[0]},
		[2]string{"λ2", eig[1]},
	))
	for _, r := range c.Reasoning {
		fmt.Fprintln(s.out, "  "+r)
	}
	vf := an.SampleVectorField([2]float64{-3.5, 3.5}, [2]float64{-3.5, 3.5}, 15)
	fmt.Fprintln(s.out, s.style.Quiver("phase portrait", vf, []analysis.Point2{{X: 0, Y: 0}}))
	return nil
}

// discreteMap handles ":map kind [k=v ...]".
func (s *Session) discreteMap(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: :map kind [k=v ...] (kinds: %s)", strings.Join(discrete.KindNames(), ", "))
	}
	kind, err := discrete.ParseKind(args[0])
	if err != nil {
		return err
	}
	params, err := assignments(args[1:])
	if err != nil {
		return err
	}
	m, err := discrete.New(kind, params)
	if err != nil {
		return err
	}
	r := m.Analyze()

	fmt.Fprintln(s.out, s.style.Header(kind.String()+" map"))
	for i, fp := range r.FixedPoints {
		fmt.Fprintf(s.out, "  fixed point %v  %s\n", formatState(fp), r.Stability[i].Verdict)
	}
	periods := make([]int, 0, len(r.PeriodicOrbits))
	for p := range r.PeriodicOrbits {
		periods = append(periods, p)
	}
	sort.Ints(periods)
	for _, p := range periods {
		fmt.Fprintf(s.out, "  period-%d orbits: %d\n", p, len(r.PeriodicOrbits[p]))
	}
	if r.Lyapunov != nil {
		fmt.Fprintln(s.out, s.style.KV(
			[2]string{"lyapunov", fmt.Sprintf("%.4f", r.Lyapunov.Exponent)},
			[2]string{"chaotic", strconv.FormatBool(r.Lyapunov.Chaotic)},
		))
	}

	orbit := m.Iterate(discrete.LyapunovStart(m.Dimension()), 200)
	if m.Dimension() == 1 {
		xs := make([]float64, len(orbit))
		for i, x := range orbit {
			xs[i] = x[0]
		}
		fmt.Fprintln(s.out, s.style.Sparkline(xs, 60))
	} else {
		pts := make([]analysis.Point2, 0, len(orbit))
		for _, x := range orbit {
			pts = append(pts, analysis.Point2{X: x[0], Y: x[1]})
		}
		fmt.Fprintln(s.out, s.style.Scatter("orbit", pts))
	}
	return nil
}

// flow handles ":flow kind [k=v ...]".
func (s *Session) flow(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: :flow kind [k=v ...] (kinds: %s)", strings.Join(chaos.FlowNames(), ", "))
	}
	kind, err := chaos.ParseFlowKind(args[0])
	if err != nil {
		return err
	}
	params, err := assignments(args[1:])
	if err != nil {
		return err
	}
	f, err := chaos.NewFlow(kind, params)
	if err != nil {
		return err
	}
	an := chaos.NewAnalyzer(f, chaos.WithSeed(s.seed))
	tr, err := an.IntegrateTrajectory(f.DefaultState(), [2]float64{0, 50}, 0.01)
	if err != nil {
		return err
	}
	exps, err := an.LyapunovExponents(f.DefaultState(), [2]float64{0, 100}, 0.01)
	if err != nil {
		return err
	}

	fmt.Fprintln(s.out, s.style.Attractor(kind.String(), tr))
	fmt.Fprintln(s.out, s.style.KV(
		[2]string{"λ1", fmt.Sprintf("%.4f", exps.Lambda1)},
		[2]string{"λ2", fmt.Sprintf("%.4f", exps.Lambda2)},
		[2]string{"λ3", fmt.Sprintf("%.4f", exps.Lambda3)},
		[2]string{"samples", strconv.Itoa(tr.Len())},
	))
	if tr.Truncated {
		fmt.Fprintln(s.out, "trajectory diverged and was truncated")
	}
	return nil
}

func (s *Session) printPresets(args []string) {
	families := config.Families()
	if len(args) > 0 {
		families = args
	}
	for _, family := range families {
		names := config.ListPresets(family)
		if names == nil {
			fmt.Fprintf(s.out, "unknown family %q\n", family)
			continue
		}
		fmt.Fprintf(s.out, "%s: %s\n", family, strings.Join(names, ", "))
	}
}

// loadPreset runs ":preset family/name" by replaying the preset as the
// matching command.
func (s *Session) loadPreset(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: :preset family/name")
	}
	family, name, _ := strings.Cut(args[0], "/")
	p := config.GetPreset(family, name)
	if p == nil {
		return fmt.Errorf("unknown preset %q", args[0])
	}
	fmt.Fprintln(s.out, p.Description)

	switch {
	case p.Matrix != nil:
		m := p.Matrix
		return s.matrix(formatArgs(m[0][0], m[0][1], m[1][0], m[1][1]))
	case p.DxDt != "":
		s.dxdt, s.dydt = p.DxDt, p.DyDt
		return s.analyzeNonlinear()
	case p.Map != nil:
		return s.discreteMap(append([]string{p.Map.Kind.String()}, paramArgs(p.Map.Params)...))
	case p.Flow != nil:
		return s.flow(append([]string{p.Flow.Kind.String()}, paramArgs(p.Flow.Params)...))
	}
	return nil
}

func (s *Session) printHelp() {
	fmt.Fprint(s.out, `Enter a planar system one equation per line:
  dx/dt = y
  dy/dt = -sin(x)
Commands:
  :matrix a b c d         classify the linear system [[a b] [c d]]
  :map kind [k=v ...]     analyse a discrete map
  :flow kind [k=v ...]    integrate a chaotic flow
  :analyze                re-run the nonlinear analysis
  :show, :clear           show or forget the equations
  :presets [family]       list presets
  :preset family/name     load a preset
  :help, :quit
`)
}

func floats(args []string) ([]float64, error) {
	out := make([]float64, len(args))
	for i, a := range args {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", a)
		}
		out[i] = v
	}
	return out, nil
}

func assignments(args []string) (map[string]float64, error) {
	out := make(map[string]float64, len(args))
	for _, a := range args {
		k, v, ok := strings.Cut(a, "=")
		if !ok {
			return nil, fmt.Errorf("expected name=value, got %q", a)
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %q is not a number", k, v)
		}
		out[k] = f
	}
	return out, nil
}

func formatArgs(vals ...float64) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return out
}

func paramArgs(params map[string]float64) []string {
	names := make([]string, 0, len(params))
	for k := range params {
		names = append(names, k)
	}
	sort.Strings(names)
	out := make([]string, len(names))
	for i, k := range names {
		out[i] = k + "=" + strconv.FormatFloat(params[k], 'g', -1, 64)
	}
	return out
}

func formatState(x dynamo.State) string {
	parts := make([]string, len(x))
	for i, v := range x {
		parts[i] = fmt.Sprintf("%.4f", v)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
