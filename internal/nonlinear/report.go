package nonlinear

import "github.com/san-kum/dynlab/internal/dynamo"

type EquilibriumReport struct {
	Equilibrium
	Class       dynamo.StabilityClass `json:"classification"`
	Jacobian    [2][2]float64         `json:"jacobian"`
	Eigenvalues []dynamo.Complex      `json:"eigenvalues"`
}

// Report is the full equilibrium analysis of the system.
type Report struct {
	DxDt       string              `json:"dx_dt"`
	DyDt       string              `json:"dy_dt"`
	Jacobian   [2][2]string        `json:"jacobian"`
	Equilibria []EquilibriumReport `json:"equilibrium_points"`
}

func (a *Analyzer) Analyze() Report {
	r := Report{DxDt: a.dxdt, DyDt: a.dydt, Jacobian: a.JacobianText()}
	for _, p := range a.equilibria {
		er := EquilibriumReport{
			Equilibrium: p,
			Class:       a.Classify(p),
			Jacobian:    a.Jacobian(p.X, p.Y),
		}
		for _, v := range a.Eigenvalues(p) {
			er.Eigenvalues = append(er.Eigenvalues, dynamo.ToComplex(v))
		}
		r.Equilibria = append(r.Equilibria, er)
	}
	return r
}
