package dynamo

import "math"

// Complex is a JSON-friendly complex number.
type Complex struct {
	Real float64 `json:"real"`
	Imag float64 `json:"imag"`
}

func ToComplex(z complex128) Complex {
	return Complex{Real: real(z), Imag: imag(z)}
}

// VectorField holds velocity samples on a rectangular grid. U[i][j] and
// V[i][j] are the components at (X[j], Y[i]).
type VectorField struct {
	X []float64   `json:"x"`
	Y []float64   `json:"y"`
	U [][]float64 `json:"u"`
	V [][]float64 `json:"v"`
}

// SampleField evaluates f on a gridSize x gridSize grid over the given
// ranges. Non-finite components are replaced by zero. A grid with more than
// MaxSamples cells yields an empty field.
func SampleField(f func(x, y float64) (float64, float64), xRange, yRange [2]float64, gridSize int) VectorField {
	if CheckSamples("grid_size²", float64(gridSize)*float64(gridSize)) != nil {
		return VectorField{}
	}
	vf := VectorField{
		X: Linspace(xRange[0], xRange[1], gridSize),
		Y: Linspace(yRange[0], yRange[1], gridSize),
	}
	vf.U = make([][]float64, len(vf.Y))
	vf.V = make([][]float64, len(vf.Y))
	for i, y := range vf.Y {
		vf.U[i] = make([]float64, len(vf.X))
		vf.V[i] = make([]float64, len(vf.X))
		for j, x := range vf.X {
			u, v := f(x, y)
			vf.U[i][j] = finiteOr0(u)
			vf.V[i][j] = finiteOr0(v)
		}
	}
	return vf
}

// MaxMagnitude is the largest sample speed, used to scale arrows.
func (vf VectorField) MaxMagnitude() float64 {
	m := 0.0
	for i := range vf.U {
		for j := range vf.U[i] {
			m = math.Max(m, math.Hypot(vf.U[i][j], vf.V[i][j]))
		}
	}
	return m
}

func finiteOr0(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
