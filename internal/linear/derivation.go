package linear

import (
	"fmt"
	"math"

	"github.com/san-kum/dynlab/internal/dynamo"
)

type Polynomial struct {
	Steps        []string   `json:"steps"`
	Coefficients [3]float64 `json:"polynomial_coeffs"`
	Discriminant float64    `json:"discriminant"`
}

type EigenSteps struct {
	Steps       []string         `json:"steps"`
	Eigenvalues []dynamo.Complex `json:"eigenvalues"`
}

// PortraitClass is the eigenvalue-based description of the phase portrait.
type PortraitClass struct {
	Type        dynamo.StabilityClass `json:"type"`
	Description string                `json:"description"`
	Properties  []string              `json:"mathematical_properties"`
}

// Derivation is the step-by-step worked analysis of the matrix.
type Derivation struct {
	CharacteristicPolynomial Polynomial       `json:"characteristic_polynomial"`
	EigenvalueCalculation    EigenSteps       `json:"eigenvalue_calculation"`
	StabilityAnalysis        Classification   `json:"stability_analysis"`
	PhasePortrait            PortraitClass    `json:"phase_portrait_classification"`
	Lyapunov                 LyapunovAnalysis `json:"lyapunov_analysis"`
}

func (an *Analyzer) Derivation() Derivation {
	return Derivation{
		CharacteristicPolynomial: an.characteristicPolynomial(),
		EigenvalueCalculation:    an.eigenvalueSteps(),
		StabilityAnalysis:        an.Classify(),
		PhasePortrait:            an.portraitClass(),
		Lyapunov:                 an.LyapunovFunction(),
	}
}

func (an *Analyzer) characteristicPolynomial() Polynomial {
	a := an.a
	return Polynomial{
		Steps: []string{
			"characteristic polynomial: det(A - λI) = 0",
			fmt.Sprintf("det([%.3f - λ, %.3f; %.3f, %.3f - λ]) = 0", a[0][0], a[0][1], a[1][0], a[1][1]),
			fmt.Sprintf("(%.3f - λ)(%.3f - λ) - (%.3f)(%.3f) = 0", a[0][0], a[1][1], a[0][1], a[1][0]),
			fmt.Sprintf("λ² - (%.3f)λ + (%.3f) = 0", an.trace, an.det),
			fmt.Sprintf("discriminant Δ = (%.3f)² - 4(%.3f) = %.3f", an.trace, an.det, an.disc),
		},
		Coefficients: [3]float64{1, -an.trace, an.det},
		Discriminant: an.disc,
	}
}

func (an *Analyzer) eigenvalueSteps() EigenSteps {
	var steps []string
	if an.disc >= 0 {
		s := math.Sqrt(an.disc)
		steps = []string{
			"quadratic formula: λ = (tr(A) ± √Δ) / 2",
			fmt.Sprintf("λ₁ = (%.3f + √%.3f) / 2 = %.4f", an.trace, an.disc, (an.trace+s)/2),
			fmt.Sprintf("λ₂ = (%.3f - √%.3f) / 2 = %.4f", an.trace, an.disc, (an.trace-s)/2),
		}
	} else {
		alpha := an.trace / 2
		beta := math.Sqrt(-an.disc) / 2
		steps = []string{
			"complex eigenvalues: λ = (tr(A) ± i√|Δ|) / 2",
			fmt.Sprintf("real part: α = %.4f", alpha),
			fmt.Sprintf("imaginary part: β = ±%.4f", beta),
			fmt.Sprintf("λ₁,₂ = %.4f ± %.4fi", alpha, beta),
		}
	}
	vals := make([]dynamo.Complex, len(an.eigen.Values))
	for i, v := range an.eigen.Values {
		vals[i] = dynamo.ToComplex(v)
	}
	return EigenSteps{Steps: steps, Eigenvalues: vals}
}

var portraitText = map[dynamo.StabilityClass]struct {
	desc  string
	props []string
}{
	dynamo.StableNode: {"all trajectories converge to the origin", []string{
		"λ₁, λ₂ < 0 (real)", "the origin is globally asymptotically stable", "trajectories approach along eigendirections"}},
	dynamo.UnstableNode: {"all trajectories diverge from the origin", []string{
		"λ₁, λ₂ > 0 (real)", "the origin is unstable", "trajectories leave along eigendirections"}},
	dynamo.Saddle: {"stable in some directions, unstable in others", []string{
		"λ₁ > 0, λ₂ < 0", "stable and unstable manifolds exist", "hyperbolic equilibrium"}},
	dynamo.StableFocus: {"trajectories spiral into the origin", []string{
		"λ = α ± βi, α < 0", "spiralling convergence", "the origin is asymptotically stable"}},
	dynamo.UnstableFocus: {"trajectories spiral outwards", []string{
		"λ = α ± βi, α > 0", "spiralling divergence", "the origin is unstable"}},
	dynamo.Center: {"trajectories form closed ellipses", []string{
		"λ = ±βi (purely imaginary)", "periodic motion", "Lyapunov stable"}},
}

func (an *Analyzer) portraitClass() PortraitClass {
	class := ClassifyEigenvalues(an.eigen.Values[:])
	if class == dynamo.Unclassified {
		// A zero eigenvalue: the table verdict is the more informative label.
		return PortraitClass{
			Type:        an.Classify().Class,
			Description: "non-hyperbolic equilibrium; linearisation is inconclusive",
			Properties:  []string{"at least one eigenvalue has zero real part"},
		}
	}
	text := portraitText[class]
	return PortraitClass{Type: class, Description: text.desc, Properties: text.props}
}
