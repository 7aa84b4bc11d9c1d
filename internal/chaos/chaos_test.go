package chaos_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/dynlab/internal/analysis"
	"github.com/san-kum/dynlab/internal/chaos"
	"github.com/san-kum/dynlab/internal/dynamo"
)

var _ = Describe("Flows", func() {
	It("round-trips kind names", func() {
		for _, name := range chaos.FlowNames() {
			k, err := chaos.ParseFlowKind(name)
			Expect(err).NotTo(HaveOccurred())
			Expect(k.String()).To(Equal(name))
		}
		_, err := chaos.ParseFlowKind("duffing")
		Expect(err).To(MatchError(dynamo.ErrUnknownKind))
	})

	It("applies parameters over defaults", func() {
		f, err := chaos.NewFlow(chaos.Lorenz, map[string]float64{"rho": 14})
		Expect(err).NotTo(HaveOccurred())
		Expect(f.GetParams()).To(HaveKeyWithValue("rho", 14.0))
		Expect(f.GetParams()).To(HaveKeyWithValue("sigma", 10.0))
	})

	It("rejects unknown parameters", func() {
		_, err := chaos.NewFlow(chaos.Thomas, map[string]float64{"a": 1})
		Expect(err).To(MatchError(dynamo.ErrUnknownParam))
		Expect(dynamo.KindOf(err)).To(Equal(dynamo.KindInvalidInput))
	})

	DescribeTable("evaluates the vector field",
		func(kind chaos.FlowKind, want dynamo.State) {
			got := chaos.MustFlow(kind, nil).Derive(dynamo.State{1, 1, 1}, 0)
			Expect(got).To(HaveLen(3))
			for i := range want {
				Expect(got[i]).To(BeNumerically("~", want[i], 1e-12))
			}
		},
		Entry("lorenz", chaos.Lorenz, dynamo.State{0, 26, 1 - 8.0/3.0}),
		Entry("rossler", chaos.Rossler, dynamo.State{-2, 1.2, 0.2 - 4.7}),
		Entry("chua", chaos.Chua, dynamo.State{15.6 * (1 - 1 - (-0.714 + (-1.143+0.714))), 1, -28}),
		Entry("thomas", chaos.Thomas, dynamo.State{math.Sin(1) - 0.208186, math.Sin(1) - 0.208186, math.Sin(1) - 0.208186}),
	)
})

var _ = Describe("Analyzer", func() {
	var a *chaos.Analyzer

	BeforeEach(func() {
		a = chaos.NewAnalyzer(chaos.MustFlow(chaos.Lorenz, nil), chaos.WithSeed(7))
	})

	Context("before any integration", func() {
		It("has no Poincaré points and zero dimensions", func() {
			Expect(a.Trajectory()).To(BeNil())
			Expect(a.PoincareSection(analysis.PlaneZ, 27)).To(BeEmpty())
			Expect(a.FractalDimension("box_counting")).To(Equal(chaos.Dimensions{}))
		})

		It("refuses a spectrum", func() {
			_, err := a.PowerSpectrum(0)
			Expect(err).To(MatchError(dynamo.InvalidInput))
		})
	})

	Context("integrating the Lorenz attractor", func() {
		var tr *dynamo.Trajectory

		BeforeEach(func() {
			var err error
			tr, err = a.IntegrateTrajectory(dynamo.State{1, 1, 1}, [2]float64{0, 50}, 0.01)
			Expect(err).NotTo(HaveOccurred())
		})

		It("samples on the arange grid and caches the result", func() {
			Expect(tr.Len()).To(Equal(5000))
			Expect(tr.Times[1]).To(BeNumerically("~", 0.01, 1e-12))
			Expect(tr.States[0]).To(Equal(dynamo.State{1, 1, 1}))
			Expect(tr.Truncated).To(BeFalse())
			Expect(a.Trajectory()).To(BeIdenticalTo(tr))
		})

		It("stays on the bounded attractor", func() {
			for _, s := range tr.States {
				Expect(s.MaxAbs()).To(BeNumerically("<", 100))
			}
		})

		It("crosses the z=27 plane many times", func() {
			pts := a.PoincareSection(analysis.PlaneZ, 27)
			Expect(len(pts)).To(BeNumerically(">", 20))
			for _, p := range pts {
				Expect(math.Abs(p.X)).To(BeNumerically("<", 30))
			}
		})

		It("draws reproducible placeholder dimensions", func() {
			d := a.FractalDimension("box_counting")
			Expect(d.Box).To(BeNumerically(">=", 1.5))
			Expect(d.Box).To(BeNumerically("<=", 2.5))
			Expect(d.Correlation).To(BeNumerically("~", 0.95*d.Box, 1e-12))

			b := chaos.NewAnalyzer(chaos.MustFlow(chaos.Lorenz, nil), chaos.WithSeed(7))
			_, err := b.IntegrateTrajectory(dynamo.State{1, 1, 1}, [2]float64{0, 1}, 0.01)
			Expect(err).NotTo(HaveOccurred())
			Expect(b.FractalDimension("box_counting")).To(Equal(d))

			Expect(a.FractalDimension("correlation").Box).To(Equal(2.0))
		})
	})

	It("splits the mean Jacobian trace into the heuristic spectrum", func() {
		ex, err := a.LyapunovExponents(dynamo.State{1, 1, 1}, [2]float64{0, 20}, 0.01)
		Expect(err).NotTo(HaveOccurred())
		// The Lorenz divergence is constant: −(σ + 1 + β).
		trace := -(10 + 1 + 8.0/3.0)
		Expect(ex.Lambda1).To(BeNumerically("~", 0.6*trace, 1e-3))
		Expect(ex.Lambda2).To(BeNumerically("~", 0.1*trace, 1e-3))
		Expect(ex.Lambda3).To(BeNumerically("~", -1.2*trace, 1e-3))
		Expect(ex.Sum).To(BeNumerically("~", -0.5*trace, 1e-3))
		Expect(a.Trajectory()).To(BeNil())
	})

	It("rejects malformed initial conditions", func() {
		_, err := a.IntegrateTrajectory(dynamo.State{1, 1}, [2]float64{0, 1}, 0.01)
		Expect(err).To(MatchError(dynamo.InvalidInput))
		_, err = a.IntegrateTrajectory(dynamo.State{1, 1, 1}, [2]float64{0, 1}, 0)
		Expect(err).To(MatchError(dynamo.InvalidInput))
	})

	It("refuses sample counts above the limit before allocating", func() {
		_, err := a.IntegrateTrajectory(dynamo.State{1, 1, 1}, [2]float64{0, 50}, 1e-7)
		Expect(err).To(MatchError(dynamo.InvalidInput))
		Expect(a.Trajectory()).To(BeNil())

		_, err = a.LyapunovExponents(dynamo.State{1, 1, 1}, [2]float64{0, 1e9}, 0.01)
		Expect(err).To(MatchError(dynamo.InvalidInput))
	})

	It("finds a positive separation exponent", func() {
		lambda, err := a.SeparationExponent(dynamo.State{1, 1, 1}, 50, 0.01)
		Expect(err).NotTo(HaveOccurred())
		Expect(lambda).To(BeNumerically(">", 0.5))
		Expect(lambda).To(BeNumerically("<", 1.5))
	})
})

var _ = Describe("Rössler", func() {
	var a *chaos.Analyzer

	BeforeEach(func() {
		a = chaos.NewAnalyzer(chaos.MustFlow(chaos.Rossler, nil), chaos.WithSeed(1))
	})

	It("oscillates near 0.16 cycles per unit time", func() {
		_, err := a.IntegrateTrajectory(dynamo.State{1, 1, 1}, [2]float64{0, 200}, 0.05)
		Expect(err).NotTo(HaveOccurred())
		sp, err := a.PowerSpectrum(0)
		Expect(err).NotTo(HaveOccurred())
		Expect(sp.Dominant()).To(BeNumerically("~", 0.165, 0.025))
	})

	It("doubles the period of its peaks as c grows", func() {
		pts, err := a.PeakBifurcation(dynamo.State{1, 1, 1}, analysis.Sweep{
			Param: "c", Min: 2.5, Max: 3.5, Steps: 2,
			Component: 0, Dt: 0.01, Transient: 300, Record: 100,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(pts).To(HaveLen(2))
		Expect(distinct(pts[0].Values, 0.05)).To(Equal(1))
		Expect(distinct(pts[1].Values, 0.05)).To(Equal(2))
		Expect(a.Flow().GetParams()).To(HaveKeyWithValue("c", 5.7))
	})

	It("reports unknown sweep parameters", func() {
		_, err := a.PeakBifurcation(dynamo.State{1, 1, 1}, analysis.Sweep{Param: "rho", Steps: 2, Dt: 0.01})
		Expect(err).To(MatchError(dynamo.ErrUnknownParam))
	})
})

func distinct(vals []float64, tol float64) int {
	var seen []float64
	for _, v := range vals {
		dup := false
		for _, s := range seen {
			if math.Abs(s-v) < tol {
				dup = true
				break
			}
		}
		if !dup {
			seen = append(seen, v)
		}
	}
	return len(seen)
}
