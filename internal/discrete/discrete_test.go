package discrete

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/dynlab/internal/dynamo"
)

func TestNewMergesDefaults(t *testing.T) {
	m, err := New(Henon, Params{"a": 1.2})
	require.NoError(t, err)
	assert.Equal(t, 1.2, m.Params()["a"])
	assert.Equal(t, 0.3, m.Params()["b"])
	assert.Equal(t, 2, m.Dimension())

	_, err = New(Logistic, Params{"q": 1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, dynamo.InvalidInput))
	assert.True(t, errors.Is(err, dynamo.ErrUnknownParam))
}

func TestParseKind(t *testing.T) {
	for _, name := range KindNames() {
		k, err := ParseKind(name)
		require.NoError(t, err)
		assert.Equal(t, name, k.String())
	}
	_, err := ParseKind("baker")
	assert.ErrorIs(t, err, dynamo.ErrUnknownKind)
}

func TestIterateIsDeterministic(t *testing.T) {
	m := MustNew(Logistic, Params{"r": 3.9})
	a := m.Iterate(dynamo.State{0.2}, 100)
	b := m.Iterate(dynamo.State{0.2}, 100)
	require.Len(t, a, 101)
	assert.Equal(t, a, b)
}

func TestIterateStopsOnDivergence(t *testing.T) {
	m := MustNew(Quadratic, Params{"c": 0})
	orbit := m.Iterate(dynamo.State{3}, 50)
	assert.Less(t, len(orbit), 51)
	assert.Greater(t, orbit[len(orbit)-1].MaxAbs(), divergenceBound)
}

func TestIterateRejectsBadRequests(t *testing.T) {
	assert.Nil(t, MustNew(Logistic, nil).Iterate(dynamo.State{0.5}, -1))
	assert.Nil(t, MustNew(Logistic, nil).Iterate(dynamo.State{0.5}, dynamo.MaxSamples))
	assert.Nil(t, MustNew(Henon, nil).Iterate(dynamo.State{0.1}, 10))
	assert.Nil(t, MustNew(Henon, nil).ReturnMap(dynamo.State{0.1}, 10, 1))
	assert.Nil(t, MustNew(Logistic, nil).ReturnMap(dynamo.State{0.5}, -5, 1))
}

func TestQuadraticFixedPoints(t *testing.T) {
	m := MustNew(Quadratic, nil)
	fps := m.FindFixedPoints([2]float64{-2, 2}, 100)
	require.Len(t, fps, 2)

	var sawZero, sawOne bool
	for _, fp := range fps {
		st := m.AnalyzeStability(fp)
		switch {
		case math.Abs(fp[0]) < 1e-6:
			sawZero = true
			assert.Equal(t, dynamo.VerdictStable, st.Verdict)
		case math.Abs(fp[0]-1) < 1e-6:
			sawOne = true
			assert.Equal(t, dynamo.VerdictUnstable, st.Verdict)
			require.NotNil(t, st.Multiplier)
			assert.InDelta(t, 2, *st.Multiplier, 1e-5)
		}
	}
	assert.True(t, sawZero, "fixed point at 0")
	assert.True(t, sawOne, "fixed point at 1")
}

func TestHenonFixedPoints(t *testing.T) {
	m := MustNew(Henon, nil)
	fps := m.FindFixedPoints(DefaultSearchRange, DefaultFixedPointSamples)
	require.NotEmpty(t, fps)

	want := []float64{0.6314, -1.1314}
	for _, fp := range fps {
		fx := m.Apply(fp)
		assert.InDelta(t, fp[0], fx[0], 1e-6)
		assert.InDelta(t, fp[1], fx[1], 1e-6)
		matched := false
		for _, w := range want {
			if math.Abs(fp[0]-w) < 1e-3 {
				matched = true
			}
		}
		assert.True(t, matched, "unexpected fixed point %v", fp)

		st := m.AnalyzeStability(fp)
		require.NotNil(t, st.MaxEigenvalue)
		assert.Len(t, st.Eigenvalues, 2)
		assert.Equal(t, dynamo.VerdictUnstable, st.Verdict)
	}
}

func TestLogisticLyapunov(t *testing.T) {
	stable := MustNew(Logistic, Params{"r": 2})
	est, err := stable.LyapunovExponent(dynamo.State{0.5}, 1000)
	require.NoError(t, err)
	assert.Less(t, est.Exponent, 0.0)
	assert.False(t, est.Chaotic)

	chaotic := MustNew(Logistic, Params{"r": 4})
	est, err = chaotic.LyapunovExponent(dynamo.State{0.3}, 2000)
	require.NoError(t, err)
	assert.Greater(t, est.Exponent, 0.3)
	assert.True(t, est.Chaotic)
	assert.Equal(t, "based on 2000 iterations", est.Info)
}

func TestHenonLyapunovSpectrum(t *testing.T) {
	m := MustNew(Henon, nil)
	est, err := m.LyapunovExponent(dynamo.State{0.1, 0.1}, 2000)
	require.NoError(t, err)
	require.Len(t, est.Exponents, 2)
	assert.Greater(t, est.Exponent, 0.2)
	// The exponents sum to log|det J| = log 0.3.
	assert.InDelta(t, math.Log(0.3), est.Exponents[0]+est.Exponents[1], 0.05)
}

func TestLyapunovRejectsWrongDimension(t *testing.T) {
	m := MustNew(Henon, nil)
	_, err := m.LyapunovExponent(dynamo.State{0.1}, 10)
	assert.ErrorIs(t, err, dynamo.InvalidInput)
}

func TestPeriodTwoOrbit(t *testing.T) {
	// The tent map with mu=2 has the 2-cycle {0.4, 0.8}, which lies on the
	// seed grid.
	m := MustNew(Tent, nil)
	orbits := m.DetectPeriodicOrbits(2, [2]float64{0, 1}, 11)
	require.Contains(t, orbits, 2)

	found := false
	for _, o := range orbits[2] {
		require.Len(t, o, 2)
		lo, hi := math.Min(o[0], o[1]), math.Max(o[0], o[1])
		if math.Abs(lo-0.4) < 1e-9 && math.Abs(hi-0.8) < 1e-9 {
			found = true
		}
	}
	assert.True(t, found, "2-cycle {0.4, 0.8} not detected in %v", orbits[2])

	assert.Empty(t, MustNew(Henon, nil).DetectPeriodicOrbits(4, DefaultSearchRange, 50))
}

func TestBifurcationCascade(t *testing.T) {
	m := MustNew(Logistic, nil)
	pts, err := m.Bifurcation("r", [2]float64{2.8, 3.5}, 3, dynamo.State{0.5}, 1000, 64)
	require.NoError(t, err)
	require.Len(t, pts, 3)

	distinct := func(vals []float64) int {
		var seen []float64
		for _, v := range vals {
			dup := false
			for _, s := range seen {
				if math.Abs(s-v) < 1e-3 {
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
	// r=2.8 settles on one point, r=3.15 on two, r=3.5 on four.
	assert.Equal(t, 1, distinct(pts[0].Values))
	assert.Equal(t, 2, distinct(pts[1].Values))
	assert.Equal(t, 4, distinct(pts[2].Values))
	assert.Equal(t, 3.5, m.Params()["r"])
}

func TestBifurcationKeepsParameterOrder(t *testing.T) {
	m := MustNew(Logistic, nil)
	pts, err := m.Bifurcation("r", [2]float64{2.5, 4}, 200, dynamo.State{0.5}, 100, 10)
	require.NoError(t, err)
	require.Len(t, pts, 200)
	for i := 1; i < len(pts); i++ {
		assert.Greater(t, pts[i].Param, pts[i-1].Param)
	}
	assert.Equal(t, 2.5, pts[0].Param)
	assert.Equal(t, 4.0, pts[199].Param)
	assert.Equal(t, 3.5, m.Params()["r"])
}

func TestBifurcationRejectsOversizedSweeps(t *testing.T) {
	m := MustNew(Logistic, nil)
	_, err := m.Bifurcation("r", [2]float64{2.5, 4}, 100_000, dynamo.State{0.5}, 10, 100)
	assert.ErrorIs(t, err, dynamo.InvalidInput)
	_, err = m.Bifurcation("r", [2]float64{2.5, 4}, 10, dynamo.State{0.5}, -1, 10)
	assert.ErrorIs(t, err, dynamo.InvalidInput)
}

func TestBifurcationUnknownParam(t *testing.T) {
	m := MustNew(Logistic, nil)
	_, err := m.Bifurcation("mu", [2]float64{0, 1}, 10, dynamo.State{0.5}, 10, 10)
	assert.ErrorIs(t, err, dynamo.ErrUnknownParam)
}

func TestHenonBifurcationRecordsFirstCoordinate(t *testing.T) {
	m := MustNew(Henon, nil)
	pts, err := m.Bifurcation("a", [2]float64{0.8, 1.4}, 5, dynamo.State{0.5}, 200, 100)
	require.NoError(t, err)
	for _, p := range pts {
		assert.Empty(t, p.Err)
		assert.NotEmpty(t, p.Values)
	}
	assert.Equal(t, 1.4, m.Params()["a"])
}

func TestCobweb(t *testing.T) {
	m := MustNew(Logistic, Params{"r": 2.5})
	cw, err := m.Cobweb(0.2, 20)
	require.NoError(t, err)
	assert.Equal(t, 0.2, cw.X[0])
	assert.Equal(t, 0.2, cw.Y[0])
	assert.Len(t, cw.X, 41)
	assert.Equal(t, 20, cw.NSteps)
	// Vertical move to the graph, then horizontal to the diagonal.
	assert.InDelta(t, m.apply1(0.2), cw.Y[1], 1e-12)
	assert.Equal(t, cw.Y[1], cw.X[2])

	_, err = MustNew(Henon, nil).Cobweb(0.1, 10)
	assert.ErrorIs(t, err, dynamo.UnsupportedConfiguration)

	_, err = m.Cobweb(0.2, -1)
	assert.ErrorIs(t, err, dynamo.InvalidInput)
	_, err = m.Cobweb(0.2, dynamo.MaxSamples)
	assert.ErrorIs(t, err, dynamo.InvalidInput)
}

func TestCobwebDrawsDivergentStep(t *testing.T) {
	// x² from 10: 100, 1e4, 1e8; the last one crosses the bound.
	cw, err := MustNew(Quadratic, Params{"c": 0}).Cobweb(10, 20)
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 10, 100, 100, 1e4, 1e4, 1e8}, cw.X)
	assert.Equal(t, []float64{10, 100, 100, 1e4, 1e4, 1e8, 1e8}, cw.Y)
	assert.Equal(t, 3, cw.NSteps)
}

func TestReturnMap(t *testing.T) {
	m := MustNew(Logistic, Params{"r": 3.9})
	rm := m.ReturnMap(dynamo.State{0.3}, 200, 1)
	require.NotNil(t, rm)
	assert.Equal(t, 200, rm.TotalPoints)
	for i := range rm.XN {
		assert.InDelta(t, m.apply1(rm.XN[i]), rm.XNPlusDelay[i], 1e-12)
	}

	// A converging orbit is cut once it settles, keeping at least 150 points.
	settled := MustNew(Logistic, Params{"r": 2}).ReturnMap(dynamo.State{0.3}, 500, 1)
	require.NotNil(t, settled)
	assert.Equal(t, 149, settled.TotalPoints)

	assert.Nil(t, m.ReturnMap(dynamo.State{0.3}, 0, 1))
}

func TestPhasePortrait2D(t *testing.T) {
	orbit, err := MustNew(Henon, nil).PhasePortrait2D(dynamo.State{0.1, 0.1}, 500)
	require.NoError(t, err)
	assert.Len(t, orbit, 501)

	_, err = MustNew(Rotation2D, nil).PhasePortrait2D(dynamo.State{1, 0}, 10)
	assert.ErrorIs(t, err, dynamo.UnsupportedConfiguration)

	_, err = MustNew(Henon, nil).PhasePortrait2D(dynamo.State{0.1}, 10)
	assert.ErrorIs(t, err, dynamo.InvalidInput)
	_, err = MustNew(Henon, nil).PhasePortrait2D(dynamo.State{0.1, 0.1}, -3)
	assert.ErrorIs(t, err, dynamo.InvalidInput)
}

func TestMapCurve(t *testing.T) {
	c, err := MustNew(Tent, nil).MapCurve(0, 1, 11)
	require.NoError(t, err)
	assert.InDelta(t, 1, c.Y[5], 1e-6)
	assert.Equal(t, c.X, c.Identity)
}

func TestAnalyzeReport(t *testing.T) {
	r := MustNew(Logistic, Params{"r": 3.5}).Analyze()
	assert.Len(t, r.Stability, len(r.FixedPoints))
	require.NotNil(t, r.Lyapunov)
	assert.Less(t, r.Lyapunov.Exponent, 0.0)

	spec := Spec{Kind: Henon}
	m, err := spec.Build()
	require.NoError(t, err)
	r = m.Analyze()
	require.NotNil(t, r.Lyapunov)
	assert.Len(t, r.Lyapunov.Exponents, 2)
}
