package expr

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/dynlab/internal/dynamo"
)

func TestNormalize(t *testing.T) {
	tests := map[string]string{
		"x^2":       "x**2",
		"2x + 3y":   "2*x + 3*y",
		"(x+1)y":    "(x+1)*y",
		"x(1-y)":    "x*(1-y)",
		"sin(π x)":  "sin(pi x)",
		"y - x^3/3": "y - x**3/3",
	}
	for in, want := range tests {
		assert.Equal(t, want, Normalize(in), "input %q", in)
	}
}

func TestParseAndEval(t *testing.T) {
	tests := []struct {
		src  string
		x, y float64
		want float64
	}{
		{"x + y", 1, 2, 3},
		{"2x - 3y", 1, 1, -1},
		{"-x^2", 3, 0, -9},
		{"2^3^2", 0, 0, 512},
		{"x*(1-y)", 2, 0.5, 1},
		{"sin(pi/2) + cos(0)", 0, 0, 2},
		{"exp(1) - e", 0, 0, 0},
		{"sqrt(abs(x))", -4, 0, 2},
		{"log(e^2)", 0, 0, 2},
		{"1.5e-1*x", 2, 0, 0.3},
		{"tan(0)", 0, 0, 0},
		{"x/(1+y)", 3, 2, 1},
	}
	for _, tt := range tests {
		n, err := Parse(tt.src)
		require.NoError(t, err, tt.src)
		env := Env{"x": tt.x, "y": tt.y}
		assert.InDelta(t, tt.want, n.Eval(env), 1e-12, tt.src)
		assert.InDelta(t, tt.want, Compile(n)(tt.x, tt.y), 1e-12, tt.src)
	}
}

func TestParseErrors(t *testing.T) {
	for _, src := range []string{"x +", "x + * y", "foo(x)", "z + 1", "sin x", "(x + 1", "x $ y"} {
		_, err := Parse(src)
		require.Error(t, err, src)
		assert.True(t, errors.Is(err, dynamo.ParseError), "%q: %v", src, err)
		assert.Contains(t, err.Error(), src)
	}
}

func TestDerivative(t *testing.T) {
	tests := []struct {
		src, v string
		x, y   float64
		want   float64
	}{
		{"x^3", "x", 2, 0, 12},
		{"x*y", "y", 3, 5, 3},
		{"sin(x*y)", "x", 1, 2, 2 * math.Cos(2)},
		{"exp(2x)", "x", 0, 0, 2},
		{"log(x)", "x", 4, 0, 0.25},
		{"sqrt(x)", "x", 4, 0, 0.25},
		{"x/y", "y", 2, 4, -0.125},
		{"2^x", "x", 1, 0, 2 * math.Ln2},
		{"x^x", "x", 1, 0, 1},
		{"abs(x)", "x", -3, 0, -1},
		{"tan(x)", "x", 0, 0, 1},
		{"-cos(y)", "y", math.Pi / 2, math.Pi / 2, 1},
		{"y - x^3/3", "x", 2, 0, -4},
	}
	for _, tt := range tests {
		d := Derivative(MustParse(tt.src), tt.v)
		assert.InDelta(t, tt.want, d.Eval(Env{"x": tt.x, "y": tt.y}), 1e-12, "d/d%s %s = %s", tt.v, tt.src, d)
	}
}

func TestSimplify(t *testing.T) {
	assert.Equal(t, "0", Derivative(MustParse("y"), "x").String())
	assert.Equal(t, "-1", Derivative(MustParse("-x"), "x").String())
	assert.Equal(t, "2*x", Derivative(MustParse("x^2"), "x").String())
	assert.Equal(t, "1 - y", Derivative(MustParse("x*(1-y)"), "x").String())
}

func TestSubAndVars(t *testing.T) {
	n := MustParse("x^2 + y")
	s := n.Sub("y", MustParse("2x"))
	assert.Equal(t, map[string]bool{"x": true}, s.Vars())
	assert.InDelta(t, 8, s.Eval(Env{"x": 2}), 1e-12)
	assert.True(t, IsConstant(MustParse("pi + 1")))
	assert.True(t, Depends(n, "y"))
}

func TestPolynomial(t *testing.T) {
	c, ok := Polynomial(MustParse("(x-1)*(x+2) + 3"), "x")
	require.True(t, ok)
	assert.Equal(t, []float64{1, 1, 1}, c)

	c, ok = Polynomial(MustParse("x - x^3/3"), "x")
	require.True(t, ok)
	require.Len(t, c, 4)
	assert.InDelta(t, -1.0/3, c[3], 1e-15)

	c, ok = Polynomial(MustParse("x - x"), "x")
	require.True(t, ok)
	assert.Equal(t, []float64{0}, c)

	for _, src := range []string{"sin(x)", "1/x", "x^0.5", "x*y", "2^x"} {
		_, ok := Polynomial(MustParse(src), "x")
		assert.False(t, ok, src)
	}
}

func TestFactors(t *testing.T) {
	tests := []struct {
		src  string
		want []string
	}{
		{"x*(3 - x - 2*y)", []string{"x", "3 - x - 2*y"}},
		{"-2*x^2*(y - 1)/4", []string{"x", "y - 1"}},
		{"y*sin(x)", []string{"y", "sin(x)"}},
		{"x + y", []string{"x + y"}},
		{"x*y - 1", []string{"x*y - 1"}},
		{"3", nil},
		{"0", []string{"0"}},
	}
	env := Env{"x": 0.7, "y": -1.3}
	for _, tt := range tests {
		got := Factors(MustParse(tt.src))
		require.Len(t, got, len(tt.want), tt.src)
		for i, w := range tt.want {
			assert.InDelta(t, MustParse(w).Eval(env), got[i].Eval(env), 1e-12, "%s factor %d", tt.src, i)
		}
	}
}

func TestStringRoundTrip(t *testing.T) {
	for _, src := range []string{"x - (y - 1)", "-(x + y)^2", "x/(y*2)", "2^-x", "sin(x)*cos(y)"} {
		n := MustParse(src)
		again, err := Parse(n.String())
		require.NoError(t, err, n.String())
		for _, p := range [][2]float64{{0.3, 0.7}, {-1.2, 2.5}} {
			env := Env{"x": p[0], "y": p[1]}
			assert.InDelta(t, n.Eval(env), again.Eval(env), 1e-12, "%s vs %s", src, n)
		}
	}
}
