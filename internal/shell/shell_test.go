package shell

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/dynlab/internal/render"
)

func newSession() (*Session, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewSession(&buf, render.DefaultStyle(), 1), &buf
}

func TestEquationsTriggerAnalysis(t *testing.T) {
	s, out := newSession()

	require.NoError(t, s.Exec("dx/dt = y"))
	assert.Empty(t, out.String())

	require.NoError(t, s.Exec("dy/dt = -x"))
	dx, dy := s.Equations()
	assert.Equal(t, "y", dx)
	assert.Equal(t, "-x", dy)
	assert.Contains(t, out.String(), "center")
}

func TestShortEquationForms(t *testing.T) {
	s, _ := newSession()
	require.NoError(t, s.Exec("x' = x - y"))
	require.NoError(t, s.Exec("dy = x + y"))
	dx, dy := s.Equations()
	assert.Equal(t, "x - y", dx)
	assert.Equal(t, "x + y", dy)
}

func TestEquationErrors(t *testing.T) {
	s, _ := newSession()
	assert.Error(t, s.Exec("y"))
	assert.Error(t, s.Exec("dz/dt = 1"))
	assert.Error(t, s.Exec("dx/dt ="))
	assert.Error(t, s.Exec(":analyze"))

	require.NoError(t, s.Exec("dx/dt = y"))
	assert.Error(t, s.Exec("dy/dt = x +"))
}

func TestMatrixCommand(t *testing.T) {
	s, out := newSession()
	require.NoError(t, s.Exec(":matrix 1 0 0 -1"))
	assert.Contains(t, out.String(), "saddle")

	assert.Error(t, s.Exec(":matrix 1 2 3"))
	assert.Error(t, s.Exec(":matrix a b c d"))
}

func TestMapCommand(t *testing.T) {
	s, out := newSession()
	require.NoError(t, s.Exec(":map logistic r=2.8"))
	assert.Contains(t, out.String(), "fixed point")
	assert.Contains(t, out.String(), "lyapunov")

	out.Reset()
	require.NoError(t, s.Exec(":map henon"))
	assert.Contains(t, out.String(), "henon")

	assert.Error(t, s.Exec(":map nope"))
	assert.Error(t, s.Exec(":map logistic r"))
	assert.Error(t, s.Exec(":map"))
}

func TestFlowCommand(t *testing.T) {
	s, out := newSession()
	require.NoError(t, s.Exec(":flow lorenz rho=28"))
	assert.Contains(t, out.String(), "λ1")

	assert.Error(t, s.Exec(":flow lorenz zeta=1"))
	assert.Error(t, s.Exec(":flow"))
}

func TestPresets(t *testing.T) {
	s, out := newSession()
	require.NoError(t, s.Exec(":presets"))
	assert.Contains(t, out.String(), "stable_spiral")
	assert.Contains(t, out.String(), "lorenz")

	out.Reset()
	require.NoError(t, s.Exec(":preset nonlinear/pendulum"))
	dx, dy := s.Equations()
	assert.Equal(t, "y", dx)
	assert.Equal(t, "-sin(x)", dy)

	require.NoError(t, s.Exec(":preset linear/saddle"))
	assert.Error(t, s.Exec(":preset linear/none"))
}

func TestQuitAndHelp(t *testing.T) {
	s, out := newSession()
	require.NoError(t, s.Exec(":help"))
	assert.Contains(t, out.String(), ":matrix")
	require.NoError(t, s.Exec("   "))
	require.NoError(t, s.Exec("# comment"))

	assert.True(t, errors.Is(s.Exec(":quit"), errQuit))
	assert.Error(t, s.Exec(":bogus"))
}

func TestClear(t *testing.T) {
	s, _ := newSession()
	require.NoError(t, s.Exec("dx/dt = y"))
	require.NoError(t, s.Exec(":clear"))
	dx, _ := s.Equations()
	assert.Empty(t, dx)
}

func complete(c *Completer, text string) []string {
	cands, _ := c.Do([]rune(text), len([]rune(text)))
	out := make([]string, len(cands))
	for i, r := range cands {
		out[i] = string(r)
	}
	return out
}

func TestCompleter(t *testing.T) {
	c := NewCompleter()

	assert.ElementsMatch(t, []string{"atrix", "ap"}, complete(c, ":m"))
	assert.Contains(t, complete(c, ":flow lo"), "renz")
	assert.Contains(t, complete(c, ":map "), "logistic")
	assert.Contains(t, complete(c, ":preset linear/sa"), "ddle")
	assert.Empty(t, complete(c, "dx/dt"))
	assert.Empty(t, complete(c, ":map logistic r"))

	_, n := c.Do([]rune(":flow lo"), 8)
	assert.Equal(t, 2, n)
}

func TestPrintErrorHints(t *testing.T) {
	var buf bytes.Buffer
	s := NewSession(&buf, render.DefaultStyle(), 1)
	err := s.Exec(":map logistic r")
	printError(&buf, err)
	assert.True(t, strings.HasPrefix(buf.String(), "Error:"))
}
