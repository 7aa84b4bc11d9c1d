package automation

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/dynlab/internal/api"
	"github.com/san-kum/dynlab/internal/chaos"
	"github.com/san-kum/dynlab/internal/dynamo"
	"github.com/san-kum/dynlab/internal/render"
	"github.com/san-kum/dynlab/internal/storage"
)

const scenarioYAML = `
name: smoke
steps:
  - op: analyze_system
    preset: linear/saddle
  - op: compute_trajectory
    preset: linear/stable_spiral
    payload:
      num_points: 50
    save_as: spiral
  - op: analyze_discrete_map
    payload:
      map_type: logistic
    sweep:
      param: r
      min: 2.5
      max: 3.5
      steps: 3
`

func newRunner(t *testing.T, store *storage.Store) *Runner {
	t.Helper()
	return NewRunner(api.NewService(render.DefaultStyle(), api.WithSeed(1)), store, log.New(io.Discard))
}

func TestParseScenario(t *testing.T) {
	sc, err := ParseScenario([]byte(scenarioYAML))
	require.NoError(t, err)
	assert.Equal(t, "smoke", sc.Name)
	require.Len(t, sc.Steps, 3)
	assert.Equal(t, "linear/saddle", sc.Steps[0].Preset)
	require.NotNil(t, sc.Steps[2].Sweep)
	assert.Equal(t, 3, sc.Steps[2].Sweep.Steps)
}

func TestParseScenarioRejects(t *testing.T) {
	_, err := ParseScenario([]byte("name: empty\n"))
	assert.Error(t, err)

	_, err = ParseScenario([]byte("steps:\n  - op: nope\n  - op: analyze_system\n    preset: linear/missing\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope")
	assert.Contains(t, err.Error(), "linear/missing")

	_, err = ParseScenario([]byte("steps:\n  - op: generate_discrete_trajectory\n    sweep: {param: r, min: 2, max: 4, steps: 5000000}\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, dynamo.InvalidInput)
}

func TestLoadScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(scenarioYAML), 0o644))

	sc, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Len(t, sc.Steps, 3)
}

func TestRunScenario(t *testing.T) {
	sc, err := ParseScenario([]byte(scenarioYAML))
	require.NoError(t, err)
	store := storage.New(t.TempDir())

	results, err := newRunner(t, store).Run(context.Background(), sc)
	require.NoError(t, err)
	require.Len(t, results, 5)

	for _, res := range results {
		assert.True(t, res.Response.Success, "step %d %s failed: %+v", res.Step, res.Op, res.Response.Error)
	}

	saved := results[1]
	require.NotEmpty(t, saved.RunID)
	meta, err := store.Load(saved.RunID)
	require.NoError(t, err)
	assert.Equal(t, "compute_trajectory", meta.Op)
	assert.Equal(t, 50, meta.Samples)
	assert.Equal(t, 2, meta.Dimension)
	assert.Equal(t, 1.0, meta.Metrics["bounded_fraction"])

	var params []float64
	for _, res := range results[2:] {
		require.NotNil(t, res.Param)
		params = append(params, *res.Param)
	}
	assert.InDeltaSlice(t, []float64{2.5, 3.0, 3.5}, params, 1e-12)
}

func TestRunStopsOnFailure(t *testing.T) {
	sc := &Scenario{Steps: []Step{
		{Op: "analyze_system"},
		{Op: "analyze_system", Preset: "linear/center"},
	}}

	results, err := newRunner(t, nil).Run(context.Background(), sc)
	require.Error(t, err)
	assert.Len(t, results, 1)

	sc.ContinueOnError = true
	results, err = newRunner(t, nil).Run(context.Background(), sc)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.False(t, results[0].Response.Success)
	assert.True(t, results[1].Response.Success)
}

func TestTrajectoryFrom(t *testing.T) {
	data := map[string]any{"trajectory": map[string]any{
		"time": []any{0.0, 1.0},
		"x":    []any{1.0, 2.0},
		"y":    []any{3.0, 4.0},
		"z":    []any{5.0, 6.0},
	}}
	tr := TrajectoryFrom(data)
	require.NotNil(t, tr)
	assert.Equal(t, 2, tr.Len())
	assert.Equal(t, []float64{2, 4, 6}, []float64(tr.States[1]))

	assert.Nil(t, TrajectoryFrom(map[string]any{"trajectory": []any{1.0, 2.0}}))
	assert.Nil(t, TrajectoryFrom("nope"))
}

func TestRunMonteCarlo(t *testing.T) {
	results, err := RunMonteCarlo(context.Background(), MonteCarloConfig{
		Flow:         chaos.Spec{Kind: chaos.Lorenz},
		Perturbation: 0.1,
		NumTrials:    4,
		Span:         [2]float64{0, 2},
		Dt:           0.01,
		Seed:         7,
	}, log.New(io.Discard))
	require.NoError(t, err)
	require.Len(t, results, 4)

	stable, unstable := MonteCarloStats(results)
	assert.Equal(t, 4, stable)
	assert.Equal(t, 0, unstable)
	assert.NotEqual(t, results[0].InitState, results[1].InitState)
	for i, r := range results {
		assert.Equal(t, i, r.TrialID)
	}
}

func TestRunMonteCarloRejectsBadSizes(t *testing.T) {
	cfg := MonteCarloConfig{Flow: chaos.Spec{Kind: chaos.Lorenz}, NumTrials: 2, Span: [2]float64{0, 50}, Dt: 1e-7, Seed: 1}
	_, err := RunMonteCarlo(context.Background(), cfg, log.New(io.Discard))
	assert.ErrorIs(t, err, dynamo.InvalidInput)

	cfg.Dt, cfg.NumTrials = 0.01, -1
	_, err = RunMonteCarlo(context.Background(), cfg, log.New(io.Discard))
	assert.ErrorIs(t, err, dynamo.InvalidInput)
}

func TestRunMonteCarloSeeded(t *testing.T) {
	cfg := MonteCarloConfig{
		Flow:         chaos.Spec{Kind: chaos.Rossler},
		Perturbation: 0.5,
		NumTrials:    3,
		Span:         [2]float64{0, 1},
		Dt:           0.01,
		Seed:         42,
	}
	a, err := RunMonteCarlo(context.Background(), cfg, log.New(io.Discard))
	require.NoError(t, err)
	b, err := RunMonteCarlo(context.Background(), cfg, log.New(io.Discard))
	require.NoError(t, err)
	for i := range a {
		assert.Equal(t, a[i].InitState, b[i].InitState)
		assert.Equal(t, a[i].FinalState, b[i].FinalState)
	}
}
