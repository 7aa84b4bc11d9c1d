package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/dynlab/internal/dynamo"
	"github.com/san-kum/dynlab/internal/render"
)

func newTestService() *Service {
	return NewService(render.DefaultStyle(), WithSeed(7))
}

func call(t *testing.T, op, payload string) Response {
	t.Helper()
	return newTestService().Call(context.Background(), op, json.RawMessage(payload))
}

func data(t *testing.T, resp Response) map[string]any {
	t.Helper()
	require.True(t, resp.Success, "error: %+v", resp.Error)
	m, ok := resp.Data.(map[string]any)
	require.True(t, ok, "data is %T", resp.Data)
	return m
}

type inner struct {
	Name string `json:"name"`
}

type sample struct {
	inner
	Value   float64               `json:"value"`
	Missing float64               `json:"missing,omitempty"`
	Z       complex128            `json:"z"`
	Class   dynamo.StabilityClass `json:"class"`
	ByInt   map[int][]float64     `json:"by_int"`
	Hidden  string                `json:"-"`
	Ptr     *float64              `json:"ptr"`
	Nested  []map[string]float64  `json:"nested"`
	private int
}

func TestNormalize(t *testing.T) {
	v := sample{
		inner:  inner{Name: "n"},
		Value:  math.NaN(),
		Z:      complex(1, math.Inf(1)),
		Class:  dynamo.StableFocus,
		ByInt:  map[int][]float64{2: {0.5, math.Inf(-1)}},
		Hidden: "secret",
		Nested: []map[string]float64{{"a": 1}},
	}
	got, ok := Normalize(v).(map[string]any)
	require.True(t, ok)

	assert.Equal(t, "n", got["name"])
	assert.Nil(t, got["value"])
	assert.NotContains(t, got, "missing")
	assert.NotContains(t, got, "Hidden")
	assert.NotContains(t, got, "private")
	assert.Equal(t, map[string]any{"real": 1.0, "imag": nil}, got["z"])
	assert.Equal(t, "stable focus", got["class"])
	assert.Equal(t, map[string]any{"2": []any{0.5, nil}}, got["by_int"])
	assert.Nil(t, got["ptr"])
	assert.Equal(t, []any{map[string]any{"a": 1.0}}, got["nested"])

	_, err := json.Marshal(got)
	require.NoError(t, err)
}

func TestPointAcceptsScalarOrArray(t *testing.T) {
	var p Point
	require.NoError(t, json.Unmarshal([]byte(`0.25`), &p))
	assert.Equal(t, Point{0.25}, p)
	assert.Equal(t, 0.25, p.Scalar())

	require.NoError(t, json.Unmarshal([]byte(` [0.1, 0.2]`), &p))
	assert.Equal(t, Point{0.1, 0.2}, p)
	assert.Error(t, json.Unmarshal([]byte(`"x"`), &p))
}

func TestUnknownOperation(t *testing.T) {
	resp := call(t, "solve_everything", `{}`)
	require.False(t, resp.Success)
	assert.Equal(t, CodeUnknownOperation, resp.Error.Code)
}

func TestResolveAliases(t *testing.T) {
	name, ok := Resolve("bifurcation_diagram")
	assert.True(t, ok)
	assert.Equal(t, "generate_bifurcation_diagram", name)

	name, ok = Resolve("analyze_discrete_map")
	assert.True(t, ok)
	assert.Equal(t, "analyze_discrete_system", name)

	assert.Len(t, Operations(), 17)
}

func TestAnalyzeSystem(t *testing.T) {
	d := data(t, call(t, "analyze_system", `{"matrix": [[-1, 0], [0, -2]]}`))
	assert.Equal(t, -3.0, d["trace"])
	assert.Equal(t, 2.0, d["determinant"])
	assert.Equal(t, 1.0, d["discriminant"])
	assert.Len(t, d["eigenvalues"], 2)
	assert.Len(t, d["eigenvectors"], 2)

	class := d["classification"].(map[string]any)
	assert.Equal(t, "stable node", class["class"])
	assert.Contains(t, d, "mathematical_derivation")
}

func TestAnalyzeSystemRequiresMatrix(t *testing.T) {
	resp := call(t, "analyze_system", `{}`)
	require.False(t, resp.Success)
	assert.Equal(t, string(dynamo.KindInvalidInput), resp.Error.Code)
	assert.NotEmpty(t, resp.Error.Suggestions)

	resp = call(t, "analyze_system", `{"matrix": "nope"}`)
	require.False(t, resp.Success)
	assert.Equal(t, string(dynamo.KindInvalidInput), resp.Error.Code)
}

func TestLinearTrajectoryDefaults(t *testing.T) {
	d := data(t, call(t, "compute_trajectory", `{"matrix": [[0, 1], [-1, 0]], "initial_point": [1, 0]}`))
	tr := d["trajectory"].(map[string]any)
	assert.Len(t, tr["time"], 500)
	assert.Equal(t, []any{1.0, 0.0}, tr["initial_point"])
	xs := tr["x"].([]any)
	assert.InDelta(t, math.Cos(10), xs[len(xs)-1].(float64), 1e-4)
}

func TestPhasePortraitImage(t *testing.T) {
	d := data(t, call(t, "generate_phase_portrait", `{"matrix": [[0, 1], [-1, 0]], "grid_size": 5}`))
	assert.True(t, strings.HasPrefix(d["image"].(string), "data:image/svg+xml;base64,"))
	field := d["field"].(map[string]any)
	assert.Len(t, field["x"], 5)
	assert.Equal(t, "center", d["classification"])
}

func TestNonlinearOperations(t *testing.T) {
	d := data(t, call(t, "analyze_nonlinear", `{"dx_dt": "y", "dy_dt": "-x"}`))
	points := d["equilibrium_points"].([]any)
	require.Len(t, points, 1)
	eq := points[0].(map[string]any)
	pt := eq["point"].([]any)
	assert.InDelta(t, 0, pt[0].(float64), 1e-12)
	assert.InDelta(t, 0, pt[1].(float64), 1e-12)
	assert.Equal(t, "center", eq["type"])

	d = data(t, call(t, "generate_nonlinear_portrait", `{"dx_dt": "y", "dy_dt": "-x", "view_range": 2}`))
	assert.True(t, strings.HasPrefix(d["image"].(string), "data:image/svg+xml;base64,"))

	d = data(t, call(t, "compute_nonlinear_trajectory", `{"dx_dt": "y", "dy_dt": "-x"}`))
	tr := d["trajectory"].(map[string]any)
	assert.Len(t, tr["time"], 1000)
	assert.Equal(t, []any{1.0, 1.0}, tr["initial_point"])
}

func TestNonlinearErrors(t *testing.T) {
	resp := call(t, "analyze_nonlinear", `{"dx_dt": "y"}`)
	require.False(t, resp.Success)
	assert.Equal(t, string(dynamo.KindInvalidInput), resp.Error.Code)

	resp = call(t, "analyze_nonlinear", `{"dx_dt": "x +", "dy_dt": "y"}`)
	require.False(t, resp.Success)
	assert.Equal(t, string(dynamo.KindParse), resp.Error.Code)
}

func TestAttractor(t *testing.T) {
	d := data(t, call(t, "generate_attractor", `{"t_span": [0, 1]}`))
	assert.Equal(t, "lorenz", d["system_type"])
	params := d["parameters"].(map[string]any)
	assert.Equal(t, 28.0, params["rho"])

	tr := d["trajectory"].(map[string]any)
	assert.InDelta(t, 100, len(tr["time"].([]any)), 1)
	assert.Len(t, tr["z"], len(tr["time"].([]any)))
}

func TestChaosRejectsBadInput(t *testing.T) {
	resp := call(t, "generate_attractor", `{"system_type": "duffing"}`)
	require.False(t, resp.Success)
	assert.Equal(t, string(dynamo.KindInvalidInput), resp.Error.Code)

	resp = call(t, "generate_attractor", `{"initial_conditions": [1, 2]}`)
	require.False(t, resp.Success)
	assert.Equal(t, string(dynamo.KindInvalidInput), resp.Error.Code)

	resp = call(t, "poincare_section", `{"section_plane": "w"}`)
	require.False(t, resp.Success)
	assert.Equal(t, string(dynamo.KindInvalidInput), resp.Error.Code)
}

func TestOversizedRequestsAreRejected(t *testing.T) {
	tests := []struct {
		op      string
		payload string
	}{
		{"generate_attractor", `{"t_span": [0, 50], "dt": 1e-7}`},
		{"calculate_lyapunov", `{"t_span": [0, 1e12]}`},
		{"poincare_section", `{"dt": -0.01}`},
		{"compute_trajectory", `{"matrix": [[0, 1], [-1, 0]], "initial_point": [1, 0], "num_points": 2000000}`},
		{"generate_phase_portrait", `{"matrix": [[0, 1], [-1, 0]], "grid_size": 5000}`},
		{"generate_phase_portrait", `{"matrix": [[0, 1], [-1, 0]], "grid_size": 0}`},
		{"compute_nonlinear_trajectory", `{"dx_dt": "y", "dy_dt": "-x", "num_points": 1000000000}`},
		{"generate_nonlinear_portrait", `{"dx_dt": "y", "dy_dt": "-x", "grid_size": 100000}`},
		{"generate_discrete_trajectory", `{"n_steps": 5000000}`},
		{"generate_discrete_trajectory", `{"n_steps": -1}`},
		{"generate_cobweb_plot", `{"n_steps": 900000}`},
		{"generate_return_map", `{"n_steps": 100000000}`},
		{"generate_bifurcation_diagram", `{"param_steps": 20000, "n_points": 1000}`},
		{"generate_bifurcation_diagram", `{"transient": -5}`},
	}
	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			resp := call(t, tt.op, tt.payload)
			require.False(t, resp.Success, "payload %s was accepted", tt.payload)
			assert.Equal(t, string(dynamo.KindInvalidInput), resp.Error.Code, resp.Error.Message)
		})
	}
}

func TestPoincareSection(t *testing.T) {
	d := data(t, call(t, "poincare_section", `{"t_span": [0, 20]}`))
	assert.Equal(t, "z", d["section_plane"])
	assert.Equal(t, 27.0, d["section_value"])
	assert.NotEmpty(t, d["intersections"])
	assert.Contains(t, d["message"], "found")

	d = data(t, call(t, "poincare_section", `{"t_span": [0, 5], "section_value": 500}`))
	assert.Empty(t, d["intersections"])
	assert.Contains(t, d["message"], "no intersections")
}

func TestFractalDimensionIsSeeded(t *testing.T) {
	a := data(t, call(t, "fractal_dimension", `{"t_span": [0, 5]}`))
	b := data(t, call(t, "fractal_dimension", `{"t_span": [0, 5]}`))
	assert.Equal(t, a, b)
	dims := a["fractal_dimensions"].(map[string]any)
	box := dims["box_dimension"].(float64)
	assert.GreaterOrEqual(t, box, 1.5)
	assert.LessOrEqual(t, box, 2.5)
}

func TestDiscreteTrajectory(t *testing.T) {
	d := data(t, call(t, "generate_discrete_trajectory", `{}`))
	assert.Len(t, d["trajectory"], 101)
	assert.Equal(t, 0.5, d["x0"])
	assert.EqualValues(t, 100, d["n_steps"])

	d = data(t, call(t, "generate_discrete_trajectory", `{"map_type": "henon", "x0": [0.1, 0.1], "n_steps": 10}`))
	traj := d["trajectory"].([]any)
	require.Len(t, traj, 11)
	assert.Len(t, traj[0], 2)

	resp := call(t, "generate_discrete_trajectory", `{"map_type": "henon"}`)
	require.False(t, resp.Success)
	assert.Equal(t, string(dynamo.KindInvalidInput), resp.Error.Code)
}

func TestBifurcationDefaults(t *testing.T) {
	d := data(t, call(t, "bifurcation_diagram", `{"param_steps": 5}`))
	assert.Equal(t, "r", d["param_name"])
	assert.Equal(t, []any{2.5, 4.0}, d["param_range"])
	assert.Len(t, d["bifurcation_data"], 5)

	d = data(t, call(t, "generate_bifurcation_diagram", `{"map_type": "henon", "param_name": "a", "param_steps": 3}`))
	assert.Equal(t, []any{0.8, 1.4}, d["param_range"])
	first := d["bifurcation_data"].([]any)[0].(map[string]any)
	assert.Len(t, first["points"], 100)

	resp := call(t, "generate_bifurcation_diagram", `{"map_type": "henon", "param_steps": 3}`)
	require.False(t, resp.Success)
	assert.Equal(t, string(dynamo.KindInvalidInput), resp.Error.Code)
}

func TestCobwebAndReturnMap(t *testing.T) {
	d := data(t, call(t, "generate_cobweb_plot", `{"parameters": {"r": 2.8}}`))
	cw := d["cobweb_data"].(map[string]any)
	assert.Len(t, cw["x_points"], 41)
	assert.Len(t, d["map_function"].(map[string]any)["x"], 200)

	resp := call(t, "generate_cobweb_plot", `{"map_type": "henon"}`)
	require.False(t, resp.Success)
	assert.Equal(t, string(dynamo.KindUnsupportedConfiguration), resp.Error.Code)

	d = data(t, call(t, "generate_return_map", `{"parameters": {"r": 3.9}}`))
	rm := d["return_map_data"].(map[string]any)
	assert.EqualValues(t, 1, rm["delay"])
	assert.Len(t, rm["x_n"], len(rm["x_n_plus_delay"].([]any)))
}

func TestDiscretePhasePortrait(t *testing.T) {
	d := data(t, call(t, "discrete_phase_portrait", `{}`))
	tr := d["trajectory"].(map[string]any)
	assert.Len(t, tr["x"], 201)
	assert.EqualValues(t, 200, d["n_steps"])
	assert.Equal(t, []any{0.1, 0.1}, d["x0"])

	resp := call(t, "discrete_phase_portrait", `{"map_type": "logistic", "x0": 0.5}`)
	require.False(t, resp.Success)
	assert.Equal(t, string(dynamo.KindUnsupportedConfiguration), resp.Error.Code)
}

func TestAnalyzeDiscreteAlias(t *testing.T) {
	d := data(t, call(t, "analyze_discrete_map", `{"map_type": "logistic", "parameters": {"r": 2.5}}`))
	assert.Equal(t, "logistic", d["map_type"])
	assert.Equal(t, map[string]any{"r": 2.5}, d["parameters"])
	assert.NotEmpty(t, d["fixed_points"])
	lyap := d["lyapunov_analysis"].(map[string]any)
	assert.Less(t, lyap["lyapunov_exponent"].(float64), 0.0)
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := NewServer(newTestService(), DefaultServerConfig(), log.New(io.Discard))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url, body string) (*http.Response, Response) {
	t.Helper()
	res, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer res.Body.Close()
	var out Response
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	return res, out
}

func TestHTTPRoutes(t *testing.T) {
	ts := newTestServer(t)

	res, out := postJSON(t, ts.URL+"/api/analyze_system", `{"matrix": [[1, 2], [3, 4]]}`)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.True(t, out.Success)
	assert.NotEmpty(t, res.Header.Get("X-Request-ID"))

	res, out = postJSON(t, ts.URL+"/api/nope", `{}`)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Equal(t, CodeUnknownOperation, out.Error.Code)

	res, out = postJSON(t, ts.URL+"/api/analyze_system", `{}`)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.False(t, out.Success)

	res, err := http.Post(ts.URL+"/api/analyze_system", "text/plain", strings.NewReader("matrix"))
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusUnsupportedMediaType, res.StatusCode)

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/get_derivation", bytes.NewBufferString(`{"matrix": [[0, 1], [-1, 0]]}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", "abc-123")
	res, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, "abc-123", res.Header.Get("X-Request-ID"))
}

func TestOperationsListing(t *testing.T) {
	ts := newTestServer(t)
	res, err := http.Get(ts.URL + "/api/operations")
	require.NoError(t, err)
	defer res.Body.Close()

	var out struct {
		Success bool `json:"success"`
		Data    struct {
			Operations []string          `json:"operations"`
			Aliases    map[string]string `json:"aliases"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	assert.True(t, out.Success)
	assert.Contains(t, out.Data.Operations, "poincare_section")
	assert.Equal(t, "generate_bifurcation_diagram", out.Data.Aliases["bifurcation_diagram"])
}

func TestWebsocketBatch(t *testing.T) {
	ts := newTestServer(t)
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(WSRequest{
		ID:      "1",
		Op:      "get_derivation",
		Payload: json.RawMessage(`{"matrix": [[0, 1], [-2, -3]]}`),
	}))
	require.NoError(t, conn.WriteJSON(WSRequest{ID: "2", Op: "no_such_op"}))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))

	_ = conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	var first, second, third WSResponse
	require.NoError(t, conn.ReadJSON(&first))
	require.NoError(t, conn.ReadJSON(&second))
	require.NoError(t, conn.ReadJSON(&third))

	assert.Equal(t, "1", first.ID)
	assert.Equal(t, "get_derivation", first.Op)
	assert.True(t, first.Response.Success)

	assert.Equal(t, "2", second.ID)
	assert.False(t, second.Response.Success)
	assert.Equal(t, CodeUnknownOperation, second.Response.Error.Code)

	assert.False(t, third.Response.Success)
	assert.Equal(t, "invalid_json", third.Response.Error.Code)
}

func TestServerLifecycle(t *testing.T) {
	cfg := DefaultServerConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = 0
	srv := NewServer(newTestService(), cfg, log.New(io.Discard))
	require.NoError(t, srv.Start())
	assert.True(t, srv.IsRunning())
	assert.Error(t, srv.Start())

	res, err := http.Get("http://" + srv.Addr() + "/healthz")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
	assert.False(t, srv.IsRunning())
}
