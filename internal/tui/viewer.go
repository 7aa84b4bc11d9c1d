package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/dynlab/internal/chaos"
	"github.com/san-kum/dynlab/internal/dynamo"
	"github.com/san-kum/dynlab/internal/render"
)

var flowInfo = map[chaos.FlowKind]string{
	chaos.Lorenz:  "convection rolls, the butterfly",
	chaos.Rossler: "single folded band",
	chaos.Chua:    "double scroll circuit",
	chaos.Thomas:  "cyclically symmetric, frictional",
}

type state int

const (
	stateMenu state = iota
	stateLoading
	stateView
)

// Options configures the viewer. With Flow set the menu is skipped.
type Options struct {
	Style render.Style
	Flow  *chaos.Spec
	Seed  int64
	Span  [2]float64
	Dt    float64
}

// Model is the bubbletea model of the attractor viewer. The trajectory is
// integrated once per flow and then replayed; keys only move the camera.
type Model struct {
	opts   Options
	state  state
	cursor int
	kinds  []chaos.FlowKind

	spec   chaos.Spec
	traj   *dynamo.Trajectory
	err    error
	cam    *render.Camera
	upto   int
	speed  int
	paused bool
	spin   bool

	width  int
	height int
}

func NewModel(opts Options) Model {
	if opts.Span[1] <= opts.Span[0] {
		opts.Span = [2]float64{0, 50}
	}
	if opts.Dt <= 0 {
		opts.Dt = 0.01
	}
	m := Model{
		opts:   opts,
		kinds:  []chaos.FlowKind{chaos.Lorenz, chaos.Rossler, chaos.Chua, chaos.Thomas},
		cam:    render.NewCamera(),
		speed:  8,
		spin:   true,
		width:  80,
		height: 24,
	}
	if opts.Flow != nil {
		m.spec = *opts.Flow
		m.state = stateLoading
	}
	return m
}

type tickMsg time.Time

type trajectoryMsg struct {
	traj *dynamo.Trajectory
	err  error
}

func tick() tea.Cmd {
	return tea.Tick(33*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// integrate runs off the UI goroutine and reports back with trajectoryMsg.
func (m Model) integrate() tea.Cmd {
	spec, opts := m.spec, m.opts
	return func() tea.Msg {
		flow, err := spec.Build()
		if err != nil {
			return trajectoryMsg{err: err}
		}
		an := chaos.NewAnalyzer(flow, chaos.WithSeed(opts.Seed))
		tr, err := an.IntegrateTrajectory(flow.DefaultState(), opts.Span, opts.Dt)
		return trajectoryMsg{traj: tr, err: err}
	}
}

func (m Model) Init() tea.Cmd {
	if m.state == stateLoading {
		return m.integrate()
	}
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case trajectoryMsg:
		m.traj, m.err = msg.traj, msg.err
		m.upto = 1
		m.state = stateView
		return m, tick()
	case tickMsg:
		if m.state != stateView {
			return m, nil
		}
		m.advance()
		return m, tick()
	}
	return m, nil
}

func (m *Model) advance() {
	if m.paused || m.traj == nil {
		return
	}
	if m.upto < m.traj.Len() {
		m.upto = min(m.upto+m.speed, m.traj.Len())
	}
	if m.spin {
		m.cam.RotateY(0.01)
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	switch m.state {
	case stateMenu:
		return m.menuKey(msg)
	case stateView:
		return m.viewKey(msg)
	}
	return m, nil
}

func (m Model) menuKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.kinds)-1 {
			m.cursor++
		}
	case "enter", " ":
		m.spec = chaos.Spec{Kind: m.kinds[m.cursor]}
		m.state = stateLoading
		return m, m.integrate()
	}
	return m, nil
}

func (m Model) viewKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		if m.opts.Flow != nil {
			return m, tea.Quit
		}
		m.state = stateMenu
		m.traj, m.err = nil, nil
		return m, tea.ClearScreen
	case " ", "p":
		m.paused = !m.paused
	case "a":
		m.spin = !m.spin
	case "left", "h":
		m.cam.RotateY(-0.1)
	case "right", "l":
		m.cam.RotateY(0.1)
	case "up", "k":
		m.cam.RotateX(-0.1)
	case "down", "j":
		m.cam.RotateX(0.1)
	case "+", "=":
		m.cam.ZoomIn()
	case "-", "_":
		m.cam.ZoomOut()
	case "f":
		m.speed = min(m.speed*2, 256)
	case "s":
		m.speed = max(m.speed/2, 1)
	case "r":
		m.cam = render.NewCamera()
		m.upto = 1
	case "e":
		if m.traj != nil {
			m.upto = m.traj.Len()
		}
	}
	return m, nil
}

func (m Model) View() string {
	st := m.opts.Style
	switch m.state {
	case stateMenu:
		return m.menuView()
	case stateLoading:
		return st.Muted.Render(fmt.Sprintf("integrating %s ...", m.spec.Kind))
	}

	var b strings.Builder
	b.WriteString(st.Title.Render(m.spec.Kind.String()))
	b.WriteString("  " + st.Muted.Render(flowInfo[m.spec.Kind]) + "\n")
	if m.err != nil {
		b.WriteString(st.Warn.Render("error: "+m.err.Error()) + "\n")
		b.WriteString(st.Muted.Render("q back"))
		return b.String()
	}

	w := max(m.width-4, 20)
	h := max(m.height-6, 8)
	c := render.NewCanvas(w, h)
	render.DrawAttractor(c, m.cam, m.traj.States, m.upto)
	b.WriteString(st.Plot.Render(c.String()) + "\n")

	t := 0.0
	if m.upto > 0 && m.upto <= m.traj.Len() {
		t = m.traj.Times[m.upto-1]
	}
	status := fmt.Sprintf("t=%.2f  %d/%d  speed=%d  zoom=%.2f", t, m.upto, m.traj.Len(), m.speed, m.cam.Zoom)
	if m.paused {
		status += "  " + st.Warn.Render("PAUSED")
	}
	if m.traj.Truncated {
		status += "  " + st.Warn.Render("truncated")
	}
	b.WriteString(st.Value.Render(status) + "\n")
	b.WriteString(st.Muted.Render(paramLine(m.spec) + "   ←→↑↓ rotate  +/- zoom  space pause  a spin  f/s speed  r reset  q back"))
	return b.String()
}

func (m Model) menuView() string {
	st := m.opts.Style
	lines := []string{st.Title.Render("dynlab attractors"), ""}
	for i, k := range m.kinds {
		cursor := "  "
		name := k.String()
		if i == m.cursor {
			cursor = st.Value.Render("> ")
			name = st.Value.Render(name)
		}
		lines = append(lines, cursor+name+"  "+st.Muted.Render(flowInfo[k]))
	}
	lines = append(lines, "", st.Muted.Render("↑↓ select  enter open  q quit"))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func paramLine(spec chaos.Spec) string {
	names := make([]string, 0, len(spec.Params))
	for k := range spec.Params {
		names = append(names, k)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, k := range names {
		parts[i] = fmt.Sprintf("%s=%g", k, spec.Params[k])
	}
	return strings.Join(parts, " ")
}

// Run starts the viewer full-screen and blocks until it exits.
func Run(opts Options) error {
	_, err := tea.NewProgram(NewModel(opts), tea.WithAltScreen()).Run()
	return err
}
