package tui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/san-kum/dynlab/internal/dynamo"
	"github.com/san-kum/dynlab/internal/render"
)

const (
	clearScreen = "\033[2J\033[H"
	hideCursor  = "\033[?25l"
	showCursor  = "\033[?25h"
)

// LiveRenderer replays a trajectory as plain ANSI frames, for terminals
// where the full-screen viewer is unwanted.
type LiveRenderer struct {
	w         io.Writer
	style     render.Style
	title     string
	frameRate int
	cam       *render.Camera
}

func NewLiveRenderer(w io.Writer, style render.Style, title string, frameRate int) *LiveRenderer {
	if frameRate <= 0 {
		frameRate = 30
	}
	return &LiveRenderer{w: w, style: style, title: title, frameRate: frameRate, cam: render.NewCamera()}
}

// Frame renders the first upto samples of tr.
func (r *LiveRenderer) Frame(tr *dynamo.Trajectory, upto int) string {
	c := render.NewCanvas(r.style.Width, r.style.Height)
	render.DrawAttractor(c, r.cam, tr.States, upto)

	var b strings.Builder
	t := 0.0
	if upto > 0 && upto <= tr.Len() {
		t = tr.Times[upto-1]
	}
	b.WriteString(fmt.Sprintf("  %s  t=%.2f\n", r.title, t))
	b.WriteString("  " + strings.Repeat("-", r.style.Width) + "\n")
	for _, row := range strings.Split(c.String(), "\n") {
		b.WriteString("  " + row + "\n")
	}
	b.WriteString("  " + strings.Repeat("-", r.style.Width) + "\n")
	return b.String()
}

// Play draws frames frames, revealing the trajectory evenly while the
// camera turns, paced at the frame rate.
func (r *LiveRenderer) Play(tr *dynamo.Trajectory, frames int) {
	if tr == nil || tr.Len() == 0 || frames <= 0 {
		return
	}
	r.Start()
	defer r.Stop()

	delay := time.Second / time.Duration(r.frameRate)
	for f := 1; f <= frames; f++ {
		upto := max(tr.Len()*f/frames, 1)
		fmt.Fprint(r.w, clearScreen+r.Frame(tr, upto))
		r.cam.RotateY(0.03)
		time.Sleep(delay)
	}
}

func (r *LiveRenderer) Start() { fmt.Fprint(r.w, hideCursor) }
func (r *LiveRenderer) Stop()  { fmt.Fprint(r.w, showCursor) }
