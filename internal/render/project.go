package render

import (
	"math"

	"github.com/san-kum/dynlab/internal/dynamo"
)

type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) Add(o Vec3) Vec3      { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3      { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }
func (v Vec3) Length() float64      { return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z) }

// Camera orbits the origin and projects points with a weak perspective.
type Camera struct {
	Distance   float64
	RotX, RotY float64
	Zoom       float64
}

func NewCamera() *Camera {
	return &Camera{Distance: 50, RotX: -0.6, RotY: 0.4, Zoom: 1}
}

func (c *Camera) RotateX(a float64) { c.RotX += a }
func (c *Camera) RotateY(a float64) { c.RotY += a }
func (c *Camera) ZoomIn()           { c.Zoom = math.Min(10, c.Zoom*1.2) }
func (c *Camera) ZoomOut()          { c.Zoom = math.Max(0.1, c.Zoom/1.2) }

func (c *Camera) rotate(p Vec3) Vec3 {
	cx, sx := math.Cos(c.RotX), math.Sin(c.RotX)
	p.Y, p.Z = p.Y*cx-p.Z*sx, p.Y*sx+p.Z*cx
	cy, sy := math.Cos(c.RotY), math.Sin(c.RotY)
	p.X, p.Z = p.X*cy+p.Z*sy, -p.X*sy+p.Z*cy
	return p
}

// Project maps a point in unit-scaled world space onto canvas dots. ok is
// false for points behind the camera or off the canvas.
func (c *Camera) Project(p Vec3, cv *Canvas) (x, y int, ok bool) {
	r := c.rotate(p).Scale(c.Zoom)
	if r.Z >= c.Distance-0.1 {
		return 0, 0, false
	}
	persp := c.Distance / (c.Distance - r.Z)
	w, h := cv.Width*2, cv.Height*4
	unit := float64(min(w, h)) / 2.5
	x = int(r.X*persp*unit) + w/2
	y = int(-r.Y*persp*unit) + h/2
	return x, y, x >= 0 && x < w && y >= 0 && y < h
}

// normaliser centres a trajectory on its bounding-box midpoint and scales the
// largest extent to 2.
type normaliser struct {
	centre Vec3
	scale  float64
}

func newNormaliser(states []dynamo.State) normaliser {
	lo := Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
	hi := Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for _, s := range states {
		if len(s) < 3 || !s.IsValid() {
			continue
		}
		lo = Vec3{math.Min(lo.X, s[0]), math.Min(lo.Y, s[1]), math.Min(lo.Z, s[2])}
		hi = Vec3{math.Max(hi.X, s[0]), math.Max(hi.Y, s[1]), math.Max(hi.Z, s[2])}
	}
	if lo.X > hi.X {
		return normaliser{scale: 1}
	}
	ext := hi.Sub(lo)
	span := math.Max(ext.X, math.Max(ext.Y, ext.Z))
	if span == 0 {
		span = 1
	}
	return normaliser{centre: lo.Add(hi).Scale(0.5), scale: 2 / span}
}

func (n normaliser) apply(s dynamo.State) Vec3 {
	return Vec3{s[0], s[1], s[2]}.Sub(n.centre).Scale(n.scale)
}

// DrawAttractor projects a 3D trajectory through cam onto c as a polyline.
// Only the first upto samples are drawn when upto is positive.
func DrawAttractor(c *Canvas, cam *Camera, states []dynamo.State, upto int) {
	if upto <= 0 || upto > len(states) {
		upto = len(states)
	}
	n := newNormaliser(states)
	px, py, prevOK := 0, 0, false
	for _, s := range states[:upto] {
		if len(s) < 3 || !s.IsValid() {
			prevOK = false
			continue
		}
		x, y, ok := cam.Project(n.apply(s), c)
		if ok && prevOK {
			c.DrawLine(px, py, x, y)
		} else if ok {
			c.Set(x, y)
		}
		px, py, prevOK = x, y, ok
	}
}

// Attractor renders a trajectory in 3D from the default camera.
func (s Style) Attractor(title string, tr *dynamo.Trajectory) string {
	if tr == nil || tr.Len() == 0 {
		return s.Box(title, s.Muted.Render("no trajectory"))
	}
	c := NewCanvas(s.Width, s.Height)
	DrawAttractor(c, NewCamera(), tr.States, 0)
	return s.Box(title, s.Plot.Render(c.String()))
}
