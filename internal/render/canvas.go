package render

import (
	"math"
	"strings"

	"github.com/san-kum/dynlab/internal/analysis"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const brailleBlank = 0x2800

// Canvas is a grid of braille cells. Its resolution in dots is
// (Width*2) x (Height*4).
type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{Width: w, Height: h, Grid: make([][]rune, h)}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Set lights the dot at (x, y), origin top-left.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

// IsSet reports whether the dot at (x, y) is lit.
func (c *Canvas) IsSet(x, y int) bool {
	if x < 0 || y < 0 || x/2 >= c.Width || y/4 >= c.Height {
		return false
	}
	return c.Grid[y/4][x/2]&rune(pixelMap[y%4][x%2]) != 0
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = brailleBlank
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm.
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx, dy := absInt(x1-x0), absInt(y1-y0)
	sx, sy := -1, -1
	if x0 < x1 {
		sx = 1
	}
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy
	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	return b.String()
}

// Viewport maps data coordinates onto a canvas' dot grid.
type Viewport struct {
	MinX, MaxX, MinY, MaxY float64
}

// Fit returns the bounding box of pts padded by 10% on every side. Non-finite
// points are ignored; degenerate extents are widened to 1.
func Fit(pts []analysis.Point2) Viewport {
	v := Viewport{math.Inf(1), math.Inf(-1), math.Inf(1), math.Inf(-1)}
	for _, p := range pts {
		if !finite(p.X) || !finite(p.Y) {
			continue
		}
		v.MinX, v.MaxX = math.Min(v.MinX, p.X), math.Max(v.MaxX, p.X)
		v.MinY, v.MaxY = math.Min(v.MinY, p.Y), math.Max(v.MaxY, p.Y)
	}
	if v.MinX > v.MaxX {
		return Viewport{-1, 1, -1, 1}
	}
	return v.pad(0.1)
}

func (v Viewport) pad(frac float64) Viewport {
	rx, ry := v.MaxX-v.MinX, v.MaxY-v.MinY
	if rx == 0 {
		rx = 1
	}
	if ry == 0 {
		ry = 1
	}
	return Viewport{v.MinX - rx*frac, v.MaxX + rx*frac, v.MinY - ry*frac, v.MaxY + ry*frac}
}

// Dot converts a data point to dot coordinates on c.
func (v Viewport) Dot(c *Canvas, x, y float64) (int, int) {
	w, h := float64(c.Width*2-1), float64(c.Height*4-1)
	px := (x - v.MinX) / (v.MaxX - v.MinX) * w
	py := h - (y-v.MinY)/(v.MaxY-v.MinY)*h
	return int(math.Round(px)), int(math.Round(py))
}

// Plot lights the dot nearest to the data point (x, y).
func (c *Canvas) Plot(v Viewport, x, y float64) {
	if !finite(x) || !finite(y) {
		return
	}
	px, py := v.Dot(c, x, y)
	c.Set(px, py)
}

// Polyline joins consecutive data points.
func (c *Canvas) Polyline(v Viewport, pts []analysis.Point2) {
	for i := 1; i < len(pts); i++ {
		a, b := pts[i-1], pts[i]
		if !finite(a.X) || !finite(a.Y) || !finite(b.X) || !finite(b.Y) {
			continue
		}
		x0, y0 := v.Dot(c, a.X, a.Y)
		x1, y1 := v.Dot(c, b.X, b.Y)
		c.DrawLine(x0, y0, x1, y1)
	}
	if len(pts) == 1 {
		c.Plot(v, pts[0].X, pts[0].Y)
	}
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
