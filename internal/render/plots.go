package render

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/dynlab/internal/analysis"
	"github.com/san-kum/dynlab/internal/dynamo"
)

// Scatter plots points on a braille canvas framed with the axis ranges.
func (s Style) Scatter(title string, pts []analysis.Point2) string {
	if len(pts) == 0 {
		return s.Box(title, s.Muted.Render("no points"))
	}
	c := NewCanvas(s.Width, s.Height)
	v := Fit(pts)
	for _, p := range pts {
		c.Plot(v, p.X, p.Y)
	}
	return s.frame(title, c, v)
}

// Lines draws each series as a polyline on a shared viewport.
func (s Style) Lines(title string, series ...[]analysis.Point2) string {
	var all []analysis.Point2
	for _, ser := range series {
		all = append(all, ser...)
	}
	if len(all) == 0 {
		return s.Box(title, s.Muted.Render("no points"))
	}
	c := NewCanvas(s.Width, s.Height)
	v := Fit(all)
	for _, ser := range series {
		c.Polyline(v, ser)
	}
	return s.frame(title, c, v)
}

func (s Style) frame(title string, c *Canvas, v Viewport) string {
	axes := s.Label.Render(fmt.Sprintf("x ∈ [%.3g, %.3g]  y ∈ [%.3g, %.3g]", v.MinX, v.MaxX, v.MinY, v.MaxY))
	return s.Box(title, s.Plot.Render(strings.TrimRight(c.String(), "\n"))+"\n"+axes)
}

var arrowGlyphs = [8]rune{'→', '↗', '↑', '↖', '←', '↙', '↓', '↘'}

// Quiver renders the direction of a vector field cell by cell. Cells where
// the field vanishes show '·'; markers (equilibria) are drawn as '●' in the
// nearest cell.
func (s Style) Quiver(title string, f dynamo.VectorField, markers []analysis.Point2) string {
	ny, nx := len(f.Y), len(f.X)
	if nx == 0 || ny == 0 {
		return s.Box(title, s.Muted.Render("empty field"))
	}
	grid := make([][]rune, ny)
	for i := range grid {
		grid[i] = make([]rune, nx)
		for j := range grid[i] {
			u, w := f.U[i][j], f.V[i][j]
			if math.Hypot(u, w) < 1e-12 {
				grid[i][j] = '·'
				continue
			}
			octant := int(math.Round(math.Atan2(w, u)/(math.Pi/4))) & 7
			grid[i][j] = arrowGlyphs[octant]
		}
	}
	for _, m := range markers {
		j, i := nearest(f.X, m.X), nearest(f.Y, m.Y)
		if i >= 0 && j >= 0 {
			grid[i][j] = '●'
		}
	}

	var b strings.Builder
	for i := ny - 1; i >= 0; i-- {
		for j, r := range grid[i] {
			if j > 0 {
				b.WriteByte(' ')
			}
			b.WriteRune(r)
		}
		if i > 0 {
			b.WriteByte('\n')
		}
	}
	axes := s.Label.Render(fmt.Sprintf("x ∈ [%.3g, %.3g]  y ∈ [%.3g, %.3g]", f.X[0], f.X[nx-1], f.Y[0], f.Y[ny-1]))
	return s.Box(title, s.Plot.Render(b.String())+"\n"+axes)
}

// nearest returns the index of the grid value closest to v, or -1 when v
// lies outside the grid by more than one spacing.
func nearest(grid []float64, v float64) int {
	if len(grid) == 0 {
		return -1
	}
	best, bestD := -1, math.Inf(1)
	for i, g := range grid {
		if d := math.Abs(g - v); d < bestD {
			best, bestD = i, d
		}
	}
	if len(grid) > 1 && bestD > math.Abs(grid[1]-grid[0]) {
		return -1
	}
	return best
}

// Cobweb overlays the map graph, the diagonal and the cobweb path.
func (s Style) Cobweb(title string, curveX, curveY, pathX, pathY []float64) string {
	graph := zip(curveX, curveY)
	diag := zip(curveX, curveX)
	path := zip(pathX, pathY)
	return s.Lines(title, graph, diag, path)
}

// Bifurcation plots the recorded values against the swept parameter.
func (s Style) Bifurcation(title string, params []float64, values [][]float64) string {
	var pts []analysis.Point2
	for i, p := range params {
		if i >= len(values) {
			break
		}
		for _, v := range values[i] {
			pts = append(pts, analysis.Point2{X: p, Y: v})
		}
	}
	return s.Scatter(title, pts)
}

func zip(xs, ys []float64) []analysis.Point2 {
	n := min(len(xs), len(ys))
	out := make([]analysis.Point2, n)
	for i := 0; i < n; i++ {
		out[i] = analysis.Point2{X: xs[i], Y: ys[i]}
	}
	return out
}
