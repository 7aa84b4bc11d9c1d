package render

import (
	"encoding/base64"
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/dynlab/internal/analysis"
	"github.com/san-kum/dynlab/internal/dynamo"
)

// DataURI embeds an SVG document as a base64 data URI.
func DataURI(svg string) string {
	return "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(svg))
}

// svgDoc accumulates elements drawn in data coordinates.
type svgDoc struct {
	sb   strings.Builder
	w, h int
	v    Viewport
}

func (s Style) newDoc(v Viewport) *svgDoc {
	d := &svgDoc{w: s.SVGWidth, h: s.SVGHeight, v: v}
	fmt.Fprintf(&d.sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
`, d.w, d.h, d.w, d.h, s.Theme.Background)
	return d
}

func (d *svgDoc) px(x, y float64) (float64, float64) {
	sx := (x - d.v.MinX) / (d.v.MaxX - d.v.MinX) * float64(d.w)
	sy := float64(d.h) - (y-d.v.MinY)/(d.v.MaxY-d.v.MinY)*float64(d.h)
	return sx, sy
}

func (d *svgDoc) path(pts []analysis.Point2, stroke string) {
	started := false
	for _, p := range pts {
		if !finite(p.X) || !finite(p.Y) {
			continue
		}
		x, y := d.px(p.X, p.Y)
		if !started {
			fmt.Fprintf(&d.sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="M%.1f,%.1f`, stroke, x, y)
			started = true
		} else {
			fmt.Fprintf(&d.sb, " L%.1f,%.1f", x, y)
		}
	}
	if started {
		d.sb.WriteString("\"/>\n")
	}
}

func (d *svgDoc) dot(x, y, r float64, fill string) {
	if !finite(x) || !finite(y) {
		return
	}
	cx, cy := d.px(x, y)
	fmt.Fprintf(&d.sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\" fill=\"%s\"/>\n", cx, cy, r, fill)
}

func (d *svgDoc) line(x0, y0, x1, y1 float64, stroke string) {
	ax, ay := d.px(x0, y0)
	bx, by := d.px(x1, y1)
	fmt.Fprintf(&d.sb, "<line x1=\"%.1f\" y1=\"%.1f\" x2=\"%.1f\" y2=\"%.1f\" stroke=\"%s\" stroke-width=\"1\"/>\n",
		ax, ay, bx, by, stroke)
}

func (d *svgDoc) String() string {
	return d.sb.String() + "</svg>"
}

func (s Style) palette(i int) string {
	colors := []string{string(s.Theme.Primary), string(s.Theme.Secondary), string(s.Theme.Accent), string(s.Theme.Warning)}
	return colors[i%len(colors)]
}

// PathSVG draws each series as a polyline on a shared viewport.
func (s Style) PathSVG(series ...[]analysis.Point2) string {
	var all []analysis.Point2
	for _, ser := range series {
		all = append(all, ser...)
	}
	d := s.newDoc(Fit(all))
	for i, ser := range series {
		d.path(ser, s.palette(i))
	}
	return d.String()
}

// ScatterSVG draws points as small dots.
func (s Style) ScatterSVG(pts []analysis.Point2) string {
	d := s.newDoc(Fit(pts))
	for _, p := range pts {
		d.dot(p.X, p.Y, 1.2, string(s.Theme.Primary))
	}
	return d.String()
}

// FieldSVG draws a normalised arrow per grid cell, optional trajectories and
// markers for equilibria.
func (s Style) FieldSVG(f dynamo.VectorField, markers []analysis.Point2, trajectories ...[]analysis.Point2) string {
	if len(f.X) == 0 || len(f.Y) == 0 {
		return s.newDoc(Viewport{-1, 1, -1, 1}).String()
	}
	v := Viewport{f.X[0], f.X[len(f.X)-1], f.Y[0], f.Y[len(f.Y)-1]}
	if v.MaxX <= v.MinX || v.MaxY <= v.MinY {
		v = v.pad(0.5)
	}
	d := s.newDoc(v)

	cell := 0.4 * math.Min((v.MaxX-v.MinX)/float64(max(len(f.X)-1, 1)), (v.MaxY-v.MinY)/float64(max(len(f.Y)-1, 1)))
	muted := string(s.Theme.Muted)
	for i, y := range f.Y {
		for j, x := range f.X {
			u, w := f.U[i][j], f.V[i][j]
			mag := math.Hypot(u, w)
			if mag < 1e-12 || !finite(mag) {
				continue
			}
			dx, dy := u/mag*cell, w/mag*cell
			d.line(x, y, x+dx, y+dy, muted)
			d.dot(x+dx, y+dy, 1.2, muted)
		}
	}
	for i, tr := range trajectories {
		d.path(tr, s.palette(i))
	}
	for _, m := range markers {
		d.dot(m.X, m.Y, 4, string(s.Theme.Error))
	}
	return d.String()
}

// CanvasSVG converts a braille canvas to one circle per lit dot.
func (s Style) CanvasSVG(c *Canvas, scale float64) string {
	w, h := float64(c.Width)*scale*2, float64(c.Height)*scale*4
	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
<g fill="%s">
`, w, h, w, h, s.Theme.Background, s.Theme.Primary)
	for y := 0; y < c.Height*4; y++ {
		for x := 0; x < c.Width*2; x++ {
			if c.IsSet(x, y) {
				fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n",
					float64(x)*scale+scale/2, float64(y)*scale+scale/2, scale*0.4)
			}
		}
	}
	sb.WriteString("</g>\n</svg>")
	return sb.String()
}
