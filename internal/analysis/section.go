package analysis

import (
	"fmt"

	"github.com/san-kum/dynlab/internal/dynamo"
)

// Point2 is a point in a two-dimensional projection.
type Point2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Plane selects the coordinate held fixed by a Poincaré section.
type Plane int

const (
	PlaneX Plane = iota
	PlaneY
	PlaneZ
)

func (p Plane) String() string {
	switch p {
	case PlaneX:
		return "x"
	case PlaneY:
		return "y"
	case PlaneZ:
		return "z"
	}
	return fmt.Sprintf("Plane(%d)", int(p))
}

func ParsePlane(s string) (Plane, error) {
	switch s {
	case "x":
		return PlaneX, nil
	case "y":
		return PlaneY, nil
	case "z":
		return PlaneZ, nil
	}
	return 0, dynamo.NewError(dynamo.KindInvalidInput, "unknown section plane %q", s).
		WithSuggestion("use x, y or z")
}

// axes returns the crossing coordinate and the two recorded coordinates.
func (p Plane) axes() (cross, a, b int) {
	switch p {
	case PlaneX:
		return 0, 1, 2
	case PlaneY:
		return 1, 0, 2
	default:
		return 2, 0, 1
	}
}

// Section returns the points where a 3D trajectory crosses the plane
// coord = value, located by linear interpolation between the samples that
// bracket a strict sign change. A plane z section records (x, y), y records
// (x, z) and x records (y, z).
func Section(tr *dynamo.Trajectory, plane Plane, value float64) []Point2 {
	if tr == nil {
		return nil
	}
	c, ia, ib := plane.axes()
	var out []Point2
	for i := 1; i < len(tr.States); i++ {
		prev, cur := tr.States[i-1], tr.States[i]
		if len(prev) < 3 || len(cur) < 3 {
			continue
		}
		d0, d1 := prev[c]-value, cur[c]-value
		if d0*d1 >= 0 {
			continue
		}
		s := (value - prev[c]) / (cur[c] - prev[c])
		out = append(out, Point2{
			X: prev[ia] + s*(cur[ia]-prev[ia]),
			Y: prev[ib] + s*(cur[ib]-prev[ib]),
		})
	}
	return out
}

// Project extracts coordinates i and j of every sample.
func Project(tr *dynamo.Trajectory, i, j int) []Point2 {
	out := make([]Point2, 0, tr.Len())
	for _, s := range tr.States {
		if i < len(s) && j < len(s) {
			out = append(out, Point2{X: s[i], Y: s[j]})
		}
	}
	return out
}
