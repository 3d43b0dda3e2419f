package geometry

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/paulmach/orb"
)

// SignLeft and SignRight select which side of a base segment a derived
// vertex lands on. Left is a +60 degree (counter-clockwise) rotation in
// standard math axes, so growing the seed [(0,0) (100,0)] leftward puts
// the apex at (50, +86.6025...). Renderers with y-down screen axes see
// the mirror image; the engine never flips.
const (
	SignLeft  = 1.0
	SignRight = -1.0
)

// ThirdVertex completes an equilateral triangle on the base segment p->q.
// The vector q-p is rotated by 60 degrees times sign and re-anchored at
// p. No scaling is applied, so the result is exactly one edge length from
// both inputs.
func ThirdVertex(p, q orb.Point, sign float64) orb.Point {
	v := mgl64.Vec2{q[0] - p[0], q[1] - p[1]}
	r := mgl64.Rotate2D(sign * math.Pi / 3).Mul2x1(v)
	return orb.Point{p[0] + r[0], p[1] + r[1]}
}

// ConvexHull returns the convex hull of pts as an open loop (first vertex
// not repeated) in counter-clockwise order, built with the monotone chain
// construction. Collinear points are excluded. Fewer than three points
// are returned unchanged.
func ConvexHull(pts []orb.Point) orb.Ring {
	if len(pts) < 3 {
		return orb.Ring(append([]orb.Point(nil), pts...))
	}

	sorted := append([]orb.Point(nil), pts...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i][0] != sorted[j][0] {
			return sorted[i][0] < sorted[j][0]
		}
		return sorted[i][1] < sorted[j][1]
	})

	var lower []orb.Point
	for _, p := range sorted {
		for len(lower) >= 2 && cross(lower[len(lower)-2], lower[len(lower)-1], p) <= 0 {
			lower = lower[:len(lower)-1]
		}
		lower = append(lower, p)
	}

	var upper []orb.Point
	for i := len(sorted) - 1; i >= 0; i-- {
		p := sorted[i]
		for len(upper) >= 2 && cross(upper[len(upper)-2], upper[len(upper)-1], p) <= 0 {
			upper = upper[:len(upper)-1]
		}
		upper = append(upper, p)
	}

	hull := append(lower[:len(lower)-1], upper[:len(upper)-1]...)
	return orb.Ring(hull)
}

// cross is the z component of (a-o) x (b-o); positive means o->a->b
// turns left.
func cross(o, a, b orb.Point) float64 {
	return (a[0]-o[0])*(b[1]-o[1]) - (a[1]-o[1])*(b[0]-o[0])
}

// Quantize snaps a point to integer canvas units. Independently derived
// triangle corners only agree after rounding, so silhouette edge keys and
// vertex identity always go through here.
func Quantize(p orb.Point) [2]int {
	return [2]int{int(math.Round(p[0])), int(math.Round(p[1]))}
}
