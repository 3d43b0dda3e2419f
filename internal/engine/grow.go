package engine

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/trellislab/trellis/backend-go/internal/geometry"
	"github.com/trellislab/trellis/backend-go/internal/sketch"
	"github.com/trellislab/trellis/backend-go/internal/typeid"
)

// growLocked builds and pushes the next layer. Callers hold e.mu.
//
// Single directions advance the composite top row once. Dual mode keeps
// two branches that each advance from their own previous output; the
// composite row is left children followed by right children. Branch
// state rides on the pushed layer, so growing in a single direction
// retires it and undo/redo restore it without special cases.
func (e *Engine) growLocked(mode sketch.GrowthMode) OpResult {
	if len(e.sk.TopRow()) < 2 {
		return e.noop("growing needs at least two points")
	}

	childGen := len(e.sk.Layers) + 1
	var layer sketch.Layer

	switch mode {
	case sketch.ModeLeft, sketch.ModeRight:
		sign := geometry.SignLeft
		if mode == sketch.ModeRight {
			sign = geometry.SignRight
		}
		st := advance(e.sk.TopRow(), e.sk.TopRow3D(), sign, e.sk.Extrusion, childGen, e.sk.HeightStep)
		layer = sketch.Layer{
			Tag:   typeid.NewLayerTag(),
			Row:   st.row,
			Row3D: st.row3d,
			Tris:  st.tris,
			Faces: st.faces,
		}

	case sketch.ModeBoth:
		pair := e.sk.CurrentBranches()
		if pair == nil {
			top := append([]orb.Point(nil), e.sk.TopRow()...)
			top3d := append([]mgl64.Vec3(nil), e.sk.TopRow3D()...)
			pair = &sketch.BranchPair{
				Left:  sketch.Branch{Row: top, Row3D: top3d},
				Right: sketch.Branch{Row: top, Row3D: top3d},
			}
		}
		if len(pair.Left.Row) < 2 || len(pair.Right.Row) < 2 {
			return e.noop("growing needs at least two points")
		}

		left := advance(pair.Left.Row, pair.Left.Row3D, geometry.SignLeft, e.sk.Extrusion, childGen, e.sk.HeightStep)
		right := advance(pair.Right.Row, pair.Right.Row3D, geometry.SignRight, e.sk.Extrusion, childGen, e.sk.HeightStep)

		row := make([]orb.Point, 0, len(left.row)+len(right.row))
		row = append(append(row, left.row...), right.row...)
		row3d := make([]mgl64.Vec3, 0, len(left.row3d)+len(right.row3d))
		row3d = append(append(row3d, left.row3d...), right.row3d...)
		tris := make([]sketch.Triangle, 0, len(left.tris)+len(right.tris))
		tris = append(append(tris, left.tris...), right.tris...)
		faces := make([]sketch.Face, 0, len(left.faces)+len(right.faces))
		faces = append(append(faces, left.faces...), right.faces...)

		layer = sketch.Layer{
			Tag:   typeid.NewLayerTag(),
			Row:   row,
			Row3D: row3d,
			Tris:  tris,
			Faces: faces,
			Branches: &sketch.BranchPair{
				Left:  sketch.Branch{Row: left.row, Row3D: left.row3d},
				Right: sketch.Branch{Row: right.row, Row3D: right.row3d},
			},
		}

	default:
		return e.noop("unknown growth mode")
	}

	e.sk.PushLayer(layer)
	return e.applied()
}

type step struct {
	row   []orb.Point
	row3d []mgl64.Vec3
	tris  []sketch.Triangle
	faces []sketch.Face
}

// advance derives one generation from row: for every consecutive pair a
// third vertex on the sign side, one triangle per pair, and the matching
// extruded face. The child row is one point shorter than its parent.
func advance(row []orb.Point, row3d []mgl64.Vec3, sign float64, policy sketch.ExtrusionPolicy, childGen int, heightStep float64) step {
	n := len(row) - 1
	st := step{
		row:   make([]orb.Point, 0, n),
		row3d: make([]mgl64.Vec3, 0, n),
		tris:  make([]sketch.Triangle, 0, n),
		faces: make([]sketch.Face, 0, n),
	}

	for i := 0; i+1 < len(row); i++ {
		p, q := row[i], row[i+1]
		c := geometry.ThirdVertex(p, q, sign)
		c3 := mgl64.Vec3{c[0], c[1], childHeight(row3d[i], row3d[i+1], p, q, sign, policy, childGen, heightStep)}

		st.row = append(st.row, c)
		st.row3d = append(st.row3d, c3)
		st.tris = append(st.tris, sketch.Triangle{p, q, c})
		st.faces = append(st.faces, sketch.Face{row3d[i], row3d[i+1], c3})
	}
	return st
}

// childHeight picks the new vertex's height. Stack puts the whole child
// generation on the next flat level. Slant offsets from the parents'
// level by the 2D edge length times sqrt(3): left-signed growth sinks,
// right-signed growth rises.
func childHeight(p3, q3 mgl64.Vec3, p, q orb.Point, sign float64, policy sketch.ExtrusionPolicy, childGen int, heightStep float64) float64 {
	if policy == sketch.ExtrusionSlant {
		mid := (p3.Z() + q3.Z()) / 2
		return mid - sign*planar.Distance(p, q)*math.Sqrt(3)
	}
	return float64(childGen) * heightStep
}
