package sketch

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/paulmach/orb"
)

// GrowthMode selects which side(s) of the current front new triangles
// land on. Left rotates each base segment +60 degrees, right -60, both
// advances two independent fronts and concatenates them.
type GrowthMode string

const (
	ModeLeft  GrowthMode = "left"
	ModeRight GrowthMode = "right"
	ModeBoth  GrowthMode = "both"
)

// ParseMode validates a wire-format mode string.
func ParseMode(s string) (GrowthMode, bool) {
	switch GrowthMode(s) {
	case ModeLeft, ModeRight, ModeBoth:
		return GrowthMode(s), true
	}
	return "", false
}

// Phase is the lifecycle of a sketch: no seed yet, seed row being
// authored, or at least one grown layer (seed locked).
type Phase string

const (
	PhaseEmpty   Phase = "empty"
	PhaseSeeding Phase = "seeding"
	PhaseGrown   Phase = "grown"
)

// ExtrusionPolicy decides how grown vertices pick up a height coordinate.
// Stack puts generation i entirely at i*HeightStep. Slant offsets each
// child from its parents by edgeLength*sqrt(3), sinking on left growth
// and rising on right growth.
type ExtrusionPolicy string

const (
	ExtrusionStack ExtrusionPolicy = "stack"
	ExtrusionSlant ExtrusionPolicy = "slant"
)

func ParseExtrusion(s string) (ExtrusionPolicy, bool) {
	switch ExtrusionPolicy(s) {
	case ExtrusionStack, ExtrusionSlant:
		return ExtrusionPolicy(s), true
	}
	return "", false
}

// Triangle is one 2D face: two parent-row vertices and the derived apex.
type Triangle = [3]orb.Point

// Face is the extruded counterpart of a Triangle.
type Face = [3]mgl64.Vec3

// Visibility holds the four independent primitive-kind toggles. Undone
// layers stay hidden no matter how these are set.
type Visibility struct {
	Dots     bool `json:"dots"`
	RowEdges bool `json:"rowEdges"`
	TriEdges bool `json:"triEdges"`
	Hull     bool `json:"hull"`
}

// Set flips one kind by wire name; unknown kinds report false.
func (v *Visibility) Set(kind string, on bool) bool {
	switch kind {
	case "dots":
		v.Dots = on
	case "rowEdges":
		v.RowEdges = on
	case "triEdges":
		v.TriEdges = on
	case "hull":
		v.Hull = on
	default:
		return false
	}
	return true
}

// Branch is one independently advancing growth front in dual mode.
type Branch struct {
	Row   []orb.Point  `json:"row"`
	Row3D []mgl64.Vec3 `json:"row3d"`
}

// BranchPair snapshots both dual-mode fronts. A nil pair means the last
// growth step was not dual, so the next dual step reinitializes from the
// composite top row.
type BranchPair struct {
	Left  Branch `json:"left"`
	Right Branch `json:"right"`
}

// Layer is one grown generation with everything needed to draw it,
// extrude it, and replay it bit-identically after an undo: the 2D row,
// the recorded heights, the triangles and faces this step produced, and
// the dual-branch state as it stood once the step completed.
type Layer struct {
	Tag      string       `json:"tag"`
	Row      []orb.Point  `json:"row"`
	Row3D    []mgl64.Vec3 `json:"row3d"`
	Tris     []Triangle   `json:"tris"`
	Faces    []Face       `json:"faces"`
	Branches *BranchPair  `json:"branches,omitempty"`
}

// Sketch is the whole in-memory model: the user-authored seed row, the
// grown layers in order, and the stack of undone layer snapshots that
// redo replays. There is no other persistence; clearing or dropping the
// sketch loses everything by contract.
type Sketch struct {
	Seed   []orb.Point `json:"seed"`
	Layers []Layer     `json:"layers"`
	Undone []Layer     `json:"undone"`

	Show        Visibility      `json:"show"`
	StrokeWidth float64         `json:"strokeWidth"`
	DotRadius   float64         `json:"dotRadius"`
	Extrusion   ExtrusionPolicy `json:"extrusion"`
	HeightStep  float64         `json:"heightStep"`
}

// New returns an empty sketch with every primitive kind visible and the
// stock stroke, dot and extrusion settings.
func New() *Sketch {
	return &Sketch{
		Show:        Visibility{Dots: true, RowEdges: true, TriEdges: true, Hull: true},
		StrokeWidth: 2,
		DotRadius:   3,
		Extrusion:   ExtrusionStack,
		HeightStep:  100,
	}
}

func (s *Sketch) Phase() Phase {
	switch {
	case len(s.Seed) == 0:
		return PhaseEmpty
	case len(s.Layers) == 0:
		return PhaseSeeding
	default:
		return PhaseGrown
	}
}

// SeedLocked reports whether the seed row is frozen. It flips as layers
// come and go: undoing back to the bare seed unlocks editing again.
func (s *Sketch) SeedLocked() bool {
	return len(s.Layers) > 0
}

// AddSeed appends a seed point. Silent no-op once the seed is locked.
// Editing the seed forks the timeline, so any redo history is dropped.
func (s *Sketch) AddSeed(p orb.Point) bool {
	if s.SeedLocked() {
		return false
	}
	s.Seed = append(s.Seed, p)
	s.Undone = nil
	return true
}

// MoveSeed replaces seed point i. Same locking and redo rules as AddSeed.
func (s *Sketch) MoveSeed(i int, p orb.Point) bool {
	if s.SeedLocked() || i < 0 || i >= len(s.Seed) {
		return false
	}
	s.Seed[i] = p
	s.Undone = nil
	return true
}

// TopRow is the current growth front: the last layer's row, or the seed.
func (s *Sketch) TopRow() []orb.Point {
	if len(s.Layers) > 0 {
		return s.Layers[len(s.Layers)-1].Row
	}
	return s.Seed
}

// TopRow3D is the current front with recorded heights; the seed sits at
// height zero.
func (s *Sketch) TopRow3D() []mgl64.Vec3 {
	if len(s.Layers) > 0 {
		return s.Layers[len(s.Layers)-1].Row3D
	}
	row := make([]mgl64.Vec3, len(s.Seed))
	for i, p := range s.Seed {
		row[i] = mgl64.Vec3{p[0], p[1], 0}
	}
	return row
}

// CurrentBranches is the dual-mode state carried by the top layer, nil
// when the last step was single-direction or no layers exist. Keeping
// branch state on the layer that produced it means undo and redo restore
// it for free, and growing in a single direction retires it.
func (s *Sketch) CurrentBranches() *BranchPair {
	if len(s.Layers) == 0 {
		return nil
	}
	return s.Layers[len(s.Layers)-1].Branches
}

// PushLayer appends a freshly grown layer and discards redo history.
func (s *Sketch) PushLayer(l Layer) {
	s.Layers = append(s.Layers, l)
	s.Undone = nil
	s.check()
}

// Undo pops the top layer onto the undone stack. Refuses at the seed.
func (s *Sketch) Undo() bool {
	if len(s.Layers) == 0 {
		return false
	}
	last := s.Layers[len(s.Layers)-1]
	s.Layers = s.Layers[:len(s.Layers)-1]
	s.Undone = append(s.Undone, last)
	return true
}

// Redo re-pushes the most recently undone layer verbatim: same points,
// same tag, same heights and faces. Nothing is recomputed, so a
// growth-mode or policy change between undo and redo cannot diverge the
// mesh.
func (s *Sketch) Redo() bool {
	if len(s.Undone) == 0 {
		return false
	}
	last := s.Undone[len(s.Undone)-1]
	s.Undone = s.Undone[:len(s.Undone)-1]
	s.Layers = append(s.Layers, last)
	s.check()
	return true
}

// Clear resets to the empty phase. Settings (visibility, stroke, policy)
// survive; all geometry and history is gone. Idempotent.
func (s *Sketch) Clear() {
	s.Seed = nil
	s.Layers = nil
	s.Undone = nil
}

// HiddenTags lists the tags of undone layers, newest last. These stay
// invisible regardless of the Show toggles until redone or cleared.
func (s *Sketch) HiddenTags() []string {
	if len(s.Undone) == 0 {
		return nil
	}
	tags := make([]string, len(s.Undone))
	for i, l := range s.Undone {
		tags[i] = l.Tag
	}
	return tags
}

// Tags lists the live layer tags in growth order.
func (s *Sketch) Tags() []string {
	tags := make([]string, len(s.Layers))
	for i, l := range s.Layers {
		tags[i] = l.Tag
	}
	return tags
}

// Generations returns every live row, seed first.
func (s *Sketch) Generations() [][]orb.Point {
	gens := make([][]orb.Point, 0, len(s.Layers)+1)
	gens = append(gens, s.Seed)
	for _, l := range s.Layers {
		gens = append(gens, l.Row)
	}
	return gens
}

// LiveTriangles flattens the 2D triangles of all live layers, in growth
// order. Undone layers are on the redo stack and contribute nothing.
func (s *Sketch) LiveTriangles() []Triangle {
	var tris []Triangle
	for _, l := range s.Layers {
		tris = append(tris, l.Tris...)
	}
	return tris
}

// LiveFaces flattens the 3D faces of all live layers, in growth order.
func (s *Sketch) LiveFaces() []Face {
	var faces []Face
	for _, l := range s.Layers {
		faces = append(faces, l.Faces...)
	}
	return faces
}

// check panics on internal inconsistency. These are programming defects,
// never a reachable user state.
func (s *Sketch) check() {
	seen := make(map[string]struct{}, len(s.Layers))
	for i, l := range s.Layers {
		if l.Tag == "" {
			panic(fmt.Sprintf("sketch: layer %d has no tag", i))
		}
		if _, dup := seen[l.Tag]; dup {
			panic(fmt.Sprintf("sketch: duplicate layer tag %s", l.Tag))
		}
		seen[l.Tag] = struct{}{}
		if len(l.Row3D) != len(l.Row) {
			panic(fmt.Sprintf("sketch: layer %s has %d points but %d heights", l.Tag, len(l.Row), len(l.Row3D)))
		}
		if len(l.Faces) != len(l.Tris) {
			panic(fmt.Sprintf("sketch: layer %s has %d triangles but %d faces", l.Tag, len(l.Tris), len(l.Faces)))
		}
		if l.Branches != nil && (len(l.Branches.Left.Row) == 0 || len(l.Branches.Right.Row) == 0) {
			panic(fmt.Sprintf("sketch: layer %s has a half-empty branch pair", l.Tag))
		}
	}
}

// Clone deep-copies the sketch. Exports serialize from a clone so the
// live model stays free to mutate the moment the engine lock is
// released.
func (s *Sketch) Clone() *Sketch {
	c := *s
	c.Seed = append([]orb.Point(nil), s.Seed...)
	c.Layers = cloneLayers(s.Layers)
	c.Undone = cloneLayers(s.Undone)
	return &c
}

func cloneLayers(layers []Layer) []Layer {
	if layers == nil {
		return nil
	}
	out := make([]Layer, len(layers))
	for i, l := range layers {
		out[i] = Layer{
			Tag:   l.Tag,
			Row:   append([]orb.Point(nil), l.Row...),
			Row3D: append([]mgl64.Vec3(nil), l.Row3D...),
			Tris:  append([]Triangle(nil), l.Tris...),
			Faces: append([]Face(nil), l.Faces...),
		}
		if l.Branches != nil {
			out[i].Branches = &BranchPair{
				Left: Branch{
					Row:   append([]orb.Point(nil), l.Branches.Left.Row...),
					Row3D: append([]mgl64.Vec3(nil), l.Branches.Left.Row3D...),
				},
				Right: Branch{
					Row:   append([]orb.Point(nil), l.Branches.Right.Row...),
					Row3D: append([]mgl64.Vec3(nil), l.Branches.Right.Row3D...),
				},
			}
		}
	}
	return out
}
