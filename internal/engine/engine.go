package engine

import (
	"encoding/json"
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/trellislab/trellis/backend-go/internal/geometry"
	"github.com/trellislab/trellis/backend-go/internal/silhouette"
	"github.com/trellislab/trellis/backend-go/internal/sketch"
)

// Engine owns one sketch and everything derived from it: the silhouette
// loops and the compiled draw-command scene. Every operation runs to
// completion under the engine lock, so the model stays single-writer no
// matter how many transports (HTTP, WebSocket, WASM) share the engine.
type Engine struct {
	mu sync.Mutex

	sk *sketch.Sketch

	// Retained derived state, rebuilt lazily when dirty.
	loops []orb.Ring
	scene *Scene

	revision uint64
	dirty    bool
}

// New creates an engine around an empty sketch.
func New() *Engine {
	return NewWith(sketch.New())
}

// NewWith wraps an existing sketch, e.g. the sample one.
func NewWith(sk *sketch.Sketch) *Engine {
	return &Engine{sk: sk, dirty: true}
}

// OpResult reports whether an operation changed the model. Operations
// that are invalid for the current state come back Applied=false with a
// reason; they are expected transient UI states, never errors.
type OpResult struct {
	Applied  bool   `json:"applied"`
	Reason   string `json:"reason,omitempty"`
	Revision uint64 `json:"revision"`
}

func (e *Engine) applied() OpResult {
	e.revision++
	e.dirty = true
	return OpResult{Applied: true, Revision: e.revision}
}

func (e *Engine) noop(reason string) OpResult {
	return OpResult{Applied: false, Reason: reason, Revision: e.revision}
}

// --- Operations (one user action each) ---

// AddSeed appends a seed point while the seed row is unlocked.
func (e *Engine) AddSeed(x, y float64) OpResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.sk.AddSeed(orb.Point{x, y}) {
		return e.noop("seed is locked after growth")
	}
	return e.applied()
}

// MoveSeed drags seed point i to a new position.
func (e *Engine) MoveSeed(i int, x, y float64) OpResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.sk.MoveSeed(i, orb.Point{x, y}) {
		return e.noop("seed point cannot be moved")
	}
	return e.applied()
}

// Grow derives the next generation from the current front.
func (e *Engine) Grow(mode sketch.GrowthMode) OpResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.growLocked(mode)
}

// Run grows repeatedly until the top generation is down to two points.
// Dual mode has no natural stopping point, so Run refuses it.
func (e *Engine) Run(mode sketch.GrowthMode) OpResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	if mode == sketch.ModeBoth {
		return e.noop("run to completion is disabled for dual growth")
	}

	grown := 0
	for len(e.sk.TopRow()) > 2 {
		res := e.growLocked(mode)
		if !res.Applied {
			if grown == 0 {
				return res
			}
			break
		}
		grown++
	}
	if grown == 0 {
		return e.noop("nothing left to grow")
	}
	return OpResult{Applied: true, Revision: e.revision}
}

// Undo pops the newest generation onto the redo stack.
func (e *Engine) Undo() OpResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.sk.Undo() {
		return e.noop("nothing to undo")
	}
	return e.applied()
}

// Redo replays the most recently undone generation bit-identically.
func (e *Engine) Redo() OpResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.sk.Redo() {
		return e.noop("nothing to redo")
	}
	return e.applied()
}

// Clear resets the sketch to the empty phase. Always applies.
func (e *Engine) Clear() OpResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.sk.Clear()
	return e.applied()
}

// SetVisibility flips one primitive-kind toggle by wire name.
func (e *Engine) SetVisibility(kind string, on bool) OpResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.sk.Show.Set(kind, on) {
		return e.noop("unknown primitive kind")
	}
	return e.applied()
}

// SetStrokeWidth updates the line width carried by every edge command.
func (e *Engine) SetStrokeWidth(w float64) OpResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	if w <= 0 {
		return e.noop("stroke width must be positive")
	}
	e.sk.StrokeWidth = w
	return e.applied()
}

// SetExtrusion switches the height policy for subsequent growth.
func (e *Engine) SetExtrusion(policy sketch.ExtrusionPolicy) OpResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := sketch.ParseExtrusion(string(policy)); !ok {
		return e.noop("unknown extrusion policy")
	}
	e.sk.Extrusion = policy
	return e.applied()
}

// --- Queries ---

// HitSeed finds the seed point within grab range of (x, y), preferring
// the closest. The range is three dot radii, matching the drag
// affordance renderers draw.
func (e *Engine) HitSeed(x, y float64) (int, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	at := orb.Point{x, y}
	best, bestDist := -1, e.sk.DotRadius*3
	for i, p := range e.sk.Seed {
		if d := planar.Distance(p, at); d <= bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return 0, false
	}
	return best, true
}

// Scene returns the compiled draw commands for the current state,
// rebuilding silhouette loops and commands only when something changed.
func (e *Engine) Scene() *Scene {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.rebuildLocked()
	return e.scene
}

// SceneJSON is Scene serialized for the WASM boundary.
func (e *Engine) SceneJSON() string {
	data, err := json.Marshal(e.Scene())
	if err != nil {
		return "{}"
	}
	return string(data)
}

// Info summarizes the sketch for listings and the info endpoint.
type Info struct {
	Phase       sketch.Phase           `json:"phase"`
	SeedPoints  int                    `json:"seedPoints"`
	Layers      int                    `json:"layers"`
	Undone      int                    `json:"undone"`
	Faces       int                    `json:"faces"`
	Show        sketch.Visibility      `json:"show"`
	StrokeWidth float64                `json:"strokeWidth"`
	Extrusion   sketch.ExtrusionPolicy `json:"extrusion"`
	Revision    uint64                 `json:"revision"`
}

func (e *Engine) Info() Info {
	e.mu.Lock()
	defer e.mu.Unlock()

	return Info{
		Phase:       e.sk.Phase(),
		SeedPoints:  len(e.sk.Seed),
		Layers:      len(e.sk.Layers),
		Undone:      len(e.sk.Undone),
		Faces:       len(e.sk.LiveFaces()),
		Show:        e.sk.Show,
		StrokeWidth: e.sk.StrokeWidth,
		Extrusion:   e.sk.Extrusion,
		Revision:    e.revision,
	}
}

// Snapshot deep-copies the sketch and silhouette for exports, which
// serialize outside the lock.
func (e *Engine) Snapshot() (*sketch.Sketch, []orb.Ring) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.rebuildLocked()
	loops := make([]orb.Ring, len(e.loops))
	for i, l := range e.loops {
		loops[i] = append(orb.Ring(nil), l...)
	}
	return e.sk.Clone(), loops
}

// rebuildLocked refreshes the derived state: silhouette loops from the
// live triangle soup, or the seed row's convex hull while nothing has
// grown yet, then the compiled scene. Callers hold e.mu.
func (e *Engine) rebuildLocked() {
	if !e.dirty {
		return
	}

	tris := e.sk.LiveTriangles()
	switch {
	case len(tris) > 0:
		e.loops = silhouette.Loops(tris)
	case len(e.sk.Seed) >= 3:
		hull := geometry.ConvexHull(e.sk.Seed)
		ring := append(orb.Ring(nil), hull...)
		e.loops = []orb.Ring{append(ring, ring[0])}
	default:
		e.loops = nil
	}

	e.scene = &Scene{
		Revision: e.revision,
		Commands: compileScene(e.sk, e.loops),
	}
	e.dirty = false
}
