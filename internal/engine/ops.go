package engine

import (
	"github.com/trellislab/trellis/backend-go/internal/sketch"
)

// Op is one wire-encoded user action, shared by the HTTP ops endpoint
// and the WebSocket protocol. Fields beyond Type are read only by the
// operation types that use them.
type Op struct {
	Type   string  `json:"type"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	Index  int     `json:"index,omitempty"`
	Mode   string  `json:"mode,omitempty"`
	Kind   string  `json:"kind,omitempty"`
	On     bool    `json:"on,omitempty"`
	Width  float64 `json:"width,omitempty"`
	Policy string  `json:"policy,omitempty"`
}

// Apply dispatches one wire operation. Unknown types are refused like
// any other invalid operation, so a stale client cannot take the
// session down.
func (e *Engine) Apply(op Op) OpResult {
	switch op.Type {
	case "seed.add":
		return e.AddSeed(op.X, op.Y)
	case "seed.move":
		return e.MoveSeed(op.Index, op.X, op.Y)
	case "layer.grow":
		return e.Grow(sketch.GrowthMode(op.Mode))
	case "run":
		return e.Run(sketch.GrowthMode(op.Mode))
	case "undo":
		return e.Undo()
	case "redo":
		return e.Redo()
	case "clear":
		return e.Clear()
	case "visibility.set":
		return e.SetVisibility(op.Kind, op.On)
	case "stroke.set":
		return e.SetStrokeWidth(op.Width)
	case "extrusion.set":
		return e.SetExtrusion(sketch.ExtrusionPolicy(op.Policy))
	default:
		e.mu.Lock()
		defer e.mu.Unlock()
		return e.noop("unknown operation type")
	}
}
