package sketch

import "github.com/paulmach/orb"

// NewSampleSketch returns a sketch pre-seeded with a shallow four-point
// arc, ready to grow. The playground frontend starts from this instead of
// a blank canvas.
func NewSampleSketch() *Sketch {
	s := New()
	s.Seed = []orb.Point{
		{120, 300},
		{240, 260},
		{380, 270},
		{520, 330},
	}
	return s
}
