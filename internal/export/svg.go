package export

import (
	"fmt"
	"io"

	svg "github.com/ajstarks/svgo/float"
	"github.com/paulmach/orb"

	"github.com/trellislab/trellis/backend-go/internal/engine"
)

// WriteSVG renders the compiled scene as a standalone SVG document. The
// viewport is the tight bounding box of every command point plus margin
// on each side, so the drawing lands fully inside whatever viewer opens
// it. An empty scene still produces a valid margin-sized document.
func WriteSVG(w io.Writer, scene *engine.Scene, margin float64) error {
	tw := &trackingWriter{w: w}
	canvas := svg.New(tw)

	b, ok := sceneBounds(scene)
	if !ok {
		canvas.Start(2*margin, 2*margin)
		canvas.End()
		return tw.err
	}

	canvas.Start(b.Max[0]-b.Min[0]+2*margin, b.Max[1]-b.Min[1]+2*margin)
	tx := func(x float64) float64 { return x - b.Min[0] + margin }
	ty := func(y float64) float64 { return y - b.Min[1] + margin }

	for _, c := range scene.Commands {
		switch c.Op {
		case "dot":
			p := c.Points[0]
			canvas.Circle(tx(p[0]), ty(p[1]), c.Radius,
				fmt.Sprintf("fill:%s;stroke:none", c.Color))
		case "line":
			a, b := c.Points[0], c.Points[1]
			canvas.Line(tx(a[0]), ty(a[1]), tx(b[0]), ty(b[1]), lineStyle(c))
		case "loop":
			xs := make([]float64, len(c.Points))
			ys := make([]float64, len(c.Points))
			for i, p := range c.Points {
				xs[i] = tx(p[0])
				ys[i] = ty(p[1])
			}
			canvas.Polyline(xs, ys, lineStyle(c))
		}
	}

	canvas.End()
	return tw.err
}

func lineStyle(c engine.DrawCommand) string {
	return fmt.Sprintf("fill:none;stroke:%s;stroke-width:%g;stroke-linecap:round", c.Color, c.Width)
}

func sceneBounds(scene *engine.Scene) (orb.Bound, bool) {
	var pts orb.MultiPoint
	for _, c := range scene.Commands {
		pts = append(pts, c.Points...)
	}
	if len(pts) == 0 {
		return orb.Bound{}, false
	}
	return pts.Bound(), true
}

// trackingWriter keeps the first write error so callers get it back even
// though the svg canvas itself never reports one.
type trackingWriter struct {
	w   io.Writer
	err error
}

func (t *trackingWriter) Write(p []byte) (int, error) {
	if t.err != nil {
		return 0, t.err
	}
	n, err := t.w.Write(p)
	if err != nil {
		t.err = err
	}
	return n, err
}
