package export

import (
	"github.com/yofu/dxf"
	"github.com/yofu/dxf/color"
	"github.com/yofu/dxf/entity"

	"github.com/trellislab/trellis/backend-go/internal/engine"
)

// WriteDXF saves the compiled scene as a DXF drawing with one layer per
// primitive kind, so CAD users can switch dots, edges and the
// silhouette on and off independently. The canvas axis points down;
// coordinates are mirrored so viewers show the sketch upright.
func WriteDXF(path string, scene *engine.Scene) error {
	d := dxf.NewDrawing()
	d.Header().LtScale = 1.0

	d.AddLayer("EDGES", color.Green, dxf.DefaultLineType, true)
	for _, c := range scene.Commands {
		if c.Op != "line" {
			continue
		}
		a, b := c.Points[0], c.Points[1]
		d.Line(a[0], -a[1], 0, b[0], -b[1], 0)
	}

	d.AddLayer("DOTS", color.White, dxf.DefaultLineType, true)
	for _, c := range scene.Commands {
		if c.Op != "dot" {
			continue
		}
		p := c.Points[0]
		d.Circle(p[0], -p[1], 0, c.Radius)
	}

	d.AddLayer("SILHOUETTE", color.Red, dxf.DefaultLineType, true)
	for _, c := range scene.Commands {
		if c.Op != "loop" {
			continue
		}
		lwp := entity.NewLwPolyline(len(c.Points))
		for i, p := range c.Points {
			lwp.Vertices[i] = []float64{p[0], -p[1]}
		}
		d.AddEntity(lwp)
	}

	return d.SaveAs(path)
}
