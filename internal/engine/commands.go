package engine

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"

	"github.com/trellislab/trellis/backend-go/internal/sketch"
)

// Scene is the compiled drawing for one revision of the sketch. The
// frontend replays the commands in order on whatever surface it has;
// nothing here knows about pixels.
type Scene struct {
	Revision uint64        `json:"revision"`
	Commands []DrawCommand `json:"commands"`
}

// DrawCommand is a single primitive in painter's order.
type DrawCommand struct {
	Op     string      `json:"op"`    // "dot", "line" or "loop"
	Layer  string      `json:"layer"` // owning generation tag, "seed" or "boundary"
	Points []orb.Point `json:"points"`
	Color  string      `json:"color"`
	Width  float64     `json:"width,omitempty"`
	Radius float64     `json:"radius,omitempty"`
}

const (
	seedLayer     = "seed"
	boundaryLayer = "boundary"

	seedColor     = "#111111"
	boundaryColor = "#d21f3c"
)

// compileScene generates the command buffer: the seed row, then each
// live layer's base edges, row connectors, triangle edges and dots, with
// the silhouette loops last on top. Undone layers live on the redo
// stack and never render, whatever the visibility toggles say.
func compileScene(sk *sketch.Sketch, loops []orb.Ring) []DrawCommand {
	var cmds []DrawCommand

	if sk.Show.RowEdges {
		for i := 0; i+1 < len(sk.Seed); i++ {
			cmds = append(cmds, line(seedLayer, sk.Seed[i], sk.Seed[i+1], seedColor, sk.StrokeWidth))
		}
	}
	if sk.Show.Dots {
		for _, p := range sk.Seed {
			cmds = append(cmds, dot(seedLayer, p, seedColor, sk.DotRadius))
		}
	}

	for i, l := range sk.Layers {
		color := layerColor(i)

		if sk.Show.RowEdges {
			for _, t := range l.Tris {
				cmds = append(cmds, line(l.Tag, t[0], t[1], color, sk.StrokeWidth))
			}
			cmds = append(cmds, rowConnectors(l, color, sk.StrokeWidth)...)
		}
		if sk.Show.TriEdges {
			for _, t := range l.Tris {
				cmds = append(cmds,
					line(l.Tag, t[1], t[2], color, sk.StrokeWidth),
					line(l.Tag, t[2], t[0], color, sk.StrokeWidth),
				)
			}
		}
		if sk.Show.Dots {
			for _, p := range l.Row {
				cmds = append(cmds, dot(l.Tag, p, color, sk.DotRadius))
			}
		}
	}

	if sk.Show.Hull {
		for _, loop := range loops {
			cmds = append(cmds, DrawCommand{
				Op:     "loop",
				Layer:  boundaryLayer,
				Points: append([]orb.Point(nil), loop...),
				Color:  boundaryColor,
				Width:  sk.StrokeWidth,
			})
		}
	}

	return cmds
}

// rowConnectors joins consecutive points of a layer's row. A dual-mode
// layer connects within each branch separately; the composite row is
// two fronts, and bridging the seam between them would draw an edge
// that was never grown.
func rowConnectors(l sketch.Layer, color string, width float64) []DrawCommand {
	rows := [][]orb.Point{l.Row}
	if l.Branches != nil {
		rows = [][]orb.Point{l.Branches.Left.Row, l.Branches.Right.Row}
	}

	var cmds []DrawCommand
	for _, row := range rows {
		for i := 0; i+1 < len(row); i++ {
			cmds = append(cmds, line(l.Tag, row[i], row[i+1], color, width))
		}
	}
	return cmds
}

func line(layer string, a, b orb.Point, color string, width float64) DrawCommand {
	return DrawCommand{Op: "line", Layer: layer, Points: []orb.Point{a, b}, Color: color, Width: width}
}

func dot(layer string, p orb.Point, color string, radius float64) DrawCommand {
	return DrawCommand{Op: "dot", Layer: layer, Points: []orb.Point{p}, Color: color, Radius: radius}
}

// layerColor walks the hue wheel in 0.15 steps so neighbouring
// generations stay easy to tell apart.
func layerColor(i int) string {
	h := math.Mod(float64(i)*0.15, 1)
	r, g, b := hsvToRGB(h, 0.9, 0.95)
	return fmt.Sprintf("#%02x%02x%02x", int(r*255), int(g*255), int(b*255))
}

func hsvToRGB(h, s, v float64) (float64, float64, float64) {
	i := int(h * 6)
	f := h*6 - float64(i)
	p := v * (1 - s)
	q := v * (1 - f*s)
	t := v * (1 - (1-f)*s)

	switch i % 6 {
	case 0:
		return v, t, p
	case 1:
		return q, v, p
	case 2:
		return p, v, t
	case 3:
		return p, q, v
	case 4:
		return t, p, v
	default:
		return v, p, q
	}
}
