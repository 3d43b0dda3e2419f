package export

import (
	"bufio"
	"fmt"
	"io"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/trellislab/trellis/backend-go/internal/sketch"
)

// WriteOBJ emits the extruded triangle mesh as Wavefront OBJ text:
// vertex and face elements only, so every mesh tool can read it.
// Vertices are deduplicated on exact coordinates and numbered in
// first-use order, 1-based as the format requires; faces keep their
// creation order.
func WriteOBJ(w io.Writer, name string, faces []sketch.Face) error {
	bw := bufio.NewWriter(w)

	if name == "" {
		name = "sketch"
	}

	index := make(map[mgl64.Vec3]int)
	var vertices []mgl64.Vec3
	for _, f := range faces {
		for _, v := range f {
			if _, seen := index[v]; !seen {
				index[v] = len(vertices) + 1
				vertices = append(vertices, v)
			}
		}
	}

	fmt.Fprintf(bw, "# %s\n", name)
	fmt.Fprintf(bw, "# vertices: %d faces: %d\n", len(vertices), len(faces))

	for _, v := range vertices {
		fmt.Fprintf(bw, "v %.6f %.6f %.6f\n", v.X(), v.Y(), v.Z())
	}
	for _, f := range faces {
		fmt.Fprintf(bw, "f %d %d %d\n", index[f[0]], index[f[1]], index[f[2]])
	}

	return bw.Flush()
}
