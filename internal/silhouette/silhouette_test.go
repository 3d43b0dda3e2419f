package silhouette

import (
	"testing"

	"github.com/paulmach/orb"

	"github.com/trellislab/trellis/backend-go/internal/geometry"
)

func TestSingleTriangle(t *testing.T) {
	tris := [][3]orb.Point{
		{{0, 0}, {100, 0}, {50, 87}},
	}

	loops := Loops(tris)
	if len(loops) != 1 {
		t.Fatalf("Loops produced %d loops, want 1", len(loops))
	}

	loop := loops[0]
	if len(loop) != 4 {
		t.Fatalf("loop has %d vertices, want 4 (three distinct, closed)", len(loop))
	}
	if loop[0] != loop[len(loop)-1] {
		t.Errorf("loop not closed: first %v, last %v", loop[0], loop[len(loop)-1])
	}

	distinct := map[orb.Point]bool{}
	for _, p := range loop[:len(loop)-1] {
		distinct[p] = true
	}
	if len(distinct) != 3 {
		t.Errorf("loop has %d distinct vertices, want 3: %v", len(distinct), loop)
	}
}

func TestSharedEdgeExcluded(t *testing.T) {
	// Two triangles on the same base, apexes on opposite sides: the base
	// edge occurs twice and must vanish, leaving one rhombus outline.
	tris := [][3]orb.Point{
		{{0, 0}, {100, 0}, {50, 87}},
		{{0, 0}, {100, 0}, {50, -87}},
	}

	loops := Loops(tris)
	if len(loops) != 1 {
		t.Fatalf("Loops produced %d loops, want 1", len(loops))
	}

	loop := loops[0]
	if len(loop) != 5 {
		t.Fatalf("loop has %d vertices, want 5 (four distinct, closed)", len(loop))
	}
	if loop[0] != loop[len(loop)-1] {
		t.Errorf("loop not closed: first %v, last %v", loop[0], loop[len(loop)-1])
	}

	for _, p := range loop {
		if p == (orb.Point{50, 87}) || p == (orb.Point{50, -87}) {
			continue
		}
		if p == (orb.Point{0, 0}) || p == (orb.Point{100, 0}) {
			continue
		}
		t.Errorf("unexpected loop vertex %v", p)
	}
}

func TestQuantizationMergesDriftedCorners(t *testing.T) {
	// The shared base is derived twice with sub-unit float drift; after
	// rounding both triangles must agree on it.
	tris := [][3]orb.Point{
		{{0.0001, -0.0003}, {99.9999, 0.0002}, {50, 87}},
		{{-0.0002, 0.0004}, {100.0003, -0.0001}, {50, -87}},
	}

	loops := Loops(tris)
	if len(loops) != 1 {
		t.Fatalf("Loops produced %d loops, want 1 after quantization", len(loops))
	}
	if len(loops[0]) != 5 {
		t.Errorf("loop has %d vertices, want 5", len(loops[0]))
	}
}

func TestDegenerateSoups(t *testing.T) {
	testCases := []struct {
		name string
		tris [][3]orb.Point
	}{
		{"empty", nil},
		{"coincident pair cancels fully", [][3]orb.Point{
			{{0, 0}, {100, 0}, {50, 87}},
			{{0, 0}, {100, 0}, {50, 87}},
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if loops := Loops(tc.tris); loops != nil {
				t.Errorf("Loops(%v) = %v, want nil", tc.tris, loops)
			}
		})
	}
}

func TestTouchingTrianglesStaySeparateLoops(t *testing.T) {
	// A grown row: triangles meet at shared vertices but share no edge,
	// so each keeps its own loop.
	row := []orb.Point{{0, 0}, {100, 0}, {200, 0}}
	var tris [][3]orb.Point
	for i := 0; i+1 < len(row); i++ {
		c := geometry.ThirdVertex(row[i], row[i+1], geometry.SignLeft)
		tris = append(tris, [3]orb.Point{row[i], row[i+1], c})
	}

	loops := Loops(tris)
	if len(loops) != 2 {
		t.Fatalf("Loops produced %d loops, want 2", len(loops))
	}
	for i, loop := range loops {
		if len(loop) != 4 {
			t.Errorf("loop %d has %d vertices, want 4", i, len(loop))
		}
	}
}
