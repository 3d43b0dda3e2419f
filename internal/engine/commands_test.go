package engine

import (
	"testing"

	"github.com/paulmach/orb"

	"github.com/trellislab/trellis/backend-go/internal/sketch"
)

func countOps(cmds []DrawCommand, op string) int {
	n := 0
	for _, c := range cmds {
		if c.Op == op {
			n++
		}
	}
	return n
}

func TestSceneForSingleTriangle(t *testing.T) {
	e := seeded(t, orb.Point{0, 0}, orb.Point{100, 0})
	e.Grow(sketch.ModeLeft)

	scene := e.Scene()
	cmds := scene.Commands

	// 1 seed connector + 2 seed dots + base edge + row connector-free
	// single child + 2 slant edges + 1 child dot + 1 silhouette loop.
	if got := countOps(cmds, "dot"); got != 3 {
		t.Errorf("dots = %d, want 3", got)
	}
	if got := countOps(cmds, "line"); got != 4 {
		t.Errorf("lines = %d, want 4", got)
	}
	if got := countOps(cmds, "loop"); got != 1 {
		t.Errorf("loops = %d, want 1", got)
	}

	if cmds[0].Layer != seedLayer {
		t.Errorf("first command layer = %q, want %q", cmds[0].Layer, seedLayer)
	}
	last := cmds[len(cmds)-1]
	if last.Op != "loop" || last.Layer != boundaryLayer || last.Color != boundaryColor {
		t.Errorf("last command = %+v, want the silhouette loop on top", last)
	}
	if len(last.Points) != 4 {
		t.Errorf("silhouette loop has %d points, want 4", len(last.Points))
	}

	tag := e.sk.Layers[0].Tag
	for _, c := range cmds {
		if c.Layer == tag && c.Color != layerColor(0) {
			t.Errorf("layer command color = %q, want %q", c.Color, layerColor(0))
		}
	}
}

func TestSceneVisibilityToggles(t *testing.T) {
	testCases := []struct {
		name string
		kind string
		op   string
	}{
		{"hiding dots drops dot commands", "dots", "dot"},
		{"hiding the hull drops loop commands", "hull", "loop"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			e := seeded(t, orb.Point{0, 0}, orb.Point{100, 0})
			e.Grow(sketch.ModeLeft)

			if got := countOps(e.Scene().Commands, tc.op); got == 0 {
				t.Fatalf("no %q commands while visible", tc.op)
			}
			if res := e.SetVisibility(tc.kind, false); !res.Applied {
				t.Fatalf("SetVisibility(%s) refused: %s", tc.kind, res.Reason)
			}
			if got := countOps(e.Scene().Commands, tc.op); got != 0 {
				t.Errorf("%d %q commands while hidden", got, tc.op)
			}
		})
	}

	t.Run("hiding edges splits row from triangle lines", func(t *testing.T) {
		e := seeded(t, orb.Point{0, 0}, orb.Point{100, 0})
		e.Grow(sketch.ModeLeft)

		e.SetVisibility("rowEdges", false)
		// Only the two slant edges survive: no seed connector, no base.
		if got := countOps(e.Scene().Commands, "line"); got != 2 {
			t.Errorf("lines without row edges = %d, want 2", got)
		}

		e.SetVisibility("rowEdges", true)
		e.SetVisibility("triEdges", false)
		// Seed connector plus the base edge.
		if got := countOps(e.Scene().Commands, "line"); got != 2 {
			t.Errorf("lines without triangle edges = %d, want 2", got)
		}
	})
}

func TestSceneDualRowConnectorsStayPerBranch(t *testing.T) {
	e := seeded(t, orb.Point{0, 0}, orb.Point{100, 0}, orb.Point{200, 0})
	e.Grow(sketch.ModeBoth)

	l := e.sk.Layers[0]
	seamA := l.Branches.Left.Row[1]
	seamB := l.Branches.Right.Row[0]

	for _, c := range e.Scene().Commands {
		if c.Op != "line" || c.Layer != l.Tag {
			continue
		}
		if len(c.Points) == 2 && c.Points[0] == seamA && c.Points[1] == seamB {
			t.Fatalf("scene bridges the branch seam %v-%v", seamA, seamB)
		}
	}

	// One connector inside each branch, 4 base edges, 8 slant edges.
	if got := countOps(e.Scene().Commands, "line"); got != 2+4+8+2 {
		t.Errorf("lines = %d, want %d (2 seed + 4 base + 8 slant + 2 connectors)",
			got, 2+4+8+2)
	}
}

func TestSceneDualSilhouetteDropsSharedBase(t *testing.T) {
	e := seeded(t, orb.Point{0, 0}, orb.Point{100, 0})
	e.Grow(sketch.ModeBoth)

	scene := e.Scene()
	loops := 0
	for _, c := range scene.Commands {
		if c.Op != "loop" {
			continue
		}
		loops++
		// Two triangles share the seed edge, so the outline is the
		// rhombus: four corners plus the closing repeat.
		if len(c.Points) != 5 {
			t.Errorf("rhombus outline has %d points, want 5", len(c.Points))
		}
	}
	if loops != 1 {
		t.Errorf("loops = %d, want 1", loops)
	}
}

func TestSceneSeedHullBeforeGrowth(t *testing.T) {
	t.Run("two seeds draw no hull", func(t *testing.T) {
		e := seeded(t, orb.Point{0, 0}, orb.Point{100, 0})
		if got := countOps(e.Scene().Commands, "loop"); got != 0 {
			t.Errorf("loops = %d, want 0", got)
		}
	})

	t.Run("three or more seeds preview their convex hull", func(t *testing.T) {
		e := seeded(t,
			orb.Point{0, 0}, orb.Point{100, 0},
			orb.Point{100, 100}, orb.Point{50, 40}, // interior point
		)
		cmds := e.Scene().Commands
		var loop *DrawCommand
		for i := range cmds {
			if cmds[i].Op == "loop" {
				loop = &cmds[i]
			}
		}
		if loop == nil {
			t.Fatal("no hull preview for a seeded triangle")
		}
		if len(loop.Points) != 4 {
			t.Errorf("hull preview has %d points, want 4 (3 corners closed)", len(loop.Points))
		}
	})
}

func TestSceneStrokeWidthAndRadius(t *testing.T) {
	e := seeded(t, orb.Point{0, 0}, orb.Point{100, 0})
	e.Grow(sketch.ModeLeft)

	if res := e.SetStrokeWidth(4.5); !res.Applied {
		t.Fatalf("SetStrokeWidth refused: %s", res.Reason)
	}

	for _, c := range e.Scene().Commands {
		switch c.Op {
		case "line", "loop":
			if !almostEqual(c.Width, 4.5) {
				t.Errorf("%s width = %v, want 4.5", c.Op, c.Width)
			}
		case "dot":
			if !almostEqual(c.Radius, 3) {
				t.Errorf("dot radius = %v, want 3", c.Radius)
			}
		}
	}
}

func TestSceneRevisionTracksOperations(t *testing.T) {
	e := seeded(t, orb.Point{0, 0}, orb.Point{100, 0})

	first := e.Scene()
	if again := e.Scene(); again != first {
		t.Error("scene rebuilt without any operation")
	}

	e.Grow(sketch.ModeLeft)
	second := e.Scene()
	if second == first {
		t.Error("scene not rebuilt after growth")
	}
	if second.Revision != e.Info().Revision {
		t.Errorf("scene revision = %d, info revision = %d", second.Revision, e.Info().Revision)
	}
}

func TestLayerColorRamp(t *testing.T) {
	testCases := []struct {
		idx  int
		want string
	}{
		{0, "#f21818"},
		{1, "#f2dc18"},
		{2, "#43f218"},
	}

	for _, tc := range testCases {
		if got := layerColor(tc.idx); got != tc.want {
			t.Errorf("layerColor(%d) = %q, want %q", tc.idx, got, tc.want)
		}
	}

	if layerColor(0) != layerColor(20) {
		t.Error("hue ramp does not wrap after a full cycle")
	}
}
