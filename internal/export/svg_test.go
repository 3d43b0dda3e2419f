package export

import (
	"strings"
	"testing"

	"github.com/trellislab/trellis/backend-go/internal/engine"
	"github.com/trellislab/trellis/backend-go/internal/sketch"
)

func grownEngine(t *testing.T) *engine.Engine {
	t.Helper()
	e := engine.New()
	e.AddSeed(0, 0)
	e.AddSeed(100, 0)
	if res := e.Grow(sketch.ModeLeft); !res.Applied {
		t.Fatalf("grow refused: %s", res.Reason)
	}
	return e
}

func renderSVG(t *testing.T, e *engine.Engine) string {
	t.Helper()
	var sb strings.Builder
	if err := WriteSVG(&sb, e.Scene(), 10); err != nil {
		t.Fatalf("WriteSVG: %v", err)
	}
	return sb.String()
}

func TestWriteSVGViewportFitsDrawing(t *testing.T) {
	out := renderSVG(t, grownEngine(t))

	if !strings.Contains(out, "<svg") || !strings.Contains(out, "</svg>") {
		t.Fatal("output is not an svg document")
	}
	// Points span x 0..100 and y 0..86.6025, plus a 10 unit margin.
	if !strings.Contains(out, `width="120`) {
		t.Errorf("viewport width missing from %q", firstLines(out, 2))
	}
	if !strings.Contains(out, `height="106.6`) {
		t.Errorf("viewport height missing from %q", firstLines(out, 2))
	}
}

func TestWriteSVGDrawsEveryPrimitiveKind(t *testing.T) {
	out := renderSVG(t, grownEngine(t))

	if got := strings.Count(out, "<circle"); got != 3 {
		t.Errorf("circles = %d, want 3", got)
	}
	if got := strings.Count(out, "<line"); got != 4 {
		t.Errorf("lines = %d, want 4", got)
	}
	if got := strings.Count(out, "<polyline"); got != 1 {
		t.Errorf("polylines = %d, want 1", got)
	}
	if !strings.Contains(out, "stroke:#f21818") {
		t.Error("first generation color missing")
	}
	if !strings.Contains(out, "stroke:#d21f3c") {
		t.Error("silhouette color missing")
	}
}

func TestWriteSVGHonorsVisibility(t *testing.T) {
	e := grownEngine(t)
	e.SetVisibility("dots", false)
	e.SetVisibility("hull", false)

	out := renderSVG(t, e)
	if strings.Contains(out, "<circle") {
		t.Error("hidden dots were rendered")
	}
	if strings.Contains(out, "<polyline") {
		t.Error("hidden silhouette was rendered")
	}
}

func TestWriteSVGEmptySceneIsMarginOnly(t *testing.T) {
	out := renderSVG(t, engine.New())

	if !strings.Contains(out, "<svg") {
		t.Fatal("output is not an svg document")
	}
	if !strings.Contains(out, `width="20`) || !strings.Contains(out, `height="20`) {
		t.Errorf("empty viewport wrong: %q", firstLines(out, 2))
	}
	for _, tag := range []string{"<circle", "<line", "<polyline"} {
		if strings.Contains(out, tag) {
			t.Errorf("empty scene rendered %s", tag)
		}
	}
}

func firstLines(s string, n int) string {
	lines := strings.SplitN(s, "\n", n+1)
	if len(lines) > n {
		lines = lines[:n]
	}
	return strings.Join(lines, "\n")
}
