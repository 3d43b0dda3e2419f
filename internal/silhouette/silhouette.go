// Package silhouette recovers the outer boundary of the grown triangle
// soup. An edge used by exactly one triangle is on the boundary; edges
// shared by two triangles are interior. Walking the boundary adjacency
// yields one or more closed loops.
package silhouette

import (
	"github.com/paulmach/orb"

	"github.com/trellislab/trellis/backend-go/internal/geometry"
)

type vertex = [2]int

// edge is an undirected pair of quantized vertices, stored with the
// lexicographically smaller endpoint first so both directions collide.
type edge struct {
	a, b vertex
}

func newEdge(a, b vertex) edge {
	if b[0] < a[0] || (b[0] == a[0] && b[1] < a[1]) {
		a, b = b, a
	}
	return edge{a, b}
}

func pointOf(v vertex) orb.Point {
	return orb.Point{float64(v[0]), float64(v[1])}
}

// Loops reconstructs the silhouette of tris as closed rings (first
// vertex repeated last). Coordinates are quantized to integer canvas
// units before comparison, so independently derived corners that drifted
// within half a unit still meet. Loops with fewer than three distinct
// vertices are discarded; fewer than three boundary edges yields nil.
func Loops(tris [][3]orb.Point) []orb.Ring {
	counts := make(map[edge]int)
	var order []edge
	for _, tri := range tris {
		a := geometry.Quantize(tri[0])
		b := geometry.Quantize(tri[1])
		c := geometry.Quantize(tri[2])
		for _, e := range [3]edge{newEdge(a, b), newEdge(b, c), newEdge(c, a)} {
			if counts[e] == 0 {
				order = append(order, e)
			}
			counts[e]++
		}
	}

	var boundary []edge
	for _, e := range order {
		if counts[e] == 1 {
			boundary = append(boundary, e)
		}
	}
	if len(boundary) < 3 {
		return nil
	}

	adj := make(map[vertex][]vertex, len(boundary))
	for _, e := range boundary {
		adj[e.a] = append(adj[e.a], e.b)
		adj[e.b] = append(adj[e.b], e.a)
	}

	visited := make(map[edge]bool, len(boundary))
	var loops []orb.Ring
	for _, start := range boundary {
		if visited[start] {
			continue
		}
		if loop := walk(start.a, adj, visited); len(loop) > 3 {
			loops = append(loops, loop)
		}
	}
	return loops
}

// walk follows unvisited boundary edges from start until it returns home
// or runs out of edges. Dead-ended chains are closed back to the start
// anyway so every emitted loop satisfies first==last.
func walk(start vertex, adj map[vertex][]vertex, visited map[edge]bool) orb.Ring {
	loop := orb.Ring{pointOf(start)}
	cur := start
	for {
		next, ok := step(cur, adj, visited)
		if !ok {
			return append(loop, pointOf(start))
		}
		loop = append(loop, pointOf(next))
		cur = next
		if cur == start {
			return loop
		}
	}
}

func step(cur vertex, adj map[vertex][]vertex, visited map[edge]bool) (vertex, bool) {
	for _, cand := range adj[cur] {
		e := newEdge(cur, cand)
		if !visited[e] {
			visited[e] = true
			return cand, true
		}
	}
	return vertex{}, false
}
