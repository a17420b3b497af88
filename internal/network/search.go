package network

import (
	"container/heap"
	"errors"
	"fmt"
	"math"
)

// ErrNoRoute means the two stations are not connected in the graph, or one
// of them is not part of it. It is a normal outcome, not a failure.
var ErrNoRoute = errors.New("no route between stations")

// FindRoute returns the shortest-distance route from one station to another.
// The search stops as soon as the destination is settled.
//
// When several lines connect the same two stations at equal distance, or
// several paths tie on total distance, which one is returned depends on
// exploration order. All such answers are equally short.
func FindRoute(g *Graph, from, to string) (*Route, error) {
	if from == to {
		return &Route{Path: []string{from}, Segments: []Segment{}}, nil
	}
	s, ok := g.Index(from)
	if !ok {
		return nil, fmt.Errorf("%w: unknown station %q", ErrNoRoute, from)
	}
	t, ok := g.Index(to)
	if !ok {
		return nil, fmt.Errorf("%w: unknown station %q", ErrNoRoute, to)
	}
	tree := search(g, s, t)
	return tree.route(t)
}

// Tree is the result of a full single-source search: the shortest route from
// the source to every reachable station.
//
// Routes read from a Tree are identical to those FindRoute returns for the
// same pair, since FindRoute's early stop never alters a settled station's
// predecessor.
type Tree struct {
	g       *Graph
	source  int
	dist    []float64
	prev    []int // predecessor station, -1 if none
	via     []Arc // arc used to reach the station from prev
	settled []bool
}

// ShortestPaths runs an exhaustive search from one station.
func ShortestPaths(g *Graph, from string) (*Tree, error) {
	s, ok := g.Index(from)
	if !ok {
		return nil, fmt.Errorf("%w: unknown station %q", ErrNoRoute, from)
	}
	return search(g, s, -1), nil
}

// RouteTo returns the shortest route from the tree's source to a station.
func (t *Tree) RouteTo(to string) (*Route, error) {
	i, ok := t.g.Index(to)
	if !ok {
		return nil, fmt.Errorf("%w: unknown station %q", ErrNoRoute, to)
	}
	if i == t.source {
		return &Route{Path: []string{to}, Segments: []Segment{}}, nil
	}
	return t.route(i)
}

// Reachable reports whether a station was reached from the source.
func (t *Tree) Reachable(to string) bool {
	i, ok := t.g.Index(to)
	return ok && !math.IsInf(t.dist[i], 1)
}

func (t *Tree) route(goal int) (*Route, error) {
	if math.IsInf(t.dist[goal], 1) {
		return nil, fmt.Errorf("%w: %s to %s", ErrNoRoute, t.g.Name(t.source), t.g.Name(goal))
	}

	var nodes []int
	for cur := goal; cur != t.source; cur = t.prev[cur] {
		if t.prev[cur] < 0 {
			return nil, fmt.Errorf("%w: %s to %s", ErrNoRoute, t.g.Name(t.source), t.g.Name(goal))
		}
		nodes = append(nodes, cur)
	}
	nodes = append(nodes, t.source)

	r := &Route{
		Km:       t.dist[goal],
		Path:     make([]string, 0, len(nodes)),
		Segments: make([]Segment, 0, len(nodes)-1),
	}
	for i := len(nodes) - 1; i >= 0; i-- {
		r.Path = append(r.Path, t.g.Name(nodes[i]))
	}
	for i := len(nodes) - 2; i >= 0; i-- {
		n := nodes[i]
		r.Segments = append(r.Segments, Segment{
			From: t.g.Name(t.prev[n]),
			To:   t.g.Name(n),
			Km:   t.via[n].Km,
			Line: t.via[n].Line,
		})
	}
	return r, nil
}

// search is Dijkstra over the arena with a binary heap frontier. goal < 0
// means settle everything reachable.
func search(g *Graph, source, goal int) *Tree {
	n := g.Len()
	t := &Tree{
		g:       g,
		source:  source,
		dist:    make([]float64, n),
		prev:    make([]int, n),
		via:     make([]Arc, n),
		settled: make([]bool, n),
	}
	for i := range t.dist {
		t.dist[i] = math.Inf(1)
		t.prev[i] = -1
	}
	t.dist[source] = 0

	f := &frontier{}
	heap.Push(f, entry{node: source, dist: 0})
	seq := 1

	for f.Len() > 0 {
		e := heap.Pop(f).(entry)
		if t.settled[e.node] {
			continue
		}
		t.settled[e.node] = true
		if e.node == goal {
			break
		}

		for _, arc := range g.adj[e.node] {
			if t.settled[arc.To] {
				continue
			}
			nd := e.dist + arc.Km
			if nd < t.dist[arc.To] {
				t.dist[arc.To] = nd
				t.prev[arc.To] = e.node
				t.via[arc.To] = arc
				heap.Push(f, entry{node: arc.To, dist: nd, seq: seq})
				seq++
			}
		}
	}
	return t
}

// entry is a tentative frontier label. Stale entries are skipped on pop.
type entry struct {
	node int
	dist float64
	seq  int // insertion order, breaks distance ties
}

type frontier []entry

func (f frontier) Len() int { return len(f) }

func (f frontier) Less(i, j int) bool {
	if f[i].dist != f[j].dist {
		return f[i].dist < f[j].dist
	}
	return f[i].seq < f[j].seq
}

func (f frontier) Swap(i, j int) { f[i], f[j] = f[j], f[i] }

func (f *frontier) Push(x any) { *f = append(*f, x.(entry)) }

func (f *frontier) Pop() any {
	old := *f
	n := len(old)
	e := old[n-1]
	*f = old[:n-1]
	return e
}
