// Package network builds the line-aware station graph and finds shortest
// routes over it.
package network

import (
	"sort"

	"teikipass/internal/dataset"
)

// Arc is one directed adjacency entry. Parallel arcs between the same two
// stations on different lines are all kept.
type Arc struct {
	To   int
	Km   float64
	Line string
}

// Graph is a read-only adjacency structure over a dense station arena.
// Station indices are assigned once at build time.
type Graph struct {
	names []string
	index map[string]int
	adj   [][]Arc
}

// BuildGraph connects consecutive stations of every line, ordered by their
// per-line order, whenever the distance document has an edge for that exact
// pair. Pairs without a known distance contribute no connection.
func BuildGraph(meta dataset.StationMeta, dist dataset.DistanceDoc) *Graph {
	g := &Graph{index: make(map[string]int)}
	for _, name := range dist.Stations {
		g.intern(name)
	}
	for _, s := range meta.Stations {
		g.intern(s.Name)
	}

	km := make(map[pairKey]float64, len(dist.Edges))
	for _, e := range dist.Edges {
		km[makePairKey(e.From, e.To)] = e.Km
	}

	for _, line := range meta.Lines {
		for _, pair := range consecutive(meta.Stations, line.ID) {
			d, ok := km[makePairKey(pair[0], pair[1])]
			if !ok {
				continue
			}
			g.connect(g.intern(pair[0]), g.intern(pair[1]), d, line.ID)
		}
	}
	return g
}

// consecutive returns the adjacent station pairs of a line, in order.
// Stations with equal orders keep their metadata order.
func consecutive(stations []dataset.StationInfo, lineID string) [][2]string {
	type member struct {
		name  string
		order int
	}
	var members []member
	for _, s := range stations {
		if ord, ok := s.Orders[lineID]; ok {
			members = append(members, member{s.Name, ord})
		}
	}
	sort.SliceStable(members, func(i, j int) bool {
		return members[i].order < members[j].order
	})

	pairs := make([][2]string, 0, len(members))
	for i := 0; i+1 < len(members); i++ {
		pairs = append(pairs, [2]string{members[i].name, members[i+1].name})
	}
	return pairs
}

func (g *Graph) intern(name string) int {
	if i, ok := g.index[name]; ok {
		return i
	}
	i := len(g.names)
	g.names = append(g.names, name)
	g.index[name] = i
	g.adj = append(g.adj, nil)
	return i
}

func (g *Graph) connect(a, b int, km float64, line string) {
	g.adj[a] = append(g.adj[a], Arc{To: b, Km: km, Line: line})
	g.adj[b] = append(g.adj[b], Arc{To: a, Km: km, Line: line})
}

// Len returns the number of stations in the arena.
func (g *Graph) Len() int { return len(g.names) }

// Index returns the arena index of a station.
func (g *Graph) Index(name string) (int, bool) {
	i, ok := g.index[name]
	return i, ok
}

// Name returns the station name at index i.
func (g *Graph) Name(i int) string { return g.names[i] }

// Arcs returns the adjacency list of station i. The slice must not be modified.
func (g *Graph) Arcs(i int) []Arc { return g.adj[i] }

// neighbors returns the adjacency entries of a station by name.
func (g *Graph) neighbors(name string) []Arc {
	i, ok := g.index[name]
	if !ok {
		return nil
	}
	return g.adj[i]
}

// ArcCount returns the number of directed adjacency entries.
func (g *Graph) ArcCount() int {
	n := 0
	for _, arcs := range g.adj {
		n += len(arcs)
	}
	return n
}

// pairKey identifies an unordered station pair.
type pairKey struct{ a, b string }

func makePairKey(x, y string) pairKey {
	if y < x {
		x, y = y, x
	}
	return pairKey{x, y}
}
