package graph

import (
	"github.com/pkg/errors"

	"fracgraph/pkg/tree"
)

// Pair is an unordered pair of features. A is never greater than B.
type Pair struct {
	A string
	B string
}

// NewPair orders the two names lexicographically
func NewPair(x, y string) Pair {
	if x > y {
		return Pair{A: y, B: x}
	}
	return Pair{A: x, B: y}
}

// SurprisalLookup returns the adjusted surprisal of a feature
type SurprisalLookup interface {
	Lookup(name string) (float64, error)
}

// Graph is a weighted undirected graph over features. Weights only ever accumulate.
type Graph struct {
	weights map[Pair]float64
	trees   int
}

func New() *Graph {
	return &Graph{weights: map[Pair]float64{}}
}

// AddEdge adds weight to the edge between x and y, creating it if needed
func (g *Graph) AddEdge(x, y string, weight float64) {
	g.weights[NewPair(x, y)] += weight
}

// Add distributes the adjusted surprisal of the association's target evenly
// over all of its associated features.
func (g *Graph) Add(a tree.Association, surprisals SurprisalLookup) error {
	if len(a.Associated) == 0 {
		return errors.Wrapf(tree.ErrNoAssociations, "tree for %s", a.Target)
	}
	s, err := surprisals.Lookup(a.Target)
	if err != nil {
		return err
	}
	contribution := s / float64(len(a.Associated))
	for _, associated := range a.Associated {
		g.AddEdge(a.Target, associated, contribution)
	}
	g.trees++
	return nil
}

func (g *Graph) Weight(x, y string) (float64, bool) {
	w, ok := g.weights[NewPair(x, y)]
	return w, ok
}

func (g *Graph) Size() int {
	return len(g.weights)
}

// Trees returns the number of trees that contributed to the graph
func (g *Graph) Trees() int {
	return g.trees
}

// Edge is one weighted edge of the graph
type Edge struct {
	Pair
	Weight float64
}

// Edges returns every edge in no particular order
func (g *Graph) Edges() []Edge {
	result := make([]Edge, 0, len(g.weights))
	for p, w := range g.weights {
		result = append(result, Edge{Pair: p, Weight: w})
	}
	return result
}
