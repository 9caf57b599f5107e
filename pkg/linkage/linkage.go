package linkage

import (
	"fmt"
	gio "io"
	"math"
	"math/rand"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"

	"fracgraph/pkg/io"
	"fracgraph/pkg/model"
)

// ChromosomeCount bounds the same-chromosome ratio of unlinked features from below
const ChromosomeCount = 23

// Lookup maps a feature name to its chromosome. Names keeps the file order.
type Lookup struct {
	Chromosome map[string]string
	Names      []string
}

func ReadLookup(r gio.Reader) (*Lookup, error) {
	l := &Lookup{Chromosome: map[string]string{}}
	reader := io.NewTSVReader(r)
	reader.Comment = '#'
	err := io.ForEachRecord(reader, func(record []string) error {
		if len(record) < 2 {
			return fmt.Errorf("expected name and chromosome, found %d columns", len(record))
		}
		if _, ok := l.Chromosome[record[0]]; !ok {
			l.Names = append(l.Names, record[0])
		}
		l.Chromosome[record[0]] = record[1]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Lookup) chromosome(name string) (string, error) {
	c, ok := l.Chromosome[name]
	if !ok {
		return "", errors.Wrapf(model.ErrUnknownFeature, "no chromosome for %q", name)
	}
	return c, nil
}

type Edge struct {
	A, B   string
	Weight float64
}

// Graph is the relationship graph as read back from the report: the ranked
// features are its nodes.
type Graph struct {
	Nodes []string
	Edges []Edge
}

// ReadGraph reads a report. Rows with two columns are nodes, rows with three
// are edges and comment lines are skipped.
func ReadGraph(r gio.Reader) (*Graph, error) {
	g := &Graph{}
	seen := map[string]struct{}{}
	reader := io.NewTSVReader(r)
	reader.Comment = '#'
	err := io.ForEachRecord(reader, func(record []string) error {
		switch len(record) {
		case 2:
			if _, ok := seen[record[0]]; !ok {
				seen[record[0]] = struct{}{}
				g.Nodes = append(g.Nodes, record[0])
			}
		case 3:
			w, err := strconv.ParseFloat(record[2], 64)
			if err != nil {
				return fmt.Errorf("error parsing edge weight: %w", err)
			}
			if math.IsNaN(w) || math.IsInf(w, 0) {
				return fmt.Errorf("non-finite edge weight %q", record[2])
			}
			g.Edges = append(g.Edges, Edge{A: record[0], B: record[1], Weight: w})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return g, nil
}

// Count is a number of same-chromosome pairs out of a total
type Count struct {
	Same  float64
	Total float64
}

func (c Count) Ratio() float64 {
	return c.Same / c.Total
}

type Parameters struct {
	Repetitions int
	Seed        int64
}

func DefaultParameters() Parameters {
	return Parameters{Repetitions: 10000, Seed: 42}
}

type Result struct {
	Edges         Count
	WeightedEdges Count
	// RandomFlagged samples pairs of the features that appear in the graph
	RandomFlagged Count
	// RandomAll samples pairs of every feature of the lookup, free of selection bias
	RandomAll Count
}

// Correction is the factor that removes the linkage bias from the weight of a
// same-chromosome edge. It is undefined, and ok is false, when no weighted edge
// joins two features of the same chromosome.
func (r Result) Correction() (correction float64, ok bool) {
	if r.WeightedEdges.Same <= 0 || r.WeightedEdges.Total <= 0 {
		return 0, false
	}
	correction = r.RandomFlagged.Ratio() / r.WeightedEdges.Ratio()
	if math.IsNaN(correction) || math.IsInf(correction, 0) {
		return 0, false
	}
	return correction, true
}

// Check compares how often edges of g join features of the same chromosome
// with how often randomly chosen pairs do.
func Check(g *Graph, l *Lookup, p Parameters) (*Result, error) {
	if len(g.Edges) == 0 {
		return nil, errors.New("graph has no edges")
	}
	result := &Result{}
	for _, e := range g.Edges {
		a, err := l.chromosome(e.A)
		if err != nil {
			return nil, err
		}
		b, err := l.chromosome(e.B)
		if err != nil {
			return nil, err
		}
		result.Edges.Total++
		result.WeightedEdges.Total += e.Weight
		if a == b {
			result.Edges.Same++
			result.WeightedEdges.Same += e.Weight
		}
	}

	rnd := rand.New(rand.NewSource(p.Seed))
	var err error
	if result.RandomFlagged, err = samplePairs(g.Nodes, l, p.Repetitions, rnd); err != nil {
		return nil, errors.Wrap(err, "flagged features")
	}
	if result.RandomAll, err = samplePairs(l.Names, l, p.Repetitions, rnd); err != nil {
		return nil, errors.Wrap(err, "all features")
	}
	return result, nil
}

// samplePairs draws repetitions pairs of distinct names and counts those on the same chromosome
func samplePairs(names []string, l *Lookup, repetitions int, rnd *rand.Rand) (Count, error) {
	var count Count
	if len(names) < 2 {
		return count, errors.Errorf("need at least 2 features to sample pairs, found %d", len(names))
	}
	if repetitions <= 0 {
		return count, errors.Errorf("invalid number of repetitions %d", repetitions)
	}
	chromosomes := make([]string, len(names))
	for i, name := range names {
		c, err := l.chromosome(name)
		if err != nil {
			return count, err
		}
		chromosomes[i] = c
	}

	for i := 0; i < repetitions; i++ {
		a := rnd.Intn(len(names))
		b := rnd.Intn(len(names) - 1)
		if b >= a {
			b++
		}
		count.Total++
		if chromosomes[a] == chromosomes[b] {
			count.Same++
		}
	}
	return count, nil
}

// Write renders the result as a table
func Write(w gio.Writer, r *Result) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"pairs", "same chromosome", "total", "ratio"})
	t.AppendRows([]table.Row{
		countRow("graph edges", r.Edges, "%.0f"),
		countRow("graph edges (weighted)", r.WeightedEdges, "%.6f"),
		countRow("random flagged features", r.RandomFlagged, "%.0f"),
		countRow("random features", r.RandomAll, "%.0f"),
		{"no linkage lower bound", "", "", fmt.Sprintf("%.6f", 1.0/ChromosomeCount)},
	})
	correction := "n/a"
	if c, ok := r.Correction(); ok {
		correction = fmt.Sprintf("%.6f", c)
	}
	t.AppendFooter(table.Row{"correction", "", "", correction})
	t.Render()
}

func countRow(name string, c Count, format string) table.Row {
	return table.Row{name, fmt.Sprintf(format, c.Same), fmt.Sprintf(format, c.Total), fmt.Sprintf("%.6f", c.Ratio())}
}
