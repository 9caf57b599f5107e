package report

import (
	"bufio"
	"fmt"
	"io"
	"sort"

	"fracgraph/pkg/graph"
)

const (
	featureHeader = "#Adjusted average surprisal values (anomaly average - normal average)"
	graphHeader   = "#Relationship Graph"
)

// FeatureTable is the adjusted surprisal table in feature index order
type FeatureTable interface {
	Size() int
	At(i int) (string, float64)
}

type FeatureScore struct {
	Name  string
	Value float64
}

type Options struct {
	// FilterNonpositive drops features and edges whose value is not strictly positive
	FilterNonpositive bool
}

// Summary counts what was written and what was filtered out
type Summary struct {
	Features        int
	DroppedFeatures int
	Edges           int
	DroppedEdges    int
}

// RankFeatures sorts the table by descending value. Ties are ordered by name.
func RankFeatures(table FeatureTable, opts Options) (ranked []FeatureScore, dropped int) {
	for i := 0; i < table.Size(); i++ {
		name, value := table.At(i)
		if opts.FilterNonpositive && value <= 0 {
			dropped++
			continue
		}
		ranked = append(ranked, FeatureScore{Name: name, Value: value})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Value != ranked[j].Value {
			return ranked[i].Value > ranked[j].Value
		}
		return ranked[i].Name < ranked[j].Name
	})
	return ranked, dropped
}

// RankEdges sorts the edges by descending weight. Ties are ordered by pair.
func RankEdges(edges []graph.Edge, opts Options) (ranked []graph.Edge, dropped int) {
	for _, e := range edges {
		if opts.FilterNonpositive && e.Weight <= 0 {
			dropped++
			continue
		}
		ranked = append(ranked, e)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Weight != ranked[j].Weight {
			return ranked[i].Weight > ranked[j].Weight
		}
		if ranked[i].A != ranked[j].A {
			return ranked[i].A < ranked[j].A
		}
		return ranked[i].B < ranked[j].B
	})
	return ranked, dropped
}

// Write emits the ranked feature list followed by the ranked edge list.
func Write(w io.Writer, table FeatureTable, g *graph.Graph, opts Options) (Summary, error) {
	var summary Summary
	out := bufio.NewWriter(w)

	features, droppedFeatures := RankFeatures(table, opts)
	summary.Features, summary.DroppedFeatures = len(features), droppedFeatures

	fmt.Fprintln(out, featureHeader)
	for _, f := range features {
		fmt.Fprintf(out, "%s\t%0.6f\n", f.Name, f.Value)
	}
	if opts.FilterNonpositive {
		fmt.Fprintf(out, "#Dropped %d nonpositive features.  These are unusual, they happen when an anomalous class follows a pattern more closely than the normal one.  Rerun without filtering to see them.\n", droppedFeatures)
	}

	edges, droppedEdges := RankEdges(g.Edges(), opts)
	summary.Edges, summary.DroppedEdges = len(edges), droppedEdges

	fmt.Fprintln(out)
	fmt.Fprintln(out, graphHeader)
	for _, e := range edges {
		fmt.Fprintf(out, "%s\t%s\t%0.6f\n", e.A, e.B, e.Weight)
	}
	if opts.FilterNonpositive {
		fmt.Fprintf(out, "#Dropped %d nonpositive edges.  These most likely come from a lack of statistical power.  Rerun without filtering to see them.\n", droppedEdges)
	}

	if err := out.Flush(); err != nil {
		return summary, fmt.Errorf("error writing report: %w", err)
	}
	return summary, nil
}
