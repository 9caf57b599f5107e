package pkg

import (
	gio "io"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"fracgraph/pkg/graph"
	"fracgraph/pkg/io"
	"fracgraph/pkg/report"
	"fracgraph/pkg/surprisal"
	"fracgraph/pkg/tree"
)

type FindParameters struct {
	FilterNonpositive bool
	Aggregator        surprisal.Aggregator
	NormalClass       string
	FeaturePrefix     string
	EmptyPolicy       tree.EmptyPolicy
}

func DefaultFindParameters() FindParameters {
	return FindParameters{
		Aggregator:    surprisal.Median,
		NormalClass:   "norm",
		FeaturePrefix: "SNP_A-",
		EmptyPolicy:   tree.SkipEmpty,
	}
}

// Find reads the FRaC run in dir and writes the feature and relationship
// rankings to output. Nothing is written unless every input is valid.
func Find(dir string, params FindParameters, output gio.Writer) error {
	files := io.NewRunFiles(dir)
	data, err := io.LoadRun(files)
	if err != nil {
		return err
	}
	log.Info().Int("Features", data.Features.Size()).Str("File", files.Metadata).Msg("Read metadata")

	table, err := adjustedSurprisals(data, params)
	if err != nil {
		return err
	}

	g, err := buildGraph(data, table, params)
	if err != nil {
		return err
	}

	summary, err := report.Write(output, table, g, report.Options{FilterNonpositive: params.FilterNonpositive})
	if err != nil {
		return err
	}
	log.Info().Int("Features", summary.Features).
		Int("DroppedFeatures", summary.DroppedFeatures).
		Int("Edges", summary.Edges).
		Int("DroppedEdges", summary.DroppedEdges).
		Msg("Wrote report")
	return nil
}

func adjustedSurprisals(data *io.RunData, params FindParameters) (*surprisal.Table, error) {
	partition, err := surprisal.Split(data.Surprisals, data.SampleClasses, params.NormalClass)
	if err != nil {
		return nil, err
	}
	log.Info().Int("Normal", partition.NormalCount()).
		Int("Anomalous", partition.AnomalousCount()).
		Str("Aggregator", params.Aggregator.String()).
		Msg("Read samples")
	return surprisal.NewTable(data.Features, partition, params.Aggregator)
}

func buildGraph(data *io.RunData, table *surprisal.Table, params FindParameters) (*graph.Graph, error) {
	extractor := tree.NewExtractor(data.Features, params.FeaturePrefix)
	g := graph.New()
	skipped := 0

	scanner := tree.NewScanner(data.TreeLog)
	for scanner.Next() {
		association, err := extractor.Extract(scanner.Entry())
		if errors.Is(err, tree.ErrNoAssociations) && params.EmptyPolicy == tree.SkipEmpty {
			log.Warn().Str("Target", association.Target).Int("Line", association.Line).
				Msg("Skipping tree without associated features")
			skipped++
			continue
		}
		if err != nil {
			return nil, err
		}
		if err := g.Add(association, table); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	log.Info().Int("Trees", g.Trees()).Int("Skipped", skipped).Int("Edges", g.Size()).Msg("Built relationship graph")
	return g, nil
}
