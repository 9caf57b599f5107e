package pkg

import (
	gio "io"

	"github.com/rs/zerolog/log"

	"fracgraph/pkg/io"
	"fracgraph/pkg/linkage"
)

// CheckLinkage reads a chromosome lookup and a relationship report and writes
// the linkage summary to output.
func CheckLinkage(lookupFile, graphFile string, params linkage.Parameters, output gio.Writer) error {
	var lookup *linkage.Lookup
	err := io.LoadFile(lookupFile, func(r gio.Reader) (err error) {
		lookup, err = linkage.ReadLookup(r)
		return err
	})
	if err != nil {
		return err
	}

	var g *linkage.Graph
	err = io.LoadFile(graphFile, func(r gio.Reader) (err error) {
		g, err = linkage.ReadGraph(r)
		return err
	})
	if err != nil {
		return err
	}
	log.Info().Int("Features", len(lookup.Names)).Int("Nodes", len(g.Nodes)).Int("Edges", len(g.Edges)).Msg("Read relationship graph")

	result, err := linkage.Check(g, lookup, params)
	if err != nil {
		return err
	}
	if _, ok := result.Correction(); !ok {
		log.Warn().Msg("No weighted edge joins features of the same chromosome, the correction is undefined")
	}
	linkage.Write(output, result)
	return nil
}
