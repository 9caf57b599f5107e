package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args string) (string, error) {
	cmd := NewRootCommand()
	cmd.SetArgs(strings.Split(args, " "))
	b := bytes.NewBufferString("")
	cmd.SetOut(b)
	cmd.SetErr(bytes.NewBufferString(""))
	err := cmd.Execute()
	return b.String(), err
}

func TestFind(t *testing.T) {
	out, err := execute(t, "find datasets/snp -q")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "#Adjusted average surprisal values"))
	require.Contains(t, out, "SNP_A-1\t17.500000\n")
	require.Contains(t, out, "SNP_A-1\tSNP_A-2\t10.750000\n")
	require.NotContains(t, out, "#Dropped")

	out, err = execute(t, "find datasets/snp -q -F --aggregator mean")
	require.NoError(t, err)
	require.Contains(t, out, "SNP_A-1\t27.500000\n")
	require.Contains(t, out, "#Dropped 2 nonpositive features.")
	require.Contains(t, out, "#Dropped 1 nonpositive edges.")
}

func TestFind_NormalClass(t *testing.T) {
	// with anom as the baseline every sign flips
	out, err := execute(t, "find datasets/snp -q --normal anom")
	require.NoError(t, err)
	require.Contains(t, out, "SNP_A-4\t3.000000\n")
	require.Contains(t, out, "SNP_A-1\t-17.500000\n")
}

func TestFind_OutputFile(t *testing.T) {
	outputFile := filepath.Join(t.TempDir(), "graph.tsv")
	out, err := execute(t, "find datasets/snp -q -o "+outputFile)
	require.NoError(t, err)
	require.Empty(t, out)

	data, err := os.ReadFile(outputFile)
	require.NoError(t, err)
	require.Contains(t, string(data), "#Relationship Graph\n")

	out, err = execute(t, "linkage datasets/snp/chromosomes "+outputFile+" -q --repetitions 500")
	require.NoError(t, err)
	require.Contains(t, out, "graph edges")
}

func TestFind_ConfigFile(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "fracgraph.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("aggregator: mean\nfilter-nonpositive: true\n"), 0644))

	out, err := execute(t, "find datasets/snp -q --config "+configFile)
	require.NoError(t, err)
	require.Contains(t, out, "SNP_A-1\t27.500000\n")
	require.Contains(t, out, "#Dropped")
}

func TestFind_ConfigurationErrors(t *testing.T) {
	tests := []string{
		"find",
		"find datasets/snp datasets/snp",
		"find datasets/snp --unknown",
		"find datasets/snp -q --aggregator mode",
		"find datasets/snp -q --empty-associations ignore",
		"find datasets/snp --log-level verbose",
		"linkage datasets/snp/chromosomes",
	}

	for _, args := range tests {
		out, err := execute(t, args)
		require.Error(t, err, args)
		require.NotContains(t, out, "#Adjusted", args)
	}
}

func TestFind_FailOnEmptyAssociations(t *testing.T) {
	out, err := execute(t, "find datasets/snp -q --empty-associations fail")
	require.Error(t, err)
	require.Empty(t, out)
}

func TestFind_QuietFromEnvironment(t *testing.T) {
	_, err := execute(t, "find datasets/snp")
	require.NoError(t, err)
	require.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())

	t.Setenv("FRACGRAPH_QUIET", "true")
	_, err = execute(t, "find datasets/snp")
	require.NoError(t, err)
	require.Equal(t, zerolog.ErrorLevel, zerolog.GlobalLevel())
}

func TestFind_LoggingFromConfigFile(t *testing.T) {
	tests := []struct {
		config string
		level  zerolog.Level
	}{
		{config: "quiet: true\n", level: zerolog.ErrorLevel},
		{config: "log-level: error\n", level: zerolog.ErrorLevel},
		{config: "log-level: debug\n", level: zerolog.DebugLevel},
		{config: "log-format: json\n", level: zerolog.InfoLevel},
	}

	for _, test := range tests {
		configFile := filepath.Join(t.TempDir(), "fracgraph.yaml")
		require.NoError(t, os.WriteFile(configFile, []byte(test.config), 0644))

		_, err := execute(t, "find datasets/snp --config "+configFile)
		require.NoError(t, err, test.config)
		require.Equal(t, test.level, zerolog.GlobalLevel(), test.config)
	}

	configFile := filepath.Join(t.TempDir(), "fracgraph.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("log-format: xml\n"), 0644))
	_, err := execute(t, "find datasets/snp --config "+configFile)
	require.Error(t, err)
}
