package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"fracgraph/pkg"
	"fracgraph/pkg/linkage"
	"fracgraph/pkg/surprisal"
	"fracgraph/pkg/tree"
)

type globalOptions struct {
	configFile string
}

// newConfig binds flags, FRACGRAPH_* environment variables and the optional
// config file. Flags set on the command line win over the environment, which
// wins over the config file.
func newConfig(flags *pflag.FlagSet, configFile string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("fracgraph")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(flags); err != nil {
		return nil, fmt.Errorf("error binding flags: %w", err)
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
		}
	}
	return v, nil
}

func findParameters(v *viper.Viper) (pkg.FindParameters, error) {
	params := pkg.DefaultFindParameters()
	var err error
	if params.Aggregator, err = surprisal.ParseAggregator(v.GetString("aggregator")); err != nil {
		return params, err
	}
	if params.EmptyPolicy, err = tree.ParseEmptyPolicy(v.GetString("empty-associations")); err != nil {
		return params, err
	}
	params.FilterNonpositive = v.GetBool("filter-nonpositive")
	params.NormalClass = v.GetString("normal")
	params.FeaturePrefix = v.GetString("prefix")
	if params.FeaturePrefix == "" {
		return params, fmt.Errorf("feature prefix must not be empty")
	}
	return params, nil
}

func FindCommand(global *globalOptions) *cobra.Command {
	defaults := pkg.DefaultFindParameters()

	var cmd = &cobra.Command{
		Use:   "find runDirectory [-F] [--aggregator median|mean] [--normal class] [--prefix prefix] [-o outputFile]",
		Short: "Ranks features by adjusted surprisal and builds the feature relationship graph of a FRaC run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := newConfig(cmd.Flags(), global.configFile)
			if err != nil {
				return err
			}
			params, err := findParameters(v)
			if err != nil {
				return err
			}
			cmd.SilenceUsage = true
			return writeOutput(cmd, v.GetString("output"), func(w io.Writer) error {
				return pkg.Find(args[0], params, w)
			})
		},
	}

	cmd.Flags().BoolP("filter-nonpositive", "F", false, "drop features and edges that are not strictly positive, most of them are sampling effects")
	cmd.Flags().String("aggregator", defaults.Aggregator.String(), "surprisal aggregate of each feature: median or mean")
	cmd.Flags().String("normal", defaults.NormalClass, "name of the normal class, every other class is anomalous")
	cmd.Flags().String("prefix", defaults.FeaturePrefix, "prefix of the feature names referenced in the tree log")
	cmd.Flags().String("empty-associations", defaults.EmptyPolicy.String(), "what to do with trees that reference no other feature: skip or fail")
	cmd.Flags().StringP("output", "o", "", "name of output file (optional, uses stdout if not present)")

	return cmd
}

func LinkageCommand(global *globalOptions) *cobra.Command {
	defaults := linkage.DefaultParameters()

	var cmd = &cobra.Command{
		Use:   "linkage chromosomeLookup relationshipGraph",
		Short: "Checks whether the relationship graph favours features on the same chromosome",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := newConfig(cmd.Flags(), global.configFile)
			if err != nil {
				return err
			}
			params := linkage.Parameters{
				Repetitions: v.GetInt("repetitions"),
				Seed:        v.GetInt64("seed"),
			}
			cmd.SilenceUsage = true
			return pkg.CheckLinkage(args[0], args[1], params, cmd.OutOrStdout())
		},
	}

	cmd.Flags().Int("repetitions", defaults.Repetitions, "number of random feature pairs drawn for the expected ratios")
	cmd.Flags().Int64("seed", defaults.Seed, "random seed")

	return cmd
}

// writeOutput runs write against stdout, or against outputFile once write has succeeded
func writeOutput(cmd *cobra.Command, outputFile string, write func(io.Writer) error) error {
	if outputFile == "" {
		return write(cmd.OutOrStdout())
	}
	b := bytes.NewBufferString("")
	if err := write(b); err != nil {
		return err
	}
	if err := os.WriteFile(outputFile, b.Bytes(), 0644); err != nil {
		return fmt.Errorf("error writing output file %s: %w", outputFile, err)
	}
	return nil
}

func NewRootCommand() *cobra.Command {
	global := &globalOptions{}

	root := &cobra.Command{
		Use:           "fracgraph",
		Short:         "Feature relationship finder for FRaC anomaly detection runs",
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v, err := newConfig(cmd.Flags(), global.configFile)
			if err != nil {
				return err
			}
			return setupLogging(v)
		},
	}

	root.PersistentFlags().String("log-level", "info", "Logging level: info error or debug")
	root.PersistentFlags().String("log-format", "pretty", "Logging format: pretty or json")
	root.PersistentFlags().BoolP("quiet", "q", false, "only log errors")
	root.PersistentFlags().StringVarP(&global.configFile, "config", "", "", "config file with flag values (optional)")

	root.AddCommand(FindCommand(global))
	root.AddCommand(LinkageCommand(global))

	return root
}

func main() {
	if err := NewRootCommand().Execute(); err != nil {
		pkg.LogErrors(err)
		os.Exit(1)
	}
}

func setupLogging(v *viper.Viper) error {

	switch level := v.GetString("log-level"); level {
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	default:
		return fmt.Errorf("invalid logging level %q", level)
	}
	if v.GetBool("quiet") {
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	}

	switch format := v.GetString("log-format"); format {
	case "pretty":
		setupPrettyLogging()
	case "json":
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	default:
		return fmt.Errorf("invalid log format %q", format)
	}
	return nil
}

func setupPrettyLogging() {
	writer := zerolog.ConsoleWriter{Out: os.Stderr}
	writer.FormatFieldValue = func(i interface{}) string {
		switch v := i.(type) {
		case json.Number:
			if n, err := v.Int64(); err == nil {
				return fmt.Sprintf("%d", n)
			}
			val, _ := v.Float64()
			return fmt.Sprintf("%.3f", val)
		default:
			return fmt.Sprintf("%s", i)
		}

	}
	log.Logger = log.Output(writer)

}
