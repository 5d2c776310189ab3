package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/texsynth/internal/graph"
)

var convertCmd = &cobra.Command{
	Use:   "convert <graph-file>",
	Short: "Convert a graph file between YAML, JSON and TOML",
	Long: `Convert a graph file to another encoding. The target format comes from --to or
from the extension of --output.`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().String("to", "", "Target format: yaml, json or toml")
	convertCmd.Flags().StringP("output", "o", "", "Output file (default: stdout)")

	bindFlags(convertCmd, map[string]string{
		"convert.to":     "to",
		"convert.output": "output",
	})
}

func runConvert(cmd *cobra.Command, args []string) error {
	to := viper.GetString("convert.to")
	output := viper.GetString("convert.output")

	format, err := targetFormat(to, output)
	if err != nil {
		return err
	}

	// decode directly so the file name is not copied into the graph
	srcFormat, err := graph.FormatFromPath(args[0])
	if err != nil {
		return err
	}
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read graph %s: %w", args[0], err)
	}
	g, err := graph.Unmarshal(raw, srcFormat)
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}

	data, err := graph.Marshal(g, format)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", format, err)
	}

	if output == "" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}
	return nil
}

func targetFormat(to, output string) (graph.Format, error) {
	switch {
	case to != "":
		f := graph.Format(strings.ToLower(to))
		if f == "yml" {
			f = graph.FormatYAML
		}
		switch f {
		case graph.FormatYAML, graph.FormatJSON, graph.FormatTOML:
			return f, nil
		}
		return "", fmt.Errorf("%w: %q", graph.ErrUnknownFormat, to)
	case output != "":
		return graph.FormatFromPath(output)
	default:
		return "", fmt.Errorf("either --to or --output is required")
	}
}
