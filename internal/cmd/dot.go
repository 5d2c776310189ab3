package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/texsynth/internal/graph"
	"github.com/MeKo-Tech/texsynth/internal/pipeline"
)

var dotCmd = &cobra.Command{
	Use:   "dot <graph-file>",
	Short: "Export a graph as Graphviz DOT or SVG",
	Args:  cobra.ExactArgs(1),
	RunE:  runDot,
}

func init() {
	rootCmd.AddCommand(dotCmd)

	dotCmd.Flags().Bool("svg", false, "Lay the graph out and emit SVG instead of DOT")
	dotCmd.Flags().StringP("output", "o", "", "Write to this file instead of stdout")
	dotCmd.Flags().Bool("order", false, "Print the evaluation order instead")

	bindFlags(dotCmd, map[string]string{
		"dot.svg":    "svg",
		"dot.output": "output",
		"dot.order":  "order",
	})
}

func runDot(cmd *cobra.Command, args []string) error {
	g, err := graph.Load(args[0])
	if err != nil {
		return err
	}

	var data []byte
	switch {
	case viper.GetBool("dot.order"):
		order, cyclic := pipeline.TopoOrder(g)
		for i, id := range order {
			data = fmt.Appendf(data, "%d\t%s\n", i+1, id)
		}
		for _, id := range cyclic {
			data = fmt.Appendf(data, "-\t%s (cycle)\n", id)
		}
	case viper.GetBool("dot.svg"):
		data, err = graph.RenderSVG(context.Background(), graph.ToDOT(g))
		if err != nil {
			return fmt.Errorf("failed to render svg: %w", err)
		}
	default:
		data = []byte(graph.ToDOT(g))
	}

	if out := viper.GetString("dot.output"); out != "" {
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", out, err)
		}
		return nil
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
