package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/texsynth/internal/module"
	"github.com/MeKo-Tech/texsynth/internal/palette"
)

var modulesCmd = &cobra.Command{
	Use:   "modules",
	Short: "List the module catalog",
	RunE:  runModules,
}

var (
	categoryStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	idStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	dimStyle      = lipgloss.NewStyle().Faint(true)
)

func init() {
	rootCmd.AddCommand(modulesCmd)

	modulesCmd.Flags().Bool("json", false, "Print the catalog as JSON")
	modulesCmd.Flags().Bool("palettes", false, "List the palette catalog instead")

	bindFlags(modulesCmd, map[string]string{
		"modules.json":     "json",
		"modules.palettes": "palettes",
	})
}

func runModules(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	asJSON := viper.GetBool("modules.json")

	if viper.GetBool("modules.palettes") {
		return printPalettes(out, asJSON)
	}

	listing := module.Default().Describe()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(listing)
	}

	for _, l := range listing {
		fmt.Fprintln(out, categoryStyle.Render(strings.ToUpper(string(l.Category))))
		for _, d := range l.Modules {
			slots := ""
			if len(d.Inputs) > 0 {
				slots = dimStyle.Render(" <- " + strings.Join(d.Inputs, ", "))
			}
			fmt.Fprintf(out, "  %s  %s%s\n", idStyle.Render(d.ID), d.Name, slots)
			for _, p := range d.Params {
				fmt.Fprintf(out, "      %-12s %g [%g, %g]\n", p.ID, p.Default, p.Min, p.Max)
			}
		}
		fmt.Fprintln(out)
	}
	return nil
}

func printPalettes(out io.Writer, asJSON bool) error {
	if asJSON {
		type entry struct {
			Index int      `json:"index"`
			Name  string   `json:"name"`
			Stops []string `json:"stops"`
		}
		entries := make([]entry, len(palette.Catalog))
		for i, p := range palette.Catalog {
			entries[i] = entry{Index: i, Name: p.Name, Stops: p.Hex()}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	for i, p := range palette.Catalog {
		swatches := make([]string, 0, len(p.Stops))
		for _, hex := range p.Hex() {
			swatches = append(swatches, lipgloss.NewStyle().Background(lipgloss.Color(hex)).Render("  "))
		}
		fmt.Fprintf(out, "%2d  %-10s %s\n", i, p.Name, strings.Join(swatches, ""))
	}
	return nil
}
