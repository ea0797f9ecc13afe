package cmd

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Trailblaze-work/loopcast/internal/renderer"
	"github.com/Trailblaze-work/loopcast/internal/ui/preview"
)

var patternsCmd = &cobra.Command{
	Use:   "patterns [name]",
	Short: "List patterns, or describe one (non-interactive)",
	Long:  "List all available patterns, or show the notes for a single pattern. Useful for scripting.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return printPatternTable(os.Stdout, renderer.Patterns())
		}
		p, ok := renderer.Lookup(args[0])
		if !ok {
			return fmt.Errorf("pattern not found: %s", args[0])
		}
		fmt.Println(preview.RenderNotes("# "+p.Title+"\n\n"+p.Notes, 80))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(patternsCmd)
}

func printPatternTable(out io.Writer, patterns []renderer.Pattern) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tTITLE")
	for _, p := range patterns {
		fmt.Fprintf(w, "%s\t%s\n", p.Name, p.Title)
	}
	return w.Flush()
}
