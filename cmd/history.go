package cmd

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Trailblaze-work/loopcast/internal/history"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent exports (non-interactive)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openHistory()
		if err != nil {
			return fmt.Errorf("opening history: %w", err)
		}
		defer store.Close()

		entries, err := store.List(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
		return printHistoryTable(os.Stdout, entries)
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of exports to show")
	rootCmd.AddCommand(historyCmd)
}

func printHistoryTable(out io.Writer, entries []*history.Entry) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKIND\tPATTERN\tSIZE\tFRAMES\tBYTES\tSTATUS\tSTARTED\tOUTPUT")
	for _, e := range entries {
		output := e.Output
		if output == "" {
			output = "-"
		}
		bytes := "-"
		if e.Bytes > 0 {
			bytes = humanize.Bytes(uint64(e.Bytes))
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%dx%d\t%d\t%s\t%s\t%s\t%s\n",
			e.ID[:8],
			e.Kind,
			e.Pattern,
			e.Width, e.Height,
			e.Frames,
			bytes,
			e.Status,
			humanize.Time(e.StartedAt),
			output,
		)
	}
	return w.Flush()
}
