package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/rohmanhakim/result-finder/internal/wrapper"
	"github.com/spf13/cobra"
)

var listAll bool

var findCmd = &cobra.Command{
	Use:   "find",
	Short: "Find the result list and write its report",
	Long: `find locates the repeating result list of the page given by --url or
--file and writes a report for the best-ranked selector.

With --all every ranked candidate is listed first, together with its node
count, covered area, grid shape, similarity and alternative selectors.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := InitConfigWithError()
		if err != nil {
			return err
		}
		r, err := newRunner(cfg, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer r.logger.Sync()

		p, err := r.load(cmd.Context())
		if err != nil {
			return err
		}
		found, err := r.discover(p)
		if err != nil {
			return err
		}

		if listAll {
			if err := writeWrapperTable(r.out, found.wrappers); err != nil {
				return err
			}
		}
		return r.emit(p, found.wrappers[0], found.elapsed)
	},
}

func init() {
	findCmd.Flags().BoolVar(&listAll, "all", false, "list every ranked candidate before the report")
}

func writeWrapperTable(out io.Writer, wrappers []*wrapper.Wrapper) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tNODES\tAREA\tGRID\tMIN SIM\tAVG SIM\tXPATH")
	for i, w := range wrappers {
		grid := w.Grid()
		fmt.Fprintf(tw, "%d\t%d\t%.0f\t%dx%d\t%.2f\t%.2f\t%s\n",
			i+1, w.Len(), w.Area(), grid.Rows, grid.Columns,
			w.MinSimilarity(), w.AvgSimilarity(), w.XPath())
		for _, alt := range w.Alternatives() {
			fmt.Fprintf(tw, "\t\t\t\t\t\t%s\n", strings.TrimSpace(alt))
		}
	}
	return tw.Flush()
}
