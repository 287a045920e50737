package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/rohmanhakim/result-finder/internal/advisor"
	"github.com/spf13/cobra"
)

var wrapperIndex int

var adviseCmd = &cobra.Command{
	Use:   "advise",
	Short: "Suggest more readable selectors for a found result list",
	Long: `advise runs the same discovery as find, then generates alternative
selectors for the chosen candidate (the best one unless --index says
otherwise), keeps those selecting exactly the same results, and prints them
from most to least readable.`,
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
		if wrapperIndex < 0 || wrapperIndex >= len(found.wrappers) {
			return fmt.Errorf("--index %d out of range: %d candidates found", wrapperIndex, len(found.wrappers))
		}

		target := found.wrappers[wrapperIndex]
		suggestions, adviseErr := advisor.NewAdvisor(p.doc, p.query, r.logger, r.sink).Advise(target)
		if adviseErr != nil {
			return adviseErr
		}

		tw := tabwriter.NewWriter(r.out, 0, 4, 2, ' ', 0)
		fmt.Fprintf(tw, "# %s (%d nodes)\n", target.XPath(), target.Len())
		fmt.Fprintln(tw, "RANK\tSCORE\tXPATH")
		for i, s := range suggestions {
			fmt.Fprintf(tw, "%d\t%.3f\t%s\n", i+1, s.Score, s.XPath)
		}
		return tw.Flush()
	},
}

func init() {
	adviseCmd.Flags().IntVar(&wrapperIndex, "index", 0, "0-based rank of the candidate to advise on")
}
