package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/receipts/internal/model"
)

func newStatsCommand(g *globalFlags) *cobra.Command {
	var reset, all bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show detection totals and pattern reliability",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd, g.project, reset, all)
		},
	}

	cmd.Flags().BoolVar(&reset, "reset", false, "reset every pattern counter")
	cmd.Flags().BoolVar(&all, "all", false, "include patterns without observations")

	return cmd
}

func runStats(cmd *cobra.Command, root string, reset, all bool) (err error) {
	p, err := openProject(root)
	if err != nil {
		return err
	}
	defer closeInto(p, &err)

	out := cmd.OutOrStdout()
	if reset {
		p.catalogue.ResetCounters()
		if err := p.store.ResetCounters(); err != nil {
			return err
		}
		fmt.Fprintln(out, "Pattern counters reset")
		return nil
	}

	totals, err := p.store.Totals()
	if err != nil {
		return err
	}
	reliableRate := 0.0
	if totals.Parses > 0 {
		reliableRate = float64(totals.Reliable) / float64(totals.Parses)
	}
	fmt.Fprintf(out, "Receipts parsed: %d (detected %.0f%%, reliable %.0f%%)\n",
		totals.Parses, totals.DetectionRate()*100, reliableRate*100)

	cs := p.catalogue.Stats()
	fmt.Fprintf(out, "Patterns: %d (%d amount, %d payment enabled), %d learned, %d pending, %d merchants",
		cs.Total, cs.Enabled[model.CategoryAmount], cs.Enabled[model.CategoryPayment], cs.Learned, cs.Pending, cs.Merchants)
	if cs.Rejected > 0 {
		fmt.Fprintf(out, ", %d rejected", cs.Rejected)
	}
	fmt.Fprintln(out)

	report := p.tracker.Report()
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "\nID\tTIER\tSCORE\tOK\tFAIL\tRATE\tPATTERN")
	for _, ps := range report.Patterns {
		if !all && ps.Counters.Total() == 0 {
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%d\t%d\t%.0f%%\t%s\n",
			ps.ID, ps.Tier, ps.Score, ps.Counters.Success, ps.Counters.Failure, ps.SuccessRate*100, ps.Expression)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(report.Recommendations) > 0 {
		fmt.Fprintln(out, "\nRecommendations:")
		for _, r := range report.Recommendations {
			fmt.Fprintf(out, "  - %s\n", r)
		}
	}
	return nil
}
