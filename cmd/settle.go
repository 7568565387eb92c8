package cmd

import (
	"fmt"
	"io"

	"github.com/chrisdamba/bentoledger/internal/ledger"
	"github.com/spf13/cobra"
)

func newSettleCmd(opts *rootOptions) *cobra.Command {
	var (
		week   string
		offset int
		yes    bool
	)
	settleCmd := &cobra.Command{
		Use:   "settle",
		Short: "Deduct a week's spend from every balance and clear that week's orders",
		Long: `settle charges every colleague for the selected week at current menu
prices and removes that week's orders. The whole roster is written once, so
either every account is settled or none is.`,
		Args:        cobra.NoArgs,
		Annotations: mutating(),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := opts.app.weekOf(week, offset)
			if err != nil {
				return err
			}
			preview := opts.app.session.Report(start)
			out := cmd.OutOrStdout()
			if !yes {
				ok, err := confirm(cmd.InOrStdin(), out, fmt.Sprintf(
					"Settle %s for %d colleagues, charging %d in total?",
					preview.Week, len(preview.Users), preview.GrandTotal))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(out, "Aborted")
					return nil
				}
			}

			report, err := opts.app.session.SettleWeek(cmd.Context(), start)
			if err != nil {
				return err
			}
			return printSettlement(out, report)
		},
	}
	addWeekFlags(settleCmd, &week, &offset)
	settleCmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return settleCmd
}

func printSettlement(out io.Writer, report ledger.SettlementReport) error {
	w := newTable(out)
	fmt.Fprintln(w, "NAME\tBEFORE\tSPEND\tAFTER\tUNPRICED")
	for _, account := range report.Accounts {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\n", account.UserName, account.PreviousBalance,
			account.Spend, account.NewBalance, account.OrphanedReferences)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "Settled week of %s: %d charged, %d overdrawn", report.WeekStart, report.TotalSpend, report.NegativeBalances)
	if report.OrphanedReferences > 0 {
		fmt.Fprintf(out, ", %d orders for items no longer on the menu were dropped", report.OrphanedReferences)
	}
	fmt.Fprintln(out)
	return nil
}
