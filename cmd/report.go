package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chrisdamba/bentoledger/internal/ledger"
	"github.com/chrisdamba/bentoledger/internal/models"
	"github.com/spf13/cobra"
)

func newReportCmd(opts *rootOptions) *cobra.Command {
	var (
		week   string
		offset int
	)
	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Print the weekly kitchen summary and everyone's balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := opts.app.weekOf(week, offset)
			if err != nil {
				return err
			}
			menu := opts.app.session.Menu()
			report := opts.app.session.Report(start)
			opts.app.metrics.SetOrphanedReferences(report.OrphanedReferences)
			return printReport(cmd.OutOrStdout(), report, menu)
		},
	}
	addWeekFlags(reportCmd, &week, &offset)
	return reportCmd
}

func printReport(out io.Writer, report ledger.WeeklyReport, menu ledger.Menu) error {
	fmt.Fprintf(out, "Week %s\n\n", report.Week)

	w := newTable(out)
	header := make([]string, len(report.Week))
	for i, day := range report.Week {
		header[i] = day.Label[:3]
	}
	fmt.Fprintf(w, "ITEM\t%s\t\n", strings.Join(header, "\t"))
	for _, id := range report.ItemIDs(menu) {
		label := fmt.Sprintf("%s %s", models.OrphanIcon, id)
		if item, ok := menu.Lookup(id); ok {
			label = fmt.Sprintf("%s %s", models.MenuIcon(id), item.Name)
		}
		cells := make([]string, len(report.Week))
		for i, day := range report.Week {
			cells[i] = strconv.Itoa(report.Summary[day.Date][id])
		}
		fmt.Fprintf(w, "%s\t%s\t\n", label, strings.Join(cells, "\t"))
	}
	revenue := make([]string, len(report.Week))
	for i, day := range report.Week {
		revenue[i] = strconv.FormatInt(report.Revenue[day.Date], 10)
	}
	fmt.Fprintf(w, "REVENUE\t%s\t\n", strings.Join(revenue, "\t"))
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "Grand total: %d\n\n", report.GrandTotal)

	w = newTable(out)
	fmt.Fprintln(w, "NAME\tBALANCE\tWEEK\t")
	for _, user := range report.Users {
		flag := ""
		if user.Negative {
			flag = "overdrawn"
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", user.UserName, user.Balance, user.WeeklyTotal, flag)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if report.OrphanedReferences > 0 {
		fmt.Fprintf(out, "\n%s %d orders reference items no longer on the menu and are not charged\n",
			models.OrphanIcon, report.OrphanedReferences)
	}
	return nil
}
