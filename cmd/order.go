package cmd

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/chrisdamba/bentoledger/internal/ledger"
	"github.com/chrisdamba/bentoledger/internal/models"
	"github.com/spf13/cobra"
)

func newOrderCmd(opts *rootOptions) *cobra.Command {
	var (
		week   string
		offset int
	)
	orderCmd := &cobra.Command{
		Use:   "order",
		Short: "Show and edit a colleague's weekday orders",
		Long: `Dates are YYYY-MM-DD or a weekday name (Monday, tue, ...) of the week
picked with --week and --offset.`,
	}

	showCmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Print one colleague's orders for a week",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := opts.app.weekOf(week, offset)
			if err != nil {
				return err
			}
			account, err := opts.app.session.Account(args[0])
			if err != nil {
				return err
			}
			menu := opts.app.session.Menu()
			days := opts.app.session.Week(start)

			ids := orderedItemIDs(account, days, menu)
			w := newTable(cmd.OutOrStdout())
			header := make([]string, len(days))
			for i, day := range days {
				header[i] = fmt.Sprintf("%s %s", day.Label[:3], day.Date)
			}
			fmt.Fprintf(w, "ITEM\t%s\t\n", strings.Join(header, "\t"))
			for _, id := range ids {
				label := fmt.Sprintf("%s %s", models.OrphanIcon, id)
				if item, ok := menu.Lookup(id); ok {
					label = fmt.Sprintf("%s %s", models.MenuIcon(id), item.Name)
				}
				cells := make([]string, len(days))
				for i, day := range days {
					if qty := ledger.Quantity(account, day.Date, id); qty > 0 {
						cells[i] = strconv.Itoa(qty)
					} else {
						cells[i] = "-"
					}
				}
				fmt.Fprintf(w, "%s\t%s\t\n", label, strings.Join(cells, "\t"))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Weekly total: %d\nBalance: %d\n",
				ledger.WeeklyTotal(account, days, menu), account.Balance)
			return nil
		},
	}

	setCmd := &cobra.Command{
		Use:         "set <name> <date> <item> <qty>",
		Short:       "Set the quantity of an item on a day (0 removes it)",
		Args:        cobra.ExactArgs(4),
		Annotations: mutating(),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := resolveDay(opts, week, offset, args[1])
			if err != nil {
				return err
			}
			qty, err := strconv.Atoi(args[3])
			if err != nil {
				return fmt.Errorf("quantity %q: %w", args[3], err)
			}
			if err := opts.app.session.SetQuantity(args[0], date, args[2], qty); err != nil {
				return err
			}
			return printQuantity(cmd, opts, args[0], date, args[2])
		},
	}

	addCmd := &cobra.Command{
		Use:         "add <name> <date> <item> [delta]",
		Short:       "Change the quantity of an item on a day by delta (default 1)",
		Args:        cobra.RangeArgs(3, 4),
		Annotations: mutating(),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := resolveDay(opts, week, offset, args[1])
			if err != nil {
				return err
			}
			delta := 1
			if len(args) == 4 {
				if delta, err = strconv.Atoi(args[3]); err != nil {
					return fmt.Errorf("delta %q: %w", args[3], err)
				}
			}
			if err := opts.app.session.AdjustQuantity(args[0], date, args[2], delta); err != nil {
				return err
			}
			return printQuantity(cmd, opts, args[0], date, args[2])
		},
	}

	for _, sub := range []*cobra.Command{showCmd, setCmd, addCmd} {
		addWeekFlags(sub, &week, &offset)
	}
	orderCmd.AddCommand(showCmd, setCmd, addCmd)
	return orderCmd
}

func resolveDay(opts *rootOptions, week string, offset int, value string) (models.DateKey, error) {
	start, err := opts.app.weekOf(week, offset)
	if err != nil {
		return "", err
	}
	return opts.app.dayOf(value, start)
}

func printQuantity(cmd *cobra.Command, opts *rootOptions, name string, date models.DateKey, itemID string) error {
	account, err := opts.app.session.Account(name)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s x%d\n", name, date, itemID, ledger.Quantity(account, date, itemID))
	return nil
}

// orderedItemIDs lists the menu ids in menu order, then any id the account
// ordered this week that the menu no longer has.
func orderedItemIDs(account models.UserAccount, week ledger.Week, menu ledger.Menu) []string {
	ids := make([]string, 0, len(menu))
	known := make(map[string]bool, len(menu))
	for _, item := range menu {
		ids = append(ids, item.ID)
		known[item.ID] = true
	}
	var orphans []string
	for _, day := range week {
		for id := range account.Selections[day.Date] {
			if !known[id] {
				known[id] = true
				orphans = append(orphans, id)
			}
		}
	}
	sort.Strings(orphans)
	return append(ids, orphans...)
}
