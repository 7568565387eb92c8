package cmd

import (
	"fmt"
	"time"

	"github.com/chrisdamba/bentoledger/internal/factories"
	"github.com/chrisdamba/bentoledger/internal/models"
	"github.com/chrisdamba/bentoledger/internal/session"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

type seedOptions struct {
	users     int
	menuItems int
	seed      int64
}

func newSeedCmd(opts *rootOptions) *cobra.Command {
	var (
		week   string
		offset int
		so     seedOptions
	)
	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill the ledger with generated colleagues, balances and orders",
		Long: `seed adds generated colleagues with balances and a week of orders, and
optionally extra menu items. Existing data is kept and new names never
clash with existing ones.`,
		Args:        cobra.NoArgs,
		Annotations: mutating(),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := opts.app.weekOf(week, offset)
			if err != nil {
				return err
			}
			if so.seed == 0 {
				so.seed = time.Now().UnixNano()
			}

			bar := progressbar.NewOptions(so.users+so.menuItems,
				progressbar.OptionSetWriter(cmd.ErrOrStderr()),
				progressbar.OptionSetDescription("seeding"),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
			users, items, err := seed(opts.app.session, start, so, func() { bar.Add(1) })
			bar.Finish()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d colleagues and %d menu items for %s (seed %d)\n",
				users, items, opts.app.session.Week(start), so.seed)
			return nil
		},
	}
	addWeekFlags(seedCmd, &week, &offset)
	seedCmd.Flags().IntVar(&so.users, "users", 10, "number of colleagues to generate")
	seedCmd.Flags().IntVar(&so.menuItems, "menu-items", 0, "number of extra menu items to generate")
	seedCmd.Flags().Int64Var(&so.seed, "seed", 0, "random seed (default is time based)")
	return seedCmd
}

// seed applies generated data through the session so it is validated,
// persisted and published like any other edit.
func seed(s *session.Session, weekStart time.Time, so seedOptions, step func()) (int, int, error) {
	items := factories.NewMenuFactory(so.seed).CreateMenuItems(so.menuItems)
	for _, item := range items {
		if _, err := s.AddMenuItem(item); err != nil {
			return 0, 0, fmt.Errorf("add menu item %s: %w", item.Name, err)
		}
		step()
	}

	taken := make(map[string]bool)
	for _, name := range s.Roster().Names() {
		taken[name] = true
	}
	roster := factories.NewRosterFactory(so.seed).CreateRoster(so.users, taken, s.Week(weekStart), s.Menu(), nil)
	for _, user := range roster {
		if err := seedAccount(s, user); err != nil {
			return 0, len(items), err
		}
		step()
	}
	return len(roster), len(items), nil
}

func seedAccount(s *session.Session, user models.UserAccount) error {
	if err := s.AddUser(user.UserName); err != nil {
		return err
	}
	if _, err := s.Deposit(user.UserName, models.RechargeModeSet, user.Balance); err != nil {
		return err
	}
	for date, order := range user.Selections {
		for itemID, qty := range order {
			if err := s.SetQuantity(user.UserName, date, itemID, qty); err != nil {
				return err
			}
		}
	}
	return nil
}
