package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newUserCmd(opts *rootOptions) *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage the roster",
	}

	var (
		week   string
		offset int
	)
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List colleagues with balance and weekly spend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := opts.app.weekOf(week, offset)
			if err != nil {
				return err
			}
			report := opts.app.session.Report(start)

			w := newTable(cmd.OutOrStdout())
			fmt.Fprintf(w, "NAME\tBALANCE\tWEEK %s\t\n", report.Week)
			for _, user := range report.Users {
				flag := ""
				if user.Negative {
					flag = "overdrawn"
				}
				fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", user.UserName, user.Balance, user.WeeklyTotal, flag)
			}
			return w.Flush()
		},
	}
	addWeekFlags(listCmd, &week, &offset)

	addCmd := &cobra.Command{
		Use:         "add <name>",
		Short:       "Add a colleague with a zero balance",
		Args:        cobra.ExactArgs(1),
		Annotations: mutating(),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.app.session.AddUser(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s\n", args[0])
			return nil
		},
	}

	renameCmd := &cobra.Command{
		Use:         "rename <old> <new>",
		Short:       "Rename a colleague, keeping balance and orders",
		Args:        cobra.ExactArgs(2),
		Annotations: mutating(),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.app.session.RenameUser(args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed %s to %s\n", args[0], args[1])
			return nil
		},
	}

	var yes bool
	removeCmd := &cobra.Command{
		Use:         "remove <name>",
		Short:       "Delete a colleague, their balance and their order history",
		Args:        cobra.ExactArgs(1),
		Annotations: mutating(),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			account, err := opts.app.session.Account(name)
			if err != nil {
				return err
			}
			if !yes {
				ok, err := confirm(cmd.InOrStdin(), cmd.OutOrStdout(),
					fmt.Sprintf("Remove %s (balance %d)? This cannot be undone.", name, account.Balance))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Aborted")
					return nil
				}
			}
			if err := opts.app.session.RemoveUser(name); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", name)
			return nil
		},
	}
	removeCmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")

	userCmd.AddCommand(listCmd, addCmd, renameCmd, removeCmd)
	return userCmd
}
