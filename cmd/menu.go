package cmd

import (
	"fmt"

	"github.com/chrisdamba/bentoledger/internal/models"
	"github.com/spf13/cobra"
)

func newMenuCmd(opts *rootOptions) *cobra.Command {
	menuCmd := &cobra.Command{
		Use:   "menu",
		Short: "Show and edit the lunch menu",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List menu items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := newTable(cmd.OutOrStdout())
			fmt.Fprintln(w, "\tID\tNAME\tPRICE")
			for _, item := range opts.app.session.Menu() {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", models.MenuIcon(item.ID), item.ID, item.Name, item.Price)
			}
			return w.Flush()
		},
	}

	var (
		addID    string
		addName  string
		addPrice int64
	)
	addCmd := &cobra.Command{
		Use:         "add",
		Short:       "Add a menu item",
		Args:        cobra.NoArgs,
		Annotations: mutating(),
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := opts.app.session.AddMenuItem(models.MenuItem{ID: addID, Name: addName, Price: addPrice})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s %s (%s) at %d\n", models.MenuIcon(item.ID), item.Name, item.ID, item.Price)
			return nil
		},
	}
	addCmd.Flags().StringVar(&addID, "id", "", "item id (generated when empty)")
	addCmd.Flags().StringVar(&addName, "name", "", "display name")
	addCmd.Flags().Int64Var(&addPrice, "price", 0, "price in whole currency units")
	addCmd.MarkFlagRequired("name")
	addCmd.MarkFlagRequired("price")

	var (
		editName  string
		editPrice int64
	)
	editCmd := &cobra.Command{
		Use:         "edit <id>",
		Short:       "Change a menu item's name or price",
		Args:        cobra.ExactArgs(1),
		Annotations: mutating(),
		RunE: func(cmd *cobra.Command, args []string) error {
			item, ok := opts.app.session.Menu().Lookup(args[0])
			if !ok {
				return fmt.Errorf("%w: %s", models.ErrMenuItemNotFound, args[0])
			}
			if cmd.Flags().Changed("name") {
				item.Name = editName
			}
			if cmd.Flags().Changed("price") {
				item.Price = editPrice
			}
			if err := opts.app.session.UpdateMenuItem(item); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s: %s at %d\n", item.ID, item.Name, item.Price)
			return nil
		},
	}
	editCmd.Flags().StringVar(&editName, "name", "", "new display name")
	editCmd.Flags().Int64Var(&editPrice, "price", 0, "new price")

	removeCmd := &cobra.Command{
		Use:         "remove <id>",
		Short:       "Remove a menu item; existing orders for it are kept but no longer priced",
		Args:        cobra.ExactArgs(1),
		Annotations: mutating(),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.app.session.RemoveMenuItem(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
			return nil
		},
	}

	menuCmd.AddCommand(listCmd, addCmd, editCmd, removeCmd)
	return menuCmd
}
