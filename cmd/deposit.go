package cmd

import (
	"fmt"
	"strconv"

	"github.com/chrisdamba/bentoledger/internal/models"
	"github.com/spf13/cobra"
)

func newDepositCmd(opts *rootOptions) *cobra.Command {
	var mode string
	depositCmd := &cobra.Command{
		Use:   "deposit <name> <amount>",
		Short: "Top up, deduct from or set a colleague's balance",
		Long: `deposit changes a prepaid balance. --mode add tops up, sub deducts and
set overwrites the balance with amount.`,
		Args:        cobra.ExactArgs(2),
		Annotations: mutating(),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("amount %q: %w", args[1], err)
			}
			balance, err := opts.app.session.Deposit(args[0], mode, amount)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s balance: %d\n", args[0], balance)
			return nil
		},
	}
	depositCmd.Flags().StringVar(&mode, "mode", models.RechargeModeAdd, "add, sub or set")
	return depositCmd
}
