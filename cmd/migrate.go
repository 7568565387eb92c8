package cmd

import (
	"fmt"

	"github.com/chrisdamba/bentoledger/internal/repositories/postgres"
	"github.com/spf13/cobra"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:         "migrate",
		Short:       "Create or update the Postgres schema",
		Args:        cobra.NoArgs,
		Annotations: sessionless(),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			pool, err := postgres.Connect(ctx, opts.cfg.Postgres.URL, opts.cfg.Postgres.MaxConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			out := cmd.OutOrStdout()
			if err := postgres.Migrate(ctx, pool, func(name string) {
				fmt.Fprintf(out, "Applied %s\n", name)
			}); err != nil {
				return err
			}
			fmt.Fprintln(out, "Schema is up to date")
			return nil
		},
	}
}
