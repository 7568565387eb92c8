package cmd

import (
	"errors"
	"fmt"

	"github.com/chrisdamba/bentoledger/internal/auth"
	"github.com/spf13/cobra"
)

func newPasswdCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "passwd",
		Short: "Print a bcrypt hash for admin.password_hash",
		Long: `passwd reads a new admin password twice and prints its bcrypt hash. Put
the hash in the config file as admin.password_hash or export it as
BENTO_ADMIN_PASSWORD_HASH.`,
		Args:        cobra.NoArgs,
		Annotations: sessionless(),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, errOut := cmd.InOrStdin(), cmd.ErrOrStderr()
			password, err := promptSecret(in, errOut, "New password: ")
			if err != nil {
				return err
			}
			if password == "" {
				return errors.New("password must not be empty")
			}
			again, err := promptSecret(in, errOut, "Repeat password: ")
			if err != nil {
				return err
			}
			if again != password {
				return errors.New("passwords do not match")
			}

			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}
