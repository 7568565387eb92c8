package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/chrisdamba/bentoledger/internal/models"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// annotationAuth marks commands that change the ledger.
	annotationAuth = "bentoledger/auth"
	// annotationNoSession marks commands that never open a session.
	annotationNoSession = "bentoledger/no-session"
)

type rootOptions struct {
	cfgFile     string
	bypass      bool
	printEvents bool

	cfg *models.Config
	app *app
}

func mutating() map[string]string {
	return map[string]string{annotationAuth: "true"}
}

func sessionless() map[string]string {
	return map[string]string{annotationNoSession: "true"}
}

func newRootCmd() (*cobra.Command, *rootOptions) {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "bentoledger",
		Short: "Lunch orders and prepaid balances for an office roster",
		Long: `bentoledger keeps a roster of colleagues, their weekday lunch orders and
their prepaid balances. Settling a week deducts everyone's spend and clears
that week's orders in a single write.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := models.LoadConfig(opts.cfgFile)
			if err != nil {
				return fmt.Errorf("error loading config: %w", err)
			}
			opts.cfg = cfg
			if cmd.Annotations[annotationNoSession] == "true" || cmd.Name() == "help" {
				return nil
			}

			ctx := cmd.Context()
			opts.app, err = newApp(ctx, cfg, opts.printEvents, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if cmd.Annotations[annotationAuth] == "true" {
				if err := opts.app.login(cmd.InOrStdin(), cmd.ErrOrStderr(), opts.bypass); err != nil {
					return err
				}
			}
			return opts.app.openSession(ctx)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.cfgFile, "config", "", "config file (default is ./.bentoledger.yaml or $HOME/.bentoledger.yaml)")
	flags.String("store", "", "store driver: memory, postgres or redis")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.BoolVar(&opts.bypass, "bypass", false, "skip the admin login for this invocation")
	flags.BoolVar(&opts.printEvents, "print-events", false, "print ledger events to stderr when Kafka is disabled")

	viper.BindPFlag("store_driver", flags.Lookup("store"))
	viper.BindPFlag("log_level", flags.Lookup("log-level"))

	rootCmd.AddCommand(
		newMenuCmd(opts),
		newUserCmd(opts),
		newOrderCmd(opts),
		newDepositCmd(opts),
		newSettleCmd(opts),
		newReportCmd(opts),
		newExportCmd(opts),
		newSeedCmd(opts),
		newWatchCmd(opts),
		newMigrateCmd(opts),
		newPasswdCmd(opts),
	)
	return rootCmd, opts
}

// run executes the command tree and always releases the app, so edits made
// before a failing step are still flushed.
func run(ctx context.Context, rootCmd *cobra.Command, opts *rootOptions) error {
	err := rootCmd.ExecuteContext(ctx)
	if opts.app != nil {
		if cerr := opts.app.close(context.Background()); cerr != nil && err == nil {
			err = cerr
		}
		opts.app = nil
	}
	return err
}

func Execute() {
	rootCmd, opts := newRootCmd()
	if err := run(context.Background(), rootCmd, opts); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
