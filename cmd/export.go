package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/chrisdamba/bentoledger/internal/ledger"
	"github.com/chrisdamba/bentoledger/internal/output"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newExportCmd(opts *rootOptions) *cobra.Command {
	var (
		week   string
		offset int
		weeks  int
	)
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Write weekly order and balance tables as parquet or JSON",
		Long: `export writes an orders table and a balances table for each selected
week, partitioned by week start, to a local folder or an S3 bucket.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := opts.app.weekOf(week, offset)
			if err != nil {
				return err
			}
			if weeks < 1 {
				return fmt.Errorf("--weeks must be at least 1, got %d", weeks)
			}

			bar := progressbar.NewOptions(weeks,
				progressbar.OptionSetWriter(cmd.ErrOrStderr()),
				progressbar.OptionSetDescription("exporting weeks"),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
			written, err := exportWeeks(cmd.Context(), opts.app, start, weeks, func() { bar.Add(1) })
			bar.Finish()
			if err != nil {
				return err
			}
			printWritten(cmd.OutOrStdout(), written)
			return nil
		},
	}
	addWeekFlags(exportCmd, &week, &offset)
	exportCmd.Flags().IntVar(&weeks, "weeks", 1, "number of consecutive weeks to export, ending at the selected week")
	exportCmd.Flags().String("format", "", "parquet or json (default from export.format)")
	exportCmd.Flags().String("destination", "", "local or s3 (default from export.destination)")
	viper.BindPFlag("export.format", exportCmd.Flags().Lookup("format"))
	viper.BindPFlag("export.destination", exportCmd.Flags().Lookup("destination"))
	return exportCmd
}

// exportWeeks writes n weeks ending at the week of last, oldest first.
func exportWeeks(ctx context.Context, a *app, last time.Time, n int, onWeek func()) ([]string, error) {
	dest, err := output.NewDestination(ctx, a.cfg.Export, a.cfg.CloudStorage)
	if err != nil {
		return nil, err
	}
	w, err := output.NewReportWriter(a.cfg.Export.Format, dest)
	if err != nil {
		return nil, err
	}

	var written []string
	for i := n - 1; i >= 0; i-- {
		report := a.session.Report(ledger.ShiftWeek(last, -i))
		paths, err := w.WriteReport(ctx, report)
		if err != nil {
			return written, fmt.Errorf("export week %s: %w", report.Week.Start(), err)
		}
		written = append(written, paths...)
		a.log.WithField("week", report.Week.Start()).WithField("files", len(paths)).Debug("exported week")
		if onWeek != nil {
			onWeek()
		}
	}
	return written, nil
}

func printWritten(out io.Writer, paths []string) {
	for _, p := range paths {
		fmt.Fprintf(out, "Wrote %s\n", p)
	}
}
