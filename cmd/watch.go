package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chrisdamba/bentoledger/internal/ledger"
	"github.com/chrisdamba/bentoledger/internal/logging"
	"github.com/chrisdamba/bentoledger/internal/models"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

func newWatchCmd(opts *rootOptions) *cobra.Command {
	var noMetrics bool
	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow ledger changes, serve metrics and run scheduled exports",
		Long: `watch prints a line whenever the menu or roster changes in the store,
serves Prometheus metrics on metrics_addr and, when export.schedule is set,
exports the current week on that cron schedule. It runs until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return watch(ctx, opts.app, cmd.OutOrStdout(), !noMetrics)
		},
	}
	watchCmd.Flags().BoolVar(&noMetrics, "no-metrics", false, "do not serve the metrics endpoint")
	return watchCmd
}

func watch(ctx context.Context, a *app, out io.Writer, serveMetrics bool) error {
	log := logging.Component(a.log, "watch")

	unsubscribe, err := a.store.Subscribe(ctx,
		func(items []models.MenuItem) {
			fmt.Fprintf(out, "%s menu changed: %d items\n", time.Now().In(a.loc).Format(time.TimeOnly), len(items))
		},
		func(accounts []models.UserAccount) {
			now := time.Now().In(a.loc)
			fmt.Fprintf(out, "%s roster changed: %d colleagues\n", now.Format(time.TimeOnly), len(accounts))
			report := ledger.BuildWeeklyReport(ledger.Roster(accounts), a.session.Week(now), a.session.Menu())
			a.metrics.SetOrphanedReferences(report.OrphanedReferences)
		},
	)
	if err != nil {
		return fmt.Errorf("subscribe to store: %w", err)
	}
	defer unsubscribe()

	if serveMetrics {
		server := &http.Server{
			Addr:              a.cfg.MetricsAddr,
			Handler:           metricsMux(a),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			log.WithField("addr", server.Addr).Info("serving metrics")
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.WithError(err).Error("metrics server stopped")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			server.Shutdown(shutdownCtx)
		}()
	}

	if spec := a.cfg.Export.Schedule; spec != "" {
		scheduler := cron.New(cron.WithLocation(a.loc))
		_, err := scheduler.AddFunc(spec, func() {
			paths, err := exportWeeks(ctx, a, time.Now().In(a.loc), 1, nil)
			if err != nil {
				log.WithError(err).Error("scheduled export failed")
				return
			}
			log.WithField("files", paths).Info("scheduled export finished")
		})
		if err != nil {
			return fmt.Errorf("invalid export schedule %q: %w", spec, err)
		}
		scheduler.Start()
		defer func() { <-scheduler.Stop().Done() }()
		log.WithField("schedule", spec).Info("scheduled exports enabled")
	}

	log.Info("watching for changes, press Ctrl+C to stop")
	<-ctx.Done()
	return nil
}

func metricsMux(a *app) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := a.session.LastError(); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		fmt.Fprintln(w, "ok")
	})
	return mux
}
