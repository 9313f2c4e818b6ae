package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/nimasrn/baki-ledger/internal/app"
	"github.com/nimasrn/baki-ledger/internal/config"
	"github.com/nimasrn/baki-ledger/internal/reconcile"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type options struct {
	envFile string
	dryRun  bool
	workers int
}

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	if err := newRootCmd(log).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(log zerolog.Logger) *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Rebuild every cached customer balance from its transactions",
		Long: `reconcile audits the ledger for customers whose cached total credit
disagrees with the sum of their transactions, then recomputes every
balance. With --dry-run it only reports the drift.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, log, opts)
		},
	}
	cmd.Flags().StringVar(&opts.envFile, "env", "", "env file to load before reading the environment")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "report drifted balances without writing")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "parallel recomputes (default RECONCILE_WORKERS)")
	return cmd
}

func run(ctx context.Context, log zerolog.Logger, opts *options) error {
	if err := config.Load(opts.envFile); err != nil {
		log.Error().Err(err).Msg("failed to load config")
		return err
	}
	c := config.Get()

	ledger, err := app.Open(ctx, c)
	if err != nil {
		log.Error().Err(err).Msg("failed opening ledger")
		return err
	}
	defer ledger.Close()

	workers := opts.workers
	if workers <= 0 {
		workers = c.ReconcileWorkers
	}
	log.Info().Str("driver", ledger.DB.Driver()).Int("workers", workers).Bool("dry_run", opts.dryRun).Msg("reconciling")

	report, err := ledger.Reconciler(workers).Run(ctx, opts.dryRun)
	if report != nil {
		printReport(log, report, opts.dryRun)
	}
	if err != nil {
		log.Error().Err(err).Msg("reconcile aborted")
	}
	return err
}

func printReport(log zerolog.Logger, r *reconcile.Report, dryRun bool) {
	for _, d := range r.Drifts {
		log.Warn().
			Int64("customer_id", d.CustomerID).
			Str("name", d.Name).
			Int64("cached", d.Cached).
			Int64("actual", d.Actual).
			Msg("balance drift")
	}
	for id, err := range r.Failed {
		log.Error().Int64("customer_id", id).Err(err).Msg("recompute failed")
	}

	repaired := 0
	if !dryRun {
		for _, d := range r.Drifts {
			if _, failed := r.Failed[d.CustomerID]; !failed {
				repaired++
			}
		}
	}
	log.Info().
		Int("customers", r.Customers).
		Int("drifts", len(r.Drifts)).
		Int("repaired", repaired).
		Int("failed", len(r.Failed)).
		Msg("reconcile finished")
}
