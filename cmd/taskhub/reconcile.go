package main

import (
	"taskhub/internal/app"
	"taskhub/internal/domain/booking"
	"taskhub/internal/domain/cancellation"

	"github.com/spf13/cobra"
)

// newReconcileCmd runs one reconciliation pass, for cron deployments that
// disable the in-process loop with RECONCILE_INTERVAL=0.
func newReconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Finish cancellations whose refund succeeded or was never answered",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, db, err := bootstrap()
			if err != nil {
				return err
			}
			broker, err := app.NewBroker(cfg, log)
			if err != nil {
				return err
			}
			defer broker.Close()
			gateway, err := app.NewGateway(cfg)
			if err != nil {
				return err
			}

			r := cancellation.NewReconciler(booking.NewRepository(db), cancellation.NewRefundRepository(db), gateway, broker, log)
			rep, err := r.Run(cmd.Context())
			if err != nil {
				return err
			}
			log.Info("reconcile completed",
				"checked", rep.Checked,
				"settled", rep.Settled,
				"released", rep.Released,
				"resolved", rep.Resolved,
				"failed", rep.Failed,
			)
			return nil
		},
	}
}
