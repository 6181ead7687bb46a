package main

import (
	"taskhub/internal/domain/notification"

	"github.com/spf13/cobra"
)

func newCleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Delete read notifications older than NOTIFICATION_RETENTION",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, db, err := bootstrap()
			if err != nil {
				return err
			}

			svc := notification.NewService(notification.NewRepository(db), log)
			_, err = svc.Purge(cmd.Context(), cfg.NotificationRetention)
			return err
		},
	}
}
