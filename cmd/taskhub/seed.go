package main

import (
	"taskhub/internal/database"

	"github.com/spf13/cobra"
)

func newSeedCmd() *cobra.Command {
	var opts database.SeedOptions

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert categories, an admin account and optional demo listings",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, log, db, err := bootstrap()
			if err != nil {
				return err
			}
			if err := database.Migrate(db); err != nil {
				return err
			}

			res, err := database.Seed(cmd.Context(), db, opts)
			if err != nil {
				return err
			}
			log.Info("seed completed",
				"categories", res.Categories,
				"admin_created", res.Admin,
				"businesses", res.Businesses,
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.AdminEmail, "admin-email", "", "email of the admin account to create")
	cmd.Flags().StringVar(&opts.AdminPassword, "admin-password", "", "password of the admin account")
	cmd.Flags().BoolVar(&opts.Demo, "demo", false, "also create a demo tasker with one approved listing per category")
	cmd.MarkFlagsRequiredTogether("admin-email", "admin-password")
	return cmd
}
