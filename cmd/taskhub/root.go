package main

import (
	"fmt"

	"taskhub/internal/config"
	"taskhub/internal/database"
	"taskhub/internal/pkg/logger"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	Version   = "dev"
	CommitSHA = "none"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "taskhub",
		Short:         "Service booking marketplace API",
		Version:       fmt.Sprintf("%s (%s)", Version, CommitSHA),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newSeedCmd())
	root.AddCommand(newReconcileCmd())
	root.AddCommand(newCleanupCmd())

	return root
}

// bootstrap loads the config and opens the database shared by every command.
func bootstrap() (*config.Config, *logger.Logger, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}

	log := logger.New(logger.Config{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: cfg.ServiceName,
	})

	db, err := database.Connect(cfg.DatabaseURL, log)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("db connect: %w", err)
	}
	return cfg, log, db, nil
}
