package main

import (
	"fmt"

	pgStorage "wallet-settlement/internal/adapter/storage/postgres"
	"wallet-settlement/pkg/logger"

	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	var printOnly bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded database schema",
		Long: `Apply the embedded PostgreSQL schema (users, wallets, merchants,
payments, verification_records, audit_logs). The schema is idempotent and
safe to run on every deploy.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if printOnly {
				_, err := fmt.Fprint(cmd.OutOrStdout(), pgStorage.Schema())
				return err
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

			ctx := cmd.Context()
			pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
			if err != nil {
				return fmt.Errorf("connect to PostgreSQL: %w", err)
			}
			defer pool.Close()

			return pgStorage.Migrate(ctx, pool, log)
		},
	}
	cmd.Flags().BoolVar(&printOnly, "print", false, "print the schema instead of applying it")
	return cmd
}
