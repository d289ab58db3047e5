package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/IT24101129/RestaurantEventManagement-sub001/internal/config"
	"github.com/IT24101129/RestaurantEventManagement-sub001/internal/db"
	"github.com/IT24101129/RestaurantEventManagement-sub001/internal/migrate"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			if cfg.DevMode {
				return fmt.Errorf("dev mode has no database to migrate")
			}

			ctx := context.Background()
			pool, err := db.Open(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer pool.Close()

			return migrate.Up(ctx, pool)
		},
	}
}
