package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sandevgo/falcon/internal/config"
	"github.com/sandevgo/falcon/internal/storage/sqlite"
	"github.com/sandevgo/falcon/pkg/log"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run a retention sweep immediately",
	Long:  `Deletes low-importance conversations and failed tasks past the retention window, drops expired memories, and compacts the database.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()
		logger := log.FromCtx(ctx)

		if err := initEnv(ctx, config.GetRuntimePath()); err != nil {
			return err
		}
		appCfg := config.NewAppConfig(ctx)

		store, err := sqlite.Open(ctx, appCfg.GetDatabasePath())
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer store.Close()

		stats, err := store.Sweep(ctx, appCfg.RetainDays)
		if err != nil {
			return fmt.Errorf("sweep: %w", err)
		}
		if err := store.Vacuum(ctx); err != nil {
			return fmt.Errorf("vacuum: %w", err)
		}

		logger.Info().
			Int64("turns", stats.Turns).
			Int64("facts", stats.Facts).
			Int64("tasks", stats.Tasks).
			Msg("sweep complete")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}
