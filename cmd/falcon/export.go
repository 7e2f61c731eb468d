package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sandevgo/falcon/internal/config"
	"github.com/sandevgo/falcon/internal/storage/sqlite"
	"github.com/sandevgo/falcon/pkg/log"
)

var (
	exportSession string
	exportFormat  string
	exportFacts   bool
	exportTasks   bool
	exportOut     string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export conversation data",
	Long:  `Exports conversations, user context and insights as JSON, or flat turn rows as CSV.`,
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

		exporter := sqlite.NewExporter(store)

		var data []byte
		switch exportFormat {
		case "json":
			data, err = exporter.ExportJSON(ctx, sqlite.ExportOptions{
				SessionID:    exportSession,
				IncludeFacts: exportFacts,
				IncludeTasks: exportTasks,
			})
		case "csv":
			data, err = exporter.ExportCSV(ctx, exportSession)
		default:
			return fmt.Errorf("unknown format %q (want json or csv)", exportFormat)
		}
		if err != nil {
			return fmt.Errorf("export: %w", err)
		}

		if exportOut == "" || exportOut == "-" {
			_, err = os.Stdout.Write(data)
			return err
		}

		if err := os.WriteFile(exportOut, data, 0644); err != nil {
			return fmt.Errorf("write export: %w", err)
		}
		logger.Info().Str("path", exportOut).Int("bytes", len(data)).Msg("export written")
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportSession, "session", "", "restrict the export to one session id")
	exportCmd.Flags().StringVar(&exportFormat, "format", "json", "output format: json or csv")
	exportCmd.Flags().BoolVar(&exportFacts, "facts", false, "include long-term memory in the JSON export")
	exportCmd.Flags().BoolVar(&exportTasks, "tasks", false, "include task history in the JSON export")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default stdout)")
	rootCmd.AddCommand(exportCmd)
}
