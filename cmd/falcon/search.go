package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sandevgo/falcon/internal/config"
	"github.com/sandevgo/falcon/internal/core"
	"github.com/sandevgo/falcon/internal/service/memory"
	"github.com/sandevgo/falcon/internal/storage/sqlite"
)

var searchLimit int

var searchCmd = &cobra.Command{
	Use:   "search <keyword>",
	Short: "Search stored conversations and related memories",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()

		if err := initEnv(ctx, config.GetRuntimePath()); err != nil {
			return err
		}
		appCfg := config.NewAppConfig(ctx)

		store, err := sqlite.Open(ctx, appCfg.GetDatabasePath())
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer store.Close()

		return runSearch(ctx, store, args[0], searchLimit, os.Stdout)
	},
}

// runSearch prints turns matching the keyword, then any long-term memories
// whose tags overlap the tags derived from the keyword itself.
func runSearch(ctx context.Context, store *sqlite.Store, keyword string, limit int, out io.Writer) error {
	turns, err := sqlite.NewTurnsRepo(store).SearchTurns(ctx, keyword, limit)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	var facts []core.Fact
	tags := memory.NewManager(memory.NewWorkingMemory()).ExtractTags(keyword)
	if len(tags) > 0 {
		facts, err = sqlite.NewFactsRepo(store).RelevantFacts(ctx, tags, core.ImportanceLow, 10)
		if err != nil {
			return fmt.Errorf("search memories: %w", err)
		}
	}

	if len(turns) == 0 && len(facts) == 0 {
		fmt.Fprintln(out, "no matches")
		return nil
	}

	if len(turns) > 0 {
		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSESSION\tWHEN\tUSER\tASSISTANT")
		for _, t := range turns {
			assistant := ""
			if t.AssistantText != nil {
				assistant = truncate(*t.AssistantText, 60)
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
				t.ID, t.SessionID, t.CreatedAt.Format("2006-01-02 15:04"),
				truncate(t.UserText, 60), assistant)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	if len(facts) > 0 {
		fmt.Fprintln(out, "\nRelated memories:")
		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "KEY\tIMPORTANCE\tCONTENT")
		for _, f := range facts {
			fmt.Fprintf(w, "%s\t%s\t%s\n", f.Key, f.Importance, truncate(f.Content, 60))
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 20, "maximum number of matches")
	rootCmd.AddCommand(searchCmd)
}
