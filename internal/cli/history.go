package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/opencode-ai/querycat/internal/db"
	"github.com/spf13/cobra"
)

var (
	historyTemplate  string
	historySince     time.Duration
	historyLimit     int
	historyCursor    string
	historyOldest    bool
	historyOlderThan time.Duration
)

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyPruneCmd)

	historyListCmd.Flags().StringVar(&historyTemplate, "template", "", "filter by template name")
	historyListCmd.Flags().DurationVar(&historySince, "since", 0, "only resolutions newer than this (e.g. 24h)")
	historyListCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum number of entries")
	historyListCmd.Flags().StringVar(&historyCursor, "cursor", "", "continue after this resolution ID")
	historyListCmd.Flags().BoolVar(&historyOldest, "oldest", false, "list oldest first")

	historyPruneCmd.Flags().DurationVar(&historyOlderThan, "older-than", 0, "delete entries older than this (default: history.retention)")
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect recorded resolutions",
	Long:  "Inspect and prune the resolutions recorded with --record or history.enabled.",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded resolutions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)

		database, err := openDatabase(ctx)
		if err != nil {
			return err
		}
		defer database.Close()

		query := db.ResolutionQuery{
			Template: historyTemplate,
			Cursor:   historyCursor,
			Limit:    historyLimit,
			Newest:   !historyOldest,
		}
		if historySince > 0 {
			since := time.Now().Add(-historySince)
			query.Since = &since
		}

		page, err := db.NewResolutionRepository(database).Query(ctx, query)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if structuredOutput() {
			if IsJSONLOutput() {
				return WriteOutput(out, page.Resolutions)
			}
			return WriteOutput(out, map[string]any{
				"resolutions": page.Resolutions,
				"next_cursor": page.NextCursor,
			})
		}

		if len(page.Resolutions) == 0 {
			fmt.Fprintln(out, "No resolutions recorded.")
			return nil
		}

		rows := make([][]string, 0, len(page.Resolutions))
		for _, res := range page.Resolutions {
			rows = append(rows, []string{
				res.ID,
				res.Timestamp.Local().Format("2006-01-02 15:04:05"),
				res.Template,
				res.Source,
			})
		}
		if err := writeTable(out, []string{"ID", "TIME", "TEMPLATE", "SOURCE"}, rows); err != nil {
			return err
		}
		if page.NextCursor != "" {
			fmt.Fprintf(out, "\nMore entries: --cursor %s\n", page.NextCursor)
		}
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a recorded resolution",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)

		database, err := openDatabase(ctx)
		if err != nil {
			return err
		}
		defer database.Close()

		res, err := db.NewResolutionRepository(database).Get(ctx, args[0])
		if err != nil {
			if errors.Is(err, db.ErrResolutionNotFound) {
				return fmt.Errorf("resolution %q not found", args[0])
			}
			return err
		}

		out := cmd.OutOrStdout()
		if structuredOutput() {
			return WriteOutput(out, res)
		}

		fmt.Fprintf(out, "ID:        %s\n", res.ID)
		fmt.Fprintf(out, "Time:      %s\n", res.Timestamp.Format(time.RFC3339))
		fmt.Fprintf(out, "Template:  %s\n", res.Template)
		if res.TemplateSource != "" {
			fmt.Fprintf(out, "File:      %s\n", res.TemplateSource)
		}
		fmt.Fprintf(out, "Source:    %s\n", res.Source)

		if len(res.Parameters) > 0 {
			names := make([]string, 0, len(res.Parameters))
			for name := range res.Parameters {
				names = append(names, name)
			}
			sort.Strings(names)
			fmt.Fprintln(out, "Parameters:")
			for _, name := range names {
				fmt.Fprintf(out, "  %s = %q\n", name, res.Parameters[name])
			}
		}

		fmt.Fprintln(out, "Query:")
		fmt.Fprintln(out, res.Query)
		return nil
	},
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete old resolutions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)

		olderThan := historyOlderThan
		if olderThan <= 0 {
			olderThan = GetConfig().History.Retention
		}
		if olderThan <= 0 {
			return errors.New("no retention configured; pass --older-than")
		}

		database, err := openDatabase(ctx)
		if err != nil {
			return err
		}
		defer database.Close()

		before := time.Now().Add(-olderThan)
		deleted, err := db.NewResolutionRepository(database).Prune(ctx, before)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if structuredOutput() {
			return WriteOutput(out, map[string]any{
				"deleted": deleted,
				"before":  before.UTC().Format(time.RFC3339),
			})
		}
		fmt.Fprintf(out, "Deleted %d resolutions older than %s.\n", deleted, olderThan)
		return nil
	},
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
