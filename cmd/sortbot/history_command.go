package main

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"sortbot/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var filter history.Filter

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded organize outcomes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter.Status = strings.ToLower(strings.TrimSpace(filter.Status))
			switch filter.Status {
			case "", "moved", "skipped", "failed":
			default:
				return fmt.Errorf("invalid --status %q (expected moved, skipped, or failed)", filter.Status)
			}
			if cfg, err := ctx.ensureConfig(); err == nil && !cfg.History.Enabled {
				fmt.Fprintln(cmd.ErrOrStderr(), "note: history is disabled; new runs are not recorded")
			}
			return ctx.withHistory(func(store *history.Store) error {
				entries, err := store.List(cmd.Context(), filter)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(entries) == 0 {
					fmt.Fprintln(out, "No recorded outcomes")
					return nil
				}
				fmt.Fprintln(out, renderHistory(entries))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&filter.Limit, "limit", "n", history.DefaultListLimit, "Maximum number of entries to show")
	cmd.Flags().StringVar(&filter.Status, "status", "", "Only show entries with this status (moved, skipped, failed)")
	cmd.Flags().StringVar(&filter.RunID, "run", "", "Only show entries from this run id")

	cmd.AddCommand(newHistoryStatsCommand(ctx))
	cmd.AddCommand(newHistoryPruneCommand(ctx))
	return cmd
}

func renderHistory(entries []history.Entry) string {
	columns := []tableColumn{
		{header: "When"},
		{header: "Run"},
		{header: "Status"},
		{header: "File", path: true},
		{header: "Destination / Detail", path: true},
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		detail := e.DestinationPath
		if detail == "" {
			detail = e.Message
		}
		rows = append(rows, []string{
			e.RecordedAt.Local().Format("2006-01-02 15:04:05"),
			shortRunID(e.RunID),
			e.Status,
			filepath.Base(e.SourcePath),
			detail,
		})
	}
	return renderTable(columns, rows, nil)
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	if id == "" {
		return "-"
	}
	return id
}

func newHistoryStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count recorded outcomes by status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(store *history.Store) error {
				counts, err := store.CountByStatus(cmd.Context())
				if err != nil {
					return err
				}
				statuses := make([]string, 0, len(counts))
				total := 0
				for status, n := range counts {
					statuses = append(statuses, status)
					total += n
				}
				sort.Strings(statuses)
				rows := make([][]string, 0, len(statuses))
				for _, status := range statuses {
					rows = append(rows, []string{status, strconv.Itoa(counts[status])})
				}
				columns := []tableColumn{{header: "Status"}, {header: "Count", align: alignRight}}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(columns, rows, []string{"total", strconv.Itoa(total)}))
				return nil
			})
		},
	}
}

func newHistoryPruneCommand(ctx *commandContext) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete recorded outcomes older than a number of days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if days < 0 {
				return fmt.Errorf("invalid --older-than %d (must be >= 0)", days)
			}
			cutoff := time.Now().AddDate(0, 0, -days)
			return ctx.withHistory(func(store *history.Store) error {
				removed, err := store.Prune(cmd.Context(), cutoff)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d entries recorded before %s\n", removed, cutoff.Format("2006-01-02"))
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&days, "older-than", 90, "Age in days of the entries to remove")
	return cmd
}
