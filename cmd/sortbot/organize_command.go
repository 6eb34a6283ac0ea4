package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"sortbot/internal/mover"
	"sortbot/internal/organizer"
	"sortbot/internal/session"
)

func newOrganizeCommand(ctx *commandContext) *cobra.Command {
	var rootPath string
	var quiet bool

	cmd := &cobra.Command{
		Use:   "organize",
		Short: "Organize every file currently in the root",
		Long: "Move each regular file directly inside the root into <Category>/<YYYY>/<Mon>/.\n" +
			"Per-file failures are reported in the summary and do not fail the command.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := ctx.openSession(cmd, session.Options{Root: rootPath})
			if err != nil {
				return err
			}
			defer sess.Close()

			summary, err := sess.OrganizeAll(cmd.Context())
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), sess.Root, summary, quiet)
			return nil
		},
	}

	cmd.Flags().StringVarP(&rootPath, "path", "p", "", "Directory to organize (defaults to paths.root)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Print only the summary line")
	return cmd
}

func printSummary(out io.Writer, root string, summary organizer.Summary, quiet bool) {
	moved, skipped, failed := summary.Counts()
	fmt.Fprintf(out, "Organized %s: %d moved, %d skipped, %d failed\n", root, moved, skipped, failed)
	if quiet || len(summary.Results) == 0 {
		return
	}

	columns := []tableColumn{
		{header: "Status"},
		{header: "File", path: true},
		{header: "Category"},
		{header: "Destination / Reason", path: true},
		{header: "Attempts", align: alignRight},
	}
	rows := make([][]string, 0, len(summary.Results))
	for _, r := range summary.Results {
		rows = append(rows, []string{
			r.Outcome.Status.String(),
			filepath.Base(r.SourcePath),
			r.Category,
			outcomeDetail(root, r.Outcome),
			attemptsLabel(r.Outcome.Attempts),
		})
	}
	fmt.Fprintln(out, renderTable(columns, rows, nil))
}

func outcomeDetail(root string, out mover.Outcome) string {
	if out.Status == mover.StatusMoved {
		if rel, err := filepath.Rel(root, out.Path); err == nil {
			return rel
		}
		return out.Path
	}
	detail := out.Reason
	if out.Kind != mover.KindNone && string(out.Kind) != out.Reason {
		detail = fmt.Sprintf("%s (%s)", out.Reason, out.Kind)
	}
	return detail
}

func attemptsLabel(attempts int) string {
	if attempts <= 0 {
		return "-"
	}
	return strconv.Itoa(attempts)
}
