package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newCategoriesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "Show the active category rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			categorizer, err := cfg.Categorizer()
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(categorizer.Labels())+1)
			for _, label := range categorizer.Labels() {
				exts := categorizer.Extensions(label)
				for i := range exts {
					exts[i] = "." + exts[i]
				}
				listed := strings.Join(exts, " ")
				if listed == "" {
					listed = "(unmatched files)"
				}
				rows = append(rows, []string{label, listed})
			}
			columns := []tableColumn{{header: "Category"}, {header: "Extensions", path: true}}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(columns, rows, nil))
			fmt.Fprintf(out, "Default category: %s\n", categorizer.Default())
			fmt.Fprintf(out, "Custom rules: %s\n", yesNo(len(cfg.Categories.Rules) > 0))
			return nil
		},
	}
}
