// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pdiddy/enex2onenote/internal/ledger"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded import runs, newest first",
	Long: `History reads the local import ledger and lists past runs with the
notebook each created and how many pages were published. With --run it
lists the pages of one run.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().Int("limit", 20, "maximum number of runs to list")
	historyCmd.Flags().String("run", "", "list the pages of this run ID")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	if cfg.Ledger.Path == "" {
		return errors.New("import history is disabled (no ledger path)")
	}

	l, err := ledger.Open(cfg.Ledger)
	if err != nil {
		return err
	}
	defer l.Close()

	if runID, _ := cmd.Flags().GetString("run"); runID != "" {
		return printRunPages(cmd, l, runID)
	}

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := l.Runs(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No imports recorded.")
		return nil
	}

	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			formatTime(r.StartedAt),
			r.Export,
			r.Notebook,
			r.Status,
			strconv.Itoa(r.Pages),
			r.ID,
			r.Error,
		})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable(
		[]string{"Started", "Export", "Notebook", "Status", "Pages", "Run", "Error"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
	))
	return nil
}

func printRunPages(cmd *cobra.Command, l *ledger.Ledger, runID string) error {
	pages, err := l.Pages(cmd.Context(), runID)
	if err != nil {
		return err
	}
	if len(pages) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No pages recorded for run %s.\n", runID)
		return nil
	}

	rows := make([][]string, 0, len(pages))
	for _, p := range pages {
		rows = append(rows, []string{p.Title, strconv.Itoa(p.Attachments), p.PageID, p.WebURL})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable(
		[]string{"Title", "Attachments", "Page", "Link"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft},
	))
	return nil
}
