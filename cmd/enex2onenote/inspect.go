// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/enex2onenote/internal/importer"
	"github.com/pdiddy/enex2onenote/pkg/types"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <export.enex>",
	Short: "Print the pages an export would become, without importing",
	Long: `Inspect parses an export, normalizes titles, rewrites embedded images, and
prints the resulting page requests as YAML. No access token is needed and
nothing is sent to OneNote.`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().String("layout", "", "section layout to preview (default: configured layout)")
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	path := args[0]
	if err := checkExport(path); err != nil {
		return err
	}

	cfg := loadConfig()
	cfg.Import.DryRun = true
	if layout, _ := cmd.Flags().GetString("layout"); layout != "" {
		cfg.Import.Layout = types.Layout(layout)
	}

	im := &importer.Importer{
		Logger: logger.With("component", "importer"),
		Out:    os.Stdout,
	}
	sum, err := im.Run(cmd.Context(), path, cfg.Import)
	if err != nil {
		return fmt.Errorf("inspecting %s: %w", path, err)
	}
	fmt.Fprintln(os.Stderr, sum)
	return nil
}
