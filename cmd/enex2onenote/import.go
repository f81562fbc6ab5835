// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/enex2onenote/internal/importer"
	"github.com/pdiddy/enex2onenote/internal/ledger"
	"github.com/pdiddy/enex2onenote/internal/onenote"
	"github.com/pdiddy/enex2onenote/pkg/types"
)

func runImport(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	tokenArg, path := splitArgs(args, cfg)
	im := &importer.Importer{
		Logger: logger.With("component", "importer"),
		Out:    os.Stdout,
	}

	if !cfg.Import.DryRun {
		token, err := resolveToken(tokenArg, cfg)
		if err != nil {
			return err
		}
		if err := checkExport(path); err != nil {
			return err
		}
		im.Publisher = onenote.NewClient(cmd.Context(), token, cfg.OneNote)

		rec, closeRec := openRecorder(cfg.Ledger)
		defer closeRec()
		im.Recorder = rec
	} else if err := checkExport(path); err != nil {
		return err
	}

	sum, err := im.Run(cmd.Context(), path, cfg.Import)
	if err != nil {
		if sum.Pages > 0 {
			fmt.Fprintf(os.Stderr, "%s\n", sum)
		}
		return fmt.Errorf("importing %s: %w", path, err)
	}
	if sum.DryRun {
		fmt.Fprintln(os.Stderr, sum)
	}
	return nil
}

// splitArgs assigns the positional arguments. A lone argument is the export
// path, unless it is not a file and no other token source is configured; then
// it is the token and the export path is missing.
func splitArgs(args []string, cfg types.Config) (tokenArg, path string) {
	switch len(args) {
	case 2:
		return args[0], args[1]
	case 1:
		if _, err := resolveToken("", cfg); err != nil && !isFile(args[0]) {
			return args[0], ""
		}
		return "", args[0]
	}
	return "", ""
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// openRecorder opens the ledger, or returns a no-op recorder when the ledger
// is disabled or cannot be opened.
func openRecorder(cfg types.LedgerConfig) (importer.Recorder, func()) {
	if cfg.Path == "" {
		return ledger.Nop{}, func() {}
	}
	l, err := ledger.Open(cfg)
	if err != nil {
		logger.Warn("import history disabled", "path", cfg.Path, "error", err)
		return ledger.Nop{}, func() {}
	}
	return l, func() { l.Close() }
}
