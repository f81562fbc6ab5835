// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
)

// logger is the process-wide diagnostic logger, replaced in PersistentPreRunE.
var logger = slog.New(slog.DiscardHandler)

// setupLogging installs a text handler when w is a terminal and a JSON
// handler otherwise. Warnings and errors are always shown; verbose adds
// info and debug records.
func setupLogging(w io.Writer, verbose bool) {
	logger = newLogger(w, verbose)
	slog.SetDefault(logger)
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelWarn}
	if verbose {
		opts.Level = slog.LevelDebug
	}
	if isTerminal(w) {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
