// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the enex2onenote CLI.
//
// The root command imports one Evernote export into a new OneNote notebook.
// Subcommands inspect an export offline, list notebooks, and show the local
// import history.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/enex2onenote/internal/secrets"
	"github.com/pdiddy/enex2onenote/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// Exit codes.
const (
	exitFailure       = 1
	exitNoCredential  = 2
	exitInvalidExport = 3
)

// loadedSecrets holds credentials loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// exitError carries the process exit code for an error.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

func exitCode(err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitFailure
}

var errNoCredential = errors.New("no access token: pass it as the first argument, set ENEX2ONENOTE_ACCESS_TOKEN, or write .secrets/" + secrets.AccessTokenKey)

// rootCmd imports an export when run with arguments.
var rootCmd = &cobra.Command{
	Use:   "enex2onenote [access-token] <export.enex>",
	Short: "Import an Evernote export into OneNote",
	Long: `enex2onenote reads an Evernote export (.enex), normalizes note titles,
rewrites embedded images, and recreates the notes as pages in a new OneNote
notebook named after the export.

The access token is a Microsoft Graph token with Notes.ReadWrite scope. It
may be given as the first argument, through ENEX2ONENOTE_ACCESS_TOKEN, as
access_token in the config file, or in .secrets/onenote-access-token.

Exit status is 0 on success, 1 on a processing failure, 2 when no access
token is available, and 3 when the export path is missing or invalid.`,
	Args:          cobra.MaximumNArgs(2),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		setupLogging(os.Stderr, verbose)

		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			logger.Debug("loaded secrets", "keys", keys)
		}
		return nil
	},
	RunE: runImport,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./enex2onenote.yaml or ~/.config/enex2onenote/enex2onenote.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log debug diagnostics to stderr")
	rootCmd.PersistentFlags().String("ledger", "", "import history database (empty disables; default ~/.config/enex2onenote/imports.db)")
	rootCmd.PersistentFlags().Duration("timeout", 0, "HTTP request timeout (default 60s)")

	rootCmd.Flags().String("notebook", "", "notebook name (default: export file name)")
	rootCmd.Flags().String("section", "", "section name for the single-section layout (default: export file name)")
	rootCmd.Flags().String("layout", string(types.LayoutSectionPerNote), "section layout: section-per-note or single-section")
	rootCmd.Flags().Bool("dry-run", false, "print page requests as YAML instead of calling OneNote")

	viper.BindPFlag("ledger.path", rootCmd.PersistentFlags().Lookup("ledger"))
	viper.BindPFlag("onenote.timeout", rootCmd.PersistentFlags().Lookup("timeout"))
	viper.BindPFlag("import.notebook", rootCmd.Flags().Lookup("notebook"))
	viper.BindPFlag("import.section", rootCmd.Flags().Lookup("section"))
	viper.BindPFlag("import.layout", rootCmd.Flags().Lookup("layout"))
	viper.BindPFlag("import.dry_run", rootCmd.Flags().Lookup("dry-run"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	home, homeErr := os.UserHomeDir()
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("enex2onenote")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		if homeErr == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "enex2onenote"))
		}
	}

	if homeErr == nil {
		viper.SetDefault("ledger.path", filepath.Join(home, ".config", "enex2onenote", "imports.db"))
	}

	viper.SetEnvPrefix("ENEX2ONENOTE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig assembles the effective configuration from flags, environment,
// and config file.
func loadConfig() types.Config {
	return types.Config{
		AccessToken: viper.GetString("access_token"),
		OneNote: types.OneNoteConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("onenote.timeout"),
				UserAgent: "enex2onenote/" + version,
			},
			BaseURL: viper.GetString("onenote.base_url"),
		},
		Import: types.ImportConfig{
			Notebook: viper.GetString("import.notebook"),
			Section:  viper.GetString("import.section"),
			Layout:   types.Layout(viper.GetString("import.layout")),
			DryRun:   viper.GetBool("import.dry_run"),
			TempDir:  viper.GetString("import.temp_dir"),
		},
		Ledger: types.LedgerConfig{
			Path: viper.GetString("ledger.path"),
		},
	}
}

// resolveToken picks the access token from the argument, then the
// configuration, then .secrets/.
func resolveToken(arg string, cfg types.Config) (string, error) {
	for _, v := range []string{arg, cfg.AccessToken, loadedSecrets[secrets.AccessTokenKey]} {
		if v = strings.TrimSpace(v); v != "" {
			return v, nil
		}
	}
	return "", &exitError{code: exitNoCredential, err: errNoCredential}
}

// checkExport verifies that path names a readable regular file.
func checkExport(path string) error {
	if strings.TrimSpace(path) == "" {
		return &exitError{code: exitInvalidExport, err: errors.New("no export file given")}
	}
	info, err := os.Stat(path)
	if err != nil {
		return &exitError{code: exitInvalidExport, err: fmt.Errorf("export %s: %w", path, err)}
	}
	if !info.Mode().IsRegular() {
		return &exitError{code: exitInvalidExport, err: fmt.Errorf("export %s is not a regular file", path)}
	}
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}
