// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/enex2onenote/internal/onenote"
)

var notebooksCmd = &cobra.Command{
	Use:   "notebooks [access-token]",
	Short: "List the OneNote notebooks of the signed-in user",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runNotebooks,
}

func init() {
	rootCmd.AddCommand(notebooksCmd)
}

func runNotebooks(cmd *cobra.Command, args []string) error {
	var tokenArg string
	if len(args) == 1 {
		tokenArg = args[0]
	}

	cfg := loadConfig()
	token, err := resolveToken(tokenArg, cfg)
	if err != nil {
		return err
	}

	client := onenote.NewClient(cmd.Context(), token, cfg.OneNote)
	notebooks, err := client.ListNotebooks(cmd.Context())
	if err != nil {
		return err
	}
	if len(notebooks) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No notebooks.")
		return nil
	}

	rows := make([][]string, 0, len(notebooks))
	for _, nb := range notebooks {
		rows = append(rows, []string{nb.DisplayName, formatTime(nb.CreatedAt), nb.ID})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable(
		[]string{"Name", "Created", "ID"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft},
	))
	return nil
}
