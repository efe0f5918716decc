// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/realprice-etl/internal/fetch"
	"github.com/pdiddy/realprice-etl/internal/merge"
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize <file.csv>",
	Short: "Normalize an archived merged snapshot",
	Long: `Normalize reads a merged table previously written to CSV and runs the
normalization stages over it. Stages whose input columns are absent from
the snapshot are skipped with a warning unless --strict is set. A missing
or unreadable file yields an empty table and a warning.`,
	Args: cobra.ExactArgs(1),
	RunE: runNormalize,
}

func init() {
	addOutputFlags(normalizeCmd)

	rootCmd.AddCommand(normalizeCmd)
}

func runNormalize(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	t := fetch.LoadArchive(args[0], w)

	res := merge.Result{Table: t, Total: t.Len()}
	if t.Len() > 0 {
		if res, err = merge.CountByLabel(t); err != nil {
			return fmt.Errorf("%s is not a merged snapshot: %w", args[0], err)
		}
	}

	if err := normalizeTable(cmd, cfg.Normalize, t, w); err != nil {
		return err
	}
	return writeOutputs(cmd.Context(), cmd, cfg.Store, res, w)
}
