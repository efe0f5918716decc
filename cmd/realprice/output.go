// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/pdiddy/realprice-etl/internal/fetch"
	"github.com/pdiddy/realprice-etl/internal/merge"
	"github.com/pdiddy/realprice-etl/internal/normalize"
	"github.com/pdiddy/realprice-etl/internal/store"
	"github.com/pdiddy/realprice-etl/pkg/types"
)

// addOutputFlags registers the flags shared by commands that produce a
// normalized table.
func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().String("out", "", "write the normalized table to this CSV file")
	cmd.Flags().Bool("save", false, "save the normalized run to the snapshot store")
	cmd.Flags().String("db", "", "snapshot database path (default from config, data/realprice.db)")
	cmd.Flags().Bool("strict", false, "fail when a configured stage's input column is missing instead of skipping the stage")
}

// normalizeTable runs the configured stages over t and prints their report.
func normalizeTable(cmd *cobra.Command, cfg types.NormalizeConfig, t *types.Table, w io.Writer) error {
	p := normalize.FromConfig(cfg)
	if strict, _ := cmd.Flags().GetBool("strict"); !strict {
		var skipped []string
		p, skipped = p.Applicable(t.Columns())
		for _, name := range skipped {
			fmt.Fprintf(w, "warning: skipping stage %s (input column missing)\n", name)
		}
	}

	rep, err := p.Run(t)
	if err != nil {
		return err
	}
	fmt.Fprintln(w)
	rep.Write(w)
	return nil
}

// writeOutputs writes the CSV and saves the run as the flags ask.
func writeOutputs(ctx context.Context, cmd *cobra.Command, cfg types.StoreConfig, res merge.Result, w io.Writer) error {
	if out, _ := cmd.Flags().GetString("out"); out != "" {
		if err := fetch.WriteCSVFile(out, res.Table); err != nil {
			return err
		}
		fmt.Fprintf(w, "wrote %d rows to %s\n", res.Table.Len(), out)
	}

	save, _ := cmd.Flags().GetBool("save")
	if !save {
		return nil
	}
	if db, _ := cmd.Flags().GetString("db"); db != "" {
		cfg.Path = db
	}
	s, err := store.Open(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	id, err := s.SaveRun(ctx, res.Table, res)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "saved run %s to %s\n", id, cfg.Path)
	return nil
}
