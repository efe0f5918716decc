// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/realprice-etl/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List and export saved runs",
	Long: `Runs reads the SQLite snapshot store written by fetch --save and
normalize --save.`,
}

// --- list subcommand ---

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved runs, newest first",
	RunE:  runRunsList,
}

func runRunsList(cmd *cobra.Command, args []string) error {
	s, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	runs, err := s.ListRuns(cmd.Context())
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}
	return formatRuns(w, runs)
}

func formatRuns(w io.Writer, runs []store.Run) error {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs saved.")
		return nil
	}

	fmt.Fprintf(w, "%-36s  %-10s  %-20s  %8s  %s\n", "ID", "Fetched", "Saved", "Rows", "Sources")
	fmt.Fprintln(w, strings.Repeat("-", 100))
	for _, r := range runs {
		failed := 0
		for _, c := range r.Sources {
			if c.Error != "" {
				failed++
			}
		}
		sources := fmt.Sprintf("%d", len(r.Sources))
		if failed > 0 {
			sources = fmt.Sprintf("%d (%d failed)", len(r.Sources), failed)
		}
		fmt.Fprintf(w, "%-36s  %-10s  %-20s  %8d  %s\n",
			r.ID, r.FetchTime, r.CreatedAt.Format("2006-01-02 15:04:05"), r.TotalRows, sources)
	}
	fmt.Fprintf(w, "\n%d runs\n", len(runs))
	return nil
}

// --- export subcommand ---

var runsExportCmd = &cobra.Command{
	Use:   "export <run-id>",
	Short: "Export a saved run to YAML or JSON",
	Long: `Export writes a saved run, with its per-source counts, column order and
rows, to stdout or to --out.`,
	Args: cobra.ExactArgs(1),
	RunE: runRunsExport,
}

func runRunsExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	out, _ := cmd.Flags().GetString("out")

	s, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	w := cmd.OutOrStdout()
	if out != "" {
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("creating %s: %w", out, err)
		}
		defer f.Close()
		w = f
	}

	switch format {
	case "yaml", "":
		err = s.ExportYAML(cmd.Context(), args[0], w)
	case "json":
		err = s.ExportJSON(cmd.Context(), args[0], w)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	if err != nil {
		return err
	}
	if out != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Exported run %s to %s\n", args[0], out)
	}
	return nil
}

// --- shared helpers ---

func openStore(cmd *cobra.Command) (*store.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if db, _ := cmd.Flags().GetString("db"); db != "" {
		cfg.Store.Path = db
	}
	return store.Open(cfg.Store)
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	runsCmd.PersistentFlags().String("db", "", "snapshot database path (default from config, data/realprice.db)")

	runsListCmd.Flags().Bool("json", false, "output runs as JSON")

	runsExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	runsExportCmd.Flags().String("out", "", "write the export to this file instead of stdout")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsExportCmd)

	rootCmd.AddCommand(runsCmd)
}
