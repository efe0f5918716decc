// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/realprice-etl/internal/fetch"
	"github.com/pdiddy/realprice-etl/internal/merge"
	"github.com/pdiddy/realprice-etl/pkg/types"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch every configured source, merge, and normalize",
	Long: `Fetch retrieves each configured source in order, tags its rows with the
source label and the fetch time, and concatenates them. A source that
cannot be retrieved contributes zero rows and a warning. The merged table
then goes through the normalization stages.

Sources are read in file order from fetch.sources in the config file, or
from --sources. Locations starting with http:// or https:// are fetched as
JSON feeds (after fetch.base_url is prefixed); anything else is read as an
archived CSV snapshot.`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().String("sources", "", "YAML file listing sources (overrides fetch.sources)")
	fetchCmd.Flags().String("base-url", "", "prefix for source locations (overrides fetch.base_url)")
	fetchCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 30s)")
	fetchCmd.Flags().Duration("delay", 0, "delay between consecutive source requests (default 1s)")
	fetchCmd.Flags().Int("concurrency", 0, "sources fetched in parallel (default 1)")
	addOutputFlags(fetchCmd)

	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if path, _ := cmd.Flags().GetString("sources"); path != "" {
		srcs, err := merge.ReadSourcesFile(path)
		if err != nil {
			return err
		}
		cfg.Fetch.Sources = srcs
	}
	if v, _ := cmd.Flags().GetString("base-url"); v != "" {
		cfg.Fetch.BaseURL = v
	}
	if v, _ := cmd.Flags().GetDuration("timeout"); v > 0 {
		cfg.Fetch.Timeout = v
	}
	if v, _ := cmd.Flags().GetDuration("delay"); v > 0 {
		cfg.Fetch.Delay = v
	}
	if v, _ := cmd.Flags().GetInt("concurrency"); v > 0 {
		cfg.Fetch.Concurrency = v
	}

	if len(cfg.Fetch.Sources) == 0 {
		return fmt.Errorf("no sources configured: set fetch.sources in the config file or pass --sources")
	}

	sources := cfg.Fetch.Sources
	if cfg.Fetch.BaseURL != "" {
		sources = merge.BuildSources(cfg.Fetch.BaseURL, sources)
	}

	ctx := cmd.Context()
	w := cmd.OutOrStdout()
	loader := fetch.Dispatch{HTTP: fetch.NewHTTPLoader(cfg.Fetch.HTTPConfig)}
	res, err := merge.Merge(ctx, loader, sources, types.Time(time.Now()), merge.Options{
		Delay:       cfg.Fetch.Delay,
		Concurrency: cfg.Fetch.Concurrency,
		Observer:    &merge.WriterObserver{W: w, Progress: cfg.Fetch.Concurrency < 2},
	})
	if err != nil {
		return err
	}
	if err := res.Validate(); err != nil {
		return err
	}

	if err := normalizeTable(cmd, cfg.Normalize, res.Table, w); err != nil {
		return err
	}
	if err := writeOutputs(ctx, cmd, cfg.Store, res, w); err != nil {
		return err
	}

	if failed := res.Failed(); len(failed) == len(res.Counts) {
		fmt.Fprintln(os.Stderr, "warning: every source failed")
	}
	return nil
}
