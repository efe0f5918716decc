// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/realprice-etl/internal/merge"
	"github.com/pdiddy/realprice-etl/internal/store"
	"github.com/pdiddy/realprice-etl/pkg/types"
)

const (
	defaultDelay       = 1 * time.Second
	defaultConcurrency = 1
)

// sliceKeys are list settings that replace the defaults wholesale rather
// than element by element.
var sliceKeys = map[string]func(*types.NormalizeConfig){
	"normalize.sale_periods":      func(c *types.NormalizeConfig) { c.SalePeriods = nil },
	"normalize.roc_columns":       func(c *types.NormalizeConfig) { c.ROCColumns = nil },
	"normalize.gregorian_columns": func(c *types.NormalizeConfig) { c.GregorianColumns = nil },
	"normalize.roc_slash_columns": func(c *types.NormalizeConfig) { c.ROCSlashColumns = nil },
}

// loadConfig decodes the config file and environment over the defaults.
// Sources come from a YAML walk of the config file, since viper does not
// keep mapping order.
func loadConfig() (types.PipelineConfig, error) {
	cfg := types.PipelineConfig{
		Fetch: types.FetchConfig{
			Delay:       defaultDelay,
			Concurrency: defaultConcurrency,
		},
		Normalize: types.DefaultNormalizeConfig(),
		Store:     types.StoreConfig{Path: store.DefaultPath},
	}

	for key, reset := range sliceKeys {
		if viper.IsSet(key) {
			reset(&cfg.Normalize)
		}
	}
	for key, dst := range map[string]any{
		"fetch":     &cfg.Fetch,
		"normalize": &cfg.Normalize,
		"store":     &cfg.Store,
	} {
		if !viper.IsSet(key) {
			continue
		}
		if err := viper.UnmarshalKey(key, dst); err != nil {
			return cfg, fmt.Errorf("reading %s config: %w", key, err)
		}
	}

	// Environment-only overrides are invisible to UnmarshalKey.
	if v := viper.GetString("fetch.base_url"); v != "" {
		cfg.Fetch.BaseURL = v
	}
	if v := viper.GetString("store.path"); v != "" {
		cfg.Store.Path = v
	}

	if path := viper.ConfigFileUsed(); path != "" {
		srcs, err := merge.ReadSourcesFile(path)
		if err != nil {
			return cfg, err
		}
		cfg.Fetch.Sources = srcs
	}
	return cfg, nil
}
