// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the realprice CLI. It fetches the
// per-city pre-sale feeds, merges and normalizes them, and keeps snapshots
// of normalized runs.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the realprice CLI.
var rootCmd = &cobra.Command{
	Use:   "realprice",
	Short: "Merge and normalize real-estate registry feeds",
	Long: `realprice retrieves per-city pre-sale project records, merges them into one
table tagged with the city and the fetch time, and normalizes the result:
region labels from addresses, filing identifiers from free text, developer
names from identifier lists, and ROC calendar dates to Gregorian dates.

Normalized runs can be written to CSV and saved to a SQLite snapshot store
for later listing and export.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./realprice.yaml or ~/.config/realprice/realprice.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("realprice")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "realprice"))
		}
	}

	viper.SetEnvPrefix("REALPRICE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
