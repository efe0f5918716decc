//go:build mage

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Fetch builds the CLI and runs a full fetch, writing the normalized table
// to output/ and saving the run to the snapshot store.
func Fetch() error {
	mg.Deps(Init, Build)
	out := filepath.Join("output", "realprice-"+time.Now().Format("20060102")+".csv")
	return sh.RunV(filepath.Join(binDir, binName), "fetch", "--out", out, "--save")
}

// Normalize re-runs normalization over every archived snapshot in
// data/archive, writing each result next to the fetch outputs.
func Normalize() error {
	mg.Deps(Init, Build)
	files, err := filepath.Glob(filepath.Join("data", "archive", "*.csv"))
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "no archived snapshots in data/archive")
		return nil
	}
	for _, f := range files {
		out := filepath.Join("output", "normalized-"+filepath.Base(f))
		if err := sh.RunV(filepath.Join(binDir, binName), "normalize", f, "--out", out); err != nil {
			return fmt.Errorf("normalizing %s: %w", f, err)
		}
	}
	return nil
}
