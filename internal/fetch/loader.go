// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/pdiddy/realprice-etl/pkg/types"
)

// Dispatch loads http and https locations through HTTP and anything else
// as an archived CSV file, so one source list can mix live feeds with
// snapshots on disk.
type Dispatch struct {
	HTTP *HTTPLoader
}

// Load picks the loader for src.Location.
func (d Dispatch) Load(ctx context.Context, src types.Source) (*types.Table, error) {
	if IsURL(src.Location) {
		return d.HTTP.Load(ctx, src)
	}
	return CSVLoader{}.Load(ctx, src)
}

// IsURL reports whether loc is fetched over HTTP.
func IsURL(loc string) bool {
	return strings.HasPrefix(loc, "http://") || strings.HasPrefix(loc, "https://")
}

// IsArchivePath reports whether loc names a CSV snapshot on disk rather
// than a fragment to append to a base URL.
func IsArchivePath(loc string) bool {
	return filepath.IsAbs(loc) ||
		strings.HasPrefix(loc, "./") || strings.HasPrefix(loc, "../") ||
		strings.EqualFold(filepath.Ext(loc), ".csv")
}
