// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rocdate

import (
	"errors"
	"fmt"

	"github.com/pdiddy/realprice-etl/pkg/types"
)

// ErrOverlappingColumns is returned when a column is listed under more than
// one format class.
var ErrOverlappingColumns = errors.New("column listed under more than one date format")

// ColumnFormats assigns table columns to date format classes. The sets
// must be disjoint.
type ColumnFormats struct {
	ROCInteger       []string
	GregorianInteger []string
	ROCSlash         []string
}

// classes returns the column sets paired with their class, in the order
// they are converted.
func (f ColumnFormats) classes() []struct {
	class   FormatClass
	columns []string
} {
	return []struct {
		class   FormatClass
		columns []string
	}{
		{ROCInteger, f.ROCInteger},
		{GregorianInteger, f.GregorianInteger},
		{ROCSlash, f.ROCSlash},
	}
}

// Columns returns every listed column in conversion order.
func (f ColumnFormats) Columns() []string {
	var out []string
	for _, c := range f.classes() {
		out = append(out, c.columns...)
	}
	return out
}

// IsEmpty reports whether no column is listed.
func (f ColumnFormats) IsEmpty() bool {
	return len(f.ROCInteger) == 0 && len(f.GregorianInteger) == 0 && len(f.ROCSlash) == 0
}

// Validate checks that the sets are disjoint.
func (f ColumnFormats) Validate() error {
	seen := make(map[string]FormatClass)
	for _, c := range f.classes() {
		for _, col := range c.columns {
			if prev, ok := seen[col]; ok {
				return fmt.Errorf("%w: %q is %s and %s", ErrOverlappingColumns, col, prev, c.class)
			}
			seen[col] = c.class
		}
	}
	return nil
}

// ConvertColumns rewrites each listed column in place into date cells.
// Unlisted columns are untouched. The formats and the presence of every
// listed column are checked before anything is rewritten.
func ConvertColumns(t *types.Table, f ColumnFormats) error {
	if err := f.Validate(); err != nil {
		return err
	}
	if err := t.RequireColumns(f.Columns()...); err != nil {
		return fmt.Errorf("converting dates: %w", err)
	}
	for _, c := range f.classes() {
		class := c.class
		for _, col := range c.columns {
			if err := t.MapColumn(col, func(v types.Value) types.Value {
				return Normalize(v, class).Value()
			}); err != nil {
				return err
			}
		}
	}
	return nil
}
