// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package region derives an administrative-region label from a project
// address.
package region

import "github.com/pdiddy/realprice-etl/pkg/types"

// Glyph marks a metropolitan district in an address.
const Glyph = '區'

// Parse returns the region label for an address cell. The rules are
// positional and applied in order:
//
//  1. a null, non-string, or empty cell has no label;
//  2. Glyph as the 2nd character: the first 2 characters ("東區...");
//  3. Glyph as the 3rd character: the first 3 characters ("中正區...");
//  4. otherwise the first 3 characters, which covers townships and
//     county-level cities ("竹北市...");
//  5. an address shorter than 3 characters is returned unchanged.
//
// Only positions 1 and 2 are inspected: a Glyph later in the address does
// not affect the label.
func Parse(v types.Value) (string, bool) {
	addr, ok := v.AsString()
	if !ok || addr == "" {
		return "", false
	}
	r := []rune(addr)
	switch {
	case len(r) >= 2 && r[1] == Glyph:
		return string(r[:2]), true
	case len(r) >= 3:
		// Covers both a Glyph at r[2] and a marker-less prefix.
		return string(r[:3]), true
	default:
		return addr, true
	}
}

// Label is Parse as a cell: a string cell, or null.
func Label(v types.Value) types.Value {
	label, ok := Parse(v)
	if !ok {
		return types.Null()
	}
	return types.String(label)
}
