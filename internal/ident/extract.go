// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ident extracts filing identifiers from free text and resolves an
// identifier to its owning company through an identifier list.
package ident

import (
	"strings"
	"unicode"

	"github.com/pdiddy/realprice-etl/pkg/types"
)

// Separator joins identifiers in the canonical list form.
const Separator = ", "

const (
	minIDLen = 10
	maxIDLen = 16
)

// ExtractIDs returns every canonical identifier in v joined by Separator,
// in order of appearance and keeping duplicates. A null v yields "".
// Running ExtractIDs on its own output returns the same string.
func ExtractIDs(v types.Value) string {
	if v.IsNull() {
		return ""
	}
	return strings.Join(FindIDs(v.String()), Separator)
}

// FindIDs returns the canonical identifiers in text. An identifier is a
// whole word of 10 to 16 characters drawn from A-Z and 0-9. Word
// boundaries follow Unicode word characters, so an identifier glued to a
// CJK character is not a separate word.
func FindIDs(text string) []string {
	var ids []string
	for _, w := range strings.FieldsFunc(text, isNotWordRune) {
		if isCanonicalID(w) {
			ids = append(ids, w)
		}
	}
	return ids
}

func isNotWordRune(r rune) bool {
	return !(r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r))
}

func isCanonicalID(w string) bool {
	if len(w) < minIDLen || len(w) > maxIDLen {
		return false
	}
	for i := 0; i < len(w); i++ {
		c := w[i]
		if !(c >= 'A' && c <= 'Z' || c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}
