// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rocdate

import (
	"regexp"

	"github.com/pdiddy/realprice-etl/pkg/types"
)

// Patterns tried by ExtractROCText, in priority order.
var (
	reSevenDigits = regexp.MustCompile(`\d{7}`)
	rePhrase      = regexp.MustCompile(`(\d{3})年(\d{1,2})月(\d{1,2})[日號]`)
	reSlash       = regexp.MustCompile(`(\d{3})/(\d{1,2})/(\d{1,2})`)
)

// ExtractROCText finds the first date in a free-text sale-period field and
// returns it as a 7-digit ROC string (YYYMMDD). It does not validate the
// calendar; pass the result through ParseROCInteger for that.
//
// The first matching rule wins:
//
//  1. any run of 7 digits, returned verbatim;
//  2. "111年7月1日" or "111年7月1號";
//  3. "111/7/1".
func ExtractROCText(v types.Value) (string, bool) {
	text, ok := v.AsString()
	if !ok {
		return "", false
	}
	if m := reSevenDigits.FindString(text); m != "" {
		return m, true
	}
	for _, re := range []*regexp.Regexp{rePhrase, reSlash} {
		if m := re.FindStringSubmatch(text); m != nil {
			return m[1] + zeroPad(m[2], 2) + zeroPad(m[3], 2), true
		}
	}
	return "", false
}

// ExtractROCValue is ExtractROCText as a cell: a string cell, or null.
func ExtractROCValue(v types.Value) types.Value {
	s, ok := ExtractROCText(v)
	if !ok {
		return types.Null()
	}
	return types.String(s)
}
