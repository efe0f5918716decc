// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rocdate converts the date encodings found in registry records
// (ROC calendar integers, Gregorian integers, slash-delimited ROC dates and
// free-text date phrases) into canonical calendar dates.
//
// No converter in this package returns an error: a value that cannot be
// read as a date becomes Missing.
package rocdate

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/realprice-etl/pkg/types"
)

// ROCOffset is the difference between Gregorian and ROC calendar years.
const ROCOffset = 1911

// FormatClass declares how a date value is encoded.
type FormatClass int

const (
	// ROCInteger is YYYMMDD in the ROC calendar, e.g. 1110701.
	ROCInteger FormatClass = iota
	// GregorianInteger is YYYYMMDD, e.g. 20220701.
	GregorianInteger
	// ROCSlash is YYY/M/D in the ROC calendar, e.g. "111/7/1".
	ROCSlash
	// FreeText is a phrase containing one of the forms ExtractROCText knows.
	FreeText
)

func (c FormatClass) String() string {
	switch c {
	case ROCInteger:
		return "roc-integer"
	case GregorianInteger:
		return "gregorian-integer"
	case ROCSlash:
		return "roc-slash"
	case FreeText:
		return "free-text"
	default:
		return "unknown"
	}
}

// CanonicalDate is a valid Gregorian calendar date or Missing.
type CanonicalDate struct {
	t  time.Time
	ok bool
}

// Missing is the sentinel for a value that is absent or could not be read.
var Missing = CanonicalDate{}

// Date returns the canonical date for y-m-d, or Missing when the triple is
// not a real calendar day.
func Date(y, m, d int) CanonicalDate {
	if m < 1 || m > 12 || d < 1 || d > 31 {
		return Missing
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Year() != y || int(t.Month()) != m || t.Day() != d {
		return Missing
	}
	return CanonicalDate{t: t, ok: true}
}

// IsMissing reports whether d is the Missing sentinel.
func (d CanonicalDate) IsMissing() bool { return !d.ok }

// Time returns the date at midnight UTC.
func (d CanonicalDate) Time() (time.Time, bool) { return d.t, d.ok }

// String formats d as YYYY-MM-DD, or "" when missing.
func (d CanonicalDate) String() string {
	if !d.ok {
		return ""
	}
	return d.t.Format(types.DateLayout)
}

// Value returns d as a table cell: a time cell, or null when missing.
func (d CanonicalDate) Value() types.Value {
	if !d.ok {
		return types.Null()
	}
	return types.Time(d.t)
}

// Normalize converts v according to class. FreeText values go through
// ExtractROCText and then the ROC-integer conversion.
func Normalize(v types.Value, class FormatClass) CanonicalDate {
	switch class {
	case ROCInteger:
		return ParseROCInteger(v)
	case GregorianInteger:
		return ParseGregorianInteger(v)
	case ROCSlash:
		return ParseROCSlash(v)
	case FreeText:
		roc, ok := ExtractROCText(v)
		if !ok {
			return Missing
		}
		return ParseROCInteger(types.String(roc))
	default:
		return Missing
	}
}

// ParseROCInteger reads an integer or integer-like value as ROC YYYMMDD.
// The digits are zero-padded to 7 and split 3/2/2.
func ParseROCInteger(v types.Value) CanonicalDate {
	digits, ok := integerDigits(v)
	if !ok {
		return Missing
	}
	digits = zeroPad(digits, 7)
	y, _ := strconv.Atoi(digits[:3])
	m, _ := strconv.Atoi(digits[3:5])
	d, _ := strconv.Atoi(digits[5:7])
	return Date(y+ROCOffset, m, d)
}

// ParseGregorianInteger reads an integer or integer-like value as YYYYMMDD.
// Year 0 does not exist and is Missing.
func ParseGregorianInteger(v types.Value) CanonicalDate {
	digits, ok := integerDigits(v)
	if !ok {
		return Missing
	}
	t, err := time.Parse("20060102", zeroPad(digits, 8))
	if err != nil || t.Year() == 0 {
		return Missing
	}
	return CanonicalDate{t: t, ok: true}
}

// ParseROCSlash reads "YYY/M/D" with one- or two-digit month and day.
// Components past the third are ignored.
func ParseROCSlash(v types.Value) CanonicalDate {
	s, ok := v.AsString()
	if !ok {
		return Missing
	}
	parts := strings.Split(s, "/")
	if len(parts) < 3 {
		return Missing
	}
	var ymd [3]int
	for i := range ymd {
		n, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil {
			return Missing
		}
		ymd[i] = n
	}
	return Date(ymd[0]+ROCOffset, ymd[1], ymd[2])
}

// integerDigits returns the decimal digits of a non-negative integer-like
// value. Floats are truncated toward zero; strings must hold an integer.
func integerDigits(v types.Value) (string, bool) {
	var n int64
	switch v.Kind() {
	case types.KindInt:
		n, _ = v.AsInt()
	case types.KindFloat:
		f, _ := v.AsFloat()
		if math.IsInf(f, 0) || math.IsNaN(f) || math.Abs(f) >= math.MaxInt64 {
			return "", false
		}
		n = int64(math.Trunc(f))
	case types.KindString:
		s, _ := v.AsString()
		i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return "", false
		}
		n = i
	default:
		return "", false
	}
	if n < 0 {
		return "", false
	}
	return strconv.FormatInt(n, 10), true
}

func zeroPad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}
