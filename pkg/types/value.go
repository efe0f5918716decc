// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the realprice pipeline:
// cell values, tables, sources, and stage configuration.
package types

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the textual form of a canonical date cell.
const DateLayout = "2006-01-02"

// Kind identifies the type held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindInt
	KindFloat
	KindBool
	KindList
	KindTime
)

var kindNames = [...]string{"null", "string", "int", "float", "bool", "list", "time"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Value is a single table cell. The zero Value is null, which is how a
// missing field is represented everywhere in the pipeline.
type Value struct {
	kind Kind
	s    string
	i    int64
	f    float64
	b    bool
	list []Value
	t    time.Time
}

// Null returns the missing value.
func Null() Value { return Value{} }

// String returns a string cell.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Int returns an integer cell.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float returns a float cell. NaN is stored as null, the way tabular
// readers represent empty numeric cells.
func Float(f float64) Value {
	if math.IsNaN(f) {
		return Null()
	}
	return Value{kind: KindFloat, f: f}
}

// Bool returns a boolean cell.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// List returns a list cell, as produced by JSON arrays nested in a feed record.
func List(vs ...Value) Value {
	out := make([]Value, len(vs))
	copy(out, vs)
	return Value{kind: KindList, list: out}
}

// Time returns a date cell truncated to the calendar day in UTC.
func Time(t time.Time) Value {
	y, m, d := t.Date()
	return Value{kind: KindTime, t: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// Kind returns the kind of v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the missing value.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsString returns the string held by a string cell.
func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

// AsInt returns the integer held by an integer cell.
func (v Value) AsInt() (int64, bool) { return v.i, v.kind == KindInt }

// AsFloat returns the float held by a float cell.
func (v Value) AsFloat() (float64, bool) { return v.f, v.kind == KindFloat }

// AsBool returns the boolean held by a bool cell.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsList returns the elements of a list cell.
func (v Value) AsList() ([]Value, bool) { return v.list, v.kind == KindList }

// AsTime returns the date held by a time cell.
func (v Value) AsTime() (time.Time, bool) { return v.t, v.kind == KindTime }

// String renders v the way it is written to CSV output. Null renders as the
// empty string.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindList:
		parts := make([]string, len(v.list))
		for i, e := range v.list {
			parts[i] = strconv.Quote(e.String())
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindTime:
		return v.t.Format(DateLayout)
	default:
		return ""
	}
}

// Interface returns v as a plain Go value for encoders: nil, string, int64,
// float64, bool, []any, or a date string.
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindBool:
		return v.b
	case KindList:
		out := make([]any, len(v.list))
		for i, e := range v.list {
			out[i] = e.Interface()
		}
		return out
	case KindTime:
		return v.t.Format(DateLayout)
	default:
		return nil
	}
}

// MarshalJSON encodes v as its natural JSON form.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// MarshalYAML encodes v as its natural YAML form.
func (v Value) MarshalYAML() (any, error) {
	return v.Interface(), nil
}

// FromInterface converts a decoded JSON value into a cell. json.Number is
// kept integral when it has no fractional part.
func FromInterface(x any) Value {
	switch t := x.(type) {
	case nil:
		return Null()
	case string:
		return String(t)
	case bool:
		return Bool(t)
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return Int(i)
		}
		if f, err := t.Float64(); err == nil {
			return Float(f)
		}
		return String(t.String())
	case float64:
		return Float(t)
	case int:
		return Int(int64(t))
	case int64:
		return Int(t)
	case []any:
		vs := make([]Value, len(t))
		for i, e := range t {
			vs[i] = FromInterface(e)
		}
		return List(vs...)
	default:
		data, err := json.Marshal(t)
		if err != nil {
			return Null()
		}
		return String(string(data))
	}
}
