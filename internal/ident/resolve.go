// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ident

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pdiddy/realprice-etl/pkg/types"
)

// ErrMalformedIDList is returned when an identifier list cannot be read.
var ErrMalformedIDList = errors.New("malformed identifier list")

// minEntryFields is the field count an entry needs to carry an owner:
// id, an unnamed field, owner name.
const minEntryFields = 3

// IDList is an ordered sequence of comma-delimited entries
// "id,<field>,owner[,...]".
type IDList []string

// ParseIDList reads the textual form of an identifier list, as written to
// archived CSV snapshots: a bracketed list of quoted string literals such
// as ['A1,x,甲公司', "B2,y,乙公司"], with backslash escapes such as \u3000
// and \' decoded. Unquoted items, mappings, and anything that is not a
// bracketed list are rejected.
func ParseIDList(text string) (IDList, error) {
	r := &listReader{s: text}
	list, err := r.list()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedIDList, err)
	}
	return list, nil
}

// IDListFromValue accepts either a list cell of strings, as decoded from a
// JSON feed, or a string cell holding the textual form.
func IDListFromValue(v types.Value) (IDList, error) {
	switch v.Kind() {
	case types.KindList:
		elems, _ := v.AsList()
		list := make(IDList, 0, len(elems))
		for i, e := range elems {
			s, ok := e.AsString()
			if !ok {
				return nil, fmt.Errorf("%w: item %d is %s", ErrMalformedIDList, i, e.Kind())
			}
			list = append(list, s)
		}
		return list, nil
	case types.KindString:
		s, _ := v.AsString()
		return ParseIDList(s)
	default:
		return nil, fmt.Errorf("%w: cell is %s", ErrMalformedIDList, v.Kind())
	}
}

// Lookup returns the owner of the first entry whose id equals id. Fields
// are trimmed of surrounding spaces; entries with fewer than three fields
// are skipped.
func (l IDList) Lookup(id string) (string, bool) {
	for _, entry := range l {
		parts := strings.Split(entry, ",")
		if len(parts) < minEntryFields {
			continue
		}
		if strings.TrimSpace(parts[0]) == id {
			return strings.TrimSpace(parts[2]), true
		}
	}
	return "", false
}

// Outcome tells why a Resolution has or lacks an owner.
type Outcome int

const (
	NotFound Outcome = iota
	Found
	Malformed
)

func (o Outcome) String() string {
	switch o {
	case Found:
		return "found"
	case Malformed:
		return "malformed"
	default:
		return "not_found"
	}
}

// Resolution is the result of resolving an identifier's owner.
type Resolution struct {
	Owner   string
	Outcome Outcome
}

// Value returns the owner as a cell. NotFound and Malformed both become null.
func (r Resolution) Value() types.Value {
	if r.Outcome != Found {
		return types.Null()
	}
	return types.String(r.Owner)
}

// Resolve finds the owner of target in list. The list is read first, so a
// list that cannot be read is Malformed even when target is null.
func Resolve(target, list types.Value) Resolution {
	l, err := IDListFromValue(list)
	if err != nil {
		return Resolution{Outcome: Malformed}
	}
	id, ok := targetID(target)
	if !ok {
		return Resolution{Outcome: NotFound}
	}
	owner, ok := l.Lookup(id)
	if !ok {
		return Resolution{Outcome: NotFound}
	}
	return Resolution{Owner: owner, Outcome: Found}
}

func targetID(v types.Value) (string, bool) {
	switch v.Kind() {
	case types.KindString, types.KindInt:
		return v.String(), true
	default:
		return "", false
	}
}
