// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ident

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// listReader reads a bracketed list of quoted string literals with
// backslash escapes, the form the snapshot writer printed lists in:
// single or double quotes, \xHH, \uHHHH, \UHHHHHHHH, octal and the usual
// one-letter escapes. Adjacent literals concatenate and a trailing comma
// is allowed.
type listReader struct {
	s   string
	pos int
}

func (r *listReader) peek() byte {
	if r.pos < len(r.s) {
		return r.s[r.pos]
	}
	return 0
}

func (r *listReader) skipSpace() {
	for r.pos < len(r.s) {
		switch r.s[r.pos] {
		case ' ', '\t', '\n', '\r':
			r.pos++
		default:
			return
		}
	}
}

func (r *listReader) list() (IDList, error) {
	r.skipSpace()
	if r.peek() != '[' {
		return nil, errors.New("expected a bracketed list")
	}
	r.pos++
	list := IDList{}
	for {
		r.skipSpace()
		if r.peek() == ']' {
			r.pos++
			break
		}
		item, err := r.str()
		if err != nil {
			return nil, err
		}
		list = append(list, item)
		r.skipSpace()
		if r.peek() == ',' {
			r.pos++
			continue
		}
		if r.peek() != ']' {
			return nil, fmt.Errorf("offset %d: expected ',' or ']'", r.pos)
		}
	}
	r.skipSpace()
	if r.pos != len(r.s) {
		return nil, fmt.Errorf("offset %d: text after list", r.pos)
	}
	return list, nil
}

// str reads one item: a quoted literal followed by any adjacent ones.
func (r *listReader) str() (string, error) {
	var b strings.Builder
	if err := r.quoted(&b); err != nil {
		return "", err
	}
	for {
		r.skipSpace()
		if q := r.peek(); q != '\'' && q != '"' {
			return b.String(), nil
		}
		if err := r.quoted(&b); err != nil {
			return "", err
		}
	}
}

func (r *listReader) quoted(b *strings.Builder) error {
	q := r.peek()
	if q != '\'' && q != '"' {
		return fmt.Errorf("offset %d: item is not a quoted string", r.pos)
	}
	start := r.pos
	r.pos++
	for r.pos < len(r.s) {
		c := r.s[r.pos]
		switch c {
		case q:
			r.pos++
			return nil
		case '\n', '\r':
			return fmt.Errorf("offset %d: line break inside string", r.pos)
		case '\\':
			if err := r.escape(b); err != nil {
				return err
			}
		default:
			b.WriteByte(c)
			r.pos++
		}
	}
	return fmt.Errorf("offset %d: unterminated string", start)
}

// escape decodes the escape sequence at r.pos. Unknown escapes keep the
// backslash.
func (r *listReader) escape(b *strings.Builder) error {
	at := r.pos
	r.pos++
	if r.pos >= len(r.s) {
		return fmt.Errorf("offset %d: unterminated string", at)
	}
	c := r.s[r.pos]
	r.pos++
	switch c {
	case '\n':
		// line continuation
	case '\r':
		if r.peek() == '\n' {
			r.pos++
		}
	case '\\', '\'', '"':
		b.WriteByte(c)
	case 'a':
		b.WriteByte('\a')
	case 'b':
		b.WriteByte('\b')
	case 'f':
		b.WriteByte('\f')
	case 'n':
		b.WriteByte('\n')
	case 'r':
		b.WriteByte('\r')
	case 't':
		b.WriteByte('\t')
	case 'v':
		b.WriteByte('\v')
	case 'x':
		return r.hex(b, 2, at)
	case 'u':
		return r.hex(b, 4, at)
	case 'U':
		return r.hex(b, 8, at)
	case '0', '1', '2', '3', '4', '5', '6', '7':
		n := rune(c - '0')
		for i := 0; i < 2 && r.peek() >= '0' && r.peek() <= '7'; i++ {
			n = n*8 + rune(r.peek()-'0')
			r.pos++
		}
		b.WriteRune(n)
	default:
		b.WriteByte('\\')
		b.WriteByte(c)
	}
	return nil
}

func (r *listReader) hex(b *strings.Builder, digits, at int) error {
	if r.pos+digits > len(r.s) {
		return fmt.Errorf("offset %d: truncated escape", at)
	}
	n, err := strconv.ParseUint(r.s[r.pos:r.pos+digits], 16, 32)
	if err != nil {
		return fmt.Errorf("offset %d: bad escape %q", at, r.s[at:r.pos+digits])
	}
	if n > utf8.MaxRune {
		return fmt.Errorf("offset %d: escape out of range", at)
	}
	r.pos += digits
	b.WriteRune(rune(n))
	return nil
}
