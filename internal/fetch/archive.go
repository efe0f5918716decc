// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/pdiddy/realprice-etl/pkg/types"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// naValues are cell texts read as missing, matching what spreadsheet and
// dataframe tools write for empty cells.
var naValues = map[string]bool{
	"": true, "#N/A": true, "#N/A N/A": true, "#NA": true, "-1.#IND": true,
	"-1.#QNAN": true, "-NaN": true, "-nan": true, "1.#IND": true, "1.#QNAN": true,
	"<NA>": true, "N/A": true, "NA": true, "NULL": true, "NaN": true,
	"None": true, "n/a": true, "nan": true, "null": true,
}

// CSVLoader reads a source location as a path to an archived CSV snapshot.
type CSVLoader struct{}

// Load reads src.Location with ReadCSV.
func (CSVLoader) Load(_ context.Context, src types.Source) (*types.Table, error) {
	return ReadCSV(src.Location)
}

// ReadCSV reads an archived snapshot in full.
func ReadCSV(path string) (*types.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t, err := DecodeCSV(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return t, nil
}

// LoadArchive reads an archived snapshot and degrades to an empty table when
// the file is missing or unreadable, printing a warning to w.
func LoadArchive(path string, w io.Writer) *types.Table {
	t, err := ReadCSV(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(w, "warning: archive %s was not found\n", path)
		} else {
			fmt.Fprintf(w, "warning: archive %s: %v\n", path, err)
		}
		return types.NewTable()
	}
	fmt.Fprintf(w, "read %d rows from %s\n", t.Len(), path)
	return t
}

// DecodeCSV reads UTF-8 CSV with a header row. A leading BOM is skipped,
// duplicate header names get ".1", ".2" suffixes, short rows are padded
// with null, and each column is typed as a whole: integer when every
// non-missing cell is an integer, float when every one is numeric, string
// otherwise.
func DecodeCSV(r io.Reader) (*types.Table, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		br.Discard(len(utf8BOM))
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return types.NewTable(), nil
	}
	if err != nil {
		return nil, err
	}
	columns := dedupeHeader(header)

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}

	kinds := make([]types.Kind, len(columns))
	for c := range columns {
		kinds[c] = inferKind(records, c)
	}

	t := types.NewTable(columns...)
	row := make([]types.Value, len(columns))
	for i, rec := range records {
		if len(rec) > len(columns) {
			return nil, fmt.Errorf("line %d: %d fields, header has %d", i+2, len(rec), len(columns))
		}
		for c := range columns {
			row[c] = types.Null()
			if c < len(rec) {
				row[c] = typedCell(rec[c], kinds[c])
			}
		}
		if err := t.AppendRow(row...); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func dedupeHeader(header []string) []string {
	used := make(map[string]bool, len(header))
	out := make([]string, len(header))
	for i, h := range header {
		name := h
		for n := 1; used[name]; n++ {
			name = h + "." + strconv.Itoa(n)
		}
		used[name] = true
		out[i] = name
	}
	return out
}

func inferKind(records [][]string, c int) types.Kind {
	kind := types.KindInt
	present := false
	for _, rec := range records {
		if c >= len(rec) || naValues[rec[c]] {
			continue
		}
		present = true
		s := rec[c]
		if kind == types.KindInt {
			if _, err := strconv.ParseInt(s, 10, 64); err == nil {
				continue
			}
			kind = types.KindFloat
		}
		if _, err := strconv.ParseFloat(s, 64); err != nil {
			return types.KindString
		}
	}
	if !present {
		return types.KindString
	}
	return kind
}

func typedCell(s string, kind types.Kind) types.Value {
	if naValues[s] {
		return types.Null()
	}
	switch kind {
	case types.KindInt:
		i, _ := strconv.ParseInt(s, 10, 64)
		return types.Int(i)
	case types.KindFloat:
		f, _ := strconv.ParseFloat(s, 64)
		return types.Float(f)
	default:
		return types.String(s)
	}
}

// WriteCSV writes t with a header row. Date cells are written as
// YYYY-MM-DD and null cells as empty fields.
func WriteCSV(w io.Writer, t *types.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns()); err != nil {
		return err
	}
	rec := make([]string, t.Width())
	for i := 0; i < t.Len(); i++ {
		for c, v := range t.Row(i).Values() {
			rec[c] = v.String()
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes t to path.
func WriteCSVFile(path string, t *types.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteCSV(f, t); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
