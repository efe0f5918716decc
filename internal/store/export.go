// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/realprice-etl/pkg/types"
)

// Export is the document written by ExportYAML and ExportJSON. Rows are
// positional so column order survives encoders that sort mapping keys.
type Export struct {
	Run     Run             `json:"run" yaml:"run"`
	Columns []string        `json:"columns" yaml:"columns"`
	Rows    [][]types.Value `json:"rows" yaml:"rows"`
}

// ExportYAML writes run id as YAML to w.
func (s *Store) ExportYAML(ctx context.Context, id string, w io.Writer) error {
	doc, err := s.export(ctx, id)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}

// ExportJSON writes run id as indented JSON to w.
func (s *Store) ExportJSON(ctx context.Context, id string, w io.Writer) error {
	doc, err := s.export(ctx, id)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

func (s *Store) export(ctx context.Context, id string) (Export, error) {
	run, t, err := s.LoadRun(ctx, id)
	if err != nil {
		return Export{}, fmt.Errorf("loading run for export: %w", err)
	}
	doc := Export{Run: run, Columns: t.Columns(), Rows: make([][]types.Value, t.Len())}
	for i := range doc.Rows {
		doc.Rows[i] = t.Row(i).Values()
	}
	return doc, nil
}
