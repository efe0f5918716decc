// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize runs the column derivations that turn a merged table
// into the normalized dataset: region labels, identifier lists, owner
// names, sale-period start dates and canonical date columns.
package normalize

import (
	"fmt"
	"io"

	"github.com/pdiddy/realprice-etl/internal/rocdate"
	"github.com/pdiddy/realprice-etl/pkg/types"
)

// Pipeline applies stages in order.
type Pipeline struct {
	Stages []Stage
}

// FromConfig builds the standard stage order from cfg. A stage whose input
// column is not configured is left out.
func FromConfig(cfg types.NormalizeConfig) *Pipeline {
	p := &Pipeline{}
	if cfg.AddressColumn != "" && cfg.RegionColumn != "" {
		p.Stages = append(p.Stages, RegionStage{Address: cfg.AddressColumn, Region: cfg.RegionColumn})
	}
	if cfg.IDSourceColumn != "" && cfg.IDsColumn != "" {
		p.Stages = append(p.Stages, IDStage{Source: cfg.IDSourceColumn, Target: cfg.IDsColumn})
	}
	if cfg.IDColumn != "" && cfg.IDListColumn != "" && cfg.OwnerColumn != "" {
		p.Stages = append(p.Stages, OwnerStage{
			ID:      cfg.IDColumn,
			List:    cfg.IDListColumn,
			Owner:   cfg.OwnerColumn,
			Outcome: cfg.OutcomeColumn,
		})
	}
	for _, sp := range cfg.SalePeriods {
		if sp.Input != "" && sp.Output != "" {
			p.Stages = append(p.Stages, PeriodStage{Input: sp.Input, Output: sp.Output})
		}
	}
	formats := rocdate.ColumnFormats{
		ROCInteger:       cfg.ROCColumns,
		GregorianInteger: cfg.GregorianColumns,
		ROCSlash:         cfg.ROCSlashColumns,
	}
	if !formats.IsEmpty() {
		p.Stages = append(p.Stages, DateStage{Formats: formats})
	}
	return p
}

// Validate checks, before anything runs, that every stage will find the
// columns it requires given the starting columns and what earlier stages
// produce.
func (p *Pipeline) Validate(columns []string) error {
	have := make(map[string]bool, len(columns))
	for _, c := range columns {
		have[c] = true
	}
	for _, s := range p.Stages {
		if ds, ok := s.(DateStage); ok {
			if err := ds.Formats.Validate(); err != nil {
				return fmt.Errorf("stage %s: %w", s.Name(), err)
			}
		}
		for _, c := range s.Requires() {
			if !have[c] {
				return fmt.Errorf("stage %s: %w: %q", s.Name(), types.ErrMissingColumn, c)
			}
		}
		for _, c := range s.Produces() {
			have[c] = true
		}
	}
	return nil
}

// Applicable returns the stages whose inputs will be present, and the
// names of the stages dropped because they would not be. Archived
// snapshots often lack some source columns.
func (p *Pipeline) Applicable(columns []string) (*Pipeline, []string) {
	have := make(map[string]bool, len(columns))
	for _, c := range columns {
		have[c] = true
	}
	out := &Pipeline{}
	var skipped []string
	for _, s := range p.Stages {
		if ds, ok := s.(DateStage); ok {
			f := presentFormats(ds.Formats, have)
			if f.IsEmpty() {
				skipped = append(skipped, s.Name())
				continue
			}
			s = DateStage{Formats: f}
		}
		ok := true
		for _, c := range s.Requires() {
			if !have[c] {
				ok = false
				break
			}
		}
		if !ok {
			skipped = append(skipped, s.Name())
			continue
		}
		for _, c := range s.Produces() {
			have[c] = true
		}
		out.Stages = append(out.Stages, s)
	}
	return out, skipped
}

// presentFormats drops date columns that will not exist.
func presentFormats(f rocdate.ColumnFormats, have map[string]bool) rocdate.ColumnFormats {
	keep := func(cols []string) []string {
		var out []string
		for _, c := range cols {
			if have[c] {
				out = append(out, c)
			}
		}
		return out
	}
	return rocdate.ColumnFormats{
		ROCInteger:       keep(f.ROCInteger),
		GregorianInteger: keep(f.GregorianInteger),
		ROCSlash:         keep(f.ROCSlash),
	}
}

// Report summarizes a pipeline run.
type Report struct {
	Rows   int           `json:"rows" yaml:"rows"`
	Stages []StageResult `json:"stages" yaml:"stages"`
}

// Stage returns the result of the stage with the given name.
func (r Report) Stage(name string) (StageResult, bool) {
	for _, s := range r.Stages {
		if s.Stage == name {
			return s, true
		}
	}
	return StageResult{}, false
}

// Write prints one line per stage.
func (r Report) Write(w io.Writer) {
	for _, s := range r.Stages {
		fmt.Fprintf(w, "%s: %d rows, %d missing", s.Stage, s.Rows, s.Missing)
		if len(s.Outcomes) > 0 {
			fmt.Fprintf(w, " (found %d, not_found %d, malformed %d)",
				s.Outcomes["found"], s.Outcomes["not_found"], s.Outcomes["malformed"])
		}
		fmt.Fprintln(w)
	}
}

// Run validates the pipeline against t and applies every stage in place.
// A stage error stops the run; earlier stages have already rewritten t.
func (p *Pipeline) Run(t *types.Table) (Report, error) {
	rep := Report{Rows: t.Len()}
	if err := p.Validate(t.Columns()); err != nil {
		return rep, err
	}
	for _, s := range p.Stages {
		res, err := s.Apply(t)
		if err != nil {
			return rep, fmt.Errorf("stage %s: %w", s.Name(), err)
		}
		rep.Stages = append(rep.Stages, res)
	}
	return rep, nil
}
