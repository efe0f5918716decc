// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"github.com/pdiddy/realprice-etl/internal/ident"
	"github.com/pdiddy/realprice-etl/internal/region"
	"github.com/pdiddy/realprice-etl/internal/rocdate"
	"github.com/pdiddy/realprice-etl/pkg/types"
)

// Stage derives or rewrites columns of a merged table. Requires lists the
// columns that must exist before Apply runs; Produces lists the columns
// Apply adds or replaces.
type Stage interface {
	Name() string
	Requires() []string
	Produces() []string
	Apply(t *types.Table) (StageResult, error)
}

// StageResult counts what one stage did to the table.
type StageResult struct {
	Stage   string `json:"stage" yaml:"stage"`
	Rows    int    `json:"rows" yaml:"rows"`
	Missing int    `json:"missing" yaml:"missing"`

	// Outcomes counts resolution outcomes by name. Only the owner stage
	// fills it.
	Outcomes map[string]int `json:"outcomes,omitempty" yaml:"outcomes,omitempty"`
}

// RegionStage writes the region label of each address.
type RegionStage struct {
	Address string
	Region  string
}

func (s RegionStage) Name() string       { return "region" }
func (s RegionStage) Requires() []string { return []string{s.Address} }
func (s RegionStage) Produces() []string { return []string{s.Region} }

func (s RegionStage) Apply(t *types.Table) (StageResult, error) {
	return derive(t, s.Name(), s.Address, s.Region, region.Label)
}

// IDStage writes the canonical identifiers found in a free-text column.
// Cells without identifiers become the empty string, never null.
type IDStage struct {
	Source string
	Target string
}

func (s IDStage) Name() string       { return "identifiers" }
func (s IDStage) Requires() []string { return []string{s.Source} }
func (s IDStage) Produces() []string { return []string{s.Target} }

func (s IDStage) Apply(t *types.Table) (StageResult, error) {
	res, err := derive(t, s.Name(), s.Source, s.Target, func(v types.Value) types.Value {
		return types.String(ident.ExtractIDs(v))
	})
	if err != nil {
		return res, err
	}
	// Empty strings are what "missing" means for this column.
	vals, _ := t.Column(s.Target)
	for _, v := range vals {
		if v.String() == "" {
			res.Missing++
		}
	}
	return res, nil
}

// OwnerStage resolves each row's identifier against its identifier list.
// When Outcome is set the resolution outcome is written there too, so rows
// with an unreadable list can be told apart from rows that did not match.
type OwnerStage struct {
	ID      string
	List    string
	Owner   string
	Outcome string
}

func (s OwnerStage) Name() string       { return "owner" }
func (s OwnerStage) Requires() []string { return []string{s.ID, s.List} }

func (s OwnerStage) Produces() []string {
	if s.Outcome == "" {
		return []string{s.Owner}
	}
	return []string{s.Owner, s.Outcome}
}

func (s OwnerStage) Apply(t *types.Table) (StageResult, error) {
	res := StageResult{Stage: s.Name(), Rows: t.Len(), Outcomes: make(map[string]int)}
	ids, err := t.Column(s.ID)
	if err != nil {
		return res, err
	}
	lists, err := t.Column(s.List)
	if err != nil {
		return res, err
	}

	owners := make([]types.Value, len(ids))
	var outcomes []types.Value
	if s.Outcome != "" {
		outcomes = make([]types.Value, len(ids))
	}
	for i := range ids {
		r := ident.Resolve(ids[i], lists[i])
		owners[i] = r.Value()
		if owners[i].IsNull() {
			res.Missing++
		}
		res.Outcomes[r.Outcome.String()]++
		if outcomes != nil {
			outcomes[i] = types.String(r.Outcome.String())
		}
	}

	if err := put(t, s.Owner, owners); err != nil {
		return res, err
	}
	if outcomes != nil {
		if err := put(t, s.Outcome, outcomes); err != nil {
			return res, err
		}
	}
	return res, nil
}

// PeriodStage pulls the 7-digit ROC start date out of a free-text sale
// period. The output is a string for a later ROC-integer date stage.
type PeriodStage struct {
	Input  string
	Output string
}

func (s PeriodStage) Name() string       { return "period " + s.Input }
func (s PeriodStage) Requires() []string { return []string{s.Input} }
func (s PeriodStage) Produces() []string { return []string{s.Output} }

func (s PeriodStage) Apply(t *types.Table) (StageResult, error) {
	return derive(t, s.Name(), s.Input, s.Output, rocdate.ExtractROCValue)
}

// DateStage converts date columns in place to canonical dates.
type DateStage struct {
	Formats rocdate.ColumnFormats
}

func (s DateStage) Name() string       { return "dates" }
func (s DateStage) Requires() []string { return s.Formats.Columns() }
func (s DateStage) Produces() []string { return nil }

func (s DateStage) Apply(t *types.Table) (StageResult, error) {
	res := StageResult{Stage: s.Name(), Rows: t.Len()}
	if err := rocdate.ConvertColumns(t, s.Formats); err != nil {
		return res, err
	}
	for _, name := range s.Formats.Columns() {
		vals, _ := t.Column(name)
		res.Missing += countNull(vals)
	}
	return res, nil
}

// derive maps column from through fn into column to.
func derive(t *types.Table, stage, from, to string, fn func(types.Value) types.Value) (StageResult, error) {
	res := StageResult{Stage: stage, Rows: t.Len()}
	src, err := t.Column(from)
	if err != nil {
		return res, err
	}
	out := make([]types.Value, len(src))
	for i, v := range src {
		out[i] = fn(v)
	}
	res.Missing = countNull(out)
	return res, put(t, to, out)
}

// put replaces column name, or appends it when the table lacks it.
func put(t *types.Table, name string, vals []types.Value) error {
	if t.HasColumn(name) {
		return t.SetColumn(name, vals)
	}
	return t.AppendColumn(name, vals)
}

func countNull(vals []types.Value) int {
	n := 0
	for _, v := range vals {
		if v.IsNull() {
			n++
		}
	}
	return n
}
