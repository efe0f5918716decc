// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package merge combines per-source tables into one table tagged with the
// source label and the fetch time, and reports how many rows each source
// contributed.
package merge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/pdiddy/realprice-etl/internal/fetch"
	"github.com/pdiddy/realprice-etl/pkg/types"
)

// Loader produces the raw table for one source. A returned error is not
// fatal to the merge: the source contributes zero rows.
type Loader interface {
	Load(ctx context.Context, src types.Source) (*types.Table, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, src types.Source) (*types.Table, error)

// Load calls f.
func (f LoaderFunc) Load(ctx context.Context, src types.Source) (*types.Table, error) {
	return f(ctx, src)
}

// Options controls pacing and reporting.
type Options struct {
	// Delay is the minimum spacing between the start of consecutive loads.
	Delay time.Duration

	// Concurrency bounds loads in flight. Values below 2 load sequentially.
	Concurrency int

	// Observer receives progress events. Nil discards them.
	Observer Observer
}

// SourceCount is the row count one source contributed.
type SourceCount struct {
	Label string `json:"label" yaml:"label"`
	Rows  int    `json:"rows" yaml:"rows"`
	// Err is the load error when the source degraded to zero rows.
	Err error `json:"-" yaml:"-"`
}

// Result is the merged table and its per-source accounting.
type Result struct {
	Table  *types.Table
	Counts []SourceCount
	Total  int
}

// Count returns the rows contributed by the source with label.
func (r Result) Count(label string) (int, bool) {
	for _, c := range r.Counts {
		if c.Label == label {
			return c.Rows, true
		}
	}
	return 0, false
}

// Failed returns the sources whose load failed.
func (r Result) Failed() []SourceCount {
	var out []SourceCount
	for _, c := range r.Counts {
		if c.Err != nil {
			out = append(out, c)
		}
	}
	return out
}

// Validate checks that the per-source counts sum to the total and to the
// table length.
func (r Result) Validate() error {
	sum := 0
	for _, c := range r.Counts {
		sum += c.Rows
	}
	if sum != r.Total {
		return fmt.Errorf("per-source counts sum to %d, total is %d", sum, r.Total)
	}
	if r.Table != nil && r.Table.Len() != r.Total {
		return fmt.Errorf("table has %d rows, total is %d", r.Table.Len(), r.Total)
	}
	return nil
}

// Merge loads every source in order and concatenates the results. Each row
// gets the source label as the first column and fetchTime as the last.
// Rows keep source order and, within a source, their original order, even
// when loads run in parallel. Columns are the source label, then the union
// of source columns in first-seen order, then the fetch time.
//
// Load failures are absorbed. Merge returns an error only when fetchTime is
// null or ctx ends.
func Merge(ctx context.Context, loader Loader, sources []types.Source, fetchTime types.Value, opts Options) (Result, error) {
	if fetchTime.IsNull() {
		return Result{}, errors.New("merge: fetch time is required")
	}
	obs := opts.Observer
	if obs == nil {
		obs = nopObserver{}
	}

	var limiter *rate.Limiter
	if opts.Delay > 0 {
		limiter = rate.NewLimiter(rate.Every(opts.Delay), 1)
	}

	tables := make([]*types.Table, len(sources))
	counts := make([]SourceCount, len(sources))

	load := func(i int) error {
		src := sources[i]
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return err
			}
		}
		obs.SourceStarted(src)
		t, err := loader.Load(ctx, src)
		if err != nil || t == nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			t = types.NewTable()
		}
		if tagErr := tag(t, src.Label, fetchTime); tagErr != nil {
			return fmt.Errorf("tagging %s: %w", src.Label, tagErr)
		}
		tables[i] = t
		counts[i] = SourceCount{Label: src.Label, Rows: t.Len(), Err: err}
		obs.SourceFinished(counts[i])
		return nil
	}

	if opts.Concurrency < 2 {
		for i := range sources {
			if err := load(i); err != nil {
				return Result{}, err
			}
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(opts.Concurrency)
		for i := range sources {
			if gctx.Err() != nil {
				break
			}
			i := i
			g.Go(func() error { return load(i) })
		}
		if err := g.Wait(); err != nil {
			return Result{}, err
		}
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
	}

	merged := types.Concat(tables...)
	if merged.HasColumn(types.FetchTimeColumn) {
		if err := merged.MoveColumn(types.FetchTimeColumn, merged.Width()-1); err != nil {
			return Result{}, err
		}
	}

	res := Result{Table: merged, Counts: counts, Total: merged.Len()}
	obs.MergeFinished(res)
	return res, nil
}

// tag puts the source label in the first column and the fetch time in the
// last, replacing columns of the same name the source may already carry.
func tag(t *types.Table, label string, fetchTime types.Value) error {
	if err := t.FillColumn(0, types.SourceLabelColumn, types.String(label)); err != nil {
		return err
	}
	pos := t.Width()
	if t.HasColumn(types.FetchTimeColumn) {
		pos--
	}
	return t.FillColumn(pos, types.FetchTimeColumn, fetchTime)
}

// BuildSources joins baseURL with each source's location fragment,
// keeping order. Locations that are already URLs or archive paths are
// left as they are.
func BuildSources(baseURL string, fragments []types.Source) []types.Source {
	out := make([]types.Source, len(fragments))
	for i, f := range fragments {
		out[i] = f
		if !fetch.IsURL(f.Location) && !fetch.IsArchivePath(f.Location) {
			out[i].Location = baseURL + f.Location
		}
	}
	return out
}

// CountByLabel rebuilds per-source counts from a merged table's source
// label column, in first-seen order. Archived snapshots carry the label
// but not the original accounting.
func CountByLabel(t *types.Table) (Result, error) {
	labels, err := t.Column(types.SourceLabelColumn)
	if err != nil {
		return Result{}, err
	}
	var counts []SourceCount
	pos := make(map[string]int)
	for _, v := range labels {
		l := v.String()
		i, ok := pos[l]
		if !ok {
			i = len(counts)
			pos[l] = i
			counts = append(counts, SourceCount{Label: l})
		}
		counts[i].Rows++
	}
	return Result{Table: t, Counts: counts, Total: t.Len()}, nil
}
