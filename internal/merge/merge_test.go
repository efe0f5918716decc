// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package merge

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/realprice-etl/pkg/types"
)

// fakeLoader serves tables by source location.
type fakeLoader struct {
	tables map[string]*types.Table
	errs   map[string]error
	calls  int32
	delay  time.Duration
}

func (f *fakeLoader) Load(ctx context.Context, src types.Source) (*types.Table, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if err := f.errs[src.Location]; err != nil {
		return nil, err
	}
	return f.tables[src.Location], nil
}

func rows(t *testing.T, n int, columns ...string) *types.Table {
	t.Helper()
	tbl := types.NewTable(columns...)
	for i := 0; i < n; i++ {
		vals := make([]types.Value, len(columns))
		for c := range columns {
			vals[c] = types.String(fmt.Sprintf("%s-%d", columns[c], i))
		}
		require.NoError(t, tbl.AppendRow(vals...))
	}
	return tbl
}

var fetchTime = types.String("2026-10-19")

func threeSources(t *testing.T) (*fakeLoader, []types.Source) {
	t.Helper()
	l := &fakeLoader{
		tables: map[string]*types.Table{
			"a": rows(t, 5, "編號", "坐落街道"),
			"b": types.NewTable(),
			"c": rows(t, 3, "編號", "備註"),
		},
	}
	srcs := []types.Source{{Label: "A", Location: "a"}, {Label: "B", Location: "b"}, {Label: "C", Location: "c"}}
	return l, srcs
}

func TestMergeCounts(t *testing.T) {
	l, srcs := threeSources(t)
	rec := &Recorder{}

	res, err := Merge(context.Background(), l, srcs, fetchTime, Options{Observer: rec})
	require.NoError(t, err)
	require.NoError(t, res.Validate())

	assert.Equal(t, 8, res.Total)
	assert.Equal(t, 8, res.Table.Len())
	for label, want := range map[string]int{"A": 5, "B": 0, "C": 3} {
		got, ok := res.Count(label)
		require.True(t, ok, label)
		assert.Equal(t, want, got, label)
	}
	assert.Equal(t, []string{"A", "B", "C"}, rec.Started)
	require.Len(t, rec.Results, 1)
	assert.Equal(t, 8, rec.Results[0].Total)
}

func TestMergeTagsEveryRow(t *testing.T) {
	l, srcs := threeSources(t)
	res, err := Merge(context.Background(), l, srcs, fetchTime, Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{types.SourceLabelColumn, "編號", "坐落街道", "備註", types.FetchTimeColumn}, res.Table.Columns())

	wantLabels := []string{"A", "A", "A", "A", "A", "C", "C", "C"}
	for i := 0; i < res.Table.Len(); i++ {
		label, err := res.Table.Value(i, types.SourceLabelColumn)
		require.NoError(t, err)
		assert.Equal(t, types.String(wantLabels[i]), label)

		ft, err := res.Table.Value(i, types.FetchTimeColumn)
		require.NoError(t, err)
		assert.Equal(t, fetchTime, ft)
	}

	// Original row order within a source is kept.
	v, _ := res.Table.Value(4, "編號")
	assert.Equal(t, types.String("編號-4"), v)
	v, _ = res.Table.Value(5, "編號")
	assert.Equal(t, types.String("編號-0"), v)

	// Union padding.
	v, _ = res.Table.Value(0, "備註")
	assert.True(t, v.IsNull())
	v, _ = res.Table.Value(5, "坐落街道")
	assert.True(t, v.IsNull())
}

func TestMergeFailedSourceDegrades(t *testing.T) {
	l, srcs := threeSources(t)
	boom := errors.New("connection reset")
	l.errs = map[string]error{"a": boom}

	var buf bytes.Buffer
	res, err := Merge(context.Background(), l, srcs, fetchTime, Options{Observer: &WriterObserver{W: &buf}})
	require.NoError(t, err)
	require.NoError(t, res.Validate())

	assert.Equal(t, 3, res.Total)
	n, _ := res.Count("A")
	assert.Equal(t, 0, n)
	failed := res.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, "A", failed[0].Label)
	assert.ErrorIs(t, failed[0].Err, boom)

	out := buf.String()
	assert.Contains(t, out, "A: 0 rows (warning: connection reset)")
	assert.Contains(t, out, "C: 3 rows")
	assert.Contains(t, out, "merged: 3 rows from 3 sources (1 failed)")
}

func TestWriterObserverProgress(t *testing.T) {
	l, srcs := threeSources(t)

	var buf bytes.Buffer
	_, err := Merge(context.Background(), l, srcs, fetchTime, Options{Observer: &WriterObserver{W: &buf, Progress: true}})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "loading A...\nA: 5 rows\nloading B...\nB: 0 rows\n")

	buf.Reset()
	_, err = Merge(context.Background(), l, srcs, fetchTime, Options{Observer: &WriterObserver{W: &buf}})
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "loading")
}

func TestMergeReplacesExistingTagColumns(t *testing.T) {
	tbl := rows(t, 2, "編號", types.SourceLabelColumn, types.FetchTimeColumn, "x")
	l := &fakeLoader{tables: map[string]*types.Table{"a": tbl}}

	res, err := Merge(context.Background(), l, []types.Source{{Label: "A", Location: "a"}}, fetchTime, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{types.SourceLabelColumn, "編號", "x", types.FetchTimeColumn}, res.Table.Columns())
	v, _ := res.Table.Value(1, types.SourceLabelColumn)
	assert.Equal(t, types.String("A"), v)
}

func TestMergeParallelKeepsOrder(t *testing.T) {
	l, srcs := threeSources(t)
	l.delay = 5 * time.Millisecond

	seq, err := Merge(context.Background(), l, srcs, fetchTime, Options{})
	require.NoError(t, err)
	par, err := Merge(context.Background(), l, srcs, fetchTime, Options{Concurrency: 3})
	require.NoError(t, err)

	assert.Equal(t, seq.Table, par.Table)
	assert.Equal(t, seq.Counts, par.Counts)
}

func TestMergeDelaySpacesRequests(t *testing.T) {
	l, srcs := threeSources(t)
	start := time.Now()
	_, err := Merge(context.Background(), l, srcs, fetchTime, Options{Delay: 20 * time.Millisecond})
	require.NoError(t, err)
	// Three loads, the first immediate: at least two delays.
	assert.GreaterOrEqual(t, time.Since(start), 35*time.Millisecond)
	assert.Equal(t, int32(3), atomic.LoadInt32(&l.calls))
}

func TestMergeContextCancelled(t *testing.T) {
	l, srcs := threeSources(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Merge(ctx, l, srcs, fetchTime, Options{Delay: time.Hour})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMergeRequiresFetchTime(t *testing.T) {
	l, srcs := threeSources(t)
	_, err := Merge(context.Background(), l, srcs, types.Null(), Options{})
	assert.Error(t, err)
}

func TestMergeNoSources(t *testing.T) {
	res, err := Merge(context.Background(), &fakeLoader{}, nil, fetchTime, Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Total)
	assert.NoError(t, res.Validate())
}

func TestResultValidate(t *testing.T) {
	r := Result{Counts: []SourceCount{{Label: "A", Rows: 2}}, Total: 3}
	assert.Error(t, r.Validate())
}

func TestBuildSources(t *testing.T) {
	got := BuildSources("https://example.test/api/", []types.Source{
		{Label: "臺北市", Location: "a.json"},
		{Label: "新北市", Location: "f.json"},
	})
	assert.Equal(t, []types.Source{
		{Label: "臺北市", Location: "https://example.test/api/a.json"},
		{Label: "新北市", Location: "https://example.test/api/f.json"},
	}, got)
}

func TestBuildSourcesMixed(t *testing.T) {
	got := BuildSources("https://example.test/api/", []types.Source{
		{Label: "臺北市", Location: "a.json"},
		{Label: "高雄市", Location: "http://mirror.test/e.json"},
		{Label: "臺南市", Location: "data/archive/tainan.csv"},
		{Label: "桃園市", Location: "/tmp/h.CSV"},
		{Label: "臺中市", Location: "./snap/b"},
	})
	assert.Equal(t, []types.Source{
		{Label: "臺北市", Location: "https://example.test/api/a.json"},
		{Label: "高雄市", Location: "http://mirror.test/e.json"},
		{Label: "臺南市", Location: "data/archive/tainan.csv"},
		{Label: "桃園市", Location: "/tmp/h.CSV"},
		{Label: "臺中市", Location: "./snap/b"},
	}, got)
}

func TestLoaderFunc(t *testing.T) {
	var l Loader = LoaderFunc(func(context.Context, types.Source) (*types.Table, error) {
		return rows(t, 1, "a"), nil
	})
	res, err := Merge(context.Background(), l, []types.Source{{Label: "X", Location: "x"}}, fetchTime, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)
}

func TestCountByLabel(t *testing.T) {
	l, srcs := threeSources(t)
	merged, err := Merge(context.Background(), l, srcs, fetchTime, Options{})
	require.NoError(t, err)

	res, err := CountByLabel(merged.Table)
	require.NoError(t, err)
	require.NoError(t, res.Validate())
	// B contributed nothing, so the table cannot show it.
	assert.Equal(t, []SourceCount{{Label: "A", Rows: 5}, {Label: "C", Rows: 3}}, res.Counts)

	_, err = CountByLabel(types.NewTable("x"))
	assert.ErrorIs(t, err, types.ErrMissingColumn)
}
