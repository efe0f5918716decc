// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/realprice-etl/internal/merge"
	"github.com/pdiddy/realprice-etl/pkg/types"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(types.StoreConfig{Path: filepath.Join(t.TempDir(), "db", "realprice.db")})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRun(t *testing.T) (*types.Table, merge.Result) {
	t.Helper()
	tbl := types.NewTable(types.SourceLabelColumn, "編號", "戶數", "均價", "自售起始日", "編號列表", types.FetchTimeColumn)
	require.NoError(t, tbl.AppendRow(
		types.String("臺北市"),
		types.String("A1234567890B"),
		types.Int(math.MaxInt64),
		types.Float(65.5),
		types.Time(time.Date(2022, 7, 1, 0, 0, 0, 0, time.UTC)),
		types.List(types.String("A1234567890B,預售,甲建設"), types.Null()),
		types.String("2026-10-19"),
	))
	require.NoError(t, tbl.AppendRow(
		types.String("臺南市"),
		types.String("C9876543210D"),
		types.Null(),
		types.Float(0.1),
		types.Null(),
		types.List(),
		types.String("2026-10-19"),
	))
	res := merge.Result{
		Table: tbl,
		Counts: []merge.SourceCount{
			{Label: "臺北市", Rows: 1},
			{Label: "新北市", Rows: 0, Err: errors.New("HTTP 503")},
			{Label: "臺南市", Rows: 1},
		},
		Total: 2,
	}
	return tbl, res
}

func TestSaveAndLoadRun(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	tbl, res := sampleRun(t)

	id, err := s.SaveRun(ctx, tbl, res)
	require.NoError(t, err)
	assert.Len(t, id, 36)

	run, got, err := s.LoadRun(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, run.ID)
	assert.Equal(t, "2026-10-19", run.FetchTime)
	assert.Equal(t, 2, run.TotalRows)
	assert.WithinDuration(t, time.Now(), run.CreatedAt, time.Minute)
	assert.Equal(t, []SourceCount{
		{Label: "臺北市", Rows: 1},
		{Label: "新北市", Rows: 0, Error: "HTTP 503"},
		{Label: "臺南市", Rows: 1},
	}, run.Sources)

	assert.Equal(t, tbl, got)
}

func TestLoadRunNotFound(t *testing.T) {
	s := testStore(t)
	_, _, err := s.LoadRun(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestListRunsNewestFirst(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	tbl, res := sampleRun(t)

	first, err := s.SaveRun(ctx, tbl, res)
	require.NoError(t, err)
	second, err := s.SaveRun(ctx, types.NewTable(), merge.Result{})
	require.NoError(t, err)

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second, runs[0].ID)
	assert.Equal(t, first, runs[1].ID)
	assert.Equal(t, 0, runs[0].TotalRows)
	assert.Empty(t, runs[0].FetchTime)
	assert.Len(t, runs[1].Sources, 3)
}

func TestReopenKeepsRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "realprice.db")
	s, err := Open(types.StoreConfig{Path: path})
	require.NoError(t, err)
	tbl, res := sampleRun(t)
	id, err := s.SaveRun(context.Background(), tbl, res)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(types.StoreConfig{Path: path})
	require.NoError(t, err)
	defer s.Close()
	run, err := s.GetRun(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 2, run.TotalRows)
}

func TestExportJSON(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	tbl, res := sampleRun(t)
	id, err := s.SaveRun(ctx, tbl, res)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, s.ExportJSON(ctx, id, &buf))

	var doc struct {
		Run     Run      `json:"run"`
		Columns []string `json:"columns"`
		Rows    [][]any  `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, id, doc.Run.ID)
	assert.Equal(t, tbl.Columns(), doc.Columns)
	require.Len(t, doc.Rows, 2)
	assert.Equal(t, "2022-07-01", doc.Rows[0][4])
	assert.Equal(t, []any{"A1234567890B,預售,甲建設", nil}, doc.Rows[0][5])
	assert.Nil(t, doc.Rows[1][2])
}

func TestExportYAML(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	tbl, res := sampleRun(t)
	id, err := s.SaveRun(ctx, tbl, res)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, s.ExportYAML(ctx, id, &buf))

	var doc struct {
		Run struct {
			ID      string        `yaml:"id"`
			Sources []SourceCount `yaml:"sources"`
		} `yaml:"run"`
		Columns []string `yaml:"columns"`
		Rows    [][]any  `yaml:"rows"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, id, doc.Run.ID)
	assert.Equal(t, "HTTP 503", doc.Run.Sources[1].Error)
	assert.Equal(t, tbl.Columns(), doc.Columns)
	assert.Equal(t, "臺北市", doc.Rows[0][0])
	assert.Equal(t, 65.5, doc.Rows[0][3])
}

func TestCellRoundTrip(t *testing.T) {
	vals := []types.Value{
		types.Null(),
		types.String(""),
		types.String("1110701"),
		types.Int(-42),
		types.Float(1e300),
		types.Bool(true),
		types.Time(time.Date(1912, 1, 1, 0, 0, 0, 0, time.UTC)),
		types.List(types.Int(1), types.List(types.String("x"))),
	}
	data, err := encodeRow(vals)
	require.NoError(t, err)
	got, err := decodeRow(data)
	require.NoError(t, err)
	assert.Equal(t, vals, got)

	_, err = decodeRow(`[{"t":"complex","v":"1i"}]`)
	assert.Error(t, err)
}
