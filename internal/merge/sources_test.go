// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package merge

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/realprice-etl/pkg/types"
)

func TestParseSourcesMappingKeepsOrder(t *testing.T) {
	srcs, err := ParseSources([]byte(`
fetch:
  base_url: https://example.test/
  sources:
    新北市: f_lvr_land_a.json
    臺北市: a_lvr_land_a.json
    桃園市: h_lvr_land_a.json
`))
	require.NoError(t, err)
	assert.Equal(t, []types.Source{
		{Label: "新北市", Location: "f_lvr_land_a.json"},
		{Label: "臺北市", Location: "a_lvr_land_a.json"},
		{Label: "桃園市", Location: "h_lvr_land_a.json"},
	}, srcs)
}

func TestParseSourcesLayouts(t *testing.T) {
	want := []types.Source{{Label: "A", Location: "a.csv"}, {Label: "B", Location: "b.csv"}}
	tests := []struct {
		name string
		doc  string
	}{
		{"top level mapping", "sources:\n  A: a.csv\n  B: b.csv\n"},
		{"top level list", "sources:\n  - {label: A, location: a.csv}\n  - {label: B, location: b.csv}\n"},
		{"bare list", "- label: A\n  location: a.csv\n- label: B\n  location: b.csv\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSources([]byte(tt.doc))
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestParseSourcesErrors(t *testing.T) {
	for name, doc := range map[string]string{
		"duplicate label":  "sources:\n  - {label: A, location: a}\n  - {label: A, location: b}\n",
		"missing location": "sources:\n  A: \"\"\n",
		"scalar":           "sources: nope\n",
		"bad yaml":         "sources: [\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseSources([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestParseSourcesEmpty(t *testing.T) {
	srcs, err := ParseSources(nil)
	require.NoError(t, err)
	assert.Empty(t, srcs)

	srcs, err = ParseSources([]byte("store:\n  path: x.db\n"))
	require.NoError(t, err)
	assert.Empty(t, srcs)
}

func TestReadSourcesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sources:\n  臺南市: archive/tainan.csv\n"), 0o644))

	srcs, err := ReadSourcesFile(path)
	require.NoError(t, err)
	assert.Equal(t, []types.Source{{Label: "臺南市", Location: "archive/tainan.csv"}}, srcs)

	_, err = ReadSourcesFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
