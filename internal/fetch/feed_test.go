// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/realprice-etl/internal/httputil"
	"github.com/pdiddy/realprice-etl/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = time.Millisecond
}

const sampleFeed = `[
  {"編號": "A1234567890B", "坐落街道": "中正區忠孝東路", "戶數": 120, "均價": 65.5, "編號列表": ["A1234567890B,預售,甲建設"]},
  {"坐落街道": "東區東門路", "編號": "C9876543210D", "戶數": null, "備註": "新欄位"}
]`

func TestDecodeJSONTable(t *testing.T) {
	tbl, err := DecodeJSONTable(strings.NewReader(sampleFeed))
	require.NoError(t, err)

	assert.Equal(t, 2, tbl.Len())
	assert.Equal(t, []string{"編號", "坐落街道", "戶數", "均價", "編號列表", "備註"}, tbl.Columns())

	row0 := tbl.Row(0)
	v, _ := row0.Get("戶數")
	assert.Equal(t, types.Int(120), v)
	v, _ = row0.Get("均價")
	assert.Equal(t, types.Float(65.5), v)
	v, _ = row0.Get("編號列表")
	assert.Equal(t, types.List(types.String("A1234567890B,預售,甲建設")), v)
	v, _ = row0.Get("備註")
	assert.True(t, v.IsNull(), "row 0 is padded for a later column")

	row1 := tbl.Row(1)
	v, _ = row1.Get("編號")
	assert.Equal(t, types.String("C9876543210D"), v)
	v, _ = row1.Get("戶數")
	assert.True(t, v.IsNull())
	v, _ = row1.Get("均價")
	assert.True(t, v.IsNull())
}

func TestDecodeJSONTableRejects(t *testing.T) {
	for name, body := range map[string]string{
		"object":        `{"a": 1}`,
		"scalars":       `[1, 2]`,
		"truncated":     `[{"a": 1}`,
		"html":          `<html>maintenance</html>`,
		"empty body":    ``,
		"nested arrays": `[[1]]`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeJSONTable(strings.NewReader(body))
			assert.Error(t, err)
		})
	}
}

func TestDecodeJSONTableEmptyArray(t *testing.T) {
	tbl, err := DecodeJSONTable(strings.NewReader(`[]`))
	require.NoError(t, err)
	assert.Equal(t, 0, tbl.Len())
	assert.Empty(t, tbl.Columns())
}

func TestHTTPLoaderLoad(t *testing.T) {
	var gotUA string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		switch r.URL.Path {
		case "/ok.json":
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, sampleFeed)
		case "/missing.json":
			http.NotFound(w, r)
		default:
			fmt.Fprint(w, `{"status": "maintenance"}`)
		}
	}))
	defer ts.Close()

	l := NewHTTPLoader(types.HTTPConfig{UserAgent: "realprice-test", MaxRetries: 1})
	l.Client = ts.Client()

	tbl, err := l.Load(context.Background(), types.Source{Label: "臺北市", Location: ts.URL + "/ok.json"})
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.Len())
	assert.Equal(t, "realprice-test", gotUA)

	_, err = l.Load(context.Background(), types.Source{Label: "x", Location: ts.URL + "/missing.json"})
	assert.ErrorContains(t, err, "HTTP 404")

	_, err = l.Load(context.Background(), types.Source{Label: "x", Location: ts.URL + "/garbage"})
	assert.ErrorIs(t, err, ErrNotArray)
}

func TestNewHTTPLoaderDefaults(t *testing.T) {
	l := NewHTTPLoader(types.HTTPConfig{})
	assert.Equal(t, defaultTimeout, l.Client.Timeout)
	assert.Equal(t, defaultUserAgent, l.Config.UserAgent)
}
