// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch loads raw source tables: per-city JSON feeds over HTTP and
// archived CSV snapshots on disk.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pdiddy/realprice-etl/internal/httputil"
	"github.com/pdiddy/realprice-etl/pkg/types"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "realprice/0.1"
)

// ErrNotArray is returned when a feed body is not a JSON array of objects.
var ErrNotArray = errors.New("feed is not a JSON array of objects")

// HTTPLoader retrieves a source location with one GET and decodes the JSON
// array of records it returns.
type HTTPLoader struct {
	Client *http.Client
	Config types.HTTPConfig
}

// NewHTTPLoader returns an HTTPLoader whose client carries the configured
// request timeout (default 30s).
func NewHTTPLoader(cfg types.HTTPConfig) *HTTPLoader {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	return &HTTPLoader{
		Client: &http.Client{Timeout: cfg.Timeout},
		Config: cfg,
	}
}

// Load fetches src.Location. Any transport error, non-2xx status, or body
// that is not a JSON array of objects is returned as an error; the merge
// stage turns that into an empty table for the source.
func (l *HTTPLoader) Load(ctx context.Context, src types.Source) (*types.Table, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.Location, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if l.Config.UserAgent != "" {
		req.Header.Set("User-Agent", l.Config.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, l.Client, req, l.Config.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", src.Location, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, src.Location)
	}

	t, err := DecodeJSONTable(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", src.Location, err)
	}
	return t, nil
}

// DecodeJSONTable reads a JSON array of objects into a table. Columns are
// added in the order keys are first seen, and records lacking a key get
// null. Integral numbers become integer cells.
func DecodeJSONTable(r io.Reader) (*types.Table, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	if err := expectDelim(dec, '['); err != nil {
		return nil, err
	}
	t := types.NewTable()
	for dec.More() {
		keys, vals, err := decodeObject(dec)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", t.Len(), err)
		}
		t.AppendMap(keys, vals)
	}
	if err := expectDelim(dec, ']'); err != nil {
		return nil, err
	}
	return t, nil
}

func decodeObject(dec *json.Decoder) ([]string, map[string]types.Value, error) {
	if err := expectDelim(dec, '{'); err != nil {
		return nil, nil, err
	}
	var keys []string
	vals := make(map[string]types.Value)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("unexpected object key %v", tok)
		}
		var raw any
		if err := dec.Decode(&raw); err != nil {
			return nil, nil, fmt.Errorf("field %q: %w", key, err)
		}
		if _, seen := vals[key]; !seen {
			keys = append(keys, key)
		}
		vals[key] = types.FromInterface(raw)
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, nil, err
	}
	return keys, vals, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("%w: got %v, want %v", ErrNotArray, tok, want)
	}
	return nil
}
