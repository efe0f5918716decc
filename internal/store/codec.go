// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/pdiddy/realprice-etl/pkg/types"
)

// cell is the stored form of a value. Scalars are kept as text so floats
// and 64-bit integers survive the round trip exactly.
type cell struct {
	Kind  string `json:"t"`
	Text  string `json:"v,omitempty"`
	Items []cell `json:"l,omitempty"`
}

func encodeCell(v types.Value) cell {
	c := cell{Kind: v.Kind().String()}
	switch v.Kind() {
	case types.KindNull:
	case types.KindList:
		items, _ := v.AsList()
		c.Items = make([]cell, len(items))
		for i, e := range items {
			c.Items[i] = encodeCell(e)
		}
	case types.KindFloat:
		f, _ := v.AsFloat()
		c.Text = strconv.FormatFloat(f, 'g', -1, 64)
	default:
		c.Text = v.String()
	}
	return c
}

func decodeCell(c cell) (types.Value, error) {
	switch c.Kind {
	case "null":
		return types.Null(), nil
	case "string":
		return types.String(c.Text), nil
	case "int":
		i, err := strconv.ParseInt(c.Text, 10, 64)
		if err != nil {
			return types.Value{}, err
		}
		return types.Int(i), nil
	case "float":
		f, err := strconv.ParseFloat(c.Text, 64)
		if err != nil {
			return types.Value{}, err
		}
		return types.Float(f), nil
	case "bool":
		b, err := strconv.ParseBool(c.Text)
		if err != nil {
			return types.Value{}, err
		}
		return types.Bool(b), nil
	case "time":
		t, err := time.Parse(types.DateLayout, c.Text)
		if err != nil {
			return types.Value{}, err
		}
		return types.Time(t), nil
	case "list":
		items := make([]types.Value, len(c.Items))
		for i, e := range c.Items {
			v, err := decodeCell(e)
			if err != nil {
				return types.Value{}, err
			}
			items[i] = v
		}
		return types.List(items...), nil
	default:
		return types.Value{}, fmt.Errorf("unknown cell kind %q", c.Kind)
	}
}

func encodeRow(vals []types.Value) (string, error) {
	cells := make([]cell, len(vals))
	for i, v := range vals {
		cells[i] = encodeCell(v)
	}
	data, err := json.Marshal(cells)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeRow(data string) ([]types.Value, error) {
	var cells []cell
	if err := json.Unmarshal([]byte(data), &cells); err != nil {
		return nil, err
	}
	vals := make([]types.Value, len(cells))
	for i, c := range cells {
		v, err := decodeCell(c)
		if err != nil {
			return nil, fmt.Errorf("cell %d: %w", i, err)
		}
		vals[i] = v
	}
	return vals, nil
}
