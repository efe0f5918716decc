// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package merge

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/realprice-etl/pkg/types"
)

// ReadSourcesFile reads the ordered source list from a YAML file. See
// ParseSources for the accepted layouts.
func ReadSourcesFile(path string) ([]types.Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading sources file: %w", err)
	}
	srcs, err := ParseSources(data)
	if err != nil {
		return nil, fmt.Errorf("parsing sources file %s: %w", path, err)
	}
	return srcs, nil
}

// ParseSources reads sources in file order. The list is either the
// document itself or the value of a "sources" key, at top level or under
// "fetch", and is written as a mapping of label to location:
//
//	sources:
//	  臺北市: a_lvr_land_a.json
//	  新北市: f_lvr_land_a.json
//
// or as a sequence of {label, location} mappings.
func ParseSources(data []byte) ([]types.Source, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, nil
	}
	root := doc.Content[0]
	if n := lookup(root, "fetch"); n != nil {
		if s := lookup(n, "sources"); s != nil {
			return decodeSources(s)
		}
	}
	if s := lookup(root, "sources"); s != nil {
		return decodeSources(s)
	}
	if root.Kind == yaml.SequenceNode {
		return decodeSources(root)
	}
	return nil, nil
}

func lookup(n *yaml.Node, key string) *yaml.Node {
	if n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1]
		}
	}
	return nil
}

func decodeSources(n *yaml.Node) ([]types.Source, error) {
	var out []types.Source
	seen := make(map[string]bool)
	add := func(s types.Source, line int) error {
		if s.Label == "" || s.Location == "" {
			return fmt.Errorf("line %d: source needs a label and a location", line)
		}
		if seen[s.Label] {
			return fmt.Errorf("line %d: duplicate source %q", line, s.Label)
		}
		seen[s.Label] = true
		out = append(out, s)
		return nil
	}

	switch n.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			if err := add(types.Source{Label: k.Value, Location: v.Value}, k.Line); err != nil {
				return nil, err
			}
		}
	case yaml.SequenceNode:
		for _, item := range n.Content {
			var s types.Source
			if err := item.Decode(&s); err != nil {
				return nil, fmt.Errorf("line %d: %w", item.Line, err)
			}
			if err := add(s, item.Line); err != nil {
				return nil, err
			}
		}
	default:
		return nil, fmt.Errorf("line %d: sources must be a mapping or a list", n.Line)
	}
	return out, nil
}
