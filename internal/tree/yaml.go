package tree

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ParseYAML decodes a YAML (or JSON) document keeping mapping key order. An
// empty document yields an empty mapping.
func ParseYAML(data []byte) (*Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return NewMap(), nil
	}
	return fromYAML(doc.Content[0])
}

func fromYAML(y *yaml.Node) (*Node, error) {
	switch y.Kind {
	case yaml.DocumentNode:
		if len(y.Content) == 0 {
			return NewMap(), nil
		}
		return fromYAML(y.Content[0])
	case yaml.AliasNode:
		return fromYAML(y.Alias)
	case yaml.MappingNode:
		out := NewMap()
		for i := 0; i+1 < len(y.Content); i += 2 {
			k, v := y.Content[i], y.Content[i+1]
			if k.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: mapping key must be a scalar", k.Line)
			}
			if k.Tag == "!!merge" {
				if err := mergeYAML(out, v); err != nil {
					return nil, err
				}
				continue
			}
			val, err := fromYAML(v)
			if err != nil {
				return nil, err
			}
			out.Set(k.Value, val)
		}
		return out, nil
	case yaml.SequenceNode:
		out := NewArray()
		for _, c := range y.Content {
			val, err := fromYAML(c)
			if err != nil {
				return nil, err
			}
			out.Items = append(out.Items, val)
		}
		return out, nil
	case yaml.ScalarNode:
		return scalarFromYAML(y)
	}
	return nil, fmt.Errorf("line %d: unsupported YAML node", y.Line)
}

// mergeYAML applies a `<<: *anchor` merge key; explicit keys win.
func mergeYAML(out *Node, v *yaml.Node) error {
	src, err := fromYAML(v)
	if err != nil {
		return err
	}
	if !src.IsMap() {
		return fmt.Errorf("line %d: merge value must be a mapping", v.Line)
	}
	for _, f := range src.Fields {
		if _, exists := out.Get(f.Key); !exists {
			out.Set(f.Key, f.Value)
		}
	}
	return nil
}

func scalarFromYAML(y *yaml.Node) (*Node, error) {
	switch y.ShortTag() {
	case "!!null":
		return Null(), nil
	case "!!bool":
		b, err := strconv.ParseBool(y.Value)
		if err != nil {
			var v bool
			if derr := y.Decode(&v); derr != nil {
				return nil, fmt.Errorf("line %d: %w", y.Line, derr)
			}
			b = v
		}
		return Bool(b), nil
	case "!!int", "!!float":
		var f float64
		if err := y.Decode(&f); err != nil {
			return nil, fmt.Errorf("line %d: %w", y.Line, err)
		}
		if y.ShortTag() == "!!int" {
			var i int64
			if err := y.Decode(&i); err == nil {
				return Int(i), nil
			}
		}
		return Float(f), nil
	}
	return String(y.Value), nil
}

// YAML encodes the node as YAML with mapping order preserved
func (n *Node) YAML() ([]byte, error) {
	return yaml.Marshal(n.toYAML())
}

func (n *Node) toYAML() *yaml.Node {
	if n == nil {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	}
	switch n.Kind {
	case KindMap:
		out := &yaml.Node{Kind: yaml.MappingNode}
		for _, f := range n.Fields {
			out.Content = append(out.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: f.Key},
				f.Value.toYAML())
		}
		return out
	case KindArray:
		out := &yaml.Node{Kind: yaml.SequenceNode}
		for _, it := range n.Items {
			out.Content = append(out.Content, it.toYAML())
		}
		return out
	}
	switch v := n.Value.(type) {
	case string:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
	case bool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(v)}
	case Number:
		tag := "!!float"
		if _, err := strconv.ParseInt(string(v), 10, 64); err == nil {
			tag = "!!int"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: string(v)}
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
}
