// Package tree is an ordered, tagged-variant document tree.
//
// Every node is exactly one of a mapping, an array or a scalar. Mapping keys
// keep their source order so documents can be rewritten without reshuffling.
// Scalars hold nil, bool, string or Number.
package tree

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Kind tags which variant a Node holds
type Kind uint8

const (
	KindScalar Kind = iota
	KindArray
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindMap:
		return "mapping"
	case KindArray:
		return "array"
	default:
		return "scalar"
	}
}

// Number is a numeric scalar kept in its literal form
type Number string

// Field is one key/value pair of a mapping
type Field struct {
	Key   string
	Value *Node
}

// Node is a single tree node
type Node struct {
	Kind   Kind
	Fields []Field // KindMap
	Items  []*Node // KindArray
	Value  any     // KindScalar
}

// NewMap returns an empty mapping
func NewMap() *Node { return &Node{Kind: KindMap} }

// NewArray returns an array holding items
func NewArray(items ...*Node) *Node { return &Node{Kind: KindArray, Items: items} }

// String returns a string scalar
func String(s string) *Node { return &Node{Kind: KindScalar, Value: s} }

// Bool returns a boolean scalar
func Bool(b bool) *Node { return &Node{Kind: KindScalar, Value: b} }

// Num returns a numeric scalar from its literal
func Num(literal string) *Node { return &Node{Kind: KindScalar, Value: Number(literal)} }

// Float returns a numeric scalar
func Float(f float64) *Node {
	return Num(strconv.FormatFloat(f, 'f', -1, 64))
}

// Int returns a numeric scalar
func Int(i int64) *Node { return Num(strconv.FormatInt(i, 10)) }

// Null returns a null scalar
func Null() *Node { return &Node{Kind: KindScalar} }

func (n *Node) IsMap() bool    { return n != nil && n.Kind == KindMap }
func (n *Node) IsArray() bool  { return n != nil && n.Kind == KindArray }
func (n *Node) IsScalar() bool { return n != nil && n.Kind == KindScalar }

// Len is the number of fields or items; scalars have length 0
func (n *Node) Len() int {
	switch {
	case n.IsMap():
		return len(n.Fields)
	case n.IsArray():
		return len(n.Items)
	}
	return 0
}

// Get returns the value stored under key in a mapping
func (n *Node) Get(key string) (*Node, bool) {
	if !n.IsMap() {
		return nil, false
	}
	for _, f := range n.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Lookup walks nested mappings along path
func (n *Node) Lookup(path ...string) (*Node, bool) {
	cur := n
	for _, key := range path {
		next, ok := cur.Get(key)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// Set stores value under key, replacing an existing field in place or
// appending a new one. It panics on non-mapping nodes.
func (n *Node) Set(key string, value *Node) {
	if !n.IsMap() {
		panic("tree: Set on " + n.Kind.String())
	}
	for i := range n.Fields {
		if n.Fields[i].Key == key {
			n.Fields[i].Value = value
			return
		}
	}
	n.Fields = append(n.Fields, Field{Key: key, Value: value})
}

// Delete removes key from a mapping and reports whether it was present
func (n *Node) Delete(key string) bool {
	if !n.IsMap() {
		return false
	}
	for i := range n.Fields {
		if n.Fields[i].Key == key {
			n.Fields = append(n.Fields[:i:i], n.Fields[i+1:]...)
			return true
		}
	}
	return false
}

// Keys returns mapping keys in document order
func (n *Node) Keys() []string {
	if !n.IsMap() {
		return nil
	}
	keys := make([]string, len(n.Fields))
	for i, f := range n.Fields {
		keys[i] = f.Key
	}
	return keys
}

// Str returns the scalar string value, if any
func (n *Node) Str() (string, bool) {
	if !n.IsScalar() {
		return "", false
	}
	s, ok := n.Value.(string)
	return s, ok
}

// Clone returns a deep copy
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	out := &Node{Kind: n.Kind, Value: n.Value}
	if n.Fields != nil {
		out.Fields = make([]Field, len(n.Fields))
		for i, f := range n.Fields {
			out.Fields[i] = Field{Key: f.Key, Value: f.Value.Clone()}
		}
	}
	if n.Items != nil {
		out.Items = make([]*Node, len(n.Items))
		for i, it := range n.Items {
			out.Items[i] = it.Clone()
		}
	}
	return out
}

// Equal compares two trees. Mapping comparison ignores key order; numbers
// compare by value when both literals parse.
func (n *Node) Equal(o *Node) bool {
	if n == nil || o == nil {
		return n == o
	}
	if n.Kind != o.Kind {
		return false
	}
	switch n.Kind {
	case KindMap:
		if len(n.Fields) != len(o.Fields) {
			return false
		}
		for _, f := range n.Fields {
			ov, ok := o.Get(f.Key)
			if !ok || !f.Value.Equal(ov) {
				return false
			}
		}
		return true
	case KindArray:
		if len(n.Items) != len(o.Items) {
			return false
		}
		for i := range n.Items {
			if !n.Items[i].Equal(o.Items[i]) {
				return false
			}
		}
		return true
	}
	a, aNum := n.Value.(Number)
	b, bNum := o.Value.(Number)
	if aNum && bNum {
		fa, errA := strconv.ParseFloat(string(a), 64)
		fb, errB := strconv.ParseFloat(string(b), 64)
		if errA == nil && errB == nil {
			return fa == fb
		}
		return a == b
	}
	return n.Value == o.Value
}

// Text flattens the node into whitespace separated words: mapping keys and
// scalar values, depth first in document order.
func (n *Node) Text() string {
	var parts []string
	n.walkText(&parts)
	return strings.Join(parts, " ")
}

func (n *Node) walkText(parts *[]string) {
	if n == nil {
		return
	}
	switch n.Kind {
	case KindMap:
		for _, f := range n.Fields {
			*parts = append(*parts, f.Key)
			f.Value.walkText(parts)
		}
	case KindArray:
		for _, it := range n.Items {
			it.walkText(parts)
		}
	default:
		if s := n.scalarString(); s != "" {
			*parts = append(*parts, s)
		}
	}
}

func (n *Node) scalarString() string {
	switch v := n.Value.(type) {
	case string:
		return v
	case Number:
		return string(v)
	case bool:
		return strconv.FormatBool(v)
	}
	return ""
}

// ToAny converts the tree into plain Go values (map[string]any, []any,
// string, bool, int64, float64, nil).
func (n *Node) ToAny() any {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case KindMap:
		m := make(map[string]any, len(n.Fields))
		for _, f := range n.Fields {
			m[f.Key] = f.Value.ToAny()
		}
		return m
	case KindArray:
		out := make([]any, len(n.Items))
		for i, it := range n.Items {
			out[i] = it.ToAny()
		}
		return out
	}
	if num, ok := n.Value.(Number); ok {
		if i, err := strconv.ParseInt(string(num), 10, 64); err == nil {
			return i
		}
		if f, err := strconv.ParseFloat(string(num), 64); err == nil {
			return f
		}
		return string(num)
	}
	return n.Value
}

// FromAny builds a tree from plain Go values. Map keys are sorted so the
// result is deterministic.
func FromAny(v any) *Node {
	switch t := v.(type) {
	case nil:
		return Null()
	case *Node:
		return t.Clone()
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := NewMap()
		for _, k := range keys {
			out.Fields = append(out.Fields, Field{Key: k, Value: FromAny(t[k])})
		}
		return out
	case []any:
		out := NewArray()
		for _, it := range t {
			out.Items = append(out.Items, FromAny(it))
		}
		return out
	case []string:
		out := NewArray()
		for _, s := range t {
			out.Items = append(out.Items, String(s))
		}
		return out
	case string:
		return String(t)
	case bool:
		return Bool(t)
	case int:
		return Int(int64(t))
	case int64:
		return Int(t)
	case float64:
		return Float(t)
	case Number:
		return Num(string(t))
	}
	return String(fmt.Sprint(v))
}
