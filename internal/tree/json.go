package tree

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

var errInvalidJSON = errors.New("invalid JSON")

// prettyOptions is the canonical layout for every JSON document we write
var prettyOptions = &pretty.Options{Width: 80, Prefix: "", Indent: "  ", SortKeys: false}

// ParseJSON decodes a JSON document keeping object key order
func ParseJSON(data []byte) (*Node, error) {
	if !gjson.ValidBytes(data) {
		return nil, errInvalidJSON
	}
	return fromResult(gjson.ParseBytes(data)), nil
}

// FromResult converts an already parsed gjson value
func FromResult(r gjson.Result) *Node {
	return fromResult(r)
}

func fromResult(r gjson.Result) *Node {
	switch {
	case r.IsObject():
		out := NewMap()
		r.ForEach(func(key, value gjson.Result) bool {
			out.Fields = append(out.Fields, Field{Key: key.String(), Value: fromResult(value)})
			return true
		})
		return out
	case r.IsArray():
		out := NewArray()
		r.ForEach(func(_, value gjson.Result) bool {
			out.Items = append(out.Items, fromResult(value))
			return true
		})
		return out
	}
	switch r.Type {
	case gjson.String:
		return String(r.Str)
	case gjson.True:
		return Bool(true)
	case gjson.False:
		return Bool(false)
	case gjson.Number:
		return Num(r.Raw)
	}
	return Null()
}

// CompactJSON encodes the node on a single line
func (n *Node) CompactJSON() []byte {
	var buf bytes.Buffer
	n.writeJSON(&buf)
	return buf.Bytes()
}

// JSON encodes the node in the canonical indented layout, newline terminated
func (n *Node) JSON() []byte {
	return pretty.PrettyOptions(n.CompactJSON(), prettyOptions)
}

func (n *Node) writeJSON(buf *bytes.Buffer) {
	if n == nil {
		buf.WriteString("null")
		return
	}
	switch n.Kind {
	case KindMap:
		buf.WriteByte('{')
		for i, f := range n.Fields {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeJSONString(buf, f.Key)
			buf.WriteByte(':')
			f.Value.writeJSON(buf)
		}
		buf.WriteByte('}')
	case KindArray:
		buf.WriteByte('[')
		for i, it := range n.Items {
			if i > 0 {
				buf.WriteByte(',')
			}
			it.writeJSON(buf)
		}
		buf.WriteByte(']')
	default:
		switch v := n.Value.(type) {
		case string:
			writeJSONString(buf, v)
		case bool:
			buf.WriteString(strconv.FormatBool(v))
		case Number:
			if gjson.Valid(string(v)) {
				buf.WriteString(string(v))
			} else {
				writeJSONString(buf, string(v))
			}
		default:
			buf.WriteString("null")
		}
	}
}

func writeJSONString(buf *bytes.Buffer, s string) {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	buf.Write(bytes.TrimRight(tmp.Bytes(), "\n"))
}
