package document

import (
	"bytes"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"

	"github.com/mariov96/session-continuity-framework-sub000/internal/tree"
)

// object locates the top-level fields of a structured document and the
// whitespace it uses between them, so new fields can be spliced in without
// touching the rest of the text.
type object struct {
	open, close int // offsets of the outer braces
	fields      []span

	sep    string // whitespace before each key
	colon  string // between a key and its value
	indent string // leading whitespace of a top-level key
	pretty bool
}

// span is a field from the start of its key to the end of its value
type span struct {
	start, end int
}

func scanObject(raw []byte) object {
	obj := gjson.ParseBytes(raw)
	o := object{
		open:   len(raw) - len(obj.Raw),
		close:  bytes.LastIndexByte(raw, '}'),
		sep:    "\n  ",
		colon:  ": ",
		indent: "  ",
		pretty: true,
	}
	obj.ForEach(func(k, v gjson.Result) bool {
		start, end := o.open+k.Index, o.open+v.Index+len(v.Raw)
		if len(o.fields) == 0 {
			o.sep = string(raw[o.open+1 : start])
			o.colon = string(raw[start+len(k.Raw) : o.open+v.Index])
		}
		o.fields = append(o.fields, span{start: start, end: end})
		return true
	})
	if len(o.fields) > 0 {
		o.pretty = strings.Contains(o.sep, "\n")
		o.indent = o.sep[strings.LastIndexByte(o.sep, '\n')+1:]
	}
	return o
}

// value encodes v to sit after a top-level key: compact in a compact
// document, otherwise indented one level below the key.
func (o object) value(v *tree.Node) []byte {
	compact := v.CompactJSON()
	if !o.pretty {
		return compact
	}
	unit := o.indent
	if unit == "" {
		unit = "  "
	}
	out := bytes.TrimRight(pretty.PrettyOptions(compact, &pretty.Options{Width: 80, Indent: unit}), "\n")
	return bytes.ReplaceAll(out, []byte("\n"), []byte("\n"+o.indent))
}

// insert returns raw with a new field at position index. An index outside
// the field list appends.
func (o object) insert(raw []byte, key string, v *tree.Node, index int) []byte {
	field := append(tree.String(key).CompactJSON(), o.colon...)
	field = append(field, o.value(v)...)

	var buf bytes.Buffer
	switch {
	case len(o.fields) == 0:
		buf.Write(raw[:o.open+1])
		buf.WriteString(o.sep)
		buf.Write(field)
		if o.pretty {
			buf.WriteByte('\n')
		}
		buf.Write(raw[o.close:])
	case index >= 0 && index < len(o.fields):
		at := o.fields[index].start
		buf.Write(raw[:at])
		buf.Write(field)
		buf.WriteByte(',')
		buf.WriteString(o.sep)
		buf.Write(raw[at:])
	default:
		at := o.fields[len(o.fields)-1].end
		buf.Write(raw[:at])
		buf.WriteByte(',')
		buf.WriteString(o.sep)
		buf.Write(field)
		buf.Write(raw[at:])
	}
	return buf.Bytes()
}
