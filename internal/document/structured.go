package document

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/mariov96/session-continuity-framework-sub000/internal/tree"
	"github.com/mariov96/session-continuity-framework-sub000/pkg/types"
)

const (
	SessionStateKey = "_session_state"
	MetadataKey     = "_scf_metadata"
	ChangeLogKey    = "change_log"
)

// DomainArrays are the structured document's schema arrays
var DomainArrays = []string{"decisions", "features", "next_steps", "bugs"}

// IsReservedKey reports whether a top-level key is excluded from
// classification and migration. pinned lists extra keys from configuration.
func IsReservedKey(key string, pinned []string) bool {
	if strings.HasPrefix(key, "_") || key == ChangeLogKey {
		return true
	}
	for _, k := range DomainArrays {
		if k == key {
			return true
		}
	}
	for _, k := range pinned {
		if k == key {
			return true
		}
	}
	return false
}

// StructuredDocument is a parsed buildstate.json. Values are immutable:
// every edit returns a new document and leaves the receiver untouched.
type StructuredDocument struct {
	Path   string
	raw    []byte
	root   *tree.Node
	exists bool
}

// NewStructured returns an empty document that does not exist on disk yet
func NewStructured(path string) *StructuredDocument {
	return &StructuredDocument{Path: path, raw: []byte("{}\n"), root: tree.NewMap()}
}

// LoadStructured reads path. A missing file yields an empty document; a
// malformed one yields a *types.ParseError.
func LoadStructured(path string) (*StructuredDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return NewStructured(path), nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	doc, err := ParseStructured(path, data)
	if err != nil {
		return nil, err
	}
	doc.exists = true
	return doc, nil
}

// ParseStructured parses raw JSON; the top level must be an object
func ParseStructured(path string, data []byte) (*StructuredDocument, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		doc := NewStructured(path)
		return doc, nil
	}
	root, err := tree.ParseJSON(data)
	if err != nil {
		return nil, &types.ParseError{Source: path, Err: err}
	}
	if !root.IsMap() {
		return nil, &types.ParseError{Source: path, Msg: fmt.Sprintf("top level must be an object, got %s", root.Kind)}
	}
	return &StructuredDocument{Path: path, raw: data, root: root}, nil
}

// Exists reports whether the document was read from disk
func (d *StructuredDocument) Exists() bool { return d.exists }

// Bytes returns the document text
func (d *StructuredDocument) Bytes() []byte { return d.raw }

// Root returns the parsed tree. Callers must not modify it.
func (d *StructuredDocument) Root() *tree.Node { return d.root }

// Get returns a top-level value
func (d *StructuredDocument) Get(key string) (*tree.Node, bool) {
	return d.root.Get(key)
}

// ContentKeys returns the top-level keys that hold content items
func (d *StructuredDocument) ContentKeys(pinned []string) []string {
	var keys []string
	for _, k := range d.root.Keys() {
		if !IsReservedKey(k, pinned) {
			keys = append(keys, k)
		}
	}
	return keys
}

// Without returns a copy of the document with key removed
func (d *StructuredDocument) Without(key string) (*StructuredDocument, error) {
	if _, ok := d.root.Get(key); !ok {
		return d, nil
	}
	raw, err := sjson.DeleteBytes(d.raw, escapeKey(key))
	if err != nil {
		next := d.root.Clone()
		next.Delete(key)
		raw = next.JSON()
	}
	return d.reparse(raw)
}

// With returns a copy of the document with key set to value. An existing
// key is replaced in place; a new one is appended after the existing ones.
func (d *StructuredDocument) With(key string, value *tree.Node) (*StructuredDocument, error) {
	return d.WithAt(key, value, -1)
}

// WithAt is With, except that a new key is inserted at position index
// among the top-level keys. Only the edited field is rewritten; the rest of
// the text, including its indentation, is kept as it was.
func (d *StructuredDocument) WithAt(key string, value *tree.Node, index int) (*StructuredDocument, error) {
	o := scanObject(d.raw)
	if _, ok := d.root.Get(key); !ok {
		return d.reparse(o.insert(d.raw, key, value, index))
	}
	raw, err := sjson.SetRawBytes(d.raw, escapeKey(key), o.value(value))
	if err != nil {
		next := d.root.Clone()
		next.Set(key, value.Clone())
		raw = next.JSON()
	}
	return d.reparse(raw)
}

// IndexOf returns the position of a top-level key, or -1
func (d *StructuredDocument) IndexOf(key string) int {
	for i, k := range d.root.Keys() {
		if k == key {
			return i
		}
	}
	return -1
}

// ChangeLog returns the entries recorded in change_log, oldest first
func (d *StructuredDocument) ChangeLog() []types.ChangeLogEntry {
	log := gjson.GetBytes(d.raw, ChangeLogKey)
	if !log.IsArray() {
		return nil
	}
	var entries []types.ChangeLogEntry
	log.ForEach(func(_, v gjson.Result) bool {
		ts, _ := time.Parse(time.RFC3339, v.Get("date").String())
		entries = append(entries, types.ChangeLogEntry{
			Timestamp:         ts,
			Description:       v.Get("description").String(),
			ScoreBefore:       v.Get("score_before").Float(),
			ScoreAfter:        v.Get("balance_score").Float(),
			BackupReference:   v.Get("backup").String(),
			MovedToStructured: int(v.Get("moved_to_structured").Int()),
			MovedToNarrative:  int(v.Get("moved_to_narrative").Int()),
			Source:            v.Get("source").String(),
		})
		return true
	})
	return entries
}

// AppendChangeLog returns a copy with entry appended to change_log
func (d *StructuredDocument) AppendChangeLog(e types.ChangeLogEntry) (*StructuredDocument, error) {
	entry := tree.NewMap()
	entry.Set("date", tree.String(e.Timestamp.UTC().Format(time.RFC3339)))
	entry.Set("description", tree.String(e.Description))
	entry.Set("balance_score", tree.Float(round(e.ScoreAfter)))
	entry.Set("score_before", tree.Float(round(e.ScoreBefore)))
	entry.Set("moved_to_structured", tree.Int(int64(e.MovedToStructured)))
	entry.Set("moved_to_narrative", tree.Int(int64(e.MovedToNarrative)))
	entry.Set("source", tree.String(sourceOrDefault(e.Source)))
	if e.BackupReference != "" {
		entry.Set("backup", tree.String(e.BackupReference))
	}

	existing, ok := d.root.Get(ChangeLogKey)
	switch {
	case !ok:
		return d.With(ChangeLogKey, tree.NewArray(entry))
	case existing.IsArray():
		log := existing.Clone()
		log.Items = append(log.Items, entry)
		return d.With(ChangeLogKey, log)
	default:
		return nil, &types.ParseError{Source: d.Path, Msg: ChangeLogKey + " must be an array"}
	}
}

// SessionMarker returns the optimistic-concurrency marker
func (d *StructuredDocument) SessionMarker() types.SessionMarker {
	state := gjson.GetBytes(d.raw, SessionStateKey)
	if !state.IsObject() {
		return types.SessionMarker{}
	}
	ts, _ := time.Parse(time.RFC3339Nano, state.Get("last_modified").String())
	return types.SessionMarker{
		LastWriter:   state.Get("last_writer").String(),
		LastModified: ts,
		Active:       state.Get("active").Bool(),
		Revision:     state.Get("revision").Int(),
	}
}

// WithSessionMarker returns a copy with the marker fields of _session_state
// replaced. Other fields under _session_state are kept.
func (d *StructuredDocument) WithSessionMarker(m types.SessionMarker) (*StructuredDocument, error) {
	state := tree.NewMap()
	if existing, ok := d.root.Get(SessionStateKey); ok && existing.IsMap() {
		state = existing.Clone()
	}
	state.Set("last_writer", tree.String(m.LastWriter))
	state.Set("last_modified", tree.String(m.LastModified.UTC().Format(time.RFC3339Nano)))
	state.Set("active", tree.Bool(m.Active))
	state.Set("revision", tree.Int(m.Revision))
	return d.With(SessionStateKey, state)
}

// Save writes the document atomically
func (d *StructuredDocument) Save() error {
	return writeFileAtomic(d.Path, d.raw)
}

func (d *StructuredDocument) reparse(raw []byte) (*StructuredDocument, error) {
	if !bytes.HasSuffix(raw, []byte("\n")) {
		raw = append(raw, '\n')
	}
	next, err := ParseStructured(d.Path, raw)
	if err != nil {
		return nil, err
	}
	next.exists = d.exists
	return next, nil
}

func escapeKey(key string) string {
	esc := gjson.Escape(key)
	if strings.HasPrefix(esc, ":") {
		esc = `\` + esc
	}
	return esc
}

func sourceOrDefault(s string) string {
	if s == "" {
		return types.ChangeLogSource
	}
	return s
}

func round(f float64) float64 {
	return float64(int64(f*1000+0.5)) / 1000
}
