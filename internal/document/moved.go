package document

import (
	"strconv"

	"github.com/mariov96/session-continuity-framework-sub000/internal/tree"
)

// movedKeysField holds, under _scf_metadata, where each key that moved to
// the narrative document used to live, keyed by section title.
const movedKeysField = "moved_keys"

// MovedKey is the original name and position of a key that left the
// structured document
type MovedKey struct {
	Key   string
	Index int
}

// MovedKey returns the recorded origin of the narrative section title
func (d *StructuredDocument) MovedKey(title string) (MovedKey, bool) {
	moved, ok := d.root.Lookup(MetadataKey, movedKeysField)
	if !ok || !moved.IsMap() {
		return MovedKey{}, false
	}
	want := normalizeTitle(title)
	for _, f := range moved.Fields {
		if normalizeTitle(f.Key) != want || !f.Value.IsMap() {
			continue
		}
		key, _ := f.Value.Get("key")
		name, ok := key.Str()
		if !ok || name == "" {
			return MovedKey{}, false
		}
		m := MovedKey{Key: name, Index: -1}
		if idx, ok := f.Value.Get("index"); ok {
			if lit, ok := idx.Value.(tree.Number); ok {
				if n, err := strconv.Atoi(string(lit)); err == nil {
					m.Index = n
				}
			}
		}
		return m, true
	}
	return MovedKey{}, false
}

// WithMovedKey returns a copy recording that title came from m
func (d *StructuredDocument) WithMovedKey(title string, m MovedKey) (*StructuredDocument, error) {
	meta := d.metadata()
	moved, ok := meta.Get(movedKeysField)
	if !ok || !moved.IsMap() {
		moved = tree.NewMap()
	}
	dropTitle(moved, title)
	origin := tree.NewMap()
	origin.Set("key", tree.String(m.Key))
	origin.Set("index", tree.Int(int64(m.Index)))
	moved.Set(title, origin)
	meta.Set(movedKeysField, moved)
	return d.With(MetadataKey, meta)
}

// WithoutMovedKey returns a copy with the record for title removed. An
// _scf_metadata left empty is removed too.
func (d *StructuredDocument) WithoutMovedKey(title string) (*StructuredDocument, error) {
	if _, ok := d.MovedKey(title); !ok {
		return d, nil
	}
	meta := d.metadata()
	moved, _ := meta.Get(movedKeysField)
	dropTitle(moved, title)
	if moved.Len() == 0 {
		meta.Delete(movedKeysField)
	}
	if meta.Len() == 0 {
		return d.Without(MetadataKey)
	}
	return d.With(MetadataKey, meta)
}

func (d *StructuredDocument) metadata() *tree.Node {
	if meta, ok := d.root.Get(MetadataKey); ok && meta.IsMap() {
		return meta.Clone()
	}
	return tree.NewMap()
}

func dropTitle(moved *tree.Node, title string) {
	want := normalizeTitle(title)
	for _, k := range moved.Keys() {
		if normalizeTitle(k) == want {
			moved.Delete(k)
		}
	}
}
