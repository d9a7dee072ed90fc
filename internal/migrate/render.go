package migrate

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/mariov96/session-continuity-framework-sub000/internal/document"
	"github.com/mariov96/session-continuity-framework-sub000/internal/tree"
	"github.com/mariov96/session-continuity-framework-sub000/pkg/types"
)

// targetName is the key or section title an item will occupy after moving.
// A section that was once a structured key goes back under that key.
func targetName(s *document.StructuredDocument, it types.ContentItem) string {
	if it.Origin == types.OriginStructured {
		return document.TitleFromKey(it.Location)
	}
	if moved, ok := s.MovedKey(it.Location); ok {
		return moved.Key
	}
	return document.KeyFromTitle(it.Location)
}

// render computes both documents after moving m, without touching disk.
// The target is checked first: an existing different value is a conflict,
// an identical one means only the source copy is removed.
func render(s *document.StructuredDocument, n *document.NarrativeDocument, m Move) (*document.StructuredDocument, *document.NarrativeDocument, error) {
	if m.From == types.OriginStructured {
		return toNarrative(s, n, m)
	}
	return toStructured(s, n, m)
}

func toNarrative(s *document.StructuredDocument, n *document.NarrativeDocument, m Move) (*document.StructuredDocument, *document.NarrativeDocument, error) {
	value, ok := s.Get(m.Item.Location)
	if !ok {
		return nil, nil, fmt.Errorf("item %q: key %q no longer in %s", m.Item.Name, m.Item.Location, s.Path)
	}
	text := document.NodeToSectionText(value)

	nextN := n
	existing, found := n.Section(m.Target)
	switch {
	case !found || existing.Text() == "":
		nextN = n.WithSection(m.Target, text)
	case existing.Text() == text:
		// already present, only drop the source
	default:
		return nil, nil, &types.MigrationConflictError{
			Item:     m.Item.Name,
			Target:   types.OriginNarrative,
			Location: existing.Title,
			Existing: existing.Text(),
			Incoming: text,
		}
	}

	index := s.IndexOf(m.Item.Location)
	nextS, err := s.Without(m.Item.Location)
	if err == nil {
		nextS, err = nextS.WithMovedKey(m.Target, document.MovedKey{Key: m.Item.Location, Index: index})
	}
	if err != nil {
		return nil, nil, fmt.Errorf("item %q: %w", m.Item.Name, err)
	}
	return nextS, nextN, nil
}

func toStructured(s *document.StructuredDocument, n *document.NarrativeDocument, m Move) (*document.StructuredDocument, *document.NarrativeDocument, error) {
	section, ok := n.Section(m.Item.Location)
	if !ok {
		return nil, nil, fmt.Errorf("item %q: section no longer in %s", m.Item.Name, n.Path)
	}
	if m.Target == "" || document.IsReservedKey(m.Target, nil) {
		return nil, nil, fmt.Errorf("item %q: cannot derive a usable key from the section title", m.Item.Name)
	}
	value := document.SectionTextToNode(section.Text())

	index := -1
	if moved, ok := s.MovedKey(section.Title); ok && moved.Key == m.Target {
		index = moved.Index
	}

	nextS := s
	existing, found := s.Get(m.Target)
	switch {
	case !found || isEmpty(existing):
		var err error
		if nextS, err = s.WithAt(m.Target, value, index); err != nil {
			return nil, nil, fmt.Errorf("item %q: %w", m.Item.Name, err)
		}
	case existing.Equal(value):
		// already present, only drop the source
	default:
		return nil, nil, &types.MigrationConflictError{
			Item:     m.Item.Name,
			Target:   types.OriginStructured,
			Location: m.Target,
			Existing: string(existing.CompactJSON()),
			Incoming: string(value.CompactJSON()),
		}
	}

	nextS, err := nextS.WithoutMovedKey(section.Title)
	if err != nil {
		return nil, nil, fmt.Errorf("item %q: %w", m.Item.Name, err)
	}
	return nextS, n.Without(m.Item.Location), nil
}

// isEmpty reports whether a structured value is a placeholder that may be
// filled by a move: null, "", [] or {}.
func isEmpty(v *tree.Node) bool {
	switch v.Kind {
	case tree.KindMap, tree.KindArray:
		return v.Len() == 0
	}
	if v.Value == nil {
		return true
	}
	str, ok := v.Str()
	return ok && str == ""
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
