package hierarchy

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mariov96/session-continuity-framework-sub000/internal/tree"
	"github.com/mariov96/session-continuity-framework-sub000/pkg/types"
)

// Level names one rung of the inheritance chain
type Level string

const (
	LevelPrivate Level = "private"
	LevelLocal   Level = "local"
	LevelProject Level = "project"
	LevelOrg     Level = "org"
	LevelGlobal  Level = "global"
)

// Levels lists every level from highest to lowest precedence
var Levels = []Level{LevelPrivate, LevelLocal, LevelProject, LevelOrg, LevelGlobal}

// Rank returns the precedence of a level, 0 being the highest. Unknown levels
// report ok=false.
func (l Level) Rank() (int, bool) {
	for i, lv := range Levels {
		if lv == l {
			return i, true
		}
	}
	return 0, false
}

// ParseLevel validates a level name
func ParseLevel(s string) (Level, error) {
	l := Level(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := l.Rank(); !ok {
		return "", fmt.Errorf("unknown inheritance level %q", s)
	}
	return l, nil
}

// Node is one configuration level. A nil Data means the level is absent.
type Node struct {
	Level Level
	Data  *tree.Node
	Path  string
}

// Resolved is the effective configuration of a chain
type Resolved struct {
	Root     *tree.Node
	Warnings []error

	origins map[string]Level
}

// Origin returns the level that supplied the value at a dotted path. Paths
// that name a merged mapping report the most specific level contributing to
// it.
func (r Resolved) Origin(path string) (Level, bool) {
	l, ok := r.origins[path]
	return l, ok
}

// Origins returns a copy of the provenance index, keyed by dotted path
func (r Resolved) Origins() map[string]Level {
	out := make(map[string]Level, len(r.origins))
	for k, v := range r.origins {
		out[k] = v
	}
	return out
}

// Resolve merges nodes into one mapping. Nodes are expected highest
// precedence first; they are stably re-sorted by level rank so the
// precedence law holds for any input order. Inputs are never modified.
func Resolve(nodes []Node) Resolved {
	res := Resolved{Root: tree.NewMap(), origins: map[string]Level{}}

	valid := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		if _, ok := n.Level.Rank(); !ok {
			res.Warnings = append(res.Warnings, &types.ParseError{
				Source: describe(n),
				Msg:    fmt.Sprintf("unknown inheritance level %q", n.Level),
			})
			continue
		}
		if n.Data == nil {
			res.Warnings = append(res.Warnings, &types.MissingLevelError{Level: string(n.Level), Path: n.Path})
			continue
		}
		if !n.Data.IsMap() {
			res.Warnings = append(res.Warnings, &types.ParseError{
				Source: describe(n),
				Msg:    fmt.Sprintf("top level must be a mapping, got %s", n.Data.Kind),
			})
			continue
		}
		valid = append(valid, n)
	}

	sort.SliceStable(valid, func(i, j int) bool {
		ri, _ := valid[i].Level.Rank()
		rj, _ := valid[j].Level.Rank()
		return ri < rj
	})

	// Apply lowest precedence first so each higher level overlays the result.
	for i := len(valid) - 1; i >= 0; i-- {
		overlay(res.Root, valid[i].Data, valid[i].Level, "", res.origins)
	}

	return res
}

// overlay merges src into dst in place. dst is always a private copy built
// by Resolve; src is only read and cloned.
func overlay(dst, src *tree.Node, level Level, prefix string, origins map[string]Level) {
	for _, f := range src.Fields {
		path := joinPath(prefix, f.Key)
		existing, ok := dst.Get(f.Key)
		if ok && existing.IsMap() && f.Value.IsMap() {
			origins[path] = level
			overlay(existing, f.Value, level, path, origins)
			continue
		}
		if ok {
			dropOrigins(origins, path)
		}
		dst.Set(f.Key, f.Value.Clone())
		record(origins, f.Value, level, path)
	}
}

func record(origins map[string]Level, n *tree.Node, level Level, path string) {
	origins[path] = level
	if !n.IsMap() {
		return
	}
	for _, f := range n.Fields {
		record(origins, f.Value, level, joinPath(path, f.Key))
	}
}

// dropOrigins forgets provenance under a path whose value is being replaced
func dropOrigins(origins map[string]Level, path string) {
	prefix := path + "."
	for k := range origins {
		if k == path || strings.HasPrefix(k, prefix) {
			delete(origins, k)
		}
	}
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

func describe(n Node) string {
	if n.Path != "" {
		return fmt.Sprintf("%s level (%s)", n.Level, n.Path)
	}
	return fmt.Sprintf("%s level", n.Level)
}
