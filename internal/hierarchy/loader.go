package hierarchy

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/mariov96/session-continuity-framework-sub000/internal/tree"
	"github.com/mariov96/session-continuity-framework-sub000/pkg/types"
)

// Source names where one level lives on disk
type Source struct {
	Level Level
	Path  string
}

// LoadLevels reads each source into a Node. Missing files become absent
// levels and malformed files are dropped; both are reported as warnings and
// never stop the remaining sources from loading.
func LoadLevels(sources []Source) ([]Node, []error) {
	var (
		nodes    []Node
		warnings []error
	)

	for _, src := range sources {
		path := expandHome(src.Path)
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				nodes = append(nodes, Node{Level: src.Level, Path: path})
				continue
			}
			warnings = append(warnings, &types.ParseError{Source: path, Err: err})
			continue
		}

		var root *tree.Node
		if strings.EqualFold(filepath.Ext(path), ".json") {
			root, err = tree.ParseJSON(data)
		} else {
			root, err = tree.ParseYAML(data)
		}
		if err != nil {
			warnings = append(warnings, &types.ParseError{Source: path, Err: err})
			continue
		}
		nodes = append(nodes, Node{Level: src.Level, Data: root, Path: path})
	}

	return nodes, warnings
}

// LoadAndResolve loads sources and resolves them, folding load warnings into
// the result.
func LoadAndResolve(sources []Source) Resolved {
	nodes, warnings := LoadLevels(sources)
	res := Resolve(nodes)
	res.Warnings = append(warnings, res.Warnings...)
	return res
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
