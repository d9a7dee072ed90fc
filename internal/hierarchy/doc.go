// Package hierarchy resolves a configuration inheritance chain.
//
// A chain is an ordered list of levels, most specific first:
//
//	private > local > project > org > global
//
// Resolve deep-merges the levels into one effective mapping. For every key the
// most specific level that defines it wins. Nested mappings merge key by key;
// arrays and scalars are replaced wholesale by the winning level, so there is
// never an element-wise list merge.
//
// Resolve is a pure function. It never mutates its inputs, keeps no global
// state, and fails open: a malformed level is skipped and reported as a
// warning alongside the merge of the remaining levels.
//
// # Usage
//
//	nodes, warnings := hierarchy.LoadLevels([]hierarchy.Source{
//	    {Level: hierarchy.LevelProject, Path: ".scf/config.yaml"},
//	    {Level: hierarchy.LevelGlobal, Path: "~/.scf/config.yaml"},
//	})
//	resolved := hierarchy.Resolve(nodes)
//	theme, _ := resolved.Root.Get("theme")
//	fmt.Println(resolved.Origin("theme")) // project
package hierarchy
