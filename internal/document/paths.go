package document

import "path/filepath"

const (
	StructuredFile = "buildstate.json"
	NarrativeFile  = "buildstate.md"
	StateDirName   = ".scf"
	ArchiveDirName = "archive"
	LockFileName   = "rebalance.lock"
)

// Paths locates the files belonging to one project
type Paths struct {
	Root string

	// ArchiveDir overrides the backup location. Relative paths are resolved
	// against Root.
	ArchiveDir string
}

// ProjectPaths returns the default layout for a project directory
func ProjectPaths(root string) Paths {
	return Paths{Root: root}
}

func (p Paths) Structured() string { return filepath.Join(p.Root, StructuredFile) }
func (p Paths) Narrative() string  { return filepath.Join(p.Root, NarrativeFile) }
func (p Paths) StateDir() string   { return filepath.Join(p.Root, StateDirName) }
func (p Paths) LockFile() string   { return filepath.Join(p.StateDir(), LockFileName) }

// Archive returns the backup directory
func (p Paths) Archive() string {
	switch {
	case p.ArchiveDir == "":
		return filepath.Join(p.StateDir(), ArchiveDirName)
	case filepath.IsAbs(p.ArchiveDir):
		return p.ArchiveDir
	default:
		return filepath.Join(p.Root, p.ArchiveDir)
	}
}
