package testutil

import (
	"path/filepath"
	"testing"
)

// Buildstate is a pair of document bodies. An empty body means the file is
// not written.
type Buildstate struct {
	Structured string
	Narrative  string
}

// MisplacedVision is prose that belongs in the narrative document.
const MisplacedVision = "Our mission is to empower every writer to tell their story. " +
	"We believe in a future where ideas travel freely and inspire people."

// MisplacedProject has a vision statement in the structured document and an
// endpoint list in the narrative document.
func MisplacedProject() Buildstate {
	return Buildstate{
		Structured: `{
  "_session_state": {
    "last_writer": "fixture",
    "revision": 0
  },
  "project_name": "inkwell",
  "status": "active",
  "project_vision": "` + MisplacedVision + `",
  "decisions": [
    {"id": "D-1", "title": "Use SQLite for local storage"}
  ]
}
`,
		Narrative: `# Inkwell

Context for assistants picking up this project.

## Background

Writers kept losing drafts between tools, which is why the team started
this journey and the story behind the product.

## API Endpoints

- GET /users
- POST /users
`,
	}
}

// BalancedProject keeps every item in its home document.
func BalancedProject() Buildstate {
	return Buildstate{
		Structured: `{
  "project_name": "ledgerly",
  "status": "active",
  "version": "1.4.2",
  "build_command": "go build ./...",
  "next_steps": ["ship v1.5"]
}
`,
		Narrative: `# Ledgerly

## Vision

Our vision is a future where every community can keep honest books.

## Motivation

The motivation and rationale come from the people we interviewed.
`,
	}
}

// WriteBuildstate writes the documents of b into dir.
func WriteBuildstate(t testing.TB, dir string, b Buildstate) {
	t.Helper()
	if b.Structured != "" {
		WriteFile(t, filepath.Join(dir, "buildstate.json"), b.Structured)
	}
	if b.Narrative != "" {
		WriteFile(t, filepath.Join(dir, "buildstate.md"), b.Narrative)
	}
}

// SetupProject writes b into the environment's project directory.
func (e *TestEnv) SetupProject(b Buildstate) {
	e.t.Helper()
	WriteBuildstate(e.t, e.ProjectDir, b)
}

// NewProject writes b into a fresh temp directory and returns its path.
func NewProject(t testing.TB, b Buildstate) string {
	t.Helper()
	dir := t.TempDir()
	WriteBuildstate(t, dir, b)
	return dir
}
