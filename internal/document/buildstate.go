package document

import (
	"errors"
	"fmt"

	"github.com/mariov96/session-continuity-framework-sub000/pkg/types"
)

// Buildstate is the pair of documents belonging to one project
type Buildstate struct {
	Paths      Paths
	Structured *StructuredDocument
	Narrative  *NarrativeDocument
}

// Load reads both documents. A missing document is empty; a malformed one
// is replaced by an empty document and reported in warnings, so read-only
// callers can still work with the other half. err is set only when neither
// document exists or a file cannot be read.
func Load(p Paths) (*Buildstate, []error, error) {
	var warnings []error
	bs := &Buildstate{Paths: p}

	sdoc, err := LoadStructured(p.Structured())
	if err != nil {
		var perr *types.ParseError
		if !errors.As(err, &perr) {
			return nil, nil, err
		}
		warnings = append(warnings, err)
		sdoc = NewStructured(p.Structured())
		sdoc.exists = true
	}
	bs.Structured = sdoc

	ndoc, err := LoadNarrative(p.Narrative())
	if err != nil {
		var perr *types.ParseError
		if !errors.As(err, &perr) {
			return nil, nil, err
		}
		warnings = append(warnings, err)
		ndoc = NewNarrative(p.Narrative())
		ndoc.exists = true
	}
	bs.Narrative = ndoc

	if !sdoc.Exists() && !ndoc.Exists() {
		return nil, nil, fmt.Errorf("%w in %s", types.ErrNoBuildstate, p.Root)
	}
	return bs, warnings, nil
}

// HasBuildstate reports whether dir holds either document
func HasBuildstate(dir string) bool {
	p := ProjectPaths(dir)
	return fileExists(p.Structured()) || fileExists(p.Narrative())
}
