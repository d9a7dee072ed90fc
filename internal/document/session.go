package document

import (
	"fmt"
	"time"

	"github.com/mariov96/session-continuity-framework-sub000/pkg/types"
)

// ReadSession returns the session marker stored in the structured document
func ReadSession(p Paths) (types.SessionMarker, error) {
	doc, err := LoadStructured(p.Structured())
	if err != nil {
		return types.SessionMarker{}, err
	}
	return doc.SessionMarker(), nil
}

// ClaimSession marks writer as the active session. The claim only succeeds
// when the stored revision still equals expectedRevision; otherwise another
// writer got there first and types.ErrStaleSession is returned.
func ClaimSession(p Paths, writer string, expectedRevision int64, staleAfter time.Duration) (types.SessionMarker, error) {
	return updateSession(p, expectedRevision, staleAfter, func(m types.SessionMarker) types.SessionMarker {
		m.LastWriter = writer
		m.Active = true
		return m
	})
}

// ReleaseSession clears the active flag when writer still holds the session
func ReleaseSession(p Paths, writer string, expectedRevision int64, staleAfter time.Duration) (types.SessionMarker, error) {
	return updateSession(p, expectedRevision, staleAfter, func(m types.SessionMarker) types.SessionMarker {
		if m.LastWriter == writer {
			m.Active = false
		}
		return m
	})
}

func updateSession(p Paths, expected int64, staleAfter time.Duration, apply func(types.SessionMarker) types.SessionMarker) (types.SessionMarker, error) {
	lock, err := AcquireLock(p, staleAfter)
	if err != nil {
		return types.SessionMarker{}, err
	}
	defer lock.Release()

	doc, err := LoadStructured(p.Structured())
	if err != nil {
		return types.SessionMarker{}, err
	}
	current := doc.SessionMarker()
	if current.Revision != expected {
		return current, fmt.Errorf("%w: expected revision %d, found %d (last writer %q)",
			types.ErrStaleSession, expected, current.Revision, current.LastWriter)
	}

	next := apply(current)
	next.Revision = current.Revision + 1
	next.LastModified = time.Now().UTC()

	updated, err := doc.WithSessionMarker(next)
	if err != nil {
		return current, err
	}
	if err := updated.Save(); err != nil {
		return current, err
	}
	return next, nil
}
