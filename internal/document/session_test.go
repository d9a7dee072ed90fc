package document

import (
	"errors"
	"testing"
	"time"

	"github.com/mariov96/session-continuity-framework-sub000/pkg/types"
)

func TestClaimSession(t *testing.T) {
	t.Parallel()
	p := writeProject(t, t.TempDir(), `{"status":"ok"}`, "")

	marker, err := ReadSession(p)
	if err != nil {
		t.Fatalf("ReadSession failed: %v", err)
	}
	if marker.Revision != 0 || marker.Active {
		t.Fatalf("Expected zero marker, got %+v", marker)
	}

	claimed, err := ClaimSession(p, "alice", 0, time.Minute)
	if err != nil {
		t.Fatalf("ClaimSession failed: %v", err)
	}
	if claimed.Revision != 1 || !claimed.Active || claimed.LastWriter != "alice" {
		t.Errorf("unexpected claim %+v", claimed)
	}

	// bob read revision 0 before alice claimed
	if _, err := ClaimSession(p, "bob", 0, time.Minute); !errors.Is(err, types.ErrStaleSession) {
		t.Errorf("Expected ErrStaleSession, got %v", err)
	}

	released, err := ReleaseSession(p, "alice", 1, time.Minute)
	if err != nil {
		t.Fatalf("ReleaseSession failed: %v", err)
	}
	if released.Active || released.Revision != 2 {
		t.Errorf("unexpected release %+v", released)
	}

	stored, _ := ReadSession(p)
	if stored.Revision != 2 || stored.LastWriter != "alice" {
		t.Errorf("unexpected stored marker %+v", stored)
	}

	doc, _ := LoadStructured(p.Structured())
	if v, ok := doc.Get("status"); !ok || v.Value != "ok" {
		t.Error("Expected content keys to survive session updates")
	}
}
