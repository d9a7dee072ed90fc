package ledger

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/mariov96/session-continuity-framework-sub000/pkg/types"
)

func openTest(t *testing.T) *Ledger {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "nested", "ledger.db"), nil)
	if err != nil {
		t.Fatalf("Failed to open ledger: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func TestRecordSummary(t *testing.T) {
	t.Parallel()
	l := openTest(t)

	summary := &types.EcosystemSummary{
		RunID:     "run-1",
		StartedAt: time.Now(),
		MeanScore: 0.75,
		Projects: []types.ProjectResult{
			{
				ProjectPath: "/work/a",
				Report:      &types.BalanceReport{Score: 0.5, Bucket: types.BucketNeedsRebalance, Classified: 4, MisplacedItems: make([]types.ContentItem, 2)},
				Change:      &types.ChangeLogEntry{ScoreAfter: 1, MovedToStructured: 1, MovedToNarrative: 1, BackupReference: ".scf/archive/buildstate-20261019T101530Z"},
			},
			{ProjectPath: "/work/b", Report: &types.BalanceReport{Score: 1, Bucket: types.BucketBalanced, Classified: 3}},
			{ProjectPath: "/work/c", Err: "no buildstate documents found"},
		},
	}
	if err := l.RecordSummary(summary); err != nil {
		t.Fatalf("RecordSummary failed: %v", err)
	}

	all, err := l.History("", 10)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(all))
	}

	a, err := l.History("/work/a", 10)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(a) != 1 {
		t.Fatalf("Expected 1 record for /work/a, got %d", len(a))
	}
	got := a[0]
	if got.RunID != "run-1" || got.Score != 0.5 || got.ScoreAfter != 1 || got.Misplaced != 2 ||
		got.MovedToStructured != 1 || got.MovedToNarrative != 1 || got.Backup == "" || got.Bucket != "needs-rebalance" {
		t.Errorf("unexpected record %+v", got)
	}
	if got.RecordedAt.IsZero() {
		t.Error("Expected recorded_at to be parsed")
	}

	c, _ := l.History("/work/c", 10)
	if len(c) != 1 || c[0].Error == "" || c[0].Bucket != "" {
		t.Errorf("unexpected failure record %+v", c)
	}
}

func TestRecordProjectAndLimit(t *testing.T) {
	t.Parallel()
	l := openTest(t)

	for i, id := range []string{"r1", "r2", "r3"} {
		res := types.ProjectResult{
			ProjectPath: "/work/a",
			Report:      &types.BalanceReport{Score: float64(i) / 2, Bucket: types.BucketFor(float64(i) / 2)},
		}
		if err := l.RecordProject(id, KindAnalyze, res); err != nil {
			t.Fatalf("RecordProject failed: %v", err)
		}
	}

	records, err := l.History("/work/a", 2)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected limit to apply, got %d records", len(records))
	}
	if records[0].RunID != "r3" || records[1].RunID != "r2" {
		t.Errorf("Expected newest first, got %s, %s", records[0].RunID, records[1].RunID)
	}
}

func TestRecordProjectDuplicateRun(t *testing.T) {
	t.Parallel()
	l := openTest(t)

	res := types.ProjectResult{ProjectPath: "/work/a"}
	if err := l.RecordProject("dup", KindRebalance, res); err != nil {
		t.Fatalf("RecordProject failed: %v", err)
	}
	if err := l.RecordProject("dup", KindRebalance, res); err == nil {
		t.Error("Expected duplicate run id to fail")
	}

	records, _ := l.History("/work/a", 10)
	if len(records) != 1 {
		t.Errorf("Expected failed transaction to roll back, got %d records", len(records))
	}
}
