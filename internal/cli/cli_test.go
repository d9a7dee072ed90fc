package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap/zapcore"

	"github.com/mariov96/session-continuity-framework-sub000/internal/config"
	"github.com/mariov96/session-continuity-framework-sub000/internal/document"
	"github.com/mariov96/session-continuity-framework-sub000/internal/hierarchy"
	"github.com/mariov96/session-continuity-framework-sub000/internal/migrate"
	"github.com/mariov96/session-continuity-framework-sub000/internal/testutil"
	"github.com/mariov96/session-continuity-framework-sub000/pkg/types"
)

func TestAnalyzeAndRebalanceCommands(t *testing.T) {
	// Cannot use t.Parallel() - modifies HOME env var
	env := testutil.SetupTestEnv(t)
	env.SetupProject(testutil.MisplacedProject())

	var out bytes.Buffer
	analyzeCmd.SetOut(&out)
	analyzeCmd.SetContext(context.Background())
	if err := runAnalyze(analyzeCmd, []string{env.ProjectDir}); err != nil {
		t.Fatalf("analyze failed: %v", err)
	}
	if !strings.Contains(out.String(), "0.50 (needs-rebalance)") {
		t.Errorf("Expected score line in output, got:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "project_vision") {
		t.Errorf("Expected project_vision listed as misplaced, got:\n%s", out.String())
	}

	out.Reset()
	rebalanceCmd.SetOut(&out)
	rebalanceCmd.SetContext(context.Background())
	if err := runRebalance(rebalanceCmd, []string{env.ProjectDir}); err != nil {
		t.Fatalf("rebalance failed: %v", err)
	}
	if !strings.Contains(out.String(), "Moved 2 item(s)") {
		t.Errorf("Expected two moves, got:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "Score: 0.50 -> 1.00") {
		t.Errorf("Expected score change, got:\n%s", out.String())
	}

	// Both runs land in the ledger under HOME
	if !env.FileExists(filepath.Join(env.GlobalDir, "ledger.db")) {
		t.Error("Expected ledger database to be created")
	}

	out.Reset()
	historyCmd.SetOut(&out)
	if err := runHistory(historyCmd, []string{env.ProjectDir}); err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if !strings.Contains(out.String(), "Recent runs (2)") {
		t.Errorf("Expected two ledger records, got:\n%s", out.String())
	}
}

func TestPrintResult(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	printResult(&out, &migrate.Result{ProjectPath: "/work/inkwell", AlreadyBalanced: true, ScoreBefore: 1})
	if got := out.String(); got != "/work/inkwell is already balanced (score 1.00)\n" {
		t.Errorf("Unexpected output: %q", got)
	}

	out.Reset()
	printResult(&out, &migrate.Result{
		DryRun: true,
		Moves: []migrate.Move{{
			Item:       types.ContentItem{Name: "project_vision"},
			From:       types.OriginStructured,
			To:         types.OriginNarrative,
			Target:     "Project Vision",
			Confidence: 1,
		}},
		ScoreBefore: 0.5,
		ScoreAfter:  0.75,
	})
	for _, want := range []string{"Would move 1 item(s)", `as "Project Vision"`, "Score: 0.50 -> 0.75"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("Expected %q in output:\n%s", want, out.String())
		}
	}
}

func TestParseLevelSources(t *testing.T) {
	t.Parallel()

	got, err := parseLevelSources([]string{"global=base.yaml", "Project=over.yaml"})
	if err != nil {
		t.Fatalf("parseLevelSources failed: %v", err)
	}
	want := []hierarchy.Source{
		{Level: hierarchy.LevelGlobal, Path: "base.yaml"},
		{Level: hierarchy.LevelProject, Path: "over.yaml"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("sources mismatch (-want +got):\n%s", diff)
	}

	for _, bad := range []string{"global", "global=", "team=x.yaml"} {
		if _, err := parseLevelSources([]string{bad}); err == nil {
			t.Errorf("Expected error for %q", bad)
		}
	}
}

func TestPrintResolved(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	base := filepath.Join(dir, "base.yaml")
	over := filepath.Join(dir, "over.yaml")
	testutil.WriteFile(t, base, "name: base\nlimits:\n  cpu: 1\n  mem: 2\n")
	testutil.WriteFile(t, over, "limits:\n  cpu: 4\n")

	sources, err := parseLevelSources([]string{"global=" + base, "project=" + over, "local=" + filepath.Join(dir, "missing.yaml")})
	if err != nil {
		t.Fatalf("parseLevelSources failed: %v", err)
	}
	res := hierarchy.LoadAndResolve(sources)

	var out, errOut bytes.Buffer
	if err := printResolved(&out, &errOut, res, true); err != nil {
		t.Fatalf("printResolved failed: %v", err)
	}

	want := "name: base\nlimits:\n    cpu: 4\n    mem: 2\n"
	if !strings.HasPrefix(out.String(), want) {
		t.Errorf("Expected resolved YAML prefix %q, got:\n%s", want, out.String())
	}
	if !strings.Contains(out.String(), "limits.cpu") || !strings.Contains(out.String(), "project") {
		t.Errorf("Expected origins listing, got:\n%s", out.String())
	}
	if errOut.Len() != 0 {
		t.Errorf("Expected missing levels to stay quiet, got: %s", errOut.String())
	}
}

func TestChangeSession(t *testing.T) {
	t.Parallel()
	dir := testutil.NewProject(t, testutil.MisplacedProject())
	p := document.ProjectPaths(dir)

	m, err := changeSession(p, "alice@laptop", -1, time.Minute, document.ClaimSession)
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if !m.Active || m.LastWriter != "alice@laptop" {
		t.Errorf("Expected active claim by alice, got %+v", m)
	}

	// A writer holding an old revision loses
	_, err = changeSession(p, "bob@desktop", m.Revision-1, time.Minute, document.ClaimSession)
	if !errors.Is(err, types.ErrStaleSession) {
		t.Fatalf("Expected ErrStaleSession, got %v", err)
	}

	released, err := changeSession(p, "alice@laptop", m.Revision, time.Minute, document.ReleaseSession)
	if err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if released.Active {
		t.Error("Expected session to be released")
	}

	var out bytes.Buffer
	if err := printSession(&out, released); err != nil {
		t.Fatalf("printSession failed: %v", err)
	}
	if !strings.Contains(out.String(), "State:    inactive") {
		t.Errorf("Unexpected output:\n%s", out.String())
	}
}

func TestRestoreBackup(t *testing.T) {
	t.Parallel()
	fixture := testutil.MisplacedProject()
	dir := testutil.NewProject(t, fixture)
	p := document.ProjectPaths(dir)

	ref, err := document.Snapshot(p, time.Date(2026, 10, 19, 10, 15, 30, 0, time.UTC))
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	testutil.WriteFile(t, p.Structured(), "{}\n")

	saved, err := restoreBackup(p, ref, time.Minute, time.Date(2026, 10, 19, 11, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("restoreBackup failed: %v", err)
	}
	if got := testutil.ReadFile(t, p.Structured()); got != fixture.Structured {
		t.Errorf("Expected restored buildstate.json, got:\n%s", got)
	}
	if saved != ".scf/archive/buildstate-20261019T110000Z" {
		t.Errorf("Expected the edited documents to be archived, got %q", saved)
	}
	if _, err := os.Stat(p.LockFile()); !os.IsNotExist(err) {
		t.Error("Expected lock to be released after restore")
	}

	backups, err := document.ListBackups(p)
	if err != nil {
		t.Fatalf("ListBackups failed: %v", err)
	}
	var out bytes.Buffer
	if err := printBackups(&out, backups); err != nil {
		t.Fatalf("printBackups failed: %v", err)
	}
	if !strings.Contains(out.String(), "buildstate-20261019T101530Z") {
		t.Errorf("Expected backup listed, got:\n%s", out.String())
	}
}

func TestNewLogger(t *testing.T) {
	t.Parallel()

	for _, format := range []string{"console", "json"} {
		l, err := newLogger(config.LogConfig{Level: "warn", Format: format}, false)
		if err != nil {
			t.Fatalf("newLogger(%s) failed: %v", format, err)
		}
		if l.Core().Enabled(zapcore.DebugLevel) {
			t.Errorf("Expected debug disabled at warn level for %s", format)
		}
	}

	l, err := newLogger(config.LogConfig{Level: "warn"}, true)
	if err != nil {
		t.Fatalf("newLogger failed: %v", err)
	}
	if !l.Core().Enabled(zapcore.DebugLevel) {
		t.Error("Expected --verbose to enable debug")
	}

	if _, err := newLogger(config.LogConfig{Level: "loud"}, false); err == nil {
		t.Error("Expected invalid level to fail")
	}
}
