package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mariov96/session-continuity-framework-sub000/internal/hierarchy"
	"github.com/mariov96/session-continuity-framework-sub000/internal/testutil"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()

	if cfg.Version != "1" {
		t.Errorf("Expected version '1', got '%s'", cfg.Version)
	}

	if cfg.Classifier.Threshold != 0.3 || cfg.Classifier.MigrateThreshold != 0.6 {
		t.Errorf("Expected thresholds 0.3/0.6, got %v/%v", cfg.Classifier.Threshold, cfg.Classifier.MigrateThreshold)
	}

	if cfg.Rebalance.LockStaleAfter != 10*time.Minute {
		t.Errorf("Expected 10m stale lock, got %v", cfg.Rebalance.LockStaleAfter)
	}

	if !cfg.Ledger.Enabled {
		t.Error("Expected ledger to be enabled by default")
	}

	if cfg.Batch.Workers != 4 {
		t.Errorf("Expected 4 workers, got %d", cfg.Batch.Workers)
	}
}

func TestWriteDefault(t *testing.T) {
	t.Parallel()
	tmpDir := t.TempDir()

	path := filepath.Join(tmpDir, "config.yaml")
	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault failed: %v", err)
	}

	// The written file must load back to the defaults.
	nodes, warnings := hierarchy.LoadLevels([]hierarchy.Source{{Level: hierarchy.LevelGlobal, Path: path}})
	if len(warnings) != 0 || len(nodes) != 1 || nodes[0].Data == nil {
		t.Fatalf("Expected default config to parse, got %v", warnings)
	}
	if v, ok := nodes[0].Data.Lookup("rebalance", "lock_stale_after"); !ok || v.Value != "10m" {
		t.Errorf("Expected lock_stale_after 10m, got %v", v)
	}
}

func TestWriteProjectDefault(t *testing.T) {
	t.Parallel()
	tmpDir := t.TempDir()

	path := filepath.Join(tmpDir, "config.yaml")
	if err := WriteProjectDefault(path); err != nil {
		t.Fatalf("WriteProjectDefault failed: %v", err)
	}

	// Verify file was created
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("Config file not created: %v", err)
	}
}

func TestLoadDefaultsOnly(t *testing.T) {
	env := testutil.SetupTestEnv(t)

	loaded, err := Load(env.ProjectDir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	cfg := loaded.Config
	if cfg.Classifier.Threshold != 0.3 || cfg.Batch.MinScore != 0.6 || cfg.Rebalance.LockStaleAfter != 10*time.Minute {
		t.Errorf("Expected defaults, got %+v", cfg)
	}
	if len(loaded.Problems()) != 0 {
		t.Errorf("Missing files should not be problems, got %v", loaded.Problems())
	}
}

func TestLoadPrecedence(t *testing.T) {
	env := testutil.SetupTestEnv(t)

	env.CreateGlobalFile("config.yaml", `classifier:
  threshold: 0.25
  narrative_indicators:
    manifesto: 1.5
batch:
  workers: 2
  min_score: 0.5
`)
	env.CreateGlobalFile("org.yaml", `batch:
  workers: 6
`)
	env.CreateFile(".scf/config.yaml", `rebalance:
  min_confidence: 0.7
  lock_stale_after: 30s
classifier:
  pinned_keys: [tech_stack]
`)
	env.CreateFile(".scf/config.local.yaml", `rebalance:
  min_confidence: 0.8
`)
	env.CreateFile(".scf/config.private.yaml", `classifier:
  pinned_keys: [secrets, tech_stack]
`)

	loaded, err := Load(env.ProjectDir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	cfg := loaded.Config

	if cfg.Classifier.Threshold != 0.25 {
		t.Errorf("Expected global threshold 0.25, got %v", cfg.Classifier.Threshold)
	}
	if cfg.Batch.Workers != 6 || cfg.Batch.MinScore != 0.5 {
		t.Errorf("Expected org workers 6 and global min score 0.5, got %d %v", cfg.Batch.Workers, cfg.Batch.MinScore)
	}
	if cfg.Rebalance.MinConfidence != 0.8 {
		t.Errorf("Expected local min confidence 0.8, got %v", cfg.Rebalance.MinConfidence)
	}
	if cfg.Rebalance.LockStaleAfter != 30*time.Second {
		t.Errorf("Expected project lock_stale_after 30s, got %v", cfg.Rebalance.LockStaleAfter)
	}
	if len(cfg.Classifier.PinnedKeys) != 2 || cfg.Classifier.PinnedKeys[0] != "secrets" {
		t.Errorf("Expected private pinned keys to replace project list, got %v", cfg.Classifier.PinnedKeys)
	}
	if cfg.Classifier.NarrativeIndicators["manifesto"] != 1.5 {
		t.Errorf("Expected narrative indicator override, got %v", cfg.Classifier.NarrativeIndicators)
	}

	if level, _ := loaded.Resolved.Origin("rebalance.min_confidence"); level != hierarchy.LevelLocal {
		t.Errorf("Expected min_confidence from local, got %q", level)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	env := testutil.SetupTestEnv(t)
	env.CreateFile(".scf/config.yaml", "batch:\n  workers: 2\n")
	t.Setenv("SCF_BATCH_WORKERS", "9")
	t.Setenv("SCF_LOG_FORMAT", "json")

	loaded, err := Load(env.ProjectDir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Config.Batch.Workers != 9 {
		t.Errorf("Expected env to win, got %d", loaded.Config.Batch.Workers)
	}
	if loaded.Config.Log.Format != "json" {
		t.Errorf("Expected env log format, got %q", loaded.Config.Log.Format)
	}
}

func TestLoadMalformedLevel(t *testing.T) {
	env := testutil.SetupTestEnv(t)
	env.CreateFile(".scf/config.yaml", "batch: [unclosed\n")
	env.CreateFile(".scf/config.local.yaml", "batch:\n  workers: 3\n")

	loaded, err := Load(env.ProjectDir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded.Problems()) != 1 {
		t.Errorf("Expected one problem, got %v", loaded.Problems())
	}
	if loaded.Config.Batch.Workers != 3 {
		t.Errorf("Expected valid levels to still apply, got %d", loaded.Config.Batch.Workers)
	}
}
