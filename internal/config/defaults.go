package config

import (
	"os"
	"time"

	"github.com/spf13/viper"
)

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: "1",
		Classifier: ClassifierConfig{
			Threshold:        0.3,
			MigrateThreshold: 0.6,
			NameWeight:       2,
		},
		Rebalance: RebalanceConfig{
			MinConfidence:  0.6,
			ArchiveDir:     ".scf/archive",
			LockStaleAfter: 10 * time.Minute,
		},
		Batch: BatchConfig{
			MinScore: 0.6,
			Workers:  4,
		},
		Ledger: LedgerConfig{
			Enabled: true,
			Path:    "~/.scf/ledger.db",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// setDefaults registers every default with v so environment overrides
// apply even to keys no file mentions.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("version", cfg.Version)
	v.SetDefault("classifier.threshold", cfg.Classifier.Threshold)
	v.SetDefault("classifier.migrate_threshold", cfg.Classifier.MigrateThreshold)
	v.SetDefault("classifier.name_weight", cfg.Classifier.NameWeight)
	v.SetDefault("classifier.structured_indicators", map[string]float64{})
	v.SetDefault("classifier.narrative_indicators", map[string]float64{})
	v.SetDefault("classifier.pinned_keys", []string{})
	v.SetDefault("rebalance.min_confidence", cfg.Rebalance.MinConfidence)
	v.SetDefault("rebalance.archive_dir", cfg.Rebalance.ArchiveDir)
	v.SetDefault("rebalance.lock_stale_after", cfg.Rebalance.LockStaleAfter)
	v.SetDefault("batch.min_score", cfg.Batch.MinScore)
	v.SetDefault("batch.workers", cfg.Batch.Workers)
	v.SetDefault("ledger.enabled", cfg.Ledger.Enabled)
	v.SetDefault("ledger.path", cfg.Ledger.Path)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
}

// WriteDefault writes the default global configuration to a file
func WriteDefault(path string) error {
	content := `# scf Global Configuration
version: "1"

# Content classifier
classifier:
  # Band around zero that stays ambiguous
  threshold: 0.3
  # Confidence above which a contradicting item counts as misplaced
  migrate_threshold: 0.6
  # Multiplier for indicator hits in an item's name
  name_weight: 2
  # Extra or re-weighted indicators (0 removes a built-in term)
  # structured_indicators:
  #   kubernetes: 1
  # narrative_indicators:
  #   manifesto: 1
  # Keys that are never classified or moved
  # pinned_keys: [tech_stack]

# Migration engine
rebalance:
  min_confidence: 0.6
  archive_dir: .scf/archive
  lock_stale_after: 10m

# Batch runs
batch:
  min_score: 0.6
  workers: 4

# Score history
ledger:
  enabled: true
  path: ~/.scf/ledger.db

log:
  level: info
  format: console  # console or json
`
	return os.WriteFile(path, []byte(content), 0644)
}

// WriteProjectDefault writes the default project configuration to a file
func WriteProjectDefault(path string) error {
	content := `# scf Project Configuration
version: "1"

# Override global settings as needed. Personal overrides belong in
# config.local.yaml and config.private.yaml next to this file.
# classifier:
#   pinned_keys: [tech_stack]
# rebalance:
#   min_confidence: 0.7
`
	return os.WriteFile(path, []byte(content), 0644)
}
