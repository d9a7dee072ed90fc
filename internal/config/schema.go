package config

import "time"

// Config represents the full scf configuration
type Config struct {
	Version string `yaml:"version" mapstructure:"version"`

	// Content classifier and balance scoring
	Classifier ClassifierConfig `yaml:"classifier" mapstructure:"classifier"`

	// Migration engine
	Rebalance RebalanceConfig `yaml:"rebalance" mapstructure:"rebalance"`

	// Batch orchestrator
	Batch BatchConfig `yaml:"batch" mapstructure:"batch"`

	// Score history database
	Ledger LedgerConfig `yaml:"ledger" mapstructure:"ledger"`

	Log LogConfig `yaml:"log" mapstructure:"log"`
}

// ClassifierConfig tunes the content classifier. Indicator maps are merged
// over the built-in taxonomies; a weight of 0 removes a term.
type ClassifierConfig struct {
	Threshold            float64            `yaml:"threshold" mapstructure:"threshold"`
	MigrateThreshold     float64            `yaml:"migrate_threshold" mapstructure:"migrate_threshold"`
	NameWeight           float64            `yaml:"name_weight" mapstructure:"name_weight"`
	StructuredIndicators map[string]float64 `yaml:"structured_indicators,omitempty" mapstructure:"structured_indicators"`
	NarrativeIndicators  map[string]float64 `yaml:"narrative_indicators,omitempty" mapstructure:"narrative_indicators"`
	PinnedKeys           []string           `yaml:"pinned_keys,omitempty" mapstructure:"pinned_keys"`
}

// RebalanceConfig configures the migration engine
type RebalanceConfig struct {
	MinConfidence  float64       `yaml:"min_confidence" mapstructure:"min_confidence"`
	ArchiveDir     string        `yaml:"archive_dir" mapstructure:"archive_dir"`
	LockStaleAfter time.Duration `yaml:"lock_stale_after" mapstructure:"lock_stale_after"`
}

// BatchConfig configures batch runs
type BatchConfig struct {
	MinScore float64 `yaml:"min_score" mapstructure:"min_score"`
	Workers  int     `yaml:"workers" mapstructure:"workers"`
}

// LedgerConfig configures the score history database
type LedgerConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path"`
}

// LogConfig configures the CLI logger
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // console or json
}
