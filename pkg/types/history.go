package types

import "time"

// ChangeLogSource tags entries written by the migration engine
const ChangeLogSource = "rebalancer"

// ChangeLogEntry records one rebalancing pass. Entries are appended to both
// documents and never edited afterwards.
type ChangeLogEntry struct {
	Timestamp         time.Time `json:"date" yaml:"date"`
	Description       string    `json:"description" yaml:"description"`
	ScoreBefore       float64   `json:"score_before" yaml:"score_before"`
	ScoreAfter        float64   `json:"balance_score" yaml:"balance_score"`
	BackupReference   string    `json:"backup,omitempty" yaml:"backup,omitempty"`
	MovedToStructured int       `json:"moved_to_structured" yaml:"moved_to_structured"`
	MovedToNarrative  int       `json:"moved_to_narrative" yaml:"moved_to_narrative"`
	Source            string    `json:"source" yaml:"source"`
}

// Moved returns the total number of relocated items
func (e ChangeLogEntry) Moved() int {
	return e.MovedToStructured + e.MovedToNarrative
}

// SessionMarker is the optimistic-concurrency record kept in _session_state
type SessionMarker struct {
	LastWriter   string    `json:"last_writer" yaml:"last_writer"`
	LastModified time.Time `json:"last_modified" yaml:"last_modified"`
	Active       bool      `json:"active" yaml:"active"`
	Revision     int64     `json:"revision" yaml:"revision"`
}
