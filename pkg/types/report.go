package types

import "time"

// Bucket is a coarse label for a balance score
type Bucket string

const (
	BucketBalanced       Bucket = "balanced"
	BucketModerate       Bucket = "moderate"
	BucketNeedsRebalance Bucket = "needs-rebalance"
	BucketPoor           Bucket = "poor"
)

// Buckets lists every bucket from best to worst
var Buckets = []Bucket{BucketBalanced, BucketModerate, BucketNeedsRebalance, BucketPoor}

// BucketFor maps a score in [0,1] to its bucket
func BucketFor(score float64) Bucket {
	switch {
	case score >= 0.8:
		return BucketBalanced
	case score >= 0.6:
		return BucketModerate
	case score >= 0.4:
		return BucketNeedsRebalance
	default:
		return BucketPoor
	}
}

// BalanceReport summarises how well a project's content is sorted between
// its two documents.
type BalanceReport struct {
	ProjectPath    string        `json:"project_path" yaml:"project_path"`
	Score          float64       `json:"score" yaml:"score"`
	Bucket         Bucket        `json:"bucket" yaml:"bucket"`
	MisplacedItems []ContentItem `json:"misplaced_items" yaml:"misplaced_items"`
	Items          []ContentItem `json:"items,omitempty" yaml:"items,omitempty"`

	// Classified counts items that are not ambiguous.
	Classified int      `json:"classified" yaml:"classified"`
	Warnings   []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// ProjectResult is the outcome of one project within a batch run
type ProjectResult struct {
	ProjectPath string          `json:"project_path" yaml:"project_path"`
	Report      *BalanceReport  `json:"report,omitempty" yaml:"report,omitempty"`
	Change      *ChangeLogEntry `json:"change,omitempty" yaml:"change,omitempty"`
	Err         string          `json:"error,omitempty" yaml:"error,omitempty"`
}

// EcosystemSummary aggregates a batch run across many projects
type EcosystemSummary struct {
	RunID          string          `json:"run_id" yaml:"run_id"`
	StartedAt      time.Time       `json:"started_at" yaml:"started_at"`
	Projects       []ProjectResult `json:"projects" yaml:"projects"`
	MeanScore      float64         `json:"mean_score" yaml:"mean_score"`
	Buckets        map[Bucket]int  `json:"buckets" yaml:"buckets"`
	BelowThreshold []string        `json:"below_threshold" yaml:"below_threshold"`
	Failures       []ProjectResult `json:"failures,omitempty" yaml:"failures,omitempty"`
}
