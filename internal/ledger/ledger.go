// Package ledger keeps a local SQLite history of balance scores and
// rebalance outcomes so trends survive across runs.
package ledger

import (
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/mariov96/session-continuity-framework-sub000/pkg/types"
)

//go:embed schema.sql
var schemaSQL string

// Run kinds
const (
	KindBatch     = "batch"
	KindAnalyze   = "analyze"
	KindRebalance = "rebalance"
)

// Ledger handles SQLite operations for run history
type Ledger struct {
	db     *sql.DB
	logger *zap.Logger
}

// Record is one stored project outcome
type Record struct {
	ID                int64     `json:"id"`
	RunID             string    `json:"run_id"`
	ProjectPath       string    `json:"project_path"`
	Score             float64   `json:"score"`
	Bucket            string    `json:"bucket"`
	Classified        int       `json:"classified"`
	Misplaced         int       `json:"misplaced"`
	MovedToStructured int       `json:"moved_to_structured"`
	MovedToNarrative  int       `json:"moved_to_narrative"`
	ScoreAfter        float64   `json:"score_after,omitempty"`
	Backup            string    `json:"backup,omitempty"`
	Error             string    `json:"error,omitempty"`
	RecordedAt        time.Time `json:"recorded_at"`
}

// Open creates or opens the ledger database at dbPath
func Open(dbPath string, logger *zap.Logger) (*Ledger, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create ledger directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_fk=1&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize ledger schema: %w", err)
	}

	return &Ledger{db: db, logger: logger}, nil
}

// Close closes the database connection
func (l *Ledger) Close() error {
	return l.db.Close()
}

// RecordSummary stores a batch run and every project outcome in one transaction
func (l *Ledger) RecordSummary(summary *types.EcosystemSummary) error {
	tx, err := l.db.Begin()
	if err != nil {
		return fmt.Errorf("begin ledger transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT INTO runs (id, kind, started_at, projects, mean_score)
		VALUES (?, ?, ?, ?, ?)
	`, summary.RunID, KindBatch, summary.StartedAt.UTC().Format(time.RFC3339), len(summary.Projects), summary.MeanScore); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	now := time.Now().UTC()
	for _, p := range summary.Projects {
		if err := insertResult(tx, summary.RunID, p, now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// RecordProject stores a single-project run of the given kind
func (l *Ledger) RecordProject(runID, kind string, result types.ProjectResult) error {
	now := time.Now().UTC()
	tx, err := l.db.Begin()
	if err != nil {
		return fmt.Errorf("begin ledger transaction: %w", err)
	}
	defer tx.Rollback()

	score := 0.0
	if result.Report != nil {
		score = result.Report.Score
	}
	if _, err := tx.Exec(`
		INSERT INTO runs (id, kind, started_at, projects, mean_score)
		VALUES (?, ?, ?, 1, ?)
	`, runID, kind, now.Format(time.RFC3339), score); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	if err := insertResult(tx, runID, result, now); err != nil {
		return err
	}
	return tx.Commit()
}

func insertResult(tx *sql.Tx, runID string, p types.ProjectResult, at time.Time) error {
	var (
		score, scoreAfter      sql.NullFloat64
		bucket, backup, errMsg sql.NullString
		classified, misplaced  int
		toStructured, toNarr   int
	)
	if p.Report != nil {
		score = sql.NullFloat64{Float64: p.Report.Score, Valid: true}
		bucket = sql.NullString{String: string(p.Report.Bucket), Valid: true}
		classified = p.Report.Classified
		misplaced = len(p.Report.MisplacedItems)
	}
	if p.Change != nil {
		scoreAfter = sql.NullFloat64{Float64: p.Change.ScoreAfter, Valid: true}
		backup = sql.NullString{String: p.Change.BackupReference, Valid: p.Change.BackupReference != ""}
		toStructured = p.Change.MovedToStructured
		toNarr = p.Change.MovedToNarrative
	}
	if p.Err != "" {
		errMsg = sql.NullString{String: p.Err, Valid: true}
	}

	_, err := tx.Exec(`
		INSERT INTO analyses (run_id, project_path, score, bucket, classified, misplaced,
		                      moved_to_structured, moved_to_narrative, score_after, backup, error, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, runID, p.ProjectPath, score, bucket, classified, misplaced,
		toStructured, toNarr, scoreAfter, backup, errMsg, at.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("insert analysis for %s: %w", p.ProjectPath, err)
	}
	return nil
}

// History returns the newest records, optionally for one project
func (l *Ledger) History(projectPath string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, run_id, project_path, score, bucket, classified, misplaced,
		       moved_to_structured, moved_to_narrative, score_after, backup, error, recorded_at
		FROM analyses
	`
	args := []interface{}{}
	if projectPath != "" {
		query += " WHERE project_path = ?"
		args = append(args, projectPath)
	}
	query += " ORDER BY recorded_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := l.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("history query failed: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var score, scoreAfter sql.NullFloat64
		var bucket, backup, errMsg sql.NullString
		var recordedAt string

		if err := rows.Scan(
			&r.ID, &r.RunID, &r.ProjectPath, &score, &bucket, &r.Classified, &r.Misplaced,
			&r.MovedToStructured, &r.MovedToNarrative, &scoreAfter, &backup, &errMsg, &recordedAt,
		); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}

		r.Score = score.Float64
		r.ScoreAfter = scoreAfter.Float64
		r.Bucket = bucket.String
		r.Backup = backup.String
		r.Error = errMsg.String

		if t, err := time.Parse(time.RFC3339, recordedAt); err != nil {
			l.logger.Warn("failed to parse recorded_at", zap.Int64("id", r.ID), zap.Error(err))
		} else {
			r.RecordedAt = t
		}

		records = append(records, r)
	}

	return records, rows.Err()
}
