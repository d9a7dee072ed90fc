// Package migrate relocates misplaced content between a project's
// structured and narrative documents.
//
// Every applied move is backed up first and written target-first: if the
// source rewrite fails the target is put back, so an item is never lost or
// duplicated. Conflicting targets are reported and left for a human.
package migrate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mariov96/session-continuity-framework-sub000/internal/balance"
	"github.com/mariov96/session-continuity-framework-sub000/internal/document"
	"github.com/mariov96/session-continuity-framework-sub000/pkg/types"
)

// DefaultMinConfidence is the confidence an item must exceed to be moved
// when neither Options nor Config name one
const DefaultMinConfidence = 0.6

// Options controls one rebalance pass
type Options struct {
	DryRun bool
	// MinConfidence is taken as given, so zero moves every misplaced item.
	// A negative value selects the engine's configured minimum.
	MinConfidence float64
}

// Move is one planned or applied relocation
type Move struct {
	Item       types.ContentItem `json:"item"`
	From       types.Origin      `json:"from"`
	To         types.Origin      `json:"to"`
	Target     string            `json:"target"` // destination key or section title
	Confidence float64           `json:"confidence"`

	// Err is the conflict predicted in a dry run, or why the move failed.
	// Error carries its message for JSON output.
	Err   error  `json:"-"`
	Error string `json:"error,omitempty"`
}

func (m *Move) fail(err error) {
	m.Err = err
	m.Error = err.Error()
}

// Result describes a rebalance pass
type Result struct {
	ProjectPath     string                `json:"project_path"`
	DryRun          bool                  `json:"dry_run"`
	AlreadyBalanced bool                  `json:"already_balanced"`
	Entry           *types.ChangeLogEntry `json:"entry,omitempty"`
	Moves           []Move                `json:"moves"`
	Failures        []Move                `json:"failures,omitempty"`
	ScoreBefore     float64               `json:"score_before"`
	ScoreAfter      float64               `json:"score_after"`
}

// Config wires an Engine
type Config struct {
	Analyzer       *balance.Analyzer
	LockStaleAfter time.Duration
	Logger         *zap.Logger

	// MinConfidence applies when Options.MinConfidence is negative; zero
	// means DefaultMinConfidence
	MinConfidence float64

	// Now and WriteFile default to time.Now and document.WriteFile
	Now       func() time.Time
	WriteFile func(path string, data []byte) error
}

// Engine applies rebalance passes
type Engine struct {
	analyzer      *balance.Analyzer
	staleLock     time.Duration
	minConfidence float64
	logger        *zap.Logger
	now           func() time.Time
	writeFile     func(path string, data []byte) error
}

// New creates an Engine
func New(cfg Config) *Engine {
	if cfg.Analyzer == nil {
		cfg.Analyzer = balance.NewAnalyzer(balance.Options{Logger: cfg.Logger})
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.MinConfidence == 0 {
		cfg.MinConfidence = DefaultMinConfidence
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.WriteFile == nil {
		cfg.WriteFile = document.WriteFile
	}
	return &Engine{
		analyzer:      cfg.Analyzer,
		staleLock:     cfg.LockStaleAfter,
		minConfidence: cfg.MinConfidence,
		logger:        cfg.Logger,
		now:           cfg.Now,
		writeFile:     cfg.WriteFile,
	}
}

// Analyzer returns the analyzer used for scoring
func (e *Engine) Analyzer() *balance.Analyzer { return e.analyzer }

// Rebalance runs one pass over a project. In a dry run it returns the full
// plan and writes nothing. Otherwise it holds the project lock, moves every
// eligible item and appends a change log entry to both documents.
//
// The returned error joins every per-item failure; Result is non-nil
// whenever the pass got as far as planning.
func (e *Engine) Rebalance(ctx context.Context, projectPath string, opts Options) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if opts.MinConfidence < 0 {
		opts.MinConfidence = e.minConfidence
	}
	p := e.analyzer.Paths(projectPath)
	log := e.logger.With(zap.String("project", projectPath))

	if !opts.DryRun {
		lock, err := document.AcquireLock(p, e.staleLock)
		if err != nil {
			return nil, err
		}
		defer func() {
			if err := lock.Release(); err != nil {
				log.Warn("failed to release lock", zap.Error(err))
			}
		}()
	}

	bs, warnings, err := document.Load(p)
	if err != nil {
		return nil, err
	}
	if len(warnings) > 0 {
		return nil, fmt.Errorf("refusing to rebalance %s: %w", projectPath, errors.Join(warnings...))
	}

	report := e.analyzer.Report(bs)
	res := &Result{
		ProjectPath: projectPath,
		DryRun:      opts.DryRun,
		ScoreBefore: report.Score,
		ScoreAfter:  report.Score,
	}

	var plan []Move
	for _, it := range report.MisplacedItems {
		if it.Confidence > opts.MinConfidence {
			plan = append(plan, Move{
				Item:       it,
				From:       it.Origin,
				To:         it.Origin.Opposite(),
				Target:     targetName(bs.Structured, it),
				Confidence: it.Confidence,
			})
		}
	}

	if len(plan) == 0 {
		res.AlreadyBalanced = true
		res.Entry = &types.ChangeLogEntry{
			Timestamp:   e.now().UTC(),
			Description: "already balanced",
			ScoreBefore: report.Score,
			ScoreAfter:  report.Score,
			Source:      types.ChangeLogSource,
		}
		log.Info("already balanced", zap.Float64("score", report.Score))
		return res, nil
	}

	if opts.DryRun {
		// Simulate in memory so later moves see the effect of earlier ones.
		structured, narrative := bs.Structured, bs.Narrative
		var planned []Move
		for _, m := range plan {
			nextS, nextN, err := render(structured, narrative, m)
			if err != nil {
				m.fail(err)
			} else {
				structured, narrative = nextS, nextN
				planned = append(planned, m)
			}
			res.Moves = append(res.Moves, m)
		}
		res.ScoreAfter = e.analyzer.Report(&document.Buildstate{Paths: p, Structured: structured, Narrative: narrative}).Score
		entry := e.newEntry(res.ScoreBefore, res.ScoreAfter, "", planned)
		entry.Description = fmt.Sprintf("dry run: would move %d item(s) to structured, %d to narrative",
			entry.MovedToStructured, entry.MovedToNarrative)
		res.Entry = &entry
		log.Info("planned rebalance", zap.Int("moves", len(plan)))
		return res, nil
	}

	return e.apply(bs, res, plan, log)
}

func (e *Engine) apply(bs *document.Buildstate, res *Result, plan []Move, log *zap.Logger) (*Result, error) {
	p := bs.Paths
	structured, narrative := bs.Structured, bs.Narrative
	var backup string
	var errs []error

	for _, m := range plan {
		ref, err := document.Snapshot(p, e.now())
		if err != nil {
			m.fail(&types.BackupFailureError{Item: m.Item.Name, Path: p.Archive(), Err: err})
			res.Failures = append(res.Failures, m)
			errs = append(errs, m.Err)
			log.Error("backup failed, item skipped", zap.String("item", m.Item.Name), zap.Error(err))
			continue
		}
		if backup == "" {
			backup = ref
		}

		nextS, nextN, err := render(structured, narrative, m)
		if err == nil {
			err = e.commit(structured, narrative, nextS, nextN, m)
		}
		if err != nil {
			m.fail(err)
			res.Failures = append(res.Failures, m)
			errs = append(errs, err)
			log.Warn("item not moved", zap.String("item", m.Item.Name), zap.Error(err))
			continue
		}

		structured, narrative = nextS, nextN
		res.Moves = append(res.Moves, m)
		log.Info("moved item",
			zap.String("item", m.Item.Name),
			zap.String("to", string(m.To)),
			zap.String("target", m.Target),
			zap.Float64("confidence", m.Confidence))
	}

	if len(res.Moves) == 0 {
		return res, errors.Join(errs...)
	}

	after := e.analyzer.Report(&document.Buildstate{Paths: p, Structured: structured, Narrative: narrative})
	res.ScoreAfter = after.Score

	entry := e.newEntry(res.ScoreBefore, after.Score, backup, res.Moves)
	res.Entry = &entry

	if err := e.appendChangeLog(structured, narrative, entry); err != nil {
		errs = append(errs, err)
	}
	log.Info("rebalanced",
		zap.Int("moved", len(res.Moves)),
		zap.Float64("score_before", res.ScoreBefore),
		zap.Float64("score_after", res.ScoreAfter))
	return res, errors.Join(errs...)
}

// commit writes the target document, then the source. A failed source
// write restores the target.
func (e *Engine) commit(oldS *document.StructuredDocument, oldN *document.NarrativeDocument,
	newS *document.StructuredDocument, newN *document.NarrativeDocument, m Move) error {

	type file struct {
		path          string
		before, after []byte
		existed       bool
	}
	sFile := file{path: oldS.Path, before: oldS.Bytes(), after: newS.Bytes(), existed: exists(oldS.Path)}
	nFile := file{path: oldN.Path, before: []byte(oldN.Render()), after: []byte(newN.Render()), existed: exists(oldN.Path)}

	target, source := nFile, sFile
	if m.To == types.OriginStructured {
		target, source = sFile, nFile
	}

	if err := e.writeFile(target.path, target.after); err != nil {
		return fmt.Errorf("item %q: failed to write %s document %s: %w", m.Item.Name, m.To, target.path, err)
	}
	if err := e.writeFile(source.path, source.after); err != nil {
		werr := fmt.Errorf("item %q: failed to write %s document %s: %w", m.Item.Name, m.From, source.path, err)
		if rerr := e.restore(target.path, target.before, target.existed); rerr != nil {
			return errors.Join(werr, fmt.Errorf("failed to restore %s: %w", target.path, rerr))
		}
		return werr
	}
	return nil
}

func (e *Engine) restore(path string, data []byte, existed bool) error {
	if !existed {
		return removeIfExists(path)
	}
	return e.writeFile(path, data)
}

// appendChangeLog records entry in both documents. Both are rendered before
// either is written, and a failed narrative write restores the structured one.
func (e *Engine) appendChangeLog(s *document.StructuredDocument, n *document.NarrativeDocument, entry types.ChangeLogEntry) error {
	nextS, err := s.AppendChangeLog(entry)
	if err != nil {
		return err
	}
	nextN := n.AppendChangeLogRow(entry)
	existed := exists(s.Path)

	if err := e.writeFile(nextS.Path, nextS.Bytes()); err != nil {
		return fmt.Errorf("failed to record change log in %s: %w", nextS.Path, err)
	}
	if err := e.writeFile(nextN.Path, []byte(nextN.Render())); err != nil {
		werr := fmt.Errorf("failed to record change log in %s: %w", nextN.Path, err)
		if rerr := e.restore(s.Path, s.Bytes(), existed); rerr != nil {
			return errors.Join(werr, fmt.Errorf("failed to restore %s: %w", s.Path, rerr))
		}
		return werr
	}
	return nil
}

func (e *Engine) newEntry(before, after float64, backup string, moves []Move) types.ChangeLogEntry {
	entry := types.ChangeLogEntry{
		Timestamp:       e.now().UTC(),
		ScoreBefore:     before,
		ScoreAfter:      after,
		BackupReference: backup,
		Source:          types.ChangeLogSource,
	}
	for _, m := range moves {
		if m.To == types.OriginStructured {
			entry.MovedToStructured++
		} else {
			entry.MovedToNarrative++
		}
	}
	entry.Description = fmt.Sprintf("rebalanced: moved %d item(s) to structured, %d to narrative",
		entry.MovedToStructured, entry.MovedToNarrative)
	return entry
}
