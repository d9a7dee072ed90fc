// Package batch runs the analyze and rebalance pipeline across many
// projects and aggregates the outcome into an ecosystem summary.
package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mariov96/session-continuity-framework-sub000/internal/document"
	"github.com/mariov96/session-continuity-framework-sub000/internal/migrate"
	"github.com/mariov96/session-continuity-framework-sub000/pkg/types"
)

// DefaultWorkers bounds how many projects run at once
const DefaultWorkers = 4

// DefaultMinScore is the score below which a project is rebalanced
const DefaultMinScore = 0.6

// Request describes one batch run. MinConfidence follows
// migrate.Options: negative leaves it to each project's engine.
type Request struct {
	Patterns      []string
	MinScore      float64
	MinConfidence float64
	DryRun        bool
}

// Recorder persists batch outcomes
type Recorder interface {
	RecordSummary(summary *types.EcosystemSummary) error
}

// Config wires an Orchestrator
type Config struct {
	Engine *migrate.Engine
	// EngineFor, when set, builds the engine for each project so its own
	// configuration applies. Engine is used otherwise.
	EngineFor func(projectPath string) (*migrate.Engine, error)
	Workers   int
	Recorder  Recorder
	Logger    *zap.Logger
}

// Orchestrator runs the per-project pipeline over a set of projects
type Orchestrator struct {
	engine    *migrate.Engine
	engineFor func(projectPath string) (*migrate.Engine, error)
	workers   int
	recorder  Recorder
	logger    *zap.Logger
}

// New creates an Orchestrator
func New(cfg Config) *Orchestrator {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Engine == nil {
		cfg.Engine = migrate.New(migrate.Config{Logger: cfg.Logger})
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	return &Orchestrator{
		engine:    cfg.Engine,
		engineFor: cfg.EngineFor,
		workers:   cfg.Workers,
		recorder:  cfg.Recorder,
		logger:    cfg.Logger,
	}
}

// Run analyzes every project matched by req.Patterns and, unless DryRun is
// set, rebalances the ones scoring below MinScore. A failing project is
// recorded in the summary and never stops the others. Cancelling ctx stops
// projects that have not started yet; the returned error is ctx.Err() in
// that case, alongside the partial summary.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*types.EcosystemSummary, error) {
	if req.MinScore <= 0 {
		req.MinScore = DefaultMinScore
	}

	projects, err := Expand(req.Patterns)
	if err != nil {
		return nil, err
	}

	summary := &types.EcosystemSummary{
		RunID:          uuid.New().String(),
		StartedAt:      time.Now().UTC(),
		Projects:       make([]types.ProjectResult, len(projects)),
		Buckets:        make(map[types.Bucket]int, len(types.Buckets)),
		BelowThreshold: []string{},
	}
	for _, b := range types.Buckets {
		summary.Buckets[b] = 0
	}
	o.logger.Info("batch started",
		zap.String("run_id", summary.RunID),
		zap.Int("projects", len(projects)),
		zap.Bool("dry_run", req.DryRun))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for i, path := range projects {
		summary.Projects[i] = types.ProjectResult{ProjectPath: path}
		if gctx.Err() != nil {
			summary.Projects[i].Err = gctx.Err().Error()
			continue
		}
		g.Go(func() error {
			// Each goroutine owns index i of the preallocated slice.
			if err := gctx.Err(); err != nil {
				summary.Projects[i].Err = err.Error()
				return nil
			}
			summary.Projects[i] = o.runProject(gctx, path, req)
			return nil
		})
	}
	_ = g.Wait()

	aggregate(summary, req.MinScore)

	if o.recorder != nil {
		if err := o.recorder.RecordSummary(summary); err != nil {
			o.logger.Warn("failed to record batch in ledger", zap.Error(err))
		}
	}

	o.logger.Info("batch finished",
		zap.String("run_id", summary.RunID),
		zap.Float64("mean_score", summary.MeanScore),
		zap.Int("below_threshold", len(summary.BelowThreshold)),
		zap.Int("failures", len(summary.Failures)))

	return summary, ctx.Err()
}

// runProject takes one project through analyze and, when needed, rebalance
func (o *Orchestrator) runProject(ctx context.Context, path string, req Request) (res types.ProjectResult) {
	res.ProjectPath = path
	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Sprintf("panic: %v", r)
			o.logger.Error("project panicked", zap.String("project", path), zap.Any("panic", r))
		}
	}()

	engine := o.engine
	if o.engineFor != nil {
		var err error
		if engine, err = o.engineFor(path); err != nil {
			res.Err = err.Error()
			o.logger.Warn("failed to configure project", zap.String("project", path), zap.Error(err))
			return res
		}
	}

	report, err := engine.Analyzer().Analyze(ctx, path)
	if err != nil {
		res.Err = err.Error()
		o.logger.Warn("analyze failed", zap.String("project", path), zap.Error(err))
		return res
	}
	res.Report = report

	if req.DryRun || report.Score >= req.MinScore {
		return res
	}

	out, err := engine.Rebalance(ctx, path, migrate.Options{MinConfidence: req.MinConfidence})
	if out != nil && out.Entry != nil && !out.AlreadyBalanced {
		res.Change = out.Entry
	}
	if err != nil {
		res.Err = err.Error()
		o.logger.Warn("rebalance failed", zap.String("project", path), zap.Error(err))
	}
	return res
}

func aggregate(summary *types.EcosystemSummary, minScore float64) {
	var total float64
	var analysed int
	for _, p := range summary.Projects {
		if p.Err != "" {
			summary.Failures = append(summary.Failures, p)
		}
		if p.Report == nil {
			continue
		}
		score := p.Report.Score
		if p.Change != nil {
			score = p.Change.ScoreAfter
		}
		analysed++
		total += score
		summary.Buckets[types.BucketFor(score)]++
		if score < minScore {
			summary.BelowThreshold = append(summary.BelowThreshold, p.ProjectPath)
		}
	}
	if analysed > 0 {
		summary.MeanScore = total / float64(analysed)
	}
}

// Expand resolves glob patterns into sorted, unique project directories.
// A match qualifies when it is a directory holding either buildstate
// document, or is itself one of those documents.
func Expand(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(expandHome(pattern))
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			dir := projectDir(m)
			if dir == "" {
				continue
			}
			if abs, err := filepath.Abs(dir); err == nil {
				dir = abs
			}
			if !seen[dir] {
				seen[dir] = true
				out = append(out, dir)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

func projectDir(match string) string {
	info, err := os.Stat(match)
	if err != nil {
		return ""
	}
	if info.IsDir() {
		if document.HasBuildstate(match) {
			return match
		}
		return ""
	}
	switch filepath.Base(match) {
	case document.StructuredFile, document.NarrativeFile:
		return filepath.Dir(match)
	}
	return ""
}

func expandHome(pattern string) string {
	if len(pattern) < 2 || pattern[0] != '~' || pattern[1] != '/' {
		return pattern
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return pattern
	}
	return filepath.Join(home, pattern[2:])
}
