// Package scf is the entry point for tools that embed the session
// continuity framework: analyze a project's buildstate balance, rebalance
// it, run a batch over many projects, or resolve an inheritance chain.
//
// The package-level functions use built-in defaults. Use New to apply a
// loaded configuration and record runs in the ledger.
package scf

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mariov96/session-continuity-framework-sub000/internal/balance"
	"github.com/mariov96/session-continuity-framework-sub000/internal/batch"
	"github.com/mariov96/session-continuity-framework-sub000/internal/classify"
	"github.com/mariov96/session-continuity-framework-sub000/internal/config"
	"github.com/mariov96/session-continuity-framework-sub000/internal/document"
	"github.com/mariov96/session-continuity-framework-sub000/internal/hierarchy"
	"github.com/mariov96/session-continuity-framework-sub000/internal/ledger"
	"github.com/mariov96/session-continuity-framework-sub000/internal/migrate"
	"github.com/mariov96/session-continuity-framework-sub000/pkg/types"
)

// ConfiguredConfidence asks Plan and Rebalance for the configured
// rebalance.min_confidence. Any other value is used as given, so zero moves
// every misplaced item.
const ConfiguredConfidence = -1.0

// Framework bundles the configured components
type Framework struct {
	cfg      *config.Config
	settings settings
	analyzer *balance.Analyzer
	engine   *migrate.Engine
	ledger   *ledger.Ledger
	logger   *zap.Logger
}

// Option customizes a Framework
type Option func(*settings)

type settings struct {
	logger        *zap.Logger
	withLedger    bool
	projectConfig bool
	now           func() time.Time
}

// WithLogger sets the logger; the default discards everything
func WithLogger(l *zap.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// WithLedger opens the ledger named by the configuration when it is enabled
func WithLedger() Option {
	return func(s *settings) { s.withLedger = true }
}

// WithProjectConfig makes batch runs load each project's own configuration
// chain, so project files can pin keys or tune the classifier
func WithProjectConfig() Option {
	return func(s *settings) { s.projectConfig = true }
}

// WithClock replaces time.Now for change log timestamps and backup names
func WithClock(now func() time.Time) Option {
	return func(s *settings) { s.now = now }
}

// New builds a Framework from cfg. A nil cfg uses the defaults.
func New(cfg *config.Config, opts ...Option) (*Framework, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	s := settings{logger: zap.NewNop()}
	for _, o := range opts {
		o(&s)
	}

	analyzer, engine := build(cfg, s)
	f := &Framework{cfg: cfg, settings: s, analyzer: analyzer, engine: engine, logger: s.logger}
	if s.withLedger && cfg.Ledger.Enabled {
		l, err := ledger.Open(config.ExpandPath(cfg.Ledger.Path), s.logger)
		if err != nil {
			return nil, err
		}
		f.ledger = l
	}
	return f, nil
}

func build(cfg *config.Config, s settings) (*balance.Analyzer, *migrate.Engine) {
	classifier := classify.New(classify.Options{
		Structured: classify.DefaultStructured().Merge(cfg.Classifier.StructuredIndicators),
		Narrative:  classify.DefaultNarrative().Merge(cfg.Classifier.NarrativeIndicators),
		Threshold:  cfg.Classifier.Threshold,
		NameWeight: cfg.Classifier.NameWeight,
	})
	analyzer := balance.NewAnalyzer(balance.Options{
		Classifier:       classifier,
		MigrateThreshold: cfg.Classifier.MigrateThreshold,
		PinnedKeys:       cfg.Classifier.PinnedKeys,
		ArchiveDir:       cfg.Rebalance.ArchiveDir,
		Logger:           s.logger,
	})
	engine := migrate.New(migrate.Config{
		Analyzer:       analyzer,
		LockStaleAfter: cfg.Rebalance.LockStaleAfter,
		MinConfidence:  cfg.Rebalance.MinConfidence,
		Logger:         s.logger,
		Now:            s.now,
	})
	return analyzer, engine
}

// Close releases the ledger, if any
func (f *Framework) Close() error {
	if f.ledger == nil {
		return nil
	}
	return f.ledger.Close()
}

// Config returns the configuration in use
func (f *Framework) Config() *config.Config { return f.cfg }

// Paths returns the document layout used for a project
func (f *Framework) Paths(projectPath string) document.Paths {
	return f.analyzer.Paths(projectPath)
}

// Ledger returns the open ledger or nil
func (f *Framework) Ledger() *ledger.Ledger { return f.ledger }

// Analyze scores one project
func (f *Framework) Analyze(ctx context.Context, projectPath string) (*types.BalanceReport, error) {
	report, err := f.analyzer.Analyze(ctx, projectPath)
	f.record(ledger.KindAnalyze, types.ProjectResult{ProjectPath: projectPath, Report: report}, err)
	return report, err
}

// Plan returns the moves a rebalance would make without writing anything
func (f *Framework) Plan(ctx context.Context, projectPath string, minConfidence float64) (*migrate.Result, error) {
	return f.engine.Rebalance(ctx, projectPath, migrate.Options{DryRun: true, MinConfidence: minConfidence})
}

// RebalanceProject runs one pass and returns the full result. Per-item
// failures are joined into the error while successful moves stay applied.
func (f *Framework) RebalanceProject(ctx context.Context, projectPath string, dryRun bool, minConfidence float64) (*migrate.Result, error) {
	res, err := f.engine.Rebalance(ctx, projectPath, migrate.Options{DryRun: dryRun, MinConfidence: minConfidence})
	if !dryRun && res != nil {
		pr := types.ProjectResult{ProjectPath: projectPath, Report: &types.BalanceReport{
			ProjectPath: projectPath,
			Score:       res.ScoreBefore,
			Bucket:      types.BucketFor(res.ScoreBefore),
		}}
		if !res.AlreadyBalanced {
			pr.Change = res.Entry
		}
		f.record(ledger.KindRebalance, pr, err)
	}
	return res, err
}

// Rebalance runs one pass and returns its change log entry. A dry run
// returns the entry the pass would write.
func (f *Framework) Rebalance(ctx context.Context, projectPath string, dryRun bool, minConfidence float64) (*types.ChangeLogEntry, error) {
	res, err := f.RebalanceProject(ctx, projectPath, dryRun, minConfidence)
	if res == nil {
		return nil, err
	}
	return res.Entry, err
}

// BatchRebalance analyzes every project matched by globs and rebalances
// those scoring below minScore. Zero minScore uses the configured value.
func (f *Framework) BatchRebalance(ctx context.Context, globs []string, minScore float64, dryRun bool) (*types.EcosystemSummary, error) {
	if minScore <= 0 {
		minScore = f.cfg.Batch.MinScore
	}
	cfg := batch.Config{Engine: f.engine, Workers: f.cfg.Batch.Workers, Logger: f.logger}
	if f.settings.projectConfig {
		cfg.EngineFor = f.engineFor
	}
	if f.ledger != nil {
		cfg.Recorder = f.ledger
	}
	return batch.New(cfg).Run(ctx, batch.Request{
		Patterns:      globs,
		MinScore:      minScore,
		MinConfidence: ConfiguredConfidence,
		DryRun:        dryRun,
	})
}

// engineFor builds an engine from the configuration chain of one project
func (f *Framework) engineFor(projectPath string) (*migrate.Engine, error) {
	loaded, err := config.Load(projectPath)
	if err != nil {
		return nil, err
	}
	for _, p := range loaded.Problems() {
		f.logger.Warn("configuration problem", zap.String("project", projectPath), zap.Error(p))
	}
	_, engine := build(loaded.Config, f.settings)
	return engine, nil
}

func (f *Framework) record(kind string, res types.ProjectResult, err error) {
	if f.ledger == nil {
		return
	}
	if err != nil {
		res.Err = err.Error()
	}
	if rerr := f.ledger.RecordProject(uuid.New().String(), kind, res); rerr != nil {
		f.logger.Warn("failed to record run in ledger", zap.String("project", res.ProjectPath), zap.Error(rerr))
	}
}

// Analyze scores one project with the default configuration
func Analyze(ctx context.Context, projectPath string) (*types.BalanceReport, error) {
	f, _ := New(nil)
	return f.Analyze(ctx, projectPath)
}

// Rebalance runs one pass with the default configuration. Pass
// ConfiguredConfidence for the default minimum confidence.
func Rebalance(ctx context.Context, projectPath string, dryRun bool, minConfidence float64) (*types.ChangeLogEntry, error) {
	f, _ := New(nil)
	return f.Rebalance(ctx, projectPath, dryRun, minConfidence)
}

// BatchRebalance rebalances every sub-threshold project matched by globs
// with the default configuration
func BatchRebalance(ctx context.Context, globs []string, minScore float64) (*types.EcosystemSummary, error) {
	f, _ := New(nil)
	return f.BatchRebalance(ctx, globs, minScore, false)
}

// Resolve merges an inheritance chain; see hierarchy.Resolve
func Resolve(nodes []hierarchy.Node) hierarchy.Resolved {
	return hierarchy.Resolve(nodes)
}

// IsConflict reports whether err includes a migration conflict
func IsConflict(err error) bool {
	return errors.Is(err, types.ErrMigrationConflict)
}

// Describe renders a one-line summary of a report
func Describe(r *types.BalanceReport) string {
	return fmt.Sprintf("%s: score %.2f (%s), %d misplaced of %d classified",
		r.ProjectPath, r.Score, r.Bucket, len(r.MisplacedItems), r.Classified)
}
