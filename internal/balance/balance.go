// Package balance measures how well a project's content is sorted between
// its structured and narrative documents.
package balance

import (
	"context"
	"math"

	"go.uber.org/zap"

	"github.com/mariov96/session-continuity-framework-sub000/internal/classify"
	"github.com/mariov96/session-continuity-framework-sub000/internal/document"
	"github.com/mariov96/session-continuity-framework-sub000/pkg/types"
)

// DefaultMigrateThreshold is T_migrate. It must stay above the classifier's T.
const DefaultMigrateThreshold = 0.6

// Options configures an Analyzer
type Options struct {
	Classifier       *classify.Classifier
	MigrateThreshold float64
	PinnedKeys       []string
	ArchiveDir       string
	Logger           *zap.Logger
}

// Analyzer classifies and scores projects
type Analyzer struct {
	classifier *classify.Classifier
	tMigrate   float64
	pinned     []string
	archiveDir string
	logger     *zap.Logger
}

// NewAnalyzer builds an Analyzer. A migrate threshold not above the
// classifier threshold falls back to the default.
func NewAnalyzer(opts Options) *Analyzer {
	if opts.Classifier == nil {
		opts.Classifier = classify.New(classify.DefaultOptions())
	}
	if opts.MigrateThreshold <= opts.Classifier.Threshold() || opts.MigrateThreshold > 1 {
		opts.MigrateThreshold = math.Max(DefaultMigrateThreshold, opts.Classifier.Threshold())
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Analyzer{
		classifier: opts.Classifier,
		tMigrate:   opts.MigrateThreshold,
		pinned:     opts.PinnedKeys,
		archiveDir: opts.ArchiveDir,
		logger:     opts.Logger,
	}
}

// MigrateThreshold returns T_migrate
func (a *Analyzer) MigrateThreshold() float64 { return a.tMigrate }

// Paths returns the document layout used for projectPath
func (a *Analyzer) Paths(projectPath string) document.Paths {
	p := document.ProjectPaths(projectPath)
	p.ArchiveDir = a.archiveDir
	return p
}

// Analyze loads a project's documents and scores them. A malformed
// document is reported as a warning and the other one is still scored.
func (a *Analyzer) Analyze(ctx context.Context, projectPath string) (*types.BalanceReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	bs, warnings, err := document.Load(a.Paths(projectPath))
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		a.logger.Warn("skipping malformed document", zap.String("project", projectPath), zap.Error(w))
	}

	report := a.Report(bs)
	report.ProjectPath = projectPath
	for _, w := range warnings {
		report.Warnings = append(report.Warnings, w.Error())
	}

	a.logger.Debug("analyzed project",
		zap.String("project", projectPath),
		zap.Float64("score", report.Score),
		zap.String("bucket", string(report.Bucket)),
		zap.Int("misplaced", len(report.MisplacedItems)))
	return report, nil
}

// Report classifies and scores an already loaded buildstate
func (a *Analyzer) Report(bs *document.Buildstate) *types.BalanceReport {
	items := a.classifier.ClassifyAll(Collect(bs.Structured, bs.Narrative, a.pinned))
	report := Score(items, a.tMigrate)
	report.ProjectPath = bs.Paths.Root
	return report
}

// Collect turns both documents into unclassified content items, structured
// keys first, each in document order. Reserved keys, pinned keys and the
// change log are skipped.
func Collect(structured *document.StructuredDocument, narrative *document.NarrativeDocument, pinned []string) []types.ContentItem {
	var items []types.ContentItem
	if structured != nil {
		for _, key := range structured.ContentKeys(pinned) {
			value, _ := structured.Get(key)
			items = append(items, types.ContentItem{
				Name:       key,
				Origin:     types.OriginStructured,
				Location:   key,
				RawContent: value.Text(),
			})
		}
	}
	if narrative != nil {
		for _, s := range narrative.ContentSections(pinned) {
			items = append(items, types.ContentItem{
				Name:       s.Title,
				Origin:     types.OriginNarrative,
				Location:   s.Title,
				RawContent: s.Text(),
			})
		}
	}
	return items
}

// Score aggregates classified items. An item is misplaced when its category
// contradicts its origin and its confidence exceeds tMigrate. The score is
// 1 - misplaced/classified, with ambiguous items left out of both counts;
// a project with nothing classified scores 1.
func Score(items []types.ContentItem, tMigrate float64) *types.BalanceReport {
	report := &types.BalanceReport{
		Items:          items,
		MisplacedItems: []types.ContentItem{},
	}
	for _, it := range items {
		if it.Category == types.CategoryAmbiguous {
			continue
		}
		report.Classified++
		if it.Contradicts() && it.Confidence > tMigrate {
			report.MisplacedItems = append(report.MisplacedItems, it)
		}
	}

	report.Score = 1
	if report.Classified > 0 {
		report.Score = 1 - float64(len(report.MisplacedItems))/float64(report.Classified)
	}
	report.Bucket = types.BucketFor(report.Score)
	return report
}
