// Package classify decides whether a piece of buildstate content is
// structured (technical, machine-checkable) or narrative (strategic prose).
//
// Classification counts weighted indicator hits in an item's name and body:
//
//	score = (structured - narrative) / max(1, structured + narrative)
//
// An item is structured when score > T, narrative when score < -T and
// ambiguous otherwise, including exact ties at ±T. Confidence is |score|.
// Items without any hit are ambiguous with confidence 0 and can never be
// migrated. The classifier is pure: identical input gives identical output.
package classify

import (
	"math"

	"github.com/mariov96/session-continuity-framework-sub000/pkg/types"
)

// DefaultThreshold is T, the band around zero that stays ambiguous
const DefaultThreshold = 0.3

// DefaultNameWeight multiplies hits found in an item's name
const DefaultNameWeight = 2.0

// Options configures a Classifier
type Options struct {
	Structured Taxonomy
	Narrative  Taxonomy
	Threshold  float64
	NameWeight float64
}

// DefaultOptions returns the built-in taxonomies and thresholds
func DefaultOptions() Options {
	return Options{
		Structured: DefaultStructured(),
		Narrative:  DefaultNarrative(),
		Threshold:  DefaultThreshold,
		NameWeight: DefaultNameWeight,
	}
}

// Classifier scores content items against two taxonomies
type Classifier struct {
	structured matcher
	narrative  matcher
	threshold  float64
	nameWeight float64
}

// New builds a Classifier. Zero thresholds and weights fall back to defaults.
func New(opts Options) *Classifier {
	if opts.Structured == nil {
		opts.Structured = DefaultStructured()
	}
	if opts.Narrative == nil {
		opts.Narrative = DefaultNarrative()
	}
	if opts.Threshold <= 0 || opts.Threshold >= 1 {
		opts.Threshold = DefaultThreshold
	}
	if opts.NameWeight <= 0 {
		opts.NameWeight = DefaultNameWeight
	}
	return &Classifier{
		structured: newMatcher(opts.Structured),
		narrative:  newMatcher(opts.Narrative),
		threshold:  opts.Threshold,
		nameWeight: opts.NameWeight,
	}
}

// Threshold returns T
func (c *Classifier) Threshold() float64 { return c.threshold }

// Result is the outcome of classifying one text
type Result struct {
	Category       types.Category
	Confidence     float64
	Score          float64
	StructuredHits float64
	NarrativeHits  float64
}

// Score classifies a name and body
func (c *Classifier) Score(name, content string) Result {
	var s, n float64
	for _, tok := range Tokenize(name) {
		s += c.structured.weight(tok) * c.nameWeight
		n += c.narrative.weight(tok) * c.nameWeight
	}
	for _, tok := range Tokenize(content) {
		s += c.structured.weight(tok)
		n += c.narrative.weight(tok)
	}

	res := Result{Category: types.CategoryAmbiguous, StructuredHits: s, NarrativeHits: n}
	if s+n == 0 {
		return res
	}

	score := (s - n) / math.Max(1, s+n)
	res.Score = score
	res.Confidence = math.Abs(score)
	switch {
	case score > c.threshold:
		res.Category = types.CategoryStructured
	case score < -c.threshold:
		res.Category = types.CategoryNarrative
	}
	return res
}

// Classify fills in the category, confidence and hit counts of an item
func (c *Classifier) Classify(item types.ContentItem) types.ContentItem {
	res := c.Score(item.Name, item.RawContent)
	item.Category = res.Category
	item.Confidence = res.Confidence
	item.StructuredHits = res.StructuredHits
	item.NarrativeHits = res.NarrativeHits
	return item
}

// ClassifyAll classifies items in order
func (c *Classifier) ClassifyAll(items []types.ContentItem) []types.ContentItem {
	out := make([]types.ContentItem, len(items))
	for i, it := range items {
		out[i] = c.Classify(it)
	}
	return out
}
