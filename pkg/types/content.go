package types

// Category is the inferred kind of a content item
type Category string

const (
	CategoryStructured Category = "structured"
	CategoryNarrative  Category = "narrative"
	CategoryAmbiguous  Category = "ambiguous"
)

// Origin identifies which buildstate document an item currently lives in
type Origin string

const (
	OriginStructured Origin = "structured"
	OriginNarrative  Origin = "narrative"
)

// Home returns the category that belongs in this document
func (o Origin) Home() Category {
	if o == OriginNarrative {
		return CategoryNarrative
	}
	return CategoryStructured
}

// Opposite returns the other document
func (o Origin) Opposite() Origin {
	if o == OriginNarrative {
		return OriginStructured
	}
	return OriginNarrative
}

// ContentItem is one classifiable unit: a top-level key of the structured
// document or a section of the narrative document.
type ContentItem struct {
	Name       string   `json:"name" yaml:"name"`
	Origin     Origin   `json:"origin" yaml:"origin"`
	Location   string   `json:"location" yaml:"location"` // JSON key or section title
	RawContent string   `json:"raw_content" yaml:"raw_content"`
	Category   Category `json:"category" yaml:"category"`
	Confidence float64  `json:"confidence" yaml:"confidence"`

	StructuredHits float64 `json:"structured_hits" yaml:"structured_hits"`
	NarrativeHits  float64 `json:"narrative_hits" yaml:"narrative_hits"`
}

// Contradicts reports whether the inferred category disagrees with the
// document the item lives in. Ambiguous items never contradict.
func (c ContentItem) Contradicts() bool {
	if c.Category == CategoryAmbiguous {
		return false
	}
	return c.Category != c.Origin.Home()
}
