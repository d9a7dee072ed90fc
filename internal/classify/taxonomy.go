package classify

// Taxonomy maps indicator terms to weights
type Taxonomy map[string]float64

// DefaultStructured lists terms that point at machine-checkable facts
func DefaultStructured() Taxonomy {
	return Taxonomy{
		"status": 1, "version": 1, "config": 1, "metric": 1, "dependency": 1, "dependencies": 1,
		"api": 1, "endpoint": 1, "schema": 1, "port": 1, "url": 1, "path": 0.5,
		"command": 1, "build": 1, "test": 1, "deploy": 1, "database": 1, "env": 1,
		"http": 1, "get": 0.5, "post": 0.5, "put": 0.5, "patch": 0.5, "delete": 0.5,
		"json": 1, "yaml": 1, "cli": 1, "flag": 1, "release": 1, "todo": 1,
		"bug": 1, "error": 1, "stack": 1, "framework": 1, "library": 1, "table": 0.5,
		"field": 0.5, "setting": 1, "timeout": 1, "migration": 1, "package": 1,
	}
}

// DefaultNarrative lists terms that point at strategy and storytelling
func DefaultNarrative() Taxonomy {
	return Taxonomy{
		"vision": 1, "mission": 1, "rationale": 1, "persona": 1, "background": 1,
		"motivation": 1, "story": 1, "goal": 1, "purpose": 1, "philosophy": 1,
		"audience": 1, "journey": 1, "strategy": 1, "why": 1, "value": 0.5,
		"principle": 1, "lesson": 1, "insight": 1, "history": 0.5, "narrative": 1,
		"belief": 1, "culture": 1, "dream": 1, "imagine": 1, "inspire": 1,
		"empower": 1, "people": 0.5, "believe": 1, "future": 0.5, "community": 1,
	}
}

// Clone returns an independent copy
func (t Taxonomy) Clone() Taxonomy {
	out := make(Taxonomy, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// Merge overlays weights from other; a weight of zero removes the term
func (t Taxonomy) Merge(other map[string]float64) Taxonomy {
	out := t.Clone()
	for k, v := range other {
		k = normalize(k)
		if v == 0 {
			delete(out, k)
			continue
		}
		out[k] = v
	}
	return out
}
