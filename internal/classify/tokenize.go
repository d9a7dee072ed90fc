package classify

import (
	"sort"
	"strings"
	"unicode"
)

// minPrefixLen is the shortest indicator that may match as a word prefix.
// Shorter ones ("api", "get") must match a whole token.
const minPrefixLen = 4

// Tokenize splits text into lowercase words on non-alphanumeric runes and
// camelCase boundaries.
func Tokenize(text string) []string {
	var (
		tokens []string
		cur    []rune
		prev   rune
	)
	flush := func() {
		if len(cur) > 0 {
			tokens = append(tokens, strings.ToLower(string(cur)))
			cur = cur[:0]
		}
	}
	for _, r := range text {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if unicode.IsUpper(r) && len(cur) > 0 && unicode.IsLower(prev) {
				flush()
			}
			cur = append(cur, r)
		default:
			flush()
		}
		prev = r
	}
	flush()
	return tokens
}

func normalize(term string) string {
	return strings.ToLower(strings.TrimSpace(term))
}

// matcher resolves tokens against a taxonomy. The longest matching
// indicator wins so "dependencies" is not double counted as "dependency".
type matcher struct {
	exact  map[string]float64
	prefix []indicator
}

type indicator struct {
	term   string
	weight float64
}

func newMatcher(t Taxonomy) matcher {
	m := matcher{exact: make(map[string]float64, len(t))}
	for term, w := range t {
		term = normalize(term)
		if term == "" || w <= 0 {
			continue
		}
		m.exact[term] = w
		if len([]rune(term)) >= minPrefixLen {
			m.prefix = append(m.prefix, indicator{term: term, weight: w})
		}
	}
	// Longest first, then alphabetical, so matching is order independent.
	sort.Slice(m.prefix, func(i, j int) bool {
		a, b := m.prefix[i], m.prefix[j]
		if len(a.term) != len(b.term) {
			return len(a.term) > len(b.term)
		}
		return a.term < b.term
	})
	return m
}

func (m matcher) weight(token string) float64 {
	if w, ok := m.exact[token]; ok {
		return w
	}
	for _, ind := range m.prefix {
		if strings.HasPrefix(token, ind.term) {
			return ind.weight
		}
	}
	return 0
}
