package document

import (
	"strings"
	"unicode"

	"github.com/mariov96/session-continuity-framework-sub000/internal/classify"
	"github.com/mariov96/session-continuity-framework-sub000/internal/tree"
)

var acronyms = map[string]string{
	"api": "API", "url": "URL", "cli": "CLI", "http": "HTTP", "json": "JSON",
	"yaml": "YAML", "id": "ID", "ui": "UI", "db": "DB", "sql": "SQL",
	"ci": "CI", "cd": "CD",
}

// TitleFromKey turns a structured key into a section title:
// project_vision -> Project Vision, apiEndpoints -> API Endpoints.
func TitleFromKey(key string) string {
	tokens := classify.Tokenize(key)
	if len(tokens) == 0 {
		return key
	}
	for i, tok := range tokens {
		if up, ok := acronyms[tok]; ok {
			tokens[i] = up
			continue
		}
		r := []rune(tok)
		r[0] = unicode.ToUpper(r[0])
		tokens[i] = string(r)
	}
	return strings.Join(tokens, " ")
}

// KeyFromTitle turns a section title into a snake_case key
func KeyFromTitle(title string) string {
	var b strings.Builder
	sep := false
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if sep && b.Len() > 0 {
				b.WriteByte('_')
			}
			sep = false
			b.WriteRune(r)
			continue
		}
		sep = true
	}
	return b.String()
}

// NodeToSectionText renders a structured value as section text. Strings
// are written verbatim, flat string lists become bullets and everything
// else is a fenced json block. SectionTextToNode reverses it exactly.
func NodeToSectionText(n *tree.Node) string {
	if s, ok := n.Str(); ok && plainText(s) {
		return s
	}
	if bulletable(n) {
		lines := make([]string, len(n.Items))
		for i, item := range n.Items {
			s, _ := item.Str()
			lines[i] = "- " + s
		}
		return strings.Join(lines, "\n")
	}
	return "```json\n" + strings.TrimRight(string(n.JSON()), "\n") + "\n```"
}

// SectionTextToNode parses section text back into a structured value
func SectionTextToNode(text string) *tree.Node {
	text = strings.TrimSpace(text)
	if inner, ok := loneJSONFence(text); ok {
		if n, err := tree.ParseJSON([]byte(inner)); err == nil {
			return n
		}
	}
	if items, ok := bullets(text); ok {
		arr := tree.NewArray()
		for _, item := range items {
			arr.Items = append(arr.Items, tree.String(item))
		}
		return arr
	}
	return tree.String(text)
}

// plainText reports whether s survives the round trip as a bare string
func plainText(s string) bool {
	if s == "" || strings.TrimSpace(s) != s {
		return false
	}
	if _, ok := bullets(s); ok {
		return false
	}
	if _, ok := loneJSONFence(s); ok {
		return false
	}
	for _, line := range strings.Split(s, "\n") {
		if fenceMarker(line) != "" {
			return false
		}
		if m := headerRegex.FindStringSubmatch(line); m != nil && len(m[1]) <= 2 {
			return false
		}
	}
	return true
}

func bulletable(n *tree.Node) bool {
	if !n.IsArray() || len(n.Items) == 0 {
		return false
	}
	for _, item := range n.Items {
		s, ok := item.Str()
		if !ok || s == "" || strings.ContainsAny(s, "\r\n") || strings.TrimSpace(s) != s {
			return false
		}
	}
	return true
}

func bullets(text string) ([]string, bool) {
	lines := strings.Split(text, "\n")
	items := make([]string, 0, len(lines))
	for _, line := range lines {
		if !strings.HasPrefix(line, "- ") {
			return nil, false
		}
		item := line[2:]
		if item == "" || strings.TrimSpace(item) != item {
			return nil, false
		}
		items = append(items, item)
	}
	return items, true
}

func loneJSONFence(text string) (string, bool) {
	if !strings.HasPrefix(text, "```json\n") || !strings.HasSuffix(text, "\n```") {
		return "", false
	}
	return strings.TrimSuffix(strings.TrimPrefix(text, "```json\n"), "\n```"), true
}
