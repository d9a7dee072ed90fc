package document

import (
	"regexp"
	"strings"
	"unicode"
)

var headerRegex = regexp.MustCompile(`^(#{1,6})\s+(.+?)\s*#*\s*$`)

// Section is one level-2 section of a narrative document. Heading and Body
// hold the original bytes so rendering is lossless.
type Section struct {
	Title   string
	Heading string
	Body    string
}

// Text returns the section body without surrounding blank lines
func (s Section) Text() string {
	return strings.TrimSpace(s.Body)
}

// splitSections splits markdown into the text before the first level-2
// heading and the level-2 sections that follow. Deeper headings stay in the
// enclosing body and headings inside fenced code are ignored.
func splitSections(content string) (string, []Section) {
	lines := strings.SplitAfter(content, "\n")

	var preamble strings.Builder
	var sections []Section
	var current *Section
	var body strings.Builder
	fence := ""

	flush := func() {
		if current != nil {
			current.Body = body.String()
			sections = append(sections, *current)
			body.Reset()
		}
	}

	for _, line := range lines {
		if line == "" {
			continue
		}
		trimmed := strings.TrimRight(line, "\r\n")

		if marker := fenceMarker(trimmed); marker != "" {
			switch {
			case fence == "":
				fence = marker
			case strings.HasPrefix(marker, fence):
				fence = ""
			}
		} else if fence == "" {
			if m := headerRegex.FindStringSubmatch(trimmed); m != nil && len(m[1]) == 2 {
				flush()
				current = &Section{Title: m[2], Heading: line}
				continue
			}
		}

		if current == nil {
			preamble.WriteString(line)
		} else {
			body.WriteString(line)
		}
	}
	flush()

	return preamble.String(), sections
}

func fenceMarker(line string) string {
	s := strings.TrimLeft(line, " ")
	if len(line)-len(s) > 3 {
		return ""
	}
	for _, c := range []byte{'`', '~'} {
		n := 0
		for n < len(s) && s[n] == c {
			n++
		}
		if n >= 3 {
			return s[:n]
		}
	}
	return ""
}

// normalizeTitle folds case and punctuation so "Project Vision",
// "project-vision" and "PROJECT_VISION" compare equal.
func normalizeTitle(title string) string {
	var b strings.Builder
	space := false
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
			continue
		}
		space = true
	}
	return b.String()
}

// ensureBlankLine makes s end with an empty line so a heading can follow
func ensureBlankLine(s string) string {
	if s == "" {
		return s
	}
	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	if !strings.HasSuffix(s, "\n\n") {
		s += "\n"
	}
	return s
}
