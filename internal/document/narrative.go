package document

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mariov96/session-continuity-framework-sub000/pkg/types"
)

// ChangeLogTitle names the reserved narrative section
const ChangeLogTitle = "Change Log"

const changeLogHeader = "| Date | Description | Balance Score | Source |\n|------|-------------|---------------|--------|\n"

// NarrativeDocument is a parsed buildstate.md
type NarrativeDocument struct {
	Path     string
	Preamble string
	Sections []Section
	exists   bool
}

// NewNarrative returns an empty document that does not exist on disk yet
func NewNarrative(path string) *NarrativeDocument {
	return &NarrativeDocument{Path: path}
}

// LoadNarrative reads path. A missing file yields an empty document.
func LoadNarrative(path string) (*NarrativeDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return NewNarrative(path), nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	doc, err := ParseNarrative(path, data)
	if err != nil {
		return nil, err
	}
	doc.exists = true
	return doc, nil
}

// ParseNarrative splits markdown into its preamble and level-2 sections
func ParseNarrative(path string, data []byte) (*NarrativeDocument, error) {
	if !utf8.Valid(data) {
		return nil, &types.ParseError{Source: path, Msg: "not valid UTF-8"}
	}
	preamble, sections := splitSections(string(data))
	return &NarrativeDocument{Path: path, Preamble: preamble, Sections: sections}, nil
}

// Exists reports whether the document was read from disk
func (d *NarrativeDocument) Exists() bool { return d.exists }

// Render reassembles the document byte for byte
func (d *NarrativeDocument) Render() string {
	var b strings.Builder
	b.WriteString(d.Preamble)
	for _, s := range d.Sections {
		b.WriteString(s.Heading)
		b.WriteString(s.Body)
	}
	return b.String()
}

// Section finds a section by title, ignoring case and punctuation
func (d *NarrativeDocument) Section(title string) (Section, bool) {
	if i := d.index(title); i >= 0 {
		return d.Sections[i], true
	}
	return Section{}, false
}

// ContentSections returns every section whose key form is not reserved.
// This skips the change log.
func (d *NarrativeDocument) ContentSections(pinned []string) []Section {
	var out []Section
	for _, s := range d.Sections {
		if isChangeLog(s.Title) || IsReservedKey(KeyFromTitle(s.Title), pinned) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Without returns a copy with the titled section removed
func (d *NarrativeDocument) Without(title string) *NarrativeDocument {
	next := d.clone()
	if i := next.index(title); i >= 0 {
		next.Sections = append(next.Sections[:i], next.Sections[i+1:]...)
	}
	return next
}

// WithSection returns a copy holding text under title. An existing section
// keeps its heading and position; a new one goes before the change log.
func (d *NarrativeDocument) WithSection(title, text string) *NarrativeDocument {
	next := d.clone()
	body := "\n" + text + "\n"
	if i := next.index(title); i >= 0 {
		if i < len(next.Sections)-1 {
			body += "\n"
		}
		next.Sections[i].Body = body
		return next
	}

	at := len(next.Sections)
	for i, s := range next.Sections {
		if isChangeLog(s.Title) {
			at = i
			body += "\n"
			break
		}
	}
	next.insert(at, Section{Title: title, Heading: "## " + title + "\n", Body: body})
	return next
}

// AppendChangeLogRow returns a copy with a row added to the change log
// table, creating the section and table when missing.
func (d *NarrativeDocument) AppendChangeLogRow(e types.ChangeLogEntry) *NarrativeDocument {
	row := fmt.Sprintf("| %s | %s | %.2f | %s |\n",
		e.Timestamp.UTC().Format(time.RFC3339),
		escapeCell(e.Description),
		e.ScoreAfter,
		escapeCell(sourceOrDefault(e.Source)))

	next := d.clone()
	i := next.index(ChangeLogTitle)
	if i < 0 {
		next.insert(len(next.Sections), Section{
			Title:   ChangeLogTitle,
			Heading: "## " + ChangeLogTitle + "\n",
			Body:    "\n" + changeLogHeader + row,
		})
		return next
	}

	lines := strings.SplitAfter(next.Sections[i].Body, "\n")
	last := -1
	for j, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "|") {
			last = j
		}
	}
	var b strings.Builder
	if last < 0 {
		b.WriteString(ensureBlankLine(strings.TrimRight(next.Sections[i].Body, "\n")))
		if b.Len() == 0 {
			b.WriteString("\n")
		}
		b.WriteString(changeLogHeader)
		b.WriteString(row)
	} else {
		for j, line := range lines {
			b.WriteString(line)
			if j == last {
				if !strings.HasSuffix(line, "\n") {
					b.WriteString("\n")
				}
				b.WriteString(row)
			}
		}
	}
	next.Sections[i].Body = b.String()
	return next
}

// Save writes the document atomically
func (d *NarrativeDocument) Save() error {
	return writeFileAtomic(d.Path, []byte(d.Render()))
}

func (d *NarrativeDocument) index(title string) int {
	want := normalizeTitle(title)
	for i, s := range d.Sections {
		if normalizeTitle(s.Title) == want {
			return i
		}
	}
	return -1
}

// insert places s at position at, keeping a blank line before its heading
func (d *NarrativeDocument) insert(at int, s Section) {
	if at == 0 {
		d.Preamble = ensureBlankLine(d.Preamble)
	} else {
		d.Sections[at-1].Body = ensureBlankLine(d.Sections[at-1].Body)
	}
	d.Sections = append(d.Sections, Section{})
	copy(d.Sections[at+1:], d.Sections[at:])
	d.Sections[at] = s
}

func (d *NarrativeDocument) clone() *NarrativeDocument {
	next := *d
	next.Sections = append([]Section(nil), d.Sections...)
	return &next
}

func isChangeLog(title string) bool {
	return normalizeTitle(title) == normalizeTitle(ChangeLogTitle)
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", `\|`)
}
