package document

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/mariov96/session-continuity-framework-sub000/pkg/types"
)

func TestNarrativeRoundTrip(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"preamble only", "# Project\n\nSome intro.\n"},
		{"sections", "# Project\n\n## Vision\n\nWe build.\n\n## Notes\n\n- a\n- b\n"},
		{"no trailing newline", "## Vision\nWe build."},
		{"crlf", "# P\r\n\r\n## Vision\r\n\r\nWe build.\r\n"},
		{"subsections", "## Architecture\n\n### Storage\n\nsqlite\n\n#### Detail\n"},
		{"fenced heading", "## Code\n\n```md\n## not a heading\n```\n\n## Real\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := ParseNarrative("b.md", []byte(tt.input))
			if err != nil {
				t.Fatalf("ParseNarrative failed: %v", err)
			}
			if got := doc.Render(); got != tt.input {
				t.Errorf("Render mismatch (-want +got):\n%s", cmp.Diff(tt.input, got))
			}
		})
	}
}

func TestNarrativeSections(t *testing.T) {
	t.Parallel()
	input := "# Project\n\nintro\n\n## Vision\n\nWe build.\n\n### Why\n\nBecause.\n\n```\n## fenced\n```\n\n## API Endpoints ##\n\n- GET /users\n"
	doc, err := ParseNarrative("b.md", []byte(input))
	if err != nil {
		t.Fatalf("ParseNarrative failed: %v", err)
	}

	var titles []string
	for _, s := range doc.Sections {
		titles = append(titles, s.Title)
	}
	if diff := cmp.Diff([]string{"Vision", "API Endpoints"}, titles); diff != "" {
		t.Errorf("titles mismatch (-want +got):\n%s", diff)
	}
	if doc.Preamble != "# Project\n\nintro\n\n" {
		t.Errorf("unexpected preamble %q", doc.Preamble)
	}

	s, ok := doc.Section("api-endpoints")
	if !ok {
		t.Fatal("Expected normalized title lookup to find API Endpoints")
	}
	if s.Text() != "- GET /users" {
		t.Errorf("unexpected section text %q", s.Text())
	}
	vision, _ := doc.Section("VISION")
	if vision.Text() != "We build.\n\n### Why\n\nBecause.\n\n```\n## fenced\n```" {
		t.Errorf("unexpected vision text %q", vision.Text())
	}
}

func TestParseNarrativeInvalidUTF8(t *testing.T) {
	t.Parallel()
	if _, err := ParseNarrative("b.md", []byte{0xff, 0xfe, '#'}); err == nil {
		t.Error("Expected error for invalid UTF-8")
	}
}

func TestContentSectionsSkipsChangeLog(t *testing.T) {
	t.Parallel()
	doc, _ := ParseNarrative("b.md", []byte("## Vision\n\nx\n\n## Next Steps\n\ny\n\n## Change Log\n\n| a |\n"))
	var titles []string
	for _, s := range doc.ContentSections(nil) {
		titles = append(titles, s.Title)
	}
	if diff := cmp.Diff([]string{"Vision"}, titles); diff != "" {
		t.Errorf("content sections mismatch (-want +got):\n%s", diff)
	}
}

func TestWithSectionBeforeChangeLog(t *testing.T) {
	t.Parallel()
	input := "# P\n\n## Vision\n\nWe build.\n\n## Change Log\n\n| Date | Description | Balance Score | Source |\n"
	doc, _ := ParseNarrative("b.md", []byte(input))

	got := doc.WithSection("API Endpoints", "- GET /users").Render()
	want := "# P\n\n## Vision\n\nWe build.\n\n## API Endpoints\n\n- GET /users\n\n## Change Log\n\n| Date | Description | Balance Score | Source |\n"
	if got != want {
		t.Errorf("WithSection mismatch (-want +got):\n%s", cmp.Diff(want, got))
	}
	if doc.Render() != input {
		t.Error("WithSection modified the receiver")
	}
}

func TestWithSectionAppends(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty document", "", "## Vision\n\nWe build.\n"},
		{"after preamble", "# P", "# P\n\n## Vision\n\nWe build.\n"},
		{"after section", "## Notes\n\nx\n", "## Notes\n\nx\n\n## Vision\n\nWe build.\n"},
		{"reuses empty heading", "## Vision\n\n## Notes\n\nx\n", "## Vision\n\nWe build.\n\n## Notes\n\nx\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, _ := ParseNarrative("b.md", []byte(tt.input))
			got := doc.WithSection("Vision", "We build.").Render()
			if got != tt.want {
				t.Errorf("mismatch (-want +got):\n%s", cmp.Diff(tt.want, got))
			}
		})
	}
}

func TestWithoutSection(t *testing.T) {
	t.Parallel()
	doc, _ := ParseNarrative("b.md", []byte("# P\n\n## API Endpoints\n\n- GET /users\n\n## Vision\n\nWe build.\n"))
	got := doc.Without("API Endpoints").Render()
	if want := "# P\n\n## Vision\n\nWe build.\n"; got != want {
		t.Errorf("Without mismatch (-want +got):\n%s", cmp.Diff(want, got))
	}
	if len(doc.Sections) != 2 {
		t.Error("Without modified the receiver")
	}
}

func TestAppendChangeLogRow(t *testing.T) {
	t.Parallel()
	entry := types.ChangeLogEntry{
		Timestamp:   time.Date(2026, 10, 19, 10, 15, 30, 0, time.UTC),
		Description: "moved 1 item | to narrative",
		ScoreAfter:  1,
	}

	doc, _ := ParseNarrative("b.md", []byte("## Vision\n\nWe build.\n"))
	doc = doc.AppendChangeLogRow(entry)
	want := "## Vision\n\nWe build.\n\n## Change Log\n\n" + changeLogHeader +
		"| 2026-10-19T10:15:30Z | moved 1 item \\| to narrative | 1.00 | rebalancer |\n"
	if got := doc.Render(); got != want {
		t.Fatalf("first row mismatch (-want +got):\n%s", cmp.Diff(want, got))
	}

	entry.Description = "already balanced"
	doc = doc.AppendChangeLogRow(entry)
	want += "| 2026-10-19T10:15:30Z | already balanced | 1.00 | rebalancer |\n"
	if got := doc.Render(); got != want {
		t.Errorf("second row mismatch (-want +got):\n%s", cmp.Diff(want, got))
	}
}

func TestAppendChangeLogRowKeepsTrailingText(t *testing.T) {
	t.Parallel()
	input := "## Change Log\n\n| Date | Description | Balance Score | Source |\n|---|---|---|---|\n\n## Appendix\n\nz\n"
	doc, _ := ParseNarrative("b.md", []byte(input))
	got := doc.AppendChangeLogRow(types.ChangeLogEntry{
		Timestamp:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Description: "d",
		ScoreAfter:  0.5,
		Source:      "manual",
	}).Render()
	want := "## Change Log\n\n| Date | Description | Balance Score | Source |\n|---|---|---|---|\n| 2026-01-02T03:04:05Z | d | 0.50 | manual |\n\n## Appendix\n\nz\n"
	if got != want {
		t.Errorf("mismatch (-want +got):\n%s", cmp.Diff(want, got))
	}
}
