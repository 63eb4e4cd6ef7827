package extract

import (
	"strings"
	"testing"
)

func TestMarkdown_DropsInlineMarkup(t *testing.T) {
	got := Markdown([]byte("# Title\n\nSome **bold** text."))
	want := "Title\n\nSome bold text."
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestMarkdown_KeepsCodeVerbatim(t *testing.T) {
	src := "Intro.\n\n```\nSELECT * FROM documents;\n```\n"
	got := Markdown([]byte(src))
	if !strings.Contains(got, "SELECT * FROM documents;") {
		t.Errorf("code block lost: %q", got)
	}
}

func TestMarkdown_Lists(t *testing.T) {
	got := Markdown([]byte("- first item\n- second item\n"))
	if !strings.Contains(got, "first item") || !strings.Contains(got, "second item") {
		t.Errorf("list items lost: %q", got)
	}
	if strings.Contains(got, "-") {
		t.Errorf("list markers leaked: %q", got)
	}
}

func TestMarkdown_SkipsHTML(t *testing.T) {
	got := Markdown([]byte("before\n\n<div class=\"x\">raw</div>\n\nafter"))
	if strings.Contains(got, "<div") {
		t.Errorf("raw HTML leaked: %q", got)
	}
	if !strings.Contains(got, "before") || !strings.Contains(got, "after") {
		t.Errorf("surrounding text lost: %q", got)
	}
}

func TestMarkdown_Links(t *testing.T) {
	got := Markdown([]byte("See [the handbook](https://example.com/handbook) for details."))
	if !strings.Contains(got, "the handbook") {
		t.Errorf("link text lost: %q", got)
	}
	if strings.Contains(got, "](") {
		t.Errorf("link syntax leaked: %q", got)
	}
}

func TestTextFromFile(t *testing.T) {
	md := TextFromFile("notes.md", []byte("# Heading\n\nbody"))
	if strings.Contains(md, "#") {
		t.Errorf("markdown not flattened: %q", md)
	}

	raw := TextFromFile("notes.txt", []byte("# not markdown"))
	if raw != "# not markdown" {
		t.Errorf("non-markdown altered: %q", raw)
	}
}
