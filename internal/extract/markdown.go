// Package extract flattens locally-ingested markdown to plain text before
// it enters the pipeline. Real format extraction (PDF, Word, HTML) is the
// platform's extraction service; this covers the CLI's own file ingest.
package extract

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Markdown renders markdown source as plain text: headings, paragraphs,
// and list items become paragraphs, code blocks are kept verbatim, and
// all inline markup is dropped.
func Markdown(source []byte) string {
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	var buf bytes.Buffer
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		if n.Type() == ast.TypeBlock && n.Kind() != ast.KindDocument {
			separateParagraph(&buf)
		}

		switch t := n.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf.WriteByte('\n')
			}
		case *ast.AutoLink:
			buf.Write(t.URL(source))
			return ast.WalkSkipChildren, nil
		case *ast.FencedCodeBlock:
			writeLines(&buf, source, t)
			return ast.WalkSkipChildren, nil
		case *ast.CodeBlock:
			writeLines(&buf, source, t)
			return ast.WalkSkipChildren, nil
		case *ast.HTMLBlock, *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	return strings.TrimSpace(buf.String())
}

// TextFromFile returns the plain text of a local file: markdown is
// flattened, anything else is taken as-is.
func TextFromFile(path string, data []byte) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return Markdown(data)
	default:
		return string(data)
	}
}

func separateParagraph(buf *bytes.Buffer) {
	if buf.Len() == 0 {
		return
	}
	if !bytes.HasSuffix(buf.Bytes(), []byte("\n\n")) {
		if bytes.HasSuffix(buf.Bytes(), []byte("\n")) {
			buf.WriteByte('\n')
		} else {
			buf.WriteString("\n\n")
		}
	}
}

func writeLines(buf *bytes.Buffer, source []byte, n ast.Node) {
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(source))
	}
}
