// Package chunker splits extracted document text into overlapping
// segments sized for embedding.
package chunker

import (
	"regexp"
	"strings"
)

const (
	// DefaultChunkSize is the window size in characters.
	DefaultChunkSize = 1000
	// DefaultOverlap is how many characters consecutive windows share.
	DefaultOverlap = 200
)

// Chunk is one segment of the normalized text. StartChar/EndChar are
// offsets into the normalized text returned by Normalize.
type Chunk struct {
	Index      int
	Content    string
	StartChar  int
	EndChar    int
	TokenCount int
}

var (
	crlfRE      = regexp.MustCompile(`\r\n?`)
	spacesRE    = regexp.MustCompile(`[ \t]{2,}`)
	blankRunsRE = regexp.MustCompile(`\n{3,}`)
)

// Normalize collapses repeated spaces and runs of blank lines so that
// chunk boundaries do not depend on incidental whitespace.
func Normalize(text string) string {
	text = crlfRE.ReplaceAllString(text, "\n")
	text = spacesRE.ReplaceAllString(text, " ")
	text = blankRunsRE.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// boundary patterns, cut lands just after the sentence-ending character
// (or just before a paragraph break).
var boundaryPatterns = []struct {
	pattern  string
	cutAfter int
}{
	{". ", 1},
	{".\n", 1},
	{"!\n", 1},
	{"?\n", 1},
	{"\n\n", 0},
}

// Split cuts text into overlapping chunks. It is a pure function of its
// inputs: the same text with the same settings always yields the same
// boundaries. Non-positive arguments fall back to the defaults, and
// overlap is clamped below the chunk size.
func Split(text string, chunkSize, overlap int) []Chunk {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = DefaultOverlap
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 2
	}

	text = Normalize(text)
	if text == "" {
		return nil
	}

	var chunks []Chunk
	pos := 0
	for pos < len(text) {
		end := pos + chunkSize
		last := end >= len(text)
		if last {
			end = len(text)
		} else if cut := snapToBoundary(text, pos, end, chunkSize); cut > 0 {
			end = cut
		}

		if c, ok := makeChunk(text, len(chunks), pos, end); ok {
			chunks = append(chunks, c)
		}

		if last {
			break
		}

		next := end - overlap
		// The final chunk starts where the previous one ended and runs to
		// end-of-text instead of re-covering the overlap region.
		if next+chunkSize >= len(text) {
			next = end
		}
		if next <= pos {
			next = end
		}
		pos = next
	}

	return chunks
}

// snapToBoundary searches backward from the naive window end for the
// nearest sentence-ending boundary. A boundary earlier than 50% into the
// window is rejected to avoid degenerate tiny chunks; 0 means "keep the
// hard cut".
func snapToBoundary(text string, start, end, chunkSize int) int {
	window := text[start:end]
	best := -1
	bestCut := 0
	for _, b := range boundaryPatterns {
		if i := strings.LastIndex(window, b.pattern); i > best {
			best = i
			bestCut = i + b.cutAfter
		}
	}
	if best < 0 {
		return 0
	}
	cut := start + bestCut
	if cut-start < chunkSize/2 {
		return 0
	}
	return cut
}

const cutset = " \t\n"

func makeChunk(text string, index, start, end int) (Chunk, bool) {
	raw := text[start:end]
	lead := len(raw) - len(strings.TrimLeft(raw, cutset))
	trail := len(raw) - len(strings.TrimRight(raw, cutset))
	if lead+trail >= len(raw) {
		return Chunk{}, false
	}
	content := raw[lead : len(raw)-trail]

	return Chunk{
		Index:      index,
		Content:    content,
		StartChar:  start + lead,
		EndChar:    end - trail,
		TokenCount: len(strings.Fields(content)),
	}, true
}
