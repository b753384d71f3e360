// Package chunker splits note text into segments small enough to be stored
// as individual notes.
package chunker

import "unicode/utf8"

// DefaultMaxBytes is the largest value a single note may hold.
const DefaultMaxBytes = 1024

// Chunker splits text on byte limits without breaking UTF-8 sequences.
type Chunker struct {
	MaxBytes int // Maximum bytes per segment (default 1024)
}

// Segments splits text into consecutive segments of at most MaxBytes bytes.
// Segments never end inside a multi-byte rune, and joining them reproduces
// the input exactly. Empty input yields a single empty segment so that every
// note write produces at least one note.
func (c *Chunker) Segments(text string) [][]byte {
	maxBytes := c.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	// A limit below the widest rune would make no progress.
	if maxBytes < utf8.UTFMax {
		maxBytes = utf8.UTFMax
	}

	if text == "" {
		return [][]byte{{}}
	}

	var segments [][]byte
	for len(text) > 0 {
		end := cut(text, maxBytes)
		segments = append(segments, []byte(text[:end]))
		text = text[end:]
	}
	return segments
}

// cut returns the largest prefix length of text that is at most maxBytes and
// ends on a rune boundary.
func cut(text string, maxBytes int) int {
	if len(text) <= maxBytes {
		return len(text)
	}
	end := maxBytes
	for end > 0 && !utf8.RuneStart(text[end]) {
		end--
	}
	if end == 0 {
		// Not valid UTF-8; fall back to a plain byte cut.
		return maxBytes
	}
	return end
}
