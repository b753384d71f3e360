package chunker

import (
	"bytes"
	"strings"
	"testing"
	"unicode/utf8"

	"pgregory.net/rapid"
)

func TestChunkerBasicChunking(t *testing.T) {
	c := Chunker{MaxBytes: 10}

	text := "This is a test. It has multiple sentences."
	segments := c.Segments(text)

	if len(segments) != 5 {
		t.Fatalf("Expected 5 segments, got %d", len(segments))
	}

	for i, segment := range segments {
		if len(segment) > c.MaxBytes {
			t.Errorf("Segment %d exceeds MaxBytes: got %d, want <= %d", i, len(segment), c.MaxBytes)
		}
	}
	if string(bytes.Join(segments, nil)) != text {
		t.Errorf("Segments do not reassemble the input")
	}
}

func TestChunkerEmptyInput(t *testing.T) {
	c := Chunker{}

	segments := c.Segments("")

	if len(segments) != 1 {
		t.Fatalf("Expected one empty segment for empty input, got %d", len(segments))
	}
	if len(segments[0]) != 0 {
		t.Errorf("Expected empty segment, got %q", segments[0])
	}
}

func TestChunkerDefaultLimit(t *testing.T) {
	c := Chunker{MaxBytes: -5}

	segments := c.Segments(strings.Repeat("a", DefaultMaxBytes+1))
	if len(segments) != 2 {
		t.Fatalf("Expected the default limit to apply, got %d segments", len(segments))
	}
}

func TestChunkerExactLimit(t *testing.T) {
	c := Chunker{}
	text := strings.Repeat("a", DefaultMaxBytes)

	segments := c.Segments(text)
	if len(segments) != 1 {
		t.Fatalf("Expected 1 segment at exactly the limit, got %d", len(segments))
	}

	segments = c.Segments(text + "b")
	if len(segments) != 2 {
		t.Fatalf("Expected 2 segments one byte over the limit, got %d", len(segments))
	}
	if string(segments[1]) != "b" {
		t.Errorf("Expected trailing segment %q, got %q", "b", segments[1])
	}
}

func TestChunkerDoesNotSplitRunes(t *testing.T) {
	// 1023 ASCII bytes followed by a 3-byte rune: the rune must move whole
	// into the second segment.
	c := Chunker{}
	text := strings.Repeat("a", DefaultMaxBytes-1) + "€" + "tail"

	segments := c.Segments(text)
	if len(segments) != 2 {
		t.Fatalf("Expected 2 segments, got %d", len(segments))
	}
	if len(segments[0]) != DefaultMaxBytes-1 {
		t.Errorf("First segment length = %d, want %d", len(segments[0]), DefaultMaxBytes-1)
	}
	if string(segments[1]) != "€tail" {
		t.Errorf("Second segment = %q, want %q", segments[1], "€tail")
	}
}

func TestChunkerInvalidUTF8MakesProgress(t *testing.T) {
	c := Chunker{MaxBytes: 4}
	text := strings.Repeat("\x80", 10)

	segments := c.Segments(text)

	if string(bytes.Join(segments, nil)) != text {
		t.Errorf("Segments do not reassemble the input")
	}
}

func TestChunkerProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		text := rapid.String().Draw(t, "text")
		maxBytes := rapid.IntRange(utf8.UTFMax, 64).Draw(t, "maxBytes")

		c := Chunker{MaxBytes: maxBytes}
		segments := c.Segments(text)

		if len(segments) == 0 {
			t.Fatalf("no segments for %q", text)
		}

		for i, segment := range segments {
			if len(segment) > maxBytes {
				t.Fatalf("segment %d has %d bytes, limit %d", i, len(segment), maxBytes)
			}
			if !utf8.Valid(segment) {
				t.Fatalf("segment %d splits a rune: %q", i, segment)
			}
			if i < len(segments)-1 && len(segment) == 0 {
				t.Fatalf("segment %d is empty but not last", i)
			}
		}
		if joined := string(bytes.Join(segments, nil)); joined != text {
			t.Fatalf("segments reassemble to %q, want %q", joined, text)
		}
	})
}
