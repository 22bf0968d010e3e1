// Package lexruntime is the contract generated lexers are compiled against:
// a cursor over a byte-addressable Source, an Outcome adapter for callback
// return values, and a handful of primitives (Bump, Trivia, fast-loop
// scanning) the generated state machine calls directly.
package lexruntime

import "unicode/utf8"

// Source is a byte-addressable input a Lexer reads from: either UTF-8 text
// or opaque bytes. Both concrete sources are safe to slice and index;
// unlike the Rust original there is no unsafe boundary-skipping read, since
// Go slicing is already bounds-checked at negligible cost.
type Source interface {
	// Len returns the total byte length of the source.
	Len() int
	// Byte returns the byte at offset, or 0 if offset == Len().
	Byte(offset int) byte
	// SliceString returns [lo:hi) as a string, zero-copy for StringSource.
	SliceString(lo, hi int) string
	// SliceBytes returns [lo:hi) as a []byte, zero-copy for BytesSource.
	SliceBytes(lo, hi int) []byte
	// IsBoundary reports whether offset is a valid place to end a token:
	// always true for byte sources, UTF-8-codepoint-boundary for text.
	IsBoundary(offset int) bool
	// FindBoundary advances offset forward to the next valid boundary.
	FindBoundary(offset int) int
}

// StringSource is a UTF-8 text source.
type StringSource string

func (s StringSource) Len() int { return len(s) }

func (s StringSource) Byte(offset int) byte {
	if offset >= len(s) {
		return 0
	}
	return s[offset]
}

func (s StringSource) SliceString(lo, hi int) string { return string(s[lo:hi]) }
func (s StringSource) SliceBytes(lo, hi int) []byte  { return []byte(s[lo:hi]) }

func (s StringSource) IsBoundary(offset int) bool {
	if offset <= 0 || offset >= len(s) {
		return true
	}
	return utf8.RuneStart(s[offset])
}

func (s StringSource) FindBoundary(offset int) int {
	for offset < len(s) && !s.IsBoundary(offset) {
		offset++
	}
	return offset
}

// BytesSource is an opaque byte source; every offset is a boundary.
type BytesSource []byte

func (s BytesSource) Len() int { return len(s) }

func (s BytesSource) Byte(offset int) byte {
	if offset >= len(s) {
		return 0
	}
	return s[offset]
}

func (s BytesSource) SliceString(lo, hi int) string { return string(s[lo:hi]) }
func (s BytesSource) SliceBytes(lo, hi int) []byte  { return s[lo:hi] }

func (s BytesSource) IsBoundary(int) bool { return true }

func (s BytesSource) FindBoundary(offset int) int { return offset }
