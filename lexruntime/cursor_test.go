package lexruntime

import "testing"

func TestCursor_SliceAndBump(t *testing.T) {
	c := NewCursor[struct{}](StringSource("héllo"), struct{}{})
	c.StartNext()
	// 'h' is ASCII, fine to bump by 1.
	c.BumpUnchecked(1)
	if got := c.SliceString(); got != "h" {
		t.Fatalf("SliceString() = %q, want %q", got, "h")
	}
}

func TestCursor_BumpPanicsMidCodepoint(t *testing.T) {
	c := NewCursor[struct{}](StringSource("héllo"), struct{}{})
	c.StartNext()
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic bumping into the middle of 'é'")
		}
	}()
	// 'é' is a 2-byte codepoint starting at offset 1; bumping by 2 lands
	// mid-codepoint (offset 2 is not a boundary since é occupies [1,3)).
	c.Bump(2)
}

func TestCursor_ReadChunk(t *testing.T) {
	c := NewCursor[struct{}](BytesSource([]byte("abcdef")), struct{}{})
	c.StartNext()
	chunk, ok := c.ReadChunk(0, 3)
	if !ok || string(chunk) != "abc" {
		t.Fatalf("ReadChunk(0,3) = %q, %v", chunk, ok)
	}
	if _, ok := c.ReadChunk(0, 100); ok {
		t.Fatal("expected ReadChunk to fail past end of input")
	}
}

func TestCursor_TriviaAndSpan(t *testing.T) {
	c := NewCursor[struct{}](BytesSource([]byte("  ident")), struct{}{})
	c.StartNext()
	c.BumpUnchecked(2)
	c.Trivia()
	c.BumpUnchecked(5)
	if got := c.SliceString(); got != "ident" {
		t.Fatalf("SliceString() after Trivia = %q, want %q", got, "ident")
	}
	if span := c.Span(); span != (Span{2, 7}) {
		t.Fatalf("Span() = %+v, want {2 7}", span)
	}
}

func TestMorph_CarriesPositionAndConvertsExtras(t *testing.T) {
	c := NewCursor[int](StringSource("abc"), 5)
	c.StartNext()
	c.BumpUnchecked(1)

	c2 := Morph(c, func(n int) string { return "extras-was-5" })
	if c2.Extras != "extras-was-5" {
		t.Fatalf("Extras = %q, want converted value", c2.Extras)
	}
	if c2.Span() != c.Span() {
		t.Fatalf("Morph changed position: %+v vs %+v", c2.Span(), c.Span())
	}
}
