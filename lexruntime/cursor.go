package lexruntime

// Span is a byte range into a Source.
type Span struct {
	Start, End int
}

// Cursor holds the generated lexer's position bookkeeping: the two
// cursors bounding the current token, the source being read, and the
// caller-declared Extras value. A Lexer holds a *Cursor, and Lexer.Next
// runs the generated Step function over it; Cursor itself never
// interprets bytes.
type Cursor[Extras any] struct {
	source     Source
	tokenStart int
	tokenEnd   int
	mark       int
	Extras     Extras
}

// NewCursor constructs a Cursor positioned at the start of source.
func NewCursor[Extras any](source Source, extras Extras) *Cursor[Extras] {
	return &Cursor[Extras]{source: source, Extras: extras}
}

// Source returns the underlying input.
func (c *Cursor[Extras]) Source() Source { return c.source }

// Span returns the current token's byte range.
func (c *Cursor[Extras]) Span() Span { return Span{c.tokenStart, c.tokenEnd} }

// SliceString returns the current token as a string.
func (c *Cursor[Extras]) SliceString() string {
	return c.source.SliceString(c.tokenStart, c.tokenEnd)
}

// SliceBytes returns the current token as a []byte.
func (c *Cursor[Extras]) SliceBytes() []byte {
	return c.source.SliceBytes(c.tokenStart, c.tokenEnd)
}

// RemainderString returns every byte after the current token as a string.
func (c *Cursor[Extras]) RemainderString() string {
	return c.source.SliceString(c.tokenEnd, c.source.Len())
}

// RemainderBytes returns every byte after the current token as a []byte.
func (c *Cursor[Extras]) RemainderBytes() []byte {
	return c.source.SliceBytes(c.tokenEnd, c.source.Len())
}

// Bump extends the token end by n bytes. Panics if the resulting position
// is not a valid boundary (mid-codepoint for a UTF-8 source).
func (c *Cursor[Extras]) Bump(n int) {
	c.tokenEnd += n
	if !c.source.IsBoundary(c.tokenEnd) {
		panic("lexruntime: bump landed mid-codepoint")
	}
}

// BumpUnchecked advances the token end by n without boundary validation;
// only the generator, which has already proven n bytes are consumable and
// boundary-safe, may call this.
func (c *Cursor[Extras]) BumpUnchecked(n int) { c.tokenEnd += n }

// Trivia resets the token start to the current end — used after a Skip
// leaf so the next token begins past the skipped bytes.
func (c *Cursor[Extras]) Trivia() { c.tokenStart = c.tokenEnd }

// StartNext moves the token start to the current end, beginning the next
// token's scan. Called once per Next() before running the state machine.
func (c *Cursor[Extras]) StartNext() { c.tokenStart = c.tokenEnd }

// ReadByte returns the byte at tokenEnd+offset, or (0, false) at end of
// input.
func (c *Cursor[Extras]) ReadByte(offset int) (byte, bool) {
	pos := c.tokenEnd + offset
	if pos >= c.source.Len() {
		return 0, false
	}
	return c.source.Byte(pos), true
}

// ReadChunk returns the n bytes starting at tokenEnd+offset, or false if
// fewer than n bytes remain — one bounds check covering the whole chunk,
// the primitive the generated fast loop issues per iteration.
func (c *Cursor[Extras]) ReadChunk(offset, n int) ([]byte, bool) {
	lo := c.tokenEnd + offset
	hi := lo + n
	if hi > c.source.Len() {
		return nil, false
	}
	return c.source.SliceBytes(lo, hi), true
}

// EndToBoundary sets the token end to the nearest valid boundary at or
// after offset (advances past a partial codepoint for UTF-8 sources; a
// no-op for byte sources).
func (c *Cursor[Extras]) EndToBoundary(offset int) {
	c.tokenEnd = c.source.FindBoundary(offset)
}

// AtEnd reports whether the token end has reached the end of input.
func (c *Cursor[Extras]) AtEnd() bool { return c.tokenEnd >= c.source.Len() }

// End returns the current token-end offset, used by generated code to
// record a longest-match rollback mark on entering an accept state.
func (c *Cursor[Extras]) End() int { return c.tokenEnd }

// SetEnd rewinds (or advances) the token end to an absolute offset — the
// longest-match rollback primitive: when a run of bytes dead-ends past
// the last accepted state, generated code calls SetEnd(mark) to discard
// whatever was read past that point before emitting the remembered leaf.
func (c *Cursor[Extras]) SetEnd(pos int) { c.tokenEnd = pos }

// Mark returns the last recorded longest-match rollback position.
func (c *Cursor[Extras]) Mark() int { return c.mark }

// SetMark records pos as the rollback position, called by generated code
// on entering every accept state.
func (c *Cursor[Extras]) SetMark(pos int) { c.mark = pos }
