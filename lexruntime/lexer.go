package lexruntime

// Result is one item of the token stream a Lexer produces: either a
// successfully matched Tok, or a user/default error, always carrying the
// span it was produced over (spec.md §4.5, §7 — "each Err carries its
// span through lexer.span()").
type Result[Tok any] struct {
	Token Tok
	Err   error
	Span  Span
}

// Step is the generated state-machine entry point: it reads bytes from
// l's Cursor, advances it, and writes l's result slot via Set/SetError,
// or ends the stream via Stop.
// One concrete Step function is emitted per rule set by package codegen.
type Step[Tok, Extras any] func(l *Lexer[Tok, Extras])

// Lexer is the pull iterator the generated Step function drives: a Cursor
// plus the current token slot, matching spec.md §4.5's state shape
// `{ source, cursor_start, cursor_end, current_token_slot, extras }`.
type Lexer[Tok, Extras any] struct {
	Cursor *Cursor[Extras]
	step   Step[Tok, Extras]
	slot   Result[Tok]
	done   bool
}

// NewLexer constructs a Lexer over source, with the given extras value
// and generated Step function.
func NewLexer[Tok, Extras any](source Source, extras Extras, step Step[Tok, Extras]) *Lexer[Tok, Extras] {
	return &Lexer[Tok, Extras]{
		Cursor: NewCursor(source, extras),
		step:   step,
	}
}

// Next runs one lex step and returns the produced Result, or (_, false)
// at end of stream — spec.md §4.5's `next() -> Option<Result<Token, Error>>`.
func (l *Lexer[Tok, Extras]) Next() (Result[Tok], bool) {
	if l.done {
		var zero Result[Tok]
		return zero, false
	}
	l.Cursor.StartNext()
	if l.Cursor.AtEnd() {
		l.done = true
		var zero Result[Tok]
		return zero, false
	}
	l.step(l)
	if l.done {
		var zero Result[Tok]
		return zero, false
	}
	l.slot.Span = l.Cursor.Span()
	return l.slot, true
}

// Set writes the token slot to a successful result.
func (l *Lexer[Tok, Extras]) Set(tok Tok) { l.slot = Result[Tok]{Token: tok} }

// SetError writes the token slot to a failed result.
func (l *Lexer[Tok, Extras]) SetError(err error) { l.slot = Result[Tok]{Err: err} }

// Stop marks the stream exhausted with no further token, matching
// spec.md §8's boundary case "a skip rule at EOF: consumes the bytes,
// returns no token, then None." The root state calls this when a skip's
// direct restart lands exactly at end of input — the re-entry bypasses
// Next's own AtEnd check above, since it never goes back through Next
// between the skip and the restart.
func (l *Lexer[Tok, Extras]) Stop() { l.done = true }

// SliceString returns the current token's text, for a UTF-8 source.
func (l *Lexer[Tok, Extras]) SliceString() string { return l.Cursor.SliceString() }

// SliceBytes returns the current token's bytes.
func (l *Lexer[Tok, Extras]) SliceBytes() []byte { return l.Cursor.SliceBytes() }

// RemainderString returns every byte after the current token, for a UTF-8
// source.
func (l *Lexer[Tok, Extras]) RemainderString() string { return l.Cursor.RemainderString() }

// RemainderBytes returns every byte after the current token.
func (l *Lexer[Tok, Extras]) RemainderBytes() []byte { return l.Cursor.RemainderBytes() }

// Span returns the current token's byte range.
func (l *Lexer[Tok, Extras]) Span() Span { return l.Cursor.Span() }

// Bump extends the current token by n bytes, panicking if the result
// isn't a valid boundary.
func (l *Lexer[Tok, Extras]) Bump(n int) { l.Cursor.Bump(n) }

// Clone produces an independent iterator sharing the same source and
// cursor position, but with its own freshly zeroed result slot — per
// spec.md §5, "the clone must not alias mutable data that belongs to the
// original."
func (l *Lexer[Tok, Extras]) Clone() *Lexer[Tok, Extras] {
	cursorCopy := *l.Cursor
	return &Lexer[Tok, Extras]{
		Cursor: &cursorCopy,
		step:   l.step,
		done:   l.done,
	}
}

// MorphLexer reinterprets l's cursor position under a different rule
// set's Step function and Extras type, converting the extras value with
// convert — spec.md §4.5/§9's `morph`.
func MorphLexer[FromTok, FromExtras, ToTok, ToExtras any](
	l *Lexer[FromTok, FromExtras],
	step Step[ToTok, ToExtras],
	convert func(FromExtras) ToExtras,
) *Lexer[ToTok, ToExtras] {
	return &Lexer[ToTok, ToExtras]{
		Cursor: Morph(l.Cursor, convert),
		step:   step,
	}
}
