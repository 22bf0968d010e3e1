package lexruntime

// Morph reinterprets a cursor positioned at some offset under a different
// rule set's Extras type, continuing from the same source position —
// the primitive context-sensitive lexing (e.g. switching rule sets inside
// a string literal) builds on. convert adapts the old Extras value into
// the new type, mirroring the original's `Token::Extras: Into<Token2::Extras>`
// bound; Go has no blanket conversion trait, so the caller supplies one.
func Morph[From, To any](c *Cursor[From], convert func(From) To) *Cursor[To] {
	return &Cursor[To]{
		source:     c.source,
		tokenStart: c.tokenStart,
		tokenEnd:   c.tokenEnd,
		Extras:     convert(c.Extras),
	}
}
