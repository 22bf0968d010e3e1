package nfa

import (
	"fmt"

	"github.com/coregx/lexforge/mir"
)

// CompilerConfig configures NFA compilation behavior.
type CompilerConfig struct {
	// MaxRecursionDepth limits recursion during compilation to prevent stack
	// overflow on pathologically nested patterns. Default: 100.
	MaxRecursionDepth int
	// UTF8Mode selects how character classes and literals compile to byte
	// transitions. When true (the default), a class or literal rune above
	// 0x7F is decomposed into the precise multi-byte UTF-8 sequences that
	// encode it (compileUTF8Range and friends), so the NFA only ever
	// accepts valid UTF-8. When false, classes and literals compile as raw
	// byte values instead: every class range is clipped to [0, 0xFF] and
	// built as a single byte transition, and every literal rune is emitted
	// as one byte (its low 8 bits) rather than UTF-8-encoded — spec.md
	// §3's Config contract, "when true, the NFA is built to only accept
	// valid UTF-8 byte sequences; regex dot classes are narrowed
	// accordingly."
	UTF8Mode bool
}

// DefaultCompilerConfig returns a compiler configuration with sensible defaults.
func DefaultCompilerConfig() CompilerConfig {
	return CompilerConfig{MaxRecursionDepth: 100, UTF8Mode: true}
}

// PatternInput is one rule's canonicalized pattern plus the leaf index its
// match states should be tagged with.
type PatternInput struct {
	Mir    *mir.Mir
	LeafID uint32
}

// Compiler compiles mir.Mir trees into Thompson NFA fragments. A single
// Compiler accumulates state across CompileMany so that every rule in a
// lexer shares one NFA (and therefore one alphabet and one subsequent DFA).
type Compiler struct {
	config  CompilerConfig
	builder *Builder
	depth   int
}

// NewCompiler creates a new NFA compiler with the given configuration.
func NewCompiler(config CompilerConfig) *Compiler {
	if config.MaxRecursionDepth == 0 {
		config.MaxRecursionDepth = 100
	}
	return &Compiler{config: config, builder: NewBuilder()}
}

// NewDefaultCompiler creates a new NFA compiler with default configuration.
func NewDefaultCompiler() *Compiler {
	return NewCompiler(DefaultCompilerConfig())
}

// CompileMany unions every pattern into a single multi-pattern NFA, anchored
// at a shared start state. Each pattern's match state is tagged with its
// LeafID so later stages (graph construction) can recover which rule
// accepted. Patterns are tried in the order given; since lexer patterns
// never express leftmost-first preference (disambiguation happens entirely
// by priority/length/declaration-order over the resulting DFA's accept
// states, per spec.md §3), the order among the split chain is immaterial.
func (c *Compiler) CompileMany(inputs []PatternInput) (*NFA, error) {
	c.builder = NewBuilder()
	c.depth = 0

	if len(inputs) == 0 {
		return nil, &CompileError{Err: fmt.Errorf("no patterns to compile")}
	}

	starts := make([]StateID, 0, len(inputs))
	for _, in := range inputs {
		start, end, err := c.compileMir(in.Mir)
		if err != nil {
			return nil, err
		}
		matchID := c.builder.AddMatchFor(in.LeafID)
		if err := c.builder.Patch(end, matchID); err != nil {
			epsilon := c.builder.AddEpsilon(matchID)
			if err := c.builder.Patch(end, epsilon); err != nil {
				return nil, &CompileError{Err: fmt.Errorf("failed to connect leaf %d to match state: %w", in.LeafID, err)}
			}
		}
		starts = append(starts, start)
	}

	start := c.buildSplitChain(starts)
	c.builder.SetStarts(start, start)

	nfa, err := c.builder.Build(
		WithUTF8(c.config.UTF8Mode),
		WithAnchored(true),
		WithPatternCount(len(inputs)),
	)
	if err != nil {
		return nil, &CompileError{Err: err}
	}
	return nfa, nil
}

// compileMir recursively compiles one mir.Mir node. Returns (start, end)
// state IDs for the compiled fragment; end needs to be patched to continue
// the automaton (into the next fragment, or into a match state).
func (c *Compiler) compileMir(m *mir.Mir) (start, end StateID, err error) {
	c.depth++
	if c.depth > c.config.MaxRecursionDepth {
		return InvalidState, InvalidState, &CompileError{Err: ErrTooComplex}
	}
	defer func() { c.depth-- }()

	switch m.Kind {
	case mir.KindEmpty:
		return c.compileEmptyMatch()
	case mir.KindLiteral:
		return c.compileLiteral(m.Runes)
	case mir.KindClass:
		return c.compileClass(m.Ranges)
	case mir.KindConcat:
		return c.compileConcat(m.Sub)
	case mir.KindAlternation:
		return c.compileAlternate(m.Sub)
	case mir.KindLoop:
		return c.compileLoop(m.Sub[0])
	case mir.KindMaybe:
		return c.compileMaybe(m.Sub[0])
	default:
		return InvalidState, InvalidState, &CompileError{Err: fmt.Errorf("unsupported mir kind: %v", m.Kind)}
	}
}

// compileLiteral compiles a fixed sequence of runes, chained as ByteRange
// states. In UTF8Mode each rune is encoded to its full UTF-8 byte sequence;
// in byte mode each rune is emitted as a single raw byte (its low 8 bits),
// matching how a byte-mode rule's pattern source is meant to be read —
// as bytes, not decoded codepoints.
func (c *Compiler) compileLiteral(runes []rune) (start, end StateID, err error) {
	if len(runes) == 0 {
		return c.compileEmptyMatch()
	}

	var prev = InvalidState
	var first = InvalidState
	appendByte := func(b byte) error {
		id := c.builder.AddByteRange(b, b, InvalidState)
		if first == InvalidState {
			first = id
		}
		if prev != InvalidState {
			if err := c.builder.Patch(prev, id); err != nil {
				return err
			}
		}
		prev = id
		return nil
	}

	for _, r := range runes {
		if !c.config.UTF8Mode {
			if err := appendByte(byte(r)); err != nil {
				return InvalidState, InvalidState, err
			}
			continue
		}
		buf := make([]byte, 4)
		n := encodeRune(buf, r)
		for i := 0; i < n; i++ {
			if err := appendByte(buf[i]); err != nil {
				return InvalidState, InvalidState, err
			}
		}
	}
	return first, prev, nil
}

// compileClass compiles a character class (a set of inclusive rune ranges)
// into byte-level transitions. In UTF8Mode, the ASCII portion of each range
// becomes a single ByteRange/Sparse state and the non-ASCII portion becomes
// precise per-UTF-8-length byte sequences via compileUTF8Range. In byte
// mode every range is clipped to [0, 0xFF] and compiled as a raw byte
// range directly, with no UTF-8 decomposition.
func (c *Compiler) compileClass(ranges []mir.RuneRange) (start, end StateID, err error) {
	if len(ranges) == 0 {
		return c.compileNoMatch()
	}
	if !c.config.UTF8Mode {
		return c.compileClassByteMode(ranges)
	}

	var asciiRanges []Transition
	var nonASCIIRanges [][2]rune
	for _, rg := range ranges {
		switch {
		case rg.Hi < 0x80:
			asciiRanges = append(asciiRanges, Transition{Lo: byte(rg.Lo), Hi: byte(rg.Hi)})
		case rg.Lo >= 0x80:
			nonASCIIRanges = append(nonASCIIRanges, [2]rune{rg.Lo, rg.Hi})
		default:
			asciiRanges = append(asciiRanges, Transition{Lo: byte(rg.Lo), Hi: 0x7F})
			nonASCIIRanges = append(nonASCIIRanges, [2]rune{0x80, rg.Hi})
		}
	}

	target := c.builder.AddEpsilon(InvalidState)
	var altStarts []StateID

	if len(asciiRanges) > 0 {
		for i := range asciiRanges {
			asciiRanges[i].Next = target
		}
		if len(asciiRanges) == 1 {
			id := c.builder.AddByteRange(asciiRanges[0].Lo, asciiRanges[0].Hi, target)
			altStarts = append(altStarts, id)
		} else {
			id := c.builder.AddSparse(asciiRanges)
			altStarts = append(altStarts, id)
		}
	}

	for _, rng := range nonASCIIRanges {
		rangeStarts := c.compileUTF8Range(rng[0], rng[1], target)
		altStarts = append(altStarts, rangeStarts...)
	}

	if len(altStarts) == 0 {
		return c.compileNoMatch()
	}
	if len(altStarts) == 1 {
		return altStarts[0], target, nil
	}
	return c.buildSplitChain(altStarts), target, nil
}

// compileClassByteMode compiles a character class with no UTF-8 decomposition:
// every range is clipped to [0, 0xFF] and built as a single byte transition,
// so a rule written against raw bytes (not decoded codepoints) matches bytes
// directly — spec.md §3's Config contract for UTF8Mode=false.
func (c *Compiler) compileClassByteMode(ranges []mir.RuneRange) (start, end StateID, err error) {
	var byteRanges []Transition
	for _, rg := range ranges {
		if rg.Lo > 0xFF {
			continue
		}
		hi := rg.Hi
		if hi > 0xFF {
			hi = 0xFF
		}
		byteRanges = append(byteRanges, Transition{Lo: byte(rg.Lo), Hi: byte(hi)})
	}
	if len(byteRanges) == 0 {
		return c.compileNoMatch()
	}

	target := c.builder.AddEpsilon(InvalidState)
	for i := range byteRanges {
		byteRanges[i].Next = target
	}
	if len(byteRanges) == 1 {
		id := c.builder.AddByteRange(byteRanges[0].Lo, byteRanges[0].Hi, target)
		return id, target, nil
	}
	id := c.builder.AddSparse(byteRanges)
	return id, target, nil
}

// compileConcat compiles a sequence of fragments end-to-end.
func (c *Compiler) compileConcat(subs []*mir.Mir) (start, end StateID, err error) {
	if len(subs) == 0 {
		return c.compileEmptyMatch()
	}
	if len(subs) == 1 {
		return c.compileMir(subs[0])
	}

	start, end, err = c.compileMir(subs[0])
	if err != nil {
		return InvalidState, InvalidState, err
	}
	for i := 1; i < len(subs); i++ {
		nextStart, nextEnd, err := c.compileMir(subs[i])
		if err != nil {
			return InvalidState, InvalidState, err
		}
		if err := c.builder.Patch(end, nextStart); err != nil {
			epsilon := c.builder.AddEpsilon(nextStart)
			if err := c.builder.Patch(end, epsilon); err != nil {
				return InvalidState, InvalidState, err
			}
		}
		end = nextEnd
	}
	return start, end, nil
}

// compileAlternate compiles a set of alternatives joined at a shared exit.
func (c *Compiler) compileAlternate(subs []*mir.Mir) (start, end StateID, err error) {
	if len(subs) == 0 {
		return c.compileEmptyMatch()
	}
	if len(subs) == 1 {
		return c.compileMir(subs[0])
	}

	starts := make([]StateID, 0, len(subs))
	ends := make([]StateID, 0, len(subs))
	for _, sub := range subs {
		s, e, err := c.compileMir(sub)
		if err != nil {
			return InvalidState, InvalidState, err
		}
		starts = append(starts, s)
		ends = append(ends, e)
	}

	split := c.buildSplitChain(starts)
	join := c.builder.AddEpsilon(InvalidState)
	for _, e := range ends {
		if err := c.builder.Patch(e, join); err != nil {
			continue
		}
	}
	return split, join, nil
}

// buildSplitChain builds a binary-tree chain of Split states distributing
// into every target. Used for both alternation and character-class
// UTF-8-range fan-out.
func (c *Compiler) buildSplitChain(targets []StateID) StateID {
	if len(targets) == 1 {
		return targets[0]
	}
	if len(targets) == 2 {
		return c.builder.AddSplit(targets[0], targets[1])
	}
	right := c.buildSplitChain(targets[1:])
	return c.builder.AddSplit(targets[0], right)
}

// compileLoop compiles Kind Loop (a*): a fragment that may be skipped
// entirely or repeated any number of times. Thread priority between
// continue/exit branches doesn't matter here — subset construction over
// this NFA builds a DFA from reachability alone, not leftmost-first
// preference, so a plain Split suffices (unlike a backtracking engine's
// PikeVM, which needs AddQuantifierSplit to keep greedy semantics).
func (c *Compiler) compileLoop(sub *mir.Mir) (start, end StateID, err error) {
	subStart, subEnd, err := c.compileMir(sub)
	if err != nil {
		return InvalidState, InvalidState, err
	}
	end = c.builder.AddEpsilon(InvalidState)
	split := c.builder.AddSplit(subStart, end)
	if err := c.builder.Patch(subEnd, split); err != nil {
		epsilon := c.builder.AddEpsilon(split)
		if err := c.builder.Patch(subEnd, epsilon); err != nil {
			return InvalidState, InvalidState, err
		}
	}
	return split, end, nil
}

// compileMaybe compiles Kind Maybe (a?): match sub once, or skip it.
func (c *Compiler) compileMaybe(sub *mir.Mir) (start, end StateID, err error) {
	subStart, subEnd, err := c.compileMir(sub)
	if err != nil {
		return InvalidState, InvalidState, err
	}
	end = c.builder.AddEpsilon(InvalidState)
	split := c.builder.AddSplit(subStart, end)
	if err := c.builder.Patch(subEnd, end); err != nil {
		epsilon := c.builder.AddEpsilon(end)
		if err := c.builder.Patch(subEnd, epsilon); err != nil {
			return InvalidState, InvalidState, err
		}
	}
	return split, end, nil
}

// compileEmptyMatch compiles an epsilon transition (matches without
// consuming input).
func (c *Compiler) compileEmptyMatch() (start, end StateID, err error) {
	id := c.builder.AddEpsilon(InvalidState)
	return id, id, nil
}

// compileNoMatch compiles a fragment that can never reach its end state,
// for empty character classes.
func (c *Compiler) compileNoMatch() (start, end StateID, err error) {
	start = c.builder.AddEpsilon(InvalidState)
	end = c.builder.AddEpsilon(InvalidState)
	return start, end, nil
}

// encodeRune encodes a rune as UTF-8 into buf and returns the number of
// bytes written. buf must have capacity >= 4.
func encodeRune(buf []byte, r rune) int {
	if r < 0x80 {
		buf[0] = byte(r)
		return 1
	}
	if r < 0x800 {
		buf[0] = byte(0xC0 | (r >> 6))
		buf[1] = byte(0x80 | (r & 0x3F))
		return 2
	}
	if r < 0x10000 {
		buf[0] = byte(0xE0 | (r >> 12))
		buf[1] = byte(0x80 | ((r >> 6) & 0x3F))
		buf[2] = byte(0x80 | (r & 0x3F))
		return 3
	}
	buf[0] = byte(0xF0 | (r >> 18))
	buf[1] = byte(0x80 | ((r >> 12) & 0x3F))
	buf[2] = byte(0x80 | ((r >> 6) & 0x3F))
	buf[3] = byte(0x80 | (r & 0x3F))
	return 4
}

// compileUTF8Range builds NFA states for a Unicode range [lo, hi], split
// across UTF-8 byte-length boundaries (1/2/3/4-byte sequences).
func (c *Compiler) compileUTF8Range(lo, hi rune, endState StateID) []StateID {
	var starts []StateID

	if lo <= 0x7F {
		asciiHi := hi
		if asciiHi > 0x7F {
			asciiHi = 0x7F
		}
		starts = append(starts, c.compileUTF81ByteRange(lo, asciiHi, endState))
		lo = 0x80
	}
	if lo > hi {
		return starts
	}

	if lo <= 0x7FF {
		twoByteHi := hi
		if twoByteHi > 0x7FF {
			twoByteHi = 0x7FF
		}
		starts = append(starts, c.compileUTF82ByteRange(lo, twoByteHi, endState)...)
		lo = 0x800
	}
	if lo > hi {
		return starts
	}

	if lo <= 0xFFFF {
		threeByteHi := hi
		if threeByteHi > 0xFFFF {
			threeByteHi = 0xFFFF
		}
		starts = append(starts, c.compileUTF83ByteRange(lo, threeByteHi, endState)...)
		lo = 0x10000
	}
	if lo > hi {
		return starts
	}

	starts = append(starts, c.compileUTF84ByteRange(lo, hi, endState)...)
	return starts
}

// compileUTF81ByteRange builds NFA for ASCII range [lo, hi] (U+0000-U+007F).
func (c *Compiler) compileUTF81ByteRange(lo, hi rune, endState StateID) StateID {
	return c.builder.AddByteRange(byte(lo), byte(hi), endState)
}

// compileUTF82ByteRange builds NFA for 2-byte UTF-8 range [lo, hi]
// (U+0080-U+07FF). Lead 0xC2-0xDF, cont 0x80-0xBF.
func (c *Compiler) compileUTF82ByteRange(lo, hi rune, endState StateID) []StateID {
	var starts []StateID

	loLead := byte(0xC0 | (lo >> 6))
	loCont := byte(0x80 | (lo & 0x3F))
	hiLead := byte(0xC0 | (hi >> 6))
	hiCont := byte(0x80 | (hi & 0x3F))

	if loLead == hiLead {
		cont := c.builder.AddByteRange(loCont, hiCont, endState)
		lead := c.builder.AddByteRange(loLead, loLead, cont)
		starts = append(starts, lead)
		return starts
	}

	cont1 := c.builder.AddByteRange(loCont, 0xBF, endState)
	lead1 := c.builder.AddByteRange(loLead, loLead, cont1)
	starts = append(starts, lead1)

	if hiLead > loLead+1 {
		contM := c.builder.AddByteRange(0x80, 0xBF, endState)
		leadM := c.builder.AddByteRange(loLead+1, hiLead-1, contM)
		starts = append(starts, leadM)
	}

	cont2 := c.builder.AddByteRange(0x80, hiCont, endState)
	lead2 := c.builder.AddByteRange(hiLead, hiLead, cont2)
	starts = append(starts, lead2)

	return starts
}

// compileUTF83ByteRange builds NFA for 3-byte UTF-8 range [lo, hi]
// (U+0800-U+FFFF), excluding the surrogate gap U+D800-U+DFFF.
func (c *Compiler) compileUTF83ByteRange(lo, hi rune, endState StateID) []StateID {
	var starts []StateID

	if lo <= 0xD7FF && hi >= 0xE000 {
		starts = append(starts, c.compileUTF83ByteRangeSimple(lo, 0xD7FF, endState)...)
		starts = append(starts, c.compileUTF83ByteRangeSimple(0xE000, hi, endState)...)
		return starts
	}
	if lo >= 0xD800 && hi <= 0xDFFF {
		return starts
	}
	if lo >= 0xD800 && lo <= 0xDFFF {
		lo = 0xE000
	}
	if hi >= 0xD800 && hi <= 0xDFFF {
		hi = 0xD7FF
	}
	if lo > hi {
		return starts
	}
	return c.compileUTF83ByteRangeSimple(lo, hi, endState)
}

// compileUTF83ByteRangeSimple builds NFA for a 3-byte range known not to
// touch the surrogate gap.
func (c *Compiler) compileUTF83ByteRangeSimple(lo, hi rune, endState StateID) []StateID {
	var starts []StateID

	loLead := byte(0xE0 | (lo >> 12))
	loCont1 := byte(0x80 | ((lo >> 6) & 0x3F))
	loCont2 := byte(0x80 | (lo & 0x3F))
	hiLead := byte(0xE0 | (hi >> 12))
	hiCont1 := byte(0x80 | ((hi >> 6) & 0x3F))
	hiCont2 := byte(0x80 | (hi & 0x3F))

	switch {
	case loLead == hiLead && loCont1 == hiCont1:
		cont2 := c.builder.AddByteRange(loCont2, hiCont2, endState)
		cont1 := c.builder.AddByteRange(loCont1, loCont1, cont2)
		lead := c.builder.AddByteRange(loLead, loLead, cont1)
		starts = append(starts, lead)

	case loLead == hiLead:
		for cont1Val := loCont1; cont1Val <= hiCont1; cont1Val++ {
			c2Lo := c.utf8Cont2Lo(cont1Val, loCont1, loCont2)
			c2Hi := c.utf8Cont2Hi(cont1Val, hiCont1, hiCont2)
			cont2 := c.builder.AddByteRange(c2Lo, c2Hi, endState)
			cont1 := c.builder.AddByteRange(cont1Val, cont1Val, cont2)
			lead := c.builder.AddByteRange(loLead, loLead, cont1)
			starts = append(starts, lead)
		}

	default:
		for leadVal := loLead; leadVal <= hiLead; leadVal++ {
			c1Lo := c.utf8Cont1Lo3Byte(leadVal, loLead, loCont1)
			c1Hi := c.utf8Cont1Hi3Byte(leadVal, hiLead, hiCont1)
			for cont1Val := c1Lo; cont1Val <= c1Hi; cont1Val++ {
				c2Lo := c.utf8Cont2LoFull(leadVal, cont1Val, loLead, loCont1, loCont2)
				c2Hi := c.utf8Cont2HiFull(leadVal, cont1Val, hiLead, hiCont1, hiCont2)
				cont2 := c.builder.AddByteRange(c2Lo, c2Hi, endState)
				cont1 := c.builder.AddByteRange(cont1Val, cont1Val, cont2)
				lead := c.builder.AddByteRange(leadVal, leadVal, cont1)
				starts = append(starts, lead)
			}
		}
	}

	return starts
}

// compileUTF84ByteRange builds NFA for 4-byte UTF-8 range [lo, hi]
// (U+10000-U+10FFFF). Lead 0xF0-0xF4, cont1-3 0x80-0xBF.
func (c *Compiler) compileUTF84ByteRange(lo, hi rune, endState StateID) []StateID {
	var starts []StateID

	if hi > 0x10FFFF {
		hi = 0x10FFFF
	}
	if lo < 0x10000 {
		lo = 0x10000
	}
	if lo > hi {
		return starts
	}

	loLead := byte(0xF0 | (lo >> 18))
	hiLead := byte(0xF0 | (hi >> 18))

	for leadVal := loLead; leadVal <= hiLead; leadVal++ {
		var c1Lo, c1Hi byte
		if leadVal == 0xF0 {
			c1Lo = 0x90
		} else {
			c1Lo = 0x80
		}
		if leadVal == 0xF4 {
			c1Hi = 0x8F
		} else {
			c1Hi = 0xBF
		}

		cont3 := c.builder.AddByteRange(0x80, 0xBF, endState)
		cont2 := c.builder.AddByteRange(0x80, 0xBF, cont3)
		cont1 := c.builder.AddByteRange(c1Lo, c1Hi, cont2)
		lead := c.builder.AddByteRange(leadVal, leadVal, cont1)
		starts = append(starts, lead)
	}

	return starts
}

// UTF-8 continuation-byte helper functions for 3-byte range compilation.

func (c *Compiler) utf8Cont2Lo(cont1Val, loCont1, loCont2 byte) byte {
	if cont1Val == loCont1 {
		return loCont2
	}
	return 0x80
}

func (c *Compiler) utf8Cont2Hi(cont1Val, hiCont1, hiCont2 byte) byte {
	if cont1Val == hiCont1 {
		return hiCont2
	}
	return 0xBF
}

func (c *Compiler) utf8Cont1Lo3Byte(leadVal, loLead, loCont1 byte) byte {
	switch {
	case leadVal == loLead:
		return loCont1
	case leadVal == 0xE0:
		return 0xA0
	default:
		return 0x80
	}
}

func (c *Compiler) utf8Cont1Hi3Byte(leadVal, hiLead, hiCont1 byte) byte {
	switch {
	case leadVal == hiLead:
		return hiCont1
	case leadVal == 0xED:
		return 0x9F
	default:
		return 0xBF
	}
}

func (c *Compiler) utf8Cont2LoFull(leadVal, cont1Val, loLead, loCont1, loCont2 byte) byte {
	if leadVal == loLead && cont1Val == loCont1 {
		return loCont2
	}
	return 0x80
}

func (c *Compiler) utf8Cont2HiFull(leadVal, cont1Val, hiLead, hiCont1, hiCont2 byte) byte {
	if leadVal == hiLead && cont1Val == hiCont1 {
		return hiCont2
	}
	return 0xBF
}
